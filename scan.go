package ffs

import "errors"

// scanSector walks one data sector from its first record to the end of the
// written region, feeding every decoded record to the reconciler. Scan-time
// corruption of a single record is tolerated (log and stop scanning this
// sector); NoMem propagates and aborts the whole mount.
func (fs *Filesystem) scanSector(sid sectorID, length uint32) error {
	rec := fs.sectorRec(sid)
	rec.scanCursor = sectorHeaderSize

	for {
		if rec.scanCursor >= length {
			return nil
		}

		pr, err := probeAt(fs, sid, rec.scanCursor, fs.cfg.maxFilenameLen, fs.cfg.maxBlockDataLen)
		switch {
		case err == nil:
			// fallthrough to reconcile below
		case errors.Is(err, ErrEmpty), errors.Is(err, ErrRange):
			return nil
		case errors.Is(err, ErrCorrupt):
			fs.log.Debugf("sector %d: corrupt record at offset %d, stopping scan", sid, rec.scanCursor)
			return nil
		default:
			return err
		}

		rcErr := fs.reconcile(pr, sid, rec.scanCursor)
		if rcErr != nil {
			// Unlike a garbage magic byte (tolerated: just ends this
			// sector's scan), a reconcile-time CORRUPT means two records
			// for the same object id disagree at the same seq — real
			// data corruption, not an artifact of scanning past live
			// data. Fatal, propagated all the way to RestoreFull.
			return rcErr
		}

		rec.scanCursor += pr.size
	}
}
