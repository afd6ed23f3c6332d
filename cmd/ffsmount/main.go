//go:build fuse

// Command ffsmount restores a raw flash image and exposes it as a
// read-only FUSE mount.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"golang.org/x/sys/unix"

	ffs "github.com/jbugger/ffsgo"
)

func main() {
	sectorSize := flag.Int64("sector-size", 4096, "flash sector size in bytes")
	flag.Parse()
	if flag.NArg() < 2 {
		log.Fatalf("usage: ffsmount [-sector-size N] <image> <mountpoint>")
	}
	imagePath, mountPoint := flag.Arg(0), flag.Arg(1)

	// A FUSE mount can open a file descriptor per dentry the kernel caches;
	// raise the limit the way gcsfuse does rather than default to a small
	// per-process cap.
	var rlimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlimit); err != nil {
		log.Printf("warning: failed to query RLIMIT_NOFILE: %s", err)
	} else if rlimit.Cur < rlimit.Max {
		rlimit.Cur = rlimit.Max
		if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &rlimit); err != nil {
			log.Printf("warning: failed to raise RLIMIT_NOFILE: %s", err)
		}
	}

	flashFile, err := ffs.OpenFileFlash(imagePath)
	if err != nil {
		log.Fatalf("open image: %s", err)
	}
	defer flashFile.Close()

	st, err := os.Stat(imagePath)
	if err != nil {
		log.Fatalf("stat image: %s", err)
	}
	if st.Size()%*sectorSize != 0 {
		log.Fatalf("image length %d not a multiple of sector size %d", st.Size(), *sectorSize)
	}
	n := st.Size() / *sectorSize

	descs := make([]ffs.SectorDesc, n)
	for i := range descs {
		descs[i] = ffs.SectorDesc{FlashOffset: uint32(i) * uint32(*sectorSize), FlashLength: uint32(*sectorSize)}
	}

	zfs, err := ffs.NewFilesystem(flashFile, ffs.WithLogger(ffs.NewLogger(false)))
	if err != nil {
		log.Fatalf("new filesystem: %s", err)
	}
	if err := zfs.RestoreFull(context.Background(), descs); err != nil {
		log.Fatalf("restore: %s", err)
	}

	// fuseNode implements no writer interfaces, so the mount is read-only
	// regardless of mount options; FsName/Name are cosmetic (what shows up
	// in `mount` output).
	server, err := fs.Mount(mountPoint, zfs.FuseRoot(), &fs.Options{
		MountOptions: fuse.MountOptions{FsName: "ffsrestore", Name: "ffs"},
	})
	if err != nil {
		log.Fatalf("mount: %s", err)
	}

	log.Printf("mounted %s at %s (read-only)", imagePath, mountPoint)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		server.Unmount()
	}()
	server.Wait()
}
