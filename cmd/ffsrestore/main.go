// Command ffsrestore mounts a raw flash image file and lets you browse the
// restored tree from the command line.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/jbugger/ffsgo"
)

const usage = `ffsrestore - flash filesystem restore tool

Usage:
  ffsrestore ls <image> <sector-size> [<path>]    List entries under <path> (default root)
  ffsrestore cat <image> <sector-size> <file>     Print a file's restored contents
  ffsrestore info <image> <sector-size>           Show directory and file counts
  ffsrestore help                                 Show this help message

<sector-size> is the fixed size in bytes of every sector in the image; the
image's length must be an exact multiple of it.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "ls":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Error: missing image path or sector size")
			os.Exit(1)
		}
		path := "."
		if len(os.Args) > 4 {
			path = os.Args[4]
		}
		if err := listFiles(os.Args[2], os.Args[3], path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
	case "cat":
		if len(os.Args) < 5 {
			fmt.Fprintln(os.Stderr, "Error: missing image path, sector size, or file")
			os.Exit(1)
		}
		if err := catFile(os.Args[2], os.Args[3], os.Args[4]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
	case "info":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Error: missing image path or sector size")
			os.Exit(1)
		}
		if err := showInfo(os.Args[2], os.Args[3]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
	case "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", os.Args[1])
		fmt.Print(usage)
		os.Exit(1)
	}
}

func openAndRestore(imagePath, sectorSizeArg string) (*ffs.Filesystem, func(), error) {
	var sectorSize int64
	if _, err := fmt.Sscanf(sectorSizeArg, "%d", &sectorSize); err != nil || sectorSize <= 0 {
		return nil, nil, fmt.Errorf("invalid sector size %q", sectorSizeArg)
	}

	flash, err := ffs.OpenFileFlash(imagePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open image: %w", err)
	}

	st, err := os.Stat(imagePath)
	if err != nil {
		flash.Close()
		return nil, nil, err
	}
	if st.Size()%sectorSize != 0 {
		flash.Close()
		return nil, nil, fmt.Errorf("image length %d not a multiple of sector size %d", st.Size(), sectorSize)
	}
	n := st.Size() / sectorSize

	descs := make([]ffs.SectorDesc, n)
	for i := range descs {
		descs[i] = ffs.SectorDesc{FlashOffset: uint32(i) * uint32(sectorSize), FlashLength: uint32(sectorSize)}
	}

	zfs, err := ffs.NewFilesystem(flash)
	if err != nil {
		flash.Close()
		return nil, nil, err
	}
	if err := zfs.RestoreFull(context.Background(), descs); err != nil {
		flash.Close()
		return nil, nil, fmt.Errorf("restore: %w", err)
	}
	return zfs, func() { flash.Close() }, nil
}

func listFiles(imagePath, sectorSizeArg, dirPath string) error {
	zfs, closeFn, err := openAndRestore(imagePath, sectorSizeArg)
	if err != nil {
		return err
	}
	defer closeFn()

	entries, err := fs.ReadDir(zfs, dirPath)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dirPath, err)
	}
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %s: %s\n", entry.Name(), err)
			continue
		}
		typeChar := "-"
		if info.IsDir() {
			typeChar = "d"
		}
		fmt.Printf("%s%s %8d %s\n", typeChar, info.Mode().Perm(), info.Size(), entry.Name())
	}
	return nil
}

func catFile(imagePath, sectorSizeArg, filePath string) error {
	zfs, closeFn, err := openAndRestore(imagePath, sectorSizeArg)
	if err != nil {
		return err
	}
	defer closeFn()

	data, err := fs.ReadFile(zfs, filePath)
	if err != nil {
		return fmt.Errorf("read file %q: %w", filePath, err)
	}
	_, err = os.Stdout.Write(data)
	return err
}

func showInfo(imagePath, sectorSizeArg string) error {
	zfs, closeFn, err := openAndRestore(imagePath, sectorSizeArg)
	if err != nil {
		return err
	}
	defer closeFn()

	var fileCount, dirCount int
	var walk func(string)
	walk = func(dir string) {
		entries, err := fs.ReadDir(zfs, dir)
		if err != nil {
			return
		}
		for _, e := range entries {
			sub := e.Name()
			if dir != "." {
				sub = dir + "/" + e.Name()
			}
			if e.IsDir() {
				dirCount++
				walk(sub)
			} else {
				fileCount++
			}
		}
	}
	walk(".")

	fmt.Println("Restored Filesystem Summary")
	fmt.Println("===========================")
	fmt.Printf("Directories:      %d\n", dirCount)
	fmt.Printf("Regular files:    %d\n", fileCount)
	return nil
}
