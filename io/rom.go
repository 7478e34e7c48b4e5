package io

import (
	"log"
	"os"
	"slices"

	"github.com/edsrzf/mmap-go"
)

// Rom is a read-only program image, optionally backed by a memory-mapped file.
type Rom struct {
	Verbose bool   // If set, enables verbose logging.
	Data    []byte // Image contents.

	file   *os.File
	mmap   mmap.MMap
	closed bool
}

var _ Source = (*Rom)(nil)

// OpenRom maps a binary image file read-only.
func OpenRom(path string) (rom *Rom, err error) {
	file, err := os.Open(path)
	if err != nil {
		return
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return
	}

	rom = &Rom{file: file}

	// Zero length files cannot be mapped.
	if info.Size() == 0 {
		return
	}

	rom.mmap, err = mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		file.Close()
		rom = nil
		return
	}
	rom.Data = rom.mmap

	return
}

// Image returns a copy of the image contents.
func (rc *Rom) Image() (data []byte, err error) {
	if rc.closed {
		err = ErrRomClosed
		return
	}

	if rc.Verbose {
		log.Printf("rom: %d bytes", len(rc.Data))
	}

	data = slices.Clone(rc.Data)
	if data == nil {
		data = []byte{}
	}

	return
}

// Close unmaps and closes the backing file, if any.
func (rc *Rom) Close() (err error) {
	if rc.mmap != nil {
		err = rc.mmap.Unmap()
		rc.mmap = nil
	}
	rc.Data = nil

	if rc.file != nil {
		cerr := rc.file.Close()
		if err == nil {
			err = cerr
		}
		rc.file = nil
		rc.closed = true
	}

	return
}
