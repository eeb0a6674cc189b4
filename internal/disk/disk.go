// Package disk simulates a 1541/1581 disk image: D64/D81 geometry, directory
// traversal, sector-chained file reads, and a writable save-file overlay that
// takes precedence over disk-resident files of the same name.
package disk

import (
	"fmt"
	"io"
)

// ImageType distinguishes the two supported disk geometries.
type ImageType int

const (
	D64 ImageType = iota
	D81
)

const (
	d64Size = 174848
	d81Size = 819200

	maxD64Track = 35
	d81Tracks   = 80
	d81Sectors  = 40
)

// d64SectorsPerTrack mirrors the 1541's four speed zones; index 0 is unused.
var d64SectorsPerTrack = [maxD64Track + 1]int{
	0,
	21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21,
	19, 19, 19, 19, 19, 19, 19,
	18, 18, 18, 18, 18, 18,
	17, 17, 17, 17, 17,
}

// SaveStore is the host-provided persistence layer for writable save files,
// keyed by image name plus raw PETSCII filename bytes, keeping the disk
// package itself host-agnostic.
type SaveStore interface {
	Open(key string) (io.ReadCloser, error)
	Create(key string) (io.WriteCloser, error)
}

// FileHandle tracks an open read or write stream, either chained through disk
// sectors or delegated to an external reader/writer from a SaveStore.
type FileHandle struct {
	track, sector, offset int
	length                int
	reader                io.ReadCloser
	writer                io.WriteCloser
}

// IsOpen reports whether the handle still refers to live data.
func (h *FileHandle) IsOpen() bool {
	return h.track != 0 || h.reader != nil || h.writer != nil
}

// Close releases any external reader/writer and marks the handle closed.
func (h *FileHandle) Close() {
	if h.reader != nil {
		h.reader.Close()
		h.reader = nil
	}
	if h.writer != nil {
		h.writer.Close()
		h.writer = nil
	}
	h.track = 0
}

// Image is a parsed D64/D81 disk image plus its save-file overlay.
type Image struct {
	name    string
	data    []byte
	typ     ImageType
	offsets map[[2]int]int
	saves   SaveStore
}

// Load parses raw disk image bytes, classifying D64 vs D81 purely by length.
func Load(name string, data []byte, saves SaveStore) (*Image, error) {
	var typ ImageType
	switch len(data) {
	case d64Size:
		typ = D64
	case d81Size:
		typ = D81
	default:
		return nil, fmt.Errorf("disk: %q is %d bytes, not a recognised D64/D81 image", name, len(data))
	}
	img := &Image{name: name, data: data, typ: typ, saves: saves}
	img.buildSectorTable()
	return img, nil
}

func (img *Image) buildSectorTable() {
	img.offsets = make(map[[2]int]int)
	offset := 0
	if img.typ == D64 {
		for track := 1; track <= maxD64Track; track++ {
			for sector := 0; sector < d64SectorsPerTrack[track]; sector++ {
				img.offsets[[2]int{track, sector}] = offset
				offset += 256
			}
		}
	} else {
		for track := 1; track <= d81Tracks; track++ {
			for sector := 0; sector < d81Sectors; sector++ {
				img.offsets[[2]int{track, sector}] = offset
				offset += 256
			}
		}
	}
}

func (img *Image) sectorOffset(track, sector int) int {
	return img.offsets[[2]int{track, sector}]
}

func (img *Image) saveKey(name []byte) string {
	return img.name + string(name)
}

// OpenFile resolves name against the save-file overlay first, then the
// directory chain (D64: track 18 sector 1; D81: track 40 sector 3). An empty
// name matches the first PRG file encountered.
func (img *Image) OpenFile(name []byte) *FileHandle {
	if img.saves != nil {
		if r, err := img.saves.Open(img.saveKey(name)); err == nil {
			length := 0
			if seeker, ok := r.(io.Seeker); ok {
				if n, err := seeker.Seek(0, io.SeekEnd); err == nil {
					length = int(n)
					seeker.Seek(0, io.SeekStart)
				}
			}
			return &FileHandle{reader: r, length: length}
		}
	}

	dirTrack, dirSector := 18, 1
	if img.typ == D81 {
		dirTrack, dirSector = 40, 3
	}

	visited := make(map[[2]int]bool)
	for dirTrack != 0 {
		key := [2]int{dirTrack, dirSector}
		if visited[key] {
			break // cyclic directory chain guard
		}
		visited[key] = true

		offset := img.sectorOffset(dirTrack, dirSector)
		for d := 2; d < 256; d += 32 {
			if offset+d+18 >= len(img.data) {
				continue
			}
			if img.data[offset+d] != 0x82 {
				continue
			}
			match := true
			for e, want := range name {
				if img.data[offset+d+3+e] != want {
					match = false
					break
				}
			}
			if !match {
				continue
			}
			return &FileHandle{
				track:  int(img.data[offset+d+1]),
				sector: int(img.data[offset+d+2]),
				offset: 2,
			}
		}
		dirTrack = int(img.data[offset])
		dirSector = int(img.data[offset+1])
	}

	return &FileHandle{}
}

// ReadByte reads one byte from an open handle, closing it at end of file.
func (img *Image) ReadByte(h *FileHandle) byte {
	if !h.IsOpen() {
		return 0
	}

	if h.reader != nil {
		var b [1]byte
		n, _ := h.reader.Read(b[:])
		h.offset++
		if n == 0 || h.offset >= h.length {
			h.Close()
		}
		return b[0]
	}

	sectorStart := img.sectorOffset(h.track, h.sector)
	v := img.data[sectorStart+h.offset]

	if img.data[sectorStart] == 0 {
		// Last sector of the file: byte 1 of the sector holds the final index.
		if h.offset >= int(img.data[sectorStart+1]) {
			h.track = 0
		} else {
			h.offset++
		}
	} else {
		h.offset++
		if h.offset >= 256 {
			h.track = int(img.data[sectorStart])
			h.sector = int(img.data[sectorStart+1])
			h.offset = 2
		}
	}

	return v
}

// OpenForWrite opens a save-file writer; the returned handle has no disk
// chain, only an external writer. The saved file is read back through
// OpenFile, where the save overlay takes precedence over the disk.
func (img *Image) OpenForWrite(name []byte) *FileHandle {
	if img.saves == nil {
		return &FileHandle{}
	}
	w, err := img.saves.Create(img.saveKey(name))
	if err != nil {
		return &FileHandle{}
	}
	return &FileHandle{writer: w}
}

// WriteByte appends one byte to an open writer handle; a no-op otherwise.
func (img *Image) WriteByte(h *FileHandle, v byte) {
	if h.writer == nil {
		return
	}
	h.writer.Write([]byte{v})
}
