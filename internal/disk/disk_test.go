package disk

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// newBlankD64 returns a zeroed image of exactly D64 size.
func newBlankD64() []byte {
	return make([]byte, d64Size)
}

func sectorOffsetFor(typ ImageType, track, sector int) int {
	img := &Image{typ: typ}
	img.buildSectorTable()
	return img.sectorOffset(track, sector)
}

func TestLoadClassifiesByLength(t *testing.T) {
	img, err := Load("t", newBlankD64(), nil)
	if err != nil {
		t.Fatalf("Load(d64 size) returned error: %v", err)
	}
	if img.typ != D64 {
		t.Fatalf("typ = %v, want D64", img.typ)
	}

	img, err = Load("t", make([]byte, d81Size), nil)
	if err != nil {
		t.Fatalf("Load(d81 size) returned error: %v", err)
	}
	if img.typ != D81 {
		t.Fatalf("typ = %v, want D81", img.typ)
	}

	if _, err := Load("t", make([]byte, 1000), nil); err == nil {
		t.Fatalf("Load with unrecognised length should error")
	}
}

// writeDirEntry places one PRG directory entry at sector offset d (a
// 32-byte slot starting at byte 2 of the directory sector).
func writeDirEntry(data []byte, dirOffset, slot int, name string, fileTrack, fileSector int) {
	d := 2 + slot*32
	data[dirOffset+d] = 0x82 // PRG, not deleted
	data[dirOffset+d+1] = byte(fileTrack)
	data[dirOffset+d+2] = byte(fileSector)
	copy(data[dirOffset+d+3:], name)
}

func TestOpenFileFindsMatchingDirectoryEntry(t *testing.T) {
	data := newBlankD64()
	dirOffset := sectorOffsetFor(D64, 18, 1)
	writeDirEntry(data, dirOffset, 0, "HELLO", 1, 0)

	fileOffset := sectorOffsetFor(D64, 1, 0)
	data[fileOffset] = 0    // last sector of file
	data[fileOffset+1] = 3  // last byte index
	data[fileOffset+2] = 'X'
	data[fileOffset+3] = 'Y'

	img, err := Load("t", data, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	h := img.OpenFile([]byte("HELLO"))
	if !h.IsOpen() {
		t.Fatalf("OpenFile(HELLO) did not find the directory entry")
	}

	var got []byte
	for h.IsOpen() {
		got = append(got, img.ReadByte(h))
	}
	want := []byte{'X', 'Y'}
	if !bytes.Equal(got, want) {
		t.Fatalf("file contents = %v, want %v", got, want)
	}
	if h.IsOpen() {
		t.Fatalf("handle should be closed after reading the last byte")
	}
}

func TestOpenFileEmptyNameMatchesFirstPRG(t *testing.T) {
	data := newBlankD64()
	dirOffset := sectorOffsetFor(D64, 18, 1)
	writeDirEntry(data, dirOffset, 0, "FIRST", 1, 0)

	fileOffset := sectorOffsetFor(D64, 1, 0)
	data[fileOffset] = 0
	data[fileOffset+1] = 2
	data[fileOffset+2] = 0x42

	img, _ := Load("t", data, nil)
	h := img.OpenFile(nil)
	if !h.IsOpen() {
		t.Fatalf("OpenFile(nil) should match the first PRG entry regardless of name")
	}
	if v := img.ReadByte(h); v != 0x42 {
		t.Fatalf("first byte = %#x, want 0x42", v)
	}
}

func TestOpenFileMissingNameReturnsClosedHandle(t *testing.T) {
	img, _ := Load("t", newBlankD64(), nil)
	h := img.OpenFile([]byte("NOPE"))
	if h.IsOpen() {
		t.Fatalf("OpenFile for a name absent from an empty directory should not open")
	}
	if got := img.ReadByte(h); got != 0 {
		t.Fatalf("ReadByte on a closed handle = %#x, want 0", got)
	}
}

func TestOpenFileGuardsAgainstCyclicDirectoryChain(t *testing.T) {
	data := newBlankD64()
	dirOffset := sectorOffsetFor(D64, 18, 1)
	// Directory sector points back to itself instead of terminating with 0.
	data[dirOffset] = 18
	data[dirOffset+1] = 1

	img, _ := Load("t", data, nil)

	// Must return (not loop forever) and report no match.
	h := img.OpenFile([]byte("ANYTHING"))
	if h.IsOpen() {
		t.Fatalf("OpenFile should not find a match in a self-referential directory chain")
	}
}

func TestReadByteFollowsSectorChain(t *testing.T) {
	data := newBlankD64()
	dirOffset := sectorOffsetFor(D64, 18, 1)
	writeDirEntry(data, dirOffset, 0, "CHAIN", 1, 0)

	first := sectorOffsetFor(D64, 1, 0)
	data[first] = 1   // chains to track 1, sector 1
	data[first+1] = 1
	for i := 2; i < 256; i++ {
		data[first+i] = byte(i)
	}

	second := sectorOffsetFor(D64, 1, 1)
	data[second] = 0 // last sector
	data[second+1] = 2
	data[second+2] = 0xAA

	img, _ := Load("t", data, nil)
	h := img.OpenFile([]byte("CHAIN"))

	count := 0
	var last byte
	for h.IsOpen() {
		last = img.ReadByte(h)
		count++
	}
	if count != 255 {
		t.Fatalf("read %d bytes across the chain, want %d", count, 255)
	}
	if last != 0xAA {
		t.Fatalf("last byte = %#x, want 0xaa", last)
	}
}

// fakeSaveStore is an in-memory disk.SaveStore for overlay tests.
type fakeSaveStore struct {
	files map[string][]byte
}

type fakeReader struct {
	*bytes.Reader
}

func (f *fakeReader) Close() error { return nil }

type fakeWriter struct {
	store *fakeSaveStore
	key   string
	buf   bytes.Buffer
}

func (w *fakeWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w *fakeWriter) Close() error {
	w.store.files[w.key] = w.buf.Bytes()
	return nil
}

func (s *fakeSaveStore) Open(key string) (io.ReadCloser, error) {
	data, ok := s.files[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return &fakeReader{bytes.NewReader(data)}, nil
}

func (s *fakeSaveStore) Create(key string) (io.WriteCloser, error) {
	return &fakeWriter{store: s, key: key}, nil
}

func TestSaveOverlayTakesPrecedenceOverDiskFile(t *testing.T) {
	data := newBlankD64()
	dirOffset := sectorOffsetFor(D64, 18, 1)
	writeDirEntry(data, dirOffset, 0, "GAME", 1, 0)
	fileOffset := sectorOffsetFor(D64, 1, 0)
	data[fileOffset] = 0
	data[fileOffset+1] = 2
	data[fileOffset+2] = 0x01 // disk-resident content, should be shadowed

	store := &fakeSaveStore{files: map[string][]byte{}}
	img, _ := Load("mygame", data, store)

	w := img.OpenForWrite([]byte("GAME"))
	img.WriteByte(w, 0xAB)
	img.WriteByte(w, 0xCD)
	w.Close()

	h := img.OpenFile([]byte("GAME"))
	var got []byte
	for h.IsOpen() {
		got = append(got, img.ReadByte(h))
	}
	if !bytes.Equal(got, []byte{0xAB, 0xCD}) {
		t.Fatalf("overlay read = %v, want [0xab 0xcd]", got)
	}
}

func TestOpenForWriteWithoutSaveStoreReturnsClosedHandle(t *testing.T) {
	img, _ := Load("t", newBlankD64(), nil)
	h := img.OpenForWrite([]byte("X"))
	if h.IsOpen() {
		t.Fatalf("OpenForWrite with no SaveStore should return a closed handle")
	}
	img.WriteByte(h, 0x01) // must not panic
}
