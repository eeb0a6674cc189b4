package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cadaver/c64emu/internal/disk"
)

// loadDiskImage resolves name against diskDir, trying the D64 and D81
// extensions in turn. A missing image is not fatal at this layer: the
// caller boots the machine with a nil *disk.Image and it simply runs with
// empty memory, per the documented failure mode.
func loadDiskImage(diskDir, name string, saves disk.SaveStore) (*disk.Image, error) {
	for _, ext := range []string{".d64", ".d81"} {
		path := filepath.Join(diskDir, name+ext)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		return disk.Load(name, data, saves)
	}
	return nil, fmt.Errorf("no .d64/.d81 found for %q in %s", name, diskDir)
}

// fileSaveStore is a filesystem-backed disk.SaveStore. Save-file keys are
// image name + raw PETSCII filename bytes, which may contain characters
// unsafe for a path (including '/'), so keys are hex-encoded into plain
// ASCII filenames.
type fileSaveStore struct {
	dir string
}

func newFileSaveStore(dir string) *fileSaveStore {
	return &fileSaveStore{dir: dir}
}

func (f *fileSaveStore) path(key string) string {
	return filepath.Join(f.dir, hex.EncodeToString([]byte(key))+".sav")
}

func (f *fileSaveStore) Open(key string) (io.ReadCloser, error) {
	return os.Open(f.path(key))
}

func (f *fileSaveStore) Create(key string) (io.WriteCloser, error) {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return nil, err
	}
	return os.Create(f.path(key))
}
