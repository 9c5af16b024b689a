// Package staging keeps a temporary local copy of an uploaded payload for the
// duration of a remote call.
package staging

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// File is a staged payload on local disk. Release must be called on every
// exit path; it is safe to call more than once.
type File struct {
	Name string
	Path string
	Size int64

	f        *os.File
	released bool
}

// Stage copies r into a new temp file under dir (os.TempDir when empty).
// On error nothing is left behind.
func Stage(dir, name string, r io.Reader) (*File, error) {
	f, err := os.CreateTemp(dir, "docproc-*"+safeExt(name))
	if err != nil {
		return nil, fmt.Errorf("staging.Stage: creating temp file: %w", err)
	}

	size, err := io.Copy(f, r)
	if err == nil {
		_, err = f.Seek(0, io.SeekStart)
	}
	if err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("staging.Stage: writing temp file: %w", err)
	}

	return &File{Name: name, Path: f.Name(), Size: size, f: f}, nil
}

// Reader returns a reader positioned at the start of the staged payload.
func (s *File) Reader() (io.Reader, error) {
	if s.released {
		return nil, errors.New("staging: file already released")
	}
	if _, err := s.f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("staging: rewinding %s: %w", s.Path, err)
	}
	return s.f, nil
}

// Release closes and deletes the staged copy. Failures are logged, never returned,
// so cleanup cannot mask the result of the operation that staged the file.
func (s *File) Release() {
	if s == nil || s.released {
		return
	}
	s.released = true
	if err := s.f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		log.Printf("staging.Release: closing %s: %v", s.Path, err)
	}
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("staging.Release: removing %s: %v", s.Path, err)
	}
}

func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) > 8 || strings.ContainsAny(ext, `/\*`) {
		return ""
	}
	return ext
}
