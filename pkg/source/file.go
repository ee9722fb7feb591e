package source

import (
	"fmt"
	"os"
)

type fileSource struct {
	*os.File
	name string
	size int64
	temp bool
}

// OpenFile opens a local file as a Source.
func OpenFile(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("source: %w", err)
	}
	return &fileSource{File: f, name: path, size: st.Size()}, nil
}

// tempSource wraps an already-populated temporary file. Close removes it.
func tempSource(f *os.File, name string) (Source, error) {
	st, err := f.Stat()
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("source: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("source: %w", err)
	}
	return &fileSource{File: f, name: name, size: st.Size(), temp: true}, nil
}

func (s *fileSource) Size() int64  { return s.size }
func (s *fileSource) Local() bool  { return !s.temp }
func (s *fileSource) Name() string { return s.name }

func (s *fileSource) Close() error {
	err := s.File.Close()
	if s.temp {
		if rmErr := os.Remove(s.File.Name()); err == nil {
			err = rmErr
		}
	}
	return err
}
