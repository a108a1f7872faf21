package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"io"
	"os"
)

// maxLineSize bounds a single input line.
const maxLineSize = 1 << 20

// lineSource is a suspending source of lines read from a sequence of
// inputs. Files are opened lazily and closed as soon as they are exhausted.
type lineSource struct {
	stdin   io.Reader
	paths   []string
	file    io.Closer
	scanner *bufio.Scanner
	done    bool
}

// newLineSource reads paths in order; no paths or "-" means stdin.
func newLineSource(stdin io.Reader, paths []string) *lineSource {
	if len(paths) == 0 {
		paths = []string{"-"}
	}
	return &lineSource{stdin: stdin, paths: paths}
}

func (s *lineSource) Next(ctx context.Context) (string, bool, error) {
	for !s.done {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}
		if s.scanner == nil {
			if err := s.open(); err != nil {
				return "", false, err
			}
			continue
		}
		if s.scanner.Scan() {
			return s.scanner.Text(), true, nil
		}
		if err := s.scanner.Err(); err != nil {
			return "", false, err
		}
		if err := s.closeFile(); err != nil {
			return "", false, err
		}
		s.scanner = nil
	}
	return "", false, nil
}

// open starts the next input, or marks the source done.
func (s *lineSource) open() error {
	if len(s.paths) == 0 {
		s.done = true
		return nil
	}
	path := s.paths[0]
	s.paths = s.paths[1:]

	var r io.Reader = s.stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		s.file = f
		r = f
	}
	s.scanner = bufio.NewScanner(r)
	s.scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return nil
}

func (s *lineSource) closeFile() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func (s *lineSource) Close() error {
	s.done = true
	s.scanner = nil
	if err := s.closeFile(); err != nil && !stderrors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}
