// Package storage writes tiles to their destinations.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sink receives encoded tiles. Put returns a human-readable location.
type Sink interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
	String() string
}

// DirSink writes files into a local directory.
type DirSink struct {
	Dir string
}

func NewDirSink(dir string) (*DirSink, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &DirSink{Dir: dir}, nil
}

func (d *DirSink) Put(ctx context.Context, name, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	path := filepath.Join(d.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

func (d *DirSink) String() string { return d.Dir }

// Multi writes to every sink in order and reports the first location.
type Multi []Sink

func (m Multi) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	var first string
	for i, s := range m {
		loc, err := s.Put(ctx, name, contentType, data)
		if err != nil {
			return "", fmt.Errorf("%s: %w", s, err)
		}
		if i == 0 {
			first = loc
		}
	}
	return first, nil
}

func (m Multi) String() string {
	names := make([]string, len(m))
	for i, s := range m {
		names[i] = s.String()
	}
	return strings.Join(names, ", ")
}
