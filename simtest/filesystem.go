// Package simtest - in-memory Filesystem fake.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package simtest

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/simgrid/dtlmod/simfs"
)

type (
	// Filesystem is an in-memory fake of simfs.Filesystem: a single
	// flat map keyed by "zone:fsName:path", good enough to exercise the
	// File engine's read/write/list paths without a real disk model.
	Filesystem struct {
		mu    sync.Mutex
		files map[string]*memFile
	}

	memFile struct {
		mu  sync.Mutex
		buf bytes.Buffer
	}
)

var (
	_ simfs.Filesystem = (*Filesystem)(nil)
	_ simfs.File       = (*memFile)(nil)
)

func NewFilesystem() *Filesystem {
	return &Filesystem{files: make(map[string]*memFile)}
}

func key(zone, fsName, path string) string {
	return fmt.Sprintf("%s:%s:%s", zone, fsName, path)
}

func (fsys *Filesystem) OpenOrCreate(_ context.Context, zone, fsName, path string) (simfs.File, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	k := key(zone, fsName, path)
	f, ok := fsys.files[k]
	if !ok {
		f = &memFile{}
		fsys.files[k] = f
	}
	return f, nil
}

func (fsys *Filesystem) List(_ context.Context, zone, fsName, dir string) ([]string, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	prefix := key(zone, fsName, dir)
	var names []string
	for k := range fsys.files {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			names = append(names, k[len(prefix):])
		}
	}
	sort.Strings(names)
	return names, nil
}

func (f *memFile) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buf.Read(p)
}

func (f *memFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buf.Write(p)
}

func (*memFile) Close() error { return nil }

func (f *memFile) Size() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(f.buf.Len()), nil
}
