// Package transport - File transport: bytes are appended to a
// simfs.File, which is how the File engine turns a publisher's
// reduced_local_size into real disk growth on the simulated filesystem.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"context"

	"github.com/simgrid/dtlmod/cmn"
	"github.com/simgrid/dtlmod/simfs"
)

// File moves bytes by writing/reading a simfs.File. Push/Pull operate
// against a single handle resolved once by the caller (the File engine
// opens data.<k> once per Engine lifetime).
type File struct {
	fsys simfs.Filesystem
	zone string
	name string // fs-name the caller registered with the simulated filesystem
}

var _ Method = (*File)(nil)

func NewFile(fsys simfs.Filesystem, zone, name string) *File {
	return &File{fsys: fsys, zone: zone, name: name}
}

func (*File) Kind() cmn.TransportMethod { return cmn.TransportFile }

// Push appends n placeholder bytes to the file at path (key).
func (t *File) Push(ctx context.Context, key string, n uint64) error {
	f, err := t.fsys.OpenOrCreate(ctx, t.zone, t.name, key)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(make([]byte, n))
	return err
}

// Pull reads the current size of the file at path (key); the File
// engine's subscriber side reads its selected byte range out of
// data.<k> directly (see engine.FileEngine.readSelectedBytes, called
// from EndTransaction) rather than calling Pull, so Pull here exists
// only to satisfy the Method interface uniformly.
func (t *File) Pull(ctx context.Context, key string) (uint64, error) {
	f, err := t.fsys.OpenOrCreate(ctx, t.zone, t.name, key)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	size, err := f.Size()
	if err != nil {
		return 0, err
	}
	return uint64(size), nil
}
