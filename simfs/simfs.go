// Package simfs declares the collaborator interface the File engine uses
// for all backing-store I/O: a simulated filesystem addressed by
// (zone, fsName, path), grounded on the teacher's fs/fs_linux.go
// boundary between generic mountpath logic and the OS-specific file
// calls it wraps.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package simfs

import (
	"context"
	"io"
)

type (
	// File is a simulated-filesystem file handle. Read/Write/Close
	// schedule simulated I/O on the underlying zone's disk model and
	// suspend the calling actor for its duration.
	File interface {
		io.ReadWriteCloser
		Size() (int64, error)
	}

	// Filesystem resolves a File engine URI ("zone:fs:path") to a File,
	// and lists a directory's entries (used by the subscriber side of
	// the File engine to discover data.<k> and md.idx).
	Filesystem interface {
		OpenOrCreate(ctx context.Context, zone, fsName, path string) (File, error)
		List(ctx context.Context, zone, fsName, dir string) ([]string, error)
	}
)
