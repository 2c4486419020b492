// Package engine implements the per-open() handle that carries a Stream
// through its transaction protocol: FileEngine (bound to Transport::File)
// and StagingEngine (bound to MQ/Mailbox), grounded on the teacher's
// transport/api.go Stream/MsgStream dual API (one struct per wire
// variant, shared Send/Fin-style transaction bracketing) and on
// reb/status.go's multi-actor rendezvous bookkeeping.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package engine

import (
	"context"

	"github.com/simgrid/dtlmod/cmn/cos"
	"github.com/simgrid/dtlmod/dtl"
	"github.com/simgrid/dtlmod/variable"
)

type (
	Mode  int
	State int
)

const (
	Publish Mode = iota
	Subscribe
)

func (m Mode) String() string {
	if m == Publish {
		return "Publish"
	}
	return "Subscribe"
}

const (
	Opened State = iota
	InTransaction
	Closed
	Failed
)

type (
	// Engine is the common surface FileEngine and StagingEngine
	// implement; Stream.open() dispatches to one or the other per
	// spec.md §4.2.
	Engine interface {
		Stream() *dtl.Stream
		Mode() Mode
		URI() string
		State() State
		CurrentTransactionID() uint64

		BeginTransaction() error
		Put(v *variable.Variable, explicitBytes ...uint64) error
		Get(v *variable.Variable) error
		EndTransaction(ctx context.Context) error
		Close(ctx context.Context) error
	}

	// bufferedPut is one buffered put request within the open
	// transaction, in insertion order.
	bufferedPut struct {
		v     *variable.Variable
		bytes uint64
		flops float64 // reduction cost to charge on end_transaction
	}

	// bufferedGet is one buffered get request within the open
	// transaction.
	bufferedGet struct {
		v     *variable.Variable
		bytes uint64  // filled in once EndTransaction resolves the transfer
		flops float64 // inverse-reduction cost to charge on end_transaction
	}
)

func requireState(got, want State) error {
	if got != want {
		return cos.NewErrUsage("engine must be in state matching the requested operation")
	}
	return nil
}

// publisherBytes computes the bytes a put should account for: the
// Variable's own local_size, reduced by any attached publisher-side
// reduction; also returns the FLOPs to charge for applying that
// reduction (zero if none).
func publisherBytes(v *variable.Variable, explicitBytes []uint64) (bytes uint64, flops float64, err error) {
	if len(explicitBytes) > 0 {
		return explicitBytes[0], 0, nil
	}
	if v.Reduction != nil && v.Reduction.AppliedByPublisher {
		result, rerr := v.Reduction.Method.Reduce(v.Shape, v.Count, v.ElementSize)
		if rerr != nil {
			return 0, 0, rerr
		}
		return result.ReducedLocalSize, result.FLOPs, nil
	}
	size, oerr := v.LocalSize()
	if oerr != nil {
		return 0, 0, oerr
	}
	return size, 0, nil
}

// subscriberBytes computes the bytes a get should request, honoring the
// Variable's Selection and TransactionSelection, and the inverse FLOPs
// a subscriber owes for undoing any reduction.
func subscriberBytes(v *variable.Variable, totalCommitted uint64) (bytes uint64, flops float64, err error) {
	_, count := v.EffectiveRegion()

	first, span, terr := v.TransactionSelection.Resolve(totalCommitted)
	if terr != nil {
		return 0, 0, terr
	}
	_ = first

	elemCount := uint64(1)
	for _, c := range count {
		elemCount *= c
	}
	perTxnSize := v.ElementSize * elemCount
	if v.Reduction != nil {
		result, rerr := v.Reduction.Method.Reduce(v.Shape, count, v.ElementSize)
		if rerr != nil {
			return 0, 0, rerr
		}
		perTxnSize = result.ReducedLocalSize
		flops = v.Reduction.Method.InverseFLOPs(count)
	}
	return perTxnSize * span, flops, nil
}
