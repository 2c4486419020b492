// Package engine - StagingEngine: bound to Transport ∈ {MQ, Mailbox},
// no filesystem; publishers and subscribers rendezvous per transaction
// epoch through the simkernel collaborator, grounded on reb/status.go's
// per-stage actor tracking (NodesTardy lists, stage advancement) and on
// golang.org/x/sync/errgroup for awaiting however many transfers a
// end_transaction needs.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package engine

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/simgrid/dtlmod/cmn"
	"github.com/simgrid/dtlmod/cmn/cos"
	"github.com/simgrid/dtlmod/dtl"
	"github.com/simgrid/dtlmod/simkernel"
	"github.com/simgrid/dtlmod/stats"
	"github.com/simgrid/dtlmod/transport"
	"github.com/simgrid/dtlmod/variable"
)

type StagingEngine struct {
	mtx sync.Mutex

	stream *dtl.Stream
	mode   Mode
	uri    string
	state  State
	rank   int

	xport   transport.Method
	kernel  simkernel.Kernel
	host    string
	tracker *stats.Tracker // nil unless the caller wants metrics

	currentTxnID uint64
	puts         []bufferedPut
	gets         []bufferedGet
}

var _ Engine = (*StagingEngine)(nil)

// OpenStaging dispatches Stream.open(uri, mode) for Transport ∈ {MQ,
// Mailbox}, per spec.md §4.5. uri is an opaque rendezvous name shared
// by every publisher/subscriber of this Stream.
func OpenStaging(ctx context.Context, stream *dtl.Stream, uri string, mode Mode, kernel simkernel.Kernel, rank int, host string, tracker *stats.Tracker) (*StagingEngine, error) {
	var xport transport.Method
	switch stream.TransportMethod() {
	case cmn.TransportMQ:
		xport = transport.NewMQ(kernel)
	case cmn.TransportMailbox:
		xport = transport.NewMailbox(kernel)
	default:
		return nil, cos.NewErrUsage("staging engine requires MQ or Mailbox transport")
	}

	se := &StagingEngine{
		stream:  stream,
		mode:    mode,
		uri:     uri,
		state:   Opened,
		rank:    rank,
		xport:   xport,
		kernel:  kernel,
		host:    host,
		tracker: tracker,
	}

	switch mode {
	case Publish:
		stream.IncPublishers()
	case Subscribe:
		stream.IncSubscribers()
	}
	_ = ctx
	return se, nil
}

func (se *StagingEngine) Stream() *dtl.Stream          { return se.stream }
func (se *StagingEngine) Mode() Mode                   { return se.mode }
func (se *StagingEngine) URI() string                  { return se.uri }
func (se *StagingEngine) State() State                 { return se.state }
func (se *StagingEngine) CurrentTransactionID() uint64 {
	se.mtx.Lock()
	defer se.mtx.Unlock()
	return se.currentTxnID
}

func (se *StagingEngine) key(rank int) string {
	return se.uri + ":" + strconv.Itoa(rank)
}

// BeginTransaction is non-blocking on the publisher side (spec.md §4.5);
// the subscriber's rendezvous wait happens during EndTransaction's
// transfer phase instead, so both sides share the same state-machine
// shape as FileEngine.
func (se *StagingEngine) BeginTransaction() error {
	se.mtx.Lock()
	defer se.mtx.Unlock()
	if err := requireState(se.state, Opened); err != nil {
		return err
	}
	se.state = InTransaction
	se.puts = se.puts[:0]
	se.gets = se.gets[:0]
	return nil
}

func (se *StagingEngine) Put(v *variable.Variable, explicitBytes ...uint64) error {
	se.mtx.Lock()
	defer se.mtx.Unlock()
	if err := requireState(se.state, InTransaction); err != nil {
		return err
	}
	bytes, flops, err := publisherBytes(v, explicitBytes)
	if err != nil {
		se.state = Failed
		return err
	}
	se.puts = append(se.puts, bufferedPut{v: v, bytes: bytes, flops: flops})
	return nil
}

func (se *StagingEngine) Get(v *variable.Variable) error {
	se.mtx.Lock()
	defer se.mtx.Unlock()
	if err := requireState(se.state, InTransaction); err != nil {
		return err
	}
	se.gets = append(se.gets, bufferedGet{v: v})
	return nil
}

// EndTransaction performs every buffered transfer concurrently
// (golang.org/x/sync/errgroup), blocking until all publishers'
// outboxes have been consumed (Publish) or all requested slabs have
// arrived (Subscribe), then advances current_transaction_id.
func (se *StagingEngine) EndTransaction(ctx context.Context) error {
	se.mtx.Lock()
	defer se.mtx.Unlock()
	if err := requireState(se.state, InTransaction); err != nil {
		return err
	}

	grp, gctx := errgroup.WithContext(ctx)

	switch se.mode {
	case Publish:
		for _, p := range se.puts {
			p := p
			grp.Go(func() error { return se.xport.Push(gctx, se.key(se.rank), p.bytes) })
		}
	case Subscribe:
		publishers := se.stream.NumPublishers()
		if publishers == 0 {
			publishers = 1
		}
		for i := range se.gets {
			i := i
			grp.Go(func() error {
				_, flops, err := subscriberBytes(se.gets[i].v, se.stream.CommittedTxns())
				if err != nil {
					return err
				}
				var total uint64
				for rank := 0; rank < publishers; rank++ {
					n, err := se.xport.Pull(gctx, se.key(rank))
					if err != nil {
						return err
					}
					total += n
				}
				se.gets[i].bytes = total
				se.gets[i].flops = flops
				return nil
			})
		}
	}

	if err := grp.Wait(); err != nil {
		se.state = Failed
		return err
	}

	var publishedTotal, subscribedTotal uint64
	switch se.mode {
	case Publish:
		for _, p := range se.puts {
			publishedTotal += p.bytes
			if err := se.charge(ctx, p.flops); err != nil {
				se.state = Failed
				return err
			}
		}
		if se.tracker != nil && publishedTotal > 0 {
			se.tracker.AddBytesPublished(se.stream.Name, publishedTotal)
		}
		// Only the rank-0 publisher advances the shared rendezvous epoch,
		// so a transaction round committed by several publishers still
		// counts once: every subscriber's TransactionSelection resolves
		// against transaction rounds, not per-publisher commits.
		if se.rank == 0 {
			se.stream.IncCommittedTxns()
		}
	case Subscribe:
		for _, g := range se.gets {
			subscribedTotal += g.bytes
			if err := se.charge(ctx, g.flops); err != nil {
				se.state = Failed
				return err
			}
		}
		if se.tracker != nil && subscribedTotal > 0 {
			se.tracker.AddBytesSubscribed(se.stream.Name, subscribedTotal)
		}
	}

	se.currentTxnID++
	se.state = Opened
	if se.tracker != nil {
		se.tracker.IncTransactionsCommitted(se.stream.Name)
	}
	return nil
}

// charge schedules flops of simulated compute on this actor's host, a
// no-op when either the Variable carried no reduction or the caller
// opened this engine without a kernel handle.
func (se *StagingEngine) charge(ctx context.Context, flops float64) error {
	if flops <= 0 || se.kernel == nil {
		return nil
	}
	if se.tracker != nil {
		se.tracker.AddFLOPs(se.stream.Name, flops)
	}
	return se.kernel.Charge(ctx, se.host, flops)
}

func (se *StagingEngine) Close(_ context.Context) error {
	se.mtx.Lock()
	defer se.mtx.Unlock()
	if err := requireState(se.state, Opened); err != nil {
		return err
	}
	switch se.mode {
	case Publish:
		se.stream.DecPublishers()
	case Subscribe:
		se.stream.DecSubscribers()
	}
	se.state = Closed
	return nil
}
