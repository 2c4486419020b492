// Package engine - FileEngine/StagingEngine tests.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package engine_test

import (
	"context"
	"testing"

	"github.com/simgrid/dtlmod/cmn"
	"github.com/simgrid/dtlmod/dtl"
	"github.com/simgrid/dtlmod/engine"
	"github.com/simgrid/dtlmod/reduction"
	"github.com/simgrid/dtlmod/simkernel"
	"github.com/simgrid/dtlmod/simtest"
)

func newTestStream(t *testing.T, name string, e cmn.EngineType, tr cmn.TransportMethod) (*dtl.Stream, *simtest.Kernel) {
	t.Helper()
	kernel := simtest.NewKernel(simkernel.ActorID("publisher"))
	dtl.TestReset(kernel)
	reg, err := dtl.Connect(kernel.Self())
	if err != nil {
		t.Fatal(err)
	}
	s := reg.AddStream(name)
	if err := s.SetEngineType(e); err != nil {
		t.Fatal(err)
	}
	if err := s.SetTransportMethod(tr); err != nil {
		t.Fatal(err)
	}
	return s, kernel
}

// S2 - single publisher, single transaction: a 1000x1000 doubles
// variable written through the File engine produces an 8e6-byte file.
func TestFileEngineSingleTransactionS2(t *testing.T) {
	ctx := context.Background()
	stream, kernel := newTestStream(t, "s2", cmn.EngineFile, cmn.TransportFile)
	v, err := stream.DefineVariable("T", []uint64{1000, 1000}, []uint64{0, 0}, []uint64{1000, 1000}, 8)
	if err != nil {
		t.Fatal(err)
	}
	fsys := simtest.NewFilesystem()
	uri := "zone:fs:/s2"

	pub, err := engine.OpenFile(ctx, stream, uri, engine.Publish, fsys, 0, kernel, "host", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := pub.BeginTransaction(); err != nil {
		t.Fatal(err)
	}
	if err := pub.Put(v); err != nil {
		t.Fatal(err)
	}
	if err := pub.EndTransaction(ctx); err != nil {
		t.Fatal(err)
	}
	if pub.CurrentTransactionID() != 1 {
		t.Fatalf("current_transaction_id = %d, want 1", pub.CurrentTransactionID())
	}

	sub, err := engine.OpenFile(ctx, stream, uri, engine.Subscribe, fsys, 0, kernel, "host", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := sub.BeginTransaction(); err != nil {
		t.Fatal(err)
	}
	if err := sub.Get(v); err != nil {
		t.Fatal(err)
	}
	if err := sub.EndTransaction(ctx); err != nil {
		t.Fatal(err)
	}
}

// S2 - two transactions double the file's size.
func TestFileEngineMultiTransactionS2(t *testing.T) {
	ctx := context.Background()
	stream, kernel := newTestStream(t, "s2multi", cmn.EngineFile, cmn.TransportFile)
	v, err := stream.DefineVariable("T", []uint64{100}, []uint64{0}, []uint64{100}, 8)
	if err != nil {
		t.Fatal(err)
	}
	fsys := simtest.NewFilesystem()
	uri := "zone:fs:/s2multi"

	pub, err := engine.OpenFile(ctx, stream, uri, engine.Publish, fsys, 0, kernel, "host", nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := pub.BeginTransaction(); err != nil {
			t.Fatal(err)
		}
		if err := pub.Put(v); err != nil {
			t.Fatal(err)
		}
		if err := pub.EndTransaction(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if pub.CurrentTransactionID() != 2 {
		t.Fatalf("current_transaction_id = %d, want 2", pub.CurrentTransactionID())
	}
}

func TestFileEngineOperationOutOfState(t *testing.T) {
	ctx := context.Background()
	stream, kernel := newTestStream(t, "badstate", cmn.EngineFile, cmn.TransportFile)
	v, err := stream.DefineVariable("T", []uint64{10}, []uint64{0}, []uint64{10}, 8)
	if err != nil {
		t.Fatal(err)
	}
	fsys := simtest.NewFilesystem()
	pub, err := engine.OpenFile(ctx, stream, "zone:fs:/badstate", engine.Publish, fsys, 0, kernel, "host", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := pub.Put(v); err == nil {
		t.Fatal("put before begin_transaction must fail")
	}
}

func TestFileEngineMalformedURI(t *testing.T) {
	ctx := context.Background()
	stream, kernel := newTestStream(t, "malformed", cmn.EngineFile, cmn.TransportFile)
	fsys := simtest.NewFilesystem()
	_, err := engine.OpenFile(ctx, stream, "not-a-valid-uri", engine.Publish, fsys, 0, kernel, "host", nil)
	if err == nil {
		t.Fatal("expected an error opening a File engine with a malformed URI")
	}
}

// S6 - a publisher-side decimation reduces the bytes a File engine put
// accounts for, and charges FLOPs on end_transaction.
func TestFileEnginePutChargesReductionFLOPs(t *testing.T) {
	ctx := context.Background()
	stream, kernel := newTestStream(t, "s6", cmn.EngineFile, cmn.TransportFile)
	v, err := stream.DefineVariable("T", []uint64{640, 640, 640}, []uint64{0, 0, 0}, []uint64{640, 640, 640}, 8)
	if err != nil {
		t.Fatal(err)
	}

	dec, err := reduction.New(reduction.KindDecimation)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.SetReductionOperation(dec, map[string]string{"stride": "1,2,4", "cost_per_element": "3"}, true); err != nil {
		t.Fatal(err)
	}

	fsys := simtest.NewFilesystem()
	pub, err := engine.OpenFile(ctx, stream, "zone:fs:/s6", engine.Publish, fsys, 0, kernel, "host", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := pub.BeginTransaction(); err != nil {
		t.Fatal(err)
	}
	if err := pub.Put(v); err != nil {
		t.Fatal(err)
	}
	before := kernel.TotalCharged()
	if err := pub.EndTransaction(ctx); err != nil {
		t.Fatal(err)
	}
	if kernel.TotalCharged() <= before {
		t.Fatal("expected end_transaction to charge the decimation's FLOPs")
	}
}

// StagingEngine over MQ: a publisher's put/end_transaction is observed
// by a subscriber sharing the same in-process simtest.Kernel queues.
func TestStagingEngineMQRoundTrip(t *testing.T) {
	ctx := context.Background()
	stream, kernel := newTestStream(t, "staging", cmn.EngineStaging, cmn.TransportMQ)
	v, err := stream.DefineVariable("T", []uint64{100}, []uint64{0}, []uint64{100}, 8)
	if err != nil {
		t.Fatal(err)
	}

	pub, err := engine.OpenStaging(ctx, stream, "rendezvous", engine.Publish, kernel, 0, "host-pub", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := pub.BeginTransaction(); err != nil {
		t.Fatal(err)
	}
	if err := pub.Put(v); err != nil {
		t.Fatal(err)
	}
	if err := pub.EndTransaction(ctx); err != nil {
		t.Fatal(err)
	}

	sub, err := engine.OpenStaging(ctx, stream, "rendezvous", engine.Subscribe, kernel, 0, "host-sub", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := sub.BeginTransaction(); err != nil {
		t.Fatal(err)
	}
	if err := sub.Get(v); err != nil {
		t.Fatal(err)
	}
	if err := sub.EndTransaction(ctx); err != nil {
		t.Fatal(err)
	}
	if sub.CurrentTransactionID() != 1 {
		t.Fatalf("subscriber current_transaction_id = %d, want 1", sub.CurrentTransactionID())
	}
}
