// Package dtl is the DTL process singleton.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package dtl_test

import (
	"testing"

	"github.com/simgrid/dtlmod/cmn/cos"
	"github.com/simgrid/dtlmod/dtl"
	"github.com/simgrid/dtlmod/simkernel"
	"github.com/simgrid/dtlmod/simtest"
)

func TestConnectBeforeCreate(t *testing.T) {
	dtl.TestReset(nil)
	// simulate a fresh process: no registry at all.
	_, err := dtl.Connect(simkernel.ActorID("a"))
	if err == nil {
		t.Fatal("expected an error connecting before any DTL instance exists")
	}
}

func TestAddStreamIdempotent(t *testing.T) {
	kernel := simtest.NewKernel(simkernel.ActorID("k"))
	dtl.TestReset(kernel)
	reg, err := dtl.Connect(kernel.Self())
	if err != nil {
		t.Fatal(err)
	}
	s1 := reg.AddStream("demo")
	s2 := reg.AddStream("demo")
	if s1 != s2 {
		t.Fatal("AddStream with the same name must return the same Stream")
	}
}

func TestHasActiveConnections(t *testing.T) {
	kernel := simtest.NewKernel(simkernel.ActorID("k"))
	dtl.TestReset(kernel)
	if dtl.HasActiveConnections() {
		t.Fatal("no actor has connected yet")
	}
	actor := simkernel.ActorID("a")
	if _, err := dtl.Connect(actor); err != nil {
		t.Fatal(err)
	}
	if !dtl.HasActiveConnections() {
		t.Fatal("expected at least one active connection")
	}
	if err := dtl.Disconnect(actor); err != nil {
		t.Fatal(err)
	}
	if dtl.HasActiveConnections() {
		t.Fatal("expected no active connections after the only actor disconnected")
	}
}

func TestUnbalancedDisconnect(t *testing.T) {
	kernel := simtest.NewKernel(simkernel.ActorID("k"))
	dtl.TestReset(kernel)
	err := dtl.Disconnect(simkernel.ActorID("never-connected"))
	if !cos.IsErrUsage(err) {
		t.Fatalf("expected a usage error, got %v", err)
	}
}

func TestStreamByNameOrNullMissing(t *testing.T) {
	kernel := simtest.NewKernel(simkernel.ActorID("k"))
	dtl.TestReset(kernel)
	reg, err := dtl.Connect(kernel.Self())
	if err != nil {
		t.Fatal(err)
	}
	if reg.StreamByNameOrNull("nope") != nil {
		t.Fatal("expected nil for a Stream that was never added")
	}
}

func TestRegistryKernel(t *testing.T) {
	kernel := simtest.NewKernel(simkernel.ActorID("k"))
	dtl.TestReset(kernel)
	reg, err := dtl.Connect(kernel.Self())
	if err != nil {
		t.Fatal(err)
	}
	if reg.Kernel() != kernel {
		t.Fatal("registry.Kernel() must return the kernel the DTL instance was created with")
	}
}
