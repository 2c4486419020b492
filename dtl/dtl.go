// Package dtl is the DTL process singleton: the registry of Streams, the
// connected-actor set, and the config-derived stream presets - grounded
// on the teacher's xact/xreg registry idiom (a package-level `dreg`
// initialized once by `Init`, guarded by its own RWMutex, exposed only
// through package-level functions).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package dtl

import (
	"sync"

	"github.com/simgrid/dtlmod/cmn"
	"github.com/simgrid/dtlmod/cmn/cos"
	"github.com/simgrid/dtlmod/cmn/jsp"
	"github.com/simgrid/dtlmod/cmn/nlog"
	"github.com/simgrid/dtlmod/simkernel"
)

type registry struct {
	mtx sync.RWMutex

	kernel  simkernel.Kernel
	streams map[string]*Stream

	connected map[simkernel.ActorID]struct{}
}

// dreg is the process-wide DTL instance, created once by Create.
var dreg *registry

// Create loads configPath (if non-empty) and initializes the DTL
// singleton bound to kernel. Called once per simulation, before any
// actor connects.
func Create(configPath string, kernel simkernel.Kernel) error {
	cfg, err := jsp.Load(configPath)
	if err != nil {
		return err
	}
	cmn.Rom.Set(cfg)
	cos.InitTokenGen(uint64(len(configPath)))

	r := &registry{
		kernel:    kernel,
		streams:   make(map[string]*Stream, len(cfg.Streams)),
		connected: make(map[simkernel.ActorID]struct{}),
	}
	for i := range cfg.Streams {
		preset := cfg.Streams[i]
		r.streams[preset.Name] = newStreamFromPreset(&preset)
	}
	dreg = r
	nlog.Infof("dtl: created with %d preset stream(s)", len(cfg.Streams))
	return nil
}

// TestReset re-initializes an empty DTL singleton; tests only.
func TestReset(kernel simkernel.Kernel) {
	dreg = &registry{
		kernel:    kernel,
		streams:   make(map[string]*Stream),
		connected: make(map[simkernel.ActorID]struct{}),
	}
}

// Connect registers the calling actor in the connected set and returns
// the shared DTL handle. Fails if no DTL has been Create-d.
func Connect(actor simkernel.ActorID) (*registry, error) {
	if dreg == nil {
		return nil, cos.NewErrUsage("connect before create")
	}
	dreg.mtx.Lock()
	dreg.connected[actor] = struct{}{}
	dreg.mtx.Unlock()
	return dreg, nil
}

// Disconnect removes actor from the connected set. Disconnecting an
// actor that never connected is a usage error.
func Disconnect(actor simkernel.ActorID) error {
	if dreg == nil {
		return cos.NewErrUsage("disconnect before create")
	}
	dreg.mtx.Lock()
	defer dreg.mtx.Unlock()
	if _, ok := dreg.connected[actor]; !ok {
		return cos.NewErrUsage("unbalanced disconnect of " + string(actor))
	}
	delete(dreg.connected, actor)
	return nil
}

// HasActiveConnections reports whether at least one actor is currently
// connected.
func HasActiveConnections() bool {
	if dreg == nil {
		return false
	}
	dreg.mtx.RLock()
	defer dreg.mtx.RUnlock()
	return len(dreg.connected) > 0
}

// AddStream is idempotent on name: a second call with the same name
// returns the already-registered Stream.
func (r *registry) AddStream(name string) *Stream {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if s, ok := r.streams[name]; ok {
		return s
	}
	s := newStream(name)
	r.streams[name] = s
	return s
}

// StreamByNameOrNull looks up a Stream without creating one.
func (r *registry) StreamByNameOrNull(name string) *Stream {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return r.streams[name]
}

// Kernel returns the simkernel.Kernel this DTL instance was Create-d
// with, so callers holding only a *registry (from Connect) can still
// hand engine.OpenFile/OpenStaging the collaborator they need.
func (r *registry) Kernel() simkernel.Kernel { return r.kernel }
