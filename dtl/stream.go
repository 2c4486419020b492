// Package dtl - Stream: a named channel of Variables between publishers
// and subscribers, carrying the engine/transport pairing and the
// Variable registry shared by every actor that has this Stream in
// scope.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package dtl

import (
	"sync"

	"github.com/seiflotfy/cuckoofilter"

	"github.com/simgrid/dtlmod/cmn"
	"github.com/simgrid/dtlmod/cmn/cos"
	"github.com/simgrid/dtlmod/reduction"
	"github.com/simgrid/dtlmod/variable"
)

type (
	// Stream is the per-name shared state every actor that opens it
	// observes identically: engine/transport pairing, metadata-export
	// flag, and the Variable registry (spec.md §3 invariant 2).
	Stream struct {
		Name string

		mtx            sync.RWMutex
		engineType     cmn.EngineType
		transport      cmn.TransportMethod
		metadataExport bool
		fromPreset     bool // true once a config preset has fixed engine/transport

		variables map[string]*variable.Variable
		// varOrder keeps define_variable's definition order (spec.md §3):
		// all_variables must return names in the order they were first
		// defined, which a bare map iteration cannot give.
		varOrder []string
		// present fast-rejects "does this name exist" without taking mtx's
		// read path on the hot inquire_variable path; false positives fall
		// through to the authoritative map lookup, false negatives are
		// impossible by construction (cuckoofilter never drops an inserted key
		// except via an explicit Delete, which RemoveVariable issues).
		present *cuckoo.Filter

		numPublishers  int
		numSubscribers int

		// committedTxns is the Staging engine's rendezvous epoch: the
		// number of transactions committed by any publisher of this
		// Stream, shared by every Staging engine instance since they all
		// hold this same *Stream (see dtl.registry.AddStream/
		// StreamByNameOrNull), so a subscriber resolves
		// TransactionSelection against what was actually published
		// rather than its own zero-initialized counter.
		committedTxns uint64
	}
)

func newStream(name string) *Stream {
	return &Stream{
		Name:      name,
		variables: make(map[string]*variable.Variable),
		present:   cuckoo.NewFilter(1024),
	}
}

func newStreamFromPreset(p *cmn.StreamPreset) *Stream {
	s := newStream(p.Name)
	s.engineType = p.Engine
	s.transport = p.Transport
	s.metadataExport = p.MetadataExportDefault()
	s.fromPreset = p.Engine != cmn.EngineUndef || p.Transport != cmn.TransportUndef
	return s
}

func (s *Stream) EngineType() cmn.EngineType         { return s.engineType }
func (s *Stream) TransportMethod() cmn.TransportMethod { return s.transport }
func (s *Stream) MetadataExport() bool               { return s.metadataExport }

// SetEngineType is only legal when it either matches an existing preset
// pairing or the Stream has no preset yet; it must also remain a valid
// engine/transport combination once paired with the current transport.
func (s *Stream) SetEngineType(e cmn.EngineType) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.fromPreset && s.engineType != cmn.EngineUndef && s.engineType != e {
		return cos.NewErrInvalidEngineAndTransportCombination(string(e), string(s.transport))
	}
	if s.transport != cmn.TransportUndef && !cmn.ValidCombination(e, s.transport) {
		return cos.NewErrInvalidEngineAndTransportCombination(string(e), string(s.transport))
	}
	s.engineType = e
	return nil
}

func (s *Stream) SetTransportMethod(t cmn.TransportMethod) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.fromPreset && s.transport != cmn.TransportUndef && s.transport != t {
		return cos.NewErrInvalidEngineAndTransportCombination(string(s.engineType), string(t))
	}
	if s.engineType != cmn.EngineUndef && !cmn.ValidCombination(s.engineType, t) {
		return cos.NewErrInvalidEngineAndTransportCombination(string(s.engineType), string(t))
	}
	s.transport = t
	return nil
}

func (s *Stream) SetMetadataExport()   { s.mtx.Lock(); s.metadataExport = true; s.mtx.Unlock() }
func (s *Stream) UnsetMetadataExport() { s.mtx.Lock(); s.metadataExport = false; s.mtx.Unlock() }

// DefineVariable is define_variable(name, shape, start, count,
// element_size): first call registers the Variable, subsequent calls
// redefine the caller's local region per the §3 identity invariant.
func (s *Stream) DefineVariable(name string, shape, start, count []uint64, elementSize uint64) (*variable.Variable, error) {
	candidate, err := variable.New(name, shape, start, count, elementSize)
	if err != nil {
		return nil, err
	}
	return s.registerOrRedefine(candidate)
}

// DefineVariableScalar is the scalar overload define_variable(name,
// element_size).
func (s *Stream) DefineVariableScalar(name string, elementSize uint64) (*variable.Variable, error) {
	candidate, err := variable.NewScalar(name, elementSize)
	if err != nil {
		return nil, err
	}
	return s.registerOrRedefine(candidate)
}

func (s *Stream) registerOrRedefine(candidate *variable.Variable) (*variable.Variable, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	existing, ok := s.variables[candidate.Name]
	if !ok {
		s.variables[candidate.Name] = candidate
		s.varOrder = append(s.varOrder, candidate.Name)
		s.present.InsertUnique([]byte(candidate.Name))
		return candidate, nil
	}
	if err := existing.Redefine(candidate.Shape, candidate.Start, candidate.Count, candidate.ElementSize); err != nil {
		return nil, err
	}
	return existing, nil
}

// RemoveVariable fails UnknownVariable if name is absent.
func (s *Stream) RemoveVariable(name string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if _, ok := s.variables[name]; !ok {
		return cos.NewErrUnknownVariable(name)
	}
	delete(s.variables, name)
	s.present.Delete([]byte(name))
	for i, n := range s.varOrder {
		if n == name {
			s.varOrder = append(s.varOrder[:i], s.varOrder[i+1:]...)
			break
		}
	}
	return nil
}

// InquireVariable fails UnknownVariable if name is absent.
func (s *Stream) InquireVariable(name string) (*variable.Variable, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if !s.present.Lookup([]byte(name)) {
		return nil, cos.NewErrUnknownVariable(name)
	}
	v, ok := s.variables[name]
	if !ok {
		return nil, cos.NewErrUnknownVariable(name)
	}
	return v, nil
}

// AllVariables returns every currently-defined Variable's name, in
// definition order.
func (s *Stream) AllVariables() []string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	names := make([]string, len(s.varOrder))
	copy(names, s.varOrder)
	return names
}

// DefineReductionMethod is define_reduction_method(kind): constructs an
// unconfigured Method; parameters are supplied later via
// Variable.SetReductionOperation.
func (*Stream) DefineReductionMethod(kind string) (reduction.Method, error) {
	return reduction.New(kind)
}

// IncPublishers/DecPublishers/IncSubscribers/DecSubscribers are called
// by the engine package around Engine open/close; exported so engine
// (which depends on dtl, not the reverse) can maintain these counters.
func (s *Stream) IncPublishers() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.numPublishers++
	return s.numPublishers
}

func (s *Stream) DecPublishers() {
	s.mtx.Lock()
	s.numPublishers--
	s.mtx.Unlock()
}

func (s *Stream) IncSubscribers() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.numSubscribers++
	return s.numSubscribers
}

func (s *Stream) DecSubscribers() {
	s.mtx.Lock()
	s.numSubscribers--
	s.mtx.Unlock()
}

func (s *Stream) NumPublishers() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.numPublishers
}

func (s *Stream) NumSubscribers() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.numSubscribers
}

// IncCommittedTxns advances the Staging rendezvous epoch by one and
// returns the new total. Called once per transaction by the rank-0
// publisher's end_transaction, so every Staging engine sharing this
// Stream agrees on how many transactions have been committed.
func (s *Stream) IncCommittedTxns() uint64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.committedTxns++
	return s.committedTxns
}

// CommittedTxns returns the Staging rendezvous epoch's current value.
func (s *Stream) CommittedTxns() uint64 {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.committedTxns
}
