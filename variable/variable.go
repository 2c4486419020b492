// Package variable implements the DTL's per-Stream data model: Variable
// definition and validation, subscriber Selection and TransactionSelection,
// and the attached-reduction precedence rules, grounded on the teacher's
// cluster/lom local-object-metadata idiom (a struct that owns its own
// validation and derives its sizes on demand rather than caching them).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package variable

import (
	"github.com/simgrid/dtlmod/cmn/cos"
	"github.com/simgrid/dtlmod/reduction"
)

type (
	// Variable is a named, shaped, typed quantity exchanged through a
	// Stream. Identity is (Name, Shape, ElementSize) per the redefinition
	// invariant; Start/Count describe the defining actor's local slab.
	Variable struct {
		Name        string
		Shape       []uint64
		Start       []uint64
		Count       []uint64
		ElementSize uint64

		Selection            *Selection
		TransactionSelection *TransactionSelection
		Reduction            *AttachedReduction
	}

	// Selection substitutes the default local region for a subscriber's
	// get, per spec.md §4.6.
	Selection struct {
		Start []uint64
		Count []uint64
	}

	// AttachedReduction pairs a reduction.Method with its parameters and
	// records which side (publisher or subscriber) applied it, which
	// governs the precedence rules in SetReductionOperation.
	AttachedReduction struct {
		Method             reduction.Method
		Params             map[string]string
		AppliedByPublisher bool
	}
)

// New validates and constructs a Variable with an explicit shape, per
// define_variable(name, shape, start, count, element_size).
func New(name string, shape, start, count []uint64, elementSize uint64) (*Variable, error) {
	if len(shape) != len(start) || len(shape) != len(count) {
		return nil, cos.NewErrInconsistentVariableDefinition(name, "shape/start/count dimensionality disagree")
	}
	for i := range shape {
		switch {
		case shape[i] == 0:
			return nil, cos.NewErrInconsistentVariableDefinition(name, "shape dimension must be >= 1")
		case count[i] == 0:
			return nil, cos.NewErrInconsistentVariableDefinition(name, "count dimension must be >= 1")
		case cos.IsWrappedNegative(shape[i]), cos.IsWrappedNegative(start[i]), cos.IsWrappedNegative(count[i]):
			return nil, cos.NewErrInconsistentVariableDefinition(name, "dimension value wrapped negative")
		case start[i]+count[i] > shape[i]:
			return nil, cos.NewErrInconsistentVariableDefinition(name, "start+count exceeds shape")
		}
	}
	if elementSize == 0 {
		return nil, cos.NewErrInconsistentVariableDefinition(name, "element_size must be >= 1")
	}
	return &Variable{
		Name:        name,
		Shape:       append([]uint64(nil), shape...),
		Start:       append([]uint64(nil), start...),
		Count:       append([]uint64(nil), count...),
		ElementSize: elementSize,
	}, nil
}

// NewScalar constructs a Variable with an empty shape, per the scalar
// overload define_variable(name, element_size).
func NewScalar(name string, elementSize uint64) (*Variable, error) {
	if elementSize == 0 {
		return nil, cos.NewErrInconsistentVariableDefinition(name, "element_size must be >= 1")
	}
	return &Variable{Name: name, ElementSize: elementSize}, nil
}

// GlobalSize is element_size * Π shape[i].
func (v *Variable) GlobalSize() (uint64, error) {
	size, overflow := cos.ProductOverflows(v.ElementSize, v.Shape)
	if overflow {
		return 0, cos.NewErrOverflow("global_size of variable " + v.Name)
	}
	return size, nil
}

// LocalSize is element_size * Π count[i], the defining actor's own slab.
func (v *Variable) LocalSize() (uint64, error) {
	size, overflow := cos.ProductOverflows(v.ElementSize, v.Count)
	if overflow {
		return 0, cos.NewErrOverflow("local_size of variable " + v.Name)
	}
	return size, nil
}

// SameIdentity reports whether name/shape/element_size agree, the
// invariant that governs whether a second define_variable call is a
// redefinition of the same Variable or a conflicting one.
func (v *Variable) SameIdentity(other *Variable) bool {
	if v.Name != other.Name || v.ElementSize != other.ElementSize {
		return false
	}
	if len(v.Shape) != len(other.Shape) {
		return false
	}
	for i := range v.Shape {
		if v.Shape[i] != other.Shape[i] {
			return false
		}
	}
	return true
}

// Redefine applies a second define_variable call by the same or another
// actor against an already-registered Variable. Only start/count may
// change; shape/element_size mismatches are a conflicting redefinition.
func (v *Variable) Redefine(shape, start, count []uint64, elementSize uint64) error {
	candidate, err := New(v.Name, shape, start, count, elementSize)
	if err != nil {
		return err
	}
	if !v.SameIdentity(candidate) {
		return cos.NewErrMultipleVariableDefinition(v.Name, "shape or element_size differs from the existing definition")
	}
	v.Start = candidate.Start
	v.Count = candidate.Count
	return nil
}

// SetSelection validates and attaches a subscriber-side spatial
// selection against the Variable's global shape.
func (v *Variable) SetSelection(start, count []uint64) error {
	if len(start) != len(v.Shape) || len(count) != len(v.Shape) {
		return cos.NewErrInconsistentVariableDefinition(v.Name, "selection dimensionality disagrees with variable shape")
	}
	for i := range v.Shape {
		if count[i] == 0 || start[i]+count[i] > v.Shape[i] {
			return cos.NewErrInconsistentVariableDefinition(v.Name, "selection out of bounds")
		}
	}
	v.Selection = &Selection{
		Start: append([]uint64(nil), start...),
		Count: append([]uint64(nil), count...),
	}
	return nil
}

// EffectiveRegion returns the (start, count) a get should use: the
// Selection if one is set, else the Variable's own local region.
func (v *Variable) EffectiveRegion() (start, count []uint64) {
	if v.Selection != nil {
		return v.Selection.Start, v.Selection.Count
	}
	return v.Start, v.Count
}

// SetReductionOperation attaches method/params to the Variable, enforcing
// spec.md §4.3's layering rules. byPublisher identifies which side is
// attaching this reduction.
func (v *Variable) SetReductionOperation(m reduction.Method, params map[string]string, byPublisher bool) error {
	ndims := len(v.Shape)
	if err := m.Configure(params, ndims); err != nil {
		return err
	}

	if existing := v.Reduction; existing != nil && existing.AppliedByPublisher && !byPublisher {
		// Subscriber-side attachment onto a publisher-reduced Variable.
		if m.Kind() == reduction.KindCompression {
			return cos.NewErrSubscriberSideCompression(v.Name)
		}
		if m.Kind() != existing.Method.Kind() {
			return cos.NewErrDoubleReduction(v.Name)
		}
		// Same kind: re-parameterization of the publisher's method is allowed.
	}

	v.Reduction = &AttachedReduction{
		Method:             m,
		Params:             params,
		AppliedByPublisher: byPublisher,
	}
	return nil
}
