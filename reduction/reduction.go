// Package reduction implements the DTL's two reduction methods -
// Decimation and Compression - grounded on the teacher's pluggable
// per-object transform idiom (ext/etl's DataProvider interface): a Method
// is attached to a Variable and, given that Variable's shape/local count,
// derives a reduced size/shape and a FLOP charge without ever touching a
// real byte buffer (spec.md's Non-goal: no real codec).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package reduction

import (
	"github.com/simgrid/dtlmod/cmn/cos"
)

const (
	KindDecimation  = "decimation"
	KindCompression = "compression"
)

type (
	// Result is what applying a Method to a Variable's shape/count yields.
	Result struct {
		ReducedShape      []uint64
		ReducedCount      []uint64
		ReducedGlobalSize uint64
		ReducedLocalSize  uint64
		FLOPs             float64 // charged to the side that applies the reduction
	}

	// Method is implemented by Decimation and Compression.
	Method interface {
		Kind() string
		// Configure validates and stores this method's parameter map, given
		// the dimensionality of the Variable it is being attached to. Called
		// once per set_reduction_operation.
		Configure(params map[string]string, ndims int) error
		// Reduce derives the reduced shape/sizes and the FLOPs spent applying
		// the reduction, given the Variable's global shape and this actor's
		// local count.
		Reduce(shape, count []uint64, elementSize uint64) (Result, error)
		// InverseFLOPs is the cost charged to a subscriber for undoing the
		// reduction on get (decompression); zero for methods with no inverse
		// cost (decimation - a subscriber simply receives fewer elements).
		InverseFLOPs(count []uint64) float64
	}
)

// New dispatches define_reduction_method(kind) per spec.md §4.2.
func New(kind string) (Method, error) {
	switch kind {
	case KindDecimation:
		return &Decimation{}, nil
	case KindCompression:
		return &Compression{}, nil
	default:
		return nil, cos.NewErrUnknownReductionMethod(kind)
	}
}

func ceilDivU64(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

func originalSizes(shape, count []uint64, elementSize uint64) (globalSize, localSize uint64, err error) {
	g, overflow := cos.ProductOverflows(elementSize, shape)
	if overflow {
		return 0, 0, cos.NewErrOverflow("global_size")
	}
	l, overflow := cos.ProductOverflows(elementSize, count)
	if overflow {
		return 0, 0, cos.NewErrOverflow("local_size")
	}
	return g, l, nil
}

func productU64(dims []uint64) uint64 {
	p := uint64(1)
	for _, d := range dims {
		p *= d
	}
	return p
}
