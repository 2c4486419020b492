// Package reduction - Decimation.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package reduction

import (
	"strconv"
	"strings"

	"github.com/simgrid/dtlmod/cmn/cos"
)

const (
	InterpNearest   = "nearest"
	InterpLinear    = "linear"
	InterpQuadratic = "quadratic"
	InterpCubic     = "cubic"

	dfltInterpolation  = InterpNearest
	dfltCostPerElement = 1.0
)

var validInterpolations = map[string]bool{
	InterpNearest:   true,
	InterpLinear:    true,
	InterpQuadratic: true,
	InterpCubic:     true,
}

// Decimation subsamples a Variable by an integer stride per dimension.
type Decimation struct {
	Stride         []uint64
	Interpolation  string
	CostPerElement float64
}

func (*Decimation) Kind() string { return KindDecimation }

func (d *Decimation) Configure(params map[string]string, ndims int) error {
	d.Interpolation = dfltInterpolation
	d.CostPerElement = dfltCostPerElement

	strideSet := false
	for key, val := range params {
		switch key {
		case "stride":
			stride, err := parseStride(val, ndims)
			if err != nil {
				return err
			}
			d.Stride = stride
			strideSet = true
		case "interpolation":
			if !validInterpolations[val] {
				return cos.NewErrUnknownDecimationInterpolation(val)
			}
			d.Interpolation = val
		case "cost_per_element":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return cos.NewErrUnknownDecimationOption("cost_per_element: " + err.Error())
			}
			d.CostPerElement = f
		default:
			return cos.NewErrUnknownDecimationOption(key)
		}
	}
	if !strideSet {
		return cos.NewErrInconsistentDecimationStride("missing required \"stride\" option")
	}
	return nil
}

func parseStride(val string, ndims int) ([]uint64, error) {
	parts := strings.Split(val, ",")
	if len(parts) != ndims {
		return nil, cos.NewErrInconsistentDecimationStride(
			"stride has " + strconv.Itoa(len(parts)) + " values, variable has " + strconv.Itoa(ndims) + " dimensions")
	}
	stride := make([]uint64, ndims)
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil || v < 1 {
			return nil, cos.NewErrInconsistentDecimationStride("stride value " + p + " must be an integer >= 1")
		}
		stride[i] = v
	}
	return stride, nil
}

func (d *Decimation) Reduce(shape, count []uint64, elementSize uint64) (Result, error) {
	reducedShape := make([]uint64, len(shape))
	reducedCount := make([]uint64, len(count))
	for i := range shape {
		reducedShape[i] = ceilDivU64(shape[i], d.Stride[i])
	}
	for i := range count {
		reducedCount[i] = ceilDivU64(count[i], d.Stride[i])
	}

	reducedGlobalSize, overflow := cos.ProductOverflows(elementSize, reducedShape)
	if overflow {
		return Result{}, cos.NewErrOverflow("reduced global_size")
	}
	reducedLocalSize, overflow := cos.ProductOverflows(elementSize, reducedCount)
	if overflow {
		return Result{}, cos.NewErrOverflow("reduced local_size")
	}

	flops := d.CostPerElement * float64(productU64(count))

	return Result{
		ReducedShape:      reducedShape,
		ReducedCount:      reducedCount,
		ReducedGlobalSize: reducedGlobalSize,
		ReducedLocalSize:  reducedLocalSize,
		FLOPs:             flops,
	}, nil
}

// InverseFLOPs - decimation has no subscriber-side inverse cost: the
// subscriber simply receives fewer elements.
func (*Decimation) InverseFLOPs([]uint64) float64 { return 0 }
