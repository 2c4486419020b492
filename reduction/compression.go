// Package reduction - Compression.
//
// The SZ/ZFP/fixed cost models below are closed-form stand-ins for the real
// codecs' accuracy/ratio relationship (spec.md's Non-goal forbids actually
// compressing bytes): SZ is an error-bounded predictor, so its ratio
// improves both as the requested accuracy loosens and as the data gets
// smoother; ZFP is a fixed-accuracy scheme with no smoothness term, so at
// matching "accuracy" it is deliberately the more conservative of the two
// (see DESIGN.md and SPEC_FULL.md §4.3, which this satisfies scenario S7).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package reduction

import (
	"math"
	"strconv"

	"github.com/simgrid/dtlmod/cmn/cos"
)

const (
	CompressorSZ    = "sz"
	CompressorZFP   = "zfp"
	CompressorFixed = "fixed"

	// error-bound clamp range for the closed-form cost models below
	minClampedAccuracy = 1e-9
	maxClampedAccuracy = 0.9

	zfpBaseRatio = 8.0
	szBaseRatio  = 8.0
)

// errorBoundDenom turns an accuracy/error-bound parameter into a
// monotonically-decreasing denominator: tighter (smaller) accuracy yields a
// larger denominator and thus a smaller ratio, looser accuracy the opposite.
func errorBoundDenom(accuracy float64) float64 {
	return -math.Log10(clamp(accuracy, minClampedAccuracy, maxClampedAccuracy))
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Compression derives a reduced byte count from either an explicit ratio or
// a named compressor profile. The logical shape is never altered (spec.md
// §4.3: "shape unchanged - compression hides behind the same logical
// Variable").
type Compression struct {
	Ratio                        float64
	Compressor                   string // "" when Ratio came from an explicit compression_ratio
	CompressionCostPerElement    float64
	DecompressionCostPerElement float64
}

func (*Compression) Kind() string { return KindCompression }

func (c *Compression) Configure(params map[string]string, _ int) error {
	if compressor, ok := params["compressor"]; ok {
		return c.configureProfile(compressor, params)
	}
	return c.configureExplicit(params)
}

func (c *Compression) configureExplicit(params map[string]string) error {
	raw, ok := params["compression_ratio"]
	if !ok {
		return cos.NewErrInconsistentCompressionRatio("missing required \"compression_ratio\" (or a \"compressor\" profile)")
	}
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil || ratio < 1 {
		return cos.NewErrInconsistentCompressionRatio("compression_ratio must be a number >= 1")
	}
	c.Ratio = ratio
	c.Compressor = ""

	for key, val := range params {
		switch key {
		case "compression_ratio":
		case "compression_cost_per_element":
			f, perr := strconv.ParseFloat(val, 64)
			if perr != nil {
				return cos.NewErrUnknownCompressionOption("compression_cost_per_element: " + perr.Error())
			}
			c.CompressionCostPerElement = f
		case "decompression_cost_per_element":
			f, perr := strconv.ParseFloat(val, 64)
			if perr != nil {
				return cos.NewErrUnknownCompressionOption("decompression_cost_per_element: " + perr.Error())
			}
			c.DecompressionCostPerElement = f
		default:
			return cos.NewErrUnknownCompressionOption(key)
		}
	}
	return nil
}

func (c *Compression) configureProfile(compressor string, params map[string]string) error {
	switch compressor {
	case CompressorSZ:
		return c.configureSZ(params)
	case CompressorZFP:
		return c.configureZFP(params)
	case CompressorFixed:
		return c.configureFixed(params)
	default:
		return cos.NewErrUnknownCompressionOption("compressor=" + compressor)
	}
}

func (c *Compression) configureSZ(params map[string]string) error {
	accuracy, hasAcc := params["accuracy"]
	smoothness, hasSmooth := params["data_smoothness"]
	if !hasAcc || !hasSmooth {
		return cos.NewErrInconsistentCompressionRatio("sz requires \"accuracy\" and \"data_smoothness\"")
	}
	for key := range params {
		switch key {
		case "compressor", "accuracy", "data_smoothness":
		default:
			return cos.NewErrUnknownCompressionOption(key)
		}
	}
	a, err := strconv.ParseFloat(accuracy, 64)
	if err != nil {
		return cos.NewErrInconsistentCompressionRatio("accuracy must be a number")
	}
	s, err := strconv.ParseFloat(smoothness, 64)
	if err != nil {
		return cos.NewErrInconsistentCompressionRatio("data_smoothness must be a number")
	}
	// SZ is an error-bounded predictor: a looser accuracy bound and smoother
	// data both drive the ratio up.
	c.Ratio = maxf(1, szBaseRatio*(1+clamp(s, 0, 1))/errorBoundDenom(a))
	c.Compressor = CompressorSZ
	return nil
}

func (c *Compression) configureZFP(params map[string]string) error {
	accuracy, hasAcc := params["accuracy"]
	if !hasAcc {
		return cos.NewErrInconsistentCompressionRatio("zfp requires \"accuracy\"")
	}
	for key := range params {
		switch key {
		case "compressor", "accuracy":
		default:
			return cos.NewErrUnknownCompressionOption(key)
		}
	}
	a, err := strconv.ParseFloat(accuracy, 64)
	if err != nil {
		return cos.NewErrInconsistentCompressionRatio("accuracy must be a number")
	}
	// ZFP is a fixed-accuracy scheme with no smoothness term: deliberately
	// more conservative than SZ at an equivalent accuracy (see S7).
	c.Ratio = maxf(1, zfpBaseRatio/errorBoundDenom(a))
	c.Compressor = CompressorZFP
	return nil
}

func (c *Compression) configureFixed(params map[string]string) error {
	raw, ok := params["compression_ratio"]
	if !ok {
		return cos.NewErrInconsistentCompressionRatio("fixed requires \"compression_ratio\"")
	}
	for key := range params {
		switch key {
		case "compressor", "compression_ratio":
		default:
			return cos.NewErrUnknownCompressionOption(key)
		}
	}
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil || ratio < 1 {
		return cos.NewErrInconsistentCompressionRatio("compression_ratio must be a number >= 1")
	}
	c.Ratio = ratio
	c.Compressor = CompressorFixed
	return nil
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}

func (c *Compression) Reduce(shape, count []uint64, elementSize uint64) (Result, error) {
	globalSize, localSize, err := originalSizes(shape, count, elementSize)
	if err != nil {
		return Result{}, err
	}

	reducedGlobal := ceilDivFloat(globalSize, c.Ratio)
	reducedLocal := ceilDivFloat(localSize, c.Ratio)

	return Result{
		ReducedShape:      shape, // unchanged: compression hides behind the same logical Variable
		ReducedCount:      count,
		ReducedGlobalSize: reducedGlobal,
		ReducedLocalSize:  reducedLocal,
		FLOPs:             c.CompressionCostPerElement * float64(productU64(count)),
	}, nil
}

func (c *Compression) InverseFLOPs(count []uint64) float64 {
	return c.DecompressionCostPerElement * float64(productU64(count))
}

func ceilDivFloat(size uint64, ratio float64) uint64 {
	if ratio <= 0 {
		return size
	}
	reduced := float64(size) / ratio
	r := uint64(reduced)
	if float64(r) < reduced {
		r++
	}
	return r
}
