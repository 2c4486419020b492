// Package variable implements the DTL's per-Stream data model.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package variable_test

import (
	"testing"

	"github.com/simgrid/dtlmod/cmn/cos"
	"github.com/simgrid/dtlmod/reduction"
	"github.com/simgrid/dtlmod/variable"
)

func TestNewAndGlobalSize(t *testing.T) {
	v, err := variable.New("var", []uint64{20000, 20000}, []uint64{0, 0}, []uint64{20000, 20000}, 8)
	if err != nil {
		t.Fatal(err)
	}
	global, err := v.GlobalSize()
	if err != nil {
		t.Fatal(err)
	}
	if want := uint64(20000 * 20000 * 8); global != want {
		t.Fatalf("global size = %d, want %d", global, want)
	}
	local, err := v.LocalSize()
	if err != nil {
		t.Fatal(err)
	}
	if local != global {
		t.Fatalf("single-publisher local size = %d, want %d", local, global)
	}
}

func TestNewScalar(t *testing.T) {
	v, err := variable.NewScalar("scalar", 4)
	if err != nil {
		t.Fatal(err)
	}
	global, err := v.GlobalSize()
	if err != nil {
		t.Fatal(err)
	}
	if global != 4 {
		t.Fatalf("scalar global size = %d, want 4 (element_size times the empty product)", global)
	}
}

func TestNewDimensionalityMismatch(t *testing.T) {
	_, err := variable.New("bad", []uint64{10, 10}, []uint64{0}, []uint64{10, 10}, 8)
	if !cos.IsErrInconsistentVariableDefinition(err) {
		t.Fatalf("expected InconsistentVariableDefinition, got %v", err)
	}
}

func TestNewZeroShape(t *testing.T) {
	_, err := variable.New("bad", []uint64{0, 10}, []uint64{0, 0}, []uint64{0, 10}, 8)
	if !cos.IsErrInconsistentVariableDefinition(err) {
		t.Fatalf("expected InconsistentVariableDefinition, got %v", err)
	}
}

func TestNewStartCountExceedsShape(t *testing.T) {
	_, err := variable.New("bad", []uint64{10}, []uint64{5}, []uint64{10}, 8)
	if !cos.IsErrInconsistentVariableDefinition(err) {
		t.Fatalf("expected InconsistentVariableDefinition, got %v", err)
	}
}

func TestNewWrappedNegative(t *testing.T) {
	_, err := variable.New("bad", []uint64{cos.MaxUint64}, []uint64{0}, []uint64{10}, 8)
	if !cos.IsErrInconsistentVariableDefinition(err) {
		t.Fatalf("expected InconsistentVariableDefinition, got %v", err)
	}
}

func TestNewZeroElementSize(t *testing.T) {
	_, err := variable.New("bad", []uint64{10}, []uint64{0}, []uint64{10}, 0)
	if !cos.IsErrInconsistentVariableDefinition(err) {
		t.Fatalf("expected InconsistentVariableDefinition, got %v", err)
	}
}

// Two actors partition the global shape of a Variable; the second
// define_variable call only changes start/count and must succeed while
// leaving identity (name/shape/element_size) intact.
func TestRedefinePartition(t *testing.T) {
	v, err := variable.New("var", []uint64{20000, 20000}, []uint64{0, 0}, []uint64{10000, 20000}, 8)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Redefine([]uint64{20000, 20000}, []uint64{10000, 0}, []uint64{10000, 20000}, 8); err != nil {
		t.Fatalf("same-identity redefinition should succeed: %v", err)
	}
	if v.Start[0] != 10000 {
		t.Fatalf("redefinition did not update local region: %+v", v.Start)
	}
}

func TestRedefineConflictingShape(t *testing.T) {
	v, err := variable.New("var", []uint64{100}, []uint64{0}, []uint64{100}, 8)
	if err != nil {
		t.Fatal(err)
	}
	err = v.Redefine([]uint64{200}, []uint64{0}, []uint64{200}, 8)
	if !cos.IsErrMultipleVariableDefinition(err) {
		t.Fatalf("expected MultipleVariableDefinition, got %v", err)
	}
}

func TestRedefineConflictingElementSize(t *testing.T) {
	v, err := variable.New("var", []uint64{100}, []uint64{0}, []uint64{100}, 8)
	if err != nil {
		t.Fatal(err)
	}
	err = v.Redefine([]uint64{100}, []uint64{0}, []uint64{100}, 4)
	if !cos.IsErrMultipleVariableDefinition(err) {
		t.Fatalf("expected MultipleVariableDefinition, got %v", err)
	}
}

// S3 - subscriber selection start=(10000,0), count=(10000,20000) on the
// 20k x 20k var yields local_size == 1.6e9.
func TestSelectionS3(t *testing.T) {
	v, err := variable.New("var", []uint64{20000, 20000}, []uint64{0, 0}, []uint64{20000, 20000}, 8)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.SetSelection([]uint64{10000, 0}, []uint64{10000, 20000}); err != nil {
		t.Fatal(err)
	}
	_, count := v.EffectiveRegion()
	localSize, overflow := cos.ProductOverflows(v.ElementSize, count)
	if overflow {
		t.Fatal("unexpected overflow")
	}
	if want := uint64(8 * 10000 * 20000); localSize != want {
		t.Fatalf("selected local size = %d, want %d", localSize, want)
	}
}

func TestSelectionOutOfBounds(t *testing.T) {
	v, err := variable.New("var", []uint64{100}, []uint64{0}, []uint64{100}, 8)
	if err != nil {
		t.Fatal(err)
	}
	err = v.SetSelection([]uint64{50}, []uint64{60})
	if !cos.IsErrInconsistentVariableDefinition(err) {
		t.Fatalf("expected InconsistentVariableDefinition, got %v", err)
	}
}

// S5 - set_transaction_selection(1) then (2,2) against 5 committed
// transactions.
func TestTransactionSelectionS5(t *testing.T) {
	var ts variable.TransactionSelection
	ts.SetSingle(1)
	first, count, err := ts.Resolve(5)
	if err != nil {
		t.Fatal(err)
	}
	if first != 1 || count != 1 {
		t.Fatalf("got (first=%d, count=%d), want (1, 1)", first, count)
	}

	ts.SetRange(2, 2)
	first, count, err = ts.Resolve(5)
	if err != nil {
		t.Fatal(err)
	}
	if first != 2 || count != 2 {
		t.Fatalf("got (first=%d, count=%d), want (2, 2)", first, count)
	}
}

func TestTransactionSelectionDefaultsLatest(t *testing.T) {
	var ts variable.TransactionSelection
	first, count, err := ts.Resolve(5)
	if err != nil {
		t.Fatal(err)
	}
	if first != 4 || count != 1 {
		t.Fatalf("got (first=%d, count=%d), want (4, 1) - latest committed", first, count)
	}
}

func TestTransactionSelectionOutOfRange(t *testing.T) {
	var ts variable.TransactionSelection
	ts.SetSingle(9)
	if _, _, err := ts.Resolve(5); !cos.IsErrInconsistentVariableDefinition(err) {
		t.Fatalf("expected InconsistentVariableDefinition, got %v", err)
	}
}

// S8 - publisher applies compression; subscriber attempts decimation
// (DoubleReduction) then compression (SubscriberSideCompression).
func TestReductionPrecedenceS8(t *testing.T) {
	v, err := variable.New("var", []uint64{100, 100}, []uint64{0, 0}, []uint64{100, 100}, 8)
	if err != nil {
		t.Fatal(err)
	}

	compress, err := reduction.New(reduction.KindCompression)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.SetReductionOperation(compress, map[string]string{"compression_ratio": "4"}, true); err != nil {
		t.Fatalf("publisher-side compression should succeed: %v", err)
	}

	decimation, err := reduction.New(reduction.KindDecimation)
	if err != nil {
		t.Fatal(err)
	}
	err = v.SetReductionOperation(decimation, map[string]string{"stride": "2,2"}, false)
	if !cos.IsErrDoubleReduction(err) {
		t.Fatalf("expected DoubleReduction, got %v", err)
	}

	subCompress, err := reduction.New(reduction.KindCompression)
	if err != nil {
		t.Fatal(err)
	}
	err = v.SetReductionOperation(subCompress, map[string]string{"compression_ratio": "2"}, false)
	if !cos.IsErrSubscriberSideCompression(err) {
		t.Fatalf("expected SubscriberSideCompression, got %v", err)
	}
}

// Re-parameterizing the same publisher-applied method from the
// subscriber side is allowed per spec.md §4.3.
func TestReductionSameKindReparameterization(t *testing.T) {
	v, err := variable.New("var", []uint64{640, 640, 640}, []uint64{0, 0, 0}, []uint64{640, 640, 640}, 8)
	if err != nil {
		t.Fatal(err)
	}

	decimation, err := reduction.New(reduction.KindDecimation)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.SetReductionOperation(decimation, map[string]string{"stride": "1,2,4"}, true); err != nil {
		t.Fatal(err)
	}

	decimation2, err := reduction.New(reduction.KindDecimation)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.SetReductionOperation(decimation2, map[string]string{"stride": "2,2,4"}, false); err != nil {
		t.Fatalf("same-kind re-parameterization should succeed: %v", err)
	}
}

// S6 - decimation reduces the 3D (640,640,640) var to (640,320,160) via
// stride (1,2,4).
func TestVariableDecimationS6(t *testing.T) {
	v, err := variable.New("var", []uint64{640, 640, 640}, []uint64{0, 0, 0}, []uint64{640, 640, 640}, 8)
	if err != nil {
		t.Fatal(err)
	}
	decimation, err := reduction.New(reduction.KindDecimation)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.SetReductionOperation(decimation, map[string]string{"stride": "1,2,4", "cost_per_element": "3"}, true); err != nil {
		t.Fatal(err)
	}
	result, err := v.Reduction.Method.Reduce(v.Shape, v.Count, v.ElementSize)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint64{640, 320, 160}
	for i := range want {
		if result.ReducedShape[i] != want[i] {
			t.Fatalf("reduced shape[%d] = %d, want %d", i, result.ReducedShape[i], want[i])
		}
	}
}
