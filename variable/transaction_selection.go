// Package variable - transaction selection.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package variable

import "github.com/simgrid/dtlmod/cmn/cos"

// TransactionSelection picks one or a contiguous span of historical
// transactions for a subscriber's get, per spec.md §4.6. The zero value
// means "unset" and Resolve defaults it to the latest committed
// transaction.
type TransactionSelection struct {
	set   bool
	first uint64
	span  uint64
}

// SetSingle selects exactly one historical transaction by index.
func (ts *TransactionSelection) SetSingle(idx uint64) {
	ts.first, ts.span, ts.set = idx, 1, true
}

// SetRange selects span consecutive transactions starting at first.
func (ts *TransactionSelection) SetRange(first, span uint64) {
	ts.first, ts.span, ts.set = first, span, true
}

// Resolve validates the selection against the number of committed
// transactions and returns the first index and count to read. An unset
// selection defaults to the single latest committed transaction.
func (ts *TransactionSelection) Resolve(totalCommitted uint64) (first, count uint64, err error) {
	if totalCommitted == 0 {
		return 0, 0, cos.NewErrInconsistentVariableDefinition("", "no committed transactions to select from")
	}
	if ts == nil || !ts.set {
		return totalCommitted - 1, 1, nil
	}
	if ts.span == 0 {
		return 0, 0, cos.NewErrInconsistentVariableDefinition("", "transaction selection span must be >= 1")
	}
	if ts.first >= totalCommitted || ts.first+ts.span > totalCommitted {
		return 0, 0, cos.NewErrInconsistentVariableDefinition("", "transaction selection out of range")
	}
	return ts.first, ts.span, nil
}
