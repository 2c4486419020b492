// Package cos provides common low-level types and utilities for the DTL.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos_test

import (
	"math"

	"github.com/simgrid/dtlmod/cmn/cos"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("checked arithmetic", func() {
	It("multiplies without overflow", func() {
		product, overflows := cos.MulOverflows(3, 4)
		Expect(overflows).To(BeFalse())
		Expect(product).To(BeEquivalentTo(12))
	})

	It("detects a multiply overflow", func() {
		_, overflows := cos.MulOverflows(math.MaxUint64, 2)
		Expect(overflows).To(BeTrue())
	})

	It("folds a shape's dimension product", func() {
		product, overflows := cos.ProductOverflows(8, []uint64{20000, 20000})
		Expect(overflows).To(BeFalse())
		Expect(product).To(BeEquivalentTo(8 * 20000 * 20000))
	})

	It("detects overflow partway through a shape fold", func() {
		_, overflows := cos.ProductOverflows(1, []uint64{math.MaxUint64, 2, 2})
		Expect(overflows).To(BeTrue())
	})

	It("recognizes the wrapped-negative sentinel", func() {
		Expect(cos.IsWrappedNegative(math.MaxUint64)).To(BeTrue())
		Expect(cos.IsWrappedNegative(41)).To(BeFalse())
	})
})
