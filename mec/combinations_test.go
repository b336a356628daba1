// hapcol: fast and memory-efficient haplotype assembly from long reads.
// Copyright (c) 2019-2021 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/hapcol/blob/master/LICENSE.txt>.

package mec

import (
	"testing"
)

func TestCumulativeEnumerationOrder(t *testing.T) {
	var gen Combinations
	for n := 0; n <= 8; n++ {
		for k := 0; k <= n+1; k++ {
			gen.InitializeCumulative(n, k)
			index := 0
			seen := make(map[BitColumn]bool)
			for gen.HasNext() {
				gen.Next()
				mask := gen.Combination()
				if mask.Count() > k {
					t.Errorf("n=%v k=%v: mask %v exceeds popcount bound", n, k, uint32(mask))
				}
				if seen[mask] {
					t.Errorf("n=%v k=%v: mask %v emitted twice", n, k, uint32(mask))
				}
				seen[mask] = true
				if rank := cumulativeRankOf(mask, n); rank != index {
					t.Errorf("n=%v k=%v: mask %v has rank %v at emission index %v", n, k, uint32(mask), rank, index)
				}
				index++
			}
			expected := 0
			bound := k
			if bound > n {
				bound = n
			}
			for i := 0; i <= bound; i++ {
				expected += binomial(n, i)
			}
			if index != expected {
				t.Errorf("n=%v k=%v: emitted %v masks, expected %v", n, k, index, expected)
			}
			if expected != cumulativeBinomial(n, k) {
				t.Errorf("n=%v k=%v: cumulative binomial %v disagrees with %v", n, k, cumulativeBinomial(n, k), expected)
			}
		}
	}
}

func TestExactEnumeration(t *testing.T) {
	var gen Combinations
	for n := 0; n <= 8; n++ {
		for k := 0; k <= n; k++ {
			gen.Initialize(n, k)
			count := 0
			previous := BitColumn(0)
			for gen.HasNext() {
				gen.Next()
				mask := gen.Combination()
				if mask.Count() != k {
					t.Errorf("n=%v k=%v: mask %v has wrong popcount", n, k, uint32(mask))
				}
				if count > 0 && uint32(mask) <= uint32(previous) {
					t.Errorf("n=%v k=%v: mask %v not in colex order", n, k, uint32(mask))
				}
				previous = mask
				count++
			}
			if count != binomial(n, k) {
				t.Errorf("n=%v k=%v: emitted %v masks, expected %v", n, k, count, binomial(n, k))
			}
		}
	}
}

func TestExactEnumerationAboveGroundSet(t *testing.T) {
	var gen Combinations
	gen.Initialize(3, 4)
	if gen.HasNext() {
		t.Error("no size-4 subsets of a 3-element set expected")
	}
}

func TestFullWidthEnumeration(t *testing.T) {
	// The widest mask must not wrap around.
	var gen Combinations
	gen.Initialize(MaxCoverage, MaxCoverage)
	count := 0
	for gen.HasNext() {
		gen.Next()
		count++
	}
	if count != 1 {
		t.Errorf("expected the single full mask, got %v", count)
	}
	if gen.Combination() != onesColumn(MaxCoverage) {
		t.Error("full mask expected")
	}
}

func BenchmarkCumulativeEnumeration(b *testing.B) {
	var gen Combinations
	for i := 0; i < b.N; i++ {
		gen.InitializeCumulative(20, 5)
		for gen.HasNext() {
			gen.Next()
		}
	}
}
