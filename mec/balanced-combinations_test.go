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
	"math"
	"testing"
)

// balancedReference lists, by brute force, the masks the balance
// threshold admits for the given column.
func balancedReference(n, k int, col BitColumn, ratio float64) map[BitColumn]bool {
	c := int(math.Ceil(float64(n) * ratio))
	p0 := n - col.Count()
	p1 := col.Count()
	admitted := make(map[BitColumn]bool)
	for m := 0; m < 1<<uint(n); m++ {
		mask := BitColumn(m)
		t := mask.Count()
		if t > k {
			continue
		}
		i := (mask &^ col).Count()
		j := (mask & col).Count()
		if p0-i+min(p1, t-i) < c {
			continue
		}
		if p1-j+min(p0, t-j) < c {
			continue
		}
		admitted[mask] = true
	}
	return admitted
}

func TestBalancedCombinations(t *testing.T) {
	var gen BalancedCombinations
	for n := 1; n <= 6; n++ {
		for col := BitColumn(0); col < 1<<uint(n); col++ {
			for k := 0; k <= n; k++ {
				for _, ratio := range []float64{0, 0.25, 0.5} {
					expected := balancedReference(n, k, col, ratio)
					gen.Initialize(n, k, col, ratio)
					emitted := make(map[BitColumn]bool)
					for gen.HasNext() {
						gen.Next()
						mask := gen.Combination()
						if emitted[mask] {
							t.Fatalf("n=%v col=%v k=%v r=%v: mask %v emitted twice", n, uint32(col), k, ratio, uint32(mask))
						}
						if !expected[mask] {
							t.Fatalf("n=%v col=%v k=%v r=%v: mask %v violates the balance threshold", n, uint32(col), k, ratio, uint32(mask))
						}
						emitted[mask] = true
					}
					if len(emitted) != len(expected) {
						t.Fatalf("n=%v col=%v k=%v r=%v: emitted %v masks, expected %v", n, uint32(col), k, ratio, len(emitted), len(expected))
					}
				}
			}
		}
	}
}
