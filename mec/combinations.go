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

// Combinations enumerates bit masks over an n-element ground set in
// colex order within each popcount size, sizes ascending. In
// cumulative mode the emission index of a mask equals
// cumulativeRankOf(mask, n).
type Combinations struct {
	n, k        int
	current     BitColumn
	pending     BitColumn
	pendingSize int
	pendingOK   bool
	cumulative  bool
}

// Initialize prepares the enumeration of all masks with popcount
// exactly k.
func (g *Combinations) Initialize(n, k int) {
	g.n, g.k = n, k
	g.cumulative = false
	g.pendingSize = k
	g.pending = onesColumn(k)
	g.pendingOK = k <= n
}

// InitializeCumulative prepares the enumeration of all masks with
// popcount at most k.
func (g *Combinations) InitializeCumulative(n, k int) {
	g.n, g.k = n, k
	g.cumulative = true
	g.pendingSize = 0
	g.pending = 0
	g.pendingOK = true
}

// HasNext returns true when another mask remains.
func (g *Combinations) HasNext() bool {
	return g.pendingOK
}

// Next advances the enumerator to the next mask.
func (g *Combinations) Next() {
	g.current = g.pending
	if next, ok := nextColex(g.pending, g.n); ok {
		g.pending = next
		return
	}
	if g.cumulative && g.pendingSize < g.k && g.pendingSize < g.n {
		g.pendingSize++
		g.pending = onesColumn(g.pendingSize)
		return
	}
	g.pendingOK = false
}

// Combination returns the mask the enumerator currently points at.
func (g *Combinations) Combination() BitColumn {
	return g.current
}

// CumulativeRank returns the emission index the cumulative
// enumeration over an n-element ground set assigns to mask.
func (g *Combinations) CumulativeRank(mask BitColumn, n int) int {
	return cumulativeRankOf(mask, n)
}

// nextColex returns the colex successor of c among the masks with the
// same popcount that fit in n bits.
func nextColex(c BitColumn, n int) (BitColumn, bool) {
	if c == 0 {
		return 0, false
	}
	x := uint64(c)
	u := x & (^x + 1)
	v := x + u
	next := v | (((v ^ x) / u) >> 2)
	if next >= 1<<uint(n) {
		return 0, false
	}
	return BitColumn(next), true
}
