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
)

// BalancedCombinations enumerates the masks of popcount at most k
// whose application leaves at least ceil(n*ratio) reads on each
// haplotype side of the corrected column. Masks are composed from a
// sub-combination over the 0-positions and one over the 1-positions
// of the column.
type BalancedCombinations struct {
	n, k, c int
	col     BitColumn
	p       [2]int
	maps    [2][]int
	cache   [2][][]BitColumn

	t, i, j, ii, jj int
	current         BitColumn
	hasNext         bool
	skip            bool

	gen Combinations
}

// Initialize prepares the enumeration for a column with n active
// entries, correction bound k, column bits col, and balance ratio.
func (g *BalancedCombinations) Initialize(n, k int, col BitColumn, ratio float64) {
	g.n, g.k, g.col = n, k, col
	g.c = int(math.Ceil(float64(n) * ratio))

	g.p[0] = n - col.Count()
	g.p[1] = col.Count()

	g.maps[0] = g.maps[0][:0]
	g.maps[1] = g.maps[1][:0]
	for i := 0; i < n; i++ {
		if col.Test(i) {
			g.maps[1] = append(g.maps[1], i)
		} else {
			g.maps[0] = append(g.maps[0], i)
		}
	}

	g.cache[0] = make([][]BitColumn, g.p[0]+1)
	g.cache[1] = make([][]BitColumn, g.p[1]+1)

	g.t, g.i, g.j, g.ii, g.jj = 0, 0, 0, 0, 0
	g.hasNext = true
	g.skip = true
	g.tryNext()
}

// HasNext returns true when another mask remains.
func (g *BalancedCombinations) HasNext() bool {
	return g.hasNext
}

// Next advances the enumerator to the next balanced mask.
func (g *BalancedCombinations) Next() {
	g.makeCurrent()
	g.skip = false
	g.tryNext()
}

// Combination returns the mask the enumerator currently points at.
func (g *BalancedCombinations) Combination() BitColumn {
	return g.current
}

func (g *BalancedCombinations) retrieve(side, size int) []BitColumn {
	if g.cache[side][size] == nil {
		list := make([]BitColumn, 0)
		g.gen.Initialize(g.p[side], size)
		for g.gen.HasNext() {
			g.gen.Next()
			list = append(list, g.gen.Combination())
		}
		g.cache[side][size] = list
	}
	return g.cache[side][size]
}

func (g *BalancedCombinations) makeCurrent() {
	g.current = 0
	c0 := g.cache[0][g.i][g.ii]
	for i := 0; i < g.p[0]; i++ {
		if c0.Test(i) {
			g.current.Set(g.maps[0][i], true)
		}
	}
	c1 := g.cache[1][g.j][g.jj]
	for j := 0; j < g.p[1]; j++ {
		if c1.Test(j) {
			g.current.Set(g.maps[1][j], true)
		}
	}
}

// tryNext resumes the (t, i, j, ii, jj) walk at the stored counters
// and stops at the next valid configuration.
func (g *BalancedCombinations) tryNext() {
	for g.t <= g.k {
		for g.i <= min(g.p[0], g.t) {
			g.j = g.t - g.i
			if g.j <= g.p[1] {
				if g.p[0]-g.i+min(g.p[1], g.t-g.i) >= g.c && g.p[1]-g.j+min(g.p[0], g.t-g.j) >= g.c {
					c0 := g.retrieve(0, g.i)
					for g.ii < len(c0) {
						c1 := g.retrieve(1, g.j)
						for g.jj < len(c1) {
							if g.skip {
								return
							}
							g.skip = true
							g.jj++
						}
						g.jj = 0
						g.ii++
					}
					g.ii = 0
				}
			}
			g.i++
		}
		g.i = 0
		g.t++
	}
	g.hasNext = false
}
