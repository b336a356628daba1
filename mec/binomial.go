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
	"math/bits"

	"gonum.org/v1/gonum/stat/combin"
)

// btable[n][k] is the binomial coefficient, 0 when k > n.
// ctable[n][k] is the cumulative binomial coefficient, the sum of
// btable[n][i] for i <= k; it saturates at ctable[n][n] when k > n.
var (
	btable [MaxCoverage + 1][MaxCoverage + 1]int
	ctable [MaxCoverage + 1][MaxCoverage + 1]int
)

func init() {
	for n := 0; n <= MaxCoverage; n++ {
		for k := 0; k <= n; k++ {
			btable[n][k] = combin.Binomial(n, k)
		}
		sum := 0
		for k := 0; k <= MaxCoverage; k++ {
			if k <= n {
				sum += btable[n][k]
			}
			ctable[n][k] = sum
		}
	}
}

func binomial(n, k int) int {
	return btable[n][k]
}

func cumulativeBinomial(n, k int) int {
	return ctable[n][k]
}

// rankOf returns the colex rank of mask among all subsets of its
// popcount size.
func rankOf(mask BitColumn) int {
	m := uint32(mask)
	k := 0
	pos := 0
	result := 0
	for m != 0 {
		shift := bits.TrailingZeros32(m) + 1
		pos += shift
		k++
		result += binomial(pos-1, k)
		m >>= uint(shift)
	}
	return result
}

// cumulativeRankOf returns the rank of mask among all subsets of size
// at most popcount(mask) of an n-element ground set, in the order the
// combination enumerator emits them.
func cumulativeRankOf(mask BitColumn, n int) int {
	result := rankOf(mask)
	for i := 0; i < mask.Count(); i++ {
		result += binomial(n, i)
	}
	return result
}

// KTable maps coverage to the maximum number of corrections permitted
// at a column. k(cov) is the smallest k such that the probability of
// more than k errors among cov reads, each wrong with probability
// errorRate, is at most alpha.
type KTable []int

// NewKTable precomputes k(cov) for all coverages up to MaxCoverage.
func NewKTable(errorRate, alpha float64) KTable {
	ks := make(KTable, MaxCoverage+1)
	for cov := 1; cov <= MaxCoverage; cov++ {
		k := 0
		cumulative := math.Pow(1-errorRate, float64(cov))
		for !(1-cumulative <= alpha) && k < cov {
			k++
			cumulative += float64(binomial(cov, k)) * math.Pow(errorRate, float64(k)) * math.Pow(1-errorRate, float64(cov-k))
		}
		if k > MaxCorrections {
			k = MaxCorrections
		}
		ks[cov] = k
	}
	return ks
}

// K returns the correction bound for the given coverage.
func (t KTable) K(cov int) int {
	return t[cov]
}
