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
	"fmt"
	"math"
	"math/bits"

	"github.com/exascience/hapcol/wif"
)

const maxCounter = math.MaxInt

// representColumn writes the minor-allele bits of the column's active
// entries into result and returns the coverage.
func representColumn(column wif.Column) (result BitColumn, cov int) {
	for cov < len(column) && column[cov].ReadID != wif.SentinelReadID {
		result.Set(cov, column[cov].Allele == wif.Minor)
		cov++
	}
	return result, cov
}

// maskWeight sums the phred scores of the column entries selected by
// the mask.
func maskWeight(mask BitColumn, column wif.Column) Cost {
	weight := Cost(0)
	for m := uint32(mask); m != 0; m &= m - 1 {
		weight = weight.Add(Cost(column[bits.TrailingZeros32(m)].Phred))
	}
	return weight
}

// insertColumn writes the column into the window slot and refreshes
// the slot's k, homozygous cost and homozygous weight. The
// homozygous kind of the column at the given step is recorded for
// reconstruction: true means the column is corrected to all-major,
// leaving both haplotypes at 0.
func (s *Solver) insertColumn(slot int, column wif.Column, step int) error {
	countMajor, countMinor := 0, 0
	weightMajor, weightMinor := Cost(0), Cost(0)

	for i, entry := range column {
		s.window[slot][i] = entry
		switch entry.Allele {
		case wif.Minor:
			countMinor++
			weightMinor = weightMinor.Add(Cost(entry.Phred))
		case wif.Major:
			countMajor++
			weightMajor = weightMajor.Add(Cost(entry.Phred))
		default:
			return fmt.Errorf("column %v contains an allele that is not equal to 0 or 1", step)
		}
	}
	if i := len(column); i < len(s.window[slot]) && s.window[slot][i].ReadID != wif.SentinelReadID {
		s.window[slot][i] = wif.Sentinel()
	}

	s.kJ[slot] = s.ks.K(len(column))

	s.homoCost[slot] = maxCounter
	s.homoWeight[slot] = Infinity

	if countMinor <= s.kJ[slot] && weightMinor < s.homoWeight[slot] {
		s.homoCost[slot] = countMinor
		s.homoWeight[slot] = weightMinor
		if step < len(s.homoZero) {
			s.homoZero[step] = true
		}
	}
	if countMajor <= s.kJ[slot] && weightMajor < s.homoWeight[slot] {
		s.homoCost[slot] = countMajor
		s.homoWeight[slot] = weightMajor
		if step < len(s.homoZero) {
			s.homoZero[step] = false
		}
	}
	return nil
}
