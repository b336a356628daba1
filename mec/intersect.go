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
	"github.com/exascience/hapcol/wif"
)

// intersectColumns merges the two ascending read id streams and
// fills forw and back with, for each shared read, its entry index in
// colQ and colJ respectively. A -1 terminates both lists when they
// are not full.
func intersectColumns(colQ, colJ wif.Column, forw, back []int) {
	i, j, count := 0, 0, 0
	for i < len(colQ) && j < len(colJ) &&
		colJ[j].ReadID != wif.SentinelReadID &&
		colQ[i].ReadID != wif.SentinelReadID {
		if colQ[i].ReadID == colJ[j].ReadID {
			forw[count] = i
			back[count] = j
			i++
			j++
			count++
		} else if colQ[i].ReadID < colJ[j].ReadID {
			i++
		} else {
			j++
		}
	}
	if count < len(forw) {
		forw[count] = -1
		back[count] = -1
	}
}

// activeCommonColumns counts the reads shared by the two columns.
func activeCommonColumns(colQ, colJ wif.Column) int {
	i, j, count := 0, 0, 0
	for i < len(colQ) && j < len(colJ) &&
		colJ[j].ReadID != wif.SentinelReadID &&
		colQ[i].ReadID != wif.SentinelReadID {
		if colQ[i].ReadID == colJ[j].ReadID {
			i++
			j++
			count++
		} else if colQ[i].ReadID < colJ[j].ReadID {
			i++
		} else {
			j++
		}
	}
	return count
}

// projectMask restricts mask to the entries listed by indexer: bit c
// of the result is the mask bit at indexer[c]. Returns the projected
// mask and the number of listed entries.
func projectMask(mask BitColumn, indexer []int) (BitColumn, int) {
	var projected BitColumn
	active := 0
	for active < len(indexer) && indexer[active] != -1 {
		projected.Set(active, mask.Test(indexer[active]))
		active++
	}
	return projected, active
}

// extractCommonMask derives, from the mask applied at column j, the
// mask over the reads shared with column q that makes the corrected
// alleles of those reads agree between the two columns. Bit c is set
// when the alleles of the c-th shared read differ between q and j
// xor the read is corrected at j.
func extractCommonMask(colQ, colJ wif.Column, maskJ BitColumn, forw, back []int) (BitColumn, int) {
	var maskQJ BitColumn
	active := 0
	for active < len(back) && back[active] != -1 {
		if (colQ[forw[active]].Allele != colJ[back[active]].Allele) != maskJ.Test(back[active]) {
			maskQJ.Set(active, true)
		}
		active++
	}
	return maskQJ, active
}
