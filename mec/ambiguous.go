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
	"log"

	"github.com/willf/bitset"

	"github.com/exascience/hapcol/wif"
)

// readRow collects one read's alleles and weights over the columns it
// covers.
type readRow struct {
	alleles *bitset.BitSet
	weights []int
	start   int
}

// AddXs remaps every read to the closer of the two haplotypes and
// replaces haplotype positions whose assigned reads tie on allele
// counts with 'X'. The source must stream the same columns the
// haplotypes were computed from.
func AddXs(source ColumnSource, haplotype1, haplotype2 []bool, unweighted bool) (out1, out2 []byte, err error) {
	numCols := source.NumCols()

	var rows []*readRow
	currentColumn := -1
	for source.HasNext() {
		column, err := source.Next()
		if err != nil {
			return nil, nil, err
		}
		currentColumn++
		for _, entry := range column {
			for len(rows) <= entry.ReadID {
				rows = append(rows, nil)
			}
			row := rows[entry.ReadID]
			if row == nil {
				row = &readRow{
					alleles: bitset.New(uint(numCols - currentColumn)),
					start:   currentColumn,
				}
				rows[entry.ReadID] = row
			}
			row.alleles.SetTo(uint(len(row.weights)), entry.Allele == wif.Minor)
			if unweighted {
				row.weights = append(row.weights, 1)
			} else {
				row.weights = append(row.weights, entry.Phred)
			}
		}
	}

	counts1 := make([][2]int, numCols)
	counts2 := make([][2]int, numCols)
	totalErrors := 0

	for _, row := range rows {
		if row == nil {
			continue
		}
		counts := counts2
		if mapFragment(row, haplotype1, haplotype2, &totalErrors) == 1 {
			counts = counts1
		}
		for col := 0; col < len(row.weights); col++ {
			if row.alleles.Test(uint(col)) {
				counts[col+row.start][1]++
			} else {
				counts[col+row.start][0]++
			}
		}
	}

	out1 = makeHaplo(haplotype1, counts1)
	out2 = makeHaplo(haplotype2, counts2)

	log.Println("total mismatches during mapping:", totalErrors)
	return out1, out2, nil
}

// mapFragment returns 1 when the read is at least as close to
// haplotype1 as to haplotype2, and 2 otherwise, accumulating the
// distance of the chosen side.
func mapFragment(row *readRow, haplotype1, haplotype2 []bool, totalErrors *int) int {
	distance1 := 0
	distance2 := 0
	for col := 0; col < len(row.weights); col++ {
		allele := row.alleles.Test(uint(col))
		if allele != haplotype1[col+row.start] {
			distance1 += row.weights[col]
		}
		if allele != haplotype2[col+row.start] {
			distance2 += row.weights[col]
		}
	}
	if distance1 <= distance2 {
		*totalErrors += distance1
		return 1
	}
	*totalErrors += distance2
	return 2
}

// makeHaplo renders a haplotype, marking a position with 'X' when the
// reads assigned to the haplotype tie on allele counts there. A
// position no assigned read covers keeps the computed allele.
func makeHaplo(haplotype []bool, counts [][2]int) []byte {
	countX := 0
	out := make([]byte, len(haplotype))
	for col := range haplotype {
		switch {
		case counts[col][0] == counts[col][1] && counts[col][0]+counts[col][1] > 0:
			out[col] = 'X'
			countX++
		case haplotype[col]:
			out[col] = '1'
		default:
			out[col] = '0'
		}
	}
	log.Println("introduced X's in one haplotype:", countX)
	return out
}
