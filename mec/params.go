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

// ColumnSource streams the columns of a read matrix in left-to-right
// order.
type ColumnSource interface {
	HasNext() bool
	Next() (wif.Column, error)
	NumCols() int
}

// Params holds the window geometry derived from a first pass over the
// input of one block.
type Params struct {
	// NumCols counts the block's columns plus the leading synthetic
	// empty column the dynamic program starts from.
	NumCols int
	// MaxCov is the largest coverage of any column.
	MaxCov int
	// MaxL is the window radius: the maximum fragment length, raised
	// to at least 2, then clamped to two more than the longest run of
	// consecutive homozygous-feasible columns connected by non-empty
	// intersections.
	MaxL int
	// MaxK is the correction bound at the largest coverage.
	MaxK int
	// SumSuccessiveL[y] bounds the number of mask fingerprints any
	// column stores for the column y ahead of it.
	SumSuccessiveL []int
	// Scheme[j][p] is the exact number of backtrace entries column j
	// keeps for column j+p.
	Scheme [][]int
}

// ComputeParams scans all columns of the source once and derives the
// window geometry for the solver.
func ComputeParams(source ColumnSource, ks KTable) (*Params, error) {
	numCols := source.NumCols() + 1

	input := make([]wif.Column, numCols)
	homoCost := make([]int, numCols)
	maxCov := 0
	var rows []int

	for i := 1; i < numCols && source.HasNext(); i++ {
		column, err := source.Next()
		if err != nil {
			return nil, err
		}
		input[i] = column

		countMajor, countMinor := 0, 0
		for _, entry := range column {
			if entry.Allele == wif.Major {
				countMajor++
			} else {
				countMinor++
			}
			for len(rows) <= entry.ReadID {
				rows = append(rows, 0)
			}
			rows[entry.ReadID]++
		}
		homoCost[i] = min(countMajor, countMinor)
		if len(column) > maxCov {
			maxCov = len(column)
		}
	}

	maxL := 0
	for _, length := range rows {
		if length > maxL {
			maxL = length
		}
	}
	// A window radius below 2 cannot hold the empty column that marks
	// the end of the input.
	if maxL < 2 {
		maxL = 2
	}

	maxConsHomo := 0
	sumSuccessiveL := make([]int, maxL)
	scheme := make([][]int, numCols)
	for i := 0; i < numCols; i++ {
		kTemp := ks.K(len(input[i]))
		currentConsHomo := 0
		flag := true
		scheme[i] = append(scheme[i], 0)

		for y := 1; y < maxL && i+y < numCols; y++ {
			activeCommon := activeCommonColumns(input[i], input[i+y])
			result := cumulativeBinomial(activeCommon, kTemp)
			if result > sumSuccessiveL[y] {
				sumSuccessiveL[y] = result
			}
			if flag {
				if homoCost[i+y] <= ks.K(len(input[i+y])) && activeCommon != 0 {
					currentConsHomo++
					scheme[i] = append(scheme[i], result)
				} else {
					flag = false
					scheme[i] = append(scheme[i], result)
				}
			}
		}
		if currentConsHomo > maxConsHomo {
			maxConsHomo = currentConsHomo
		}
	}

	// One more to count the heterozygous column in front of the
	// longest homozygous run, and another for the one after it.
	if maxConsHomo+2 < maxL {
		maxL = maxConsHomo + 2
	}

	return &Params{
		NumCols:        numCols,
		MaxCov:         maxCov,
		MaxL:           maxL,
		MaxK:           ks.K(maxCov),
		SumSuccessiveL: sumSuccessiveL,
		Scheme:         scheme,
	}, nil
}
