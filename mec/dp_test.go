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
	"errors"
	"testing"

	"github.com/exascience/hapcol/wif"
)

// sliceSource streams a fixed list of columns.
type sliceSource struct {
	columns []wif.Column
	next    int
}

func (s *sliceSource) HasNext() bool {
	return s.next < len(s.columns)
}

func (s *sliceSource) Next() (wif.Column, error) {
	column := s.columns[s.next]
	s.next++
	return column, nil
}

func (s *sliceSource) NumCols() int {
	return len(s.columns)
}

func solveColumns(t *testing.T, columns []wif.Column, opts Options) (*Result, error) {
	t.Helper()
	ks := NewKTable(opts.ErrorRate, opts.Alpha)
	params, err := ComputeParams(&sliceSource{columns: columns}, ks)
	if err != nil {
		t.Fatal(err)
	}
	solver := NewSolver(params, ks, opts)
	return solver.Run(&sliceSource{columns: columns})
}

func entry(readID int, allele wif.Allele, phred int) wif.Entry {
	return wif.Entry{ReadID: readID, Allele: allele, Phred: phred}
}

func haploString(haplotype []bool) string {
	out := make([]byte, len(haplotype))
	for i, one := range haplotype {
		if one {
			out[i] = '1'
		} else {
			out[i] = '0'
		}
	}
	return string(out)
}

func TestSingleReadSingleColumn(t *testing.T) {
	columns := []wif.Column{
		{entry(0, wif.Minor, 10)},
	}
	result, err := solveColumns(t, columns, Options{ErrorRate: 0, Alpha: 1})
	if err != nil {
		t.Fatal(err)
	}
	if result.Cost != 0 {
		t.Error("expected cost 0, got", result.Cost)
	}
	if haploString(result.Haplotype1) != "1" || haploString(result.Haplotype2) != "1" {
		t.Errorf("expected 1/1, got %v/%v", haploString(result.Haplotype1), haploString(result.Haplotype2))
	}
}

func TestTwoReadsTwoColumns(t *testing.T) {
	columns := []wif.Column{
		{entry(0, wif.Major, 1), entry(1, wif.Minor, 1)},
		{entry(0, wif.Major, 1), entry(1, wif.Minor, 1)},
	}
	result, err := solveColumns(t, columns, Options{ErrorRate: 0.05, Alpha: 0.01, Unweighted: true})
	if err != nil {
		t.Fatal(err)
	}
	if result.Cost != 0 {
		t.Error("expected cost 0, got", result.Cost)
	}
	h1 := haploString(result.Haplotype1)
	h2 := haploString(result.Haplotype2)
	if !(h1 == "00" && h2 == "11") && !(h1 == "11" && h2 == "00") {
		t.Errorf("expected 00/11 up to a swap, got %v/%v", h1, h2)
	}
}

func TestThreeReadsWithOneErroneous(t *testing.T) {
	// Reads 0 and 1 define the haplotypes; read 2 is inconsistent and
	// needs a single correction at one of the two columns.
	columns := []wif.Column{
		{entry(0, wif.Major, 3), entry(1, wif.Minor, 3), entry(2, wif.Major, 1)},
		{entry(0, wif.Major, 3), entry(1, wif.Minor, 3), entry(2, wif.Minor, 1)},
	}
	result, err := solveColumns(t, columns, Options{ErrorRate: 0.05, Alpha: 0.01})
	if err != nil {
		t.Fatal(err)
	}
	if result.Cost != 1 {
		t.Error("expected cost 1, got", result.Cost)
	}
	h1 := haploString(result.Haplotype1)
	h2 := haploString(result.Haplotype2)
	if !(h1 == "00" && h2 == "11") && !(h1 == "11" && h2 == "00") {
		t.Errorf("expected 00/11 up to a swap, got %v/%v", h1, h2)
	}
}

func TestDisjointBlocks(t *testing.T) {
	// Two phased pairs of reads separated by an empty column. The
	// solver must chain the empty column homozygously and restart a
	// block behind it.
	columns := []wif.Column{
		{entry(0, wif.Major, 3), entry(1, wif.Minor, 3)},
		{entry(0, wif.Major, 3), entry(1, wif.Minor, 3)},
		{},
		{entry(2, wif.Major, 3), entry(3, wif.Minor, 3)},
		{entry(2, wif.Major, 3), entry(3, wif.Minor, 3)},
	}
	result, err := solveColumns(t, columns, Options{ErrorRate: 0.05, Alpha: 0.01})
	if err != nil {
		t.Fatal(err)
	}
	if result.Cost != 0 {
		t.Error("expected cost 0, got", result.Cost)
	}
	if result.Haplotype1[2] || result.Haplotype2[2] {
		t.Error("the empty column must be homozygous 0 on both haplotypes")
	}
	for _, j := range []int{0, 1, 3, 4} {
		if result.Haplotype1[j] == result.Haplotype2[j] {
			t.Errorf("column %v must be heterozygous", j+1)
		}
	}
	if result.Haplotype1[0] != result.Haplotype1[1] {
		t.Error("read 0 must connect the first two columns")
	}
	if result.Haplotype1[3] != result.Haplotype1[4] {
		t.Error("read 2 must connect the last two columns")
	}
}

func TestHomozygousColumns(t *testing.T) {
	// All reads agree on the minor allele everywhere, so both
	// haplotypes are all-1 at no cost.
	columns := []wif.Column{
		{entry(0, wif.Minor, 2), entry(1, wif.Minor, 2)},
		{entry(0, wif.Minor, 2), entry(1, wif.Minor, 2)},
	}
	result, err := solveColumns(t, columns, Options{ErrorRate: 0.05, Alpha: 0.01})
	if err != nil {
		t.Fatal(err)
	}
	if result.Cost != 0 {
		t.Error("expected cost 0, got", result.Cost)
	}
	if haploString(result.Haplotype1) != "11" || haploString(result.Haplotype2) != "11" {
		t.Errorf("expected 11/11, got %v/%v", haploString(result.Haplotype1), haploString(result.Haplotype2))
	}
}

func TestAllHeterozygous(t *testing.T) {
	columns := []wif.Column{
		{entry(0, wif.Major, 1), entry(1, wif.Minor, 1)},
		{entry(0, wif.Major, 1), entry(1, wif.Minor, 1)},
	}
	result, err := solveColumns(t, columns, Options{ErrorRate: 0.05, Alpha: 0.01, AllHeterozygous: true})
	if err != nil {
		t.Fatal(err)
	}
	if result.Cost != 0 {
		t.Error("expected cost 0, got", result.Cost)
	}
	for j := range result.Haplotype1 {
		if result.Haplotype1[j] == result.Haplotype2[j] {
			t.Errorf("column %v must be heterozygous", j+1)
		}
	}
}

func TestAllHeterozygousInfeasible(t *testing.T) {
	// A single-read column cannot be corrected into a heterozygous
	// column, whatever the mask.
	columns := []wif.Column{
		{entry(0, wif.Minor, 10)},
	}
	_, err := solveColumns(t, columns, Options{ErrorRate: 0.05, Alpha: 0.01, AllHeterozygous: true})
	var infeasible *InfeasibleError
	if !errors.As(err, &infeasible) {
		t.Fatal("expected an InfeasibleError, got", err)
	}
	if infeasible.Column != 1 {
		t.Error("wrong failing column", infeasible.Column)
	}
	if infeasible.Coverage != 1 {
		t.Error("wrong coverage", infeasible.Coverage)
	}
}

func TestHomozygousWinsTies(t *testing.T) {
	// A column that can be explained as homozygous is committed
	// before any heterozygous mask of the same cost is examined. The
	// major read has weight 0, so correcting it to all-minor costs as
	// much as leaving the column heterozygous.
	columns := []wif.Column{
		{entry(0, wif.Major, 0), entry(1, wif.Minor, 1)},
	}
	result, err := solveColumns(t, columns, Options{ErrorRate: 0.05, Alpha: 0.01})
	if err != nil {
		t.Fatal(err)
	}
	if result.Cost != 0 {
		t.Error("expected cost 0, got", result.Cost)
	}
	if haploString(result.Haplotype1) != "1" || haploString(result.Haplotype2) != "1" {
		t.Error("homozygous explanation expected")
	}
}

func TestWeightedCorrectionChoice(t *testing.T) {
	// Three reads agree except read 1 at the second column. The
	// cheapest explanation corrects read 1 once, there, at weight 2.
	columns := []wif.Column{
		{entry(0, wif.Minor, 5), entry(1, wif.Minor, 5), entry(2, wif.Major, 5)},
		{entry(0, wif.Minor, 5), entry(1, wif.Major, 2), entry(2, wif.Major, 5)},
	}
	result, err := solveColumns(t, columns, Options{ErrorRate: 0.05, Alpha: 0.01})
	if err != nil {
		t.Fatal(err)
	}
	if result.Cost != 2 {
		t.Error("expected cost 2, got", result.Cost)
	}
}

func TestBalancedSolve(t *testing.T) {
	columns := []wif.Column{
		{entry(0, wif.Major, 1), entry(1, wif.Minor, 1), entry(2, wif.Major, 1), entry(3, wif.Minor, 1)},
		{entry(0, wif.Major, 1), entry(1, wif.Minor, 1), entry(2, wif.Major, 1), entry(3, wif.Minor, 1)},
	}
	result, err := solveColumns(t, columns, Options{
		ErrorRate:       0.05,
		Alpha:           0.01,
		AllHeterozygous: true,
		Balanced:        true,
		BalanceRatio:    0.5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Cost != 0 {
		t.Error("expected cost 0, got", result.Cost)
	}
	for j := range result.Haplotype1 {
		if result.Haplotype1[j] == result.Haplotype2[j] {
			t.Errorf("column %v must be heterozygous", j+1)
		}
	}
}

func TestZeroErrorRateIdempotence(t *testing.T) {
	// With error rate 0 no corrections are permitted, and consistent
	// reads are reproduced at cost 0.
	columns := []wif.Column{
		{entry(0, wif.Major, 1), entry(1, wif.Minor, 1)},
		{entry(0, wif.Major, 1), entry(1, wif.Minor, 1)},
	}
	result, err := solveColumns(t, columns, Options{ErrorRate: 0, Alpha: 0.01})
	if err != nil {
		t.Fatal(err)
	}
	if result.Cost != 0 {
		t.Error("expected cost 0, got", result.Cost)
	}
}

func TestComputeParams(t *testing.T) {
	columns := []wif.Column{
		{entry(0, wif.Major, 1), entry(1, wif.Minor, 1)},
		{entry(0, wif.Major, 1), entry(1, wif.Minor, 1)},
	}
	ks := NewKTable(0.05, 0.01)
	params, err := ComputeParams(&sliceSource{columns: columns}, ks)
	if err != nil {
		t.Fatal(err)
	}
	if params.NumCols != 3 {
		t.Error("NumCols must count the leading empty column, got", params.NumCols)
	}
	if params.MaxCov != 2 {
		t.Error("wrong MaxCov", params.MaxCov)
	}
	if params.MaxL != 2 {
		t.Error("wrong MaxL", params.MaxL)
	}
	if params.MaxK != ks.K(2) {
		t.Error("wrong MaxK", params.MaxK)
	}
	// Column 1 shares both reads with column 2 and is bounded by
	// C(2, k(2)) fingerprints.
	if params.SumSuccessiveL[1] != cumulativeBinomial(2, ks.K(2)) {
		t.Error("wrong SumSuccessiveL", params.SumSuccessiveL)
	}
	if len(params.Scheme[1]) != 2 || params.Scheme[1][1] != cumulativeBinomial(2, ks.K(2)) {
		t.Error("wrong scheme row", params.Scheme[1])
	}
}
