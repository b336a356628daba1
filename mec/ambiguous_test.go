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

	"github.com/exascience/hapcol/wif"
)

func TestAddXsCleanMapping(t *testing.T) {
	columns := []wif.Column{
		{entry(0, wif.Major, 1), entry(1, wif.Minor, 1)},
		{entry(0, wif.Major, 1), entry(1, wif.Minor, 1)},
	}
	out1, out2, err := AddXs(&sliceSource{columns: columns},
		[]bool{true, true}, []bool{false, false}, true)
	if err != nil {
		t.Fatal(err)
	}
	if string(out1) != "11" {
		t.Errorf("expected 11, got %s", out1)
	}
	if string(out2) != "00" {
		t.Errorf("expected 00, got %s", out2)
	}
}

func TestAddXsUncoveredHaplotype(t *testing.T) {
	// The single read maps to haplotype 1; haplotype 2 keeps its
	// computed allele rather than being marked ambiguous.
	columns := []wif.Column{
		{entry(0, wif.Minor, 10)},
	}
	out1, out2, err := AddXs(&sliceSource{columns: columns},
		[]bool{true}, []bool{true}, false)
	if err != nil {
		t.Fatal(err)
	}
	if string(out1) != "1" || string(out2) != "1" {
		t.Errorf("expected 1/1, got %s/%s", out1, out2)
	}
}

func TestAddXsTies(t *testing.T) {
	// Both reads are equally distant from both haplotypes and map to
	// haplotype 1, where their alleles tie at every column.
	columns := []wif.Column{
		{entry(0, wif.Minor, 1), entry(1, wif.Major, 1)},
		{entry(0, wif.Major, 1), entry(1, wif.Minor, 1)},
	}
	out1, out2, err := AddXs(&sliceSource{columns: columns},
		[]bool{true, true}, []bool{false, false}, true)
	if err != nil {
		t.Fatal(err)
	}
	if string(out1) != "XX" {
		t.Errorf("expected XX, got %s", out1)
	}
	if string(out2) != "00" {
		t.Errorf("expected 00, got %s", out2)
	}
}

func TestAddXsWeightedMapping(t *testing.T) {
	// The heavier column dominates the mapping choice.
	columns := []wif.Column{
		{entry(0, wif.Minor, 10)},
		{entry(0, wif.Major, 1)},
	}
	out1, out2, err := AddXs(&sliceSource{columns: columns},
		[]bool{true, true}, []bool{false, false}, false)
	if err != nil {
		t.Fatal(err)
	}
	// Read 0 is closer to haplotype 1 (distance 1 vs 10).
	if string(out1) != "11" {
		t.Errorf("expected 11, got %s", out1)
	}
	if string(out2) != "00" {
		t.Errorf("expected 00, got %s", out2)
	}
}
