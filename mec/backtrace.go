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

// reconstruct walks the backtrace tables from the last column to the
// first and produces the two haplotypes. Column 0 is the synthetic
// empty column, so column j writes the haplotypes at position j-1.
func (s *Solver) reconstruct() ([]bool, []bool) {
	col := len(s.backtrace) - 1
	haplotype1 := make([]bool, col)
	haplotype2 := make([]bool, col)

	for col > 0 {
		// Trailing homozygous columns take their recorded kind.
		for s.isHomozygous[col] {
			if s.homoZero[col] {
				haplotype1[col-1] = false
				haplotype2[col-1] = false
			} else {
				haplotype1[col-1] = true
				haplotype2[col-1] = true
			}
			col--
		}

		back := s.bestHet[col]
		for flag := col > 0; flag; {
			if back.Swap {
				haplotype1[col-1] = false
				haplotype2[col-1] = true
			} else {
				haplotype1[col-1] = true
				haplotype2[col-1] = false
			}

			// The jump skips the homozygous run absorbed into the
			// heterozygous transition; fill it from the recorded
			// column kinds.
			for i := 0; i < back.Jump-1; i++ {
				col--
				if s.homoZero[col] {
					haplotype1[col-1] = false
					haplotype2[col-1] = false
				} else {
					haplotype1[col-1] = true
					haplotype2[col-1] = true
				}
			}

			col--

			if back.NewBlock || col == 0 {
				flag = false
			} else {
				back = s.backtrace[col][back.Jump][back.Index]
			}
		}
	}

	return haplotype1, haplotype2
}
