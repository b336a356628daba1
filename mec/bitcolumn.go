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
	"math/bits"
	"strings"
)

// MaxCoverage is the maximum number of reads per column the solver
// supports; MaxCorrections bounds k.
const (
	MaxCoverage    = 32
	MaxCorrections = 31
)

// BitColumn is a fixed-width bit vector over the active entries of a
// column. Bit i corresponds to the i-th active entry.
type BitColumn uint32

// Test returns the bit at position i.
func (b BitColumn) Test(i int) bool {
	return b&(1<<uint(i)) != 0
}

// Set sets the bit at position i to v.
func (b *BitColumn) Set(i int, v bool) {
	if v {
		*b |= 1 << uint(i)
	} else {
		*b &^= 1 << uint(i)
	}
}

// Count returns the number of set bits.
func (b BitColumn) Count() int {
	return bits.OnesCount32(uint32(b))
}

// Any returns true when at least one bit is set.
func (b BitColumn) Any() bool {
	return b != 0
}

// onesColumn returns a BitColumn with the lowest n bits set.
func onesColumn(n int) BitColumn {
	if n == 0 {
		return 0
	}
	return BitColumn(^uint32(0) >> uint(32-n))
}

// Complement flips the lowest length bits.
func (b BitColumn) Complement(length int) BitColumn {
	return b ^ onesColumn(length)
}

// String renders the lowest length bits, lowest position first.
func (b BitColumn) String(length int) string {
	var sb strings.Builder
	for i := 0; i < length; i++ {
		if b.Test(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
