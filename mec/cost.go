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
	"strconv"
)

// Cost is a correction weight. Additions that would overflow saturate
// at Infinity, which is absorbing.
type Cost uint32

// Infinity is the maximum Cost.
const Infinity Cost = ^Cost(0)

// Add returns c + d, saturating at Infinity.
func (c Cost) Add(d Cost) Cost {
	if c > Infinity-d {
		return Infinity
	}
	return c + d
}

// String renders the cost, with Infinity as +INF.
func (c Cost) String() string {
	if c == Infinity {
		return "+INF"
	}
	return strconv.FormatUint(uint64(c), 10)
}
