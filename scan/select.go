// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package scan

import (
	"fmt"

	"github.com/SnellerInc/vescape/escape"
)

// Flags are the capability flags an escape set
// is generated with.
type Flags struct {
	// SIMD enables vector kernels at all.
	SIMD bool `json:"simd"`
	// Ranges selects the range kernels over the
	// equality kernel.
	Ranges bool `json:"ranges"`
	// AVX additionally allows the 256-bit
	// range kernel.
	AVX bool `json:"avx"`
}

func (f Flags) String() string {
	return fmt.Sprintf("simd=%v ranges=%v avx=%v", f.SIMD, f.Ranges, f.AVX)
}

// Select returns the kernel bound to f at level.
// enc is the flat range encoding (used when
// f.Ranges is set) and chars the equality set
// (used otherwise); t is the exact table.
//
// The chosen kernel is checked against t so that
// it cannot skip a byte that needs escaping.
func Select(f Flags, level Level, t *escape.Table, enc, chars []byte) (Kernel, error) {
	if !f.SIMD || level == LevelNone {
		return Scalar(t), nil
	}
	count := len(t.Quotes)
	var k Kernel
	var covered func(c byte) bool
	if f.Ranges {
		gs, err := Decode(enc, count)
		if err != nil {
			return nil, err
		}
		if f.AVX && level >= LevelAVX2 {
			k = AVX2Ranges(gs)
		} else {
			k = SSERanges(gs)
		}
		covered = gs.Contains
	} else {
		if len(chars) < count {
			return nil, fmt.Errorf("scan: %d equality bytes for %d pairs", len(chars), count)
		}
		eq, err := SSEEqual(chars[:count])
		if err != nil {
			return nil, err
		}
		k = eq
		covered = func(c byte) bool {
			for _, x := range chars[:count] {
				if x == c {
					return true
				}
			}
			return false
		}
	}
	for c := 0; c < 256; c++ {
		if t.Contains(byte(c)) && !covered(byte(c)) {
			return nil, fmt.Errorf("scan: kernel %s misses byte %#02x", k.Name(), c)
		}
	}
	return k, nil
}
