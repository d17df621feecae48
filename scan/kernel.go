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
	"math/bits"

	"github.com/SnellerInc/vescape/escape"
	"github.com/SnellerInc/vescape/internal/simd"
)

// Kernel finds candidate escape bytes.
//
// Candidates may include bytes that do not need
// escaping, so callers confirm every candidate
// against the exact escape.Table. A kernel never
// skips a byte that the table would escape.
type Kernel interface {
	// Index returns the position of the first
	// candidate in src, or -1 if there is none.
	Index(src []byte) int
	// Name identifies the variant.
	Name() string
}

// MaxEqual is the number of bytes the equality
// kernel compares against: one XMM register.
const MaxEqual = 16

type scalar struct {
	t *escape.Table
}

// Scalar returns the exact table kernel.
func Scalar(t *escape.Table) Kernel { return &scalar{t: t} }

func (s *scalar) Name() string { return "scalar" }

func (s *scalar) Index(src []byte) int {
	for i := range src {
		if s.t.Contains(src[i]) {
			return i
		}
	}
	return -1
}

type bounds16 struct {
	lo, hi simd.Vec8x16
}

type sseRanges struct {
	groups  escape.Groups
	ranges  []bounds16
	singles []simd.Vec8x16
}

// SSERanges returns the 16-byte range kernel for gs.
func SSERanges(gs escape.Groups) Kernel {
	k := &sseRanges{groups: gs}
	for _, g := range gs {
		if g.Kind == escape.Range {
			k.ranges = append(k.ranges, bounds16{lo: simd.Splat8x16(g.Lo), hi: simd.Splat8x16(g.Hi)})
		} else {
			k.singles = append(k.singles, simd.Splat8x16(g.Lo))
		}
	}
	return k
}

func (k *sseRanges) Name() string { return "sse-ranges" }

func (k *sseRanges) mask(x *simd.Vec8x16) uint32 {
	var acc, t, m0, m1 simd.Vec8x16
	for j := range k.ranges {
		r := &k.ranges[j]
		simd.PMAXUB(x, &r.lo, &t)
		simd.PCMPEQB(&t, x, &m0)
		simd.PMINUB(x, &r.hi, &t)
		simd.PCMPEQB(&t, x, &m1)
		simd.PAND(&m0, &m1, &m0)
		simd.POR(&acc, &m0, &acc)
	}
	for j := range k.singles {
		simd.PCMPEQB(x, &k.singles[j], &m0)
		simd.POR(&acc, &m0, &acc)
	}
	return simd.PMOVMSKB(&acc)
}

func (k *sseRanges) Index(src []byte) int {
	i := 0
	for ; i+16 <= len(src); i += 16 {
		x := simd.MOVDQU(src[i:])
		if m := k.mask(&x); m != 0 {
			return i + bits.TrailingZeros32(m)
		}
	}
	return tail(k.groups, src, i)
}

type bounds32 struct {
	lo, hi simd.Vec8x32
}

type avxRanges struct {
	half    *sseRanges
	ranges  []bounds32
	singles []simd.Vec8x32
}

// AVX2Ranges returns the 32-byte range kernel for gs.
func AVX2Ranges(gs escape.Groups) Kernel {
	k := &avxRanges{half: SSERanges(gs).(*sseRanges)}
	for _, g := range gs {
		if g.Kind == escape.Range {
			k.ranges = append(k.ranges, bounds32{lo: simd.VPBROADCASTB(g.Lo), hi: simd.VPBROADCASTB(g.Hi)})
		} else {
			k.singles = append(k.singles, simd.VPBROADCASTB(g.Lo))
		}
	}
	return k
}

func (k *avxRanges) Name() string { return "avx2-ranges" }

func (k *avxRanges) mask(x *simd.Vec8x32) uint32 {
	var acc, t, m0, m1 simd.Vec8x32
	for j := range k.ranges {
		r := &k.ranges[j]
		simd.VPMAXUB(x, &r.lo, &t)
		simd.VPCMPEQB(&t, x, &m0)
		simd.VPMINUB(x, &r.hi, &t)
		simd.VPCMPEQB(&t, x, &m1)
		simd.VPAND(&m0, &m1, &m0)
		simd.VPOR(&acc, &m0, &acc)
	}
	for j := range k.singles {
		simd.VPCMPEQB(x, &k.singles[j], &m0)
		simd.VPOR(&acc, &m0, &acc)
	}
	return simd.VPMOVMSKB(&acc)
}

func (k *avxRanges) Index(src []byte) int {
	i := 0
	for ; i+32 <= len(src); i += 32 {
		x := simd.VMOVDQU(src[i:])
		if m := k.mask(&x); m != 0 {
			return i + bits.TrailingZeros32(m)
		}
	}
	// the 128-bit kernel handles a trailing
	// half block and the scalar tail
	if n := k.half.Index(src[i:]); n >= 0 {
		return i + n
	}
	return -1
}

type sseEqual struct {
	chars  []byte
	needle []simd.Vec8x16
}

// SSEEqual returns the equality kernel matching
// any of chars, which holds at most MaxEqual bytes.
func SSEEqual(chars []byte) (Kernel, error) {
	if len(chars) == 0 || len(chars) > MaxEqual {
		return nil, fmt.Errorf("scan: equality kernel needs 1 to %d bytes, have %d", MaxEqual, len(chars))
	}
	k := &sseEqual{chars: chars}
	for _, c := range chars {
		k.needle = append(k.needle, simd.Splat8x16(c))
	}
	return k, nil
}

func (k *sseEqual) Name() string { return "sse-equal" }

func (k *sseEqual) Index(src []byte) int {
	i := 0
	for ; i+16 <= len(src); i += 16 {
		x := simd.MOVDQU(src[i:])
		var acc, m simd.Vec8x16
		for j := range k.needle {
			simd.PCMPEQB(&x, &k.needle[j], &m)
			simd.POR(&acc, &m, &acc)
		}
		if msk := simd.PMOVMSKB(&acc); msk != 0 {
			return i + bits.TrailingZeros32(msk)
		}
	}
	for ; i < len(src); i++ {
		for _, c := range k.chars {
			if src[i] == c {
				return i
			}
		}
	}
	return -1
}

func tail(gs escape.Groups, src []byte, i int) int {
	for ; i < len(src); i++ {
		if gs.Contains(src[i]) {
			return i
		}
	}
	return -1
}
