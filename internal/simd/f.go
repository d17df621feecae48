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

package simd

// SSE (128-bit) forms

// MOVDQU loads 16 bytes from p, which must hold at least 16 bytes.
func MOVDQU(p []byte) Vec8x16 {
	var r Vec8x16
	copy(r[:], p[:16])
	return r
}

// Splat8x16 is the PSHUFB-with-zero-index broadcast idiom.
func Splat8x16(c uint8) Vec8x16 {
	var r Vec8x16
	for i := range r {
		r[i] = c
	}
	return r
}

func PCMPEQB(a, b, r *Vec8x16) {
	for i := range *r {
		if a[i] == b[i] {
			r[i] = 0xff
		} else {
			r[i] = 0
		}
	}
}

func PMINUB(a, b, r *Vec8x16) {
	for i := range *r {
		r[i] = min(a[i], b[i])
	}
}

func PMAXUB(a, b, r *Vec8x16) {
	for i := range *r {
		r[i] = max(a[i], b[i])
	}
}

func PAND(a, b, r *Vec8x16) {
	for i := range *r {
		r[i] = a[i] & b[i]
	}
}

func POR(a, b, r *Vec8x16) {
	for i := range *r {
		r[i] = a[i] | b[i]
	}
}

// PMOVMSKB collects the top bit of every byte.
func PMOVMSKB(a *Vec8x16) uint32 {
	var m uint32
	for i := range a {
		m |= uint32(a[i]>>7) << i
	}
	return m
}

// AVX2 (256-bit) forms

// VMOVDQU loads 32 bytes from p, which must hold at least 32 bytes.
func VMOVDQU(p []byte) Vec8x32 {
	var r Vec8x32
	copy(r[:], p[:32])
	return r
}

func VPBROADCASTB(c uint8) Vec8x32 {
	var r Vec8x32
	for i := range r {
		r[i] = c
	}
	return r
}

func VPCMPEQB(a, b, r *Vec8x32) {
	for i := range *r {
		if a[i] == b[i] {
			r[i] = 0xff
		} else {
			r[i] = 0
		}
	}
}

func VPMINUB(a, b, r *Vec8x32) {
	for i := range *r {
		r[i] = min(a[i], b[i])
	}
}

func VPMAXUB(a, b, r *Vec8x32) {
	for i := range *r {
		r[i] = max(a[i], b[i])
	}
}

func VPAND(a, b, r *Vec8x32) {
	for i := range *r {
		r[i] = a[i] & b[i]
	}
}

func VPOR(a, b, r *Vec8x32) {
	for i := range *r {
		r[i] = a[i] | b[i]
	}
}

func VPMOVMSKB(a *Vec8x32) uint32 {
	var m uint32
	for i := range a {
		m |= uint32(a[i]>>7) << i
	}
	return m
}
