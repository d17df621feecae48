// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

// Package simd provides the SSE and AVX2 byte intrinsics used by the
// escape scanning kernels, emulated in portable Go
package simd

import (
	"fmt"
)

// Vec8x16 is an XMM register viewed as 16 bytes.
type Vec8x16 [16]uint8

// Vec8x32 is a YMM register viewed as 32 bytes.
type Vec8x32 [32]uint8

// String prints the register with the highest
// byte first, as a debugger would.
func (v Vec8x16) String() string {
	return hexdump(v[:])
}

func (v Vec8x32) String() string {
	return hexdump(v[:])
}

func hexdump(b []byte) string {
	out := make([]byte, 0, 2*len(b)+len(b)/8+1)
	out = append(out, '{')
	for i := len(b) - 1; i >= 0; i-- {
		out = fmt.Appendf(out, "%02x", b[i])
		if i > 0 && i%8 == 0 {
			out = append(out, ' ')
		}
	}
	return string(append(out, '}'))
}
