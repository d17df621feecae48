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
	"errors"
	"fmt"

	"github.com/SnellerInc/vescape/escape"
)

// ErrEncoding is returned for a range encoding
// that no kernel can interpret.
var ErrEncoding = errors.New("scan: malformed range encoding")

// Decode interprets the flat encoding produced by
// escape.Encode for the three-group range kernels.
// count is the number of escape pairs.
//
// A trailing escape.Sentinel turns every preceding
// byte into a singleton, except that a four byte
// body (which cannot be four singletons within the
// budget) is one range and two singletons. Without
// a sentinel, bytes are consumed two at a time as
// ranges and a leftover byte is a singleton.
//
// Since 128 is also a valid escape byte, a trailing
// 128 of a short encoding is only a sentinel when
// count says every group is a single byte. Callers
// that emit an encoding should check that it decodes
// back to the groups it was built from.
func Decode(enc []byte, count int) (escape.Groups, error) {
	n := len(enc)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty", ErrEncoding)
	}
	if n > 2*escape.DefaultBudget {
		return nil, fmt.Errorf("%w: %d bytes", ErrEncoding, n)
	}
	if count < 1 || count > escape.MaxPairs {
		return nil, fmt.Errorf("%w: pair count %d", ErrEncoding, count)
	}
	body := enc
	sentinel := enc[n-1] == escape.Sentinel && (n == 5 || (n < 5 && count == n-1))
	if sentinel {
		body = enc[:n-1]
	}
	// every group covers at least one pair
	// and every range at least two
	if count < len(body) {
		return nil, fmt.Errorf("%w: %d bytes for %d pairs", ErrEncoding, len(body), count)
	}

	var out escape.Groups
	switch {
	case sentinel && len(body) == 4:
		if body[0] > body[1] {
			return nil, fmt.Errorf("%w: range [%d, %d]", ErrEncoding, body[0], body[1])
		}
		out = escape.Groups{
			escape.MakeRange(body[0], body[1]),
			escape.MakeSingleton(body[2]),
			escape.MakeSingleton(body[3]),
		}
	case sentinel:
		if len(body) > escape.DefaultBudget {
			return nil, fmt.Errorf("%w: %d singletons", ErrEncoding, len(body))
		}
		for _, c := range body {
			out = append(out, escape.MakeSingleton(c))
		}
	default:
		for len(body) >= 2 {
			if body[0] > body[1] {
				return nil, fmt.Errorf("%w: range [%d, %d]", ErrEncoding, body[0], body[1])
			}
			out = append(out, escape.MakeRange(body[0], body[1]))
			body = body[2:]
		}
		if len(body) == 1 {
			out = append(out, escape.MakeSingleton(body[0]))
		}
	}
	return out, nil
}
