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

package escape

import (
	"fmt"
	"strings"
)

// Sentinel terminates an encoding whose bytes
// must all be read as singletons.
const Sentinel = 128

// Kind distinguishes the two comparison primitives.
type Kind uint8

const (
	// Singleton matches exactly one byte.
	Singleton Kind = iota
	// Range matches every byte in [Lo, Hi].
	Range
)

func (k Kind) String() string {
	switch k {
	case Singleton:
		return "singleton"
	case Range:
		return "range"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Group is one comparison a vector kernel performs
// per block. For singletons Lo == Hi.
type Group struct {
	Kind   Kind
	Lo, Hi byte
}

// MakeRange returns the group matching [lo, hi].
func MakeRange(lo, hi byte) Group { return Group{Kind: Range, Lo: lo, Hi: hi} }

// MakeSingleton returns the group matching c.
func MakeSingleton(c byte) Group { return Group{Kind: Singleton, Lo: c, Hi: c} }

// Contains returns whether c satisfies the comparison.
func (g Group) Contains(c byte) bool {
	if g.Kind == Singleton {
		return c == g.Lo
	}
	return c >= g.Lo && c <= g.Hi
}

func (g Group) String() string {
	if g.Kind == Singleton {
		return fmt.Sprintf("%d", g.Lo)
	}
	return fmt.Sprintf("[%d, %d]", g.Lo, g.Hi)
}

// Groups is an ordered list of comparison groups.
type Groups []Group

// Ranges returns the number of Range groups.
func (gs Groups) Ranges() int {
	n := 0
	for i := range gs {
		if gs[i].Kind == Range {
			n++
		}
	}
	return n
}

// Singletons returns the number of Singleton groups.
func (gs Groups) Singletons() int {
	return len(gs) - gs.Ranges()
}

// Contains returns whether any group matches c.
func (gs Groups) Contains(c byte) bool {
	for i := range gs {
		if gs[i].Contains(c) {
			return true
		}
	}
	return false
}

// Canonical returns whether every Range precedes
// every Singleton.
func (gs Groups) Canonical() bool {
	seen := false
	for i := range gs {
		if gs[i].Kind == Singleton {
			seen = true
		} else if seen {
			return false
		}
	}
	return true
}

// NeedsSentinel returns whether the flat encoding
// of gs must end with Sentinel: a decoder can only
// infer a single trailing singleton from the length,
// and only when at least one range is present.
func (gs Groups) NeedsSentinel() bool {
	return gs.Ranges() == 0 || gs.Singletons() >= 2
}

// Encode returns the flat encoding of gs.
func (gs Groups) Encode() []byte {
	return gs.AppendEncoding(make([]byte, 0, 2*len(gs)+1))
}

// AppendEncoding appends the flat encoding of gs
// to dst. gs must be canonical.
func (gs Groups) AppendEncoding(dst []byte) []byte {
	if !gs.Canonical() {
		panic("escape: encoding non-canonical groups " + gs.String())
	}
	for i := range gs {
		if gs[i].Kind == Range {
			dst = append(dst, gs[i].Lo, gs[i].Hi)
		} else {
			dst = append(dst, gs[i].Lo)
		}
	}
	if gs.NeedsSentinel() {
		dst = append(dst, Sentinel)
	}
	return dst
}

func (gs Groups) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i := range gs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(gs[i].String())
	}
	sb.WriteByte('}')
	return sb.String()
}
