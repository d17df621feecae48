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
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
)

// DefaultBudget is the number of comparison groups
// the SSE and AVX2 range kernels test per block.
const DefaultBudget = 3

// ErrBudget is returned for a group budget below one.
var ErrBudget = errors.New("escape: group budget must be at least 1")

// gap is a break point between two runs: pairs[pos]
// and pairs[pos+1] differ by width > 1.
type gap struct {
	pos, width int
}

// Compact describes the bytes of pairs using at
// most budget comparison groups.
//
// Contiguous runs of bytes become ranges and runs of
// a single byte become singletons. When there are
// more runs than budget, only the budget-1 widest
// break points are kept (ties go to the leftmost)
// and every run between them is folded into one
// range, which may cover bytes that are not in pairs.
// Bytes in pairs are never left uncovered.
//
// The result lists ranges first, then singletons,
// each in ascending byte order.
func Compact(pairs []Pair, budget int) (Groups, error) {
	if len(pairs) == 0 {
		return nil, ErrEmpty
	}
	if budget < 1 {
		return nil, ErrBudget
	}
	breaks := gaps(pairs)
	if len(breaks) >= budget {
		slices.SortStableFunc(breaks, func(a, b gap) int {
			return b.width - a.width
		})
		breaks = breaks[:budget-1]
		slices.SortFunc(breaks, func(a, b gap) int {
			return a.pos - b.pos
		})
	}

	ranges := make(Groups, 0, budget)
	var singles Groups
	start := 0
	emit := func(end int) {
		if start == end {
			singles = append(singles, MakeSingleton(pairs[start].Char))
		} else {
			ranges = append(ranges, MakeRange(pairs[start].Char, pairs[end].Char))
		}
	}
	for _, b := range breaks {
		emit(b.pos)
		start = b.pos + 1
	}
	emit(len(pairs) - 1)

	out := append(ranges, singles...)
	if len(out) > budget {
		panic(fmt.Sprintf("escape: %d groups exceed budget %d for %v", len(out), budget, pairs))
	}
	return out, nil
}

// gaps returns the break points of pairs in
// position order.
func gaps(pairs []Pair) []gap {
	var out []gap
	for i := 0; i < len(pairs)-1; i++ {
		w := int(pairs[i+1].Char) - int(pairs[i].Char)
		if w > 1 {
			out = append(out, gap{pos: i, width: w})
		}
	}
	return out
}

// Encode returns the flat encoding of pairs for
// the DefaultBudget kernels.
func Encode(pairs []Pair) ([]byte, error) {
	gs, err := Compact(pairs, DefaultBudget)
	if err != nil {
		return nil, err
	}
	return gs.Encode(), nil
}

// Verify checks that every byte in pairs is matched
// by some group in gs.
func Verify(pairs []Pair, gs Groups) error {
	for i := range pairs {
		if !gs.Contains(pairs[i].Char) {
			return fmt.Errorf("escape: byte %#02x not covered by %s", pairs[i].Char, gs)
		}
	}
	return nil
}
