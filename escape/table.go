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
	"unicode/utf8"

	"golang.org/x/exp/slices"
)

// Table is the exact byte classification for
// a set of escape pairs.
//
// Index[c] is the position of c's replacement in
// Quotes, or None() if c passes through unchanged.
type Table struct {
	Index  [256]uint8
	Quotes []string
}

// BuildTable constructs the classification table
// for pairs, which must be sorted by Char with no
// duplicates.
func BuildTable(pairs []Pair) (*Table, error) {
	if len(pairs) == 0 {
		return nil, ErrEmpty
	}
	if len(pairs) > MaxPairs {
		return nil, ErrTooManyPairs
	}
	t := &Table{Quotes: make([]string, len(pairs))}
	for i := range pairs {
		if !utf8.ValidString(pairs[i].Quote) {
			return nil, fmt.Errorf("%w: byte %#02x", ErrInvalidQuote, pairs[i].Char)
		}
		t.Quotes[i] = pairs[i].Quote
	}
	none := len(pairs)
	for c := 0; c < 256; c++ {
		n, ok := slices.BinarySearchFunc(pairs, byte(c), func(p Pair, c byte) int {
			return int(p.Char) - int(c)
		})
		if !ok {
			// with 256 pairs every byte matches,
			// so none always fits in a byte here
			n = none
		}
		t.Index[c] = uint8(n)
	}
	return t, nil
}

// TableFrom rebuilds a Table from an emitted index
// table and replacement list, checking that every
// entry is either a valid index or the "no match"
// value len(quotes).
func TableFrom(index *[256]uint8, quotes []string) (*Table, error) {
	if len(quotes) == 0 {
		return nil, ErrEmpty
	}
	if len(quotes) > MaxPairs {
		return nil, ErrTooManyPairs
	}
	for c, n := range index {
		if int(n) > len(quotes) {
			return nil, fmt.Errorf("escape: table entry %d for byte %#02x exceeds %d quotes", n, c, len(quotes))
		}
	}
	for i := range quotes {
		if !utf8.ValidString(quotes[i]) {
			return nil, fmt.Errorf("%w: quote %d", ErrInvalidQuote, i)
		}
	}
	return &Table{Index: *index, Quotes: slices.Clone(quotes)}, nil
}

// None returns the "no match" value, which is one
// past the last valid replacement index.
func (t *Table) None() int { return len(t.Quotes) }

// Lookup returns the replacement index for c.
func (t *Table) Lookup(c byte) (int, bool) {
	n := int(t.Index[c])
	if n >= len(t.Quotes) {
		return 0, false
	}
	return n, true
}

// Contains returns whether c has a replacement.
func (t *Table) Contains(c byte) bool {
	return int(t.Index[c]) < len(t.Quotes)
}

// Quote returns the replacement for c, if any.
func (t *Table) Quote(c byte) (string, bool) {
	n, ok := t.Lookup(c)
	if !ok {
		return "", false
	}
	return t.Quotes[n], true
}

// Pairs reconstructs the sorted pair list
// the table was built from.
func (t *Table) Pairs() []Pair {
	out := make([]Pair, 0, len(t.Quotes))
	for c := 0; c < 256; c++ {
		if n, ok := t.Lookup(byte(c)); ok {
			out = append(out, Pair{Char: byte(c), Quote: t.Quotes[n]})
		}
	}
	return out
}
