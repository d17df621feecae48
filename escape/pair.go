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
	"unicode/utf8"
)

var (
	// ErrEmpty is returned when a pair list has no entries.
	ErrEmpty = errors.New("escape: empty pair list")
	// ErrUnsorted is returned by Check when pairs are
	// not in ascending byte order or contain duplicates.
	ErrUnsorted = errors.New("escape: pairs not sorted or not unique")
	// ErrInvalidQuote is returned when a replacement
	// is not valid UTF-8 text.
	ErrInvalidQuote = errors.New("escape: replacement is not valid UTF-8")
	// ErrTooManyPairs is returned when more than
	// 256 pairs are supplied.
	ErrTooManyPairs = errors.New("escape: more than 256 pairs")
)

// MaxPairs is the largest number of distinct escape bytes.
const MaxPairs = 256

// Pair associates an escaped byte with its replacement.
type Pair struct {
	Char  byte
	Quote string
}

func (p Pair) String() string {
	return fmt.Sprintf("%#02x->%q", p.Char, p.Quote)
}

// Check verifies the preconditions every consumer
// in this package relies on: pairs is non-empty,
// holds at most MaxPairs entries, is sorted by Char
// with no duplicates, and every Quote is valid text.
//
// BuildTable and Compact trust their input and only
// reject empty lists; producers should call Check.
func Check(pairs []Pair) error {
	if len(pairs) == 0 {
		return ErrEmpty
	}
	if len(pairs) > MaxPairs {
		return ErrTooManyPairs
	}
	for i := range pairs {
		if i > 0 && pairs[i-1].Char >= pairs[i].Char {
			return fmt.Errorf("%w: %s follows %s", ErrUnsorted, pairs[i], pairs[i-1])
		}
		if !utf8.ValidString(pairs[i].Quote) {
			return fmt.Errorf("%w: byte %#02x", ErrInvalidQuote, pairs[i].Char)
		}
	}
	return nil
}

// Chars returns the escaped bytes of pairs in order.
func Chars(pairs []Pair) []byte {
	out := make([]byte, len(pairs))
	for i := range pairs {
		out[i] = pairs[i].Char
	}
	return out
}
