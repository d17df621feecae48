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
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/SnellerInc/vescape/escape"
)

func pairsOf(chars ...byte) []escape.Pair {
	out := make([]escape.Pair, len(chars))
	for i := range chars {
		out[i] = escape.Pair{Char: chars[i], Quote: "q"}
	}
	return out
}

func TestDecode(t *testing.T) {
	R, S := escape.MakeRange, escape.MakeSingleton
	testcases := []struct {
		enc   []byte
		count int
		want  escape.Groups
	}{
		{[]byte{0, 128}, 1, escape.Groups{S(0)}},
		{[]byte{0, 2, 128}, 2, escape.Groups{S(0), S(2)}},
		{[]byte{0, 2, 4, 128}, 3, escape.Groups{S(0), S(2), S(4)}},
		{[]byte{0, 1}, 2, escape.Groups{R(0, 1)}},
		{[]byte{0, 1, 3}, 3, escape.Groups{R(0, 1), S(3)}},
		{[]byte{2, 3, 0}, 3, escape.Groups{R(2, 3), S(0)}},
		{[]byte{0, 1, 3, 4}, 4, escape.Groups{R(0, 1), R(3, 4)}},
		{[]byte{0, 1, 4, 6, 128}, 4, escape.Groups{R(0, 1), S(4), S(6)}},
		{[]byte{34, 39, 60, 62, 47}, 6, escape.Groups{R(34, 39), R(60, 62), S(47)}},
		{[]byte{0, 9, 50, 64, 126, 127}, 16, escape.Groups{R(0, 9), R(50, 64), R(126, 127)}},
		// 128 as data rather than sentinel
		{[]byte{127, 128}, 2, escape.Groups{R(127, 128)}},
		{[]byte{127, 128}, 1, escape.Groups{S(127)}},
		{[]byte{0, 1, 128}, 3, escape.Groups{R(0, 1), S(128)}},
		{[]byte{5, 128, 128}, 2, escape.Groups{S(5), S(128)}},
	}
	for i := range testcases {
		tc := &testcases[i]
		t.Run(fmt.Sprintf("case-%d", i), func(t *testing.T) {
			got, err := Decode(tc.enc, tc.count)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Decode(%v, %d) (-want +got):\n%s", tc.enc, tc.count, diff)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	testcases := []struct {
		enc   []byte
		count int
	}{
		{nil, 1},
		{[]byte{1, 2, 3, 4, 5, 6, 7}, 10},
		{[]byte{5, 1}, 2},
		{[]byte{0, 1, 3, 4}, 3},
		{[]byte{0, 1}, 0},
		{[]byte{9, 8, 1, 2, 128}, 5},
	}
	for _, tc := range testcases {
		if _, err := Decode(tc.enc, tc.count); !errors.Is(err, ErrEncoding) {
			t.Errorf("Decode(%v, %d): got %v", tc.enc, tc.count, err)
		}
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 5000; i++ {
		var set [128]bool
		n := 1 + r.Intn(64)
		for j := 0; j < n; j++ {
			set[r.Intn(128)] = true
		}
		var chars []byte
		for c := range set {
			if set[c] {
				chars = append(chars, byte(c))
			}
		}
		pairs := pairsOf(chars...)
		gs, err := escape.Compact(pairs, escape.DefaultBudget)
		if err != nil {
			t.Fatal(err)
		}
		got, err := Decode(gs.Encode(), len(pairs))
		if err != nil {
			t.Fatalf("%v: %s", chars, err)
		}
		if diff := cmp.Diff(gs, got); diff != "" {
			t.Fatalf("%v (-want +got):\n%s", chars, diff)
		}
	}
}

func TestDecodeAmbiguousHighByte(t *testing.T) {
	// two ranges and a trailing singleton 128 has
	// the same shape as one range, two singletons
	// and a sentinel
	pairs := pairsOf(0, 1, 3, 4, 128)
	gs, err := escape.Compact(pairs, escape.DefaultBudget)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(gs.Encode(), len(pairs))
	if err != nil {
		t.Fatal(err)
	}
	if cmp.Equal(gs, got) {
		t.Fatalf("expected %s to decode differently", gs)
	}
}
