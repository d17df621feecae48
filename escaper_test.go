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

package vescape

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/SnellerInc/vescape/escape"
	"github.com/SnellerInc/vescape/scan"
)

var htmlPairs = []escape.Pair{
	{Char: '"', Quote: "&quot;"},
	{Char: '&', Quote: "&amp;"},
	{Char: '\'', Quote: "&#x27;"},
	{Char: '/', Quote: "&#x2f;"},
	{Char: '<', Quote: "&lt;"},
	{Char: '>', Quote: "&gt;"},
}

var allFlags = []Flags{
	{},
	{SIMD: true},
	{SIMD: true, Ranges: true},
	{SIMD: true, Ranges: true, AVX: true},
}

var allLevels = []scan.Level{scan.LevelNone, scan.LevelSSE42, scan.LevelAVX2}

// reference escapes src one byte at a time
func reference(pairs []escape.Pair, src []byte) []byte {
	var out []byte
	for _, c := range src {
		found := false
		for i := range pairs {
			if pairs[i].Char == c {
				out = append(out, pairs[i].Quote...)
				found = true
				break
			}
		}
		if !found {
			out = append(out, c)
		}
	}
	return out
}

func TestEscapeHTML(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"<",
		"<script>alert('x & y')</script>",
		strings.Repeat("a", 31) + "<" + strings.Repeat("b", 40) + "&",
		strings.Repeat("0123456789", 10) + "\"/",
	}
	for _, f := range allFlags {
		for _, level := range allLevels {
			e, err := newEscaper(htmlPairs, f, level)
			if err != nil {
				t.Fatalf("%s at %s: %s", f, level, err)
			}
			for _, in := range inputs {
				want := string(reference(htmlPairs, []byte(in)))
				if got := string(e.Append(nil, []byte(in))); got != want {
					t.Logf("kernel %s", e.Kernel())
					t.Logf("want = %q", want)
					t.Logf("got  = %q", got)
					t.Errorf("Append mismatch for %q", in)
				}
				if got := e.String(in); got != want {
					t.Errorf("%s: String(%q) = %q", e.Kernel(), in, got)
				}
				var buf bytes.Buffer
				n, err := e.Write(&buf, []byte(in))
				if err != nil {
					t.Fatal(err)
				}
				if n != len(want) || buf.String() != want {
					t.Errorf("%s: Write(%q) = %q (%d)", e.Kernel(), in, buf.String(), n)
				}
			}
		}
	}
}

func TestEscapeRandomSets(t *testing.T) {
	r := rand.New(rand.NewSource(2022))
	for i := 0; i < 300; i++ {
		var set [256]bool
		for j := 1 + r.Intn(16); j > 0; j-- {
			// stay below 128 so the range encoding
			// is always decodable
			set[r.Intn(128)] = true
		}
		var pairs []escape.Pair
		for c := range set {
			if set[c] {
				pairs = append(pairs, escape.Pair{Char: byte(c), Quote: fmt.Sprintf("\\x%02x", c)})
			}
		}
		src := make([]byte, r.Intn(300))
		for j := range src {
			src[j] = byte(r.Intn(256))
		}
		want := reference(pairs, src)
		for _, f := range allFlags {
			e, err := newEscaper(pairs, f, scan.LevelAVX2)
			if err != nil {
				t.Fatal(err)
			}
			if got := e.Append(nil, src); !bytes.Equal(got, want) {
				t.Fatalf("%s on %v: mismatch", e.Kernel(), pairs)
			}
		}
	}
}

func TestStringNoEscape(t *testing.T) {
	e, err := New(htmlPairs, Flags{SIMD: true, Ranges: true})
	if err != nil {
		t.Fatal(err)
	}
	s := strings.Repeat("nothing to see here ", 10)
	if got := e.String(s); got != s {
		t.Errorf("got %q", got)
	}
	if got := string(e.AppendString([]byte("x"), "a<b")); got != "xa&lt;b" {
		t.Errorf("AppendString: %q", got)
	}
}

type failWriter struct {
	n int
}

var errShort = errors.New("short write")

func (f *failWriter) Write(p []byte) (int, error) {
	if f.n == 0 {
		return 0, errShort
	}
	f.n--
	return len(p), nil
}

func TestWriteError(t *testing.T) {
	e, err := New(htmlPairs, Flags{})
	if err != nil {
		t.Fatal(err)
	}
	n, err := e.Write(&failWriter{n: 1}, []byte("ab<cd"))
	if !errors.Is(err, errShort) {
		t.Fatalf("got %v", err)
	}
	if n != 2 {
		t.Errorf("wrote %d bytes", n)
	}
}

func TestCompile(t *testing.T) {
	tbl, err := escape.BuildTable(htmlPairs)
	if err != nil {
		t.Fatal(err)
	}
	enc, err := escape.Encode(htmlPairs)
	if err != nil {
		t.Fatal(err)
	}
	e := MustCompile(Static{
		Table:  &tbl.Index,
		Quotes: tbl.Quotes,
		Ranges: enc,
		Flags:  Flags{SIMD: true, Ranges: true, AVX: true},
	})
	if got := e.String("1 < 2"); got != "1 &lt; 2" {
		t.Errorf("got %q", got)
	}
	if _, err := Compile(Static{Table: &tbl.Index}); err == nil {
		t.Error("missing quotes accepted")
	}
	if _, err := Compile(Static{}); err == nil {
		t.Error("missing table accepted")
	}
	if _, err := New(nil, Flags{}); err == nil {
		t.Error("empty pairs accepted")
	}
}

func TestAmbiguousRanges(t *testing.T) {
	// encodes as {0, 1, 3, 4, 128}, which reads
	// back as a range and two singletons
	var pairs []escape.Pair
	for _, c := range []byte{0, 1, 3, 4, 128} {
		pairs = append(pairs, escape.Pair{Char: c, Quote: fmt.Sprintf("<%d>", c)})
	}
	all := Flags{SIMD: true, Ranges: true, AVX: true}
	e, err := newEscaper(pairs, all, scan.LevelAVX2)
	if err != nil {
		t.Fatal(err)
	}
	if e.Kernel() != "sse-equal" {
		t.Errorf("kernel = %s, want sse-equal", e.Kernel())
	}
	src := []byte{0, 'a', 1, 2, 3, 4, 5, 128, 129}
	got := e.Append(nil, src)
	if want := reference(pairs, src); !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func BenchmarkEscape(b *testing.B) {
	src := []byte(strings.Repeat("some <b>bold</b> & 'quoted' text / ", 64))
	for _, f := range allFlags {
		e, err := newEscaper(htmlPairs, f, scan.LevelAVX2)
		if err != nil {
			b.Fatal(err)
		}
		b.Run(e.Kernel(), func(b *testing.B) {
			var dst []byte
			b.SetBytes(int64(len(src)))
			for i := 0; i < b.N; i++ {
				dst = e.Append(dst[:0], src)
			}
		})
	}
}
