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

// Package vescape escapes byte strings using tables
// compiled ahead of time from a set of escape pairs.
//
// Generated code (see cmd/vescape) declares the
// static tables and binds them with MustCompile:
//
//	var escapeEscaper = vescape.MustCompile(vescape.Static{
//		Table:  &escapeTable,
//		Quotes: escapeQuotes[:],
//		Ranges: escapeRanges[:],
//		Flags:  vescape.Flags{SIMD: true, Ranges: true, AVX: true},
//	})
//
// The vector kernel selected by the flags and the
// CPU only proposes candidate positions; each one
// is confirmed against the exact table.
package vescape

import (
	"fmt"
	"io"
	"unsafe"

	"golang.org/x/exp/slices"

	"github.com/SnellerInc/vescape/escape"
	"github.com/SnellerInc/vescape/scan"
)

// Flags are the capability flags an escape set is
// compiled with.
type Flags = scan.Flags

// Static is the data emitted for one escape set.
type Static struct {
	// Table maps each byte to an index into
	// Quotes, or len(Quotes) for no escape.
	Table *[256]uint8
	// Quotes holds the replacements.
	Quotes []string
	// Ranges is the flat range encoding,
	// used when Flags.Ranges is set.
	Ranges []byte
	// Chars lists the escaped bytes for the
	// equality kernel, used otherwise.
	Chars []byte

	Flags
}

// Escaper replaces bytes according to a table.
// An Escaper is safe for concurrent use.
type Escaper struct {
	table  *escape.Table
	kernel scan.Kernel
}

// Compile validates s and binds it to the best
// kernel allowed by s.Flags and scan.DetectLevel.
func Compile(s Static) (*Escaper, error) {
	return compile(s, scan.DetectLevel())
}

func compile(s Static, level scan.Level) (*Escaper, error) {
	if s.Table == nil {
		return nil, fmt.Errorf("vescape: nil table")
	}
	t, err := escape.TableFrom(s.Table, s.Quotes)
	if err != nil {
		return nil, err
	}
	k, err := scan.Select(s.Flags, level, t, s.Ranges, s.Chars)
	if err != nil {
		return nil, err
	}
	return &Escaper{table: t, kernel: k}, nil
}

// MustCompile is like Compile but panics on error.
// It is meant for package-level variables in
// generated code.
func MustCompile(s Static) *Escaper {
	e, err := Compile(s)
	if err != nil {
		panic(err)
	}
	return e
}

// New builds an Escaper directly from sorted pairs.
func New(pairs []escape.Pair, f Flags) (*Escaper, error) {
	return newEscaper(pairs, f, scan.DetectLevel())
}

func newEscaper(pairs []escape.Pair, f Flags, level scan.Level) (*Escaper, error) {
	if err := escape.Check(pairs); err != nil {
		return nil, err
	}
	t, err := escape.BuildTable(pairs)
	if err != nil {
		return nil, err
	}
	s := Static{Table: &t.Index, Quotes: t.Quotes, Flags: f}
	if f.SIMD && f.Ranges {
		s.Ranges, err = rangeEncoding(pairs)
		if err != nil {
			return nil, err
		}
		if s.Ranges == nil {
			s.Flags.Ranges = false
			s.Flags.AVX = false
			s.Flags.SIMD = len(pairs) <= scan.MaxEqual
		}
	}
	if s.Flags.SIMD && !s.Flags.Ranges {
		s.Chars = escape.Chars(pairs)
	}
	return compile(s, level)
}

// rangeEncoding returns the flat encoding of pairs,
// or nil if it would not decode back to the same
// groups.
func rangeEncoding(pairs []escape.Pair) ([]byte, error) {
	gs, err := escape.Compact(pairs, escape.DefaultBudget)
	if err != nil {
		return nil, err
	}
	enc := gs.Encode()
	got, err := scan.Decode(enc, len(pairs))
	if err != nil || !slices.Equal(gs, got) {
		return nil, nil
	}
	return enc, nil
}

// Kernel returns the name of the scanning kernel
// in use.
func (e *Escaper) Kernel() string { return e.kernel.Name() }

// Table returns the exact classification table.
func (e *Escaper) Table() *escape.Table { return e.table }

// Append appends the escaped form of src to dst.
func (e *Escaper) Append(dst, src []byte) []byte {
	last := 0
	for i := 0; i < len(src); i++ {
		n := e.kernel.Index(src[i:])
		if n < 0 {
			break
		}
		i += n
		if q, ok := e.table.Quote(src[i]); ok {
			dst = append(dst, src[last:i]...)
			dst = append(dst, q...)
			last = i + 1
		}
	}
	return append(dst, src[last:]...)
}

// AppendString is like Append for a string.
func (e *Escaper) AppendString(dst []byte, s string) []byte {
	return e.Append(dst, unsafe.Slice(unsafe.StringData(s), len(s)))
}

// String returns the escaped form of s.
// If nothing needs escaping, s is returned.
func (e *Escaper) String(s string) string {
	src := unsafe.Slice(unsafe.StringData(s), len(s))
	first := e.first(src)
	if first < 0 {
		return s
	}
	dst := make([]byte, 0, len(s)+len(s)/8)
	dst = append(dst, s[:first]...)
	return string(e.Append(dst, src[first:]))
}

// first returns the position of the first byte
// that needs escaping, or -1.
func (e *Escaper) first(src []byte) int {
	for i := 0; i < len(src); i++ {
		n := e.kernel.Index(src[i:])
		if n < 0 {
			return -1
		}
		i += n
		if e.table.Contains(src[i]) {
			return i
		}
	}
	return -1
}

// Write writes the escaped form of src to w,
// returning the number of bytes written.
// Unescaped runs are written directly from src.
func (e *Escaper) Write(w io.Writer, src []byte) (int, error) {
	total := 0
	last := 0
	flush := func(p []byte) error {
		n, err := w.Write(p)
		total += n
		return err
	}
	for i := 0; i < len(src); i++ {
		n := e.kernel.Index(src[i:])
		if n < 0 {
			break
		}
		i += n
		q, ok := e.table.Quote(src[i])
		if !ok {
			continue
		}
		if last < i {
			if err := flush(src[last:i]); err != nil {
				return total, err
			}
		}
		if err := flush([]byte(q)); err != nil {
			return total, err
		}
		last = i + 1
	}
	if last < len(src) {
		if err := flush(src[last:]); err != nil {
			return total, err
		}
	}
	return total, nil
}
