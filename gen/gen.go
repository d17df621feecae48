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

// Package gen renders Go source binding an escape
// set to the vescape runtime.
package gen

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"go/format"
	"go/token"
	"strings"
	"text/template"

	"github.com/dchest/siphash"
	"golang.org/x/exp/slices"

	"github.com/SnellerInc/vescape/escape"
	"github.com/SnellerInc/vescape/scan"
)

// version is mixed into every fingerprint so that
// changes to the emitted code invalidate old files.
const version = 2

// siphash keys for Fingerprint
const (
	key0 = 0x7665736361706521
	key1 = 0x0123456789abcdef
)

// Options controls the emitted file.
type Options struct {
	// Package is the package clause of the output.
	Package string
	// Prefix is prepended to unexported identifiers;
	// the default is "escape".
	Prefix string
	// Func names the exported functions; the
	// default is "Escape".
	Func string
	// Source describes where the pairs came from.
	Source string

	scan.Flags

	// Logf, if non-nil, receives diagnostics.
	Logf func(f string, args ...interface{})
}

func (o *Options) logf(f string, args ...interface{}) {
	if o.Logf != nil {
		o.Logf(f, args...)
	}
}

func (o *Options) prefix() string {
	if o.Prefix == "" {
		return "escape"
	}
	return o.Prefix
}

func (o *Options) fn() string {
	if o.Func == "" {
		return "Escape"
	}
	return o.Func
}

func (o *Options) validate() error {
	if !token.IsIdentifier(o.Package) {
		return fmt.Errorf("gen: invalid package name %q", o.Package)
	}
	if !token.IsIdentifier(o.prefix()) {
		return fmt.Errorf("gen: invalid prefix %q", o.Prefix)
	}
	if !token.IsIdentifier(o.fn()) || !token.IsExported(o.fn()) {
		return fmt.Errorf("gen: function name %q must be an exported identifier", o.Func)
	}
	return nil
}

// params is the template input
type params struct {
	Package     string
	Prefix      string
	Func        string
	Source      string
	Fingerprint uint64
	Flags       scan.Flags
	Rows        []string
	Quotes      []string
	Groups      escape.Groups
	Ranges      []byte
	Chars       []byte
}

var funcMap = template.FuncMap{
	"bytes": func(b []byte) string {
		s := make([]string, len(b))
		for i := range b {
			s[i] = fmt.Sprint(b[i])
		}
		return strings.Join(s, ", ")
	},
}

var tmpl = template.Must(template.New("escape").Funcs(funcMap).Parse(source))

// Generate returns the formatted source for pairs.
//
// The flags in opts are adjusted when the escape
// set cannot be served by the requested kernels:
// an equality set is limited to scan.MaxEqual
// bytes, and a range encoding that does not decode
// back to its groups (possible when escape bytes
// reach escape.Sentinel) is replaced by the
// equality or scalar kernel.
func Generate(pairs []escape.Pair, opts *Options) ([]byte, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := escape.Check(pairs); err != nil {
		return nil, err
	}
	t, err := escape.BuildTable(pairs)
	if err != nil {
		return nil, err
	}
	p := &params{
		Package:     opts.Package,
		Prefix:      opts.prefix(),
		Func:        opts.fn(),
		Source:      opts.Source,
		Fingerprint: Fingerprint(pairs, opts),
		Flags:       opts.Flags,
		Quotes:      t.Quotes,
	}
	if p.Source == "" {
		p.Source = "vescape"
	}
	for i := 0; i < 256; i += 16 {
		p.Rows = append(p.Rows, funcMap["bytes"].(func([]byte) string)(t.Index[i:i+16]))
	}

	if p.Flags.SIMD && p.Flags.Ranges {
		gs, enc, err := encode(pairs)
		if err != nil {
			opts.logf("%s: %s; not using range kernels", p.Source, err)
			p.Flags.Ranges = false
			p.Flags.AVX = false
		} else {
			p.Groups, p.Ranges = gs, enc
		}
	}
	if p.Flags.SIMD && !p.Flags.Ranges {
		if len(pairs) > scan.MaxEqual {
			if opts.Flags.Ranges {
				opts.logf("%s: %d escape bytes exceed the equality kernel; using scalar only", p.Source, len(pairs))
				p.Flags = scan.Flags{}
			} else {
				return nil, fmt.Errorf("gen: equality kernel supports at most %d escape bytes, have %d", scan.MaxEqual, len(pairs))
			}
		} else {
			p.Chars = escape.Chars(pairs)
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return nil, err
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("gen: formatting output: %w", err)
	}
	return out, nil
}

// encode compacts pairs and checks that the range
// kernels will decode the result unchanged.
func encode(pairs []escape.Pair) (escape.Groups, []byte, error) {
	gs, err := escape.Compact(pairs, escape.DefaultBudget)
	if err != nil {
		return nil, nil, err
	}
	if err := escape.Verify(pairs, gs); err != nil {
		return nil, nil, err
	}
	enc := gs.Encode()
	got, err := scan.Decode(enc, len(pairs))
	if err != nil {
		return nil, nil, err
	}
	if !slices.Equal(gs, got) {
		return nil, nil, fmt.Errorf("encoding %v of %s decodes as %s", enc, gs, got)
	}
	return gs, enc, nil
}

// Fingerprint hashes everything that determines
// the output of Generate.
func Fingerprint(pairs []escape.Pair, opts *Options) uint64 {
	var buf []byte
	buf = binary.LittleEndian.AppendUint32(buf, version)
	for _, s := range []string{opts.Package, opts.prefix(), opts.fn(), opts.Source} {
		buf = binary.AppendUvarint(buf, uint64(len(s)))
		buf = append(buf, s...)
	}
	var flags byte
	if opts.SIMD {
		flags |= 1
	}
	if opts.Ranges {
		flags |= 2
	}
	if opts.AVX {
		flags |= 4
	}
	buf = append(buf, flags)
	for i := range pairs {
		buf = append(buf, pairs[i].Char)
		buf = binary.AppendUvarint(buf, uint64(len(pairs[i].Quote)))
		buf = append(buf, pairs[i].Quote...)
	}
	return siphash.Hash(key0, key1, buf)
}

const fingerprintPrefix = "// vescape fingerprint: "

// UpToDate returns whether src was generated by
// Generate from the same pairs and options.
func UpToDate(src []byte, pairs []escape.Pair, opts *Options) bool {
	want := fmt.Sprintf("%s%016x\n", fingerprintPrefix, Fingerprint(pairs, opts))
	return bytes.Contains(src, []byte(want))
}
