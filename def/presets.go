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

package def

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/SnellerInc/vescape/scan"
)

var presets = map[string]func() *Definition{
	"html":  html,
	"latex": latex,
	"json":  jsonString,
}

// Presets returns the names of the built-in
// definitions in sorted order.
func Presets() []string {
	names := maps.Keys(presets)
	slices.Sort(names)
	return names
}

// Preset returns a fresh copy of the named
// built-in definition.
func Preset(name string) (*Definition, bool) {
	fn, ok := presets[name]
	if !ok {
		return nil, false
	}
	return fn(), true
}

var allSIMD = scan.Flags{SIMD: true, Ranges: true, AVX: true}

func html() *Definition {
	return &Definition{
		Name:    "html",
		Package: "htmlescape",
		Flags:   allSIMD,
		Pairs: []Entry{
			{'"', "&quot;"},
			{'&', "&amp;"},
			{'\'', "&#x27;"},
			{'/', "&#x2f;"},
			{'<', "&lt;"},
			{'>', "&gt;"},
		},
	}
}

func latex() *Definition {
	return &Definition{
		Name:    "latex",
		Package: "latexescape",
		Flags:   allSIMD,
		Pairs: []Entry{
			{'#', `\#`},
			{'$', `\$`},
			{'%', `\%`},
			{'&', `\&`},
			{'\\', `\textbackslash{}`},
			{'^', `\textasciicircum{}`},
			{'_', `\_`},
			{'{', `\{`},
			{'}', `\}`},
			{'~', `\textasciitilde{}`},
		},
	}
}

// jsonString escapes the contents of a JSON string:
// control characters, quotation mark, reverse solidus
func jsonString() *Definition {
	short := map[byte]string{
		'\b': `\b`,
		'\t': `\t`,
		'\n': `\n`,
		'\f': `\f`,
		'\r': `\r`,
	}
	d := &Definition{
		Name:    "json",
		Package: "jsonescape",
		Flags:   allSIMD,
	}
	for c := 0; c < 0x20; c++ {
		q, ok := short[byte(c)]
		if !ok {
			q = fmt.Sprintf(`\u%04x`, c)
		}
		d.Pairs = append(d.Pairs, Entry{Char(c), q})
	}
	d.Pairs = append(d.Pairs, Entry{'"', `\"`}, Entry{'\\', `\\`})
	return d
}
