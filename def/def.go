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

// Package def loads escape set definitions.
//
// A definition is a YAML (or JSON) document:
//
//	name: html
//	package: htmlescape
//	simd: true
//	ranges: true
//	avx: true
//	pairs:
//	  - {char: "<", quote: "&lt;"}
//	  - {char: 0x3e, quote: "&gt;"}
//	  - {char: "#38", quote: "&amp;"}
package def

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
	"sigs.k8s.io/yaml"

	"github.com/SnellerInc/vescape/escape"
	"github.com/SnellerInc/vescape/scan"
)

// Definition describes one escape set and how
// it should be compiled. A non-zero Budget
// overrides escape.DefaultBudget.
type Definition struct {
	Name    string  `json:"name"`
	Package string  `json:"package,omitempty"`
	Budget  int     `json:"budget,omitempty"`
	Pairs   []Entry `json:"pairs"`

	scan.Flags
}

// Entry is one escaped byte and its replacement.
type Entry struct {
	Char  Char   `json:"char"`
	Quote string `json:"quote"`
}

// Char is a byte written either as a one-byte
// string ("<"), an integer (60), or a string
// holding a number ("0x3c", "#60").
type Char byte

// ErrDuplicate is returned when a definition
// lists the same byte twice.
var ErrDuplicate = errors.New("def: duplicate escape byte")

func (c *Char) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		return c.set(n, string(b))
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("def: char must be a string or integer, not %s", b)
	}
	v, err := ParseChar(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (c Char) MarshalJSON() ([]byte, error) {
	if c >= 0x20 && c < 0x7f {
		return json.Marshal(string(rune(c)))
	}
	return json.Marshal(int(c))
}

func (c *Char) set(n int, text string) error {
	if n < 0 || n > 255 {
		return fmt.Errorf("def: char %s out of range", text)
	}
	*c = Char(n)
	return nil
}

// ParseChar parses the string notations of Char.
func ParseChar(s string) (Char, error) {
	if len(s) == 1 {
		return Char(s[0]), nil
	}
	num := s
	if strings.HasPrefix(num, "#") {
		num = num[1:]
	}
	n, err := strconv.ParseInt(num, 0, 16)
	if err != nil || n < 0 || n > 255 {
		return 0, fmt.Errorf("def: cannot parse char %q", s)
	}
	return Char(n), nil
}

// Decode reads a YAML or JSON definition from r.
func Decode(r io.Reader) (*Definition, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	d := new(Definition)
	if err := yaml.Unmarshal(buf, d); err != nil {
		return nil, fmt.Errorf("def: %w", err)
	}
	if len(d.Pairs) == 0 {
		return nil, fmt.Errorf("def: definition %q has no pairs", d.Name)
	}
	return d, nil
}

// Encode writes d to w as YAML.
func Encode(w io.Writer, d *Definition) error {
	buf, err := yaml.Marshal(d)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// Escapes returns the pairs of d sorted by byte,
// rejecting duplicates and invalid replacements.
func (d *Definition) Escapes() ([]escape.Pair, error) {
	out := make([]escape.Pair, len(d.Pairs))
	for i := range d.Pairs {
		out[i] = escape.Pair{Char: byte(d.Pairs[i].Char), Quote: d.Pairs[i].Quote}
	}
	slices.SortStableFunc(out, func(a, b escape.Pair) int {
		return int(a.Char) - int(b.Char)
	})
	for i := 1; i < len(out); i++ {
		if out[i].Char == out[i-1].Char {
			return nil, fmt.Errorf("%w %s in %q", ErrDuplicate, out[i], d.Name)
		}
	}
	if err := escape.Check(out); err != nil {
		return nil, err
	}
	return out, nil
}

// GroupBudget returns the group budget of d.
func (d *Definition) GroupBudget() int {
	if d.Budget > 0 {
		return d.Budget
	}
	return escape.DefaultBudget
}
