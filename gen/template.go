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

package gen

const source = `// Code generated by vescape from {{.Source}}; DO NOT EDIT.
// vescape fingerprint: {{printf "%016x" .Fingerprint}}

package {{.Package}}

import (
	"io"

	"github.com/SnellerInc/vescape"
)

// {{.Prefix}}Table maps each byte to its index in {{.Prefix}}Quotes,
// or {{.Prefix}}QuotesLen if it is not escaped.
var {{.Prefix}}Table = [256]uint8{
{{- range .Rows}}
	{{.}},
{{- end}}
}

var {{.Prefix}}Quotes = [{{.Prefix}}QuotesLen]string{
{{- range .Quotes}}
	{{printf "%q" .}},
{{- end}}
}

const {{.Prefix}}QuotesLen = {{len .Quotes}}
{{- if .Flags.SIMD}}
{{- if .Flags.Ranges}}

// groups: {{.Groups}}
var {{.Prefix}}Ranges = [...]byte{ {{bytes .Ranges}} }
{{- else}}

var {{.Prefix}}Chars = [...]byte{ {{bytes .Chars}} }
{{- end}}
{{- end}}

var {{.Prefix}}Escaper = vescape.MustCompile(vescape.Static{
	Table:  &{{.Prefix}}Table,
	Quotes: {{.Prefix}}Quotes[:],
{{- if .Flags.SIMD}}
{{- if .Flags.Ranges}}
	Ranges: {{.Prefix}}Ranges[:],
{{- else}}
	Chars: {{.Prefix}}Chars[:],
{{- end}}
{{- end}}
	Flags: vescape.Flags{SIMD: {{.Flags.SIMD}}, Ranges: {{.Flags.Ranges}}, AVX: {{.Flags.AVX}}},
})

// {{.Func}} appends the escaped form of src to dst.
func {{.Func}}(dst, src []byte) []byte {
	return {{.Prefix}}Escaper.Append(dst, src)
}

// {{.Func}}String returns the escaped form of s.
func {{.Func}}String(s string) string {
	return {{.Prefix}}Escaper.String(s)
}

// {{.Func}}To writes the escaped form of src to w.
func {{.Func}}To(w io.Writer, src []byte) (int, error) {
	return {{.Prefix}}Escaper.Write(w, src)
}
`
