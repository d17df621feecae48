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

// Command vescape generates Go escaping tables
// and bindings from an escape set definition.
//
// Typical use is from a go:generate directive:
//
//	//go:generate vescape -def html.yaml -o html_escape.go
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/SnellerInc/vescape/def"
	"github.com/SnellerInc/vescape/escape"
	"github.com/SnellerInc/vescape/gen"
)

var (
	dashv       bool
	dashh       bool
	dashsimd    bool
	dashranges  bool
	dashavx     bool
	dashcheck   bool
	dashexplain bool
	dashlist    bool
	dashbudget  int
	dashdef     string
	dashpreset  string
	dasho       string
	dashpkg     string
	dashprefix  string
	dashfunc    string
)

func init() {
	flag.BoolVar(&dashv, "v", false, "verbose")
	flag.BoolVar(&dashh, "h", false, "show usage help")
	flag.BoolVar(&dashsimd, "simd", false, "emit a vectorized scan kernel")
	flag.BoolVar(&dashranges, "ranges", false, "use range comparisons rather than byte equality")
	flag.BoolVar(&dashavx, "avx", false, "allow 256-bit range kernels")
	flag.BoolVar(&dashcheck, "check", false, "exit with status 1 if the output file is out of date")
	flag.BoolVar(&dashexplain, "explain", false, "print the escape pairs and compacted groups instead of generating code")
	flag.BoolVar(&dashlist, "list", false, "list built-in presets")
	flag.IntVar(&dashbudget, "budget", 0, "group budget for -explain (default: from definition)")
	flag.StringVar(&dashdef, "def", "", "definition file (.yaml or .json)")
	flag.StringVar(&dashpreset, "preset", "", "built-in definition name")
	flag.StringVar(&dasho, "o", "-", "output file (or - for stdout)")
	flag.StringVar(&dashpkg, "pkg", "", "package name (default: from definition or $GOPACKAGE)")
	flag.StringVar(&dashprefix, "prefix", "", "prefix for generated unexported identifiers")
	flag.StringVar(&dashfunc, "func", "", "name of the generated escape function")
}

func exitf(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f, args...)
	os.Exit(1)
}

func logf(f string, args ...interface{}) {
	if f[len(f)-1] != '\n' {
		f += "\n"
	}
	fmt.Fprintf(os.Stderr, f, args...)
}

// load returns the definition named by -def or -preset
// and a short description of where it came from.
func load() (*def.Definition, string) {
	switch {
	case dashdef != "" && dashpreset != "":
		exitf("-def and -preset are mutually exclusive\n")
	case dashpreset != "":
		d, ok := def.Preset(dashpreset)
		if !ok {
			exitf("unknown preset %q (have %v)\n", dashpreset, def.Presets())
		}
		return d, "preset " + dashpreset
	case dashdef != "":
		f, err := os.Open(dashdef)
		if err != nil {
			exitf("%s\n", err)
		}
		defer f.Close()
		d, err := def.Decode(f)
		if err != nil {
			exitf("%s: %s\n", dashdef, err)
		}
		return d, filepath.Base(dashdef)
	}
	exitf("one of -def or -preset is required\n")
	return nil, ""
}

// options merges the definition with the command line;
// set holds the names of flags given explicitly.
func options(d *def.Definition, source string, set map[string]bool) (*gen.Options, error) {
	opts := &gen.Options{
		Package: d.Package,
		Prefix:  dashprefix,
		Func:    dashfunc,
		Source:  source,
		Flags:   d.Flags,
	}
	if dashpkg != "" {
		opts.Package = dashpkg
	}
	if opts.Package == "" {
		opts.Package = os.Getenv("GOPACKAGE")
	}
	if opts.Package == "" {
		return nil, fmt.Errorf("no package name: use -pkg or set package in the definition")
	}
	if set["simd"] {
		opts.SIMD = dashsimd
	}
	if set["ranges"] {
		opts.Ranges = dashranges
	}
	if set["avx"] {
		opts.AVX = dashavx
	}
	if dashv {
		opts.Logf = logf
	}
	return opts, nil
}

// explain writes the escape pairs and
// the groups that pairs compact into.
func explain(w io.Writer, name string, pairs []escape.Pair, budget int) error {
	gs, err := escape.Compact(pairs, budget)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %d escape bytes\n", name, len(pairs))
	for i := range pairs {
		fmt.Fprintf(w, "\t%d\t%s\n", i, pairs[i])
	}
	fmt.Fprintf(w, "groups (budget %d): %s\n", budget, gs)
	fmt.Fprintf(w, "encoding: %v\n", gs.Encode())
	return nil
}

func main() {
	flag.Parse()
	if dashh || flag.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "usage:\n")
		fmt.Fprintf(os.Stderr, "    %s (-def <file.yaml> | -preset <name>) [-o <out.go>] [-pkg <name>]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "        generate escape tables and bindings\n")
		fmt.Fprintf(os.Stderr, "    %s -check (-def <file.yaml> | -preset <name>) -o <out.go>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "        check that a generated file is up to date\n")
		fmt.Fprintf(os.Stderr, "    %s -explain [-budget <n>] (-def <file.yaml> | -preset <name>)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "        list the escape pairs and how they compact into groups\n")
		fmt.Fprintf(os.Stderr, "    %s -list\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "        list built-in presets\n")
		fmt.Fprintf(os.Stderr, "flag usage:\n")
		flag.Usage()
		os.Exit(1)
	}
	if dashlist {
		for _, name := range def.Presets() {
			fmt.Println(name)
		}
		return
	}

	d, source := load()
	pairs, err := d.Escapes()
	if err != nil {
		exitf("%s: %s\n", source, err)
	}
	if dashexplain {
		budget := dashbudget
		if budget <= 0 {
			budget = d.GroupBudget()
		}
		if err := explain(os.Stdout, source, pairs, budget); err != nil {
			exitf("%s: %s\n", source, err)
		}
		return
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	opts, err := options(d, source, set)
	if err != nil {
		exitf("%s: %s\n", source, err)
	}

	if dashcheck {
		if dasho == "-" {
			exitf("-check requires -o\n")
		}
		if err := check(dasho, source, pairs, opts); err != nil {
			exitf("%s\n", err)
		}
		if dashv {
			logf("%s is up to date", dasho)
		}
		return
	}

	if note := budgetNote(d, source); dashv && note != "" {
		logf("%s", note)
	}
	src, err := gen.Generate(pairs, opts)
	if err != nil {
		exitf("%s: %s\n", source, err)
	}
	if dasho == "-" {
		if _, err := os.Stdout.Write(src); err != nil {
			exitf("writing output: %s\n", err)
		}
		return
	}
	wrote, err := emit(dasho, src)
	if err != nil {
		exitf("%s\n", err)
	}
	if dashv {
		if wrote {
			logf("wrote %s (%d bytes, %d escapes)", dasho, len(src), len(pairs))
		} else {
			logf("%s unchanged", dasho)
		}
	}
}

// budgetNote describes a definition budget that
// code generation does not use, or returns "".
func budgetNote(d *def.Definition, source string) string {
	if d.GroupBudget() == escape.DefaultBudget {
		return ""
	}
	return fmt.Sprintf("%s: ignoring budget %d; generated kernels use %d groups", source, d.GroupBudget(), escape.DefaultBudget)
}

// errStale is returned by check when the output
// file does not match its definition.
var errStale = errors.New("out of date")

// check returns an error wrapping errStale if the
// file at path was not generated from pairs and opts.
func check(path, source string, pairs []escape.Pair, opts *gen.Options) error {
	cur, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !gen.UpToDate(cur, pairs, opts) {
		return fmt.Errorf("%s is %w with %s", path, errStale, source)
	}
	return nil
}

// emit writes src to path unless the file already
// holds exactly src, and reports whether it wrote.
func emit(path string, src []byte) (bool, error) {
	if cur, err := os.ReadFile(path); err == nil && bytes.Equal(cur, src) {
		return false, nil
	}
	if err := os.WriteFile(path, src, 0644); err != nil {
		return false, err
	}
	return true, nil
}
