// Package gen renders the fence tables of package isa into the
// per-architecture assembly files of the root package, and checks
// committed files against the tables.
package gen

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	"github.com/ehrlich-b/go-membarrier/internal/isa"
	"github.com/ehrlich-b/go-membarrier/internal/logging"
)

// Header marks generated files.
const Header = `// Code generated by "membar gen"; DO NOT EDIT.`

// Func is one leaf assembly function.
type Func struct {
	Name        string
	Kind        isa.Kind
	Type        isa.Type
	Instruction isa.Instruction
}

// FuncName returns the Go symbol implementing (kind, typ).
func FuncName(kind isa.Kind, typ isa.Type) string {
	kind, typ = isa.Normalize(kind, typ)
	if kind == isa.Compiler {
		return "compilerBarrier"
	}
	t := typ.String()
	return kind.String() + strings.ToUpper(t[:1]) + t[1:]
}

// Funcs returns the functions of an arch in file order: every CPU
// (kind, type) pair, then the compiler barrier. The table must be valid.
func Funcs(a *isa.Arch) ([]Func, error) {
	if err := isa.Validate(a); err != nil {
		return nil, isa.WrapError("GEN", err)
	}

	var funcs []Func
	for _, kind := range isa.CPUKinds() {
		for _, typ := range isa.Types() {
			in, err := a.Lookup(kind, typ)
			if err != nil {
				return nil, isa.WrapError("GEN", err)
			}
			funcs = append(funcs, Func{Name: FuncName(kind, typ), Kind: kind, Type: typ, Instruction: in})
		}
	}
	funcs = append(funcs, Func{Name: FuncName(isa.Compiler, isa.General), Kind: isa.Compiler, Instruction: isa.CompilerBarrier})
	return funcs, nil
}

var asmTemplate = template.Must(template.New("asm").Parse(`{{.Header}}

//go:build {{.Arch.BuildConstraint}}

#include "textflag.h"
{{range .Funcs}}
// func {{.Name}}()
{{- with .Instruction.Name}}
// {{.}}
{{- end}}
TEXT ·{{.Name}}(SB), NOSPLIT, $0-0
{{- range .Instruction.Asm}}
	{{.}}
{{- end}}
	RET
{{end}}`))

// Render returns the assembly file for one arch.
func Render(a *isa.Arch) ([]byte, error) {
	funcs, err := Funcs(a)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = asmTemplate.Execute(&buf, struct {
		Header string
		Arch   *isa.Arch
		Funcs  []Func
	}{Header, a, funcs})
	if err != nil {
		return nil, isa.WrapError("GEN", err)
	}
	return buf.Bytes(), nil
}

// Generate writes the assembly file of every arch in the table to dir.
func Generate(dir string) error {
	for i := range isa.Table {
		a := &isa.Table[i]
		src, err := Render(a)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, a.File)
		if err := os.WriteFile(path, src, 0o644); err != nil {
			return isa.WrapError("GEN", err)
		}
		logging.Info("generated fence table", "arch", a.Name, "file", path, "bytes", len(src))
	}
	return nil
}

// Parsed is the content of a generated assembly file as Verify sees it.
type Parsed struct {
	Generated bool
	Build     string
	Funcs     map[string][]string // symbol -> instruction lines, RET excluded
}

// Parse extracts the build constraint and the body of every TEXT
// symbol from Go assembly source.
func Parse(src []byte) (*Parsed, error) {
	p := &Parsed{Funcs: make(map[string][]string)}
	var cur string

	sc := bufio.NewScanner(bytes.NewReader(src))
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == Header:
			p.Generated = true
		case strings.HasPrefix(line, "//go:build "):
			p.Build = strings.TrimPrefix(line, "//go:build ")
		case line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#"):
		case strings.HasPrefix(line, "TEXT "):
			name, _, ok := strings.Cut(strings.TrimPrefix(line, "TEXT "), "(SB)")
			if !ok {
				return nil, fmt.Errorf("line %d: malformed TEXT directive %q", n, line)
			}
			cur = strings.TrimPrefix(strings.TrimSpace(name), "·")
			if _, dup := p.Funcs[cur]; dup {
				return nil, fmt.Errorf("line %d: duplicate symbol %s", n, cur)
			}
			p.Funcs[cur] = []string{}
		case line == "RET":
			cur = ""
		default:
			if cur == "" {
				return nil, fmt.Errorf("line %d: instruction outside a function: %q", n, line)
			}
			p.Funcs[cur] = append(p.Funcs[cur], line)
		}
	}
	return p, sc.Err()
}

// Verify checks that the committed assembly for a matches its table:
// same build constraint, same symbols, same instructions.
func Verify(dir string, a *isa.Arch) error {
	path := filepath.Join(dir, a.File)
	src, err := os.ReadFile(path)
	if err != nil {
		return isa.WrapError("VERIFY", err)
	}
	parsed, err := Parse(src)
	if err != nil {
		return isa.WrapError("VERIFY", fmt.Errorf("%s: %w", path, err))
	}
	funcs, err := Funcs(a)
	if err != nil {
		return err
	}

	stale := func(msg string) error {
		return &isa.Error{Op: "VERIFY", Arch: a.Name, Code: isa.ErrCodeStaleGenerated, Msg: a.File + ": " + msg}
	}
	if !parsed.Generated {
		return stale("missing generated-code header")
	}
	if parsed.Build != a.BuildConstraint() {
		return stale(fmt.Sprintf("build constraint %q, want %q", parsed.Build, a.BuildConstraint()))
	}
	if len(parsed.Funcs) != len(funcs) {
		return stale(fmt.Sprintf("%d functions, want %d", len(parsed.Funcs), len(funcs)))
	}
	for _, f := range funcs {
		body, ok := parsed.Funcs[f.Name]
		if !ok {
			return stale("missing " + f.Name)
		}
		want := f.Instruction.Asm
		if want == nil {
			want = []string{}
		}
		if !slices.Equal(body, want) {
			return stale(fmt.Sprintf("%s is %q, want %q", f.Name, body, want))
		}
	}
	return nil
}

// VerifyAll verifies every arch in the table against dir.
func VerifyAll(dir string) error {
	if err := isa.ValidateAll(); err != nil {
		return err
	}
	for i := range isa.Table {
		if err := Verify(dir, &isa.Table[i]); err != nil {
			return err
		}
	}
	return nil
}
