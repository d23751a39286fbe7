package compiler

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/foldr/internal/ir"
)

// Format identifies a program source format.
type Format string

const (
	FormatCUE  Format = "cue"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return FormatCUE, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported program file %q: expected .cue, .json, .yaml or .yml", path)
	}
}

// LoadFile reads and compiles a program file. The format is chosen by
// extension.
func LoadFile(path string) (*ir.Program, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program: %w", err)
	}
	return LoadBytes(data, format, path)
}

// LoadBytes compiles program source in the given format. name labels
// positions in error messages.
//
// A CUE source may hold the program at the top-level field "program" or be
// the program itself.
func LoadBytes(data []byte, format Format, name string) (*ir.Program, error) {
	switch format {
	case FormatCUE:
		ctx := cuecontext.New()
		v := ctx.CompileBytes(data, cue.Filename(name))
		if err := v.Err(); err != nil {
			return nil, formatCUEError(err)
		}
		if nested := v.LookupPath(cue.ParsePath("program")); nested.Exists() {
			v = nested
		}
		return CompileProgram(v)

	case FormatJSON:
		p, err := ir.UnmarshalProgram(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return p, nil

	case FormatYAML:
		var doc any
		dec := yaml.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: parse YAML: %w", name, err)
		}
		v, err := ir.FromAny(doc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		p, err := ir.ProgramFromValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return p, nil

	default:
		return nil, fmt.Errorf("unknown program format %q", format)
	}
}
