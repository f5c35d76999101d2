// Package host loads function exports produced by the disassembler.
//
// The disassembler side is a small script that walks one function's four
// graph views and dumps them as JSON or YAML:
//
//	{
//	  "name": "main",
//	  "views": {
//	    "asm":  {"blocks": [{"index": 0, "lines": [{"address": 4096, "text": "push rbp"}], "edges": [1]}]},
//	    "hlil": {"blocks": [...]}
//	  }
//	}
//
// Edges are listed as target block indices. Views the host could not produce
// are simply left out; asking for them yields a VIEW_UNAVAILABLE error.
package host

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/cfgdot/pkg/cfg"
	"github.com/matzehuels/cfgdot/pkg/errors"
)

// document is the on-disk shape of a function export.
type document struct {
	Name  string             `json:"name" yaml:"name"`
	Views map[string]docView `json:"views" yaml:"views"`
}

type docView struct {
	Blocks []docBlock `json:"blocks" yaml:"blocks"`
}

type docBlock struct {
	Index int        `json:"index" yaml:"index"`
	Lines []cfg.Line `json:"lines" yaml:"lines"`
	Edges []int      `json:"edges" yaml:"edges"`
}

// Function is a cfg.Function backed by a decoded export.
type Function struct {
	name  string
	views map[cfg.Kind]*cfg.View
}

// Name returns the function's symbol name.
func (f *Function) Name() string { return f.name }

// View returns the view of kind k. Each call returns a fresh copy so callers
// may hold on to it while the export is reloaded.
func (f *Function) View(k cfg.Kind) (*cfg.View, error) {
	v, ok := f.views[k]
	if !ok {
		return nil, errors.New(errors.ErrCodeViewUnavailable, "%s view not available for %s", k.DisplayName(), f.name)
	}
	out := &cfg.View{Kind: v.Kind, Blocks: make([]cfg.Block, len(v.Blocks))}
	copy(out.Blocks, v.Blocks)
	return out, nil
}

// Kinds lists the views present in the export, in UI order.
func (f *Function) Kinds() []cfg.Kind {
	var kinds []cfg.Kind
	for _, k := range cfg.Kinds {
		if _, ok := f.views[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

var _ cfg.Function = (*Function)(nil)

// Load reads a function export from path. The format follows the file
// extension: .yaml/.yml is YAML, everything else JSON.
func Load(path string) (*Function, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "function export %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(data)
	default:
		return DecodeJSON(data)
	}
}

// DecodeJSON decodes a JSON function export.
func DecodeJSON(data []byte) (*Function, error) {
	var doc document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidExport, err, "decode JSON export")
	}
	return fromDocument(doc)
}

// DecodeYAML decodes a YAML function export.
func DecodeYAML(data []byte) (*Function, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidExport, err, "decode YAML export")
	}
	return fromDocument(doc)
}

// fromDocument stamps each block with the kind of the view it came from.
func fromDocument(doc document) (*Function, error) {
	f := &Function{name: doc.Name, views: make(map[cfg.Kind]*cfg.View, len(doc.Views))}
	if f.name == "" {
		f.name = "sub"
	}

	for key, dv := range doc.Views {
		kind, err := cfg.ParseKind(key)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidExport, err, "view %q", key)
		}
		if _, dup := f.views[kind]; dup {
			return nil, errors.New(errors.ErrCodeInvalidExport, "view %q duplicates another %s view", key, kind)
		}
		v := &cfg.View{Kind: kind, Blocks: make([]cfg.Block, 0, len(dv.Blocks))}
		for _, db := range dv.Blocks {
			b := cfg.Block{Index: db.Index, Kind: kind, Lines: db.Lines}
			for _, target := range db.Edges {
				b.Edges = append(b.Edges, cfg.Edge{Target: target})
			}
			v.Blocks = append(v.Blocks, b)
		}
		f.views[kind] = v
	}
	return f, nil
}

// NewFunction builds a Function from views already in memory. Used by tests
// and by callers that construct views programmatically.
func NewFunction(name string, views ...*cfg.View) *Function {
	f := &Function{name: name, views: make(map[cfg.Kind]*cfg.View, len(views))}
	for _, v := range views {
		f.views[v.Kind] = v
	}
	return f
}
