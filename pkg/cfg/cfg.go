package cfg

import (
	"fmt"
	"strings"
)

// Kind identifies which representation a view belongs to.
type Kind string

// The four representation kinds. The string value doubles as the node id
// prefix in DOT output.
const (
	KindAsm  Kind = "asm"
	KindLLIL Kind = "llil"
	KindMLIL Kind = "mlil"
	KindHLIL Kind = "hlil"
)

// Kinds lists every kind in the order a user cycles through them.
var Kinds = []Kind{KindAsm, KindLLIL, KindMLIL, KindHLIL}

// displayNames maps each kind to the name shown in menus.
var displayNames = map[Kind]string{
	KindAsm:  "Disassembly",
	KindLLIL: "LLIL",
	KindMLIL: "MLIL",
	KindHLIL: "HLIL",
}

// DisplayName returns the menu label for k ("Disassembly", "LLIL", ...).
func (k Kind) DisplayName() string {
	if name, ok := displayNames[k]; ok {
		return name
	}
	return string(k)
}

// Valid reports whether k is one of the four known kinds.
func (k Kind) Valid() bool {
	_, ok := displayNames[k]
	return ok
}

// Next returns the kind after k in [Kinds], wrapping around.
func (k Kind) Next() Kind {
	for i, kind := range Kinds {
		if kind == k {
			return Kinds[(i+1)%len(Kinds)]
		}
	}
	return KindAsm
}

// ParseKind accepts either the canonical tag ("asm", "hlil") or the display
// name ("Disassembly", "HLIL"), case-insensitively.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if s == string(k) || s == strings.ToLower(k.DisplayName()) {
			return k, nil
		}
	}
	if s == "disasm" || s == "raw" {
		return KindAsm, nil
	}
	return "", fmt.Errorf("unknown view kind %q (want asm, llil, mlil or hlil)", s)
}

// Line is one line of disassembly or IL text.
type Line struct {
	Address uint64 `json:"address" yaml:"address"`
	Text    string `json:"text" yaml:"text"`
}

// Edge is an outgoing control-flow edge. Target is the index of a block in
// the same view.
type Edge struct {
	Target int `json:"target" yaml:"target"`
}

// Block is a basic block within one view.
type Block struct {
	Index int    `json:"index" yaml:"index"`
	Kind  Kind   `json:"kind,omitempty" yaml:"kind,omitempty"`
	Lines []Line `json:"lines" yaml:"lines"`
	Edges []Edge `json:"edges,omitempty" yaml:"edges,omitempty"`
}

// NodeName returns the DOT node identifier of the block, "<kind>_<index>".
func (b Block) NodeName() string {
	return NodeName(b.Kind, b.Index)
}

// NodeName formats the DOT node identifier for a block of kind k.
func NodeName(k Kind, index int) string {
	return fmt.Sprintf("%s_%d", k, index)
}

// View is one representation of a function: a kind and its ordered blocks.
type View struct {
	Kind   Kind    `json:"kind" yaml:"kind"`
	Blocks []Block `json:"blocks" yaml:"blocks"`
}

// Function is the host's handle on a disassembled function.
type Function interface {
	// Name is the symbol name of the function.
	Name() string
	// View returns the representation of the given kind. Hosts return an
	// error when they cannot produce that level.
	View(k Kind) (*View, error)
}

// Stats summarizes the size of a view.
type Stats struct {
	Blocks int
	Edges  int
	Lines  int
}

// StatsOf counts blocks, edges and lines in v. A nil view has zero stats.
func StatsOf(v *View) Stats {
	var s Stats
	if v == nil {
		return s
	}
	s.Blocks = len(v.Blocks)
	for _, b := range v.Blocks {
		s.Edges += len(b.Edges)
		s.Lines += len(b.Lines)
	}
	return s
}
