package dot

import (
	"fmt"
	"strings"

	"github.com/matzehuels/cfgdot/pkg/cfg"
)

// Defaults used when no configuration is available.
const (
	DefaultFont     = "Courier"
	DefaultFontSize = 10
)

// lineBreak is the left-justified line break understood inside DOT labels.
const lineBreak = `\l`

// labelEscaper escapes text that would otherwise end the label or be read as
// a centered line break.
var labelEscaper = strings.NewReplacer(`\n`, `\\n`, `"`, `\"`)

// Format renders v as DOT text using the given node font. A nil or empty view
// yields the bare "digraph {\n\n}" skeleton.
func Format(v *cfg.View, fontName string, fontSize int) string {
	attrs := fmt.Sprintf(`shape=box fontname="%s" fontsize=%d`, fontName, fontSize)

	var blocks []cfg.Block
	var viewKind cfg.Kind
	if v != nil {
		blocks = v.Blocks
		viewKind = v.Kind
	}

	out := []string{"digraph {"}
	for _, b := range blocks {
		for _, e := range b.Edges {
			out = append(out, fmt.Sprintf("  %s -> %s;", nodeName(b, viewKind), cfg.NodeName(kindOf(b, viewKind), e.Target)))
		}
	}
	out = append(out, "")
	for _, b := range blocks {
		out = append(out, fmt.Sprintf(`  %s[%s label="%s"];`, nodeName(b, viewKind), attrs, label(b)))
	}
	out = append(out, "}")

	return strings.Join(out, "\n")
}

func label(b cfg.Block) string {
	lines := make([]string, len(b.Lines))
	for i, l := range b.Lines {
		lines[i] = fmt.Sprintf("%08x:  %s", l.Address, l.Text)
	}
	return labelEscaper.Replace(strings.Join(lines, lineBreak)) + lineBreak
}

func nodeName(b cfg.Block, viewKind cfg.Kind) string {
	return cfg.NodeName(kindOf(b, viewKind), b.Index)
}

// kindOf prefers the block's own tag and falls back to the view's.
func kindOf(b cfg.Block, viewKind cfg.Kind) cfg.Kind {
	if b.Kind != "" {
		return b.Kind
	}
	if viewKind != "" {
		return viewKind
	}
	return cfg.KindAsm
}

// WithDPI adds a graph-level dpi attribute right after the opening brace.
// Renderers that cannot take a -Gdpi flag read the resolution from the text.
func WithDPI(text string, dpi int) string {
	i := strings.Index(text, "{")
	if i < 0 || dpi <= 0 {
		return text
	}
	return text[:i+1] + fmt.Sprintf("\n  graph [dpi=%d];", dpi) + text[i+1:]
}
