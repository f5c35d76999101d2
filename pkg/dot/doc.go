// Package dot turns a control-flow-graph view into Graphviz DOT text.
//
// # Usage
//
//	text := dot.Format(view, "Courier", 10)
//
// The output lists every edge statement first, then a blank line, then one
// box-shaped node per block whose label holds the block's lines, each
// prefixed with its address as eight lowercase hex digits:
//
//	digraph {
//	  asm_0 -> asm_1;
//
//	  asm_0[shape=box fontname="Courier" fontsize=10 label="00001000:  push rbp\l"];
//	  asm_1[shape=box fontname="Courier" fontsize=10 label="00001001:  ret\l"];
//	}
//
// Lines are left-justified with the \l escape. Double quotes and literal
// backslash-n sequences in instruction text are escaped so that the label
// survives intact. The font name and size are interpolated verbatim.
//
// [Format] is pure: identical inputs always produce byte-identical output.
package dot
