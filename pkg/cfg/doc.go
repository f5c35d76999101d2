// Package cfg models the control-flow-graph views of a disassembled function.
//
// # Overview
//
// A disassembler offers several alternate representations of the same
// function: raw disassembly and three intermediate-representation levels.
// Each representation is a [View]: an ordered list of [Block] values, each
// carrying its text lines and its outgoing edges.
//
// Rather than modelling the four representations as four distinct types, a
// view is a single tagged variant: a [Kind] plus its blocks. The formatter in
// package dot works on any view without caring which level it came from.
//
// # Hosts
//
// Views are supplied by a [Function], normally loaded from a function export
// by package host. Views are read-only and are fetched again whenever the
// selected kind changes.
package cfg
