// Copyright 2024 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package gatesim is a 2-state gate-level netlist simulator.
//
// It consumes the JSON netlist emitted by a synthesis tool, builds an
// in-memory dataflow representation of the design and evaluates it cycle
// by cycle, driven by externally supplied port values. Per-net rising and
// falling transition counters approximate dynamic switching activity, and
// a per-cell area figure from the cell library aggregates into module
// area.
//
// Evaluation is purely topological: the loader rejects combinational
// feedback up front, so one pass over the cells settles the design and
// there is no event queue, timestamp or delta cycle.
package gatesim
