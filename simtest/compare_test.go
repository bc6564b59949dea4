package simtest_test

import (
	"strings"
	"testing"

	"github.com/db47h/gatesim"
	"github.com/db47h/gatesim/simtest"
)

const xorNetlist = `{
  "modules": {
    "xor2": {
      "ports": {
        "a": {"direction": "input", "bits": [2]},
        "b": {"direction": "input", "bits": [3]},
        "y": {"direction": "output", "bits": [7]}
      },
      "cells": {
        "nand_ab": {"type": "NAND",
          "port_directions": {"A": "input", "B": "input", "Y": "output"},
          "connections": {"A": [2], "B": [3], "Y": [4]}},
        "nand_a": {"type": "NAND",
          "port_directions": {"A": "input", "B": "input", "Y": "output"},
          "connections": {"A": [2], "B": [4], "Y": [5]}},
        "nand_b": {"type": "NAND",
          "port_directions": {"A": "input", "B": "input", "Y": "output"},
          "connections": {"A": [3], "B": [4], "Y": [6]}},
        "nand_y": {"type": "NAND",
          "port_directions": {"A": "input", "B": "input", "Y": "output"},
          "connections": {"A": [5], "B": [6], "Y": [7]}}
      }
    }
  }
}`

func TestCompareRef(t *testing.T) {
	m, err := gatesim.Load(strings.NewReader(xorNetlist), "xor2", nil)
	if err != nil {
		t.Fatal(err)
	}
	d, err := gatesim.NewDesignFromModule(m, gatesim.Config{
		"a": {}, "b": {}, "y": {},
	})
	if err != nil {
		t.Fatal(err)
	}
	simtest.CompareRef(t, d, func(in map[string][][]int64) map[string][][]int64 {
		y := in["a"][0][0] ^ in["b"][0][0]
		return map[string][][]int64{"y": {{y}}}
	}, 16)
}
