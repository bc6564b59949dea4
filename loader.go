// Copyright 2024 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package gatesim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Netlist document model. Only the keys with simulation semantics are
// decoded; netnames contribute debugging labels.

type jsonNetlist struct {
	Modules map[string]*jsonModule `json:"modules"`
}

type jsonModule struct {
	Ports    map[string]*jsonPort `json:"ports"`
	Cells    map[string]*jsonCell `json:"cells"`
	Netnames map[string]*jsonNet  `json:"netnames"`
}

type jsonPort struct {
	Direction string   `json:"direction"`
	Bits      []bitRef `json:"bits"`
}

type jsonCell struct {
	Type           string              `json:"type"`
	PortDirections map[string]string   `json:"port_directions"`
	Connections    map[string][]bitRef `json:"connections"`
}

type jsonNet struct {
	Bits []bitRef `json:"bits"`
}

// A bitRef is one entry of a bits array: a net id >= 2, or the constant
// literal "0" or "1".
type bitRef struct {
	id      int
	cst     Bit
	isConst bool
}

func (b *bitRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errf(KindNetlistParse, "", "bad bit entry %s", data)
		}
		switch s {
		case "0":
			b.isConst, b.cst = true, false
		case "1":
			b.isConst, b.cst = true, true
		default:
			return errf(KindBadConstantLiteral, s, `constant bit must be "0" or "1"`)
		}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return errf(KindBadConstantLiteral, string(data), `bit entry must be an integer net id or "0"/"1"`)
	}
	if n < 2 {
		return errf(KindBadConstantLiteral, strconv.Itoa(n), "net ids 0 and 1 are reserved for constants")
	}
	b.id = n
	return nil
}

func constSig(b Bit) sigID {
	if b {
		return sigConst1
	}
	return sigConst0
}

func parseDir(s string) (Dir, error) {
	switch s {
	case "input":
		return DirInput, nil
	case "output":
		return DirOutput, nil
	case "inout":
		return DirInOut, nil
	}
	return 0, errf(KindNetlistParse, s, "invalid port direction")
}

// Load builds the module tree rooted at top from a netlist document,
// resolving cell types against lib (the default library when lib is nil).
// Cell instances whose type names another module of the document become
// nested sub-modules; library cell types take precedence on collisions.
func Load(r io.Reader, top string, lib *Library) (*Module, error) {
	if lib == nil {
		lib = DefaultLibrary()
	}
	var doc jsonNetlist
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		if KindOf(err) != KindNone {
			return nil, err
		}
		return nil, errf(KindNetlistParse, "", "%v", err)
	}
	if doc.Modules[top] == nil {
		return nil, errf(KindNetlistParse, top, "top module not found in document")
	}
	ld := &loader{doc: &doc, lib: lib, t: newSigTable(), drivers: make(map[sigID]string)}
	m, err := ld.build(top, top, top, nil)
	if err != nil {
		return nil, err
	}
	// Input port bits of the top module are driven externally; an internal
	// driver on one is a conflict. Inout bits accept an internal driver.
	for _, p := range m.ports {
		if p.dir != DirInput {
			continue
		}
		for i, id := range p.bits {
			if d, ok := ld.drivers[id]; ok {
				return nil, errf(KindMultiDriver, ld.t.name(id),
					"input port %s bit %d also driven by %s", p.name, i, d)
			}
		}
	}
	return m, nil
}

// LoadFile is Load on the contents of path.
func LoadFile(path, top string, lib *Library) (*Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open netlist")
	}
	defer f.Close()
	return Load(f, top, lib)
}

type loader struct {
	doc     *jsonNetlist
	lib     *Library
	t       *sigTable
	drivers map[sigID]string
	stack   []string // module names on the instantiation path
}

// driver records desc as the single writer of net id.
func (ld *loader) driver(id sigID, desc string) error {
	if id == sigConst0 || id == sigConst1 {
		return errf(KindMultiDriver, desc, "drives a constant net")
	}
	if d, ok := ld.drivers[id]; ok {
		ident := ld.t.name(id)
		if ident == "" {
			ident = "net"
		}
		return errf(KindMultiDriver, ident, "driven by both %s and %s", d, desc)
	}
	ld.drivers[id] = desc
	return nil
}

// build materializes module name as instance inst at path. conns maps the
// instance's port names to parent signals; it is nil for the top module.
// Bound port bits alias the parent signals directly.
func (ld *loader) build(name, inst, path string, conns map[string][]sigID) (*Module, error) {
	jm := ld.doc.Modules[name]
	if jm == nil {
		return nil, errf(KindNetlistParse, name, "module not found")
	}
	for _, s := range ld.stack {
		if s == name {
			return nil, errf(KindNetlistParse, name, "recursive module instantiation")
		}
	}
	ld.stack = append(ld.stack, name)
	defer func() { ld.stack = ld.stack[:len(ld.stack)-1] }()

	m := &Module{name: name, inst: inst, path: path, t: ld.t, byname: make(map[string]*Port)}
	sigmap := make(map[int]sigID)
	alloc := func(b bitRef) sigID {
		if b.isConst {
			return constSig(b.cst)
		}
		id, ok := sigmap[b.id]
		if !ok {
			id = ld.t.alloc()
			sigmap[b.id] = id
			m.owned = append(m.owned, id)
		}
		return id
	}

	var implicit []*Cell

	bindPort := func(pname string, conn []sigID) error {
		jp := jm.Ports[pname]
		dir, err := parseDir(jp.Direction)
		if err != nil {
			return err
		}
		if conn != nil && len(conn) != len(jp.Bits) {
			return errf(KindPortWidthMismatch, pname,
				"module %s declares %d bits, instance %s connects %d", name, len(jp.Bits), inst, len(conn))
		}
		p := &Port{name: pname, dir: dir, t: ld.t, bits: make([]sigID, 0, len(jp.Bits))}
		for i, b := range jp.Bits {
			var id sigID
			switch {
			case conn == nil:
				id = alloc(b)
			case b.isConst:
				id = constSig(b.cst)
				if dir != DirInput {
					// constant driven out of the module
					bufName := fmt.Sprintf("$%s$%s[%d]", inst, pname, i)
					if err := ld.driver(conn[i], bufName); err != nil {
						return err
					}
					implicit = append(implicit, &Cell{
						name: bufName, spec: defaultLib.Lookup("BUF"),
						in: []sigID{id}, out: []sigID{conn[i]}, rst: -1,
					})
				}
			default:
				if exist, ok := sigmap[b.id]; ok {
					if exist == conn[i] {
						id = exist
						break
					}
					if dir == DirInput {
						return errf(KindMultiDriver, pname,
							"bit %d of instance %s bound to two parent nets", i, inst)
					}
					// input-to-output feedthrough: forward the aliased
					// input onto the parent net through a buffer
					bufName := fmt.Sprintf("$%s$%s[%d]", inst, pname, i)
					if err := ld.driver(conn[i], bufName); err != nil {
						return err
					}
					implicit = append(implicit, &Cell{
						name: bufName, spec: defaultLib.Lookup("BUF"),
						in: []sigID{exist}, out: []sigID{conn[i]}, rst: -1,
					})
					id = exist
				} else {
					id = conn[i]
					sigmap[b.id] = id
				}
			}
			p.bits = append(p.bits, id)
			if !b.isConst && ld.t.name(id) == "" {
				if len(jp.Bits) > 1 {
					ld.t.setName(id, fmt.Sprintf("%s[%d]", pname, i))
				} else {
					ld.t.setName(id, pname)
				}
			}
		}
		// default element type: a single machine-word element when the
		// port fits one, else one element per bit
		if w := len(p.bits); w > 0 && w <= 64 {
			p.rows, p.cols, p.width = 1, 1, w
		} else {
			p.rows, p.cols, p.width = 1, len(p.bits), 1
		}
		m.ports = append(m.ports, p)
		m.byname[pname] = p
		return nil
	}

	// bind inputs before outputs so that feedthrough bits alias their
	// driving side first
	portNames := sortedKeys(jm.Ports)
	for _, pname := range portNames {
		if jm.Ports[pname].Direction != "output" {
			if err := bindPort(pname, conns[pname]); err != nil {
				return nil, err
			}
		}
	}
	for _, pname := range portNames {
		if jm.Ports[pname].Direction == "output" {
			if err := bindPort(pname, conns[pname]); err != nil {
				return nil, err
			}
		}
	}

	// debugging labels
	for _, nname := range sortedKeys(jm.Netnames) {
		bits := jm.Netnames[nname].Bits
		for i, b := range bits {
			if b.isConst {
				continue
			}
			id := alloc(b)
			if ld.t.name(id) != "" {
				continue
			}
			if len(bits) > 1 {
				ld.t.setName(id, fmt.Sprintf("%s[%d]", nname, i))
			} else {
				ld.t.setName(id, nname)
			}
		}
	}

	var nodes []topoNode
	for _, cname := range sortedKeys(jm.Cells) {
		jc := jm.Cells[cname]
		if spec := ld.lib.Lookup(jc.Type); spec != nil {
			cell, err := ld.buildCell(cname, jc, spec, alloc)
			if err != nil {
				return nil, err
			}
			if spec.Sequential {
				m.seq = append(m.seq, cell)
			} else {
				nodes = append(nodes, topoNode{
					name: cname, comp: &Component{cell: cell}, ins: cell.in, outs: cell.out,
				})
			}
			continue
		}
		if _, ok := ld.doc.Modules[jc.Type]; ok {
			node, err := ld.buildSub(cname, jc, path, alloc)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
			continue
		}
		return nil, errf(KindUnknownCellType, jc.Type, "cell %s in module %s", cname, name)
	}
	for _, c := range implicit {
		nodes = append(nodes, topoNode{name: c.name, comp: &Component{cell: c}, ins: c.in, outs: c.out})
	}

	order, err := sortComponents(nodes)
	if err != nil {
		return nil, err
	}
	m.comps = order
	return m, nil
}

// buildCell binds a library cell instance, checking its pins against the
// library declaration.
func (ld *loader) buildCell(cname string, jc *jsonCell, spec *CellSpec, alloc func(bitRef) sigID) (*Cell, error) {
	npins := len(spec.Inputs) + len(spec.Outputs)
	if len(jc.Connections) != npins {
		return nil, errf(KindPinMismatch, cname,
			"%d pins connected, type %s declares %d", len(jc.Connections), spec.Type, npins)
	}
	if len(jc.PortDirections) != npins {
		return nil, errf(KindPinMismatch, cname,
			"port_directions lists %d pins, type %s declares %d", len(jc.PortDirections), spec.Type, npins)
	}
	pin := func(p Pin, dir string) ([]sigID, error) {
		if d, ok := jc.PortDirections[p.Name]; !ok || d != dir {
			return nil, errf(KindPinMismatch, cname, "pin %s of type %s must be an %s", p.Name, spec.Type, dir)
		}
		conn, ok := jc.Connections[p.Name]
		if !ok {
			return nil, errf(KindPinMismatch, cname, "pin %s of type %s not connected", p.Name, spec.Type)
		}
		if len(conn) != p.Width {
			return nil, errf(KindPinMismatch, cname,
				"pin %s of type %s is %d bits wide, %d connected", p.Name, spec.Type, p.Width, len(conn))
		}
		ids := make([]sigID, len(conn))
		for i, b := range conn {
			ids[i] = alloc(b)
		}
		return ids, nil
	}

	c := &Cell{name: cname, spec: spec, rst: -1}
	for _, p := range spec.Inputs {
		ids, err := pin(p, "input")
		if err != nil {
			return nil, err
		}
		switch {
		case spec.Sequential && p.Name == spec.ClockPin:
			c.clk = ids[0]
		case spec.Sequential && spec.ResetPin != "" && p.Name == spec.ResetPin:
			c.rst = ids[0]
		default:
			c.in = append(c.in, ids...)
		}
	}
	for _, p := range spec.Outputs {
		ids, err := pin(p, "output")
		if err != nil {
			return nil, err
		}
		for i, id := range ids {
			if err := ld.driver(id, fmt.Sprintf("%s.%s[%d]", cname, p.Name, i)); err != nil {
				return nil, err
			}
		}
		c.out = append(c.out, ids...)
	}
	return c, nil
}

// buildSub instantiates a document module as a nested component. The
// child's port bits alias the parent signals of the connections.
func (ld *loader) buildSub(cname string, jc *jsonCell, parentPath string, alloc func(bitRef) sigID) (topoNode, error) {
	jm := ld.doc.Modules[jc.Type]
	if len(jc.Connections) != len(jm.Ports) {
		return topoNode{}, errf(KindPinMismatch, cname,
			"%d ports connected, module %s declares %d", len(jc.Connections), jc.Type, len(jm.Ports))
	}
	node := topoNode{name: cname}
	conns := make(map[string][]sigID, len(jm.Ports))
	for _, pname := range sortedKeys(jm.Ports) {
		jp := jm.Ports[pname]
		conn, ok := jc.Connections[pname]
		if !ok {
			return topoNode{}, errf(KindPinMismatch, cname, "port %s of module %s not connected", pname, jc.Type)
		}
		if d, ok := jc.PortDirections[pname]; !ok || d != jp.Direction {
			return topoNode{}, errf(KindPinMismatch, cname,
				"port %s of module %s must be an %s", pname, jc.Type, jp.Direction)
		}
		ids := make([]sigID, len(conn))
		for i, b := range conn {
			ids[i] = alloc(b)
		}
		conns[pname] = ids
		switch jp.Direction {
		case "input":
			node.ins = append(node.ins, ids...)
		case "output":
			node.outs = append(node.outs, ids...)
		default: // inout: order consumers after the instance
			node.ins = append(node.ins, ids...)
			node.outs = append(node.outs, ids...)
		}
	}
	sub, err := ld.build(jc.Type, cname, parentPath+"."+cname, conns)
	if err != nil {
		return topoNode{}, err
	}
	node.comp = &Component{mod: sub}
	return node, nil
}
