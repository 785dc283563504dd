// Package netlist holds the structural gate-level design: cells, pins,
// and nets, as arenas of values indexed by typed IDs (geom.CellID,
// geom.PinID, geom.NetID) rather than as a web of owning pointers.
//
// This mirrors the teacher's core.Graph arena (vertices/edges held in
// slices, referenced by ID, mutated under a single owner) adapted to the
// fixed three-level hierarchy the netlist needs — Cell owns Pins, Net
// references Pins — without the cyclic ownership (pin -> cell -> pin...)
// the original C++ model uses raw/smart pointers for. A Design is the
// sole owner of all three arenas; nothing else mutates them directly.
package netlist

import (
	"errors"
	"fmt"

	"github.com/minieda/minieda/geom"
)

// Sentinel errors. Callers branch with errors.Is; never string-compare.
var (
	ErrDuplicateCellName = errors.New("netlist: duplicate cell name")
	ErrDuplicateNetName  = errors.New("netlist: duplicate net name")
	ErrCellNotFound      = errors.New("netlist: cell not found")
	ErrPinNotFound       = errors.New("netlist: pin not found")
	ErrNetNotFound       = errors.New("netlist: net not found")
	ErrPinAlreadyBound   = errors.New("netlist: pin already bound to a net")
	ErrMultipleDrivers   = errors.New("netlist: net already has a driver pin")
	ErrNotAnOutputPin    = errors.New("netlist: driver pin must be an output")
	ErrCrossDesign       = errors.New("netlist: pin belongs to a different design")
)

// Direction is a pin's signal direction.
type Direction int

const (
	DirIn Direction = iota
	DirOut
	DirInout
)

func (d Direction) String() string {
	switch d {
	case DirIn:
		return "in"
	case DirOut:
		return "out"
	case DirInout:
		return "inout"
	default:
		return "unknown"
	}
}

// Pin is one terminal of a Cell, optionally bound to a Net.
type Pin struct {
	Name  string
	Cell  geom.CellID
	Dir   Direction
	Net   geom.NetID // geom.InvalidID if unbound
	Index int        // position within owning cell's pin list
}

// Cell is a netlist instance: a name, a library type, and an ordered pin
// list. Physical placement lives in placerdb.PlacerDB, not here; Fixed
// only marks whether this cell is an I/O port/pad that placerdb must
// never move.
type Cell struct {
	Name  string
	Type  string
	Pins  []geom.PinID
	Fixed bool
}

// Net is a named signal with exactly one driver pin and zero or more load
// pins, per spec.md §3's invariant.
type Net struct {
	Name   string
	Driver geom.PinID // geom.InvalidID until Connect binds an output
	Loads  []geom.PinID
}

// PowerNetNames lists signal names treated as out-of-scope for routing
// (spec.md §3); callers skip these when building the routing net list.
var PowerNetNames = map[string]bool{"VDD": true, "VSS": true, "GND": true}

// Design is the arena owner for a single netlist: all Cells, Pins, and
// Nets for one design live here, indexed by their typed IDs.
type Design struct {
	cells    []Cell
	pins     []Pin
	nets     []Net
	cellByNm map[string]geom.CellID
	netByNm  map[string]geom.NetID
}

// NewDesign returns an empty Design ready for AddCell/AddNet calls.
func NewDesign() *Design {
	return &Design{
		cellByNm: make(map[string]geom.CellID),
		netByNm:  make(map[string]geom.NetID),
	}
}

// AddCell registers a new cell of the given library type with the given
// pin names/directions (in declaration order) and returns its ID.
// Returns ErrDuplicateCellName if name is already used.
func (d *Design) AddCell(name, cellType string, pinSpecs []PinSpec) (geom.CellID, error) {
	if _, exists := d.cellByNm[name]; exists {
		return geom.InvalidID, fmt.Errorf("%w: %q", ErrDuplicateCellName, name)
	}
	id := geom.CellID(len(d.cells))
	cell := Cell{Name: name, Type: cellType}
	for i, spec := range pinSpecs {
		pinID := geom.PinID(len(d.pins))
		d.pins = append(d.pins, Pin{
			Name:  spec.Name,
			Cell:  id,
			Dir:   spec.Dir,
			Net:   geom.InvalidID,
			Index: i,
		})
		cell.Pins = append(cell.Pins, pinID)
	}
	d.cells = append(d.cells, cell)
	d.cellByNm[name] = id
	return id, nil
}

// PinSpec declares one pin when constructing a Cell.
type PinSpec struct {
	Name string
	Dir  Direction
}

// SetFixed marks a cell as fixed (I/O port/pad) or movable.
func (d *Design) SetFixed(id geom.CellID, fixed bool) error {
	if int(id) < 0 || int(id) >= len(d.cells) {
		return ErrCellNotFound
	}
	d.cells[id].Fixed = fixed
	return nil
}

// AddNet registers a new, initially-driverless net and returns its ID.
// Returns ErrDuplicateNetName if name is already used.
func (d *Design) AddNet(name string) (geom.NetID, error) {
	if _, exists := d.netByNm[name]; exists {
		return geom.InvalidID, fmt.Errorf("%w: %q", ErrDuplicateNetName, name)
	}
	id := geom.NetID(len(d.nets))
	d.nets = append(d.nets, Net{Name: name, Driver: geom.InvalidID})
	d.netByNm[name] = id
	return id, nil
}

// Connect binds pin to net. An output pin becomes the net's driver (fails
// with ErrMultipleDrivers if one is already set); any other direction is
// appended to the net's load list. Fails with ErrPinAlreadyBound if the
// pin is already connected to a net.
func (d *Design) Connect(pinID geom.PinID, netID geom.NetID) error {
	if int(pinID) < 0 || int(pinID) >= len(d.pins) {
		return ErrPinNotFound
	}
	if int(netID) < 0 || int(netID) >= len(d.nets) {
		return ErrNetNotFound
	}
	pin := &d.pins[pinID]
	if pin.Net != geom.InvalidID {
		return fmt.Errorf("%w: pin %s.%s", ErrPinAlreadyBound, d.cells[pin.Cell].Name, pin.Name)
	}
	net := &d.nets[netID]
	if pin.Dir == DirOut {
		if net.Driver != geom.InvalidID {
			return fmt.Errorf("%w: net %s", ErrMultipleDrivers, net.Name)
		}
		net.Driver = pinID
	} else {
		net.Loads = append(net.Loads, pinID)
	}
	pin.Net = netID
	return nil
}

// Cell returns a copy of the cell at id.
func (d *Design) Cell(id geom.CellID) (Cell, error) {
	if int(id) < 0 || int(id) >= len(d.cells) {
		return Cell{}, ErrCellNotFound
	}
	return d.cells[id], nil
}

// Pin returns a copy of the pin at id.
func (d *Design) Pin(id geom.PinID) (Pin, error) {
	if int(id) < 0 || int(id) >= len(d.pins) {
		return Pin{}, ErrPinNotFound
	}
	return d.pins[id], nil
}

// Net returns a copy of the net at id.
func (d *Design) Net(id geom.NetID) (Net, error) {
	if int(id) < 0 || int(id) >= len(d.nets) {
		return Net{}, ErrNetNotFound
	}
	return d.nets[id], nil
}

// CellByName looks up a cell ID by its unique name.
func (d *Design) CellByName(name string) (geom.CellID, bool) {
	id, ok := d.cellByNm[name]
	return id, ok
}

// NetByName looks up a net ID by its unique name.
func (d *Design) NetByName(name string) (geom.NetID, bool) {
	id, ok := d.netByNm[name]
	return id, ok
}

// NumCells returns the number of registered cells.
func (d *Design) NumCells() int { return len(d.cells) }

// NumNets returns the number of registered nets.
func (d *Design) NumNets() int { return len(d.nets) }

// NumPins returns the number of registered pins.
func (d *Design) NumPins() int { return len(d.pins) }

// CellIDs returns all cell IDs in declaration order.
func (d *Design) CellIDs() []geom.CellID {
	ids := make([]geom.CellID, len(d.cells))
	for i := range d.cells {
		ids[i] = geom.CellID(i)
	}
	return ids
}

// NetIDs returns all net IDs in declaration order.
func (d *Design) NetIDs() []geom.NetID {
	ids := make([]geom.NetID, len(d.nets))
	for i := range d.nets {
		ids[i] = geom.NetID(i)
	}
	return ids
}

// RoutableNetIDs returns NetIDs() excluding power/ground nets (spec.md §3).
func (d *Design) RoutableNetIDs() []geom.NetID {
	var ids []geom.NetID
	for i, n := range d.nets {
		if !PowerNetNames[n.Name] {
			ids = append(ids, geom.NetID(i))
		}
	}
	return ids
}

// NetPins returns the driver pin (if bound) followed by all load pins of
// a net — i.e. every pin touching the net.
func (d *Design) NetPins(id geom.NetID) ([]geom.PinID, error) {
	net, err := d.Net(id)
	if err != nil {
		return nil, err
	}
	pins := make([]geom.PinID, 0, len(net.Loads)+1)
	if net.Driver != geom.InvalidID {
		pins = append(pins, net.Driver)
	}
	pins = append(pins, net.Loads...)
	return pins, nil
}
