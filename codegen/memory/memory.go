// Package memory implements the per-function memory manager: the
// mapping from temporary name to storage Location, with a free-register
// pool and a pending next_locations queue feeding reserve().
package memory

import (
	"fmt"

	"github.com/nilang-go/nilangc/codegen/registers"
)

// LocationKind tags the variant carried by a Location.
type LocationKind int

const (
	InRegister LocationKind = iota
	OnStack
	Hardcoded
)

// Location is where a temporary's value lives: a register, a stack
// slot (in machine words from the frame base), or a fixed data-label
// name (used for the pre-seeded print format strings).
type Location struct {
	Kind     LocationKind
	Register registers.Register
	Slot     int
	Label    string
}

func (a Location) equal(b Location) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case InRegister:
		return a.Register == b.Register
	case OnStack:
		return a.Slot == b.Slot
	default:
		return a.Label == b.Label
	}
}

// Manager owns name -> Location for a single function's codegen pass.
type Manager struct {
	stackPosition int
	freeRegisters []registers.Register
	nextLocations []Location
	reservations  map[string]Location
}

// New returns a manager seeded exactly as the runtime expects: the
// default free-register pool, Rax queued as the first reservable
// location, and the two builtin print-format data labels pre-reserved.
func New() *Manager {
	m := &Manager{
		freeRegisters: append([]registers.Register(nil), registers.FreeOrder...),
		nextLocations: []Location{{Kind: InRegister, Register: registers.Rax}},
		reservations:  make(map[string]Location),
	}
	m.reservations["printi_format"] = Location{Kind: Hardcoded, Label: "printi_format"}
	m.reservations["printc_format"] = Location{Kind: Hardcoded, Label: "printc_format"}
	return m
}

// Reserve pops the head of next_locations and binds name to it,
// refilling the queue if it ran dry.
func (m *Manager) Reserve(name string) (Location, error) {
	location := m.nextLocations[0]
	m.nextLocations = m.nextLocations[1:]
	if err := m.ReserveLocation(name, location); err != nil {
		return Location{}, err
	}
	return location, nil
}

// ReserveNthFree extends next_locations until index n exists, then
// removes and binds that entry.
func (m *Manager) ReserveNthFree(name string, n int) (Location, error) {
	if need := n - (len(m.nextLocations) - 1); need > 0 {
		m.AddNNextLocations(need)
	}
	location := m.nextLocations[n]
	m.nextLocations = append(m.nextLocations[:n], m.nextLocations[n+1:]...)
	if err := m.ReserveLocation(name, location); err != nil {
		return Location{}, err
	}
	return location, nil
}

// ReserveLocation binds name to an explicit location, failing if it is
// already taken. Draws the register out of the free list if it holds
// one, removes the location from next_locations if queued there, and
// tops the queue back up if that emptied it.
func (m *Manager) ReserveLocation(name string, location Location) error {
	if m.IsTaken(location) {
		return fmt.Errorf("variable already exists: %s", name)
	}

	if location.Kind == InRegister {
		filtered := m.freeRegisters[:0:0]
		for _, r := range m.freeRegisters {
			if r != location.Register {
				filtered = append(filtered, r)
			}
		}
		m.freeRegisters = filtered
	}

	m.reservations[name] = location

	filtered := m.nextLocations[:0:0]
	for _, l := range m.nextLocations {
		if !l.equal(location) {
			filtered = append(filtered, l)
		}
	}
	m.nextLocations = filtered

	if len(m.nextLocations) == 0 {
		m.addNextLocation()
	}

	return nil
}

// Free releases name's location: a register returns to the free list, a
// stack slot becomes reusable by insertion at the head of
// next_locations so a just-freed slot is handed out before the manager
// grows the stack further.
func (m *Manager) Free(name string) {
	location, ok := m.reservations[name]
	if !ok {
		return
	}
	delete(m.reservations, name)

	if location.Kind == InRegister {
		m.freeRegisters = append(m.freeRegisters, location.Register)
	}
	m.nextLocations = append([]Location{location}, m.nextLocations...)
}

func (m *Manager) addNextLocation() {
	if n := len(m.freeRegisters); n > 0 {
		reg := m.freeRegisters[n-1]
		m.freeRegisters = m.freeRegisters[:n-1]
		m.nextLocations = append(m.nextLocations, Location{Kind: InRegister, Register: reg})
		return
	}
	m.nextLocations = append(m.nextLocations, Location{Kind: OnStack, Slot: m.stackPosition})
	m.stackPosition++
}

// AddNNextLocations appends n more pending locations to next_locations.
func (m *Manager) AddNNextLocations(n int) {
	for i := 0; i < n; i++ {
		m.addNextLocation()
	}
}

// GetLocation returns name's current location, if reserved.
func (m *Manager) GetLocation(name string) (Location, bool) {
	loc, ok := m.reservations[name]
	return loc, ok
}

// GetLocationOrErr is GetLocation with a VariableDoesNotExist-shaped
// error on miss.
func (m *Manager) GetLocationOrErr(name string) (Location, error) {
	loc, ok := m.reservations[name]
	if !ok {
		return Location{}, fmt.Errorf("variable does not exist: %s", name)
	}
	return loc, nil
}

// GetName returns the name currently bound to location, if any. Used by
// the calling convention's argument shuffle to find who currently
// occupies a location it needs to hand to someone else.
func (m *Manager) GetName(location Location) (string, bool) {
	for name, loc := range m.reservations {
		if loc.equal(location) {
			return name, true
		}
	}
	return "", false
}

// IsTaken reports whether any name currently holds location.
func (m *Manager) IsTaken(location Location) bool {
	_, ok := m.GetName(location)
	return ok
}

// StackPosition returns the current stack high-water mark, in machine
// words.
func (m *Manager) StackPosition() int { return m.stackPosition }

// ReserveScratchSlot binds name to a brand-new stack slot beyond the
// current high-water mark, bypassing the free-register pool and the
// pending next_locations queue entirely. Used by the calling
// convention's argument-shuffle eviction step so a scratch location can
// never collide with one of the locations still being shuffled into.
func (m *Manager) ReserveScratchSlot(name string) Location {
	location := Location{Kind: OnStack, Slot: m.stackPosition}
	m.stackPosition++
	m.reservations[name] = location
	return location
}
