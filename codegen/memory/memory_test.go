package memory

import (
	"testing"

	"github.com/nilang-go/nilangc/codegen/registers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeedsHardcodedFormatsAndRaxQueue(t *testing.T) {
	m := New()

	loc, ok := m.GetLocation("printi_format")
	require.True(t, ok)
	assert.Equal(t, Location{Kind: Hardcoded, Label: "printi_format"}, loc)

	loc, ok = m.GetLocation("printc_format")
	require.True(t, ok)
	assert.Equal(t, Location{Kind: Hardcoded, Label: "printc_format"}, loc)

	loc, err := m.Reserve("result")
	require.NoError(t, err)
	assert.Equal(t, Location{Kind: InRegister, Register: registers.Rax}, loc)
}

func TestReservePullsFromFreeRegistersAfterRax(t *testing.T) {
	m := New()

	first, err := m.Reserve("a")
	require.NoError(t, err)
	assert.Equal(t, registers.Rax, first.Register)

	second, err := m.Reserve("b")
	require.NoError(t, err)
	assert.Equal(t, InRegister, second.Kind)
	assert.Equal(t, registers.Rbx, second.Register, "Rbx is the top of FreeOrder's reverse-pop order")
}

func TestReserveLocationRejectsAlreadyTaken(t *testing.T) {
	m := New()
	loc := Location{Kind: InRegister, Register: registers.Rbx}
	require.NoError(t, m.ReserveLocation("a", loc))

	err := m.ReserveLocation("b", loc)
	assert.Error(t, err)
}

func TestFreeReturnsRegisterToPoolAndHeadOfQueue(t *testing.T) {
	m := New()
	loc, err := m.ReserveNthFree("a", 0)
	require.NoError(t, err)

	m.Free("a")

	_, ok := m.GetLocation("a")
	assert.False(t, ok, "freed name no longer resolves")

	next, err := m.Reserve("b")
	require.NoError(t, err)
	assert.Equal(t, loc, next, "freed location is handed out again before the manager grows the stack")
}

func TestReserveNthFreeExtendsQueueAsNeeded(t *testing.T) {
	m := New()

	loc, err := m.ReserveNthFree("c", 3)
	require.NoError(t, err)
	assert.NotEqual(t, Location{}, loc)

	_, ok := m.GetLocation("c")
	assert.True(t, ok)
}

func TestAddNNextLocationsSpillsToStackOnceRegistersExhausted(t *testing.T) {
	m := New()
	m.AddNNextLocations(len(registers.FreeOrder) + 2)

	sawStack := false
	for name := 0; ; name++ {
		if len(m.nextLocations) == 0 {
			break
		}
		loc := m.nextLocations[0]
		m.nextLocations = m.nextLocations[1:]
		if loc.Kind == OnStack {
			sawStack = true
			break
		}
	}
	assert.True(t, sawStack, "exhausting the free-register pool must fall back to stack slots")
}

func TestGetNameFindsOccupant(t *testing.T) {
	m := New()
	loc, err := m.Reserve("x")
	require.NoError(t, err)

	name, ok := m.GetName(loc)
	require.True(t, ok)
	assert.Equal(t, "x", name)

	_, ok = m.GetName(Location{Kind: InRegister, Register: registers.R9})
	assert.False(t, ok)
}

func TestReserveScratchSlotNeverCollidesWithPendingLocations(t *testing.T) {
	m := New()
	before := m.StackPosition()

	scratch := m.ReserveScratchSlot("@scratch")
	assert.Equal(t, OnStack, scratch.Kind)
	assert.Equal(t, before, scratch.Slot)
	assert.Equal(t, before+1, m.StackPosition())

	for _, pending := range m.nextLocations {
		assert.False(t, pending.equal(scratch), "a freshly reserved scratch slot must never already be queued")
	}
}

func TestGetLocationOrErrReportsMissingName(t *testing.T) {
	m := New()
	_, err := m.GetLocationOrErr("missing")
	assert.Error(t, err)
}
