// Package ir defines the linear instruction stream the transformer emits
// and the scratchpads (temporaries, labels, data pool) shared across a
// function's lowering.
package ir

import (
	"fmt"

	"github.com/nilang-go/nilangc/ast"
)

// Kind tags an Instruction's operation.
type Kind int

const (
	Declare Kind = iota
	LoadBoolean
	LoadNumber
	LoadChar
	LoadStringLocation
	Copy
	TakeArgument
	AddVariables
	SubtractVariables
	MultiplyVariables
	DivideVariables
	ModuloVariables
	CompareEqual
	CompareNotEqual
	CompareLess
	CompareGreater
	CompareLessEqual
	CompareGreaterEqual
	FunctionCall
	ReturnVariable
	Label
	ConditionalJump
	Jump
)

// Instruction is a tagged union over every IR operation. Only the fields
// relevant to Kind are populated.
type Instruction struct {
	Kind Kind

	// Declare, LoadBoolean/Number/Char, LoadStringLocation, ReturnVariable
	Temp string

	BoolValue   bool
	NumberValue float64
	CharValue   byte
	// LoadStringLocation: the data-pool label holding the string bytes.
	DataLabel string

	// Copy: Dst <- Src
	Dst, Src string

	// TakeArgument
	ArgumentIndex int

	// Arithmetic ops: Result <- A op B
	Result, A, B string

	// FunctionCall
	FuncName   string
	Args       []string
	ReturnTemp string
	HasReturn  bool

	// Label, Jump, ConditionalJump
	LabelName string
	// ConditionalJump
	Check string
}

func DeclareOf(temp string) Instruction { return Instruction{Kind: Declare, Temp: temp} }

func LoadBooleanOf(temp string, b bool) Instruction {
	return Instruction{Kind: LoadBoolean, Temp: temp, BoolValue: b}
}

func LoadNumberOf(temp string, n float64) Instruction {
	return Instruction{Kind: LoadNumber, Temp: temp, NumberValue: n}
}

func LoadCharOf(temp string, c byte) Instruction {
	return Instruction{Kind: LoadChar, Temp: temp, CharValue: c}
}

func LoadStringLocationOf(temp, dataLabel string) Instruction {
	return Instruction{Kind: LoadStringLocation, Temp: temp, DataLabel: dataLabel}
}

func CopyOf(dst, src string) Instruction { return Instruction{Kind: Copy, Dst: dst, Src: src} }

func TakeArgumentOf(slot int, temp string) Instruction {
	return Instruction{Kind: TakeArgument, ArgumentIndex: slot, Temp: temp}
}

func AddOf(result, a, b string) Instruction {
	return Instruction{Kind: AddVariables, Result: result, A: a, B: b}
}

func SubOf(result, a, b string) Instruction {
	return Instruction{Kind: SubtractVariables, Result: result, A: a, B: b}
}

func MulOf(result, a, b string) Instruction {
	return Instruction{Kind: MultiplyVariables, Result: result, A: a, B: b}
}

func DivOf(result, a, b string) Instruction {
	return Instruction{Kind: DivideVariables, Result: result, A: a, B: b}
}

func ModOf(result, a, b string) Instruction {
	return Instruction{Kind: ModuloVariables, Result: result, A: a, B: b}
}

// CompareOf builds one of the six boolean-producing comparison
// instructions; kind must be one of the Compare* constants.
func CompareOf(kind Kind, result, a, b string) Instruction {
	return Instruction{Kind: kind, Result: result, A: a, B: b}
}

func FunctionCallOf(name string, args []string, returnTemp string, hasReturn bool) Instruction {
	return Instruction{Kind: FunctionCall, FuncName: name, Args: args, ReturnTemp: returnTemp, HasReturn: hasReturn}
}

func ReturnVariableOf(temp string) Instruction {
	return Instruction{Kind: ReturnVariable, Temp: temp}
}

func LabelOf(name string) Instruction { return Instruction{Kind: Label, LabelName: name} }

func ConditionalJumpOf(check, label string) Instruction {
	return Instruction{Kind: ConditionalJump, Check: check, LabelName: label}
}

func JumpOf(label string) Instruction { return Instruction{Kind: Jump, LabelName: label} }

// Temporaries is the transformer's string-keyed scratchpad: a mapping
// from temporary name to its declared type, plus a monotonic counter for
// synthetic names.
type Temporaries struct {
	types   map[string]ast.Type
	counter int
}

// NewTemporaries returns an empty scratchpad.
func NewTemporaries() *Temporaries {
	return &Temporaries{types: make(map[string]ast.Type)}
}

// DeclareNamed registers a source-derived temporary name (a variable, or
// a flattened field path) with its type.
func (t *Temporaries) DeclareNamed(name string, typ ast.Type) {
	t.types[name] = typ
}

// Declare allocates and registers a fresh synthetic temporary
// (`temp_N`), returning its name.
func (t *Temporaries) Declare(typ ast.Type) string {
	name := fmt.Sprintf("temp_%d", t.counter)
	t.counter++
	t.types[name] = typ
	return name
}

// TypeOf returns the declared type of a temporary, if known.
func (t *Temporaries) TypeOf(name string) (ast.Type, bool) {
	typ, ok := t.types[name]
	return typ, ok
}

// Labels is a monotonic `label_N` factory, one per function's
// control-flow lowering.
type Labels struct {
	counter int
}

// New returns the next label name.
func (l *Labels) New() string {
	name := fmt.Sprintf("label_%d", l.counter)
	l.counter++
	return name
}

// DataEntry is one interned string literal awaiting emission in the
// `.data` section.
type DataEntry struct {
	Label   string
	Content string
}

// DataPool interns string literals across an entire program compilation;
// entries are only ever appended, never removed or rewritten.
type DataPool struct {
	labels  map[string]string
	order   []DataEntry
	counter int
}

// NewDataPool returns an empty pool.
func NewDataPool() *DataPool {
	return &DataPool{labels: make(map[string]string)}
}

// Intern returns the data label for content, creating one if this exact
// content hasn't been seen before.
func (p *DataPool) Intern(content string) string {
	if label, ok := p.labels[content]; ok {
		return label
	}
	label := fmt.Sprintf("string_%d", p.counter)
	p.counter++
	p.labels[content] = label
	p.order = append(p.order, DataEntry{Label: label, Content: content})
	return label
}

// Entries returns every interned literal in insertion order.
func (p *DataPool) Entries() []DataEntry {
	return p.order
}
