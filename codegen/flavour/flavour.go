// Package flavour renders the op/parameter/comment triples the calling
// convention produces into GNU AT&T-syntax x86-64 assembly text.
package flavour

import (
	"fmt"
	"strings"

	"github.com/nilang-go/nilangc/codegen/memory"
)

// Op tags one assembly mnemonic family. Move/Swap/Call/Add/Sub/Mul/Div
// are grounded directly on the generator's AssemblyInstruction enum;
// Test/Jump/JumpIfZero/Label fill the gap left by that enum not
// covering the control-flow instructions its own calling convention
// emits.
type Op int

const (
	Move Op = iota
	Swap
	Call
	Add
	Sub
	Mul
	Div
	Test
	Jump
	JumpIfZero
	Label
	Cmp
	SetEqual
	SetNotEqual
	SetLess
	SetGreater
	SetLessEqual
	SetGreaterEqual
)

// byteRegisterNames gives the 8-bit sub-register name setCC writes its
// 0/1 result into; only the registers the allocator ever hands out as a
// comparison's destination need an entry.
var byteRegisterNames = map[string]string{
	"rax": "al", "rbx": "bl", "rcx": "cl", "rdx": "dl",
	"rsi": "sil", "rdi": "dil",
	"r8": "r8b", "r9": "r9b", "r10": "r10b", "r11": "r11b",
	"r12": "r12b", "r13": "r13b", "r14": "r14b", "r15": "r15b",
}

// ParamKind tags the variant carried by a Param.
type ParamKind int

const (
	ParamRegister ParamKind = iota
	ParamMemory
	ParamNumber
	ParamChar
	ParamFunction
	ParamData
	ParamLabel
)

// Param is one rendered instruction operand.
type Param struct {
	Kind     ParamKind
	Register string
	Offset   int
	Number   float64
	Char     byte
	Name     string
}

// FromLocation converts a memory.Location to its assembly operand form.
func FromLocation(loc memory.Location) Param {
	switch loc.Kind {
	case memory.InRegister:
		return Param{Kind: ParamRegister, Register: loc.Register.Name()}
	case memory.OnStack:
		return Param{Kind: ParamMemory, Offset: loc.Slot}
	default:
		return Param{Kind: ParamData, Name: loc.Label}
	}
}

// Instruction is one fully-formed assembly line awaiting text
// rendering: an opcode, its operands, and an explanatory comment.
type Instruction struct {
	Op      Op
	Params  []Param
	Comment string
}

// AtAndT renders instructions in GNU AT&T syntax: source before
// destination, `%` register sigils, `$` immediates.
type AtAndT struct{}

// byteParameter renders p as an 8-bit operand, for setCC's r/m8 operand:
// a register narrows to its byte sub-register, a stack slot keeps its
// address (the assembler infers the byte width from the mnemonic).
func (f AtAndT) byteParameter(p Param) string {
	if p.Kind == ParamRegister {
		if b, ok := byteRegisterNames[p.Register]; ok {
			return "%" + b
		}
	}
	return f.parameter(p)
}

func (AtAndT) parameter(p Param) string {
	switch p.Kind {
	case ParamRegister:
		return "%" + p.Register
	case ParamMemory:
		return fmt.Sprintf("-%d(%%rbp)", (p.Offset+1)*8)
	case ParamNumber:
		return fmt.Sprintf("$%g", p.Number)
	case ParamChar:
		return fmt.Sprintf("$'%c'", p.Char)
	case ParamFunction:
		return p.Name
	case ParamData:
		return "$" + p.Name
	case ParamLabel:
		return p.Name
	default:
		return ""
	}
}

// Render turns one Instruction into its indented, comment-padded
// assembly line.
func (f AtAndT) Render(instr Instruction) string {
	params := make([]string, len(instr.Params))
	for i, p := range instr.Params {
		params[i] = f.parameter(p)
	}

	var asm string
	switch instr.Op {
	case Move:
		asm = withArgs("movq", params[1], params[0])
	case Swap:
		asm = withArgs("xchgq", params[0], params[1])
	case Call:
		asm = withArgs("call", params[0])
	case Add:
		asm = withArgs("addq", params[1], params[0])
	case Sub:
		asm = withArgs("subq", params[1], params[0])
	case Mul:
		asm = withArgs("imulq", params[1], params[0])
	case Div:
		asm = withArgs("idivq", params[0])
	case Test:
		asm = withArgs("testq", params[1], params[0])
	case Jump:
		asm = withArgs("jmp", params[0])
	case JumpIfZero:
		asm = withArgs("je", params[0])
	case Label:
		asm = params[0] + ":"
	case Cmp:
		asm = withArgs("cmpq", params[1], params[0])
	case SetEqual:
		asm = withArgs("sete", f.byteParameter(instr.Params[0]))
	case SetNotEqual:
		asm = withArgs("setne", f.byteParameter(instr.Params[0]))
	case SetLess:
		asm = withArgs("setl", f.byteParameter(instr.Params[0]))
	case SetGreater:
		asm = withArgs("setg", f.byteParameter(instr.Params[0]))
	case SetLessEqual:
		asm = withArgs("setle", f.byteParameter(instr.Params[0]))
	case SetGreaterEqual:
		asm = withArgs("setge", f.byteParameter(instr.Params[0]))
	}

	return asmWithComment(asm, instr.Comment)
}

func withArgs(mnemonic string, args ...string) string {
	return mnemonic + " " + strings.Join(args, ", ")
}

func asmWithComment(asm, comment string) string {
	if comment == "" {
		return asm
	}
	return fmt.Sprintf("%-29s # %s", asm, comment)
}

// ProgramScaffold returns the `.data` section (with the two builtin
// print-format strings) and the `.text` `_start` trampoline that calls
// `_main` and exits via syscall 60 (Linux exit), per the calling
// convention's two hardcoded format-string locations and the emitted
// assembly's entry-point contract.
func (AtAndT) ProgramScaffold(extraData []string) []string {
	lines := []string{
		"",
		".data",
		`printi_format: .asciz "%d\n"`,
		`printc_format: .asciz "%c\n"`,
	}
	lines = append(lines, extraData...)
	lines = append(lines,
		"",
		".text",
		".globl _start",
		"_start:",
		"    call _main",
		"    movq $60, %rax",
		"    xorq %rdi, %rdi",
		"    syscall",
	)
	return lines
}

// FunctionHeader returns the `.globl`+label pair opening a function,
// with the single leading underscore every user-defined function label
// carries (builtins are called by their bare externally-linked name;
// see callingconv.FunctionCallTarget).
func (AtAndT) FunctionHeader(name string) []string {
	label := "_" + name
	return []string{".globl " + label, label + ":"}
}

// FunctionPrologue pushes the caller's frame pointer and establishes
// this function's own.
func (AtAndT) FunctionPrologue() []string {
	return []string{
		"    # Prologue",
		"    pushq %rbp",
		"    movq %rsp, %rbp",
	}
}

// FunctionEpilogue tears the frame back down and returns to the
// caller.
func (AtAndT) FunctionEpilogue() []string {
	return []string{
		"    # Epilogue",
		"    movq %rbp, %rsp",
		"    pop %rbp",
		"    ret",
	}
}

// IndentBody renders each Instruction with the four-space body
// indentation every function instruction gets.
func (f AtAndT) IndentBody(instrs []Instruction) []string {
	lines := make([]string, len(instrs))
	for i, instr := range instrs {
		lines[i] = "    " + f.Render(instr)
	}
	return lines
}
