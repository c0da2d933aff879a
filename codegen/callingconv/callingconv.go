// Package callingconv implements the System V AMD64 calling convention:
// argument/return register assignment, the function-call argument
// shuffle, and division/modulo's two-register dance, all expressed as
// flavour.Instruction sequences operating through a memory.Manager.
package callingconv

import (
	"fmt"

	"github.com/nilang-go/nilangc/codegen/flavour"
	"github.com/nilang-go/nilangc/codegen/memory"
	"github.com/nilang-go/nilangc/codegen/registers"
	"github.com/nilang-go/nilangc/ir"
)

// ReturnLocation is where a function's scalar result is found after a
// call, and where ReturnVariable moves its operand before epilogue.
func ReturnLocation() memory.Location {
	return memory.Location{Kind: memory.InRegister, Register: registers.Rax}
}

// argRegisters is the System V integer/pointer argument register
// order; beyond six arguments, slots spill to the stack.
var argRegisters = []registers.Register{
	registers.Rdi, registers.Rsi, registers.Rdx, registers.Rcx, registers.R8, registers.R9,
}

// NthArgumentLocation returns the location the n-th (zero-based)
// function argument is passed in.
func NthArgumentLocation(n int) memory.Location {
	if n < len(argRegisters) {
		return memory.Location{Kind: memory.InRegister, Register: argRegisters[n]}
	}
	return memory.Location{Kind: memory.OnStack, Slot: n - len(argRegisters)}
}

func argumentsLocations(n int) []memory.Location {
	locs := make([]memory.Location, n)
	for i := range locs {
		locs[i] = NthArgumentLocation(i)
	}
	return locs
}

// builtinFunctions are the externally-linked C-ABI runtime helpers,
// called by their bare name. Every other function is user-defined and
// its label carries the single leading underscore the flavour printer
// gives every function header.
var builtinFunctions = map[string]bool{
	"printi": true,
	"printc": true,
	"print":  true,
}

// FunctionCallTarget mangles a called function's name into the symbol
// its label actually carries.
func FunctionCallTarget(name string) string {
	if builtinFunctions[name] {
		return name
	}
	return "_" + name
}

// Generate lowers a single IR instruction into its assembly form
// against mm, the live memory manager for the enclosing function.
func Generate(mm *memory.Manager, instr ir.Instruction) ([]flavour.Instruction, error) {
	switch instr.Kind {
	case ir.Declare:
		if _, err := mm.Reserve(instr.Temp); err != nil {
			return nil, err
		}
		return nil, nil

	case ir.LoadBoolean:
		loc, err := mm.GetLocationOrErr(instr.Temp)
		if err != nil {
			return nil, err
		}
		n := 0.0
		if instr.BoolValue {
			n = 1.0
		}
		return []flavour.Instruction{{
			Op:      flavour.Move,
			Params:  []flavour.Param{flavour.FromLocation(loc), {Kind: flavour.ParamNumber, Number: n}},
			Comment: fmt.Sprintf("Load boolean '%v' into `%s`", instr.BoolValue, instr.Temp),
		}}, nil

	case ir.LoadNumber:
		loc, err := mm.GetLocationOrErr(instr.Temp)
		if err != nil {
			return nil, err
		}
		return []flavour.Instruction{{
			Op:      flavour.Move,
			Params:  []flavour.Param{flavour.FromLocation(loc), {Kind: flavour.ParamNumber, Number: instr.NumberValue}},
			Comment: fmt.Sprintf("Load number '%g' into `%s`", instr.NumberValue, instr.Temp),
		}}, nil

	case ir.LoadChar:
		loc, err := mm.GetLocationOrErr(instr.Temp)
		if err != nil {
			return nil, err
		}
		return []flavour.Instruction{{
			Op:      flavour.Move,
			Params:  []flavour.Param{flavour.FromLocation(loc), {Kind: flavour.ParamChar, Char: instr.CharValue}},
			Comment: fmt.Sprintf("Load character '%c' into `%s`", instr.CharValue, instr.Temp),
		}}, nil

	case ir.LoadStringLocation:
		pointerLoc, err := mm.GetLocationOrErr(instr.Temp)
		if err != nil {
			return nil, err
		}
		return []flavour.Instruction{{
			Op:      flavour.Move,
			Params:  []flavour.Param{flavour.FromLocation(pointerLoc), {Kind: flavour.ParamData, Name: instr.DataLabel}},
			Comment: fmt.Sprintf("Load '%s' string pointer into `%s`", instr.DataLabel, instr.Temp),
		}}, nil

	case ir.ReturnVariable:
		loc, err := mm.GetLocationOrErr(instr.Temp)
		if err != nil {
			return nil, err
		}
		return []flavour.Instruction{{
			Op:      flavour.Move,
			Params:  []flavour.Param{flavour.FromLocation(ReturnLocation()), flavour.FromLocation(loc)},
			Comment: fmt.Sprintf("Return `%s`", instr.Temp),
		}}, nil

	case ir.TakeArgument:
		// The caller already placed this value in its ABI location
		// before `call`; no assembly is needed, only the bookkeeping
		// that binds the parameter's name to where it already lives.
		loc := NthArgumentLocation(instr.ArgumentIndex)
		if err := mm.ReserveLocation(instr.Temp, loc); err != nil {
			return nil, err
		}
		return nil, nil

	case ir.Copy:
		fromLoc, err := mm.GetLocationOrErr(instr.Src)
		if err != nil {
			return nil, err
		}
		toLoc, err := mm.GetLocationOrErr(instr.Dst)
		if err != nil {
			return nil, err
		}
		return []flavour.Instruction{{
			Op:      flavour.Move,
			Params:  []flavour.Param{flavour.FromLocation(toLoc), flavour.FromLocation(fromLoc)},
			Comment: fmt.Sprintf("Copy `%s` into `%s`", instr.Src, instr.Dst),
		}}, nil

	case ir.AddVariables, ir.SubtractVariables, ir.MultiplyVariables:
		return arithmetic(mm, instr)

	case ir.DivideVariables, ir.ModuloVariables:
		return divmod(mm, instr)

	case ir.CompareEqual, ir.CompareNotEqual, ir.CompareLess, ir.CompareGreater, ir.CompareLessEqual, ir.CompareGreaterEqual:
		return compare(mm, instr)

	case ir.FunctionCall:
		return GenerateFunctionCall(mm, instr.FuncName, instr.Args, instr.ReturnTemp, instr.HasReturn)

	case ir.Label:
		return []flavour.Instruction{{
			Op:      flavour.Label,
			Params:  []flavour.Param{{Kind: flavour.ParamLabel, Name: instr.LabelName}},
			Comment: fmt.Sprintf("Create label `%s`", instr.LabelName),
		}}, nil

	case ir.Jump:
		return []flavour.Instruction{{
			Op:      flavour.Jump,
			Params:  []flavour.Param{{Kind: flavour.ParamLabel, Name: instr.LabelName}},
			Comment: fmt.Sprintf("Jump to label `%s`", instr.LabelName),
		}}, nil

	case ir.ConditionalJump:
		checkLoc, err := mm.GetLocationOrErr(instr.Check)
		if err != nil {
			return nil, err
		}
		return []flavour.Instruction{
			{
				Op:      flavour.Test,
				Params:  []flavour.Param{flavour.FromLocation(checkLoc), flavour.FromLocation(checkLoc)},
				Comment: fmt.Sprintf("Test if `%s` is `0`", instr.Check),
			},
			{
				Op:      flavour.JumpIfZero,
				Params:  []flavour.Param{{Kind: flavour.ParamLabel, Name: instr.LabelName}},
				Comment: fmt.Sprintf("Jump to label `%s` if `%s` was zero", instr.LabelName, instr.Check),
			},
		}, nil

	default:
		return nil, fmt.Errorf("codegen: unhandled instruction kind %d", instr.Kind)
	}
}

func arithmetic(mm *memory.Manager, instr ir.Instruction) ([]flavour.Instruction, error) {
	aLoc, err := mm.GetLocationOrErr(instr.A)
	if err != nil {
		return nil, err
	}
	bLoc, err := mm.GetLocationOrErr(instr.B)
	if err != nil {
		return nil, err
	}
	resultLoc, err := mm.GetLocationOrErr(instr.Result)
	if err != nil {
		return nil, err
	}

	var op flavour.Op
	var verb, prepVerb string
	switch instr.Kind {
	case ir.AddVariables:
		op, verb, prepVerb = flavour.Add, "Add", "addition"
	case ir.SubtractVariables:
		op, verb, prepVerb = flavour.Sub, "Subtract", "subtraction"
	case ir.MultiplyVariables:
		op, verb, prepVerb = flavour.Mul, "Multiply", "multiplication"
	}

	return []flavour.Instruction{
		{
			Op:      flavour.Move,
			Params:  []flavour.Param{flavour.FromLocation(resultLoc), flavour.FromLocation(aLoc)},
			Comment: fmt.Sprintf("Prepare `%s` for %s", instr.Result, prepVerb),
		},
		{
			Op:      op,
			Params:  []flavour.Param{flavour.FromLocation(resultLoc), flavour.FromLocation(bLoc)},
			Comment: fmt.Sprintf("%s `%s` and `%s` into `%s`", verb, instr.A, instr.B, instr.Result),
		},
	}, nil
}

// compare lowers a boolean comparison to a cmpq that sets flags on a-b,
// followed by the matching setCC writing a 0/1 byte into result's
// location. Result is zeroed first since setCC only ever touches the
// low byte, and the location may be a register previously holding an
// unrelated 64-bit value.
func compare(mm *memory.Manager, instr ir.Instruction) ([]flavour.Instruction, error) {
	aLoc, err := mm.GetLocationOrErr(instr.A)
	if err != nil {
		return nil, err
	}
	bLoc, err := mm.GetLocationOrErr(instr.B)
	if err != nil {
		return nil, err
	}
	resultLoc, err := mm.GetLocationOrErr(instr.Result)
	if err != nil {
		return nil, err
	}

	var setOp flavour.Op
	var verb string
	switch instr.Kind {
	case ir.CompareEqual:
		setOp, verb = flavour.SetEqual, "equal"
	case ir.CompareNotEqual:
		setOp, verb = flavour.SetNotEqual, "not-equal"
	case ir.CompareLess:
		setOp, verb = flavour.SetLess, "less-than"
	case ir.CompareGreater:
		setOp, verb = flavour.SetGreater, "greater-than"
	case ir.CompareLessEqual:
		setOp, verb = flavour.SetLessEqual, "less-or-equal"
	case ir.CompareGreaterEqual:
		setOp, verb = flavour.SetGreaterEqual, "greater-or-equal"
	}

	return []flavour.Instruction{
		{
			Op:      flavour.Move,
			Params:  []flavour.Param{flavour.FromLocation(resultLoc), {Kind: flavour.ParamNumber, Number: 0}},
			Comment: fmt.Sprintf("Prepare `%s` for comparison", instr.Result),
		},
		{
			Op:      flavour.Cmp,
			Params:  []flavour.Param{flavour.FromLocation(aLoc), flavour.FromLocation(bLoc)},
			Comment: fmt.Sprintf("Compare `%s` and `%s`", instr.A, instr.B),
		},
		{
			Op:      setOp,
			Params:  []flavour.Param{flavour.FromLocation(resultLoc)},
			Comment: fmt.Sprintf("Set `%s` if `%s` is %s `%s`", instr.Result, instr.A, verb, instr.B),
		},
	}, nil
}

// divmod implements the shared idivq dance: evict whatever currently
// occupies rax/rdx, load the dividend into rax and zero into rdx,
// idivq the divisor, then move the quotient (division) or remainder
// (modulo) out of rax/rdx into result. Unlike a function call's
// argument shuffle, the dividend/divisor temporaries are read again
// right after, so this works directly off freeLocations rather than
// AllocateIn's pseudo-argument bookkeeping (which only exists to stage
// values that are about to be consumed by a call).
func divmod(mm *memory.Manager, instr ir.Instruction) ([]flavour.Instruction, error) {
	dividend, divisor, result := instr.A, instr.B, instr.Result

	rax := memory.Location{Kind: memory.InRegister, Register: registers.Rax}
	rdx := memory.Location{Kind: memory.InRegister, Register: registers.Rdx}

	evictions, err := freeLocations(mm, []memory.Location{rax, rdx})
	if err != nil {
		return nil, err
	}

	dividendLoc, err := mm.GetLocationOrErr(dividend)
	if err != nil {
		return nil, err
	}
	divisorLoc, err := mm.GetLocationOrErr(divisor)
	if err != nil {
		return nil, err
	}
	resultLoc, err := mm.GetLocationOrErr(result)
	if err != nil {
		return nil, err
	}

	verb := "division"
	sourceReg := rax
	if instr.Kind == ir.ModuloVariables {
		verb = "modulo"
		sourceReg = rdx
	}

	out := append([]flavour.Instruction{}, evictions...)
	out = append(out,
		flavour.Instruction{
			Op:      flavour.Move,
			Params:  []flavour.Param{flavour.FromLocation(rax), flavour.FromLocation(dividendLoc)},
			Comment: fmt.Sprintf("Prepare `%s` for %s", result, verb),
		},
		flavour.Instruction{
			Op:      flavour.Move,
			Params:  []flavour.Param{flavour.FromLocation(rdx), {Kind: flavour.ParamNumber, Number: 0}},
			Comment: fmt.Sprintf("Prepare `%s` for %s", result, verb),
		},
		flavour.Instruction{
			Op:      flavour.Div,
			Params:  []flavour.Param{flavour.FromLocation(divisorLoc)},
			Comment: fmt.Sprintf("Divide `%s` by `%s`", dividend, divisor),
		},
		flavour.Instruction{
			Op:      flavour.Move,
			Params:  []flavour.Param{flavour.FromLocation(resultLoc), flavour.FromLocation(sourceReg)},
			Comment: fmt.Sprintf("Move result of %s into `%s`", verb, result),
		},
	)
	return out, nil
}

// GenerateFunctionCall lowers an IR FunctionCall: shuffle arguments
// into their ABI locations, call, then move the result (if any) out of
// the return register.
func GenerateFunctionCall(mm *memory.Manager, name string, args []string, returnTemp string, hasReturn bool) ([]flavour.Instruction, error) {
	locs := argumentsLocations(len(args))
	allocations, err := AllocateIn(mm, args, locs)
	if err != nil {
		return nil, err
	}

	var out []flavour.Instruction
	out = append(out, allocations...)
	out = append(out, flavour.Instruction{
		Op:      flavour.Call,
		Params:  []flavour.Param{{Kind: flavour.ParamFunction, Name: FunctionCallTarget(name)}},
		Comment: fmt.Sprintf("Call function `%s`", name),
	})

	if hasReturn {
		returnLoc, err := mm.GetLocationOrErr(returnTemp)
		if err != nil {
			return nil, err
		}
		out = append(out, flavour.Instruction{
			Op:      flavour.Move,
			Params:  []flavour.Param{flavour.FromLocation(returnLoc), flavour.FromLocation(ReturnLocation())},
			Comment: fmt.Sprintf("Move result of `%s` to return register", name),
		})
	}

	return out, nil
}

// AllocateIn shuffles each temporary in temps into its corresponding
// desired location: first evicting any other live temporary currently
// occupying one of those locations (freeLocations), then emitting the
// Move that lands each temporary where it is expected. Pseudo `@arg_i`
// reservations mark the desired locations as taken for the duration of
// the shuffle so earlier moves cannot be evicted by later ones, then
// they're released once every argument has landed.
func AllocateIn(mm *memory.Manager, temps []string, locs []memory.Location) ([]flavour.Instruction, error) {
	freed, err := freeLocations(mm, locs)
	if err != nil {
		return nil, err
	}

	var moves []flavour.Instruction
	for i, temp := range temps {
		currentLoc, err := mm.GetLocationOrErr(temp)
		if err != nil {
			return nil, err
		}
		if err := mm.ReserveLocation(fmt.Sprintf("@arg_%d", i), locs[i]); err != nil {
			return nil, err
		}
		moves = append(moves, flavour.Instruction{
			Op:      flavour.Move,
			Params:  []flavour.Param{flavour.FromLocation(locs[i]), flavour.FromLocation(currentLoc)},
			Comment: fmt.Sprintf("Load `%s` as argument %d", temp, i),
		})
	}

	for i := range temps {
		mm.Free(fmt.Sprintf("@arg_%d", i))
	}

	return append(freed, moves...), nil
}

// freeLocations evicts whatever live temporary currently occupies each
// of locs into a brand-new stack slot (never reused from the free-list,
// so it can never collide with a location still to be processed),
// emitting one Swap per eviction.
func freeLocations(mm *memory.Manager, locs []memory.Location) ([]flavour.Instruction, error) {
	var out []flavour.Instruction
	counter := 0

	for _, loc := range locs {
		occupant, ok := mm.GetName(loc)
		if !ok {
			continue
		}

		scratchName := fmt.Sprintf("@swap_temp_%d", counter)
		counter++
		scratchLoc := mm.ReserveScratchSlot(scratchName)

		out = append(out, flavour.Instruction{
			Op:      flavour.Swap,
			Params:  []flavour.Param{flavour.FromLocation(loc), flavour.FromLocation(scratchLoc)},
			Comment: fmt.Sprintf("Swap `%s` and `%s`", occupant, scratchName),
		})

		mm.Free(occupant)
		mm.Free(scratchName)
		if err := mm.ReserveLocation(occupant, scratchLoc); err != nil {
			return nil, err
		}
	}

	return out, nil
}
