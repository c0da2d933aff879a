// Package registers names the x86-64 general-purpose register set the
// memory manager and calling convention allocate from.
package registers

// Register identifies one x86-64 general-purpose register.
type Register int

const (
	Rax Register = iota
	Rbx
	Rcx
	Rdx
	Rsi
	Rdi
	Rbp
	Rsp
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

// names maps every Register to its AT&T-syntax assembly name.
var names = map[Register]string{
	Rax: "rax", Rbx: "rbx", Rcx: "rcx", Rdx: "rdx",
	Rsi: "rsi", Rdi: "rdi", Rbp: "rbp", Rsp: "rsp",
	R8: "r8", R9: "r9", R10: "r10", R11: "r11",
	R12: "r12", R13: "r13", R14: "r14", R15: "r15",
}

// Name returns the register's assembly mnemonic, without the leading
// `%` sigil the GNU flavour printer adds.
func (r Register) Name() string { return names[r] }

// FreeOrder is the memory manager's default free-register pool. The
// manager takes registers from the end of the list, so Rbx is handed out
// first and R15 last. Rax, Rbp, and Rsp are excluded: Rax is seeded into
// next_locations for the function's return slot, and Rbp/Rsp are
// reserved for the frame pointer and stack pointer.
var FreeOrder = []Register{
	R15, R14, R13, R12, R11, R10, R9, R8, Rdi, Rsi, Rdx, Rcx, Rbx,
}
