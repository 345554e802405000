package expr

import "fmt"

// Register is an nf_tables register. Expressions load packet data into
// registers and compare or store it from there.
type Register uint32

const (
	RegVerdict Register = 0
	Reg1       Register = 1
	Reg2       Register = 2
	Reg3       Register = 3
	Reg4       Register = 4

	// Reg32First and Reg32Last bound the 32 bit register space.
	Reg32First Register = 8
	Reg32Last  Register = 23
)

// Valid reports whether r names a register the kernel accepts.
func (r Register) Valid() bool {
	return r <= Reg4 || (r >= Reg32First && r <= Reg32Last)
}

func (r Register) String() string {
	switch {
	case r == RegVerdict:
		return "verdict"
	case r <= Reg4:
		return fmt.Sprintf("reg %d", uint32(r))
	case r >= Reg32First && r <= Reg32Last:
		return fmt.Sprintf("reg32 %d", uint32(r-Reg32First))
	}
	return fmt.Sprintf("reg(%d)", uint32(r))
}
