package ia32

// Op is an ia32 opcode. Binary ALU ops use the two-address form: operand 0 is
// the source, operand 1 the destination which the result overwrites.
type Op uint16

const (
	OpInvalid Op = iota
	// OpArg defines an incoming argument, optionally pinned to a register.
	OpArg
	// OpConst loads an integer immediate or the address of a symbol.
	OpConst
	// OpFConst loads a float constant from a symbol.
	OpFConst
	// OpCopy is a register to register move.
	OpCopy
	OpAdd
	OpAddI
	OpSub
	OpSubI
	OpAnd
	OpOr
	OpXor
	OpIMul
	// OpShl and OpSar take the shift count in CL.
	OpShl
	OpShlI
	OpSar
	// OpMul is the widening multiply EDX:EAX = EAX * src.
	OpMul
	// OpDiv is the unsigned divide of EDX:EAX producing quotient and remainder.
	OpDiv
	OpLea
	OpLoad
	OpStore
	// OpSpill stores a value to a frame slot.
	OpSpill
	// OpReload loads a value back from a frame slot.
	OpReload
	OpCmp
	OpSetcc
	OpFAdd
	OpFMul
	OpXorp
	// OpXchg exchanges two registers. Only created by permutation lowering.
	OpXchg
	// OpPerm permutes registers at once. Created by the register allocator.
	OpPerm
	OpReturn
	numOps
)

// AMSupport tells which operands of an op may be folded into an address mode.
type AMSupport byte

const (
	AMNone AMSupport = iota
	AMSource
	AMDest
	AMFull
)

// String implements fmt.Stringer.
func (s AMSupport) String() string {
	switch s {
	case AMSource:
		return "source"
	case AMDest:
		return "dest"
	case AMFull:
		return "full"
	default:
		return "none"
	}
}

// AMFlavour tells which address mode components are present.
type AMFlavour byte

const (
	AMFlavourO AMFlavour = 1 << iota // offset
	AMFlavourB                       // base
	AMFlavourI                       // index
	AMFlavourS                       // scale
)

// String implements fmt.Stringer.
func (f AMFlavour) String() string {
	if f == 0 {
		return "none"
	}
	var ret []byte
	for i, c := range "OBIS" {
		if f&(1<<i) != 0 {
			ret = append(ret, byte(c))
		}
	}
	return string(ret)
}

// OpFlavour distinguishes the results wanted from ops like Div and Mul.
type OpFlavour byte

const (
	FlavourNone OpFlavour = iota
	FlavourDiv
	FlavourMod
	FlavourDivMod
	FlavourMul
	FlavourMulh
)

// String implements fmt.Stringer.
func (f OpFlavour) String() string {
	switch f {
	case FlavourDiv:
		return "div"
	case FlavourMod:
		return "mod"
	case FlavourDivMod:
		return "div_mod"
	case FlavourMul:
		return "mul"
	case FlavourMulh:
		return "mulh"
	default:
		return "none"
	}
}

type opInfo struct {
	name        string
	commutative bool
	// immediate is true for ops carrying a constant operand.
	immediate bool
	am        AMSupport
}

var opInfos = [numOps]opInfo{
	OpInvalid: {name: "Invalid"},
	OpArg:     {name: "Arg"},
	OpConst:   {name: "Const", immediate: true},
	OpFConst:  {name: "fConst", immediate: true},
	OpCopy:    {name: "Copy"},
	OpAdd:     {name: "Add", commutative: true, am: AMFull},
	OpAddI:    {name: "Add_i", immediate: true, am: AMDest},
	OpSub:     {name: "Sub", am: AMFull},
	OpSubI:    {name: "Sub_i", immediate: true, am: AMDest},
	OpAnd:     {name: "And", commutative: true, am: AMFull},
	OpOr:      {name: "Or", commutative: true, am: AMFull},
	OpXor:     {name: "Xor", commutative: true, am: AMFull},
	OpIMul:    {name: "IMul", commutative: true, am: AMSource},
	OpShl:     {name: "Shl", am: AMDest},
	OpShlI:    {name: "Shl_i", immediate: true, am: AMDest},
	OpSar:     {name: "Sar", am: AMDest},
	OpMul:     {name: "Mul", commutative: true, am: AMSource},
	OpDiv:     {name: "Div", am: AMSource},
	OpLea:     {name: "Lea"},
	OpLoad:    {name: "Load", am: AMSource},
	OpStore:   {name: "Store", am: AMDest},
	OpSpill:   {name: "Spill", am: AMDest},
	OpReload:  {name: "Reload", am: AMSource},
	OpCmp:     {name: "Cmp", am: AMSource},
	OpSetcc:   {name: "Setcc"},
	OpFAdd:    {name: "fAdd", commutative: true, am: AMSource},
	OpFMul:    {name: "fMul", commutative: true, am: AMSource},
	OpXorp:    {name: "xXor", commutative: true},
	OpXchg:    {name: "Xchg"},
	OpPerm:    {name: "Perm"},
	OpReturn:  {name: "Return"},
}

// String implements fmt.Stringer.
func (o Op) String() string {
	if o >= numOps {
		return "Unknown"
	}
	return opInfos[o].name
}

// HasImmediate returns true if the op encodes a constant operand.
func (o Op) HasImmediate() bool { return o < numOps && opInfos[o].immediate }
