// Package locexpr validates DWARF location expressions: the opcode
// stream embedded in DW_FORM_block* attribute values of exprloc class,
// and in .debug_loc location-list entries.
package locexpr

import (
	"encoding/binary"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/reader"
)

// Op is a DW_OP_* opcode.
type Op byte

const (
	OpAddr        Op = 0x03
	OpConst1u     Op = 0x08
	OpConst1s     Op = 0x09
	OpConst2u     Op = 0x0a
	OpConst2s     Op = 0x0b
	OpConst4u     Op = 0x0c
	OpConst4s     Op = 0x0d
	OpConst8u     Op = 0x0e
	OpConst8s     Op = 0x0f
	OpConstu      Op = 0x10
	OpConsts      Op = 0x11
	OpDup         Op = 0x12
	OpDrop        Op = 0x13
	OpOver        Op = 0x14
	OpPick        Op = 0x15
	OpSwap        Op = 0x16
	OpRot         Op = 0x17
	OpXderef      Op = 0x18
	OpAbs         Op = 0x19
	OpAnd         Op = 0x1a
	OpDiv         Op = 0x1b
	OpMinus       Op = 0x1c
	OpMod         Op = 0x1d
	OpMul         Op = 0x1e
	OpNeg         Op = 0x1f
	OpNot         Op = 0x20
	OpOr          Op = 0x21
	OpPlus        Op = 0x22
	OpPlusUconst  Op = 0x23
	OpShl         Op = 0x24
	OpShr         Op = 0x25
	OpShra        Op = 0x26
	OpXor         Op = 0x27
	OpSkip        Op = 0x2f
	OpBra         Op = 0x28
	OpEq          Op = 0x29
	OpGe          Op = 0x2a
	OpGt          Op = 0x2b
	OpLe          Op = 0x2c
	OpLt          Op = 0x2d
	OpNe          Op = 0x2e
	OpLit0        Op = 0x30
	OpLit31       Op = 0x4f
	OpReg0        Op = 0x50
	OpReg31       Op = 0x6f
	OpBreg0       Op = 0x70
	OpBreg31      Op = 0x8f
	OpRegx        Op = 0x90
	OpFbreg       Op = 0x91
	OpBregx       Op = 0x92
	OpPiece       Op = 0x93
	OpDeref       Op = 0x06
	OpDerefSize   Op = 0x94
	OpXderefSize  Op = 0x95
	OpNop         Op = 0x96
	OpCallFrameCF Op = 0x9c
)

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "DW_OP_unknown"
}

var opNames = map[Op]string{
	OpAddr: "DW_OP_addr", OpDeref: "DW_OP_deref", OpConst1u: "DW_OP_const1u",
	OpConst1s: "DW_OP_const1s", OpConst2u: "DW_OP_const2u", OpConst2s: "DW_OP_const2s",
	OpConst4u: "DW_OP_const4u", OpConst4s: "DW_OP_const4s", OpConst8u: "DW_OP_const8u",
	OpConst8s: "DW_OP_const8s", OpConstu: "DW_OP_constu", OpConsts: "DW_OP_consts",
	OpDup: "DW_OP_dup", OpDrop: "DW_OP_drop", OpOver: "DW_OP_over", OpPick: "DW_OP_pick",
	OpSwap: "DW_OP_swap", OpRot: "DW_OP_rot", OpXderef: "DW_OP_xderef",
	OpAbs: "DW_OP_abs", OpAnd: "DW_OP_and", OpDiv: "DW_OP_div", OpMinus: "DW_OP_minus",
	OpMod: "DW_OP_mod", OpMul: "DW_OP_mul", OpNeg: "DW_OP_neg", OpNot: "DW_OP_not",
	OpOr: "DW_OP_or", OpPlus: "DW_OP_plus", OpPlusUconst: "DW_OP_plus_uconst",
	OpShl: "DW_OP_shl", OpShr: "DW_OP_shr", OpShra: "DW_OP_shra", OpXor: "DW_OP_xor",
	OpSkip: "DW_OP_skip", OpBra: "DW_OP_bra", OpEq: "DW_OP_eq", OpGe: "DW_OP_ge",
	OpGt: "DW_OP_gt", OpLe: "DW_OP_le", OpLt: "DW_OP_lt", OpNe: "DW_OP_ne",
	OpRegx: "DW_OP_regx", OpFbreg: "DW_OP_fbreg", OpBregx: "DW_OP_bregx",
	OpPiece: "DW_OP_piece", OpDerefSize: "DW_OP_deref_size", OpXderefSize: "DW_OP_xderef_size",
	OpNop: "DW_OP_nop",
}

// Validate walks one location expression's opcode stream, checking that
// each opcode is known, that its fixed operands (if any) are present,
// and that DW_OP_bra/DW_OP_skip branch targets land on an opcode
// boundary within the expression. at is the Locus blamed for any diagnostic;
// addressSize determines DW_OP_addr's operand width.
func Validate(data []byte, at locus.Locus, addressSize int, order binary.ByteOrder, d *diag.Diagnostics) bool {
	r := reader.New(at.Section, data, 0, order, d)
	var boundaries []int64
	ok := true

	for !r.AtEnd() {
		boundaries = append(boundaries, r.Offset())
		opByte, readOK := r.U8()
		if !readOK {
			break
		}
		op := Op(opByte)

		switch {
		case op >= OpLit0 && op <= OpLit31:
		case op >= OpReg0 && op <= OpReg31:
		case op >= OpBreg0 && op <= OpBreg31:
			if _, readOK = r.SLEB128(diag.AreaLoc); !readOK {
				ok = false
			}
		default:
			switch op {
			case OpAddr:
				if !r.Skip(addressSize) {
					ok = false
				}
			case OpConst1u, OpConst1s, OpPick, OpDerefSize, OpXderefSize:
				if !r.Skip(1) {
					ok = false
				}
			case OpConst2u, OpConst2s:
				if !r.Skip(2) {
					ok = false
				}
			case OpConst4u, OpConst4s:
				if !r.Skip(4) {
					ok = false
				}
			case OpConst8u, OpConst8s:
				if !r.Skip(8) {
					ok = false
				}
			case OpConstu, OpPlusUconst, OpRegx:
				if _, readOK = r.ULEB128(diag.AreaLoc); !readOK {
					ok = false
				}
			case OpConsts, OpFbreg:
				if _, readOK = r.SLEB128(diag.AreaLoc); !readOK {
					ok = false
				}
			case OpBregx:
				if _, readOK = r.ULEB128(diag.AreaLoc); !readOK {
					ok = false
				}
				if _, readOK = r.SLEB128(diag.AreaLoc); !readOK {
					ok = false
				}
			case OpPiece:
				if _, readOK = r.ULEB128(diag.AreaLoc); !readOK {
					ok = false
				}
			case OpSkip, OpBra:
				target, skOK := r.U16()
				if !skOK {
					ok = false
					break
				}
				dest := r.Offset() + int64(int16(target))
				if dest < 0 || dest > int64(len(data)) {
					d.Emit(at, diag.Impact4|diag.AreaLoc|diag.Error,
						"%s branch target 0x%x falls outside the expression", op, dest)
					ok = false
				}
			case OpDup, OpDrop, OpOver, OpSwap, OpRot, OpXderef, OpAbs, OpAnd,
				OpDiv, OpMinus, OpMod, OpMul, OpNeg, OpNot, OpOr, OpPlus,
				OpShl, OpShr, OpShra, OpXor, OpEq, OpGe, OpGt, OpLe, OpLt, OpNe,
				OpDeref, OpNop:
				// No operands.
			default:
				d.Emit(at, diag.Impact4|diag.AreaLoc|diag.Error,
					"location expression uses unrecognized opcode 0x%x", opByte)
				ok = false
			}
		}
		if !ok {
			break
		}
	}

	if ok {
		checkBranchBoundaries(data, at, boundaries, order, d)
	}
	return ok
}

// checkBranchBoundaries re-walks the expression's DW_OP_skip/DW_OP_bra
// instructions, verifying each branch target coincides with one of the
// opcode boundaries recorded during the first pass.
func checkBranchBoundaries(data []byte, at locus.Locus, boundaries []int64, order binary.ByteOrder, d *diag.Diagnostics) {
	onBoundary := make(map[int64]bool, len(boundaries)+1)
	for _, b := range boundaries {
		onBoundary[b] = true
	}
	onBoundary[int64(len(data))] = true

	for i, pos := range boundaries {
		if int(pos) >= len(data) {
			continue
		}
		op := Op(data[pos])
		if op != OpSkip && op != OpBra {
			continue
		}
		if pos+3 > int64(len(data)) {
			continue
		}
		raw := int16(order.Uint16(data[pos+1 : pos+3]))
		dest := pos + 3 + int64(raw)
		if !onBoundary[dest] {
			d.Emit(at, diag.Impact4|diag.AreaLoc|diag.Error,
				"%s at index %d branches into the middle of another opcode", op, i)
		}
	}
}
