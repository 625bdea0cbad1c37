package locexpr_test

import (
	"encoding/binary"
	"testing"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locexpr"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
	"github.com/stretchr/testify/assert"
)

func newDiag() *diag.Diagnostics {
	cfg := diag.DefaultConfig()
	cfg.Apply()
	return diag.New(cfg, nil)
}

func TestValidatesSimpleExpression(t *testing.T) {
	d := newDiag()
	// DW_OP_reg3 (a register location, no operands).
	data := []byte{byte(locexpr.OpReg0 + 3)}
	ok := locexpr.Validate(data, locus.Offset(locus.SectionLoc, 0), 8, binary.LittleEndian, d)
	assert.True(t, ok)
	assert.False(t, d.HasErrors())
}

func TestFbregWithOperand(t *testing.T) {
	d := newDiag()
	data := []byte{byte(locexpr.OpFbreg), 0x7f} // sleb128(-1)
	ok := locexpr.Validate(data, locus.Offset(locus.SectionLoc, 0), 8, binary.LittleEndian, d)
	assert.True(t, ok)
	assert.False(t, d.HasErrors())
}

func TestUnknownOpcodeIsError(t *testing.T) {
	d := newDiag()
	data := []byte{0xff}
	ok := locexpr.Validate(data, locus.Offset(locus.SectionLoc, 0), 8, binary.LittleEndian, d)
	assert.False(t, ok)
	assert.True(t, d.HasErrors())
}

func TestBranchOutsideExpressionIsError(t *testing.T) {
	d := newDiag()
	data := []byte{byte(locexpr.OpSkip), 0xff, 0x7f} // skip +0x7fff, far past the end
	ok := locexpr.Validate(data, locus.Offset(locus.SectionLoc, 0), 8, binary.LittleEndian, d)
	assert.False(t, ok)
	assert.True(t, d.HasErrors())
}

func TestBranchIntoMiddleOfOpcodeIsError(t *testing.T) {
	d := newDiag()
	// skip(+1) lands one byte into the following const1u's operand
	// instead of on the const1u opcode boundary itself.
	data := []byte{byte(locexpr.OpSkip), 0x01, 0x00, byte(locexpr.OpConst1u), 0x00}
	ok := locexpr.Validate(data, locus.Offset(locus.SectionLoc, 0), 8, binary.LittleEndian, d)
	assert.True(t, ok) // structurally well-formed opcode stream
	assert.True(t, d.HasErrors())
}
