package locus_test

import (
	"testing"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
	"github.com/stretchr/testify/assert"
)

func TestFormatting(t *testing.T) {
	tests := []struct {
		name     string
		l        locus.Locus
		expected string
	}{
		{
			name:     "offset",
			l:        locus.Offset(locus.SectionAbbrev, 0x10),
			expected: ".debug_abbrev: 0x10",
		},
		{
			name:     "cu",
			l:        locus.CU(locus.SectionInfo, 0),
			expected: ".debug_info: CU 0x0",
		},
		{
			name:     "die",
			l:        locus.DIE(locus.SectionInfo, 0, 0x2b),
			expected: ".debug_info: CU 0x0, DIE 0x2b",
		},
		{
			name:     "attribute",
			l:        locus.Attribute(locus.SectionInfo, 0, 0x2b, "DW_AT_name"),
			expected: ".debug_info: CU 0x0, DIE 0x2b, attribute DW_AT_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.l.String())
		})
	}
}

func TestRelativeTo(t *testing.T) {
	a := locus.DIE(locus.SectionInfo, 0, 0x20)
	b := locus.DIE(locus.SectionInfo, 0, 0x48).RelativeTo(a)

	assert.Equal(t,
		".debug_info: CU 0x0, DIE 0x48 (relative to .debug_info: CU 0x0, DIE 0x20)",
		b.String())
}
