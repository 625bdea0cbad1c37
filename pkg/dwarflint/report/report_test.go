package report_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/report"
)

func TestEmitPlainFormatsSeverityFromCriteria(t *testing.T) {
	var w strings.Builder
	r := report.New(&w, diag.Impact4|diag.Error, false, false)

	r.Emit(diag.Entry{Locus: locus.Offset(locus.SectionInfo, 0x10), Message: "bad thing", Category: diag.Impact4 | diag.Error})
	r.Emit(diag.Entry{Locus: locus.Offset(locus.SectionInfo, 0x20), Message: "minor thing", Category: diag.Impact1})

	out := w.String()
	assert.Contains(t, out, "error: .debug_info: 0x10: bad thing")
	assert.Contains(t, out, "warning: .debug_info: 0x20: minor thing")
}

func TestEmitQuietSuppressesWarnings(t *testing.T) {
	var w strings.Builder
	r := report.New(&w, diag.Impact4|diag.Error, false, true)

	r.Emit(diag.Entry{Locus: locus.Offset(locus.SectionInfo, 0), Message: "minor", Category: diag.Impact1})
	assert.Empty(t, w.String())

	r.Emit(diag.Entry{Locus: locus.Offset(locus.SectionInfo, 0), Message: "fatal", Category: diag.Impact4 | diag.Error})
	assert.Contains(t, w.String(), "fatal")
}

func TestEmitDumpOffsetsAppendsDecodableRecord(t *testing.T) {
	var w strings.Builder
	r := report.New(&w, diag.Impact4|diag.Error, false, false)
	r.DumpOffsets = true

	r.Emit(diag.Entry{
		Locus:    locus.DIE(locus.SectionInfo, 0x10, 0x2b),
		Message:  "dangling reference",
		Category: diag.Impact4 | diag.Error,
	})

	lines := strings.SplitN(w.String(), "\n", 2)
	var rec struct {
		Section string `yaml:"section"`
		A       int64  `yaml:"a"`
		B       int64  `yaml:"b"`
		Error   bool   `yaml:"error"`
	}
	err := yaml.Unmarshal([]byte(lines[1]), &rec)
	assert.NoError(t, err)
	assert.Equal(t, ".debug_info", rec.Section)
	assert.Equal(t, int64(0x10), rec.A)
	assert.Equal(t, int64(0x2b), rec.B)
	assert.True(t, rec.Error)
}

func TestSummaryCleanRun(t *testing.T) {
	cfg := diag.DefaultConfig()
	cfg.Apply()
	d := diag.New(cfg, nil)

	var w strings.Builder
	r := report.New(&w, cfg.ErrorCriteria, false, false)
	r.Summary(d)

	assert.Contains(t, w.String(), "no structural problems found")
}

func TestSummaryCountsErrorsAndWarnings(t *testing.T) {
	cfg := diag.DefaultConfig()
	cfg.Apply()
	d := diag.New(cfg, nil)
	d.Emit(locus.Offset(locus.SectionInfo, 0), diag.Impact4|diag.Error, "fatal")
	d.Emit(locus.Offset(locus.SectionInfo, 0), diag.Impact1, "minor")

	var w strings.Builder
	r := report.New(&w, cfg.ErrorCriteria, false, false)
	r.Summary(d)

	assert.Contains(t, w.String(), "1 error(s), 1 warning(s)")
}
