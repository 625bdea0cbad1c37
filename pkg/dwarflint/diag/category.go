// Package diag implements the diagnostic category taxonomy, the
// accept/reject/error-criteria filters, and the Diagnostics sink every
// check writes through.
package diag

import "strings"

// Category is a bitmask combining a severity, an accuracy refinement, an
// area tag, and an optional forced outcome kind. Diagnostics are filtered
// and classified purely by this mask.
type Category uint64

const (
	// Severity: impact-1 (cosmetic) through impact-4 (definitely wrong).
	Impact1 Category = 1 << iota
	Impact2
	Impact3
	Impact4

	// Accuracy refinements.
	Bloat
	Suboptimal

	// Area tags.
	AreaLEB128
	AreaAbbrevs
	AreaDieRel
	AreaDieOther
	AreaStrings
	AreaAranges
	AreaLine
	AreaReloc
	AreaLoc
	AreaRanges
	AreaPubtables
	AreaELF
	AreaHeader

	// Error forces severity to error regardless of impact.
	Error
)

const severityMask = Impact1 | Impact2 | Impact3 | Impact4

var categoryNames = map[Category]string{
	Impact1:       "impact-1",
	Impact2:       "impact-2",
	Impact3:       "impact-3",
	Impact4:       "impact-4",
	Bloat:         "bloat",
	Suboptimal:    "suboptimal",
	AreaLEB128:    "leb128",
	AreaAbbrevs:   "abbrevs",
	AreaDieRel:    "die_rel",
	AreaDieOther:  "die_other",
	AreaStrings:   "strings",
	AreaAranges:   "aranges",
	AreaLine:      "line",
	AreaReloc:     "reloc",
	AreaLoc:       "loc",
	AreaRanges:    "ranges",
	AreaPubtables: "pubtables",
	AreaELF:       "elf",
	AreaHeader:    "header",
	Error:         "error",
}

var categoryByName = func() map[string]Category {
	m := make(map[string]Category, len(categoryNames))
	for cat, name := range categoryNames {
		m[name] = cat
	}
	return m
}()

// String renders the set bits of c as a comma-separated list.
func (c Category) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	for bit := Category(1); bit != 0 && bit <= Error; bit <<= 1 {
		if c&bit != 0 {
			if name, ok := categoryNames[bit]; ok {
				parts = append(parts, name)
			}
		}
	}
	return strings.Join(parts, ",")
}

// ParseCategories parses a comma-separated list of category names (as
// produced by String) into a Category mask. Unknown names are ignored.
func ParseCategories(s string) Category {
	var c Category
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if cat, ok := categoryByName[name]; ok {
			c |= cat
		}
	}
	return c
}

// AllCategories is the mask matching every diagnostic, suitable as a
// default "accept" filter.
const AllCategories Category = Impact1 | Impact2 | Impact3 | Impact4 |
	Bloat | Suboptimal |
	AreaLEB128 | AreaAbbrevs | AreaDieRel | AreaDieOther | AreaStrings |
	AreaAranges | AreaLine | AreaReloc | AreaLoc | AreaRanges |
	AreaPubtables | AreaELF | AreaHeader | Error

// GNUBloat is the set of bloat categories the source documents as
// idiomatic GCC output; --gnu adds them to the reject mask.
const GNUBloat Category = Bloat
