package dwver

// Version is a handle onto one DWARF version's attribute/form universe.
// dwarflint only supports versions 2 and 3.
type Version struct {
	Number int
}

// V2 and V3 are the only DWARF versions this checker validates CUs
// against.
var (
	V2 = Version{Number: 2}
	V3 = Version{Number: 3}
)

// Latest returns the handle used to lenient-accept attributes or forms
// that postdate a CU's declared version.
func Latest() Version {
	return V3
}

// Supported reports whether n is a version this checker understands.
func Supported(n int) bool {
	return n == 2 || n == 3
}

// RefAddrWidth returns the width DW_FORM_ref_addr occupies for this
// version: DWARF 2 always uses the address size, DWARF 3 onward uses
// the CU's offset size (4 or 8, from the initial-length escape).
func (v Version) RefAddrWidth(addressSize, offsetSize int) int {
	if v.Number <= 2 {
		return addressSize
	}
	return offsetSize
}

// IsKnownAttribute reports whether a has a name in this package's table.
// Unknown attribute names are not fatal — this is advisory only.
func (v Version) IsKnownAttribute(a AttrName) bool {
	_, ok := attrNames[a]
	return ok
}

// IsKnownForm reports whether f has a registered physical descriptor.
func (v Version) IsKnownForm(f Form) bool {
	_, ok := formDescriptors[f]
	return ok
}
