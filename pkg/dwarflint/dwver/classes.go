package dwver

// FormClass is the semantic category an attribute value belongs to,
// independent of its physical encoding.
type FormClass int

const (
	ClassUnknown FormClass = iota
	ClassAddress
	ClassBlock
	ClassConstant
	ClassString
	ClassFlag
	ClassReference
	ClassLocListPtr
	ClassRangeListPtr
	ClassLinePtr
	ClassMacPtr
	ClassExprLoc
	ClassIndirect
)

func (c FormClass) String() string {
	switch c {
	case ClassAddress:
		return "address"
	case ClassBlock:
		return "block"
	case ClassConstant:
		return "constant"
	case ClassString:
		return "string"
	case ClassFlag:
		return "flag"
	case ClassReference:
		return "reference"
	case ClassLocListPtr:
		return "loclistptr"
	case ClassRangeListPtr:
		return "rangelistptr"
	case ClassLinePtr:
		return "lineptr"
	case ClassMacPtr:
		return "macptr"
	case ClassExprLoc:
		return "exprloc"
	case ClassIndirect:
		return "indirect"
	default:
		return "unknown"
	}
}

// StorageKind is how a form's bytes are physically laid out, independent
// of what class of value they represent.
type StorageKind int

const (
	StorageFixed StorageKind = iota // fixed-width integer
	StorageLEB                      // ULEB128 or SLEB128
	StorageBlock                    // length-prefixed byte block
	StorageString                   // NUL-terminated string inline
	StorageStrp                     // offset-size pointer into .debug_str
)

// FormDescriptor describes one DW_FORM_* encoding's physical storage.
type FormDescriptor struct {
	Form    Form
	Storage StorageKind
	// Width is the fixed width in bytes, or 0 if the width is
	// LEB128/block/offset-size dependent.
	Width int
	// Signed is meaningful only for StorageLEB.
	Signed bool
}

var formDescriptors = map[Form]FormDescriptor{
	FormAddr:     {Form: FormAddr, Storage: StorageFixed, Width: 0}, // address-size dependent
	FormBlock2:   {Form: FormBlock2, Storage: StorageBlock, Width: 2},
	FormBlock4:   {Form: FormBlock4, Storage: StorageBlock, Width: 4},
	FormData2:    {Form: FormData2, Storage: StorageFixed, Width: 2},
	FormData4:    {Form: FormData4, Storage: StorageFixed, Width: 4},
	FormData8:    {Form: FormData8, Storage: StorageFixed, Width: 8},
	FormString:   {Form: FormString, Storage: StorageString},
	FormBlock:    {Form: FormBlock, Storage: StorageBlock, Width: 0}, // ULEB128-prefixed
	FormBlock1:   {Form: FormBlock1, Storage: StorageBlock, Width: 1},
	FormData1:    {Form: FormData1, Storage: StorageFixed, Width: 1},
	FormFlag:     {Form: FormFlag, Storage: StorageFixed, Width: 1},
	FormSdata:    {Form: FormSdata, Storage: StorageLEB, Signed: true},
	FormStrp:     {Form: FormStrp, Storage: StorageStrp, Width: 0}, // offset-size dependent
	FormUdata:    {Form: FormUdata, Storage: StorageLEB, Signed: false},
	FormRefAddr:  {Form: FormRefAddr, Storage: StorageFixed, Width: 0}, // offset-size dependent
	FormRef1:     {Form: FormRef1, Storage: StorageFixed, Width: 1},
	FormRef2:     {Form: FormRef2, Storage: StorageFixed, Width: 2},
	FormRef4:     {Form: FormRef4, Storage: StorageFixed, Width: 4},
	FormRef8:     {Form: FormRef8, Storage: StorageFixed, Width: 8},
	FormRefUdata: {Form: FormRefUdata, Storage: StorageLEB, Signed: false},
	FormIndirect: {Form: FormIndirect, Storage: StorageLEB, Signed: false},
}

// Describe returns the physical storage descriptor for f.
func Describe(f Form) (FormDescriptor, bool) {
	d, ok := formDescriptors[f]
	return d, ok
}

// secOffsetAttributes is the fixed attribute list for which DW_FORM_data4
// and DW_FORM_data8 are accepted as sec_offset-class (rangelistptr /
// lineptr / loclistptr) rather than plain constants in DWARF 3: exactly
// this list, not every attribute whose value happens to be an offset.
var secOffsetAttributes = map[AttrName]FormClass{
	AttrStmtList:           ClassLinePtr,
	AttrLocation:           ClassLocListPtr,
	AttrStringLength:       ClassLocListPtr,
	AttrReturnAddr:         ClassLocListPtr,
	AttrStartScope:         ClassRangeListPtr,
	AttrDataMemberLocation: ClassLocListPtr,
	AttrFrameBase:          ClassLocListPtr,
	AttrMacroInfo:          ClassMacPtr,
	AttrSegment:            ClassLocListPtr,
	AttrStaticLink:         ClassLocListPtr,
	AttrUseLocation:        ClassLocListPtr,
	AttrVtableElemLocation: ClassLocListPtr,
	AttrRanges:             ClassRangeListPtr,
}

// ClassOf determines the semantic class of an attribute value from its
// (attribute name, form, DWARF version) triple.
func ClassOf(attr AttrName, form Form, version int) FormClass {
	switch form {
	case FormAddr:
		return ClassAddress
	case FormBlock2, FormBlock4, FormBlock, FormBlock1:
		if attr == AttrLocation || attr == AttrFrameBase || attr == AttrDataMemberLocation ||
			attr == AttrStringLength || attr == AttrReturnAddr || attr == AttrUseLocation ||
			attr == AttrVtableElemLocation || attr == AttrStaticLink || attr == AttrSegment {
			return ClassExprLoc
		}
		return ClassBlock
	case FormData1, FormData2:
		return ClassConstant
	case FormData4, FormData8:
		if version >= 3 {
			if cls, ok := secOffsetAttributes[attr]; ok {
				return cls
			}
		}
		return ClassConstant
	case FormSdata, FormUdata:
		return ClassConstant
	case FormString, FormStrp:
		return ClassString
	case FormFlag:
		return ClassFlag
	case FormRefAddr:
		return ClassReference
	case FormRef1, FormRef2, FormRef4, FormRef8, FormRefUdata:
		return ClassReference
	case FormIndirect:
		return ClassIndirect
	default:
		return ClassUnknown
	}
}

// IsCULocalReference reports whether form encodes a reference local to
// the enclosing compile unit, as opposed to DW_FORM_ref_addr's
// section-global reference.
func IsCULocalReference(form Form) bool {
	switch form {
	case FormRef1, FormRef2, FormRef4, FormRef8, FormRefUdata:
		return true
	default:
		return false
	}
}
