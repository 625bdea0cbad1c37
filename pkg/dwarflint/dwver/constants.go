// Package dwver implements the DWARF version-dependent value-class
// dispatch table: for a given DWARF version, the mapping from
// attribute name to its allowed form classes and from form name to its
// storage class and width policy.
package dwver

// Tag is a DW_TAG_* constant.
type Tag uint32

// Subset of tags the checkers need to recognize by name; any other tag
// value up to TagHiUser is legal but unnamed.
const (
	TagArrayType       Tag = 0x01
	TagClassType       Tag = 0x02
	TagEnumerationType Tag = 0x04
	TagFormalParameter Tag = 0x05
	TagLexicalBlock    Tag = 0x0b
	TagMember          Tag = 0x0d
	TagPointerType     Tag = 0x0f
	TagCompileUnit     Tag = 0x11
	TagStructureType   Tag = 0x13
	TagSubroutineType  Tag = 0x15
	TagTypedef         Tag = 0x16
	TagUnionType       Tag = 0x17
	TagBaseType        Tag = 0x24
	TagConstType       Tag = 0x26
	TagVariable        Tag = 0x34
	TagVolatileType    Tag = 0x35
	TagNamespace       Tag = 0x39
	TagPartialUnit     Tag = 0x3c

	TagLoUser Tag = 0x4080
	TagHiUser Tag = 0xffff
)

// AttrName is a DW_AT_* constant.
type AttrName uint32

const (
	AttrSibling             AttrName = 0x01
	AttrLocation            AttrName = 0x02
	AttrName_               AttrName = 0x03
	AttrByteSize            AttrName = 0x0b
	AttrStmtList            AttrName = 0x10
	AttrLowPC               AttrName = 0x11
	AttrHighPC              AttrName = 0x12
	AttrLanguage            AttrName = 0x13
	AttrCompDir             AttrName = 0x1b
	AttrConstValue          AttrName = 0x1c
	AttrUpperBound          AttrName = 0x2f
	AttrProducer            AttrName = 0x25
	AttrPrototyped          AttrName = 0x27
	AttrCount               AttrName = 0x37
	AttrDataMemberLocation  AttrName = 0x38
	AttrDeclFile            AttrName = 0x3a
	AttrDeclLine            AttrName = 0x3b
	AttrDeclaration         AttrName = 0x3c
	AttrEncoding            AttrName = 0x3e
	AttrExternal            AttrName = 0x3f
	AttrFrameBase           AttrName = 0x40
	AttrMacroInfo           AttrName = 0x43
	AttrRanges              AttrName = 0x55
	AttrReturnAddr          AttrName = 0x2a
	AttrSegment             AttrName = 0x34
	AttrStartScope          AttrName = 0x2c
	AttrStaticLink          AttrName = 0x48
	AttrStringLength        AttrName = 0x19
	AttrType                AttrName = 0x49
	AttrUseLocation         AttrName = 0x2e
	AttrVtableElemLocation  AttrName = 0x4c
)

// Form is a DW_FORM_* constant, restricted to the set legal in DWARF 2/3.
type Form uint32

const (
	FormAddr     Form = 0x01
	FormBlock2   Form = 0x03
	FormBlock4   Form = 0x04
	FormData2    Form = 0x05
	FormData4    Form = 0x06
	FormData8    Form = 0x07
	FormString   Form = 0x08
	FormBlock    Form = 0x09
	FormBlock1   Form = 0x0a
	FormData1    Form = 0x0b
	FormFlag     Form = 0x0c
	FormSdata    Form = 0x0d
	FormStrp     Form = 0x0e
	FormUdata    Form = 0x0f
	FormRefAddr  Form = 0x10
	FormRef1     Form = 0x11
	FormRef2     Form = 0x12
	FormRef4     Form = 0x13
	FormRef8     Form = 0x14
	FormRefUdata Form = 0x15
	FormIndirect Form = 0x16
)
