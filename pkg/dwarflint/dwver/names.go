package dwver

import "fmt"

var tagNames = map[Tag]string{
	TagArrayType:       "DW_TAG_array_type",
	TagClassType:       "DW_TAG_class_type",
	TagEnumerationType: "DW_TAG_enumeration_type",
	TagFormalParameter: "DW_TAG_formal_parameter",
	TagLexicalBlock:    "DW_TAG_lexical_block",
	TagMember:          "DW_TAG_member",
	TagPointerType:     "DW_TAG_pointer_type",
	TagCompileUnit:     "DW_TAG_compile_unit",
	TagStructureType:   "DW_TAG_structure_type",
	TagSubroutineType:  "DW_TAG_subroutine_type",
	TagTypedef:         "DW_TAG_typedef",
	TagUnionType:       "DW_TAG_union_type",
	TagBaseType:        "DW_TAG_base_type",
	TagConstType:       "DW_TAG_const_type",
	TagVariable:        "DW_TAG_variable",
	TagVolatileType:    "DW_TAG_volatile_type",
	TagNamespace:       "DW_TAG_namespace",
	TagPartialUnit:     "DW_TAG_partial_unit",
}

// String renders t by name when known, or as "DW_TAG_user_0x...." /
// "DW_TAG_unknown_0x...." otherwise (original_source's pri.cc dwarf_tag_name).
func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	if t >= TagLoUser && t <= TagHiUser {
		return fmt.Sprintf("DW_TAG_user_0x%x", uint32(t))
	}
	return fmt.Sprintf("DW_TAG_unknown_0x%x", uint32(t))
}

var attrNames = map[AttrName]string{
	AttrSibling:            "DW_AT_sibling",
	AttrLocation:           "DW_AT_location",
	AttrName_:              "DW_AT_name",
	AttrByteSize:           "DW_AT_byte_size",
	AttrStmtList:           "DW_AT_stmt_list",
	AttrLowPC:              "DW_AT_low_pc",
	AttrHighPC:             "DW_AT_high_pc",
	AttrLanguage:           "DW_AT_language",
	AttrCompDir:            "DW_AT_comp_dir",
	AttrConstValue:         "DW_AT_const_value",
	AttrUpperBound:         "DW_AT_upper_bound",
	AttrProducer:           "DW_AT_producer",
	AttrPrototyped:         "DW_AT_prototyped",
	AttrCount:              "DW_AT_count",
	AttrDataMemberLocation: "DW_AT_data_member_location",
	AttrDeclFile:           "DW_AT_decl_file",
	AttrDeclLine:           "DW_AT_decl_line",
	AttrDeclaration:        "DW_AT_declaration",
	AttrEncoding:           "DW_AT_encoding",
	AttrExternal:           "DW_AT_external",
	AttrFrameBase:          "DW_AT_frame_base",
	AttrMacroInfo:          "DW_AT_macro_info",
	AttrRanges:             "DW_AT_ranges",
	AttrReturnAddr:         "DW_AT_return_addr",
	AttrSegment:            "DW_AT_segment",
	AttrStartScope:         "DW_AT_start_scope",
	AttrStaticLink:         "DW_AT_static_link",
	AttrStringLength:       "DW_AT_string_length",
	AttrType:               "DW_AT_type",
	AttrUseLocation:        "DW_AT_use_location",
	AttrVtableElemLocation: "DW_AT_vtable_elem_location",
}

// String renders a by name, or "DW_AT_unknown_0x...." otherwise.
func (a AttrName) String() string {
	if name, ok := attrNames[a]; ok {
		return name
	}
	return fmt.Sprintf("DW_AT_unknown_0x%x", uint32(a))
}

var formNames = map[Form]string{
	FormAddr:     "DW_FORM_addr",
	FormBlock2:   "DW_FORM_block2",
	FormBlock4:   "DW_FORM_block4",
	FormData2:    "DW_FORM_data2",
	FormData4:    "DW_FORM_data4",
	FormData8:    "DW_FORM_data8",
	FormString:   "DW_FORM_string",
	FormBlock:    "DW_FORM_block",
	FormBlock1:   "DW_FORM_block1",
	FormData1:    "DW_FORM_data1",
	FormFlag:     "DW_FORM_flag",
	FormSdata:    "DW_FORM_sdata",
	FormStrp:     "DW_FORM_strp",
	FormUdata:    "DW_FORM_udata",
	FormRefAddr:  "DW_FORM_ref_addr",
	FormRef1:     "DW_FORM_ref1",
	FormRef2:     "DW_FORM_ref2",
	FormRef4:     "DW_FORM_ref4",
	FormRef8:     "DW_FORM_ref8",
	FormRefUdata: "DW_FORM_ref_udata",
	FormIndirect: "DW_FORM_indirect",
}

// String renders f by name, or "DW_FORM_unknown_0x...." otherwise.
func (f Form) String() string {
	if name, ok := formNames[f]; ok {
		return name
	}
	return fmt.Sprintf("DW_FORM_unknown_0x%x", uint32(f))
}
