package errors

// ErrorCode is the numeric identifier of a compiler diagnostic.
type ErrorCode int

// Parse errors. The first block follows the HTML tokenizer error names.
const (
	AbruptClosingOfEmptyComment ErrorCode = iota
	CDATAInHTMLContent
	DuplicateAttribute
	EndTagWithAttributes
	EndTagWithTrailingSolidus
	EOFBeforeTagName
	EOFInCDATA
	EOFInComment
	EOFInScriptHTMLCommentLikeText
	EOFInTag
	IncorrectlyClosedComment
	IncorrectlyOpenedComment
	InvalidFirstCharacterOfTagName
	MissingAttributeValue
	MissingEndTagName
	MissingWhitespaceBetweenAttributes
	NestedComment
	UnexpectedCharacterInAttributeName
	UnexpectedCharacterInUnquotedAttributeValue
	UnexpectedEqualsSignBeforeAttributeName
	UnexpectedNullCharacter
	UnexpectedQuestionMarkInsteadOfTagName
	UnexpectedSolidusInTag

	// template-specific parse errors
	XInvalidEndTag
	XMissingEndTag
	XMissingInterpolationEnd
	XMissingDirectiveName
	XMissingDynamicDirectiveArgumentEnd

	// transform errors
	XVIfNoExpression
	XVIfSameKey
	XVElseNoAdjacentIf
	XVForNoExpression
	XVForMalformedExpression
	XVForTemplateKeyPlacement
	XVBindNoExpression
	XVOnNoExpression
	XVSlotUnexpectedDirectiveOnSlotOutlet
	XVSlotMixedSlotUsage
	XVSlotDuplicateSlotNames
	XVSlotExtraneousDefaultSlotChildren
	XVSlotMisplaced
	XVModelNoExpression
	XVModelMalformedExpression
	XVModelOnScopeVariable
	XVModelOnProps
	XInvalidExpression
	XKeepAliveInvalidChildren

	// feature availability
	XPrefixIDNotSupported
	XModuleModeNotSupported
	XCacheHandlerNotSupported
	XScopeIDNotSupported

	// deprecations
	DeprecationVNodeHooks
	DeprecationVIs

	errorCodeEnd
)

type codeInfo struct {
	name    string
	message string
}

var codeTable = [...]codeInfo{
	AbruptClosingOfEmptyComment:                 {"ABRUPT_CLOSING_OF_EMPTY_COMMENT", "Illegal comment."},
	CDATAInHTMLContent:                          {"CDATA_IN_HTML_CONTENT", "CDATA section is allowed only in XML context."},
	DuplicateAttribute:                          {"DUPLICATE_ATTRIBUTE", "Duplicate attribute."},
	EndTagWithAttributes:                        {"END_TAG_WITH_ATTRIBUTES", "End tag cannot have attributes."},
	EndTagWithTrailingSolidus:                   {"END_TAG_WITH_TRAILING_SOLIDUS", "Illegal '/' in tags."},
	EOFBeforeTagName:                            {"EOF_BEFORE_TAG_NAME", "Unexpected EOF in tag."},
	EOFInCDATA:                                  {"EOF_IN_CDATA", "Unexpected EOF in CDATA section."},
	EOFInComment:                                {"EOF_IN_COMMENT", "Unexpected EOF in comment."},
	EOFInScriptHTMLCommentLikeText:              {"EOF_IN_SCRIPT_HTML_COMMENT_LIKE_TEXT", "Unexpected EOF in script."},
	EOFInTag:                                    {"EOF_IN_TAG", "Unexpected EOF in tag."},
	IncorrectlyClosedComment:                    {"INCORRECTLY_CLOSED_COMMENT", "Incorrectly closed comment."},
	IncorrectlyOpenedComment:                    {"INCORRECTLY_OPENED_COMMENT", "Incorrectly opened comment."},
	InvalidFirstCharacterOfTagName:              {"INVALID_FIRST_CHARACTER_OF_TAG_NAME", "Illegal tag name. Use '&lt;' to print '<'."},
	MissingAttributeValue:                       {"MISSING_ATTRIBUTE_VALUE", "Attribute value was expected."},
	MissingEndTagName:                           {"MISSING_END_TAG_NAME", "End tag name was expected."},
	MissingWhitespaceBetweenAttributes:          {"MISSING_WHITESPACE_BETWEEN_ATTRIBUTES", "Whitespace was expected."},
	NestedComment:                               {"NESTED_COMMENT", "Unexpected '<!--' in comment."},
	UnexpectedCharacterInAttributeName:          {"UNEXPECTED_CHARACTER_IN_ATTRIBUTE_NAME", "Attribute name cannot contain U+0022 (\"), U+0027 ('), and U+003C (<)."},
	UnexpectedCharacterInUnquotedAttributeValue: {"UNEXPECTED_CHARACTER_IN_UNQUOTED_ATTRIBUTE_VALUE", "Unquoted attribute value cannot contain U+0022 (\"), U+0027 ('), U+003C (<), U+003D (=), and U+0060 (`)."},
	UnexpectedEqualsSignBeforeAttributeName:     {"UNEXPECTED_EQUALS_SIGN_BEFORE_ATTRIBUTE_NAME", "Attribute name cannot start with '='."},
	UnexpectedNullCharacter:                     {"UNEXPECTED_NULL_CHARACTER", "Unexpected null character."},
	UnexpectedQuestionMarkInsteadOfTagName:      {"UNEXPECTED_QUESTION_MARK_INSTEAD_OF_TAG_NAME", "'<?' is allowed only in XML context."},
	UnexpectedSolidusInTag:                      {"UNEXPECTED_SOLIDUS_IN_TAG", "Illegal '/' in tags."},

	XInvalidEndTag:                      {"X_INVALID_END_TAG", "Invalid end tag."},
	XMissingEndTag:                      {"X_MISSING_END_TAG", "Element is missing end tag."},
	XMissingInterpolationEnd:            {"X_MISSING_INTERPOLATION_END", "Interpolation end sign was not found."},
	XMissingDirectiveName:               {"X_MISSING_DIRECTIVE_NAME", "Legal directive name was expected."},
	XMissingDynamicDirectiveArgumentEnd: {"X_MISSING_DYNAMIC_DIRECTIVE_ARGUMENT_END", "End bracket for dynamic directive argument was not found. Note that dynamic directive argument cannot contain spaces."},

	XVIfNoExpression:                      {"X_V_IF_NO_EXPRESSION", "v-if/v-else-if is missing expression."},
	XVIfSameKey:                           {"X_V_IF_SAME_KEY", "v-if/else branches must use unique keys."},
	XVElseNoAdjacentIf:                    {"X_V_ELSE_NO_ADJACENT_IF", "v-else/v-else-if has no adjacent v-if or v-else-if."},
	XVForNoExpression:                     {"X_V_FOR_NO_EXPRESSION", "v-for is missing expression."},
	XVForMalformedExpression:              {"X_V_FOR_MALFORMED_EXPRESSION", "v-for has invalid expression."},
	XVForTemplateKeyPlacement:             {"X_V_FOR_TEMPLATE_KEY_PLACEMENT", "<template v-for> key should be placed on the <template> tag."},
	XVBindNoExpression:                    {"X_V_BIND_NO_EXPRESSION", "v-bind is missing expression."},
	XVOnNoExpression:                      {"X_V_ON_NO_EXPRESSION", "v-on is missing expression."},
	XVSlotUnexpectedDirectiveOnSlotOutlet: {"X_V_SLOT_UNEXPECTED_DIRECTIVE_ON_SLOT_OUTLET", "Unexpected custom directive on <slot> outlet."},
	XVSlotMixedSlotUsage:                  {"X_V_SLOT_MIXED_SLOT_USAGE", "Mixed v-slot usage on both the component and nested <template>. When there are multiple named slots, all slots should use <template> syntax to avoid scope ambiguity."},
	XVSlotDuplicateSlotNames:              {"X_V_SLOT_DUPLICATE_SLOT_NAMES", "Duplicate slot names found. "},
	XVSlotExtraneousDefaultSlotChildren:   {"X_V_SLOT_EXTRANEOUS_DEFAULT_SLOT_CHILDREN", "Extraneous children found when component already has explicitly named default slot. These children will be ignored."},
	XVSlotMisplaced:                       {"X_V_SLOT_MISPLACED", "v-slot can only be used on components or <template> tags."},
	XVModelNoExpression:                   {"X_V_MODEL_NO_EXPRESSION", "v-model is missing expression."},
	XVModelMalformedExpression:            {"X_V_MODEL_MALFORMED_EXPRESSION", "v-model value must be a valid member expression."},
	XVModelOnScopeVariable:                {"X_V_MODEL_ON_SCOPE_VARIABLE", "v-model cannot be used on v-for or v-slot scope variables because they are not writable."},
	XVModelOnProps:                        {"X_V_MODEL_ON_PROPS", "v-model cannot be used on a prop, because local prop bindings are not writable."},
	XInvalidExpression:                    {"X_INVALID_EXPRESSION", "Error parsing expression: "},
	XKeepAliveInvalidChildren:             {"X_KEEP_ALIVE_INVALID_CHILDREN", "<KeepAlive> expects exactly one child component."},

	XPrefixIDNotSupported:     {"X_PREFIX_ID_NOT_SUPPORTED", "\"prefixIdentifiers\" option is not supported in this build of compiler."},
	XModuleModeNotSupported:   {"X_MODULE_MODE_NOT_SUPPORTED", "ES module mode is not supported in this build of compiler."},
	XCacheHandlerNotSupported: {"X_CACHE_HANDLER_NOT_SUPPORTED", "\"cacheHandlers\" option is only supported when the \"prefixIdentifiers\" option is enabled."},
	XScopeIDNotSupported:      {"X_SCOPE_ID_NOT_SUPPORTED", "\"scopeId\" option is only supported in module mode."},

	DeprecationVNodeHooks: {"DEPRECATION_VNODE_HOOKS", "@vnode-* hooks in templates are deprecated. Use the vue: prefix instead. For example, @vnode-mounted should be changed to @vue:mounted."},
	DeprecationVIs:        {"DEPRECATION_V_IS", "v-is=\"component-name\" has been deprecated. Use is=\"vue:component-name\" instead."},
}

// Name returns the constant name of the code, e.g. X_V_IF_NO_EXPRESSION.
func (c ErrorCode) Name() string {
	if c.Valid() {
		return codeTable[c].name
	}
	return "UNKNOWN"
}

// Message returns the base message of the code.
func (c ErrorCode) Message() string {
	if c.Valid() {
		return codeTable[c].message
	}
	return "Unknown compiler error."
}

func (c ErrorCode) String() string {
	return c.Name()
}

// Valid reports whether c is a known code.
func (c ErrorCode) Valid() bool {
	return c >= 0 && c < errorCodeEnd
}

// Category returns the category the code belongs to.
func (c ErrorCode) Category() ErrorCategory {
	switch {
	case c <= XMissingDynamicDirectiveArgumentEnd:
		return CategoryParse
	case c <= XKeepAliveInvalidChildren:
		return CategoryTransform
	case c <= XScopeIDNotSupported:
		return CategoryFeature
	default:
		return CategoryDeprecation
	}
}

// Codes returns every known code in numeric order.
func Codes() []ErrorCode {
	codes := make([]ErrorCode, 0, int(errorCodeEnd))
	for c := ErrorCode(0); c < errorCodeEnd; c++ {
		codes = append(codes, c)
	}
	return codes
}
