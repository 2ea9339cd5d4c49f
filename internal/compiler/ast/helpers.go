package ast

// Helper is a runtime helper symbol referenced by generated code. The zero
// value means "no helper".
type Helper int

const (
	HelperNone Helper = iota
	Fragment
	Teleport
	Suspense
	KeepAlive
	BaseTransition
	OpenBlock
	CreateBlock
	CreateElementBlock
	CreateVNode
	CreateElementVNode
	CreateComment
	CreateText
	CreateStatic
	ResolveComponent
	ResolveDynamicComponent
	ResolveDirective
	ResolveFilter
	WithDirectives
	RenderList
	RenderSlot
	CreateSlots
	ToDisplayString
	MergeProps
	NormalizeClass
	NormalizeStyle
	NormalizeProps
	GuardReactiveProps
	ToHandlers
	HelperCamelize
	HelperCapitalize
	HelperToHandlerKey
	SetBlockTracking
	PushScopeID
	PopScopeID
	WithCtx
	Unref
	IsRef
	WithMemo
	IsMemoSame
)

var helperNames = [...]string{
	Fragment:                "Fragment",
	Teleport:                "Teleport",
	Suspense:                "Suspense",
	KeepAlive:               "KeepAlive",
	BaseTransition:          "BaseTransition",
	OpenBlock:               "openBlock",
	CreateBlock:             "createBlock",
	CreateElementBlock:      "createElementBlock",
	CreateVNode:             "createVNode",
	CreateElementVNode:      "createElementVNode",
	CreateComment:           "createCommentVNode",
	CreateText:              "createTextVNode",
	CreateStatic:            "createStaticVNode",
	ResolveComponent:        "resolveComponent",
	ResolveDynamicComponent: "resolveDynamicComponent",
	ResolveDirective:        "resolveDirective",
	ResolveFilter:           "resolveFilter",
	WithDirectives:          "withDirectives",
	RenderList:              "renderList",
	RenderSlot:              "renderSlot",
	CreateSlots:             "createSlots",
	ToDisplayString:         "toDisplayString",
	MergeProps:              "mergeProps",
	NormalizeClass:          "normalizeClass",
	NormalizeStyle:          "normalizeStyle",
	NormalizeProps:          "normalizeProps",
	GuardReactiveProps:      "guardReactiveProps",
	ToHandlers:              "toHandlers",
	HelperCamelize:          "camelize",
	HelperCapitalize:        "capitalize",
	HelperToHandlerKey:      "toHandlerKey",
	SetBlockTracking:        "setBlockTracking",
	PushScopeID:             "pushScopeId",
	PopScopeID:              "popScopeId",
	WithCtx:                 "withCtx",
	Unref:                   "unref",
	IsRef:                   "isRef",
	WithMemo:                "withMemo",
	IsMemoSame:              "isMemoSame",
}

func (Helper) part() {}

// String returns the runtime export name of the helper.
func (h Helper) String() string {
	if h > HelperNone && int(h) < len(helperNames) {
		return helperNames[h]
	}
	return ""
}

// Alias is the local binding generated code uses for the helper.
func (h Helper) Alias() string {
	if name := h.String(); name != "" {
		return "_" + name
	}
	return ""
}

// HelperByName looks a helper up by its runtime export name.
func HelperByName(name string) (Helper, bool) {
	for i, n := range helperNames {
		if n == name && i != 0 {
			return Helper(i), true
		}
	}
	return HelperNone, false
}

// VNodeHelper picks the vnode creation helper.
func VNodeHelper(ssr, isComponent bool) Helper {
	if ssr || isComponent {
		return CreateVNode
	}
	return CreateElementVNode
}

// BlockHelper picks the block creation helper.
func BlockHelper(ssr, isComponent bool) Helper {
	if ssr || isComponent {
		return CreateBlock
	}
	return CreateElementBlock
}
