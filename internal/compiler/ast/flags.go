package ast

import "strings"

// PatchFlag is a hint to the runtime diff about what part of a vnode can
// change. Positive flags combine as a bitmask; negative flags are special.
type PatchFlag int

const (
	PatchText PatchFlag = 1 << iota
	PatchClass
	PatchStyle
	PatchProps
	PatchFullProps
	PatchNeedHydration
	PatchStableFragment
	PatchKeyedFragment
	PatchUnkeyedFragment
	PatchNeedPatch
	PatchDynamicSlots
	PatchDevRootFragment

	PatchHoisted PatchFlag = -1
	PatchBail    PatchFlag = -2
)

var patchFlagNames = []struct {
	flag PatchFlag
	name string
}{
	{PatchText, "TEXT"},
	{PatchClass, "CLASS"},
	{PatchStyle, "STYLE"},
	{PatchProps, "PROPS"},
	{PatchFullProps, "FULL_PROPS"},
	{PatchNeedHydration, "NEED_HYDRATION"},
	{PatchStableFragment, "STABLE_FRAGMENT"},
	{PatchKeyedFragment, "KEYED_FRAGMENT"},
	{PatchUnkeyedFragment, "UNKEYED_FRAGMENT"},
	{PatchNeedPatch, "NEED_PATCH"},
	{PatchDynamicSlots, "DYNAMIC_SLOTS"},
	{PatchDevRootFragment, "DEV_ROOT_FRAGMENT"},
}

// Has reports whether every bit of f2 is set in f. Always false for the
// negative special flags.
func (f PatchFlag) Has(f2 PatchFlag) bool {
	return f > 0 && f&f2 == f2
}

// String renders the flag the way generated code annotates it, e.g.
// "TEXT, PROPS".
func (f PatchFlag) String() string {
	switch {
	case f == PatchHoisted:
		return "HOISTED"
	case f == PatchBail:
		return "BAIL"
	case f == 0:
		return ""
	}
	var names []string
	for _, pf := range patchFlagNames {
		if f&pf.flag != 0 {
			names = append(names, pf.name)
		}
	}
	return strings.Join(names, ", ")
}

// SlotFlag describes how a component's slots object may change.
type SlotFlag int

const (
	SlotStable SlotFlag = iota + 1
	SlotDynamic
	SlotForwarded
)

func (s SlotFlag) String() string {
	switch s {
	case SlotStable:
		return "STABLE"
	case SlotDynamic:
		return "DYNAMIC"
	case SlotForwarded:
		return "FORWARDED"
	default:
		return ""
	}
}
