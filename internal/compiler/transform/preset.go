package transform

// BaseTransforms returns the node transforms and directive transforms of the
// core compiler, in the order they must run.
func BaseTransforms(prefixIdentifiers bool) ([]NodeTransform, map[string]DirectiveTransform) {
	nodeTransforms := []NodeTransform{
		TransformOnce,
		TransformIf,
		TransformMemo,
		TransformFor,
	}
	if prefixIdentifiers {
		nodeTransforms = append(nodeTransforms,
			TrackVForSlotScopes,
			TransformExpression,
		)
	}
	nodeTransforms = append(nodeTransforms,
		TransformSlotOutlet,
		TransformElement,
		TrackSlotScopes,
		TransformText,
	)

	directiveTransforms := map[string]DirectiveTransform{
		"on":    TransformOn,
		"bind":  TransformBind,
		"model": TransformModel,
	}
	return nodeTransforms, directiveTransforms
}
