package expression

// IsMemberExpression reports whether src is an identifier or a member access
// chain (`a`, `a.b`, `a[b].c`, `a?.b`), i.e. something that can be assigned to.
func IsMemberExpression(src string) bool {
	toks, err := tokenize(src)
	if err != nil || len(toks) == 0 {
		return false
	}
	a := &analyzer{src: src, toks: toks, mode: ModeExpression}
	if a.structure() != nil {
		return false
	}
	first := toks[0]
	if first.kind != tokIdent || (isKeyword(first.text) && first.text != "this") {
		return false
	}
	for i := 1; i < len(toks); i++ {
		t := toks[i]
		switch {
		case t.is(".") || t.is("?."):
			next := a.tok(i + 1)
			if t.is("?.") && next.is("[") {
				continue
			}
			if next.kind != tokIdent {
				return false
			}
			i++
		case t.is("["):
			end := a.match[i]
			if end == i+1 {
				return false
			}
			i = end
		default:
			return false
		}
	}
	return true
}

// IsFunctionExpression reports whether src is an arrow function or function
// expression, e.g. `e => go(e)`, `(a, b) => {}`, `function (e) {}`.
func IsFunctionExpression(src string) bool {
	toks, err := tokenize(src)
	if err != nil || len(toks) == 0 {
		return false
	}
	a := &analyzer{src: src, toks: toks, mode: ModeExpression}
	if a.structure() != nil {
		return false
	}
	i := 0
	if toks[0].kind == tokIdent && toks[0].text == "async" {
		if a.tok(1).is("=>") {
			return true
		}
		i = 1
	}
	t := a.tok(i)
	switch {
	case t.kind == tokIdent && t.text == "function":
		return true
	case t.kind == tokIdent && !isKeyword(t.text):
		return a.tok(i + 1).is("=>")
	case t.is("("):
		return a.tok(a.match[i] + 1).is("=>")
	}
	return false
}

// Validate reports a syntax error in src, or nil.
func Validate(p Parser, src string, mode Mode) error {
	if p == nil {
		p = Default
	}
	_, err := p.Parse(src, mode)
	return err
}
