// Package expression is the front end the compiler delegates expression
// syntax to. The compiler never interprets expressions; it only needs to
// know whether an expression is well formed, which identifiers it
// references, and which names it declares.
package expression

// Mode selects how source is interpreted.
type Mode int

const (
	// ModeExpression is a single expression, e.g. a v-bind value
	ModeExpression Mode = iota
	// ModeParams is a function parameter list, e.g. slot props
	ModeParams
	// ModeStatements is a statement list, e.g. an inline v-on handler
	ModeStatements
)

// Identifier is a referenced identifier inside an expression.
type Identifier struct {
	Name  string
	Start int
	End   int
	// Shorthand marks an object shorthand property, `{ foo }`.
	Shorthand bool
	// Local marks a reference to a parameter of a function declared inside
	// the expression itself.
	Local bool
}

// Result is what a Parser reports about an expression.
type Result struct {
	// Identifiers lists referenced identifiers in source order.
	Identifiers []Identifier
	// Declared lists the names a ModeParams source binds.
	Declared []string
	// Bail is set when the expression calls a function or accesses a
	// member, which keeps it from being treated as constant.
	Bail bool
}

// Parser is the pluggable expression front end.
type Parser interface {
	Parse(src string, mode Mode) (*Result, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(src string, mode Mode) (*Result, error)

// Parse calls f.
func (f ParserFunc) Parse(src string, mode Mode) (*Result, error) { return f(src, mode) }

// Default is the built-in scanner-based parser.
var Default Parser = ParserFunc(Parse)

// Parse analyses src with the built-in parser.
func Parse(src string, mode Mode) (*Result, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	a := &analyzer{src: src, toks: toks, mode: mode}
	if err := a.structure(); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	a.collectScopes()
	return a.result(), nil
}

type scope struct {
	bodyStart int
	bodyEnd   int
	names     []string
}

type analyzer struct {
	src  string
	toks []token
	mode Mode

	match    []int  // index of the matching bracket, -1 otherwise
	encl     []int  // index of the innermost enclosing open bracket, -1 at top level
	block    []bool // '{' opens a statement block rather than an object literal
	decl     map[int]bool
	declared []string
	scopes   []scope
}

func (a *analyzer) tok(i int) token {
	if i < 0 || i >= len(a.toks) {
		return token{kind: tokPunct, start: len(a.src), end: len(a.src)}
	}
	return a.toks[i]
}

func syntaxErr(t token, msg string) error {
	return &SyntaxError{Msg: msg, Offset: t.start}
}

func closerFor(open string) string {
	switch open {
	case "(":
		return ")"
	case "[":
		return "]"
	case "{":
		return "}"
	}
	return ""
}

func (a *analyzer) structure() error {
	n := len(a.toks)
	a.match = make([]int, n)
	a.encl = make([]int, n)
	a.block = make([]bool, n)
	a.decl = make(map[int]bool)
	var stack []int
	top := func() int {
		if len(stack) == 0 {
			return -1
		}
		return stack[len(stack)-1]
	}
	for i, t := range a.toks {
		a.match[i] = -1
		a.encl[i] = top()
		switch {
		case t.kind == tokTemplate && t.tmpl == tmplHead:
			stack = append(stack, i)
		case t.kind == tokTemplate && (t.tmpl == tmplMiddle || t.tmpl == tmplTail):
			head := top()
			if head < 0 || a.toks[head].kind != tokTemplate {
				return syntaxErr(t, "Unexpected token")
			}
			a.encl[i] = a.encl[head]
			if t.tmpl == tmplTail {
				stack = stack[:len(stack)-1]
				a.match[head], a.match[i] = i, head
			}
		case t.is("(") || t.is("[") || t.is("{"):
			if t.is("{") {
				a.block[i] = a.opensBlock(i)
			}
			stack = append(stack, i)
		case t.is(")") || t.is("]") || t.is("}"):
			open := top()
			if open < 0 || closerFor(a.toks[open].text) != t.text {
				return syntaxErr(t, "Unexpected token '"+t.text+"'")
			}
			stack = stack[:len(stack)-1]
			a.match[open], a.match[i] = i, open
			a.encl[i] = top()
		}
	}
	if len(stack) > 0 {
		return &SyntaxError{Msg: "Unexpected end of expression", Offset: len(a.src)}
	}
	return nil
}

// opensBlock decides whether the brace at i starts a statement block. Only
// called during structure(), so match is valid for every earlier token.
func (a *analyzer) opensBlock(i int) bool {
	prev := a.tok(i - 1)
	if i > 0 && prev.is("=>") {
		return true
	}
	if i > 0 && prev.is(")") {
		open := a.match[i-1]
		before := a.tok(open - 1)
		if open > 0 && before.kind == tokIdent {
			switch before.text {
			case "function", "if", "for", "while", "catch", "with", "switch":
				return true
			}
			if a.tok(open-2).text == "function" {
				return true
			}
		}
	}
	if !a.statementContext(i) {
		return false
	}
	if i == 0 || prev.is(";") {
		return true
	}
	if prev.is("{") && a.block[i-1] {
		return true
	}
	if prev.is("}") && a.match[i-1] >= 0 && a.block[a.match[i-1]] {
		return true
	}
	if prev.kind == tokIdent {
		switch prev.text {
		case "else", "do", "try", "finally":
			return true
		}
	}
	return false
}

// statementContext reports whether token i sits directly in a statement
// list: a block body, or the top level of a ModeStatements source.
func (a *analyzer) statementContext(i int) bool {
	e := a.encl[i]
	if e < 0 {
		return a.mode == ModeStatements
	}
	return a.toks[e].is("{") && a.block[e]
}

// inForHead reports whether token i sits directly in the parentheses of a
// for statement.
func (a *analyzer) inForHead(i int) bool {
	e := a.encl[i]
	return e > 0 && a.toks[e].is("(") && a.isIdent(e-1, "for")
}

func (a *analyzer) isIdent(i int, name string) bool {
	t := a.tok(i)
	return t.kind == tokIdent && t.text == name
}

var binaryPuncts = makeSet(
	"*", "**", "/", "%", "+", "-", "<<", ">>", ">>>", "<", ">", "<=", ">=",
	"==", "!=", "===", "!==", "&", "|", "^", "&&", "||", "??", "?", ":",
	"=", "+=", "-=", "*=", "/=", "%=", "**=", "<<=", ">>=", ">>>=", "&=",
	"|=", "^=", "&&=", "||=", "??=", "=>",
)

var prefixPuncts = makeSet("!", "~", "+", "-", "...", ".", "?.")

func isBinaryOnly(t token) bool {
	if t.kind != tokPunct || t.text == "+" || t.text == "-" {
		return false
	}
	_, ok := binaryPuncts[t.text]
	return ok
}

func needsOperand(t token) bool {
	if t.kind != tokPunct {
		return t.kind == tokIdent && isKeyword(t.text) && !isLiteral(t.text) && t.text != "super"
	}
	if _, ok := binaryPuncts[t.text]; ok {
		return true
	}
	_, ok := prefixPuncts[t.text]
	return ok
}

func isOperandEnd(t token) bool {
	switch t.kind {
	case tokIdent:
		return !isKeyword(t.text) || isLiteral(t.text) || t.text == "super"
	case tokNumber, tokString, tokRegex:
		return true
	case tokTemplate:
		return t.tmpl == tmplFull || t.tmpl == tmplTail
	}
	return t.text == ")" || t.text == "]" || t.text == "}"
}

func isOperandStart(t, prev token) bool {
	switch t.kind {
	case tokIdent:
		_, binary := binaryKeywords[t.text]
		return !binary
	case tokNumber, tokString, tokRegex:
		return true
	}
	return t.is("{") && !prev.is(")")
}

func (a *analyzer) validate() error {
	if len(a.toks) == 0 {
		return &SyntaxError{Msg: "Unexpected end of expression", Offset: len(a.src)}
	}
	first := a.toks[0]
	if isBinaryOnly(first) || first.is(",") || first.is(".") || first.is("?.") ||
		(first.is(";") && a.mode != ModeStatements) {
		return syntaxErr(first, "Unexpected token '"+first.text+"'")
	}
	for i := 1; i < len(a.toks); i++ {
		prev, cur := a.toks[i-1], a.toks[i]
		if cur.is(";") && !a.statementContext(i) && !a.inForHead(i) {
			return syntaxErr(cur, "Unexpected token ';'")
		}
		if (prev.is(".") || prev.is("?.")) && cur.kind != tokIdent &&
			!(prev.is("?.") && (cur.is("(") || cur.is("["))) {
			return syntaxErr(cur, "Unexpected token")
		}
		if needsOperand(prev) && (isBinaryOnly(cur) || cur.is(")") || cur.is("]")) &&
			!(prev.is(",") || prev.is("=>")) {
			return syntaxErr(cur, "Unexpected token '"+cur.text+"'")
		}
		if a.statementContext(i) || a.inForHead(i) {
			continue
		}
		if isOperandEnd(prev) && isOperandStart(cur, prev) {
			switch prev.text {
			case "async", "get", "set", "static":
				continue
			}
			return syntaxErr(cur, "Unexpected token")
		}
	}
	last := a.toks[len(a.toks)-1]
	if last.is(";") && a.mode == ModeStatements {
		return nil
	}
	if needsOperand(last) {
		return &SyntaxError{Msg: "Unexpected end of expression", Offset: len(a.src)}
	}
	return nil
}

var declPrev = makeSet("(", ",", "{", "[", "...", ":")

// isPatternPosition reports whether the identifier at k declares a binding
// of the parameter list opened at open (-1 for a ModeParams source).
func (a *analyzer) isPatternPosition(k, open int) bool {
	if k-1 != open {
		prev := a.tok(k - 1)
		if prev.kind != tokPunct {
			return false
		}
		if _, ok := declPrev[prev.text]; !ok {
			return false
		}
		if prev.is(":") && !a.tok(a.encl[k]).is("{") {
			return false
		}
	}
	if a.tok(a.encl[k]).is("{") && a.tok(k+1).is(":") {
		return false
	}
	for e := a.encl[k]; e != open; e = a.encl[e] {
		if e < 0 {
			return false
		}
		if !a.toks[e].is("{") && !a.toks[e].is("[") {
			return false
		}
		if e-1 != open {
			prev := a.tok(e - 1)
			if _, ok := declPrev[prev.text]; !ok || prev.kind != tokPunct {
				return false
			}
		}
	}
	return true
}

// declareRange marks the bindings of the parameter list (open, close) and
// returns their names.
func (a *analyzer) declareRange(open, close int) []string {
	var names []string
	for k := open + 1; k < close; k++ {
		t := a.toks[k]
		if t.kind != tokIdent || isKeyword(t.text) {
			continue
		}
		if a.isPatternPosition(k, open) {
			a.decl[k] = true
			names = append(names, t.text)
		}
	}
	return names
}

func (a *analyzer) bodyEnd(start int) int {
	if start >= len(a.toks) {
		return len(a.toks) - 1
	}
	if a.toks[start].is("{") {
		return a.match[start]
	}
	for j := start; j < len(a.toks); j++ {
		t := a.toks[j]
		switch {
		case t.is("(") || t.is("[") || t.is("{"):
			j = a.match[j]
		case t.kind == tokTemplate && t.tmpl == tmplHead:
			j = a.match[j]
		case t.is(")") || t.is("]") || t.is("}") || t.is(",") || t.is(";"),
			t.kind == tokTemplate && (t.tmpl == tmplMiddle || t.tmpl == tmplTail):
			return j - 1
		}
	}
	return len(a.toks) - 1
}

func (a *analyzer) collectScopes() {
	if a.mode == ModeParams {
		a.declared = a.declareRange(-1, len(a.toks))
	}
	for i, t := range a.toks {
		switch {
		case t.is("=>"):
			prev := a.tok(i - 1)
			var names []string
			switch {
			case prev.kind == tokIdent && !isKeyword(prev.text):
				a.decl[i-1] = true
				names = []string{prev.text}
			case prev.is(")"):
				names = a.declareRange(a.match[i-1], i-1)
			default:
				continue
			}
			a.scopes = append(a.scopes, scope{bodyStart: i + 1, bodyEnd: a.bodyEnd(i + 1), names: names})
		case t.kind == tokIdent && (t.text == "const" || t.text == "let" || t.text == "var"):
			a.declareVariables(i)
		case t.kind == tokIdent && t.text == "catch" && a.tok(i+1).is("("):
			close := a.match[i+1]
			names := a.declareRange(i+1, close)
			if a.tok(close + 1).is("{") {
				a.scopes = append(a.scopes, scope{bodyStart: close + 1, bodyEnd: a.match[close+1], names: names})
			}
		case t.kind == tokIdent && t.text == "function":
			j := i + 1
			if name := a.tok(j); name.kind == tokIdent && !isKeyword(name.text) {
				a.decl[j] = true
				if a.statementContext(i) {
					// a function declaration binds its name in the enclosing block
					start, end := a.declScope(i)
					a.scopes = append(a.scopes, scope{bodyStart: start, bodyEnd: end, names: []string{name.text}})
				}
				j++
			}
			if !a.tok(j).is("(") {
				continue
			}
			close := a.match[j]
			names := a.declareRange(j, close)
			if a.tok(close + 1).is("{") {
				a.scopes = append(a.scopes, scope{bodyStart: close + 1, bodyEnd: a.match[close+1], names: names})
			}
		}
	}
}

// declareVariables marks the bindings of the const, let or var declaration
// starting at kw. Initializers are skipped; their identifiers stay
// references.
func (a *analyzer) declareVariables(kw int) {
	var names []string
	level := a.encl[kw]
	j := kw + 1
	for j < len(a.toks) {
		t := a.toks[j]
		switch {
		case t.kind == tokIdent && !isKeyword(t.text):
			a.decl[j] = true
			names = append(names, t.text)
			j++
		case t.is("{") || t.is("["):
			names = append(names, a.declareRange(j, a.match[j])...)
			j = a.match[j] + 1
		default:
			j = len(a.toks)
			continue
		}

		for ; j < len(a.toks) && a.encl[j] == level; j++ {
			t := a.toks[j]
			if t.is(",") || t.is(";") || a.isIdent(j, "in") || a.isIdent(j, "of") {
				break
			}
			if t.is("(") || t.is("[") || t.is("{") || (t.kind == tokTemplate && t.tmpl == tmplHead) {
				j = a.match[j]
			}
		}
		if !a.tok(j).is(",") || a.encl[j] != level {
			break
		}
		j++
	}
	if len(names) == 0 {
		return
	}
	start, end := a.declScope(kw)
	a.scopes = append(a.scopes, scope{bodyStart: start, bodyEnd: end, names: names})
}

// declScope returns the token range a declaration at i is visible in: its
// block, the whole loop for a for-head declaration, or the whole source at
// the top level.
func (a *analyzer) declScope(i int) (int, int) {
	e := a.encl[i]
	switch {
	case e < 0:
		return 0, len(a.toks) - 1
	case a.inForHead(i):
		return e, a.bodyEnd(a.match[e] + 1)
	}
	return e, a.match[e]
}

// isAsyncModifier reports whether the async at k marks an async function
// rather than naming a variable.
func (a *analyzer) isAsyncModifier(k int) bool {
	if !a.isIdent(k, "async") {
		return false
	}
	next := a.tok(k + 1)
	switch {
	case next.kind == tokIdent && next.text == "function":
		return true
	case next.kind == tokIdent && !isKeyword(next.text):
		return a.tok(k + 2).is("=>")
	case next.is("("):
		return a.tok(a.match[k+1] + 1).is("=>")
	}
	return false
}

func (a *analyzer) isLocal(k int, name string) bool {
	for _, s := range a.scopes {
		if k < s.bodyStart || k > s.bodyEnd {
			continue
		}
		for _, n := range s.names {
			if n == name {
				return true
			}
		}
	}
	return false
}

func (a *analyzer) result() *Result {
	res := &Result{}
	seen := make(map[string]bool)
	for _, name := range a.declared {
		if !seen[name] {
			seen[name] = true
			res.Declared = append(res.Declared, name)
		}
	}
	for k, t := range a.toks {
		if t.is(".") || t.is("?.") || t.is("...") {
			res.Bail = true
		}
		if t.kind != tokIdent || isKeyword(t.text) || a.isAsyncModifier(k) {
			continue
		}
		if a.tok(k + 1).is("(") {
			res.Bail = true
		}
		if a.decl[k] {
			continue
		}
		prev := a.tok(k - 1)
		if k > 0 && (prev.is(".") || prev.is("?.")) {
			continue
		}
		shorthand := false
		if e := a.encl[k]; e >= 0 && a.toks[e].is("{") && !a.block[e] && (k-1 == e || prev.is(",")) {
			next := a.tok(k + 1)
			if next.is(":") || next.is("(") {
				continue
			}
			shorthand = true
		}
		res.Identifiers = append(res.Identifiers, Identifier{
			Name:      t.text,
			Start:     t.start,
			End:       t.end,
			Shorthand: shorthand,
			Local:     a.isLocal(k, t.text),
		})
	}
	return res
}
