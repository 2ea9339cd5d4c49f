package expression

func makeSet(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

var globallyAllowed = makeSet(
	"Infinity", "undefined", "NaN", "isFinite", "isNaN", "parseFloat",
	"parseInt", "decodeURI", "decodeURIComponent", "encodeURI",
	"encodeURIComponent", "Math", "Number", "Date", "Array", "Object",
	"Boolean", "String", "RegExp", "Map", "Set", "JSON", "Intl", "BigInt",
	"console", "Error",
)

var literals = makeSet("true", "false", "null", "this")

var keywords = makeSet(
	"break", "case", "catch", "class", "const", "continue", "debugger",
	"default", "delete", "do", "else", "export", "extends", "finally", "for",
	"function", "if", "import", "in", "instanceof", "let", "new", "return",
	"super", "switch", "throw", "try", "typeof", "var", "void", "while",
	"with", "yield", "await", "of",
	"true", "false", "null", "this",
)

// keywords that join two operands
var binaryKeywords = makeSet("in", "instanceof", "of")

// IsGloballyAllowed reports whether name refers to a global that expressions
// may use without prefixing.
func IsGloballyAllowed(name string) bool {
	_, ok := globallyAllowed[name]
	return ok
}

// IsLiteral reports whether name is a literal keyword (true, false, null, this).
func IsLiteral(name string) bool {
	return isLiteral(name)
}

func isLiteral(name string) bool {
	_, ok := literals[name]
	return ok
}

func isKeyword(name string) bool {
	_, ok := keywords[name]
	return ok
}
