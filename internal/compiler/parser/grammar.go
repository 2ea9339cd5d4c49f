package parser

// Character classes of the markup grammar.

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isWhitespaceOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isWhitespace(s[i]) {
			return false
		}
	}
	return true
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isASCIIDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// tag names run until whitespace, '/' or '>'
func isTagNameChar(c byte) bool {
	return !isWhitespace(c) && c != '/' && c != '>'
}

// attribute names run until whitespace, '/', '>' or '='; the first
// character may be '='
func isAttrNameChar(c byte) bool {
	return isTagNameChar(c) && c != '='
}

func isUnquotedValueChar(c byte) bool {
	return !isWhitespace(c) && c != '>'
}

func isDirectiveNameChar(c byte) bool {
	return isASCIILetter(c) || isASCIIDigit(c) || c == '-'
}

func isUnexpectedInAttrName(c byte) bool {
	return c == '"' || c == '\'' || c == '<'
}

func isUnexpectedInUnquotedValue(c byte) bool {
	return c == '"' || c == '\'' || c == '<' || c == '=' || c == '`'
}

// directive shorthand sigils
const (
	sigilBind = ':'
	sigilProp = '.'
	sigilOn   = '@'
	sigilSlot = '#'
)

// looksLikeDirective reports whether an attribute name is written in
// directive syntax: v-<name>, or one of the shorthand sigils.
func looksLikeDirective(name string) bool {
	if len(name) == 0 {
		return false
	}
	switch name[0] {
	case sigilBind, sigilProp, sigilOn, sigilSlot:
		return true
	}
	return len(name) > 2 && name[0] == 'v' && name[1] == '-' && isDirectiveNameChar(name[2])
}

// directiveParts is the breakdown of a directive attribute name.
type directiveParts struct {
	name      string
	arg       string // raw argument including brackets, "" if absent
	argOffset int
	rest      string // trailing text after the argument (modifiers)
	restStart int
}

// splitDirective breaks a directive attribute name into name, argument and
// modifier tail:
//
//	v-<name>[:<arg>][.<mod>...]
//	:<arg>  .<arg>  @<arg>  #<arg>
//
// A bracketed argument ([expr]) is dynamic and may contain dots.
func splitDirective(attr string) directiveParts {
	var d directiveParts
	i := 0
	if len(attr) > 1 && attr[0] == 'v' && attr[1] == '-' {
		j := 2
		for j < len(attr) && isDirectiveNameChar(attr[j]) {
			j++
		}
		if j > 2 {
			d.name = attr[2:j]
			i = j
		}
	}

	if i < len(attr) && (attr[i] == sigilBind || (i == 0 && (attr[0] == sigilProp || attr[0] == sigilOn || attr[0] == sigilSlot))) {
		k := i + 1
		end := -1
		if k < len(attr) && attr[k] == '[' {
			for m := k + 1; m < len(attr); m++ {
				if attr[m] == ']' {
					if m > k+1 {
						end = m + 1
					}
					break
				}
			}
		}
		if end < 0 {
			m := k
			for m < len(attr) && attr[m] != '.' {
				m++
			}
			if m > k {
				end = m
			}
		}
		if end > 0 {
			d.arg = attr[k:end]
			d.argOffset = k
			i = end
		}
	}

	d.rest = attr[i:]
	d.restStart = i
	return d
}

func isSpecialTemplateDirective(name string) bool {
	switch name {
	case "if", "else", "else-if", "for", "slot":
		return true
	}
	return false
}
