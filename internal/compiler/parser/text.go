package parser

import (
	"strings"

	"github.com/conduit-lang/stencil/internal/compiler/ast"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
)

// parseInterpolation parses {{ exp }}. It returns nil, leaving the input
// untouched, when the closing delimiter is missing.
func (p *Parser) parseInterpolation(mode TextMode) *ast.InterpolationNode {
	open, close := p.opts.Delimiters[0], p.opts.Delimiters[1]
	closeIndex := strings.Index(p.cur.Rest()[len(open):], close)
	if closeIndex == -1 {
		p.emitError(errors.XMissingInterpolationEnd, 0)
		return nil
	}

	start := p.cur.Pos()
	p.cur.Advance(len(open))

	raw := p.cur.Peek(closeIndex)
	lead := len(raw) - len(strings.TrimLeft(raw, " \t\n\r\f"))
	trail := len(raw) - len(strings.TrimRight(raw, " \t\n\r\f"))
	if lead == len(raw) {
		trail = 0
	}
	innerStart := p.cur.Offset(lead)
	innerEnd := p.cur.Offset(len(raw) - trail)

	content := strings.TrimSpace(p.parseTextData(closeIndex, mode))
	p.cur.Advance(len(close))

	exp := ast.NewSimpleExpression(content, false, p.cur.Selection(innerStart, innerEnd), ast.NotConstant)
	p.track(exp)
	n := ast.NewInterpolation(exp, p.cur.Selection(start))
	p.track(n)
	return n
}

func (p *Parser) parseText(mode TextMode) *ast.TextNode {
	endTokens := []string{"<", p.opts.Delimiters[0]}
	if mode == TextCData {
		endTokens = []string{"]]>"}
	}
	rest := p.cur.Rest()
	end := len(rest)
	for _, tok := range endTokens {
		if len(rest) < 1 {
			break
		}
		if i := strings.Index(rest[1:], tok); i != -1 && i+1 < end {
			end = i + 1
		}
	}

	start := p.cur.Pos()
	content := p.parseTextData(end, mode)
	n := ast.NewText(content, p.cur.Selection(start))
	p.track(n)
	return n
}

// parseTextData consumes n bytes and returns them with character references
// decoded where the mode allows it.
func (p *Parser) parseTextData(n int, mode TextMode) string {
	raw := p.cur.Peek(n)
	p.cur.Advance(n)
	if mode == TextRawText || mode == TextCData || !strings.Contains(raw, "&") {
		return raw
	}
	return p.opts.DecodeEntities(raw, mode == TextAttributeValue)
}

func (p *Parser) parseComment() *ast.CommentNode {
	start := p.cur.Pos()
	rest := p.cur.Rest()

	closeAt, closeLen := -1, 0
	for i := 0; i+2 < len(rest); i++ {
		if rest[i] != '-' || rest[i+1] != '-' {
			continue
		}
		if rest[i+2] == '>' {
			closeAt, closeLen = i, 3
			break
		}
		if rest[i+2] == '!' && i+3 < len(rest) && rest[i+3] == '>' {
			closeAt, closeLen = i, 4
			break
		}
	}

	var content string
	if closeAt == -1 {
		content = rest[4:]
		p.cur.Advance(len(rest))
		p.emitError(errors.EOFInComment, 0)
	} else {
		if closeAt <= 3 {
			p.emitError(errors.AbruptClosingOfEmptyComment, 0)
		}
		if closeLen == 4 {
			p.emitError(errors.IncorrectlyClosedComment, 0)
		}
		if closeAt > 4 {
			content = rest[4:closeAt]
		}

		// report each nested <!-- at its own offset
		body := rest[:closeAt]
		prev := 1
		for {
			i := strings.Index(body[prev:], "<!--")
			if i == -1 {
				break
			}
			nested := prev + i
			p.cur.Advance(nested - prev + 1)
			if nested+4 < len(body) {
				p.emitError(errors.NestedComment, 0)
			}
			prev = nested + 1
		}
		p.cur.Advance(closeAt + closeLen - prev + 1)
	}

	n := ast.NewComment(content, p.cur.Selection(start))
	p.track(n)
	return n
}

// parseBogusComment turns <!...>, <?...> and malformed tags into a comment.
func (p *Parser) parseBogusComment() *ast.CommentNode {
	start := p.cur.Pos()
	rest := p.cur.Rest()
	contentStart := 2
	if p.cur.At(1) == '?' {
		contentStart = 1
	}

	var content string
	if closeIndex := strings.IndexByte(rest, '>'); closeIndex == -1 {
		content = rest[contentStart:]
		p.cur.Advance(len(rest))
	} else {
		if closeIndex > contentStart {
			content = rest[contentStart:closeIndex]
		}
		p.cur.Advance(closeIndex + 1)
	}

	n := ast.NewComment(content, p.cur.Selection(start))
	p.track(n)
	return n
}

func (p *Parser) parseCDATA(ancestors []*ast.ElementNode) []ast.Node {
	p.cur.Advance(len("<![CDATA["))
	nodes := p.parseChildren(TextCData, ancestors)
	if p.cur.Done() {
		p.emitError(errors.EOFInCDATA, 0)
	} else {
		p.cur.Advance(len("]]>"))
	}
	return nodes
}
