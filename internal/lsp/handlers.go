package lsp

import (
	"context"
	"encoding/json"
	"strings"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/conduit-lang/stencil/internal/compiler"
	"github.com/conduit-lang/stencil/internal/compiler/errors"
)

// handleTextDocumentDidOpen handles document open notifications
func (s *Server) handleTextDocumentDidOpen(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse didOpen params")
	}

	doc := newDocument(params.TextDocument.URI, params.TextDocument.Version, params.TextDocument.Text)
	s.docs.set(doc)
	s.logger.Debug("document opened", zap.String("uri", string(doc.uri)), zap.Int32("version", doc.version))

	s.publishDiagnostics(ctx, doc)
	return reply(ctx, nil, nil)
}

// handleTextDocumentDidChange handles document change notifications
func (s *Server) handleTextDocumentDidChange(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse didChange params")
	}

	if len(params.ContentChanges) == 0 {
		return reply(ctx, nil, nil)
	}

	// full document sync: the last change is the whole text
	text := params.ContentChanges[len(params.ContentChanges)-1].Text
	doc := newDocument(params.TextDocument.URI, params.TextDocument.Version, text)
	if !s.docs.set(doc) {
		// an out-of-order change
		return reply(ctx, nil, nil)
	}

	s.publishDiagnostics(ctx, doc)
	return reply(ctx, nil, nil)
}

// handleTextDocumentDidClose handles document close notifications
func (s *Server) handleTextDocumentDidClose(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse didClose params")
	}

	s.docs.remove(params.TextDocument.URI)

	// clear the client's diagnostics for the closed document
	err := s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	if err != nil {
		s.logger.Warn("error clearing diagnostics", zap.Error(err))
	}

	return reply(ctx, nil, nil)
}

// handleTextDocumentDidSave handles document save notifications
func (s *Server) handleTextDocumentDidSave(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse didSave params")
	}

	doc, ok := s.docs.get(params.TextDocument.URI)
	if !ok {
		return reply(ctx, nil, nil)
	}
	if params.Text != "" && params.Text != doc.text {
		doc = newDocument(doc.uri, doc.version, params.Text)
		s.docs.set(doc)
	}

	s.publishDiagnostics(ctx, doc)
	return reply(ctx, nil, nil)
}

// compilerOptions returns the options for compiling doc, collecting
// diagnostics into c
func (s *Server) compilerOptions(doc *document, c *errors.Collector) compiler.Options {
	opts := s.opts
	opts.Filename = doc.filename()
	opts.OnError = c.OnError
	opts.OnWarn = c.OnWarn
	opts.Logger = s.logger
	return opts
}

// check compiles doc and returns its diagnostics
func (s *Server) check(doc *document) errors.ErrorList {
	res := compiler.Check(doc.text, s.compilerOptions(doc, errors.NewCollector()))
	return res.Diagnostics()
}

// publishDiagnostics publishes diagnostics for a document
func (s *Server) publishDiagnostics(ctx context.Context, doc *document) {
	diags := s.check(doc)

	params := protocol.PublishDiagnosticsParams{
		URI:         doc.uri,
		Version:     uint32(doc.version),
		Diagnostics: doc.diagnostics(diags),
	}

	if err := s.client.PublishDiagnostics(ctx, &params); err != nil {
		s.logger.Warn("error publishing diagnostics", zap.Error(err))
	}
}

// handleTextDocumentDocumentSymbol outlines the elements of a document
func (s *Server) handleTextDocumentDocumentSymbol(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DocumentSymbolParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse documentSymbol params")
	}

	doc, ok := s.docs.get(params.TextDocument.URI)
	if !ok {
		return reply(ctx, []protocol.DocumentSymbol{}, nil)
	}

	root, err := compiler.Parse(doc.text, s.compilerOptions(doc, errors.NewCollector()))
	if err != nil {
		s.logger.Warn("error parsing document", zap.Error(err))
		return s.replyWithError(ctx, reply, jsonrpc2.InternalError, "Failed to parse document")
	}

	symbols := doc.symbols(root.Children)
	if symbols == nil {
		symbols = []protocol.DocumentSymbol{}
	}
	return reply(ctx, symbols, nil)
}

// completionItem is a built-in directive or component offered by completion
type completionItem struct {
	label  string
	kind   protocol.CompletionItemKind
	detail string
	insert string
}

var directiveCompletions = []completionItem{
	{"v-if", protocol.CompletionItemKindKeyword, "Render the element when the expression is truthy", `v-if="$1"`},
	{"v-else-if", protocol.CompletionItemKindKeyword, "Else-if branch of a v-if chain", `v-else-if="$1"`},
	{"v-else", protocol.CompletionItemKindKeyword, "Else branch of a v-if chain", "v-else"},
	{"v-for", protocol.CompletionItemKindKeyword, "Render the element once per item", `v-for="${1:item} in ${2:items}" :key="$3"`},
	{"v-bind", protocol.CompletionItemKindKeyword, "Bind an attribute or prop", `v-bind:${1:name}="$2"`},
	{"v-on", protocol.CompletionItemKindKeyword, "Attach an event listener", `v-on:${1:event}="$2"`},
	{"v-model", protocol.CompletionItemKindKeyword, "Two-way binding", `v-model="$1"`},
	{"v-slot", protocol.CompletionItemKindKeyword, "Named or scoped slot", `v-slot:${1:default}="$2"`},
	{"v-show", protocol.CompletionItemKindKeyword, "Toggle display", `v-show="$1"`},
	{"v-html", protocol.CompletionItemKindKeyword, "Set innerHTML", `v-html="$1"`},
	{"v-text", protocol.CompletionItemKindKeyword, "Set textContent", `v-text="$1"`},
	{"v-once", protocol.CompletionItemKindKeyword, "Render once and cache", "v-once"},
	{"v-memo", protocol.CompletionItemKindKeyword, "Memoize on dependencies", `v-memo="[$1]"`},
	{"v-pre", protocol.CompletionItemKindKeyword, "Skip compilation of this subtree", "v-pre"},
	{"v-cloak", protocol.CompletionItemKindKeyword, "Hidden until mounted", "v-cloak"},
}

var componentCompletions = []completionItem{
	{"template", protocol.CompletionItemKindClass, "Invisible wrapper for directives", "template"},
	{"slot", protocol.CompletionItemKindClass, "Slot outlet", "slot"},
	{"component", protocol.CompletionItemKindClass, "Dynamic component", `component :is="$1"`},
	{"Teleport", protocol.CompletionItemKindClass, "Render content elsewhere in the DOM", `Teleport to="$1"`},
	{"KeepAlive", protocol.CompletionItemKindClass, "Cache inactive component instances", "KeepAlive"},
	{"Suspense", protocol.CompletionItemKindClass, "Await async dependencies", "Suspense"},
}

// handleTextDocumentCompletion completes directive names inside tags and
// built-in components after '<'
func (s *Server) handleTextDocumentCompletion(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.CompletionParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse completion params")
	}

	items := []protocol.CompletionItem{}
	doc, ok := s.docs.get(params.TextDocument.URI)
	if !ok {
		return reply(ctx, protocol.CompletionList{Items: items}, nil)
	}

	offset := doc.offset(params.Position)
	word, afterLT := wordBefore(doc.text, offset)

	candidates := directiveCompletions
	if afterLT {
		candidates = componentCompletions
	} else if !strings.HasPrefix(word, "v") {
		return reply(ctx, protocol.CompletionList{Items: items}, nil)
	}

	for _, c := range candidates {
		if !strings.HasPrefix(c.label, word) {
			continue
		}
		item := protocol.CompletionItem{
			Label:            c.label,
			Kind:             c.kind,
			Detail:           c.detail,
			InsertText:       c.insert,
			InsertTextFormat: protocol.InsertTextFormatPlainText,
		}
		if strings.Contains(c.insert, "$") {
			item.InsertTextFormat = protocol.InsertTextFormatSnippet
		}
		items = append(items, item)
	}

	return reply(ctx, protocol.CompletionList{IsIncomplete: false, Items: items}, nil)
}

// wordBefore returns the attribute or tag name being typed at offset and
// whether it directly follows '<'
func wordBefore(text string, offset int) (string, bool) {
	start := offset
	for start > 0 {
		c := text[start-1]
		if c == '-' || c == '_' || c == ':' || c == '.' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			start--
			continue
		}
		break
	}
	return text[start:offset], start > 0 && text[start-1] == '<'
}
