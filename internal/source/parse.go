package source

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/paperdex/paperdex/internal/model"
)

// parseFile turns one corpus file into documents. JSON files hold either a
// single paper object or an array of them; Markdown files become one
// document whose summary is the plain text of the body.
func parseFile(name string, data []byte) ([]*model.SourceDocument, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return parseJSON(data)
	case ".md", ".markdown":
		doc := parseMarkdown(name, data)
		if doc == nil {
			return nil, nil
		}
		return []*model.SourceDocument{doc}, nil
	default:
		return nil, nil
	}
}

func parseJSON(data []byte) ([]*model.SourceDocument, error) {
	var many []*model.SourceDocument
	if err := json.Unmarshal(data, &many); err == nil {
		return many, nil
	}
	var one model.SourceDocument
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, err
	}
	return []*model.SourceDocument{&one}, nil
}

// parseMarkdown walks the goldmark AST collecting text nodes. The first
// level-1 heading becomes the title; the file name is the fallback.
func parseMarkdown(name string, data []byte) *model.SourceDocument {
	md := goldmark.New()
	reader := text.NewReader(data)
	doc := md.Parser().Parse(reader)

	title := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	var parts []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		if h, ok := node.(*ast.Heading); ok && h.Level == 1 {
			if t := string(h.Text(data)); t != "" {
				title = t
			}
			continue
		}
		if txt := extractText(node, data); txt != "" {
			parts = append(parts, txt)
		}
	}
	summary := strings.TrimSpace(strings.Join(parts, "\n"))
	if summary == "" {
		return nil
	}
	return &model.SourceDocument{Title: title, Summary: summary}
}

func extractText(n ast.Node, source []byte) string {
	var sb strings.Builder
	ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
			sb.WriteByte(' ')
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
