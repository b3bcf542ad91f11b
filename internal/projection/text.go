package projection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/goliatone/go-blockeditor/internal/blockvalue"
	"github.com/goliatone/go-blockeditor/internal/metadata"
)

// ProjectText flattens the visible blocks of value into index text. Blocks
// follow layout order; nested block values are projected in place.
func (p *Projector) ProjectText(ctx context.Context, value *blockvalue.BlockValue, meta *metadata.Metadata, req Request) string {
	parts := p.blockText(ctx, value, meta, req)
	return strings.Join(parts, p.separator)
}

// ProjectRichTextText flattens rich text markup, replacing placeholders with
// the text of the referenced blocks.
func (p *Projector) ProjectRichTextText(ctx context.Context, value *blockvalue.RichTextValue, meta *metadata.Metadata, req Request) string {
	return strings.Join(p.richTextParts(ctx, value, meta, req), p.separator)
}

// ProjectPropertyText returns the index text of a plain property value
// stored with editorAlias.
func (p *Projector) ProjectPropertyText(ctx context.Context, editorAlias string, raw any) string {
	if raw == nil {
		return ""
	}
	property := resolvedProperty{}
	property.EditorAlias = editorAlias
	return p.scalarText(ctx, property, raw)
}

func (p *Projector) blockText(ctx context.Context, value *blockvalue.BlockValue, meta *metadata.Metadata, req Request) []string {
	if value == nil {
		return nil
	}
	var parts []string
	var walk func(items []blockvalue.LayoutItem)
	walk = func(items []blockvalue.LayoutItem) {
		for i := range items {
			item := &items[i]
			if !visible(value, item, meta, req) {
				continue
			}
			parts = append(parts, p.itemText(ctx, value.ContentByKey(item.ContentKey), meta, req)...)
			for _, area := range item.Areas {
				walk(area.Items)
			}
		}
	}
	walk(value.Layout)
	return parts
}

func (p *Projector) itemText(ctx context.Context, item *blockvalue.BlockItemData, meta *metadata.Metadata, req Request) []string {
	var parts []string
	for _, property := range properties(item, meta, req.Context) {
		stored, ok := propertyValue(item, property.PropertyType, property.effective, req)
		if !ok || stored.Value == nil {
			continue
		}
		if nested, ok := blockvalue.Nested(property.EditorAlias, stored.Value, p.contextLogger(ctx)); ok {
			nestedReq := req
			nestedReq.Context = req.Context.Nested(property.effective)
			blocks, richText := blockvalue.NestedBlocks(nested)
			if richText != nil {
				parts = append(parts, p.richTextParts(ctx, richText, meta, nestedReq)...)
				continue
			}
			parts = append(parts, p.blockText(ctx, blocks, meta, nestedReq)...)
			continue
		}
		text := p.scalarText(ctx, property, stored.Value)
		if text != "" {
			parts = append(parts, text)
		}
	}
	return parts
}

func (p *Projector) scalarText(ctx context.Context, property resolvedProperty, raw any) string {
	switch typed := raw.(type) {
	case string:
		if property.isMarkdown() {
			return p.markdownText(ctx, typed)
		}
		return strings.TrimSpace(typed)
	case json.Number:
		return typed.String()
	case bool, int, int64, float64:
		return fmt.Sprint(typed)
	default:
		data, err := json.Marshal(typed)
		if err != nil {
			p.contextLogger(ctx).Debug("projection.value.skipped", "alias", property.Alias, "error", err)
			return ""
		}
		return string(data)
	}
}

// markdownText renders markdown through goldmark and keeps its text.
func (p *Projector) markdownText(ctx context.Context, source string) string {
	var buf bytes.Buffer
	if err := p.markdown.Convert([]byte(source), &buf); err != nil {
		p.contextLogger(ctx).Warn("projection.markdown.failed", "error", err)
		return strings.TrimSpace(source)
	}
	return strings.Join(htmlText(buf.String(), nil), p.separator)
}

func (p *Projector) richTextParts(ctx context.Context, value *blockvalue.RichTextValue, meta *metadata.Metadata, req Request) []string {
	if value == nil {
		return nil
	}
	blocks := value.Blocks
	return htmlText(value.Markup, func(key uuid.UUID) []string {
		if blocks == nil {
			return nil
		}
		for i := range blocks.Layout {
			item := &blocks.Layout[i]
			if item.ContentKey != key {
				continue
			}
			if !visible(blocks, item, meta, req) {
				return nil
			}
			return p.itemText(ctx, blocks.ContentByKey(key), meta, req)
		}
		return nil
	})
}

// blockElements end a line of text.
var blockElements = map[string]struct{}{
	"p": {}, "div": {}, "br": {}, "li": {}, "ul": {}, "ol": {}, "tr": {}, "td": {}, "th": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"blockquote": {}, "pre": {}, "hr": {}, "table": {}, "section": {}, "article": {},
}

// htmlText extracts text lines from markup. Placeholders are replaced by the
// parts returned from block; a nil block drops them.
func htmlText(markup string, block func(uuid.UUID) []string) []string {
	var parts []string
	var line strings.Builder
	flush := func() {
		text := strings.Join(strings.Fields(line.String()), " ")
		if text != "" {
			parts = append(parts, text)
		}
		line.Reset()
	}

	tokenizer := html.NewTokenizer(strings.NewReader(markup))
	skip := 0
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			flush()
			return parts
		case html.TextToken:
			if skip == 0 {
				line.Write(tokenizer.Text())
				line.WriteByte(' ')
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			if key, ok := blockvalue.PlaceholderKey(token); ok {
				flush()
				if block != nil {
					parts = append(parts, block(key)...)
				}
				continue
			}
			if token.Data == "script" || token.Data == "style" {
				if tt == html.StartTagToken {
					skip++
				}
				continue
			}
			if _, ok := blockElements[token.Data]; ok {
				flush()
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if (tag == "script" || tag == "style") && skip > 0 {
				skip--
				continue
			}
			if _, ok := blockElements[tag]; ok {
				flush()
			}
		}
	}
}
