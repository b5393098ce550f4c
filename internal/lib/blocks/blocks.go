// Package blocks декодирует и рендерит rich-text контент из CMS.
// Контент приходит либо деревом блоков (paragraph, heading, list, quote, code, image, link),
// либо markdown-строкой из старых полей richtext.
package blocks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	TypeParagraph = "paragraph"
	TypeHeading   = "heading"
	TypeList      = "list"
	TypeListItem  = "list-item"
	TypeQuote     = "quote"
	TypeCode      = "code"
	TypeImage     = "image"
	TypeLink      = "link"
	TypeText      = "text"
)

const (
	ListOrdered   = "ordered"
	ListUnordered = "unordered"
)

// Node узел дерева блоков. Листья имеют Type == "text".
type Node struct {
	Type     string `json:"type"`
	Level    int    `json:"level,omitempty"`
	Format   string `json:"format,omitempty"`
	Language string `json:"language,omitempty"`
	URL      string `json:"url,omitempty"`
	Image    *Image `json:"image,omitempty"`
	Children []Node `json:"children,omitempty"`

	Text          string `json:"text,omitempty"`
	Bold          bool   `json:"bold,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Underline     bool   `json:"underline,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`
	Code          bool   `json:"code,omitempty"`
}

// Image картинка внутри блока image
type Image struct {
	URL             string `json:"url"`
	AlternativeText string `json:"alternativeText,omitempty"`
	Width           int    `json:"width,omitempty"`
	Height          int    `json:"height,omitempty"`
}

// Document контент поста: дерево блоков или markdown.
type Document struct {
	Blocks   []Node
	Markdown string
}

func (d *Document) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*d = Document{}

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '[':
		return json.Unmarshal(data, &d.Blocks)
	case '"':
		return json.Unmarshal(data, &d.Markdown)
	default:
		return fmt.Errorf("blocks: unsupported content shape %q", string(data[:1]))
	}
}

func (d Document) MarshalJSON() ([]byte, error) {
	if d.Markdown != "" {
		return json.Marshal(d.Markdown)
	}
	if d.Blocks == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d.Blocks)
}

func (d Document) IsEmpty() bool {
	return strings.TrimSpace(d.PlainText()) == ""
}

// PlainText возвращает текст без разметки, блоки разделены переводом строки.
func (d Document) PlainText() string {
	if d.Markdown != "" {
		return strings.TrimSpace(d.Markdown)
	}

	parts := make([]string, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		if t := strings.TrimSpace(nodeText(b)); t != "" {
			parts = append(parts, t)
		}
	}

	return strings.Join(parts, "\n")
}

// Excerpt обрезает PlainText до max рун по границе слова.
func (d Document) Excerpt(max int) string {
	text := strings.Join(strings.Fields(d.PlainText()), " ")
	runes := []rune(text)
	if max <= 0 || len(runes) <= max {
		return text
	}

	cut := string(runes[:max])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}

	return strings.TrimRight(cut, " ,.;:") + "…"
}

// Images возвращает все картинки документа в порядке следования.
func (d Document) Images() []Image {
	var out []Image
	var walk func(nodes []Node)
	walk = func(nodes []Node) {
		for _, n := range nodes {
			if n.Type == TypeImage && n.Image != nil && n.Image.URL != "" {
				out = append(out, *n.Image)
			}
			walk(n.Children)
		}
	}
	walk(d.Blocks)

	return out
}

func nodeText(n Node) string {
	if n.Type == TypeText {
		return n.Text
	}

	var sb strings.Builder
	for i, c := range n.Children {
		if n.Type == TypeList && i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(nodeText(c))
	}

	return sb.String()
}
