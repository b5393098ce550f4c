package blocks

import (
	"bytes"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var policy = bluemonday.UGCPolicy()

// HTML рендерит документ в санитизированный HTML.
func (d Document) HTML() (string, error) {
	if d.Markdown != "" {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(d.Markdown), &buf); err != nil {
			return "", fmt.Errorf("blocks: render markdown: %w", err)
		}
		return policy.Sanitize(buf.String()), nil
	}

	var sb strings.Builder
	for _, b := range d.Blocks {
		renderNode(&sb, b)
	}

	return policy.Sanitize(sb.String()), nil
}

func renderNode(sb *strings.Builder, n Node) {
	switch n.Type {
	case TypeText:
		renderText(sb, n)
	case TypeParagraph:
		wrap(sb, "p", n.Children)
	case TypeHeading:
		level := n.Level
		if level < 1 || level > 6 {
			level = 2
		}
		wrap(sb, "h"+strconv.Itoa(level), n.Children)
	case TypeList:
		tag := "ul"
		if n.Format == ListOrdered {
			tag = "ol"
		}
		wrap(sb, tag, n.Children)
	case TypeListItem:
		wrap(sb, "li", n.Children)
	case TypeQuote:
		wrap(sb, "blockquote", n.Children)
	case TypeCode:
		sb.WriteString("<pre><code>")
		sb.WriteString(html.EscapeString(nodeText(n)))
		sb.WriteString("</code></pre>")
	case TypeLink:
		sb.WriteString(`<a href="` + html.EscapeString(n.URL) + `">`)
		for _, c := range n.Children {
			renderNode(sb, c)
		}
		sb.WriteString("</a>")
	case TypeImage:
		if n.Image == nil || n.Image.URL == "" {
			return
		}
		sb.WriteString(`<img src="` + html.EscapeString(n.Image.URL) + `" alt="` + html.EscapeString(n.Image.AlternativeText) + `"`)
		if n.Image.Width > 0 && n.Image.Height > 0 {
			fmt.Fprintf(sb, ` width="%d" height="%d"`, n.Image.Width, n.Image.Height)
		}
		sb.WriteString(">")
	default:
		// неизвестные блоки рендерим как контейнер
		for _, c := range n.Children {
			renderNode(sb, c)
		}
	}
}

func wrap(sb *strings.Builder, tag string, children []Node) {
	sb.WriteString("<" + tag + ">")
	for _, c := range children {
		renderNode(sb, c)
	}
	sb.WriteString("</" + tag + ">")
}

func renderText(sb *strings.Builder, n Node) {
	text := html.EscapeString(n.Text)
	text = strings.ReplaceAll(text, "\n", "<br>")

	if n.Code {
		text = "<code>" + text + "</code>"
	}
	if n.Bold {
		text = "<strong>" + text + "</strong>"
	}
	if n.Italic {
		text = "<em>" + text + "</em>"
	}
	if n.Underline {
		text = "<u>" + text + "</u>"
	}
	if n.Strikethrough {
		text = "<s>" + text + "</s>"
	}

	sb.WriteString(text)
}
