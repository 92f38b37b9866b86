package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// LooksLikeHTML reports whether s appears to be an HTML fragment
func LooksLikeHTML(s string) bool {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "<") {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, tag := range []string{"<html", "<body", "<p", "<div", "<br", "<span", "<!doctype", "<table", "<h1", "<h2"} {
		if strings.Contains(lower, tag) {
			return true
		}
	}
	return false
}

// VisibleText returns the visible text of an HTML document, skipping scripts and styles
func VisibleText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}
	return visibleText(doc), nil
}

// PlainText strips markup when s looks like HTML and normalizes whitespace
func PlainText(s string) string {
	if LooksLikeHTML(s) {
		if text, err := VisibleText(s); err == nil {
			return text
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return strings.Join(strings.Fields(buf.String()), " ")
}
