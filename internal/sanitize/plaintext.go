package sanitize

import (
	"strings"

	"golang.org/x/net/html"
)

// blockTags は改行として扱うタグ。
var blockTags = map[string]bool{
	"br": true, "p": true, "div": true, "li": true,
	"ul": true, "ol": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "tr": true,
}

// skipTags は内容ごと捨てるタグ。
var skipTags = map[string]bool{
	"script": true, "style": true,
}

// PlainText はHTMLタグを除去し、Cleanを適用したプレーンテキストを返す。
// テキストノードは未デコードのまま連結するため、エンティティの扱いはCleanの
// テーブルに従う（テーブルにないエンティティは残る）。
// 行内の連続空白は1つにまとめ、空行は除去する。
func PlainText(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skipping := ""

	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF。不正なHTMLでもそれまでのテキストを返す
			return normalizeLines(Clean(b.String()))
		case html.TextToken:
			if skipping == "" {
				b.Write(z.Raw())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skipTags[tag] && skipping == "" {
				skipping = tag
			}
			if blockTags[tag] {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == skipping {
				skipping = ""
			}
			if blockTags[tag] {
				b.WriteByte('\n')
			}
		}
	}
}

func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if collapsed := strings.Join(strings.Fields(line), " "); collapsed != "" {
			out = append(out, collapsed)
		}
	}
	return strings.Join(out, "\n")
}
