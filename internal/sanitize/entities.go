// Package sanitize はフィード由来テキストのクリーニングを提供する。
//
// フィードのname/textはWebページのスクレイプ結果であり、HTMLエンティティや
// タグが混入している。Cleanは既知エンティティの置換のみを行い、
// PlainTextはタグ除去とCleanを組み合わせる。ContentSanitizerは
// 説明文を安全なHTMLとして返す場合に使用する。
package sanitize

import "strings"

// entityReplacer は既知エンティティの置換テーブル。
// 数値エンティティ4種は空文字列に置換する。
// どのエンティティも他のエンティティの接頭辞ではないため、置換結果は順序に依存しない。
var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&#8211;", "",
	"&#8220;", "",
	"&#8230;", "",
	"&#8221;", "",
)

// Clean は既知のHTMLエンティティを対応する文字に置換する。
// テーブルにないエンティティはそのまま残す。
// 入力は1パスで走査され、置換で生じた文字列は再走査しない。
func Clean(text string) string {
	if !strings.Contains(text, "&") {
		return text
	}
	return entityReplacer.Replace(text)
}

// CleanPtr はnil許容のテキストにCleanを適用する。
func CleanPtr(text *string) *string {
	if text == nil {
		return nil
	}
	cleaned := Clean(*text)
	return &cleaned
}
