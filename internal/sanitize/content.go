package sanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はイベント説明文のHTMLサニタイズ機能のインターフェースを定義する。
// イベント詳細APIの description_html を生成する際に使用される。
type ContentSanitizerService interface {
	// Sanitize はHTMLをサニタイズして安全なHTMLを返す。
	// 許可タグ（p, br, a, ul, ol, li, strong, em, b, i）のみを通過させ、
	// script, iframe, style, imgタグおよびon*イベント属性を除去する。
	// aタグにはtarget="_blank"とrel="noopener noreferrer"が自動付与される。
	// 空文字列の入力には空文字列を返す。
	Sanitize(rawHTML string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// ポリシーの内容:
//   - 許可タグ: p, br, a, ul, ol, li, strong, em, b, i
//   - imgは許可しない（イベント画像はimage_urlで別に提供する）
//   - aタグ: http/httpsの絶対URLのみ、target="_blank" と rel="noopener noreferrer" を自動付与
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"strong", "em", "b", "i",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https")
	p.AllowRelativeURLs(false)
	p.RequireParseableURLs(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &contentSanitizer{
		policy: p,
	}
}

// Sanitize はHTMLをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}
