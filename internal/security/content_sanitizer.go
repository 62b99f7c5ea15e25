// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService は求人説明文やカバーレターなど、
// ユーザーが入力したHTMLを保存前にサニタイズする。
// bluemondayの許可リストベースのポリシーで、安全なタグと属性のみを通過させる。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はユーザー入力のサニタイズ機能のインターフェースを定義する。
type ContentSanitizerService interface {
	// SanitizeHTML はリッチテキストをサニタイズして安全なHTMLを返す。
	// 許可タグ（p, br, a, ul, ol, li, blockquote, pre, code, strong, em, h2, h3, h4）のみを通過させる。
	// aタグのhrefはhttps/mailtoのみ許可し、rel="nofollow noopener noreferrer"を付与する。
	SanitizeHTML(raw string) string
	// SanitizeText は全てのタグを除去したプレーンテキストを返す。
	// 前後の空白は除去する。
	SanitizeText(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// ポリシーは生成後に変更しないため並行利用できる。
type contentSanitizer struct {
	rich   *bluemonday.Policy
	strict *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em", "h2", "h3", "h4",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("https", "mailto")
	p.AllowRelativeURLs(false)
	p.RequireNoFollowOnLinks(true)
	p.RequireNoReferrerOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)

	return &contentSanitizer{
		rich:   p,
		strict: bluemonday.StrictPolicy(),
	}
}

// SanitizeHTML はリッチテキストをサニタイズする。
func (s *contentSanitizer) SanitizeHTML(raw string) string {
	return strings.TrimSpace(s.rich.Sanitize(raw))
}

// SanitizeText はタグを除去したプレーンテキストを返す。
// StrictPolicyはエスケープ済みの文字列を返すため、保存用にアンエスケープする。
func (s *contentSanitizer) SanitizeText(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(raw)))
}
