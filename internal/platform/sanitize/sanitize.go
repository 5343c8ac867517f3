// Package sanitize はユーザー入力のテキストからHTMLを取り除く。
//
// レビュー本文やツアーの説明はプレーンテキストとして保存・表示されるため、
// bluemondayのStrictPolicyで全てのタグを除去する。
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text はタグを除去し、前後の空白を取り除いたテキストを返す。
// 結果はHTMLエスケープされたままなので、そのままHTMLに埋め込める。
func Text(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

// PlainText はタグを除去してエンティティを戻したプレーンテキストを返す。
// メールのテキストパートなど、HTMLとして解釈されない出力に使う。
func PlainText(s string) string {
	return html.UnescapeString(Text(s))
}
