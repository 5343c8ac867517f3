// Package dto はauthフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

// LoginReq は/loginエンドポイントのリクエストボディを表します。
// 未入力はusecaseが400として扱うため、ここでは必須にしません。
type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
