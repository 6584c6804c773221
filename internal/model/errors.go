package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, page, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeProfileNotFound  = "PROFILE_NOT_FOUND"
	ErrCodePageNotFound     = "PAGE_NOT_FOUND"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInvalidThemeData = "INVALID_THEME_DATA"
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeUsernameTaken    = "USERNAME_TAKEN"
	ErrCodeInvalidUsername  = "INVALID_USERNAME"
	ErrCodeCaptchaFailed    = "CAPTCHA_FAILED"
	ErrCodeCaptchaRejected  = "CAPTCHA_REJECTED"
	ErrCodeUpstreamError    = "UPSTREAM_ERROR"
)

// NewProfileNotFoundError は未知のユーザー名に対するエラーを生成する。
func NewProfileNotFoundError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeProfileNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", username),
		Category: "page",
		Action:   "URLのユーザー名を確認してください。",
	}
}

// NewPageNotFoundError はページ未作成ユーザーに対するエラーを生成する。
func NewPageNotFoundError(username string) *APIError {
	return &APIError{
		Code:     ErrCodePageNotFound,
		Message:  fmt.Sprintf("このユーザーのページはまだ公開されていません: %s", username),
		Category: "page",
		Action:   "URLのユーザー名を確認してください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewInvalidThemeDataError はtheme_dataスキーマ検証失敗エラーを生成する。
// メッセージにはテーマIDと失敗理由を含める。
func NewInvalidThemeDataError(themeID, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidThemeData,
		Message:  fmt.Sprintf("テーマ %q のデータがスキーマに適合しません: %s", themeID, reason),
		Category: "validation",
		Action:   "テーマ設定の入力内容を確認してください。",
	}
}

// NewInvalidRequestError はリクエスト形式不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewUsernameTakenError はユーザー名重複エラーを生成する。
func NewUsernameTakenError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeUsernameTaken,
		Message:  fmt.Sprintf("このユーザー名は既に使用されています: %s", username),
		Category: "validation",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewInvalidUsernameError はユーザー名形式不正エラーを生成する。
func NewInvalidUsernameError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidUsername,
		Message:  fmt.Sprintf("無効なユーザー名です: %s", reason),
		Category: "validation",
		Action:   "ユーザー名は3〜30文字の英小文字・数字・ハイフンで指定してください。",
	}
}

// NewCaptchaFailedError はキャプチャ検証の呼び出し失敗エラーを生成する。
func NewCaptchaFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeCaptchaFailed,
		Message:  "キャプチャの検証に失敗しました。",
		Category: "validation",
		Action:   "ページを再読み込みしてから再度お試しください。",
	}
}

// NewCaptchaRejectedError はキャプチャ拒否エラーを生成する。
func NewCaptchaRejectedError() *APIError {
	return &APIError{
		Code:     ErrCodeCaptchaRejected,
		Message:  "キャプチャの検証が拒否されました。",
		Category: "auth",
		Action:   "キャプチャを再度実施してください。",
	}
}

// NewUpstreamError は外部サービス呼び出し失敗エラーを生成する。
// 内部詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewUpstreamError() *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamError,
		Message:  "外部サービスとの通信に失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
