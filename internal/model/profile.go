// Package model はドメインモデルを定義する。
package model

import "time"

// Profile はサービス利用ユーザーの公開識別情報を表す。
// IDは外部IdPのsubject（UUID）と一致する。
// Usernameは作成後に変更できず、公開ページURLのキーとして使用される。
type Profile struct {
	ID        string
	Username  string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Principal は外部IdPが認証済みと保証するユーザーを表す。
// Usernameはサインアップ時にIdPのユーザー属性として登録されたもの。
type Principal struct {
	ID       string
	Email    string
	Username string
}
