package model

import "time"

// PersonSafe は公開可能な項目のみを持つユーザー情報。
// メールアドレスや認証情報などの非公開項目は含まない。
type PersonSafe struct {
	ID          PersonID
	Name        string
	DisplayName *string
	Avatar      *string
	Banner      *string
	Bio         *string
	Banned      bool
	BanExpires  *time.Time
	Deleted     bool
	Admin       bool
	BotAccount  bool
	Local       bool
	ActorID     string
	Published   time.Time
	Updated     *time.Time
}

// PersonBlock はユーザーが別のユーザーをブロックしたことを表す。
type PersonBlock struct {
	ID        int32
	PersonID  PersonID
	TargetID  PersonID
	Published time.Time
}
