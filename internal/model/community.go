package model

import "time"

// CommunitySafe は公開可能な項目のみを持つコミュニティ情報。
type CommunitySafe struct {
	ID                      CommunityID
	Name                    string
	Title                   string
	Description             *string
	Icon                    *string
	Banner                  *string
	Hidden                  bool
	Local                   bool
	NSFW                    bool
	Removed                 bool
	Deleted                 bool
	PostingRestrictedToMods bool
	ActorID                 string
	Published               time.Time
	Updated                 *time.Time
}

// CommunityPersonBan はコミュニティからのユーザーBANを表す。
// Expiresがnilまたは評価時刻より後であれば有効なBANとみなす。
type CommunityPersonBan struct {
	ID          int32
	CommunityID CommunityID
	PersonID    PersonID
	Published   time.Time
	Expires     *time.Time
}

// ActiveAt はnow時点でBANが有効かどうかを返す。
func (b CommunityPersonBan) ActiveAt(now time.Time) bool {
	return b.Expires == nil || b.Expires.After(now)
}

// CommunityFollower はコミュニティの購読を表す。
// Pendingは連合先の承認待ちであることを示す。
type CommunityFollower struct {
	ID          int32
	CommunityID CommunityID
	PersonID    PersonID
	Pending     bool
	Published   time.Time
}

// CommunityBlock はユーザーがコミュニティをブロックしたことを表す。
type CommunityBlock struct {
	ID          int32
	PersonID    PersonID
	CommunityID CommunityID
	Published   time.Time
}
