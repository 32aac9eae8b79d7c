package model

import "time"

// Post はコメントツリーの親となる投稿を表す。
type Post struct {
	ID          PostID
	Name        string
	URL         *string
	Body        *string
	CreatorID   PersonID
	CommunityID CommunityID
	Removed     bool
	Deleted     bool
	Locked      bool
	Stickied    bool
	NSFW        bool
	Local       bool
	ApID        string
	Published   time.Time
	Updated     *time.Time
}
