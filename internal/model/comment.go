// Package model はコメントビューを構成するドメインモデルを定義する。
package model

import (
	"time"

	"github.com/hitoshi/threadview/internal/treepath"
)

// CommentID はコメントの識別子。
type CommentID int32

// PersonID はユーザー（作成者・閲覧者）の識別子。
type PersonID int32

// PostID は投稿の識別子。
type PostID int32

// CommunityID はコミュニティの識別子。
type CommunityID int32

// Comment は投稿にぶら下がるスレッド形式のコメントを表す。
// Pathはルートから自身までのコメントIDの列で、書き込み側が挿入時に割り当てる。
type Comment struct {
	ID        CommentID
	CreatorID PersonID
	PostID    PostID
	Content   string
	Removed   bool
	Deleted   bool
	Local     bool
	Published time.Time
	Updated   *time.Time
	ApID      string // 連合用の識別URL
	Path      treepath.Path
}

// CommentAggregates はコメントごとの集計カウンタを表す。
// Score = Upvotes - Downvotes、ChildCountは同じ投稿内の真の子孫の数。
type CommentAggregates struct {
	ID         int32
	CommentID  CommentID
	Score      int64
	Upvotes    int64
	Downvotes  int64
	ChildCount int32
	Published  time.Time
}

// CommentSaved はユーザーによるコメントの保存を表す。存在のみが意味を持つ。
type CommentSaved struct {
	ID        int32
	CommentID CommentID
	PersonID  PersonID
	Published time.Time
}

// CommentLike はユーザーによるコメントへの投票を表す。Scoreは -1, 0, 1 のいずれか。
type CommentLike struct {
	ID        int32
	PersonID  PersonID
	CommentID CommentID
	PostID    PostID
	Score     int16
	Published time.Time
}
