package commentview

import (
	"context"
	"time"

	"github.com/hitoshi/threadview/internal/model"
	"github.com/hitoshi/threadview/internal/ranking"
	"github.com/hitoshi/threadview/internal/treepath"
)

// Store は結合済みの行を返す読み取り専用ストア。
//
// ReadRowは該当なしでmodel.ErrNotFoundを返す。ブロックによる除外は行わない。
// ListRowsはPlanの絞り込み・並び替え・ページングをすべて適用した行を返す。
type Store interface {
	ReadRow(ctx context.Context, id model.CommentID, viewer *model.PersonID, now time.Time) (Row, error)
	ListRows(ctx context.Context, plan Plan) ([]Row, error)
}

// Plan は検証済みのクエリを時刻とページングを解決した形で表す。
type Plan struct {
	ListingType      model.ListingType
	Sort             model.SortType
	CommunityID      *model.CommunityID
	CommunityActorID *string
	PostID           *model.PostID
	ParentPath       *treepath.Path
	CreatorID        *model.PersonID
	Viewer           *model.PersonID
	SearchTerm       string
	SavedOnly        bool
	ShowBotAccounts  bool

	// Now はBANの有効判定と期間指定ソートの基準時刻。
	Now time.Time
	// PublishedAfter はTop系の期間指定ソートで設定され、これより後に投稿された行のみを残す。
	PublishedAfter *time.Time
	Ranker         ranking.Ranker

	Limit  int64
	Offset int64
}

// Row はコメント1件と関連レコードを結合した行。
// 閲覧者に紐づく付随レコードは存在しなければnil。匿名閲覧では常にnil。
type Row struct {
	Comment   model.Comment
	Creator   model.PersonSafe
	Post      model.Post
	Community model.CommunitySafe
	Counts    model.CommentAggregates

	// Ban は作成者に対する有効なコミュニティBAN。閲覧者に依存しない。
	Ban            *model.CommunityPersonBan
	Follower       *model.CommunityFollower
	Saved          *model.CommentSaved
	CreatorBlock   *model.PersonBlock
	CommunityBlock *model.CommunityBlock
	Vote           *model.CommentLike
}

// CreatorBannedFromCommunity は有効なBANが結合されたかを返す。
func (r Row) CreatorBannedFromCommunity() bool { return r.Ban != nil }

// IsSaved は閲覧者の保存レコードが結合されたかを返す。
func (r Row) IsSaved() bool { return r.Saved != nil }

// IsCreatorBlocked は閲覧者が作成者をブロックしているかを返す。
func (r Row) IsCreatorBlocked() bool { return r.CreatorBlock != nil }

// IsCommunityBlocked は閲覧者がコミュニティをブロックしているかを返す。
func (r Row) IsCommunityBlocked() bool { return r.CommunityBlock != nil }

// ViewerFollows は閲覧者の購読レコード（承認待ちを含む）があるかを返す。
func (r Row) ViewerFollows() bool { return r.Follower != nil }

// Subscribed は購読状態を返す。
func (r Row) Subscribed() model.SubscribedType {
	return model.SubscribedTypeFromFollower(r.Follower)
}
