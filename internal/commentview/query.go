// Package commentview は閲覧者ごとにパーソナライズしたコメントビューを組み立てる。
//
// Queryで一覧条件を組み立て、Serviceがストアから結合済みの行を取り出して
// CommentViewに変換する。ストアは読み取り専用で、書き込みは外部の責務。
package commentview

import (
	"github.com/hitoshi/threadview/internal/model"
	"github.com/hitoshi/threadview/internal/treepath"
)

// Query はコメント一覧の取得条件。値は不変で、With系メソッドは変更済みのコピーを返す。
// 同じ項目を複数回設定した場合は最後の値が使われる。
type Query struct {
	listingType      model.ListingType
	sort             model.SortType
	communityID      *model.CommunityID
	communityActorID *string
	postID           *model.PostID
	parentPath       *treepath.Path
	creatorID        *model.PersonID
	viewer           *model.PersonID
	searchTerm       string
	savedOnly        bool
	showBotAccounts  *bool
	page             *int64
	limit            *int64
}

// NewQuery は条件なしのQueryを返す。
func NewQuery() Query {
	return Query{}
}

// WithListingType は取得範囲を設定する。
func (q Query) WithListingType(lt model.ListingType) Query {
	q.listingType = lt
	return q
}

// WithSort は並び順を設定する。
func (q Query) WithSort(s model.SortType) Query {
	q.sort = s
	return q
}

// WithCommunityID はコミュニティIDを設定する。
func (q Query) WithCommunityID(id model.CommunityID) Query {
	q.communityID = &id
	return q
}

// WithCommunityActorID はコミュニティの連合IDを設定する。
func (q Query) WithCommunityActorID(actorID string) Query {
	q.communityActorID = &actorID
	return q
}

// WithPostID は投稿IDを設定する。
func (q Query) WithPostID(id model.PostID) Query {
	q.postID = &id
	return q
}

// WithParentPath は部分木の根となるパスを設定する。根自身も結果に含まれる。
func (q Query) WithParentPath(p treepath.Path) Query {
	cp := treepath.New(p.Labels()...)
	q.parentPath = &cp
	return q
}

// WithCreatorID は作成者IDを設定する。
func (q Query) WithCreatorID(id model.PersonID) Query {
	q.creatorID = &id
	return q
}

// WithViewer は閲覧者を設定する。nilは匿名閲覧を表す。
func (q Query) WithViewer(viewer *model.PersonID) Query {
	if viewer == nil {
		q.viewer = nil
		return q
	}
	v := *viewer
	q.viewer = &v
	return q
}

// WithSearchTerm は本文の部分一致検索語を設定する。大文字小文字は区別しない。
func (q Query) WithSearchTerm(term string) Query {
	q.searchTerm = term
	return q
}

// WithSavedOnly は保存済みコメントのみに絞り込むかを設定する。
func (q Query) WithSavedOnly(savedOnly bool) Query {
	q.savedOnly = savedOnly
	return q
}

// WithShowBotAccounts はBotアカウントのコメントを含めるかを設定する。デフォルトは含める。
func (q Query) WithShowBotAccounts(show bool) Query {
	q.showBotAccounts = &show
	return q
}

// WithPage は1始まりのページ番号を設定する。
func (q Query) WithPage(page int64) Query {
	q.page = &page
	return q
}

// WithLimit は1ページあたりの件数を設定する。
func (q Query) WithLimit(limit int64) Query {
	q.limit = &limit
	return q
}

// Viewer は閲覧者IDを返す。
func (q Query) Viewer() *model.PersonID {
	return q.viewer
}

// Sort は並び順を返す。未設定ならNew。
func (q Query) Sort() model.SortType {
	if q.sort == "" {
		return model.SortTypeNew
	}
	return q.sort
}

// ListingType は取得範囲を返す。
func (q Query) ListingType() model.ListingType {
	return q.listingType
}

// Validate はクエリ設定の構造的な妥当性を確認する。
func (q Query) Validate() error {
	switch q.listingType {
	case model.ListingTypeCommunity:
		if q.communityID == nil && q.communityActorID == nil {
			return model.NewQueryError("community listing requires a community id or actor id")
		}
	case model.ListingTypeSubscribed:
		if q.viewer == nil {
			return model.NewQueryError("subscribed listing requires a viewer")
		}
	}
	if _, err := model.ParseListingType(string(q.listingType)); err != nil {
		return err
	}
	if _, err := model.ParseSortType(string(q.sort)); err != nil {
		return err
	}
	if q.parentPath != nil && q.parentPath.IsZero() {
		return model.NewQueryError("parent path must not be empty")
	}
	if q.page != nil && *q.page < 1 {
		return model.NewQueryError("page must be 1 or greater")
	}
	if q.limit != nil && *q.limit < 1 {
		return model.NewQueryError("limit must be 1 or greater")
	}
	return nil
}
