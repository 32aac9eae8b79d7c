// Package presenter はコメントビューをAPIレスポンスのJSON表現に変換する。
//
// 削除済み・モデレーション削除済みのコメント本文は空文字列に置き換え、フラグはそのまま返す。
// それ以外の本文はContentSanitizerでサニタイズしてから返す。
package presenter

import (
	"time"

	"github.com/hitoshi/threadview/internal/model"
	"github.com/hitoshi/threadview/internal/security"
)

// CommentResponse はコメント本体のレスポンス。
type CommentResponse struct {
	ID        model.CommentID `json:"id"`
	CreatorID model.PersonID  `json:"creator_id"`
	PostID    model.PostID    `json:"post_id"`
	Content   string          `json:"content"` // サニタイズ済みHTML
	Removed   bool            `json:"removed"`
	Deleted   bool            `json:"deleted"`
	Local     bool            `json:"local"`
	Published time.Time       `json:"published"`
	Updated   *time.Time      `json:"updated,omitempty"`
	ApID      string          `json:"ap_id"`
	Path      string          `json:"path"`
}

// CreatorResponse はコメント作成者のレスポンス。
type CreatorResponse struct {
	ID          model.PersonID `json:"id"`
	Name        string         `json:"name"`
	DisplayName *string        `json:"display_name,omitempty"`
	Avatar      *string        `json:"avatar,omitempty"`
	Banned      bool           `json:"banned"`
	Deleted     bool           `json:"deleted"`
	Admin       bool           `json:"admin"`
	BotAccount  bool           `json:"bot_account"`
	Local       bool           `json:"local"`
	ActorID     string         `json:"actor_id"`
	Published   time.Time      `json:"published"`
}

// PostResponse はコメントが属する投稿のレスポンス。
type PostResponse struct {
	ID          model.PostID      `json:"id"`
	Name        string            `json:"name"`
	URL         *string           `json:"url,omitempty"`
	CreatorID   model.PersonID    `json:"creator_id"`
	CommunityID model.CommunityID `json:"community_id"`
	Removed     bool              `json:"removed"`
	Deleted     bool              `json:"deleted"`
	Locked      bool              `json:"locked"`
	Stickied    bool              `json:"stickied"`
	NSFW        bool              `json:"nsfw"`
	Published   time.Time         `json:"published"`
}

// CommunityResponse はコメントが属するコミュニティのレスポンス。
type CommunityResponse struct {
	ID        model.CommunityID `json:"id"`
	Name      string            `json:"name"`
	Title     string            `json:"title"`
	Icon      *string           `json:"icon,omitempty"`
	Hidden    bool              `json:"hidden"`
	Local     bool              `json:"local"`
	NSFW      bool              `json:"nsfw"`
	Removed   bool              `json:"removed"`
	Deleted   bool              `json:"deleted"`
	ActorID   string            `json:"actor_id"`
	Published time.Time         `json:"published"`
}

// CountsResponse はコメントの集計値のレスポンス。
type CountsResponse struct {
	Score      int64 `json:"score"`
	Upvotes    int64 `json:"upvotes"`
	Downvotes  int64 `json:"downvotes"`
	ChildCount int32 `json:"child_count"`
}

// CommentViewResponse はパーソナライズ済みコメントビューのレスポンス。
// my_voteは閲覧者なしのときnullになる。
type CommentViewResponse struct {
	Comment                    CommentResponse      `json:"comment"`
	Creator                    CreatorResponse      `json:"creator"`
	Post                       PostResponse         `json:"post"`
	Community                  CommunityResponse    `json:"community"`
	Counts                     CountsResponse       `json:"counts"`
	CreatorBannedFromCommunity bool                 `json:"creator_banned_from_community"`
	Subscribed                 model.SubscribedType `json:"subscribed"`
	Saved                      bool                 `json:"saved"`
	CreatorBlocked             bool                 `json:"creator_blocked"`
	MyVote                     *int16               `json:"my_vote"`
}

// CommentListResponse はコメント一覧のレスポンス。
type CommentListResponse struct {
	Comments []CommentViewResponse `json:"comments"`
	Page     int64                 `json:"page"`
	Limit    int64                 `json:"limit"`
}

// Presenter はCommentViewをレスポンスに変換する。
type Presenter struct {
	sanitizer security.ContentSanitizer
}

// NewPresenter はPresenterを生成する。
func NewPresenter(sanitizer security.ContentSanitizer) *Presenter {
	return &Presenter{sanitizer: sanitizer}
}

// CommentView は1件のビューを変換する。
func (p *Presenter) CommentView(v model.CommentView) CommentViewResponse {
	return CommentViewResponse{
		Comment:                    p.comment(v.Comment),
		Creator:                    p.creator(v.Creator),
		Post:                       p.post(v.Post),
		Community:                  p.community(v.Community),
		Counts:                     counts(v.Counts),
		CreatorBannedFromCommunity: v.CreatorBannedFromCommunity,
		Subscribed:                 v.Subscribed,
		Saved:                      v.Saved,
		CreatorBlocked:             v.CreatorBlocked,
		MyVote:                     v.MyVote,
	}
}

// CommentList は一覧を変換する。順序は入力のまま保つ。
// 0件のときもcommentsは空配列としてシリアライズされる。
func (p *Presenter) CommentList(views []model.CommentView, page, limit int64) CommentListResponse {
	out := make([]CommentViewResponse, len(views))
	for i, v := range views {
		out[i] = p.CommentView(v)
	}
	return CommentListResponse{Comments: out, Page: page, Limit: limit}
}

func (p *Presenter) comment(c model.Comment) CommentResponse {
	content := ""
	if !c.Removed && !c.Deleted {
		content = p.sanitizer.Sanitize(c.Content)
	}
	return CommentResponse{
		ID:        c.ID,
		CreatorID: c.CreatorID,
		PostID:    c.PostID,
		Content:   content,
		Removed:   c.Removed,
		Deleted:   c.Deleted,
		Local:     c.Local,
		Published: c.Published,
		Updated:   c.Updated,
		ApID:      c.ApID,
		Path:      c.Path.String(),
	}
}

func (p *Presenter) creator(c model.PersonSafe) CreatorResponse {
	return CreatorResponse{
		ID:          c.ID,
		Name:        c.Name,
		DisplayName: p.text(c.DisplayName),
		Avatar:      c.Avatar,
		Banned:      c.Banned,
		Deleted:     c.Deleted,
		Admin:       c.Admin,
		BotAccount:  c.BotAccount,
		Local:       c.Local,
		ActorID:     c.ActorID,
		Published:   c.Published,
	}
}

func (p *Presenter) post(v model.Post) PostResponse {
	return PostResponse{
		ID:          v.ID,
		Name:        p.sanitizer.SanitizeText(v.Name),
		URL:         v.URL,
		CreatorID:   v.CreatorID,
		CommunityID: v.CommunityID,
		Removed:     v.Removed,
		Deleted:     v.Deleted,
		Locked:      v.Locked,
		Stickied:    v.Stickied,
		NSFW:        v.NSFW,
		Published:   v.Published,
	}
}

func (p *Presenter) community(c model.CommunitySafe) CommunityResponse {
	return CommunityResponse{
		ID:        c.ID,
		Name:      c.Name,
		Title:     p.sanitizer.SanitizeText(c.Title),
		Icon:      c.Icon,
		Hidden:    c.Hidden,
		Local:     c.Local,
		NSFW:      c.NSFW,
		Removed:   c.Removed,
		Deleted:   c.Deleted,
		ActorID:   c.ActorID,
		Published: c.Published,
	}
}

func counts(a model.CommentAggregates) CountsResponse {
	return CountsResponse{
		Score:      a.Score,
		Upvotes:    a.Upvotes,
		Downvotes:  a.Downvotes,
		ChildCount: a.ChildCount,
	}
}

// text はnil許容のプレーンテキスト項目からタグを除去する。
func (p *Presenter) text(s *string) *string {
	if s == nil {
		return nil
	}
	cleaned := p.sanitizer.SanitizeText(*s)
	return &cleaned
}
