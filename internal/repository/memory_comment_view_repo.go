package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hitoshi/threadview/internal/commentview"
	"github.com/hitoshi/threadview/internal/model"
)

// MemoryCommentViewRepo はメモリ上のテーブルを使用したコメントビューの読み取りストア。
// 絞り込み・並び替えはcommentviewの述語をそのまま使い、PostgreSQLストアの基準実装として動作する。
// Put系メソッドは外部の書き込み側の代わりにデータを投入するためのもの。
type MemoryCommentViewRepo struct {
	mu sync.RWMutex

	persons     map[model.PersonID]model.PersonSafe
	communities map[model.CommunityID]model.CommunitySafe
	posts       map[model.PostID]model.Post
	comments    map[model.CommentID]model.Comment
	aggregates  map[model.CommentID]model.CommentAggregates

	bans            map[banKey]model.CommunityPersonBan
	followers       map[followKey]model.CommunityFollower
	saves           map[commentPersonKey]model.CommentSaved
	personBlocks    map[personBlockKey]model.PersonBlock
	communityBlocks map[followKey]model.CommunityBlock
	likes           map[commentPersonKey]model.CommentLike
}

type banKey struct {
	community model.CommunityID
	person    model.PersonID
}

type followKey struct {
	community model.CommunityID
	person    model.PersonID
}

type commentPersonKey struct {
	comment model.CommentID
	person  model.PersonID
}

type personBlockKey struct {
	person model.PersonID
	target model.PersonID
}

// NewMemoryCommentViewRepo は空のMemoryCommentViewRepoを生成する。
func NewMemoryCommentViewRepo() *MemoryCommentViewRepo {
	return &MemoryCommentViewRepo{
		persons:         make(map[model.PersonID]model.PersonSafe),
		communities:     make(map[model.CommunityID]model.CommunitySafe),
		posts:           make(map[model.PostID]model.Post),
		comments:        make(map[model.CommentID]model.Comment),
		aggregates:      make(map[model.CommentID]model.CommentAggregates),
		bans:            make(map[banKey]model.CommunityPersonBan),
		followers:       make(map[followKey]model.CommunityFollower),
		saves:           make(map[commentPersonKey]model.CommentSaved),
		personBlocks:    make(map[personBlockKey]model.PersonBlock),
		communityBlocks: make(map[followKey]model.CommunityBlock),
		likes:           make(map[commentPersonKey]model.CommentLike),
	}
}

// PutPerson はユーザーを登録または置き換える。
func (r *MemoryCommentViewRepo) PutPerson(p model.PersonSafe) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persons[p.ID] = p
}

// PutCommunity はコミュニティを登録または置き換える。
func (r *MemoryCommentViewRepo) PutCommunity(c model.CommunitySafe) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.communities[c.ID] = c
}

// PutPost は投稿を登録または置き換える。
func (r *MemoryCommentViewRepo) PutPost(p model.Post) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[p.ID] = p
}

// PutComment はコメントと集計カウンタを登録または置き換える。
func (r *MemoryCommentViewRepo) PutComment(c model.Comment, counts model.CommentAggregates) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts.CommentID = c.ID
	r.comments[c.ID] = c
	r.aggregates[c.ID] = counts
}

// PutBan はコミュニティBANを登録する。
func (r *MemoryCommentViewRepo) PutBan(b model.CommunityPersonBan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bans[banKey{b.CommunityID, b.PersonID}] = b
}

// PutFollower はコミュニティ購読を登録する。
func (r *MemoryCommentViewRepo) PutFollower(f model.CommunityFollower) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.followers[followKey{f.CommunityID, f.PersonID}] = f
}

// PutSaved はコメントの保存を登録する。
func (r *MemoryCommentViewRepo) PutSaved(s model.CommentSaved) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves[commentPersonKey{s.CommentID, s.PersonID}] = s
}

// PutPersonBlock はユーザーブロックを登録する。
func (r *MemoryCommentViewRepo) PutPersonBlock(b model.PersonBlock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.personBlocks[personBlockKey{b.PersonID, b.TargetID}] = b
}

// PutCommunityBlock はコミュニティブロックを登録する。
func (r *MemoryCommentViewRepo) PutCommunityBlock(b model.CommunityBlock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.communityBlocks[followKey{b.CommunityID, b.PersonID}] = b
}

// PutLike は投票を登録する。同じユーザーとコメントの組では置き換える。
func (r *MemoryCommentViewRepo) PutLike(l model.CommentLike) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.likes[commentPersonKey{l.CommentID, l.PersonID}] = l
}

// ReadRow は指定IDのコメントを結合済みの行として取得する。
// 見つからない場合はmodel.ErrNotFoundを返す。
func (r *MemoryCommentViewRepo) ReadRow(
	ctx context.Context,
	id model.CommentID,
	viewer *model.PersonID,
	now time.Time,
) (commentview.Row, error) {
	if err := ctx.Err(); err != nil {
		return commentview.Row{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.comments[id]
	if !ok {
		return commentview.Row{}, model.ErrNotFound
	}
	return r.joinLocked(c, viewer, now)
}

// ListRows はPlanの条件で絞り込み・並び替え・ページングしたコメント行を返す。
func (r *MemoryCommentViewRepo) ListRows(ctx context.Context, plan commentview.Plan) ([]commentview.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	rows := make([]commentview.Row, 0, len(r.comments))
	for _, c := range r.comments {
		row, err := r.joinLocked(c, plan.Viewer, plan.Now)
		if err != nil {
			r.mu.RUnlock()
			return nil, err
		}
		if commentview.Matches(row, plan) {
			rows = append(rows, row)
		}
	}
	r.mu.RUnlock()

	commentview.SortRows(rows, plan)
	return commentview.Paginate(rows, plan.Limit, plan.Offset), nil
}

// Ping は常に成功する。
func (r *MemoryCommentViewRepo) Ping(ctx context.Context) error {
	return ctx.Err()
}

// joinLocked はコメントに関連レコードを結合する。呼び出し側で読み取りロックを保持すること。
// 必須の関連レコードが欠けている場合は結合の前提違反としてエラーを返す。
func (r *MemoryCommentViewRepo) joinLocked(c model.Comment, viewer *model.PersonID, now time.Time) (commentview.Row, error) {
	creator, ok := r.persons[c.CreatorID]
	if !ok {
		return commentview.Row{}, fmt.Errorf("コメント %d の作成者 %d が存在しません", c.ID, c.CreatorID)
	}
	post, ok := r.posts[c.PostID]
	if !ok {
		return commentview.Row{}, fmt.Errorf("コメント %d の投稿 %d が存在しません", c.ID, c.PostID)
	}
	community, ok := r.communities[post.CommunityID]
	if !ok {
		return commentview.Row{}, fmt.Errorf("投稿 %d のコミュニティ %d が存在しません", post.ID, post.CommunityID)
	}
	counts, ok := r.aggregates[c.ID]
	if !ok {
		return commentview.Row{}, fmt.Errorf("コメント %d の集計が存在しません", c.ID)
	}

	row := commentview.Row{
		Comment:   c,
		Creator:   creator,
		Post:      post,
		Community: community,
		Counts:    counts,
	}

	if ban, ok := r.bans[banKey{community.ID, c.CreatorID}]; ok && ban.ActiveAt(now) {
		row.Ban = &ban
	}

	if viewer == nil {
		return row, nil
	}
	v := *viewer
	if f, ok := r.followers[followKey{community.ID, v}]; ok {
		row.Follower = &f
	}
	if s, ok := r.saves[commentPersonKey{c.ID, v}]; ok {
		row.Saved = &s
	}
	if b, ok := r.personBlocks[personBlockKey{v, c.CreatorID}]; ok {
		row.CreatorBlock = &b
	}
	if b, ok := r.communityBlocks[followKey{community.ID, v}]; ok {
		row.CommunityBlock = &b
	}
	if l, ok := r.likes[commentPersonKey{c.ID, v}]; ok {
		row.Vote = &l
	}
	return row, nil
}

var _ commentview.Store = (*MemoryCommentViewRepo)(nil)
