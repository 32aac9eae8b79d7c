package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hitoshi/threadview/internal/commentview"
	"github.com/hitoshi/threadview/internal/model"
	"github.com/hitoshi/threadview/internal/ranking"
)

var tracer = otel.Tracer("repository")

// PostgresCommentViewRepo はPostgreSQLを使用したコメントビューの読み取りストア。
// comment を起点に person, post, community, comment_aggregates をINNER JOINし、
// 閲覧者ごとの付随テーブルをLEFT JOINする。
type PostgresCommentViewRepo struct {
	db *sql.DB
}

// NewPostgresCommentViewRepo はPostgresCommentViewRepoを生成する。
func NewPostgresCommentViewRepo(db *sql.DB) *PostgresCommentViewRepo {
	return &PostgresCommentViewRepo{db: db}
}

// commentViewColumns はscanCommentViewRowの順序と一致させること。
const commentViewColumns = `
		c.id, c.creator_id, c.post_id, c.content, c.removed, c.deleted, c.local,
		c.published, c.updated, c.ap_id, c.path::text,
		p.id, p.name, p.display_name, p.avatar, p.banner, p.bio, p.banned, p.ban_expires,
		p.deleted, p.admin, p.bot_account, p.local, p.actor_id, p.published, p.updated,
		po.id, po.name, po.url, po.body, po.creator_id, po.community_id, po.removed, po.deleted,
		po.locked, po.stickied, po.nsfw, po.local, po.ap_id, po.published, po.updated,
		co.id, co.name, co.title, co.description, co.icon, co.banner, co.hidden, co.local,
		co.nsfw, co.removed, co.deleted, co.posting_restricted_to_mods, co.actor_id,
		co.published, co.updated,
		ca.id, ca.comment_id, ca.score, ca.upvotes, ca.downvotes, ca.child_count, ca.published,
		cb.id, cb.published, cb.expires,
		cf.id, cf.pending, cf.published,
		cs.id, cs.published,
		pb.id, pb.published,
		cmb.id, cmb.published,
		cl.id, cl.score, cl.published`

// queryBuilder はプレースホルダ番号を採番しながら引数を蓄積する。
type queryBuilder struct {
	sql  strings.Builder
	args []any
}

// arg は値を引数に追加し、対応するプレースホルダを返す。
func (b *queryBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *queryBuilder) write(s string) {
	b.sql.WriteString(s)
}

// writeBase はSELECT句とJOIN句を書き込み、基準時刻のプレースホルダを返す。
// 閲覧者がnilの場合、閲覧者に紐づくJOINの条件はFALSEになり常にNULLが結合される。
func (b *queryBuilder) writeBase(viewer *model.PersonID, now time.Time) string {
	nowArg := b.arg(now) + "::timestamptz"

	viewerCond := func(col string) string {
		return "FALSE"
	}
	if viewer != nil {
		viewerArg := b.arg(int32(*viewer))
		viewerCond = func(col string) string {
			return col + " = " + viewerArg
		}
	}

	b.write("SELECT" + commentViewColumns + `
		FROM comment c
		JOIN person p ON p.id = c.creator_id
		JOIN post po ON po.id = c.post_id
		JOIN community co ON co.id = po.community_id
		JOIN comment_aggregates ca ON ca.comment_id = c.id
		LEFT JOIN community_person_ban cb ON cb.community_id = co.id
			AND cb.person_id = c.creator_id
			AND (cb.expires IS NULL OR cb.expires > ` + nowArg + `)
		LEFT JOIN community_follower cf ON cf.community_id = co.id AND ` + viewerCond("cf.person_id") + `
		LEFT JOIN comment_saved cs ON cs.comment_id = c.id AND ` + viewerCond("cs.person_id") + `
		LEFT JOIN person_block pb ON pb.target_id = c.creator_id AND ` + viewerCond("pb.person_id") + `
		LEFT JOIN community_block cmb ON cmb.community_id = co.id AND ` + viewerCond("cmb.person_id") + `
		LEFT JOIN comment_like cl ON cl.comment_id = c.id AND ` + viewerCond("cl.person_id"))
	return nowArg
}

// buildReadQuery は単体取得のクエリを組み立てる。
func buildReadQuery(id model.CommentID, viewer *model.PersonID, now time.Time) (string, []any) {
	b := &queryBuilder{}
	b.writeBase(viewer, now)
	b.write("\n\t\tWHERE c.id = " + b.arg(int32(id)))
	return b.sql.String(), b.args
}

// buildListQuery は一覧取得のクエリを組み立てる。
func buildListQuery(plan commentview.Plan) (string, []any) {
	b := &queryBuilder{}
	nowArg := b.writeBase(plan.Viewer, plan.Now)

	conds := []string{"TRUE"}
	if plan.CreatorID != nil {
		conds = append(conds, "c.creator_id = "+b.arg(int32(*plan.CreatorID)))
	}
	if plan.PostID != nil {
		conds = append(conds, "c.post_id = "+b.arg(int32(*plan.PostID)))
	}
	if plan.CommunityID != nil {
		conds = append(conds, "po.community_id = "+b.arg(int32(*plan.CommunityID)))
	}
	if plan.CommunityActorID != nil {
		conds = append(conds, "co.actor_id = "+b.arg(*plan.CommunityActorID))
	}
	if plan.ParentPath != nil {
		conds = append(conds, "c.path <@ "+b.arg(plan.ParentPath.String())+"::ltree")
	}
	if plan.SearchTerm != "" {
		conds = append(conds, "c.content ILIKE "+b.arg("%"+escapeLike(plan.SearchTerm)+"%")+` ESCAPE '\'`)
	}

	switch plan.ListingType {
	case model.ListingTypeSubscribed:
		conds = append(conds, "cf.id IS NOT NULL")
	case model.ListingTypeLocal:
		conds = append(conds, "co.local = TRUE", "(co.hidden = FALSE OR cf.id IS NOT NULL)")
	case model.ListingTypeAll:
		conds = append(conds, "(co.hidden = FALSE OR cf.id IS NOT NULL)")
	}

	if plan.SavedOnly {
		conds = append(conds, "cs.id IS NOT NULL")
	}
	if !plan.ShowBotAccounts {
		conds = append(conds, "p.bot_account = FALSE")
	}
	if plan.Viewer != nil {
		conds = append(conds, "pb.id IS NULL", "cmb.id IS NULL")
	}
	if plan.PublishedAfter != nil {
		conds = append(conds, "c.published > "+b.arg(*plan.PublishedAfter))
	}

	b.write("\n\t\tWHERE " + strings.Join(conds, "\n\t\t  AND "))
	b.write("\n\t\tORDER BY " + orderBy(plan, nowArg))
	b.write(fmt.Sprintf("\n\t\tLIMIT %s OFFSET %s", b.arg(plan.Limit), b.arg(plan.Offset)))

	return b.sql.String(), b.args
}

// orderBy は並び順に対応するORDER BY句を返す。最後は常に c.id DESC で順序を確定させる。
func orderBy(plan commentview.Plan, nowArg string) string {
	switch plan.Sort {
	case model.SortTypeHot, model.SortTypeActive:
		ranker := plan.Ranker
		if ranker == nil {
			ranker = ranking.DefaultDecay
		}
		return ranker.SQL("ca.score", "c.published", nowArg) + " DESC, c.published DESC, c.id DESC"
	case model.SortTypeTopAll, model.SortTypeTopYear, model.SortTypeTopMonth,
		model.SortTypeTopWeek, model.SortTypeTopDay:
		return "ca.score DESC, c.id DESC"
	default:
		return "c.published DESC, c.id DESC"
	}
}

// escapeLike はLIKEのワイルドカードをエスケープする。
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// ReadRow は指定IDのコメントを結合済みの行として取得する。
// 見つからない場合はmodel.ErrNotFoundを返す。
func (r *PostgresCommentViewRepo) ReadRow(
	ctx context.Context,
	id model.CommentID,
	viewer *model.PersonID,
	now time.Time,
) (commentview.Row, error) {
	ctx, span := tracer.Start(ctx, "Repository.PostgresCommentView.ReadRow",
		trace.WithAttributes(attribute.Int("comment_id", int(id))))
	defer span.End()

	query, args := buildReadQuery(id, viewer, now)
	row, err := scanCommentViewRow(r.db.QueryRowContext(ctx, query, args...), viewer)
	if errors.Is(err, sql.ErrNoRows) {
		return commentview.Row{}, model.ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		return commentview.Row{}, fmt.Errorf("コメントの取得に失敗しました: %w", err)
	}
	return row, nil
}

// ListRows はPlanの条件で絞り込み・並び替え・ページングしたコメント行を取得する。
func (r *PostgresCommentViewRepo) ListRows(ctx context.Context, plan commentview.Plan) ([]commentview.Row, error) {
	ctx, span := tracer.Start(ctx, "Repository.PostgresCommentView.ListRows",
		trace.WithAttributes(attribute.String("sort", string(plan.Sort))))
	defer span.End()

	query, args := buildListQuery(plan)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	result := []commentview.Row{}
	for rows.Next() {
		row, err := scanCommentViewRow(rows, plan.Viewer)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("コメント行の読み取りに失敗しました: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("コメント一覧の走査に失敗しました: %w", err)
	}

	return result, nil
}

// Ping はデータベースへの疎通を確認する。
func (r *PostgresCommentViewRepo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("データベースへの接続確認に失敗しました: %w", err)
	}
	return nil
}

// rowScanner は *sql.Row と *sql.Rows の共通部分。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanCommentViewRow はcommentViewColumnsの順序で1行を読み取る。
func scanCommentViewRow(s rowScanner, viewer *model.PersonID) (commentview.Row, error) {
	var (
		row commentview.Row

		commentUpdated                  sql.NullTime
		personDisplayName, personAvatar sql.NullString
		personBanner, personBio         sql.NullString
		personBanExpires, personUpdated sql.NullTime
		postURL, postBody               sql.NullString
		postUpdated                     sql.NullTime
		communityDescription            sql.NullString
		communityIcon, communityBanner  sql.NullString
		communityUpdated                sql.NullTime

		banID, followerID, savedID              sql.NullInt32
		personBlockID, communityBlockID, voteID sql.NullInt32
		banPublished, banExpires                sql.NullTime
		followerPending                         sql.NullBool
		followerPublished, savedPublished       sql.NullTime
		personBlockPublished                    sql.NullTime
		communityBlockPublished                 sql.NullTime
		voteScore                               sql.NullInt16
		votePublished                           sql.NullTime
	)

	c := &row.Comment
	p := &row.Creator
	po := &row.Post
	co := &row.Community
	ca := &row.Counts

	err := s.Scan(
		&c.ID, &c.CreatorID, &c.PostID, &c.Content, &c.Removed, &c.Deleted, &c.Local,
		&c.Published, &commentUpdated, &c.ApID, &c.Path,
		&p.ID, &p.Name, &personDisplayName, &personAvatar, &personBanner, &personBio, &p.Banned, &personBanExpires,
		&p.Deleted, &p.Admin, &p.BotAccount, &p.Local, &p.ActorID, &p.Published, &personUpdated,
		&po.ID, &po.Name, &postURL, &postBody, &po.CreatorID, &po.CommunityID, &po.Removed, &po.Deleted,
		&po.Locked, &po.Stickied, &po.NSFW, &po.Local, &po.ApID, &po.Published, &postUpdated,
		&co.ID, &co.Name, &co.Title, &communityDescription, &communityIcon, &communityBanner, &co.Hidden, &co.Local,
		&co.NSFW, &co.Removed, &co.Deleted, &co.PostingRestrictedToMods, &co.ActorID,
		&co.Published, &communityUpdated,
		&ca.ID, &ca.CommentID, &ca.Score, &ca.Upvotes, &ca.Downvotes, &ca.ChildCount, &ca.Published,
		&banID, &banPublished, &banExpires,
		&followerID, &followerPending, &followerPublished,
		&savedID, &savedPublished,
		&personBlockID, &personBlockPublished,
		&communityBlockID, &communityBlockPublished,
		&voteID, &voteScore, &votePublished,
	)
	if err != nil {
		return commentview.Row{}, err
	}

	c.Updated = nullTimePtr(commentUpdated)
	p.DisplayName = nullStringPtr(personDisplayName)
	p.Avatar = nullStringPtr(personAvatar)
	p.Banner = nullStringPtr(personBanner)
	p.Bio = nullStringPtr(personBio)
	p.BanExpires = nullTimePtr(personBanExpires)
	p.Updated = nullTimePtr(personUpdated)
	po.URL = nullStringPtr(postURL)
	po.Body = nullStringPtr(postBody)
	po.Updated = nullTimePtr(postUpdated)
	co.Description = nullStringPtr(communityDescription)
	co.Icon = nullStringPtr(communityIcon)
	co.Banner = nullStringPtr(communityBanner)
	co.Updated = nullTimePtr(communityUpdated)

	// 付随レコードは閲覧者がいる場合のみ結合される（BANを除く）
	var viewerID model.PersonID
	if viewer != nil {
		viewerID = *viewer
	}

	if banID.Valid {
		row.Ban = &model.CommunityPersonBan{
			ID:          banID.Int32,
			CommunityID: co.ID,
			PersonID:    c.CreatorID,
			Published:   banPublished.Time,
			Expires:     nullTimePtr(banExpires),
		}
	}
	if followerID.Valid {
		row.Follower = &model.CommunityFollower{
			ID:          followerID.Int32,
			CommunityID: co.ID,
			PersonID:    viewerID,
			Pending:     followerPending.Bool,
			Published:   followerPublished.Time,
		}
	}
	if savedID.Valid {
		row.Saved = &model.CommentSaved{ID: savedID.Int32, CommentID: c.ID, PersonID: viewerID, Published: savedPublished.Time}
	}
	if personBlockID.Valid {
		row.CreatorBlock = &model.PersonBlock{
			ID:        personBlockID.Int32,
			PersonID:  viewerID,
			TargetID:  c.CreatorID,
			Published: personBlockPublished.Time,
		}
	}
	if communityBlockID.Valid {
		row.CommunityBlock = &model.CommunityBlock{
			ID:          communityBlockID.Int32,
			PersonID:    viewerID,
			CommunityID: co.ID,
			Published:   communityBlockPublished.Time,
		}
	}
	if voteID.Valid {
		row.Vote = &model.CommentLike{
			ID:        voteID.Int32,
			PersonID:  viewerID,
			CommentID: c.ID,
			PostID:    c.PostID,
			Score:     voteScore.Int16,
			Published: votePublished.Time,
		}
	}

	return row, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

var _ commentview.Store = (*PostgresCommentViewRepo)(nil)
