package commentview

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hitoshi/threadview/internal/model"
	"github.com/hitoshi/threadview/internal/ranking"
)

var tracer = otel.Tracer("commentview")

// デフォルトのページング設定。
const (
	DefaultLimit int64 = 10
	MaxLimit     int64 = 300
)

// Clock は現在時刻を返す。
type Clock func() time.Time

// Recorder はクエリの実行結果を記録する。metrics.Collectorが実装する。
type Recorder interface {
	ObserveQuery(op string, duration time.Duration, rows int, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveQuery(string, time.Duration, int, error) {}

// Options はServiceの設定。ゼロ値の項目はデフォルト値で補われる。
type Options struct {
	Ranker       ranking.Ranker
	Clock        Clock
	DefaultLimit int64
	MaxLimit     int64
	Recorder     Recorder
}

// Service はコメントの単体取得と一覧取得を提供する。
// 注入された依存以外に状態を持たず、並行に呼び出してよい。
type Service struct {
	store        Store
	ranker       ranking.Ranker
	clock        Clock
	defaultLimit int64
	maxLimit     int64
	recorder     Recorder
}

// NewService はServiceを生成する。
func NewService(store Store, opts Options) *Service {
	s := &Service{
		store:        store,
		ranker:       opts.Ranker,
		clock:        opts.Clock,
		defaultLimit: opts.DefaultLimit,
		maxLimit:     opts.MaxLimit,
		recorder:     opts.Recorder,
	}
	if s.ranker == nil {
		s.ranker = ranking.DefaultDecay
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.maxLimit <= 0 {
		s.maxLimit = MaxLimit
	}
	if s.defaultLimit <= 0 {
		s.defaultLimit = DefaultLimit
	}
	if s.defaultLimit > s.maxLimit {
		s.defaultLimit = s.maxLimit
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	return s
}

// Read は指定IDのコメントを閲覧者向けに組み立てて返す。
// 存在しない場合はmodel.ErrNotFoundを返す。ブロック中の作成者でも除外せずCreatorBlockedで示す。
func (s *Service) Read(ctx context.Context, id model.CommentID, viewer *model.PersonID) (model.CommentView, error) {
	ctx, span := tracer.Start(ctx, "CommentView.Service.Read",
		trace.WithAttributes(attribute.Int("comment_id", int(id)), attribute.Bool("anonymous", viewer == nil)))
	defer span.End()

	start := time.Now()
	row, err := s.store.ReadRow(ctx, id, viewer, s.clock())
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			err = wrapBackend("ReadRow", err)
			span.SetStatus(codes.Error, "read failed")
			slog.Error("failed to read comment view",
				slog.Int("comment_id", int(id)),
				slog.String("error", err.Error()),
			)
		}
		span.RecordError(err)
		s.recorder.ObserveQuery("read", time.Since(start), 0, err)
		return model.CommentView{}, err
	}

	s.recorder.ObserveQuery("read", time.Since(start), 1, nil)
	return Assemble(row, viewer), nil
}

// List は条件に一致するコメントを並び替え・ページングして返す。
// エラー時は部分的な結果を返さない。
func (s *Service) List(ctx context.Context, q Query) ([]model.CommentView, error) {
	ctx, span := tracer.Start(ctx, "CommentView.Service.List",
		trace.WithAttributes(
			attribute.String("listing_type", string(q.ListingType())),
			attribute.String("sort", string(q.Sort())),
			attribute.Bool("anonymous", q.Viewer() == nil),
		))
	defer span.End()

	if err := q.Validate(); err != nil {
		span.RecordError(err)
		s.recorder.ObserveQuery("list", 0, 0, err)
		return nil, err
	}

	plan := s.Plan(q)
	start := time.Now()
	rows, err := s.store.ListRows(ctx, plan)
	duration := time.Since(start)
	if err != nil {
		err = wrapBackend("ListRows", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		s.recorder.ObserveQuery("list", duration, 0, err)
		slog.Error("failed to list comment views",
			slog.String("sort", string(plan.Sort)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	views := AssembleAll(rows, plan.Viewer)
	s.recorder.ObserveQuery("list", duration, len(views), nil)
	span.SetAttributes(attribute.Int("rows", len(views)))
	slog.Debug("comment views listed",
		slog.String("listing_type", string(plan.ListingType)),
		slog.String("sort", string(plan.Sort)),
		slog.Int64("limit", plan.Limit),
		slog.Int64("offset", plan.Offset),
		slog.Int("rows", len(views)),
		slog.Int64("duration_ms", duration.Milliseconds()),
	)
	return views, nil
}

// Plan は検証済みのQueryから基準時刻・期間・ページングを解決したPlanを作る。
func (s *Service) Plan(q Query) Plan {
	now := s.clock()
	sort := q.Sort()

	limit := s.defaultLimit
	if q.limit != nil {
		limit = *q.limit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	page := int64(1)
	if q.page != nil {
		page = *q.page
	}

	// 表現できないオフセットは末尾より後ろとして扱う
	offset := (page - 1) * limit
	if limit > 0 && page-1 > math.MaxInt64/limit {
		offset = math.MaxInt64
	}

	showBots := true
	if q.showBotAccounts != nil {
		showBots = *q.showBotAccounts
	}

	return Plan{
		ListingType:      q.listingType,
		Sort:             sort,
		CommunityID:      q.communityID,
		CommunityActorID: q.communityActorID,
		PostID:           q.postID,
		ParentPath:       q.parentPath,
		CreatorID:        q.creatorID,
		Viewer:           q.viewer,
		SearchTerm:       q.searchTerm,
		SavedOnly:        q.savedOnly,
		ShowBotAccounts:  showBots,
		Now:              now,
		PublishedAfter:   WindowStart(sort, now),
		Ranker:           s.ranker,
		Limit:            limit,
		Offset:           offset,
	}
}

// wrapBackend はストアのエラーをBackendErrorで包む。既に包まれていればそのまま返す。
func wrapBackend(op string, err error) error {
	var be *model.BackendError
	if errors.As(err, &be) {
		return err
	}
	return &model.BackendError{Op: op, Err: err}
}
