package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/threadview/internal/commentview"
	"github.com/hitoshi/threadview/internal/middleware"
	"github.com/hitoshi/threadview/internal/model"
	"github.com/hitoshi/threadview/internal/presenter"
)

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
type CommentServiceInterface interface {
	// Read は指定IDのコメントビューを返す。
	Read(ctx context.Context, id model.CommentID, viewer *model.PersonID) (model.CommentView, error)
	// List は条件に一致するコメントビューの一覧を返す。
	List(ctx context.Context, q commentview.Query) ([]model.CommentView, error)
	// Plan はページングなどを解決した実行計画を返す。レスポンスのlimit算出に使う。
	Plan(q commentview.Query) commentview.Plan
}

// CommentHandler はコメント閲覧のHTTPハンドラー。
type CommentHandler struct {
	service   CommentServiceInterface
	presenter *presenter.Presenter
	timeout   time.Duration
}

// NewCommentHandler はCommentHandlerを生成する。timeoutが0以下なら制限しない。
func NewCommentHandler(service CommentServiceInterface, p *presenter.Presenter, timeout time.Duration) *CommentHandler {
	return &CommentHandler{
		service:   service,
		presenter: p,
		timeout:   timeout,
	}
}

// ListComments はコメント一覧を取得する。
// GET /api/comments?type_=&sort=&community_id=&community_name=&post_id=&parent_id=&creator_id=&q=&saved_only=&show_bot_accounts=&page=&limit=
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	viewer := middleware.ViewerFromContext(ctx)

	q, page, err := parseListQuery(r.URL.Query())
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}
	q = q.WithViewer(viewer)

	// parent_idは親コメントのパスに解決してから部分木で絞り込む
	if raw := r.URL.Query().Get("parent_id"); raw != "" {
		parentID, err := parseInt32Param("parent_id", raw)
		if err != nil {
			handleServiceError(ctx, w, err)
			return
		}
		parent, err := h.service.Read(ctx, model.CommentID(parentID), viewer)
		if err != nil {
			handleServiceError(ctx, w, withCommentID(err, raw))
			return
		}
		q = q.WithParentPath(parent.Comment.Path)
	}

	views, err := h.service.List(ctx, q)
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.presenter.CommentList(views, page, h.service.Plan(q).Limit))
}

// GetComment はコメント1件を取得する。
// GET /api/comments/{id}
func (h *CommentHandler) GetComment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	raw := chi.URLParam(r, "id")
	id, err := parseInt32Param("id", raw)
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	view, err := h.service.Read(ctx, model.CommentID(id), middleware.ViewerFromContext(ctx))
	if err != nil {
		handleServiceError(ctx, w, withCommentID(err, raw))
		return
	}

	writeJSON(w, http.StatusOK, h.presenter.CommentView(view))
}

func (h *CommentHandler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}

// parseListQuery はクエリパラメータをcommentview.Queryに変換する。
// 構文として解釈できない値はQueryErrorを返す。意味的な検証はService側で行う。
func parseListQuery(v url.Values) (commentview.Query, int64, error) {
	q := commentview.NewQuery()

	lt, err := model.ParseListingType(v.Get("type_"))
	if err != nil {
		return q, 0, err
	}
	q = q.WithListingType(lt)

	sort, err := model.ParseSortType(v.Get("sort"))
	if err != nil {
		return q, 0, err
	}
	q = q.WithSort(sort)

	if raw := v.Get("community_id"); raw != "" {
		id, err := parseInt32Param("community_id", raw)
		if err != nil {
			return q, 0, err
		}
		q = q.WithCommunityID(model.CommunityID(id))
	}
	if raw := v.Get("community_name"); raw != "" {
		q = q.WithCommunityActorID(raw)
	}
	if raw := v.Get("post_id"); raw != "" {
		id, err := parseInt32Param("post_id", raw)
		if err != nil {
			return q, 0, err
		}
		q = q.WithPostID(model.PostID(id))
	}
	if raw := v.Get("creator_id"); raw != "" {
		id, err := parseInt32Param("creator_id", raw)
		if err != nil {
			return q, 0, err
		}
		q = q.WithCreatorID(model.PersonID(id))
	}
	if raw := v.Get("q"); raw != "" {
		q = q.WithSearchTerm(raw)
	}
	if raw := v.Get("saved_only"); raw != "" {
		b, err := parseBoolParam("saved_only", raw)
		if err != nil {
			return q, 0, err
		}
		q = q.WithSavedOnly(b)
	}
	if raw := v.Get("show_bot_accounts"); raw != "" {
		b, err := parseBoolParam("show_bot_accounts", raw)
		if err != nil {
			return q, 0, err
		}
		q = q.WithShowBotAccounts(b)
	}

	page := int64(1)
	if raw := v.Get("page"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return q, 0, model.NewQueryError(fmt.Sprintf("page must be an integer, got %q", raw))
		}
		page = n
		q = q.WithPage(n)
	}
	if raw := v.Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return q, 0, model.NewQueryError(fmt.Sprintf("limit must be an integer, got %q", raw))
		}
		q = q.WithLimit(n)
	}

	return q, page, nil
}

func parseInt32Param(name, raw string) (int32, error) {
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || n <= 0 {
		return 0, model.NewQueryError(fmt.Sprintf("%s must be a positive integer, got %q", name, raw))
	}
	return int32(n), nil
}

func parseBoolParam(name, raw string) (bool, error) {
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, model.NewQueryError(fmt.Sprintf("%s must be a boolean, got %q", name, raw))
	}
	return b, nil
}

// withCommentID はErrNotFoundを対象IDつきのAPIErrorに変換する。
func withCommentID(err error, id string) error {
	if errors.Is(err, model.ErrNotFound) {
		return model.NewCommentNotFoundError(id)
	}
	return err
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	var qe *model.QueryError
	if errors.As(err, &qe) {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidQueryError(qe.Reason))
		return
	}
	if errors.Is(err, model.ErrNotFound) {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewCommentNotFoundError(""))
		return
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		slog.Warn("query timed out",
			slog.String("request_id", middleware.RequestIDFromContext(ctx)),
			slog.String("error", err.Error()),
		)
		middleware.WriteErrorResponse(w, http.StatusGatewayTimeout, model.NewQueryTimeoutError())
		return
	}

	// それ以外は内部サーバーエラーとして扱う
	slog.Error("internal server error",
		slog.String("request_id", middleware.RequestIDFromContext(ctx)),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeCommentNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidQuery, model.ErrCodeInvalidViewer:
		return http.StatusBadRequest
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case model.ErrCodeQueryTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
