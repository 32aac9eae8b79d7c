// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/hitoshi/threadview/internal/model"
)

// ViewerHeader は上流ゲートウェイが認証済み閲覧者のIDを設定するヘッダ。
const ViewerHeader = "X-Viewer-Id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// viewerContextKey はリクエストコンテキストに閲覧者IDを格納するためのキー。
var viewerContextKey = contextKey("viewer_id")

// NewViewerMiddleware は X-Viewer-Id ヘッダから閲覧者IDを読み取り、
// リクエストコンテキストに注入するミドルウェアを返す。
// ヘッダがなければ匿名閲覧として素通しし、正の整数でなければ400を返す。
func NewViewerMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(ViewerHeader))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := strconv.ParseInt(raw, 10, 32)
			if err != nil || id <= 0 {
				slog.Warn("invalid viewer header",
					slog.String("value", raw),
					slog.String("request_id", RequestIDFromContext(r.Context())),
				)
				WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidViewerError(raw))
				return
			}

			ctx := ContextWithViewer(r.Context(), model.PersonID(id))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ViewerFromContext はリクエストコンテキストから閲覧者IDを取得する。
// 匿名閲覧の場合はnilを返す。
func ViewerFromContext(ctx context.Context) *model.PersonID {
	id, ok := ctx.Value(viewerContextKey).(model.PersonID)
	if !ok {
		return nil
	}
	return &id
}

// ContextWithViewer はコンテキストに閲覧者IDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithViewer(ctx context.Context, id model.PersonID) context.Context {
	return context.WithValue(ctx, viewerContextKey, id)
}
