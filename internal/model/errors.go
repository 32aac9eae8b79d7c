package model

import (
	"errors"
	"fmt"
)

// ErrNotFound は指定したコメントが存在しないことを表す。
var ErrNotFound = errors.New("comment not found")

// ErrInvalidQuery はクエリ設定が構造的に不正であることを表す。
var ErrInvalidQuery = errors.New("invalid query")

// QueryError は不正なクエリ設定の理由を保持する。errors.Is で ErrInvalidQuery と一致する。
type QueryError struct {
	Reason string
}

// NewQueryError はQueryErrorを生成する。
func NewQueryError(reason string) *QueryError {
	return &QueryError{Reason: reason}
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidQuery.Error(), e.Reason)
}

// Unwrap は ErrInvalidQuery を返す。
func (e *QueryError) Unwrap() error {
	return ErrInvalidQuery
}

// BackendError はストア側の障害（接続、タイムアウトなど）を包む。
// リトライはこの層では行わない。
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error in %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, comment, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeCommentNotFound = "COMMENT_NOT_FOUND"
	ErrCodeInvalidQuery    = "INVALID_QUERY"
	ErrCodeInvalidViewer   = "INVALID_VIEWER"
	ErrCodeQueryTimeout    = "QUERY_TIMEOUT"
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeRateLimited     = "RATE_LIMIT_EXCEEDED"
)

// NewCommentNotFoundError はコメント未検出エラーを生成する。
func NewCommentNotFoundError(commentID string) *APIError {
	return &APIError{
		Code:     ErrCodeCommentNotFound,
		Message:  fmt.Sprintf("指定されたコメントが見つかりません: %s", commentID),
		Category: "comment",
		Action:   "コメントIDを確認してください。",
	}
}

// NewInvalidQueryError は不正なクエリパラメータのエラーを生成する。
func NewInvalidQueryError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidQuery,
		Message:  fmt.Sprintf("無効なクエリです: %s", reason),
		Category: "validation",
		Action:   "一覧の種類、並び順、ページ指定を確認してください。",
	}
}

// NewInvalidViewerError は閲覧者ヘッダが不正な場合のエラーを生成する。
func NewInvalidViewerError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidViewer,
		Message:  fmt.Sprintf("閲覧者IDが不正です: %s", raw),
		Category: "validation",
		Action:   "X-Viewer-Id には正の整数を指定してください。",
	}
}

// NewQueryTimeoutError は一覧取得が制限時間内に終わらなかった場合のエラーを生成する。
func NewQueryTimeoutError() *APIError {
	return &APIError{
		Code:     ErrCodeQueryTimeout,
		Message:  "コメントの取得がタイムアウトしました。",
		Category: "system",
		Action:   "条件を絞り込むか、しばらく時間をおいてから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく時間をおいてから再度お試しください。",
	}
}
