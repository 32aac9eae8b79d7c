package commentview

import (
	"time"

	"github.com/hitoshi/threadview/internal/model"
	"github.com/hitoshi/threadview/internal/treepath"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

// newRow はテスト用の最小限の結合行を生成する。
func newRow(id model.CommentID, path string, published time.Time, score int64) Row {
	return Row{
		Comment: model.Comment{
			ID:        id,
			CreatorID: 100,
			PostID:    10,
			Content:   "comment body",
			Published: published,
			Path:      treepath.MustParse(path),
		},
		Creator:   model.PersonSafe{ID: 100, Name: "alice"},
		Post:      model.Post{ID: 10, CommunityID: 1},
		Community: model.CommunitySafe{ID: 1, Name: "golang", Local: true, ActorID: "https://example.com/c/golang"},
		Counts:    model.CommentAggregates{CommentID: id, Score: score, Upvotes: max(score, 0), Downvotes: max(-score, 0)},
	}
}

func basePlan() Plan {
	return Plan{
		Sort:            model.SortTypeNew,
		ShowBotAccounts: true,
		Now:             baseTime,
		Limit:           DefaultLimit,
	}
}
