package commentview

import (
	"cmp"
	"slices"
	"time"

	"github.com/hitoshi/threadview/internal/model"
)

// WindowStart はTop系の期間指定ソートの下限時刻を返す。期間指定がなければnil。
func WindowStart(sort model.SortType, now time.Time) *time.Time {
	var start time.Time
	switch sort {
	case model.SortTypeTopYear:
		start = now.AddDate(-1, 0, 0)
	case model.SortTypeTopMonth:
		start = now.AddDate(0, -1, 0)
	case model.SortTypeTopWeek:
		start = now.Add(-7 * 24 * time.Hour)
	case model.SortTypeTopDay:
		start = now.Add(-24 * time.Hour)
	default:
		return nil
	}
	return &start
}

// Compare はPlanの並び順でaがbより前なら負、後なら正を返す。
// どの並び順も最後にコメントIDの降順で順序を確定させる。
func Compare(a, b Row, plan Plan) int {
	var c int
	switch plan.Sort {
	case model.SortTypeHot, model.SortTypeActive:
		c = cmp.Compare(rank(b, plan), rank(a, plan))
		if c == 0 {
			c = b.Comment.Published.Compare(a.Comment.Published)
		}
	case model.SortTypeTopAll, model.SortTypeTopYear, model.SortTypeTopMonth,
		model.SortTypeTopWeek, model.SortTypeTopDay:
		c = cmp.Compare(b.Counts.Score, a.Counts.Score)
	default:
		c = b.Comment.Published.Compare(a.Comment.Published)
	}
	if c != 0 {
		return c
	}
	return cmp.Compare(b.Comment.ID, a.Comment.ID)
}

func rank(r Row, plan Plan) float64 {
	return plan.Ranker.Rank(r.Counts.Score, plan.Now.Sub(r.Comment.Published))
}

// SortRows はPlanの並び順で行をその場で並び替える。
func SortRows(rows []Row, plan Plan) {
	slices.SortStableFunc(rows, func(a, b Row) int {
		return Compare(a, b, plan)
	})
}

// Paginate はoffsetからlimit件を切り出す。範囲外なら空スライスを返す。
func Paginate(rows []Row, limit, offset int64) []Row {
	if offset < 0 || offset >= int64(len(rows)) {
		return []Row{}
	}
	end := offset + limit
	if end < offset || end > int64(len(rows)) {
		end = int64(len(rows))
	}
	return rows[offset:end]
}
