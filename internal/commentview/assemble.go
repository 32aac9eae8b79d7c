package commentview

import "github.com/hitoshi/threadview/internal/model"

// Assemble は結合済みの行をCommentViewに変換する。読み取りと一覧の両方で使う。
//
// MyVoteは閲覧者なしでnil、閲覧者ありで投票なしなら0、投票済みならそのスコアになる。
func Assemble(row Row, viewer *model.PersonID) model.CommentView {
	return model.CommentView{
		Comment:                    row.Comment,
		Creator:                    row.Creator,
		Post:                       row.Post,
		Community:                  row.Community,
		Counts:                     row.Counts,
		CreatorBannedFromCommunity: row.CreatorBannedFromCommunity(),
		Subscribed:                 row.Subscribed(),
		Saved:                      row.IsSaved(),
		CreatorBlocked:             row.IsCreatorBlocked(),
		MyVote:                     myVote(row.Vote, viewer),
	}
}

func myVote(vote *model.CommentLike, viewer *model.PersonID) *int16 {
	if viewer == nil {
		return nil
	}
	var score int16
	if vote != nil {
		score = vote.Score
	}
	return &score
}

// AssembleAll は行の順序を保ったままCommentViewに変換する。
func AssembleAll(rows []Row, viewer *model.PersonID) []model.CommentView {
	views := make([]model.CommentView, 0, len(rows))
	for _, row := range rows {
		views = append(views, Assemble(row, viewer))
	}
	return views
}
