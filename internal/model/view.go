package model

// SubscribedType はコミュニティ購読状態の三値。
type SubscribedType string

const (
	// SubscribedTypeNotSubscribed は購読していない状態。
	SubscribedTypeNotSubscribed SubscribedType = "NotSubscribed"
	// SubscribedTypePending は購読の承認待ち状態。
	SubscribedTypePending SubscribedType = "Pending"
	// SubscribedTypeSubscribed は購読中の状態。
	SubscribedTypeSubscribed SubscribedType = "Subscribed"
)

// SubscribedTypeFromFollower は購読レコードの有無と状態から購読状態を導出する。
func SubscribedTypeFromFollower(f *CommunityFollower) SubscribedType {
	switch {
	case f == nil:
		return SubscribedTypeNotSubscribed
	case f.Pending:
		return SubscribedTypePending
	default:
		return SubscribedTypeSubscribed
	}
}

// CommentView は閲覧者ごとにパーソナライズされたコメントのビュー。
//
// MyVoteは閲覧者なしでnil、閲覧者ありで投票なしなら0へのポインタ、
// 投票済みならそのスコアへのポインタになる。
type CommentView struct {
	Comment                    Comment
	Creator                    PersonSafe
	Post                       Post
	Community                  CommunitySafe
	Counts                     CommentAggregates
	CreatorBannedFromCommunity bool
	Subscribed                 SubscribedType
	Saved                      bool
	CreatorBlocked             bool
	MyVote                     *int16
}
