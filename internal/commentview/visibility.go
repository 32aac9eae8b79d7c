package commentview

import (
	"strings"

	"github.com/hitoshi/threadview/internal/model"
)

// Matches は行がPlanのすべての絞り込み条件を満たすかを返す。
// PostgreSQLストアは同じ条件をWHERE句として組み立てる。
func Matches(row Row, plan Plan) bool {
	return matchesTarget(row, plan) &&
		matchesListing(row, plan) &&
		matchesViewerFilters(row, plan) &&
		matchesWindow(row, plan)
}

// matchesTarget は作成者・投稿・コミュニティ・部分木・検索語による絞り込み。
func matchesTarget(row Row, plan Plan) bool {
	if plan.CreatorID != nil && row.Comment.CreatorID != *plan.CreatorID {
		return false
	}
	if plan.PostID != nil && row.Comment.PostID != *plan.PostID {
		return false
	}
	if plan.CommunityID != nil && row.Community.ID != *plan.CommunityID {
		return false
	}
	if plan.CommunityActorID != nil && row.Community.ActorID != *plan.CommunityActorID {
		return false
	}
	if plan.ParentPath != nil && !plan.ParentPath.ContainsSubtree(row.Comment.Path) {
		return false
	}
	if plan.SearchTerm != "" && !ContainsFold(row.Comment.Content, plan.SearchTerm) {
		return false
	}
	return true
}

// matchesListing は取得範囲ごとのコミュニティ条件。
func matchesListing(row Row, plan Plan) bool {
	switch plan.ListingType {
	case model.ListingTypeSubscribed:
		return plan.Viewer != nil && row.ViewerFollows()
	case model.ListingTypeLocal:
		return row.Community.Local && (!row.Community.Hidden || row.ViewerFollows())
	case model.ListingTypeAll:
		return !row.Community.Hidden || row.ViewerFollows()
	default:
		// Community はコミュニティID・連合IDの条件で絞り込み済み
		return true
	}
}

// matchesViewerFilters は保存済み・Bot・ブロックの条件。
func matchesViewerFilters(row Row, plan Plan) bool {
	if plan.SavedOnly && (plan.Viewer == nil || !row.IsSaved()) {
		return false
	}
	if !plan.ShowBotAccounts && row.Creator.BotAccount {
		return false
	}
	if plan.Viewer != nil && (row.IsCreatorBlocked() || row.IsCommunityBlocked()) {
		return false
	}
	return true
}

func matchesWindow(row Row, plan Plan) bool {
	return plan.PublishedAfter == nil || row.Comment.Published.After(*plan.PublishedAfter)
}

// ContainsFold はsubstrがsに大文字小文字を区別せず含まれるかを返す。
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
