package repository

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hitoshi/threadview/internal/commentview"
	"github.com/hitoshi/threadview/internal/model"
	"github.com/hitoshi/threadview/internal/treepath"
)

// seeder は外部の書き込み側の代わりにテストデータを投入する。
type seeder interface {
	PutPerson(model.PersonSafe)
	PutCommunity(model.CommunitySafe)
	PutPost(model.Post)
	PutComment(model.Comment, model.CommentAggregates)
	PutBan(model.CommunityPersonBan)
	PutFollower(model.CommunityFollower)
	PutSaved(model.CommentSaved)
	PutPersonBlock(model.PersonBlock)
	PutCommunityBlock(model.CommunityBlock)
	PutLike(model.CommentLike)
}

var scenarioNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// シナリオの登場人物
const (
	vera  model.PersonID = 1 // 主な閲覧者
	alice model.PersonID = 2
	bob   model.PersonID = 3 // Bot
	carol model.PersonID = 4
	dave  model.PersonID = 5 // 非表示コミュニティの購読者
)

// seedScenario は以下のデータを投入する。
//
//	community 1 (local)         post 10: R(1) -> A(2), B(3); A -> C(4), D(5)
//	community 2 (local, hidden) post 20: comment 6
//	community 3 (remote)        post 30: comment 7
func seedScenario(s seeder) {
	for _, p := range []model.PersonSafe{
		{ID: vera, Name: "vera", ActorID: "https://example.com/u/vera", Local: true},
		{ID: alice, Name: "alice", ActorID: "https://example.com/u/alice", Local: true},
		{ID: bob, Name: "bob", ActorID: "https://example.com/u/bob", Local: true, BotAccount: true},
		{ID: carol, Name: "carol", ActorID: "https://remote.example/u/carol"},
		{ID: dave, Name: "dave", ActorID: "https://example.com/u/dave", Local: true},
	} {
		p.Published = scenarioNow.Add(-365 * 24 * time.Hour)
		s.PutPerson(p)
	}

	for _, c := range []model.CommunitySafe{
		{ID: 1, Name: "golang", Title: "Go", Local: true, ActorID: "https://example.com/c/golang"},
		{ID: 2, Name: "secret", Title: "Secret", Local: true, Hidden: true, ActorID: "https://example.com/c/secret"},
		{ID: 3, Name: "rust", Title: "Rust", ActorID: "https://remote.example/c/rust"},
	} {
		c.Published = scenarioNow.Add(-365 * 24 * time.Hour)
		s.PutCommunity(c)
	}

	for _, p := range []model.Post{
		{ID: 10, Name: "Generics", CreatorID: alice, CommunityID: 1, Local: true, ApID: "https://example.com/post/10"},
		{ID: 20, Name: "Hidden", CreatorID: alice, CommunityID: 2, Local: true, ApID: "https://example.com/post/20"},
		{ID: 30, Name: "Borrowck", CreatorID: carol, CommunityID: 3, ApID: "https://remote.example/post/30"},
	} {
		p.Published = scenarioNow.Add(-10 * 24 * time.Hour)
		s.PutPost(p)
	}

	root := treepath.Assign(nil, 1)
	a := treepath.Assign(&root, 2)
	comments := []struct {
		id      model.CommentID
		creator model.PersonID
		post    model.PostID
		path    treepath.Path
		age     time.Duration
		score   int64
		content string
	}{
		{1, alice, 10, root, 8 * 24 * time.Hour, 10, "Root of the thread"},
		{2, alice, 10, a, 3 * 24 * time.Hour, 5, "Type parameters are great"},
		{3, bob, 10, treepath.Assign(&root, 3), 2 * 24 * time.Hour, 7, "Automated summary 100%"},
		{4, carol, 10, treepath.Assign(&a, 4), 24 * time.Hour, -2, "I prefer interfaces"},
		{5, alice, 10, treepath.Assign(&a, 5), time.Hour, 1, "Constraints_are_neat"},
		{6, alice, 20, treepath.Assign(nil, 6), 5 * time.Hour, 0, "hidden discussion"},
		{7, carol, 30, treepath.Assign(nil, 7), 30 * time.Minute, 3, "Lifetimes again"},
	}
	for _, c := range comments {
		up, down := c.score, int64(0)
		if c.score < 0 {
			up, down = 0, -c.score
		}
		published := scenarioNow.Add(-c.age)
		s.PutComment(model.Comment{
			ID:        c.id,
			CreatorID: c.creator,
			PostID:    c.post,
			Content:   c.content,
			Local:     true,
			Published: published,
			ApID:      "https://example.com/comment/" + c.path.String(),
			Path:      c.path,
		}, model.CommentAggregates{
			ID:        int32(c.id),
			Score:     c.score,
			Upvotes:   up,
			Downvotes: down,
			Published: published,
		})
	}

	expired := scenarioNow.Add(-time.Hour)
	future := scenarioNow.Add(24 * time.Hour)
	s.PutBan(model.CommunityPersonBan{ID: 1, CommunityID: 1, PersonID: carol, Published: scenarioNow.Add(-48 * time.Hour)})
	s.PutBan(model.CommunityPersonBan{ID: 2, CommunityID: 1, PersonID: bob, Published: scenarioNow.Add(-48 * time.Hour), Expires: &expired})
	s.PutBan(model.CommunityPersonBan{ID: 3, CommunityID: 3, PersonID: carol, Published: scenarioNow.Add(-48 * time.Hour), Expires: &future})

	s.PutFollower(model.CommunityFollower{ID: 1, CommunityID: 3, PersonID: vera, Pending: true, Published: scenarioNow})
	s.PutFollower(model.CommunityFollower{ID: 2, CommunityID: 2, PersonID: dave, Published: scenarioNow})
	s.PutFollower(model.CommunityFollower{ID: 3, CommunityID: 1, PersonID: dave, Published: scenarioNow})
	s.PutFollower(model.CommunityFollower{ID: 4, CommunityID: 3, PersonID: alice, Pending: true, Published: scenarioNow})

	s.PutSaved(model.CommentSaved{ID: 1, CommentID: 2, PersonID: vera, Published: scenarioNow})
	s.PutPersonBlock(model.PersonBlock{ID: 1, PersonID: vera, TargetID: carol, Published: scenarioNow})
	s.PutCommunityBlock(model.CommunityBlock{ID: 1, PersonID: dave, CommunityID: 3, Published: scenarioNow})
	s.PutLike(model.CommentLike{ID: 1, PersonID: vera, CommentID: 1, PostID: 10, Score: 1, Published: scenarioNow})
	s.PutLike(model.CommentLike{ID: 2, PersonID: dave, CommentID: 4, PostID: 10, Score: -1, Published: scenarioNow})
}

func viewIDs(views []model.CommentView) []model.CommentID {
	out := make([]model.CommentID, len(views))
	for i, v := range views {
		out[i] = v.Comment.ID
	}
	return out
}

func viewerPtr(id model.PersonID) *model.PersonID { return &id }

// runStoreContract はseedScenario投入済みのストアに対して、読み取りと一覧の振る舞いを検証する。
// メモリストアとPostgreSQLストアの両方で同じ結果になることを要求する。
func runStoreContract(t *testing.T, store commentview.Store) {
	ctx := context.Background()
	svc := commentview.NewService(store, commentview.Options{Clock: func() time.Time { return scenarioNow }})
	post10 := commentview.NewQuery().WithPostID(10)

	list := func(t *testing.T, q commentview.Query) []model.CommentView {
		t.Helper()
		views, err := svc.List(ctx, q)
		require.NoError(t, err)
		return views
	}

	t.Run("subtree containment", func(t *testing.T) {
		a, err := svc.Read(ctx, 2, nil)
		require.NoError(t, err)
		views := list(t, post10.WithParentPath(a.Comment.Path))
		require.ElementsMatch(t, []model.CommentID{2, 4, 5}, viewIDs(views))

		r, err := svc.Read(ctx, 1, nil)
		require.NoError(t, err)
		views = list(t, post10.WithParentPath(r.Comment.Path))
		require.ElementsMatch(t, []model.CommentID{1, 2, 3, 4, 5}, viewIDs(views))

		b, err := svc.Read(ctx, 3, nil)
		require.NoError(t, err)
		require.Equal(t, []model.CommentID{3}, viewIDs(list(t, post10.WithParentPath(b.Comment.Path))))
	})

	t.Run("my vote per viewer", func(t *testing.T) {
		views := list(t, post10.WithViewer(viewerPtr(alice)))
		require.Len(t, views, 5)
		for _, v := range views {
			require.NotNil(t, v.MyVote)
			require.Equal(t, int16(0), *v.MyVote)
		}

		views = list(t, post10.WithViewer(viewerPtr(dave)))
		for _, v := range views {
			want := int16(0)
			if v.Comment.ID == 4 {
				want = -1
			}
			require.Equal(t, want, *v.MyVote, "comment %d", v.Comment.ID)
		}

		for _, v := range list(t, post10) {
			require.Nil(t, v.MyVote, "anonymous my_vote for comment %d", v.Comment.ID)
		}
	})

	t.Run("end to end vote scenario", func(t *testing.T) {
		// veraはcarolをブロックしているためCは一覧に出ない。Cを含む全件は単体取得で確認する。
		r, err := svc.Read(ctx, 1, viewerPtr(vera))
		require.NoError(t, err)
		require.Equal(t, int16(1), *r.MyVote)

		for _, id := range []model.CommentID{2, 3, 4, 5} {
			v, err := svc.Read(ctx, id, viewerPtr(vera))
			require.NoError(t, err)
			require.Equal(t, int16(0), *v.MyVote, "comment %d", id)
		}
		for _, v := range list(t, post10.WithViewer(viewerPtr(vera))) {
			if v.Comment.ID == 1 {
				require.Equal(t, int16(1), *v.MyVote)
			} else {
				require.Equal(t, int16(0), *v.MyVote)
			}
		}
	})

	t.Run("person block excludes from listing but not from read", func(t *testing.T) {
		views := list(t, commentview.NewQuery().WithViewer(viewerPtr(vera)))
		require.NotContains(t, viewIDs(views), model.CommentID(4))
		require.NotContains(t, viewIDs(views), model.CommentID(7))

		v, err := svc.Read(ctx, 4, viewerPtr(vera))
		require.NoError(t, err)
		require.True(t, v.CreatorBlocked)

		anon := list(t, commentview.NewQuery())
		require.Contains(t, viewIDs(anon), model.CommentID(4))
	})

	t.Run("community block excludes from listing", func(t *testing.T) {
		views := list(t, commentview.NewQuery().WithViewer(viewerPtr(dave)))
		require.NotContains(t, viewIDs(views), model.CommentID(7))

		v, err := svc.Read(ctx, 7, viewerPtr(dave))
		require.NoError(t, err)
		require.False(t, v.CreatorBlocked)
	})

	t.Run("ban is evaluated at query time", func(t *testing.T) {
		active, err := svc.Read(ctx, 4, nil)
		require.NoError(t, err)
		require.True(t, active.CreatorBannedFromCommunity)

		expired, err := svc.Read(ctx, 3, nil)
		require.NoError(t, err)
		require.False(t, expired.CreatorBannedFromCommunity)

		future, err := svc.Read(ctx, 7, nil)
		require.NoError(t, err)
		require.True(t, future.CreatorBannedFromCommunity)

		unbanned, err := svc.Read(ctx, 1, nil)
		require.NoError(t, err)
		require.False(t, unbanned.CreatorBannedFromCommunity)
	})

	t.Run("subscribed state", func(t *testing.T) {
		v, err := svc.Read(ctx, 7, viewerPtr(vera))
		require.NoError(t, err)
		require.Equal(t, model.SubscribedTypePending, v.Subscribed)

		v, err = svc.Read(ctx, 6, viewerPtr(dave))
		require.NoError(t, err)
		require.Equal(t, model.SubscribedTypeSubscribed, v.Subscribed)

		v, err = svc.Read(ctx, 6, nil)
		require.NoError(t, err)
		require.Equal(t, model.SubscribedTypeNotSubscribed, v.Subscribed)
	})

	t.Run("saved flag and saved only", func(t *testing.T) {
		v, err := svc.Read(ctx, 2, viewerPtr(vera))
		require.NoError(t, err)
		require.True(t, v.Saved)

		views := list(t, commentview.NewQuery().WithViewer(viewerPtr(vera)).WithSavedOnly(true))
		require.Equal(t, []model.CommentID{2}, viewIDs(views))

		require.Empty(t, list(t, commentview.NewQuery().WithSavedOnly(true)))
	})

	t.Run("new sort", func(t *testing.T) {
		require.Equal(t, []model.CommentID{5, 4, 3, 2, 1}, viewIDs(list(t, post10)))
		require.Equal(t, []model.CommentID{5, 4, 3, 2, 1},
			viewIDs(list(t, post10.WithSort(model.SortTypeMostComments))))
	})

	t.Run("top week excludes old items and orders by score", func(t *testing.T) {
		views := list(t, post10.WithSort(model.SortTypeTopWeek))
		require.Equal(t, []model.CommentID{3, 2, 5, 4}, viewIDs(views))

		views = list(t, post10.WithSort(model.SortTypeTopAll))
		require.Equal(t, []model.CommentID{1, 3, 2, 5, 4}, viewIDs(views))

		views = list(t, post10.WithSort(model.SortTypeTopDay))
		require.Equal(t, []model.CommentID{5}, viewIDs(views))
	})

	t.Run("hot sort", func(t *testing.T) {
		views := list(t, post10.WithSort(model.SortTypeHot))
		require.Equal(t, []model.CommentID{5, 3, 4, 2, 1}, viewIDs(views))
	})

	t.Run("pagination matches full ordering", func(t *testing.T) {
		full := viewIDs(list(t, commentview.NewQuery().WithLimit(300)))
		require.Equal(t, []model.CommentID{7, 5, 6, 4, 3, 2, 1}, full)

		page2 := viewIDs(list(t, commentview.NewQuery().WithLimit(2).WithPage(2)))
		require.Equal(t, full[2:4], page2)

		require.Empty(t, list(t, commentview.NewQuery().WithLimit(2).WithPage(10)))
	})

	t.Run("page number too large for an offset is past the end", func(t *testing.T) {
		views := list(t, commentview.NewQuery().WithPage(1<<62).WithLimit(300))
		require.NotNil(t, views)
		require.Empty(t, views)

		views = list(t, post10.WithPage(math.MaxInt64).WithLimit(1))
		require.Empty(t, views)
	})

	t.Run("listing types", func(t *testing.T) {
		require.NotContains(t, viewIDs(list(t, commentview.NewQuery().WithListingType(model.ListingTypeAll))), model.CommentID(6))
		require.Contains(t, viewIDs(list(t, commentview.NewQuery().
			WithListingType(model.ListingTypeAll).WithViewer(viewerPtr(dave)))), model.CommentID(6))

		local := viewIDs(list(t, commentview.NewQuery().WithListingType(model.ListingTypeLocal)))
		require.ElementsMatch(t, []model.CommentID{1, 2, 3, 4, 5}, local)

		subscribed := viewIDs(list(t, commentview.NewQuery().
			WithListingType(model.ListingTypeSubscribed).WithViewer(viewerPtr(dave))))
		require.ElementsMatch(t, []model.CommentID{1, 2, 3, 4, 5, 6}, subscribed)

		// 承認待ちの購読も購読として扱う
		require.Equal(t, []model.CommentID{7}, viewIDs(list(t, commentview.NewQuery().
			WithListingType(model.ListingTypeSubscribed).WithViewer(viewerPtr(alice)))))
		// veraも承認待ちで購読しているが、carolをブロックしているため7は除外される
		require.Empty(t, list(t, commentview.NewQuery().
			WithListingType(model.ListingTypeSubscribed).WithViewer(viewerPtr(vera))))
		require.Empty(t, list(t, commentview.NewQuery().
			WithListingType(model.ListingTypeSubscribed).WithViewer(viewerPtr(bob))))
	})

	t.Run("community listing", func(t *testing.T) {
		byID := viewIDs(list(t, commentview.NewQuery().WithListingType(model.ListingTypeCommunity).WithCommunityID(3)))
		require.Equal(t, []model.CommentID{7}, byID)

		byActor := viewIDs(list(t, commentview.NewQuery().
			WithListingType(model.ListingTypeCommunity).WithCommunityActorID("https://example.com/c/secret")))
		require.Equal(t, []model.CommentID{6}, byActor)

		both := list(t, commentview.NewQuery().WithListingType(model.ListingTypeCommunity).
			WithCommunityID(3).WithCommunityActorID("https://example.com/c/secret"))
		require.Empty(t, both)
	})

	t.Run("bot filter and creator filter", func(t *testing.T) {
		require.NotContains(t, viewIDs(list(t, post10.WithShowBotAccounts(false))), model.CommentID(3))
		require.Contains(t, viewIDs(list(t, post10)), model.CommentID(3))
		require.ElementsMatch(t, []model.CommentID{4, 7}, viewIDs(list(t, commentview.NewQuery().WithCreatorID(carol))))
	})

	t.Run("search is case insensitive substring with literal wildcards", func(t *testing.T) {
		require.Equal(t, []model.CommentID{2}, viewIDs(list(t, commentview.NewQuery().WithSearchTerm("TYPE PARAM"))))
		require.Equal(t, []model.CommentID{3}, viewIDs(list(t, commentview.NewQuery().WithSearchTerm("100%"))))
		require.Equal(t, []model.CommentID{5}, viewIDs(list(t, commentview.NewQuery().WithSearchTerm("s_are"))))
		require.Empty(t, list(t, commentview.NewQuery().WithSearchTerm("nothing like this")))
	})

	t.Run("read not found", func(t *testing.T) {
		_, err := svc.Read(ctx, 9999, viewerPtr(vera))
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("read exposes joined records", func(t *testing.T) {
		v, err := svc.Read(ctx, 5, nil)
		require.NoError(t, err)
		require.Equal(t, "alice", v.Creator.Name)
		require.Equal(t, model.PostID(10), v.Post.ID)
		require.Equal(t, "golang", v.Community.Name)
		require.Equal(t, int64(1), v.Counts.Score)
		require.Equal(t, "1.2.5", v.Comment.Path.String())
	})
}
