package model

import "fmt"

// ListingType はコメント一覧の取得範囲を表す。
// 空文字列は範囲指定なし（コミュニティ条件を付けない）を意味する。
type ListingType string

const (
	// ListingTypeAll は非表示でないコミュニティ、または閲覧者が購読するコミュニティ。
	ListingTypeAll ListingType = "All"
	// ListingTypeLocal はローカルのコミュニティに限定した All。
	ListingTypeLocal ListingType = "Local"
	// ListingTypeSubscribed は閲覧者が購読するコミュニティのみ。閲覧者が必須。
	ListingTypeSubscribed ListingType = "Subscribed"
	// ListingTypeCommunity は指定した1つのコミュニティのみ。
	ListingTypeCommunity ListingType = "Community"
)

// ParseListingType は文字列をListingTypeに変換する。空文字列は範囲指定なしになる。
func ParseListingType(s string) (ListingType, error) {
	switch lt := ListingType(s); lt {
	case "", ListingTypeAll, ListingTypeLocal, ListingTypeSubscribed, ListingTypeCommunity:
		return lt, nil
	default:
		return "", NewQueryError(fmt.Sprintf("unknown listing type %q", s))
	}
}

// SortType はコメント一覧の並び順を表す。空文字列はNewとして扱う。
type SortType string

const (
	SortTypeActive       SortType = "Active"
	SortTypeHot          SortType = "Hot"
	SortTypeNew          SortType = "New"
	SortTypeTopDay       SortType = "TopDay"
	SortTypeTopWeek      SortType = "TopWeek"
	SortTypeTopMonth     SortType = "TopMonth"
	SortTypeTopYear      SortType = "TopYear"
	SortTypeTopAll       SortType = "TopAll"
	SortTypeMostComments SortType = "MostComments"
	SortTypeNewComments  SortType = "NewComments"
)

// ParseSortType は文字列をSortTypeに変換する。空文字列はNewになる。
func ParseSortType(s string) (SortType, error) {
	if s == "" {
		return SortTypeNew, nil
	}
	switch st := SortType(s); st {
	case SortTypeActive, SortTypeHot, SortTypeNew, SortTypeTopDay, SortTypeTopWeek,
		SortTypeTopMonth, SortTypeTopYear, SortTypeTopAll, SortTypeMostComments, SortTypeNewComments:
		return st, nil
	default:
		return "", NewQueryError(fmt.Sprintf("unknown sort type %q", s))
	}
}
