package domain

type SortOrder string

const (
	SortDesc SortOrder = "desc"
	SortAsc  SortOrder = "asc"
)

// FeedQuery is the normalized read request behind the public feed.
// Only published posts are ever selected; Take == 0 means no limit.
type FeedQuery struct {
	Search string
	Skip   int
	Take   int
	Order  SortOrder
}
