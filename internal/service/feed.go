package service

import (
	"strconv"
	"strings"

	"blog-backend/internal/domain"
)

const (
	// DefaultFeedTake is the page size used when take is absent or invalid.
	DefaultFeedTake = 10
	defaultFeedSkip = 0
)

// FeedParams carries the raw feed query parameters as received.
type FeedParams struct {
	SearchString string
	Skip         string
	Take         string
	OrderBy      string
}

// ParseIntDefault parses raw as a base-10 integer, returning def when raw is
// empty or not a number.
func ParseIntDefault(raw string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return v
}

// ParseFeedQuery normalizes raw parameters into a FeedQuery. Invalid values
// fall back to defaults instead of failing: a negative skip becomes 0, a
// non-positive take becomes defaultTake, and any orderBy other than "asc"
// sorts newest first. A defaultTake of 0 leaves the feed unbounded.
func ParseFeedQuery(params FeedParams, defaultTake int) domain.FeedQuery {
	skip := ParseIntDefault(params.Skip, defaultFeedSkip)
	if skip < 0 {
		skip = defaultFeedSkip
	}

	take := ParseIntDefault(params.Take, defaultTake)
	if take <= 0 {
		take = defaultTake
	}

	order := domain.SortDesc
	if params.OrderBy == string(domain.SortAsc) {
		order = domain.SortAsc
	}

	return domain.FeedQuery{
		Search: strings.TrimSpace(params.SearchString),
		Skip:   skip,
		Take:   take,
		Order:  order,
	}
}
