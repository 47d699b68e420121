package gormstore

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"blog-backend/internal/domain"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// applyFeedQuery narrows tx to published posts matching query and applies
// its ordering and window.
func applyFeedQuery(tx *gorm.DB, query domain.FeedQuery) *gorm.DB {
	tx = tx.Where("published = ?", true)

	if query.Search != "" {
		lower := lowerFunc(tx.Dialector.Name())
		pattern := "%" + likeEscaper.Replace(strings.ToLower(query.Search)) + "%"
		tx = tx.Where(
			fmt.Sprintf(`(%[1]s(title) LIKE ? ESCAPE '\' OR %[1]s(COALESCE(content, '')) LIKE ? ESCAPE '\')`, lower),
			pattern, pattern,
		)
	}

	direction := "DESC"
	if query.Order == domain.SortAsc {
		direction = "ASC"
	}
	tx = tx.Order("updated_at " + direction).Order("id " + direction)

	if query.Skip > 0 {
		tx = tx.Offset(query.Skip)
	}
	if query.Take > 0 {
		tx = tx.Limit(query.Take)
	}
	return tx
}
