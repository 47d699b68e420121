package domain

import "time"

// Post is a content record owned by exactly one User.
type Post struct {
	ID        int64 `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Title     string `gorm:"not null"`
	Content   *string
	Published bool  `gorm:"not null;default:false"`
	ViewCount int64 `gorm:"not null;default:0"`
	AuthorID  int64 `gorm:"not null;index"`
	Author    *User `gorm:"foreignKey:AuthorID"`
}

