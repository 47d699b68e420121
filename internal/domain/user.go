package domain

// User is an author of posts, identified by a unique email.
type User struct {
	ID    int64  `gorm:"primaryKey"`
	Email string `gorm:"uniqueIndex;not null"`
	Name  *string
	Posts []Post `gorm:"foreignKey:AuthorID"`
}
