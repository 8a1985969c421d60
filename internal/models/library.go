package models

import "time"

// ContentType is the medium of a learning library item.
type ContentType string

const (
	ContentArticles ContentType = "Articles"
	ContentPodcast  ContentType = "Podcast"
	ContentBooks    ContentType = "Books"
)

// Category groups learning library items by topic.
type Category string

const (
	CategoryDailyLiving   Category = "Daily_Living"
	CategoryCommunication Category = "Communication"
	CategoryParentSupport Category = "Parent_Support"
)

// Article is a learning library item.
type Article struct {
	ID          int64       `json:"id"`
	CreatedByID int64       `json:"createdById"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Content     ContentType `json:"content"`
	Category    Category    `json:"category"`
	Image       string      `json:"image"`
	Link        string      `json:"link"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`

	IsFavorite bool `json:"isFavorite"`
}

// Favorite links a user to an article they saved.
type Favorite struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	ArticleID int64     `json:"articleId"`
	CreatedAt time.Time `json:"createdAt"`
	Article   *Article  `json:"article,omitempty"`
}
