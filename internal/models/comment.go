package models

import (
	"time"
)

// Comment represents a comment on an article. ParentID is set for replies.
type Comment struct {
	ID        string    `json:"id" db:"id"`
	ArticleID string    `json:"article_id" db:"article_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	ParentID  *string   `json:"parent_id,omitempty" db:"parent_id"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CreateCommentRequest is the payload of POST /v1/comments
type CreateCommentRequest struct {
	ArticleID string  `json:"article_id"`
	ParentID  *string `json:"parent_id,omitempty"`
	Body      string  `json:"body"`
}

// CommentList is a page of comments
type CommentList struct {
	Comments []*Comment `json:"comments"`
	Page     int        `json:"page"`
	Limit    int        `json:"limit"`
	Total    int        `json:"total"`
}

// MaxCommentWords is the maximum allowed words in a comment body
const MaxCommentWords = 500
