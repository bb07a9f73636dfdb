package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Post represents a social media post produced for a shop product.
type Post struct {
	ID            int        `json:"id" validate:"gte=0"`
	Title         string     `json:"title" validate:"required,max=200"`
	Caption       string     `json:"caption"`
	Image         string     `json:"image,omitempty" validate:"omitempty,url"`
	Platform      Platform   `json:"platform"`
	Status        Status     `json:"status" validate:"required,oneof=draft scheduled posted"`
	ScheduledTime *time.Time `json:"scheduledTime,omitempty"`
	PostedAt      *time.Time `json:"postedAt,omitempty"`
	ProductID     string     `json:"productId,omitempty"`
	Prompt        string     `json:"prompt,omitempty"`
	Version       int        `json:"version"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// PostPatch carries the editable fields of a post. Nil fields are left alone.
type PostPatch struct {
	Title           *string   `json:"title,omitempty" validate:"omitempty,max=200"`
	Caption         *string   `json:"caption,omitempty"`
	Image           *string   `json:"image,omitempty" validate:"omitempty,url"`
	Platform        *Platform `json:"platform,omitempty"`
	ExpectedVersion *int      `json:"expectedVersion,omitempty" validate:"omitempty,gte=1"`
}

// PostQuery describes a filtered, paginated view over the stored posts.
type PostQuery struct {
	Status  StatusFilter
	Search  string
	Page    int
	PerPage int
}

// Page is one slice of a filtered post sequence.
type Page struct {
	Posts      []*Post `json:"posts"`
	Page       int     `json:"page"`
	PerPage    int     `json:"perPage"`
	Total      int     `json:"total"`
	TotalPages int     `json:"totalPages"`
}

// Product is an item of the shop catalog that posts are generated for.
type Product struct {
	ID    string          `json:"id" yaml:"id"`
	Title string          `json:"title" yaml:"title"`
	Image string          `json:"image" yaml:"image"`
	Price decimal.Decimal `json:"price" yaml:"price"`
}

// GenerationRequest asks for a caption and image for a product on a set of platforms.
type GenerationRequest struct {
	RequestID string     `json:"requestId"`
	ProductID string     `json:"productId" validate:"required"`
	Prompt    string     `json:"prompt" validate:"required"`
	Platforms []Platform `json:"platforms" validate:"required,min=1,dive,oneof=instagram facebook email"`
}

// GenerationResult is the content produced for a GenerationRequest.
type GenerationResult struct {
	ID          string     `json:"id"`
	Image       string     `json:"image"`
	Caption     string     `json:"caption"`
	Platforms   []Platform `json:"platforms"`
	ProductID   string     `json:"productId"`
	Prompt      string     `json:"prompt"`
	GeneratedAt time.Time  `json:"generatedAt"`
	PostIDs     []int      `json:"postIds"`
}

// ScheduleForm is the scheduler form submission.
type ScheduleForm struct {
	Title string `json:"title"`
	Date  string `json:"date"`
	Time  string `json:"time"`
}

// Stats backs the dashboard counters.
type Stats struct {
	Total     int `json:"totalPosts"`
	Scheduled int `json:"scheduledPosts"`
	Posted    int `json:"postedPosts"`
	Draft     int `json:"draftPosts"`
	Credits   int `json:"credits"`
}
