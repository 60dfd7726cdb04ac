package models

import (
	"slices"
	"strings"
	"time"
)

type Status string

const (
	PostStatusDraft     Status = "draft"
	PostStatusScheduled Status = "scheduled"
	PostStatusPublished Status = "published"
)

func (s Status) Valid() bool {
	switch s {
	case PostStatusDraft, PostStatusScheduled, PostStatusPublished:
		return true
	}
	return false
}

type Platform string

const (
	PlatformLinkedIn Platform = "linkedin"
	PlatformTwitter  Platform = "twitter"
)

// Platforms lists every platform a post can target.
var Platforms = []Platform{PlatformLinkedIn, PlatformTwitter}

func (p Platform) Valid() bool {
	return slices.Contains(Platforms, p)
}

type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

type OrderBy string

const (
	OrderByCreated   OrderBy = "created"
	OrderByScheduled OrderBy = "scheduled"
)

type Post struct {
	ID          string            `db:"id" json:"id"`
	OwnerID     string            `db:"owner_id" json:"owner_id"`
	Content     string            `db:"content" json:"content"`
	Status      Status            `db:"status" json:"status"`
	ScheduledAt *time.Time        `db:"scheduled_at" json:"scheduled_at"`
	TimeZone    string            `db:"time_zone" json:"time_zone"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
	Variants    []PlatformContent `db:"-" json:"variants"`
	Media       []MediaRef        `db:"-" json:"media"`
}

// PlatformContent overrides the shared content for one platform.
type PlatformContent struct {
	PostID   string   `db:"post_id" json:"-"`
	Platform Platform `db:"platform" json:"platform"`
	Body     string   `db:"body" json:"body"`
}

type MediaRef struct {
	PostID       string    `db:"post_id" json:"-"`
	URL          string    `db:"url" json:"url"`
	Kind         MediaKind `db:"kind" json:"kind"`
	DisplayOrder int       `db:"display_order" json:"-"`
}

// Targets returns the platforms the post is published to. A post without
// variants goes to every supported platform.
func (p *Post) Targets() []Platform {
	if len(p.Variants) == 0 {
		return slices.Clone(Platforms)
	}
	targets := make([]Platform, 0, len(p.Variants))
	for _, v := range p.Variants {
		targets = append(targets, v.Platform)
	}
	return targets
}

// BodyFor returns the text to publish on platform.
func (p *Post) BodyFor(platform Platform) string {
	for _, v := range p.Variants {
		if v.Platform == platform && strings.TrimSpace(v.Body) != "" {
			return v.Body
		}
	}
	return p.Content
}

// HasContent reports whether every target has something to publish.
func (p *Post) HasContent() bool {
	if len(p.Media) > 0 {
		return true
	}
	for _, platform := range p.Targets() {
		if strings.TrimSpace(p.BodyFor(platform)) == "" {
			return false
		}
	}
	return true
}

// CanTransition is the status guard. published is terminal and is only
// reached from scheduled.
func CanTransition(from, to Status) bool {
	switch from {
	case PostStatusDraft:
		return to == PostStatusScheduled
	case PostStatusScheduled:
		return to == PostStatusDraft || to == PostStatusPublished
	}
	return false
}
