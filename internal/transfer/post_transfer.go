package transfer

import (
	"time"

	"github.com/maheshrc27/postscheduler/internal/models"
)

// PostUpsert is the create-or-update payload of POST /api/posts. An empty ID
// creates a new post.
type PostUpsert struct {
	ID          string            `json:"id"`
	Content     string            `json:"content"`
	Status      string            `json:"status"`
	ScheduledAt string            `json:"scheduled_at"`
	TimeZone    string            `json:"time_zone"`
	Variants    []VariantInput    `json:"variants"`
	Media       []models.MediaRef `json:"media"`
}

type VariantInput struct {
	Platform string `json:"platform"`
	Body     string `json:"body"`
}

type PostView struct {
	ID               string                   `json:"id"`
	Content          string                   `json:"content"`
	Status           models.Status            `json:"status"`
	ScheduledAt      *time.Time               `json:"scheduled_at"`
	ScheduledAtLocal string                   `json:"scheduled_at_local,omitempty"`
	TimeZone         string                   `json:"time_zone"`
	Variants         []models.PlatformContent `json:"variants"`
	Media            []models.MediaRef        `json:"media"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

// NewPostView renders the schedule time both in UTC and in the post's zone.
func NewPostView(p *models.Post) PostView {
	v := PostView{
		ID:        p.ID,
		Content:   p.Content,
		Status:    p.Status,
		TimeZone:  p.TimeZone,
		Variants:  p.Variants,
		Media:     p.Media,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if v.Variants == nil {
		v.Variants = []models.PlatformContent{}
	}
	if v.Media == nil {
		v.Media = []models.MediaRef{}
	}

	if p.ScheduledAt != nil {
		at := p.ScheduledAt.UTC()
		v.ScheduledAt = &at
		if loc, err := time.LoadLocation(p.TimeZone); err == nil {
			v.ScheduledAtLocal = at.In(loc).Format(time.RFC3339)
		}
	}
	return v
}

type AccountStatus struct {
	Platform  models.Platform `json:"platform"`
	Connected bool            `json:"connected"`
}
