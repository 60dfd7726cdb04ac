package queue

import (
	"fmt"

	"github.com/maheshrc27/postscheduler/internal/models"
)

const TaskTypePublishRetry = "publish:retry"

type PublishRetryPayload struct {
	PostID   string          `json:"post_id"`
	Platform models.Platform `json:"platform"`
}

// taskID identifies the retry task of one platform of one post, so a second
// enqueue for the same pair is rejected while the first is pending.
func taskID(postID string, platform models.Platform) string {
	return fmt.Sprintf("%s:%s:%s", TaskTypePublishRetry, postID, platform)
}
