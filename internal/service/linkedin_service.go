package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/maheshrc27/postscheduler/internal/models"
	"github.com/maheshrc27/postscheduler/internal/transfer"
)

type linkedinPublisher struct {
	apiURL string
	client *http.Client
}

func NewLinkedInPublisher(apiURL string, client *http.Client) Publisher {
	if client == nil {
		client = http.DefaultClient
	}
	return &linkedinPublisher{apiURL: strings.TrimRight(apiURL, "/"), client: client}
}

func (p *linkedinPublisher) Platform() models.Platform {
	return models.PlatformLinkedIn
}

func (p *linkedinPublisher) Publish(ctx context.Context, token *models.AccessToken, text string, media []models.MediaRef) (string, error) {
	if token.AccountID == "" {
		return "", errors.New("linkedin account id is missing")
	}

	share := transfer.UGCShareContent{
		ShareCommentary:    transfer.UGCText{Text: text},
		ShareMediaCategory: "NONE",
	}
	if len(media) > 0 {
		share.ShareMediaCategory = "ARTICLE"
		for _, m := range media {
			share.Media = append(share.Media, transfer.UGCMedia{Status: "READY", OriginalURL: m.URL})
		}
	}

	req := transfer.UGCPostRequest{
		Author:          "urn:li:person:" + token.AccountID,
		LifecycleState:  "PUBLISHED",
		SpecificContent: transfer.UGCSpecificContent{ShareContent: share},
		Visibility:      map[string]string{"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC"},
	}

	client := authorizedClient(ctx, p.client, token.Token)
	resp, body, err := postJSON(ctx, client, p.apiURL+"/v2/ugcPosts", req, map[string]string{
		"X-Restli-Protocol-Version": "2.0.0",
	})
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr transfer.LinkedInErrorResponse
		message := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			message = apiErr.Message
		}
		return "", &StatusError{Platform: models.PlatformLinkedIn, StatusCode: resp.StatusCode, Message: message}
	}

	if id := resp.Header.Get("X-RestLi-Id"); id != "" {
		return id, nil
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil || created.ID == "" {
		return "", errors.New("linkedin response carries no post id")
	}
	return created.ID, nil
}
