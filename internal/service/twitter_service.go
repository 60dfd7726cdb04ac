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

type twitterPublisher struct {
	apiURL string
	client *http.Client
}

func NewTwitterPublisher(apiURL string, client *http.Client) Publisher {
	if client == nil {
		client = http.DefaultClient
	}
	return &twitterPublisher{apiURL: strings.TrimRight(apiURL, "/"), client: client}
}

func (p *twitterPublisher) Platform() models.Platform {
	return models.PlatformTwitter
}

func (p *twitterPublisher) Publish(ctx context.Context, token *models.AccessToken, text string, media []models.MediaRef) (string, error) {
	client := authorizedClient(ctx, p.client, token.Token)

	resp, body, err := postJSON(ctx, client, p.apiURL+"/2/tweets", transfer.TweetRequest{Text: withMediaLinks(text, media)}, nil)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr transfer.TwitterErrorResponse
		message := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Detail != "" {
			message = apiErr.Detail
		}
		return "", &StatusError{Platform: models.PlatformTwitter, StatusCode: resp.StatusCode, Message: message}
	}

	var tweet transfer.TweetResponse
	if err := json.Unmarshal(body, &tweet); err != nil {
		return "", err
	}
	if tweet.Data.ID == "" {
		return "", errors.New("twitter response carries no tweet id")
	}
	return tweet.Data.ID, nil
}
