package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/maheshrc27/postscheduler/internal/models"
	"golang.org/x/oauth2"
)

// Publisher sends one post body to one platform and returns the id the
// platform assigned to it.
type Publisher interface {
	Platform() models.Platform
	Publish(ctx context.Context, token *models.AccessToken, text string, media []models.MediaRef) (string, error)
}

// StatusError is returned when a platform answers with a non-2xx status.
type StatusError struct {
	Platform   models.Platform
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded %d: %s", e.Platform, e.StatusCode, e.Message)
}

// Temporary reports whether retrying the same request may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// authorizedClient wraps base so every request carries the bearer token.
func authorizedClient(ctx context.Context, base *http.Client, token string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
}

func postJSON(ctx context.Context, client *http.Client, url string, body any, headers map[string]string) (*http.Response, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, respBody, nil
}

// withMediaLinks appends media URLs to text, one per line.
func withMediaLinks(text string, media []models.MediaRef) string {
	if len(media) == 0 {
		return text
	}
	lines := []string{strings.TrimSpace(text)}
	for _, m := range media {
		lines = append(lines, m.URL)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
