package hubapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"smartreader/internal/config"
	"smartreader/internal/domain"
	"smartreader/internal/ports"
)

// Client implements ports.ArticleService against the reading hub's REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ ports.ArticleService = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.HubConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchArticles retrieves the full article collection.
func (c *Client) FetchArticles(ctx context.Context) ([]domain.Article, error) {
	resp, err := c.get(ctx, c.baseURL+"/articles")
	if err != nil {
		return nil, fmt.Errorf("fetch articles: %w", err)
	}
	defer resp.Body.Close()

	var articles []domain.Article
	if err := json.NewDecoder(resp.Body).Decode(&articles); err != nil {
		return nil, fmt.Errorf("decode articles: %w", err)
	}

	for i := range articles {
		for j := range articles[i].Comments {
			comment := &articles[i].Comments[j]
			comment.Sentiment = domain.ParseSentiment(string(comment.Sentiment))
		}
	}

	return articles, nil
}

// FetchSummary retrieves the AI-generated summary for one article. The
// endpoint returns the summary as a plain text body.
func (c *Client) FetchSummary(ctx context.Context, articleID int64) (string, error) {
	url := fmt.Sprintf("%s/ai/articles/%d/summary", c.baseURL, articleID)
	resp, err := c.get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("fetch summary: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read summary: %w", err)
	}

	return strings.TrimSpace(string(body)), nil
}

// PostComment submits a comment; the service responds with the stored
// record, including the assigned id and sentiment label.
func (c *Client) PostComment(ctx context.Context, comment domain.NewComment) (domain.Comment, error) {
	payload, err := json.Marshal(map[string]any{
		"text":    comment.Text,
		"user":    map[string]int64{"id": comment.UserID},
		"article": map[string]int64{"id": comment.ArticleID},
	})
	if err != nil {
		return domain.Comment{}, fmt.Errorf("marshal comment: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/comments", bytes.NewReader(payload))
	if err != nil {
		return domain.Comment{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("post comment: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return domain.Comment{}, fmt.Errorf("post comment: %w", err)
	}

	var saved domain.Comment
	if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
		return domain.Comment{}, fmt.Errorf("decode comment: %w", err)
	}
	saved.Sentiment = domain.ParseSentiment(string(saved.Sentiment))

	return saved, nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	detail := strings.TrimSpace(string(body))
	if detail == "" {
		return fmt.Errorf("article service returned %s", resp.Status)
	}
	return fmt.Errorf("article service returned %s: %s", resp.Status, detail)
}
