// Package newsapi is a thin client for the upstream headline provider the SPA
// used to call directly; proxying it keeps the API key off the client.
package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

var ErrUpstream = errors.New("news upstream error")

type Config struct {
	APIKey  string
	BaseURL string        // e.g. "https://newsapi.org/v2"
	Timeout time.Duration // HTTP request timeout
}

type Query struct {
	Category string `json:"category"`
	Country  string `json:"country"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type Source struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}

type Article struct {
	Source      Source  `json:"source"`
	Author      *string `json:"author"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	URL         string  `json:"url"`
	URLToImage  *string `json:"urlToImage"`
	PublishedAt string  `json:"publishedAt"`
	Content     *string `json:"content"`
}

type Headlines struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
	// only set on provider errors
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type Client struct {
	cfg    Config
	client *http.Client
}

func NewClient(cfg Config, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{cfg: cfg, client: client}
}

func (c *Client) TopHeadlines(ctx context.Context, query Query) (Headlines, error) {
	q := url.Values{}

	if query.Country != "" {
		q.Set("country", query.Country)
	}
	if query.Category != "" {
		q.Set("category", query.Category)
	}
	if query.Page > 0 {
		q.Set("page", strconv.Itoa(query.Page))
	}
	if query.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(query.PageSize))
	}
	q.Set("apiKey", c.cfg.APIKey)

	u := fmt.Sprintf("%s/top-headlines?%s", c.cfg.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)

	if err != nil {
		return Headlines{}, err
	}

	res, err := c.client.Do(req)

	if err != nil {
		return Headlines{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= 500 {
		return Headlines{}, fmt.Errorf("%w: http %d", ErrUpstream, res.StatusCode)
	}

	var body Headlines

	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return Headlines{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if body.Status == "error" {
		return Headlines{}, fmt.Errorf("%w: %s", ErrUpstream, body.Message)
	}

	return body, nil
}
