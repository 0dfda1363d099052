package unsplash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
)

// Client looks up hero images on an Unsplash-compatible search API.
type Client struct {
	baseURL    string
	accessKey  string
	httpClient *http.Client
}

func NewClient(baseURL, accessKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), accessKey: accessKey, httpClient: httpClient}
}

type searchParams struct {
	Query       string `url:"query"`
	PerPage     int    `url:"per_page"`
	Orientation string `url:"orientation,omitempty"`
}

type searchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

// ErrNoImage is returned when the search yields nothing usable.
var ErrNoImage = errors.New("no image found")

func (c *Client) FindByQuery(ctx context.Context, q string) (string, error) {
	if c.accessKey == "" {
		return "", errors.New("image search not configured")
	}
	v, err := query.Values(searchParams{Query: q, PerPage: 1, Orientation: "landscape"})
	if err != nil {
		return "", fmt.Errorf("encode image query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/photos?"+v.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build image request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("image request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("image search failed: status=%d", resp.StatusCode)
	}
	var out searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode image response: %w", err)
	}
	if len(out.Results) == 0 || out.Results[0].URLs.Regular == "" {
		return "", ErrNoImage
	}
	return out.Results[0].URLs.Regular, nil
}
