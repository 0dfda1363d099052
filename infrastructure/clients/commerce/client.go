package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"coursemint/domain/repository"
)

// Client is the REST client for the commerce provider's store API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ repository.ICommerce = (*Client)(nil)

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
}

type productResponse struct {
	ID string `json:"id"`
}

type checkoutRequest struct {
	ProductID   string            `json:"product_id"`
	RedirectURL string            `json:"redirect_url"`
	PriceCents  int64             `json:"price_cents"`
	Custom      map[string]string `json:"custom"`
}

type checkoutResponse struct {
	URL string `json:"url"`
}

// CreateProduct registers a sellable product and returns its provider id.
func (c *Client) CreateProduct(ctx context.Context, accessToken string, in repository.ProductInput) (string, error) {
	var out productResponse
	err := c.do(ctx, accessToken, http.MethodPost, "/v1/products", productRequest{
		Name:        in.Name,
		Description: in.Description,
		PriceCents:  in.PriceCents,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("create product: provider returned no id")
	}
	return out.ID, nil
}

func (c *Client) ArchiveProduct(ctx context.Context, accessToken, productRef string) error {
	return c.do(ctx, accessToken, http.MethodPost, "/v1/products/"+url.PathEscape(productRef)+"/archive", nil, nil)
}

// CreateCheckout opens a hosted checkout session and returns its URL.
func (c *Client) CreateCheckout(ctx context.Context, accessToken string, in repository.CheckoutInput) (string, error) {
	var out checkoutResponse
	err := c.do(ctx, accessToken, http.MethodPost, "/v1/checkouts", checkoutRequest{
		ProductID:   in.ProductRef,
		RedirectURL: in.RedirectURL,
		PriceCents:  in.PriceCents,
		Custom:      map[string]string{"access_code": in.AccessCode},
	}, &out)
	if err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", errors.New("create checkout: provider returned no url")
	}
	return out.URL, nil
}

func (c *Client) do(ctx context.Context, accessToken, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: status=%d body=%s", method, path, resp.StatusCode, truncate(string(raw), 256))
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
