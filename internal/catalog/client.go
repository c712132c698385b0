package catalog

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
)

var (
	ErrUnavailable = errors.New("catalog unavailable")
	ErrBadStatus   = errors.New("catalog bad status")
)

const clientTimeout = 3 * time.Second

// Client talks to the product API over HTTP.
type Client struct {
	BaseURL string
	Client  *http.Client
}

func NewClient(baseURL string) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: clientTimeout},
	}
}

func (c *Client) List(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, id string) (Product, error) {
	var p Product
	err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, http.StatusOK, &p)
	return p, err
}

func (c *Client) Create(ctx context.Context, in ProductInput) (Product, error) {
	var p Product
	err := c.do(ctx, http.MethodPost, "/products", in, http.StatusCreated, &p)
	return p, err
}

type updateRequest struct {
	ID string `json:"id"`
	ProductInput
}

func (c *Client) Update(ctx context.Context, id string, in ProductInput) (Product, error) {
	var p Product
	err := c.do(ctx, http.MethodPatch, "/products", updateRequest{ID: id, ProductInput: in}, http.StatusOK, &p)
	return p, err
}

func (c *Client) Delete(ctx context.Context, id string) (Product, error) {
	var p Product
	err := c.do(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil, http.StatusOK, &p)
	return p, err
}

type apiError struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == want {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
		return nil
	}

	var ae apiError
	_ = json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&ae)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		ve := &ValidationError{}
		if len(ae.Details) > 0 {
			_ = json.Unmarshal(ae.Details, &ve.Fields)
		}
		if ve.empty() && ae.Error != "" {
			ve.add("request", ae.Error)
		}
		return ve
	default:
		return fmt.Errorf("%w: status=%d error=%q", ErrBadStatus, resp.StatusCode, ae.Error)
	}
}
