package formalin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rl1809/formalin/internal/core/domain"
)

// Payload is a request body. Keys that are omitted stay unchanged on
// update; a nil value clears the field.
type Payload map[string]any

// APIError is returned for any response with a 4xx or 5xx status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("formalin api error: status=%d, message=%s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

type errorBody struct {
	Error string `json:"error"`
}

// Client is a resty-backed client for the item REST API.
type Client struct {
	httpClient *resty.Client
}

func NewClient(baseURL string) *Client {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &Client{httpClient: restyClient}
}

func (c *Client) ListItems(ctx context.Context) ([]domain.ItemWithHistory, error) {
	var items []domain.ItemWithHistory
	if err := c.do(ctx, http.MethodGet, "/items", nil, &items, nil); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (c *Client) GetItem(ctx context.Context, id int64) (*domain.ItemWithHistory, error) {
	item := new(domain.ItemWithHistory)
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/items/%d", id), nil, item, nil); err != nil {
		return nil, fmt.Errorf("get item %d: %w", id, err)
	}
	return item, nil
}

// CreateItem posts body and returns the new id. idempotencyKey may be empty.
func (c *Client) CreateItem(ctx context.Context, body Payload, idempotencyKey string) (int64, error) {
	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{"Idempotency-Key": idempotencyKey}
	}

	var result struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/items", body, &result, headers); err != nil {
		return 0, fmt.Errorf("create item: %w", err)
	}
	return result.ID, nil
}

func (c *Client) UpdateItem(ctx context.Context, id int64, body Payload) error {
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/items/%d", id), body, nil, nil); err != nil {
		return fmt.Errorf("update item %d: %w", id, err)
	}
	return nil
}

func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/items/%d", id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete item %d: %w", id, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any, headers map[string]string) error {
	apiErr := new(errorBody)

	req := c.httpClient.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetError(apiErr)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Error
		if message == "" {
			message = http.StatusText(resp.StatusCode())
		}
		return &APIError{StatusCode: resp.StatusCode(), Message: message}
	}
	return nil
}
