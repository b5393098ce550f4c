package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"parish_portal/internal/metrics"
)

const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxListSize = 100
	DefaultPageSize    = 25

	// ответы больше этого считаем сбоем, а не читаем в память целиком
	maxResponseSize = 8 << 20
)

type Config struct {
	// BaseURL адрес CMS без /api, например https://cms.example.org
	BaseURL string
	// MediaURL префикс для относительных url картинок; по умолчанию BaseURL
	MediaURL    string
	APIToken    string
	Timeout     time.Duration
	MaxListSize int
}

type Client struct {
	log      *slog.Logger
	http     *http.Client
	baseURL  string
	mediaURL string
	token    string
	maxList  int
}

func New(log *slog.Logger, cfg Config) (*Client, error) {
	const op = "cms.New"

	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("%s: base url is required", op)
	}

	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%s: base url must be absolute: %q", op, cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	maxList := cfg.MaxListSize
	if maxList <= 0 {
		maxList = DefaultMaxListSize
	}

	media := strings.TrimRight(strings.TrimSpace(cfg.MediaURL), "/")
	if media == "" {
		media = base
	}

	return &Client{
		log: log,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:  base,
		mediaURL: media,
		token:    cfg.APIToken,
		maxList:  maxList,
	}, nil
}

// MediaURL база для относительных url картинок.
func (c *Client) MediaURL() string {
	return c.mediaURL
}

// Ping проверяет доступность CMS лёгким запросом к коллекции событий.
func (c *Client) Ping(ctx context.Context) error {
	const op = "cms.Ping"

	_, err := c.do(ctx, op, http.MethodGet, CollectionEvents, CollectionEvents, NewQuery().PageSize(1).Fields("id"), nil)
	return err
}

// do выполняет запрос к /api/<path>. Тело запроса заворачивается в {"data": ...}.
// 404 превращается в ErrNotFound, 4xx в *APIError, сеть и 5xx в *TransientError.
func (c *Client) do(ctx context.Context, op, method, collection, path string, q *Query, body any) ([]byte, error) {
	endpoint := c.baseURL + "/api/" + strings.TrimLeft(path, "/")
	if q != nil {
		if enc := q.Encode(); enc != "" {
			endpoint += "?" + enc
		}
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(map[string]any{"data": body})
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.CMSRequestDuration.WithLabelValues(collection, method).Observe(time.Since(start).Seconds())
	if err != nil {
		c.observe(collection, method, "network_error")
		return nil, &TransientError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.observe(collection, method, "network_error")
		return nil, &TransientError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.observe(collection, method, "not_found")
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	case resp.StatusCode >= 500:
		c.observe(collection, method, "server_error")
		return nil, &TransientError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	case resp.StatusCode >= 400:
		c.observe(collection, method, "client_error")
		apiErr := &APIError{Op: op, StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var se strapiError
		if json.Unmarshal(raw, &se) == nil && se.Error.Message != "" {
			apiErr.Name = se.Error.Name
			apiErr.Message = se.Error.Message
		}
		return nil, apiErr
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.observe(collection, method, "server_error")
		return nil, &TransientError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	c.observe(collection, method, "ok")

	return raw, nil
}

func (c *Client) observe(collection, method, outcome string) {
	metrics.CMSRequestsTotal.WithLabelValues(collection, method, outcome).Inc()
}

// decodeFailure ошибка разбора ответа; для вызывающего это такой же сбой CMS.
func decodeFailure(op string, err error) error {
	return &TransientError{Op: op, StatusCode: http.StatusOK, Err: fmt.Errorf("decode response: %w", err)}
}

// entityRef путь к записи: Strapi v5 адресует записи по documentId, v4 по числовому id.
func entityRef(collection string, id int64, documentID string) string {
	if documentID != "" {
		return collection + "/" + url.PathEscape(documentID)
	}
	return fmt.Sprintf("%s/%d", collection, id)
}
