package notion

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

	"promptlens/internal/domain"
	"promptlens/internal/infra"
)

const (
	defaultBaseURL  = "https://api.notion.com/v1"
	defaultVersion  = "2022-06-28"
	defaultPageSize = 100
	defaultTimeout  = 15 * time.Second
	tokenProvider   = "notion"
)

// TokenSource resolves the integration token when none is configured
// explicitly. credentials.Store satisfies it.
type TokenSource interface {
	Resolve(ctx context.Context, provider, explicit string) (string, error)
}

type Options struct {
	BaseURL    string
	DatabaseID string
	Token      string
	Version    string
	PageSize   int
	MaxPages   int
	HTTPClient *http.Client
	Tokens     TokenSource
	Logger     *infra.Logger
}

// Client queries a Notion database and maps its pages to gallery items.
type Client struct {
	baseURL    string
	databaseID string
	token      string
	version    string
	pageSize   int
	maxPages   int
	http       *http.Client
	tokens     TokenSource
	logger     infra.Logger
}

type querySort struct {
	Timestamp string `json:"timestamp"`
	Direction string `json:"direction"`
}

type queryRequest struct {
	PageSize    int         `json:"page_size"`
	Sorts       []querySort `json:"sorts"`
	StartCursor string      `json:"start_cursor,omitempty"`
}

type queryResponse struct {
	Results    []page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

func NewClient(opts Options) (*Client, error) {
	databaseID := strings.TrimSpace(opts.DatabaseID)
	if databaseID == "" {
		return nil, errors.New("notion database id is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = defaultVersion
	}
	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > defaultPageSize {
		pageSize = defaultPageSize
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	logger := infra.DiscardLogger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		baseURL:    baseURL,
		databaseID: databaseID,
		token:      strings.TrimSpace(opts.Token),
		version:    version,
		pageSize:   pageSize,
		maxPages:   maxPages,
		http:       client,
		tokens:     opts.Tokens,
		logger:     logger,
	}, nil
}

// FetchItems returns the database pages newest first, mapped to gallery
// items. Pages without a title or prompt are skipped.
func (c *Client) FetchItems(ctx context.Context) ([]domain.GalleryItem, error) {
	token, err := c.resolveToken(ctx)
	if err != nil {
		return nil, err
	}

	var items []domain.GalleryItem
	cursor := ""
	for pageNo := 0; pageNo < c.maxPages; pageNo++ {
		resp, err := c.query(ctx, token, cursor)
		if err != nil {
			return nil, err
		}
		for _, p := range resp.Results {
			item := mapPage(p)
			if item.Title == domain.UntitledItem || item.Prompt == "" {
				continue
			}
			items = append(items, item)
		}
		if !resp.HasMore || resp.NextCursor == nil || *resp.NextCursor == "" {
			break
		}
		cursor = *resp.NextCursor
	}

	c.logger.Debug().
		Str("database", c.databaseID).
		Int("items", len(items)).
		Msg("notion: fetched gallery items")

	return items, nil
}

func (c *Client) resolveToken(ctx context.Context) (string, error) {
	if c.token != "" {
		return c.token, nil
	}
	if c.tokens == nil {
		return "", fmt.Errorf("notion token: %w", domain.ErrMissingCredential)
	}
	return c.tokens.Resolve(ctx, tokenProvider, "")
}

func (c *Client) query(ctx context.Context, token, cursor string) (*queryResponse, error) {
	body, err := json.Marshal(queryRequest{
		PageSize:    c.pageSize,
		Sorts:       []querySort{{Timestamp: "created_time", Direction: "descending"}},
		StartCursor: cursor,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	endpoint := fmt.Sprintf("%s/databases/%s/query", c.baseURL, url.PathEscape(c.databaseID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: query notion: %v", domain.ErrUpstream, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: notion status %d - %s", domain.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode notion response: %v", domain.ErrUpstream, err)
	}
	if out.Results == nil {
		return nil, fmt.Errorf("%w: invalid notion response: no results array", domain.ErrUpstream)
	}
	return &out, nil
}
