// internal/common/twitter/client.go
package twitter

import (
	"context"
	"strconv"
	"strings"
	"time"

	apperrors "agentkit-workers/internal/common/errors"
	httpclient "agentkit-workers/internal/common/http"
	"agentkit-workers/internal/models"
)

const (
	recentSearchPath = "/2/tweets/search/recent"

	// The recent-search endpoint rejects max_results outside this window.
	minPageSize = 10
	maxPageSize = 100
)

type Config struct {
	BaseURL     string
	BearerToken string
	Timeout     time.Duration
}

// Client calls the recent-search API. It performs exactly one request per Search.
type Client struct {
	config *Config
	http   *httpclient.Client
}

func NewClient(config *Config) *Client {
	return &Client{
		config: config,
		http:   httpclient.NewClientWithBaseURL(config.BaseURL, config.Timeout),
	}
}

type searchResponse struct {
	Data []struct {
		ID            string `json:"id"`
		Text          string `json:"text"`
		AuthorID      string `json:"author_id"`
		CreatedAt     string `json:"created_at"`
		Source        string `json:"source"`
		PublicMetrics *struct {
			LikeCount int `json:"like_count"`
		} `json:"public_metrics"`
	} `json:"data"`
	Meta struct {
		ResultCount int `json:"result_count"`
	} `json:"meta"`
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// Search returns the records matching q in the order the API returned them, never more
// than q.MaxResults. An empty result is an empty, non-nil slice.
func (c *Client) Search(ctx context.Context, q models.SearchQuery) ([]models.RecordItem, error) {
	if err := q.Validate(); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	var body searchResponse
	resp, err := c.http.R(ctx).
		SetAuthToken(c.config.BearerToken).
		SetQueryParams(map[string]string{
			"query":        q.Query,
			"max_results":  strconv.Itoa(PageSize(q.MaxResults)),
			"tweet.fields": strings.Join(RequestFields(q.Fields), ","),
		}).
		SetResult(&body).
		Get(recentSearchPath)
	if err := httpclient.CheckResponse(resp, err); err != nil {
		if httpclient.IsTimeout(err) {
			return nil, apperrors.NewSearchTimeoutError(err)
		}
		return nil, apperrors.NewSearchRequestFailedError(err)
	}

	if len(body.Data) == 0 && len(body.Errors) > 0 {
		return nil, apperrors.NewSearchRequestFailedError(
			&searchError{title: body.Errors[0].Title, detail: body.Errors[0].Detail})
	}

	items := make([]models.RecordItem, 0, len(body.Data))
	for _, d := range body.Data {
		item := models.RecordItem{
			ID:       d.ID,
			AuthorID: d.AuthorID,
			Text:     d.Text,
			Source:   d.Source,
		}
		if d.CreatedAt != "" {
			if ts, err := time.Parse(time.RFC3339, d.CreatedAt); err == nil {
				item.CreatedAt = &ts
			}
		}
		if d.PublicMetrics != nil {
			likes := d.PublicMetrics.LikeCount
			item.LikeCount = &likes
		}
		items = append(items, item)
		if len(items) == q.MaxResults {
			break
		}
	}
	return items, nil
}

// PageSize clamps the requested bound into the window the endpoint accepts.
func PageSize(maxResults int) int {
	if maxResults < minPageSize {
		return minPageSize
	}
	if maxResults > maxPageSize {
		return maxPageSize
	}
	return maxResults
}

// RequestFields returns fields with author_id added when absent.
func RequestFields(fields []string) []string {
	if len(fields) == 0 {
		fields = models.DefaultRecordFields
	}
	out := make([]string, 0, len(fields)+1)
	hasAuthor := false
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if f == "author_id" {
			hasAuthor = true
		}
		out = append(out, f)
	}
	if !hasAuthor {
		out = append(out, "author_id")
	}
	return out
}

type searchError struct {
	title  string
	detail string
}

func (e *searchError) Error() string {
	if e.detail == "" {
		return e.title
	}
	return e.title + ": " + e.detail
}
