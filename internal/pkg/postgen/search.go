package postgen

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxSearchSnippets = 5

// Searcher looks up current information for the model's search tool.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// DuckDuckGo queries the DuckDuckGo instant-answer API.
type DuckDuckGo struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewDuckDuckGo(baseURL string, timeout time.Duration) *DuckDuckGo {
	return &DuckDuckGo{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Topics   []ddgTopic `json:"Topics"`
}

type ddgResponse struct {
	Heading       string     `json:"Heading"`
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	Answer        string     `json:"Answer"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

func (d *DuckDuckGo) Search(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("search query is empty")
	}

	u, err := url.Parse(d.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid search url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")
	q.Set("skip_disambig", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("search request failed: status=%d", resp.StatusCode)
	}

	var out ddgResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to decode search response: %w", err)
	}

	return formatResults(query, out), nil
}

func formatResults(query string, out ddgResponse) string {
	var snippets []string
	if out.Answer != "" {
		snippets = append(snippets, out.Answer)
	}
	if out.AbstractText != "" {
		snippets = append(snippets, fmt.Sprintf("%s: %s (%s)", out.Heading, out.AbstractText, out.AbstractURL))
	}

	var walk func(topics []ddgTopic)
	walk = func(topics []ddgTopic) {
		for _, t := range topics {
			if len(snippets) >= maxSearchSnippets {
				return
			}
			if t.Text != "" {
				snippets = append(snippets, fmt.Sprintf("%s (%s)", t.Text, t.FirstURL))
			}
			walk(t.Topics)
		}
	}
	walk(out.RelatedTopics)

	if len(snippets) == 0 {
		return fmt.Sprintf("No results found for %q.", query)
	}
	return "- " + strings.Join(snippets, "\n- ")
}
