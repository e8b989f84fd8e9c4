// Package pubmed is a thin client for the NCBI E-utilities API, used to
// retrieve abstracts that ground the medical reply pipeline.
package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const defaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

const maxAbstractLength = 600

// Article is one retrieved publication.
type Article struct {
	PMID     string `json:"pmid"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a PubMed client. The API key is optional; without
// one NCBI applies stricter rate limits.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 12 * time.Second,
		},
	}
}

// Search runs esearch then efetch and returns up to limit articles ranked
// by relevance.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 3
	}

	ids, err := c.search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return c.fetch(ctx, ids)
}

func (c *Client) search(ctx context.Context, query string, limit int) ([]string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"retmode": {"json"},
		"retmax":  {fmt.Sprint(limit)},
		"sort":    {"relevance"},
		"term":    {query},
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	body, err := c.get(ctx, c.baseURL+"/esearch.fcgi?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("pubmed search: %w", err)
	}

	var result struct {
		ESearchResult struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("pubmed search decode: %w", err)
	}
	return result.ESearchResult.IDList, nil
}

func (c *Client) fetch(ctx context.Context, ids []string) ([]Article, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"retmode": {"xml"},
		"id":      {strings.Join(ids, ",")},
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	body, err := c.get(ctx, c.baseURL+"/efetch.fcgi?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("pubmed fetch: %w", err)
	}
	return parseArticles(body)
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// truncate cuts s to at most max bytes without splitting a multibyte
// rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// parseArticles extracts pmid, title and a truncated abstract from the
// efetch XML.
func parseArticles(data []byte) ([]Article, error) {
	var set struct {
		Articles []struct {
			Citation struct {
				PMID    string `xml:"PMID"`
				Article struct {
					Title    string `xml:"ArticleTitle"`
					Abstract struct {
						Text []string `xml:"AbstractText"`
					} `xml:"Abstract"`
				} `xml:"Article"`
			} `xml:"MedlineCitation"`
		} `xml:"PubmedArticle"`
	}
	if err := xml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("pubmed fetch decode: %w", err)
	}

	out := make([]Article, 0, len(set.Articles))
	for _, a := range set.Articles {
		abstract := truncate(strings.TrimSpace(strings.Join(a.Citation.Article.Abstract.Text, " ")), maxAbstractLength)
		out = append(out, Article{
			PMID:     a.Citation.PMID,
			Title:    strings.TrimSpace(a.Citation.Article.Title),
			Abstract: abstract,
		})
	}
	return out, nil
}
