// Package bible wraps the public scripture APIs used by the model's tool
// calls: fetch-by-reference and random verse (bible-api.com) and keyword
// search (bolls.life). Each call has a hard timeout, normalizes the
// user-facing translation code to the external API's code, and strips markup
// from search results.
package bible

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Translations supported by the verse API. User-facing codes without an
// upstream equivalent fall back to the World English Bible.
var translationMap = map[string]string{
	"NIV": "web", // not available upstream, fallback to WEB
	"ESV": "web", // not available upstream, fallback to WEB
	"KJV": "kjv",
	"NLT": "web", // not available upstream, fallback to WEB
	"MSG": "web", // not available upstream, fallback to WEB
}

// NormalizeTranslation maps a user-facing translation code to the external
// API's code. Unknown codes are passed through lowercased; an empty code
// selects the KJV default.
func NormalizeTranslation(translation string) string {
	if translation == "" {
		return "kjv"
	}
	if code, ok := translationMap[strings.ToUpper(translation)]; ok {
		return code
	}
	return strings.ToLower(translation)
}

// Verse is a normalized verse or passage payload.
type Verse struct {
	Reference   string `json:"reference"`
	Text        string `json:"text"`
	Translation string `json:"translation"`
}

// SearchHit is one keyword-search result with markup stripped.
type SearchHit struct {
	Reference string `json:"reference"`
	Text      string `json:"text"`
}

// SearchResult is the payload of a keyword search.
type SearchResult struct {
	Query       string      `json:"query"`
	Results     []SearchHit `json:"results"`
	Translation string      `json:"translation"`
}

// verseResponse mirrors the bible-api.com response shape.
type verseResponse struct {
	Reference       string `json:"reference"`
	Text            string `json:"text"`
	TranslationID   string `json:"translation_id"`
	TranslationName string `json:"translation_name"`
}

// searchResponse mirrors the bolls.life /v2/find response shape.
type searchResponse struct {
	Results []struct {
		Book    int    `json:"book"`
		Chapter int    `json:"chapter"`
		Verse   int    `json:"verse"`
		Text    string `json:"text"`
	} `json:"results"`
	ExactMatches int `json:"exact_matches"`
	Total        int `json:"total"`
}

// Client performs scripture lookups against the external APIs. The zero
// value is not usable; construct with NewClient.
type Client struct {
	verse       *resty.Client
	search      *resty.Client
	translation string // normalized default for this client
}

// NewClient builds a Client bound to a user-facing translation preference.
// The timeout is a hard abort applied to every call.
func NewClient(verseBaseURL, searchBaseURL string, timeout time.Duration, userTranslation string) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		verse:       resty.New().SetBaseURL(strings.TrimRight(verseBaseURL, "/")).SetTimeout(timeout),
		search:      resty.New().SetBaseURL(strings.TrimRight(searchBaseURL, "/")).SetTimeout(timeout),
		translation: NormalizeTranslation(userTranslation),
	}
}

// Translation returns the normalized default translation of this client.
func (c *Client) Translation() string { return c.translation }

// WithTranslation returns a copy of the client bound to the given user-facing
// translation code, sharing the underlying HTTP clients. An empty code
// returns the receiver unchanged.
func (c *Client) WithTranslation(translation string) *Client {
	if translation == "" {
		return c
	}
	cp := *c
	cp.translation = NormalizeTranslation(translation)
	return &cp
}

// VerseByReference fetches a verse or passage like "John 3:16" or
// "Romans 8:28-39".
func (c *Client) VerseByReference(ctx context.Context, reference string) (*Verse, error) {
	var body verseResponse
	resp, err := c.verse.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/" + url.PathEscape(reference) + "?translation=" + url.QueryEscape(c.translation))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("could not find verse: %s", reference)
	}
	name := body.TranslationName
	if name == "" {
		name = strings.ToUpper(c.translation)
	}
	return &Verse{Reference: body.Reference, Text: body.Text, Translation: name}, nil
}

// Search finds up to five verses containing the given words or phrases.
// Result text has HTML tags and footnote markers stripped.
func (c *Client) Search(ctx context.Context, query string) (*SearchResult, error) {
	// The search API uses uppercase translation codes.
	translation := strings.ToUpper(c.translation)

	var body searchResponse
	resp, err := c.search.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/v2/find/" + url.PathEscape(translation) + "?search=" + url.QueryEscape(query) + "&limit=5")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("search failed for: %s", query)
	}

	out := &SearchResult{
		Query:       query,
		Results:     make([]SearchHit, 0, len(body.Results)),
		Translation: translation,
	}
	for _, v := range body.Results {
		out.Results = append(out.Results, SearchHit{
			Reference: fmt.Sprintf("%d:%d:%d", v.Book, v.Chapter, v.Verse),
			Text:      SanitizeVerseText(v.Text),
		})
	}
	return out, nil
}

// RandomVerse fetches a random verse in the client's translation.
func (c *Client) RandomVerse(ctx context.Context) (*Verse, error) {
	var body verseResponse
	resp, err := c.verse.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/data/" + url.PathEscape(c.translation) + "/random")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("could not get random verse")
	}
	name := body.TranslationName
	if name == "" {
		name = strings.ToUpper(c.translation)
	}
	return &Verse{Reference: body.Reference, Text: body.Text, Translation: name}, nil
}
