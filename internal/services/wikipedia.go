package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/listenr/internal/shared"
)

const wikipediaArticleBase = "https://en.wikipedia.org/wiki/"

type wikiSearchResponse struct {
	Query struct {
		Search []struct {
			PageID  int    `json:"pageid"`
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

type wikiExtractResponse struct {
	Query struct {
		Pages map[string]struct {
			PageID  int    `json:"pageid"`
			Title   string `json:"title"`
			Extract string `json:"extract"`
		} `json:"pages"`
	} `json:"query"`
}

// Wikipedia is the MediaWiki API client for album articles.
type Wikipedia struct {
	client *sourceClient
}

func NewWikipedia(opts ClientOptions) *Wikipedia {
	return &Wikipedia{client: newSourceClient(SourceWikipedia, opts)}
}

func (w *Wikipedia) Name() string { return SourceWikipedia }

// Intro finds the article for an album and returns its plain-text intro and article URL.
//
// Search results whose snippet mentions "album" are preferred over the top hit.
func (w *Wikipedia) Intro(ctx context.Context, title, artist string) (string, string, error) {
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {strings.TrimSpace(title + " " + artist + " album")},
		"srlimit":  {"5"},
		"format":   {"json"},
	}

	var search wikiSearchResponse
	if err := w.client.getJSON(ctx, "", params, &search); err != nil {
		return "", "", err
	}
	results := search.Query.Search
	if len(results) == 0 {
		return "", "", fmt.Errorf("%w: no article for %s - %s", shared.ErrNotFound, artist, title)
	}

	pageID := results[0].PageID
	for _, r := range results {
		if strings.Contains(strings.ToLower(r.Snippet), "album") {
			pageID = r.PageID
			break
		}
	}
	if pageID == 0 {
		return "", "", fmt.Errorf("%w: search result without page id", shared.ErrNotFound)
	}

	params = url.Values{
		"action":          {"query"},
		"prop":            {"extracts"},
		"exintro":         {"1"},
		"explaintext":     {"1"},
		"exsectionformat": {"plain"},
		"pageids":         {strconv.Itoa(pageID)},
		"format":          {"json"},
	}

	var extract wikiExtractResponse
	if err := w.client.getJSON(ctx, "", params, &extract); err != nil {
		return "", "", err
	}

	page, ok := extract.Query.Pages[strconv.Itoa(pageID)]
	text := strings.TrimSpace(page.Extract)
	if !ok || text == "" {
		return "", "", fmt.Errorf("%w: empty extract for page %d", shared.ErrNotFound, pageID)
	}
	return text, ArticleURL(page.Title), nil
}

// ArticleURL builds the English Wikipedia URL for a page title, or "" for an empty title.
func ArticleURL(pageTitle string) string {
	if pageTitle == "" {
		return ""
	}
	escaped := url.PathEscape(strings.ReplaceAll(pageTitle, " ", "_"))
	return wikipediaArticleBase + strings.ReplaceAll(escaped, "%2F", "/")
}
