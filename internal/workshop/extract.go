// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package workshop

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// MinIDLength is the shortest digit run accepted as a workshop id on a scraped page.
const MinIDLength = 8

// Page is a fetched collection page shared by all extractors.
type Page struct {
	HTML string

	once sync.Once
	doc  *goquery.Document
	err  error
}

// NewPage wraps raw HTML.
func NewPage(html string) *Page { return &Page{HTML: html} }

// Document parses the page once and returns the DOM.
func (p *Page) Document() (*goquery.Document, error) {
	p.once.Do(func() {
		p.doc, p.err = goquery.NewDocumentFromReader(strings.NewReader(p.HTML))
	})
	return p.doc, p.err
}

// Extractor finds candidate workshop ids on a page.
type Extractor interface {
	Name() string
	Extract(p *Page) []string
}

// regexExtractor returns the first capture group of every match.
type regexExtractor struct {
	name string
	re   *regexp.Regexp
}

func (e regexExtractor) Name() string { return e.name }

func (e regexExtractor) Extract(p *Page) []string {
	var out []string
	for _, m := range e.re.FindAllStringSubmatch(p.HTML, -1) {
		out = append(out, m[1])
	}
	return out
}

// arrayExtractor finds id runs inside a matched array literal.
type arrayExtractor struct {
	name string
	re   *regexp.Regexp
}

var idRun = regexp.MustCompile(`\d{8,}`)

func (e arrayExtractor) Name() string { return e.name }

func (e arrayExtractor) Extract(p *Page) []string {
	var out []string
	for _, m := range e.re.FindAllStringSubmatch(p.HTML, -1) {
		out = append(out, idRun.FindAllString(m[1], -1)...)
	}
	return out
}

// domExtractor reads data attributes and file links from the parsed page.
type domExtractor struct{}

func (domExtractor) Name() string { return "dom" }

func (domExtractor) Extract(p *Page) []string {
	doc, err := p.Document()
	if err != nil {
		return nil
	}
	var out []string
	doc.Find("[data-publishedfileid]").Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("data-publishedfileid"); ok {
			out = append(out, strings.TrimSpace(v))
		}
	})
	doc.Find(`a[href*="filedetails/?id="]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		u, err := url.Parse(href)
		if err != nil {
			return
		}
		if id := u.Query().Get("id"); id != "" {
			out = append(out, id)
		}
	})
	return out
}

// scriptExtractor picks nine and ten digit numbers out of inline scripts.
type scriptExtractor struct{}

var scriptID = regexp.MustCompile(`\b\d{9,10}\b`)

func (scriptExtractor) Name() string { return "script" }

func (scriptExtractor) Extract(p *Page) []string {
	doc, err := p.Document()
	if err != nil {
		return nil
	}
	var out []string
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		out = append(out, scriptID.FindAllString(s.Text(), -1)...)
	})
	return out
}

// DefaultExtractors returns the collection page extractors in priority order.
func DefaultExtractors() []Extractor {
	return []Extractor{
		regexExtractor{"json_field", regexp.MustCompile(`"publishedfileid"\s*:\s*"(\d+)"`)},
		arrayExtractor{"js_array", regexp.MustCompile(`(?:g_)?rgPublishedFileIds\s*=\s*\[([^\]]*)\]`)},
		arrayExtractor{"js_property", regexp.MustCompile(`(?i)"?publishedfileids"?\s*:\s*\[([^\]]*)\]`)},
		domExtractor{},
		arrayExtractor{"numeric_array", regexp.MustCompile(`\[\s*(\d{8,}(?:\s*,\s*\d{8,}){5,})\s*\]`)},
		scriptExtractor{},
	}
}

// CollectionScraper finds the item ids of a collection without the Web API.
type CollectionScraper interface {
	Scrape(ctx context.Context, collectionID string) ([]string, error)
}

// PageScraper fetches the collection page and unions the ids of every extractor.
type PageScraper struct {
	fetch      func(ctx context.Context, id string) (string, error)
	extractors []Extractor
}

// NewPageScraper creates a scraper over fetch.
func NewPageScraper(fetch func(ctx context.Context, id string) (string, error), extractors ...Extractor) *PageScraper {
	return &PageScraper{fetch: fetch, extractors: extractors}
}

func (s *PageScraper) Scrape(ctx context.Context, collectionID string) ([]string, error) {
	html, err := s.fetch(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	return ExtractIDs(NewPage(html), collectionID, s.extractors...), nil
}

// ExtractIDs runs the extractors in order and returns their union in discovery
// order, without duplicates, short ids, or the collection id itself.
func ExtractIDs(p *Page, collectionID string, extractors ...Extractor) []string {
	var out []string
	seen := map[string]bool{collectionID: true}
	for _, e := range extractors {
		for _, id := range e.Extract(p) {
			if len(id) < MinIDLength || !digits.MatchString(id) || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
