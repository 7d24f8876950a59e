// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package workshop

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Item is a single workshop entry as returned to the dashboard.
type Item struct {
	ID            string   `json:"id"`
	ModID         string   `json:"modId,omitempty"`
	ModIDs        []string `json:"modIds,omitempty"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	PreviewURL    string   `json:"preview_url,omitempty"`
	FileSize      int64    `json:"file_size"`
	TimeCreated   int64    `json:"time_created"`
	TimeUpdated   int64    `json:"time_updated"`
	Subscriptions int64    `json:"subscriptions"`
	Favorited     int64    `json:"favorited"`
	Views         int64    `json:"views"`
	Creator       string   `json:"creator,omitempty"`
	Tags          []string `json:"tags"`
}

// DetailsResult is the outcome of a Details lookup.
type DetailsResult struct {
	// Items holds the found entries in request order.
	Items []Item `json:"items"`
	// Missing lists ids Steam did not resolve.
	Missing []string `json:"missing,omitempty"`
	// Dropped lists ids rejected before the request because they are not numeric.
	Dropped []string `json:"dropped,omitempty"`
	// FailedBatches counts batches skipped in tolerant mode.
	FailedBatches int `json:"failedBatches,omitempty"`
}

// ByID indexes the found items by workshop id.
func (r *DetailsResult) ByID() map[string]Item {
	out := make(map[string]Item, len(r.Items))
	for _, it := range r.Items {
		out[it.ID] = it
	}
	return out
}

// Votes is Steam's vote summary for a search hit.
type Votes struct {
	Up    int64   `json:"up"`
	Down  int64   `json:"down"`
	Score float64 `json:"score"`
}

// SearchItem is an Item with the ranking data only search returns.
type SearchItem struct {
	Item
	Votes           Votes   `json:"votes"`
	PopularityScore float64 `json:"popularity_score"`
}

// SearchResult is one page of catalog search hits.
type SearchResult struct {
	Query   string       `json:"query"`
	Sort    Sort         `json:"sort"`
	Total   int64        `json:"total"`
	Results []SearchItem `json:"results"`
}

// Collection source labels.
const (
	SourceAPI    = "api"
	SourceScrape = "scrape"
)

// CollectionResult lists the items of a workshop collection.
type CollectionResult struct {
	CollectionID string   `json:"collectionId"`
	Source       string   `json:"source"`
	IDs          []string `json:"ids"`
	Items        []Item   `json:"items"`
	Total        int      `json:"total"`
}

// flexInt decodes Steam numbers that arrive either as JSON numbers or as strings.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		fl, ferr := strconv.ParseFloat(string(b), 64)
		if ferr != nil {
			return err
		}
		n = int64(fl)
	}
	*f = flexInt(n)
	return nil
}

type steamTag struct {
	Tag string `json:"tag"`
}

type steamVoteData struct {
	Score     float64 `json:"score"`
	VotesUp   flexInt `json:"votes_up"`
	VotesDown flexInt `json:"votes_down"`
}

// publishedFile covers both GetPublishedFileDetails and QueryFiles entries.
type publishedFile struct {
	PublishedFileID       string         `json:"publishedfileid"`
	Result                int            `json:"result"`
	Creator               string         `json:"creator"`
	Title                 string         `json:"title"`
	Description           string         `json:"description"`
	FileDescription       string         `json:"file_description"`
	ShortDescription      string         `json:"short_description"`
	PreviewURL            string         `json:"preview_url"`
	FileSize              flexInt        `json:"file_size"`
	TimeCreated           flexInt        `json:"time_created"`
	TimeUpdated           flexInt        `json:"time_updated"`
	Subscriptions         flexInt        `json:"subscriptions"`
	LifetimeSubscriptions flexInt        `json:"lifetime_subscriptions"`
	Favorited             flexInt        `json:"favorited"`
	Views                 flexInt        `json:"views"`
	Tags                  []steamTag     `json:"tags"`
	VoteData              *steamVoteData `json:"vote_data"`
}

func (p publishedFile) description() string {
	switch {
	case p.Description != "":
		return p.Description
	case p.FileDescription != "":
		return p.FileDescription
	default:
		return p.ShortDescription
	}
}

func (p publishedFile) subscriptions() int64 {
	if p.Subscriptions > 0 {
		return int64(p.Subscriptions)
	}
	return int64(p.LifetimeSubscriptions)
}

func (p publishedFile) item() Item {
	desc := p.description()
	title := p.Title
	if title == "" {
		title = p.PublishedFileID
	}
	it := Item{
		ID:            p.PublishedFileID,
		ModIDs:        ModIDs(desc),
		Title:         title,
		Description:   desc,
		PreviewURL:    p.PreviewURL,
		FileSize:      int64(p.FileSize),
		TimeCreated:   int64(p.TimeCreated),
		TimeUpdated:   int64(p.TimeUpdated),
		Subscriptions: p.subscriptions(),
		Favorited:     int64(p.Favorited),
		Views:         int64(p.Views),
		Creator:       p.Creator,
		Tags:          make([]string, 0, len(p.Tags)),
	}
	if len(it.ModIDs) > 0 {
		it.ModID = it.ModIDs[0]
	}
	for _, t := range p.Tags {
		if t.Tag != "" {
			it.Tags = append(it.Tags, t.Tag)
		}
	}
	return it
}

type detailsResponse struct {
	Response struct {
		Result  int             `json:"result"`
		Details []publishedFile `json:"publishedfiledetails"`
	} `json:"response"`
}

type queryFilesResponse struct {
	Response struct {
		Total   flexInt         `json:"total"`
		Details []publishedFile `json:"publishedfiledetails"`
	} `json:"response"`
}

type collectionResponse struct {
	Response struct {
		Result  int `json:"result"`
		Details []struct {
			PublishedFileID string `json:"publishedfileid"`
			Result          int    `json:"result"`
			Children        []struct {
				PublishedFileID string `json:"publishedfileid"`
				SortOrder       int    `json:"sortorder"`
				FileType        int    `json:"filetype"`
			} `json:"children"`
		} `json:"collectiondetails"`
	} `json:"response"`
}

func decodeJSON(op string, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &APIError{Op: op, Err: fmt.Errorf("%w: %w", errDecode, err)}
	}
	return nil
}
