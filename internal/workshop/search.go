// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package workshop

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pzpanel/pzpanel/internal/cache"
	"github.com/pzpanel/pzpanel/internal/metrics"
)

const queryFilesEndpoint = "IPublishedFileService/QueryFiles/v1/"

// Sort selects the catalog ranking.
type Sort string

const (
	SortSubscriptions Sort = "subscriptions"
	SortTrending      Sort = "trending"
	SortRecent        Sort = "recent"
)

// DefaultSearchLimit and MaxSearchLimit bound numperpage.
const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 100
)

// ParseSort maps user input onto a Sort; unknown values select SortSubscriptions.
func ParseSort(s string) Sort {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trending", "popular":
		return SortTrending
	case "recent", "vote", "votes":
		return SortRecent
	default:
		return SortSubscriptions
	}
}

// queryType is Steam's EPublishedFileQueryType for a Sort.
func (s Sort) queryType() int {
	switch s {
	case SortTrending:
		return 3
	case SortRecent:
		return 0
	default:
		return 12
	}
}

// SearchQuery describes a catalog search.
type SearchQuery struct {
	Text  string
	Sort  Sort
	Limit int
}

// Search queries the workshop catalog for the configured app.
func (c *Client) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	key, err := c.key()
	if err != nil {
		return nil, err
	}
	if q.Sort == "" {
		q.Sort = SortSubscriptions
	}
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultSearchLimit
	case q.Limit > MaxSearchLimit:
		q.Limit = MaxSearchLimit
	}
	q.Text = strings.TrimSpace(q.Text)

	ck := fmt.Sprintf("workshop:search:%s:%d:%s", q.Sort, q.Limit, strings.ToLower(q.Text))
	if r, ok := cache.GetJSON[SearchResult](ctx, c.cache, ck); ok {
		metrics.RecordWorkshopCache(true)
		return &r, nil
	}
	metrics.RecordWorkshopCache(false)

	params := url.Values{}
	params.Set("key", key)
	params.Set("query_type", strconv.Itoa(q.Sort.queryType()))
	params.Set("page", "1")
	params.Set("numperpage", strconv.Itoa(q.Limit))
	params.Set("appid", strconv.Itoa(c.appID))
	params.Set("search_text", q.Text)
	params.Set("return_details", "true")
	params.Set("return_vote_data", "true")
	params.Set("return_short_description", "true")
	params.Set("return_tags", "true")
	params.Set("return_previews", "true")
	params.Set("return_metadata", "true")

	v, err, _ := c.group.Do(ck, func() (any, error) {
		body, err := c.do(ctx, "search", c.get(c.apiBase+"/"+queryFilesEndpoint+"?"+params.Encode(), nil))
		if err != nil {
			return nil, err
		}
		var resp queryFilesResponse
		if err := decodeJSON("search", body, &resp); err != nil {
			return nil, err
		}
		out := &SearchResult{
			Query:   q.Text,
			Sort:    q.Sort,
			Total:   int64(resp.Response.Total),
			Results: make([]SearchItem, 0, len(resp.Response.Details)),
		}
		for _, d := range resp.Response.Details {
			if d.Result != 1 {
				continue
			}
			out.Results = append(out.Results, searchItem(d))
		}
		if q.Sort == SortSubscriptions {
			sort.SliceStable(out.Results, func(i, j int) bool {
				return out.Results[i].Subscriptions > out.Results[j].Subscriptions
			})
		}
		_ = cache.SetJSON(ctx, c.cache, ck, out, c.cacheTTL)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*SearchResult), nil
}

func searchItem(d publishedFile) SearchItem {
	si := SearchItem{Item: d.item()}
	if d.VoteData != nil {
		si.Votes = Votes{Up: int64(d.VoteData.VotesUp), Down: int64(d.VoteData.VotesDown), Score: d.VoteData.Score}
	}
	si.PopularityScore = PopularityScore(si.Subscriptions, si.Favorited, si.Votes.Up, si.Votes.Down)
	return si
}

// PopularityScore ranks an item by subscriptions, vote ratio and favourites,
// rounded to two decimals. Items without votes get a neutral ratio of 0.5.
func PopularityScore(subscriptions, favorited, up, down int64) float64 {
	ratio := 0.5
	if total := up + down; total > 0 {
		ratio = float64(up) / float64(total)
	}
	score := math.Log10(float64(subscriptions)+1) * ratio * (1 + float64(favorited)/1000)
	return math.Round(score*100) / 100
}
