// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package workshop

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pzpanel/pzpanel/internal/cache"
	xglog "github.com/pzpanel/pzpanel/internal/log"
	"github.com/pzpanel/pzpanel/internal/metrics"
)

// BatchSize is the maximum number of ids sent in one details request.
const BatchSize = 100

const detailsEndpoint = "ISteamRemoteStorage/GetPublishedFileDetails/v1/"

// Details resolves workshop ids to items. Non-numeric ids are dropped and ids
// Steam does not know are reported as missing. Any failed batch fails the call.
func (c *Client) Details(ctx context.Context, ids []string) (*DetailsResult, error) {
	return c.details(ctx, ids, false)
}

func (c *Client) details(ctx context.Context, ids []string, tolerant bool) (*DetailsResult, error) {
	res := &DetailsResult{Items: []Item{}}
	wanted := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if !digits.MatchString(id) {
			if id != "" {
				res.Dropped = append(res.Dropped, id)
			}
			continue
		}
		if !seen[id] {
			seen[id] = true
			wanted = append(wanted, id)
		}
	}
	if len(wanted) == 0 {
		return res, nil
	}

	key, err := c.key()
	if err != nil {
		return nil, err
	}

	found := make(map[string]Item, len(wanted))
	var misses []string
	for _, id := range wanted {
		if it, ok := cache.GetJSON[Item](ctx, c.cache, detailsCacheKey(id)); ok {
			metrics.RecordWorkshopCache(true)
			found[id] = it
			continue
		}
		metrics.RecordWorkshopCache(false)
		misses = append(misses, id)
	}

	var (
		mu     sync.Mutex
		failed int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for start := 0; start < len(misses); start += BatchSize {
		batch := misses[start:min(start+BatchSize, len(misses))]
		g.Go(func() error {
			items, err := c.fetchBatch(gctx, key, batch)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if !tolerant {
					return err
				}
				failed++
				c.logger.Warn().Err(err).
					Str(xglog.FieldEvent, "workshop.details.batch_failed").
					Int("size", len(batch)).
					Msg("skipping failed details batch")
				return nil
			}
			for _, it := range items {
				found[it.ID] = it
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, id := range wanted {
		if it, ok := found[id]; ok {
			res.Items = append(res.Items, it)
		} else {
			res.Missing = append(res.Missing, id)
		}
	}
	res.FailedBatches = failed
	return res, nil
}

// fetchBatch requests one batch, collapsing identical in-flight batches.
func (c *Client) fetchBatch(ctx context.Context, key string, batch []string) ([]Item, error) {
	v, err, _ := c.group.Do("details:"+strings.Join(batch, ","), func() (any, error) {
		form := url.Values{}
		form.Set("key", key)
		form.Set("itemcount", strconv.Itoa(len(batch)))
		for i, id := range batch {
			form.Set(fmt.Sprintf("publishedfileids[%d]", i), id)
		}
		body, err := c.do(ctx, "details", c.postForm(detailsEndpoint, form))
		if err != nil {
			return nil, err
		}
		var resp detailsResponse
		if err := decodeJSON("details", body, &resp); err != nil {
			return nil, err
		}
		items := make([]Item, 0, len(resp.Response.Details))
		for _, d := range resp.Response.Details {
			if d.Result != 1 || d.PublishedFileID == "" {
				continue
			}
			it := d.item()
			_ = cache.SetJSON(ctx, c.cache, detailsCacheKey(it.ID), it, c.cacheTTL)
			items = append(items, it)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Item), nil
}

func detailsCacheKey(id string) string { return "workshop:details:" + id }
