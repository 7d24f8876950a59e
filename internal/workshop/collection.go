// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package workshop

import (
	"context"
	"errors"
	"net/url"

	"github.com/pzpanel/pzpanel/internal/cache"
	xglog "github.com/pzpanel/pzpanel/internal/log"
	"github.com/pzpanel/pzpanel/internal/metrics"
)

const collectionEndpoint = "ISteamRemoteStorage/GetCollectionDetails/v1/"

type cachedCollection struct {
	Source string   `json:"source"`
	IDs    []string `json:"ids"`
}

// Collection resolves a collection link to its items. The Web API is tried
// first; when it yields nothing the community page is scraped.
func (c *Client) Collection(ctx context.Context, link string) (*CollectionResult, error) {
	id, err := ParseLink(link)
	if err != nil {
		return nil, err
	}

	source, ids, err := c.collectionIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.RecordCollectionSource(source)
	if len(ids) == 0 {
		return nil, ErrEmptyCollection
	}

	res := &CollectionResult{CollectionID: id, Source: source, IDs: ids}
	if !c.HasAPIKey() {
		// Without a key only the ids are known.
		res.Items = make([]Item, 0, len(ids))
		for _, wid := range ids {
			res.Items = append(res.Items, Item{ID: wid, Title: wid, Tags: []string{}})
		}
		res.Total = len(res.Items)
		return res, nil
	}

	details, err := c.details(ctx, ids, true)
	if err != nil {
		return nil, err
	}
	res.Items = details.Items
	res.Total = len(details.Items)
	return res, nil
}

func (c *Client) collectionIDs(ctx context.Context, id string) (string, []string, error) {
	ck := "workshop:collection:" + id
	if cc, ok := cache.GetJSON[cachedCollection](ctx, c.cache, ck); ok {
		metrics.RecordWorkshopCache(true)
		return cc.Source, cc.IDs, nil
	}
	metrics.RecordWorkshopCache(false)

	ids, err := c.collectionFromAPI(ctx, id)
	if err == nil && len(ids) > 0 {
		_ = cache.SetJSON(ctx, c.cache, ck, cachedCollection{SourceAPI, ids}, c.cacheTTL)
		return SourceAPI, ids, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", nil, ctxErr
	}
	c.logger.Info().Err(err).
		Str(xglog.FieldEvent, "workshop.collection.fallback").
		Str("collection_id", id).
		Msg("collection api returned nothing, scraping community page")

	if c.scraper == nil {
		return "", nil, errors.Join(ErrEmptyCollection, err)
	}
	ids, scrapeErr := c.scraper.Scrape(ctx, id)
	if scrapeErr != nil {
		return "", nil, scrapeErr
	}
	if len(ids) > 0 {
		_ = cache.SetJSON(ctx, c.cache, ck, cachedCollection{SourceScrape, ids}, c.cacheTTL)
	}
	return SourceScrape, ids, nil
}

func (c *Client) collectionFromAPI(ctx context.Context, id string) ([]string, error) {
	form := url.Values{}
	if key := c.apiKey(); key != "" {
		form.Set("key", key)
	}
	form.Set("collectioncount", "1")
	form.Set("publishedfileids[0]", id)

	body, err := c.do(ctx, "collection", c.postForm(collectionEndpoint, form))
	if err != nil {
		return nil, err
	}
	var resp collectionResponse
	if err := decodeJSON("collection", body, &resp); err != nil {
		return nil, err
	}

	var ids []string
	seen := map[string]bool{id: true}
	for _, d := range resp.Response.Details {
		for _, child := range d.Children {
			cid := child.PublishedFileID
			if !digits.MatchString(cid) || seen[cid] {
				continue
			}
			seen[cid] = true
			ids = append(ids, cid)
		}
	}
	return ids, nil
}
