package sensedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"kassette.ai/sensedata-sync/backendconfig"
	"kassette.ai/sensedata-sync/router"
	"kassette.ai/sensedata-sync/sources"
	"kassette.ai/sensedata-sync/utils/logger"
)

// PageT is one page of raw records of a single entity. Count is zero once pagination has ended.
type PageT struct {
	Entity  sources.EntityT
	Number  int
	Count   int
	Records []json.RawMessage
}

type HandleT struct {
	BaseURL  string
	Token    string
	PageSize int
	network  *router.NetHandleT
}

func (handle *HandleT) Setup(config backendconfig.SourceConfigT, network *router.NetHandleT) {
	handle.BaseURL = config.BaseURL
	handle.Token = config.Token
	handle.PageSize = config.PageSize
	if handle.PageSize < 1 {
		handle.PageSize = backendconfig.DefaultPageSize
	}
	handle.network = network
}

func (handle *HandleT) pageURL(entity sources.EntityT, page int) string {
	return fmt.Sprintf("%s/v2/%s?page=%d&limit=%d", handle.BaseURL, url.PathEscape(entity.String()), page, handle.PageSize)
}

// Fetch reads one page of entity. Any non-2xx status is returned as a *router.StatusError.
func (handle *HandleT) Fetch(ctx context.Context, entity sources.EntityT, page int) (PageT, error) {
	if !entity.Valid() {
		return PageT{}, fmt.Errorf("%w: %q", sources.ErrUnknownEntity, entity)
	}
	if page < 1 {
		return PageT{}, fmt.Errorf("page number must be at least 1, got %d", page)
	}
	if handle.network == nil {
		handle.network = &router.NetHandleT{}
	}

	resp, err := handle.network.Send(ctx, router.RequestT{
		Method: http.MethodGet,
		URL:    handle.pageURL(entity, page),
		Header: map[string]string{
			"Authorization": handle.Token,
			"Content-Type":  "application/json",
		},
	})
	if err != nil {
		return PageT{}, fmt.Errorf("fetch %s page %d: %w", entity, page, err)
	}

	result, err := ParsePage(entity, resp.Body)
	if err != nil {
		return PageT{}, fmt.Errorf("fetch %s page %d: %w", entity, page, err)
	}
	result.Number = page
	logger.Debug("fetched page",
		zap.String("entity", entity.String()),
		zap.Int("page", page),
		zap.Int("count", result.Count))
	return result, nil
}

// ParsePage reads count and the array named after the entity out of a Sensedata list response.
func ParsePage(entity sources.EntityT, body []byte) (PageT, error) {
	if !gjson.ValidBytes(body) {
		return PageT{}, errors.New("response body is not valid JSON")
	}
	count := gjson.GetBytes(body, "count")
	if !count.Exists() {
		return PageT{}, errors.New(`response has no "count"`)
	}
	result := PageT{Entity: entity, Count: int(count.Int())}
	if result.Count == 0 {
		return result, nil
	}

	records := gjson.GetBytes(body, entity.String())
	if !records.IsArray() {
		return PageT{}, fmt.Errorf("response has no %q array", entity)
	}
	records.ForEach(func(_, record gjson.Result) bool {
		result.Records = append(result.Records, json.RawMessage(record.Raw))
		return true
	})
	return result, nil
}
