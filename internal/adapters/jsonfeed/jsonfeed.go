// Package jsonfeed harvests employers that publish every opening in one bulk
// JSON document. The whole item rides in Posting.Meta, so FetchDetails does
// no I/O.
package jsonfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"jobmate/harvester-service/internal/model"
	"jobmate/harvester-service/internal/scraper"
)

const Kind = "jsonfeed"

// Field names read from each feed item.
const (
	fieldID          = "id"
	fieldTitle       = "title"
	fieldDepartment  = "department"
	fieldLocation    = "location"
	fieldDescription = "description"
	fieldApplyURL    = "apply_job_url"
	fieldEducation   = "education_level"
	fieldExperience  = "experience_level"
	fieldContract    = "contract_type"
	fieldSalary      = "salary"
)

type Adapter struct {
	fetcher scraper.Fetcher
	feedURL string
	name    string
	test    bool
}

func New(cfg model.RunConfig, f scraper.Fetcher) (scraper.Adapter, error) {
	u, err := url.Parse(strings.TrimSpace(cfg.SourceURL))
	if err != nil {
		return nil, fmt.Errorf("parse feed url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("feed url %q has no host", cfg.SourceURL)
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	return &Adapter{
		fetcher: f,
		feedURL: u.String(),
		name:    strings.Split(host, ".")[0],
		test:    cfg.Test,
	}, nil
}

func (a *Adapter) Name() string { return "Feed-" + a.name }

// feed accepts either {"data": [...]} or a bare array.
type feed struct {
	Data []map[string]any `json:"data"`
}

func (a *Adapter) Enumerate(ctx context.Context) ([]model.Posting, error) {
	body, err := a.fetcher.Do(ctx, scraper.Get(a.feedURL))
	if err != nil {
		return nil, err
	}
	items, err := decodeItems(body)
	if err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	if a.test && len(items) > 20 {
		items = items[:20]
	}
	postings := make([]model.Posting, 0, len(items))
	for i, item := range items {
		locator := str(item, fieldApplyURL)
		if locator == "" {
			locator = a.feedURL + "#" + strconv.Itoa(i)
		}
		postings = append(postings, model.Posting{URL: locator, Meta: item})
	}
	return scraper.UniquePostings(postings), nil
}

func decodeItems(body []byte) ([]map[string]any, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var items []map[string]any
		return items, json.Unmarshal(body, &items)
	}
	var f feed
	if err := json.Unmarshal(body, &f); err != nil {
		return nil, err
	}
	return f.Data, nil
}

func (a *Adapter) FetchDetails(_ context.Context, p model.Posting) (*model.RawJob, error) {
	if p.Meta == nil {
		return nil, fmt.Errorf("posting %s carries no feed item", p.URL)
	}
	item := p.Meta
	return &model.RawJob{
		JobID:          numericID(item[fieldID]),
		Position:       str(item, fieldTitle),
		Description:    scraper.HTMLText(str(item, fieldDescription)),
		Qualifications: str(item, fieldEducation),
		Experience:     str(item, fieldExperience),
		Pattern:        str(item, fieldContract),
		Salary:         str(item, fieldSalary),
		Niche:          str(item, fieldDepartment),
		Address:        str(item, fieldLocation),
		SourceURL:      str(item, fieldApplyURL),
		ParseLocation:  true,
	}, nil
}

func str(item map[string]any, key string) string {
	switch v := item[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

// numericID accepts 123 or "123"; anything else leaves the id to the
// normalizer.
func numericID(v any) int64 {
	switch id := v.(type) {
	case float64:
		if id > 0 && id == float64(int64(id)) {
			return int64(id)
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return 0
}
