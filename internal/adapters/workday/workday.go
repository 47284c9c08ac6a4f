// Package workday harvests any employer hosted on Workday's candidate
// experience JSON API.
package workday

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"jobmate/harvester-service/internal/model"
	"jobmate/harvester-service/internal/scraper"
)

const (
	Kind     = "workday"
	pageSize = 20
	maxPages = 500
)

// Adapter pages through /wday/cxs/<tenant>/<site>/jobs with offset/limit.
type Adapter struct {
	fetcher scraper.Fetcher
	tenant  string
	base    string // https://<host>/wday/cxs/<tenant>/<site>
	test    bool
}

// New derives the API endpoints from a public careers URL such as
// https://acme.wd5.myworkdayjobs.com/en-US/External.
func New(cfg model.RunConfig, f scraper.Fetcher) (scraper.Adapter, error) {
	u, err := url.Parse(strings.TrimSpace(cfg.SourceURL))
	if err != nil {
		return nil, fmt.Errorf("parse workday url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("workday url %q has no host", cfg.SourceURL)
	}
	tenant := strings.Split(u.Hostname(), ".")[0]
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	site := segments[len(segments)-1]
	if site == "" {
		return nil, fmt.Errorf("workday url %q has no site path", cfg.SourceURL)
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return &Adapter{
		fetcher: f,
		tenant:  tenant,
		base:    fmt.Sprintf("%s://%s/wday/cxs/%s/%s", scheme, u.Host, tenant, site),
		test:    cfg.Test,
	}, nil
}

func (a *Adapter) Name() string { return "Workday-" + a.tenant }

type searchRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

type searchResponse struct {
	Total       int `json:"total"`
	JobPostings []struct {
		Title        string `json:"title"`
		ExternalPath string `json:"externalPath"`
	} `json:"jobPostings"`
}

func (a *Adapter) Enumerate(ctx context.Context) ([]model.Posting, error) {
	var (
		postings []model.Posting
		total    int
	)
	for page, offset := 0, 0; page < maxPages; page, offset = page+1, offset+pageSize {
		body, err := json.Marshal(searchRequest{
			AppliedFacets: map[string]any{},
			Limit:         pageSize,
			Offset:        offset,
		})
		if err != nil {
			return nil, err
		}
		raw, err := a.fetcher.Do(ctx, scraper.Request{
			Method: http.MethodPost,
			URL:    a.base + "/jobs",
			Header: http.Header{"Accept": {"application/json"}},
			Body:   body,
		})
		if err != nil {
			return nil, fmt.Errorf("jobs page offset %d: %w", offset, err)
		}
		var resp searchResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("decode jobs page offset %d: %w", offset, err)
		}
		// later pages report total 0
		if total == 0 {
			total = resp.Total
		}
		if len(resp.JobPostings) == 0 {
			break
		}
		for _, jp := range resp.JobPostings {
			if jp.ExternalPath == "" {
				continue
			}
			postings = append(postings, model.Posting{URL: a.base + jp.ExternalPath})
		}
		if (total > 0 && len(postings) >= total) || a.test {
			break
		}
	}
	return scraper.UniquePostings(postings), nil
}

type detailResponse struct {
	JobPostingInfo struct {
		Title          string `json:"title"`
		JobDescription string `json:"jobDescription"`
		TimeType       string `json:"timeType"`
		Location       string `json:"location"`
		ExternalURL    string `json:"externalUrl"`
		Country        *struct {
			Descriptor string `json:"descriptor"`
		} `json:"country"`
	} `json:"jobPostingInfo"`
}

func (a *Adapter) FetchDetails(ctx context.Context, p model.Posting) (*model.RawJob, error) {
	raw, err := a.fetcher.Do(ctx, scraper.Request{
		Method: http.MethodGet,
		URL:    p.URL,
		Header: http.Header{"Accept": {"application/json"}},
	})
	if err != nil {
		return nil, err
	}
	var resp detailResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode posting %s: %w", p.URL, err)
	}
	info := resp.JobPostingInfo
	job := &model.RawJob{
		Position:      info.Title,
		Description:   scraper.HTMLText(info.JobDescription),
		Pattern:       info.TimeType,
		Address:       info.Location,
		SourceURL:     info.ExternalURL,
		ParseLocation: true,
	}
	if info.Country != nil {
		job.Country = info.Country.Descriptor
	}
	return job, nil
}
