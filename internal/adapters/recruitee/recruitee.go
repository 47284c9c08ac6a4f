// Package recruitee harvests static HTML career boards that paginate with a
// ?page=N counter and link each offer from a listing tile.
package recruitee

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobmate/harvester-service/internal/model"
	"jobmate/harvester-service/internal/scraper"
)

const (
	Kind = "recruitee"

	maxPages = 200
	// consecutive pages without a new posting before giving up; boards that
	// ignore the page parameter keep serving page one
	stalePageLimit = 2

	listingSelector     = ".job a[href], a.job-link[href]"
	titleSelector       = "h1"
	descriptionSelector = ".job-description, [data-testid=job-description]"
	locationSelector    = ".job-location"
	departmentSelector  = ".job-department"
	typeSelector        = ".job-type"
	salarySelector      = ".job-salary"
)

type Adapter struct {
	fetcher scraper.Fetcher
	board   *url.URL
	name    string
	test    bool
}

func New(cfg model.RunConfig, f scraper.Fetcher) (scraper.Adapter, error) {
	u, err := url.Parse(strings.TrimSpace(cfg.SourceURL))
	if err != nil {
		return nil, fmt.Errorf("parse board url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("board url %q has no host", cfg.SourceURL)
	}
	return &Adapter{
		fetcher: f,
		board:   u,
		name:    strings.Split(u.Hostname(), ".")[0],
		test:    cfg.Test,
	}, nil
}

func (a *Adapter) Name() string { return "Recruitee-" + a.name }

func (a *Adapter) pageURL(page int) string {
	u := *a.board
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

func (a *Adapter) Enumerate(ctx context.Context) ([]model.Posting, error) {
	seen := make(map[string]struct{})
	var postings []model.Posting
	stale := 0

	for page := 1; page <= maxPages; page++ {
		doc, err := a.document(ctx, a.pageURL(page))
		if err != nil {
			return nil, fmt.Errorf("listing page %d: %w", page, err)
		}
		links := doc.Find(listingSelector)
		if links.Length() == 0 {
			break
		}

		added := 0
		links.Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			ref, err := url.Parse(strings.TrimSpace(href))
			if err != nil || href == "" {
				return
			}
			abs := a.board.ResolveReference(ref).String()
			if _, dup := seen[abs]; dup {
				return
			}
			seen[abs] = struct{}{}
			postings = append(postings, model.Posting{URL: abs})
			added++
		})

		if a.test {
			break
		}
		if added == 0 {
			stale++
			if stale >= stalePageLimit {
				break
			}
			continue
		}
		stale = 0
	}
	return postings, nil
}

func (a *Adapter) FetchDetails(ctx context.Context, p model.Posting) (*model.RawJob, error) {
	doc, err := a.document(ctx, p.URL)
	if err != nil {
		return nil, err
	}
	text := func(sel string) string {
		return strings.TrimSpace(doc.Find(sel).First().Text())
	}
	job := &model.RawJob{
		Position:  text(titleSelector),
		Niche:     text(departmentSelector),
		Address:   text(locationSelector),
		Pattern:   text(typeSelector),
		Salary:    text(salarySelector),
		SourceURL: p.URL,
	}
	if desc := doc.Find(descriptionSelector).First(); desc.Length() > 0 {
		job.Description = scraper.SelectionText(desc)
	}
	job.ParseLocation = job.Address != ""
	return job, nil
}

func (a *Adapter) document(ctx context.Context, u string) (*goquery.Document, error) {
	body, err := a.fetcher.Do(ctx, scraper.Get(u))
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", u, err)
	}
	return doc, nil
}
