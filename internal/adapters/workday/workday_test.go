package workday_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/harvester-service/internal/adapters/workday"
	"jobmate/harvester-service/internal/model"
	"jobmate/harvester-service/internal/scraper"
)

// fakeWorkday serves total postings in pages, reporting total only on the
// first page the way the real API does.
func fakeWorkday(t *testing.T, total int, pages *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/wday/cxs/acme/External/jobs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req struct {
			Limit  int `json:"limit"`
			Offset int `json:"offset"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		pages.Add(1)

		var postings []map[string]string
		for i := req.Offset; i < req.Offset+req.Limit && i < total; i++ {
			postings = append(postings, map[string]string{
				"title":        fmt.Sprintf("Job %d", i),
				"externalPath": fmt.Sprintf("/job/Remote/Job-%d_R%d", i, i),
			})
		}
		reported := total
		if req.Offset > 0 {
			reported = 0
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"total": reported, "jobPostings": postings})
	})
	mux.HandleFunc("/wday/cxs/acme/External/job/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jobPostingInfo": {
			"title": "Data Engineer, Analytics",
			"jobDescription": "<p>We need <b>3+ years</b> of SQL.</p><ul><li>Bachelor's degree</li></ul>",
			"timeType": "Full time",
			"location": "Austin, TX",
			"externalUrl": "https://acme.wd5.myworkdayjobs.com/External/job/1",
			"country": {"descriptor": "United States of America"}
		}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newAdapter(t *testing.T, srv *httptest.Server, test bool) scraper.Adapter {
	t.Helper()
	// the tenant is the first host label, so address the server as acme.localhost
	u := strings.Replace(srv.URL, "127.0.0.1", "acme.localhost", 1) + "/en-US/External"
	a, err := workday.New(model.RunConfig{SourceURL: u, Test: test}, rewriteFetcher{
		inner: scraper.NewHTTPFetcher(scraper.HTTPOptions{}),
		from:  "acme.localhost",
		to:    "127.0.0.1",
	})
	require.NoError(t, err)
	return a
}

// rewriteFetcher sends acme.localhost requests to the loopback test server.
type rewriteFetcher struct {
	inner    scraper.Fetcher
	from, to string
}

func (f rewriteFetcher) Do(ctx context.Context, req scraper.Request) ([]byte, error) {
	req.URL = strings.Replace(req.URL, f.from, f.to, 1)
	return f.inner.Do(ctx, req)
}

func TestNew_DerivesNameAndRejectsBadURLs(t *testing.T) {
	a, err := workday.New(model.RunConfig{SourceURL: "https://acme.wd5.myworkdayjobs.com/en-US/External"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Workday-acme", a.(scraper.Namer).Name())

	_, err = workday.New(model.RunConfig{SourceURL: "not a url"}, nil)
	assert.Error(t, err)
	_, err = workday.New(model.RunConfig{SourceURL: "https://acme.wd5.myworkdayjobs.com/"}, nil)
	assert.Error(t, err)
}

func TestEnumerate_WalksOffsetsUntilTotal(t *testing.T) {
	var pages atomic.Int32
	srv := fakeWorkday(t, 45, &pages)

	postings, err := newAdapter(t, srv, false).Enumerate(context.Background())

	require.NoError(t, err)
	assert.Len(t, postings, 45)
	assert.Equal(t, int32(3), pages.Load())
	assert.True(t, strings.HasSuffix(postings[0].URL, "/wday/cxs/acme/External/job/Remote/Job-0_R0"))
}

func TestEnumerate_TestModeFetchesOnePage(t *testing.T) {
	var pages atomic.Int32
	srv := fakeWorkday(t, 45, &pages)

	postings, err := newAdapter(t, srv, true).Enumerate(context.Background())

	require.NoError(t, err)
	assert.Len(t, postings, 20)
	assert.Equal(t, int32(1), pages.Load())
}

func TestEnumerate_EmptyFirstPage(t *testing.T) {
	var pages atomic.Int32
	srv := fakeWorkday(t, 0, &pages)

	postings, err := newAdapter(t, srv, false).Enumerate(context.Background())

	require.NoError(t, err)
	assert.Empty(t, postings)
}

func TestEnumerate_TransportErrorIsNotExhaustion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := newAdapter(t, srv, false).Enumerate(context.Background())

	var serr *scraper.StatusError
	assert.ErrorAs(t, err, &serr)
}

func TestFetchDetails_MapsPostingInfo(t *testing.T) {
	var pages atomic.Int32
	srv := fakeWorkday(t, 1, &pages)
	a := newAdapter(t, srv, false)
	postings, err := a.Enumerate(context.Background())
	require.NoError(t, err)
	require.Len(t, postings, 1)

	job, err := a.FetchDetails(context.Background(), postings[0])

	require.NoError(t, err)
	assert.Equal(t, "Data Engineer, Analytics", job.Position)
	assert.Equal(t, "We need 3+ years of SQL. Bachelor's degree", job.Description)
	assert.Equal(t, "Full time", job.Pattern)
	assert.Equal(t, "Austin, TX", job.Address)
	assert.Equal(t, "United States of America", job.Country)
	assert.Equal(t, "https://acme.wd5.myworkdayjobs.com/External/job/1", job.SourceURL)
	assert.True(t, job.ParseLocation)
	assert.Zero(t, job.JobID, "workday exposes no numeric id")
}
