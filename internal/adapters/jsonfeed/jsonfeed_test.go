package jsonfeed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/harvester-service/internal/adapters/jsonfeed"
	"jobmate/harvester-service/internal/model"
	"jobmate/harvester-service/internal/scraper"
)

const feedBody = `{"data": [
	{"id": "88123", "title": "Consultant, SAP", "department": "Consulting",
	 "location": "Lyon, France", "description": "<p>Business English</p>",
	 "apply_job_url": "https://careers.example.com/jobs/88123",
	 "education_level": "Bachelor", "experience_level": "3-5 years", "contract_type": "Permanent"},
	{"id": 77, "title": "Intern", "location": "Pune, India",
	 "apply_job_url": "https://careers.example.com/jobs/77"},
	{"title": "Duplicate", "apply_job_url": "https://careers.example.com/jobs/77"},
	{"title": "No link"}
]}`

func serve(t *testing.T, body string, hits *atomic.Int32) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/wp-json/jobs?size=5000"
}

func TestEnumerate_SingleBulkCall(t *testing.T) {
	var hits atomic.Int32
	a, err := jsonfeed.New(model.RunConfig{SourceURL: serve(t, feedBody, &hits)}, scraper.NewHTTPFetcher(scraper.HTTPOptions{}))
	require.NoError(t, err)

	postings, err := a.Enumerate(context.Background())
	require.NoError(t, err)

	require.Len(t, postings, 3)
	assert.Equal(t, "https://careers.example.com/jobs/88123", postings[0].URL)
	assert.Equal(t, "Consultant, SAP", postings[0].Meta["title"])
	assert.Contains(t, postings[2].URL, "#3", "items without a link get a feed-local locator")

	for _, p := range postings {
		_, err := a.FetchDetails(context.Background(), p)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load(), "details come from the feed item")
}

func TestEnumerate_BareArray(t *testing.T) {
	var hits atomic.Int32
	a, err := jsonfeed.New(model.RunConfig{SourceURL: serve(t, `[{"title":"A","apply_job_url":"https://x/a"}]`, &hits)}, scraper.NewHTTPFetcher(scraper.HTTPOptions{}))
	require.NoError(t, err)

	postings, err := a.Enumerate(context.Background())

	require.NoError(t, err)
	assert.Len(t, postings, 1)
}

func TestEnumerate_MalformedFeedFails(t *testing.T) {
	var hits atomic.Int32
	a, err := jsonfeed.New(model.RunConfig{SourceURL: serve(t, `{"data": "nope"}`, &hits)}, scraper.NewHTTPFetcher(scraper.HTTPOptions{}))
	require.NoError(t, err)

	_, err = a.Enumerate(context.Background())
	assert.Error(t, err)
}

func TestFetchDetails_MapsItem(t *testing.T) {
	a, err := jsonfeed.New(model.RunConfig{SourceURL: "https://www.capgemini.com/wp-json/macs/v1/jobs"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Feed-capgemini", a.(scraper.Namer).Name())

	job, err := a.FetchDetails(context.Background(), model.Posting{
		URL: "https://careers.example.com/jobs/88123",
		Meta: map[string]any{
			"id": "88123", "title": "Consultant, SAP", "department": "Consulting",
			"location": "Lyon, France", "description": "<p>Business <b>English</b></p>",
			"apply_job_url": "https://careers.example.com/jobs/88123",
			"education_level": "Bachelor", "experience_level": "3-5 years",
			"contract_type": "Permanent", "salary": float64(42000),
		},
	})

	require.NoError(t, err)
	assert.Equal(t, &model.RawJob{
		JobID:          88123,
		Position:       "Consultant, SAP",
		Description:    "Business English",
		Qualifications: "Bachelor",
		Experience:     "3-5 years",
		Pattern:        "Permanent",
		Salary:         "42000",
		Niche:          "Consulting",
		Address:        "Lyon, France",
		SourceURL:      "https://careers.example.com/jobs/88123",
		ParseLocation:  true,
	}, job)

	_, err = a.FetchDetails(context.Background(), model.Posting{URL: "x"})
	assert.Error(t, err)
}
