package recruitee_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/harvester-service/internal/adapters/recruitee"
	"jobmate/harvester-service/internal/model"
	"jobmate/harvester-service/internal/scraper"
)

const detailPage = `<html><body>
<h1> Site Engineer, Construction </h1>
<span class="job-department">Construction</span>
<span class="job-location">Abuja, Nigeria</span>
<span class="job-type">Contract</span>
<span class="job-salary">Salary: ₦500,000</span>
<div class="job-description"><p>Minimum of five years</p><p>HND or B.Sc in Civil Engineering</p></div>
</body></html>`

func listing(ids ...int) string {
	html := "<html><body>"
	for _, id := range ids {
		html += fmt.Sprintf(`<div class="job"><a href="/o/offer-%d">Offer %d</a></div>`, id, id)
	}
	return html + "</body></html>"
}

func newBoard(t *testing.T, pages func(page int) string, hits *atomic.Int32) scraper.Adapter {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/careers", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(pages(page)))
	})
	mux.HandleFunc("/o/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(detailPage))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	a, err := recruitee.New(model.RunConfig{SourceURL: srv.URL + "/careers"}, scraper.NewHTTPFetcher(scraper.HTTPOptions{}))
	require.NoError(t, err)
	return a
}

func TestEnumerate_StopsOnEmptyPage(t *testing.T) {
	var hits atomic.Int32
	a := newBoard(t, func(page int) string {
		switch page {
		case 1:
			return listing(1, 2)
		case 2:
			return listing(3)
		}
		return listing()
	}, &hits)

	postings, err := a.Enumerate(context.Background())

	require.NoError(t, err)
	require.Len(t, postings, 3)
	assert.Contains(t, postings[2].URL, "/o/offer-3")
	assert.Equal(t, int32(3), hits.Load())
}

func TestEnumerate_StopsAfterTwoPagesWithNothingNew(t *testing.T) {
	var hits atomic.Int32
	// board ignores ?page and always serves the same tiles
	a := newBoard(t, func(int) string { return listing(1, 2, 2) }, &hits)

	postings, err := a.Enumerate(context.Background())

	require.NoError(t, err)
	assert.Len(t, postings, 2)
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetchDetails_ReadsSelectors(t *testing.T) {
	var hits atomic.Int32
	a := newBoard(t, func(page int) string { return listing(7) }, &hits)
	postings, err := a.Enumerate(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, postings)

	job, err := a.FetchDetails(context.Background(), postings[0])

	require.NoError(t, err)
	assert.Equal(t, "Site Engineer, Construction", job.Position)
	assert.Equal(t, "Construction", job.Niche)
	assert.Equal(t, "Abuja, Nigeria", job.Address)
	assert.Equal(t, "Contract", job.Pattern)
	assert.Equal(t, "Salary: ₦500,000", job.Salary)
	assert.Equal(t, "Minimum of five years HND or B.Sc in Civil Engineering", job.Description)
	assert.Equal(t, postings[0].URL, job.SourceURL)
	assert.True(t, job.ParseLocation)
}
