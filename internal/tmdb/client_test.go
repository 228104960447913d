package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviehub/pkg/models"
)

type fakeTMDB struct {
	*httptest.Server
	genreCalls  atomic.Int32
	detailCalls atomic.Int32
	lastQuery   atomic.Value
}

func newFakeTMDB(t *testing.T) *fakeTMDB {
	t.Helper()
	f := &fakeTMDB{}
	mux := http.NewServeMux()
	mux.HandleFunc("/genre/movie/list", func(w http.ResponseWriter, r *http.Request) {
		f.genreCalls.Add(1)
		fmt.Fprint(w, `{"genres":[{"id":28,"name":"Action"},{"id":18,"name":"Drama"}]}`)
	})
	mux.HandleFunc("/genre/tv/list", func(w http.ResponseWriter, r *http.Request) {
		f.genreCalls.Add(1)
		fmt.Fprint(w, `{"genres":[{"id":18,"name":"Drama"}]}`)
	})
	mux.HandleFunc("/discover/movie", func(w http.ResponseWriter, r *http.Request) {
		f.lastQuery.Store(r.URL.Query())
		fmt.Fprint(w, `{"page":2,"total_pages":3,"total_results":41,"results":[
			{"id":42,"title":"Banned Flick","genre_ids":[28]},
			{"id":7,"title":"Seven","genre_ids":[18,99],"release_date":"1995-09-22"}]}`)
	})
	mux.HandleFunc("/search/multi", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"page":1,"total_pages":1,"results":[
			{"id":1,"media_type":"movie","title":"Alien"},
			{"id":2,"media_type":"tv","name":"Alien Nation","first_air_date":"1989-09-18"},
			{"id":3,"media_type":"person","name":"Sigourney Weaver"}]}`)
	})
	mux.HandleFunc("/tv/1399", func(w http.ResponseWriter, r *http.Request) {
		f.detailCalls.Add(1)
		fmt.Fprint(w, `{"id":1399,"name":"Game of Thrones","number_of_seasons":8,"number_of_episodes":73,
			"genres":[{"id":18,"name":"Drama"}]}`)
	})
	mux.HandleFunc("/movie/popular", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusServiceUnavailable)
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeTMDB) client() *Client {
	return New(Config{APIKey: "test-key", BaseURL: f.URL, RatePerSec: 1000})
}

func TestDiscoverPassesFiltersAndResolvesGenres(t *testing.T) {
	f := newFakeTMDB(t)
	c := f.client()

	filters := url.Values{"with_genres": {"18"}, "sort_by": {"vote_average.desc"}}
	page, err := c.Discover(context.Background(), models.KindMovie, 2, filters)
	require.NoError(t, err)

	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Results, 2)
	assert.Equal(t, []string{"Action"}, page.Results[0].Genres)
	assert.Equal(t, []string{"Drama"}, page.Results[1].Genres)
	assert.Equal(t, "1995-09-22", page.Results[1].ReleaseDate)
	assert.Equal(t, models.OriginExternal, page.Results[1].Origin)
	assert.Equal(t, models.KindMovie, page.Results[1].MediaType)

	q := f.lastQuery.Load().(url.Values)
	assert.Equal(t, "18", q.Get("with_genres"))
	assert.Equal(t, "vote_average.desc", q.Get("sort_by"))
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "test-key", q.Get("api_key"))
	assert.Equal(t, "en-US", q.Get("language"))

	// genre list is cached across pages
	_, err = c.Discover(context.Background(), models.KindMovie, 3, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.genreCalls.Load())
}

func TestSearchMultiTagsKindPerItem(t *testing.T) {
	c := newFakeTMDB(t).client()

	page, err := c.SearchMulti(context.Background(), "alien", 1)
	require.NoError(t, err)
	require.Len(t, page.Results, 2, "person results are dropped")
	assert.Equal(t, models.KindMovie, page.Results[0].MediaType)
	assert.Equal(t, models.KindTV, page.Results[1].MediaType)
	assert.Equal(t, "Alien Nation", page.Results[1].Title)
	assert.Equal(t, "1989-09-18", page.Results[1].FirstAirDate)
}

func TestDetailsAreCached(t *testing.T) {
	f := newFakeTMDB(t)
	c := f.client()

	for i := 0; i < 2; i++ {
		m, err := c.Details(context.Background(), models.KindTV, 1399)
		require.NoError(t, err)
		assert.Equal(t, "Game of Thrones", m.Title)
		assert.Equal(t, 8, m.NumberOfSeasons)
		assert.Equal(t, []string{"Drama"}, m.Genres)
	}
	assert.EqualValues(t, 1, f.detailCalls.Load())
}

func TestErrors(t *testing.T) {
	f := newFakeTMDB(t)
	c := f.client()

	_, err := c.Popular(context.Background(), models.KindMovie, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	_, err = c.Details(context.Background(), models.KindMovie, 404404)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = New(Config{BaseURL: f.URL}).Popular(context.Background(), models.KindTV, 1)
	assert.True(t, errors.Is(err, ErrNotConfigured))
}
