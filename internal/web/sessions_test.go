package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvview/internal/core"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestSessions_ID(t *testing.T) {
	s := newSessions("sid", time.Hour, 10)

	rec := httptest.NewRecorder()
	id := s.id(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, id)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.Equal(t, id, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	// A valid cookie is reused without setting a new one.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	assert.Equal(t, id, s.id(rec, req))
	assert.Empty(t, rec.Result().Cookies())

	// A forged value is replaced.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "../../etc"})
	rec = httptest.NewRecorder()
	assert.NotEqual(t, "../../etc", s.id(rec, req))
	assert.Len(t, rec.Result().Cookies(), 1)
}

func TestSessions_PutGetExpire(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := newSessions("sid", time.Minute, 10)
	s.now = clock.now

	view := &core.View{Sort: &core.SortDirective{Column: "a", Direction: core.Ascending}}
	s.put("one", view, []string{"a"})

	got, sel := s.get("one")
	assert.Same(t, view, got)
	assert.Equal(t, []string{"a"}, sel)

	v, sel := s.get("missing")
	assert.Nil(t, v)
	assert.Nil(t, sel)

	clock.advance(2 * time.Minute)
	v, _ = s.get("one")
	assert.Nil(t, v)
	assert.Equal(t, 0, s.len())
}

func TestSessions_EvictsOldest(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := newSessions("sid", time.Hour, 2)
	s.now = clock.now

	s.put("a", core.EmptyView(), nil)
	clock.advance(time.Second)
	s.put("b", core.EmptyView(), nil)
	clock.advance(time.Second)
	s.get("a") // touch a so b is now oldest
	clock.advance(time.Second)
	s.put("c", core.EmptyView(), nil)

	assert.Equal(t, 2, s.len())
	v, _ := s.get("b")
	assert.Nil(t, v)
	v, _ = s.get("a")
	assert.NotNil(t, v)

	// Overwriting an existing session never evicts.
	s.put("a", core.EmptyView(), []string{"x"})
	assert.Equal(t, 2, s.len())
}

func TestSessions_Sweep(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := newSessions("sid", time.Minute, 10)
	s.now = clock.now

	s.put("old", core.EmptyView(), nil)
	clock.advance(90 * time.Second)
	s.put("new", core.EmptyView(), nil)

	assert.Equal(t, 1, s.sweep())
	assert.Equal(t, 1, s.len())
}

func TestRateLimiter(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := newRateLimiter(3, time.Minute)
	rl.now = clock.now

	for i := 0; i < 3; i++ {
		assert.True(t, rl.allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.2"), "budgets are per ip")

	clock.advance(61 * time.Second)
	assert.True(t, rl.allow("10.0.0.1"), "budget refills after the window")

	clock.advance(3 * time.Minute)
	rl.prune()
	assert.Empty(t, rl.visitors)
}

func TestExportFilename(t *testing.T) {
	tests := []struct {
		source, ext, want string
	}{
		{"sales.xlsx", "parquet", "sales-view.parquet"},
		{"people.csv", "csv", "people-view.csv"},
		{"", "json", "data-view.json"},
		{`we"ird.csv`, "csv", "we_ird-view.csv"},
		{"dir/nested.csv", "csv", "nested-view.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, exportFilename(tt.source, tt.ext))
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"busy", core.ErrTooManyUploads, http.StatusServiceUnavailable},
		{"unknown column", &core.UnknownColumnError{Column: "x"}, http.StatusBadRequest},
		{"decode", &core.DecodeError{Filename: "a.csv", Err: core.ErrUnsupportedFile}, http.StatusBadRequest},
		{"no file", errNoFile, http.StatusBadRequest},
		{"empty view", core.ErrEmptyView, http.StatusConflict},
		{"empty dataset", core.ErrEmptyDataset, http.StatusConflict},
		{"too large", &http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{"other", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
