package web

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvview/internal/config"
	"github.com/JonMunkholm/csvview/internal/core"
	"github.com/JonMunkholm/csvview/internal/history"
)

const peopleCSV = "name,age,member\nalice,30,true\nbob,25,false\ncarol,41,\n"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0},
		Upload: config.UploadConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
		},
		Rate:     config.RateLimitConfig{Enabled: false},
		Security: config.SecurityConfig{EnableCSP: true},
		History:  config.HistoryConfig{Limit: 50},
		Session: config.SessionConfig{
			Cookie: "test_session",
			TTL:    time.Hour,
			Max:    10,
		},
	}
}

// client is a test browser: it replays the session cookie across requests.
type client struct {
	t       *testing.T
	srv     *Server
	cookies []*http.Cookie
}

func newClient(t *testing.T, cfg *config.Config) *client {
	t.Helper()
	engine := core.NewEngine(core.NewStore(),
		core.WithLimiter(core.NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)),
		core.WithHistory(history.NewMemory(100)),
	)
	srv := NewServer(engine, cfg)
	t.Cleanup(func() { srv.Shutdown(t.Context()) })
	return &client{t: t, srv: srv}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.srv.Router().ServeHTTP(rec, req)
	if set := rec.Result().Cookies(); len(set) > 0 {
		c.cookies = set
	}
	return rec
}

func (c *client) upload(filename string, contents []byte) *httptest.ResponseRecorder {
	c.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(c.t, err)
	_, err = fw.Write(contents)
	require.NoError(c.t, err)
	require.NoError(c.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

func (c *client) view(body string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/view", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// form posts a cycle the way the htmx page does.
func (c *client) form(values url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/view", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	return c.do(req)
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type viewBody struct {
	Action   string              `json:"action"`
	Summary  string              `json:"summary"`
	Columns  []core.ColumnMeta   `json:"columns"`
	Rows     []map[string]any    `json:"rows"`
	RowCount int                 `json:"row_count"`
	Sort     *core.SortDirective `json:"sort"`
	Filter   string              `json:"filter"`
}

func names(rows []map[string]any) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r["name"]
	}
	return out
}

func TestUpload_CSV(t *testing.T) {
	c := newClient(t, testConfig())

	rec := c.upload("people.csv", []byte(peopleCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[uploadResponse](t, rec)
	assert.True(t, got.OK)
	assert.Equal(t, "File Uploaded: people.csv", got.Message)
	assert.Equal(t, []string{"name", "age", "member"}, got.Columns)
	assert.Equal(t, 3, got.Dataset.Rows)
	assert.Empty(t, got.Code)
	assert.Equal(t, "upload-complete", rec.Header().Get("HX-Trigger"))
}

func TestUpload_DecodeFailureResetsDataset(t *testing.T) {
	c := newClient(t, testConfig())
	c.upload("people.csv", []byte(peopleCSV))

	rec := c.upload("notes.txt", []byte("hello"))
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[uploadResponse](t, rec)
	assert.False(t, got.OK)
	assert.Equal(t, core.UploadFailedMessage, got.Message)
	assert.Empty(t, got.Columns)
	assert.Equal(t, "FILE002", got.Code)

	cols := decode[map[string]any](t, c.get("/api/columns"))
	assert.Empty(t, cols["columns"])
	assert.Equal(t, core.NoFileMessage, cols["message"])
}

func TestUpload_NoFile(t *testing.T) {
	c := newClient(t, testConfig())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := c.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FILE006", decode[ErrorResponse](t, rec).Code)
}

func TestUpload_HTMXFragment(t *testing.T) {
	c := newClient(t, testConfig())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "people.csv")
	fw.Write([]byte(peopleCSV))
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("HX-Request", "true")

	rec := c.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	assert.Contains(t, html, `id="upload-status"`)
	assert.Contains(t, html, `hx-swap-oob="true"`)
	assert.Contains(t, html, `<option value="age">age</option>`)
}

func TestUploadBase64(t *testing.T) {
	c := newClient(t, testConfig())

	payload, _ := json.Marshal(base64Upload{
		Filename: "people.csv",
		Contents: "data:text/csv;base64," + base64.StdEncoding.EncodeToString([]byte(peopleCSV)),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/upload/base64", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := c.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[uploadResponse](t, rec)
	assert.True(t, got.OK)
	assert.Equal(t, []string{"name", "age", "member"}, got.Columns)
}

func TestUploadBase64_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxFileSize = 30
	c := newClient(t, cfg)

	big := strings.Repeat("a", 2*maxJSONBody)
	payload, _ := json.Marshal(base64Upload{Filename: "big.csv", Contents: big})
	req := httptest.NewRequest(http.MethodPost, "/api/upload/base64", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := c.do(req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "FILE001", decode[ErrorResponse](t, rec).Code)
}

func TestViewCycle(t *testing.T) {
	c := newClient(t, testConfig())
	c.upload("people.csv", []byte(peopleCSV))

	rec := c.view(`{"submit": true, "selection": ["name", "age"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[viewBody](t, rec)
	assert.Equal(t, "project", got.Action)
	assert.Equal(t, "name, age", got.Summary)
	require.Len(t, got.Columns, 2)
	assert.Equal(t, "number", got.Columns[1].Type)
	assert.Equal(t, []any{"alice", "bob", "carol"}, names(got.Rows))
	assert.Nil(t, got.Sort)

	// Sorting works on the view the session saw last.
	rec = c.view(`{"selection": ["name", "age"], "sort": {"column": "age", "direction": "desc"}}`)
	got = decode[viewBody](t, rec)
	assert.Equal(t, "sort", got.Action)
	assert.Equal(t, []any{"carol", "alice", "bob"}, names(got.Rows))
	require.NotNil(t, got.Sort)
	assert.Equal(t, core.Descending, got.Sort.Direction)

	// A plain refresh passes the sorted view through.
	rec = c.view(`{"refresh": true, "selection": ["name", "age"]}`)
	got = decode[viewBody](t, rec)
	assert.Equal(t, "passthrough", got.Action)
	assert.Equal(t, []any{"carol", "alice", "bob"}, names(got.Rows))

	// Changing the selection alone does not re-project.
	rec = c.view(`{"selection_changed": true, "selection": ["member"]}`)
	got = decode[viewBody](t, rec)
	assert.Equal(t, "passthrough", got.Action)
	assert.Equal(t, "member", got.Summary)
	assert.Len(t, got.Columns, 2)

	rec = c.get("/api/view/export?format=csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="people-view.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "name,age\ncarol,41\nalice,30\nbob,25\n", rec.Body.String())
}

func TestView_SubmitBeatsSort(t *testing.T) {
	c := newClient(t, testConfig())
	c.upload("people.csv", []byte(peopleCSV))
	c.view(`{"submit": true, "selection": ["name", "age"]}`)

	rec := c.view(`{"submit": true, "selection": ["age", "name"], "sort": {"column": "age", "direction": "asc"}}`)
	got := decode[viewBody](t, rec)
	assert.Equal(t, "project", got.Action)
	assert.Nil(t, got.Sort)
	assert.Equal(t, "age", got.Columns[0].Name)
	assert.Equal(t, []any{"alice", "bob", "carol"}, names(got.Rows))
}

func TestView_FiredList(t *testing.T) {
	c := newClient(t, testConfig())
	c.upload("people.csv", []byte(peopleCSV))

	rec := c.view(`{"fired": ["submit"], "selection": ["name"]}`)
	got := decode[viewBody](t, rec)
	assert.Equal(t, "project", got.Action)
	assert.Len(t, got.Columns, 1)
}

func TestView_NoDataset(t *testing.T) {
	c := newClient(t, testConfig())

	rec := c.view(`{"submit": true, "selection": ["name"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[viewBody](t, rec)
	assert.Equal(t, "empty", got.Action)
	assert.Empty(t, got.Columns)
	assert.Empty(t, got.Rows)
	assert.Equal(t, "name", got.Summary)
}

func TestView_UnknownColumn(t *testing.T) {
	c := newClient(t, testConfig())
	c.upload("people.csv", []byte(peopleCSV))

	rec := c.view(`{"submit": true, "selection": ["nope"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VIEW001", decode[ErrorResponse](t, rec).Code)
}

func TestView_BadBody(t *testing.T) {
	c := newClient(t, testConfig())
	rec := c.view(`{"submit": "yes"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	got := decode[ErrorResponse](t, rec)
	assert.Contains(t, got.Message, "Bad Request: json: cannot unmarshal")
	assert.Equal(t, "Check the request and try again", got.Action)
}

func TestView_DuplicateSelection(t *testing.T) {
	c := newClient(t, testConfig())
	c.upload("people.csv", []byte(peopleCSV))

	rec := c.view(`{"submit": true, "selection": ["name", "name"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VIEW004", decode[ErrorResponse](t, rec).Code)
}

func TestView_Filter(t *testing.T) {
	c := newClient(t, testConfig())
	c.upload("people.csv", []byte(peopleCSV))
	c.view(`{"submit": true, "selection": ["name", "age"]}`)

	rec := c.view(`{"selection": ["name", "age"], "filter": "age < 40"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[viewBody](t, rec)
	assert.Equal(t, "filter", got.Action)
	assert.Equal(t, "age < 40", got.Filter)
	assert.Equal(t, []any{"alice", "bob"}, names(got.Rows))

	// Sorting keeps the filter, and export sees the narrowed rows.
	rec = c.view(`{"selection": ["name", "age"], "sort": {"column": "age", "direction": "asc"}}`)
	got = decode[viewBody](t, rec)
	assert.Equal(t, []any{"bob", "alice"}, names(got.Rows))
	assert.Equal(t, "age < 40", got.Filter)

	rec = c.get("/api/view/export?format=csv")
	assert.Equal(t, "name,age\nbob,25\nalice,30\n", rec.Body.String())

	// Submit starts again from the whole dataset.
	got = decode[viewBody](t, c.view(`{"submit": true, "selection": ["name", "age"]}`))
	assert.Len(t, got.Rows, 3)
	assert.Empty(t, got.Filter)
}

func TestView_BadFilter(t *testing.T) {
	c := newClient(t, testConfig())
	c.upload("people.csv", []byte(peopleCSV))
	c.view(`{"submit": true, "selection": ["name", "age"]}`)

	rec := c.view(`{"filter": "salary > 10"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VIEW005", decode[ErrorResponse](t, rec).Code)
}

func TestView_FormCycle(t *testing.T) {
	c := newClient(t, testConfig())
	c.upload("people.csv", []byte(peopleCSV))

	rec := c.form(url.Values{"submit": {"true"}, "selection": {"name", "age"}, "filter": {"age > 26"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	html := rec.Body.String()
	assert.Contains(t, html, `data-column="age"`)
	assert.Contains(t, html, "<td>bob</td>")
	assert.NotContains(t, html, `class="filter"`)

	// The filter box only applies when its button fired.
	rec = c.form(url.Values{"fired": {"filter"}, "selection": {"name", "age"}, "filter": {"age > 26"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	html = rec.Body.String()
	assert.Contains(t, html, "<td>alice</td>")
	assert.Contains(t, html, "<td>carol</td>")
	assert.NotContains(t, html, "<td>bob</td>")
	assert.Contains(t, html, "Filter: <code>age &gt; 26</code>")

	rec = c.form(url.Values{"selection": {"name", "age"}, "sort_column": {"age"}, "sort_direction": {"desc"}})
	require.Equal(t, http.StatusOK, rec.Code)
	html = rec.Body.String()
	assert.Contains(t, html, "age ▼</th>")
	assert.Less(t, strings.Index(html, "<td>carol</td>"), strings.Index(html, "<td>alice</td>"))

	// Nothing selected in the form is an empty selection, not the last one.
	rec = c.form(url.Values{"selection_changed": {"on"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<p id="summary"></p>`)
}

func TestView_HTMXError(t *testing.T) {
	c := newClient(t, testConfig())
	c.upload("people.csv", []byte(peopleCSV))

	rec := c.form(url.Values{"submit": {"true"}, "selection": {"nope"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "#error", rec.Header().Get("HX-Retarget"))
	assert.Equal(t, "innerHTML", rec.Header().Get("HX-Reswap"))
	assert.Contains(t, rec.Body.String(), `<div class="alert alert-error" role="alert">`)
	assert.Contains(t, rec.Body.String(), "Code: VIEW001")
}

func TestView_HTMX(t *testing.T) {
	c := newClient(t, testConfig())
	c.upload("people.csv", []byte(`name,note
x,<b>hi</b>
`))

	req := httptest.NewRequest(http.MethodPost, "/api/view", strings.NewReader(`{"submit": true, "selection": ["note"]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HX-Request", "true")
	rec := c.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	assert.Contains(t, html, `<table class="data-table">`)
	assert.Contains(t, html, "&lt;b&gt;hi&lt;/b&gt;")
	assert.NotContains(t, html, "<b>hi</b>")
}

func TestExport_EmptyView(t *testing.T) {
	c := newClient(t, testConfig())
	rec := c.get("/api/view/export?format=csv")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "VIEW003", decode[ErrorResponse](t, rec).Code)
}

func TestExport_BadFormat(t *testing.T) {
	c := newClient(t, testConfig())
	rec := c.get("/api/view/export?format=xml")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExport_ParquetAndJSON(t *testing.T) {
	c := newClient(t, testConfig())
	c.upload("people.csv", []byte(peopleCSV))
	c.view(`{"submit": true, "selection": ["name", "member"]}`)

	rec := c.get("/api/view/export?format=parquet")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/vnd.apache.parquet", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PAR1")))

	rec = c.get("/api/view/export?format=json")
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decode[[]map[string]any](t, rec)
	require.Len(t, rows, 3)
	assert.Equal(t, true, rows[0]["member"])
	assert.Nil(t, rows[2]["member"])
}

func TestHistoryAndStatus(t *testing.T) {
	c := newClient(t, testConfig())
	c.upload("people.csv", []byte(peopleCSV))
	c.upload("broken.pdf", []byte("%PDF"))

	got := decode[struct {
		Uploads []core.UploadRecord `json:"uploads"`
	}](t, c.get("/api/history"))
	require.Len(t, got.Uploads, 2)
	assert.Equal(t, "broken.pdf", got.Uploads[0].Filename)
	assert.False(t, got.Uploads[0].OK)
	assert.Equal(t, "people.csv", got.Uploads[1].Filename)
	assert.Equal(t, 3, got.Uploads[1].Rows)

	limited := decode[struct {
		Uploads []core.UploadRecord `json:"uploads"`
	}](t, c.get("/api/history?limit=1"))
	assert.Len(t, limited.Uploads, 1)

	status := decode[map[string]any](t, c.get("/api/status"))
	assert.Equal(t, false, status["loaded"])
	assert.Equal(t, "memory", status["history"])
}

func TestPage(t *testing.T) {
	c := newClient(t, testConfig())

	rec := c.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), core.NoFileMessage)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "script-src 'self' https://unpkg.com")
	require.Len(t, c.cookies, 1)
	assert.Equal(t, "test_session", c.cookies[0].Name)

	c.upload("people.csv", []byte(peopleCSV))
	c.view(`{"submit": true, "selection": ["name"]}`)

	html := c.get("/").Body.String()
	assert.Contains(t, html, "File Uploaded: people.csv")
	assert.Contains(t, html, `<option value="name" selected>name</option>`)
	assert.Contains(t, html, `data-column="name"`)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	c := newClient(t, cfg)

	assert.Equal(t, http.StatusOK, c.get("/api/status").Code)
	assert.Equal(t, http.StatusOK, c.get("/api/status").Code)

	rec := c.get("/api/status")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE001", decode[ErrorResponse](t, rec).Code)
}
