package core

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	mu      sync.Mutex
	records []UploadRecord
	err     error
}

func (f *fakeHistory) RecordUpload(_ context.Context, rec UploadRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeHistory) RecentUploads(_ context.Context, limit int) ([]UploadRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]UploadRecord, 0, len(f.records))
	for i := len(f.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.records[i])
	}
	return out, nil
}

const peopleCSV = "name,age\nAnn,30\nBob,25\nCy,41\n"

func loadPeople(t *testing.T, e *Engine) {
	t.Helper()
	res, err := e.Load(context.Background(), strings.NewReader(peopleCSV), "people.csv")
	require.NoError(t, err)
	require.True(t, res.OK)
}

func TestEngine_Load(t *testing.T) {
	hist := &fakeHistory{}
	e := NewEngine(nil, WithHistory(hist))

	ctx := ContextWithClientIP(context.Background(), "10.0.0.7")
	res, err := e.Load(ctx, strings.NewReader(peopleCSV), "people.csv")
	require.NoError(t, err)

	assert.True(t, res.OK)
	assert.Equal(t, "File Uploaded: people.csv", res.Message)
	assert.Equal(t, []string{"name", "age"}, res.Columns)
	assert.Equal(t, []string{"name", "age"}, e.Columns())
	assert.Equal(t, 3, res.Info.Rows)

	require.Len(t, hist.records, 1)
	rec := hist.records[0]
	assert.True(t, rec.OK)
	assert.Equal(t, "people.csv", rec.Filename)
	assert.Equal(t, res.Info.ID, rec.ID)
	assert.Equal(t, []string{"name", "age"}, rec.ColumnNames)
	assert.Equal(t, "10.0.0.7", rec.ClientIP)
}

func TestEngine_LoadFailureResetsStore(t *testing.T) {
	hist := &fakeHistory{}
	e := NewEngine(nil, WithHistory(hist))
	loadPeople(t, e)

	res, err := e.Load(context.Background(), strings.NewReader("a,b\n1,2,3\n"), "broken.csv")
	require.NoError(t, err, "decode failures are reported in the result")

	assert.False(t, res.OK)
	assert.Equal(t, "There was an error processing this file.", res.Message)
	assert.Empty(t, res.Columns)
	assert.True(t, IsDecodeError(res.Err))
	assert.True(t, e.Store().IsEmpty())
	assert.Empty(t, e.Columns())

	require.Len(t, hist.records, 2)
	assert.False(t, hist.records[1].OK)
	assert.Contains(t, hist.records[1].Error, "too many fields")
}

func TestEngine_LoadReplacesDataset(t *testing.T) {
	e := NewEngine(nil)
	loadPeople(t, e)

	_, err := e.Load(context.Background(), strings.NewReader("x\n1\n"), "x.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"x"}, e.Columns())
	assert.Equal(t, "x.csv", e.Status().Dataset.Filename)
}

func TestEngine_LoadDataURL(t *testing.T) {
	e := NewEngine(nil)
	contents := "data:text/csv;base64," + base64.StdEncoding.EncodeToString([]byte(peopleCSV))

	res, err := e.LoadDataURL(context.Background(), contents, "people.csv")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, []string{"name", "age"}, e.Columns())
}

func TestEngine_LoadHistoryFailureIgnored(t *testing.T) {
	e := NewEngine(nil, WithHistory(&fakeHistory{err: errors.New("db down")}))

	res, err := e.Load(context.Background(), strings.NewReader(peopleCSV), "people.csv")
	require.NoError(t, err)
	assert.True(t, res.OK)
}

func TestEngine_LoadRejectedWhenBusy(t *testing.T) {
	limiter := NewUploadLimiter(1, 20*time.Millisecond)
	e := NewEngine(nil, WithLimiter(limiter))
	require.True(t, limiter.TryAcquire())
	defer limiter.Release()

	_, err := e.Load(context.Background(), strings.NewReader(peopleCSV), "people.csv")
	assert.ErrorIs(t, err, ErrTooManyUploads)
	assert.True(t, e.Store().IsEmpty())
}

func TestEngine_Project(t *testing.T) {
	e := NewEngine(nil)

	_, err := e.Project([]string{"name"})
	assert.ErrorIs(t, err, ErrEmptyDataset)

	loadPeople(t, e)
	v, err := e.Project([]string{"age"})
	require.NoError(t, err)
	assert.Equal(t, []string{"age"}, v.ColumnNames())
}

func TestEngine_UpdateCycle(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(nil)
	loadPeople(t, e)

	// Submit projects the selection.
	res, err := e.Update(ctx, Cycle{Fired: TriggerSubmit, Selection: []string{"name", "age"}})
	require.NoError(t, err)
	assert.Equal(t, ActionProject, res.Action)
	assert.Equal(t, "name, age", res.Summary)
	assert.Equal(t, 3, res.View.RowCount())
	assert.Nil(t, res.View.Sort)

	// Sorting the rendered view.
	res, err = e.Update(ctx, Cycle{
		Fired:     TriggerSort,
		Selection: []string{"name", "age"},
		Sort:      &SortDirective{Column: "age", Direction: Descending},
		View:      res.View,
	})
	require.NoError(t, err)
	assert.Equal(t, ActionSort, res.Action)
	age, _ := res.View.Column("age")
	assert.Equal(t, []Value{NumberValue(41), NumberValue(30), NumberValue(25)}, age.Values)

	// Changing the selection alone keeps the sorted view.
	sorted := res.View
	res, err = e.Update(ctx, Cycle{Fired: TriggerSelection, Selection: []string{"name"}, View: sorted})
	require.NoError(t, err)
	assert.Equal(t, ActionPassthrough, res.Action)
	assert.Same(t, sorted, res.View)
	assert.Equal(t, "name", res.Summary)

	// Submit and sort together: submit wins and the sort is dropped.
	res, err = e.Update(ctx, Cycle{
		Fired:     TriggerSubmit | TriggerSort,
		Selection: []string{"name"},
		Sort:      &SortDirective{Column: "age", Direction: Ascending},
		View:      sorted,
	})
	require.NoError(t, err)
	assert.Equal(t, ActionProject, res.Action)
	assert.Nil(t, res.View.Sort)
	name, _ := res.View.Column("name")
	assert.Equal(t, []Value{TextValue("Ann"), TextValue("Bob"), TextValue("Cy")}, name.Values)
	assert.Equal(t, []ColumnMeta{{Name: "name", ID: "name", Type: "text"}}, res.Columns)
}

func TestEngine_SubmitDropsPriorSort(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(nil)
	res, err := e.Load(ctx, strings.NewReader("a,b,c\n1,x,true\n3,z,false\n2,y,true\n"), "abc.csv")
	require.NoError(t, err)
	require.True(t, res.OK)

	shown, err := e.Update(ctx, Cycle{Fired: TriggerSubmit, Selection: []string{"a", "b", "c"}})
	require.NoError(t, err)
	sorted, err := e.Update(ctx, Cycle{
		Fired:     TriggerSort,
		Selection: []string{"a", "b", "c"},
		Sort:      &SortDirective{Column: "b", Direction: Descending},
		View:      shown.View,
	})
	require.NoError(t, err)
	b, _ := sorted.View.Column("b")
	require.Equal(t, []Value{TextValue("z"), TextValue("y"), TextValue("x")}, b.Values)

	got, err := e.Update(ctx, Cycle{Fired: TriggerSubmit, Selection: []string{"a", "c"}, View: sorted.View})
	require.NoError(t, err)

	assert.Equal(t, ActionProject, got.Action)
	assert.Nil(t, got.View.Sort)
	assert.Equal(t, []string{"a", "c"}, got.View.ColumnNames())
	a, _ := got.View.Column("a")
	assert.Equal(t, []Value{NumberValue(1), NumberValue(3), NumberValue(2)}, a.Values)
	c, _ := got.View.Column("c")
	assert.Equal(t, []Value{BoolValue(true), BoolValue(false), BoolValue(true)}, c.Values)
}

func TestEngine_UpdateDuplicateSelection(t *testing.T) {
	e := NewEngine(nil)
	loadPeople(t, e)

	_, err := e.Update(context.Background(), Cycle{Fired: TriggerSubmit, Selection: []string{"age", "age"}})
	assert.True(t, IsDuplicateColumn(err))
}

func TestEngine_UpdateWithoutDataset(t *testing.T) {
	e := NewEngine(nil)

	res, err := e.Update(context.Background(), Cycle{Fired: TriggerSubmit, Selection: []string{"a"}})
	require.NoError(t, err)

	assert.Equal(t, ActionEmpty, res.Action)
	assert.False(t, res.View.HasData())
	assert.Equal(t, "a", res.Summary)
	assert.Empty(t, res.Columns)
}

func TestEngine_UpdateUnknownColumn(t *testing.T) {
	e := NewEngine(nil)
	loadPeople(t, e)

	_, err := e.Update(context.Background(), Cycle{Fired: TriggerSubmit, Selection: []string{"salary"}})
	assert.True(t, IsUnknownColumn(err))
}

func TestEngine_Status(t *testing.T) {
	e := NewEngine(nil, WithLimiter(NewUploadLimiter(3, time.Second)))

	st := e.Status()
	assert.False(t, st.Loaded)
	assert.Equal(t, 3, st.Limiter.MaxConcurrent)

	loadPeople(t, e)
	st = e.Status()
	assert.True(t, st.Loaded)
	assert.Equal(t, "people.csv", st.Dataset.Filename)
	assert.Equal(t, int64(1), st.Limiter.Total)
}

func TestEngine_RecentUploads(t *testing.T) {
	ctx := context.Background()

	recs, err := NewEngine(nil).RecentUploads(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recs)

	e := NewEngine(nil, WithHistory(&fakeHistory{}))
	loadPeople(t, e)
	_, err = e.Load(ctx, strings.NewReader(""), "empty.csv")
	require.NoError(t, err)

	recs, err = e.RecentUploads(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "empty.csv", recs[0].Filename)
	assert.Equal(t, "people.csv", recs[1].Filename)
}

func TestStore(t *testing.T) {
	s := NewStore()
	assert.True(t, s.IsEmpty())
	assert.Empty(t, s.Columns())

	ds, err := DecodeBytes([]byte(peopleCSV), "people.csv")
	require.NoError(t, err)

	s.Replace(ds)
	assert.False(t, s.IsEmpty())
	assert.Equal(t, []string{"name", "age"}, s.Columns())
	assert.Equal(t, "people.csv", s.Info().Filename)

	s.Reset()
	assert.True(t, s.IsEmpty())
	assert.Equal(t, DatasetInfo{}, s.Info())
}
