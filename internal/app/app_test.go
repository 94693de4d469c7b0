package app

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dshills/texona/internal/canvas"
	"github.com/dshills/texona/internal/config"
	"github.com/dshills/texona/internal/engine/history"
	"github.com/dshills/texona/internal/event"
	"github.com/dshills/texona/internal/project"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.New()
	require.NoError(t, cfg.Set("canvas.width", 320))
	require.NoError(t, cfg.Set("canvas.height", 240))
	return cfg
}

func newTestEditor(t *testing.T) (*Editor, *project.SQLiteStore, string) {
	t.Helper()
	store, err := project.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	p, err := store.Create(context.Background(), "Poster", 300, 200)
	require.NoError(t, err)

	e, err := New(Options{Config: testConfig(t), Store: store})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e, store, p.ID
}

func storedObjects(t *testing.T, store project.Store, id string) []gjson.Result {
	t.Helper()
	p, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	return gjson.Get(p.JSON, "objects").Array()
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(Options{})
	assert.ErrorIs(t, err, ErrMissingStore)
}

func TestOpenSeedsWorkspace(t *testing.T) {
	e, store, id := newTestEditor(t)
	require.NoError(t, e.Open(context.Background(), id))

	assert.Equal(t, id, e.ProjectID())
	ws, ok := e.Canvas().FindByName("clip")
	require.True(t, ok)
	assert.Equal(t, 300.0, ws.Width)
	assert.Equal(t, 200.0, ws.Height)

	st := e.Status()
	assert.Equal(t, 1, st.Len)
	assert.Equal(t, 0, st.Index)
	assert.False(t, e.CanUndo())

	p, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, gjson.Get(p.JSON, "objects").Array(), 1)
	assert.Equal(t, 300.0, p.Width)
	assert.True(t, strings.HasPrefix(p.ThumbnailURL, "data:image/png;base64,"))
}

func TestOpenMissingProject(t *testing.T) {
	e, _, _ := newTestEditor(t)
	err := e.Open(context.Background(), "missing")
	assert.ErrorIs(t, err, project.ErrNotFound)

	var opErr *OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "open", opErr.Op)
}

func TestEditsAreRecordedAndUndoable(t *testing.T) {
	e, store, id := newTestEditor(t)
	require.NoError(t, e.Open(context.Background(), id))
	c := e.Canvas()

	rect, err := c.Add(canvas.NewRect(10, 10, 50, 50, "#ff0000"))
	require.NoError(t, err)
	require.NoError(t, c.Set(rect, "fill", "#00ff00"))
	assert.Equal(t, 3, e.Status().Len)
	assert.Equal(t, 2, e.Status().Index)

	require.NoError(t, e.Undo())
	st := e.Status()
	assert.Equal(t, 3, st.Len, "loading a snapshot must not record entries")
	assert.Equal(t, 1, st.Index)
	assert.True(t, st.CanRedo)

	objs := c.Find(func(o *canvas.Object) bool { return o.Type == canvas.TypeRect && o.Name() != "clip" })
	require.Len(t, objs, 1)
	assert.Equal(t, "#ff0000", objs[0].String("fill"))

	stored := storedObjects(t, store, id)
	require.Len(t, stored, 2)
	assert.Equal(t, "#ff0000", stored[1].Get("fill").String())

	require.NoError(t, e.Undo())
	assert.Equal(t, 0, e.Status().Index)
	assert.Equal(t, 1, c.Len())
	assert.Len(t, storedObjects(t, store, id), 1)

	require.NoError(t, e.Redo())
	require.NoError(t, e.Redo())
	st = e.Status()
	assert.Equal(t, 2, st.Index)
	assert.Equal(t, 3, st.Len)
	assert.False(t, e.CanRedo())
	assert.Equal(t, "#00ff00", storedObjects(t, store, id)[1].Get("fill").String())
}

func TestEditAfterUndoDropsRedo(t *testing.T) {
	e, _, id := newTestEditor(t)
	require.NoError(t, e.Open(context.Background(), id))
	c := e.Canvas()

	_, err := c.Add(canvas.NewRect(0, 0, 10, 10, "#000000"))
	require.NoError(t, err)
	_, err = c.Add(canvas.NewCircle(20, 20, 5, "#000000"))
	require.NoError(t, err)
	require.NoError(t, e.Undo())
	require.True(t, e.CanRedo())

	_, err = c.Add(canvas.NewTextbox(0, 0, "hi", 12, "#000000"))
	require.NoError(t, err)

	st := e.Status()
	assert.Equal(t, 3, st.Len)
	assert.Equal(t, 2, st.Index)
	assert.False(t, e.CanRedo())
}

func TestUndoAtBoundaryIsNoop(t *testing.T) {
	e, _, id := newTestEditor(t)
	require.NoError(t, e.Open(context.Background(), id))

	require.NoError(t, e.Undo())
	require.NoError(t, e.Redo())
	assert.Equal(t, history.Status{Index: 0, Len: 1}, e.Status())
}

func TestReopenLoadsStoredDocument(t *testing.T) {
	e, store, id := newTestEditor(t)
	ctx := context.Background()
	require.NoError(t, e.Open(ctx, id))
	_, err := e.Canvas().Add(canvas.NewRect(5, 5, 20, 20, "#123456"))
	require.NoError(t, err)

	e2, err := New(Options{Config: testConfig(t), Store: store})
	require.NoError(t, err)
	defer e2.Close()
	require.NoError(t, e2.Open(ctx, id))

	assert.Equal(t, 2, e2.Canvas().Len())
	assert.Equal(t, 1, e2.Status().Len)
	_, ok := e2.Canvas().FindByName("clip")
	assert.True(t, ok)
}

func TestOpenReplacesPreviousProject(t *testing.T) {
	e, store, first := newTestEditor(t)
	ctx := context.Background()
	second, err := store.Create(ctx, "Second", 100, 100)
	require.NoError(t, err)

	require.NoError(t, e.Open(ctx, first))
	oldCanvas := e.Canvas()
	require.NoError(t, e.Open(ctx, second.ID))

	// Edits on the old canvas no longer reach the session.
	_, err = oldCanvas.Add(canvas.NewRect(0, 0, 1, 1, "#000000"))
	require.NoError(t, err)
	assert.Equal(t, 1, e.Status().Len)
	assert.Len(t, storedObjects(t, store, first), 1)
}

func TestBatchRecordsOneStep(t *testing.T) {
	e, _, id := newTestEditor(t)
	require.NoError(t, e.Open(context.Background(), id))
	c := e.Canvas()

	err := e.Batch("grid", func() error {
		for i := range 3 {
			if _, err := c.Add(canvas.NewRect(float64(i*10), 0, 5, 5, "#000000")); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, e.Status().Len)

	require.NoError(t, e.Undo())
	assert.Equal(t, 1, c.Len())
}

func TestEditorPublishesHistoryEvents(t *testing.T) {
	e, _, id := newTestEditor(t)

	var changes []history.Status
	var saves []SavedEvent
	_, err := e.Bus().Subscribe(TopicHistoryChanged, func(_ context.Context, env event.Envelope) error {
		st, _ := event.PayloadAs[history.Status](env)
		changes = append(changes, st)
		return nil
	})
	require.NoError(t, err)
	_, err = e.Bus().Subscribe(TopicHistorySaved, func(_ context.Context, env event.Envelope) error {
		ev, _ := event.PayloadAs[SavedEvent](env)
		saves = append(saves, ev)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, e.Open(context.Background(), id))
	_, err = e.Canvas().Add(canvas.NewRect(0, 0, 1, 1, "#000000"))
	require.NoError(t, err)

	require.Len(t, changes, 2)
	assert.Equal(t, 1, changes[1].Index)
	require.Len(t, saves, 2)
	assert.True(t, saves[1].Recorded)
	assert.True(t, saves[1].HasThumbnail)
	assert.Equal(t, id, saves[1].ProjectID)
}

func TestApplyConfigCapsHistory(t *testing.T) {
	e, _, id := newTestEditor(t)
	require.NoError(t, e.Open(context.Background(), id))
	for i := range 4 {
		_, err := e.Canvas().Add(canvas.NewRect(float64(i), 0, 1, 1, "#000000"))
		require.NoError(t, err)
	}
	require.Equal(t, 5, e.Status().Len)

	require.NoError(t, e.cfg.Set("history.maxEntries", 2))
	e.ApplyConfig()

	st := e.Status()
	assert.Equal(t, 2, st.Len)
	assert.Equal(t, 1, st.Index)
}

func TestThumbnailsCanBeDisabled(t *testing.T) {
	store, err := project.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer store.Close()
	p, err := store.Create(context.Background(), "Plain", 50, 50)
	require.NoError(t, err)

	cfg := testConfig(t)
	require.NoError(t, cfg.Set("thumbnail.enabled", false))
	e, err := New(Options{Config: cfg, Store: store})
	require.NoError(t, err)
	defer e.Close()
	require.NoError(t, e.Open(context.Background(), p.ID))

	got, err := store.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ThumbnailURL)
	assert.NotEmpty(t, got.JSON)
}

func TestOperationsNeedOpenProject(t *testing.T) {
	e, _, id := newTestEditor(t)

	assert.ErrorIs(t, e.Undo(), ErrNoProject)
	assert.ErrorIs(t, e.Save(false), ErrNoProject)
	assert.False(t, e.CanUndo())
	assert.Equal(t, history.Status{}, e.Status())

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.ErrorIs(t, e.Redo(), ErrClosed)
	assert.ErrorIs(t, e.Open(context.Background(), id), ErrClosed)
	assert.Nil(t, e.Canvas())
}

func TestSaveSkipHistoryPersistsWithoutRecording(t *testing.T) {
	e, store, id := newTestEditor(t)
	require.NoError(t, e.Open(context.Background(), id))

	// Stop edit tracking so only the explicit save runs.
	e.subs.unsubscribeAll()
	_, err := e.Canvas().Add(canvas.NewRect(0, 0, 1, 1, "#000000"))
	require.NoError(t, err)
	require.NoError(t, e.Save(true))

	assert.Equal(t, 1, e.Status().Len)
	assert.Len(t, storedObjects(t, store, id), 2)
	assert.NoError(t, e.PersistError())
}

func TestNonFiniteEditKeepsProjectLoadable(t *testing.T) {
	e, store, id := newTestEditor(t)
	ctx := context.Background()
	require.NoError(t, e.Open(ctx, id))

	oid, err := e.Canvas().Add(canvas.NewRect(5, 5, 20, 20, "#123456"))
	require.NoError(t, err)
	assert.ErrorIs(t, e.Canvas().Set(oid, "angle", math.Inf(1)), canvas.ErrInvalidValue)
	require.NoError(t, e.Save(false))

	require.NoError(t, e.Undo())
	require.NoError(t, e.Redo())
	assert.NoError(t, e.LoadError())

	e2, err := New(Options{Config: testConfig(t), Store: store})
	require.NoError(t, err)
	defer e2.Close()
	require.NoError(t, e2.Open(ctx, id))
	assert.Equal(t, 2, e2.Canvas().Len())
}
