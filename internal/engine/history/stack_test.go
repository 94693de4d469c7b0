package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogEmpty(t *testing.T) {
	l := NewLog(0)

	assert.False(t, l.CanUndo())
	assert.False(t, l.CanRedo())
	assert.Equal(t, 0, l.Index())
	assert.Equal(t, 0, l.Len())

	_, err := l.Current()
	assert.ErrorIs(t, err, ErrEmptyHistory)
	_, err = l.At(0)
	assert.ErrorIs(t, err, ErrEmptyHistory)
	assert.ErrorIs(t, l.MoveTo(0), ErrEmptyHistory)
}

func TestLogPush(t *testing.T) {
	l := NewLog(0)

	l.Push("s0")
	assert.Equal(t, 0, l.Index())
	assert.False(t, l.CanUndo())
	assert.False(t, l.CanRedo())

	l.Push("s1")
	assert.Equal(t, 1, l.Index())
	assert.True(t, l.CanUndo())
	assert.False(t, l.CanRedo())

	cur, err := l.Current()
	require.NoError(t, err)
	assert.Equal(t, Snapshot("s1"), cur)
}

func TestLogPushDiscardsRedoBranch(t *testing.T) {
	l := NewLog(0)
	l.Push("s0")
	l.Push("s1")
	l.Push("s2")

	require.NoError(t, l.MoveTo(1))
	assert.True(t, l.CanRedo())

	l.Push("s1'")
	assert.Equal(t, []Snapshot{"s0", "s1", "s1'"}, l.Snapshots())
	assert.Equal(t, 2, l.Index())
	assert.False(t, l.CanRedo())
}

func TestLogPushAfterFullUndo(t *testing.T) {
	l := NewLog(0)
	l.Push("s0")
	l.Push("s1")
	l.Push("s2")
	require.NoError(t, l.MoveTo(0))

	l.Push("x")
	assert.Equal(t, []Snapshot{"s0", "x"}, l.Snapshots())
	assert.Equal(t, 1, l.Index())
}

func TestLogAtAndMoveTo(t *testing.T) {
	l := NewLog(0)
	l.Push("a")
	l.Push("b")

	s, err := l.At(0)
	require.NoError(t, err)
	assert.Equal(t, Snapshot("a"), s)

	_, err = l.At(2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = l.At(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	assert.ErrorIs(t, l.MoveTo(5), ErrIndexOutOfRange)
	assert.Equal(t, 1, l.Index())
}

func TestLogMaxEntries(t *testing.T) {
	l := NewLog(3)
	for _, s := range []Snapshot{"a", "b", "c", "d", "e"} {
		l.Push(s)
	}

	assert.Equal(t, []Snapshot{"c", "d", "e"}, l.Snapshots())
	assert.Equal(t, 2, l.Index())

	cur, err := l.Current()
	require.NoError(t, err)
	assert.Equal(t, Snapshot("e"), cur)
}

func TestLogSetMaxEntriesKeepsCursorSnapshot(t *testing.T) {
	l := NewLog(0)
	for _, s := range []Snapshot{"a", "b", "c", "d"} {
		l.Push(s)
	}
	require.NoError(t, l.MoveTo(1))

	l.SetMaxEntries(2)
	assert.Equal(t, 2, l.MaxEntries())

	cur, err := l.Current()
	require.NoError(t, err)
	assert.Equal(t, Snapshot("b"), cur)
	assert.Equal(t, 0, l.Index())
	assert.Equal(t, []Snapshot{"b", "c", "d"}, l.Snapshots())

	l.SetMaxEntries(-1)
	assert.Equal(t, 0, l.MaxEntries())
}

func TestLogEntriesAndClear(t *testing.T) {
	l := NewLog(0)
	l.Push("abc")
	l.Push("de")
	require.NoError(t, l.MoveTo(0))

	entries := l.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, 3, entries[0].Size)
	assert.True(t, entries[0].Current)
	assert.False(t, entries[1].Current)
	assert.False(t, entries[1].Timestamp.IsZero())

	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 0, l.Index())
}

func TestLogTrimKeepsPinnedEntry(t *testing.T) {
	l := NewLog(0)
	for _, s := range []Snapshot{"a", "b", "c", "d", "e"} {
		l.Push(s)
	}
	l.pin(2)

	l.SetMaxEntries(2)
	assert.Equal(t, []Snapshot{"c", "d", "e"}, l.Snapshots())

	i, err := l.settle(true)
	require.NoError(t, err)
	assert.Equal(t, 0, i)
	cur, err := l.Current()
	require.NoError(t, err)
	assert.Equal(t, Snapshot("c"), cur)
}

func TestLogSettleWithoutMoveAppliesTrim(t *testing.T) {
	l := NewLog(0)
	for _, s := range []Snapshot{"a", "b", "c", "d"} {
		l.Push(s)
	}
	l.pin(0)
	l.SetMaxEntries(2)
	assert.Equal(t, 4, l.Len())

	i, err := l.settle(false)
	require.NoError(t, err)
	assert.Equal(t, 1, i)
	assert.Equal(t, []Snapshot{"c", "d"}, l.Snapshots())
}

func TestLogSettleAfterClear(t *testing.T) {
	l := NewLog(0)
	l.Push("a")
	l.Push("b")
	l.pin(0)
	l.Clear()

	_, err := l.settle(true)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}
