package canvas

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/stickies/internal/apperr"
	"github.com/starford/stickies/internal/models"
	"github.com/starford/stickies/internal/testutil"
)

const testKey = "sticky-notes"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("note-%d", n)
	}
}

func newTestStore(t *testing.T, p *testutil.Persistence) *Store {
	t.Helper()
	clock := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	return NewStore(p, testKey,
		WithLogger(quietLogger()),
		WithIDGenerator(sequentialIDs()),
		WithClock(func() time.Time { return clock }),
	)
}

func ids(notes []models.Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.ID
	}
	return out
}

func TestAddNoteTwice(t *testing.T) {
	s := newTestStore(t, testutil.NewPersistence())
	require.False(t, s.Dirty())

	a := s.AddNote()
	assert.True(t, s.Dirty(), "dirty after first add")
	b := s.AddNote()

	assert.NotEqual(t, a.ID, b.ID)
	for _, n := range s.Notes() {
		assert.Equal(t, "New Note", n.Text)
		assert.Equal(t, models.SeverityInfo, n.Severity)
		assert.Equal(t, models.Position{X: 400, Y: 200}, n.Position)
		assert.Nil(t, n.SavedAt)
	}
}

func TestAddNoteSkipsCollidingID(t *testing.T) {
	calls := 0
	gen := func() string {
		calls++
		if calls <= 2 {
			return "same"
		}
		return "other"
	}
	s := NewStore(testutil.NewPersistence(), testKey, WithLogger(quietLogger()), WithIDGenerator(gen))
	s.AddNote()
	n := s.AddNote()
	assert.Equal(t, "other", n.ID)
}

func TestUpdateNoteReplacesInPlace(t *testing.T) {
	s := newTestStore(t, testutil.NewPersistence())
	s.AddNote()
	b := s.AddNote()
	s.AddNote()

	b.Text = "edited"
	require.True(t, s.UpdateNote(b))
	assert.Equal(t, []string{"note-1", "note-2", "note-3"}, ids(s.Notes()))
	got, _ := s.Note("note-2")
	assert.Equal(t, "edited", got.Text)
}

func TestUpdateUnknownNoteIsNoop(t *testing.T) {
	p := testutil.NewPersistence()
	p.Seed(t, testKey, []models.Note{models.NewNote("a")})
	s := newTestStore(t, p)
	require.NoError(t, s.Load(context.Background()))
	before := s.Notes()

	assert.False(t, s.UpdateNote(models.NewNote("ghost")))
	assert.Equal(t, before, s.Notes())
	assert.False(t, s.Dirty())
}

func TestUpdateNoteTruncatesText(t *testing.T) {
	s := newTestStore(t, testutil.NewPersistence())
	n := s.AddNote()
	n.Text = string(make([]rune, 400))
	s.UpdateNote(n)
	got, _ := s.Note(n.ID)
	assert.Len(t, []rune(got.Text), models.MaxTextLength)
}

func TestDeleteNotesBatch(t *testing.T) {
	s := newTestStore(t, testutil.NewPersistence())
	for range 4 {
		s.AddNote()
	}
	s.Selection().ToggleSelectMode(true)
	s.Selection().ToggleSelect("note-2")

	removed := s.DeleteNotes("note-2", "note-4", "missing")
	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{"note-1", "note-3"}, ids(s.Notes()))
	assert.False(t, s.Selection().Active())
	assert.Zero(t, s.Selection().Len())
}

func TestMutationSequencesKeepIDsUniqueAndOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := newTestStore(t, testutil.NewPersistence())
	var expected []string

	for step := 0; step < 500; step++ {
		switch rng.Intn(3) {
		case 0:
			n := s.AddNote()
			expected = append(expected, n.ID)
		case 1:
			if len(expected) == 0 {
				continue
			}
			id := expected[rng.Intn(len(expected))]
			n, ok := s.Note(id)
			require.True(t, ok)
			n.Position.X = rng.Intn(1000) - 500
			require.True(t, s.UpdateNote(n))
		case 2:
			if len(expected) == 0 {
				continue
			}
			victim := expected[rng.Intn(len(expected))]
			s.DeleteNotes(victim)
			kept := expected[:0]
			for _, id := range expected {
				if id != victim {
					kept = append(kept, id)
				}
			}
			expected = kept
		}

		got := ids(s.Notes())
		seen := make(map[string]bool, len(got))
		for _, id := range got {
			require.False(t, seen[id], "duplicate id %s at step %d", id, step)
			seen[id] = true
		}
		require.Equal(t, len(expected), len(got))
		if len(expected) > 0 {
			require.Equal(t, expected, got)
		}
	}
}

func TestCommitThenResetRoundTrip(t *testing.T) {
	p := testutil.NewPersistence()
	s := newTestStore(t, p)
	ctx := context.Background()

	a := s.AddNote()
	a.Text = "first"
	a.Severity = models.SeverityError
	a.Position = models.Position{X: -3, Y: 77}
	a.Pinned = true
	a = a.ToggleBreakpoint(models.BreakpointLarge)
	s.UpdateNote(a)
	s.AddNote()

	require.NoError(t, s.Commit(ctx))
	assert.False(t, s.Dirty())
	committed := s.Notes()
	for _, n := range committed {
		require.NotNil(t, n.SavedAt)
	}

	require.NoError(t, s.Reset(ctx))
	assert.False(t, s.Dirty())
	assert.Equal(t, committed, s.Notes())
}

func TestCommitFailureKeepsDirty(t *testing.T) {
	p := testutil.NewPersistence()
	s := newTestStore(t, p)
	s.AddNote()
	p.FailCommit = true

	err := s.Commit(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrCommitFailed)
	assert.True(t, s.Dirty())
	n, _ := s.Note("note-1")
	assert.Nil(t, n.SavedAt)
}

func TestMutationDuringCommitKeepsDirty(t *testing.T) {
	p := testutil.NewPersistence()
	s := newTestStore(t, p)
	ctx := context.Background()
	s.AddNote()

	snap := s.CommitSnapshot()
	s.AddNote()
	require.NoError(t, p.Commit(ctx, testKey, snap.Notes))
	require.NoError(t, s.ApplyCommit(snap, nil))

	assert.True(t, s.Dirty(), "the note added in flight is not stored")
	first, _ := s.Note("note-1")
	assert.NotNil(t, first.SavedAt)
	second, _ := s.Note("note-2")
	assert.Nil(t, second.SavedAt)
	assert.Len(t, p.Stored(t, testKey), 1)

	require.NoError(t, s.Commit(ctx))
	assert.False(t, s.Dirty())
	assert.Len(t, p.Stored(t, testKey), 2)
}

func TestEveryMutationDuringCommitKeepsDirty(t *testing.T) {
	mutations := map[string]func(t *testing.T, s *Store){
		"update": func(_ *testing.T, s *Store) {
			n, _ := s.Note("note-1")
			n.Text = "edited"
			s.UpdateNote(n)
		},
		"delete": func(_ *testing.T, s *Store) { s.DeleteNotes("note-1") },
		"align": func(t *testing.T, s *Store) {
			s.Selection().ToggleSelectMode(true)
			s.Selection().ToggleSelect("note-1")
			s.Selection().ToggleSelect("note-2")
			require.NoError(t, s.Align(AxisX))
		},
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t, testutil.NewPersistence())
			s.AddNote()
			second := s.AddNote()
			second.Position = models.Position{X: 10, Y: 10}
			s.UpdateNote(second)

			snap := s.CommitSnapshot()
			mutate(t, s)
			require.NoError(t, s.ApplyCommit(snap, nil))
			assert.True(t, s.Dirty())
		})
	}
}

func TestUnknownUpdateDuringCommitStillClears(t *testing.T) {
	s := newTestStore(t, testutil.NewPersistence())
	s.AddNote()

	snap := s.CommitSnapshot()
	s.UpdateNote(models.NewNote("missing"))
	s.DeleteNotes("missing")
	require.NoError(t, s.ApplyCommit(snap, nil))
	assert.False(t, s.Dirty())
}

func TestLoadFailureYieldsEmptyClean(t *testing.T) {
	p := testutil.NewPersistence()
	s := newTestStore(t, p)
	s.AddNote()
	p.FailLoad = true

	err := s.Load(context.Background())
	assert.Error(t, err)
	assert.Zero(t, s.Len())
	assert.False(t, s.Dirty())
}

func TestLoadDropsDuplicateIDs(t *testing.T) {
	p := testutil.NewPersistence()
	first := models.NewNote("dup")
	first.Text = "kept"
	second := models.NewNote("dup")
	second.Text = "dropped"
	p.Seed(t, testKey, []models.Note{first, second, models.NewNote("other")})

	s := newTestStore(t, p)
	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, []string{"dup", "other"}, ids(s.Notes()))
	n, _ := s.Note("dup")
	assert.Equal(t, "kept", n.Text)
}

func TestResetDiscardsEdits(t *testing.T) {
	p := testutil.NewPersistence()
	p.Seed(t, testKey, []models.Note{models.NewNote("a")})
	s := newTestStore(t, p)
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))

	n, _ := s.Note("a")
	n.Text = "unsaved"
	s.UpdateNote(n)
	s.AddNote()
	require.True(t, s.Dirty())

	require.NoError(t, s.Reset(ctx))
	assert.Equal(t, []string{"a"}, ids(s.Notes()))
	n, _ = s.Note("a")
	assert.Equal(t, "New Note", n.Text)
}

func TestAutoReloadFiresOncePerEmptyTransition(t *testing.T) {
	p := testutil.NewPersistence()
	s := newTestStore(t, p)
	ctx := context.Background()

	// Initial mount of an empty store.
	require.True(t, s.PendingReload())
	require.False(t, s.PendingReload(), "consumed")

	// Load returns nothing: no further reload while still empty.
	require.NoError(t, s.Load(ctx))
	assert.False(t, s.PendingReload())
	require.NoError(t, s.Load(ctx))
	assert.False(t, s.PendingReload())

	// Becomes non-empty then empty again: one more reload.
	n := s.AddNote()
	assert.False(t, s.PendingReload())
	s.DeleteNotes(n.ID)
	assert.True(t, s.PendingReload())
	assert.False(t, s.PendingReload())
}

func TestStoreAlignClearsSelection(t *testing.T) {
	s := newTestStore(t, testutil.NewPersistence())
	a, b := s.AddNote(), s.AddNote()
	a.Position = models.Position{X: 10, Y: 10}
	b.Position = models.Position{X: 90, Y: 50}
	s.UpdateNote(a)
	s.UpdateNote(b)
	require.NoError(t, s.Commit(context.Background()))

	sel := s.Selection()
	sel.ToggleSelectMode(true)
	sel.ToggleSelect(b.ID)
	sel.ToggleSelect(a.ID)

	require.NoError(t, s.Align(AxisX))
	assert.True(t, s.Dirty())
	assert.False(t, sel.Active())
	assert.Zero(t, sel.Len())
	got, _ := s.Note(a.ID)
	assert.Equal(t, models.Position{X: 90, Y: 10}, got.Position)
}

func TestStoreAlignRejectsSingleSelection(t *testing.T) {
	s := newTestStore(t, testutil.NewPersistence())
	a := s.AddNote()
	s.AddNote()
	require.NoError(t, s.Commit(context.Background()))
	before := s.Notes()

	s.Selection().ToggleSelectMode(true)
	s.Selection().ToggleSelect(a.ID)
	err := s.Align(AxisY)
	assert.ErrorIs(t, err, apperr.ErrAlignPrecondition)
	assert.Equal(t, before, s.Notes())
	assert.False(t, s.Dirty())
	assert.True(t, s.Selection().Active(), "failed align leaves select-mode untouched")
}
