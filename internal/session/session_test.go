package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabula-cli/internal/ai"
)

func TestCreateAndAppend(t *testing.T) {
	s := NewStore()
	id := s.Create()
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	s.Append(id, "top 1 region by sales", "North: 130")
	assert.Equal(t, []ai.Message{
		{Role: ai.RoleUser, Content: "top 1 region by sales"},
		{Role: ai.RoleAssistant, Content: "North: 130"},
	}, s.History(id))
}

func TestHistoryIsCapped(t *testing.T) {
	s := NewStore()
	id := s.Create()
	for i := 0; i < MaxTurns; i++ {
		s.Append(id, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}
	h := s.History(id)
	require.Len(t, h, MaxTurns)
	assert.Equal(t, fmt.Sprintf("q%d", MaxTurns/2), h[0].Content)
	assert.Equal(t, fmt.Sprintf("a%d", MaxTurns-1), h[len(h)-1].Content)
}

func TestHistoryIsACopy(t *testing.T) {
	s := NewStore()
	id := s.Create()
	s.Append(id, "q", "a")
	h := s.History(id)
	h[0].Content = "changed"
	assert.Equal(t, "q", s.History(id)[0].Content)
}

func TestEnsure(t *testing.T) {
	s := NewStore()
	id := s.Create()
	assert.Equal(t, id, s.Ensure(id))
	other := s.Ensure("missing")
	assert.NotEqual(t, "missing", other)
	assert.Equal(t, 2, s.Len())

	s.Delete(id)
	assert.Nil(t, s.History(id))
	assert.Equal(t, 1, s.Len())
}

// clock is a settable time source.
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestIdleSessionsExpire(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := NewBoundedStore(time.Hour, 100)
	s.now = c.now

	stale := s.Create()
	c.t = c.t.Add(30 * time.Minute)
	active := s.Create()
	c.t = c.t.Add(45 * time.Minute)
	s.Append(active, "q", "a")

	// stale has been idle 75 minutes, active 0
	assert.NotEqual(t, stale, s.Ensure(stale))
	assert.Nil(t, s.History(stale))
	assert.Equal(t, active, s.Ensure(active))
	assert.Equal(t, 2, s.Len())
}

func TestCreateEvictsExpiredAndOldest(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := NewBoundedStore(time.Hour, 3)
	s.now = c.now

	var ids []string
	for i := 0; i < 3; i++ {
		ids = append(ids, s.Create())
		c.t = c.t.Add(time.Minute)
	}
	s.Append(ids[0], "q", "a")

	// Full: the least recently updated session (ids[1]) makes room.
	newest := s.Create()
	assert.Equal(t, 3, s.Len())
	assert.Nil(t, s.History(ids[1]))
	assert.Equal(t, ids[0], s.Ensure(ids[0]))
	assert.Equal(t, newest, s.Ensure(newest))

	// Two hours later everything has expired.
	c.t = c.t.Add(2 * time.Hour)
	s.Create()
	assert.Equal(t, 1, s.Len())
}

func TestNewBoundedStoreDefaults(t *testing.T) {
	s := NewBoundedStore(0, -1)
	assert.Equal(t, DefaultMaxIdle, s.maxIdle)
	assert.Equal(t, DefaultMaxSessions, s.maxSessions)
}
