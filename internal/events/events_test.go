package events

import (
	"context"
	"testing"
	"time"

	"github.com/cankoe/survey-runner/internal/models"
	"github.com/cankoe/survey-runner/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStampNeverGoesBackwards(t *testing.T) {
	l := NewLog(store.NewMemoryStore())
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := []time.Time{base, base.Add(-time.Second), base.Add(2 * time.Second)}
	l.now = func() time.Time {
		ts := clock[0]
		clock = clock[1:]
		return ts
	}

	first := l.Stamp("r1")
	second := l.Stamp("r1")
	third := l.Stamp("r1")

	assert.Equal(t, base, first)
	assert.Equal(t, base, second)
	assert.Equal(t, base.Add(2*time.Second), third)
}

func TestStampIsPerRun(t *testing.T) {
	l := NewLog(store.NewMemoryStore())
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }
	l.Stamp("r1")

	earlier := base.Add(-time.Minute)
	l.now = func() time.Time { return earlier }
	assert.Equal(t, earlier, l.Stamp("r2"))
	assert.Equal(t, base, l.Stamp("r1"))

	l.Forget("r1")
	assert.Equal(t, earlier, l.Stamp("r1"))
}

func TestAppendAndList(t *testing.T) {
	ctx := context.Background()
	l := NewLog(store.NewMemoryStore())

	for _, code := range []string{"RUN_ENQUEUED", "RUN_STARTED", "LOGIN_OK"} {
		_, err := l.Append(ctx, &models.RunEvent{TenantID: "T1", RunID: "r1", Level: models.LevelInfo, Code: code})
		require.NoError(t, err)
	}

	events, err := l.List(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Ts.Before(events[i-1].Ts))
	}
	assert.NotEmpty(t, events[0].ID)
}

func TestAppendRejectsMalformedEvents(t *testing.T) {
	ctx := context.Background()
	l := NewLog(store.NewMemoryStore())

	_, err := l.Append(ctx, &models.RunEvent{TenantID: "T1", RunID: "r1", Level: "debug", Code: "X"})
	assert.Error(t, err)

	_, err = l.Append(ctx, &models.RunEvent{RunID: "r1", Level: models.LevelInfo, Code: "X"})
	assert.Error(t, err)
}
