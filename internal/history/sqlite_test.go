// Copyright 2025 The Mongoward Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite(t *testing.T) {
	t.Run("empty path rejected", func(t *testing.T) {
		_, err := OpenSQLite("")
		assert.Error(t, err)
	})

	t.Run("creates schema on disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.db")
		r, err := OpenSQLite(path)
		require.NoError(t, err)
		defer r.Close()

		events, err := r.Recent(context.Background(), 10)
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}

func TestRecordAndRecent(t *testing.T) {
	r, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer r.Close()

	ctx := context.Background()

	require.NoError(t, r.Record(ctx, Event{
		AttemptID: "attempt-1",
		Type:      EventStart,
	}))
	require.NoError(t, r.Record(ctx, Event{
		AttemptID:  "attempt-1",
		Type:       EventReady,
		PID:        4242,
		OccurredAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, r.Record(ctx, Event{
		AttemptID: "attempt-2",
		Type:      EventStartFailure,
		Detail:    "port already in use",
	}))

	events, err := r.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 3)

	// Newest first.
	assert.Equal(t, EventStartFailure, events[0].Type)
	assert.Equal(t, "port already in use", events[0].Detail)
	assert.Equal(t, EventReady, events[1].Type)
	assert.Equal(t, 4242, events[1].PID)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), events[1].OccurredAt)
	assert.Equal(t, EventStart, events[2].Type)

	t.Run("limit applies", func(t *testing.T) {
		events, err := r.Recent(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})

	t.Run("zero time filled at record", func(t *testing.T) {
		assert.False(t, events[2].OccurredAt.IsZero())
	})
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = Nop{}
	assert.NoError(t, r.Record(context.Background(), Event{Type: EventStop}))
	assert.NoError(t, r.Close())
}
