package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCreate_Validate(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		fields []string
	}{
		{name: "minimal", body: `{"duration_minutes":30,"accuracy_rating":4}`},
		{name: "missing duration", body: `{}`, fields: []string{"duration_minutes"}},
		{name: "duration too long", body: `{"duration_minutes":1441}`, fields: []string{"duration_minutes"}},
		{name: "duration zero", body: `{"duration_minutes":0}`, fields: []string{"duration_minutes"}},
		{name: "bad song id", body: `{"duration_minutes":5,"song_id":"nope"}`, fields: []string{"song_id"}},
		{
			name:   "ratings out of range",
			body:   `{"duration_minutes":5,"accuracy_rating":6,"difficulty_rating":0,"tempo_bpm":401}`,
			fields: []string{"tempo_bpm", "accuracy_rating", "difficulty_rating"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c SessionCreate
			require.NoError(t, json.Unmarshal([]byte(tt.body), &c))
			err := c.Validate()
			if len(tt.fields) == 0 {
				require.NoError(t, err)
				return
			}
			assert.Equal(t, tt.fields, fieldsOf(t, err))
		})
	}
}

func TestSessionCreate_ToSession(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	var c SessionCreate
	require.NoError(t, json.Unmarshal([]byte(`{"duration_minutes":30,"song_id":"0B6E0D2C-4B1A-4B55-9C7B-2F7A1C2D3E4F"}`), &c))
	s := c.ToSession("user-1", now)
	assert.Equal(t, now, s.PracticedAt)
	assert.Equal(t, 30, s.DurationMinutes)
	require.NotNil(t, s.SongID)
	assert.Equal(t, "0b6e0d2c-4b1a-4b55-9c7b-2f7a1c2d3e4f", *s.SongID)
	assert.Nil(t, s.SectionID)

	var withTime SessionCreate
	require.NoError(t, json.Unmarshal([]byte(`{"duration_minutes":10,"practiced_at":"2024-01-15T08:30:00"}`), &withTime))
	s = withTime.ToSession("user-1", now)
	assert.Equal(t, time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC), s.PracticedAt)
}

func TestSessionCreate_RejectsBadTimestamp(t *testing.T) {
	var c SessionCreate
	require.Error(t, json.Unmarshal([]byte(`{"duration_minutes":10,"practiced_at":"yesterday"}`), &c))
}

func TestSessionUpdate_Fields(t *testing.T) {
	var u SessionUpdate
	body := `{"section_id":null,"practiced_at":"2024-02-01T10:00:00+02:00","notes":"metronome"}`
	require.NoError(t, json.Unmarshal([]byte(body), &u))
	require.NoError(t, u.Validate())

	fields := u.Fields()
	assert.Len(t, fields, 3)
	assert.Nil(t, fields["section_id"])
	assert.Contains(t, fields, "section_id")
	assert.Equal(t, time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC), fields["practiced_at"])
	assert.Equal(t, "metronome", fields["notes"])
}

func TestSessionUpdate_RejectsNullRequiredColumns(t *testing.T) {
	var u SessionUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"practiced_at":null,"duration_minutes":null}`), &u))
	assert.Equal(t, []string{"practiced_at", "duration_minutes"}, fieldsOf(t, u.Validate()))
}
