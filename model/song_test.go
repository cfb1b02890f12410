package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PracticeLog/core/errs"
)

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var ve *errs.ValidationError
	require.True(t, errors.As(err, &ve), "want *errs.ValidationError, got %v", err)
	out := make([]string, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		out = append(out, f.Field)
	}
	return out
}

func TestSongCreate_Validate(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		fields []string
	}{
		{name: "minimal", body: `{"title":"Giant Steps"}`},
		{name: "missing title", body: `{"artist":"Coltrane"}`, fields: []string{"title"}},
		{name: "empty title", body: `{"title":""}`, fields: []string{"title"}},
		{name: "long title", body: `{"title":"` + strings.Repeat("a", 201) + `"}`, fields: []string{"title"}},
		{name: "multibyte title at limit", body: `{"title":"` + strings.Repeat("é", 200) + `"}`},
		{name: "long artist", body: `{"title":"x","artist":"` + strings.Repeat("a", 201) + `"}`, fields: []string{"artist"}},
		{name: "tempo zero", body: `{"title":"x","target_tempo":0}`, fields: []string{"target_tempo"}},
		{name: "tempo too high", body: `{"title":"x","target_tempo":401}`, fields: []string{"target_tempo"}},
		{
			name:   "nested section errors",
			body:   `{"title":"x","sections":[{"name":"Intro"},{"name":"","target_tempo":500}]}`,
			fields: []string{"sections[1].name", "sections[1].target_tempo"},
		},
		{name: "section without name", body: `{"title":"x","sections":[{}]}`, fields: []string{"sections[0].name"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c SongCreate
			require.NoError(t, json.Unmarshal([]byte(tt.body), &c))
			err := c.Validate()
			if len(tt.fields) == 0 {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, errs.ErrValidation)
			assert.Equal(t, tt.fields, fieldsOf(t, err))
		})
	}
}

func TestSectionCreate_ToSection_DefaultsOrderIndex(t *testing.T) {
	var c SectionCreate
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Bridge","notes":"slow"}`), &c))
	require.NoError(t, c.Validate())

	s := c.ToSection("song-1")
	assert.Equal(t, "song-1", s.SongID)
	assert.Equal(t, "Bridge", s.Name)
	assert.Equal(t, 0, s.OrderIndex)
	require.NotNil(t, s.Notes)
	assert.Equal(t, "slow", *s.Notes)
	assert.Nil(t, s.TargetTempo)
}

func TestSongUpdate_Fields_OnlyPresentKeys(t *testing.T) {
	var u SongUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"artist":null,"target_tempo":120}`), &u))
	require.NoError(t, u.Validate())

	assert.False(t, u.Title.Set)
	assert.Equal(t, map[string]any{"artist": nil, "target_tempo": 120}, u.Fields())
}

func TestSongUpdate_EmptyBodyHasNoFields(t *testing.T) {
	var u SongUpdate
	require.NoError(t, json.Unmarshal([]byte(`{}`), &u))
	require.NoError(t, u.Validate())
	assert.Empty(t, u.Fields())
}

func TestSongUpdate_RejectsNullTitle(t *testing.T) {
	var u SongUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"title":null}`), &u))
	assert.Equal(t, []string{"title"}, fieldsOf(t, u.Validate()))
}

func TestSectionUpdate_Validate(t *testing.T) {
	var u SectionUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"name":"","order_index":null,"target_tempo":0,"notes":null}`), &u))
	assert.Equal(t, []string{"name", "order_index", "target_tempo"}, fieldsOf(t, u.Validate()))

	var ok SectionUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"order_index":3,"notes":null}`), &ok))
	require.NoError(t, ok.Validate())
	assert.Equal(t, map[string]any{"order_index": 3, "notes": nil}, ok.Fields())
}
