package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"todo/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type patch struct {
	Title   model.Optional[string]     `json:"title"`
	DueDate model.Optional[*time.Time] `json:"due_date"`
}

func TestOptional_Absent(t *testing.T) {
	var p patch
	require.NoError(t, json.Unmarshal([]byte(`{}`), &p))

	assert.False(t, p.Title.Set)
	assert.False(t, p.DueDate.Set)
	assert.Nil(t, p.Title.Ptr())
}

func TestOptional_ExplicitNull(t *testing.T) {
	var p patch
	require.NoError(t, json.Unmarshal([]byte(`{"due_date": null}`), &p))

	assert.True(t, p.DueDate.Set)
	assert.Nil(t, p.DueDate.Value)
}

func TestOptional_Value(t *testing.T) {
	var p patch
	require.NoError(t, json.Unmarshal([]byte(`{"title": "", "due_date": "2026-01-02T15:04:05Z"}`), &p))

	assert.True(t, p.Title.Set)
	assert.Equal(t, "", *p.Title.Ptr())
	require.NotNil(t, p.DueDate.Value)
	assert.Equal(t, 2026, p.DueDate.Value.Year())
}

func TestOptional_WrongType(t *testing.T) {
	var p patch
	err := json.Unmarshal([]byte(`{"title": 12}`), &p)
	assert.Error(t, err)
}

func TestValidationError(t *testing.T) {
	verr := model.NewValidationError()
	assert.True(t, verr.Empty())

	verr.Add("title", "This field is required.")
	verr.Add("priority", `"urgent" is not a valid choice.`)

	assert.False(t, verr.Empty())
	assert.Equal(t, "validation failed: priority, title", verr.Error())
	assert.Equal(t, []string{"This field is required."}, verr.Fields["title"])
}
