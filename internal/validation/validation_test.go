package validation_test

import (
	"encoding/json"
	"errors"
	"testing"

	"todo/internal/model"
	"todo/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Username string `json:"username" validate:"required,max=150,username"`
	Password string `json:"password" validate:"required,min=8,notnumeric"`
	Confirm  string `json:"password_confirmation" validate:"required,eqfield=Password"`
	Color    string `json:"color" validate:"omitempty,oneof=red blue"`
}

func fieldsOf(t *testing.T, err error) map[string][]string {
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	return verr.Fields
}

func TestStruct_Valid(t *testing.T) {
	v := validation.New()
	err := validation.Struct(v, signup{Username: "alice", Password: "s3cretpass", Confirm: "s3cretpass"})
	assert.NoError(t, err)
}

func TestStruct_FieldMessages(t *testing.T) {
	v := validation.New()

	err := validation.Struct(v, signup{Username: "bad name!", Password: "12345678", Confirm: "1234", Color: "green"})

	fields := fieldsOf(t, err)
	assert.Contains(t, fields["username"][0], "Enter a valid username")
	assert.Equal(t, []string{"This password is entirely numeric."}, fields["password"])
	assert.Equal(t, []string{"The two password fields didn't match."}, fields["password_confirmation"])
	assert.Equal(t, []string{`"green" is not a valid choice.`}, fields["color"])
}

func TestStruct_Required(t *testing.T) {
	v := validation.New()

	err := validation.Struct(v, signup{})

	fields := fieldsOf(t, err)
	assert.Equal(t, []string{"This field is required."}, fields["username"])
	assert.Equal(t, []string{"This field is required."}, fields["password"])
}

func TestDecodeError_TypeMismatch(t *testing.T) {
	var body struct {
		Title model.Optional[string] `json:"title"`
	}
	err := json.Unmarshal([]byte(`{"title": 5}`), &body)
	require.Error(t, err)

	verr, ok := validation.DecodeError(err)

	require.True(t, ok)
	assert.Equal(t, []string{"Incorrect type."}, verr.Fields["title"])
}

func TestDecodeError_Malformed(t *testing.T) {
	var body map[string]any
	err := json.Unmarshal([]byte(`{"title":`), &body)

	_, ok := validation.DecodeError(err)

	assert.False(t, ok)
}
