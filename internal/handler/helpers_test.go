package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"todo/internal/middleware"
	"todo/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// withUser stands in for the auth middleware.
func withUser(user *model.User, token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set(middleware.UserKey, user)
			c.Set(middleware.TokenKey, token)
		}
		c.Next()
	}
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	switch b := body.(type) {
	case nil:
		buf = &bytes.Buffer{}
	case string:
		buf = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		buf = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}
