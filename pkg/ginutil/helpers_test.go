package ginutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newContext(method, target string, body string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return c
}

func TestParamID(t *testing.T) {
	c := newContext(http.MethodGet, "/", "")
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	id, err := ParamID(c, "id")
	assert.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, v := range []string{"", "abc", "0", "-3"} {
		c.Params = gin.Params{{Key: "id", Value: v}}
		_, err := ParamID(c, "id")
		assert.ErrorIs(t, err, ErrInvalidID, v)
	}
}

func TestQueryHelpers(t *testing.T) {
	c := newContext(http.MethodGet, "/?limit=20&category_id=3&bad=x", "")
	assert.Equal(t, 20, QueryInt(c, "limit", 10))
	assert.Equal(t, 10, QueryInt(c, "bad", 10))
	assert.Equal(t, 10, QueryInt(c, "missing", 10))

	v, err := QueryInt64(c, "category_id")
	assert.NoError(t, err)
	assert.Equal(t, int64(3), v)

	v, err = QueryInt64(c, "missing")
	assert.NoError(t, err)
	assert.Zero(t, v)

	_, err = QueryInt64(c, "bad")
	assert.Error(t, err)
}

func TestPostFormInt64(t *testing.T) {
	form := url.Values{"category_id": {" 7 "}, "edition_id": {"x"}}
	c := newContext(http.MethodPost, "/", form.Encode())

	v, err := PostFormInt64(c, "category_id")
	assert.NoError(t, err)
	assert.Equal(t, int64(7), v)

	v, err = PostFormInt64(c, "absent")
	assert.NoError(t, err)
	assert.Zero(t, v)

	_, err = PostFormInt64(c, "edition_id")
	assert.Error(t, err)
}
