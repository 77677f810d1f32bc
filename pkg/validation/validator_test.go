package validation

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type loginBody struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func bind(body string) error {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	var in loginBody
	return c.ShouldBindJSON(&in)
}

func TestToDetails_UsesJSONNames(t *testing.T) {
	Init()
	got := ToDetails(bind(`{"email":"a@x.com"}`))
	assert.Equal(t, map[string]string{"password": "is required"}, got)
}

func TestToDetails_Payloads(t *testing.T) {
	Init()
	assert.Nil(t, ToDetails(nil))
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(bind(`{"email":`+"\x00")))
	assert.Equal(t, map[string]string{"payload": "request body is empty"}, ToDetails(bind(``)))
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(bind(`{"email":1}`)))
}
