package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/classifieds-api/internal/constants"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	prevFlags := log.Flags()
	prevOut := log.Writer()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})
	return &buf
}

func TestError_AttachesErrorField(t *testing.T) {
	buf := captureLog(t)

	Error("spend failed", errors.New("boom"), map[string]interface{}{"listing_id": 7})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	require.Equal(t, "error", entry["level"])
	require.Equal(t, "spend failed", entry["msg"])
	require.Equal(t, "boom", entry["error"])
	require.EqualValues(t, 7, entry["listing_id"])
}

func TestJSONLogger_LogsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLog(t)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(constants.ContextKeyRequestID, "req-1")
		c.Next()
	})
	r.Use(JSONLogger())
	r.GET("/listings", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	req := httptest.NewRequest(http.MethodGet, "/listings?page=2", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	require.Equal(t, "info", entry["level"])
	require.Equal(t, "/listings", entry["path"])
	require.Equal(t, "page=2", entry["query"])
	require.EqualValues(t, http.StatusTeapot, entry["status"])
	require.Equal(t, "req-1", entry["request_id"])
}
