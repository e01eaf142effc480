package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/rentalhub/internal/http/handlers"
	"github.com/geocoder89/rentalhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
	handlers.RegisterValidators()
}

type envelope struct {
	Success    bool            `json:"success"`
	Msg        string          `json:"msg"`
	Count      int             `json:"count"`
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		Next *handlers.PageRef `json:"next"`
		Prev *handlers.PageRef `json:"prev"`
	} `json:"pagination"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// as returns middleware that plays the part of RequireAuth for a fixed actor.
func as(id, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middlewares.CtxUserID, id)
		c.Set(middlewares.CtxRole, role)
		c.Next()
	}
}

// small helper function which returns the gin engine to mount one handler per test
func setupRouter(method, path string, hs ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.RequestID())
	r.Handle(method, path, hs...)
	return r
}

func do(t *testing.T, r http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("failed to unmarshal response: %v body=%s", err, w.Body.String())
		}
	}
	return w, env
}
