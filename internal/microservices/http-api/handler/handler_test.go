package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"yamdb/internal/access"
	"yamdb/internal/microservices/http-api/middleware"
)

var (
	adminIdentity = &access.Identity{UserID: "u-admin", Username: "root", Role: access.RoleAdmin}
	modIdentity   = &access.Identity{UserID: "u-mod", Username: "mod", Role: access.RoleModerator}
	userIdentity  = &access.Identity{UserID: "u-alice", Username: "alice", Role: access.RoleUser}
)

// newEngine returns a router that resolves the bearer tokens "admin",
// "mod" and "user" to fixed identities.
func newEngine(t *testing.T) (*gin.Engine, *gin.RouterGroup) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	auth := new(MockAuthService)
	auth.On("Authenticate", mock.Anything, "admin").Return(adminIdentity, nil).Maybe()
	auth.On("Authenticate", mock.Anything, "mod").Return(modIdentity, nil).Maybe()
	auth.On("Authenticate", mock.Anything, "user").Return(userIdentity, nil).Maybe()

	r := gin.New()
	r.Use(middleware.Authenticate(auth))
	return r, r.Group("/api/v1")
}

func doRequest(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
