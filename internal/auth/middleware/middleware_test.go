package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/scorecheck/internal/rbac"
)

func accounts(t *testing.T, dev bool) Accounts {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	return Accounts{AdminUser: "admin", AdminPassHash: string(hash), DevUsers: dev}
}

func login(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
	return rec
}

func TestIssueAndParse(t *testing.T) {
	a := NewAuthService("test-secret")
	tok, err := a.IssueJWT("alice", "student")
	require.NoError(t, err)

	c, err := a.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", c.Sub)
	assert.Equal(t, "student", c.Role)

	_, err = NewAuthService("other-secret").Parse(tok)
	assert.Error(t, err)

	a.now = func() time.Time { return time.Now().Add(-9 * time.Hour) }
	expired, err := a.IssueJWT("alice", "student")
	require.NoError(t, err)
	_, err = a.Parse(expired)
	assert.Error(t, err)
}

func TestLoginHandler(t *testing.T) {
	a := NewAuthService("test-secret")
	h := LoginHandler(a, accounts(t, true))

	rec := login(t, h, `{"username":"admin","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "admin", out["role"])
	c, err := a.Parse(out["access_token"])
	require.NoError(t, err)
	assert.Equal(t, "admin", c.Role)

	assert.Equal(t, http.StatusUnauthorized, login(t, h, `{"username":"admin","password":"wrong"}`).Code)
	assert.Equal(t, http.StatusOK, login(t, h, `{"username":"bob","password":"bob","role":"teacher"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, login(t, h, `{"username":"bob","password":"bob","role":"admin"}`).Code)
	assert.Equal(t, http.StatusBadRequest, login(t, h, `{`).Code)

	noDev := LoginHandler(a, accounts(t, false))
	assert.Equal(t, http.StatusUnauthorized, login(t, noDev, `{"username":"bob","password":"bob","role":"teacher"}`).Code)
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("test-secret")
	var gotSub, gotRole string
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = rbac.SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := a.IssueJWT("t1", "teacher")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "t1", gotSub)
	assert.Equal(t, "teacher", gotRole)
}
