package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey    = "test-signing-key"
	testIssuer = "teacherattend-test"
)

func TestIssueAndParse(t *testing.T) {
	id := Identity{UID: "t1", Role: RoleTeacher, Name: "Alice"}
	tokens, err := Issue(id, testIssuer, testKey, time.Minute, time.Hour)
	require.NoError(t, err)
	assert.True(t, tokens.RefreshExp.After(tokens.AccessExp))

	claims, err := Parse(tokens.AccessToken, testKey, testIssuer)
	require.NoError(t, err)
	assert.Equal(t, id, claims.Identity())
}

func TestParse_Rejects(t *testing.T) {
	id := Identity{UID: "t1", Role: RoleTeacher}

	tokens, err := Issue(id, testIssuer, testKey, time.Minute, time.Hour)
	require.NoError(t, err)
	_, err = Parse(tokens.AccessToken, "other-key", testIssuer)
	assert.Error(t, err)
	_, err = Parse(tokens.AccessToken, testKey, "someone-else")
	assert.Error(t, err)

	expired, err := Issue(id, testIssuer, testKey, -time.Minute, time.Hour)
	require.NoError(t, err)
	_, err = Parse(expired.AccessToken, testKey, testIssuer)
	assert.Error(t, err)

	anon, err := Issue(Identity{Role: RoleTeacher}, testIssuer, testKey, time.Minute, time.Hour)
	require.NoError(t, err)
	_, err = Parse(anon.AccessToken, testKey, testIssuer)
	assert.Error(t, err)
}

func TestContextProvider(t *testing.T) {
	_, err := ContextProvider{}.Identify(context.Background())
	assert.ErrorIs(t, err, ErrNoIdentity)

	want := Identity{UID: "a1", Role: RoleAdmin, Name: "Root"}
	got, err := ContextProvider{}.Identify(WithIdentity(context.Background(), want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBearerAndRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", Bearer(testKey, testIssuer), RequireRole(RoleAdmin), func(c *gin.Context) {
		id, _ := FromContext(c.Request.Context())
		c.String(http.StatusOK, id.UID)
	})

	call := func(header string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, call("").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer garbage").Code)

	teacher, err := Issue(Identity{UID: "t1", Role: RoleTeacher}, testIssuer, testKey, time.Minute, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, call("Bearer "+teacher.AccessToken).Code)

	admin, err := Issue(Identity{UID: "a1", Role: RoleAdmin}, testIssuer, testKey, time.Minute, time.Hour)
	require.NoError(t, err)
	w := call("bearer " + admin.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a1", w.Body.String())
}
