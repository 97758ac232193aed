package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newAuthTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", JWTAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"member_id": GetMemberID(c),
			"username":  GetUsername(c),
			"role":      GetMemberRole(c),
		})
	})
	r.POST("/admin", JWTAuth(), RequireRole("admin"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func doAuthRequest(t *testing.T, r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth_AccessTokenPasses(t *testing.T) {
	r := newAuthTestRouter()

	access, _, err := GenerateTokenPair(7, "alice", "operator")
	if err != nil {
		t.Fatalf("GenerateTokenPair() error = %v", err)
	}

	w := doAuthRequest(t, r, http.MethodGet, "/me", access)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	claims, err := ParseToken(access)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.MemberID != 7 || claims.Username != "alice" || claims.Role != "operator" {
		t.Errorf("claims = %+v, want member 7 alice/operator", claims)
	}
}

func TestJWTAuth_RefreshTokenRejected(t *testing.T) {
	r := newAuthTestRouter()

	_, refresh, err := GenerateTokenPair(7, "alice", "operator")
	if err != nil {
		t.Fatalf("GenerateTokenPair() error = %v", err)
	}

	// refresh token 只能用来换新，不能直接访问业务接口
	w := doAuthRequest(t, r, http.MethodGet, "/me", refresh)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("refresh token status = %d, want 401", w.Code)
	}
}

func TestJWTAuth_MissingOrMalformedHeader(t *testing.T) {
	r := newAuthTestRouter()

	cases := []struct {
		name  string
		token string
	}{
		{"缺少请求头", ""},
		{"非法 token", "not-a-jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doAuthRequest(t, r, http.MethodGet, "/me", tc.token)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
		})
	}
}

func TestRequireRole_ForbidsOtherRoles(t *testing.T) {
	r := newAuthTestRouter()

	access, _, err := GenerateTokenPair(8, "bob", "viewer")
	if err != nil {
		t.Fatalf("GenerateTokenPair() error = %v", err)
	}

	w := doAuthRequest(t, r, http.MethodPost, "/admin", access)
	if w.Code != http.StatusForbidden {
		t.Errorf("viewer 访问 admin 接口 status = %d, want 403", w.Code)
	}

	adminAccess, _, err := GenerateTokenPair(9, "carol", "admin")
	if err != nil {
		t.Fatalf("GenerateTokenPair() error = %v", err)
	}
	w = doAuthRequest(t, r, http.MethodPost, "/admin", adminAccess)
	if w.Code != http.StatusOK {
		t.Errorf("admin 访问 admin 接口 status = %d, want 200", w.Code)
	}
}
