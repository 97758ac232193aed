package adsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewClient(&Config{
		BaseURL:      srv.URL,
		ClientID:     "test-client",
		ClientSecret: "test-secret",
	})
	return c, srv
}

func TestRefreshToken_Success(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/token" {
			t.Errorf("path = %s, want /oauth/token", r.URL.Path)
		}
		if got := r.FormValue("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"new-at","refresh_token":"new-rt","expires_in":3600}`))
	}))
	defer srv.Close()

	grant, err := c.RefreshToken(context.Background(), "old-rt")
	if err != nil {
		t.Fatalf("刷新失败: %v", err)
	}
	if grant.AccessToken != "new-at" || grant.NewRefreshToken != "new-rt" || grant.ExpiresIn != 3600 {
		t.Errorf("grant = %+v", grant)
	}
}

func TestRefreshToken_InvalidGrant(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Token has been revoked"}`))
	}))
	defer srv.Close()

	_, err := c.RefreshToken(context.Background(), "revoked-rt")
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("期望 *APIError, got %v", err)
	}
	if apiErr.Retryable {
		t.Error("invalid_grant 应为不可重试")
	}
	if apiErr.Code != "invalid_grant" {
		t.Errorf("code = %s", apiErr.Code)
	}
}

func TestRefreshToken_RateLimited(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate_limit_exceeded"}`))
	}))
	defer srv.Close()

	_, err := c.RefreshToken(context.Background(), "rt")
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("期望 *APIError, got %v", err)
	}
	if !apiErr.Retryable {
		t.Error("429 应为可重试")
	}
}

func TestRefreshToken_NetworkError(t *testing.T) {
	c := NewClient(&Config{BaseURL: "http://127.0.0.1:1"})

	_, err := c.RefreshToken(context.Background(), "rt")
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("期望 *APIError, got %v", err)
	}
	if !apiErr.Retryable || apiErr.StatusCode != 0 {
		t.Errorf("网络错误应为可重试且 StatusCode=0, got %+v", apiErr)
	}
}

func TestFetchMetrics(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/customers/123-456/metrics" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer at-1" {
			t.Errorf("authorization = %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":{"external_id":"123-456","spend_total":1234.56,"ad_count":10,"campaign_count":3,"health_status":"ok","billing_status":"active"}}`))
	}))
	defer srv.Close()

	m, err := c.FetchMetrics(context.Background(), "at-1", "123-456")
	if err != nil {
		t.Fatalf("抓取失败: %v", err)
	}
	if m.SpendTotal != 1234.56 || m.CampaignCount != 3 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestFetchCampaigns_FilterQuery(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("campaign_id"); got != "c-9" {
			t.Errorf("campaign_id = %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"count":1,"results":[{"id":"c-9","name":"Brand","status":"enabled"}]}`))
	}))
	defer srv.Close()

	list, err := c.FetchCampaigns(context.Background(), "at", "123", ListingFilter{CampaignID: "c-9"})
	if err != nil {
		t.Fatalf("抓取失败: %v", err)
	}
	if len(list) != 1 || list[0].ID != "c-9" {
		t.Errorf("list = %+v", list)
	}
}

func TestFetchMetrics_StructuralError(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"permission_denied","message":"customer not accessible"}`))
	}))
	defer srv.Close()

	_, err := c.FetchMetrics(context.Background(), "at", "999")
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("期望 *APIError, got %v", err)
	}
	if apiErr.Retryable {
		t.Error("403 应为不可重试")
	}
}
