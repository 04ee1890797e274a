package migrationapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewOrganizationUsesFixedBearerSecret(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.NewOrganization(context.Background(), map[string]interface{}{})
	if err != nil {
		t.Fatalf("NewOrganization: %v", err)
	}
	if resp.StatusCode() != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode())
	}
	if gotAuth != "Bearer neworgsecret" {
		t.Fatalf("Authorization header = %q, want %q", gotAuth, "Bearer neworgsecret")
	}
}

func TestAuthedRequestsCarryBearerAndOrgHeaders(t *testing.T) {
	var gotAuth, gotOrg string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotOrg = r.Header.Get("X-Org-Id")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetAuth("tok123", "org-1")
	if _, err := c.CreateEndpoint(context.Background(), map[string]interface{}{}); err != nil {
		t.Fatalf("CreateEndpoint: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Fatalf("Authorization = %q, want %q", gotAuth, "Bearer tok123")
	}
	if gotOrg != "org-1" {
		t.Fatalf("X-Org-Id = %q, want %q", gotOrg, "org-1")
	}
}

func TestIsConflictDetects409(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.CreateEndpoint(context.Background(), map[string]interface{}{})
	if err != nil {
		t.Fatalf("CreateEndpoint: %v", err)
	}
	if !IsConflict(resp) {
		t.Fatalf("IsConflict(409 response) = false, want true")
	}
}

func TestIsConflictFalseForSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.CreateEndpoint(context.Background(), map[string]interface{}{})
	if err != nil {
		t.Fatalf("CreateEndpoint: %v", err)
	}
	if IsConflict(resp) {
		t.Fatalf("IsConflict(200 response) = true, want false")
	}
}

func TestServerErrorIsSurfacedAsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.CreateEndpoint(context.Background(), map[string]interface{}{}); err == nil {
		t.Fatalf("CreateEndpoint against a 500 response returned no error")
	}
}

func TestStatusSetsVerboseHeader(t *testing.T) {
	var gotVerbose string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVerbose = r.Header.Get("X-Eden-Verbose")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.Status(context.Background(), "mig-1"); err != nil {
		t.Fatalf("Status: %v", err)
	}
	if gotVerbose != "true" {
		t.Fatalf("X-Eden-Verbose = %q, want %q", gotVerbose, "true")
	}
}
