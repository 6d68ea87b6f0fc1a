package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "", time.Second, zerolog.Nop())
	client.SetRateLimit(0)
	client.SetRetryPolicy(RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	})
	return client, server
}

func TestAuthenticate(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/auth/credentials" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var creds Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Errorf("decoding credentials: %v", err)
		}
		if creds.Hostname != "mo.metrc.com" || creds.Username != "alex" {
			t.Errorf("unexpected credentials: %+v", creds)
		}
		json.NewEncoder(w).Encode(AuthResponse{AccessToken: "tok123"})
	}))

	token, err := client.Authenticate(context.Background(), Credentials{
		Hostname: "mo.metrc.com",
		Username: "alex",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if token != "tok123" {
		t.Errorf("token = %q, want tok123", token)
	}
}

func TestAuthenticateNoToken(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	}))

	_, err := client.Authenticate(context.Background(), Credentials{})
	if !errors.Is(err, ErrNoAccessToken) {
		t.Fatalf("Authenticate() error = %v, want ErrNoAccessToken", err)
	}
}

func TestAuthenticateTokenUsedOnNextRequest(t *testing.T) {
	var gotAuth string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/auth/credentials":
			json.NewEncoder(w).Encode(AuthResponse{AccessToken: "tok123"})
		case "/v2/auth/whoami":
			gotAuth = r.Header.Get("Authorization")
			json.NewEncoder(w).Encode(Identity{Username: "alex", HasT3Plus: true})
		}
	}))

	if _, err := client.Authenticate(context.Background(), Credentials{}); err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	identity, err := client.WhoAmI(context.Background())
	if err != nil {
		t.Fatalf("WhoAmI() error: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("Authorization = %q, want Bearer tok123", gotAuth)
	}
	if !identity.HasT3Plus {
		t.Error("identity.HasT3Plus = false, want true")
	}
}

func TestGetPage(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("licenseNumber") != "LIC-1" || q.Get("page") != "2" || q.Get("pageSize") != "10" {
			t.Errorf("unexpected query: %v", q)
		}
		if q.Get("filter") != "packagedDate__gte:2024-01-01" {
			t.Errorf("filter = %q", q.Get("filter"))
		}
		json.NewEncoder(w).Encode(Page{
			Data:     []Record{{"id": 1.0, "label": "A1"}},
			Total:    11,
			Page:     2,
			PageSize: 10,
		})
	}))

	page, err := client.GetPage(context.Background(), "/v2/packages/active", Query{
		LicenseNumber: "LIC-1",
		Page:          2,
		PageSize:      10,
		Filter:        "packagedDate__gte:2024-01-01",
	})
	if err != nil {
		t.Fatalf("GetPage() error: %v", err)
	}
	if page.Total != 11 || len(page.Data) != 1 || page.Data[0].Str("label") != "A1" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "flaky", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(Identity{Username: "alex"})
	}))

	identity, err := client.WhoAmI(context.Background())
	if err != nil {
		t.Fatalf("WhoAmI() error: %v", err)
	}
	if identity.Username != "alex" {
		t.Errorf("username = %q, want alex", identity.Username)
	}
	if calls.Load() != 3 {
		t.Errorf("got %d requests, want 3", calls.Load())
	}
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))

	_, err := client.WhoAmI(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("WhoAmI() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != 401 || apiErr.Class != ErrorClassClient {
		t.Errorf("unexpected APIError: %+v", apiErr)
	}
	if calls.Load() != 1 {
		t.Errorf("got %d requests, want 1", calls.Load())
	}
}

func TestSubmitNotRetried(t *testing.T) {
	var calls atomic.Int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		if q.Get("licenseNumber") != "LIC-1" || q.Get("submit") != "true" {
			t.Errorf("unexpected query: %v", q)
		}
		http.Error(w, "backend down", http.StatusInternalServerError)
	}))

	err := client.Submit(context.Background(), "/v2/items/discontinue", "LIC-1", true, map[string]any{"id": 7}, nil)
	if err == nil {
		t.Fatal("Submit() error = nil, want server error")
	}
	if calls.Load() != 1 {
		t.Errorf("got %d requests, want 1: mutations must not be retried", calls.Load())
	}
}

func TestUploadItemImage(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parsing multipart body: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file field: %v", err)
		}
		defer file.Close()
		if header.Filename != "photo.png" {
			t.Errorf("filename = %q, want photo.png", header.Filename)
		}
		q := r.URL.Query()
		if q.Get("fileType") != "ItemProductImage" {
			t.Errorf("fileType = %q", q.Get("fileType"))
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"imageFileId": "img-42"})
	}))

	rec, err := client.UploadItemImage(context.Background(), "LIC-1", "ItemProductImage", "photo.png", []byte{0x89, 0x50}, true)
	if err != nil {
		t.Fatalf("UploadItemImage() error: %v", err)
	}
	if rec.Str("imageFileId") != "img-42" {
		t.Errorf("imageFileId = %v, want img-42", rec["imageFileId"])
	}
}

func TestPackageHistory(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("packageId") != "15481" {
			t.Errorf("packageId = %q", q.Get("packageId"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"descriptions": []string{"Packaged 5.0 Grams of Flower"}},
			},
		})
	}))

	history, err := client.PackageHistory(context.Background(), "LIC-1", 15481)
	if err != nil {
		t.Fatalf("PackageHistory() error: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("got %d events, want 1", len(history))
	}
}
