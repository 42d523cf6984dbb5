package sforce

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/giantswarm/sf-fields/internal/org"
)

// mockOrg is an httptest server answering the describe endpoints.
type mockOrg struct {
	*httptest.Server

	mu       sync.Mutex
	paths    []string
	authSeen []string
}

func newMockOrg(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *mockOrg {
	t.Helper()
	m := &mockOrg{}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.paths = append(m.paths, r.URL.Path)
		m.authSeen = append(m.authSeen, r.Header.Get("Authorization"))
		m.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

func (m *mockOrg) requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.paths...)
}

func (m *mockOrg) auth() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.authSeen...)
}

func (m *mockOrg) creds() org.Credentials {
	return org.Credentials{InstanceURL: m.URL + "/", AccessToken: "tok123"}
}

func describeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/services/data/v60.0/sobjects/":
		_, _ = w.Write([]byte(`{"encoding":"UTF-8","sobjects":[{"name":"Account","label":"Account"},{"name":"Contact","label":"Contact"},{"name":"My_Object__c","label":"My Object"}]}`))
	case "/services/data/v60.0/sobjects/Account/describe/":
		_, _ = w.Write([]byte(`{"name":"Account","fields":[{"label":"Account ID","name":"Id","type":"id"},{"label":"Account Name","name":"Name","type":"string"}]}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`[{"message":"The requested resource does not exist","errorCode":"NOT_FOUND"}]`))
	}
}

func TestListObjects(t *testing.T) {
	server := newMockOrg(t, describeHandler)
	client := NewClient(ClientConfig{})

	objects, err := client.ListObjects(context.Background(), server.creds())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []org.ObjectDescriptor{
		{Name: "Account", Label: "Account"},
		{Name: "Contact", Label: "Contact"},
		{Name: "My_Object__c", Label: "My Object"},
	}
	if diff := cmp.Diff(want, objects); diff != "" {
		t.Errorf("ListObjects() mismatch (-want +got):\n%s", diff)
	}
	if auth := server.auth(); len(auth) != 1 || auth[0] != "Bearer tok123" {
		t.Errorf("Authorization headers = %q, want one bearer token", auth)
	}
}

func TestDescribeFields(t *testing.T) {
	server := newMockOrg(t, describeHandler)
	client := NewClient(ClientConfig{})

	fields, err := client.DescribeFields(context.Background(), server.creds(), "Account")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []org.FieldDescriptor{
		{Label: "Account ID", Name: "Id"},
		{Label: "Account Name", Name: "Name"},
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Errorf("DescribeFields() mismatch (-want +got):\n%s", diff)
	}
}

func TestDescribeFieldsErrors(t *testing.T) {
	tests := []struct {
		name          string
		object        string
		handler       func(w http.ResponseWriter, r *http.Request)
		wantStatus    int
		wantErrorCode string
		wantMessage   string
	}{
		{
			name:          "unknown object",
			object:        "Nope__c",
			handler:       describeHandler,
			wantStatus:    http.StatusNotFound,
			wantErrorCode: "NOT_FOUND",
			wantMessage:   "The requested resource does not exist",
		},
		{
			name:   "expired session",
			object: "Account",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`[{"message":"Session expired or invalid","errorCode":"INVALID_SESSION_ID"}]`))
			},
			wantStatus:    http.StatusUnauthorized,
			wantErrorCode: "INVALID_SESSION_ID",
			wantMessage:   "Session expired or invalid",
		},
		{
			name:   "non json error body",
			object: "Account",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte("upstream down"))
			},
			wantStatus:  http.StatusBadGateway,
			wantMessage: "upstream down",
		},
		{
			name:   "empty error body",
			object: "Account",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			wantStatus:  http.StatusServiceUnavailable,
			wantMessage: "Service Unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newMockOrg(t, tt.handler)
			client := NewClient(ClientConfig{})

			_, err := client.DescribeFields(context.Background(), server.creds(), tt.object)
			var fetchErr *MetadataFetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("expected MetadataFetchError, got %v", err)
			}
			if fetchErr.Op != OpDescribeObject || fetchErr.Object != tt.object {
				t.Errorf("unexpected op/object: %q %q", fetchErr.Op, fetchErr.Object)
			}
			if fetchErr.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", fetchErr.StatusCode, tt.wantStatus)
			}
			if fetchErr.ErrorCode != tt.wantErrorCode {
				t.Errorf("errorCode = %q, want %q", fetchErr.ErrorCode, tt.wantErrorCode)
			}
			if fetchErr.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", fetchErr.Message, tt.wantMessage)
			}
		})
	}
}

func TestDescribeFieldsEmptyName(t *testing.T) {
	server := newMockOrg(t, describeHandler)
	_, err := NewClient(ClientConfig{}).DescribeFields(context.Background(), server.creds(), " ")
	var fetchErr *MetadataFetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected MetadataFetchError, got %v", err)
	}
	if paths := server.requests(); len(paths) != 0 {
		t.Errorf("expected no request, got %v", paths)
	}
}

func TestMalformedResponse(t *testing.T) {
	server := newMockOrg(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"sobjects":`))
	})
	_, err := NewClient(ClientConfig{}).ListObjects(context.Background(), server.creds())
	var fetchErr *MetadataFetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected MetadataFetchError, got %v", err)
	}
	if fetchErr.Op != OpDescribeGlobal {
		t.Errorf("op = %q", fetchErr.Op)
	}
}

func TestTransportFailure(t *testing.T) {
	server := newMockOrg(t, describeHandler)
	creds := server.creds()
	server.Close()

	_, err := NewClient(ClientConfig{}).ListObjects(context.Background(), creds)
	var fetchErr *MetadataFetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected MetadataFetchError, got %v", err)
	}
	if fetchErr.StatusCode != 0 || fetchErr.Err == nil {
		t.Errorf("expected transport error without status, got %+v", fetchErr)
	}
}

func TestRequestTimeout(t *testing.T) {
	release := make(chan struct{})
	server := newMockOrg(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	client := NewClient(ClientConfig{Timeout: 50 * time.Millisecond})
	_, err := client.ListObjects(context.Background(), server.creds())
	var fetchErr *MetadataFetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected MetadataFetchError, got %v", err)
	}
}

func TestRateLimiterHonoursContext(t *testing.T) {
	server := newMockOrg(t, describeHandler)
	client := NewClient(ClientConfig{RateLimit: 0.001, RateBurst: 1})

	if _, err := client.ListObjects(context.Background(), server.creds()); err != nil {
		t.Fatalf("first call should pass the limiter: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.ListObjects(ctx, server.creds())
	if err == nil || !strings.Contains(err.Error(), "rate limiter") {
		t.Fatalf("expected rate limiter error, got %v", err)
	}
	if paths := server.requests(); len(paths) != 1 {
		t.Errorf("expected one request to reach the server, got %d", len(paths))
	}
}

func TestAPIVersion(t *testing.T) {
	tests := []struct {
		name     string
		config   string
		fromCLI  string
		expected string
	}{
		{"default", "", "", DefaultAPIVersion},
		{"from cli", "", "61.0", "v61.0"},
		{"config wins", "v58.0", "61.0", "v58.0"},
		{"config without prefix", "59.0", "", "v59.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(ClientConfig{APIVersion: tt.config})
			got := client.APIVersion(org.Credentials{APIVersion: tt.fromCLI})
			if got != tt.expected {
				t.Errorf("APIVersion() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestMetadataFetchErrorMessage(t *testing.T) {
	err := &MetadataFetchError{
		Op:         OpDescribeObject,
		Object:     "Account",
		StatusCode: 401,
		ErrorCode:  "INVALID_SESSION_ID",
		Message:    "Session expired or invalid",
	}
	want := "describe object Account failed (HTTP 401 INVALID_SESSION_ID): Session expired or invalid"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
