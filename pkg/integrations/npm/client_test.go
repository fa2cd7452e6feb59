package npm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/vulnpack/pkg/integrations"
)

func newRegistryServer(t *testing.T, packages map[string]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !strings.Contains(r.Header.Get("Accept"), "application/vnd.npm.install-v1+json") {
			t.Errorf("Accept header = %q, want abbreviated metadata", r.Header.Get("Accept"))
		}
		body, ok := packages[strings.TrimPrefix(r.URL.EscapedPath(), "/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"Not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

const reactPackument = `{
  "name": "react",
  "dist-tags": {"latest": "18.2.0"},
  "versions": {
    "17.0.0": {"name": "react", "version": "17.0.0"},
    "18.2.0": {"name": "react", "version": "18.2.0"},
    "16.14.0": {"name": "react", "version": "16.14.0"}
  }
}`

func TestVersions(t *testing.T) {
	server, _ := newRegistryServer(t, map[string]string{"react": reactPackument})
	client := NewClient(server.URL, time.Second)

	versions, err := client.Versions(context.Background(), "react")
	if err != nil {
		t.Fatalf("Versions() error: %v", err)
	}
	want := []string{"16.14.0", "17.0.0", "18.2.0"}
	if !slices.Equal(versions, want) {
		t.Errorf("Versions() = %v, want %v", versions, want)
	}
}

func TestVersionsNotFound(t *testing.T) {
	server, _ := newRegistryServer(t, nil)
	client := NewClient(server.URL, time.Second)

	_, err := client.Versions(context.Background(), "does-not-exist")
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("Versions() error = %v, want ErrNotFound", err)
	}
}

func TestVersionsRejectsInvalidNameWithoutRequest(t *testing.T) {
	server, calls := newRegistryServer(t, nil)
	client := NewClient(server.URL, time.Second)

	if _, err := client.Versions(context.Background(), "_hidden"); err == nil {
		t.Error("Versions() should reject invalid npm names")
	}
	if calls.Load() != 0 {
		t.Errorf("registry called %d times for an invalid name", calls.Load())
	}
}

func TestScopedPackagePath(t *testing.T) {
	server, _ := newRegistryServer(t, map[string]string{
		"@vue%2Fcore": `{"name":"@vue/core","versions":{"3.4.0":{}}}`,
	})
	client := NewClient(server.URL, time.Second)

	versions, err := client.Versions(context.Background(), "@vue/core")
	if err != nil {
		t.Fatalf("Versions() error: %v", err)
	}
	if !slices.Equal(versions, []string{"3.4.0"}) {
		t.Errorf("Versions() = %v", versions)
	}
}

func TestRegistryContract(t *testing.T) {
	server, calls := newRegistryServer(t, map[string]string{
		"react": reactPackument,
		"empty": `{"name":"empty","versions":{}}`,
	})
	client := NewClient(server.URL+"/", time.Second)
	ctx := context.Background()

	tests := []struct {
		name       string
		pkg        string
		wantExists bool
		wantCount  int
	}{
		{"published", "react", true, 3},
		{"missing", "nope", false, 0},
		{"no versions", "empty", false, 0},
		{"invalid", "Has Spaces", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := client.Exists(ctx, tt.pkg); got != tt.wantExists {
				t.Errorf("Exists(%q) = %v, want %v", tt.pkg, got, tt.wantExists)
			}
			if got := client.ListVersions(ctx, tt.pkg); len(got) != tt.wantCount {
				t.Errorf("ListVersions(%q) = %v, want %d versions", tt.pkg, got, tt.wantCount)
			}
		})
	}

	// Exists and ListVersions each hit the registry; nothing is cached.
	before := calls.Load()
	client.Exists(ctx, "react")
	client.Exists(ctx, "react")
	if got := calls.Load() - before; got != 2 {
		t.Errorf("repeated lookups made %d requests, want 2", got)
	}
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("", 0)
	if client.baseURL != DefaultRegistry {
		t.Errorf("baseURL = %q, want %q", client.baseURL, DefaultRegistry)
	}
}
