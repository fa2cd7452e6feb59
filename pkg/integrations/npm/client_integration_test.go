//go:build integration

package npm

import (
	"context"
	"slices"
	"testing"
	"time"
)

func TestVersions_Integration(t *testing.T) {
	client := NewClient("", 10*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tests := []struct {
		name    string
		pkg     string
		want    string
		wantErr bool
	}{
		{"react", "react", "18.2.0", false},
		{"lodash", "lodash", "4.17.21", false},
		{"nonexistent", "this-package-should-not-exist-12345", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			versions, err := client.Versions(ctx, tt.pkg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Versions(%q) error = %v, wantErr %v", tt.pkg, err, tt.wantErr)
				return
			}
			if !tt.wantErr && !slices.Contains(versions, tt.want) {
				t.Errorf("Versions(%q) missing %s", tt.pkg, tt.want)
			}
		})
	}
}
