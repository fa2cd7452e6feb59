package techreport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	vperrors "github.com/matzehuels/vulnpack/pkg/errors"
)

const sampleReport = `{
  "urls": {"https://example.com/": {"status": 200}},
  "technologies": [
    {"name": "React", "version": "18.2.0", "confidence": 100,
     "categories": [{"id": 12, "slug": "javascript-libraries", "name": "JavaScript libraries"}]},
    {"name": "Bootstrap", "version": null, "confidence": 100, "description": "CSS framework",
     "categories": [{"slug": "ui-frameworks"}]},
    {"name": "Nginx", "version": "1.25", "confidence": 50,
     "categories": [{"slug": "web-servers"}, {"slug": "reverse-proxies"}]}
  ]
}`

func TestParse(t *testing.T) {
	rep, err := Parse(strings.NewReader(sampleReport))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(rep.Technologies) != 3 {
		t.Fatalf("technologies = %d, want 3", len(rep.Technologies))
	}

	react := rep.Technologies[0]
	if react.Name != "React" || react.Version != "18.2.0" || react.Confidence != 100 {
		t.Errorf("React = %+v", react)
	}
	if !react.HasCategory("javascript-libraries") {
		t.Error("React should be a javascript library")
	}

	bootstrap := rep.Technologies[1]
	if bootstrap.Version != "" {
		t.Errorf("null version should decode to empty string, got %q", bootstrap.Version)
	}
	if bootstrap.Description == nil || *bootstrap.Description != "CSS framework" {
		t.Errorf("Description = %v", bootstrap.Description)
	}
}

func TestParseMissingTechnologies(t *testing.T) {
	rep, err := Parse(strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(rep.Technologies) != 0 {
		t.Errorf("technologies = %d, want 0", len(rep.Technologies))
	}
}

func TestParseInvalidJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"truncated", `{"technologies": [`},
		{"trailing text", `{"technologies":[]} this is not json`},
		{"second value", `{"technologies":[]} {"technologies":[]}`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := Parse(strings.NewReader(tt.input))
			if !vperrors.Is(err, vperrors.ErrCodeInvalidJSON) {
				t.Errorf("Parse() error = %v, want INVALID_JSON", err)
			}
			if rep != nil {
				t.Errorf("Parse() report = %+v, want nil", rep)
			}
		})
	}
}

func TestParseTrailingWhitespace(t *testing.T) {
	rep, err := Parse(strings.NewReader("{\"technologies\":[]}\n\n  \t\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(rep.Technologies) != 0 {
		t.Errorf("Technologies = %v", rep.Technologies)
	}
}

func TestHasCategory(t *testing.T) {
	tech := Technology{Categories: []Category{{Slug: "web-servers"}, {Slug: "reverse-proxies"}}}

	tests := []struct {
		slugs []string
		want  bool
	}{
		{[]string{"reverse-proxies"}, true},
		{[]string{"cms", "web-servers"}, true},
		{[]string{"javascript-libraries"}, false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := tech.HasCategory(tt.slugs...); got != tt.want {
			t.Errorf("HasCategory(%v) = %v, want %v", tt.slugs, got, tt.want)
		}
	}
}

func TestCertain(t *testing.T) {
	rep, _ := Parse(strings.NewReader(sampleReport))
	certain := rep.Certain()
	if len(certain) != 2 {
		t.Fatalf("Certain() = %d entries, want 2", len(certain))
	}
	if certain[0].Name != "React" || certain[1].Name != "Bootstrap" {
		t.Errorf("Certain() order = %s, %s", certain[0].Name, certain[1].Name)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.json")
	if err := os.WriteFile(path, []byte(sampleReport), 0o644); err != nil {
		t.Fatal(err)
	}

	rep, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if len(rep.Technologies) != 3 {
		t.Errorf("technologies = %d, want 3", len(rep.Technologies))
	}
}

func TestReadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadFile(filepath.Join(dir, "missing.json"))
	if !vperrors.Is(err, vperrors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("not json"), 0o644)
	_, err = ReadFile(bad)
	if !vperrors.Is(err, vperrors.ErrCodeInvalidJSON) {
		t.Errorf("bad JSON error = %v, want INVALID_JSON", err)
	}
}
