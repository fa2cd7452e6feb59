// Package techreport reads technology-fingerprinting reports.
//
// A report is a JSON document with a top-level "technologies" array, as
// produced by web technology detectors:
//
//	{"technologies": [
//	    {"name": "React", "version": "18.2.0", "confidence": 100,
//	     "categories": [{"slug": "javascript-libraries", "name": "JavaScript libraries"}]}
//	]}
//
// Entries are read-only for the rest of a run.
package techreport

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"slices"

	vperrors "github.com/matzehuels/vulnpack/pkg/errors"
)

// Report is a parsed fingerprinting report.
type Report struct {
	Technologies []Technology `json:"technologies"`
}

// Technology is one detected web technology.
type Technology struct {
	Name        string     `json:"name"`
	Version     string     `json:"version"`
	Confidence  int        `json:"confidence"`
	Categories  []Category `json:"categories"`
	Description *string    `json:"description,omitempty"` // nil when the report has none
}

// Category is a category tag attached to a technology.
type Category struct {
	Slug string `json:"slug"`
	Name string `json:"name,omitempty"`
}

// HasCategory reports whether t is tagged with any of slugs.
func (t Technology) HasCategory(slugs ...string) bool {
	for _, c := range t.Categories {
		if slices.Contains(slugs, c.Slug) {
			return true
		}
	}
	return false
}

// Certain returns the technologies detected with full confidence, in report order.
func (r *Report) Certain() []Technology {
	var out []Technology
	for _, t := range r.Technologies {
		if t.Confidence == 100 {
			out = append(out, t)
		}
	}
	return out
}

// Parse decodes a report from r. The input must hold exactly one JSON
// value; anything but whitespace after it is an error.
func Parse(r io.Reader) (*Report, error) {
	var rep Report
	dec := json.NewDecoder(r)
	if err := dec.Decode(&rep); err != nil {
		return nil, vperrors.Wrap(vperrors.ErrCodeInvalidJSON, err, "invalid JSON format in technology report")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}
		return nil, vperrors.Wrap(vperrors.ErrCodeInvalidJSON, err, "invalid JSON format in technology report")
	}
	return &rep, nil
}

// ReadFile opens and parses the report at path.
func ReadFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, vperrors.New(vperrors.ErrCodeFileNotFound, "file not found: %s", path)
	}
	if err != nil {
		return nil, vperrors.Wrap(vperrors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()

	rep, err := Parse(f)
	if err != nil {
		return nil, vperrors.Wrap(vperrors.ErrCodeInvalidJSON, err, "invalid JSON format in file: %s", path)
	}
	return rep, nil
}
