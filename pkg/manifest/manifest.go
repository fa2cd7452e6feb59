// Package manifest builds the synthetic package.json that npm installs and
// audits.
package manifest

import (
	"bytes"
	"encoding/json"
	"maps"

	vperrors "github.com/matzehuels/vulnpack/pkg/errors"
	"github.com/matzehuels/vulnpack/pkg/fsutil"
	"github.com/matzehuels/vulnpack/pkg/resolve"
)

// Defaults for the generated project.
const (
	DefaultName    = "vulnerability-check"
	DefaultVersion = "1.0.0"
)

// Manifest is the dependency-declaration document written as package.json.
type Manifest struct {
	Name         string             `json:"name"`
	Version      string             `json:"version"`
	Dependencies map[string]string  `json:"dependencies"`
	Metadata     []resolve.Metadata `json:"metadata"`
}

// Build returns a manifest with the default name and version.
func Build(deps map[string]string, meta []resolve.Metadata) *Manifest {
	return New(DefaultName, DefaultVersion, deps, meta)
}

// New returns a manifest with the given identity. Empty name or version fall
// back to the defaults. deps and meta are copied; nil inputs become empty
// collections so they serialise as {} and [].
func New(name, version string, deps map[string]string, meta []resolve.Metadata) *Manifest {
	if name == "" {
		name = DefaultName
	}
	if version == "" {
		version = DefaultVersion
	}
	m := &Manifest{
		Name:         name,
		Version:      version,
		Dependencies: make(map[string]string, len(deps)),
		Metadata:     make([]resolve.Metadata, len(meta)),
	}
	maps.Copy(m.Dependencies, deps)
	copy(m.Metadata, meta)
	return m
}

// MarshalIndent encodes the manifest with four-space indentation and a
// trailing newline. Dependency keys are sorted by encoding/json.
func (m *Manifest) MarshalIndent() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m.normalized()); err != nil {
		return nil, vperrors.Wrap(vperrors.ErrCodeInternal, err, "encode manifest")
	}
	return buf.Bytes(), nil
}

// WriteFile writes the manifest to path, replacing any existing file
// atomically.
func (m *Manifest) WriteFile(path string) error {
	data, err := m.MarshalIndent()
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, data, 0644); err != nil {
		return vperrors.Wrap(vperrors.ErrCodeWrite, err, "write manifest")
	}
	return nil
}

// normalized guards against nil collections on manifests built by hand.
func (m *Manifest) normalized() *Manifest {
	if m.Dependencies != nil && m.Metadata != nil {
		return m
	}
	out := *m
	if out.Dependencies == nil {
		out.Dependencies = map[string]string{}
	}
	if out.Metadata == nil {
		out.Metadata = []resolve.Metadata{}
	}
	return &out
}
