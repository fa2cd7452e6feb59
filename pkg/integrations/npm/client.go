package npm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	vperrors "github.com/matzehuels/vulnpack/pkg/errors"
	"github.com/matzehuels/vulnpack/pkg/integrations"
	"github.com/matzehuels/vulnpack/pkg/resolve"
)

// DefaultRegistry is the public npm registry.
const DefaultRegistry = "https://registry.npmjs.org"

// abbreviatedAccept requests the install-time metadata document, which lists
// versions without the full per-version manifests.
const abbreviatedAccept = "application/vnd.npm.install-v1+json; q=1.0, application/json; q=0.8"

var _ resolve.Registry = (*Client)(nil)

// Client looks up packages on an npm registry. It is safe for concurrent use.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient returns a client for the registry at baseURL (DefaultRegistry when
// empty) with the given per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultRegistry
	}
	return &Client{
		Client:  integrations.NewClient(timeout, map[string]string{"Accept": abbreviatedAccept}),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Versions returns the sorted published versions of pkg.
func (c *Client) Versions(ctx context.Context, pkg string) ([]string, error) {
	pkg = strings.TrimSpace(pkg)
	if err := vperrors.ValidateNpmPackageName(pkg); err != nil {
		return nil, err
	}

	var data packument
	if err := c.Get(ctx, c.baseURL+"/"+integrations.PackagePath(pkg), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: npm package %s", err, pkg)
		}
		return nil, err
	}
	return slices.Sorted(maps.Keys(data.Versions)), nil
}

// Exists reports whether pkg has at least one published version. Lookup
// failures count as "not available".
func (c *Client) Exists(ctx context.Context, pkg string) bool {
	versions, err := c.Versions(ctx, pkg)
	return err == nil && len(versions) > 0
}

// ListVersions returns the published versions of pkg, or nil if the lookup fails.
func (c *Client) ListVersions(ctx context.Context, pkg string) []string {
	versions, err := c.Versions(ctx, pkg)
	if err != nil {
		return nil
	}
	return versions
}

type packument struct {
	Name     string                     `json:"name"`
	DistTags map[string]string          `json:"dist-tags"`
	Versions map[string]json.RawMessage `json:"versions"`
}
