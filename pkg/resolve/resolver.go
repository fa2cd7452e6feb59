package resolve

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/vulnpack/pkg/techreport"
)

// Dependency is a package whose declared version was found in the
// registry's published versions at validation time.
type Dependency struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Source  string `json:"source"` // original technology name
	Rule    string `json:"rule"`
}

// Metadata describes a technology matched by a metadata rule.
// Description is nil, and serializes as null, when the report has none.
type Metadata struct {
	Name        string  `json:"name"`
	Version     string  `json:"version"`
	Description *string `json:"description"`
	Slug        string  `json:"slug"`
}

// Skip records a technology that was dropped, and why.
type Skip struct {
	Technology string `json:"technology"`
	Package    string `json:"package,omitempty"`
	Rule       string `json:"rule,omitempty"`
	Reason     Reason `json:"reason"`
	Detail     string `json:"detail,omitempty"`
}

// Collision records two differently named technologies that sanitized to
// the same package name. The later one won.
type Collision struct {
	Package  string `json:"package"`
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

// Result is the outcome of [Resolver.Resolve].
type Result struct {
	Dependencies map[string]string `json:"dependencies"`
	Resolved     []Dependency      `json:"resolved"`
	Metadata     []Metadata        `json:"metadata"`
	Skipped      []Skip            `json:"skipped"`
	Collisions   []Collision       `json:"collisions,omitempty"`
}

// Resolver validates technologies against a registry.
type Resolver struct {
	Registry Registry
	Rules    []Rule
	Filter   Filter
	// Concurrency bounds parallel registry validation. Values below 2 mean
	// sequential validation.
	Concurrency int
	Logger      *log.Logger
}

// New returns a Resolver using the default rules.
func New(reg Registry, logger *log.Logger) *Resolver {
	return &Resolver{Registry: reg, Rules: DefaultRules(), Logger: logger}
}

// candidate is one (rule, technology) pair that passed the filter.
type candidate struct {
	tech techreport.Technology
	rule Rule
	name string
}

// verdict is the registry outcome for a candidate.
type verdict struct {
	exists   bool
	versions []string
}

// Resolve filters techs, validates every eligible candidate against the
// registry and returns the dependency mapping.
//
// Rules are applied in order and, within a rule, technologies in declared
// order. A later candidate with the same sanitized name overwrites an
// earlier one. Each candidate costs one Exists and one ListVersions call;
// nothing is cached, so a name matched twice is looked up twice.
// Per-candidate failures never surface as errors.
func (r *Resolver) Resolve(ctx context.Context, techs []techreport.Technology) *Result {
	logger := r.logger()
	res := &Result{
		Dependencies: make(map[string]string),
		Resolved:     []Dependency{},
		Metadata:     []Metadata{},
		Skipped:      []Skip{},
	}

	cands := r.candidates(techs, res)
	verdicts := r.validate(ctx, cands)

	sources := make(map[string]string)
	for i, c := range cands {
		v := verdicts[i]
		switch {
		case !v.exists:
			logger.Info("skipping unavailable package", "package", c.name, "rule", c.rule.Name)
			res.skip(c, ReasonUnavailable, "")
		case !slices.Contains(v.versions, c.tech.Version):
			logger.Info("skipping package with invalid version",
				"package", c.name, "version", c.tech.Version, "valid", v.versions)
			res.skip(c, ReasonVersionMismatch,
				fmt.Sprintf("version %s not in %v", c.tech.Version, v.versions))
		default:
			if prev, ok := sources[c.name]; ok && prev != c.tech.Name {
				logger.Warn("package name collision, keeping the later entry",
					"package", c.name, "previous", prev, "current", c.tech.Name)
				res.Collisions = append(res.Collisions, Collision{Package: c.name, Previous: prev, Current: c.tech.Name})
			}
			sources[c.name] = c.tech.Name
			res.Dependencies[c.name] = c.tech.Version
			res.Resolved = append(res.Resolved, Dependency{
				Name: c.name, Version: c.tech.Version, Source: c.tech.Name, Rule: c.rule.Name,
			})
			logger.Info("included package", "package", c.name, "version", c.tech.Version, "rule", c.rule.Name)
		}
	}

	res.Metadata = r.metadata(techs)
	return res
}

// candidates applies the filter and name sanitizer, recording skips for
// entries that fail. Technologies that match no rule at all are recorded
// once with ReasonCategory.
func (r *Resolver) candidates(techs []techreport.Technology, res *Result) []candidate {
	logger := r.logger()
	matched := make([]bool, len(techs))
	var out []candidate

	for _, rule := range r.Rules {
		for i, t := range techs {
			if !t.HasCategory(rule.Categories...) {
				continue
			}
			matched[i] = true

			c := candidate{tech: t, rule: rule, name: Sanitize(t.Name)}
			logger.Debug("sanitized package name", "from", t.Name, "to", c.name)

			if reason := r.Filter.Check(t, rule.Categories...); reason != ReasonNone {
				logger.Info("skipping technology", "technology", t.Name, "rule", rule.Name, "reason", reason)
				res.skip(c, reason, "")
				continue
			}
			if c.name == "" {
				logger.Info("skipping technology with no name", "rule", rule.Name)
				res.skip(c, ReasonEmptyName, "")
				continue
			}
			out = append(out, c)
		}
	}

	for i, t := range techs {
		if !matched[i] {
			logger.Debug("skipping technology outside selected categories", "technology", t.Name)
			res.Skipped = append(res.Skipped, Skip{Technology: t.Name, Reason: ReasonCategory})
		}
	}
	return out
}

// validate queries the registry for every candidate. With Concurrency > 1
// lookups run in parallel, but verdicts are stored by candidate index so the
// caller merges them in declared order.
func (r *Resolver) validate(ctx context.Context, cands []candidate) []verdict {
	verdicts := make([]verdict, len(cands))
	check := func(i int) {
		name := cands[i].name
		if !r.Registry.Exists(ctx, name) {
			return
		}
		verdicts[i] = verdict{exists: true, versions: r.Registry.ListVersions(ctx, name)}
	}

	if r.Concurrency < 2 {
		for i := range cands {
			check(i)
		}
		return verdicts
	}

	var g errgroup.Group
	g.SetLimit(r.Concurrency)
	for i := range cands {
		g.Go(func() error {
			check(i)
			return nil
		})
	}
	_ = g.Wait()
	return verdicts
}

func (r *Resolver) metadata(techs []techreport.Technology) []Metadata {
	out := []Metadata{}
	for _, rule := range r.Rules {
		if !rule.Metadata {
			continue
		}
		for _, t := range techs {
			slug, ok := matchingSlug(t, rule.Categories)
			if !ok {
				continue
			}
			out = append(out, Metadata{
				Name:        t.Name,
				Version:     t.Version,
				Description: t.Description,
				Slug:        slug,
			})
		}
	}
	return out
}

func matchingSlug(t techreport.Technology, slugs []string) (string, bool) {
	for _, c := range t.Categories {
		if slices.Contains(slugs, c.Slug) {
			return c.Slug, true
		}
	}
	return "", false
}

func (res *Result) skip(c candidate, reason Reason, detail string) {
	res.Skipped = append(res.Skipped, Skip{
		Technology: c.tech.Name,
		Package:    c.name,
		Rule:       c.rule.Name,
		Reason:     reason,
		Detail:     detail,
	})
}

func (r *Resolver) logger() *log.Logger {
	if r.Logger == nil {
		return log.Default()
	}
	return r.Logger
}
