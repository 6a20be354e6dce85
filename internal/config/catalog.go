package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CatalogEntry is one selectable category or job type.
type CatalogEntry struct {
	Key   string `yaml:"key"`
	Label string `yaml:"label"`
	Emoji string `yaml:"emoji,omitempty"`
}

// Display returns the label prefixed with its emoji, if any.
func (e CatalogEntry) Display() string {
	if e.Emoji == "" {
		return e.Label
	}
	return e.Emoji + " " + e.Label
}

// Catalog holds the job categories and job types accepted on writes.
// Order is preserved for keyboards and listings.
type Catalog struct {
	Categories []CatalogEntry `yaml:"categories"`
	JobTypes   []CatalogEntry `yaml:"job_types"`
}

// DefaultCatalog returns the built-in catalogue.
func DefaultCatalog() Catalog {
	return Catalog{
		Categories: []CatalogEntry{
			{Key: "tech", Label: "Technology", Emoji: "💻"},
			{Key: "business", Label: "Business", Emoji: "📊"},
			{Key: "creative", Label: "Creative", Emoji: "🎨"},
			{Key: "medical", Label: "Medical", Emoji: "🏥"},
			{Key: "engineering", Label: "Engineering", Emoji: "⚙️"},
			{Key: "education", Label: "Education", Emoji: "📚"},
		},
		JobTypes: []CatalogEntry{
			{Key: "full_time", Label: "Full Time"},
			{Key: "part_time", Label: "Part Time"},
			{Key: "contract", Label: "Contract"},
			{Key: "remote", Label: "Remote"},
			{Key: "internship", Label: "Internship"},
		},
	}
}

// LoadCatalog reads a YAML catalogue file. An empty path yields DefaultCatalog.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	def := DefaultCatalog()
	if len(c.Categories) == 0 {
		c.Categories = def.Categories
	}
	if len(c.JobTypes) == 0 {
		c.JobTypes = def.JobTypes
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Validate rejects empty or duplicate keys. Keys must not contain ':'
// because they travel inside callback data.
func (c Catalog) Validate() error {
	var errs []error
	check := func(kind string, entries []CatalogEntry) {
		seen := make(map[string]bool, len(entries))
		for i, e := range entries {
			switch {
			case e.Key == "":
				errs = append(errs, fmt.Errorf("%s[%d]: key is required", kind, i))
			case strings.ContainsAny(e.Key, ": "):
				errs = append(errs, fmt.Errorf("%s[%d]: key %q must not contain ':' or spaces", kind, i, e.Key))
			case seen[e.Key]:
				errs = append(errs, fmt.Errorf("%s: duplicate key %q", kind, e.Key))
			}
			seen[e.Key] = true
		}
	}
	check("categories", c.Categories)
	check("job_types", c.JobTypes)
	return errors.Join(errs...)
}

// CategoryKeys returns the category keys in catalogue order.
func (c Catalog) CategoryKeys() []string {
	return keys(c.Categories)
}

// JobTypeKeys returns the job type keys in catalogue order.
func (c Catalog) JobTypeKeys() []string {
	return keys(c.JobTypes)
}

// Category looks up a category by key.
func (c Catalog) Category(key string) (CatalogEntry, bool) {
	return find(c.Categories, key)
}

// JobType looks up a job type by key.
func (c Catalog) JobType(key string) (CatalogEntry, bool) {
	return find(c.JobTypes, key)
}

func keys(entries []CatalogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}
	return out
}

func find(entries []CatalogEntry, key string) (CatalogEntry, bool) {
	for _, e := range entries {
		if e.Key == key {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

// MatchCategory resolves user input to a category by key or label, ignoring case.
// "Full Time", "full_time" and "full-time" all match the same entry.
func (c Catalog) MatchCategory(input string) (CatalogEntry, bool) {
	return match(c.Categories, input)
}

// MatchJobType resolves user input to a job type by key or label, ignoring case.
func (c Catalog) MatchJobType(input string) (CatalogEntry, bool) {
	return match(c.JobTypes, input)
}

func match(entries []CatalogEntry, input string) (CatalogEntry, bool) {
	norm := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		return strings.NewReplacer("-", "_", " ", "_").Replace(s)
	}
	want := norm(input)
	if want == "" {
		return CatalogEntry{}, false
	}
	for _, e := range entries {
		if norm(e.Key) == want || norm(e.Label) == want {
			return e, true
		}
	}
	return CatalogEntry{}, false
}
