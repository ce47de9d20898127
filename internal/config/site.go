package config

import (
	"maps"
	"path/filepath"
)

// SiteConfig holds per-source crawl settings from the configuration file.
// Zero values mean "not set" and fall back to the defaults or CLI flags.
type SiteConfig struct {
	// Cookie is sent with every request to the site, for example an
	// age confirmation: "age_verified=1".
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers for the site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Concurrency overrides the item fan-out limit.
	Concurrency int `yaml:"concurrency,omitempty"`

	// MaxPages overrides the page limit.
	MaxPages int `yaml:"maxPages,omitempty"`

	// MaxItems overrides the item limit.
	MaxItems int `yaml:"maxItems,omitempty"`

	// Start overrides the entry point of the source.
	Start string `yaml:"start,omitempty"`

	// IgnorePatterns are item URL path patterns that are never fetched.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`
}

// File represents the structure of the .pagewalk configuration file.
type File struct {
	// Defaults apply to every source unless overridden in Sites.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Sites maps source names to their configuration.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// SourceFiles are extra source definition files. Relative paths are
	// resolved against the directory of the configuration file.
	SourceFiles []string `yaml:"sourceFiles,omitempty"`

	// path is where the file was loaded from.
	path string
}

// GetSiteConfig returns the configuration for the named source, merged
// over the defaults.
func (cf *File) GetSiteConfig(name string) SiteConfig {
	result := cf.Defaults
	if cf.Defaults.Headers != nil {
		result.Headers = maps.Clone(cf.Defaults.Headers)
	}

	site, ok := cf.Sites[name]
	if !ok {
		return result
	}
	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		maps.Copy(result.Headers, site.Headers)
	}
	if site.Concurrency != 0 {
		result.Concurrency = site.Concurrency
	}
	if site.MaxPages != 0 {
		result.MaxPages = site.MaxPages
	}
	if site.MaxItems != 0 {
		result.MaxItems = site.MaxItems
	}
	if site.Start != "" {
		result.Start = site.Start
	}
	if len(site.IgnorePatterns) > 0 {
		result.IgnorePatterns = site.IgnorePatterns
	}
	return result
}

// SourcePaths returns SourceFiles with relative entries resolved against
// the directory of the configuration file.
func (cf *File) SourcePaths() []string {
	paths := make([]string, 0, len(cf.SourceFiles))
	dir := filepath.Dir(cf.path)
	for _, p := range cf.SourceFiles {
		if !filepath.IsAbs(p) && cf.path != "" {
			p = filepath.Join(dir, p)
		}
		paths = append(paths, p)
	}
	return paths
}
