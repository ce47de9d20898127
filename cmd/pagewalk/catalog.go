package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/pagewalk/internal/config"
	"github.com/nao1215/pagewalk/internal/schema"
)

// loadCatalog returns the builtin sources overlaid with the definitions in
// the user sources directory and the configuration file's sourceFiles.
// Later definitions replace earlier ones of the same name.
func loadCatalog(cfg *config.Config) (*schema.Catalog, error) {
	catalog, err := schema.Builtin()
	if err != nil {
		return nil, err
	}

	paths, err := userSourceFiles(config.SourcesDir())
	if err != nil {
		return nil, err
	}
	if cfg.SiteConfigs != nil {
		paths = append(paths, cfg.SiteConfigs.SourcePaths()...)
	}

	for _, p := range paths {
		src, err := schema.LoadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to load source %s: %w", p, err)
		}
		catalog.Put(src)
	}
	return catalog, nil
}

// userSourceFiles lists the YAML files in dir. A missing dir is empty.
func userSourceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isDefinitionFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}

// isDefinitionFile reports whether name looks like a YAML definition.
func isDefinitionFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// resolveSource returns the source named by arg. A path to a YAML file is
// loaded and added to the catalog; anything else is looked up by name.
func resolveSource(catalog *schema.Catalog, arg string) (*schema.Source, error) {
	if isDefinitionFile(arg) {
		src, err := schema.LoadFile(arg)
		if err != nil {
			return nil, err
		}
		catalog.Put(src)
		return src, nil
	}
	return catalog.Get(arg)
}
