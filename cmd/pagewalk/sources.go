package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/pagewalk/internal/schema"
)

// NewSourcesCmd creates the sources command.
func NewSourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List the known source definitions",
		Long: `Sources lists every source pagewalk can crawl by name: the builtin
definitions, the YAML files in the sources directory under the user
configuration directory and the sourceFiles of the configuration file.`,
		Args: cobra.NoArgs,
		RunE: runSourcesCmd,
	}
	cmd.Flags().Bool("json", false, "Print the sources as JSON")
	return cmd
}

// sourceInfo describes one catalog entry.
type sourceInfo struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	EntryPoint string `json:"entryPoint"`
}

// runSourcesCmd executes the sources command.
func runSourcesCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	setupLogger(cmd)

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	infos, err := listSources(catalog)
	if err != nil {
		return err
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}
	return writeSources(out, infos)
}

// listSources returns the catalog entries sorted by name.
func listSources(catalog *schema.Catalog) ([]sourceInfo, error) {
	names := catalog.Names()
	infos := make([]sourceInfo, 0, len(names))
	for _, name := range names {
		src, err := catalog.Get(name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, sourceInfo{
			Name:       src.Name,
			URL:        src.Site().URL,
			EntryPoint: src.EntryPoint,
		})
	}
	return infos, nil
}

func writeSources(w io.Writer, infos []sourceInfo) error {
	if len(infos) == 0 {
		_, err := io.WriteString(w, "No sources found.\n")
		return err
	}

	width := len("NAME")
	for _, info := range infos {
		width = max(width, len(info.Name))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-*s  %s\n", width, "NAME", "ENTRY POINT")
	for _, info := range infos {
		fmt.Fprintf(&sb, "%-*s  %s\n", width, info.Name, info.EntryPoint)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
