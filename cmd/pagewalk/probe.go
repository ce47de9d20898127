package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/pagewalk/internal/config"
	"github.com/nao1215/pagewalk/internal/crawler"
	"github.com/nao1215/pagewalk/internal/extract"
	"github.com/nao1215/pagewalk/internal/schema"
)

// NewProbeCmd creates the probe command.
func NewProbeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe <source|definition.yaml> <url|file>",
		Short: "Evaluate a source definition against one page",
		Long: `Probe fetches a single page and shows what the source definition extracts
from it, without submitting or storing anything. Use it while writing a new
definition.

A listing page shows the previous-page link and the item/thumbnail pairs.
With --item the page is treated as an item detail page and shows the title,
duration and tags. Field errors are reported per field.

Examples:
  # Check a listing page of a builtin source
  pagewalk probe youjizz https://www.youjizz.com/newest-clips/2.html

  # Check an item page against a definition under development
  pagewalk probe --item ./mysite.yaml https://example.com/videos/42.html

  # Work offline on a saved page
  pagewalk probe --file ./mysite.yaml ./testdata/list.html`,
		Args: cobra.ExactArgs(2),
		RunE: runProbeCmd,
	}

	cmd.Flags().Bool("item", false, "Treat the page as an item detail page")
	cmd.Flags().Bool("file", false, "Read the page from a local file")
	cmd.Flags().Bool("json", false, "Print the result as JSON")
	cmd.Flags().String("cookie", "", "Cookie header sent with the request")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Timeout for the request")
	cmd.Flags().String("proxy", "", "SOCKS5 proxy address (host:port)")

	return cmd
}

// probeResult is what a definition extracts from one page.
type probeResult struct {
	Source    string `json:"source"`
	URL       string `json:"url"`
	Kind      string `json:"kind"`
	PageTitle string `json:"pageTitle,omitempty"`

	PreviousPage string            `json:"previousPage,omitempty"`
	Oldest       bool              `json:"oldest,omitempty"`
	Items        []probeItem       `json:"items,omitempty"`
	Title        string            `json:"title,omitempty"`
	Duration     int               `json:"duration,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	Errors       map[string]string `json:"errors,omitempty"`
}

type probeItem struct {
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
}

func (r *probeResult) fail(field string, err error) {
	if r.Errors == nil {
		r.Errors = make(map[string]string)
	}
	r.Errors[field] = err.Error()
}

// runProbeCmd executes the probe command.
func runProbeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd)

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	src, err := resolveSource(catalog, args[0])
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	asItem, err := flags.GetBool("item")
	if err != nil {
		return err
	}
	fromFile, err := flags.GetBool("file")
	if err != nil {
		return err
	}
	asJSON, err := flags.GetBool("json")
	if err != nil {
		return err
	}

	var fetcher crawler.Fetcher = crawler.FileFetcher{}
	if !fromFile {
		cookie, err := flags.GetString("cookie")
		if err != nil {
			return err
		}
		if cookie == "" {
			cookie = cfg.Site(src.Name).Cookie
		}
		timeout, err := flags.GetDuration("timeout")
		if err != nil {
			return err
		}
		proxy, err := flags.GetString("proxy")
		if err != nil {
			return err
		}
		fetcher, err = crawler.NewHTTPFetcher(
			crawler.WithTimeout(timeout),
			crawler.WithCookie(cookie),
			crawler.WithHeaders(cfg.Site(src.Name).Headers),
			crawler.WithProxy(proxy),
			crawler.WithFetcherLogger(logger),
		)
		if err != nil {
			return err
		}
	}

	result, err := probe(cmd.Context(), src, fetcher, args[1], asItem)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return writeProbe(out, result)
}

// probe fetches address and evaluates the fields of src against it.
// Only fetch and parse failures are returned; field failures are part of
// the result.
func probe(ctx context.Context, src *schema.Source, fetcher crawler.Fetcher, address string, asItem bool) (*probeResult, error) {
	raw, err := fetcher.Fetch(ctx, address)
	if err != nil {
		return nil, err
	}
	ex, err := extract.ParseString(src, raw)
	if err != nil {
		return nil, err
	}

	result := &probeResult{
		Source:    src.Name,
		URL:       address,
		Kind:      "listing",
		PageTitle: ex.Document().Title(),
	}
	if asItem {
		result.Kind = "item"
		if result.Title, err = ex.Title(); err != nil {
			result.fail(schema.FieldTitle, err)
		}
		if result.Duration, err = ex.Duration(); err != nil {
			result.fail(schema.FieldDuration, err)
		}
		if result.Tags, err = ex.Tags(); err != nil {
			result.fail(schema.FieldTags, err)
		}
		return result, nil
	}

	next, found, err := ex.PreviousPage()
	switch {
	case err != nil:
		result.fail(schema.FieldPreviousPage, err)
	case found:
		result.PreviousPage = next
	default:
		result.Oldest = true
	}

	links, linkErr := ex.ItemLinks()
	if linkErr != nil {
		result.fail(schema.FieldItemLinks, linkErr)
	}
	thumbs, thumbErr := ex.ItemThumbnails()
	if thumbErr != nil {
		result.fail(schema.FieldItemThumbnails, thumbErr)
	}
	if linkErr == nil && thumbErr == nil {
		if len(links) != len(thumbs) {
			result.fail(schema.FieldItemThumbnails,
				fmt.Errorf("%w: %d links, %d thumbnails", crawler.ErrLengthMismatch, len(links), len(thumbs)))
		} else {
			for i := range links {
				result.Items = append(result.Items, probeItem{URL: links[i], Thumbnail: thumbs[i]})
			}
		}
	}
	return result, nil
}

// writeProbe prints a result for humans.
func writeProbe(w io.Writer, r *probeResult) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Source: %s\n", r.Source)
	fmt.Fprintf(&sb, "Page:   %s (%s)\n", r.URL, r.Kind)
	if r.PageTitle != "" {
		fmt.Fprintf(&sb, "        %q\n", r.PageTitle)
	}
	sb.WriteByte('\n')

	if r.Kind == "item" {
		fmt.Fprintf(&sb, "Title:    %s\n", r.Title)
		fmt.Fprintf(&sb, "Duration: %ds\n", r.Duration)
		fmt.Fprintf(&sb, "Tags:     %s\n", strings.Join(r.Tags, ", "))
	} else {
		switch {
		case r.PreviousPage != "":
			fmt.Fprintf(&sb, "Previous page: %s\n", r.PreviousPage)
		case r.Oldest:
			sb.WriteString("Previous page: none (oldest page)\n")
		}
		fmt.Fprintf(&sb, "Items: %d\n", len(r.Items))
		for i, item := range r.Items {
			fmt.Fprintf(&sb, "  %3d. %s\n       %s\n", i+1, item.URL, item.Thumbnail)
		}
	}

	if len(r.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		for _, field := range sortedKeys(r.Errors) {
			fmt.Fprintf(&sb, "  %s: %s\n", field, r.Errors[field])
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
