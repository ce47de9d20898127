package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/pagewalk/internal/crawler"
	"github.com/nao1215/pagewalk/internal/schema"
)

// savedPages writes a definition for https://example.com and a listing and
// detail page next to it.
func savedPages(t *testing.T) (defs, list, detail string) {
	t.Helper()
	dir := t.TempDir()
	defs = filepath.Join(dir, "local.yaml")
	list = filepath.Join(dir, "list.html")
	detail = filepath.Join(dir, "detail.html")
	writeFile(t, defs, fmt.Sprintf(definitionTemplate, "https://example.com"))
	writeFile(t, list, listingPage("/list/1.html", 3, 4))
	writeFile(t, detail, detailPage(7))
	return defs, list, detail
}

func probeArgs(t *testing.T, extra ...string) []string {
	t.Helper()
	args := []string{"probe", "--config", testConfigFile(t), "--env-file", "", "--file"}
	return append(args, extra...)
}

// TestProbeListing tests probing a saved listing page.
func TestProbeListing(t *testing.T) {
	t.Parallel()

	defs, list, _ := savedPages(t)

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := execute(t, probeArgs(t, defs, list)...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{
			"Source: local",
			"Previous page: https://example.com/list/1.html",
			"Items: 2",
			"https://example.com/v/3.html",
			"https://example.com/t/4.jpg",
		} {
			if !strings.Contains(stdout, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, stdout)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := execute(t, probeArgs(t, "--json", defs, list)...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got probeResult
		if err := json.Unmarshal([]byte(stdout), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		want := []probeItem{
			{URL: "https://example.com/v/3.html", Thumbnail: "https://example.com/t/3.jpg"},
			{URL: "https://example.com/v/4.html", Thumbnail: "https://example.com/t/4.jpg"},
		}
		if diff := cmp.Diff(want, got.Items); diff != "" {
			t.Errorf("unexpected items (-want +got):\n%s", diff)
		}
		if got.Kind != "listing" || got.Oldest || got.PageTitle != "" {
			t.Errorf("unexpected result %+v", got)
		}
	})
}

// TestProbeItem tests probing a saved detail page.
func TestProbeItem(t *testing.T) {
	t.Parallel()

	defs, _, detail := savedPages(t)
	stdout, _, err := execute(t, probeArgs(t, "--item", defs, detail)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{`"Clip 7"`, "Title:    Clip 7", "Duration: 67s", "Tags:     tag7, common"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, stdout)
		}
	}
}

// TestProbeFieldErrors tests that field failures are reported, not returned.
func TestProbeFieldErrors(t *testing.T) {
	t.Parallel()

	src, err := schema.Load(fmt.Appendf(nil, definitionTemplate, "https://example.com"))
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	oldest := filepath.Join(dir, "oldest.html")
	mismatch := filepath.Join(dir, "mismatch.html")
	writeFile(t, oldest, listingPage("", 1))
	writeFile(t, mismatch, strings.Replace(listingPage("", 1, 2), `<img data-original="/t/2.jpg">`, "", 1))

	t.Run("oldest page", func(t *testing.T) {
		t.Parallel()

		got, err := probe(context.Background(), src, crawler.FileFetcher{}, oldest, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.Oldest || got.PreviousPage != "" || len(got.Errors) != 0 {
			t.Errorf("unexpected result %+v", got)
		}
	})

	t.Run("length mismatch", func(t *testing.T) {
		t.Parallel()

		got, err := probe(context.Background(), src, crawler.FileFetcher{}, mismatch, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg := got.Errors[schema.FieldItemThumbnails]; !strings.Contains(msg, crawler.ErrLengthMismatch.Error()) {
			t.Errorf("expected length mismatch, got %q", msg)
		}
		if len(got.Items) != 0 {
			t.Errorf("expected no items, got %d", len(got.Items))
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := probe(context.Background(), src, crawler.FileFetcher{}, filepath.Join(dir, "nope.html"), false)
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected not exist error, got %v", err)
		}
	})
}
