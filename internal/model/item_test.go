package model

import (
	"testing"
)

func TestSiteHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		site *Site
		want string
	}{
		{name: "strips www", site: &Site{URL: "https://www.YouJizz.com"}, want: "youjizz.com"},
		{name: "keeps port-less host", site: &Site{URL: "http://127.0.0.1:8080"}, want: "127.0.0.1"},
		{name: "nil site", site: nil, want: ""},
		{name: "unparsable", site: &Site{URL: "://bad"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.site.Host(); got != tt.want {
				t.Errorf("Host() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestItemFingerprint(t *testing.T) {
	t.Parallel()

	site := &Site{Name: "YouJizz", URL: "https://www.youjizz.com"}
	item := &Item{Site: site, URL: "https://www.youjizz.com/videos/a-1.html", Title: "A"}

	t.Run("stable across detail fields", func(t *testing.T) {
		t.Parallel()
		other := &Item{Site: site, URL: item.URL, Title: "changed", Duration: 10}
		if item.Fingerprint() != other.Fingerprint() {
			t.Error("expected equal fingerprints for the same URL")
		}
	})

	t.Run("www prefix does not matter", func(t *testing.T) {
		t.Parallel()
		bare := &Item{Site: &Site{URL: "https://youjizz.com"}, URL: item.URL}
		if item.Fingerprint() != bare.Fingerprint() {
			t.Error("expected equal fingerprints for www and bare host")
		}
	})

	t.Run("differs by URL", func(t *testing.T) {
		t.Parallel()
		other := &Item{Site: site, URL: "https://www.youjizz.com/videos/b-2.html"}
		if item.Fingerprint() == other.Fingerprint() {
			t.Error("expected different fingerprints")
		}
	})

	t.Run("hex encoded sha3-256", func(t *testing.T) {
		t.Parallel()
		if got := len(item.Fingerprint()); got != 64 {
			t.Errorf("expected 64 hex characters, got %d", got)
		}
	})
}
