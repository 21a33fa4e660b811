package scrape

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func parsePage(t *testing.T, finalURL, body string) *Page {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return &Page{FinalURL: finalURL, Doc: doc}
}

const bundlePage = `<html><body>
<h2 class="pageheader">Valve Complete Pack</h2>
<div class="bundle_contents">
  <div class="tab_item" data-ds-appid="220">Half-Life 2</div>
  <div class="tab_item" data-ds-appid="400,420">Portal Bundle Row</div>
  <div class="tab_item" data-ds-appid="220">Duplicate</div>
</div>
</body></html>`

func TestExtractBundleOK(t *testing.T) {
	// WHAT: A structurally-OK page yields name and the deduplicated app set.
	p := parsePage(t, "https://store.example.com/bundle/232/?cc=US&l=english", bundlePage)
	e := ExtractBundle(p, 232)

	if e.Removed {
		t.Fatal("removed on matching URL")
	}
	if !e.OK {
		t.Fatal("header not detected")
	}
	if e.Name != "Valve Complete Pack" {
		t.Errorf("name: got %q", e.Name)
	}
	want := []int64{220, 400, 420}
	if len(e.Apps) != len(want) {
		t.Fatalf("apps: got %v, want %v", e.Apps, want)
	}
	for i, id := range want {
		if e.Apps[i] != id {
			t.Errorf("apps[%d]: got %d, want %d", i, e.Apps[i], id)
		}
	}
}

func TestExtractBundleRedirectedAway(t *testing.T) {
	// WHAT: A final URL outside the per-id page pattern means removed, and
	// nothing is extracted even if the landing page has a header.
	p := parsePage(t, "https://store.example.com/", bundlePage)
	e := ExtractBundle(p, 232)

	if !e.Removed {
		t.Fatal("not marked removed")
	}
	if e.OK || e.Name != "" || len(e.Apps) != 0 {
		t.Errorf("extracted data from a removed page: %+v", e)
	}
}

func TestExtractBundleWrongID(t *testing.T) {
	// WHAT: Landing on a different bundle's page counts as redirected away,
	// including ids that are a digit prefix of the landing page's id.
	cases := []struct {
		finalURL string
		id       int64
	}{
		{"https://store.example.com/bundle/999/", 232},
		{"https://store.example.com/bundle/2321/?cc=US&l=english", 232},
		{"https://store.example.com/bundle/41/", 4},
	}
	for _, c := range cases {
		e := ExtractBundle(parsePage(t, c.finalURL, bundlePage), c.id)
		if !e.Removed {
			t.Errorf("id %d at %s: not marked removed", c.id, c.finalURL)
		}
	}
}

func TestExtractBundleQueryParamsKeepMatch(t *testing.T) {
	// WHAT: Query parameters and trailing path segments on the per-id page
	// do not break the match.
	for _, u := range []string{
		"https://store.example.com/bundle/232/?cc=US&l=english",
		"https://store.example.com/bundle/232",
		"https://store.example.com/bundle/232/Valve_Complete_Pack/",
	} {
		e := ExtractBundle(parsePage(t, u, bundlePage), 232)
		if e.Removed {
			t.Errorf("%s: wrongly marked removed", u)
		}
	}
}

func TestExtractBundleNoHeader(t *testing.T) {
	// WHAT: A reachable page without the header element is unparseable:
	// no usable data, but not removed.
	p := parsePage(t, "https://store.example.com/bundle/232/",
		`<html><body><div class="something_else">changed markup</div></body></html>`)
	e := ExtractBundle(p, 232)

	if e.Removed {
		t.Error("marked removed")
	}
	if e.OK {
		t.Error("structural signal on headerless page")
	}
	if e.Name != "" || len(e.Apps) != 0 {
		t.Errorf("extracted data without header: %+v", e)
	}
}

func TestExtractBundleIgnoresBadAppValues(t *testing.T) {
	// WHAT: Non-numeric attribute values are skipped, valid neighbours kept.
	p := parsePage(t, "https://store.example.com/bundle/1/",
		`<html><body><h2 class="pageheader">X</h2>
		<div data-ds-appid="abc"></div>
		<div data-ds-appid="10, 20 ,junk"></div></body></html>`)
	e := ExtractBundle(p, 1)

	if len(e.Apps) != 2 || e.Apps[0] != 10 || e.Apps[1] != 20 {
		t.Errorf("apps: got %v, want [10 20]", e.Apps)
	}
}

func TestExtractBundleEmptyHeader(t *testing.T) {
	// WHAT: A present but empty header yields OK with an empty name; the
	// caller treats that as "no title observed".
	p := parsePage(t, "https://store.example.com/bundle/1/",
		`<html><body><h2 class="pageheader">   </h2></body></html>`)
	e := ExtractBundle(p, 1)

	if !e.OK {
		t.Fatal("header not detected")
	}
	if e.Name != "" {
		t.Errorf("name: got %q, want empty", e.Name)
	}
}
