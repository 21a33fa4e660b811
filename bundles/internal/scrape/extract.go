package scrape

import (
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	headerClass = "pageheader"
	appAttr     = "data-ds-appid"
)

// Extract holds the candidate fields derived from one fetched page.
type Extract struct {
	// Removed is true when the final resolved URL left the per-identifier
	// page pattern (the source redirected away).
	Removed bool
	// OK is the structural signal: the known page-header element is present.
	// A reachable page without it yields no usable data but is not removed.
	OK bool
	// Name is the page-header text. Set only when OK and not removed.
	Name string
	// Apps is the set of related item ids found via the data attribute on
	// descendant elements. Set only when OK and not removed.
	Apps []int64
}

// ExtractBundle derives the candidate fields for one bundle id from a page.
func ExtractBundle(p *Page, id int64) Extract {
	var e Extract

	if !onBundlePage(p.FinalURL, id) {
		e.Removed = true
		return e
	}

	header := findHeader(p.Doc)
	if header == nil {
		return e
	}
	e.OK = true
	e.Name = strings.TrimSpace(collectText(header))
	e.Apps = collectAppIDs(p.Doc)
	return e
}

// onBundlePage reports whether finalURL is still the page for this id. The
// path is matched segment-wise so a neighboring id sharing a digit prefix
// (bundle 41 vs bundle 4) never counts.
func onBundlePage(finalURL string, id int64) bool {
	u, err := url.Parse(finalURL)
	if err != nil {
		return false
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	want := strconv.FormatInt(id, 10)
	for i := 0; i+1 < len(segs); i++ {
		if segs[i] == "bundle" && segs[i+1] == want {
			return true
		}
	}
	return false
}

// findHeader locates the first h2 element carrying the page-header class.
func findHeader(doc *html.Node) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.H2 && hasClass(n, headerClass) {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}

// collectAppIDs gathers every id carried by the app data attribute. Values
// may hold several comma-separated ids; duplicates collapse, discovery order
// is kept.
func collectAppIDs(doc *html.Node) []int64 {
	var ids []int64
	seen := make(map[int64]bool)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key != appAttr {
					continue
				}
				for _, part := range strings.Split(a.Val, ",") {
					id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
					if err != nil || seen[id] {
						continue
					}
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return ids
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

func collectText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
