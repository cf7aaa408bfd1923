// Package eventpage pulls event title, date and location out of event
// listing pages.
package eventpage

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/neexbeast/gumdrop/internal/stay"
)

var (
	spaces        = regexp.MustCompile(`\s+`)
	directionsTag = regexp.MustCompile(`(?is)get directions.*$`)
)

func collapse(s string) string {
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

// Extract parses an event page. Missing fields are left empty.
func Extract(r io.Reader) (stay.EventDetails, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return stay.EventDetails{}, fmt.Errorf("parsing event page: %w", err)
	}

	var d stay.EventDetails
	d.Title = firstText(doc,
		func(n *html.Node) bool { return n.DataAtom == atom.H1 && attr(n, "data-testid") == "event-title" },
		func(n *html.Node) bool { return n.DataAtom == atom.H1 && hasClass(n, "event-title") },
		func(n *html.Node) bool { return n.DataAtom == atom.H1 },
	)
	d.Date = firstText(doc,
		func(n *html.Node) bool { return attr(n, "data-testid") == "event-date" },
		func(n *html.Node) bool { return hasClass(n, "event-details__date") },
		func(n *html.Node) bool { return n.DataAtom == atom.Time },
	)
	if d.Date == "" {
		if t := find(doc, func(n *html.Node) bool { return n.DataAtom == atom.Time && attr(n, "datetime") != "" }); t != nil {
			d.Date = attr(t, "datetime")
		}
	}

	if box := find(doc, func(n *html.Node) bool { return hasClass(n, "location-info__address") }); box != nil {
		venue := ""
		if v := find(box, func(n *html.Node) bool { return hasClass(n, "location-info__address-text") }); v != nil {
			venue = collapse(text(v))
		}
		full := collapse(text(box))
		address := full
		if venue != "" {
			address = strings.Replace(full, venue, "", 1)
		}
		address = collapse(directionsTag.ReplaceAllString(address, ""))

		switch {
		case venue != "" && address != "":
			d.Location = venue + ", " + address
			d.Address = address
		case venue != "":
			d.Location = venue
		default:
			d.Location = address
			d.Address = address
		}
	}

	if d.Title == "" || d.Date == "" || d.Location == "" {
		fillFromStructuredData(doc, &d)
	}

	d.Title = collapse(d.Title)
	d.Date = collapse(d.Date)
	d.Location = collapse(d.Location)
	d.Address = collapse(d.Address)
	return d, nil
}

// ---- JSON-LD ----

type ldPlace struct {
	Name    string          `json:"name"`
	Address json.RawMessage `json:"address"`
}

type ldEvent struct {
	Type      json.RawMessage `json:"@type"`
	Name      string          `json:"name"`
	StartDate string          `json:"startDate"`
	DoorTime  string          `json:"doorTime"`
	Location  json.RawMessage `json:"location"`
	Graph     []ldEvent       `json:"@graph"`
}

func (e ldEvent) isEvent() bool {
	var one string
	if json.Unmarshal(e.Type, &one) == nil {
		return strings.HasSuffix(one, "Event")
	}
	var many []string
	if json.Unmarshal(e.Type, &many) == nil {
		for _, t := range many {
			if strings.HasSuffix(t, "Event") {
				return true
			}
		}
	}
	return false
}

func fillFromStructuredData(doc *html.Node, d *stay.EventDetails) {
	walk(doc, func(n *html.Node) bool {
		if n.DataAtom != atom.Script || attr(n, "type") != "application/ld+json" {
			return false
		}
		for _, ev := range decodeEvents(text(n)) {
			if !ev.isEvent() {
				continue
			}
			if d.Title == "" {
				d.Title = ev.Name
			}
			if d.Date == "" {
				d.Date = ev.StartDate
				if d.Date == "" {
					d.Date = ev.DoorTime
				}
			}
			if d.Location == "" {
				d.Location, d.Address = ldLocation(ev.Location)
			}
			return true
		}
		return false
	})
}

func decodeEvents(raw string) []ldEvent {
	raw = strings.TrimSpace(raw)
	var list []ldEvent
	if json.Unmarshal([]byte(raw), &list) != nil {
		var one ldEvent
		if json.Unmarshal([]byte(raw), &one) != nil {
			return nil
		}
		list = []ldEvent{one}
	}
	var out []ldEvent
	for _, e := range list {
		out = append(out, e)
		out = append(out, e.Graph...)
	}
	return out
}

// ldLocation returns the venue (or locality) and a street address.
func ldLocation(raw json.RawMessage) (string, string) {
	if len(raw) == 0 {
		return "", ""
	}
	var place ldPlace
	if json.Unmarshal(raw, &place) != nil {
		var s string
		_ = json.Unmarshal(raw, &s)
		return s, ""
	}

	var street string
	var locality string
	var addrText string
	if json.Unmarshal(place.Address, &addrText) == nil {
		street = addrText
	} else {
		var addr struct {
			StreetAddress   string `json:"streetAddress"`
			AddressLocality string `json:"addressLocality"`
			PostalCode      string `json:"postalCode"`
		}
		if json.Unmarshal(place.Address, &addr) == nil {
			locality = addr.AddressLocality
			parts := make([]string, 0, 3)
			for _, p := range []string{addr.StreetAddress, addr.AddressLocality, addr.PostalCode} {
				if p != "" {
					parts = append(parts, p)
				}
			}
			street = strings.Join(parts, ", ")
		}
	}

	name := place.Name
	if name == "" {
		name = locality
	}
	return name, street
}

// ---- tree helpers ----

// walk visits nodes depth-first until fn returns true.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if fn(n) {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if walk(c, fn) {
			return true
		}
	}
	return false
}

func find(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && match(n) {
			found = n
			return true
		}
		return false
	})
	return found
}

// firstText tries each matcher in order and returns the first non-empty text.
func firstText(root *html.Node, matchers ...func(*html.Node) bool) string {
	for _, m := range matchers {
		var out string
		walk(root, func(n *html.Node) bool {
			if n.Type != html.ElementNode || !m(n) {
				return false
			}
			out = collapse(text(n))
			return out != ""
		})
		if out != "" {
			return out
		}
	}
	return ""
}

func text(n *html.Node) string {
	var b strings.Builder
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
