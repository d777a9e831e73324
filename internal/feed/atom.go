package feed

import (
	"encoding/xml"
	"time"
)

const (
	atomMediaType = "application/atom+xml"

	relSelf        = "self"
	relCurrent     = "current"
	relAlternate   = "alternate"
	relRelated     = "related"
	relNext        = "next"
	relNextArchive = "next-archive"
	relPrev        = "prev"
	relPrevArchive = "prev-archive"
)

type atomFeed struct {
	XMLName xml.Name    `xml:"http://www.w3.org/2005/Atom feed"`
	Title   string      `xml:"title"`
	ID      string      `xml:"id"`
	Updated string      `xml:"updated"`
	Links   []atomLink  `xml:"link"`
	Entries []atomEntry `xml:"entry"`
}

type atomLink struct {
	Rel   string `xml:"rel,attr,omitempty"`
	Href  string `xml:"href,attr"`
	Type  string `xml:"type,attr,omitempty"`
	Title string `xml:"title,attr,omitempty"`
}

type atomEntry struct {
	Title     string     `xml:"title"`
	ID        string     `xml:"id"`
	Updated   string     `xml:"updated"`
	Published string     `xml:"published"`
	Links     []atomLink `xml:"link"`
	Summary   atomText   `xml:"summary"`
}

type atomText struct {
	Type string `xml:"type,attr,omitempty"`
	Body string `xml:",chardata"`
}

// link returns the first href with the given rel.
func (f atomFeed) link(rel string) (string, bool) {
	for _, l := range f.Links {
		if l.Rel == rel {
			return l.Href, true
		}
	}
	return "", false
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
