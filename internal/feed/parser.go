package feed

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Namespace URIs used for format detection and RDF traversal.
const (
	rdfNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	rssNamespace = "http://purl.org/rss/1.0/"
	dcNamespace  = "http://purl.org/dc/elements/1.1/"
)

// Item is the uniform record both parse paths produce.
type Item struct {
	Title       string
	Description string
	Link        string
	Published   time.Time
}

// Parser turns sanitized feed text into items. RDF (RSS 1.0) documents take
// a namespace-aware path of their own; everything else goes through the
// general syndication parser.
type Parser struct {
	gf *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{gf: gofeed.NewParser()}
}

// IsRDF reports whether the document's root element lives in the RDF
// namespace.
func IsRDF(content string) bool {
	dec := xml.NewDecoder(strings.NewReader(content))
	for {
		tok, err := dec.Token()
		if err != nil {
			return false
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Space == rdfNamespace
		}
	}
}

// Parse extracts items from sanitized feed text, choosing the parse path by
// root namespace.
func (p *Parser) Parse(content string) ([]Item, error) {
	if IsRDF(content) {
		return parseRDF(content)
	}
	return p.parseSyndication(content)
}

func (p *Parser) parseSyndication(content string) ([]Item, error) {
	parsed, err := p.gf.ParseString(content)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		link := ""
		if len(it.Links) > 0 {
			link = it.Links[0]
		}

		item := Item{
			Title:       it.Title,
			Description: it.Description,
			Link:        link,
		}
		// No wall-clock fallback here; the date stays whatever the
		// parser resolved, zero included. Only the RDF path invents one.
		if it.PublishedParsed != nil {
			item.Published = *it.PublishedParsed
		}

		items = append(items, item)
	}

	return items, nil
}

type rdfDocument struct {
	XMLName xml.Name
	Items   []rdfItem `xml:"http://purl.org/rss/1.0/ item"`
}

type rdfItem struct {
	Title       string `xml:"http://purl.org/rss/1.0/ title"`
	Description string `xml:"http://purl.org/rss/1.0/ description"`
	Link        string `xml:"http://purl.org/rss/1.0/ link"`
	Date        string `xml:"http://purl.org/dc/elements/1.1/ date"`
}

func parseRDF(content string) ([]Item, error) {
	var doc rdfDocument
	if err := xml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("parse rdf feed: %w", err)
	}

	items := make([]Item, 0, len(doc.Items))
	for _, it := range doc.Items {
		items = append(items, Item{
			Title:       it.Title,
			Description: it.Description,
			Link:        it.Link,
			Published:   parseRDFDate(it.Date),
		})
	}

	return items, nil
}

var rdfDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// parseRDFDate parses a Dublin Core date, defaulting to the current time
// when the value is absent or unparsable.
func parseRDFDate(value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range rdfDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Now()
}
