package hadith

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ImportHTML reads a collection page and returns its hadiths. The page is
// expected to mark each hadith with a "hadith" class and its parts with the
// "book", "narrator", "text" and "reference" classes; the number comes from
// data-number, falling back to the position on the page.
func ImportHTML(r io.Reader, collectionID string) (Collection, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Collection{}, fmt.Errorf("parse html: %w", err)
	}

	col := Collection{
		ID:   collectionID,
		Name: cleanText(doc.Find("h1").First()),
	}
	if col.Name == "" {
		col.Name = collectionID
	}

	prefix := collectionID
	if prefix != "" {
		prefix = prefix[:1]
	}

	doc.Find(".hadith").Each(func(i int, s *goquery.Selection) {
		text := cleanText(s.Find(".text").First())
		if text == "" {
			return
		}
		number := i + 1
		if v, ok := s.Attr("data-number"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				number = n
			}
		}
		h := Hadith{
			Book:      cleanText(s.Find(".book").First()),
			Narrator:  cleanText(s.Find(".narrator").First()),
			Number:    number,
			Text:      text,
			Reference: cleanText(s.Find(".reference").First()),
		}
		h.ID = prefix + strconv.Itoa(number)
		if h.Reference == "" {
			h.Reference = fmt.Sprintf("%s %d", col.Name, number)
		}
		col.Hadiths = append(col.Hadiths, h)
	})

	if len(col.Hadiths) == 0 {
		return Collection{}, fmt.Errorf("no hadiths found in page")
	}
	return col, nil
}

// cleanText joins the text nodes of the selection, skipping script and
// style content, and collapses whitespace.
func cleanText(s *goquery.Selection) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
