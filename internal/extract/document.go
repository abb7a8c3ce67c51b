package extract

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// ParseDocument parses an HTML body into a queryable document.
// contentType is the response Content-Type and may be empty; it is used to
// pick the character set before falling back to sniffing.
func ParseDocument(body io.Reader, contentType string) (*goquery.Document, error) {
	utf8Body, err := charset.NewReader(body, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to detect charset: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(utf8Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}
