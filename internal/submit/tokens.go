package submit

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
)

const (
	FieldMaxFileSize  = "MAX_FILE_SIZE"
	FieldSubmitKey    = "submit_key"
	FieldUploadedFile = "uploadedfile"
)

// Tokens are the hidden values the submit form hands out.
type Tokens struct {
	MaxFileSize string
	SubmitKey   string
}

// ScrapeTokens reads the value of the first element named MAX_FILE_SIZE and
// the first named submit_key. A first match without a value attribute is
// missing too; later elements of the same name are not consulted.
func ScrapeTokens(r io.Reader) (Tokens, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Tokens{}, fmt.Errorf("parse submit form: %w", err)
	}
	type field struct {
		value    string
		hasValue bool
	}
	found := map[string]field{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			var name string
			var f field
			for _, a := range n.Attr {
				switch a.Key {
				case "name":
					name = a.Val
				case "value":
					f = field{value: a.Val, hasValue: true}
				}
			}
			if _, seen := found[name]; !seen && (name == FieldMaxFileSize || name == FieldSubmitKey) {
				found[name] = f
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	for _, name := range []string{FieldMaxFileSize, FieldSubmitKey} {
		f, ok := found[name]
		if !ok {
			return Tokens{}, fmt.Errorf("%w: %s", ErrTokenMissing, name)
		}
		if !f.hasValue {
			return Tokens{}, fmt.Errorf("%w: %s has no value", ErrTokenMissing, name)
		}
	}
	return Tokens{MaxFileSize: found[FieldMaxFileSize].value, SubmitKey: found[FieldSubmitKey].value}, nil
}
