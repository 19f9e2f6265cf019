package conv

import (
	"strings"

	"github.com/inbucket/html2text"
)

// HTMLToText flattens an HTML document so it can be inlined into a prompt.
func HTMLToText(doc string) (string, error) {
	text, err := html2text.FromString(doc, html2text.Options{
		OmitLinks:    false,
		PrettyTables: true,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
