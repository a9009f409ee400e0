package rules

import (
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/teranos/ziwei/errors"
)

// Find returns the rules whose id, description or result text contains
// every term of query. Terms are split shell-style, so quoted phrases
// stay together: `祿存 "天 馬"`.
func Find(lib *Library, query string) ([]Rule, error) {
	terms, err := shellquote.Split(query)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "bad query %q: %v", query, err)
	}
	if len(terms) == 0 {
		return nil, errors.NewInvalidRequestError("empty query")
	}

	var out []Rule
	for _, r := range lib.Rules {
		if matchesAll(r, terms) {
			out = append(out, r)
		}
	}
	return out, nil
}

func matchesAll(r Rule, terms []string) bool {
	haystack := strings.ToLower(strings.Join([]string{r.ID, r.Description, r.Result.Text}, "\n"))
	for _, t := range terms {
		if !strings.Contains(haystack, strings.ToLower(t)) {
			return false
		}
	}
	return true
}
