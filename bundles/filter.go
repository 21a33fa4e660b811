package bundles

import (
	"fmt"
	"strings"
)

// FieldSet is the validated projection set: which optional fields a caller
// asked for. The identifier, last_update, and queued_for_update are always
// included and not filterable.
type FieldSet struct {
	Name    bool
	Removed bool
	Apps    bool
}

// AllFields includes every projectable field.
var AllFields = FieldSet{Name: true, Removed: true, Apps: true}

// fieldVocabulary is the allowed filter vocabulary, in message order.
var fieldVocabulary = []string{"name", "removed", "apps"}

// ParseFields parses a comma-separated list of requested field names. An
// empty input includes every field; empty entries collapse to "all"; any
// token outside the vocabulary fails with ErrInvalidFilter naming the allowed
// list.
func ParseFields(filters string) (FieldSet, error) {
	if strings.TrimSpace(filters) == "" {
		return AllFields, nil
	}

	var fs FieldSet
	seen := false
	for _, tok := range strings.Split(filters, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		switch tok {
		case "name":
			fs.Name = true
		case "removed":
			fs.Removed = true
		case "apps":
			fs.Apps = true
		default:
			return FieldSet{}, fmt.Errorf("%w: unknown field %q (allowed: %s)",
				ErrInvalidFilter, tok, strings.Join(fieldVocabulary, ", "))
		}
		seen = true
	}
	if !seen {
		return AllFields, nil
	}
	return fs, nil
}
