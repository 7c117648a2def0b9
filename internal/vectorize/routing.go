package vectorize

import (
	"fmt"
	"strings"

	"github.com/alkashef/vector-store/internal/domain"
)

// NormalizeRouting derives filterable facets from the extraction mapping.
// skills_norm and industries_norm accept either a native list or a
// comma-delimited string and come out lower-cased and trimmed; alma_mater is
// a trimmed plain string. Missing or malformed input yields empty signals,
// never an error, so downstream faceting keeps working when upstream
// extraction is incomplete.
func NormalizeRouting(extraction map[string]any) domain.Routing {
	if extraction == nil {
		return domain.Routing{}
	}

	r := domain.Routing{
		SkillsNorm:     normalizeFacet(extraction["skills_norm"]),
		IndustriesNorm: normalizeFacet(extraction["industries_norm"]),
	}
	if v, ok := extraction["alma_mater"]; ok && v != nil {
		r.AlmaMater = strings.TrimSpace(fmt.Sprintf("%v", v))
	}
	return r
}

// normalizeFacet canonicalizes a facet value into a lower-cased list.
func normalizeFacet(v any) []string {
	var raw []string
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		raw = strings.Split(val, ",")
	case []string:
		raw = val
	case []any:
		raw = make([]string, 0, len(val))
		for _, item := range val {
			if item == nil {
				continue
			}
			raw = append(raw, fmt.Sprintf("%v", item))
		}
	default:
		return nil
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
