package export

import (
	"regexp"
	"strings"
)

// maxKeywords caps the keyword list of a single root post.
const maxKeywords = 15

var (
	keywordLineRe = regexp.MustCompile(`(?i)keywords?\s*:\s*([^\n#]+)`)
	hashtagRe     = regexp.MustCompile(`#(\w[\w\-]*)`)
	boldSpanRe    = regexp.MustCompile(`\*\*([^*]+)\*\*`)
)

// orderedSet is a sequence with first-seen deduplication by exact value.
type orderedSet struct {
	values []string
	index  map[string]struct{}
}

func newOrderedSet() *orderedSet {
	return &orderedSet{index: make(map[string]struct{})}
}

func (s *orderedSet) add(value string) {
	if _, ok := s.index[value]; ok {
		return
	}
	s.index[value] = struct{}{}
	s.values = append(s.values, value)
}

// containsFold reports whether the set holds value under case folding.
func (s *orderedSet) containsFold(value string) bool {
	for _, v := range s.values {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

// ExtractKeywords derives the ordered tag list for a root post body.
// Sources, in priority order: an explicit "keywords:" line (lowercased,
// comma-separated), #hashtags in document order, and **bold** spans of
// two to four words not already collected. The result is deduplicated
// preserving first-seen order and capped at 15 entries; an empty result
// is nil so it is omitted from the record.
func ExtractKeywords(body string) []string {
	set := newOrderedSet()

	if m := keywordLineRe.FindStringSubmatch(body); m != nil {
		for _, token := range strings.Split(m[1], ",") {
			token = strings.ToLower(strings.TrimSpace(token))
			if token != "" {
				set.add(token)
			}
		}
	}

	for _, m := range hashtagRe.FindAllStringSubmatch(body, -1) {
		set.add(m[1])
	}

	for _, m := range boldSpanRe.FindAllStringSubmatch(body, -1) {
		phrase := strings.TrimSpace(m[1])
		words := len(strings.Fields(phrase))
		if words < 2 || words > 4 {
			continue
		}
		if set.containsFold(phrase) {
			continue
		}
		set.add(phrase)
	}

	if len(set.values) == 0 {
		return nil
	}
	if len(set.values) > maxKeywords {
		return set.values[:maxKeywords]
	}
	return set.values
}
