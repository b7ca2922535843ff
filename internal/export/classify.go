package export

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/campaignlab/fieldnotes/internal/event"
)

// Category is the published type of an exported message.
type Category string

const (
	CategoryJournal   Category = "journal"
	CategoryLink      Category = "link"
	CategoryQuestion  Category = "question"
	CategoryProject   Category = "project"
	CategoryIdea      Category = "idea"
	CategoryFieldNote Category = "field_note"
	CategoryBlogPost  Category = "blog_post"
	CategoryReply     Category = "reply"
)

// variationSelector is the emoji presentation suffix (U+FE0F) that some
// clients append to marker glyphs.
const variationSelector = "️"

type marker struct {
	glyph    string
	category Category
}

// markerTable maps leading marker glyphs to categories, in match order.
// Short reading notes (📥) default to journal; link-only 📥 posts are
// overridden to link.
var markerTable = []marker{
	{"📥", CategoryJournal},
	{"🔗", CategoryLink},
	{"❓", CategoryQuestion},
	{"💾", CategoryProject},
	{"💡", CategoryIdea},
	{"📔", CategoryFieldNote},
	{"📄", CategoryBlogPost},
}

var (
	postedAnnotationRe = regexp.MustCompile(`(?i)_\s*originally posted[^_]*_`)
	postedTrailerRe    = regexp.MustCompile(`(?i)originally posted[^\n]*`)
	markdownOnlyLinkRe = regexp.MustCompile(`^\s*\[([^\]]*)\]\(https?://[^\)]+\)\s*$`)
	bareOnlyURLRe      = regexp.MustCompile(`^\s*https?://\S+\s*$`)
	urlRe              = regexp.MustCompile(`https?://[^\s\)\]]+`)
	markdownLinkTextRe = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	whitespaceRunRe    = regexp.MustCompile(`\s+`)
)

// linkOnlyProseLimit is the prose length (in runes, URLs stripped) below
// which a reading note is considered a bare link share.
const linkOnlyProseLimit = 100

// normalizeLead strips leading whitespace and markdown decoration so
// bodies like "### 📔 Field Note" still match their marker.
func normalizeLead(body string) string {
	return strings.TrimLeftFunc(body, func(r rune) bool {
		return unicode.IsSpace(r) || r == '#' || r == '-' || r == '*'
	})
}

// matchMarker returns the category of the marker the normalized body
// starts with, or "" when no marker matches.
func matchMarker(normalized string) Category {
	for _, m := range markerTable {
		if strings.HasPrefix(normalized, m.glyph) {
			return m.category
		}
	}
	return ""
}

// IsRootCandidate reports whether the message qualifies as a category
// root: a text message whose normalized body starts with a marker glyph
// and which is not itself an edit or thread reply. A rich reply that
// carries a marker still qualifies; its final root-or-reply role is
// decided by keep-set membership during the merge.
func IsRootCandidate(m event.Message) bool {
	if !m.IsRoomMessage() {
		return false
	}
	if rel := m.Content.RelatesTo; rel != nil {
		if rel.RelType == event.RelTypeReplace || rel.RelType == event.RelTypeThread {
			return false
		}
	}
	return matchMarker(normalizeLead(strings.TrimLeft(m.Body(), " \t\r\n"))) != ""
}

// Classify maps a kept message to its published category. Replies are
// always "reply". A root whose marker cannot be matched (possible only
// for roots carried by unusual formatting) falls back to field_note.
func Classify(m event.Message, isReply bool) Category {
	if isReply {
		return CategoryReply
	}
	body := strings.TrimLeft(m.Body(), " \t\r\n")
	category := matchMarker(normalizeLead(body))
	if category == "" {
		return CategoryFieldNote
	}
	if category == CategoryJournal && isLinkOnly(body) {
		return CategoryLink
	}
	return category
}

// isLinkOnly reports whether a reading-note body is essentially just a
// URL or citation with no substantive prose.
func isLinkOnly(body string) bool {
	body = postedAnnotationRe.ReplaceAllString(body, "")
	body = postedTrailerRe.ReplaceAllString(body, "")
	for _, m := range markerTable {
		// Presentation variant first so the bare glyph strip does not
		// leave a dangling selector behind.
		body = strings.ReplaceAll(body, m.glyph+variationSelector, "")
		body = strings.ReplaceAll(body, m.glyph, "")
	}
	body = strings.TrimSpace(body)
	if markdownOnlyLinkRe.MatchString(body) || bareOnlyURLRe.MatchString(body) {
		return true
	}
	withoutURLs := urlRe.ReplaceAllString(body, "")
	withoutURLs = markdownLinkTextRe.ReplaceAllString(withoutURLs, "$1")
	withoutURLs = strings.TrimSpace(whitespaceRunRe.ReplaceAllString(withoutURLs, " "))
	return utf8.RuneCountInString(withoutURLs) < linkOnlyProseLimit
}
