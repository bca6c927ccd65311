// Package alerts classifies tier color markup embedded in extracted text.
//
// Extracted text carries explicit tier tags (<green>..</green>,
// <orange>..</orange>, <red>..</red>) inserted by the slide parser for
// runs whose font color matches the tier palette. Classification is a
// pure pattern match over those tags; no color-distance math is involved.
package alerts

import (
	"regexp"
	"strings"
)

// Tier tag names. The tag string doubles as the markup element name.
const (
	TagGreen  = "green"
	TagOrange = "orange"
	TagRed    = "red"
)

// Set is the three-tier classification of one text block.
type Set struct {
	// Advancements are green-tagged phrases (progress worth reporting).
	Advancements []string `json:"advancements"`
	// MinorAlerts are orange-tagged phrases.
	MinorAlerts []string `json:"small_alerts"`
	// CriticalAlerts are red-tagged phrases, conventionally also bold.
	CriticalAlerts []string `json:"critical_alerts"`
}

// IsEmpty reports whether the set carries no phrases at all.
func (s Set) IsEmpty() bool {
	return len(s.Advancements) == 0 && len(s.MinorAlerts) == 0 && len(s.CriticalAlerts) == 0
}

// Palette maps tier tags to RRGGBB font colors, used both when tagging
// parsed runs and when emitting colored runs on render.
type Palette map[string]string

// DefaultPalette returns the standard tier colors.
func DefaultPalette() Palette {
	return Palette{
		TagGreen:  "00B050",
		TagOrange: "ED7D31",
		TagRed:    "FF0000",
	}
}

// TagForColor returns the tier tag for an RRGGBB value, case-insensitive.
func (p Palette) TagForColor(hex string) (string, bool) {
	hex = strings.ToUpper(hex)
	for tag, c := range p {
		if strings.ToUpper(c) == hex {
			return tag, true
		}
	}
	return "", false
}

// Color returns the RRGGBB value for a tier tag, falling back to the
// default palette for unknown tags.
func (p Palette) Color(tag string) string {
	if c, ok := p[tag]; ok {
		return c
	}
	return DefaultPalette()[tag]
}

var tierPatterns = map[string]*regexp.Regexp{
	TagGreen:  regexp.MustCompile(`(?s)<green>(.*?)</green>`),
	TagOrange: regexp.MustCompile(`(?s)<orange>(.*?)</orange>`),
	TagRed:    regexp.MustCompile(`(?s)<red>(.*?)</red>`),
}

// Classify extracts the tier phrases from tagged text. Phrases are kept
// in document order, duplicates collapsed. Classify(InjectMarkup(t, s))
// reproduces s for any s whose phrases occur verbatim in t.
func Classify(text string) Set {
	return Set{
		Advancements:   collect(tierPatterns[TagGreen], text),
		MinorAlerts:    collect(tierPatterns[TagOrange], text),
		CriticalAlerts: collect(tierPatterns[TagRed], text),
	}
}

func collect(re *regexp.Regexp, text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		phrase := m[1]
		if phrase == "" || seen[phrase] {
			continue
		}
		seen[phrase] = true
		out = append(out, phrase)
	}
	return out
}

// Strip removes all tier tags, leaving the plain text.
func Strip(text string) string {
	for tag := range tierPatterns {
		text = strings.ReplaceAll(text, "<"+tag+">", "")
		text = strings.ReplaceAll(text, "</"+tag+">", "")
	}
	return text
}

// HasMarkup reports whether the text carries any tier tag.
func HasMarkup(text string) bool {
	for _, re := range tierPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Segment is a stretch of text that is either plain (Tag empty) or
// belongs to one tier.
type Segment struct {
	Text string
	Tag  string
}

var anyTagPattern = regexp.MustCompile(`(?s)<(green|orange|red)>(.*?)</(green|orange|red)>`)

// Segments splits tagged text into plain and tier-tagged stretches in
// document order, for rebuilding colored runs on render.
func Segments(text string) []Segment {
	var segs []Segment
	for {
		loc := anyTagPattern.FindStringSubmatchIndex(text)
		if loc == nil {
			break
		}
		tag := text[loc[2]:loc[3]]
		closing := text[loc[6]:loc[7]]
		if closing != tag {
			// Mismatched pair: treat the opening tag as plain text and
			// keep scanning after it.
			segs = append(segs, Segment{Text: text[:loc[2]]})
			text = text[loc[2]:]
			continue
		}
		if before := text[:loc[0]]; before != "" {
			segs = append(segs, Segment{Text: before})
		}
		if inner := text[loc[4]:loc[5]]; inner != "" {
			segs = append(segs, Segment{Text: inner, Tag: tag})
		}
		text = text[loc[1]:]
	}
	if text != "" {
		segs = append(segs, Segment{Text: text})
	}
	return segs
}

// InjectMarkup is the inverse of Classify: each phrase of the set is
// wrapped, at its first verbatim occurrence in plain, with its tier tag.
// Phrases not found are returned in missing and left unmarked; repeated
// phrases share the documented first-occurrence fragility.
func InjectMarkup(plain string, set Set) (marked string, missing []string) {
	marked = plain
	inject := func(tag string, phrases []string) {
		for _, phrase := range phrases {
			if phrase == "" {
				continue
			}
			idx := strings.Index(marked, phrase)
			if idx < 0 {
				missing = append(missing, phrase)
				continue
			}
			// Skip occurrences already inside a tag of this tier.
			if strings.HasSuffix(marked[:idx], "<"+tag+">") {
				continue
			}
			marked = marked[:idx] + "<" + tag + ">" + phrase + "</" + tag + ">" + marked[idx+len(phrase):]
		}
	}
	inject(TagGreen, set.Advancements)
	inject(TagOrange, set.MinorAlerts)
	inject(TagRed, set.CriticalAlerts)
	return marked, missing
}
