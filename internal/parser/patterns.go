package parser

import "regexp"

// StartPattern recognizes the first line of a new message in one export
// format. Re must have exactly three capture groups (timestamp, sender,
// text), or two (timestamp, text) when Meta is set, since system
// notices carry no sender prefix. Layouts are candidate time.Parse layouts for
// the captured timestamp, tried in order.
type StartPattern struct {
	Name    string
	Re      *regexp.Regexp
	Layouts []string
	Meta    bool
}

// DefaultPatterns returns the built-in pattern list in priority order.
// Order matters: sender-prefixed forms come before the sender-less meta
// forms of the same format, so "[ts] Alice: hi" never matches the meta
// variant first. Callers may pass their own list to New.
func DefaultPatterns() []StartPattern {
	return []StartPattern{
		{
			Name: "whatsapp-bracketed",
			Re:   regexp.MustCompile(`^\[(\d{1,2}/\d{1,2}/\d{2,4},? \d{1,2}:\d{2}(?::\d{2})?(?: ?[AP]M)?)\] ([^:]+?): ?(.*)$`),
			Layouts: []string{
				"1/2/06, 15:04:05",
				"1/2/06, 15:04",
				"1/2/2006, 15:04:05",
				"1/2/2006, 15:04",
				"1/2/06, 3:04:05 PM",
				"1/2/06, 3:04 PM",
				"1/2/06 15:04:05",
				"1/2/06 15:04",
			},
		},
		{
			Name: "whatsapp-dash",
			Re:   regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{2,4},? \d{1,2}:\d{2}(?: ?[AP]M)?) - ([^:]+?): ?(.*)$`),
			Layouts: []string{
				"1/2/06, 15:04",
				"1/2/2006, 15:04",
				"1/2/06, 3:04 PM",
				"1/2/2006, 3:04 PM",
				"1/2/06 15:04",
				"1/2/2006 15:04",
			},
		},
		{
			Name: "iso-text",
			Re:   regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}(?::\d{2})?) ([^:]+?): ?(.*)$`),
			Layouts: []string{
				"2006-01-02 15:04:05",
				"2006-01-02 15:04",
			},
		},
		{
			Name: "whatsapp-bracketed-system",
			Re:   regexp.MustCompile(`^\[(\d{1,2}/\d{1,2}/\d{2,4},? \d{1,2}:\d{2}(?::\d{2})?(?: ?[AP]M)?)\] (.*)$`),
			Layouts: []string{
				"1/2/06, 15:04:05",
				"1/2/06, 15:04",
				"1/2/2006, 15:04:05",
				"1/2/2006, 15:04",
				"1/2/06, 3:04:05 PM",
				"1/2/06, 3:04 PM",
				"1/2/06 15:04:05",
				"1/2/06 15:04",
			},
			Meta: true,
		},
		{
			Name: "whatsapp-dash-system",
			Re:   regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{2,4},? \d{1,2}:\d{2}(?: ?[AP]M)?) - (.*)$`),
			Layouts: []string{
				"1/2/06, 15:04",
				"1/2/2006, 15:04",
				"1/2/06, 3:04 PM",
				"1/2/2006, 3:04 PM",
				"1/2/06 15:04",
				"1/2/2006 15:04",
			},
			Meta: true,
		},
	}
}

// metaTextPatterns tag sender-prefixed messages whose body is a system
// placeholder rather than participant text (deleted messages, media
// that was excluded from the export). Group events (joins, icon
// changes) never carry a sender prefix, so they are handled by the
// sender-less system start patterns instead.
var metaTextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^<Media omitted>$`),
	regexp.MustCompile(`^(?:image|video|audio|sticker|GIF|document|Contact card) omitted$`),
	regexp.MustCompile(`^This message was deleted\.?$`),
	regexp.MustCompile(`^You deleted this message\.?$`),
	regexp.MustCompile(`end-to-end encrypted`),
}

func isMetaText(text string) bool {
	for _, re := range metaTextPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
