package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Options configure sender handling. SelfName is compared against the
// captured sender with an exact, case-sensitive match: display names
// are user-controlled, so normalization is deliberately conservative.
type Options struct {
	SelfName string
}

// Parser converts the raw text of one conversation export into an
// ordered sequence of MessageRecord. The pattern list is fixed at
// construction; patterns are tried in order and the first match wins,
// which resolves ambiguity between overlapping export formats
// deterministically.
type Parser struct {
	patterns []StartPattern
	opts     Options
}

func New(patterns []StartPattern, opts Options) *Parser {
	return &Parser{patterns: patterns, opts: opts}
}

// Parse reads one export and returns its records in input order, plus
// soft warnings for lines that were recovered rather than parsed.
// Timestamps are not sorted or corrected; exports are assumed
// pre-sorted and out-of-order stamps are tolerated.
func (p *Parser) Parse(sourceFile string, r io.Reader) ([]MessageRecord, []Warning, error) {
	var (
		records  []MessageRecord
		warnings []Warning
		current  *MessageRecord
		body     strings.Builder
		sawText  bool
		lineNo   int
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Text = strings.TrimSpace(body.String())
		if current.Text == "" {
			current = nil
			return
		}
		if !current.IsMeta && isMetaText(current.Text) {
			current.IsMeta = true
		}
		records = append(records, *current)
		current = nil
	}

	appendContinuation := func(line string) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			return
		}
		if current == nil {
			// Continuation before any start match: truncated export.
			warnings = append(warnings, Warning{
				SourceFile: sourceFile,
				Line:       lineNo,
				Reason:     "continuation line before first message, discarded",
			})
			return
		}
		if body.Len() > 0 {
			body.WriteString("\n")
		}
		body.WriteString(trimmed)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024) // 1MB line buffer

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) != "" {
			sawText = true
		}

		sp, groups := p.match(line)
		if sp == nil {
			appendContinuation(line)
			continue
		}

		ts, ok := parseTimestamp(groups[0], sp.Layouts)
		if !ok {
			// Superficial match with a corrupted timestamp: demote to
			// continuation instead of aborting the parse.
			warnings = append(warnings, Warning{
				SourceFile: sourceFile,
				Line:       lineNo,
				Reason:     fmt.Sprintf("unparseable timestamp %q, line demoted to continuation", groups[0]),
			})
			appendContinuation(line)
			continue
		}

		flush()

		sender, text := "", ""
		if sp.Meta {
			text = groups[1]
		} else {
			sender = strings.TrimSpace(groups[1])
			text = groups[2]
		}

		current = &MessageRecord{
			Timestamp:  ts,
			Sender:     sender,
			SourceFile: sourceFile,
			IsSelf:     sender != "" && sender == p.opts.SelfName,
			IsMeta:     sp.Meta,
		}
		body.Reset()
		body.WriteString(strings.TrimSpace(text))
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, warnings, &ParseError{SourceFile: sourceFile, Err: fmt.Errorf("scan: %w", err)}
	}
	if !sawText {
		return nil, warnings, &ParseError{SourceFile: sourceFile, Err: errors.New("empty input")}
	}

	return records, warnings, nil
}

// match returns the first pattern whose regexp matches the line, with
// its capture groups (excluding the whole-line group).
func (p *Parser) match(line string) (*StartPattern, []string) {
	for i := range p.patterns {
		if m := p.patterns[i].Re.FindStringSubmatch(line); m != nil {
			return &p.patterns[i], m[1:]
		}
	}
	return nil, nil
}

func parseTimestamp(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
