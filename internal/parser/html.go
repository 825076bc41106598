package parser

import (
	"errors"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTML maps an HTML conversation export into the same record
// stream as Parse. Exporter markup varies by tool and version, so a
// cascade of common selectors is tried for each field. Input with no
// text content at all is a ParseError, matching Parse; markup whose
// text matches no selector yields zero records and no error.
func (p *Parser) ParseHTML(sourceFile string, r io.Reader) ([]MessageRecord, []Warning, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, nil, &ParseError{SourceFile: sourceFile, Err: err}
	}

	var records []MessageRecord

	doc.Find(".message, .msg, div[class*='message']").Each(func(i int, s *goquery.Selection) {
		text := ""
		s.Find(".bubble, .content, .text, .msg-text").Each(func(j int, cs *goquery.Selection) {
			text = strings.TrimSpace(cs.Text())
		})
		if text == "" {
			text = strings.TrimSpace(s.Find("div").Last().Text())
		}
		if text == "" {
			return
		}

		sender := ""
		s.Find(".nickname, .name, .sender").Each(func(j int, ns *goquery.Selection) {
			sender = strings.TrimSpace(ns.Text())
		})

		timeStr := ""
		s.Find(".time, .timestamp, .date").Each(func(j int, ts *goquery.Selection) {
			timeStr = strings.TrimSpace(ts.Text())
		})
		ts, _ := parseTimestamp(timeStr, []string{
			"2006-01-02 15:04:05",
			"2006-01-02 15:04",
			"1/2/06, 15:04",
		})

		// Side classes mark the exporting user's own bubbles.
		class, _ := s.Attr("class")
		isSelf := strings.Contains(class, "right") || strings.Contains(class, "mine") || strings.Contains(class, "self")
		if sender != "" {
			isSelf = isSelf || sender == p.opts.SelfName
		}
		if sender == "" && isSelf {
			sender = p.opts.SelfName
		}

		records = append(records, MessageRecord{
			Timestamp:  ts,
			Sender:     sender,
			Text:       text,
			SourceFile: sourceFile,
			IsSelf:     isSelf,
			IsMeta:     isMetaText(text),
		})
	})

	if len(records) == 0 && strings.TrimSpace(doc.Text()) == "" {
		return nil, nil, &ParseError{SourceFile: sourceFile, Err: errors.New("empty input")}
	}
	return records, nil, nil
}
