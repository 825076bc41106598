package parser

import (
	"errors"
	"strings"
	"testing"
)

const sampleHTML = `<html><body>
<div class="message left">
  <span class="nickname">Bob</span>
  <span class="time">2024-01-15 18:30:00</span>
  <div class="text">dinner tonight?</div>
</div>
<div class="message right">
  <span class="time">2024-01-15 18:31:00</span>
  <div class="text">sure, 7pm</div>
</div>
<div class="message left">
  <span class="nickname">Bob</span>
  <div class="text">This message was deleted</div>
</div>
</body></html>`

func TestParseHTML(t *testing.T) {
	records, _, err := newTestParser().ParseHTML("chat.html", strings.NewReader(sampleHTML))
	if err != nil {
		t.Fatalf("ParseHTML failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}

	if records[0].Sender != "Bob" || records[0].Text != "dinner tonight?" {
		t.Errorf("records[0] = (%q, %q)", records[0].Sender, records[0].Text)
	}
	if records[0].IsSelf {
		t.Error("left-side message flagged as self")
	}
	if records[0].Timestamp.IsZero() {
		t.Error("timestamp not parsed")
	}

	// Right-side bubbles belong to the exporting user.
	if !records[1].IsSelf {
		t.Error("right-side message not flagged as self")
	}
	if records[1].Sender != "Alice" {
		t.Errorf("self sender = %q, want Alice", records[1].Sender)
	}

	if !records[2].IsMeta {
		t.Error("deleted-message placeholder not tagged meta")
	}
}

func TestParseHTML_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "  \n\t\n", "<html><body></body></html>"} {
		_, _, err := newTestParser().ParseHTML("chat.html", strings.NewReader(input))
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("ParseHTML(%q) err = %v, want ParseError", input, err)
		}
	}
}

func TestParseHTML_NoMessages(t *testing.T) {
	records, _, err := newTestParser().ParseHTML("chat.html", strings.NewReader("<html><body><p>nothing</p></body></html>"))
	if err != nil {
		t.Fatalf("ParseHTML failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("len(records) = %d, want 0", len(records))
	}
}
