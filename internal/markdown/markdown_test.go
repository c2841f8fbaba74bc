package markdown_test

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/myrjola/aitrainer/internal/markdown"
)

func TestRender(t *testing.T) {
	html := markdown.Render("## Day 1\n\n- Squat 3x10\n- Bench press 3x8\n\n<script>alert(1)</script>")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse rendered html: %v", err)
	}
	if got := doc.Find("h2").Text(); got != "Day 1" {
		t.Errorf("h2 = %q, want %q", got, "Day 1")
	}
	if got := doc.Find("li").Length(); got != 2 {
		t.Errorf("got %d list items, want 2", got)
	}
	if doc.Find("script").Length() != 0 {
		t.Error("raw html must not be rendered")
	}
}

func TestRender_hardWraps(t *testing.T) {
	html := markdown.Render("Squat\nLunge")
	if !strings.Contains(html, "<br") {
		t.Errorf("expected line break in %q", html)
	}
}
