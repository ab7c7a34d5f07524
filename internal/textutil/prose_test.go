package textutil

import "testing"

func TestWordCount(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"one two  three", 3},
		{"# Heading\n\nBody text here.", 4},
		{"line one\nline two", 4},
	}
	for _, tt := range tests {
		if got := WordCount(tt.text); got != tt.want {
			t.Errorf("WordCount(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestParagraphs(t *testing.T) {
	text := "First para\ncontinues.\n\n\nSecond para.\r\n\r\nThird."
	got := Paragraphs(text)
	if len(got) != 3 {
		t.Fatalf("Paragraphs() returned %d blocks: %q", len(got), got)
	}
	if got[0] != "First para\ncontinues." {
		t.Fatalf("unexpected first paragraph %q", got[0])
	}
}

func TestSentences(t *testing.T) {
	text := "Mara lifted the lamp. \"Who's there?\" she asked.\n\nThe door held"
	got := Sentences(text)
	want := []Sentence{
		{Paragraph: 1, Text: "Mara lifted the lamp."},
		{Paragraph: 1, Text: "\"Who's there?\" she asked."},
		{Paragraph: 2, Text: "The door held"},
	}
	if len(got) != len(want) {
		t.Fatalf("Sentences() = %#v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sentence %d = %#v, want %#v", i, got[i], want[i])
		}
	}
}

func TestSanitizeTokenAndTitle(t *testing.T) {
	if got := SanitizeToken(" Mara Voss "); got != "mara_voss" {
		t.Fatalf("SanitizeToken() = %q", got)
	}
	if got := SanitizeToken("!!"); got != "unknown" {
		t.Fatalf("SanitizeToken(punct) = %q", got)
	}
	if got := Title("build_context"); got != "Build Context" {
		t.Fatalf("Title() = %q", got)
	}
}
