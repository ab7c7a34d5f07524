package textutil

import (
	"testing"
)

func TestRecallNil(t *testing.T) {
	if got := Recall(nil, NewFingerprint("hello world")); got != 0 {
		t.Fatalf("Recall(nil) = %v, want 0", got)
	}
	if NewFingerprint("the and of") != nil {
		t.Fatal("expected nil fingerprint for stop words only")
	}
}

func TestRecallAndCovers(t *testing.T) {
	needle := NewFingerprint("the brass key")
	haystack := NewFingerprint("She turned the brass key in the lock.")
	if got := Recall(needle, haystack); got != 1 {
		t.Fatalf("Recall() = %v, want 1", got)
	}
	if !haystack.Covers(needle) {
		t.Fatal("expected haystack to cover needle")
	}
	partial := NewFingerprint("brass lantern")
	if got := Recall(partial, haystack); got != 0.5 {
		t.Fatalf("Recall(partial) = %v, want 0.5", got)
	}
}

func TestTokenizeFoldsCaseAndDropsStopWords(t *testing.T) {
	got := Tokenize("The LIGHTHOUSE and the Keeper")
	want := []string{"lighthouse", "keeper"}
	if len(got) != len(want) {
		t.Fatalf("Tokenize() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Tokenize() = %v, want %v", got, want)
		}
	}
}
