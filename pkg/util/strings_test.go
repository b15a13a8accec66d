package util

import "testing"

func TestStripHTML(t *testing.T) {
	in := "<p>Shares  rallied</p> after <b>earnings</b>\n beat"
	got := StripHTML(in)
	want := "Shares rallied after earnings beat"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("abcdef", 4); got != "abcd" {
		t.Fatalf("got %q", got)
	}
	if got := TruncateRunes("abc", 10); got != "abc" {
		t.Fatalf("got %q", got)
	}
}

func TestParseFloatDefault(t *testing.T) {
	if got := ParseFloatDefault(" 2.5 ", 0); got != 2.5 {
		t.Fatalf("got %v", got)
	}
	if got := ParseFloatDefault("bad", 1.5); got != 1.5 {
		t.Fatalf("got %v", got)
	}
}
