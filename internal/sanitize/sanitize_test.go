package sanitize

import (
	"strings"
	"testing"
)

func TestRichTextRemovesScript(t *testing.T) {
	got := RichText(`<b>hi</b><script>alert(1)</script>`)
	if got != "<b>hi</b>" {
		t.Fatalf("RichText = %q", got)
	}
}

func TestRichTextDropsEventHandlers(t *testing.T) {
	got := RichText(`<span onclick="steal()">x</span>`)
	if strings.Contains(got, "onclick") {
		t.Fatalf("event handler survived: %q", got)
	}
	if !strings.Contains(got, "x") {
		t.Fatalf("text lost: %q", got)
	}
}

func TestRichTextLinks(t *testing.T) {
	got := RichText(`<a href="https://example.com">ok</a>`)
	if !strings.Contains(got, `href="https://example.com"`) || !strings.Contains(got, `rel="nofollow"`) {
		t.Fatalf("link not kept with nofollow: %q", got)
	}

	got = RichText(`<a href="javascript:alert(1)">bad</a>`)
	if strings.Contains(got, "javascript") {
		t.Fatalf("javascript href survived: %q", got)
	}
	if !strings.Contains(got, "bad") {
		t.Fatalf("link text lost: %q", got)
	}
}

func TestRichTextDropsUnlistedElements(t *testing.T) {
	got := RichText(`<img src="https://x/y.png"><iframe src="https://evil"></iframe><p>keep</p>`)
	if strings.Contains(got, "img") || strings.Contains(got, "iframe") {
		t.Fatalf("unlisted element survived: %q", got)
	}
	if got != "<p>keep</p>" {
		t.Fatalf("RichText = %q", got)
	}
}

func TestStripTags(t *testing.T) {
	cases := map[string]string{
		"<b>Ann</b>":              "Ann",
		"plain":                   "plain",
		"a < b":                   "a < b",
		"Tom & <i>Jerry</i>":      "Tom & Jerry",
		`<img src=x onerror=y>Bo`: "Bo",
	}
	for in, want := range cases {
		if got := StripTags(in); got != want {
			t.Fatalf("StripTags(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestURL(t *testing.T) {
	cases := map[string]string{
		"https://x/y.png":     "https://x/y.png",
		"http://x":            "http://x",
		"javascript:alert(1)": "",
		"ftp://x":             "",
		"":                    "",
		"//x/y":               "",
	}
	for in, want := range cases {
		if got := URL(in); got != want {
			t.Fatalf("URL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOptPreservesNil(t *testing.T) {
	if OptRichText(nil) != nil || OptStripTags(nil) != nil || OptURL(nil) != nil {
		t.Fatalf("nil input must stay nil")
	}

	bad := "javascript:alert(1)"
	got := OptURL(&bad)
	if got == nil || *got != "" {
		t.Fatalf("rejected URL should become empty string, got %v", got)
	}

	name := "<b>Ann</b>"
	if got := OptStripTags(&name); got == nil || *got != "Ann" {
		t.Fatalf("OptStripTags = %v", got)
	}
	if name != "<b>Ann</b>" {
		t.Fatalf("input mutated: %q", name)
	}
}
