package portabletext

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func decode(t *testing.T, raw string) []Block {
	t.Helper()
	var blocks []Block
	if err := json.Unmarshal([]byte(raw), &blocks); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return blocks
}

func renderString(t *testing.T, raw string, s Serializers) string {
	t.Helper()
	var buf bytes.Buffer
	RenderHTML(&buf, decode(t, raw), s)
	return buf.String()
}

func TestRenderStyles(t *testing.T) {
	tests := []struct {
		style    string
		expected string
	}{
		{"normal", "<p>Hi</p>"},
		{"", "<p>Hi</p>"},
		{"h1", `<h1 class="my-5 text-2xl font-bold">Hi</h1>`},
		{"h2", `<h2 class="my-5 text-xl font-bold">Hi</h2>`},
		{"blockquote", `<blockquote class="border-l-4 pl-4 italic">Hi</blockquote>`},
		{"h6", "<p>Hi</p>"},
	}
	for _, tt := range tests {
		raw := `[{"_type":"block","style":"` + tt.style + `","children":[{"_type":"span","text":"Hi"}]}]`
		got := renderString(t, raw, DefaultSerializers())
		if got != tt.expected {
			t.Errorf("style %q: got %q, want %q", tt.style, got, tt.expected)
		}
	}
}

func TestRenderEscapesText(t *testing.T) {
	raw := `[{"_type":"block","children":[{"_type":"span","text":"<script>alert(1)</script>\nnext"}]}]`
	got := renderString(t, raw, DefaultSerializers())
	want := "<p>&lt;script&gt;alert(1)&lt;/script&gt;<br/>next</p>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderDecorators(t *testing.T) {
	raw := `[{"_type":"block","children":[
		{"_type":"span","text":"a","marks":["strong"]},
		{"_type":"span","text":"b","marks":["em","strong"]},
		{"_type":"span","text":"c","marks":["code"]}
	]}]`
	got := renderString(t, raw, DefaultSerializers())
	want := "<p><strong>a<em>b</em></strong><code>c</code></p>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderLinkAnnotationSpansMarks(t *testing.T) {
	raw := `[{"_type":"block","markDefs":[{"_key":"l1","_type":"link","href":"https://example.com"}],
		"children":[
			{"_type":"span","text":"go ","marks":["l1"]},
			{"_type":"span","text":"here","marks":["l1","strong"]}
		]}]`
	got := renderString(t, raw, DefaultSerializers())
	want := `<p><a href="https://example.com" class="text-blue-500 hover:underline" rel="noopener noreferrer">go <strong>here</strong></a></p>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if strings.Contains(got, "target=") {
		t.Error("links must open in the same tab")
	}
}

func TestRenderInternalLink(t *testing.T) {
	raw := `[{"_type":"block","markDefs":[{"_key":"l1","_type":"link","href":"/post/other"}],
		"children":[{"_type":"span","text":"other","marks":["l1"]}]}]`
	got := renderString(t, raw, DefaultSerializers())
	want := `<p><a href="/post/other" class="text-blue-500 hover:underline">other</a></p>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderUnsafeLinkIsText(t *testing.T) {
	raw := `[{"_type":"block","markDefs":[{"_key":"l1","_type":"link","href":"javascript:alert(1)"}],
		"children":[{"_type":"span","text":"click","marks":["l1"]}]}]`
	got := renderString(t, raw, DefaultSerializers())
	if got != "<p>click</p>" {
		t.Errorf("got %q", got)
	}
}

func TestRenderUnknownMarkKeepsText(t *testing.T) {
	raw := `[{"_type":"block","markDefs":[{"_key":"x","_type":"footnote"}],
		"children":[{"_type":"span","text":"a","marks":["x"]},{"_type":"span","text":"b","marks":["highlight"]}]}]`
	got := renderString(t, raw, DefaultSerializers())
	if got != "<p>ab</p>" {
		t.Errorf("got %q", got)
	}
}

func TestRenderBulletList(t *testing.T) {
	raw := `[
		{"_type":"block","listItem":"bullet","level":1,"children":[{"_type":"span","text":"one"}]},
		{"_type":"block","listItem":"bullet","level":1,"children":[{"_type":"span","text":"two"}]},
		{"_type":"block","children":[{"_type":"span","text":"after"}]}
	]`
	got := renderString(t, raw, DefaultSerializers())
	want := `<ul><li class="ml-4 list-disc">one</li><li class="ml-4 list-disc">two</li></ul><p>after</p>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderNestedAndMixedLists(t *testing.T) {
	raw := `[
		{"_type":"block","listItem":"bullet","level":1,"children":[{"_type":"span","text":"a"}]},
		{"_type":"block","listItem":"number","level":2,"children":[{"_type":"span","text":"a1"}]},
		{"_type":"block","listItem":"bullet","level":1,"children":[{"_type":"span","text":"b"}]},
		{"_type":"block","listItem":"number","level":1,"children":[{"_type":"span","text":"c"}]}
	]`
	got := renderString(t, raw, DefaultSerializers())
	want := `<ul><li class="ml-4 list-disc">a<ol class="ml-4 list-decimal"><li>a1</li></ol></li>` +
		`<li class="ml-4 list-disc">b</li></ul>` +
		`<ol class="ml-4 list-decimal"><li>c</li></ol>`
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestRenderUnknownTypeHasPlaceholder(t *testing.T) {
	raw := `[{"_type":"youtube","url":"https://youtu.be/x"}]`
	got := renderString(t, raw, DefaultSerializers())
	if got != `<div data-portable-text-type="youtube"></div>` {
		t.Errorf("got %q", got)
	}
}

func TestRenderImageType(t *testing.T) {
	s := DefaultSerializers()
	var seen string
	s.Types["image"] = ImageType(func(raw json.RawMessage) string {
		seen = string(raw)
		return "https://cdn.example/img.jpg?w=800&h=400"
	})
	raw := `[{"_type":"image","alt":"A \"cat\"","asset":{"_ref":"image-abc-10x10-jpg"}}]`
	got := renderString(t, raw, s)
	if !strings.Contains(seen, "image-abc-10x10-jpg") {
		t.Errorf("urlFor received %q", seen)
	}
	want := `<figure><img class="my-5 w-full" loading="lazy" decoding="async" src="https://cdn.example/img.jpg?w=800&amp;h=400" alt="A &#34;cat&#34;"/></figure>`
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestRenderCustomStyleOverride(t *testing.T) {
	s := DefaultSerializers()
	s.Styles["h1"] = func(_ Block, inner string) string { return "<h1 id=top>" + inner + "</h1>" }
	got := renderString(t, `[{"_type":"block","style":"h1","children":[{"_type":"span","text":"T"}]}]`, s)
	if got != "<h1 id=top>T</h1>" {
		t.Errorf("got %q", got)
	}
	if DefaultSerializers().Styles["h1"](Block{}, "x") == "<h1 id=top>x</h1>" {
		t.Error("DefaultSerializers must return fresh maps")
	}
}

func TestRenderComponent(t *testing.T) {
	var buf bytes.Buffer
	blocks := decode(t, `[{"_type":"block","children":[{"_type":"span","text":"hello"}]}]`)
	if err := Render(blocks, DefaultSerializers()).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if buf.String() != "<p>hello</p>" {
		t.Errorf("got %q", buf.String())
	}
}

func TestSafeURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://example.com/?a=1&b=2", "https://example.com/?a=1&amp;b=2"},
		{"/post/x", "/post/x"},
		{"#top", "#top"},
		{"mailto:a@b.c", "mailto:a@b.c"},
		{"//evil.example", ""},
		{"javascript:alert(1)", ""},
		{"data:text/html,hi", ""},
		{"relative/path", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SafeURL(tt.input); got != tt.expected {
			t.Errorf("SafeURL(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestPlainText(t *testing.T) {
	blocks := decode(t, `[
		{"_type":"block","children":[{"_type":"span","text":"a"},{"_type":"span","text":"b"}]},
		{"_type":"image"},
		{"_type":"block","children":[{"_type":"span","text":"c"}]}
	]`)
	if got := PlainText(blocks); got != "ab\nc" {
		t.Errorf("PlainText = %q", got)
	}
}

func TestBlockRoundTripKeepsCustomFields(t *testing.T) {
	raw := `[{"_type":"image","asset":{"_ref":"image-abc-10x10-jpg"}},{"_type":"block","children":[{"_type":"span","text":"x"}]}]`
	blocks := decode(t, raw)
	out, err := json.Marshal(blocks)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), "image-abc-10x10-jpg") {
		t.Errorf("custom fields lost: %s", out)
	}
	built, err := json.Marshal(Block{Type: "block", Style: "h1"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(built) != `{"_type":"block","style":"h1"}` {
		t.Errorf("built = %s", built)
	}
}
