package portabletext

import (
	"encoding/json"
	"html"
	"net/url"
	"strings"
)

// StyleFunc wraps the rendered inline content of a text block.
type StyleFunc func(b Block, inner string) string

// MarkFunc wraps marked text. def is nil for decorators such as "strong".
type MarkFunc func(def *MarkDef, inner string) string

// TypeFunc renders a custom block or inline object from its raw JSON.
type TypeFunc func(typ string, raw json.RawMessage) string

// ListFunc wraps rendered items; kind is the Block.ListItem value.
type ListFunc func(kind string, items string) string

// ListItemFunc renders one list item. inner includes any nested lists.
type ListItemFunc func(b Block, inner string) string

// Serializers is the dispatch table used by Render. Lookups that miss fall
// back to the Unknown* rules, which must be non-nil.
type Serializers struct {
	Styles   map[string]StyleFunc
	Marks    map[string]MarkFunc
	Types    map[string]TypeFunc
	List     ListFunc
	ListItem ListItemFunc

	UnknownStyle StyleFunc
	UnknownMark  MarkFunc
	UnknownType  TypeFunc
}

// DefaultSerializers returns a fresh table; callers may modify its maps.
func DefaultSerializers() Serializers {
	return Serializers{
		Styles: map[string]StyleFunc{
			"normal":     wrapStyle("p", ""),
			"h1":         wrapStyle("h1", "my-5 text-2xl font-bold"),
			"h2":         wrapStyle("h2", "my-5 text-xl font-bold"),
			"h3":         wrapStyle("h3", "my-4 text-lg font-bold"),
			"h4":         wrapStyle("h4", "my-4 font-bold"),
			"blockquote": wrapStyle("blockquote", "border-l-4 pl-4 italic"),
		},
		Marks: map[string]MarkFunc{
			"strong":         wrapMark("strong"),
			"em":             wrapMark("em"),
			"code":           wrapMark("code"),
			"underline":      wrapMark("u"),
			"strike-through": wrapMark("s"),
			"link":           Link,
		},
		Types:        map[string]TypeFunc{},
		List:         List,
		ListItem:     ListItem,
		UnknownStyle: wrapStyle("p", ""),
		UnknownMark:  func(_ *MarkDef, inner string) string { return inner },
		UnknownType:  UnknownType,
	}
}

func wrapStyle(tag, class string) StyleFunc {
	open := "<" + tag + ">"
	if class != "" {
		open = `<` + tag + ` class="` + class + `">`
	}
	return func(_ Block, inner string) string {
		return open + inner + "</" + tag + ">"
	}
}

func wrapMark(tag string) MarkFunc {
	return func(_ *MarkDef, inner string) string {
		return "<" + tag + ">" + inner + "</" + tag + ">"
	}
}

// Link renders a link annotation. Links open in the same tab; links leaving
// the site get rel="noopener noreferrer". Unsafe hrefs render as plain text.
func Link(def *MarkDef, inner string) string {
	if def == nil {
		return inner
	}
	href := SafeURL(def.Href)
	if href == "" {
		return inner
	}
	attrs := `href="` + href + `" class="text-blue-500 hover:underline"`
	if isExternal(def.Href) {
		attrs += ` rel="noopener noreferrer"`
	}
	return "<a " + attrs + ">" + inner + "</a>"
}

// List wraps items in <ul> for bullets and <ol> for numbers.
func List(kind string, items string) string {
	if kind == "number" {
		return `<ol class="ml-4 list-decimal">` + items + "</ol>"
	}
	return "<ul>" + items + "</ul>"
}

// ListItem renders a bullet or numbered item.
func ListItem(b Block, inner string) string {
	if b.ListItem == "number" {
		return "<li>" + inner + "</li>"
	}
	return `<li class="ml-4 list-disc">` + inner + "</li>"
}

// UnknownType leaves an empty, addressable placeholder for types the table
// does not know, so content gaps are visible in the markup.
func UnknownType(typ string, _ json.RawMessage) string {
	return `<div data-portable-text-type="` + html.EscapeString(typ) + `"></div>`
}

// ImageType returns a TypeFunc for image blocks. urlFor resolves the raw
// image value to a URL; an empty URL omits the image.
func ImageType(urlFor func(raw json.RawMessage) string) TypeFunc {
	return func(_ string, raw json.RawMessage) string {
		src := urlFor(raw)
		if src == "" {
			return ""
		}
		var meta struct {
			Alt     string `json:"alt"`
			Caption string `json:"caption"`
		}
		_ = json.Unmarshal(raw, &meta)
		img := `<img class="my-5 w-full" loading="lazy" decoding="async" src="` +
			html.EscapeString(src) + `" alt="` + html.EscapeString(meta.Alt) + `"/>`
		if meta.Caption == "" {
			return "<figure>" + img + "</figure>"
		}
		return "<figure>" + img + `<figcaption class="text-sm text-gray-500">` +
			html.EscapeString(meta.Caption) + "</figcaption></figure>"
	}
}

// SafeURL validates and escapes a URL for use in an href attribute.
// It returns "" for schemes other than http, https, mailto and tel.
func SafeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		if strings.HasPrefix(val, "//") {
			return ""
		}
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}

func isExternal(href string) bool {
	parsed, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(parsed.Scheme)
	return scheme == "http" || scheme == "https"
}
