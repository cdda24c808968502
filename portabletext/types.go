// Package portabletext renders Sanity Portable Text documents to HTML as
// templ components.
package portabletext

import "encoding/json"

// Block is one entry of a Portable Text array. Text blocks have Type "block";
// anything else (images, embeds) is a custom type kept as Raw.
type Block struct {
	Type     string    `json:"_type"`
	Key      string    `json:"_key,omitempty"`
	Style    string    `json:"style,omitempty"`
	ListItem string    `json:"listItem,omitempty"` // "bullet" or "number"
	Level    int       `json:"level,omitempty"`
	Children []Span    `json:"children,omitempty"`
	MarkDefs []MarkDef `json:"markDefs,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the known fields and keeps the original bytes so
// custom types can be decoded by their serializer.
func (b *Block) UnmarshalJSON(data []byte) error {
	type plain Block
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*b = Block(p)
	b.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON writes the original bytes back when the block was decoded, so
// custom types survive a round trip.
func (b Block) MarshalJSON() ([]byte, error) {
	if len(b.Raw) > 0 {
		return b.Raw, nil
	}
	type plain Block
	return json.Marshal(plain(b))
}

// Span is a run of text inside a block. Inline objects share the shape but
// carry a Type other than "span".
type Span struct {
	Type  string   `json:"_type"`
	Key   string   `json:"_key,omitempty"`
	Text  string   `json:"text"`
	Marks []string `json:"marks,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps the raw bytes of inline objects.
func (s *Span) UnmarshalJSON(data []byte) error {
	type plain Span
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Span(p)
	s.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarkDef is an annotation referenced from Span.Marks by key.
type MarkDef struct {
	Key  string `json:"_key"`
	Type string `json:"_type"`
	Href string `json:"href,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps the raw bytes for annotations other than links.
func (m *MarkDef) UnmarshalJSON(data []byte) error {
	type plain MarkDef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = MarkDef(p)
	m.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// PlainText concatenates the text of every span, one line per block.
func PlainText(blocks []Block) string {
	var out []byte
	for _, b := range blocks {
		if b.Type != "block" {
			continue
		}
		if len(out) > 0 {
			out = append(out, '\n')
		}
		for _, s := range b.Children {
			out = append(out, s.Text...)
		}
	}
	return string(out)
}
