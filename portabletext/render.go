package portabletext

import (
	"bytes"
	"context"
	"encoding/json"
	"html"
	"io"
	"sort"
	"strings"

	"github.com/a-h/templ"
)

// Render returns a templ.Component that writes blocks as HTML.
func Render(blocks []Block, s Serializers) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		RenderHTML(&buf, blocks, s)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// RenderHTML writes the HTML representation of blocks to buf.
func RenderHTML(buf *bytes.Buffer, blocks []Block, s Serializers) {
	r := renderer{s: s}
	for i := 0; i < len(blocks); {
		b := blocks[i]
		if b.Type == "block" && b.ListItem != "" {
			j := i
			for j < len(blocks) && blocks[j].Type == "block" && blocks[j].ListItem != "" {
				j++
			}
			buf.WriteString(r.list(blocks[i:j]))
			i = j
			continue
		}
		buf.WriteString(r.block(b))
		i++
	}
}

type renderer struct {
	s Serializers
}

func (r renderer) block(b Block) string {
	if b.Type != "block" {
		return r.custom(b.Type, b.Raw)
	}
	fn, ok := r.s.Styles[styleOf(b)]
	if !ok {
		fn = r.s.UnknownStyle
	}
	return fn(b, r.inline(b))
}

func (r renderer) custom(typ string, raw json.RawMessage) string {
	if fn, ok := r.s.Types[typ]; ok {
		return fn(typ, raw)
	}
	return r.s.UnknownType(typ, raw)
}

func styleOf(b Block) string {
	if b.Style == "" {
		return "normal"
	}
	return b.Style
}

func levelOf(b Block) int {
	if b.Level < 1 {
		return 1
	}
	return b.Level
}

// list renders a run of consecutive list blocks. Deeper items nest inside
// the preceding item; a change of kind at the same level starts a new list.
func (r renderer) list(run []Block) string {
	var out strings.Builder
	for i := 0; i < len(run); {
		kind, level := run[i].ListItem, levelOf(run[i])
		var items strings.Builder
		for i < len(run) && levelOf(run[i]) == level && run[i].ListItem == kind {
			item := run[i]
			i++
			j := i
			for j < len(run) && levelOf(run[j]) > level {
				j++
			}
			inner := r.inline(item)
			if j > i {
				inner += r.list(run[i:j])
			}
			i = j
			items.WriteString(r.s.ListItem(item, inner))
		}
		out.WriteString(r.s.List(kind, items.String()))
	}
	return out.String()
}

// markNode groups adjacent spans sharing a mark so that, for example, a link
// spanning a bold and a plain span renders as a single anchor.
type markNode struct {
	mark     string
	children []any // Span or *markNode
}

func (r renderer) inline(b Block) string {
	root := &markNode{}
	stack := []*markNode{root}
	for i, span := range b.Children {
		open := make([]string, 0, len(stack)-1)
		for _, n := range stack[1:] {
			open = append(open, n.mark)
		}
		marks := orderMarks(b.Children, i, open)
		depth := 1
		for depth < len(stack) && depth-1 < len(marks) && stack[depth].mark == marks[depth-1] {
			depth++
		}
		stack = stack[:depth]
		for _, m := range marks[depth-1:] {
			node := &markNode{mark: m}
			top := stack[len(stack)-1]
			top.children = append(top.children, node)
			stack = append(stack, node)
		}
		top := stack[len(stack)-1]
		top.children = append(top.children, span)
	}
	return r.renderNode(b, root)
}

func (r renderer) renderNode(b Block, n *markNode) string {
	var inner strings.Builder
	for _, c := range n.children {
		switch v := c.(type) {
		case Span:
			if v.Type != "" && v.Type != "span" {
				inner.WriteString(r.custom(v.Type, v.Raw))
				continue
			}
			inner.WriteString(strings.ReplaceAll(html.EscapeString(v.Text), "\n", "<br/>"))
		case *markNode:
			inner.WriteString(r.renderNode(b, v))
		}
	}
	if n.mark == "" {
		return inner.String()
	}
	return r.applyMark(b, n.mark, inner.String())
}

func (r renderer) applyMark(b Block, mark, inner string) string {
	for i := range b.MarkDefs {
		def := &b.MarkDefs[i]
		if def.Key != mark {
			continue
		}
		if fn, ok := r.s.Marks[def.Type]; ok {
			return fn(def, inner)
		}
		return r.s.UnknownMark(def, inner)
	}
	if fn, ok := r.s.Marks[mark]; ok {
		return fn(nil, inner)
	}
	return r.s.UnknownMark(nil, inner)
}

// orderMarks sorts the marks of children[i]: marks already open keep their
// nesting, the rest are ordered so that marks continuing over more of the
// following spans nest outermost.
func orderMarks(children []Span, i int, open []string) []string {
	marks := append([]string(nil), children[i].Marks...)
	if len(marks) < 2 {
		return marks
	}
	openAt := make(map[string]int, len(open))
	for idx, m := range open {
		openAt[m] = idx
	}
	rank := func(m string) int {
		if idx, ok := openAt[m]; ok {
			return idx
		}
		return len(open)
	}
	run := make(map[string]int, len(marks))
	for _, m := range marks {
		n := 0
		for j := i; j < len(children) && hasMark(children[j], m); j++ {
			n++
		}
		run[m] = n
	}
	sort.SliceStable(marks, func(a, b int) bool {
		ma, mb := marks[a], marks[b]
		if rank(ma) != rank(mb) {
			return rank(ma) < rank(mb)
		}
		if run[ma] != run[mb] {
			return run[ma] > run[mb]
		}
		return ma < mb
	})
	return marks
}

func hasMark(s Span, mark string) bool {
	for _, m := range s.Marks {
		if m == mark {
			return true
		}
	}
	return false
}
