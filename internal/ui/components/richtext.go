package components

import (
	"slices"
	"strings"

	"github.com/templui/spacenews/internal/model"
)

var blockTypes = map[string]bool{
	"paragraph":    true,
	"heading1":     true,
	"heading2":     true,
	"heading3":     true,
	"heading4":     true,
	"heading5":     true,
	"heading6":     true,
	"preformatted": true,
	"image":        true,
}

var listTags = map[string]string{
	"list-item":   "ul",
	"o-list-item": "ol",
}

// blockGroup is either a run of list items of the same kind or one block.
type blockGroup struct {
	list   string
	blocks []model.RichTextBlock
}

// groupBlocks folds consecutive list items into groups and drops unknown
// block types. An unknown block still ends the list before it.
func groupBlocks(blocks []model.RichTextBlock) []blockGroup {
	var groups []blockGroup
	inList := false
	for _, block := range blocks {
		tag, isItem := listTags[block.Type]
		switch {
		case isItem && inList && groups[len(groups)-1].list == tag:
			last := &groups[len(groups)-1]
			last.blocks = append(last.blocks, block)
		case isItem:
			groups = append(groups, blockGroup{list: tag, blocks: []model.RichTextBlock{block}})
		case blockTypes[block.Type]:
			groups = append(groups, blockGroup{blocks: []model.RichTextBlock{block}})
		}
		inList = isItem
	}
	return groups
}

// inlineNode is a span wrapping its children, a run of text or a line break.
type inlineNode struct {
	span      model.Span
	text      string
	lineBreak bool
	children  []inlineNode
}

// spanTree splits text into well nested inline nodes. Offsets are rune
// indexes; overlapping spans are closed and reopened around the overlap.
func spanTree(text string, spans []model.Span) []inlineNode {
	runes := []rune(text)
	n := len(runes)

	valid := make([]model.Span, 0, len(spans))
	for _, s := range spans {
		s.Start = max(s.Start, 0)
		s.End = min(s.End, n)
		if s.Start >= s.End || !supportedSpan(s) {
			continue
		}
		valid = append(valid, s)
	}

	bounds := []int{0, n}
	for _, s := range valid {
		bounds = append(bounds, s.Start, s.End)
	}
	slices.Sort(bounds)
	bounds = slices.Compact(bounds)

	root := &inlineNode{}
	// stack[i+1] points into stack[i].children. Only the top gets appended
	// to, so the pointers below it stay valid.
	stack := []*inlineNode{root}
	var open []model.Span

	push := func(s model.Span) {
		top := stack[len(stack)-1]
		top.children = append(top.children, inlineNode{span: s})
		stack = append(stack, &top.children[len(top.children)-1])
		open = append(open, s)
	}

	for i, pos := range bounds {
		// close everything that ends here, plus whatever was opened after it
		closeFrom := slices.IndexFunc(open, func(s model.Span) bool { return s.End <= pos })
		if closeFrom >= 0 {
			var reopen []model.Span
			for _, s := range open[closeFrom:] {
				if s.End > pos {
					reopen = append(reopen, s)
				}
			}
			open = open[:closeFrom]
			stack = stack[:closeFrom+1]
			for _, s := range reopen {
				push(s)
			}
		}

		// open spans starting here, longest first so they enclose the shorter ones
		var starting []model.Span
		for _, s := range valid {
			if s.Start == pos {
				starting = append(starting, s)
			}
		}
		slices.SortStableFunc(starting, func(x, y model.Span) int { return y.End - x.End })
		for _, s := range starting {
			push(s)
		}

		if i+1 < len(bounds) {
			top := stack[len(stack)-1]
			for j, line := range strings.Split(string(runes[pos:bounds[i+1]]), "\n") {
				if j > 0 {
					top.children = append(top.children, inlineNode{lineBreak: true})
				}
				if line != "" {
					top.children = append(top.children, inlineNode{text: line})
				}
			}
		}
	}

	return root.children
}

func supportedSpan(s model.Span) bool {
	switch s.Type {
	case "strong", "em", "label":
		return true
	case "hyperlink":
		return s.Data.URL != ""
	}
	return false
}
