package detection

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/tsawler/uilayout/model"
)

// normalizeText folds compatibility and full-width forms and collapses runs of
// blanks inside each line. Line breaks produced by paragraph merging are kept.
func normalizeText(s string) string {
	s = width.Fold.String(norm.NFKC.String(s))
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// sortItems orders items top to bottom, then left to right
func sortItems(items []item) {
	sort.SliceStable(items, func(i, j int) bool {
		return lessBBox(items[i].bbox, items[j].bbox)
	})
}

func lessBBox(a, b model.BBox) bool {
	if a.Top != b.Top {
		return a.Top < b.Top
	}
	if a.Left != b.Left {
		return a.Left < b.Left
	}
	if a.Bottom != b.Bottom {
		return a.Bottom < b.Bottom
	}
	return a.Right < b.Right
}

// mergeWords fuses OCR boxes on the same row whose horizontal gap is within
// MaxWordInlineGap. Boxes held by different containers are never fused.
// Returns the new slice and the number of fusions.
func (m *Merger) mergeWords(texts, compos []item) ([]item, int) {
	merged := 0
	for {
		sortItems(texts)
		i, j := m.findPair(texts, compos, m.sameLine)
		if i < 0 {
			return texts, merged
		}
		left, right := texts[i], texts[j]
		if right.bbox.Left < left.bbox.Left {
			left, right = right, left
		}
		texts[i] = item{
			class: model.ClassText,
			bbox:  left.bbox.Union(right.bbox),
			text:  joinText(left.text, right.text, " "),
		}
		texts = append(texts[:j], texts[j+1:]...)
		merged++
	}
}

// mergeLines fuses vertically adjacent OCR lines into paragraphs
func (m *Merger) mergeLines(texts, compos []item) ([]item, int) {
	merged := 0
	for {
		sortItems(texts)
		i, j := m.findPair(texts, compos, m.sameParagraph)
		if i < 0 {
			return texts, merged
		}
		upper, lower := texts[i], texts[j]
		if lower.bbox.Top < upper.bbox.Top {
			upper, lower = lower, upper
		}
		texts[i] = item{
			class: model.ClassText,
			bbox:  upper.bbox.Union(lower.bbox),
			text:  joinText(upper.text, lower.text, "\n"),
		}
		texts = append(texts[:j], texts[j+1:]...)
		merged++
	}
}

// findPair returns the first (i, j), i < j, for which pred holds and both
// texts resolve to the same container. It returns -1, -1 when none exists.
func (m *Merger) findPair(texts, compos []item, pred func(a, b model.BBox) bool) (int, int) {
	owners := make([]int, len(texts))
	for k := range texts {
		owners[k] = m.bestMatch(texts[k], compos)
	}
	for i := 0; i < len(texts); i++ {
		for j := i + 1; j < len(texts); j++ {
			if owners[i] != owners[j] {
				continue
			}
			if pred(texts[i].bbox, texts[j].bbox) {
				return i, j
			}
		}
	}
	return -1, -1
}

func (m *Merger) sameLine(a, b model.BBox) bool {
	if a.VerticalOverlapRatio(b) < m.config.LineOverlapRatio {
		return false
	}
	return a.Gap(b, model.Horizontal) <= m.config.MaxWordInlineGap
}

func (m *Merger) sameParagraph(a, b model.BBox) bool {
	if a.VerticalOverlapRatio(b) >= m.config.LineOverlapRatio {
		return false
	}
	if a.HorizontalOverlapRatio(b) == 0 {
		return false
	}
	gap := a.Gap(b, model.Vertical)
	return gap >= 0 && gap <= m.config.MaxLineInGraphGap
}

func joinText(first, second, sep string) string {
	switch {
	case first == "":
		return second
	case second == "":
		return first
	}
	return first + sep + second
}
