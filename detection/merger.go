package detection

import (
	"sort"

	"github.com/tsawler/uilayout/model"
)

// item is the merger's working record. Components are only built once the
// merge reaches a fixpoint.
type item struct {
	class     model.Class
	bbox      model.BBox
	text      string
	label     string
	clickable bool
}

// Merger fuses OCR boxes and non-text proposals into one deduplicated
// component set.
type Merger struct {
	config       Config
	clickability Clickability
}

// NewMerger creates a merger with default configuration
func NewMerger() *Merger {
	return NewMergerWithConfig(DefaultConfig())
}

// NewMergerWithConfig creates a merger with custom configuration
func NewMergerWithConfig(config Config) *Merger {
	return &Merger{
		config:       config,
		clickability: DefaultClickability(),
	}
}

// WithClickability replaces the clickability capability. A nil value
// restores the label-based default.
func (m *Merger) WithClickability(c Clickability) *Merger {
	if c == nil {
		c = DefaultClickability()
	}
	m.clickability = c
	return m
}

// Config returns the configuration in use
func (m *Merger) Config() Config {
	return m.config
}

// Merge fuses the detections of one screenshot.
//
// Degenerate boxes are dropped and counted, never returned as errors. The
// returned components are numbered top to bottom, left to right.
func (m *Merger) Merge(in Input) *Result {
	var stats Stats
	texts := make([]item, 0, len(in.Texts))
	for _, t := range in.Texts {
		bbox, ok := m.prepare(t.BBox, in.Screen, &stats)
		if !ok {
			continue
		}
		texts = append(texts, item{
			class: model.ClassText,
			bbox:  bbox,
			text:  normalizeText(t.Text),
		})
	}

	compos := make([]item, 0, len(in.Compos))
	for _, c := range in.Compos {
		if c.Confidence > 0 && c.Confidence < m.config.MinConfidence {
			stats.DroppedLowConfidence++
			continue
		}
		bbox, ok := m.prepare(c.BBox, in.Screen, &stats)
		if !ok {
			continue
		}
		if bbox.Area() < m.config.MinElementArea {
			stats.DroppedSmall++
			continue
		}
		compos = append(compos, item{
			class:     model.ClassCompo,
			bbox:      bbox,
			label:     c.Label,
			clickable: m.clickability.Clickable(c),
		})
	}

	return m.run(in.Screen, texts, compos, stats)
}

// MergeComponents re-runs the merge over components that were already
// merged. Owner references are recomputed. Because Merge only returns a
// fixpoint, feeding its output back yields the same components.
func (m *Merger) MergeComponents(screen model.Screen, comps []model.Component) *Result {
	var stats Stats
	var texts, compos []item
	for _, c := range comps {
		bbox, ok := m.prepare(c.BBox, screen, &stats)
		if !ok {
			continue
		}
		if c.Class == model.ClassText {
			texts = append(texts, item{class: model.ClassText, bbox: bbox, text: normalizeText(c.Text)})
			continue
		}
		if bbox.Area() < m.config.MinElementArea {
			stats.DroppedSmall++
			continue
		}
		compos = append(compos, item{
			class:     model.ClassCompo,
			bbox:      bbox,
			label:     c.Label,
			clickable: c.Clickable,
		})
	}
	return m.run(screen, texts, compos, stats)
}

// prepare validates a box and clips it to the screen when the size is known
func (m *Merger) prepare(bbox model.BBox, screen model.Screen, stats *Stats) (model.BBox, bool) {
	if bbox.Validate() != nil {
		stats.DroppedInvalid++
		return bbox, false
	}
	if screen.Known() {
		bbox = bbox.Clip(screen.BBox())
		if !bbox.IsValid() {
			stats.DroppedInvalid++
			return bbox, false
		}
	}
	return bbox, true
}

// run applies every merge step until none of them changes anything, then
// numbers the survivors.
func (m *Merger) run(screen model.Screen, texts, compos []item, stats Stats) *Result {
	var dups int
	texts, dups = dedupe(texts)
	stats.Duplicates += dups
	compos, dups = dedupe(compos)
	stats.Duplicates += dups

	for {
		changes := 0

		var n int
		texts, n = m.mergeWords(texts, compos)
		stats.MergedWords += n
		changes += n

		if m.config.MergeParagraphs {
			texts, n = m.mergeLines(texts, compos)
			stats.MergedLines += n
			changes += n
		}

		texts, compos, n = m.absorbCaptions(texts, compos)
		stats.MergedCaptions += n
		changes += n

		if m.config.RemoveUIBar && screen.Known() {
			var removed int
			texts, removed = m.removeBars(texts, screen)
			n = removed
			compos, removed = m.removeBars(compos, screen)
			n += removed
			stats.RemovedBars += n
			changes += n
		}

		if changes == 0 {
			break
		}
	}

	return &Result{
		Screen:     screen,
		Components: m.number(texts, compos, &stats),
		Stats:      stats,
	}
}

// matches reports whether a Text and a Compo box describe the same element
func (m *Merger) matches(text, compo model.BBox) bool {
	if text.IoU(compo) >= m.config.IoUThreshold {
		return true
	}
	if !m.config.MergeContained {
		return false
	}
	eps := m.config.ContainEpsilon
	return compo.Contains(text, eps) || text.Contains(compo, eps)
}

// bestMatch returns the index of the compo a text belongs to, or -1. The
// highest IoU wins; ties go to the smaller compo, then to the earlier box in
// reading order, so the result does not depend on slice order.
func (m *Merger) bestMatch(text item, compos []item) int {
	best := -1
	bestIoU := 0.0
	for k, c := range compos {
		if !m.matches(text.bbox, c.bbox) {
			continue
		}
		iou := text.bbox.IoU(c.bbox)
		if best < 0 || iou > bestIoU {
			best, bestIoU = k, iou
			continue
		}
		if iou < bestIoU {
			continue
		}
		cur := compos[best].bbox
		if c.bbox.Area() < cur.Area() || (c.bbox.Area() == cur.Area() && lessBBox(c.bbox, cur)) {
			best = k
		}
	}
	return best
}

// absorbCaptions merges each non-clickable compo that frames exactly one
// text into that text. Clickable compos and containers framing several texts
// are kept.
func (m *Merger) absorbCaptions(texts, compos []item) ([]item, []item, int) {
	if len(texts) == 0 || len(compos) == 0 {
		return texts, compos, 0
	}
	matchedBy := make([][]int, len(compos))
	for ti, t := range texts {
		if ci := m.bestMatch(t, compos); ci >= 0 {
			matchedBy[ci] = append(matchedBy[ci], ti)
		}
	}

	absorbed := 0
	keep := compos[:0:0]
	for ci, c := range compos {
		if c.clickable || len(matchedBy[ci]) != 1 {
			keep = append(keep, c)
			continue
		}
		ti := matchedBy[ci][0]
		texts[ti].bbox = texts[ti].bbox.Union(c.bbox)
		absorbed++
	}
	return texts, keep, absorbed
}

// removeBars drops boxes touching the top or bottom edge that are shorter
// than the bar height
func (m *Merger) removeBars(items []item, screen model.Screen) ([]item, int) {
	maxHeight := m.config.BarHeightRatio * screen.Height
	margin := m.config.BarEdgeMargin
	kept := items[:0:0]
	removed := 0
	for _, it := range items {
		touches := it.bbox.Top <= margin || it.bbox.Bottom >= screen.Height-margin
		if touches && it.bbox.Height() < maxHeight {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	return kept, removed
}

// number sorts the survivors into scan order, assigns ids and resolves owner
// references
func (m *Merger) number(texts, compos []item, stats *Stats) []model.Component {
	all := make([]item, 0, len(texts)+len(compos))
	all = append(all, texts...)
	all = append(all, compos...)
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.bbox != b.bbox {
			return lessBBox(a.bbox, b.bbox)
		}
		if a.class != b.class {
			return a.class < b.class
		}
		if a.text != b.text {
			return a.text < b.text
		}
		return a.label < b.label
	})

	var finalCompos []item
	compoIDs := make([]int, 0, len(compos))
	for id, it := range all {
		if it.class == model.ClassCompo {
			finalCompos = append(finalCompos, it)
			compoIDs = append(compoIDs, id)
		}
	}

	comps := make([]model.Component, len(all))
	for id, it := range all {
		comps[id] = model.Component{
			ID:        id,
			Class:     it.class,
			BBox:      it.bbox,
			Text:      it.text,
			Label:     it.label,
			Clickable: it.clickable,
			OwnerID:   model.NoOwner,
		}
		if it.class != model.ClassText {
			continue
		}
		if ci := m.bestMatch(it, finalCompos); ci >= 0 {
			comps[id].OwnerID = compoIDs[ci]
			stats.Owned++
		}
	}
	return comps
}

// dedupe removes items with the same box, keeping the clickable one, then
// the one with the smaller label
func dedupe(items []item) ([]item, int) {
	if len(items) < 2 {
		return items, 0
	}
	byBox := make(map[model.BBox]int, len(items))
	kept := items[:0:0]
	dups := 0
	for _, it := range items {
		k, seen := byBox[it.bbox]
		if !seen {
			byBox[it.bbox] = len(kept)
			kept = append(kept, it)
			continue
		}
		dups++
		cur := kept[k]
		if (it.clickable && !cur.clickable) ||
			(it.clickable == cur.clickable && it.label+it.text < cur.label+cur.text) {
			kept[k] = it
		}
	}
	return kept, dups
}
