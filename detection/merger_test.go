package detection

import (
	"reflect"
	"strings"
	"testing"

	"github.com/tsawler/uilayout/model"
)

var testScreen = model.Screen{Width: 1000, Height: 2000}

func makeText(l, t, r, b float64, s string) TextDetection {
	return TextDetection{BBox: model.NewBBox(l, t, r, b), Text: s, Confidence: 0.9}
}

func makeCompo(l, t, r, b float64, label string) CompoDetection {
	return CompoDetection{BBox: model.NewBBox(l, t, r, b), Label: label}
}

// ============================================================================
// Constructor tests
// ============================================================================

func TestNewMerger(t *testing.T) {
	m := NewMerger()
	if m == nil {
		t.Fatal("NewMerger returned nil")
	}
	if m.Config().IoUThreshold != 0.8 {
		t.Errorf("Expected IoUThreshold=0.8, got %f", m.Config().IoUThreshold)
	}
}

func TestDefaultConfigKeyParams(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MinGrad != 10 || cfg.FloodFillBlock != 5 {
		t.Errorf("Expected min-grad=10 ffl-block=5, got %d %d", cfg.MinGrad, cfg.FloodFillBlock)
	}
	if cfg.MinElementArea != 50 {
		t.Errorf("Expected min-ele-area=50, got %f", cfg.MinElementArea)
	}
	if !cfg.MergeContained || !cfg.RemoveUIBar {
		t.Error("Expected merge-contained-ele and remove-ui-bar to be enabled")
	}
	if cfg.MaxWordInlineGap != 10 || cfg.MaxLineInGraphGap != 4 {
		t.Errorf("Expected gaps 10/4, got %f/%f", cfg.MaxWordInlineGap, cfg.MaxLineInGraphGap)
	}
}

func TestWithClickabilityNil(t *testing.T) {
	m := NewMerger().WithClickability(nil)
	if m.clickability == nil {
		t.Fatal("Expected default clickability to be restored")
	}
}

// ============================================================================
// Merge rule tests
// ============================================================================

func TestMergeCaptionInsideCompo(t *testing.T) {
	// IoU of the two boxes is 0.95
	in := Input{
		Screen: testScreen,
		Texts:  []TextDetection{makeText(100, 100, 200, 195, "Hello")},
		Compos: []CompoDetection{makeCompo(100, 100, 200, 200, "Image")},
	}

	res := NewMerger().Merge(in)

	if len(res.Components) != 1 {
		t.Fatalf("Expected 1 component, got %d", len(res.Components))
	}
	c := res.Components[0]
	if c.Class != model.ClassText {
		t.Errorf("Expected class Text, got %v", c.Class)
	}
	if c.Text != "Hello" {
		t.Errorf("Expected text Hello, got %q", c.Text)
	}
	if c.BBox != model.NewBBox(100, 100, 200, 200) {
		t.Errorf("Expected union box, got %+v", c.BBox)
	}
	if c.HasOwner() {
		t.Errorf("Expected no owner, got %d", c.OwnerID)
	}
	if res.Stats.MergedCaptions != 1 {
		t.Errorf("Expected MergedCaptions=1, got %d", res.Stats.MergedCaptions)
	}
}

func TestMergeClickableCompoKeepsOwner(t *testing.T) {
	in := Input{
		Screen: testScreen,
		Texts:  []TextDetection{makeText(100, 100, 200, 195, "Send")},
		Compos: []CompoDetection{makeCompo(100, 100, 200, 200, "Text Button")},
	}

	res := NewMerger().Merge(in)

	if len(res.Components) != 2 {
		t.Fatalf("Expected 2 components, got %d", len(res.Components))
	}
	text, button := res.Components[0], res.Components[1]
	if text.Class != model.ClassText || button.Class != model.ClassCompo {
		t.Fatalf("Expected Text then Compo, got %v then %v", text.Class, button.Class)
	}
	if !button.Clickable {
		t.Error("Expected the button to be clickable")
	}
	if text.OwnerID != button.ID {
		t.Errorf("Expected text owned by %d, got %d", button.ID, text.OwnerID)
	}
	if res.Stats.Owned != 1 {
		t.Errorf("Expected Owned=1, got %d", res.Stats.Owned)
	}
}

func TestMergeInjectedClickability(t *testing.T) {
	in := Input{
		Screen: testScreen,
		Texts:  []TextDetection{makeText(100, 100, 200, 195, "Avatar")},
		Compos: []CompoDetection{makeCompo(100, 100, 200, 200, "Image")},
	}
	always := ClickabilityFunc(func(CompoDetection) bool { return true })

	res := NewMerger().WithClickability(always).Merge(in)

	if len(res.Components) != 2 {
		t.Fatalf("Expected 2 components with clickable image, got %d", len(res.Components))
	}
}

func TestMergeContainerCompo(t *testing.T) {
	in := Input{
		Screen: testScreen,
		Texts: []TextDetection{
			makeText(20, 320, 200, 350, "Title"),
			makeText(20, 400, 200, 430, "Subtitle"),
		},
		Compos: []CompoDetection{makeCompo(0, 300, 400, 500, "Card")},
	}

	res := NewMerger().Merge(in)

	if len(res.Components) != 3 {
		t.Fatalf("Expected 3 components, got %d", len(res.Components))
	}
	card := res.Components[0]
	if card.Class != model.ClassCompo || card.ID != 0 {
		t.Fatalf("Expected card first, got %v", card)
	}
	for _, c := range res.Components[1:] {
		if c.OwnerID != card.ID {
			t.Errorf("Expected %v to be owned by the card", c)
		}
	}
}

func TestMergeContainmentDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeContained = false
	in := Input{
		Screen: testScreen,
		Texts:  []TextDetection{makeText(20, 320, 200, 350, "Title")},
		Compos: []CompoDetection{makeCompo(0, 300, 400, 500, "Card")},
	}

	res := NewMergerWithConfig(cfg).Merge(in)

	if len(res.Components) != 2 {
		t.Fatalf("Expected 2 components, got %d", len(res.Components))
	}
	for _, c := range res.Components {
		if c.HasOwner() {
			t.Errorf("Expected no owner without containment merge, got %v", c)
		}
	}
}

// ============================================================================
// Filtering tests
// ============================================================================

func TestMergeDropsUnusableBoxes(t *testing.T) {
	low := makeCompo(600, 600, 700, 700, "Icon")
	low.Confidence = 0.1
	in := Input{
		Screen: testScreen,
		Texts: []TextDetection{
			makeText(10, 500, 5, 520, "inverted"),
			makeText(10, 500, 200, 520, "ok"),
		},
		Compos: []CompoDetection{
			makeCompo(0, 0, 0, 0, ""),
			makeCompo(500, 500, 505, 505, "Icon"),
			low,
		},
	}

	res := NewMerger().Merge(in)

	if res.Stats.DroppedInvalid != 2 {
		t.Errorf("Expected DroppedInvalid=2, got %d", res.Stats.DroppedInvalid)
	}
	if res.Stats.DroppedSmall != 1 {
		t.Errorf("Expected DroppedSmall=1, got %d", res.Stats.DroppedSmall)
	}
	if res.Stats.DroppedLowConfidence != 1 {
		t.Errorf("Expected DroppedLowConfidence=1, got %d", res.Stats.DroppedLowConfidence)
	}
	if res.Stats.Dropped() != 4 {
		t.Errorf("Expected Dropped()=4, got %d", res.Stats.Dropped())
	}
	if len(res.Components) != 1 {
		t.Fatalf("Expected 1 component, got %d", len(res.Components))
	}
}

func TestMergeClipsToScreen(t *testing.T) {
	in := Input{
		Screen: testScreen,
		Texts:  []TextDetection{makeText(900, 500, 1100, 540, "edge")},
		Compos: []CompoDetection{makeCompo(1200, 500, 1300, 600, "Icon")},
	}

	res := NewMerger().Merge(in)

	if len(res.Components) != 1 {
		t.Fatalf("Expected 1 component, got %d", len(res.Components))
	}
	if res.Components[0].BBox.Right != 1000 {
		t.Errorf("Expected right edge clipped to 1000, got %f", res.Components[0].BBox.Right)
	}
	if res.Stats.DroppedInvalid != 1 {
		t.Errorf("Expected the off-screen box to count as invalid, got %d", res.Stats.DroppedInvalid)
	}
}

func TestMergeRemovesBars(t *testing.T) {
	in := Input{
		Screen: testScreen,
		Texts: []TextDetection{
			makeText(10, 1950, 200, 2000, "12:30"),
			makeText(10, 0, 200, 300, "Tall header"),
		},
		Compos: []CompoDetection{makeCompo(0, 0, 1000, 60, "Image")},
	}

	res := NewMerger().Merge(in)

	if res.Stats.RemovedBars != 2 {
		t.Errorf("Expected RemovedBars=2, got %d", res.Stats.RemovedBars)
	}
	if len(res.Components) != 1 || res.Components[0].Text != "Tall header" {
		t.Errorf("Expected only the tall header to survive, got %v", res.Components)
	}
}

func TestMergeKeepsBarsWhenDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RemoveUIBar = false
	in := Input{
		Screen: testScreen,
		Compos: []CompoDetection{makeCompo(0, 0, 1000, 60, "Image")},
	}

	res := NewMergerWithConfig(cfg).Merge(in)

	if len(res.Components) != 1 {
		t.Errorf("Expected the bar to be kept, got %d components", len(res.Components))
	}
}

func TestMergeDeduplicates(t *testing.T) {
	in := Input{
		Screen: testScreen,
		Compos: []CompoDetection{
			makeCompo(100, 100, 300, 160, "Image"),
			makeCompo(100, 100, 300, 160, "Button"),
		},
	}

	res := NewMerger().Merge(in)

	if len(res.Components) != 1 {
		t.Fatalf("Expected 1 component, got %d", len(res.Components))
	}
	if !res.Components[0].Clickable || res.Components[0].Label != "Button" {
		t.Errorf("Expected the clickable duplicate to win, got %+v", res.Components[0])
	}
	if res.Stats.Duplicates != 1 {
		t.Errorf("Expected Duplicates=1, got %d", res.Stats.Duplicates)
	}
}

// ============================================================================
// OCR merging tests
// ============================================================================

func TestMergeWordsIntoLine(t *testing.T) {
	in := Input{
		Screen: testScreen,
		Texts: []TextDetection{
			makeText(155, 500, 210, 520, "world"),
			makeText(100, 500, 150, 520, "Ｈｅｌｌｏ"),
			makeText(300, 500, 350, 520, "far"),
		},
	}

	res := NewMerger().Merge(in)

	if len(res.Components) != 2 {
		t.Fatalf("Expected 2 components, got %d", len(res.Components))
	}
	line := res.Components[0]
	if line.Text != "Hello world" {
		t.Errorf("Expected %q, got %q", "Hello world", line.Text)
	}
	if line.BBox != model.NewBBox(100, 500, 210, 520) {
		t.Errorf("Expected merged box, got %+v", line.BBox)
	}
	if res.Stats.MergedWords != 1 {
		t.Errorf("Expected MergedWords=1, got %d", res.Stats.MergedWords)
	}
}

func TestMergeLinesIntoParagraph(t *testing.T) {
	in := Input{
		Screen: testScreen,
		Texts: []TextDetection{
			makeText(100, 600, 300, 620, "First line"),
			makeText(100, 623, 250, 643, "second"),
		},
	}

	res := NewMerger().Merge(in)
	if len(res.Components) != 1 {
		t.Fatalf("Expected 1 paragraph, got %d components", len(res.Components))
	}
	if res.Components[0].Text != "First line\nsecond" {
		t.Errorf("Expected joined paragraph, got %q", res.Components[0].Text)
	}

	cfg := DefaultConfig()
	cfg.MergeParagraphs = false
	res = NewMergerWithConfig(cfg).Merge(in)
	if len(res.Components) != 2 {
		t.Errorf("Expected 2 lines with paragraph merging off, got %d", len(res.Components))
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"plain", "plain"},
		{"  Hello　 ｗｏｒｌｄ ", "Hello world"},
		{"one\n\n  two ", "one\ntwo"},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := normalizeText(tt.in); got != tt.expected {
			t.Errorf("normalizeText(%q) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}

// ============================================================================
// Property tests
// ============================================================================

func richInput() Input {
	return Input{
		Screen: testScreen,
		Texts: []TextDetection{
			makeText(10, 1950, 200, 2000, "bar"),
			makeText(100, 100, 200, 195, "Caption"),
			makeText(400, 100, 500, 195, "Send"),
			makeText(20, 320, 200, 350, "Title"),
			makeText(20, 400, 200, 430, "Subtitle"),
			makeText(100, 500, 150, 520, "Hello"),
			makeText(155, 500, 210, 520, "world"),
			makeText(100, 600, 300, 620, "First line"),
			makeText(100, 623, 250, 643, "second"),
			makeText(50, 700, 40, 720, "broken"),
		},
		Compos: []CompoDetection{
			makeCompo(100, 100, 200, 200, "Image"),
			makeCompo(400, 100, 500, 200, "Button"),
			makeCompo(0, 300, 400, 460, "Card"),
			makeCompo(600, 800, 700, 900, "Icon"),
			makeCompo(0, 0, 1000, 60, "Image"),
		},
	}
}

func TestMergeOutputIsValid(t *testing.T) {
	res := NewMerger().Merge(richInput())
	for i, c := range res.Components {
		if !c.BBox.IsValid() {
			t.Errorf("Component %v has an invalid box", c)
		}
		if c.ID != i {
			t.Errorf("Expected dense id %d, got %d", i, c.ID)
		}
		if c.HasOwner() && res.Components[c.OwnerID].Class != model.ClassCompo {
			t.Errorf("Component %v is owned by a non-compo", c)
		}
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	m := NewMerger()
	first := m.Merge(richInput())
	second := m.MergeComponents(first.Screen, first.Components)

	if !reflect.DeepEqual(first.Components, second.Components) {
		t.Errorf("Expected re-merge to change nothing\nfirst:  %v\nsecond: %v", first.Components, second.Components)
	}
	if second.Stats.Dropped() != 0 {
		t.Errorf("Expected nothing dropped on re-merge, got %d", second.Stats.Dropped())
	}
}

func TestMergeIgnoresInputOrder(t *testing.T) {
	in := richInput()
	reversed := Input{Screen: in.Screen}
	for i := len(in.Texts) - 1; i >= 0; i-- {
		reversed.Texts = append(reversed.Texts, in.Texts[i])
	}
	for i := len(in.Compos) - 1; i >= 0; i-- {
		reversed.Compos = append(reversed.Compos, in.Compos[i])
	}

	m := NewMerger()
	a := m.Merge(in)
	b := m.Merge(reversed)

	if !reflect.DeepEqual(a.Components, b.Components) {
		t.Errorf("Expected identical components for reordered input\na: %v\nb: %v", a.Components, b.Components)
	}
}

func TestMergeEmptyInput(t *testing.T) {
	res := NewMerger().Merge(Input{})
	if !res.IsEmpty() {
		t.Errorf("Expected empty result, got %d components", len(res.Components))
	}
	if (Input{}).IsEmpty() != true {
		t.Error("Expected zero Input to be empty")
	}
}

// ============================================================================
// Loader tests
// ============================================================================

func TestDecodeUIED(t *testing.T) {
	data := `{
		"img_shape": [2000, 1000, 3],
		"compos": [
			{"id": 0, "class": "Text", "position": {"column_min": 10, "row_min": 100, "column_max": 90, "row_max": 130}, "text_content": "Inbox"},
			{"id": 1, "class": "Compo", "compo_class": "Switch", "position": {"column_min": 800, "row_min": 100, "column_max": 880, "row_max": 140}},
			{"id": 2, "class": "Block", "position": {"column_min": 0, "row_min": 90, "column_max": 1000, "row_max": 150}}
		]
	}`

	in, err := DecodeUIED(strings.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeUIED failed: %v", err)
	}
	if in.Screen != (model.Screen{Width: 1000, Height: 2000}) {
		t.Errorf("Expected 1000x2000 screen, got %+v", in.Screen)
	}
	if len(in.Texts) != 1 || in.Texts[0].Text != "Inbox" {
		t.Fatalf("Expected one text Inbox, got %+v", in.Texts)
	}
	if len(in.Compos) != 2 {
		t.Fatalf("Expected 2 compos, got %d", len(in.Compos))
	}
	if in.Compos[0].Label != "Switch" || in.Compos[1].Label != "Block" {
		t.Errorf("Expected labels Switch and Block, got %q and %q", in.Compos[0].Label, in.Compos[1].Label)
	}
	if in.Compos[0].BBox != model.NewBBox(800, 100, 880, 140) {
		t.Errorf("Unexpected box %+v", in.Compos[0].BBox)
	}
}

func TestDecodeUIEDErrors(t *testing.T) {
	if _, err := DecodeUIED(strings.NewReader("{")); err == nil {
		t.Error("Expected error for truncated JSON")
	}
	if _, err := DecodeUIED(strings.NewReader(`{"compos": []}`)); err != ErrNoShape {
		t.Errorf("Expected ErrNoShape, got %v", err)
	}
}

func TestDecodeUIEDWithScreen(t *testing.T) {
	data := `{"compos": [{"class": "Text", "position": {"column_min": 10, "row_min": 10, "column_max": 90, "row_max": 30}, "text_content": "Hi"}]}`
	fallback := model.Screen{Width: 400, Height: 800}

	in, err := DecodeUIEDWithScreen(strings.NewReader(data), fallback)
	if err != nil {
		t.Fatalf("DecodeUIEDWithScreen failed: %v", err)
	}
	if in.Screen != fallback {
		t.Errorf("Expected fallback screen, got %+v", in.Screen)
	}

	withShape := `{"img_shape": [2000, 1000, 3], "compos": []}`
	in, err = DecodeUIEDWithScreen(strings.NewReader(withShape), fallback)
	if err != nil {
		t.Fatalf("DecodeUIEDWithScreen failed: %v", err)
	}
	if in.Screen.Width != 1000 {
		t.Errorf("Expected img_shape to win over the fallback, got %+v", in.Screen)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile("does-not-exist.json"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestValidateBBox(t *testing.T) {
	if err := ValidateBBox(model.NewBBox(0, 0, 10, 10)); err != nil {
		t.Errorf("Expected valid box, got %v", err)
	}
	if err := ValidateBBox(model.NewBBox(10, 0, 10, 10)); err != model.ErrInvalidBoundingBox {
		t.Errorf("Expected ErrInvalidBoundingBox, got %v", err)
	}
}
