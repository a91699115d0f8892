package layout

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/tsawler/uilayout/model"
)

// makeIconRow returns n 48x48 icons on one row starting at x, spaced by pitch
func makeIconRow(n int, x, y, pitch float64) []model.Component {
	comps := make([]model.Component, n)
	for i := range comps {
		left := x + float64(i)*pitch
		comps[i] = makeComponent(i, model.ClassCompo, left, y, left+48, y+48)
	}
	return comps
}

func TestNewGroupRecognizerWithConfig(t *testing.T) {
	config := GroupConfig{RowGapFactor: 3.0, ColumnGapFactor: 2.0, MinMembers: 2}
	r := NewGroupRecognizerWithConfig(config)
	if r == nil {
		t.Fatal("NewGroupRecognizerWithConfig returned nil")
	}
	if r.config.RowGapFactor != 3.0 {
		t.Errorf("Expected RowGapFactor=3.0, got %f", r.config.RowGapFactor)
	}
}

func TestRecognizeIconRow(t *testing.T) {
	table := mustTable(t, makeIconRow(3, 40, 200, 100))

	result := NewGroupRecognizer().Recognize(table)

	if len(result.Groups) != 1 {
		t.Fatalf("Expected 1 group, got %d", len(result.Groups))
	}
	g := result.Groups[0]
	if g.Alignment != model.Horizontal {
		t.Errorf("Expected horizontal alignment, got %v", g.Alignment)
	}
	if !reflect.DeepEqual(g.Members, []int{0, 1, 2}) {
		t.Errorf("Expected members [0 1 2], got %v", g.Members)
	}
	if !g.Homogeneous {
		t.Error("Expected homogeneous group")
	}
	if g.BBox != model.NewBBox(40, 200, 288, 248) {
		t.Errorf("Unexpected envelope %+v", g.BBox)
	}
	if g.GapCV != 0 {
		t.Errorf("Expected regular spacing, got CV %f", g.GapCV)
	}
}

func TestRecognizeRowGapThreshold(t *testing.T) {
	// 48px icons with a 100px gap exceed 1.5 x 48
	table := mustTable(t, makeIconRow(3, 0, 200, 148))

	result := NewGroupRecognizer().Recognize(table)

	if len(result.Groups) != 0 {
		t.Errorf("Expected no group for widely spaced icons, got %d", len(result.Groups))
	}
}

func TestRecognizeTextColumn(t *testing.T) {
	var comps []model.Component
	for i := 0; i < 4; i++ {
		top := 100 + float64(i)*40
		comps = append(comps, makeComponent(i, model.ClassText, 50, top, 300, top+20))
	}
	table := mustTable(t, comps)

	result := NewGroupRecognizer().Recognize(table)

	if len(result.Groups) != 1 {
		t.Fatalf("Expected 1 group, got %d", len(result.Groups))
	}
	if result.Groups[0].Alignment != model.Vertical {
		t.Errorf("Expected vertical alignment, got %v", result.Groups[0].Alignment)
	}
	if result.Groups[0].Len() != 4 {
		t.Errorf("Expected 4 members, got %d", result.Groups[0].Len())
	}
}

func TestRecognizeRejectsMixedClasses(t *testing.T) {
	table := mustTable(t, []model.Component{
		makeComponent(0, model.ClassCompo, 40, 200, 88, 248),
		makeComponent(1, model.ClassText, 100, 210, 300, 238),
	})

	result := NewGroupRecognizer().Recognize(table)

	if len(result.Groups) != 0 {
		t.Errorf("Expected no group mixing text and compo, got %v", result.Groups)
	}
}

func TestRecognizeCaptionedButtons(t *testing.T) {
	var comps []model.Component
	for i := 0; i < 3; i++ {
		left := 40 + float64(i)*100
		button := makeComponent(2*i, model.ClassCompo, left, 200, left+80, 248)
		button.Clickable = true
		label := makeComponent(2*i+1, model.ClassText, left+10, 210, left+70, 238)
		label.OwnerID = 2 * i
		comps = append(comps, button, label)
	}
	table := mustTable(t, comps)

	result := NewGroupRecognizer().Recognize(table)

	if len(result.Groups) != 1 {
		t.Fatalf("Expected 1 group, got %d", len(result.Groups))
	}
	g := result.Groups[0]
	if g.Len() != 6 {
		t.Errorf("Expected buttons and captions together, got %v", g.Members)
	}
	if g.Homogeneous {
		t.Error("Expected a captioned group to be marked mixed")
	}
	if g.Alignment != model.Horizontal {
		t.Errorf("Expected horizontal alignment, got %v", g.Alignment)
	}
}

func TestRecognizeRegularSpacingWins(t *testing.T) {
	table := mustTable(t, []model.Component{
		makeComponent(0, model.ClassCompo, 0, 0, 48, 48),
		makeComponent(1, model.ClassCompo, 70, 0, 118, 48),
		makeComponent(2, model.ClassCompo, 160, 0, 208, 48),
		makeComponent(3, model.ClassCompo, 0, 80, 48, 128),
		makeComponent(4, model.ClassCompo, 0, 160, 48, 208),
	})

	result := NewGroupRecognizer().Recognize(table)

	if result.Candidates != 2 {
		t.Errorf("Expected 2 candidates, got %d", result.Candidates)
	}
	if len(result.Groups) != 1 {
		t.Fatalf("Expected 1 group, got %d", len(result.Groups))
	}
	g := result.Groups[0]
	if g.Alignment != model.Vertical {
		t.Errorf("Expected the evenly spaced column to win, got %v", g.Alignment)
	}
	if !reflect.DeepEqual(g.Members, []int{0, 3, 4}) {
		t.Errorf("Expected members [0 3 4], got %v", g.Members)
	}
	if result.Ambiguous != 0 {
		t.Errorf("Expected no ambiguity, got %d", result.Ambiguous)
	}
}

func TestRecognizeAmbiguousTie(t *testing.T) {
	table := mustTable(t, []model.Component{
		makeComponent(0, model.ClassCompo, 0, 0, 48, 48),
		makeComponent(1, model.ClassCompo, 88, 0, 136, 48),
		makeComponent(2, model.ClassCompo, 0, 88, 48, 136),
		makeComponent(3, model.ClassCompo, 88, 88, 136, 136),
	})

	result := NewGroupRecognizer().Recognize(table)

	if len(result.Groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(result.Groups))
	}
	for _, g := range result.Groups {
		if g.Alignment != model.Horizontal {
			t.Errorf("Expected rows to win the tie, got %v", g.Alignment)
		}
	}
	if result.Ambiguous != 1 {
		t.Errorf("Expected 1 ambiguous tie, got %d", result.Ambiguous)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Kind != WarningClusterAmbiguous {
		t.Errorf("Expected a cluster-ambiguous warning, got %v", result.Warnings)
	}
}

func TestRecognizeNoMemberInTwoGroups(t *testing.T) {
	table := mustTable(t, randomComponents(rand.New(rand.NewSource(7)), 60))

	result := NewGroupRecognizer().Recognize(table)

	seen := make(map[int]int)
	for _, g := range result.Groups {
		for _, m := range g.Members {
			if prev, ok := seen[m]; ok {
				t.Errorf("Component %d in groups %d and %d", m, prev, g.ID)
			}
			seen[m] = g.ID
		}
	}
}

func TestRecognizeDeterministic(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		comps := randomComponents(rand.New(rand.NewSource(seed)), 50)
		first := NewGroupRecognizer().Recognize(mustTable(t, comps))
		second := NewGroupRecognizer().Recognize(mustTable(t, comps))
		if !reflect.DeepEqual(first.Groups, second.Groups) {
			t.Errorf("seed %d: expected identical groups across runs", seed)
		}
	}
}

func TestCoefficientOfVariation(t *testing.T) {
	tests := []struct {
		values   []float64
		expected float64
	}{
		{nil, 0},
		{[]float64{10}, 0},
		{[]float64{10, 10, 10}, 0},
		{[]float64{22, 42}, 10.0 / 32.0},
	}

	for _, tt := range tests {
		if got := coefficientOfVariation(tt.values); got != tt.expected {
			t.Errorf("coefficientOfVariation(%v) = %f, want %f", tt.values, got, tt.expected)
		}
	}
}

// randomComponents scatters n components on a 1000x2000 screen, laid out on a
// coarse grid so rows and columns occur
func randomComponents(rng *rand.Rand, n int) []model.Component {
	comps := make([]model.Component, n)
	for i := range comps {
		left := float64(rng.Intn(10)) * 100
		top := float64(rng.Intn(20)) * 100
		class := model.ClassCompo
		w, h := 40+float64(rng.Intn(20)), 40+float64(rng.Intn(20))
		if rng.Intn(2) == 0 {
			class = model.ClassText
			w, h = 60+float64(rng.Intn(30)), 16+float64(rng.Intn(8))
		}
		left += float64(rng.Intn(10))
		top += float64(rng.Intn(10))
		comps[i] = makeComponent(i, class, left, top, left+w, top+h)
	}
	return comps
}
