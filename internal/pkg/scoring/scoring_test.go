package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		qType   string
		options []string
		correct []string
		given   []string
		want    bool
	}{
		{name: "msa correct", qType: TypeMSA, correct: []string{"2"}, given: []string{"2"}, want: true},
		{name: "msa wrong", qType: TypeMSA, correct: []string{"2"}, given: []string{"3"}},
		{name: "msa two picks", qType: TypeMSA, correct: []string{"2"}, given: []string{"2", "3"}},
		{name: "msa unanswered", qType: TypeMSA, correct: []string{"2"}, given: nil},
		{name: "mma order ignored", qType: TypeMMA, correct: []string{"1", "4"}, given: []string{"4", "1"}, want: true},
		{name: "mma missing one", qType: TypeMMA, correct: []string{"1", "4"}, given: []string{"1"}},
		{name: "mma extra one", qType: TypeMMA, correct: []string{"1", "4"}, given: []string{"1", "4", "2"}},
		{name: "tof true", qType: TypeTOF, correct: []string{"1"}, given: []string{"1"}, want: true},
		{name: "tof false", qType: TypeTOF, correct: []string{"1"}, given: []string{"2"}},
		{name: "saq case and space", qType: TypeSAQ, options: []string{"New Delhi", "Delhi"}, given: []string{"  delhi "}, want: true},
		{name: "saq from correct", qType: TypeSAQ, correct: []string{"H2O"}, given: []string{"h2o"}, want: true},
		{name: "saq wrong", qType: TypeSAQ, options: []string{"Delhi"}, given: []string{"Mumbai"}},
		{name: "mtf positional", qType: TypeMTF, correct: []string{"b", "a", "c"}, given: []string{"b", "a", "c"}, want: true},
		{name: "mtf swapped", qType: TypeMTF, correct: []string{"b", "a", "c"}, given: []string{"a", "b", "c"}},
		{name: "ord correct", qType: TypeORD, correct: []string{"3", "1", "2"}, given: []string{"3", "1", "2"}, want: true},
		{name: "ord short", qType: TypeORD, correct: []string{"3", "1", "2"}, given: []string{"3", "1"}},
		{name: "fib case insensitive", qType: TypeFIB, correct: []string{"Paris", "Seine"}, given: []string{"paris", " SEINE"}, want: true},
		{name: "fib one blank missing", qType: TypeFIB, correct: []string{"Paris", "Seine"}, given: []string{"paris", ""}},
		{name: "unknown type", qType: "ESSAY", correct: []string{"x"}, given: []string{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.qType, tt.options, tt.correct, tt.given))
		})
	}
}

func TestMarks(t *testing.T) {
	fixed := MarkingSettings{NegativeMarking: true, NegativeMarkingType: NegativeFixed, NegativeMarks: 0.25}
	pct := MarkingSettings{NegativeMarking: true, NegativeMarkingType: NegativePercentage, NegativeMarks: 50}

	tests := []struct {
		name          string
		settings      MarkingSettings
		answered      bool
		correct       bool
		earned, minus float64
	}{
		{"correct", fixed, true, true, 4, 0},
		{"wrong fixed penalty", fixed, true, false, 0, 0.25},
		{"wrong percentage penalty", pct, true, false, 0, 2},
		{"wrong without negative marking", MarkingSettings{}, true, false, 0, 0},
		{"unanswered never penalized", fixed, false, false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			earned, deducted := Marks(tt.settings, 4, tt.answered, tt.correct)
			assert.Equal(t, tt.earned, earned)
			assert.Equal(t, tt.minus, deducted)
		})
	}
}

func TestSummarize(t *testing.T) {
	items := []Item{
		{SectionID: 1, Marks: 2, Answered: true, Correct: true, Earned: 2},
		{SectionID: 1, Marks: 2, Answered: true, Correct: false, Deducted: 0.5},
		{SectionID: 2, Marks: 2, Answered: true, Correct: true, Earned: 2},
		{SectionID: 2, Marks: 2, Answered: false},
	}
	sections := []Section{{ID: 1, Name: "Maths", Cutoff: 40}, {ID: 2, Name: "English", Cutoff: 40}}

	res := Summarize(items, sections, Settings{PassPercentage: 50}, 1800)

	assert.Equal(t, 3.5, res.Score)
	assert.Equal(t, 8.0, res.TotalMarks)
	assert.Equal(t, 43.75, res.Percentage)
	assert.Equal(t, 66.67, res.Accuracy)
	assert.Equal(t, 6.0, res.Speed)
	assert.Equal(t, 2, res.Correct)
	assert.Equal(t, 1, res.Wrong)
	assert.Equal(t, 1, res.Unanswered)
	assert.False(t, res.Passed)

	require.Len(t, res.Sections, 2)
	assert.Equal(t, 1.5, res.Sections[0].Score)
	assert.Equal(t, 37.5, res.Sections[0].Percentage)
	assert.False(t, res.Sections[0].CutoffCleared)
	assert.True(t, res.Sections[1].CutoffCleared)
}

func TestSummarize_SectionCutoffBlocksPass(t *testing.T) {
	items := []Item{
		{SectionID: 1, Marks: 1, Answered: true, Correct: true, Earned: 1},
		{SectionID: 1, Marks: 1, Answered: true, Correct: true, Earned: 1},
		{SectionID: 1, Marks: 1, Answered: true, Correct: true, Earned: 1},
		{SectionID: 2, Marks: 1, Answered: true, Correct: false},
	}
	sections := []Section{{ID: 1, Cutoff: 50}, {ID: 2, Cutoff: 50}}

	withoutCutoff := Summarize(items, sections, Settings{PassPercentage: 60}, 0)
	assert.True(t, withoutCutoff.Passed)
	assert.Zero(t, withoutCutoff.Speed)

	withCutoff := Summarize(items, sections, Settings{PassPercentage: 60, EnableSectionCutoff: true}, 0)
	assert.False(t, withCutoff.Passed)
}

func TestSummarize_Empty(t *testing.T) {
	res := Summarize(nil, nil, Settings{PassPercentage: 0}, 0)

	assert.Zero(t, res.Percentage)
	assert.Zero(t, res.Accuracy)
	assert.True(t, res.Passed)
}

func TestPercentile(t *testing.T) {
	assert.Equal(t, 100.0, Percentile(5, nil))
	assert.Equal(t, 50.0, Percentile(5, []float64{1, 5, 9, 3}))
	assert.Equal(t, 0.0, Percentile(1, []float64{1, 2}))
	assert.Equal(t, 66.67, Percentile(10, []float64{1, 2, 10}))
}
