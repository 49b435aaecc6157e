package scoring

// Negative marking types.
const (
	NegativeFixed      = "fixed"
	NegativePercentage = "percentage"
)

// MarkingSettings controls the penalty for wrong answers.
type MarkingSettings struct {
	NegativeMarking     bool    `json:"negative_marking"`
	NegativeMarkingType string  `json:"negative_marking_type"`
	NegativeMarks       float64 `json:"negative_marks"`
}

// Marks returns the marks earned and deducted for one question. Unanswered
// questions neither earn nor lose marks.
func Marks(s MarkingSettings, questionMarks float64, answered, correct bool) (earned, deducted float64) {
	if !answered {
		return 0, 0
	}
	if correct {
		return questionMarks, 0
	}
	if !s.NegativeMarking || s.NegativeMarks <= 0 {
		return 0, 0
	}

	if s.NegativeMarkingType == NegativePercentage {
		return 0, Round2(questionMarks * s.NegativeMarks / 100)
	}
	return 0, s.NegativeMarks
}

// Item is one graded question of an attempt.
type Item struct {
	SectionID uint
	Marks     float64
	Answered  bool
	Correct   bool
	Earned    float64
	Deducted  float64
}

// Section describes a scored section and its cutoff percentage.
type Section struct {
	ID     uint
	Name   string
	Cutoff float64
}

// Settings for the pass decision.
type Settings struct {
	PassPercentage      float64
	EnableSectionCutoff bool
}

type SectionResult struct {
	SectionID     uint    `json:"section_id"`
	Name          string  `json:"name"`
	Score         float64 `json:"score"`
	TotalMarks    float64 `json:"total_marks"`
	Percentage    float64 `json:"percentage"`
	Correct       int     `json:"correct_answered_questions"`
	Wrong         int     `json:"wrong_answered_questions"`
	Unanswered    int     `json:"unanswered_questions"`
	Cutoff        float64 `json:"cutoff"`
	CutoffCleared bool    `json:"cutoff_cleared"`
}

// Result is the stored outcome of a completed attempt.
type Result struct {
	Score          float64         `json:"score"`
	TotalMarks     float64         `json:"total_marks"`
	MarksEarned    float64         `json:"marks_earned"`
	MarksDeducted  float64         `json:"marks_deducted"`
	Percentage     float64         `json:"percentage"`
	Accuracy       float64         `json:"accuracy"`
	Speed          float64         `json:"speed"`
	TotalQuestions int             `json:"total_questions"`
	Answered       int             `json:"answered_questions"`
	Correct        int             `json:"correct_answered_questions"`
	Wrong          int             `json:"wrong_answered_questions"`
	Unanswered     int             `json:"unanswered_questions"`
	TimeTaken      int             `json:"total_time_taken"`
	PassPercentage float64         `json:"pass_percentage"`
	Passed         bool            `json:"passed"`
	Sections       []SectionResult `json:"sections,omitempty"`
}

// Summarize aggregates graded items into a Result. timeTaken is in seconds.
func Summarize(items []Item, sections []Section, settings Settings, timeTaken int) Result {
	res := Result{
		TotalQuestions: len(items),
		TimeTaken:      timeTaken,
		PassPercentage: settings.PassPercentage,
	}

	bySection := make(map[uint]*SectionResult, len(sections))
	for _, s := range sections {
		bySection[s.ID] = &SectionResult{SectionID: s.ID, Name: s.Name, Cutoff: s.Cutoff}
	}

	for _, item := range items {
		res.TotalMarks += item.Marks
		res.MarksEarned += item.Earned
		res.MarksDeducted += item.Deducted

		sec := bySection[item.SectionID]
		if sec != nil {
			sec.TotalMarks += item.Marks
			sec.Score += item.Earned - item.Deducted
		}

		switch {
		case !item.Answered:
			res.Unanswered++
			if sec != nil {
				sec.Unanswered++
			}
		case item.Correct:
			res.Answered++
			res.Correct++
			if sec != nil {
				sec.Correct++
			}
		default:
			res.Answered++
			res.Wrong++
			if sec != nil {
				sec.Wrong++
			}
		}
	}

	res.TotalMarks = Round2(res.TotalMarks)
	res.MarksEarned = Round2(res.MarksEarned)
	res.MarksDeducted = Round2(res.MarksDeducted)
	res.Score = Round2(res.MarksEarned - res.MarksDeducted)
	res.Percentage = percent(res.Score, res.TotalMarks)
	res.Accuracy = percent(float64(res.Correct), float64(res.Answered))
	if timeTaken > 0 {
		res.Speed = Round2(float64(res.Answered) * 3600 / float64(timeTaken))
	}

	cutoffsCleared := true
	for _, s := range sections {
		sec := bySection[s.ID]
		sec.Score = Round2(sec.Score)
		sec.TotalMarks = Round2(sec.TotalMarks)
		sec.Percentage = percent(sec.Score, sec.TotalMarks)
		sec.CutoffCleared = sec.Percentage >= sec.Cutoff
		if !sec.CutoffCleared {
			cutoffsCleared = false
		}
		res.Sections = append(res.Sections, *sec)
	}

	res.Passed = res.Percentage >= settings.PassPercentage
	if settings.EnableSectionCutoff && !cutoffsCleared {
		res.Passed = false
	}
	return res
}

// Percentile is the share of other attempts scoring strictly lower, 0 to 100.
// With no other attempts the result is 100.
func Percentile(score float64, others []float64) float64 {
	if len(others) == 0 {
		return 100
	}
	lower := 0
	for _, o := range others {
		if o < score {
			lower++
		}
	}
	return Round2(float64(lower) * 100 / float64(len(others)))
}

func percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return Round2(part * 100 / whole)
}
