package types

// StartExamRequest optionally names the schedule the attempt belongs to.
type StartExamRequest struct {
	ScheduleID *uint `json:"schedule_id"`
}

// AnswerRequest updates one session question. TimeTaken is the cumulative
// number of seconds the student spent on it.
type AnswerRequest struct {
	Status         string   `json:"status" binding:"required,oneof=not_visited started answered answered_mark_for_review"`
	Answer         []string `json:"answer"`
	TimeTaken      int      `json:"time_taken" binding:"gte=0"`
	CurrentSection uint     `json:"current_section"`
}

// SessionQuestion is what a student sees while taking a session.
type SessionQuestion struct {
	ID         uint             `json:"id"`
	SNo        int              `json:"sno"`
	SectionID  uint             `json:"section_id,omitempty"`
	QuestionID uint             `json:"question_id"`
	Type       string           `json:"type"`
	Question   string           `json:"question"`
	Options    []string         `json:"options,omitempty"`
	Pairs      []string         `json:"pairs,omitempty"` // MTF right-hand side, shuffled
	Order      []int            `json:"order,omitempty"` // ORD option numbers in display order
	Marks      float64          `json:"marks"`
	Status     string           `json:"status"`
	Answer     []string         `json:"answer"`
	TimeTaken  int              `json:"time_taken"`
	Solution   *SessionSolution `json:"solution,omitempty"`
}

type SessionSolution struct {
	CorrectAnswer []string `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	IsCorrect     bool     `json:"is_correct"`
	MarksEarned   float64  `json:"marks_earned"`
	MarksDeducted float64  `json:"marks_deducted"`
}

type LeaderboardEntry struct {
	Rank      int     `json:"rank"`
	UserID    uint    `json:"user_id"`
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
	TimeTaken int     `json:"time_taken"`
}
