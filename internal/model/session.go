package model

import (
	"time"

	"qwiktest/internal/pkg/scoring"
)

// Session statuses.
const (
	SessionStarted   = "started"
	SessionCompleted = "completed"
)

// Session question statuses.
const (
	QuestionNotVisited            = "not_visited"
	QuestionStarted               = "started"
	QuestionAnswered              = "answered"
	QuestionAnsweredMarkForReview = "answered_mark_for_review"
)

// ValidQuestionStatus reports whether s is one of the four question statuses.
func ValidQuestionStatus(s string) bool {
	switch s {
	case QuestionNotVisited, QuestionStarted, QuestionAnswered, QuestionAnsweredMarkForReview:
		return true
	}
	return false
}

// IsAnsweredStatus reports whether s requires an answer to be present.
func IsAnsweredStatus(s string) bool {
	return s == QuestionAnswered || s == QuestionAnsweredMarkForReview
}

type ExamSession struct {
	ID             uint            `json:"id" gorm:"primarykey"`
	Code           string          `json:"code" gorm:"size:36;uniqueIndex"`
	UserID         uint            `json:"user_id" gorm:"index"`
	User           *User           `json:"user,omitempty"`
	ExamID         uint            `json:"exam_id" gorm:"index"`
	Exam           *Exam           `json:"exam,omitempty"`
	ExamScheduleID *uint           `json:"exam_schedule_id" gorm:"index"`
	Status         string          `json:"status" gorm:"size:16;index"`
	StartsAt       time.Time       `json:"starts_at"`
	EndsAt         time.Time       `json:"ends_at" gorm:"index"`
	CompletedAt    *time.Time      `json:"completed_at"`
	TotalTimeTaken int             `json:"total_time_taken"` // seconds
	CurrentSection uint            `json:"current_section"`
	Score          float64         `json:"score"`
	Percentage     float64         `json:"percentage"`
	Passed         bool            `json:"passed"`
	Results        *scoring.Result `json:"results,omitempty" gorm:"serializer:json;type:text"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type ExamSessionQuestion struct {
	ID            uint        `json:"id" gorm:"primarykey"`
	ExamSessionID uint        `json:"exam_session_id" gorm:"index"`
	ExamSectionID uint        `json:"exam_section_id" gorm:"index"`
	QuestionID    uint        `json:"question_id" gorm:"index"`
	Question      *Question   `json:"question,omitempty"`
	SNo           int         `json:"sno" gorm:"column:sno"`
	Marks         float64     `json:"marks"`
	Status        string      `json:"status" gorm:"size:32"`
	UserAnswer    StringArray `json:"user_answer" gorm:"type:json"`
	IsCorrect     bool        `json:"is_correct"`
	TimeTaken     int         `json:"time_taken"` // seconds
	MarksEarned   float64     `json:"marks_earned"`
	MarksDeducted float64     `json:"marks_deducted"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type QuizSession struct {
	ID             uint            `json:"id" gorm:"primarykey"`
	Code           string          `json:"code" gorm:"size:36;uniqueIndex"`
	UserID         uint            `json:"user_id" gorm:"index"`
	User           *User           `json:"user,omitempty"`
	QuizID         uint            `json:"quiz_id" gorm:"index"`
	Quiz           *Quiz           `json:"quiz,omitempty"`
	Status         string          `json:"status" gorm:"size:16;index"`
	StartsAt       time.Time       `json:"starts_at"`
	EndsAt         time.Time       `json:"ends_at" gorm:"index"`
	CompletedAt    *time.Time      `json:"completed_at"`
	TotalTimeTaken int             `json:"total_time_taken"`
	Score          float64         `json:"score"`
	Percentage     float64         `json:"percentage"`
	Passed         bool            `json:"passed"`
	Results        *scoring.Result `json:"results,omitempty" gorm:"serializer:json;type:text"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type QuizSessionQuestion struct {
	ID            uint        `json:"id" gorm:"primarykey"`
	QuizSessionID uint        `json:"quiz_session_id" gorm:"index"`
	QuestionID    uint        `json:"question_id" gorm:"index"`
	Question      *Question   `json:"question,omitempty"`
	SNo           int         `json:"sno" gorm:"column:sno"`
	Marks         float64     `json:"marks"`
	Status        string      `json:"status" gorm:"size:32"`
	UserAnswer    StringArray `json:"user_answer" gorm:"type:json"`
	IsCorrect     bool        `json:"is_correct"`
	TimeTaken     int         `json:"time_taken"`
	MarksEarned   float64     `json:"marks_earned"`
	MarksDeducted float64     `json:"marks_deducted"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
