package model

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// Duration and marks modes.
const (
	ModeAuto   = "auto"
	ModeManual = "manual"
)

type QuizSettings struct {
	DurationMode        string  `json:"duration_mode"` // auto sums question default times
	Duration            int     `json:"duration"`      // minutes, manual mode
	MarksMode           string  `json:"marks_mode"`    // auto uses question default marks
	CorrectMarks        float64 `json:"correct_marks"` // manual mode
	NegativeMarking     bool    `json:"negative_marking"`
	NegativeMarkingType string  `json:"negative_marking_type"`
	NegativeMarks       float64 `json:"negative_marks"`
	PassPercentage      float64 `json:"pass_percentage"`
	ShuffleQuestions    bool    `json:"shuffle_questions"`
	RestrictAttempts    bool    `json:"restrict_attempts"`
	NoOfAttempts        int     `json:"no_of_attempts"`
	DisableFinishButton bool    `json:"disable_finish_button"`
	HideSolutions       bool    `json:"hide_solutions"`
	ShowLeaderboard     bool    `json:"show_leaderboard"`
}

func DefaultQuizSettings() QuizSettings {
	return QuizSettings{
		DurationMode:    ModeAuto,
		MarksMode:       ModeAuto,
		PassPercentage:  60,
		ShowLeaderboard: true,
	}
}

func (s *QuizSettings) Scan(value interface{}) error {
	if value == nil {
		*s = DefaultQuizSettings()
		return nil
	}
	return scanJSON(value, s)
}

func (s QuizSettings) Value() (driver.Value, error) {
	return jsonValue(s)
}

type Quiz struct {
	ID             uint           `json:"id" gorm:"primarykey"`
	Code           string         `json:"code" gorm:"size:32;uniqueIndex"`
	Title          string         `json:"title" gorm:"size:191"`
	Slug           string         `json:"slug" gorm:"size:191;uniqueIndex"`
	SubCategoryID  uint           `json:"sub_category_id" gorm:"index"`
	SubCategory    *SubCategory   `json:"sub_category,omitempty"`
	QuizType       string         `json:"quiz_type" gorm:"size:32"`
	Description    string         `json:"description" gorm:"type:text"`
	IsPaid         bool           `json:"is_paid"`
	Price          float64        `json:"price"`
	Settings       QuizSettings   `json:"settings" gorm:"type:json"`
	TotalDuration  int            `json:"total_duration"` // minutes
	TotalMarks     float64        `json:"total_marks"`
	TotalQuestions int            `json:"total_questions"`
	IsActive       bool           `json:"is_active"`
	IsPrivate      bool           `json:"is_private"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

type QuizQuestion struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	QuizID     uint      `json:"quiz_id" gorm:"uniqueIndex:idx_quiz_question"`
	QuestionID uint      `json:"question_id" gorm:"uniqueIndex:idx_quiz_question"`
	Question   *Question `json:"question,omitempty"`
	SortOrder  int       `json:"sort_order"`
	CreatedAt  time.Time `json:"created_at"`
}
