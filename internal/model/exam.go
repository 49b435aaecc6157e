package model

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// ExamSettings is stored as JSON on the exam row.
type ExamSettings struct {
	AutoDuration             bool    `json:"auto_duration"` // total duration is the sum of section durations
	AutoGrading              bool    `json:"auto_grading"`  // use each question's default marks instead of section marks
	EnableNegativeMarking    bool    `json:"enable_negative_marking"`
	EnableSectionCutoff      bool    `json:"enable_section_cutoff"`
	PassPercentage           float64 `json:"pass_percentage"`
	ShuffleQuestions         bool    `json:"shuffle_questions"`
	RestrictAttempts         bool    `json:"restrict_attempts"`
	NoOfAttempts             int     `json:"no_of_attempts"`
	DisableSectionNavigation bool    `json:"disable_section_navigation"`
	DisableFinishButton      bool    `json:"disable_finish_button"`
	HideSolutions            bool    `json:"hide_solutions"`
	ShowLeaderboard          bool    `json:"show_leaderboard"`
}

func DefaultExamSettings() ExamSettings {
	return ExamSettings{
		AutoDuration:    true,
		AutoGrading:     true,
		PassPercentage:  60,
		ShowLeaderboard: true,
	}
}

func (s *ExamSettings) Scan(value interface{}) error {
	if value == nil {
		*s = DefaultExamSettings()
		return nil
	}
	return scanJSON(value, s)
}

func (s ExamSettings) Value() (driver.Value, error) {
	return jsonValue(s)
}

type Exam struct {
	ID             uint           `json:"id" gorm:"primarykey"`
	Code           string         `json:"code" gorm:"size:32;uniqueIndex"`
	Title          string         `json:"title" gorm:"size:191"`
	Slug           string         `json:"slug" gorm:"size:191;uniqueIndex"`
	SubCategoryID  uint           `json:"sub_category_id" gorm:"index"`
	SubCategory    *SubCategory   `json:"sub_category,omitempty"`
	ExamType       string         `json:"exam_type" gorm:"size:32"`
	Description    string         `json:"description" gorm:"type:text"`
	IsPaid         bool           `json:"is_paid"`
	Price          float64        `json:"price"`
	Settings       ExamSettings   `json:"settings" gorm:"type:json"`
	TotalDuration  int            `json:"total_duration"` // minutes
	TotalMarks     float64        `json:"total_marks"`
	TotalQuestions int            `json:"total_questions"`
	IsActive       bool           `json:"is_active"`
	IsPrivate      bool           `json:"is_private"`
	Sections       []ExamSection  `json:"sections,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

type ExamSection struct {
	ID                  uint           `json:"id" gorm:"primarykey"`
	ExamID              uint           `json:"exam_id" gorm:"index"`
	SectionID           uint           `json:"section_id" gorm:"index"`
	Section             *Section       `json:"section,omitempty"`
	Name                string         `json:"name" gorm:"size:100"`
	DisplayOrder        int            `json:"display_order"`
	Duration            int            `json:"duration"` // minutes
	CorrectMarks        float64        `json:"correct_marks"`
	NegativeMarkingType string         `json:"negative_marking_type" gorm:"size:16"`
	NegativeMarks       float64        `json:"negative_marks"`
	SectionCutoff       float64        `json:"section_cutoff"` // percent
	TotalQuestions      int            `json:"total_questions"`
	TotalMarks          float64        `json:"total_marks"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `json:"-" gorm:"index"`
}

type ExamQuestion struct {
	ID            uint      `json:"id" gorm:"primarykey"`
	ExamID        uint      `json:"exam_id" gorm:"uniqueIndex:idx_exam_question"`
	ExamSectionID uint      `json:"exam_section_id" gorm:"index"`
	QuestionID    uint      `json:"question_id" gorm:"uniqueIndex:idx_exam_question"`
	Question      *Question `json:"question,omitempty"`
	SortOrder     int       `json:"sort_order"`
	CreatedAt     time.Time `json:"created_at"`
}

// Schedule types and statuses.
const (
	ScheduleFixed    = "fixed"
	ScheduleFlexible = "flexible"

	ScheduleActive    = "active"
	ScheduleCancelled = "cancelled"
)

type ExamSchedule struct {
	ID           uint           `json:"id" gorm:"primarykey"`
	Code         string         `json:"code" gorm:"size:32;uniqueIndex"`
	ExamID       uint           `json:"exam_id" gorm:"index"`
	ScheduleType string         `json:"schedule_type" gorm:"size:16"`
	StartsAt     time.Time      `json:"starts_at"`
	EndsAt       *time.Time     `json:"ends_at"`
	GracePeriod  int            `json:"grace_period"` // minutes
	Status       string         `json:"status" gorm:"size:16;index"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// Window returns the interval in which a session may be started.
func (s *ExamSchedule) Window() (time.Time, time.Time) {
	if s.ScheduleType == ScheduleFixed {
		return s.StartsAt, s.StartsAt.Add(time.Duration(s.GracePeriod) * time.Minute)
	}
	if s.EndsAt != nil {
		return s.StartsAt, *s.EndsAt
	}
	return s.StartsAt, time.Time{}
}

// Open reports whether a session may start at t.
func (s *ExamSchedule) Open(t time.Time) bool {
	if s.Status != ScheduleActive {
		return false
	}
	from, to := s.Window()
	if t.Before(from) {
		return false
	}
	return to.IsZero() || !t.After(to)
}
