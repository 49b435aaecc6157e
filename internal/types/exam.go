package types

import "time"

// ExamRequest creates or updates an exam. Settings are only applied on
// create; use ExamSettingsRequest afterwards.
type ExamRequest struct {
	Title         string  `json:"title" binding:"required,max=191"`
	Slug          string  `json:"slug" binding:"omitempty,slug,max=191"`
	SubCategoryID uint    `json:"sub_category_id" binding:"required"`
	ExamType      string  `json:"exam_type" binding:"max=32"`
	Description   string  `json:"description"`
	IsPaid        bool    `json:"is_paid"`
	Price         float64 `json:"price" binding:"gte=0"`
	TotalDuration int     `json:"total_duration" binding:"gte=0"`
	IsPrivate     bool    `json:"is_private"`
}

type ExamSettingsRequest struct {
	AutoDuration             bool    `json:"auto_duration"`
	AutoGrading              bool    `json:"auto_grading"`
	EnableNegativeMarking    bool    `json:"enable_negative_marking"`
	EnableSectionCutoff      bool    `json:"enable_section_cutoff"`
	PassPercentage           float64 `json:"pass_percentage" binding:"gte=0,lte=100"`
	ShuffleQuestions         bool    `json:"shuffle_questions"`
	RestrictAttempts         bool    `json:"restrict_attempts"`
	NoOfAttempts             int     `json:"no_of_attempts" binding:"gte=0"`
	DisableSectionNavigation bool    `json:"disable_section_navigation"`
	DisableFinishButton      bool    `json:"disable_finish_button"`
	HideSolutions            bool    `json:"hide_solutions"`
	ShowLeaderboard          bool    `json:"show_leaderboard"`
}

type ExamSectionRequest struct {
	SectionID           uint    `json:"section_id" binding:"required"`
	Name                string  `json:"name" binding:"required,max=100"`
	DisplayOrder        int     `json:"display_order"`
	Duration            int     `json:"duration" binding:"gte=0"`
	CorrectMarks        float64 `json:"correct_marks" binding:"gte=0"`
	NegativeMarkingType string  `json:"negative_marking_type" binding:"omitempty,oneof=fixed percentage"`
	NegativeMarks       float64 `json:"negative_marks" binding:"gte=0"`
	SectionCutoff       float64 `json:"section_cutoff" binding:"gte=0,lte=100"`
}

type AttachQuestionsRequest struct {
	QuestionIDs []uint `json:"question_ids" binding:"required,min=1"`
}

type ScheduleRequest struct {
	ScheduleType string     `json:"schedule_type" binding:"required,oneof=fixed flexible"`
	StartsAt     time.Time  `json:"starts_at" binding:"required"`
	EndsAt       *time.Time `json:"ends_at"`
	GracePeriod  int        `json:"grace_period" binding:"gte=0"`
}

type ExamQuery struct {
	PageQuery
	SubCategoryID uint   `form:"sub_category_id"`
	Status        string `form:"status" binding:"omitempty,oneof=active inactive"`
}
