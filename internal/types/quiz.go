package types

type QuizRequest struct {
	Title         string  `json:"title" binding:"required,max=191"`
	Slug          string  `json:"slug" binding:"omitempty,slug,max=191"`
	SubCategoryID uint    `json:"sub_category_id" binding:"required"`
	QuizType      string  `json:"quiz_type" binding:"max=32"`
	Description   string  `json:"description"`
	IsPaid        bool    `json:"is_paid"`
	Price         float64 `json:"price" binding:"gte=0"`
	IsPrivate     bool    `json:"is_private"`
}

type QuizSettingsRequest struct {
	DurationMode        string  `json:"duration_mode" binding:"required,oneof=auto manual"`
	Duration            int     `json:"duration" binding:"gte=0"`
	MarksMode           string  `json:"marks_mode" binding:"required,oneof=auto manual"`
	CorrectMarks        float64 `json:"correct_marks" binding:"gte=0"`
	NegativeMarking     bool    `json:"negative_marking"`
	NegativeMarkingType string  `json:"negative_marking_type" binding:"omitempty,oneof=fixed percentage"`
	NegativeMarks       float64 `json:"negative_marks" binding:"gte=0"`
	PassPercentage      float64 `json:"pass_percentage" binding:"gte=0,lte=100"`
	ShuffleQuestions    bool    `json:"shuffle_questions"`
	RestrictAttempts    bool    `json:"restrict_attempts"`
	NoOfAttempts        int     `json:"no_of_attempts" binding:"gte=0"`
	DisableFinishButton bool    `json:"disable_finish_button"`
	HideSolutions       bool    `json:"hide_solutions"`
	ShowLeaderboard     bool    `json:"show_leaderboard"`
}
