package types

type QuestionOption struct {
	Option string `json:"option" binding:"required"`
	Pair   string `json:"pair"`
}

type QuestionRequest struct {
	Type          string           `json:"type" binding:"required,question_type"`
	Question      string           `json:"question" binding:"required"`
	Options       []QuestionOption `json:"options" binding:"dive"`
	CorrectAnswer []string         `json:"correct_answer"`
	DefaultMarks  float64          `json:"default_marks" binding:"gte=0"`
	DefaultTime   int              `json:"default_time" binding:"gte=0"`
	Difficulty    string           `json:"difficulty" binding:"omitempty,oneof=very_easy easy medium hard very_hard"`
	SkillID       uint             `json:"skill_id" binding:"required"`
	TopicID       *uint            `json:"topic_id"`
	Solution      string           `json:"solution"`
	Hint          string           `json:"hint"`
	IsActive      *bool            `json:"is_active"`
}

type QuestionQuery struct {
	PageQuery
	Type       string `form:"type"`
	SkillID    uint   `form:"skill_id"`
	TopicID    uint   `form:"topic_id"`
	Difficulty string `form:"difficulty"`
}

// ImportFailure describes one rejected CSV row.
type ImportFailure struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type ImportReport struct {
	Created int             `json:"created"`
	Failed  []ImportFailure `json:"failed"`
}
