package model

import (
	"time"

	"gorm.io/gorm"
)

// Difficulty levels, easiest first.
var Difficulties = []string{"very_easy", "easy", "medium", "hard", "very_hard"}

type Question struct {
	ID            uint            `json:"id" gorm:"primarykey"`
	Code          string          `json:"code" gorm:"size:32;uniqueIndex"`
	Type          string          `json:"type" gorm:"size:3;index"`
	Question      string          `json:"question" gorm:"type:text"`
	Options       QuestionOptions `json:"options" gorm:"type:json"`
	CorrectAnswer StringArray     `json:"correct_answer" gorm:"type:json"`
	DefaultMarks  float64         `json:"default_marks"`
	DefaultTime   int             `json:"default_time"` // seconds
	Difficulty    string          `json:"difficulty" gorm:"size:16;index"`
	SkillID       uint            `json:"skill_id" gorm:"index"`
	Skill         *Skill          `json:"skill,omitempty"`
	TopicID       *uint           `json:"topic_id" gorm:"index"`
	Topic         *Topic          `json:"topic,omitempty"`
	Solution      string          `json:"solution" gorm:"type:text"`
	Hint          string          `json:"hint" gorm:"type:text"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `json:"-" gorm:"index"`
}

// ValidDifficulty reports whether d is a known difficulty level.
func ValidDifficulty(d string) bool {
	for _, v := range Difficulties {
		if v == d {
			return true
		}
	}
	return false
}
