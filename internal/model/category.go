package model

import (
	"time"

	"gorm.io/gorm"
)

type Category struct {
	ID            uint           `json:"id" gorm:"primarykey"`
	Name          string         `json:"name" gorm:"size:100"`
	Slug          string         `json:"slug" gorm:"size:120;uniqueIndex"`
	Code          string         `json:"code" gorm:"size:32;uniqueIndex"`
	ShortDesc     string         `json:"short_description" gorm:"size:255"`
	IsActive      bool           `json:"is_active"`
	SubCategories []SubCategory  `json:"sub_categories,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

type SubCategory struct {
	ID          uint           `json:"id" gorm:"primarykey"`
	CategoryID  uint           `json:"category_id" gorm:"index"`
	Category    *Category      `json:"category,omitempty"`
	Name        string         `json:"name" gorm:"size:100"`
	Slug        string         `json:"slug" gorm:"size:120;uniqueIndex"`
	Code        string         `json:"code" gorm:"size:32;uniqueIndex"`
	Type        string         `json:"type" gorm:"size:32"` // e.g. course, certification, class
	ShortDesc   string         `json:"short_description" gorm:"size:255"`
	Description string         `json:"description" gorm:"type:text"`
	IsActive    bool           `json:"is_active"`
	Sections    []Section      `json:"sections,omitempty" gorm:"many2many:sub_category_sections"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// SubCategorySection is the join table between sub-categories and sections.
type SubCategorySection struct {
	SubCategoryID uint `gorm:"primaryKey"`
	SectionID     uint `gorm:"primaryKey"`
}

type Section struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	Name      string         `json:"name" gorm:"size:100"`
	Slug      string         `json:"slug" gorm:"size:120;uniqueIndex"`
	ShortDesc string         `json:"short_description" gorm:"size:255"`
	IsActive  bool           `json:"is_active"`
	Skills    []Skill        `json:"skills,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

type Skill struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	SectionID uint           `json:"section_id" gorm:"index"`
	Section   *Section       `json:"section,omitempty"`
	Name      string         `json:"name" gorm:"size:100"`
	Slug      string         `json:"slug" gorm:"size:120;uniqueIndex"`
	ShortDesc string         `json:"short_description" gorm:"size:255"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

type Topic struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	SkillID   uint           `json:"skill_id" gorm:"index"`
	Skill     *Skill         `json:"skill,omitempty"`
	Name      string         `json:"name" gorm:"size:100"`
	Slug      string         `json:"slug" gorm:"size:120;uniqueIndex"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
