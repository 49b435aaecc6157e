package types

type CategoryRequest struct {
	Name      string `json:"name" binding:"required,max=100"`
	Slug      string `json:"slug" binding:"omitempty,slug,max=120"`
	ShortDesc string `json:"short_description" binding:"max=255"`
	IsActive  *bool  `json:"is_active"`
}

type SubCategoryRequest struct {
	CategoryID  uint   `json:"category_id" binding:"required"`
	Name        string `json:"name" binding:"required,max=100"`
	Slug        string `json:"slug" binding:"omitempty,slug,max=120"`
	Type        string `json:"type" binding:"max=32"`
	ShortDesc   string `json:"short_description" binding:"max=255"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
	SectionIDs  []uint `json:"section_ids"`
}

type SectionRequest struct {
	Name      string `json:"name" binding:"required,max=100"`
	Slug      string `json:"slug" binding:"omitempty,slug,max=120"`
	ShortDesc string `json:"short_description" binding:"max=255"`
	IsActive  *bool  `json:"is_active"`
}

type SkillRequest struct {
	SectionID uint   `json:"section_id" binding:"required"`
	Name      string `json:"name" binding:"required,max=100"`
	Slug      string `json:"slug" binding:"omitempty,slug,max=120"`
	ShortDesc string `json:"short_description" binding:"max=255"`
	IsActive  *bool  `json:"is_active"`
}

type TopicRequest struct {
	SkillID  uint   `json:"skill_id" binding:"required"`
	Name     string `json:"name" binding:"required,max=100"`
	Slug     string `json:"slug" binding:"omitempty,slug,max=120"`
	IsActive *bool  `json:"is_active"`
}

type TaxonomyQuery struct {
	PageQuery
	ParentID uint `form:"parent_id"` // category, section or skill depending on the resource
}
