package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"qwiktest/internal/model"
	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/cache"
	"qwiktest/internal/pkg/database"
	"qwiktest/internal/types"
)

const (
	taxonomyCachePrefix = "taxonomy:"
	categoryTreeKey     = taxonomyCachePrefix + "tree"
	taxonomyTTL         = 30 * time.Minute
)

var Taxonomy = new(TaxonomyService)

type TaxonomyService struct{}

func (s *TaxonomyService) invalidate(ctx context.Context) {
	cache.Default.ForgetPrefix(ctx, taxonomyCachePrefix)
}

// exists returns a 404 naming what when no row of model has id.
func exists(ctx context.Context, model any, id uint, what string) error {
	var count int64
	if err := database.DB.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperr.NotFound(what + " not found")
	}
	return nil
}

// guardChildren refuses to delete a parent that still has children.
func guardChildren(ctx context.Context, child any, column string, id uint, what string) error {
	var count int64
	if err := database.DB.WithContext(ctx).Model(child).Where(column+" = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperr.Conflict(what)
	}
	return nil
}

func listTaxonomy[T any](ctx context.Context, q types.TaxonomyQuery, parentColumn string) ([]T, int64, error) {
	var m T
	db := database.DB.WithContext(ctx).Model(&m)
	if q.ParentID != 0 && parentColumn != "" {
		db = db.Where(parentColumn+" = ?", q.ParentID)
	}
	if q.Search != "" {
		db = db.Where("name LIKE ?", like(q.Search))
	}
	return paginate[T](db, q.PageQuery, "name ASC")
}

func getTaxonomy[T any](ctx context.Context, id uint, what string, preload ...string) (*T, error) {
	var out T
	db := database.DB.WithContext(ctx)
	for _, p := range preload {
		db = db.Preload(p)
	}
	if err := db.First(&out, id).Error; err != nil {
		return nil, notFound(err, what)
	}
	return &out, nil
}

// Categories

func (s *TaxonomyService) ListCategories(ctx context.Context, q types.TaxonomyQuery) ([]model.Category, int64, error) {
	return listTaxonomy[model.Category](ctx, q, "")
}

func (s *TaxonomyService) GetCategory(ctx context.Context, id uint) (*model.Category, error) {
	return getTaxonomy[model.Category](ctx, id, "category", "SubCategories")
}

func (s *TaxonomyService) CreateCategory(ctx context.Context, req types.CategoryRequest) (*model.Category, error) {
	slug, err := uniqueSlug(database.DB.WithContext(ctx), &model.Category{}, req.Slug, req.Name, 0)
	if err != nil {
		return nil, err
	}
	category := &model.Category{
		Name:      req.Name,
		Slug:      slug,
		Code:      newCode("cat"),
		ShortDesc: req.ShortDesc,
		IsActive:  boolOr(req.IsActive, true),
	}
	if err := database.DB.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return category, nil
}

func (s *TaxonomyService) UpdateCategory(ctx context.Context, id uint, req types.CategoryRequest) (*model.Category, error) {
	category, err := getTaxonomy[model.Category](ctx, id, "category")
	if err != nil {
		return nil, err
	}
	slug, err := uniqueSlug(database.DB.WithContext(ctx), &model.Category{}, req.Slug, req.Name, id)
	if err != nil {
		return nil, err
	}
	err = database.DB.WithContext(ctx).Model(category).Updates(map[string]any{
		"name":       req.Name,
		"slug":       slug,
		"short_desc": req.ShortDesc,
		"is_active":  boolOr(req.IsActive, category.IsActive),
	}).Error
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return getTaxonomy[model.Category](ctx, id, "category")
}

func (s *TaxonomyService) DeleteCategory(ctx context.Context, id uint) error {
	category, err := getTaxonomy[model.Category](ctx, id, "category")
	if err != nil {
		return err
	}
	if err := guardChildren(ctx, &model.SubCategory{}, "category_id", id, "category still has sub-categories"); err != nil {
		return err
	}
	if err := database.DB.WithContext(ctx).Delete(category).Error; err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Sub-categories

func (s *TaxonomyService) ListSubCategories(ctx context.Context, q types.TaxonomyQuery) ([]model.SubCategory, int64, error) {
	return listTaxonomy[model.SubCategory](ctx, q, "category_id")
}

func (s *TaxonomyService) GetSubCategory(ctx context.Context, id uint) (*model.SubCategory, error) {
	return getTaxonomy[model.SubCategory](ctx, id, "sub-category", "Category", "Sections")
}

// SubCategoryBySlug returns an active sub-category for the public pages.
func (s *TaxonomyService) SubCategoryBySlug(ctx context.Context, slug string) (*model.SubCategory, error) {
	var sub model.SubCategory
	err := database.DB.WithContext(ctx).Preload("Category").
		Where("slug = ? AND is_active = ?", slug, true).First(&sub).Error
	if err != nil {
		return nil, notFound(err, "sub-category")
	}
	return &sub, nil
}

func (s *TaxonomyService) sections(ctx context.Context, ids []uint) ([]model.Section, error) {
	if len(ids) == 0 {
		return []model.Section{}, nil
	}
	var sections []model.Section
	if err := database.DB.WithContext(ctx).Where("id IN ?", ids).Find(&sections).Error; err != nil {
		return nil, err
	}
	if len(sections) != len(uniqueIDs(ids)) {
		return nil, apperr.Validation("unknown section").WithField("section_ids", "one or more sections do not exist")
	}
	return sections, nil
}

func (s *TaxonomyService) CreateSubCategory(ctx context.Context, req types.SubCategoryRequest) (*model.SubCategory, error) {
	if err := exists(ctx, &model.Category{}, req.CategoryID, "category"); err != nil {
		return nil, err
	}
	slug, err := uniqueSlug(database.DB.WithContext(ctx), &model.SubCategory{}, req.Slug, req.Name, 0)
	if err != nil {
		return nil, err
	}
	sections, err := s.sections(ctx, req.SectionIDs)
	if err != nil {
		return nil, err
	}

	sub := &model.SubCategory{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Slug:        slug,
		Code:        newCode("sub"),
		Type:        req.Type,
		ShortDesc:   req.ShortDesc,
		Description: req.Description,
		IsActive:    boolOr(req.IsActive, true),
		Sections:    sections,
	}
	if err := database.DB.WithContext(ctx).Create(sub).Error; err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return sub, nil
}

func (s *TaxonomyService) UpdateSubCategory(ctx context.Context, id uint, req types.SubCategoryRequest) (*model.SubCategory, error) {
	sub, err := getTaxonomy[model.SubCategory](ctx, id, "sub-category")
	if err != nil {
		return nil, err
	}
	if err := exists(ctx, &model.Category{}, req.CategoryID, "category"); err != nil {
		return nil, err
	}
	slug, err := uniqueSlug(database.DB.WithContext(ctx), &model.SubCategory{}, req.Slug, req.Name, id)
	if err != nil {
		return nil, err
	}
	sections, err := s.sections(ctx, req.SectionIDs)
	if err != nil {
		return nil, err
	}

	err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(sub).Updates(map[string]any{
			"category_id": req.CategoryID,
			"name":        req.Name,
			"slug":        slug,
			"type":        req.Type,
			"short_desc":  req.ShortDesc,
			"description": req.Description,
			"is_active":   boolOr(req.IsActive, sub.IsActive),
		}).Error; err != nil {
			return err
		}
		return tx.Model(sub).Association("Sections").Replace(sections)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return s.GetSubCategory(ctx, id)
}

func (s *TaxonomyService) DeleteSubCategory(ctx context.Context, id uint) error {
	sub, err := getTaxonomy[model.SubCategory](ctx, id, "sub-category")
	if err != nil {
		return err
	}
	if err := guardChildren(ctx, &model.Exam{}, "sub_category_id", id, "sub-category still has exams"); err != nil {
		return err
	}
	if err := guardChildren(ctx, &model.Quiz{}, "sub_category_id", id, "sub-category still has quizzes"); err != nil {
		return err
	}
	if err := guardChildren(ctx, &model.Plan{}, "sub_category_id", id, "sub-category still has plans"); err != nil {
		return err
	}

	err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(sub).Association("Sections").Clear(); err != nil {
			return err
		}
		return tx.Delete(sub).Error
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Sections

func (s *TaxonomyService) ListSections(ctx context.Context, q types.TaxonomyQuery) ([]model.Section, int64, error) {
	return listTaxonomy[model.Section](ctx, q, "")
}

func (s *TaxonomyService) GetSection(ctx context.Context, id uint) (*model.Section, error) {
	return getTaxonomy[model.Section](ctx, id, "section", "Skills")
}

func (s *TaxonomyService) CreateSection(ctx context.Context, req types.SectionRequest) (*model.Section, error) {
	slug, err := uniqueSlug(database.DB.WithContext(ctx), &model.Section{}, req.Slug, req.Name, 0)
	if err != nil {
		return nil, err
	}
	section := &model.Section{
		Name:      req.Name,
		Slug:      slug,
		ShortDesc: req.ShortDesc,
		IsActive:  boolOr(req.IsActive, true),
	}
	if err := database.DB.WithContext(ctx).Create(section).Error; err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return section, nil
}

func (s *TaxonomyService) UpdateSection(ctx context.Context, id uint, req types.SectionRequest) (*model.Section, error) {
	section, err := getTaxonomy[model.Section](ctx, id, "section")
	if err != nil {
		return nil, err
	}
	slug, err := uniqueSlug(database.DB.WithContext(ctx), &model.Section{}, req.Slug, req.Name, id)
	if err != nil {
		return nil, err
	}
	err = database.DB.WithContext(ctx).Model(section).Updates(map[string]any{
		"name":       req.Name,
		"slug":       slug,
		"short_desc": req.ShortDesc,
		"is_active":  boolOr(req.IsActive, section.IsActive),
	}).Error
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return getTaxonomy[model.Section](ctx, id, "section")
}

func (s *TaxonomyService) DeleteSection(ctx context.Context, id uint) error {
	section, err := getTaxonomy[model.Section](ctx, id, "section")
	if err != nil {
		return err
	}
	if err := guardChildren(ctx, &model.Skill{}, "section_id", id, "section still has skills"); err != nil {
		return err
	}
	if err := guardChildren(ctx, &model.ExamSection{}, "section_id", id, "section is used by an exam"); err != nil {
		return err
	}
	err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("section_id = ?", id).Delete(&model.SubCategorySection{}).Error; err != nil {
			return err
		}
		return tx.Delete(section).Error
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Skills

func (s *TaxonomyService) ListSkills(ctx context.Context, q types.TaxonomyQuery) ([]model.Skill, int64, error) {
	return listTaxonomy[model.Skill](ctx, q, "section_id")
}

func (s *TaxonomyService) CreateSkill(ctx context.Context, req types.SkillRequest) (*model.Skill, error) {
	if err := exists(ctx, &model.Section{}, req.SectionID, "section"); err != nil {
		return nil, err
	}
	slug, err := uniqueSlug(database.DB.WithContext(ctx), &model.Skill{}, req.Slug, req.Name, 0)
	if err != nil {
		return nil, err
	}
	skill := &model.Skill{
		SectionID: req.SectionID,
		Name:      req.Name,
		Slug:      slug,
		ShortDesc: req.ShortDesc,
		IsActive:  boolOr(req.IsActive, true),
	}
	if err := database.DB.WithContext(ctx).Create(skill).Error; err != nil {
		return nil, err
	}
	return skill, nil
}

func (s *TaxonomyService) UpdateSkill(ctx context.Context, id uint, req types.SkillRequest) (*model.Skill, error) {
	skill, err := getTaxonomy[model.Skill](ctx, id, "skill")
	if err != nil {
		return nil, err
	}
	if err := exists(ctx, &model.Section{}, req.SectionID, "section"); err != nil {
		return nil, err
	}
	slug, err := uniqueSlug(database.DB.WithContext(ctx), &model.Skill{}, req.Slug, req.Name, id)
	if err != nil {
		return nil, err
	}
	err = database.DB.WithContext(ctx).Model(skill).Updates(map[string]any{
		"section_id": req.SectionID,
		"name":       req.Name,
		"slug":       slug,
		"short_desc": req.ShortDesc,
		"is_active":  boolOr(req.IsActive, skill.IsActive),
	}).Error
	if err != nil {
		return nil, err
	}
	return getTaxonomy[model.Skill](ctx, id, "skill")
}

func (s *TaxonomyService) DeleteSkill(ctx context.Context, id uint) error {
	skill, err := getTaxonomy[model.Skill](ctx, id, "skill")
	if err != nil {
		return err
	}
	if err := guardChildren(ctx, &model.Topic{}, "skill_id", id, "skill still has topics"); err != nil {
		return err
	}
	if err := guardChildren(ctx, &model.Question{}, "skill_id", id, "skill still has questions"); err != nil {
		return err
	}
	return database.DB.WithContext(ctx).Delete(skill).Error
}

// Topics

func (s *TaxonomyService) ListTopics(ctx context.Context, q types.TaxonomyQuery) ([]model.Topic, int64, error) {
	return listTaxonomy[model.Topic](ctx, q, "skill_id")
}

func (s *TaxonomyService) CreateTopic(ctx context.Context, req types.TopicRequest) (*model.Topic, error) {
	if err := exists(ctx, &model.Skill{}, req.SkillID, "skill"); err != nil {
		return nil, err
	}
	slug, err := uniqueSlug(database.DB.WithContext(ctx), &model.Topic{}, req.Slug, req.Name, 0)
	if err != nil {
		return nil, err
	}
	topic := &model.Topic{
		SkillID:  req.SkillID,
		Name:     req.Name,
		Slug:     slug,
		IsActive: boolOr(req.IsActive, true),
	}
	if err := database.DB.WithContext(ctx).Create(topic).Error; err != nil {
		return nil, err
	}
	return topic, nil
}

func (s *TaxonomyService) UpdateTopic(ctx context.Context, id uint, req types.TopicRequest) (*model.Topic, error) {
	topic, err := getTaxonomy[model.Topic](ctx, id, "topic")
	if err != nil {
		return nil, err
	}
	if err := exists(ctx, &model.Skill{}, req.SkillID, "skill"); err != nil {
		return nil, err
	}
	slug, err := uniqueSlug(database.DB.WithContext(ctx), &model.Topic{}, req.Slug, req.Name, id)
	if err != nil {
		return nil, err
	}
	err = database.DB.WithContext(ctx).Model(topic).Updates(map[string]any{
		"skill_id":  req.SkillID,
		"name":      req.Name,
		"slug":      slug,
		"is_active": boolOr(req.IsActive, topic.IsActive),
	}).Error
	if err != nil {
		return nil, err
	}
	return getTaxonomy[model.Topic](ctx, id, "topic")
}

func (s *TaxonomyService) DeleteTopic(ctx context.Context, id uint) error {
	topic, err := getTaxonomy[model.Topic](ctx, id, "topic")
	if err != nil {
		return err
	}
	if err := guardChildren(ctx, &model.Question{}, "topic_id", id, "topic still has questions"); err != nil {
		return err
	}
	return database.DB.WithContext(ctx).Delete(topic).Error
}

// Tree returns the active categories with their active sub-categories.
func (s *TaxonomyService) Tree(ctx context.Context) ([]model.Category, error) {
	return cache.Remember(ctx, cache.Default, categoryTreeKey, taxonomyTTL, func() ([]model.Category, error) {
		categories := make([]model.Category, 0)
		err := database.DB.WithContext(ctx).
			Where("is_active = ?", true).
			Preload("SubCategories", func(db *gorm.DB) *gorm.DB {
				return db.Where("is_active = ?", true).Order("name ASC")
			}).
			Order("name ASC").
			Find(&categories).Error
		return categories, err
	})
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
