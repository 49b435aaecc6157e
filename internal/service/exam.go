package service

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"qwiktest/internal/model"
	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/database"
	"qwiktest/internal/types"
)

// Grace period applied to fixed schedules created without one.
const defaultFixedGrace = 5 // minutes

var Exam = &ExamService{clock: clockwork.NewRealClock()}

type ExamService struct {
	clock clockwork.Clock
}

// ExamDetail is the student view of an exam before starting it.
type ExamDetail struct {
	Exam            *model.Exam          `json:"exam"`
	HasAccess       bool                 `json:"has_access"`
	AttemptsUsed    int64                `json:"attempts_used"`
	AttemptsAllowed int                  `json:"attempts_allowed"` // 0 means unlimited
	Schedules       []model.ExamSchedule `json:"schedules"`
	OpenScheduleID  *uint                `json:"open_schedule_id"`
	ActiveSession   string               `json:"active_session,omitempty"`
}

// examQuestionMarks returns what a question is worth inside a section.
func examQuestionMarks(settings model.ExamSettings, section *model.ExamSection, q *model.Question) float64 {
	if settings.AutoGrading || section.CorrectMarks <= 0 {
		return q.DefaultMarks
	}
	return section.CorrectMarks
}

func (s *ExamService) List(ctx context.Context, q types.ExamQuery) ([]model.Exam, int64, error) {
	db := database.DB.WithContext(ctx).Model(&model.Exam{}).Preload("SubCategory")
	if q.SubCategoryID != 0 {
		db = db.Where("sub_category_id = ?", q.SubCategoryID)
	}
	switch q.Status {
	case "active":
		db = db.Where("is_active = ?", true)
	case "inactive":
		db = db.Where("is_active = ?", false)
	}
	if q.Search != "" {
		db = db.Where("title LIKE ? OR code LIKE ?", like(q.Search), like(q.Search))
	}
	return paginate[model.Exam](db, q.PageQuery, "id DESC")
}

func (s *ExamService) Get(ctx context.Context, id uint) (*model.Exam, error) {
	var exam model.Exam
	err := database.DB.WithContext(ctx).
		Preload("SubCategory").
		Preload("Sections", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC, id ASC") }).
		First(&exam, id).Error
	if err != nil {
		return nil, notFound(err, "exam")
	}
	return &exam, nil
}

func (s *ExamService) Create(ctx context.Context, req types.ExamRequest) (*model.Exam, error) {
	if err := exists(ctx, &model.SubCategory{}, req.SubCategoryID, "sub-category"); err != nil {
		return nil, err
	}
	slug, err := uniqueSlug(database.DB.WithContext(ctx), &model.Exam{}, req.Slug, req.Title, 0)
	if err != nil {
		return nil, err
	}

	exam := &model.Exam{
		Code:          newCode("exm"),
		Title:         req.Title,
		Slug:          slug,
		SubCategoryID: req.SubCategoryID,
		ExamType:      req.ExamType,
		Description:   req.Description,
		IsPaid:        req.IsPaid,
		Price:         req.Price,
		Settings:      model.DefaultExamSettings(),
		TotalDuration: req.TotalDuration,
		IsPrivate:     req.IsPrivate,
	}
	if err := database.DB.WithContext(ctx).Create(exam).Error; err != nil {
		return nil, err
	}
	return exam, nil
}

func (s *ExamService) Update(ctx context.Context, id uint, req types.ExamRequest) (*model.Exam, error) {
	exam, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := exists(ctx, &model.SubCategory{}, req.SubCategoryID, "sub-category"); err != nil {
		return nil, err
	}
	slug, err := uniqueSlug(database.DB.WithContext(ctx), &model.Exam{}, req.Slug, req.Title, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"title":           req.Title,
		"slug":            slug,
		"sub_category_id": req.SubCategoryID,
		"exam_type":       req.ExamType,
		"description":     req.Description,
		"is_paid":         req.IsPaid,
		"price":           req.Price,
		"is_private":      req.IsPrivate,
	}
	if !exam.Settings.AutoDuration {
		updates["total_duration"] = req.TotalDuration
	}

	err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Exam{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return recalcExam(tx, id)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *ExamService) UpdateSettings(ctx context.Context, id uint, req types.ExamSettingsRequest) (*model.Exam, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if req.RestrictAttempts && req.NoOfAttempts < 1 {
		return nil, apperr.Validation("number of attempts is required").WithField("no_of_attempts", "must be at least 1 when attempts are restricted")
	}

	settings := model.ExamSettings(req)
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Exam{}).Where("id = ?", id).Update("settings", settings).Error; err != nil {
			return err
		}
		return recalcExam(tx, id)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete soft-deletes the exam. Completed sessions keep their results.
func (s *ExamService) Delete(ctx context.Context, id uint) error {
	exam, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	var running int64
	if err := database.DB.WithContext(ctx).Model(&model.ExamSession{}).
		Where("exam_id = ? AND status = ?", id, model.SessionStarted).Count(&running).Error; err != nil {
		return err
	}
	if running > 0 {
		return apperr.Conflict("exam has sessions in progress")
	}

	return database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ExamSchedule{}).Where("exam_id = ?", id).Update("status", model.ScheduleCancelled).Error; err != nil {
			return err
		}
		return tx.Delete(exam).Error
	})
}

// Publish activates an exam that has at least one section with questions.
func (s *ExamService) Publish(ctx context.Context, id uint) (*model.Exam, error) {
	exam, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	ready := false
	for _, section := range exam.Sections {
		if section.TotalQuestions > 0 {
			ready = true
			break
		}
	}
	if !ready {
		return nil, apperr.Validation("exam needs at least one section with questions before it can be published")
	}
	if exam.TotalDuration <= 0 {
		return nil, apperr.Validation("exam duration must be greater than zero")
	}

	if err := database.DB.WithContext(ctx).Model(exam).Update("is_active", true).Error; err != nil {
		return nil, err
	}
	exam.IsActive = true
	return exam, nil
}

func (s *ExamService) Unpublish(ctx context.Context, id uint) (*model.Exam, error) {
	exam, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := database.DB.WithContext(ctx).Model(exam).Update("is_active", false).Error; err != nil {
		return nil, err
	}
	exam.IsActive = false
	return exam, nil
}

// recalcExam recomputes section and exam totals from the attached questions.
func recalcExam(tx *gorm.DB, examID uint) error {
	var exam model.Exam
	if err := tx.First(&exam, examID).Error; err != nil {
		return err
	}
	var sections []model.ExamSection
	if err := tx.Where("exam_id = ?", examID).Find(&sections).Error; err != nil {
		return err
	}

	var attached []model.ExamQuestion
	if err := tx.Preload("Question").Where("exam_id = ?", examID).Find(&attached).Error; err != nil {
		return err
	}

	byID := make(map[uint]*model.ExamSection, len(sections))
	for i := range sections {
		sections[i].TotalQuestions = 0
		sections[i].TotalMarks = 0
		byID[sections[i].ID] = &sections[i]
	}
	for _, eq := range attached {
		section, ok := byID[eq.ExamSectionID]
		if !ok || eq.Question == nil {
			continue
		}
		section.TotalQuestions++
		section.TotalMarks += examQuestionMarks(exam.Settings, section, eq.Question)
	}

	var questions int
	var marks float64
	var duration int
	for _, section := range sections {
		err := tx.Model(&model.ExamSection{}).Where("id = ?", section.ID).Updates(map[string]any{
			"total_questions": section.TotalQuestions,
			"total_marks":     section.TotalMarks,
		}).Error
		if err != nil {
			return err
		}
		questions += section.TotalQuestions
		marks += section.TotalMarks
		duration += section.Duration
	}
	totals := map[string]any{"total_questions": questions, "total_marks": marks}
	if exam.Settings.AutoDuration {
		totals["total_duration"] = duration
	} else {
		duration = exam.TotalDuration
	}
	if err := tx.Model(&model.Exam{}).Where("id = ?", examID).Updates(totals).Error; err != nil {
		return err
	}
	return syncFixedSchedules(tx, examID, duration)
}

// syncFixedSchedules moves the end of every fixed schedule to its start plus
// the exam duration.
func syncFixedSchedules(tx *gorm.DB, examID uint, duration int) error {
	var schedules []model.ExamSchedule
	if err := tx.Where("exam_id = ? AND schedule_type = ?", examID, model.ScheduleFixed).Find(&schedules).Error; err != nil {
		return err
	}
	for _, sc := range schedules {
		end := fixedScheduleEnd(sc.StartsAt, duration)
		if sc.EndsAt != nil && sc.EndsAt.Equal(end) {
			continue
		}
		if err := tx.Model(&model.ExamSchedule{}).Where("id = ?", sc.ID).Update("ends_at", end).Error; err != nil {
			return err
		}
	}
	return nil
}

func fixedScheduleEnd(startsAt time.Time, duration int) time.Time {
	return startsAt.Add(time.Duration(duration) * time.Minute)
}

// Sections

func (s *ExamService) section(ctx context.Context, examID, sectionID uint) (*model.ExamSection, error) {
	var section model.ExamSection
	err := database.DB.WithContext(ctx).Where("exam_id = ?", examID).First(&section, sectionID).Error
	if err != nil {
		return nil, notFound(err, "exam section")
	}
	return &section, nil
}

func (s *ExamService) ListSections(ctx context.Context, examID uint) ([]model.ExamSection, error) {
	exam, err := s.Get(ctx, examID)
	if err != nil {
		return nil, err
	}
	return exam.Sections, nil
}

func (s *ExamService) CreateSection(ctx context.Context, examID uint, req types.ExamSectionRequest) (*model.ExamSection, error) {
	if _, err := s.Get(ctx, examID); err != nil {
		return nil, err
	}
	if err := exists(ctx, &model.Section{}, req.SectionID, "section"); err != nil {
		return nil, err
	}

	section := &model.ExamSection{
		ExamID:              examID,
		SectionID:           req.SectionID,
		Name:                req.Name,
		DisplayOrder:        req.DisplayOrder,
		Duration:            req.Duration,
		CorrectMarks:        req.CorrectMarks,
		NegativeMarkingType: req.NegativeMarkingType,
		NegativeMarks:       req.NegativeMarks,
		SectionCutoff:       req.SectionCutoff,
	}
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(section).Error; err != nil {
			return err
		}
		return recalcExam(tx, examID)
	})
	if err != nil {
		return nil, err
	}
	return s.section(ctx, examID, section.ID)
}

func (s *ExamService) UpdateSection(ctx context.Context, examID, sectionID uint, req types.ExamSectionRequest) (*model.ExamSection, error) {
	if _, err := s.section(ctx, examID, sectionID); err != nil {
		return nil, err
	}
	if err := exists(ctx, &model.Section{}, req.SectionID, "section"); err != nil {
		return nil, err
	}

	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.ExamSection{}).Where("id = ?", sectionID).Updates(map[string]any{
			"section_id":            req.SectionID,
			"name":                  req.Name,
			"display_order":         req.DisplayOrder,
			"duration":              req.Duration,
			"correct_marks":         req.CorrectMarks,
			"negative_marking_type": req.NegativeMarkingType,
			"negative_marks":        req.NegativeMarks,
			"section_cutoff":        req.SectionCutoff,
		}).Error
		if err != nil {
			return err
		}
		return recalcExam(tx, examID)
	})
	if err != nil {
		return nil, err
	}
	return s.section(ctx, examID, sectionID)
}

// DeleteSection removes the section together with its attached questions.
func (s *ExamService) DeleteSection(ctx context.Context, examID, sectionID uint) error {
	section, err := s.section(ctx, examID, sectionID)
	if err != nil {
		return err
	}
	return database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("exam_section_id = ?", sectionID).Delete(&model.ExamQuestion{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(section).Error; err != nil {
			return err
		}
		return recalcExam(tx, examID)
	})
}

// Questions

func (s *ExamService) ListQuestions(ctx context.Context, examID, sectionID uint) ([]model.ExamQuestion, error) {
	if _, err := s.section(ctx, examID, sectionID); err != nil {
		return nil, err
	}
	questions := make([]model.ExamQuestion, 0)
	err := database.DB.WithContext(ctx).Preload("Question").
		Where("exam_id = ? AND exam_section_id = ?", examID, sectionID).
		Order("sort_order ASC, id ASC").
		Find(&questions).Error
	return questions, err
}

// AttachQuestions adds questions to a section. Questions already in the
// section are skipped; a question in another section of the same exam is a
// conflict.
func (s *ExamService) AttachQuestions(ctx context.Context, examID, sectionID uint, questionIDs []uint) (int, error) {
	if _, err := s.section(ctx, examID, sectionID); err != nil {
		return 0, err
	}
	questionIDs = uniqueIDs(questionIDs)

	var found int64
	if err := database.DB.WithContext(ctx).Model(&model.Question{}).Where("id IN ?", questionIDs).Count(&found).Error; err != nil {
		return 0, err
	}
	if int(found) != len(questionIDs) {
		return 0, apperr.Validation("one or more questions do not exist").WithField("question_ids", "one or more questions do not exist")
	}

	added := 0
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []model.ExamQuestion
		if err := tx.Where("exam_id = ? AND question_id IN ?", examID, questionIDs).Find(&existing).Error; err != nil {
			return err
		}
		attached := make(map[uint]bool, len(existing))
		for _, eq := range existing {
			if eq.ExamSectionID != sectionID {
				return apperr.Conflict("a question is already attached to another section of this exam")
			}
			attached[eq.QuestionID] = true
		}

		var maxOrder int
		if err := tx.Model(&model.ExamQuestion{}).Where("exam_section_id = ?", sectionID).
			Select("COALESCE(MAX(sort_order), 0)").Scan(&maxOrder).Error; err != nil {
			return err
		}

		for _, qid := range questionIDs {
			if attached[qid] {
				continue
			}
			maxOrder++
			eq := model.ExamQuestion{ExamID: examID, ExamSectionID: sectionID, QuestionID: qid, SortOrder: maxOrder}
			if err := tx.Create(&eq).Error; err != nil {
				return err
			}
			added++
		}
		return recalcExam(tx, examID)
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

func (s *ExamService) DetachQuestion(ctx context.Context, examID, sectionID, questionID uint) error {
	if _, err := s.section(ctx, examID, sectionID); err != nil {
		return err
	}
	return database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("exam_id = ? AND exam_section_id = ? AND question_id = ?", examID, sectionID, questionID).Delete(&model.ExamQuestion{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("question is not attached to this section")
		}
		return recalcExam(tx, examID)
	})
}

// Schedules

func (s *ExamService) ListSchedules(ctx context.Context, examID uint) ([]model.ExamSchedule, error) {
	schedules := make([]model.ExamSchedule, 0)
	err := database.DB.WithContext(ctx).Where("exam_id = ?", examID).Order("starts_at ASC").Find(&schedules).Error
	return schedules, err
}

// scheduleFields resolves the stored end and grace period. A fixed schedule
// ends one exam duration after it starts, whatever the request says.
func scheduleFields(req types.ScheduleRequest, duration int) (*time.Time, int, error) {
	endsAt := req.EndsAt
	grace := req.GracePeriod
	if req.ScheduleType == model.ScheduleFixed {
		end := fixedScheduleEnd(req.StartsAt, duration)
		endsAt = &end
		if grace == 0 {
			grace = defaultFixedGrace
		}
	} else if endsAt != nil && !endsAt.After(req.StartsAt) {
		return nil, 0, apperr.Validation("end must be after start").WithField("ends_at", "must be after starts_at")
	}
	return endsAt, grace, nil
}

func (s *ExamService) CreateSchedule(ctx context.Context, examID uint, req types.ScheduleRequest) (*model.ExamSchedule, error) {
	exam, err := s.Get(ctx, examID)
	if err != nil {
		return nil, err
	}
	endsAt, grace, err := scheduleFields(req, exam.TotalDuration)
	if err != nil {
		return nil, err
	}

	schedule := &model.ExamSchedule{
		Code:         newCode("sch"),
		ExamID:       examID,
		ScheduleType: req.ScheduleType,
		StartsAt:     req.StartsAt,
		EndsAt:       endsAt,
		GracePeriod:  grace,
		Status:       model.ScheduleActive,
	}
	if err := database.DB.WithContext(ctx).Create(schedule).Error; err != nil {
		return nil, err
	}
	return schedule, nil
}

func (s *ExamService) schedule(ctx context.Context, examID, scheduleID uint) (*model.ExamSchedule, error) {
	var schedule model.ExamSchedule
	if err := database.DB.WithContext(ctx).Where("exam_id = ?", examID).First(&schedule, scheduleID).Error; err != nil {
		return nil, notFound(err, "schedule")
	}
	return &schedule, nil
}

func (s *ExamService) UpdateSchedule(ctx context.Context, examID, scheduleID uint, req types.ScheduleRequest) (*model.ExamSchedule, error) {
	exam, err := s.Get(ctx, examID)
	if err != nil {
		return nil, err
	}
	schedule, err := s.schedule(ctx, examID, scheduleID)
	if err != nil {
		return nil, err
	}
	endsAt, grace, err := scheduleFields(req, exam.TotalDuration)
	if err != nil {
		return nil, err
	}
	err = database.DB.WithContext(ctx).Model(schedule).Updates(map[string]any{
		"schedule_type": req.ScheduleType,
		"starts_at":     req.StartsAt,
		"ends_at":       endsAt,
		"grace_period":  grace,
	}).Error
	if err != nil {
		return nil, err
	}
	return s.schedule(ctx, examID, scheduleID)
}

func (s *ExamService) CancelSchedule(ctx context.Context, examID, scheduleID uint) (*model.ExamSchedule, error) {
	schedule, err := s.schedule(ctx, examID, scheduleID)
	if err != nil {
		return nil, err
	}
	if err := database.DB.WithContext(ctx).Model(schedule).Update("status", model.ScheduleCancelled).Error; err != nil {
		return nil, err
	}
	schedule.Status = model.ScheduleCancelled
	return schedule, nil
}

func (s *ExamService) DeleteSchedule(ctx context.Context, examID, scheduleID uint) error {
	schedule, err := s.schedule(ctx, examID, scheduleID)
	if err != nil {
		return err
	}
	var used int64
	if err := database.DB.WithContext(ctx).Model(&model.ExamSession{}).Where("exam_schedule_id = ?", scheduleID).Count(&used).Error; err != nil {
		return err
	}
	if used > 0 {
		return apperr.Conflict("schedule has sessions, cancel it instead")
	}
	return database.DB.WithContext(ctx).Delete(schedule).Error
}

// Student side

// ListPublished returns active, public exams of a sub-category.
func (s *ExamService) ListPublished(ctx context.Context, subCategoryID uint, q types.PageQuery) ([]model.Exam, int64, error) {
	db := database.DB.WithContext(ctx).Model(&model.Exam{}).
		Where("sub_category_id = ? AND is_active = ? AND is_private = ?", subCategoryID, true, false)
	if q.Search != "" {
		db = db.Where("title LIKE ?", like(q.Search))
	}
	return paginate[model.Exam](db, q, "id DESC")
}

// BySlug loads an active exam with its sections.
func (s *ExamService) BySlug(ctx context.Context, slug string) (*model.Exam, error) {
	var exam model.Exam
	err := database.DB.WithContext(ctx).
		Preload("Sections", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC, id ASC") }).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&exam).Error
	if err != nil {
		return nil, notFound(err, "exam")
	}
	return &exam, nil
}

// Detail tells a student whether and how they can start the exam.
func (s *ExamService) Detail(ctx context.Context, userID uint, slug string) (*ExamDetail, error) {
	exam, err := s.BySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	detail := &ExamDetail{Exam: exam, Schedules: []model.ExamSchedule{}}
	if detail.HasAccess, err = Subscription.CanUse(ctx, userID, exam.IsPaid, exam.SubCategoryID, model.FeatureExams); err != nil {
		return nil, err
	}

	db := database.DB.WithContext(ctx)
	if err := db.Model(&model.ExamSession{}).
		Where("user_id = ? AND exam_id = ? AND status = ?", userID, exam.ID, model.SessionCompleted).
		Count(&detail.AttemptsUsed).Error; err != nil {
		return nil, err
	}
	if exam.Settings.RestrictAttempts {
		detail.AttemptsAllowed = exam.Settings.NoOfAttempts
	}

	if err := db.Where("exam_id = ? AND status = ?", exam.ID, model.ScheduleActive).
		Order("starts_at ASC").Find(&detail.Schedules).Error; err != nil {
		return nil, err
	}
	for i := range detail.Schedules {
		if detail.Schedules[i].Open(now) {
			detail.OpenScheduleID = &detail.Schedules[i].ID
			break
		}
	}

	var active model.ExamSession
	err = db.Where("user_id = ? AND exam_id = ? AND status = ? AND ends_at > ?", userID, exam.ID, model.SessionStarted, now).
		First(&active).Error
	if err == nil {
		detail.ActiveSession = active.Code
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return detail, nil
}
