package service

import (
	"context"
	"errors"
	"math"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"qwiktest/internal/model"
	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/database"
	"qwiktest/internal/types"
)

var Quiz = &QuizService{clock: clockwork.NewRealClock()}

type QuizService struct {
	clock clockwork.Clock
}

type QuizDetail struct {
	Quiz            *model.Quiz `json:"quiz"`
	HasAccess       bool        `json:"has_access"`
	AttemptsUsed    int64       `json:"attempts_used"`
	AttemptsAllowed int         `json:"attempts_allowed"`
	ActiveSession   string      `json:"active_session,omitempty"`
}

func quizQuestionMarks(settings model.QuizSettings, q *model.Question) float64 {
	if settings.MarksMode == model.ModeManual && settings.CorrectMarks > 0 {
		return settings.CorrectMarks
	}
	return q.DefaultMarks
}

func (s *QuizService) List(ctx context.Context, q types.ExamQuery) ([]model.Quiz, int64, error) {
	db := database.DB.WithContext(ctx).Model(&model.Quiz{}).Preload("SubCategory")
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
	return paginate[model.Quiz](db, q.PageQuery, "id DESC")
}

func (s *QuizService) Get(ctx context.Context, id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := database.DB.WithContext(ctx).Preload("SubCategory").First(&quiz, id).Error; err != nil {
		return nil, notFound(err, "quiz")
	}
	return &quiz, nil
}

func (s *QuizService) Create(ctx context.Context, req types.QuizRequest) (*model.Quiz, error) {
	if err := exists(ctx, &model.SubCategory{}, req.SubCategoryID, "sub-category"); err != nil {
		return nil, err
	}
	slug, err := uniqueSlug(database.DB.WithContext(ctx), &model.Quiz{}, req.Slug, req.Title, 0)
	if err != nil {
		return nil, err
	}

	quiz := &model.Quiz{
		Code:          newCode("qiz"),
		Title:         req.Title,
		Slug:          slug,
		SubCategoryID: req.SubCategoryID,
		QuizType:      req.QuizType,
		Description:   req.Description,
		IsPaid:        req.IsPaid,
		Price:         req.Price,
		Settings:      model.DefaultQuizSettings(),
		IsPrivate:     req.IsPrivate,
	}
	if err := database.DB.WithContext(ctx).Create(quiz).Error; err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) Update(ctx context.Context, id uint, req types.QuizRequest) (*model.Quiz, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := exists(ctx, &model.SubCategory{}, req.SubCategoryID, "sub-category"); err != nil {
		return nil, err
	}
	slug, err := uniqueSlug(database.DB.WithContext(ctx), &model.Quiz{}, req.Slug, req.Title, id)
	if err != nil {
		return nil, err
	}

	err = database.DB.WithContext(ctx).Model(&model.Quiz{}).Where("id = ?", id).Updates(map[string]any{
		"title":           req.Title,
		"slug":            slug,
		"sub_category_id": req.SubCategoryID,
		"quiz_type":       req.QuizType,
		"description":     req.Description,
		"is_paid":         req.IsPaid,
		"price":           req.Price,
		"is_private":      req.IsPrivate,
	}).Error
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *QuizService) UpdateSettings(ctx context.Context, id uint, req types.QuizSettingsRequest) (*model.Quiz, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if req.DurationMode == model.ModeManual && req.Duration < 1 {
		return nil, apperr.Validation("duration is required").WithField("duration", "must be at least 1 minute in manual mode")
	}
	if req.MarksMode == model.ModeManual && req.CorrectMarks <= 0 {
		return nil, apperr.Validation("correct marks are required").WithField("correct_marks", "must be greater than zero in manual mode")
	}
	if req.RestrictAttempts && req.NoOfAttempts < 1 {
		return nil, apperr.Validation("number of attempts is required").WithField("no_of_attempts", "must be at least 1 when attempts are restricted")
	}

	settings := model.QuizSettings(req)
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Quiz{}).Where("id = ?", id).Update("settings", settings).Error; err != nil {
			return err
		}
		return recalcQuiz(tx, id)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *QuizService) Delete(ctx context.Context, id uint) error {
	quiz, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	var running int64
	if err := database.DB.WithContext(ctx).Model(&model.QuizSession{}).
		Where("quiz_id = ? AND status = ?", id, model.SessionStarted).Count(&running).Error; err != nil {
		return err
	}
	if running > 0 {
		return apperr.Conflict("quiz has sessions in progress")
	}
	return database.DB.WithContext(ctx).Delete(quiz).Error
}

func (s *QuizService) Publish(ctx context.Context, id uint) (*model.Quiz, error) {
	quiz, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if quiz.TotalQuestions == 0 {
		return nil, apperr.Validation("quiz needs at least one question before it can be published")
	}
	if quiz.TotalDuration <= 0 {
		return nil, apperr.Validation("quiz duration must be greater than zero")
	}
	if err := database.DB.WithContext(ctx).Model(quiz).Update("is_active", true).Error; err != nil {
		return nil, err
	}
	quiz.IsActive = true
	return quiz, nil
}

func (s *QuizService) Unpublish(ctx context.Context, id uint) (*model.Quiz, error) {
	quiz, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := database.DB.WithContext(ctx).Model(quiz).Update("is_active", false).Error; err != nil {
		return nil, err
	}
	quiz.IsActive = false
	return quiz, nil
}

// recalcQuiz recomputes quiz totals. In auto duration mode the duration is
// the sum of question default times rounded up to whole minutes.
func recalcQuiz(tx *gorm.DB, quizID uint) error {
	var quiz model.Quiz
	if err := tx.First(&quiz, quizID).Error; err != nil {
		return err
	}
	var attached []model.QuizQuestion
	if err := tx.Preload("Question").Where("quiz_id = ?", quizID).Find(&attached).Error; err != nil {
		return err
	}

	var questions, seconds int
	var marks float64
	for _, qq := range attached {
		if qq.Question == nil {
			continue
		}
		questions++
		marks += quizQuestionMarks(quiz.Settings, qq.Question)
		seconds += qq.Question.DefaultTime
	}

	duration := quiz.Settings.Duration
	if quiz.Settings.DurationMode != model.ModeManual {
		duration = int(math.Ceil(float64(seconds) / 60))
	}
	return tx.Model(&model.Quiz{}).Where("id = ?", quizID).Updates(map[string]any{
		"total_questions": questions,
		"total_marks":     marks,
		"total_duration":  duration,
	}).Error
}

func (s *QuizService) ListQuestions(ctx context.Context, quizID uint) ([]model.QuizQuestion, error) {
	if _, err := s.Get(ctx, quizID); err != nil {
		return nil, err
	}
	questions := make([]model.QuizQuestion, 0)
	err := database.DB.WithContext(ctx).Preload("Question").
		Where("quiz_id = ?", quizID).
		Order("sort_order ASC, id ASC").
		Find(&questions).Error
	return questions, err
}

// AttachQuestions adds questions to the quiz, skipping those already attached.
func (s *QuizService) AttachQuestions(ctx context.Context, quizID uint, questionIDs []uint) (int, error) {
	if _, err := s.Get(ctx, quizID); err != nil {
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
		var existing []model.QuizQuestion
		if err := tx.Where("quiz_id = ? AND question_id IN ?", quizID, questionIDs).Find(&existing).Error; err != nil {
			return err
		}
		attached := make(map[uint]bool, len(existing))
		for _, qq := range existing {
			attached[qq.QuestionID] = true
		}

		var maxOrder int
		if err := tx.Model(&model.QuizQuestion{}).Where("quiz_id = ?", quizID).
			Select("COALESCE(MAX(sort_order), 0)").Scan(&maxOrder).Error; err != nil {
			return err
		}

		for _, qid := range questionIDs {
			if attached[qid] {
				continue
			}
			maxOrder++
			if err := tx.Create(&model.QuizQuestion{QuizID: quizID, QuestionID: qid, SortOrder: maxOrder}).Error; err != nil {
				return err
			}
			added++
		}
		return recalcQuiz(tx, quizID)
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

func (s *QuizService) DetachQuestion(ctx context.Context, quizID, questionID uint) error {
	if _, err := s.Get(ctx, quizID); err != nil {
		return err
	}
	return database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("quiz_id = ? AND question_id = ?", quizID, questionID).Delete(&model.QuizQuestion{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("question is not attached to this quiz")
		}
		return recalcQuiz(tx, quizID)
	})
}

// Student side

func (s *QuizService) ListPublished(ctx context.Context, subCategoryID uint, q types.PageQuery) ([]model.Quiz, int64, error) {
	db := database.DB.WithContext(ctx).Model(&model.Quiz{}).
		Where("sub_category_id = ? AND is_active = ? AND is_private = ?", subCategoryID, true, false)
	if q.Search != "" {
		db = db.Where("title LIKE ?", like(q.Search))
	}
	return paginate[model.Quiz](db, q, "id DESC")
}

func (s *QuizService) BySlug(ctx context.Context, slug string) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := database.DB.WithContext(ctx).Where("slug = ? AND is_active = ?", slug, true).First(&quiz).Error; err != nil {
		return nil, notFound(err, "quiz")
	}
	return &quiz, nil
}

func (s *QuizService) Detail(ctx context.Context, userID uint, slug string) (*QuizDetail, error) {
	quiz, err := s.BySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	detail := &QuizDetail{Quiz: quiz}
	if detail.HasAccess, err = Subscription.CanUse(ctx, userID, quiz.IsPaid, quiz.SubCategoryID, model.FeatureQuizzes); err != nil {
		return nil, err
	}

	db := database.DB.WithContext(ctx)
	if err := db.Model(&model.QuizSession{}).
		Where("user_id = ? AND quiz_id = ? AND status = ?", userID, quiz.ID, model.SessionCompleted).
		Count(&detail.AttemptsUsed).Error; err != nil {
		return nil, err
	}
	if quiz.Settings.RestrictAttempts {
		detail.AttemptsAllowed = quiz.Settings.NoOfAttempts
	}

	var active model.QuizSession
	err = db.Where("user_id = ? AND quiz_id = ? AND status = ? AND ends_at > ?", userID, quiz.ID, model.SessionStarted, s.clock.Now()).
		First(&active).Error
	if err == nil {
		detail.ActiveSession = active.Code
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return detail, nil
}
