package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"qwiktest/internal/model"
	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/cache"
	"qwiktest/internal/pkg/database"
	"qwiktest/internal/pkg/logger"
	"qwiktest/internal/pkg/metrics"
	"qwiktest/internal/pkg/scoring"
	"qwiktest/internal/types"
)

var QuizSession = &QuizSessionService{clock: clockwork.NewRealClock()}

type QuizSessionService struct {
	clock clockwork.Clock
}

func quizLeaderboardKey(quizID uint) string {
	return fmt.Sprintf("leaderboard:quiz:%d", quizID)
}

// Start opens an attempt or resumes the student's running one.
func (s *QuizSessionService) Start(ctx context.Context, userID uint, slug string) (*model.QuizSession, error) {
	quiz, err := Quiz.BySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	ok, err := Subscription.CanUse(ctx, userID, quiz.IsPaid, quiz.SubCategoryID, model.FeatureQuizzes)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Forbidden("an active subscription is required for this quiz")
	}

	now := s.clock.Now()
	db := database.DB.WithContext(ctx)

	var running model.QuizSession
	err = db.Where("user_id = ? AND quiz_id = ? AND status = ?", userID, quiz.ID, model.SessionStarted).
		Order("id DESC").First(&running).Error
	switch {
	case err == nil && now.Before(running.EndsAt):
		return &running, nil
	case err == nil:
		if err := s.finish(ctx, running.ID, "timeout"); err != nil {
			return nil, err
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	if quiz.Settings.RestrictAttempts && quiz.Settings.NoOfAttempts > 0 {
		var used int64
		if err := db.Model(&model.QuizSession{}).
			Where("user_id = ? AND quiz_id = ? AND status = ?", userID, quiz.ID, model.SessionCompleted).
			Count(&used).Error; err != nil {
			return nil, err
		}
		if used >= int64(quiz.Settings.NoOfAttempts) {
			return nil, apperr.Forbidden("you have used all attempts for this quiz")
		}
	}

	var links []model.QuizQuestion
	if err := db.Preload("Question").Where("quiz_id = ?", quiz.ID).
		Order("sort_order ASC, id ASC").Find(&links).Error; err != nil {
		return nil, err
	}
	present := links[:0]
	for _, l := range links {
		if l.Question != nil {
			present = append(present, l)
		}
	}
	if len(present) == 0 {
		return nil, apperr.Conflict("quiz has no questions")
	}

	session := &model.QuizSession{
		Code:     newSessionCode(),
		UserID:   userID,
		QuizID:   quiz.ID,
		Status:   model.SessionStarted,
		StartsAt: now,
		EndsAt:   now.Add(time.Duration(quiz.TotalDuration) * time.Minute),
	}
	if quiz.Settings.ShuffleQuestions {
		shuffle(present, sessionSeed(session.Code))
	}
	rows := make([]model.QuizSessionQuestion, len(present))
	for i, l := range present {
		rows[i] = model.QuizSessionQuestion{
			QuestionID: l.QuestionID,
			SNo:        i + 1,
			Marks:      quizQuestionMarks(quiz.Settings, l.Question),
			Status:     model.QuestionNotVisited,
		}
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		for i := range rows {
			rows[i].QuizSessionID = session.ID
		}
		return tx.CreateInBatches(rows, 100).Error
	})
	if err != nil {
		return nil, err
	}

	metrics.SessionsStarted.WithLabelValues("quiz").Inc()
	return session, nil
}

func (s *QuizSessionService) session(ctx context.Context, userID uint, code string) (*model.QuizSession, error) {
	var session model.QuizSession
	err := database.DB.WithContext(ctx).
		Preload("Quiz", withDeleted).
		Where("code = ? AND user_id = ?", code, userID).
		First(&session).Error
	if err != nil {
		return nil, notFound(err, "quiz session")
	}
	return &session, nil
}

func (s *QuizSessionService) questions(ctx context.Context, sessionID uint) ([]model.QuizSessionQuestion, error) {
	var rows []model.QuizSessionQuestion
	err := database.DB.WithContext(ctx).Preload("Question", withDeleted).
		Where("quiz_session_id = ?", sessionID).Order("sno ASC").Find(&rows).Error
	return rows, err
}

func (s *QuizSessionService) Questions(ctx context.Context, userID uint, code string) (*SessionView, error) {
	session, err := s.session(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionCompleted {
		return nil, apperr.Conflict("quiz session is already completed")
	}
	rows, err := s.questions(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	seed := sessionSeed(session.Code)
	view := &SessionView{
		Code:             session.Code,
		Title:            session.Quiz.Title,
		Status:           session.Status,
		StartsAt:         session.StartsAt,
		EndsAt:           session.EndsAt,
		RemainingSeconds: remaining(s.clock.Now(), session.EndsAt),
		Settings:         session.Quiz.Settings,
		Questions:        make([]types.SessionQuestion, 0, len(rows)),
	}
	for _, r := range rows {
		if r.Question == nil {
			continue
		}
		view.Questions = append(view.Questions,
			presentQuestion(r.ID, r.SNo, 0, r.Question, r.Marks, r.Status, r.UserAnswer, r.TimeTaken, seed))
	}
	return view, nil
}

func (s *QuizSessionService) Answer(ctx context.Context, userID uint, code string, questionID uint, req types.AnswerRequest) (*types.SessionQuestion, error) {
	session, err := s.session(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionCompleted {
		return nil, apperr.Conflict("quiz session is already completed")
	}
	if !s.clock.Now().Before(session.EndsAt) {
		return nil, apperr.Conflict("quiz session has ended")
	}
	answer, err := checkAnswer(req)
	if err != nil {
		return nil, err
	}

	var row model.QuizSessionQuestion
	err = database.DB.WithContext(ctx).Preload("Question", withDeleted).
		Where("id = ? AND quiz_session_id = ?", questionID, session.ID).First(&row).Error
	if err != nil {
		return nil, notFound(err, "session question")
	}

	err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&row).Select("status", "user_answer", "time_taken").Updates(model.QuizSessionQuestion{
			Status:     req.Status,
			UserAnswer: answer,
			TimeTaken:  req.TimeTaken,
		}).Error; err != nil {
			return err
		}
		var total int
		if err := tx.Model(&model.QuizSessionQuestion{}).Where("quiz_session_id = ?", session.ID).
			Select("COALESCE(SUM(time_taken), 0)").Scan(&total).Error; err != nil {
			return err
		}
		return tx.Model(session).Update("total_time_taken", total).Error
	})
	if err != nil {
		return nil, err
	}

	row.Status, row.UserAnswer, row.TimeTaken = req.Status, answer, req.TimeTaken
	out := presentQuestion(row.ID, row.SNo, 0, row.Question, row.Marks, row.Status, row.UserAnswer, row.TimeTaken, sessionSeed(session.Code))
	return &out, nil
}

func (s *QuizSessionService) Finish(ctx context.Context, userID uint, code string) (*SessionResults, error) {
	session, err := s.session(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionStarted {
		if session.Quiz.Settings.DisableFinishButton && s.clock.Now().Before(session.EndsAt) {
			return nil, apperr.Forbidden("this quiz cannot be finished before the time is up")
		}
		if err := s.finish(ctx, session.ID, "manual"); err != nil {
			return nil, err
		}
	}
	return s.Results(ctx, userID, code)
}

func (s *QuizSessionService) finish(ctx context.Context, sessionID uint, trigger string) error {
	now := s.clock.Now()
	var session model.QuizSession
	finished := false

	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Quiz", withDeleted).First(&session, sessionID).Error; err != nil {
			return notFound(err, "quiz session")
		}
		if session.Status == model.SessionCompleted {
			return nil
		}

		var rows []model.QuizSessionQuestion
		if err := tx.Preload("Question", withDeleted).Where("quiz_session_id = ?", session.ID).
			Order("sno ASC").Find(&rows).Error; err != nil {
			return err
		}

		settings := session.Quiz.Settings
		marking := scoring.MarkingSettings{
			NegativeMarking:     settings.NegativeMarking,
			NegativeMarkingType: settings.NegativeMarkingType,
			NegativeMarks:       settings.NegativeMarks,
		}
		items := make([]scoring.Item, 0, len(rows))
		for _, r := range rows {
			item := grade(r.Question, r.UserAnswer, r.Marks, marking)
			items = append(items, item)
			if err := tx.Model(&model.QuizSessionQuestion{}).Where("id = ?", r.ID).Updates(map[string]any{
				"is_correct":     item.Correct,
				"marks_earned":   item.Earned,
				"marks_deducted": item.Deducted,
			}).Error; err != nil {
				return err
			}
		}

		timeTaken := elapsed(session.StartsAt, session.EndsAt, now)
		result := scoring.Summarize(items, nil, scoring.Settings{PassPercentage: settings.PassPercentage}, timeTaken)

		res := tx.Model(&model.QuizSession{}).
			Where("id = ? AND status = ?", session.ID, model.SessionStarted).
			Select("status", "completed_at", "total_time_taken", "score", "percentage", "passed", "results").
			Updates(model.QuizSession{
				Status:         model.SessionCompleted,
				CompletedAt:    &now,
				TotalTimeTaken: timeTaken,
				Score:          result.Score,
				Percentage:     result.Percentage,
				Passed:         result.Passed,
				Results:        &result,
			})
		if res.Error != nil {
			return res.Error
		}
		finished = res.RowsAffected == 1
		return nil
	})
	if err != nil || !finished {
		return err
	}

	metrics.SessionsCompleted.WithLabelValues("quiz", trigger).Inc()
	cache.Default.Forget(ctx, quizLeaderboardKey(session.QuizID))
	return nil
}

func (s *QuizSessionService) Results(ctx context.Context, userID uint, code string) (*SessionResults, error) {
	session, err := s.session(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionCompleted {
		return nil, apperr.Conflict("quiz session is not completed")
	}

	var others []float64
	if err := database.DB.WithContext(ctx).Model(&model.QuizSession{}).
		Where("quiz_id = ? AND status = ? AND id <> ?", session.QuizID, model.SessionCompleted, session.ID).
		Pluck("score", &others).Error; err != nil {
		return nil, err
	}

	return &SessionResults{
		Code:        session.Code,
		Title:       session.Quiz.Title,
		StartsAt:    session.StartsAt,
		CompletedAt: session.CompletedAt,
		Result:      session.Results,
		Percentile:  scoring.Percentile(session.Score, others),
	}, nil
}

func (s *QuizSessionService) Solutions(ctx context.Context, userID uint, code string) ([]types.SessionQuestion, error) {
	session, err := s.session(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionCompleted {
		return nil, apperr.Conflict("quiz session is not completed")
	}
	if session.Quiz.Settings.HideSolutions {
		return nil, apperr.Forbidden("solutions are hidden for this quiz")
	}

	rows, err := s.questions(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	seed := sessionSeed(session.Code)
	out := make([]types.SessionQuestion, 0, len(rows))
	for _, r := range rows {
		if r.Question == nil {
			continue
		}
		q := presentQuestion(r.ID, r.SNo, 0, r.Question, r.Marks, r.Status, r.UserAnswer, r.TimeTaken, seed)
		q.Solution = solutionOf(r.Question, r.IsCorrect, r.MarksEarned, r.MarksDeducted)
		out = append(out, q)
	}
	return out, nil
}

func (s *QuizSessionService) Leaderboard(ctx context.Context, slug string) ([]types.LeaderboardEntry, error) {
	quiz, err := Quiz.BySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !quiz.Settings.ShowLeaderboard {
		return nil, apperr.Forbidden("leaderboard is not available for this quiz")
	}

	return cache.Remember(ctx, cache.Default, quizLeaderboardKey(quiz.ID), leaderboardTTL, func() ([]types.LeaderboardEntry, error) {
		var sessions []model.QuizSession
		if err := database.DB.WithContext(ctx).Preload("User").
			Select("id", "user_id", "score", "total_time_taken").
			Where("quiz_id = ? AND status = ?", quiz.ID, model.SessionCompleted).
			Find(&sessions).Error; err != nil {
			return nil, err
		}
		attempts := make([]attempt, len(sessions))
		for i, sess := range sessions {
			attempts[i] = attempt{UserID: sess.UserID, Score: sess.Score, TimeTaken: sess.TotalTimeTaken, User: sess.User}
		}
		return rankAttempts(attempts, leaderboardSize), nil
	})
}

func (s *QuizSessionService) UserSessions(ctx context.Context, userID uint, q types.PageQuery) ([]model.QuizSession, int64, error) {
	db := database.DB.WithContext(ctx).Model(&model.QuizSession{}).
		Preload("Quiz", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped().Select("id", "code", "title", "slug", "sub_category_id", "total_marks")
		}).
		Omit("results").
		Where("user_id = ?", userID)
	return paginate[model.QuizSession](db, q, "id DESC")
}

func (s *QuizSessionService) FinishExpired(ctx context.Context) (int, error) {
	var ids []uint
	if err := database.DB.WithContext(ctx).Model(&model.QuizSession{}).
		Where("status = ? AND ends_at < ?", model.SessionStarted, s.clock.Now().Add(-autoFinishGrace)).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}

	done := 0
	for _, id := range ids {
		if err := s.finish(ctx, id, "timeout"); err != nil {
			logger.Errorf("auto finish quiz session %d: %v", id, err)
			continue
		}
		done++
	}
	return done, nil
}
