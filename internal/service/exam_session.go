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

var ExamSession = &ExamSessionService{clock: clockwork.NewRealClock()}

type ExamSessionService struct {
	clock clockwork.Clock
}

func examLeaderboardKey(examID uint) string {
	return fmt.Sprintf("leaderboard:exam:%d", examID)
}

// pickSchedule returns the schedule a session starts under. Exams without
// active schedules can be taken at any time.
func (s *ExamSessionService) pickSchedule(ctx context.Context, examID uint, requested *uint, now time.Time) (*model.ExamSchedule, error) {
	var schedules []model.ExamSchedule
	if err := database.DB.WithContext(ctx).
		Where("exam_id = ? AND status = ?", examID, model.ScheduleActive).
		Order("starts_at ASC").Find(&schedules).Error; err != nil {
		return nil, err
	}
	if len(schedules) == 0 {
		if requested != nil {
			return nil, apperr.NotFound("schedule not found")
		}
		return nil, nil
	}

	for i := range schedules {
		sc := &schedules[i]
		if requested != nil && sc.ID != *requested {
			continue
		}
		if sc.Open(now) {
			return sc, nil
		}
		if requested != nil {
			return nil, apperr.Forbidden("the exam schedule is not open")
		}
	}
	if requested != nil {
		return nil, apperr.NotFound("schedule not found")
	}
	return nil, apperr.Forbidden("the exam is not open right now")
}

// Start opens an attempt or resumes the student's running one.
func (s *ExamSessionService) Start(ctx context.Context, userID uint, slug string, req types.StartExamRequest) (*model.ExamSession, error) {
	exam, err := Exam.BySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	ok, err := Subscription.CanUse(ctx, userID, exam.IsPaid, exam.SubCategoryID, model.FeatureExams)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Forbidden("an active subscription is required for this exam")
	}

	now := s.clock.Now()
	db := database.DB.WithContext(ctx)

	var running model.ExamSession
	err = db.Where("user_id = ? AND exam_id = ? AND status = ?", userID, exam.ID, model.SessionStarted).
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

	schedule, err := s.pickSchedule(ctx, exam.ID, req.ScheduleID, now)
	if err != nil {
		return nil, err
	}

	if exam.Settings.RestrictAttempts && exam.Settings.NoOfAttempts > 0 {
		var used int64
		if err := db.Model(&model.ExamSession{}).
			Where("user_id = ? AND exam_id = ? AND status = ?", userID, exam.ID, model.SessionCompleted).
			Count(&used).Error; err != nil {
			return nil, err
		}
		if used >= int64(exam.Settings.NoOfAttempts) {
			return nil, apperr.Forbidden("you have used all attempts for this exam")
		}
	}

	var links []model.ExamQuestion
	if err := db.Preload("Question").Where("exam_id = ?", exam.ID).
		Order("sort_order ASC, id ASC").Find(&links).Error; err != nil {
		return nil, err
	}
	bySection := make(map[uint][]model.ExamQuestion)
	for _, l := range links {
		if l.Question != nil {
			bySection[l.ExamSectionID] = append(bySection[l.ExamSectionID], l)
		}
	}

	session := &model.ExamSession{
		Code:     newSessionCode(),
		UserID:   userID,
		ExamID:   exam.ID,
		Status:   model.SessionStarted,
		StartsAt: now,
		EndsAt:   now.Add(time.Duration(exam.TotalDuration) * time.Minute),
	}
	if schedule != nil {
		session.ExamScheduleID = &schedule.ID
		switch {
		// Late arrivals to a fixed schedule lose the time they missed.
		case schedule.ScheduleType == model.ScheduleFixed:
			session.EndsAt = schedule.StartsAt.Add(time.Duration(exam.TotalDuration) * time.Minute)
		case schedule.EndsAt != nil:
			closes := schedule.EndsAt.Add(time.Duration(schedule.GracePeriod) * time.Minute)
			if closes.Before(session.EndsAt) {
				session.EndsAt = closes
			}
		}
	}
	if !session.EndsAt.After(now) {
		return nil, apperr.Forbidden("there is no time left to take this exam")
	}

	seed := sessionSeed(session.Code)
	var rows []model.ExamSessionQuestion
	for i := range exam.Sections {
		section := &exam.Sections[i]
		qs := bySection[section.ID]
		if len(qs) == 0 {
			continue
		}
		if session.CurrentSection == 0 {
			session.CurrentSection = section.ID
		}
		if exam.Settings.ShuffleQuestions {
			shuffle(qs, seed+int64(section.ID))
		}
		for _, l := range qs {
			rows = append(rows, model.ExamSessionQuestion{
				ExamSectionID: section.ID,
				QuestionID:    l.QuestionID,
				SNo:           len(rows) + 1,
				Marks:         examQuestionMarks(exam.Settings, section, l.Question),
				Status:        model.QuestionNotVisited,
			})
		}
	}
	if len(rows) == 0 {
		return nil, apperr.Conflict("exam has no questions")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		for i := range rows {
			rows[i].ExamSessionID = session.ID
		}
		return tx.CreateInBatches(rows, 100).Error
	})
	if err != nil {
		return nil, err
	}

	metrics.SessionsStarted.WithLabelValues("exam").Inc()
	return session, nil
}

func (s *ExamSessionService) session(ctx context.Context, userID uint, code string) (*model.ExamSession, error) {
	var session model.ExamSession
	err := database.DB.WithContext(ctx).
		Preload("Exam", withDeleted).
		Where("code = ? AND user_id = ?", code, userID).
		First(&session).Error
	if err != nil {
		return nil, notFound(err, "exam session")
	}
	return &session, nil
}

func (s *ExamSessionService) questions(ctx context.Context, sessionID uint) ([]model.ExamSessionQuestion, error) {
	var rows []model.ExamSessionQuestion
	err := database.DB.WithContext(ctx).Preload("Question", withDeleted).
		Where("exam_session_id = ?", sessionID).Order("sno ASC").Find(&rows).Error
	return rows, err
}

// Questions returns the running session without correct answers.
func (s *ExamSessionService) Questions(ctx context.Context, userID uint, code string) (*SessionView, error) {
	session, err := s.session(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionCompleted {
		return nil, apperr.Conflict("exam session is already completed")
	}
	rows, err := s.questions(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	var sections []model.ExamSection
	if err := database.DB.WithContext(ctx).Unscoped().
		Where("exam_id = ? AND id IN (?)", session.ExamID,
			database.DB.Model(&model.ExamSessionQuestion{}).Select("exam_section_id").Where("exam_session_id = ?", session.ID)).
		Order("display_order ASC, id ASC").Find(&sections).Error; err != nil {
		return nil, err
	}

	seed := sessionSeed(session.Code)
	view := &SessionView{
		Code:             session.Code,
		Title:            session.Exam.Title,
		Status:           session.Status,
		StartsAt:         session.StartsAt,
		EndsAt:           session.EndsAt,
		RemainingSeconds: remaining(s.clock.Now(), session.EndsAt),
		CurrentSection:   session.CurrentSection,
		Sections:         sections,
		Settings:         session.Exam.Settings,
		Questions:        make([]types.SessionQuestion, 0, len(rows)),
	}
	for _, r := range rows {
		if r.Question == nil {
			continue
		}
		view.Questions = append(view.Questions,
			presentQuestion(r.ID, r.SNo, r.ExamSectionID, r.Question, r.Marks, r.Status, r.UserAnswer, r.TimeTaken, seed))
	}
	return view, nil
}

// Answer stores the student's state for one session question.
func (s *ExamSessionService) Answer(ctx context.Context, userID uint, code string, questionID uint, req types.AnswerRequest) (*types.SessionQuestion, error) {
	session, err := s.session(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionCompleted {
		return nil, apperr.Conflict("exam session is already completed")
	}
	if !s.clock.Now().Before(session.EndsAt) {
		return nil, apperr.Conflict("exam session has ended")
	}
	answer, err := checkAnswer(req)
	if err != nil {
		return nil, err
	}

	var row model.ExamSessionQuestion
	err = database.DB.WithContext(ctx).Preload("Question", withDeleted).
		Where("id = ? AND exam_session_id = ?", questionID, session.ID).First(&row).Error
	if err != nil {
		return nil, notFound(err, "session question")
	}

	err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&row).Select("status", "user_answer", "time_taken").Updates(model.ExamSessionQuestion{
			Status:     req.Status,
			UserAnswer: answer,
			TimeTaken:  req.TimeTaken,
		}).Error; err != nil {
			return err
		}

		var total int
		if err := tx.Model(&model.ExamSessionQuestion{}).Where("exam_session_id = ?", session.ID).
			Select("COALESCE(SUM(time_taken), 0)").Scan(&total).Error; err != nil {
			return err
		}
		return tx.Model(session).Updates(map[string]any{
			"total_time_taken": total,
			"current_section":  row.ExamSectionID,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	row.Status, row.UserAnswer, row.TimeTaken = req.Status, answer, req.TimeTaken
	out := presentQuestion(row.ID, row.SNo, row.ExamSectionID, row.Question, row.Marks, row.Status, row.UserAnswer, row.TimeTaken, sessionSeed(session.Code))
	return &out, nil
}

// Finish grades the session. Finishing a completed session returns its
// stored results.
func (s *ExamSessionService) Finish(ctx context.Context, userID uint, code string) (*SessionResults, error) {
	session, err := s.session(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionStarted {
		if session.Exam.Settings.DisableFinishButton && s.clock.Now().Before(session.EndsAt) {
			return nil, apperr.Forbidden("this exam cannot be finished before the time is up")
		}
		if err := s.finish(ctx, session.ID, "manual"); err != nil {
			return nil, err
		}
	}
	return s.Results(ctx, userID, code)
}

func (s *ExamSessionService) finish(ctx context.Context, sessionID uint, trigger string) error {
	now := s.clock.Now()
	var session model.ExamSession
	finished := false

	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Exam", withDeleted).First(&session, sessionID).Error; err != nil {
			return notFound(err, "exam session")
		}
		if session.Status == model.SessionCompleted {
			return nil
		}

		var rows []model.ExamSessionQuestion
		if err := tx.Preload("Question", withDeleted).Where("exam_session_id = ?", session.ID).
			Order("sno ASC").Find(&rows).Error; err != nil {
			return err
		}
		var sections []model.ExamSection
		if err := tx.Unscoped().Where("exam_id = ?", session.ExamID).
			Order("display_order ASC, id ASC").Find(&sections).Error; err != nil {
			return err
		}

		used := make(map[uint]bool)
		for _, r := range rows {
			used[r.ExamSectionID] = true
		}
		marking := make(map[uint]scoring.MarkingSettings, len(sections))
		var scored []scoring.Section
		for _, sec := range sections {
			marking[sec.ID] = scoring.MarkingSettings{
				NegativeMarking:     session.Exam.Settings.EnableNegativeMarking,
				NegativeMarkingType: sec.NegativeMarkingType,
				NegativeMarks:       sec.NegativeMarks,
			}
			if used[sec.ID] {
				scored = append(scored, scoring.Section{ID: sec.ID, Name: sec.Name, Cutoff: sec.SectionCutoff})
			}
		}

		items := make([]scoring.Item, 0, len(rows))
		for _, r := range rows {
			item := grade(r.Question, r.UserAnswer, r.Marks, marking[r.ExamSectionID])
			item.SectionID = r.ExamSectionID
			items = append(items, item)
			if err := tx.Model(&model.ExamSessionQuestion{}).Where("id = ?", r.ID).Updates(map[string]any{
				"is_correct":     item.Correct,
				"marks_earned":   item.Earned,
				"marks_deducted": item.Deducted,
			}).Error; err != nil {
				return err
			}
		}

		timeTaken := elapsed(session.StartsAt, session.EndsAt, now)
		result := scoring.Summarize(items, scored, scoring.Settings{
			PassPercentage:      session.Exam.Settings.PassPercentage,
			EnableSectionCutoff: session.Exam.Settings.EnableSectionCutoff,
		}, timeTaken)

		res := tx.Model(&model.ExamSession{}).
			Where("id = ? AND status = ?", session.ID, model.SessionStarted).
			Select("status", "completed_at", "total_time_taken", "score", "percentage", "passed", "results").
			Updates(model.ExamSession{
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

	metrics.SessionsCompleted.WithLabelValues("exam", trigger).Inc()
	cache.Default.Forget(ctx, examLeaderboardKey(session.ExamID))
	return nil
}

// Results returns the stored outcome of a completed session.
func (s *ExamSessionService) Results(ctx context.Context, userID uint, code string) (*SessionResults, error) {
	session, err := s.session(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionCompleted {
		return nil, apperr.Conflict("exam session is not completed")
	}

	var others []float64
	if err := database.DB.WithContext(ctx).Model(&model.ExamSession{}).
		Where("exam_id = ? AND status = ? AND id <> ?", session.ExamID, model.SessionCompleted, session.ID).
		Pluck("score", &others).Error; err != nil {
		return nil, err
	}

	return &SessionResults{
		Code:        session.Code,
		Title:       session.Exam.Title,
		StartsAt:    session.StartsAt,
		CompletedAt: session.CompletedAt,
		Result:      session.Results,
		Percentile:  scoring.Percentile(session.Score, others),
	}, nil
}

// Solutions returns every question with the correct answer and the marks
// it earned, unless the exam hides solutions.
func (s *ExamSessionService) Solutions(ctx context.Context, userID uint, code string) ([]types.SessionQuestion, error) {
	session, err := s.session(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionCompleted {
		return nil, apperr.Conflict("exam session is not completed")
	}
	if session.Exam.Settings.HideSolutions {
		return nil, apperr.Forbidden("solutions are hidden for this exam")
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
		q := presentQuestion(r.ID, r.SNo, r.ExamSectionID, r.Question, r.Marks, r.Status, r.UserAnswer, r.TimeTaken, seed)
		q.Solution = solutionOf(r.Question, r.IsCorrect, r.MarksEarned, r.MarksDeducted)
		out = append(out, q)
	}
	return out, nil
}

// Leaderboard ranks the best completed attempt of each student.
func (s *ExamSessionService) Leaderboard(ctx context.Context, slug string) ([]types.LeaderboardEntry, error) {
	exam, err := Exam.BySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !exam.Settings.ShowLeaderboard {
		return nil, apperr.Forbidden("leaderboard is not available for this exam")
	}

	return cache.Remember(ctx, cache.Default, examLeaderboardKey(exam.ID), leaderboardTTL, func() ([]types.LeaderboardEntry, error) {
		var sessions []model.ExamSession
		if err := database.DB.WithContext(ctx).Preload("User").
			Select("id", "user_id", "score", "total_time_taken").
			Where("exam_id = ? AND status = ?", exam.ID, model.SessionCompleted).
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

// UserSessions lists a student's attempts, newest first.
func (s *ExamSessionService) UserSessions(ctx context.Context, userID uint, q types.PageQuery) ([]model.ExamSession, int64, error) {
	db := database.DB.WithContext(ctx).Model(&model.ExamSession{}).
		Preload("Exam", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped().Select("id", "code", "title", "slug", "sub_category_id", "total_marks")
		}).
		Omit("results").
		Where("user_id = ?", userID)
	return paginate[model.ExamSession](db, q, "id DESC")
}

// FinishExpired completes started sessions whose time ran out.
func (s *ExamSessionService) FinishExpired(ctx context.Context) (int, error) {
	var ids []uint
	if err := database.DB.WithContext(ctx).Model(&model.ExamSession{}).
		Where("status = ? AND ends_at < ?", model.SessionStarted, s.clock.Now().Add(-autoFinishGrace)).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}

	done := 0
	for _, id := range ids {
		if err := s.finish(ctx, id, "timeout"); err != nil {
			logger.Errorf("auto finish exam session %d: %v", id, err)
			continue
		}
		done++
	}
	return done, nil
}
