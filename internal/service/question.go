package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"qwiktest/internal/model"
	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/database"
	"qwiktest/internal/pkg/scoring"
	"qwiktest/internal/pkg/validation"
	"qwiktest/internal/types"
)

// Blank marker in fill-in-the-blank question text.
const blankMarker = "##"

const (
	defaultQuestionMarks = 1
	defaultQuestionTime  = 60 // seconds
)

var csvHeader = []string{
	"code", "type", "question", "options", "correct_answer", "default_marks",
	"default_time", "difficulty", "skill_id", "topic_id", "solution", "hint", "is_active",
}

var Question = new(QuestionService)

type QuestionService struct{}

// checkIndices verifies that every value is an option number between 1 and n.
func checkIndices(values []string, n int) error {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || i < 1 || i > n {
			return fmt.Errorf("answer %q is not an option number between 1 and %d", v, n)
		}
		if seen[v] {
			return fmt.Errorf("answer %q is repeated", v)
		}
		seen[v] = true
	}
	return nil
}

// normalizeAnswer validates options and correct answer for the question type
// and fills in what the type derives on its own.
func normalizeAnswer(req *types.QuestionRequest) (model.QuestionOptions, model.StringArray, error) {
	options := make(model.QuestionOptions, 0, len(req.Options))
	for _, o := range req.Options {
		options = append(options, model.QuestionOption{Option: strings.TrimSpace(o.Option), Pair: strings.TrimSpace(o.Pair)})
	}
	correct := make(model.StringArray, 0, len(req.CorrectAnswer))
	for _, c := range req.CorrectAnswer {
		correct = append(correct, strings.TrimSpace(c))
	}

	fail := invalidField

	switch req.Type {
	case scoring.TypeMSA:
		if len(options) < 2 {
			return nil, nil, fail("options", "at least two options are required")
		}
		if len(correct) != 1 {
			return nil, nil, fail("correct_answer", "exactly one correct option is required")
		}
		if err := checkIndices(correct, len(options)); err != nil {
			return nil, nil, fail("correct_answer", err.Error())
		}
	case scoring.TypeMMA:
		if len(options) < 2 {
			return nil, nil, fail("options", "at least two options are required")
		}
		if len(correct) == 0 {
			return nil, nil, fail("correct_answer", "at least one correct option is required")
		}
		if err := checkIndices(correct, len(options)); err != nil {
			return nil, nil, fail("correct_answer", err.Error())
		}
	case scoring.TypeTOF:
		options = model.QuestionOptions{{Option: "True"}, {Option: "False"}}
		if len(correct) != 1 || (correct[0] != "1" && correct[0] != "2") {
			return nil, nil, fail("correct_answer", `correct answer must be "1" (true) or "2" (false)`)
		}
	case scoring.TypeSAQ:
		if len(options) == 0 && len(correct) == 0 {
			return nil, nil, fail("options", "at least one acceptable answer is required")
		}
	case scoring.TypeMTF:
		if len(options) < 2 {
			return nil, nil, fail("options", "at least two pairs are required")
		}
		correct = make(model.StringArray, len(options))
		for i, o := range options {
			if o.Pair == "" {
				return nil, nil, fail("options", fmt.Sprintf("option %d has no pair", i+1))
			}
			correct[i] = o.Pair
		}
	case scoring.TypeORD:
		if len(options) < 2 {
			return nil, nil, fail("options", "at least two items are required")
		}
		if len(correct) == 0 {
			correct = make(model.StringArray, len(options))
			for i := range options {
				correct[i] = strconv.Itoa(i + 1)
			}
		}
		if len(correct) != len(options) {
			return nil, nil, fail("correct_answer", "correct order must list every item once")
		}
		if err := checkIndices(correct, len(options)); err != nil {
			return nil, nil, fail("correct_answer", err.Error())
		}
	case scoring.TypeFIB:
		options = model.QuestionOptions{}
		if len(correct) == 0 {
			return nil, nil, fail("correct_answer", "at least one blank value is required")
		}
		for _, c := range correct {
			if c == "" {
				return nil, nil, fail("correct_answer", "blank values cannot be empty")
			}
		}
		if blanks := strings.Count(req.Question, blankMarker); blanks > 0 && blanks != len(correct) {
			return nil, nil, fail("correct_answer", fmt.Sprintf("question has %d blanks but %d values were given", blanks, len(correct)))
		}
	default:
		return nil, nil, fail("type", "unknown question type")
	}
	return options, correct, nil
}

func (s *QuestionService) checkTaxonomy(ctx context.Context, skillID uint, topicID *uint) error {
	if err := exists(ctx, &model.Skill{}, skillID, "skill"); err != nil {
		return err
	}
	if topicID == nil {
		return nil
	}
	var topic model.Topic
	if err := database.DB.WithContext(ctx).First(&topic, *topicID).Error; err != nil {
		return notFound(err, "topic")
	}
	if topic.SkillID != skillID {
		return apperr.Validation("topic does not belong to skill").WithField("topic_id", "topic does not belong to the selected skill")
	}
	return nil
}

// build turns a validated request into a question row.
func (s *QuestionService) build(ctx context.Context, req types.QuestionRequest) (*model.Question, error) {
	options, correct, err := normalizeAnswer(&req)
	if err != nil {
		return nil, err
	}
	if err := s.checkTaxonomy(ctx, req.SkillID, req.TopicID); err != nil {
		return nil, err
	}

	q := &model.Question{
		Type:          req.Type,
		Question:      req.Question,
		Options:       options,
		CorrectAnswer: correct,
		DefaultMarks:  req.DefaultMarks,
		DefaultTime:   req.DefaultTime,
		Difficulty:    req.Difficulty,
		SkillID:       req.SkillID,
		TopicID:       req.TopicID,
		Solution:      req.Solution,
		Hint:          req.Hint,
		IsActive:      boolOr(req.IsActive, true),
	}
	if q.DefaultMarks == 0 {
		q.DefaultMarks = defaultQuestionMarks
	}
	if q.DefaultTime == 0 {
		q.DefaultTime = defaultQuestionTime
	}
	if q.Difficulty == "" {
		q.Difficulty = "medium"
	}
	return q, nil
}

func (s *QuestionService) List(ctx context.Context, q types.QuestionQuery) ([]model.Question, int64, error) {
	db := s.filter(database.DB.WithContext(ctx).Model(&model.Question{}), q)
	return paginate[model.Question](db.Preload("Skill").Preload("Topic"), q.PageQuery, "id DESC")
}

func (s *QuestionService) filter(db *gorm.DB, q types.QuestionQuery) *gorm.DB {
	if q.Type != "" {
		db = db.Where("type = ?", q.Type)
	}
	if q.SkillID != 0 {
		db = db.Where("skill_id = ?", q.SkillID)
	}
	if q.TopicID != 0 {
		db = db.Where("topic_id = ?", q.TopicID)
	}
	if q.Difficulty != "" {
		db = db.Where("difficulty = ?", q.Difficulty)
	}
	if q.Search != "" {
		db = db.Where("question LIKE ? OR code LIKE ?", like(q.Search), like(q.Search))
	}
	return db
}

func (s *QuestionService) Get(ctx context.Context, id uint) (*model.Question, error) {
	var q model.Question
	if err := database.DB.WithContext(ctx).Preload("Skill").Preload("Topic").First(&q, id).Error; err != nil {
		return nil, notFound(err, "question")
	}
	return &q, nil
}

func (s *QuestionService) Create(ctx context.Context, req types.QuestionRequest) (*model.Question, error) {
	q, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}
	q.Code = newCode("que")
	if err := database.DB.WithContext(ctx).Create(q).Error; err != nil {
		return nil, err
	}
	return q, nil
}

// Update replaces the question's content. Sessions already graded keep their
// stored marks.
func (s *QuestionService) Update(ctx context.Context, id uint, req types.QuestionRequest) (*model.Question, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	q, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}

	err = database.DB.WithContext(ctx).Model(existing).Select("*").Omit("id", "code", "created_at", "deleted_at").Updates(&model.Question{
		Type:          q.Type,
		Question:      q.Question,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
		DefaultMarks:  q.DefaultMarks,
		DefaultTime:   q.DefaultTime,
		Difficulty:    q.Difficulty,
		SkillID:       q.SkillID,
		TopicID:       q.TopicID,
		Solution:      q.Solution,
		Hint:          q.Hint,
		IsActive:      q.IsActive,
	}).Error
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete refuses questions that are attached to an exam or quiz.
func (s *QuestionService) Delete(ctx context.Context, id uint) error {
	return s.BatchDelete(ctx, []uint{id})
}

func (s *QuestionService) BatchDelete(ctx context.Context, ids []uint) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return apperr.Validation("no questions selected")
	}

	var used int64
	if err := database.DB.WithContext(ctx).Model(&model.ExamQuestion{}).Where("question_id IN ?", ids).Count(&used).Error; err != nil {
		return err
	}
	if used == 0 {
		if err := database.DB.WithContext(ctx).Model(&model.QuizQuestion{}).Where("question_id IN ?", ids).Count(&used).Error; err != nil {
			return err
		}
	}
	if used > 0 {
		return apperr.Conflict("questions attached to an exam or quiz cannot be deleted")
	}

	res := database.DB.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Question{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("question not found")
	}
	return nil
}

func joinOptions(options model.QuestionOptions) string {
	parts := make([]string, len(options))
	for i, o := range options {
		parts[i] = o.Option
		if o.Pair != "" {
			parts[i] += "=>" + o.Pair
		}
	}
	return strings.Join(parts, "|")
}

func splitOptions(field string) []types.QuestionOption {
	if strings.TrimSpace(field) == "" {
		return nil
	}
	var out []types.QuestionOption
	for _, part := range strings.Split(field, "|") {
		option, pair, _ := strings.Cut(part, "=>")
		out = append(out, types.QuestionOption{Option: strings.TrimSpace(option), Pair: strings.TrimSpace(pair)})
	}
	return out
}

func splitList(field string) []string {
	if strings.TrimSpace(field) == "" {
		return nil
	}
	return strings.Split(field, "|")
}

// Export writes the filtered questions as CSV. Options are separated by "|"
// and a match-the-following option is written as "option=>pair".
func (s *QuestionService) Export(ctx context.Context, w io.Writer, q types.QuestionQuery) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	var batch []model.Question
	err := s.filter(database.DB.WithContext(ctx).Model(&model.Question{}), q).
		Order("id ASC").
		FindInBatches(&batch, 200, func(tx *gorm.DB, _ int) error {
			for _, question := range batch {
				topic := ""
				if question.TopicID != nil {
					topic = strconv.FormatUint(uint64(*question.TopicID), 10)
				}
				record := []string{
					question.Code,
					question.Type,
					question.Question,
					joinOptions(question.Options),
					strings.Join(question.CorrectAnswer, "|"),
					strconv.FormatFloat(question.DefaultMarks, 'f', -1, 64),
					strconv.Itoa(question.DefaultTime),
					question.Difficulty,
					strconv.FormatUint(uint64(question.SkillID), 10),
					topic,
					question.Solution,
					question.Hint,
					strconv.FormatBool(question.IsActive),
				}
				if err := cw.Write(record); err != nil {
					return err
				}
			}
			return nil
		}).Error
	if err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

// Import creates one question per CSV row. Rows that fail are reported and
// skipped; the code column is ignored and fresh codes are issued.
func (s *QuestionService) Import(ctx context.Context, r io.Reader) (*types.ImportReport, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperr.Validation("csv file is empty")
		}
		return nil, apperr.Validation("csv file is not readable")
	}
	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{"type", "question", "skill_id"} {
		if _, ok := columns[required]; !ok {
			return nil, apperr.Validation("csv header is missing column " + required)
		}
	}

	report := &types.ImportReport{Failed: []types.ImportFailure{}}
	row := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			report.Failed = append(report.Failed, types.ImportFailure{Row: row, Error: err.Error()})
			continue
		}

		if err := s.importRecord(ctx, columns, record); err != nil {
			report.Failed = append(report.Failed, types.ImportFailure{Row: row, Error: importMessage(err)})
			continue
		}
		report.Created++
	}
	return report, nil
}

func (s *QuestionService) importRecord(ctx context.Context, columns map[string]int, record []string) error {
	get := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	req := types.QuestionRequest{
		Type:          strings.ToUpper(get("type")),
		Question:      get("question"),
		Options:       splitOptions(get("options")),
		CorrectAnswer: splitList(get("correct_answer")),
		Difficulty:    get("difficulty"),
		Solution:      get("solution"),
		Hint:          get("hint"),
	}

	var err error
	if v := get("default_marks"); v != "" {
		if req.DefaultMarks, err = strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("default_marks: %q is not a number", v)
		}
	}
	if v := get("default_time"); v != "" {
		if req.DefaultTime, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("default_time: %q is not a number", v)
		}
	}
	skillID, err := strconv.ParseUint(get("skill_id"), 10, 64)
	if err != nil {
		return fmt.Errorf("skill_id: %q is not a valid id", get("skill_id"))
	}
	req.SkillID = uint(skillID)
	if v := get("topic_id"); v != "" {
		topicID, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("topic_id: %q is not a valid id", v)
		}
		id := uint(topicID)
		req.TopicID = &id
	}
	if v := get("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("is_active: %q is not a boolean", v)
		}
		req.IsActive = &active
	}

	if err := validation.Struct(req); err != nil {
		return err
	}
	_, err = s.Create(ctx, req)
	return err
}

// importMessage flattens an error for the import report.
func importMessage(err error) string {
	appErr := apperr.From(err)
	if appErr.Type == apperr.TypeInternal {
		return err.Error()
	}
	if len(appErr.Fields) == 0 {
		return appErr.Message
	}
	parts := make([]string, 0, len(appErr.Fields))
	for field, msg := range appErr.Fields {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}
