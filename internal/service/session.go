package service

import (
	"hash/fnv"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"qwiktest/internal/model"
	"qwiktest/internal/pkg/scoring"
	"qwiktest/internal/types"
)

const (
	// The cron job waits this long after ends_at before finishing a session
	// on the student's behalf.
	autoFinishGrace = 2 * time.Minute

	leaderboardSize = 10
	leaderboardTTL  = 10 * time.Minute
)

// SessionView is a running session as the student sees it.
type SessionView struct {
	Code             string                  `json:"code"`
	Title            string                  `json:"title"`
	Status           string                  `json:"status"`
	StartsAt         time.Time               `json:"starts_at"`
	EndsAt           time.Time               `json:"ends_at"`
	RemainingSeconds int                     `json:"remaining_seconds"`
	CurrentSection   uint                    `json:"current_section,omitempty"`
	Sections         []model.ExamSection     `json:"sections,omitempty"`
	Settings         any                     `json:"settings"`
	Questions        []types.SessionQuestion `json:"questions"`
}

// SessionResults is the outcome of a completed session.
type SessionResults struct {
	Code        string          `json:"code"`
	Title       string          `json:"title"`
	StartsAt    time.Time       `json:"starts_at"`
	CompletedAt *time.Time      `json:"completed_at"`
	Result      *scoring.Result `json:"result"`
	Percentile  float64         `json:"percentile"`
}

func newSessionCode() string {
	return uuid.NewString()
}

// sessionSeed derives a stable shuffle seed so a session always presents
// the same order.
func sessionSeed(code string) int64 {
	h := fnv.New64a()
	h.Write([]byte(code))
	return int64(h.Sum64())
}

func shuffle[T any](items []T, seed int64) {
	rand.New(rand.NewSource(seed)).Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

func remaining(now, endsAt time.Time) int {
	if !now.Before(endsAt) {
		return 0
	}
	return int(endsAt.Sub(now).Seconds())
}

// elapsed is the wall time spent in a session, capped at its duration.
func elapsed(startsAt, endsAt, now time.Time) int {
	if now.After(endsAt) {
		now = endsAt
	}
	if now.Before(startsAt) {
		return 0
	}
	return int(now.Sub(startsAt).Seconds())
}

// withDeleted preloads questions even after they were removed from the bank
// so running and finished sessions keep their content.
func withDeleted(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

// presentQuestion builds the student view of a session question. Answers
// never leak: SAQ options are accepted answers and stay hidden, MTF pairs
// and ORD options are shuffled with a per-question seed.
func presentQuestion(id uint, sno int, sectionID uint, q *model.Question, marks float64, status string, answer []string, timeTaken int, seed int64) types.SessionQuestion {
	out := types.SessionQuestion{
		ID:         id,
		SNo:        sno,
		SectionID:  sectionID,
		QuestionID: q.ID,
		Type:       q.Type,
		Question:   q.Question,
		Marks:      marks,
		Status:     status,
		Answer:     answer,
		TimeTaken:  timeTaken,
	}
	if out.Answer == nil {
		out.Answer = []string{}
	}

	switch q.Type {
	case scoring.TypeSAQ, scoring.TypeFIB:
	case scoring.TypeMTF:
		out.Options = q.Options.Texts()
		out.Pairs = make([]string, len(q.Options))
		for i, o := range q.Options {
			out.Pairs[i] = o.Pair
		}
		shuffle(out.Pairs, seed+int64(id))
	case scoring.TypeORD:
		order := make([]int, len(q.Options))
		for i := range order {
			order[i] = i + 1
		}
		shuffle(order, seed+int64(id))
		out.Order = order
		out.Options = make([]string, len(order))
		for i, n := range order {
			out.Options[i] = q.Options[n-1].Option
		}
	default:
		out.Options = q.Options.Texts()
	}
	return out
}

func solutionOf(q *model.Question, isCorrect bool, earned, deducted float64) *types.SessionSolution {
	correct := []string(q.CorrectAnswer)
	if correct == nil {
		correct = []string{}
	}
	if q.Type == scoring.TypeSAQ && len(correct) == 0 {
		correct = q.Options.Texts()
	}
	return &types.SessionSolution{
		CorrectAnswer: correct,
		Explanation:   q.Solution,
		IsCorrect:     isCorrect,
		MarksEarned:   earned,
		MarksDeducted: deducted,
	}
}

// grade evaluates one stored answer. A nil question (missing from the bank)
// counts as unanswered.
func grade(q *model.Question, answer []string, marks float64, ms scoring.MarkingSettings) scoring.Item {
	item := scoring.Item{Marks: marks}
	if q == nil {
		return item
	}
	item.Answered = scoring.Answered(answer)
	if item.Answered {
		item.Correct = scoring.Evaluate(q.Type, q.Options.Texts(), q.CorrectAnswer, answer)
	}
	item.Earned, item.Deducted = scoring.Marks(ms, marks, item.Answered, item.Correct)
	return item
}

// checkAnswer validates an answer update against the question status rules.
func checkAnswer(req types.AnswerRequest) (model.StringArray, error) {
	if !model.ValidQuestionStatus(req.Status) {
		return nil, invalidField("status", "status is not valid")
	}
	if !model.IsAnsweredStatus(req.Status) {
		return nil, nil
	}
	if !scoring.Answered(req.Answer) {
		return nil, invalidField("answer", "an answer is required for this status")
	}
	return model.StringArray(req.Answer), nil
}

type attempt struct {
	UserID    uint
	Score     float64
	TimeTaken int
	User      *model.User
}

// rankAttempts keeps each user's best attempt (higher score, then less time)
// and ranks the top n.
func rankAttempts(attempts []attempt, n int) []types.LeaderboardEntry {
	best := make(map[uint]attempt, len(attempts))
	for _, a := range attempts {
		cur, ok := best[a.UserID]
		if !ok || a.Score > cur.Score || (a.Score == cur.Score && a.TimeTaken < cur.TimeTaken) {
			best[a.UserID] = a
		}
	}

	ranked := make([]attempt, 0, len(best))
	for _, a := range best {
		ranked = append(ranked, a)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].TimeTaken != ranked[j].TimeTaken {
			return ranked[i].TimeTaken < ranked[j].TimeTaken
		}
		return ranked[i].UserID < ranked[j].UserID
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	entries := make([]types.LeaderboardEntry, len(ranked))
	for i, a := range ranked {
		name := "User " + strconv.FormatUint(uint64(a.UserID), 10)
		if a.User != nil {
			name = a.User.FullName()
		}
		entries[i] = types.LeaderboardEntry{Rank: i + 1, UserID: a.UserID, Name: name, Score: a.Score, TimeTaken: a.TimeTaken}
	}
	return entries
}
