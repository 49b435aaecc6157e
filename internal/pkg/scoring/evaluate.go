// Package scoring grades answers and summarizes attempts. It has no storage
// dependencies so the same rules serve exams and quizzes.
package scoring

import (
	"math"
	"strings"
)

// Question types.
const (
	TypeMSA = "MSA" // multiple choice, single answer
	TypeMMA = "MMA" // multiple choice, multiple answers
	TypeTOF = "TOF" // true or false
	TypeSAQ = "SAQ" // short answer
	TypeMTF = "MTF" // match the following
	TypeORD = "ORD" // ordering
	TypeFIB = "FIB" // fill in the blanks
)

// Evaluate reports whether given is a correct answer for a question of type
// qType. For SAQ, every option text is also an acceptable answer.
func Evaluate(qType string, options, correct, given []string) bool {
	given = compact(given)
	if len(given) == 0 {
		return false
	}

	switch qType {
	case TypeMSA, TypeTOF:
		return len(given) == 1 && len(correct) > 0 && given[0] == strings.TrimSpace(correct[0])
	case TypeMMA:
		return sameSet(correct, given)
	case TypeSAQ:
		answer := normalize(given[0])
		for _, accepted := range append(append([]string{}, correct...), options...) {
			if normalize(accepted) == answer && answer != "" {
				return true
			}
		}
		return false
	case TypeMTF, TypeORD:
		return samePositions(correct, given, strings.TrimSpace)
	case TypeFIB:
		return samePositions(correct, given, normalize)
	default:
		return false
	}
}

// Answered reports whether a stored answer holds at least one non-blank value.
func Answered(given []string) bool {
	return len(compact(given)) > 0
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// compact trims values and drops trailing blanks so an untouched blank
// keeps its position.
func compact(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

func sameSet(correct, given []string) bool {
	want := make(map[string]bool, len(correct))
	for _, c := range correct {
		want[strings.TrimSpace(c)] = true
	}
	got := make(map[string]bool, len(given))
	for _, g := range given {
		if g == "" {
			continue
		}
		got[g] = true
	}
	if len(want) == 0 || len(want) != len(got) {
		return false
	}
	for g := range got {
		if !want[g] {
			return false
		}
	}
	return true
}

func samePositions(correct, given []string, norm func(string) string) bool {
	if len(correct) == 0 || len(correct) != len(given) {
		return false
	}
	for i := range correct {
		if norm(correct[i]) != norm(given[i]) {
			return false
		}
	}
	return true
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
