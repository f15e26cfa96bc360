package result

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Evaluator picks between two values written to a field at the same confidence.
type Evaluator int

const (
	// NoEvaluator means the newer value always wins a tie.
	NoEvaluator Evaluator = iota
	// TextLength prefers the longer string.
	TextLength
	// TextQuality prefers the value with fewer boilerplate phrases.
	TextQuality
	// TimeSpecificity prefers the more precise timestamp.
	TimeSpecificity
)

// ErrUnknownEvaluator is returned by ParseEvaluator for unregistered names.
var ErrUnknownEvaluator = errors.New("unknown evaluator")

var evaluatorNames = map[Evaluator]string{
	NoEvaluator:     "none",
	TextLength:      "textlength",
	TextQuality:     "textquality",
	TimeSpecificity: "timespecificity",
}

// boilerplatePhrases lower the quality score of a block of text.
var boilerplatePhrases = []string{
	"email preference",
	"privacy policy",
}

// ParseEvaluator resolves an evaluator by its registered name.
func ParseEvaluator(name string) (Evaluator, error) {
	for ev, n := range evaluatorNames {
		if n == strings.ToLower(strings.TrimSpace(name)) {
			return ev, nil
		}
	}
	return NoEvaluator, fmt.Errorf("%w: %q", ErrUnknownEvaluator, name)
}

func (e Evaluator) String() string {
	if n, ok := evaluatorNames[e]; ok {
		return n
	}
	return fmt.Sprintf("evaluator(%d)", int(e))
}

// Best returns first if it scores strictly higher than second, otherwise second.
// It panics for evaluators outside the registered set.
func (e Evaluator) Best(first, second any) any {
	if e == NoEvaluator {
		return second
	}
	if e.score(first) > e.score(second) {
		return first
	}
	return second
}

func (e Evaluator) score(v any) int {
	switch e {
	case TextLength:
		return textLength(v)
	case TextQuality:
		return textQuality(v)
	case TimeSpecificity:
		return timeSpecificity(v)
	}
	panic(fmt.Sprintf("result: unregistered evaluator %d", int(e)))
}

func textLength(v any) int {
	switch t := v.(type) {
	case string:
		return utf8.RuneCountInString(t)
	case []string:
		return len(t)
	}
	return 0
}

func textQuality(v any) int {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	s = strings.ToLower(s)
	score := 0
	for _, phrase := range boilerplatePhrases {
		if strings.Contains(s, phrase) {
			score--
		}
	}
	return score
}

// timeSpecificity measures how much of "2006-01-02 15:04:05.000000" survives
// once trailing zeros, colons and spaces are stripped.
func timeSpecificity(v any) int {
	var t time.Time
	switch x := v.(type) {
	case time.Time:
		t = x
	case *time.Time:
		if x == nil {
			return 0
		}
		t = *x
	default:
		return 0
	}
	if t.IsZero() {
		return 0
	}
	s := t.Format("2006-01-02 15:04:05")
	if us := t.Nanosecond() / 1000; us != 0 {
		s += fmt.Sprintf(".%06d", us)
	}
	return len(strings.TrimRight(s, "0: "))
}
