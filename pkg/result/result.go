// Package result holds the confidence-merged record that every extraction
// stage reads from and writes to.
package result

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Confidence expresses how sure a stage is about a value, from 0 to 4.
type Confidence int

const (
	Guess      Confidence = 0
	FairlySure Confidence = 1
	MostlySure Confidence = 2
	Sure       Confidence = 3
	Certain    Confidence = 4
)

// PrivatePrefix marks fields that only carry hints between stages.
const PrivatePrefix = "_"

func clamp(c Confidence) Confidence {
	if c < Guess {
		return Guess
	}
	if c > Certain {
		return Certain
	}
	return c
}

type entry struct {
	value      any
	confidence Confidence
}

// LogEntry records one write attempt against a field.
type LogEntry struct {
	Stage      string
	Value      any
	Confidence Confidence
}

// Result is the per-request record. It is not safe for concurrent use;
// stages run one at a time.
type Result struct {
	fields map[string]entry
	log    map[string][]LogEntry
	stage  string
}

// New returns a Result seeded with the request URL and the default fields.
func New(url string) *Result {
	r := &Result{
		fields: make(map[string]entry),
		log:    make(map[string][]LogEntry),
	}
	r.Set("url", url, Certain)
	r.Set("embed", false, Guess)
	r.Set("primary_image", nil, Guess)
	r.Set("secondary_images", []string{}, Guess)
	r.Set("content", nil, Guess)
	r.Set("summary", nil, Guess)
	r.Set("title", nil, Guess)
	r.Set("subtitle", nil, Guess)
	r.Set("authors", []string{}, Guess)
	r.Set("published_at", nil, Guess)
	r.Set("keywords", []string{}, Guess)
	r.Set("canonical_url", nil, Guess)
	r.Set("success", false, Guess)
	return r
}

// SetStage names the stage that subsequent writes are attributed to.
func (r *Result) SetStage(name string) {
	r.stage = name
}

// Stage returns the name of the stage currently writing.
func (r *Result) Stage() string {
	return r.stage
}

// Set writes value when the field is absent or conf is at least the
// existing confidence. Equal confidence means the newer value wins.
func (r *Result) Set(field string, value any, conf Confidence) *Result {
	return r.SetBest(field, value, conf, NoEvaluator)
}

// SetBest is Set with an evaluator deciding ties at equal confidence.
func (r *Result) SetBest(field string, value any, conf Confidence, ev Evaluator) *Result {
	conf = clamp(conf)
	r.log[field] = append(r.log[field], LogEntry{Stage: r.stage, Value: value, Confidence: conf})

	existing, ok := r.fields[field]
	switch {
	case !ok, conf > existing.confidence:
		r.fields[field] = entry{value: value, confidence: conf}
	case conf == existing.confidence:
		r.fields[field] = entry{value: ev.Best(existing.value, value), confidence: conf}
	}
	return r
}

// SetIfLonger keeps the longer of the two strings at equal confidence.
// Empty values are ignored.
func (r *Result) SetIfLonger(field, value string, conf Confidence) *Result {
	if value == "" {
		return r
	}
	return r.SetBest(field, value, conf, TextLength)
}

// Add merges items into a list field without duplicates, keeping the
// field's current confidence.
func (r *Result) Add(field string, items []string) *Result {
	return r.add(field, items, r.inherited(field), true)
}

// AddAt merges items into a list field at the given confidence.
func (r *Result) AddAt(field string, items []string, conf Confidence) *Result {
	return r.add(field, items, conf, true)
}

// Append concatenates items onto a list field, duplicates included.
func (r *Result) Append(field string, items []string) *Result {
	return r.add(field, items, r.inherited(field), false)
}

func (r *Result) inherited(field string) Confidence {
	if e, ok := r.fields[field]; ok {
		return e.confidence
	}
	return Guess
}

func (r *Result) add(field string, items []string, conf Confidence, unique bool) *Result {
	merged := append(append([]string{}, r.GetStrings(field)...), items...)
	if !unique {
		return r.Set(field, merged, conf)
	}
	seen := make(map[string]struct{}, len(merged))
	out := make([]string, 0, len(merged))
	for _, v := range merged {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return r.Set(field, out, conf)
}

// Get returns the field value, or nil when it was never written.
func (r *Result) Get(field string) any {
	return r.fields[field].value
}

// Contains reports whether the field was ever written.
func (r *Result) Contains(field string) bool {
	_, ok := r.fields[field]
	return ok
}

// ConfidenceOf returns the confidence of a field and whether it exists.
func (r *Result) ConfidenceOf(field string) (Confidence, bool) {
	e, ok := r.fields[field]
	return e.confidence, ok
}

// Has reports whether the field is present and non-empty.
func (r *Result) Has(field string) bool {
	e, ok := r.fields[field]
	if !ok {
		return false
	}
	switch v := e.value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case []string:
		return len(v) > 0
	case time.Time:
		return !v.IsZero()
	case map[string]any:
		return len(v) > 0
	}
	return true
}

// GetString returns a string field, or "" when missing or not a string.
func (r *Result) GetString(field string) string {
	s, _ := r.Get(field).(string)
	return s
}

// GetStrings returns a list field, or nil when missing or not a list.
func (r *Result) GetStrings(field string) []string {
	s, _ := r.Get(field).([]string)
	return s
}

// GetBool returns a boolean field, false when missing.
func (r *Result) GetBool(field string) bool {
	b, _ := r.Get(field).(bool)
	return b
}

// GetTime returns a time field.
func (r *Result) GetTime(field string) (time.Time, bool) {
	t, ok := r.Get(field).(time.Time)
	return t, ok
}

// History returns every write attempt made against field, in order.
func (r *Result) History(field string) []LogEntry {
	return append([]LogEntry(nil), r.log[field]...)
}

// ToExternal returns the public field map without confidences.
func (r *Result) ToExternal() map[string]any {
	out := make(map[string]any, len(r.fields))
	for name, e := range r.fields {
		if strings.HasPrefix(name, PrivatePrefix) {
			continue
		}
		out[name] = e.value
	}
	return out
}

func (r *Result) sortedFields() []string {
	names := make([]string, 0, len(r.fields))
	for name := range r.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Result) String() string {
	var b strings.Builder
	for _, name := range r.sortedFields() {
		e := r.fields[name]
		v := fmt.Sprintf("%v", e.value)
		if runes := []rune(v); len(runes) > 80 {
			v = string(runes[:80]) + "..."
		}
		fmt.Fprintf(&b, "(%d) %s = %s\n", e.confidence, name, v)
	}
	return b.String()
}
