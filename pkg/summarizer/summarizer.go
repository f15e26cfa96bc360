// Package summarizer builds an extractive summary and a keyword list from
// article body text.
package summarizer

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/dtnitsch/readembed/pkg/analytics"
	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

const (
	// topTerms is how many weighted terms a sentence is scored against.
	topTerms = 100
	// minSentenceWords is the shortest sentence, in words, eligible for the summary.
	minSentenceWords = 4

	DefaultSentences = 4
	DefaultWordCount = 70
	DefaultKeywords  = 5
)

var (
	blankLines = regexp.MustCompile(`\n\s*\n+`)
	spaceRuns  = regexp.MustCompile(`[\n ]+`)
)

var (
	tokenizerOnce sync.Once
	tokenizer     *sentences.DefaultSentenceTokenizer
)

func splitSentences(text string) []string {
	tokenizerOnce.Do(func() {
		tokenizer, _ = english.NewSentenceTokenizer(nil)
	})
	if tokenizer == nil {
		return naiveSplit(text)
	}
	var out []string
	for _, s := range tokenizer.Tokenize(text) {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// naiveSplit breaks after terminal punctuation followed by a space.
func naiveSplit(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		if strings.ContainsRune(".!?", rune(text[i])) && text[i+1] == ' ' {
			if t := strings.TrimSpace(text[start : i+1]); t != "" {
				out = append(out, t)
			}
			start = i + 1
		}
	}
	if t := strings.TrimSpace(text[start:]); t != "" {
		out = append(out, t)
	}
	return out
}

type sentence struct {
	score int
	text  string
	index int
}

// Summarizer scores the sentences of a text once, then answers summary
// and keyword queries from those scores.
type Summarizer struct {
	text  string
	runes []rune
	lower []rune

	words      *analytics.Frequencies
	boosted    *analytics.Frequencies
	titleWords map[string]struct{}

	raw    []string
	scored []sentence
}

// New normalizes text and scores its sentences against the title.
func New(text, title string) *Summarizer {
	text = spaceRuns.ReplaceAllString(blankLines.ReplaceAllString(text, ". "), " ")
	s := &Summarizer{
		text:       text,
		runes:      []rune(text),
		words:      analytics.WordFrequency(text),
		boosted:    analytics.NewFrequencies(),
		titleWords: make(map[string]struct{}),
	}
	s.lower = make([]rune, len(s.runes))
	for i, r := range s.runes {
		s.lower[i] = unicode.ToLower(r)
	}
	for _, w := range analytics.WordFrequency(title).Words() {
		s.titleWords[w] = struct{}{}
	}
	s.summarize()
	return s
}

func (s *Summarizer) summarize() {
	if s.words.Len() == 0 {
		return
	}

	boost := s.words.Max() / 2
	for _, w := range s.words.Words() {
		s.boosted.Inc(w, s.words.Count(w))
		if _, ok := s.titleWords[w]; ok {
			s.boosted.Inc(w, boost)
		}
	}

	frequent := make(map[string]struct{}, topTerms)
	for _, wc := range s.boosted.MostCommon(topTerms) {
		frequent[wc.Word] = struct{}{}
	}

	s.raw = splitSentences(s.text)
	for index, text := range s.raw {
		words := analytics.WordFrequency(text).Words()
		score := 0
		for _, w := range words {
			if _, ok := frequent[w]; ok {
				score++
			}
		}
		// Counts every word token, not just qualifying ones, so short
		// sentences full of stopwords still reach the minimum.
		if score == 0 || s.sameAsTitle(words) || len(analytics.Words(text)) < minSentenceWords {
			continue
		}
		s.scored = append(s.scored, sentence{score: score - index, text: text, index: index})
	}
}

func (s *Summarizer) sameAsTitle(words []string) bool {
	if len(words) != len(s.titleWords) {
		return false
	}
	for _, w := range words {
		if _, ok := s.titleWords[w]; !ok {
			return false
		}
	}
	return true
}

// SentenceCount is the number of sentences eligible for the summary.
func (s *Summarizer) SentenceCount() int {
	return len(s.scored)
}

// WordCount is the number of distinct qualifying words in the text.
func (s *Summarizer) WordCount() int {
	return s.words.Len()
}

// Summary joins the DefaultSentences best sentences in document order,
// stopping once DefaultWordCount words have been collected.
func (s *Summarizer) Summary() string {
	return s.SummaryOf(DefaultSentences, DefaultWordCount)
}

// SummaryOf is Summary with explicit limits.
func (s *Summarizer) SummaryOf(maxSentences, sufficientWords int) string {
	top := append([]sentence(nil), s.scored...)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].score > top[j].score
	})
	if len(top) > maxSentences {
		top = top[:maxSentences]
	}
	if len(top) == 0 {
		return ""
	}
	sort.Slice(top, func(i, j int) bool { return top[i].index < top[j].index })

	summary := top[0].text
	for _, sent := range top[1:] {
		if len(strings.Split(summary, " ")) >= sufficientWords {
			break
		}
		summary += " " + sent.text
	}
	return summary
}

// Keywords returns up to count keywords, highest weighted first, with
// proper nouns expanded into the capitalized phrase they appear in.
func (s *Summarizer) Keywords(count int) []string {
	var results []string
	seen := make(map[string]struct{})
	atoms := make(map[string]struct{})

	for _, wc := range s.boosted.MostCommon(-1) {
		word := wc.Word
		if _, ok := atoms[word]; ok || !isWord(word) {
			continue
		}
		original := s.CommonCap(word)
		if original != word {
			original = s.entity(original)
		}
		atoms[word] = struct{}{}
		for _, part := range strings.Fields(strings.ToLower(original)) {
			atoms[part] = struct{}{}
		}
		if _, dup := seen[original]; dup {
			continue
		}
		seen[original] = struct{}{}
		results = append(results, original)
		if len(results) == count {
			break
		}
	}
	return results
}

// isWord reports whether w is alphabetic once hyphens are removed.
func isWord(w string) bool {
	w = strings.ReplaceAll(w, "-", "")
	if w == "" {
		return false
	}
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// CommonCap returns the most frequent casing of word in the text, or the
// lowercase word when it never appears.
func (s *Summarizer) CommonCap(word string) string {
	needle := []rune(strings.ToLower(word))
	if len(needle) == 0 {
		return word
	}

	counts := make(map[string]int)
	var order []string
	for i := 0; i+len(needle) <= len(s.lower); {
		if !hasPrefixRunes(s.lower[i:], needle) {
			i++
			continue
		}
		v := string(s.runes[i : i+len(needle)])
		if _, ok := counts[v]; !ok {
			order = append(order, v)
		}
		counts[v]++
		i += len(needle)
	}
	if len(order) == 0 {
		return string(needle)
	}

	best := order[0]
	for _, v := range order[1:] {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best
}

func hasPrefixRunes(s, prefix []rune) bool {
	if len(prefix) > len(s) {
		return false
	}
	for i, r := range prefix {
		if s[i] != r {
			return false
		}
	}
	return true
}

// entity grows a capitalized word into the run of capitalized words
// around it in the first sentence that contains it. Neighbors are judged
// by their most common casing. The sentence-initial token is never
// absorbed from the left.
func (s *Summarizer) entity(word string) string {
	for _, sent := range s.raw {
		tokens := analytics.Tokens(sent)
		index := -1
		for i, tok := range tokens {
			if tok == word {
				index = i
				break
			}
		}
		if index < 0 {
			continue
		}

		parts := []string{word}
		for l := index - 1; l > 0; l-- {
			c := s.CommonCap(tokens[l])
			if !startsUpper(c) {
				break
			}
			parts = append([]string{c}, parts...)
		}
		for r := index + 1; r < len(tokens); r++ {
			c := s.CommonCap(tokens[r])
			if !startsUpper(c) {
				break
			}
			parts = append(parts, c)
		}
		return strings.Join(parts, " ")
	}
	return word
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

// LongestUnique drops every item that is a case-insensitive substring of
// another item, and repeated items after their first occurrence.
func LongestUnique(items []string) []string {
	lower := make([]string, len(items))
	for i, item := range items {
		lower[i] = strings.ToLower(item)
	}

	out := []string{}
	for i, item := range items {
		keep := true
		for j := range items {
			if i == j {
				continue
			}
			if lower[i] == lower[j] {
				if j < i {
					keep = false
				}
				continue
			}
			if strings.Contains(lower[j], lower[i]) {
				keep = false
			}
		}
		if keep {
			out = append(out, item)
		}
	}
	return out
}
