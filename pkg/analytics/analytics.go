// Package analytics tokenizes body text and counts term frequencies.
package analytics

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// stopwordList is the MySQL full-text stopword list.
const stopwordList = `a able about above according accordingly across actually after afterwards
again against ain't all allow allows almost alone along already also although always am among
amongst an and another any anybody anyhow anyone anything anyway anyways anywhere apart appear
appreciate appropriate are aren't around as aside ask asking associated at available away awfully
be became because become becomes becoming been before beforehand behind being believe below beside
besides best better between beyond both brief but by c'mon c's came can can't cannot cant cause
causes certain certainly changes clearly co com come comes concerning consequently consider
considering contain containing contains corresponding could couldn't course currently definitely
described despite did didn't different do does doesn't doing don't done down downwards during each
edu eg eight either else elsewhere enough entirely especially et etc even ever every everybody
everyone everything everywhere ex exactly example except far few fifth first five followed
following follows for former formerly forth four from further furthermore get gets getting given
gives go goes going gone got gotten greetings had hadn't happens hardly has hasn't have haven't
having he he's hello help hence her here here's hereafter hereby herein hereupon hers herself hi
him himself his hither hopefully how howbeit however i'd i'll i'm i've ie if ignored immediate in
inasmuch inc indeed indicate indicated indicates inner insofar instead into inward is isn't it
it'd it'll it's its itself just keep keeps kept know knows known last lately later latter latterly
least less lest let let's like liked likely little look looking looks ltd mainly many may maybe me
mean meanwhile merely might more moreover most mostly much must my myself name namely nd near
nearly necessary need needs neither never nevertheless new next nine no nobody non none noone nor
normally not nothing novel now nowhere obviously of off often oh ok okay old on once one ones only
onto or other others otherwise ought our ours ourselves out outside over overall own particular
particularly per perhaps placed please plus possible presumably probably provides que quite qv
rather rd re really reasonably regarding regardless regards relatively respectively right said
same saw say saying says second secondly see seeing seem seemed seeming seems seen self selves
sensible sent serious seriously seven several shall she should shouldn't since six so some
somebody somehow someone something sometime sometimes somewhat somewhere soon sorry specified
specify specifying still sub such sup sure t's take taken tell tends th than thank thanks thanx
that that's thats the their theirs them themselves then thence there there's thereafter thereby
therefore therein theres thereupon these they they'd they'll they're they've think third this
thorough thoroughly those though three through throughout thru thus to together too took toward
towards tried tries truly try trying twice two un under unfortunately unless unlikely until unto up
upon us use used useful uses using usually value various very via viz vs want wants was wasn't way
we we'd we'll we're we've welcome well went were weren't what what's whatever when whence whenever
where where's whereafter whereas whereby wherein whereupon wherever whether which while whither who
who's whoever whole whom whose why will willing wish with within without won't wonder would
wouldn't yes yet you you'd you'll you're you've your yours yourself yourselves zero`

var stopwords = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, w := range strings.Fields(stopwordList) {
		m[w] = struct{}{}
	}
	return m
}()

var (
	wordPattern  = regexp.MustCompile(`[\p{L}\p{N}_]+(?:-[\p{L}\p{N}_]+)*`)
	tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+(?:-[\p{L}\p{N}_]+)*|[^\p{L}\p{N}_\s]+`)
)

// IsStopword checks if a word is a common stopword that should be filtered out.
func IsStopword(word string) bool {
	_, exists := stopwords[strings.ToLower(word)]
	return exists
}

// Words returns the alphanumeric runs of text in order, hyphenated
// compounds kept whole.
func Words(text string) []string {
	return wordPattern.FindAllString(text, -1)
}

// Tokens is like Words but also returns runs of punctuation as tokens.
func Tokens(text string) []string {
	return tokenPattern.FindAllString(text, -1)
}

// Qualifies reports whether a lowercase word counts toward frequencies:
// longer than two characters and not a stopword.
func Qualifies(word string) bool {
	if utf8.RuneCountInString(word) <= 2 {
		return false
	}
	_, stop := stopwords[word]
	return !stop
}

// WordCount pairs a term with its weight.
type WordCount struct {
	Word  string
	Count float64
}

// Frequencies counts qualifying terms and remembers the order they were first seen.
type Frequencies struct {
	counts map[string]float64
	order  []string
}

// NewFrequencies returns an empty counter.
func NewFrequencies() *Frequencies {
	return &Frequencies{counts: make(map[string]float64)}
}

// WordFrequency counts the qualifying lowercase words of text.
func WordFrequency(text string) *Frequencies {
	f := NewFrequencies()
	for _, w := range Words(text) {
		w = strings.ToLower(w)
		if !Qualifies(w) {
			continue
		}
		f.Inc(w, 1)
	}
	return f
}

// Inc adds n to the weight of word.
func (f *Frequencies) Inc(word string, n float64) {
	if f.counts == nil {
		f.counts = make(map[string]float64)
	}
	if _, ok := f.counts[word]; !ok {
		f.order = append(f.order, word)
	}
	f.counts[word] += n
}

// Count returns the weight of word.
func (f *Frequencies) Count(word string) float64 {
	return f.counts[word]
}

// Contains reports whether word was counted.
func (f *Frequencies) Contains(word string) bool {
	_, ok := f.counts[word]
	return ok
}

// Len returns the number of distinct words.
func (f *Frequencies) Len() int {
	return len(f.order)
}

// Words returns the distinct words in first-seen order.
func (f *Frequencies) Words() []string {
	return append([]string(nil), f.order...)
}

// Max returns the highest weight, or 0 when empty.
func (f *Frequencies) Max() float64 {
	var best float64
	for _, c := range f.counts {
		if c > best {
			best = c
		}
	}
	return best
}

// MostCommon returns up to n terms by descending weight; ties keep
// first-seen order. n < 0 returns all terms.
func (f *Frequencies) MostCommon(n int) []WordCount {
	counts := make([]WordCount, 0, len(f.order))
	for _, w := range f.order {
		counts = append(counts, WordCount{Word: w, Count: f.counts[w]})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if n >= 0 && n < len(counts) {
		counts = counts[:n]
	}
	return counts
}

// TopNWords returns the n most frequent qualifying words of text.
func TopNWords(text string, n int) []string {
	top := WordFrequency(text).MostCommon(n)
	words := make([]string, len(top))
	for i, wc := range top {
		words[i] = wc.Word
	}
	return words
}
