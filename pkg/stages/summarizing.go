package stages

import (
	"context"

	"github.com/dtnitsch/readembed/pkg/pipeline"
	"github.com/dtnitsch/readembed/pkg/result"
	"github.com/dtnitsch/readembed/pkg/summarizer"
)

// WordCountField holds the number of distinct qualifying words in the text.
const WordCountField = "_wordcount"

type summarizing struct{ base }

// Summarizing writes the extractive summary and merges keywords found in
// the body text.
func Summarizing(p *pipeline.Page) pipeline.Stage {
	return summarizing{base{"summarizing", p}}
}

func (s summarizing) Enrich(_ context.Context, res *result.Result) error {
	if !res.Contains("_text") {
		if s.page.Doc == nil {
			return nil
		}
		res.Set("_text", s.page.Doc.AllText(), result.Guess)
	}

	sum := summarizer.New(res.GetString("_text"), res.GetString("title"))
	res.Set(WordCountField, sum.WordCount(), result.Guess)

	// Too few sentences makes for a poor summary
	if sum.SentenceCount() <= 2 {
		return nil
	}
	if summary := sum.Summary(); summary != "" {
		res.Set("summary", summary, result.Sure)
	}

	if lang := res.GetString(LanguageField); lang != "" && lang != "en" {
		return nil
	}
	var keywords []string
	for _, kw := range res.GetStrings("keywords") {
		keywords = append(keywords, sum.CommonCap(kw))
	}
	keywords = append(keywords, sum.Keywords(summarizer.DefaultKeywords)...)
	res.Set("keywords", summarizer.LongestUnique(keywords), result.Guess)
	return nil
}
