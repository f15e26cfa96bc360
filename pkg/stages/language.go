package stages

import (
	"context"
	"strings"
	"sync"

	"github.com/dtnitsch/readembed/pkg/pipeline"
	"github.com/dtnitsch/readembed/pkg/result"
	"github.com/pemistahl/lingua-go"
)

// LanguageField holds the ISO 639-1 code of the body text.
const LanguageField = "_language"

// minLanguageText is the shortest text worth running detection on.
const minLanguageText = 20

var (
	defaultDetector     lingua.LanguageDetector
	defaultDetectorOnce sync.Once
)

// DefaultLanguageDetector distinguishes the languages most articles are
// written in. It is built once and shared.
func DefaultLanguageDetector() lingua.LanguageDetector {
	defaultDetectorOnce.Do(func() {
		defaultDetector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.English,
				lingua.French,
				lingua.German,
				lingua.Spanish,
				lingua.Portuguese,
				lingua.Italian,
				lingua.Dutch,
				lingua.Russian,
				lingua.Japanese,
				lingua.Chinese,
			).
			Build()
	})
	return defaultDetector
}

type language struct {
	base
	detector lingua.LanguageDetector
}

// Language records the language of the body text.
func Language(detector lingua.LanguageDetector) pipeline.Factory {
	return func(p *pipeline.Page) pipeline.Stage {
		if detector == nil {
			return nil
		}
		return language{base{"language", p}, detector}
	}
}

func (s language) Enrich(_ context.Context, res *result.Result) error {
	text := res.GetString("_text")
	if text == "" && s.page.Doc != nil {
		text = s.page.Doc.AllText()
	}
	if len(strings.TrimSpace(text)) < minLanguageText {
		return nil
	}

	lang, ok := s.detector.DetectLanguageOf(text)
	if !ok {
		return nil
	}
	res.Set(LanguageField, strings.ToLower(lang.IsoCode639_1().String()), result.FairlySure)
	return nil
}
