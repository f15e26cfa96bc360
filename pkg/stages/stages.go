// Package stages holds the enrichment stages run by the pipeline, in the
// order they are registered by Factories.
package stages

import (
	"time"

	"github.com/dtnitsch/readembed/pkg/images"
	"github.com/dtnitsch/readembed/pkg/pipeline"
	"github.com/pemistahl/lingua-go"
)

// Options carries what the stages share across pages.
type Options struct {
	Ranker    *images.Ranker
	Languages lingua.LanguageDetector // nil uses a detector for the common languages
	Overrides []Override              // nil uses DefaultOverrides
	Now       func() time.Time
}

// Names lists the stages in the order Factories runs them.
var Names = []string{
	"custom",
	"pdf_type",
	"image_type",
	"feed_type",
	"login_wall",
	"oembed",
	"amp",
	"standards",
	"meta_tags",
	"readability",
	"last_ditch",
	"images",
	"last_ditch_media",
	"final_content",
	"language",
	"summarizing",
	"authors",
	"date_published",
}

// Factories returns the default stage list.
func Factories(opts Options) []pipeline.Factory {
	if opts.Overrides == nil {
		opts.Overrides = DefaultOverrides()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Languages == nil {
		opts.Languages = DefaultLanguageDetector()
	}

	return []pipeline.Factory{
		Custom(opts.Overrides),
		PDFType,
		ImageType,
		FeedType,
		LoginWall,
		OEmbed,
		AMP,
		Standards,
		MetaTags,
		Readability,
		LastDitch,
		Images(opts.Ranker),
		LastDitchMedia,
		FinalContent,
		Language(opts.Languages),
		Summarizing,
		Authors,
		DatePublished(opts.Now),
	}
}

// base is embedded by every stage.
type base struct {
	name string
	page *pipeline.Page
}

func (b base) Name() string { return b.name }
