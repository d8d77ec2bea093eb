package ports

import (
	"context"
	"io"

	"smartreader/internal/domain"
)

// ArticleService is the remote backend the session talks to: catalog
// listing, per-article AI summaries, and comment submission.
type ArticleService interface {
	FetchArticles(ctx context.Context) ([]domain.Article, error)
	FetchSummary(ctx context.Context, articleID int64) (string, error)
	PostComment(ctx context.Context, comment domain.NewComment) (domain.Comment, error)
}

// SpeechOptions configures a single utterance.
type SpeechOptions struct {
	Language string
	Rate     float64
	Voice    string
}

// Voice describes one synthesizer voice and the language tag it targets.
type Voice struct {
	Name     string
	Language string
}

// Synthesizer converts text into an audio stream. Concrete implementations
// wrap OpenAI-compatible TTS APIs or local engines.
type Synthesizer interface {
	// Synthesize returns the audio for text; the caller must Close the stream.
	Synthesize(ctx context.Context, text string, opts SpeechOptions) (io.ReadCloser, error)
	// Voices lists the voices the synthesizer offers.
	Voices(ctx context.Context) ([]Voice, error)
}

// SpeechDevice is the process-wide audio resource. At most one utterance is
// active at a time; Speak supersedes any prior utterance. Cancel is always
// safe to call, even when idle. Callbacks are delivered asynchronously:
// onDone on natural end, onError on synthesis or output failure, neither
// after a Cancel.
type SpeechDevice interface {
	Speak(text string, opts SpeechOptions, onDone func(), onError func(error))
	Pause()
	Resume()
	Cancel()
}

// TextExtractor reduces article markup to plain text suitable for speech.
type TextExtractor interface {
	PlainText(content string) string
}
