package speech

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"smartreader/internal/ports"
)

// Engine is the process-wide speech device: a synthesizer feeding an audio
// sink through a playback worker. At most one utterance is active; Speak
// cancels any running one before starting, and Cancel is idempotent. A
// cancelled utterance fires neither callback.
type Engine struct {
	mu      sync.Mutex
	synth   ports.Synthesizer
	sink    io.Writer
	logger  *slog.Logger
	current *utterance

	voicesOnce sync.Once
	voices     []ports.Voice
}

var _ ports.SpeechDevice = (*Engine)(nil)

// NewEngine wires the synthesizer and the sink the audio is played into.
func NewEngine(synth ports.Synthesizer, sink io.Writer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{synth: synth, sink: sink, logger: logger}
}

// Speak starts a new utterance. onDone fires on natural end, onError on a
// synthesis or sink failure; both are delivered from the playback worker.
func (e *Engine) Speak(text string, opts ports.SpeechOptions, onDone func(), onError func(error)) {
	e.mu.Lock()
	e.cancelLocked()
	u := newUtterance()
	e.current = u
	e.mu.Unlock()

	if opts.Voice == "" {
		opts.Voice = e.pickVoice(u.ctx, opts.Language)
	}

	go e.run(u, text, opts, onDone, onError)
}

// Pause suspends chunk delivery to the sink. No-op when idle.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil {
		e.current.pause()
	}
}

// Resume continues a paused utterance where it left off. No-op when idle.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil {
		e.current.resume()
	}
}

// Cancel tears down the active utterance, if any, without firing callbacks.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelLocked()
}

func (e *Engine) cancelLocked() {
	if e.current == nil {
		return
	}
	e.current.cancel()
	e.current = nil
}

// finish detaches u if it is still the active utterance. A false return
// means the utterance was superseded or cancelled and must stay silent.
func (e *Engine) finish(u *utterance) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != u {
		return false
	}
	e.current = nil
	return true
}

func (e *Engine) run(u *utterance, text string, opts ports.SpeechOptions, onDone func(), onError func(error)) {
	stream, err := e.synth.Synthesize(u.ctx, text, opts)
	if err != nil {
		if e.finish(u) {
			report(onError, fmt.Errorf("synthesize: %w", err))
		}
		return
	}
	defer stream.Close()

	buf := make([]byte, 4096)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			// The gate sits right in front of the sink so a pause takes
			// effect before the next chunk is heard.
			if !u.waitIfPaused() {
				return
			}
			if _, werr := e.sink.Write(buf[:n]); werr != nil {
				if e.finish(u) {
					report(onError, fmt.Errorf("audio sink: %w", werr))
				}
				return
			}
		}
		if err == io.EOF {
			if e.finish(u) && onDone != nil {
				onDone()
			}
			return
		}
		if err != nil {
			if u.ctx.Err() != nil {
				return
			}
			if e.finish(u) {
				report(onError, fmt.Errorf("audio stream: %w", err))
			}
			return
		}
	}
}

// pickVoice prefers a voice matching the language tag, then one matching
// its primary subtag, then any multilingual voice. Empty means synthesizer
// default.
func (e *Engine) pickVoice(ctx context.Context, language string) string {
	e.voicesOnce.Do(func() {
		voices, err := e.synth.Voices(ctx)
		if err != nil {
			e.logger.Debug("voice listing unavailable", "error", err)
			return
		}
		e.voices = voices
	})

	primary, _, _ := strings.Cut(language, "-")
	var subtagMatch, anyLanguage string
	for _, v := range e.voices {
		switch {
		case language != "" && v.Language == language:
			return v.Name
		case primary != "" && strings.HasPrefix(v.Language, primary) && subtagMatch == "":
			subtagMatch = v.Name
		case v.Language == "" && anyLanguage == "":
			anyLanguage = v.Name
		}
	}
	if subtagMatch != "" {
		return subtagMatch
	}
	return anyLanguage
}

func report(onError func(error), err error) {
	if onError != nil {
		onError(err)
	}
}

// utterance tracks one playback run. Pausing installs a gate channel the
// worker blocks on between chunks; resuming closes it.
type utterance struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	gate chan struct{}
}

func newUtterance() *utterance {
	ctx, cancel := context.WithCancel(context.Background())
	return &utterance{ctx: ctx, cancel: cancel}
}

func (u *utterance) pause() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.gate == nil {
		u.gate = make(chan struct{})
	}
}

func (u *utterance) resume() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.gate != nil {
		close(u.gate)
		u.gate = nil
	}
}

// waitIfPaused blocks while the gate is installed. It reports false once the
// utterance is cancelled.
func (u *utterance) waitIfPaused() bool {
	u.mu.Lock()
	gate := u.gate
	u.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-u.ctx.Done():
			return false
		}
	}
	return u.ctx.Err() == nil
}
