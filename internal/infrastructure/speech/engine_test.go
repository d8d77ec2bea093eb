package speech

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"smartreader/internal/ports"
)

type scriptedStream struct {
	chunks chan []byte
}

func newScriptedStream() *scriptedStream {
	return &scriptedStream{chunks: make(chan []byte, 16)}
}

func (s *scriptedStream) Read(p []byte) (int, error) {
	chunk, ok := <-s.chunks
	if !ok {
		return 0, io.EOF
	}
	return copy(p, chunk), nil
}

func (s *scriptedStream) Close() error { return nil }

func (s *scriptedStream) push(data string) { s.chunks <- []byte(data) }
func (s *scriptedStream) finish()          { close(s.chunks) }

type fakeSynth struct {
	mu       sync.Mutex
	voices   []ports.Voice
	synthErr error
	streams  []*scriptedStream
	lastOpts ports.SpeechOptions
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string, opts ports.SpeechOptions) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastOpts = opts
	if f.synthErr != nil {
		return nil, f.synthErr
	}
	s := newScriptedStream()
	f.streams = append(f.streams, s)
	return s, nil
}

func (f *fakeSynth) Voices(ctx context.Context) ([]ports.Voice, error) {
	return f.voices, nil
}

func (f *fakeSynth) stream(i int) *scriptedStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streams[i]
}

func (f *fakeSynth) opts() ports.SpeechOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastOpts
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type failingSink struct{}

func (failingSink) Write(p []byte) (int, error) { return 0, errors.New("device gone") }

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSpeakPlaysToCompletion(t *testing.T) {
	t.Parallel()

	synth := &fakeSynth{}
	sink := &safeBuffer{}
	e := NewEngine(synth, sink, nil)

	done := make(chan struct{})
	e.Speak("hello", ports.SpeechOptions{}, func() { close(done) }, nil)

	waitUntil(t, "stream creation", func() bool {
		synth.mu.Lock()
		defer synth.mu.Unlock()
		return len(synth.streams) == 1
	})

	stream := synth.stream(0)
	stream.push("hel")
	stream.push("lo")
	stream.finish()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("onDone never fired")
	}

	if sink.String() != "hello" {
		t.Fatalf("sink received %q", sink.String())
	}
}

func TestPauseGatesTheSink(t *testing.T) {
	t.Parallel()

	synth := &fakeSynth{}
	sink := &safeBuffer{}
	e := NewEngine(synth, sink, nil)

	done := make(chan struct{})
	e.Speak("hello", ports.SpeechOptions{}, func() { close(done) }, nil)
	waitUntil(t, "stream creation", func() bool {
		synth.mu.Lock()
		defer synth.mu.Unlock()
		return len(synth.streams) == 1
	})

	stream := synth.stream(0)
	stream.push("one")
	waitUntil(t, "first chunk", func() bool { return sink.String() == "one" })

	e.Pause()
	stream.push("two")

	time.Sleep(50 * time.Millisecond)
	if sink.String() != "one" {
		t.Fatalf("paused engine kept playing: %q", sink.String())
	}

	e.Resume()
	waitUntil(t, "resumed chunk", func() bool { return sink.String() == "onetwo" })

	stream.finish()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("onDone never fired after resume")
	}
}

func TestCancelSilencesCallbacks(t *testing.T) {
	t.Parallel()

	synth := &fakeSynth{}
	sink := &safeBuffer{}
	e := NewEngine(synth, sink, nil)

	fired := make(chan string, 2)
	e.Speak("hello", ports.SpeechOptions{},
		func() { fired <- "done" },
		func(error) { fired <- "error" },
	)
	waitUntil(t, "stream creation", func() bool {
		synth.mu.Lock()
		defer synth.mu.Unlock()
		return len(synth.streams) == 1
	})

	e.Cancel()
	synth.stream(0).finish()

	select {
	case cb := <-fired:
		t.Fatalf("cancelled utterance fired %s", cb)
	case <-time.After(100 * time.Millisecond):
	}

	e.Cancel() // idempotent when idle
}

func TestSpeakSupersedesPriorUtterance(t *testing.T) {
	t.Parallel()

	synth := &fakeSynth{}
	sink := &safeBuffer{}
	e := NewEngine(synth, sink, nil)

	firstDone := make(chan struct{}, 1)
	e.Speak("first", ports.SpeechOptions{}, func() { firstDone <- struct{}{} }, nil)
	waitUntil(t, "first stream", func() bool {
		synth.mu.Lock()
		defer synth.mu.Unlock()
		return len(synth.streams) == 1
	})

	secondDone := make(chan struct{})
	e.Speak("second", ports.SpeechOptions{}, func() { close(secondDone) }, nil)
	waitUntil(t, "second stream", func() bool {
		synth.mu.Lock()
		defer synth.mu.Unlock()
		return len(synth.streams) == 2
	})

	// Finishing the superseded stream must stay silent.
	synth.stream(0).finish()
	select {
	case <-firstDone:
		t.Fatal("superseded utterance reported completion")
	case <-time.After(100 * time.Millisecond):
	}

	second := synth.stream(1)
	second.push("audio")
	second.finish()
	select {
	case <-secondDone:
	case <-time.After(2 * time.Second):
		t.Fatal("live utterance never completed")
	}
}

func TestSynthesisErrorReported(t *testing.T) {
	t.Parallel()

	synth := &fakeSynth{synthErr: errors.New("quota exceeded")}
	e := NewEngine(synth, &safeBuffer{}, nil)

	errs := make(chan error, 1)
	e.Speak("hello", ports.SpeechOptions{}, nil, func(err error) { errs <- err })

	select {
	case err := <-errs:
		if err == nil {
			t.Fatal("nil error reported")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("onError never fired")
	}
}

func TestSinkErrorReported(t *testing.T) {
	t.Parallel()

	synth := &fakeSynth{}
	e := NewEngine(synth, failingSink{}, nil)

	errs := make(chan error, 1)
	e.Speak("hello", ports.SpeechOptions{}, nil, func(err error) { errs <- err })
	waitUntil(t, "stream creation", func() bool {
		synth.mu.Lock()
		defer synth.mu.Unlock()
		return len(synth.streams) == 1
	})

	synth.stream(0).push("chunk")

	select {
	case <-errs:
	case <-time.After(2 * time.Second):
		t.Fatal("onError never fired for sink failure")
	}
}

func TestVoiceSelection(t *testing.T) {
	t.Parallel()

	voices := []ports.Voice{
		{Name: "amira", Language: "ar-SA"},
		{Name: "omar", Language: "ar"},
		{Name: "alloy"},
	}

	cases := []struct {
		name string
		opts ports.SpeechOptions
		want string
	}{
		{"exact language match", ports.SpeechOptions{Language: "ar-SA"}, "amira"},
		{"primary subtag match", ports.SpeechOptions{Language: "ar-EG"}, "amira"},
		{"multilingual fallback", ports.SpeechOptions{Language: "fr-FR"}, "alloy"},
		{"explicit voice wins", ports.SpeechOptions{Language: "ar-SA", Voice: "custom"}, "custom"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			synth := &fakeSynth{voices: voices}
			e := NewEngine(synth, &safeBuffer{}, nil)

			done := make(chan struct{})
			e.Speak("hello", tc.opts, func() { close(done) }, nil)
			waitUntil(t, "stream creation", func() bool {
				synth.mu.Lock()
				defer synth.mu.Unlock()
				return len(synth.streams) == 1
			})
			synth.stream(0).finish()
			<-done

			if got := synth.opts().Voice; got != tc.want {
				t.Fatalf("expected voice %q, got %q", tc.want, got)
			}
		})
	}
}
