package playback

import (
	"log/slog"
	"sync"

	"smartreader/internal/ports"
)

// State is the lifecycle of a read-aloud session.
type State string

const (
	StateIdle     State = "IDLE"
	StateSpeaking State = "SPEAKING"
	StatePaused   State = "PAUSED"
)

// Machine governs a single read-aloud session on top of the shared speech
// device. It is the only component permitted to call into the device, so the
// single-utterance discipline holds without the device needing a queue.
type Machine struct {
	mu     sync.Mutex
	state  State
	gen    uint64
	device ports.SpeechDevice
	logger *slog.Logger
}

// NewMachine wires the speech device; the machine starts idle.
func NewMachine(device ports.SpeechDevice, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{state: StateIdle, device: device, logger: logger}
}

// State reports the current playback state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start begins speaking text, superseding any prior utterance: the device is
// cancelled first so two audio streams can never overlap.
func (m *Machine) Start(text string, opts ports.SpeechOptions) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.device.Cancel()
	m.gen++
	gen := m.gen
	m.state = StateSpeaking
	m.device.Speak(text, opts,
		func() { m.finished(gen) },
		func(err error) { m.failed(gen, err) },
	)
}

// TogglePause flips SPEAKING to PAUSED and back. The utterance resumes where
// it left off; it is never restarted. Idle is a no-op.
func (m *Machine) TogglePause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateSpeaking:
		m.device.Pause()
		m.state = StatePaused
	case StatePaused:
		m.device.Resume()
		m.state = StateSpeaking
	}
}

// Stop cancels the utterance outright and returns to idle. Stopping an idle
// machine is a no-op.
func (m *Machine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateIdle {
		return
	}
	m.gen++
	m.state = StateIdle
	m.device.Cancel()
}

// finished handles the device's end-of-utterance report. The generation
// check drops reports that outlive the utterance they belong to.
func (m *Machine) finished(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen || m.state == StateIdle {
		return
	}
	m.state = StateIdle
}

// failed resets to idle on a device error so the controls re-enable; no
// other session state is touched.
func (m *Machine) failed(gen uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen || m.state == StateIdle {
		return
	}
	m.logger.Warn("speech device error", "error", err)
	m.state = StateIdle
}
