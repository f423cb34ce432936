// Package voice drives a realtime duplex audio session with the voice coach:
// microphone capture, an ephemeral credential from the server, a WebRTC peer
// with one outbound and one inbound audio track, and a JSON event channel.
package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"guardian/internal/logger"

	"github.com/pion/rtp"
)

type State int

const (
	Idle State = iota
	AcquiringMic
	RequestingToken
	Negotiating
	Connected
	Listening
	AISpeaking

	keepState State = -1
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AcquiringMic:
		return "acquiring_mic"
	case RequestingToken:
		return "requesting_token"
	case Negotiating:
		return "negotiating"
	case Connected:
		return "connected"
	case Listening:
		return "listening"
	case AISpeaking:
		return "ai_speaking"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

const (
	StatusRequestingMic = "Requesting microphone access..."
	StatusConnecting    = "Connecting to GUARDIAN..."
	StatusConnected     = "Connected - Speak naturally"
	StatusAISpeaking    = "GUARDIAN is speaking..."
	StatusListening     = "Listening..."
	StatusUserSpeaking  = "You are speaking..."
	StatusProcessing    = "Processing..."
	StatusDisconnected  = "Disconnected"

	EventsChannel = "oai-events"

	DefaultGreeting = "Hello, I'm GUARDIAN, your wellness coach. How are you feeling today?"
)

var (
	ErrAlreadyActive = errors.New("voice session already active")
	ErrDisconnected  = errors.New("voice session disconnected")
	errPeerFailed    = errors.New("connection failed")
)

// Constraints are the capture settings requested from the microphone.
type Constraints struct {
	EchoCancellation bool
	NoiseSuppression bool
	SampleRate       int
}

type Microphone interface {
	Open(ctx context.Context, c Constraints) ([]LocalTrack, error)
}

type LocalTrack interface {
	SetEnabled(enabled bool)
	Stop()
}

// RemoteTrack is an inbound media track delivered by the peer.
type RemoteTrack interface {
	ReadRTP() (*rtp.Packet, error)
}

type Peer interface {
	AddTrack(t LocalTrack) error
	OnTrack(fn func(RemoteTrack))
	OnFailed(fn func())
	CreateDataChannel(label string) (DataChannel, error)
	// CreateOffer sets the local description and returns its SDP.
	CreateOffer(ctx context.Context) (string, error)
	SetAnswer(sdp string) error
	Close() error
}

type DataChannel interface {
	OnOpen(fn func())
	OnMessage(fn func(data []byte))
	Send(data []byte) error
	Close() error
}

// Player renders the inbound speech track.
type Player interface {
	Attach(t RemoteTrack)
	SetMuted(muted bool)
	Detach()
}

type ClientSecret struct {
	Value     string `json:"value"`
	ExpiresAt int64  `json:"expires_at"`
}

type TokenSource interface {
	NewSession(ctx context.Context, language, instructions string) (ClientSecret, error)
}

type SDPExchanger interface {
	Exchange(ctx context.Context, model, secret, offer string) (string, error)
}

type Observer interface {
	Status(text string)
	State(s State)
	Transcript(role, text string)
	Unknown(eventType string)
}

type Options struct {
	Language           string
	Instructions       string
	Greeting           string
	Voice              string
	Model              string
	TranscriptionModel string
	VADThreshold       float64
	PrefixPaddingMS    int
	SilenceDurationMS  int
	GreetingDelay      time.Duration
}

func (o *Options) defaults() {
	if o.Language == "" {
		o.Language = "en"
	}
	if o.Greeting == "" {
		o.Greeting = DefaultGreeting
	}
	if o.Voice == "" {
		o.Voice = "alloy"
	}
	if o.Model == "" {
		o.Model = "gpt-4o-realtime-preview-2024-12-17"
	}
	if o.TranscriptionModel == "" {
		o.TranscriptionModel = "whisper-1"
	}
	if o.VADThreshold == 0 {
		o.VADThreshold = 0.5
	}
	if o.PrefixPaddingMS == 0 {
		o.PrefixPaddingMS = 300
	}
	if o.SilenceDurationMS == 0 {
		o.SilenceDurationMS = 500
	}
	if o.GreetingDelay == 0 {
		o.GreetingDelay = 500 * time.Millisecond
	}
}

type Deps struct {
	Mic      Microphone
	NewPeer  func() (Peer, error)
	Player   Player
	Tokens   TokenSource
	SDP      SDPExchanger
	Observer Observer
	Log      *slog.Logger
}

// Session owns every handle of one voice conversation. All handles are
// released by Disconnect or by the first fatal error.
type Session struct {
	opts Options
	deps Deps
	log  *slog.Logger

	mu         sync.Mutex
	gen        uint64
	state      State
	status     string
	tracks     []LocalTrack
	peer       Peer
	dc         DataChannel
	attached   bool
	greet      *time.Timer
	muted      bool
	speakerOff bool
}

func New(opts Options, deps Deps) *Session {
	opts.defaults()
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	if deps.Log == nil {
		deps.Log = logger.With("voice")
	}
	return &Session{opts: opts, deps: deps, log: deps.Log}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// ActiveTracks is the number of local tracks not yet stopped.
func (s *Session) ActiveTracks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tracks)
}

func (s *Session) HasPeer() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peer != nil
}

// Connect walks the session from Idle to Connected. On any failure it tears
// everything down, reports "Error: <msg>" and returns the error.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return ErrAlreadyActive
	}
	s.gen++
	gen := s.gen
	s.state, s.status = AcquiringMic, StatusRequestingMic
	s.mu.Unlock()
	s.deps.Observer.State(AcquiringMic)
	s.deps.Observer.Status(StatusRequestingMic)

	if err := s.connect(ctx, gen); err != nil {
		if s.teardown(gen) {
			s.notify(Idle, "Error: "+err.Error())
		}
		s.log.Warn("voice connect failed", "err", err)
		return err
	}
	return nil
}

func (s *Session) connect(ctx context.Context, gen uint64) error {
	tracks, err := s.deps.Mic.Open(ctx, Constraints{EchoCancellation: true, NoiseSuppression: true, SampleRate: 24000})
	if err != nil {
		return fmt.Errorf("microphone: %w", err)
	}
	if !s.adopt(gen, func() { s.tracks = tracks }) {
		for _, t := range tracks {
			t.Stop()
		}
		return ErrDisconnected
	}
	if s.isMuted() {
		for _, t := range tracks {
			t.SetEnabled(false)
		}
	}

	if !s.transition(gen, RequestingToken, StatusConnecting) {
		return ErrDisconnected
	}
	secret, err := s.deps.Tokens.NewSession(ctx, s.opts.Language, s.opts.Instructions)
	if err != nil {
		return fmt.Errorf("session token: %w", err)
	}

	if !s.transition(gen, Negotiating, "") {
		return ErrDisconnected
	}
	peer, err := s.deps.NewPeer()
	if err != nil {
		return fmt.Errorf("peer connection: %w", err)
	}
	if !s.adopt(gen, func() { s.peer = peer }) {
		_ = peer.Close()
		return ErrDisconnected
	}
	peer.OnTrack(func(t RemoteTrack) { s.attach(gen, t) })
	peer.OnFailed(func() { s.fail(gen, errPeerFailed) })
	for _, t := range tracks {
		if err := peer.AddTrack(t); err != nil {
			return fmt.Errorf("add track: %w", err)
		}
	}

	dc, err := peer.CreateDataChannel(EventsChannel)
	if err != nil {
		return fmt.Errorf("data channel: %w", err)
	}
	if !s.adopt(gen, func() { s.dc = dc }) {
		_ = dc.Close()
		return ErrDisconnected
	}
	dc.OnOpen(func() { s.onOpen(gen) })
	dc.OnMessage(func(data []byte) { s.handle(gen, data) })

	offer, err := peer.CreateOffer(ctx)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	answer, err := s.deps.SDP.Exchange(ctx, s.opts.Model, secret.Value, offer)
	if err != nil {
		return err
	}
	if err := peer.SetAnswer(answer); err != nil {
		return fmt.Errorf("set answer: %w", err)
	}
	if !s.transition(gen, Connected, StatusConnected) {
		return ErrDisconnected
	}
	return nil
}

// Disconnect releases every handle and returns to Idle. Calling it again,
// or while Idle, does nothing.
func (s *Session) Disconnect() {
	if s.teardown(0) {
		s.notify(Idle, StatusDisconnected)
	}
}

// SetMuted toggles the outbound tracks without renegotiating.
func (s *Session) SetMuted(muted bool) {
	s.mu.Lock()
	s.muted = muted
	tracks := append([]LocalTrack(nil), s.tracks...)
	s.mu.Unlock()
	for _, t := range tracks {
		t.SetEnabled(!muted)
	}
}

// SetSpeaker mutes or unmutes local playback only.
func (s *Session) SetSpeaker(enabled bool) {
	s.mu.Lock()
	s.speakerOff = !enabled
	s.mu.Unlock()
	if s.deps.Player != nil {
		s.deps.Player.SetMuted(!enabled)
	}
}

func (s *Session) isMuted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// adopt runs fn under the lock if gen is still the live generation.
func (s *Session) adopt(gen uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	fn()
	return true
}

// transition moves to st and, when status is non-empty, sets the status
// text. It reports false when gen has been torn down.
func (s *Session) transition(gen uint64, st State, status string) bool {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return false
	}
	s.state = st
	if status != "" {
		s.status = status
	}
	s.mu.Unlock()
	s.deps.Observer.State(st)
	if status != "" {
		s.deps.Observer.Status(status)
	}
	return true
}

// apply handles a server event on a connected session. A negative st keeps
// the current state.
func (s *Session) apply(gen uint64, st State, status string) {
	s.mu.Lock()
	if s.gen != gen || s.state < Connected {
		s.mu.Unlock()
		return
	}
	if st >= 0 {
		s.state = st
	}
	s.status = status
	s.mu.Unlock()
	if st >= 0 {
		s.deps.Observer.State(st)
	}
	s.deps.Observer.Status(status)
}

func (s *Session) notify(st State, status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	s.deps.Observer.State(st)
	s.deps.Observer.Status(status)
}

// teardown detaches every handle under the lock and closes them outside it,
// in order: data channel, peer, local tracks, player. gen 0 matches any live
// session. It reports whether anything was torn down.
func (s *Session) teardown(gen uint64) bool {
	s.mu.Lock()
	if (gen != 0 && s.gen != gen) || (s.state == Idle && s.peer == nil && len(s.tracks) == 0) {
		s.mu.Unlock()
		return false
	}
	dc, peer, tracks, attached := s.dc, s.peer, s.tracks, s.attached
	s.dc, s.peer, s.tracks, s.attached = nil, nil, nil, false
	if s.greet != nil {
		s.greet.Stop()
		s.greet = nil
	}
	s.state = Idle
	s.gen++
	s.mu.Unlock()

	if dc != nil {
		if err := dc.Close(); err != nil {
			s.log.Debug("close data channel", "err", err)
		}
	}
	if peer != nil {
		if err := peer.Close(); err != nil {
			s.log.Debug("close peer", "err", err)
		}
	}
	for _, t := range tracks {
		t.Stop()
	}
	if attached && s.deps.Player != nil {
		s.deps.Player.Detach()
	}
	return true
}

func (s *Session) fail(gen uint64, err error) {
	if s.teardown(gen) {
		s.log.Warn("voice session failed", "err", err)
		s.notify(Idle, "Error: "+err.Error())
	}
}

func (s *Session) attach(gen uint64, t RemoteTrack) {
	if s.deps.Player == nil {
		return
	}
	var speakerOff bool
	if !s.adopt(gen, func() { s.attached, speakerOff = true, s.speakerOff }) {
		return
	}
	s.deps.Player.Attach(t)
	if speakerOff {
		s.deps.Player.SetMuted(true)
	}
}

func (s *Session) onOpen(gen uint64) {
	if err := s.send(gen, newSessionUpdate(s.opts)); err != nil {
		s.log.Warn("send session.update", "err", err)
		return
	}
	s.adopt(gen, func() {
		s.greet = time.AfterFunc(s.opts.GreetingDelay, func() {
			if err := s.send(gen, newGreeting(s.opts.Greeting)); err != nil {
				s.log.Warn("send greeting", "err", err)
			}
		})
	})
}

func (s *Session) send(gen uint64, msg any) error {
	var dc DataChannel
	if !s.adopt(gen, func() { dc = s.dc }) || dc == nil {
		return ErrDisconnected
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return dc.Send(data)
}

func (s *Session) handle(gen uint64, data []byte) {
	ev, err := ParseServerEvent(data)
	if err != nil {
		s.log.Warn("bad server event", "err", err)
		return
	}
	switch e := ev.(type) {
	case AudioStarted:
		s.apply(gen, AISpeaking, StatusAISpeaking)
	case AudioDone, ResponseDone:
		s.apply(gen, Listening, StatusListening)
	case SpeechStarted:
		s.apply(gen, Listening, StatusUserSpeaking)
	case SpeechStopped:
		s.apply(gen, keepState, StatusProcessing)
	case UserTranscript:
		s.transcript(gen, "user", e.Text)
	case AssistantTranscript:
		s.transcript(gen, "assistant", e.Text)
	case ServerError:
		s.log.Warn("realtime error", "message", e.Message)
		s.apply(gen, keepState, "Error: "+e.Message)
	case UnknownEvent:
		s.log.Warn("unhandled realtime event", "type", e.Type)
		s.deps.Observer.Unknown(e.Type)
	}
}

func (s *Session) transcript(gen uint64, role, text string) {
	if text == "" || !s.adopt(gen, func() {}) {
		return
	}
	s.deps.Observer.Transcript(role, text)
}

type nopObserver struct{}

func (nopObserver) Status(string)             {}
func (nopObserver) State(State)               {}
func (nopObserver) Transcript(string, string) {}
func (nopObserver) Unknown(string)            {}
