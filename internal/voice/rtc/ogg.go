package rtc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"guardian/internal/logger"
	"guardian/internal/voice"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/oggreader"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
)

const (
	opusRate     = 48000
	opusChannels = 2
	pageInterval = 20 * time.Millisecond
)

// OggMicrophone stands in for a capture device by streaming Opus pages from
// an Ogg file once the peer connects.
type OggMicrophone struct {
	Path string
}

var _ voice.Microphone = (*OggMicrophone)(nil)

func (m *OggMicrophone) Open(_ context.Context, c voice.Constraints) ([]voice.LocalTrack, error) {
	log := logger.With("rtc")
	log.Debug("file microphone ignores capture processing",
		"echo_cancellation", c.EchoCancellation, "noise_suppression", c.NoiseSuppression, "sample_rate", c.SampleRate)

	f, err := os.Open(m.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", m.Path, err)
	}
	reader, _, err := oggreader.NewWith(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read ogg header: %w", err)
	}
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: opusRate, Channels: opusChannels},
		"audio", "guardian-mic")
	if err != nil {
		f.Close()
		return nil, err
	}
	t := &oggTrack{track: track, reader: reader, file: f, stop: make(chan struct{}), log: log}
	t.enabled.Store(true)
	return []voice.LocalTrack{t}, nil
}

type oggTrack struct {
	track  *webrtc.TrackLocalStaticSample
	reader *oggreader.OggReader
	file   *os.File
	log    *slog.Logger

	enabled   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
}

func (t *oggTrack) SetEnabled(enabled bool) { t.enabled.Store(enabled) }

func (t *oggTrack) Stop() {
	t.stopOnce.Do(func() {
		close(t.stop)
		t.file.Close()
	})
}

func (t *oggTrack) start() {
	t.startOnce.Do(func() { go t.pump() })
}

// pump paces pages at real time. Pages read while disabled are dropped, so
// muting skips audio rather than buffering it.
func (t *oggTrack) pump() {
	ticker := time.NewTicker(pageInterval)
	defer ticker.Stop()
	var granule uint64
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
		}
		page, header, err := t.reader.ParseNextPage()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				t.log.Warn("read ogg page", "err", err)
			}
			return
		}
		samples := header.GranulePosition - granule
		granule = header.GranulePosition
		if !t.enabled.Load() {
			continue
		}
		d := time.Duration(samples) * time.Second / opusRate
		if err := t.track.WriteSample(media.Sample{Data: page, Duration: d}); err != nil {
			t.log.Warn("write sample", "err", err)
			return
		}
	}
}

// OggRecorder plays the coach's voice into an Ogg file.
type OggRecorder struct {
	path string
	log  *slog.Logger

	mu    sync.Mutex
	w     *oggwriter.OggWriter
	muted bool
}

var _ voice.Player = (*OggRecorder)(nil)

func NewOggRecorder(path string) *OggRecorder {
	return &OggRecorder{path: path, log: logger.With("rtc")}
}

func (r *OggRecorder) Attach(t voice.RemoteTrack) {
	r.mu.Lock()
	if r.w == nil {
		w, err := oggwriter.New(r.path, opusRate, opusChannels)
		if err != nil {
			r.mu.Unlock()
			r.log.Error("open recording", "path", r.path, "err", err)
			return
		}
		r.w = w
	}
	r.mu.Unlock()
	go r.copy(t)
}

func (r *OggRecorder) copy(t voice.RemoteTrack) {
	for {
		pkt, err := t.ReadRTP()
		if err != nil {
			return
		}
		r.mu.Lock()
		w, muted := r.w, r.muted
		if w != nil && !muted {
			err = w.WriteRTP(pkt)
		}
		r.mu.Unlock()
		if w == nil {
			return
		}
		if err != nil {
			r.log.Warn("write rtp", "err", err)
		}
	}
}

func (r *OggRecorder) SetMuted(muted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.muted = muted
}

func (r *OggRecorder) Detach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return
	}
	if err := r.w.Close(); err != nil {
		r.log.Warn("close recording", "err", err)
	}
	r.w = nil
}
