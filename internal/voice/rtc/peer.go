// Package rtc adapts pion/webrtc to the voice session interfaces.
package rtc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"guardian/internal/logger"
	"guardian/internal/voice"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

var errForeignTrack = errors.New("track was not created by this package")

type Config struct {
	ICEServers []string
}

// Peer wraps one pion PeerConnection.
type Peer struct {
	pc  *webrtc.PeerConnection
	log *slog.Logger

	mu     sync.Mutex
	tracks []*oggTrack
	failed func()
}

var _ voice.Peer = (*Peer)(nil)

func NewPeer(cfg Config) (*Peer, error) {
	var wc webrtc.Configuration
	if len(cfg.ICEServers) > 0 {
		wc.ICEServers = []webrtc.ICEServer{{URLs: cfg.ICEServers}}
	}
	pc, err := webrtc.NewPeerConnection(wc)
	if err != nil {
		return nil, fmt.Errorf("new peer connection: %w", err)
	}
	p := &Peer{pc: pc, log: logger.With("rtc")}
	pc.OnConnectionStateChange(p.stateChanged)
	return p, nil
}

func (p *Peer) stateChanged(st webrtc.PeerConnectionState) {
	p.log.Debug("peer state", "state", st.String())
	p.mu.Lock()
	tracks, failed := p.tracks, p.failed
	p.mu.Unlock()
	switch st {
	case webrtc.PeerConnectionStateConnected:
		for _, t := range tracks {
			t.start()
		}
	case webrtc.PeerConnectionStateFailed:
		if failed != nil {
			failed()
		}
	}
}

func (p *Peer) AddTrack(t voice.LocalTrack) error {
	ot, ok := t.(*oggTrack)
	if !ok {
		return errForeignTrack
	}
	sender, err := p.pc.AddTrack(ot.track)
	if err != nil {
		return err
	}
	// Drain RTCP so interceptors keep running.
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()
	p.mu.Lock()
	p.tracks = append(p.tracks, ot)
	p.mu.Unlock()
	return nil
}

func (p *Peer) OnTrack(fn func(voice.RemoteTrack)) {
	p.pc.OnTrack(func(tr *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		if tr.Kind() != webrtc.RTPCodecTypeAudio {
			return
		}
		p.log.Info("remote track", "codec", tr.Codec().MimeType)
		fn(remoteTrack{tr})
	})
}

func (p *Peer) OnFailed(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed = fn
}

func (p *Peer) CreateDataChannel(label string) (voice.DataChannel, error) {
	dc, err := p.pc.CreateDataChannel(label, nil)
	if err != nil {
		return nil, err
	}
	return &dataChannel{dc: dc}, nil
}

// CreateOffer waits for ICE gathering so the returned SDP carries every
// candidate; the upstream does not accept trickled candidates.
func (p *Peer) CreateOffer(ctx context.Context) (string, error) {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return "", err
	}
	gathered := webrtc.GatheringCompletePromise(p.pc)
	if err := p.pc.SetLocalDescription(offer); err != nil {
		return "", err
	}
	select {
	case <-gathered:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return p.pc.LocalDescription().SDP, nil
}

func (p *Peer) SetAnswer(sdp string) error {
	return p.pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: sdp})
}

func (p *Peer) Close() error {
	return p.pc.Close()
}

type remoteTrack struct {
	tr *webrtc.TrackRemote
}

func (r remoteTrack) ReadRTP() (*rtp.Packet, error) {
	pkt, _, err := r.tr.ReadRTP()
	return pkt, err
}

type dataChannel struct {
	dc *webrtc.DataChannel
}

func (d *dataChannel) OnOpen(fn func()) { d.dc.OnOpen(fn) }

func (d *dataChannel) OnMessage(fn func([]byte)) {
	d.dc.OnMessage(func(msg webrtc.DataChannelMessage) { fn(msg.Data) })
}

func (d *dataChannel) Send(data []byte) error { return d.dc.Send(data) }
func (d *dataChannel) Close() error           { return d.dc.Close() }
