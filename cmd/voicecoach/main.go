// Command voicecoach holds a voice conversation with GUARDIAN from the
// terminal, using Ogg/Opus files in place of a microphone and speaker.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"guardian/internal/catalog"
	"guardian/internal/config"
	"guardian/internal/logger"
	"guardian/internal/voice"
	"guardian/internal/voice/rtc"
)

type printer struct{}

func (printer) Status(text string)           { fmt.Println("[status]", text) }
func (printer) State(s voice.State)          { slog.Debug("voice state", "state", s.String()) }
func (printer) Transcript(role, text string) { fmt.Printf("%s: %s\n", role, text) }
func (printer) Unknown(eventType string)     { fmt.Println("[event]", eventType) }

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "voicecoach:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("voicecoach", flag.ContinueOnError)
	server := fs.String("server", "http://localhost:9871", "GUARDIAN server base URL")
	token := fs.String("token", os.Getenv("GUARDIAN_TOKEN"), "JWT from /api/login")
	lang := fs.String("lang", "en", "conversation language code")
	mic := fs.String("mic", "", "Ogg/Opus file streamed as the microphone")
	out := fs.String("out", "reply.ogg", "Ogg file the coach's voice is written to")
	realtime := fs.String("realtime", "", "realtime upstream base URL (default from config)")
	stun := fs.String("stun", "", "optional STUN server, e.g. stun:stun.l.google.com:19302")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Load("")
	logger.Init(config.LogConfig{Level: cfg.Log.Level, Console: true})

	if *token == "" || *mic == "" {
		return errors.New("usage: voicecoach -token <jwt> -mic input.ogg [-lang en] [-out reply.ogg]")
	}
	if *realtime == "" {
		*realtime = cfg.Realtime.BaseURL
	}

	language := catalog.Default().Language(*lang)
	var peerCfg rtc.Config
	if *stun != "" {
		peerCfg.ICEServers = []string{*stun}
	}

	sess := voice.New(voice.Options{
		Language:           language.Code,
		Greeting:           language.Greeting,
		Voice:              cfg.Realtime.Voice,
		Model:              cfg.Realtime.Model,
		TranscriptionModel: cfg.Realtime.TranscriptionModel,
		VADThreshold:       cfg.Realtime.VADThreshold,
		PrefixPaddingMS:    cfg.Realtime.PrefixPaddingMS,
		SilenceDurationMS:  cfg.Realtime.SilenceDurationMS,
	}, voice.Deps{
		Mic: &rtc.OggMicrophone{Path: *mic},
		NewPeer: func() (voice.Peer, error) {
			p, err := rtc.NewPeer(peerCfg)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
		Player:   rtc.NewOggRecorder(*out),
		Tokens:   voice.NewHTTPTokenSource(*server, *token),
		SDP:      voice.NewHTTPSDPExchanger(*realtime),
		Observer: printer{},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Interrupting a stalled negotiation is the only way to abandon it.
	if err := sess.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	<-ctx.Done()
	sess.Disconnect()
	slog.Info("voice session closed", "recording", *out)
	return nil
}
