package voice

import (
	"encoding/json"
	"fmt"
)

// ServerEvent is one message received on the realtime data channel. The set
// of implementations is closed; anything unrecognised becomes UnknownEvent.
type ServerEvent interface {
	serverEvent()
}

type (
	AudioStarted  struct{}
	AudioDone     struct{}
	ResponseDone  struct{}
	SpeechStarted struct{}
	SpeechStopped struct{}

	UserTranscript struct {
		Text string
	}
	AssistantTranscript struct {
		Text string
	}
	ServerError struct {
		Message string
	}
	UnknownEvent struct {
		Type string
		Raw  json.RawMessage
	}
)

func (AudioStarted) serverEvent()        {}
func (AudioDone) serverEvent()           {}
func (ResponseDone) serverEvent()        {}
func (SpeechStarted) serverEvent()       {}
func (SpeechStopped) serverEvent()       {}
func (UserTranscript) serverEvent()      {}
func (AssistantTranscript) serverEvent() {}
func (ServerError) serverEvent()         {}
func (UnknownEvent) serverEvent()        {}

type wireEvent struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript"`
	Error      *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ParseServerEvent decodes a data channel message by its type tag.
func ParseServerEvent(data []byte) (ServerEvent, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode server event: %w", err)
	}
	switch w.Type {
	case "response.audio.started", "output_audio_buffer.started":
		return AudioStarted{}, nil
	case "response.audio.done", "output_audio_buffer.stopped":
		return AudioDone{}, nil
	case "response.done":
		return ResponseDone{}, nil
	case "input_audio_buffer.speech_started":
		return SpeechStarted{}, nil
	case "input_audio_buffer.speech_stopped":
		return SpeechStopped{}, nil
	case "conversation.item.input_audio_transcription.completed":
		return UserTranscript{Text: w.Transcript}, nil
	case "response.audio_transcript.done":
		return AssistantTranscript{Text: w.Transcript}, nil
	case "error":
		msg := "Unknown error"
		if w.Error != nil && w.Error.Message != "" {
			msg = w.Error.Message
		}
		return ServerError{Message: msg}, nil
	default:
		return UnknownEvent{Type: w.Type, Raw: append(json.RawMessage(nil), data...)}, nil
	}
}
