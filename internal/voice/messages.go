package voice

// Client messages sent on the data channel.

type transcriptionConfig struct {
	Model string `json:"model"`
}

type turnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold"`
	PrefixPaddingMS   int     `json:"prefix_padding_ms"`
	SilenceDurationMS int     `json:"silence_duration_ms"`
}

type sessionConfig struct {
	Instructions            string              `json:"instructions,omitempty"`
	Voice                   string              `json:"voice"`
	InputAudioTranscription transcriptionConfig `json:"input_audio_transcription"`
	TurnDetection           turnDetection       `json:"turn_detection"`
}

type sessionUpdate struct {
	Type    string        `json:"type"`
	Session sessionConfig `json:"session"`
}

type responseConfig struct {
	Modalities   []string `json:"modalities"`
	Instructions string   `json:"instructions"`
}

type responseCreate struct {
	Type     string         `json:"type"`
	Response responseConfig `json:"response"`
}

func newSessionUpdate(o Options) sessionUpdate {
	return sessionUpdate{
		Type: "session.update",
		Session: sessionConfig{
			Instructions:            o.Instructions,
			Voice:                   o.Voice,
			InputAudioTranscription: transcriptionConfig{Model: o.TranscriptionModel},
			TurnDetection: turnDetection{
				Type:              "server_vad",
				Threshold:         o.VADThreshold,
				PrefixPaddingMS:   o.PrefixPaddingMS,
				SilenceDurationMS: o.SilenceDurationMS,
			},
		},
	}
}

func newGreeting(greeting string) responseCreate {
	return responseCreate{
		Type: "response.create",
		Response: responseConfig{
			Modalities:   []string{"text", "audio"},
			Instructions: `Say this greeting naturally: "` + greeting + `"`,
		},
	}
}
