package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/domain"
)

// Event types.
const (
	EventInit            = "init"
	EventAudioChunk      = "audio_chunk"
	EventCloseConnection = "close_connection"
)

// StatusSuccess is the only acknowledgment status that opens a session.
const StatusSuccess = "SUCCESS"

// Envelope is the outer shape of every outbound message.
type Envelope struct {
	EventType string      `json:"event_type"`
	Payload   interface{} `json:"payload"`
}

// Identity names the caller on every message.
type Identity struct {
	InputDataSource string `json:"input_data_source"`
	UserID          string `json:"user_id"`
}

// InitPayload is sent once per session to request a session id.
type InitPayload struct {
	Identity
}

// AudioChunkPayload carries one flush interval of audio.
type AudioChunkPayload struct {
	Identity
	RawDataID       string `json:"raw_data_id"`
	AudioFormat     string `json:"audio_format"`
	AudioChunkIndex int    `json:"audio_chunk_index"`
	AudioBlob       string `json:"audio_blob"`
}

// ClosePayload ends a session.
type ClosePayload struct {
	Identity
	RawDataID string `json:"raw_data_id"`
}

// Ack is the server reply to init.
type Ack struct {
	Status    string `json:"status"`
	RawDataID string `json:"raw_data_id"`
}

// EncodeInit builds an init message.
func EncodeInit(id Identity) ([]byte, error) {
	return json.Marshal(Envelope{EventType: EventInit, Payload: InitPayload{Identity: id}})
}

// EncodeAudioChunk builds an audio_chunk message from raw f32le bytes.
func EncodeAudioChunk(id Identity, rawDataID string, index int, pcm []byte) ([]byte, error) {
	return json.Marshal(Envelope{
		EventType: EventAudioChunk,
		Payload: AudioChunkPayload{
			Identity:        id,
			RawDataID:       rawDataID,
			AudioFormat:     domain.AudioFormat,
			AudioChunkIndex: index,
			AudioBlob:       base64.StdEncoding.EncodeToString(pcm),
		},
	})
}

// EncodeClose builds a close_connection message.
func EncodeClose(id Identity, rawDataID string) ([]byte, error) {
	return json.Marshal(Envelope{
		EventType: EventCloseConnection,
		Payload:   ClosePayload{Identity: id, RawDataID: rawDataID},
	})
}

// ParseAck decodes an init acknowledgment and returns the session id.
// Anything other than a SUCCESS status with a non-empty raw_data_id is
// reported as domain.ErrMalformedAck.
func ParseAck(data []byte) (string, error) {
	var ack Ack
	if err := json.Unmarshal(data, &ack); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrMalformedAck, err)
	}
	if ack.Status != StatusSuccess {
		return "", fmt.Errorf("%w: status %q", domain.ErrMalformedAck, ack.Status)
	}
	if ack.RawDataID == "" {
		return "", fmt.Errorf("%w: empty raw_data_id", domain.ErrMalformedAck)
	}
	return ack.RawDataID, nil
}

// DecodeAudioChunk parses an audio_chunk message and returns its payload
// together with the decoded samples.
func DecodeAudioChunk(data []byte) (AudioChunkPayload, []float32, error) {
	var env struct {
		EventType string            `json:"event_type"`
		Payload   AudioChunkPayload `json:"payload"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return AudioChunkPayload{}, nil, err
	}
	if env.EventType != EventAudioChunk {
		return AudioChunkPayload{}, nil, fmt.Errorf("unexpected event type %q", env.EventType)
	}
	raw, err := base64.StdEncoding.DecodeString(env.Payload.AudioBlob)
	if err != nil {
		return AudioChunkPayload{}, nil, fmt.Errorf("decode audio_blob: %w", err)
	}
	samples, err := DecodeF32LE(raw)
	if err != nil {
		return AudioChunkPayload{}, nil, err
	}
	return env.Payload, samples, nil
}

// EventType extracts event_type from any envelope.
func EventType(data []byte) (string, error) {
	var env struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return "", err
	}
	return env.EventType, nil
}
