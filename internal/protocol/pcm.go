package protocol

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/domain"
)

// AppendF32LE appends samples to dst as little-endian IEEE-754 float32.
func AppendF32LE(dst []byte, samples []float32) []byte {
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(s))
	}
	return dst
}

// DecodeF32LE converts f32le bytes back to samples. The length must be a
// multiple of four.
func DecodeF32LE(b []byte) ([]float32, error) {
	if len(b)%domain.BytesPerSample != 0 {
		return nil, fmt.Errorf("f32le: %d bytes is not a whole number of samples", len(b))
	}
	out := make([]float32, len(b)/domain.BytesPerSample)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}
