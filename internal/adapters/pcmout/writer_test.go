package pcmout

import (
	"bytes"
	"errors"
	"testing"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/domain"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/protocol"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/pkg/log"
)

type failingWriter struct {
	calls int
}

func (f *failingWriter) Write(p []byte) (int, error) {
	f.calls++
	return 0, errors.New("broken pipe")
}

func TestWriter_WritesF32LE(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, log.NewNoopLogger())

	w.Write(domain.FrameBlock{0.25, -0.5})
	w.Write(nil)
	w.Write(domain.FrameBlock{1})

	got, err := protocol.DecodeF32LE(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeF32LE() error = %v", err)
	}
	want := []float32{0.25, -0.5, 1}
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
	if w.Written() != 12 {
		t.Errorf("Written() = %d, want 12", w.Written())
	}
}

func TestWriter_DisablesOnError(t *testing.T) {
	fw := &failingWriter{}
	w := New(fw, log.NewNoopLogger())

	w.Write(domain.FrameBlock{0.1})
	w.Write(domain.FrameBlock{0.2})

	if !w.Disabled() {
		t.Fatal("writer should be disabled after a write error")
	}
	if fw.calls != 1 {
		t.Errorf("underlying writes = %d, want 1", fw.calls)
	}
	if w.Written() != 0 {
		t.Errorf("Written() = %d, want 0", w.Written())
	}
}
