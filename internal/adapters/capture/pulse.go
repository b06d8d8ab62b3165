package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/domain"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/ports"
)

const pulseClientName = "audioship"

// PulseCapturer records the sink an application plays into.
//
// PulseAudio has no per-stream monitor, so the whole sink the target plays
// on is recorded. Other applications on the same sink are captured too.
type PulseCapturer struct {
	target       string
	blockSamples int
	fragmentSize uint32
	logger       ports.Logger

	mu     sync.Mutex
	client *pulse.Client
	stream *pulse.RecordStream
}

// NewPulseCapturer creates a capturer for the application named target.
// Delivered blocks always hold framesPerBlock stereo frames so they pair
// with microphone blocks of the same length.
func NewPulseCapturer(target string, framesPerBlock int, logger ports.Logger) *PulseCapturer {
	if framesPerBlock <= 0 {
		framesPerBlock = domain.MicBlockFrames
	}
	return &PulseCapturer{
		target:       target,
		blockSamples: framesPerBlock * 2,
		fragmentSize: uint32(framesPerBlock * 2 * domain.BytesPerSample),
		logger:       logger,
	}
}

// Probe implements ports.Prober.
func (p *PulseCapturer) Probe(ctx context.Context) error {
	c, err := pulse.NewClient(pulse.ClientApplicationName(pulseClientName))
	if err != nil {
		return fmt.Errorf("%w: pulse connect: %v", domain.ErrSourceUnavailable, err)
	}
	defer c.Close()

	_, err = p.findSink(c)
	return err
}

// Start implements ports.Capturer.
func (p *PulseCapturer) Start(ctx context.Context, deliver func([]float32)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream != nil {
		return nil
	}

	c, err := pulse.NewClient(pulse.ClientApplicationName(pulseClientName))
	if err != nil {
		return fmt.Errorf("pulse connect: %w", err)
	}

	sink, err := p.findSink(c)
	if err != nil {
		c.Close()
		return err
	}

	blocks := newBlockBuffer(p.blockSamples, deliver)
	writer := pulse.Float32Writer(func(buf []float32) (int, error) {
		blocks.write(buf)
		return len(buf), nil
	})
	stream, err := c.NewRecord(writer,
		pulse.RecordMonitor(sink),
		pulse.RecordStereo,
		pulse.RecordSampleRate(domain.SampleRate),
		pulse.RecordBufferFragmentSize(p.fragmentSize),
	)
	if err != nil {
		c.Close()
		return fmt.Errorf("pulse record: %w", err)
	}
	stream.Start()

	p.client, p.stream = c, stream
	p.logger.Info("application capture started",
		ports.String("target", p.target),
		ports.String("sink", sink.ID()),
	)
	return nil
}

// Stop implements ports.Capturer.
func (p *PulseCapturer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		return nil
	}
	p.stream.Stop()
	p.stream.Close()
	p.client.Close()
	p.stream, p.client = nil, nil
	p.logger.Info("application capture stopped", ports.String("target", p.target))
	return nil
}

// findSink locates the sink the target application is playing on.
func (p *PulseCapturer) findSink(c *pulse.Client) (*pulse.Sink, error) {
	var inputs proto.GetSinkInputInfoListReply
	if err := c.RawRequest(&proto.GetSinkInputInfoList{}, &inputs); err != nil {
		return nil, fmt.Errorf("%w: list sink inputs: %v", domain.ErrSourceUnavailable, err)
	}

	index, err := sinkIndexFor(inputs, p.target)
	if err != nil {
		return nil, err
	}
	var info proto.GetSinkInfoReply
	if err := c.RawRequest(&proto.GetSinkInfo{SinkIndex: index}, &info); err != nil {
		return nil, fmt.Errorf("%w: sink %d: %v", domain.ErrSourceUnavailable, index, err)
	}
	sink, err := c.SinkByID(info.SinkName)
	if err != nil {
		return nil, fmt.Errorf("%w: sink %s: %v", domain.ErrSourceUnavailable, info.SinkName, err)
	}
	return sink, nil
}

// sinkIndexFor returns the sink of the first stream owned by target.
func sinkIndexFor(inputs []*proto.GetSinkInputInfoReply, target string) (uint32, error) {
	for _, in := range inputs {
		if in == nil {
			continue
		}
		if MatchesApp(propStrings(in.Properties), target) {
			return in.SinkIndex, nil
		}
	}
	return 0, fmt.Errorf("%w: app %s not running", domain.ErrSourceUnavailable, target)
}

func propStrings(pl proto.PropList) map[string]string {
	out := make(map[string]string, len(pl))
	for k, v := range pl {
		out[k] = v.String()
	}
	return out
}

var (
	_ ports.Capturer = (*PulseCapturer)(nil)
	_ ports.Prober   = (*PulseCapturer)(nil)
)
