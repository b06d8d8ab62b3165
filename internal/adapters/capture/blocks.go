package capture

// blockBuffer cuts a stream of interleaved samples into fixed-size blocks.
// PulseAudio hands the record writer whatever the server sent, so blocks are
// rebuilt here to match the microphone block length.
type blockBuffer struct {
	size    int
	pending []float32
	deliver func([]float32)
}

func newBlockBuffer(size int, deliver func([]float32)) *blockBuffer {
	return &blockBuffer{
		size:    size,
		pending: make([]float32, 0, size),
		deliver: deliver,
	}
}

// write appends samples and delivers every complete block. The remainder is
// kept for the next call.
func (b *blockBuffer) write(samples []float32) {
	for len(samples) > 0 {
		n := b.size - len(b.pending)
		if n > len(samples) {
			n = len(samples)
		}
		b.pending = append(b.pending, samples[:n]...)
		samples = samples[n:]

		if len(b.pending) == b.size {
			block := make([]float32, b.size)
			copy(block, b.pending)
			b.pending = b.pending[:0]
			b.deliver(block)
		}
	}
}

