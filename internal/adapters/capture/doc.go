// Package capture provides the audio capturers behind ports.Capturer:
//
//   - PulseCapturer records the output of one application from its
//     PulseAudio/PipeWire sink monitor as interleaved stereo float32.
//   - PortAudioCapturer taps the default input device as mono float32.
//     It needs cgo and is only built with -tags portaudio.
//   - ReaderCapturer decodes f32le samples from any io.Reader (a FIFO,
//     a file or stdin).
//   - CommandCapturer runs a helper process and reads f32le from its stdout.
//
// All capturers deliver at 48 kHz; none of them resample.
package capture
