package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/domain"
	"github.com/theved-ai/ved-audio-ingestion-poc-app/internal/ports"
)

// CommandCapturer runs a helper process that writes interleaved f32le to
// stdout. Each stderr line is logged at debug level.
type CommandCapturer struct {
	path     string
	args     []string
	channels int
	frames   int
	logger   ports.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	reader *ReaderCapturer
	waited chan struct{}
}

// NewCommandCapturer creates a capturer for the helper at path.
func NewCommandCapturer(path string, args []string, channels, frames int, logger ports.Logger) *CommandCapturer {
	return &CommandCapturer{
		path:     path,
		args:     args,
		channels: channels,
		frames:   frames,
		logger:   logger,
	}
}

// Probe implements ports.Prober.
func (c *CommandCapturer) Probe(ctx context.Context) error {
	if _, err := exec.LookPath(c.path); err != nil {
		return fmt.Errorf("%w: helper %s: %v", domain.ErrSourceUnavailable, c.path, err)
	}
	return nil
}

// Start implements ports.Capturer.
func (c *CommandCapturer) Start(ctx context.Context, deliver func([]float32)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cmd != nil {
		return nil
	}

	// stdout uses a plain pipe so Wait does not close it under the reader.
	pr, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("helper stdout: %w", err)
	}
	cmd := exec.Command(c.path, c.args...)
	cmd.Stdout = pw
	stderr, err := cmd.StderrPipe()
	if err != nil {
		pr.Close()
		pw.Close()
		return fmt.Errorf("helper stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return fmt.Errorf("start helper %s: %w", c.path, err)
	}
	pw.Close()

	reader := newReaderCapturer(c.path, "", func() (io.ReadCloser, error) {
		return pr, nil
	}, c.channels, c.frames, c.logger)
	if err := reader.Start(ctx, deliver); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		pr.Close()
		return err
	}

	c.cmd, c.reader, c.waited = cmd, reader, make(chan struct{})
	go c.logStderr(stderr)
	go c.wait(cmd, c.waited)

	c.logger.Info("helper started",
		ports.String("path", c.path),
		ports.Int("pid", cmd.Process.Pid),
	)
	return nil
}

// Stop implements ports.Capturer. The helper is killed; its exit status
// is not reported.
func (c *CommandCapturer) Stop() error {
	c.mu.Lock()
	cmd, reader, waited := c.cmd, c.reader, c.waited
	c.cmd, c.reader, c.waited = nil, nil, nil
	c.mu.Unlock()

	if cmd == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		c.logger.Warn("failed to kill helper", ports.Err(err))
	}
	<-waited
	_ = reader.Stop()
	c.logger.Info("helper stopped", ports.String("path", c.path))
	return nil
}

func (c *CommandCapturer) wait(cmd *exec.Cmd, waited chan struct{}) {
	defer close(waited)
	if err := cmd.Wait(); err != nil {
		c.logger.Debug("helper exited", ports.String("path", c.path), ports.Err(err))
	}
}

func (c *CommandCapturer) logStderr(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		c.logger.Debug("helper", ports.String("stderr", sc.Text()))
	}
}

var (
	_ ports.Capturer = (*CommandCapturer)(nil)
	_ ports.Prober   = (*CommandCapturer)(nil)
)
