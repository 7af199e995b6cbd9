// Package audio captures microphone PCM for the streaming transcription
// engine.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"vozbusca/internal/ports"
)

const (
	defaultStartupGrace = 250 * time.Millisecond
	defaultStopTimeout  = 1200 * time.Millisecond
)

// Microphone records signed 16-bit little-endian PCM through ffmpeg.
type Microphone struct {
	command      string
	startupGrace time.Duration
	stopTimeout  time.Duration
	logger       *zap.Logger
}

func NewMicrophone(command string, logger *zap.Logger) *Microphone {
	if strings.TrimSpace(command) == "" {
		command = "ffmpeg"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Microphone{
		command:      command,
		startupGrace: defaultStartupGrace,
		stopTimeout:  defaultStopTimeout,
		logger:       logger,
	}
}

// Start launches the recorder. Failures to find or launch the recorder wrap
// ports.ErrAudioCaptureUnavailable.
func (m *Microphone) Start(ctx context.Context, cfg ports.AudioConfig) (ports.AudioSession, error) {
	cfg = withDefaults(cfg)

	path, err := exec.LookPath(m.command)
	if err != nil {
		return nil, fmt.Errorf("%w: recorder %q not found: %v", ports.ErrAudioCaptureUnavailable, m.command, err)
	}

	cmd := exec.CommandContext(ctx, path, recorderArgs(cfg)...)
	stderr := &lockedBuffer{}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create recorder stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: failed to start recorder: %v", ports.ErrAudioCaptureUnavailable, err)
	}

	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
		close(exited)
	}()

	select {
	case err := <-exited:
		detail := stderr.Trimmed()
		if err != nil {
			return nil, fmt.Errorf("%w: recorder exited before capture started: %v: %s", ports.ErrAudioCaptureUnavailable, err, detail)
		}
		return nil, fmt.Errorf("%w: recorder exited before capture started: %s", ports.ErrAudioCaptureUnavailable, detail)
	case <-time.After(m.startupGrace):
	}

	m.logger.Debug("microphone capture started",
		zap.String("format", cfg.InputFormat),
		zap.String("device", cfg.InputDevice),
		zap.Int("sample_rate", cfg.SampleRate),
		zap.Int("channels", cfg.Channels))

	return &recording{
		stdout:      stdout,
		stderr:      stderr,
		process:     cmd.Process,
		exited:      exited,
		stopTimeout: m.stopTimeout,
	}, nil
}

func withDefaults(cfg ports.AudioConfig) ports.AudioConfig {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}
	return cfg
}

func recorderArgs(cfg ports.AudioConfig) []string {
	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"-",
	}
}

type recording struct {
	stdout io.ReadCloser
	stderr *lockedBuffer

	process     *os.Process
	exited      <-chan error
	stopTimeout time.Duration

	stopOnce sync.Once
	stopErr  error
}

func (r *recording) Read(p []byte) (int, error) {
	return r.stdout.Read(p)
}

func (r *recording) Close() error {
	return r.Stop()
}

// Stop interrupts the recorder, killing it if it does not exit in time.
// It is safe to call more than once.
func (r *recording) Stop() error {
	r.stopOnce.Do(func() {
		if r.process != nil {
			_ = r.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-r.exited:
			if ok {
				r.stopErr = ignoreExitStatus(err)
			}
		case <-time.After(r.stopTimeout):
			if r.process != nil {
				_ = r.process.Kill()
			}
			if err, ok := <-r.exited; ok {
				r.stopErr = ignoreExitStatus(err)
			}
		}

		if closeErr := r.stdout.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) && r.stopErr == nil {
			r.stopErr = closeErr
		}
		if r.stopErr != nil {
			if detail := r.stderr.Trimmed(); detail != "" {
				r.stopErr = fmt.Errorf("%w: %s", r.stopErr, detail)
			}
		}
	})

	return r.stopErr
}

// ignoreExitStatus drops non-zero exit statuses; an interrupted recorder
// exits with one.
func ignoreExitStatus(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Trimmed() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(b.buf.String())
}
