package audio

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vozbusca/internal/ports"
)

func TestMicrophoneStartReadAndStop(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "capture.sh", "#!/usr/bin/env bash\nprintf 'pcm-bytes'\nsleep 2\n")
	mic := NewMicrophone(script, nil)

	session, err := mic.Start(context.Background(), ports.AudioConfig{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	buf := make([]byte, 16)
	n, readErr := session.Read(buf)
	if n <= 0 {
		t.Fatalf("expected audio bytes, got n=%d err=%v", n, readErr)
	}
	if !strings.Contains(string(buf[:n]), "pcm") {
		t.Fatalf("unexpected bytes: %q", string(buf[:n]))
	}

	if err := session.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := session.Close(); err != nil {
		t.Fatalf("second stop should be a no-op: %v", err)
	}
}

func TestMicrophoneStartEarlyExitIsCaptureUnavailable(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "fail.sh", "#!/usr/bin/env bash\necho 'no such device' 1>&2\nexit 1\n")
	mic := NewMicrophone(script, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := mic.Start(ctx, ports.AudioConfig{})
	if !errors.Is(err, ports.ErrAudioCaptureUnavailable) {
		t.Fatalf("expected capture unavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "exited before capture started") || !strings.Contains(err.Error(), "no such device") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMicrophoneMissingRecorder(t *testing.T) {
	t.Parallel()

	mic := NewMicrophone(filepath.Join(t.TempDir(), "missing-ffmpeg"), nil)
	_, err := mic.Start(context.Background(), ports.AudioConfig{})
	if !errors.Is(err, ports.ErrAudioCaptureUnavailable) {
		t.Fatalf("expected capture unavailable, got %v", err)
	}
}

func TestRecorderArgsApplyDefaults(t *testing.T) {
	t.Parallel()

	args := strings.Join(recorderArgs(withDefaults(ports.AudioConfig{})), " ")
	for _, want := range []string{"-f pulse", "-i default", "-ac 1", "-ar 16000", "-f s16le -"} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in args: %s", want, args)
		}
	}

	args = strings.Join(recorderArgs(withDefaults(ports.AudioConfig{InputFormat: "alsa", InputDevice: "hw:1", SampleRate: 8000, Channels: 2})), " ")
	for _, want := range []string{"-f alsa", "-i hw:1", "-ac 2", "-ar 8000"} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in args: %s", want, args)
		}
	}
}

func TestIgnoreExitStatus(t *testing.T) {
	t.Parallel()

	err := exec.Command("bash", "-c", "exit 1").Run()
	if err == nil {
		t.Fatalf("expected command to fail")
	}
	if got := ignoreExitStatus(err); got != nil {
		t.Fatalf("expected nil for exit error, got %v", got)
	}
	if got := ignoreExitStatus(os.ErrClosed); !errors.Is(got, os.ErrClosed) {
		t.Fatalf("expected other errors to pass through, got %v", got)
	}
}

func writeScript(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o700); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}
