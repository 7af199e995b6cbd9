package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"vozbusca/internal/domain"
	"vozbusca/internal/ports"
)

const (
	defaultBaseURL      = "https://api.deepgram.com/v1"
	defaultModel        = "nova-2"
	defaultLanguage     = "es-419"
	defaultChunkSize    = 4096
	defaultCloseTimeout = 3 * time.Second
)

// Config controls Deepgram websocket settings.
type Config struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	Language    string
	SmartFormat bool

	// Keywords are boosted vocabulary terms, such as district names.
	Keywords []string

	Audio        ports.AudioConfig
	ChunkSize    int
	CloseTimeout time.Duration
}

// Capability implements ports.SpeechCapability on top of Deepgram's
// streaming listen endpoint and a local microphone capture.
type Capability struct {
	cfg    Config
	audio  ports.AudioCapture
	dialer *websocket.Dialer
	logger *zap.Logger

	mu     sync.Mutex
	stream *stream
}

func NewCapability(cfg Config, audio ports.AudioCapture, logger *zap.Logger) *Capability {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Language == "" {
		cfg.Language = defaultLanguage
	}
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = defaultCloseTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Capability{cfg: cfg, audio: audio, dialer: websocket.DefaultDialer, logger: logger}
}

// OpenStream connects to Deepgram, starts the microphone and begins pumping
// audio. A stream left from a previous session is aborted once the new one
// registers. Nothing registers if ctx is done by then.
func (c *Capability) OpenStream(ctx context.Context, listener ports.StreamListener) error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return fmt.Errorf("%w: DEEPGRAM_API_KEY is not configured", ports.ErrNotSupported)
	}
	if c.audio == nil {
		return fmt.Errorf("%w: no audio capture configured", ports.ErrAudioCaptureUnavailable)
	}

	wsURL, err := buildListenURL(c.cfg)
	if err != nil {
		return err
	}
	if err := requireSecure(wsURL); err != nil {
		return err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+c.cfg.APIKey)

	conn, resp, err := c.dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return fmt.Errorf("%w: deepgram rejected credentials (%s)", ports.ErrPermissionDenied, resp.Status)
		}
		return fmt.Errorf("%w: failed to connect to Deepgram websocket: %v", ports.ErrNetworkUnavailable, err)
	}

	mic, err := c.audio.Start(ctx, c.cfg.Audio)
	if err != nil {
		_ = conn.Close()
		if errors.Is(err, ports.ErrAudioCaptureUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", ports.ErrAudioCaptureUnavailable, err)
	}

	s := &stream{
		conn:         conn,
		mic:          mic,
		listener:     listener,
		chunkSize:    c.cfg.ChunkSize,
		closeTimeout: c.cfg.CloseTimeout,
		logger:       c.logger,
		done:         make(chan struct{}),
	}

	c.mu.Lock()
	if err := ctx.Err(); err != nil {
		c.mu.Unlock()
		_ = mic.Stop()
		_ = conn.Close()
		return fmt.Errorf("stream open cancelled: %w", err)
	}
	previous := c.stream
	c.stream = s
	c.mu.Unlock()

	if previous != nil {
		_ = previous.abort()
	}

	listener.StreamOpened()
	s.run(func() { c.release(s) })
	return nil
}

// CloseStream stops the microphone and asks Deepgram to flush its final
// results. StreamEnded follows once the socket closes. It returns
// ports.ErrNoStream when listener owns no live stream.
func (c *Capability) CloseStream(listener ports.StreamListener) error {
	c.mu.Lock()
	s := c.stream
	c.mu.Unlock()
	if s == nil || s.listener != listener {
		return ports.ErrNoStream
	}
	return s.finish()
}

// AbortStream tears down listener's stream and drops any further events.
func (c *Capability) AbortStream(listener ports.StreamListener) error {
	c.mu.Lock()
	s := c.stream
	if s == nil || s.listener != listener {
		c.mu.Unlock()
		return nil
	}
	c.stream = nil
	c.mu.Unlock()
	return s.abort()
}

func (c *Capability) release(s *stream) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == s {
		c.stream = nil
	}
}

type stream struct {
	conn         *websocket.Conn
	mic          ports.AudioSession
	listener     ports.StreamListener
	chunkSize    int
	closeTimeout time.Duration
	logger       *zap.Logger

	writeMu sync.Mutex
	wg      sync.WaitGroup
	done    chan struct{}

	finishing atomic.Bool
	aborted   atomic.Bool
	failed    atomic.Bool
	readDone  atomic.Bool
	sequence  int

	finishOnce sync.Once
	abortOnce  sync.Once
}

func (s *stream) run(release func()) {
	s.wg.Add(2)
	go s.pumpAudio()
	go s.readLoop()
	go func() {
		s.wg.Wait()
		_ = s.conn.Close()
		_ = s.mic.Stop()
		close(s.done)
		release()
		if !s.aborted.Load() {
			s.listener.StreamEnded()
		}
	}()
}

func (s *stream) finish() error {
	var stopErr error
	s.finishOnce.Do(func() {
		s.finishing.Store(true)
		stopErr = s.mic.Stop()
		timer := time.AfterFunc(s.closeTimeout, func() {
			_ = s.conn.Close()
		})
		go func() {
			<-s.done
			timer.Stop()
		}()
	})
	return stopErr
}

func (s *stream) abort() error {
	s.abortOnce.Do(func() {
		s.aborted.Store(true)
		_ = s.mic.Stop()
		_ = s.conn.Close()
	})
	<-s.done
	return nil
}

func (s *stream) pumpAudio() {
	defer s.wg.Done()

	buf := make([]byte, s.chunkSize)
	for {
		n, err := s.mic.Read(buf)
		if n > 0 {
			if writeErr := s.write(websocket.BinaryMessage, buf[:n]); writeErr != nil {
				s.fail(ports.EngineErrorNetwork, fmt.Sprintf("failed to send audio: %v", writeErr))
				return
			}
		}
		if err == nil {
			continue
		}
		if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) && !s.closing() {
			s.fail(ports.EngineErrorAudioCapture, fmt.Sprintf("audio capture error: %v", err))
			return
		}
		break
	}

	if s.aborted.Load() || s.readDone.Load() {
		return
	}
	if err := s.write(websocket.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
		s.logger.Debug("failed to send deepgram close message", zap.Error(err))
	}
}

func (s *stream) readLoop() {
	defer s.wg.Done()
	defer func() {
		s.readDone.Store(true)
		_ = s.mic.Stop()
	}()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if !s.finishing.Load() && !s.aborted.Load() && !isNormalClose(err) {
				s.fail(ports.EngineErrorNetwork, fmt.Sprintf("failed to read provider event: %v", err))
			}
			return
		}

		var response deepgramResponse
		if err := json.Unmarshal(payload, &response); err != nil {
			s.logger.Debug("ignoring undecodable deepgram message", zap.Error(err))
			continue
		}

		if strings.EqualFold(response.Type, "Error") {
			message := strings.TrimSpace(firstNonEmpty(response.Message, response.Description))
			if message == "" {
				message = "deepgram returned an unknown error"
			}
			s.fail(ports.EngineErrorNetwork, message)
			return
		}

		transcript := extractTranscript(response)
		if transcript == "" {
			continue
		}

		s.sequence++
		s.deliver([]domain.TranscriptFragment{{
			Text:     transcript,
			IsFinal:  response.IsFinal || response.SpeechFinal,
			Sequence: s.sequence,
		}})
	}
}

func (s *stream) closing() bool {
	return s.finishing.Load() || s.aborted.Load() || s.readDone.Load()
}

func (s *stream) write(messageType int, payload []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(messageType, payload)
}

func (s *stream) deliver(batch []domain.TranscriptFragment) {
	if s.aborted.Load() || s.failed.Load() {
		return
	}
	s.listener.Fragments(batch)
}

// fail reports the first stream error and tears the connection down.
func (s *stream) fail(code ports.EngineErrorCode, message string) {
	if s.aborted.Load() || !s.failed.CompareAndSwap(false, true) {
		return
	}
	s.logger.Warn("deepgram stream failed", zap.String("code", string(code)), zap.String("message", message))
	s.listener.StreamFailed(code, message)
	_ = s.mic.Stop()
	_ = s.conn.Close()
}

func isNormalClose(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	)
}

type deepgramResponse struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	Description string `json:"description"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`

	Channel struct {
		Alternatives []alternative `json:"alternatives"`
	} `json:"channel"`
}

type alternative struct {
	Transcript string `json:"transcript"`
}

func extractTranscript(response deepgramResponse) string {
	if len(response.Channel.Alternatives) == 0 {
		return ""
	}
	return strings.TrimSpace(response.Channel.Alternatives[0].Transcript)
}

func buildListenURL(cfg Config) (string, error) {
	base := strings.TrimSpace(cfg.APIBaseURL)
	if base == "" {
		base = defaultBaseURL
	}

	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	listenURL, err := url.Parse(base + "/listen")
	if err != nil {
		return "", fmt.Errorf("invalid Deepgram API base URL: %w", err)
	}
	if listenURL.Scheme != "ws" && listenURL.Scheme != "wss" {
		return "", fmt.Errorf("invalid Deepgram API base URL scheme %q", listenURL.Scheme)
	}

	sampleRate := cfg.Audio.SampleRate
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	channels := cfg.Audio.Channels
	if channels <= 0 {
		channels = 1
	}

	query := listenURL.Query()
	query.Set("model", cfg.Model)
	query.Set("encoding", "linear16")
	query.Set("sample_rate", strconv.Itoa(sampleRate))
	query.Set("channels", strconv.Itoa(channels))
	query.Set("interim_results", "true")
	query.Set("smart_format", strconv.FormatBool(cfg.SmartFormat))
	if cfg.Language != "" {
		query.Set("language", cfg.Language)
	}
	for _, keyword := range cfg.Keywords {
		if keyword = strings.TrimSpace(keyword); keyword != "" {
			query.Add("keywords", keyword)
		}
	}
	listenURL.RawQuery = query.Encode()
	return listenURL.String(), nil
}

// requireSecure rejects plaintext websockets unless they target the local
// machine.
func requireSecure(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid Deepgram listen URL: %w", err)
	}
	if parsed.Scheme == "wss" || isLoopback(parsed.Hostname()) {
		return nil
	}
	return fmt.Errorf("%w: refusing plaintext connection to %s", ports.ErrInsecureContext, parsed.Host)
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
