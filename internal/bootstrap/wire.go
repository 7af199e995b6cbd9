package bootstrap

import (
	"fmt"

	"go.uber.org/zap"

	"vozbusca/internal/audio"
	"vozbusca/internal/config"
	"vozbusca/internal/intent"
	"vozbusca/internal/ports"
	"vozbusca/internal/providers/deepgram"
	"vozbusca/internal/query"
	"vozbusca/internal/reporting"
	"vozbusca/internal/rules"
	"vozbusca/internal/usecase"
	"vozbusca/internal/vocab"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.SessionController
	Parser     *intent.Parser
	Config     config.Config
	Reporting  bool
}

// Build loads configuration from the environment and wires the runtime.
func Build(events ports.EventSink, logger *zap.Logger, release string) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}
	return BuildWithConfig(cfg, events, logger, release)
}

// BuildWithConfig wires every dependency for cfg.
func BuildWithConfig(cfg config.Config, events ports.EventSink, logger *zap.Logger, release string) (Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	tables, parser, err := buildParser(cfg, logger)
	if err != nil {
		return Services{}, err
	}

	hub, err := reporting.Init(cfg.Reporting, release)
	if err != nil {
		logger.Warn("error reporting disabled", zap.Error(err))
	}
	sink := events
	if hub != nil {
		sink = reporting.NewSink(events, hub)
	}

	capability := deepgram.NewCapability(deepgram.Config{
		APIKey:      cfg.Deepgram.APIKey,
		APIBaseURL:  cfg.Deepgram.APIBaseURL,
		Model:       cfg.Deepgram.Model,
		Language:    cfg.Deepgram.Language,
		SmartFormat: cfg.Deepgram.SmartFormat,
		Keywords:    districtNames(tables),
		Audio: ports.AudioConfig{
			SampleRate:  cfg.Audio.SampleRate,
			Channels:    cfg.Audio.Channels,
			InputFormat: cfg.Audio.InputFormat,
			InputDevice: cfg.Audio.InputDevice,
		},
		ChunkSize:    cfg.Session.ChunkSize,
		CloseTimeout: cfg.Session.CloseTimeout,
	}, audio.NewMicrophone(cfg.Audio.RecorderCommand, logger), logger)

	controller := usecase.NewSessionController(capability, parser, query.Codec{}, sink, logger)

	return Services{Controller: controller, Parser: parser, Config: cfg, Reporting: hub != nil}, nil
}

// BuildParser wires only the intent pipeline, for offline parsing.
func BuildParser(cfg config.Config, logger *zap.Logger) (*intent.Parser, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	_, parser, err := buildParser(cfg, logger)
	return parser, err
}

func buildParser(cfg config.Config, logger *zap.Logger) (vocab.Tables, *intent.Parser, error) {
	tables, err := vocab.LoadFile(cfg.Vocabulary.Path)
	if err != nil {
		return vocab.Tables{}, nil, err
	}

	corrections, err := rules.Load(cfg.Rules.Path, cfg.Rules.IterationLimit)
	if err != nil {
		return vocab.Tables{}, nil, err
	}

	parser, err := intent.New(tables, intent.WithCorrector(corrections))
	if err != nil {
		return vocab.Tables{}, nil, fmt.Errorf("failed to compile vocabulary: %w", err)
	}

	logger.Debug("intent pipeline ready",
		zap.Int("districts", len(tables.Districts)),
		zap.Int("corrections", corrections.Len()),
		zap.String("vocabulary", cfg.Vocabulary.Path),
		zap.String("rules", cfg.Rules.Path))
	return tables, parser, nil
}

func districtNames(tables vocab.Tables) []string {
	names := make([]string, 0, len(tables.Districts))
	for _, district := range tables.Districts {
		names = append(names, district.Name)
	}
	return names
}
