package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"vozbusca/internal/bootstrap"
	"vozbusca/internal/config"
	"vozbusca/internal/domain"
	"vozbusca/internal/pubsub"
	"vozbusca/internal/query"
	"vozbusca/internal/reporting"
	"vozbusca/internal/search"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type cli struct {
	verbose bool
	logger  *zap.Logger
}

func newRootCommand() *cobra.Command {
	c := &cli{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "vozbusca",
		Short:         "Búsqueda de inmuebles por voz",
		Long:          "vozbusca convierte una búsqueda hablada de inmuebles en Lima en filtros de búsqueda.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logConfig := zap.NewProductionConfig()
			if c.verbose {
				logConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := logConfig.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.logger.Sync()
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "registra el detalle de la sesión")

	root.AddCommand(c.parseCommand(), c.decodeCommand(), c.listenCommand())
	return root
}

type parseOutput struct {
	Transcript string             `json:"transcript"`
	Query      domain.ParsedQuery `json:"query"`
	SlotCount  int                `json:"slotCount"`
	Encoded    string             `json:"encoded"`
	URL        string             `json:"url"`
}

func (c *cli) parseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <texto>",
		Short: "Convierte una frase en filtros de búsqueda",
		Example: `  vozbusca parse "departamento de 2 dormitorios en Miraflores"
  vozbusca parse casa por menos de 2000 soles`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			parser, err := bootstrap.BuildParser(cfg, c.logger)
			if err != nil {
				return err
			}

			transcript := strings.Join(args, " ")
			outcome := parser.Parse(transcript)
			if !outcome.Matched() {
				return domain.NewRecognitionError(domain.ErrorKindParseFailure, nil)
			}

			encoded := query.Encode(outcome.Query)
			link, err := search.BuildURL(cfg.Search.BaseURL, encoded)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), parseOutput{
				Transcript: transcript,
				Query:      outcome.Query,
				SlotCount:  outcome.SlotCount,
				Encoded:    encoded,
				URL:        link,
			})
		},
	}
}

type decodeOutput struct {
	Query     domain.ParsedQuery `json:"query"`
	SlotCount int                `json:"slotCount"`
}

func (c *cli) decodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "decode <query>",
		Short:   "Muestra los filtros de una búsqueda serializada",
		Example: `  vozbusca decode "maxPrice=2000&propertyType=house"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := query.Decode(args[0])
			if err != nil {
				return fmt.Errorf("invalid query: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), decodeOutput{Query: q, SlotCount: q.SlotCount()})
		},
	}
}

func (c *cli) listenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Escucha el micrófono y arma la búsqueda",
		Long: `Abre una sesión de búsqueda por voz con Deepgram.
Presiona Enter para terminar de hablar o Ctrl-C para cancelar.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			events := pubsub.NewBroadcaster(pubsub.WithLogger(c.logger))
			defer events.Stop()

			services, err := bootstrap.Build(events, c.logger, version)
			if err != nil {
				return err
			}
			if services.Reporting {
				defer reporting.Flush()
			}

			c.logger.Debug("listening",
				zap.String("model", services.Config.Deepgram.Model),
				zap.String("language", services.Config.Deepgram.Language),
				zap.String("device", services.Config.Audio.InputDevice))

			console := newConsole(cmd.OutOrStdout(), services.Config.Search.BaseURL)
			return console.Listen(ctx, services.Controller, events, cmd.InOrStdin())
		},
	}
}

func writeJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(value)
}
