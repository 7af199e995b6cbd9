package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"vozbusca/internal/domain"
	"vozbusca/internal/pubsub"
	"vozbusca/internal/search"
	"vozbusca/internal/usecase"
)

var errSessionFailed = errors.New("la búsqueda por voz no se completó")

// session is the part of the session controller the console drives.
type session interface {
	Start(ctx context.Context) error
	Stop() error
	Cancel()
}

// console renders session events for a terminal.
type console struct {
	out       io.Writer
	searchURL string

	lastState domain.SessionState
	lastFinal string
	lastLive  string
}

func newConsole(out io.Writer, searchURL string) *console {
	return &console{out: out, searchURL: searchURL}
}

// Listen runs one session and prints its events until it settles. A line on
// input stops capture; cancelling ctx discards the session.
func (c *console) Listen(ctx context.Context, s session, events pubsub.Subscriber[pubsub.SessionEvent], input io.Reader) error {
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	sub := events.Subscribe(subCtx)
	defer sub.Stop()

	if err := s.Start(ctx); err != nil {
		// Open failures were already emitted and settle the session below.
		var failure *domain.RecognitionError
		if errors.Is(err, usecase.ErrSessionActive) || !errors.As(err, &failure) {
			return err
		}
	}

	// The reader may outlive Listen until input yields a line or EOF; it must
	// not stop a session once Listen has returned.
	done := make(chan struct{})
	defer close(done)
	go func() {
		scanner := bufio.NewScanner(input)
		if !scanner.Scan() {
			return
		}
		select {
		case <-done:
		default:
			_ = s.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.Cancel()
			fmt.Fprintln(c.out, "Búsqueda cancelada.")
			return nil
		case evt, ok := <-sub.ResultChan():
			if !ok {
				return errors.New("session events closed")
			}
			switch evt.Kind {
			case pubsub.EventResult:
				c.printResult(*evt.Result)
			case pubsub.EventError:
				fmt.Fprintf(c.out, "Error: %s\n", evt.Error.Message)
			case pubsub.EventSnapshot:
				c.printSnapshot(*evt.Snapshot)
				switch evt.Snapshot.State {
				case domain.SessionStateSuccess:
					return nil
				case domain.SessionStateError:
					return errSessionFailed
				}
			}
		}
	}
}

func (c *console) printSnapshot(snapshot domain.Snapshot) {
	if snapshot.State != c.lastState {
		c.lastState = snapshot.State
		if message := stateMessage(snapshot.State); message != "" {
			fmt.Fprintln(c.out, message)
		}
	}
	if snapshot.State != domain.SessionStateListening {
		return
	}
	if snapshot.FinalText == c.lastFinal && snapshot.InterimText == c.lastLive {
		return
	}
	c.lastFinal, c.lastLive = snapshot.FinalText, snapshot.InterimText
	fmt.Fprintf(c.out, "» %s\n", joinTranscript(snapshot.FinalText, snapshot.InterimText))
}

func (c *console) printResult(result domain.Result) {
	fmt.Fprintf(c.out, "Escuchamos: %s\n", result.Transcript)
	fmt.Fprintf(c.out, "Filtros (%d): %s\n", result.SlotCount, result.Encoded)
	link, err := search.BuildURL(c.searchURL, result.Encoded)
	if err != nil {
		fmt.Fprintf(c.out, "No se pudo armar el enlace de búsqueda: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Ver resultados: %s\n", link)
}

func joinTranscript(final string, interim string) string {
	switch {
	case final == "":
		return interim
	case interim == "":
		return final
	default:
		return final + " " + interim
	}
}

func stateMessage(state domain.SessionState) string {
	switch state {
	case domain.SessionStateRequestingPermission:
		return "Solicitando acceso al micrófono..."
	case domain.SessionStateListening:
		return "Escuchando. Presiona Enter para buscar o Ctrl-C para cancelar."
	case domain.SessionStateProcessing:
		return "Procesando tu búsqueda..."
	case domain.SessionStateSuccess:
		return "Búsqueda lista."
	default:
		return ""
	}
}
