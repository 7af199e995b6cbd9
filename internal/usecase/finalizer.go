package usecase

import (
	"fmt"

	"vozbusca/internal/domain"
	"vozbusca/internal/ports"
)

type transcriptFinalizer struct {
	parser  ports.IntentParser
	encoder ports.QueryEncoder
}

func newTranscriptFinalizer(parser ports.IntentParser, encoder ports.QueryEncoder) transcriptFinalizer {
	return transcriptFinalizer{parser: parser, encoder: encoder}
}

// Finalize runs the intent pipeline over a final transcript. A panic in the
// pipeline becomes an internal error.
func (f transcriptFinalizer) Finalize(sessionID string, transcript string) (result domain.Result, failure *domain.RecognitionError) {
	defer func() {
		if recovered := recover(); recovered != nil {
			result = domain.Result{}
			failure = domain.NewRecognitionError(domain.ErrorKindInternal, fmt.Errorf("intent pipeline panicked: %v", recovered))
		}
	}()

	if f.parser == nil || f.encoder == nil {
		return domain.Result{}, domain.NewRecognitionError(domain.ErrorKindInternal, fmt.Errorf("intent pipeline is not configured"))
	}

	outcome := f.parser.Parse(transcript)
	if !outcome.Matched() {
		return domain.Result{}, domain.NewRecognitionError(domain.ErrorKindParseFailure, nil)
	}

	return domain.Result{
		SessionID:  sessionID,
		Transcript: transcript,
		Query:      outcome.Query,
		Encoded:    f.encoder.Encode(outcome.Query),
		SlotCount:  outcome.SlotCount,
	}, nil
}
