package usecase

import (
	"strings"

	"vozbusca/internal/domain"
)

// transcriptAggregator merges fragment batches into the working transcript.
// It is owned by a Session and guarded by the session lock.
type transcriptAggregator struct {
	final   string
	interim string
}

func newTranscriptAggregator() *transcriptAggregator {
	return &transcriptAggregator{}
}

// Merge appends every final fragment of the batch to the final text and
// replaces the interim text with the batch's last interim fragment. A batch
// with finals but no interim clears the interim hypothesis. It reports
// whether the transcript changed.
func (a *transcriptAggregator) Merge(batch []domain.TranscriptFragment) bool {
	if len(batch) == 0 {
		return false
	}

	before := a.Snapshot()
	interim, sawInterim, sawFinal := "", false, false

	for _, fragment := range batch {
		text := strings.TrimSpace(fragment.Text)
		if !fragment.IsFinal {
			interim, sawInterim = text, true
			continue
		}
		sawFinal = true
		if text == "" {
			continue
		}
		if a.final == "" {
			a.final = text
		} else {
			a.final = a.final + " " + text
		}
	}

	if sawInterim {
		a.interim = interim
	} else if sawFinal {
		a.interim = ""
	}

	return a.Snapshot() != before
}

func (a *transcriptAggregator) Final() string {
	return a.final
}

func (a *transcriptAggregator) Snapshot() domain.AccumulatedTranscript {
	return domain.AccumulatedTranscript{FinalText: a.final, InterimText: a.interim}
}

func (a *transcriptAggregator) Reset() {
	a.final = ""
	a.interim = ""
}
