package usecase

import (
	"errors"

	"vozbusca/internal/domain"
	"vozbusca/internal/ports"
)

func classifyOpenError(err error) domain.ErrorKind {
	switch {
	case errors.Is(err, ports.ErrNotSupported):
		return domain.ErrorKindNotSupported
	case errors.Is(err, ports.ErrInsecureContext):
		return domain.ErrorKindInsecureContext
	case errors.Is(err, ports.ErrPermissionDenied):
		return domain.ErrorKindPermissionDenied
	case errors.Is(err, ports.ErrAudioCaptureUnavailable):
		return domain.ErrorKindAudioCaptureUnavailable
	case errors.Is(err, ports.ErrNetworkUnavailable):
		return domain.ErrorKindNetworkUnavailable
	default:
		return domain.ErrorKindInternal
	}
}

func classifyEngineCode(code ports.EngineErrorCode) domain.ErrorKind {
	switch code {
	case ports.EngineErrorNotAllowed, ports.EngineErrorServiceNotAllowed:
		return domain.ErrorKindPermissionDenied
	case ports.EngineErrorNoSpeech:
		return domain.ErrorKindNoSpeechDetected
	case ports.EngineErrorAudioCapture:
		return domain.ErrorKindAudioCaptureUnavailable
	case ports.EngineErrorNetwork:
		return domain.ErrorKindNetworkUnavailable
	case ports.EngineErrorLanguageUnsupported:
		return domain.ErrorKindNotSupported
	default:
		return domain.ErrorKindInternal
	}
}
