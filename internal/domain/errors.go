package domain

import "fmt"

// ErrorKind classifies recognition failures surfaced to the presentation layer.
type ErrorKind string

const (
	ErrorKindNotSupported            ErrorKind = "not_supported"
	ErrorKindInsecureContext         ErrorKind = "insecure_context"
	ErrorKindPermissionDenied        ErrorKind = "permission_denied"
	ErrorKindNoSpeechDetected        ErrorKind = "no_speech_detected"
	ErrorKindAudioCaptureUnavailable ErrorKind = "audio_capture_unavailable"
	ErrorKindNetworkUnavailable      ErrorKind = "network_unavailable"
	ErrorKindParseFailure            ErrorKind = "parse_failure"
	ErrorKindInternal                ErrorKind = "internal_error"
)

// Fatal reports whether the kind disables the feature rather than one session.
func (k ErrorKind) Fatal() bool {
	return k == ErrorKindNotSupported || k == ErrorKindInsecureContext
}

// RecognitionError is a terminal session failure.
type RecognitionError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`

	cause error
}

// NewRecognitionError builds an error of the given kind with its default message.
func NewRecognitionError(kind ErrorKind, cause error) *RecognitionError {
	return &RecognitionError{Kind: kind, Message: DefaultMessage(kind), cause: cause}
}

func (e *RecognitionError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *RecognitionError) Unwrap() error {
	return e.cause
}

// DefaultMessage returns the user-facing explanation for a kind.
func DefaultMessage(kind ErrorKind) string {
	switch kind {
	case ErrorKindNotSupported:
		return "La búsqueda por voz no está disponible en este dispositivo."
	case ErrorKindInsecureContext:
		return "La búsqueda por voz requiere una conexión segura. En desarrollo local usa localhost; en producción sirve la aplicación por HTTPS (wss://)."
	case ErrorKindPermissionDenied:
		return "No se concedió acceso al micrófono. Habilítalo e inténtalo de nuevo."
	case ErrorKindNoSpeechDetected:
		return "No se detectó voz. Inténtalo de nuevo."
	case ErrorKindAudioCaptureUnavailable:
		return "No se encontró un micrófono disponible."
	case ErrorKindNetworkUnavailable:
		return "El reconocimiento de voz necesita conexión a internet."
	case ErrorKindParseFailure:
		return "No entendimos tu búsqueda. Intenta con más detalle, por ejemplo: \"departamento de 2 habitaciones en Miraflores\"."
	case ErrorKindInternal:
		return "Ocurrió un error inesperado al procesar tu búsqueda."
	default:
		return "Error desconocido."
	}
}
