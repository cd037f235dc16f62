package api

// Envelope is the {success, error, message} wrapper on every backend
// response. Response types embed it.
type Envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// EnvelopeStatus returns the envelope itself; it makes any struct that
// embeds Envelope an Enveloped.
func (e Envelope) EnvelopeStatus() Envelope { return e }

// Enveloped is implemented by response types that embed Envelope.
type Enveloped interface {
	EnvelopeStatus() Envelope
}

// failureText picks the most useful explanation from a failed envelope.
func (e Envelope) failureText() string {
	switch {
	case e.Error != "" && e.Message != "" && e.Error != e.Message:
		return e.Error + ": " + e.Message
	case e.Error != "":
		return e.Error
	case e.Message != "":
		return e.Message
	default:
		return "request was not successful"
	}
}

// MissingField returns the envelope error for a successful response that
// lacks a field the caller needs.
func MissingField(method, path, field string) *RequestError {
	return &RequestError{
		Kind:    KindEnvelope,
		Method:  method,
		Path:    path,
		Message: "response missing " + field,
	}
}
