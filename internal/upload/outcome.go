package upload

import (
	"strings"

	"github.com/cancer-ai-portal/internal/domain"
)

// User-facing upload messages
const (
	MsgNoFile        = "Please upload a .csv file before continuing."
	MsgMissingInfo   = "Missing required cancer or dataset info."
	MsgInvalidType   = "Invalid file type. Please upload a .csv file."
	MsgInvalidFormat = "Invalid dataset format. Please upload a valid .csv file with correct headers."
	MsgServerError   = "Server error occurred."
	MsgInvalidData   = "Backend returned invalid data. Raw response shown below."
	MsgSubmitFailed  = "Failed to submit prediction"
)

// Kind classifies how a submission ended
type Kind string

const (
	KindSuccess     Kind = "success"
	KindValidation  Kind = "validation"
	KindFormat      Kind = "format"
	KindServer      Kind = "server"
	KindInvalidData Kind = "invalid_data"
	KindTransport   Kind = "transport"
)

// Outcome is the result of one submission attempt. Raw keeps the backend
// body for diagnostic display whenever there was one.
type Outcome struct {
	Kind       Kind                     `json:"kind"`
	Message    string                   `json:"message,omitempty"`
	Field      string                   `json:"field,omitempty"`
	StatusCode int                      `json:"status_code,omitempty"`
	Raw        string                   `json:"raw,omitempty"`
	Result     *domain.PredictionResult `json:"result,omitempty"`
	Progress   Snapshot                 `json:"progress"`
}

// Succeeded reports a parsed prediction
func (o *Outcome) Succeeded() bool {
	return o.Kind == KindSuccess
}

// IsWarning reports a response-shape problem rather than a failure
func (o *Outcome) IsWarning() bool {
	return o.Kind == KindInvalidData
}

// Classify turns a backend answer into an outcome
func Classify(resp *domain.PredictResponse) *Outcome {
	text := string(resp.Body)
	out := &Outcome{StatusCode: resp.StatusCode, Raw: text}

	if !resp.OK() {
		switch {
		case IsFormatError(text):
			out.Kind = KindFormat
			out.Message = MsgInvalidFormat
		case text != "":
			out.Kind = KindServer
			out.Message = text
		default:
			out.Kind = KindServer
			out.Message = MsgServerError
		}
		return out
	}

	result, err := domain.ParsePredictionResult(resp.Body)
	if err != nil {
		out.Kind = KindInvalidData
		out.Message = MsgInvalidData
		return out
	}
	out.Kind = KindSuccess
	out.Result = result
	return out
}

// IsFormatError reports whether a failure body points at dataset shape
func IsFormatError(body string) bool {
	return strings.Contains(body, "Invalid CSV") || strings.Contains(strings.ToLower(body), "format")
}

func validationOutcome(field, msg string) *Outcome {
	return &Outcome{Kind: KindValidation, Field: field, Message: msg}
}
