package domain

import "errors"

// NoticeLevel classifies how a notice should be presented.
type NoticeLevel string

// Notice levels.
const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a user-visible rendering of an outcome.
type Notice struct {
	Level NoticeLevel
	Text  string

	// Hint is an optional remediation step.
	Hint string
}

// Describe maps an error onto the notice every surface shows the user.
// A nil error yields a zero Notice.
func Describe(err error) Notice {
	if err == nil {
		return Notice{}
	}

	switch {
	case errors.Is(err, ErrModelUnavailable):
		return Notice{
			Level: NoticeWarning,
			Text:  "You have not pulled any model yet.",
			Hint:  "Download one with `ollama pull llama3.2`, then restart.",
		}
	case errors.Is(err, ErrServerUnreachable):
		return Notice{
			Level: NoticeError,
			Text:  err.Error(),
			Hint:  "Is the model server running? Start it with `ollama serve` or check --base-url.",
		}
	case errors.Is(err, ErrNoModelSelected):
		return Notice{
			Level: NoticeError,
			Text:  "No model selected.",
			Hint:  "Pick a model first (--model or the model picker).",
		}
	case errors.Is(err, ErrInvalidConfiguration):
		return Notice{Level: NoticeError, Text: "Configuration error: " + err.Error()}
	case errors.Is(err, ErrExtraction):
		return Notice{Level: NoticeError, Text: err.Error()}
	case errors.Is(err, ErrNoDocument):
		return Notice{
			Level: NoticeWarning,
			Text:  "No document loaded.",
			Hint:  "Load a PDF first.",
		}
	case errors.Is(err, ErrInference):
		return Notice{Level: NoticeError, Text: err.Error()}
	default:
		return Notice{Level: NoticeError, Text: err.Error()}
	}
}
