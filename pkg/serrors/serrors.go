package serrors

import "fmt"

// Base is a coded error suitable for API envelopes and localization.
type Base struct {
	Code      string
	Message   string
	LocaleKey string
}

func (e *Base) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError constructs a coded error. localeKey may be empty when the error
// is never rendered to end users.
func NewError(code, message, localeKey string) *Base {
	return &Base{
		Code:      code,
		Message:   message,
		LocaleKey: localeKey,
	}
}
