package apperror

import (
	"errors"
	"net/http"
)

type Apperror struct {
	status  int
	message string
	err     error
}

var (
	ServiceUnavailable = Apperror{status: http.StatusServiceUnavailable, message: "Server Not Ready To Process This Request"}
	ServerError        = Apperror{status: http.StatusInternalServerError, message: "Internal Server Error"}
	InvalidRequest     = Apperror{status: http.StatusBadRequest, message: "Invalid Request Received"}
	NotFound           = Apperror{status: http.StatusNotFound, message: "Resource Not Found On This Server"}
	Conflict           = Apperror{status: http.StatusConflict, message: "Control Is Disabled"}

	// Failures talking to the recording server.
	Unreachable = Apperror{status: http.StatusBadGateway, message: "Recording Server Unreachable"}
	BadStatus   = Apperror{status: http.StatusBadGateway, message: "Recording Server Returned An Error"}
	BadResponse = Apperror{status: http.StatusBadGateway, message: "Recording Server Sent An Unreadable Response"}
	Rejected    = Apperror{status: http.StatusUnprocessableEntity, message: ""}
)

func (e Apperror) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return e.message
}

func (e Apperror) Unwrap() error {
	return e.err
}

func (e Apperror) SetMessage(message string) Apperror {
	e.message = message
	return e
}

// Wrap keeps err as the cause while the message stays user facing.
func (e Apperror) Wrap(err error) Apperror {
	e.err = err
	return e
}

func (e Apperror) Is(target error) bool {
	t, ok := target.(Apperror)

	if !ok {
		return false
	}

	if t.status != e.status {
		return false
	}
	return true
}

func (e Apperror) Message() string {
	return e.message
}

func (e Apperror) StatusAndMessage() (int, string) {
	return e.status, e.message
}

// UserMessage is the text shown for err, falling back when it carries none.
func UserMessage(err error, fallback string) string {
	var appErr Apperror
	if errors.As(err, &appErr) && appErr.message != "" {
		return appErr.message
	}
	return fallback
}
