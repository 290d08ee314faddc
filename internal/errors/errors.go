package errors

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Code codes.Code

const (
	CodeInvalidArgument    = Code(codes.InvalidArgument)
	CodeNotFound           = Code(codes.NotFound)
	CodeAlreadyExists      = Code(codes.AlreadyExists)
	CodeFailedPrecondition = Code(codes.FailedPrecondition)
	CodeAborted            = Code(codes.Aborted)
	CodeInternal           = Code(codes.Internal)
	CodeUnauthenticated    = Code(codes.Unauthenticated)
)

var code2http = map[Code]int{
	CodeInvalidArgument:    http.StatusBadRequest,
	CodeNotFound:           http.StatusNotFound,
	CodeAlreadyExists:      http.StatusConflict,
	CodeFailedPrecondition: http.StatusConflict,
	CodeAborted:            http.StatusConflict,
	CodeInternal:           http.StatusInternalServerError,
	CodeUnauthenticated:    http.StatusUnauthorized,
}

// Reason is the logical error kind reported to callers, independent of transport.
type Reason string

const (
	ReasonRoomNotFound        Reason = "ROOM_NOT_FOUND"
	ReasonRoomNotAvailable    Reason = "ROOM_NOT_AVAILABLE"
	ReasonAlreadyStarted      Reason = "ALREADY_STARTED"
	ReasonNotYourTurn         Reason = "NOT_YOUR_TURN"
	ReasonQuestionPending     Reason = "QUESTION_PENDING"
	ReasonNoQuestionPending   Reason = "NO_QUESTION_PENDING"
	ReasonQuestionNotFound    Reason = "QUESTION_NOT_FOUND"
	ReasonNoQuestionsForTopic Reason = "NO_QUESTIONS_FOR_TOPIC"
	ReasonInvalidInput        Reason = "INVALID_INPUT"
)

const errorDomain = "quizladder"

type Error struct {
	Code    Code   `json:"code"`
	Reason  Reason `json:"reason,omitempty"`
	Message string `json:"message"`
	err     error
}

func New(code Code, opts ...Option) *Error {
	e := &Error{
		Code:    code,
		Message: codes.Code(code).String(),
	}

	for _, opt := range opts {
		opt.apply(e)
	}

	return e
}

func (e *Error) Error() string {
	s := fmt.Sprintf("code: %d, message: %s", e.Code, e.Message)
	if e.Reason != "" {
		s += fmt.Sprintf(", reason: %s", e.Reason)
	}
	if e.err != nil {
		s += fmt.Sprintf(", err: %s", e.err)
	}

	return s
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is reports whether target carries the same reason, so callers can match
// errors.Is(err, errors.New(code, errors.WithReason(r))) regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	if t.Reason == "" {
		return t.Code == e.Code
	}

	return t.Reason == e.Reason
}

// GRPCStatus carries the reason as an ErrorInfo detail when there is one.
func (e *Error) GRPCStatus() *status.Status {
	st := status.New(codes.Code(e.Code), e.Message)
	if e.Reason == "" {
		return st
	}

	withInfo, err := st.WithDetails(&errdetails.ErrorInfo{Reason: string(e.Reason), Domain: errorDomain})
	if err != nil {
		return st
	}

	return withInfo
}

// ReasonFromStatus extracts the reason put on a status by GRPCStatus.
func ReasonFromStatus(st *status.Status) Reason {
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == errorDomain {
			return Reason(info.GetReason())
		}
	}

	return ""
}

func (e *Error) HTTPStatusCode() int {
	if c, ok := code2http[e.Code]; ok {
		return c
	}

	return http.StatusInternalServerError
}

func Convert(err error) *Error {
	var e *Error
	if !errors.As(err, &e) {
		return Internal(err)
	}

	return e
}

// ReasonOf returns the reason carried by err, or "" if err is not an *Error.
func ReasonOf(err error) Reason {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}

	return e.Reason
}

func Internal(err error) *Error {
	return New(CodeInternal, WithCause(err))
}

type Option interface {
	apply(*Error)
}

type optionFunc func(*Error)

func (f optionFunc) apply(e *Error) {
	f(e)
}

func WithCause(err error) Option {
	return optionFunc(func(e *Error) {
		e.err = err
	})
}

func WithMessagef(format string, args ...any) Option {
	return optionFunc(func(e *Error) {
		e.Message = fmt.Sprintf(format, args...)
	})
}

func WithReason(r Reason) Option {
	return optionFunc(func(e *Error) {
		e.Reason = r
	})
}

var reason2code = map[Reason]Code{
	ReasonRoomNotFound:        CodeNotFound,
	ReasonRoomNotAvailable:    CodeFailedPrecondition,
	ReasonAlreadyStarted:      CodeFailedPrecondition,
	ReasonNotYourTurn:         CodeFailedPrecondition,
	ReasonQuestionPending:     CodeFailedPrecondition,
	ReasonNoQuestionPending:   CodeFailedPrecondition,
	ReasonQuestionNotFound:    CodeNotFound,
	ReasonNoQuestionsForTopic: CodeNotFound,
	ReasonInvalidInput:        CodeInvalidArgument,
}

// Of builds an error for a logical reason with the matching code.
func Of(r Reason, format string, args ...any) *Error {
	c, ok := reason2code[r]
	if !ok {
		c = CodeInternal
	}

	return New(c, WithReason(r), WithMessagef(format, args...))
}
