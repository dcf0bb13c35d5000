package services

import (
	"errors"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/store"
)

// Kind classifies a service failure. Handlers map kinds to protocol errors.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindAlreadyExists
	KindNotCreated
	KindNotUpdated
	KindNotDeleted
	KindInvalidCredentials
	KindInvalidGrant
	KindInvalidScope
	KindExpiredOrUsed
	KindInvalidRequest
	KindInvalidToken
	KindUnsupportedGrantType
	KindUnsupportedResponseType
	KindUnauthorizedClient
	KindAuthorizationPending
	KindSlowDown
	KindAccessDenied
)

var kindNames = map[Kind]string{
	KindInternal:                "internal",
	KindNotFound:                "not_found",
	KindAlreadyExists:           "already_exists",
	KindNotCreated:              "not_created",
	KindNotUpdated:              "not_updated",
	KindNotDeleted:              "not_deleted",
	KindInvalidCredentials:      "invalid_credentials",
	KindInvalidGrant:            "invalid_grant",
	KindInvalidScope:            "invalid_scope",
	KindExpiredOrUsed:           "expired_or_used",
	KindInvalidRequest:          "invalid_request",
	KindInvalidToken:            "invalid_token",
	KindUnsupportedGrantType:    "unsupported_grant_type",
	KindUnsupportedResponseType: "unsupported_response_type",
	KindUnauthorizedClient:      "unauthorized_client",
	KindAuthorizationPending:    "authorization_pending",
	KindSlowDown:                "slow_down",
	KindAccessDenied:            "access_denied",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Error is the single error type returned across the service boundary.
// Message is safe to show to clients; Err is for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrInternal                = &Error{Kind: KindInternal}
	ErrNotFound                = &Error{Kind: KindNotFound}
	ErrAlreadyExists           = &Error{Kind: KindAlreadyExists}
	ErrInvalidCredentials      = &Error{Kind: KindInvalidCredentials}
	ErrInvalidGrant            = &Error{Kind: KindInvalidGrant}
	ErrInvalidScope            = &Error{Kind: KindInvalidScope}
	ErrExpiredOrUsed           = &Error{Kind: KindExpiredOrUsed}
	ErrInvalidRequest          = &Error{Kind: KindInvalidRequest}
	ErrInvalidToken            = &Error{Kind: KindInvalidToken}
	ErrUnsupportedGrantType    = &Error{Kind: KindUnsupportedGrantType}
	ErrUnsupportedResponseType = &Error{Kind: KindUnsupportedResponseType}
	ErrUnauthorizedClient      = &Error{Kind: KindUnauthorizedClient}
	ErrAuthorizationPending    = &Error{Kind: KindAuthorizationPending}
	ErrSlowDown                = &Error{Kind: KindSlowDown}
	ErrAccessDenied            = &Error{Kind: KindAccessDenied}
)

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// fromStore maps a repository error to a service error. op names the
// failed operation in the message.
func fromStore(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	kind := KindInternal
	switch {
	case errors.Is(err, store.ErrNotFound):
		kind = KindNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		kind = KindAlreadyExists
	case errors.Is(err, store.ErrConsumed):
		kind = KindExpiredOrUsed
	case errors.Is(err, store.ErrNotCreated):
		kind = KindNotCreated
	case errors.Is(err, store.ErrNotUpdated):
		kind = KindNotUpdated
	case errors.Is(err, store.ErrNotDeleted):
		kind = KindNotDeleted
	}
	return newError(kind, op, err)
}
