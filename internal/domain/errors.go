package domain

import (
	"errors"
	"fmt"
)

// ReplyErrorKind tags the user-correctable failures of inbound handling.
type ReplyErrorKind string

const (
	ErrKindUnknownSender   ReplyErrorKind = "UNKNOWN_SENDER"
	ErrKindNoPendingSurvey ReplyErrorKind = "NO_PENDING_SURVEY"
	ErrKindMalformedReply  ReplyErrorKind = "MALFORMED_REPLY"
	ErrKindInvalidRating   ReplyErrorKind = "INVALID_RATING"
	ErrKindAlreadyAnswered ReplyErrorKind = "ALREADY_ANSWERED"
)

// ReplyError carries a tagged, user-correctable inbound failure. None of
// these are fatal; each maps to a guiding reply or a silent log entry.
type ReplyError struct {
	Kind  ReplyErrorKind
	Field string
	Value string
	count int
}

func (e *ReplyError) Error() string {
	switch e.Kind {
	case ErrKindInvalidRating:
		return fmt.Sprintf("invalid rating for %s: %q (expected integer %d-%d)", e.Field, e.Value, RatingMin, RatingMax)
	case ErrKindMalformedReply:
		return fmt.Sprintf("malformed reply: got %d fields, expected 4", e.count)
	default:
		return string(e.Kind)
	}
}

// NewMalformedReply reports a reply with too few delimited fields.
func NewMalformedReply(fieldCount int) error {
	return &ReplyError{Kind: ErrKindMalformedReply, count: fieldCount}
}

// NewInvalidRating reports an out-of-range or non-numeric rating field.
func NewInvalidRating(field, value string) error {
	return &ReplyError{Kind: ErrKindInvalidRating, Field: field, Value: value}
}

// ErrUnknownSender, ErrNoPendingSurvey and ErrAlreadyAnswered are the
// parameterless members of the taxonomy.
var (
	ErrUnknownSender   = &ReplyError{Kind: ErrKindUnknownSender}
	ErrNoPendingSurvey = &ReplyError{Kind: ErrKindNoPendingSurvey}
	ErrAlreadyAnswered = &ReplyError{Kind: ErrKindAlreadyAnswered}
)

// ReplyErrorFrom extracts a ReplyError from an error chain.
func ReplyErrorFrom(err error) (*ReplyError, bool) {
	var re *ReplyError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// Gateway failure classification. Transient failures are retried up to the
// configured cap; permanent ones are reported immediately.
var (
	ErrGatewayTransient = errors.New("gateway transient failure")
	ErrGatewayPermanent = errors.New("gateway permanent failure")
)

// IsPermanentDeliveryFailure reports whether a send error must not be retried.
func IsPermanentDeliveryFailure(err error) bool {
	return errors.Is(err, ErrGatewayPermanent)
}
