// Package services defines the business logic for conversations, turns,
// shares, and user profiles. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the
// handler layer.
package services

import "errors"

var (
	// ErrConversationNotFound indicates that the requested conversation does
	// not exist, is soft-deleted, or is not accessible to the current user.
	ErrConversationNotFound = errors.New("conversation not found or access denied")

	// ErrFigureNotFound indicates that the conversation's figure does not
	// exist or has been deactivated.
	ErrFigureNotFound = errors.New("figure not found or inactive")

	// ErrInvalidConversationID is returned when a conversation identifier is
	// not a well-formed UUID.
	ErrInvalidConversationID = errors.New("conversation id must be a UUID")

	// ErrEmptyMessage is returned when a turn request contains an empty
	// message outside of a greeting turn.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMessageTooLong is returned when a turn request exceeds the maximum
	// configured message length.
	ErrMessageTooLong = errors.New("message too long")

	// ErrUserMessageNotSaved aborts a turn when the inbound user message
	// cannot be persisted before generation starts.
	ErrUserMessageNotSaved = errors.New("could not save user message")

	// ErrUserNotFound indicates that no profile row exists for the
	// authenticated subject.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidPreference is returned when a profile update carries a
	// preference value outside the allowed set.
	ErrInvalidPreference = errors.New("invalid preference value")

	// ErrShareNotFound indicates an unknown or deactivated share token.
	ErrShareNotFound = errors.New("share not found or inactive")
)
