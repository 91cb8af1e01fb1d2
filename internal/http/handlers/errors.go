// Stable, machine-readable error codes carried in the error field of the
// response envelope. Handlers pick the most specific code and hand it to the
// fail() helper together with the HTTP status and a human-readable message;
// clients branch on the code, not on the message text.
//
//	{
//	  "success": false,
//	  "error": "not_found",
//	  "message": "conversation not found",
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "timestamp": "2026-01-12T09:30:00Z"
//	}
package handlers

const (
	// Codes mirroring plain HTTP status semantics.
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// Operation-specific codes for failures a status alone cannot convey.
	ErrCodeConverseFailed = "converse_failed"
	ErrCodeCreateFailed   = "create_failed"
	ErrCodeListFailed     = "list_failed"
	ErrCodeUpdateFailed   = "update_failed"
)
