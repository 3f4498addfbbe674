package errors

// Error codes returned in the "error" field of every error response.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map messages from these codes.

const (
	// auth
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"
	AuthNicknameExists     = "AUTH_NICKNAME_EXISTS"

	// authorization
	AuthzForbidden     = "AUTHZ_FORBIDDEN"
	AuthzRoleNotFound  = "AUTHZ_ROLE_NOT_FOUND"
	AuthzModeratorOnly = "AUTHZ_MODERATOR_ONLY"
	AuthzOwnerOnly     = "AUTHZ_OWNER_ONLY"

	// validation
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"
	ValidationTooShort      = "VALIDATION_TOO_SHORT"
	ValidationTooLong       = "VALIDATION_TOO_LONG"
	ValidationTooMany       = "VALIDATION_TOO_MANY"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// generic resources
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// businesses
	BusinessNotFound = "BUSINESS_NOT_FOUND"

	// users
	UserNotFound = "USER_NOT_FOUND"

	// reviews
	ReviewNotFound          = "REVIEW_NOT_FOUND"
	ReviewInvalidRating     = "REVIEW_INVALID_RATING"
	ReviewTooShort          = "REVIEW_TOO_SHORT"
	ReviewTooLong           = "REVIEW_TOO_LONG"
	ReviewAlreadyExists     = "REVIEW_ALREADY_EXISTS"
	ReviewTooManyPhotos     = "REVIEW_TOO_MANY_PHOTOS"
	ReviewInvalidAction     = "REVIEW_INVALID_ACTION"
	ReviewInvalidVote       = "REVIEW_INVALID_VOTE"
	ReviewInvalidReason     = "REVIEW_INVALID_REPORT_REASON"
	ReviewResponseTooShort  = "REVIEW_RESPONSE_TOO_SHORT"
	ReviewResponseTooLong   = "REVIEW_RESPONSE_TOO_LONG"
	ReviewInvalidStatus     = "REVIEW_INVALID_STATUS"
	ReviewInvalidRatingBase = "REVIEW_INVALID_RATING_BASIS"

	// uploads
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"

	// internal
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
