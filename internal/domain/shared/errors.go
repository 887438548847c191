package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrUnauthenticated     = NewDomainError("UNAUTHENTICATED", "Authentication required")
	ErrPrincipalInactive   = NewDomainError("PRINCIPAL_INACTIVE", "Account not found or inactive")
	ErrInsufficientPriv    = NewDomainError("INSUFFICIENT_PRIVILEGE", "Not authorized to perform this action")
	ErrInvalidHierarchy    = NewDomainError("INVALID_HIERARCHY", "Role and parent assignment are inconsistent")
	ErrDuplicateHandle     = NewDomainError("DUPLICATE_HANDLE", "Username already exists")
	ErrInvalidTransition   = NewDomainError("INVALID_TRANSITION", "Operation not allowed in current order status")
	ErrOrderExpired        = NewDomainError("ORDER_EXPIRED", "Order has expired")
	ErrAlreadyInvalidated  = NewDomainError("ALREADY_INVALIDATED", "Order is already invalidated")
	ErrValidation          = NewDomainError("VALIDATION_ERROR", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidCredentials  = NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	ErrInternal            = NewDomainError("INTERNAL_ERROR", "Internal error")
)
