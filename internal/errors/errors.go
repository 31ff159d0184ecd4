package errors

// DomainError is a user-presentable failure with a stable machine code.
// Handlers map these onto HTTP responses without leaking internals.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}
