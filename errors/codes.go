package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Construction and attachment errors
const (
	// ErrCodeUnsupportedSource indicates a value that cannot be adapted into a sequence.
	ErrCodeUnsupportedSource ErrorCode = "UNSUPPORTED_SOURCE"
	// ErrCodeNotCallable indicates a function argument without call capability.
	ErrCodeNotCallable ErrorCode = "NOT_CALLABLE"
	// ErrCodeInvalidArgument indicates a numeric argument outside its domain.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// Terminal errors, raised before anything is pulled
const (
	// ErrCodeInfiniteCollection indicates a full materialization of an unbounded pipeline.
	ErrCodeInfiniteCollection ErrorCode = "INFINITE_COLLECTION"
)

// Evaluation errors
const (
	// ErrCodeUnhashableKey indicates an element or key that cannot be hashed.
	ErrCodeUnhashableKey ErrorCode = "UNHASHABLE_KEY"
	// ErrCodeMaterializeLimit indicates a buffering stage grew past its configured limit.
	ErrCodeMaterializeLimit ErrorCode = "MATERIALIZE_LIMIT"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Configuration errors
const (
	// ErrCodeInvalidConfig indicates configuration that failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

var evaluationCodes = map[ErrorCode]bool{
	ErrCodeUnhashableKey:    true,
	ErrCodeMaterializeLimit: true,
	ErrCodeInternal:         true,
}

// IsEvaluationCode returns true if the code is raised while elements are
// being pulled, after which the pipeline is no longer usable.
func IsEvaluationCode(code ErrorCode) bool {
	return evaluationCodes[code]
}
