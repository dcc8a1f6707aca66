package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")
)

// Tool-level failure kinds. Tools never hand these to the model runtime; the
// tool edge turns them into spoken text.
var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrNoCase             = errors.New("no fraud case loaded")
	ErrCaseAlreadyLoaded  = errors.New("a fraud case is already loaded for this call")
	ErrCaseStale          = errors.New("fraud case changed since it was loaded")
	ErrCaseClosed         = errors.New("fraud case already resolved")
	ErrVerificationFailed = errors.New("verification mismatch")
	ErrOutOfOrder         = errors.New("verification step out of order")
	ErrPersist            = errors.New("persist failed")
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrNotFound, "not_found"},
	{ErrInvalidArgument, "invalid_argument"},
	{ErrEmptyCart, "empty_cart"},
	{ErrNoCase, "no_case"},
	{ErrCaseAlreadyLoaded, "case_already_loaded"},
	{ErrCaseStale, "case_stale"},
	{ErrCaseClosed, "case_closed"},
	{ErrVerificationFailed, "verification_failed"},
	{ErrOutOfOrder, "out_of_order"},
	{ErrPersist, "persist_failed"},
	{ErrValidation, "validation"},
}

// KindOf returns a stable label for err, "ok" for nil and "internal" for
// anything that does not wrap a known sentinel.
func KindOf(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}
