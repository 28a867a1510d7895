package sqlgen

import (
	"errors"
	"fmt"
)

var ErrEmptyQuestion = errors.New("question cannot be empty")

type SecurityKind string

const (
	// KindRefused: the model output is not a SELECT statement.
	KindRefused SecurityKind = "refused"
	// KindForbiddenKeyword: the statement contains a denylisted keyword.
	KindForbiddenKeyword SecurityKind = "forbidden_keyword"
)

// SecurityError rejects a generated query before it reaches the database.
type SecurityError struct {
	Kind     SecurityKind
	Keyword  string
	Response string
}

func (e *SecurityError) Error() string {
	switch e.Kind {
	case KindForbiddenKeyword:
		return fmt.Sprintf("Security Violation: The keyword '%s' is detected. Execution blocked.", e.Keyword)
	default:
		return fmt.Sprintf("AI Refused or Invalid Format: The model did not generate a safe SELECT query. Response: %s", e.Response)
	}
}

// IsSecurityError reports whether err wraps a *SecurityError.
func IsSecurityError(err error) bool {
	var secErr *SecurityError
	return errors.As(err, &secErr)
}
