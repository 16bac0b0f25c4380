package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// BuildErrorKind classifies a dashboard configuration rejected by the query builder.
type BuildErrorKind string

const (
	KindSchemaMismatch        BuildErrorKind = "SCHEMA_MISMATCH"
	KindUnknownField          BuildErrorKind = "UNKNOWN_FIELD"
	KindFieldNotGroupable     BuildErrorKind = "FIELD_NOT_GROUPABLE"
	KindFieldNotAggregable    BuildErrorKind = "FIELD_NOT_AGGREGABLE"
	KindConditionTypeMismatch BuildErrorKind = "CONDITION_TYPE_MISMATCH"
	KindUnsupportedAggregate  BuildErrorKind = "UNSUPPORTED_AGGREGATE"
	KindUnsupportedCondition  BuildErrorKind = "UNSUPPORTED_CONDITION"
	KindInvalidCondition      BuildErrorKind = "INVALID_CONDITION"
	KindInvalidExpression     BuildErrorKind = "INVALID_EXPRESSION"
	KindDuplicateField        BuildErrorKind = "DUPLICATE_FIELD"
	KindEmptySelection        BuildErrorKind = "EMPTY_SELECTION"
)

// BuildError is a configuration or logic error detected before any SQL is emitted.
// It is never transient.
type BuildError struct {
	Kind    BuildErrorKind
	Field   string
	Message string
}

func (e *BuildError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid dashboard configuration: field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid dashboard configuration: %s", e.Message)
}

func (e *BuildError) HTTPStatus() int {
	return http.StatusBadRequest
}

func (e *BuildError) Code() string {
	return string(e.Kind)
}

// NewBuildError creates a BuildError with a formatted message
func NewBuildError(kind BuildErrorKind, field, format string, args ...interface{}) *BuildError {
	return &BuildError{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsBuildError reports whether err is a BuildError of the given kind.
// An empty kind matches any BuildError.
func IsBuildError(err error, kind BuildErrorKind) bool {
	var buildErr *BuildError
	if !errors.As(err, &buildErr) {
		return false
	}
	return kind == "" || buildErr.Kind == kind
}
