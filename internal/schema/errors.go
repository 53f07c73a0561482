package schema

import "fmt"

// ConfigurationError reports a field that the system claims to support but
// has no rule for. It is fatal to the whole reconciliation: a missing rule
// means the field cannot be evaluated at all, and silently skipping it
// would misreport coverage.
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: no rule registered for field %q", e.Key)
}

// ValueShapeError reports a value whose variant does not match what the
// field's rule expects (e.g. a categorical rule applied to a measurement).
// It is recovered per field: the single comparison downgrades to
// UNVERIFIABLE with this error's text as the diagnostic note.
type ValueShapeError struct {
	Key  string
	Want ValueKind
	Got  ValueKind
}

func (e *ValueShapeError) Error() string {
	return fmt.Sprintf("value shape: field %q: rule expects %s, got %s", e.Key, e.Want, e.Got)
}
