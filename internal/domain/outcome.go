package domain

// Outcome is the tagged result of a call across an external boundary:
// either a value or the reason the call failed. Callers decide how a
// failure is rendered.
type Outcome[T any] struct {
	Value  T      `json:"value"`
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// Success wraps a value.
func Success[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v, OK: true}
}

// Failure records why no value was produced.
func Failure[T any](reason string) Outcome[T] {
	return Outcome[T]{Reason: reason}
}

// ValueOr returns the value on success and fallback otherwise.
func (o Outcome[T]) ValueOr(fallback T) T {
	if o.OK {
		return o.Value
	}
	return fallback
}
