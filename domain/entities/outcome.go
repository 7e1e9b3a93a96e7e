package entities

// Outcome carries either a value or the reason it could not be produced.
// Transport and getter layers return it so callers never unwrap nested results.
type Outcome[T any] struct {
	value T
	err   error
}

// Success wraps a produced value
func Success[T any](value T) Outcome[T] {
	return Outcome[T]{value: value}
}

// Failure wraps the reason a value is missing
func Failure[T any](err error) Outcome[T] {
	return Outcome[T]{err: err}
}

// Failed reports whether the outcome holds an error
func (o Outcome[T]) Failed() bool {
	return o.err != nil
}

// Unwrap returns the value and error
func (o Outcome[T]) Unwrap() (T, error) {
	return o.value, o.err
}
