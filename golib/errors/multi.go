package errors

import "strings"

// List collects the errors of independent steps, e.g. closing every file of a writer. A nil or
// empty List means no error; use Err to turn it into a plain error value.
type List []error

// Error implements error
func (l List) Error() string {
	msgs := make([]string, 0, len(l))
	for _, err := range l {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "\n")
}

// Err returns nil for an empty list, the only error for a single entry list, and the list otherwise.
func (l List) Err() error {
	switch len(l) {
	case 0:
		return nil
	case 1:
		return l[0]
	default:
		return l
	}
}

// Append adds err to the list, flattening nested lists. Nil errors are dropped.
func Append(l List, err error) List {
	switch err := err.(type) {
	case nil:
		return l
	case List:
		for _, e := range err {
			l = Append(l, e)
		}
		return l
	default:
		return append(l, err)
	}
}

// Combine combines errors e & f into a single error
func Combine(e, f error) error {
	var l List
	l = Append(l, e)
	l = Append(l, f)
	return l.Err()
}

// Defer is a helper method for deferring error-returning functions
func Defer(err *error, f func() error) {
	*err = Combine(*err, f())
}
