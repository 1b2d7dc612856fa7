package errors

import "strings"

// Append clubs together all provided errors. Nil values are ignored.
//
// If given error implements unpacker interface, it is flattened. All
// represented errors are directly included into the result set, instead of
// including the wrapping error.
func Append(errs ...error) error {
	var res multiError
	for _, e := range errs {
		if isNilErr(e) {
			continue
		}
		if u, ok := e.(unpacker); ok {
			res = append(res, u.unpack()...)
		} else {
			res = append(res, e)
		}
	}
	if len(res) == 0 {
		return nil
	}
	return res
}

func isNilErr(err error) bool {
	if err == nil {
		return true
	}
	if e, ok := err.(multiError); ok {
		return len(e) == 0
	}
	return false
}

type multiError []error

var _ unpacker = (multiError)(nil)

type unpacker interface {
	unpack() []error
}

func (e multiError) unpack() []error {
	return e
}

func (e multiError) Error() string {
	switch len(e) {
	case 0:
		return ""
	case 1:
		return e[0].Error()
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}
