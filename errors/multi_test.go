package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppend(t *testing.T) {
	cases := map[string]struct {
		errs    []error
		wantNil bool
		wantMsg string
	}{
		"no errors": {
			errs:    nil,
			wantNil: true,
		},
		"only nil errors": {
			errs:    []error{nil, nil},
			wantNil: true,
		},
		"one error": {
			errs:    []error{ErrNotFound},
			wantMsg: "not found",
		},
		"nils are skipped": {
			errs:    []error{nil, ErrNotFound, nil},
			wantMsg: "not found",
		},
		"multiple errors": {
			errs:    []error{ErrNotFound, ErrDuplicate},
			wantMsg: "not found; duplicate",
		},
		"nested multi errors are flattened": {
			errs:    []error{Append(ErrNotFound, ErrDuplicate), ErrState},
			wantMsg: "not found; duplicate; invalid state",
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := Append(tc.errs...)
			if tc.wantNil {
				assert.Nil(t, err)
				return
			}
			assert.Equal(t, tc.wantMsg, err.Error())
		})
	}
}

func TestAppendEmptyMultiErrorIsNil(t *testing.T) {
	var empty multiError
	assert.Nil(t, Append(empty))
}
