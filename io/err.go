package io

import (
	"errors"

	"github.com/ezrec/hc11/translate"
)

var f = translate.From

var (
	// Rom errors
	ErrRomClosed = errors.New(f("rom closed"))
)

// ErrHexToken indicates an invalid token in a hex text image.
type ErrHexToken string

func (err ErrHexToken) Error() string {
	return f("'%v' is not a hex byte", string(err))
}
