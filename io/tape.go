package io

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Tape provides sequential I/O: a program image is read from Input, and
// trace lines are written to Output.
type Tape struct {
	Input  io.Reader
	Output io.Writer
	Hex    bool // If set, Input is whitespace separated hex byte text.
}

var _ Source = (*Tape)(nil)

// Image reads the program image from the input stream.
func (tc *Tape) Image() (data []byte, err error) {
	if tc.Input == nil {
		data = []byte{}
		return
	}

	raw, err := io.ReadAll(tc.Input)
	if err != nil {
		return
	}

	if !tc.Hex {
		data = raw
		return
	}

	data = []byte{}
	for _, line := range strings.Split(string(raw), "\n") {
		// Allow '#' comments in hex text.
		line, _, _ = strings.Cut(line, "#")
		for _, token := range strings.Fields(line) {
			digits := strings.TrimPrefix(token, "$")
			digits = strings.TrimPrefix(strings.TrimPrefix(digits, "0x"), "0X")
			var value uint64
			value, err = strconv.ParseUint(digits, 16, 8)
			if err != nil {
				err = ErrHexToken(token)
				return
			}
			data = append(data, byte(value))
		}
	}

	return
}

// Trace writes a single line to the output stream, if one is set.
func (tc *Tape) Trace(format string, args ...any) (err error) {
	if tc.Output == nil {
		return
	}

	_, err = fmt.Fprintf(tc.Output, format+"\n", args...)
	return
}
