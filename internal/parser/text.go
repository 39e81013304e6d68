package parser

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeError reports that a source is neither valid UTF-8 nor valid GBK.
type DecodeError struct {
	Filename string
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s: not utf-8 or gbk: %s", e.Filename, e.Err)
	}
	return fmt.Sprintf("decode %s: not utf-8 or gbk", e.Filename)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// TextSource handles plain text files encoded as UTF-8 or GBK.
type TextSource struct{}

func (p *TextSource) Read(r io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filename, err)
	}
	return Decode(data, filename)
}

// Decode returns data as a string, trying UTF-8 first and GBK second.
func Decode(data []byte, filename string) (string, error) {
	if utf8.Valid(data) {
		return string(bytes.TrimPrefix(data, utf8BOM)), nil
	}

	out, err := simplifiedchinese.GBK.NewDecoder().Bytes(data)
	if err != nil {
		return "", &DecodeError{Filename: filename, Err: err}
	}
	// The GBK decoder substitutes U+FFFD for invalid sequences instead of failing.
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", &DecodeError{Filename: filename}
	}
	return string(out), nil
}
