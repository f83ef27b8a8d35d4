package internal

import (
	"fmt"

	"gitlab.com/tozd/go/errors"
)

// Kind tags an error so callers can branch on it.
type Kind int

const (
	// KindPath: root or file inaccessible or nonexistent.
	KindPath Kind = iota + 1
	// KindCodec: not gzip, or not decodable as line-structured text.
	KindCodec
	// KindIO: read/write/flush/rename failure.
	KindIO
	// KindPoolConfig: invalid engine configuration.
	KindPoolConfig
)

func (k Kind) String() string {
	switch k {
	case KindPath:
		return "PathError"
	case KindCodec:
		return "CodecError"
	case KindIO:
		return "IoError"
	case KindPoolConfig:
		return "PoolConfigError"
	default:
		return "UnknownError"
	}
}

// Sentinels for errors.Is. A typed *Error matches the sentinel of its Kind.
var (
	ErrPath       = &Error{Kind: KindPath}
	ErrCodec      = &Error{Kind: KindCodec}
	ErrIO         = &Error{Kind: KindIO}
	ErrPoolConfig = &Error{Kind: KindPoolConfig}
)

// Error is a tagged error carrying the path it concerns.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

// NewError wraps err with a kind and path.
func NewError(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// Errorf builds a tagged error with a formatted, stack-carrying cause.
func Errorf(kind Kind, path string, format string, args ...any) *Error {
	return &Error{Kind: kind, Path: path, Err: errors.Errorf(format, args...)}
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return e.Kind.String()
	case e.Path == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Path != "" || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first tagged error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
