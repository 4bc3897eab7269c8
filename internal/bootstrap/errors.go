package bootstrap

import (
	"errors"
	"fmt"
)

// Kind classifies a Failure. The underlying error is always kept verbatim.
type Kind string

const (
	KindConnection    Kind = "connection"
	KindPrivilege     Kind = "privilege"
	KindDuplicateUser Kind = "duplicate_user"
	KindUnknown       Kind = "unknown"
)

// Sentinels that Admin implementations wrap around driver errors so the
// failure can be classified without this package knowing the driver.
var (
	ErrConnection = errors.New("admin connection unavailable")
	ErrPrivilege  = errors.New("insufficient privilege")
	ErrUserExists = errors.New("user already exists")
)

// Failure is the single error type returned by Run.
type Failure struct {
	Kind     Kind
	User     string
	Database string
	Err      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("bootstrap of user %q on database %q failed (%s): %v", f.User, f.Database, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func newFailure(s Settings, err error) *Failure {
	return &Failure{
		Kind:     classify(err),
		User:     s.Username,
		Database: s.Database,
		Err:      err,
	}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, ErrUserExists):
		return KindDuplicateUser
	case errors.Is(err, ErrPrivilege):
		return KindPrivilege
	case errors.Is(err, ErrConnection):
		return KindConnection
	default:
		return KindUnknown
	}
}

// KindOf returns the Kind of err if it is (or wraps) a Failure.
func KindOf(err error) (Kind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return "", false
}
