package shortener

import "errors"

var (
	// ErrNotFound is returned when no link exists for a code.
	ErrNotFound = errors.New("link not found")

	// ErrDuplicateCode is returned by Repository.Insert when the code is
	// already taken. The resolver retries it; callers never see it.
	ErrDuplicateCode = errors.New("code already taken")

	// ErrGenerationExhausted is returned when the resolver burns through
	// its attempt budget without landing a free code.
	ErrGenerationExhausted = errors.New("code generation exhausted")

	// ErrInvalidURL is returned for targets that are not absolute http or
	// https URLs.
	ErrInvalidURL = errors.New("invalid target url")
)
