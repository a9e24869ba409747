package shortener

import (
	"context"
	"errors"
	"fmt"
)

// DefaultMaxAttempts bounds how many candidate codes a Resolver tries
// before giving up.
const DefaultMaxAttempts = 10

// Resolver allocates unique codes. The store's uniqueness constraint is
// the authority; the existence pre-check only saves doomed inserts and
// is allowed to race.
type Resolver struct {
	store       Repository
	generate    CodeGenerator
	maxAttempts int
}

// NewResolver creates a resolver with the default attempt budget.
func NewResolver(store Repository, generate CodeGenerator) *Resolver {
	return &Resolver{
		store:       store,
		generate:    generate,
		maxAttempts: DefaultMaxAttempts,
	}
}

// Reserve fills link.Code with a fresh code and inserts the link. Every
// collision consumes one attempt, whether the pre-check spotted it or the
// insert lost a race and came back with ErrDuplicateCode. Once the budget
// is spent Reserve returns ErrGenerationExhausted; ErrDuplicateCode never
// escapes.
func (r *Resolver) Reserve(ctx context.Context, link *Link) error {
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		code := Code(r.generate())

		exists, err := r.store.ExistsByCode(ctx, code)
		if err != nil {
			return fmt.Errorf("check code: %w", err)
		}

		if exists {
			continue
		}

		link.Code = code

		err = r.store.Insert(ctx, link)
		if err == nil {
			return nil
		}

		if errors.Is(err, ErrDuplicateCode) {
			// Lost the race for this code; draw another.
			continue
		}

		return fmt.Errorf("insert link: %w", err)
	}

	return ErrGenerationExhausted
}
