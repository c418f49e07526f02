package ports

import "context"

// Classifier resolves a single phrase to an intent label in one attempt.
// Retrying is the resolver's responsibility, not the classifier's.
type Classifier interface {
	// Classify returns the intent label for a phrase.
	// It returns domain.ErrRateLimited when the service asks the caller to
	// back off, and *domain.ClassificationError for any other non-success
	// response.
	Classify(ctx context.Context, phrase string) (string, error)
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, phrase string) (string, error)

func (f ClassifierFunc) Classify(ctx context.Context, phrase string) (string, error) {
	return f(ctx, phrase)
}
