package driving

import "context"

// Discovery is the result of asking the server which models it has.
type Discovery struct {
	// Models is the set of locally available model identifiers.
	Models []string

	// Unavailable is true when the server has no models installed.
	Unavailable bool
}

// ModelCatalog discovers and selects models.
type ModelCatalog interface {
	// Discover lists available models. An empty list sets Unavailable and is not an error.
	Discover(ctx context.Context) (Discovery, error)

	// Resolve returns preferred if it is installed. An empty preference selects
	// the first installed model.
	Resolve(ctx context.Context, preferred string) (string, error)
}
