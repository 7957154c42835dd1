package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/propscribe/propscribe/pkg/models"
)

// Dispatcher routes authentication to a named resolver. The resolver
// table is fixed at startup; an optional override replaces whatever
// resolver the route asked for, which lets dev environments force mock
// auth without touching route wiring.
type Dispatcher struct {
	resolvers map[string]Resolver
	override  string
	logger    *slog.Logger
}

// NewDispatcher builds the resolver table. Registering two resolvers
// with the same name is a programming error.
func NewDispatcher(override string, logger *slog.Logger, resolvers ...Resolver) (*Dispatcher, error) {
	table := make(map[string]Resolver, len(resolvers))
	for _, r := range resolvers {
		if _, exists := table[r.Name()]; exists {
			return nil, fmt.Errorf("duplicate auth resolver %q", r.Name())
		}
		table[r.Name()] = r
	}

	if override != "" {
		if _, ok := table[override]; !ok {
			return nil, fmt.Errorf("auth resolver override %q is not registered", override)
		}
		logger.Warn("auth resolver override active", slog.String("resolver", override))
	}

	return &Dispatcher{resolvers: table, override: override, logger: logger}, nil
}

// Authenticate resolves rawToken with the named resolver, honouring the
// startup override.
func (d *Dispatcher) Authenticate(ctx context.Context, resolverName, rawToken string) (models.Identity, error) {
	name := resolverName
	if d.override != "" {
		name = d.override
	}

	resolver, ok := d.resolvers[name]
	if !ok {
		return models.Identity{}, fmt.Errorf("unknown auth resolver %q", name)
	}

	identity, err := resolver.Resolve(ctx, rawToken)
	if err != nil {
		return models.Identity{}, err
	}

	d.logger.DebugContext(ctx, "request authenticated",
		slog.String("resolver", name),
		slog.String("user_id", identity.UserID),
		slog.Bool("system", identity.System))

	return identity, nil
}
