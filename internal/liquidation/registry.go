package liquidation

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rgehrsitz/mesada/internal/calculation"
	"github.com/rgehrsitz/mesada/internal/domain"
)

// Registry maps variant names to their implementations
type Registry struct {
	variants map[string]Variant
	aliases  map[string]string
}

// NewRegistry creates a registry with all built-in variants registered
func NewRegistry() *Registry {
	r := &Registry{
		variants: make(map[string]Variant),
		aliases:  make(map[string]string),
	}

	r.Register(Evolucion{}, "evolucion-mesada", "evolución")
	r.Register(PrecedenteSERP{}, "precedente-serp", "precedente_serp")
	r.Register(SimuladorFONECA{}, "simulador-foneca", "foneca")
	r.Register(Certificado{})

	return r
}

// Register adds a variant under its name and any aliases
func (r *Registry) Register(v Variant, aliases ...string) {
	r.variants[v.Name()] = v
	for _, a := range aliases {
		r.aliases[strings.ToLower(a)] = v.Name()
	}
}

// Get looks a variant up by name or alias
func (r *Registry) Get(name string) (Variant, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := r.aliases[key]; ok {
		key = canonical
	}
	v, ok := r.variants[key]
	if !ok {
		return nil, fmt.Errorf("unknown variant: %s", name)
	}
	return v, nil
}

// List returns the registered variant names in sorted order
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.variants))
	for name := range r.variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the variant named by opts.Variant over a case
func (r *Registry) Run(ctx context.Context, engine *calculation.Engine, c *domain.Case, opts Options) (*domain.Liquidation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err := r.Get(opts.Variant)
	if err != nil {
		return nil, err
	}
	opts.Variant = v.Name()
	result, err := v.Run(engine, c, opts)
	if err != nil {
		return nil, fmt.Errorf("%s liquidation for %s: %w", v.Name(), c.Pensioner.ID, err)
	}
	return result, nil
}
