package atmos

import (
	"slices"
)

// Registry is an ordered, append-only collection of options. Registration order is precedence
// order: when two options share a directive, the one registered first wins.
type Registry struct {
	options []*Option
	current *Option
	matched bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends opt and returns the registry for chaining. It panics if opt is nil or if a match
// lookup already happened, since the registry is frozen once matching starts.
func (r *Registry) Register(opt *Option) *Registry {
	if opt == nil {
		panic("atmos: register of nil option")
	}
	if r.matched {
		panic("atmos: register of option " + opt.id + " after match")
	}
	r.options = append(r.options, opt)
	return r
}

// Match scans the options in registration order and caches the first one whose directives contain
// token. It reports whether an option matched.
func (r *Registry) Match(token string) bool {
	r.matched = true
	r.current = nil
	for _, opt := range r.options {
		if opt.HasDirective(token) {
			r.current = opt
			return true
		}
	}
	return false
}

// Current returns the option cached by the last successful [Registry.Match], or nil.
func (r *Registry) Current() *Option {
	return r.current
}

// Options returns the registered options in registration order.
func (r *Registry) Options() []*Option {
	return slices.Clone(r.options)
}

// Len returns the number of registered options.
func (r *Registry) Len() int {
	return len(r.options)
}

// Directives returns every directive of every option, in registration order.
func (r *Registry) Directives() []string {
	var all []string
	for _, opt := range r.options {
		all = append(all, opt.directives...)
	}
	return all
}
