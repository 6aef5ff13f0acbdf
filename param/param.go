// Public domain.

// Package param defines timing-model parameters and the fixed ordered
// registry that a fit resolves all matrix and vector indices against.
package param

import (
	"fmt"

	"github.com/LuluAgazie/PINT/timescale"
)

// Parameter is a named scalar of the timing model.
//
// An Uncertainty of exactly zero means the value is known exactly, not
// that the uncertainty is unavailable.  A frozen parameter keeps its value
// through a fit and never appears as a design matrix column or a sampled
// dimension.
type Parameter struct {
	Name        string
	Value       float64
	Uncertainty float64
	Frozen      bool
	Scale       timescale.Scale
	Unit        string
}

// Registry is the ordered set of parameters for one fit session.
//
// The ordering is fixed at construction.  Free parameters keep their
// registration order, and that order defines design matrix columns,
// covariance matrix rows, and derived-parameter Jacobian entries alike.
// Hot loops index by position, never by name.
type Registry struct {
	params []*Parameter
	index  map[string]int
	free   []int // positions of free parameters, registration order
}

// NewRegistry builds a registry from the given parameters.  Parameter
// values are copied; the caller's structs are not retained.  Duplicate or
// empty names are configuration errors.
func NewRegistry(ps ...*Parameter) (*Registry, error) {
	r := &Registry{
		params: make([]*Parameter, len(ps)),
		index:  make(map[string]int, len(ps)),
	}
	for i, p := range ps {
		if p.Name == "" {
			return nil, fmt.Errorf("param: parameter %d has no name", i)
		}
		if _, ok := r.index[p.Name]; ok {
			return nil, fmt.Errorf("param: duplicate parameter %s", p.Name)
		}
		cp := *p
		r.params[i] = &cp
		r.index[p.Name] = i
		if !p.Frozen {
			r.free = append(r.free, i)
		}
	}
	return r, nil
}

// Clone returns a deep copy sharing no state with r.  Each fit or sampler
// run owns its own clone.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		params: make([]*Parameter, len(r.params)),
		index:  make(map[string]int, len(r.index)),
		free:   append([]int{}, r.free...),
	}
	for i, p := range r.params {
		cp := *p
		c.params[i] = &cp
		c.index[p.Name] = i
	}
	return c
}

// Len returns the total number of parameters, frozen included.
func (r *Registry) Len() int { return len(r.params) }

// NumFree returns the number of free parameters.
func (r *Registry) NumFree() int { return len(r.free) }

// Get returns the named parameter, or false if not registered.
func (r *Registry) Get(name string) (*Parameter, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.params[i], true
}

// All returns all parameters in registration order.
func (r *Registry) All() []*Parameter { return r.params }

// Free returns the free parameters in registration order.
func (r *Registry) Free() []*Parameter {
	f := make([]*Parameter, len(r.free))
	for j, i := range r.free {
		f[j] = r.params[i]
	}
	return f
}

// FreeNames returns the names of free parameters in registration order.
// This is the column ordering of the design matrix and the covariance
// matrix.
func (r *Registry) FreeNames() []string {
	n := make([]string, len(r.free))
	for j, i := range r.free {
		n[j] = r.params[i].Name
	}
	return n
}

// FreeIndex returns the position of the named parameter among the free
// parameters, or false if the parameter is frozen or not registered.
func (r *Registry) FreeIndex(name string) (int, bool) {
	i, ok := r.index[name]
	if !ok || r.params[i].Frozen {
		return 0, false
	}
	for j, fi := range r.free {
		if fi == i {
			return j, true
		}
	}
	return 0, false
}

// FreeValues returns the current free-parameter vector.
func (r *Registry) FreeValues() []float64 {
	v := make([]float64, len(r.free))
	for j, i := range r.free {
		v[j] = r.params[i].Value
	}
	return v
}

// SetFreeValues stores x as the current free-parameter values.
func (r *Registry) SetFreeValues(x []float64) error {
	if len(x) != len(r.free) {
		return fmt.Errorf("param: value vector length %d, want %d free",
			len(x), len(r.free))
	}
	for j, i := range r.free {
		r.params[i].Value = x[j]
	}
	return nil
}

// SetFreeUncertainties stores u as the free-parameter uncertainties.
func (r *Registry) SetFreeUncertainties(u []float64) error {
	if len(u) != len(r.free) {
		return fmt.Errorf("param: uncertainty vector length %d, want %d free",
			len(u), len(r.free))
	}
	for j, i := range r.free {
		r.params[i].Uncertainty = u[j]
	}
	return nil
}
