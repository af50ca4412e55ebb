/*
 * MIT License
 *
 * Copyright (c) 2026 Helianthus Authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package registry

import (
	"fmt"
	"sync"
)

type record struct {
	version string
	factory ServiceFactory
	methods []MethodMeta
}

// Registry is the process-wide map from service name to factory plus
// per-method metadata. It is append-only at steady state: RegisterMethod
// only appends, and RegisterService replacing an existing factory is the
// one permitted "overwrite" operation. The dispatch path
// never takes the registry lock directly; Create/GetMeta copy out an
// immutable snapshot under a short-lived lock.
type Registry struct {
	mu   sync.Mutex
	svcs map[string]*record
}

// New creates an empty Registry. Applications typically keep one per
// process and share it across every Server.
func New() *Registry {
	return &Registry{svcs: make(map[string]*record)}
}

// RegisterService registers name with factory. Idempotent by name:
// registering twice replaces the factory (and version) but never the
// accumulated method list.
func (r *Registry) RegisterService(name, version string, factory ServiceFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.svcs[name]
	if !ok {
		r.svcs[name] = &record{version: version, factory: factory}
		return
	}
	rec.version = version
	rec.factory = factory
}

// RegisterMethod appends meta to name's method list, preserving
// registration order. It is a no-op error if the service was never
// registered with RegisterService.
func (r *Registry) RegisterMethod(name string, meta MethodMeta) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.svcs[name]
	if !ok {
		return fmt.Errorf("registry: unknown service %q", name)
	}
	rec.methods = append(rec.methods, meta)
	return nil
}

// HasService reports whether name has been registered.
func (r *Registry) HasService(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.svcs[name]
	return ok
}

// ListServices returns every registered service name.
func (r *Registry) ListServices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.svcs))
	for name := range r.svcs {
		out = append(out, name)
	}
	return out
}

// GetMeta returns a copy of the method metadata list for name.
func (r *Registry) GetMeta(name string) ([]MethodMeta, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.svcs[name]
	if !ok {
		return nil, false
	}
	out := make([]MethodMeta, len(rec.methods))
	copy(out, rec.methods)
	return out, true
}

// Create produces one ServiceInstance for name by invoking its factory.
func (r *Registry) Create(name string) (ServiceInstance, bool) {
	r.mu.Lock()
	factory := func() ServiceFactory {
		if rec, ok := r.svcs[name]; ok {
			return rec.factory
		}
		return nil
	}()
	r.mu.Unlock()

	if factory == nil {
		return nil, false
	}
	return factory(), true
}
