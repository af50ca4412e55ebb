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

// Mounter is the narrow interface the server core exposes back to the
// registry so MountAll/MountByTags never need to import the server
// package directly.
type Mounter interface {
	Mount(serviceName string, instance ServiceInstance, methods []MethodMeta) error
}

// MountAll creates one instance per registered service and mounts every
// one of them, unfiltered.
func (r *Registry) MountAll(m Mounter) error {
	for _, name := range r.ListServices() {
		inst, ok := r.Create(name)
		if !ok {
			continue
		}
		meta, _ := r.GetMeta(name)
		if err := m.Mount(name, inst, meta); err != nil {
			return err
		}
	}
	return nil
}

// MountByTags mounts a service if any of its methods carries every tag in
// requiredTags. Within a mounted service, only methods that themselves
// satisfy the tag filter are kept reachable; the rest are hidden from
// dispatch, giving deployment-time surface control such as
// exposing only Admin or only PureFunction methods.
func (r *Registry) MountByTags(m Mounter, requiredTags []string) error {
	for _, name := range r.ListServices() {
		meta, _ := r.GetMeta(name)

		anyMatch := false
		kept := make(map[string]struct{}, len(meta))
		for _, mm := range meta {
			if mm.HasAllTags(requiredTags) {
				anyMatch = true
				kept[mm.Name] = struct{}{}
			}
		}
		if !anyMatch {
			continue
		}

		inst, ok := r.Create(name)
		if !ok {
			continue
		}

		filteredMeta := make([]MethodMeta, 0, len(kept))
		for _, mm := range meta {
			if _, ok := kept[mm.Name]; ok {
				filteredMeta = append(filteredMeta, mm)
			}
		}

		if err := m.Mount(name, &filteredInstance{inner: inst, kept: kept}, filteredMeta); err != nil {
			return err
		}
	}
	return nil
}

// filteredInstance hides methods that did not satisfy a MountByTags
// filter; dispatch against it sees only the kept subset.
type filteredInstance struct {
	inner ServiceInstance
	kept  map[string]struct{}
}

func (f *filteredInstance) Methods() []Method {
	all := f.inner.Methods()
	out := make([]Method, 0, len(all))
	for _, m := range all {
		if _, ok := f.kept[m.Meta.Name]; ok {
			out = append(out, m)
		}
	}
	return out
}
