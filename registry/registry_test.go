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

package registry_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/helianthus-go/rpc/registry"
)

type noopService struct{ tag string }

func (s noopService) Methods() []registry.Method {
	return []registry.Method{
		{
			Meta: registry.NewMeta("Do", s.tag),
			Sync: func(ctx context.Context, params []byte) ([]byte, error) { return params, nil },
		},
	}
}

var _ = Describe("Registry", func() {
	It("reports HasService only after RegisterService", func() {
		r := registry.New()
		Expect(r.HasService("Calc")).To(BeFalse())

		r.RegisterService("Calc", "v1", func() registry.ServiceInstance { return noopService{} })
		Expect(r.HasService("Calc")).To(BeTrue())
	})

	It("replaces the factory but keeps accumulated methods on re-registration", func() {
		r := registry.New()
		r.RegisterService("Calc", "v1", func() registry.ServiceInstance { return noopService{tag: "v1"} })
		Expect(r.RegisterMethod("Calc", registry.NewMeta("add"))).To(Succeed())

		r.RegisterService("Calc", "v2", func() registry.ServiceInstance { return noopService{tag: "v2"} })

		meta, ok := r.GetMeta("Calc")
		Expect(ok).To(BeTrue())
		Expect(meta).To(HaveLen(1))
		Expect(meta[0].Name).To(Equal("add"))

		inst, ok := r.Create("Calc")
		Expect(ok).To(BeTrue())
		Expect(inst.(noopService).tag).To(Equal("v2"))
	})

	It("errors RegisterMethod against an unknown service", func() {
		r := registry.New()
		err := r.RegisterMethod("Ghost", registry.NewMeta("x"))
		Expect(err).To(HaveOccurred())
	})

	It("preserves method registration order", func() {
		r := registry.New()
		r.RegisterService("Calc", "v1", func() registry.ServiceInstance { return noopService{} })
		Expect(r.RegisterMethod("Calc", registry.NewMeta("add"))).To(Succeed())
		Expect(r.RegisterMethod("Calc", registry.NewMeta("sub"))).To(Succeed())
		Expect(r.RegisterMethod("Calc", registry.NewMeta("mul"))).To(Succeed())

		meta, _ := r.GetMeta("Calc")
		names := make([]string, len(meta))
		for i, m := range meta {
			names[i] = m.Name
		}
		Expect(names).To(Equal([]string{"add", "sub", "mul"}))
	})

	It("lists every registered service", func() {
		r := registry.New()
		r.RegisterService("Calc", "v1", func() registry.ServiceInstance { return noopService{} })
		r.RegisterService("Echo", "v1", func() registry.ServiceInstance { return noopService{} })
		Expect(r.ListServices()).To(ConsistOf("Calc", "Echo"))
	})

	It("reports Create's ok=false for an unknown service", func() {
		r := registry.New()
		_, ok := r.Create("Ghost")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("MethodMeta", func() {
	It("defaults Priority to 100", func() {
		m := registry.NewMeta("add")
		Expect(m.Priority).To(Equal(100))
	})

	It("matches tags by membership, not by declaration order", func() {
		m := registry.NewMeta("add", "Rpc", "Math", "PureFunction")
		Expect(m.HasTag("Math")).To(BeTrue())
		Expect(m.HasTag("Admin")).To(BeFalse())
		Expect(m.HasAllTags([]string{"Math", "PureFunction"})).To(BeTrue())
		Expect(m.HasAllTags([]string{"Math", "Admin"})).To(BeFalse())
	})

	It("satisfies an empty required-tags set trivially", func() {
		m := registry.NewMeta("add")
		Expect(m.HasAllTags(nil)).To(BeTrue())
	})
})
