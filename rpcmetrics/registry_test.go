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

package rpcmetrics_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/helianthus-go/rpc/rpcmetrics"
)

var _ = Describe("Registry", func() {
	var reg *rpcmetrics.Registry

	BeforeEach(func() {
		reg = rpcmetrics.NewRegistry()
	})

	It("counts calls by service/method/result", func() {
		reg.RecordCall("Echo", "Ping", "success")
		reg.RecordCall("Echo", "Ping", "success")
		reg.RecordCall("Echo", "Ping", "failed")

		count, err := testutil.GatherAndCount(reg.Gatherer(), "helianthus_rpc_calls_total")
		Expect(err).ToNot(HaveOccurred())
		Expect(count).To(Equal(2))
	})

	It("tracks active call gauges per service", func() {
		reg.ActiveCallsInc("Echo")
		reg.ActiveCallsInc("Echo")
		reg.ActiveCallsDec("Echo")

		count, err := testutil.GatherAndCount(reg.Gatherer(), "helianthus_rpc_active_calls")
		Expect(err).ToNot(HaveOccurred())
		Expect(count).To(Equal(1))
	})

	It("records late responses separately from normal calls", func() {
		reg.RecordLateResponse("Echo", "Ping")

		count, err := testutil.GatherAndCount(reg.Gatherer(), "helianthus_rpc_late_responses_total")
		Expect(err).ToNot(HaveOccurred())
		Expect(count).To(Equal(1))
	})

	It("exposes precise quantiles alongside the Prometheus histogram", func() {
		for i := 1; i <= 100; i++ {
			reg.Observe("Echo", time.Duration(i)*time.Millisecond)
		}

		p50, p95, p99 := reg.Quantiles("Echo")
		Expect(p50).To(BeNumerically("~", 50, 2))
		Expect(p95).To(BeNumerically("~", 95, 2))
		Expect(p99).To(BeNumerically("~", 99, 2))
	})

	It("exports quantile gauges on the scrape surface", func() {
		for i := 1; i <= 100; i++ {
			reg.Observe("Echo", time.Duration(i)*time.Millisecond)
		}

		count, err := testutil.GatherAndCount(reg.Gatherer(), "helianthus_rpc_call_duration_quantile_ms")
		Expect(err).ToNot(HaveOccurred())
		Expect(count).To(Equal(3))
	})

	It("returns zero quantiles for a service with no observations", func() {
		p50, p95, p99 := reg.Quantiles("Nothing")
		Expect(p50).To(BeZero())
		Expect(p95).To(BeZero())
		Expect(p99).To(BeZero())
	})
})
