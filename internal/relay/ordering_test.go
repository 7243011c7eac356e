// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package relay_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/gnistdesign/gnist/internal/hook"
	"github.com/gnistdesign/gnist/internal/host"
	"github.com/gnistdesign/gnist/internal/relay"
)

// trace records the order in which namespaced signals fire.
type trace struct {
	fired []string
}

func (tr *trace) on(bus *hook.Bus, names ...string) {
	for _, name := range names {
		_, err := bus.AddAction(name, 1000, func(context.Context, ...any) error {
			tr.fired = append(tr.fired, name)
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
	}
}

func (tr *trace) index(name string) int {
	for i, n := range tr.fired {
		if n == name {
			return i
		}
	}
	return -1
}

var _ = Describe("init relay ordering", func() {
	var (
		bus *hook.Bus
		r   *relay.Relay
		tr  *trace
	)

	BeforeEach(func() {
		bus = hook.New()
		r = relay.New()
		Expect(r.Attach(bus)).To(Succeed())
		tr = &trace{}

		var names []string
		for _, route := range r.Routes() {
			names = append(names, route.Emits...)
		}
		tr.on(bus, names...)
	})

	When("the host fires init once", func() {
		BeforeEach(func() {
			Expect(bus.DoAction(context.Background(), host.Init)).To(Succeed())
		})

		It("emits the full init chain in documented order", func() {
			Expect(tr.fired).To(Equal([]string{
				"gnist/load_textdomain",
				"gnist/plugin_update_checker",
				"gnist/install",
				"gnist/setup_requirements",
				"gnist/requirements_included",
				"gnist/setup_globals",
				"gnist/globals_included",
				"gnist/setup_instances",
				"gnist/instances_included",
				"gnist/init",
				"gnist/actions",
				"gnist/register/custom_post_type",
				"gnist/register/taxonomy",
			}))
		})

		DescribeTable("setup signals strictly precede their included signal",
			func(setup, included string) {
				Expect(tr.index(setup)).To(BeNumerically(">=", 0))
				Expect(tr.index(included)).To(Equal(tr.index(setup) + 1))
			},
			Entry("requirements", "gnist/setup_requirements", "gnist/requirements_included"),
			Entry("globals", "gnist/setup_globals", "gnist/globals_included"),
			Entry("instances", "gnist/setup_instances", "gnist/instances_included"),
		)

		It("fires every init downstream exactly once", func() {
			for _, name := range tr.fired {
				Expect(bus.DidAction(name)).To(Equal(1), name)
			}
		})
	})

	When("a subscriber on the namespaced init runs at the relay's priority", func() {
		It("runs after the relay's own entries at that priority", func() {
			_, err := bus.AddAction(r.Name(relay.Init), 10, func(context.Context, ...any) error {
				tr.fired = append(tr.fired, "subscriber")
				return nil
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(bus.DoAction(context.Background(), host.Init)).To(Succeed())

			Expect(tr.index("subscriber")).To(BeNumerically(">", tr.index("gnist/instances_included")))
			Expect(tr.index("subscriber")).To(BeNumerically("<", tr.index("gnist/actions")))
		})
	})

	When("init fires twice", func() {
		It("repeats the chain once per firing", func() {
			Expect(bus.DoAction(context.Background(), host.Init)).To(Succeed())
			Expect(bus.DoAction(context.Background(), host.Init)).To(Succeed())

			Expect(bus.DidAction("gnist/setup_instances")).To(Equal(2))
			Expect(bus.DidAction("gnist/instances_included")).To(Equal(2))
			Expect(tr.fired).To(HaveLen(26))
		})
	})

	When("init never fires", func() {
		It("emits nothing", func() {
			Expect(bus.DoAction(context.Background(), host.WPLoaded)).To(Succeed())
			Expect(tr.fired).To(Equal([]string{"gnist/wp_loaded"}))
			Expect(bus.DidAction("gnist/init")).To(BeZero())
		})
	})
})
