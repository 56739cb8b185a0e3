package stream_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatter/pkg/stream"
)

var _ = Describe("SerialDispatcher", func() {
	It("runs callbacks one at a time in FIFO order", func() {
		d := stream.NewSerialDispatcher()

		var (
			mu      sync.Mutex
			order   []int
			running int
			overlap bool
		)
		for i := range 100 {
			d.Dispatch(func() {
				mu.Lock()
				running++
				if running > 1 {
					overlap = true
				}
				mu.Unlock()

				mu.Lock()
				order = append(order, i)
				running--
				mu.Unlock()
			})
		}
		d.Close()

		Expect(overlap).To(BeFalse())
		Expect(order).To(HaveLen(100))
		for i, v := range order {
			Expect(v).To(Equal(i))
		}
	})

	It("runs callbacks inline once closed", func() {
		d := stream.NewSerialDispatcher()
		d.Close()
		d.Close()

		ran := false
		d.Dispatch(func() { ran = true })
		Expect(ran).To(BeTrue())
	})
})

var _ = Describe("DispatcherFunc", func() {
	It("adapts a function", func() {
		var queued []func()
		d := stream.DispatcherFunc(func(fn func()) { queued = append(queued, fn) })

		ran := false
		d.Dispatch(func() { ran = true })
		Expect(ran).To(BeFalse())
		Expect(queued).To(HaveLen(1))

		queued[0]()
		Expect(ran).To(BeTrue())
	})
})
