package ratelimit_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quantlake/quantlake/pkg/ratelimit"
)

var _ = Describe("Limiter", func() {
	It("admits a burst immediately", func() {
		limiter := ratelimit.New(60, 5)
		ctx := context.Background()

		start := time.Now()
		for i := 0; i < 5; i++ {
			Expect(limiter.Acquire(ctx)).To(Succeed())
		}
		Expect(time.Since(start)).To(BeNumerically("<", 100*time.Millisecond))
	})

	It("spaces requests beyond the burst", func() {
		// 1200 rpm = 20 rps, so the 4th call after a burst of 1 waits
		// roughly 150ms in total
		limiter := ratelimit.New(1200, 1)
		ctx := context.Background()

		start := time.Now()
		for i := 0; i < 4; i++ {
			Expect(limiter.Acquire(ctx)).To(Succeed())
		}
		Expect(time.Since(start)).To(BeNumerically(">=", 100*time.Millisecond))
	})

	It("unblocks a waiting caller on cancellation", func() {
		limiter := ratelimit.New(1, 1)
		ctx := context.Background()
		Expect(limiter.Acquire(ctx)).To(Succeed())

		cancelCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		err := limiter.Acquire(cancelCtx)
		Expect(err).To(HaveOccurred())
		Expect(limiter.Stats().Requests).To(Equal(int64(1)))
	})

	It("rejects a non-blocking acquire when the bucket is empty", func() {
		limiter := ratelimit.New(1, 1)
		Expect(limiter.Allow()).To(BeTrue())
		Expect(limiter.Allow()).To(BeFalse())
	})

	It("counts admitted requests", func() {
		limiter := ratelimit.New(6000, 10)
		ctx := context.Background()
		for i := 0; i < 7; i++ {
			Expect(limiter.Acquire(ctx)).To(Succeed())
		}

		stats := limiter.Stats()
		Expect(stats.Requests).To(Equal(int64(7)))
		Expect(stats.Elapsed).To(BeNumerically(">", 0))
		Expect(stats.EffectiveRPM).To(BeNumerically(">", 0))
	})
})
