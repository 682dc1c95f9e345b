package report_test

import (
	"encoding/json"
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quantlake/quantlake/pkg/ratelimit"
	"github.com/quantlake/quantlake/pkg/report"
)

var _ = Describe("Report", func() {
	var rep *report.Report

	BeforeEach(func() {
		rep = report.New()
		rep.AddPlanned("daily", 3)
		rep.AddDone("daily", 1500)
		rep.AddDone("daily", 1479)
		rep.AddFailed("daily", "trade_date=20210106", "all 5 attempts failed")
		rep.AddPlanned("cyq_chips", 1)
		rep.AddSkipped("cyq_chips", "ts_code=000001.SZ&year=2021", "permission denied")
		rep.Finalize(ratelimit.Stats{Requests: 9, EffectiveRPM: 120}, false)
	})

	It("sums per-dataset stats into run totals", func() {
		totals := rep.Totals()
		Expect(totals.Planned).To(Equal(4))
		Expect(totals.Done).To(Equal(2))
		Expect(totals.Skipped).To(Equal(1))
		Expect(totals.Failed).To(Equal(1))
		Expect(totals.Rows).To(Equal(2979))
	})

	It("saves itself as JSON named by run ID", func() {
		dir := GinkgoT().TempDir()

		path, err := rep.Save(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(ContainSubstring("run_" + rep.RunID))

		raw, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())

		var loaded report.Report
		Expect(json.Unmarshal(raw, &loaded)).To(Succeed())
		Expect(loaded.RunID).To(Equal(rep.RunID))
		Expect(loaded.PerDataset["daily"].Rows).To(Equal(2979))
		Expect(loaded.Failures).To(HaveLen(2))
		Expect(loaded.RateLimit.Requests).To(Equal(int64(9)))
	})

	It("renders a summary with every dataset and unresolved task", func() {
		var buf strings.Builder
		rep.Render(&buf, true)

		out := buf.String()
		Expect(out).To(ContainSubstring("daily"))
		Expect(out).To(ContainSubstring("cyq_chips"))
		Expect(out).To(ContainSubstring("2 done"))
		Expect(out).To(ContainSubstring("unresolved tasks:"))
		Expect(out).To(ContainSubstring("trade_date=20210106"))
	})

	It("marks an interrupted run", func() {
		rep.Finalize(ratelimit.Stats{}, true)

		var buf strings.Builder
		rep.Render(&buf, true)
		Expect(buf.String()).To(ContainSubstring("(interrupted)"))
	})
})
