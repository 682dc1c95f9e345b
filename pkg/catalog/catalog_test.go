package catalog

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Catalog", func() {
	Describe("loading", func() {
		It("applies default parameter names per policy", func() {
			cat, err := New([]Descriptor{
				{Name: "a", Policy: ChunkByDate, Enabled: true},
				{Name: "b", Policy: ChunkByQuarter, Enabled: true},
				{Name: "c", Policy: ChunkByEntity, EntityKind: EntityStock, Enabled: true},
			})
			Expect(err).NotTo(HaveOccurred())

			a, _ := cat.Get("a")
			Expect(a.DateParam).To(Equal("trade_date"))
			b, _ := cat.Get("b")
			Expect(b.PeriodParam).To(Equal("period"))
			c, _ := cat.Get("c")
			Expect(c.EntityParam).To(Equal("ts_code"))
			Expect(c.Priority).To(Equal(1))
		})

		It("rejects duplicate dataset names", func() {
			_, err := New([]Descriptor{
				{Name: "a", Policy: ChunkNone},
				{Name: "a", Policy: ChunkNone},
			})
			Expect(err).To(MatchError(ContainSubstring("duplicate dataset")))
		})

		It("rejects entity policies without an entity kind", func() {
			_, err := New([]Descriptor{
				{Name: "a", Policy: ChunkByEntity},
			})
			Expect(err).To(MatchError(ContainSubstring("entity kind")))
		})

		It("rejects unknown policies", func() {
			_, err := New([]Descriptor{
				{Name: "a", Policy: ChunkPolicy("weekly")},
			})
			Expect(err).To(MatchError(ContainSubstring("unknown chunk policy")))
		})

		It("loads the builtin registry", func() {
			cat, err := Builtin()
			Expect(err).NotTo(HaveOccurred())
			Expect(len(cat.All())).To(BeNumerically(">", 30))

			daily, ok := cat.Get("daily")
			Expect(ok).To(BeTrue())
			Expect(daily.Policy).To(Equal(ChunkByDate))

			cyq, ok := cat.Get("cyq_perf")
			Expect(ok).To(BeTrue())
			Expect(cyq.Policy).To(Equal(ChunkByEntityAndDate))
			Expect(cyq.EntityParam).To(Equal("ts_code"))
		})
	})

	Describe("selection", func() {
		var cat *Catalog

		BeforeEach(func() {
			var err error
			cat, err = New([]Descriptor{
				{Name: "a", Policy: ChunkNone, Category: "basic", Priority: 1, Enabled: true},
				{Name: "b", Policy: ChunkByYear, Category: "basic", Priority: 2, Enabled: true},
				{Name: "c", Policy: ChunkNone, Category: "quote", Priority: 1, Enabled: true},
				{Name: "d", Policy: ChunkNone, Category: "quote", Priority: 1, Enabled: false},
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("selects everything enabled by default", func() {
			descs, err := cat.Select(Selection{})
			Expect(err).NotTo(HaveOccurred())
			Expect(names(descs)).To(Equal([]string{"a", "b", "c"}))
		})

		It("filters by dataset name", func() {
			descs, err := cat.Select(Selection{Datasets: []string{"b"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(names(descs)).To(Equal([]string{"b"}))
		})

		It("rejects unknown dataset names", func() {
			_, err := cat.Select(Selection{Datasets: []string{"nope"}})
			Expect(err).To(MatchError(ContainSubstring("unknown dataset")))
		})

		It("filters by category and priority", func() {
			descs, err := cat.Select(Selection{Categories: []string{"basic"}, Priority: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(names(descs)).To(Equal([]string{"b"}))
		})

		It("never selects disabled datasets", func() {
			descs, err := cat.Select(Selection{Categories: []string{"quote"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(names(descs)).To(Equal([]string{"c"}))
		})

		It("narrows quick runs to priority-1 unchunked datasets", func() {
			descs, err := cat.Select(Selection{Quick: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(names(descs)).To(Equal([]string{"a", "c"}))
		})
	})
})

func names(descs []Descriptor) []string {
	out := make([]string, 0, len(descs))
	for _, d := range descs {
		out = append(out, d.Name)
	}
	return out
}
