package entities_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/quantlake/quantlake/pkg/catalog"
	"github.com/quantlake/quantlake/pkg/entities"
	"github.com/quantlake/quantlake/pkg/tushare"
)

type fakeClient struct {
	mu      sync.Mutex
	calls   []string
	handler func(apiName string, params map[string]string) (*tushare.Result, error)
}

func (f *fakeClient) Call(ctx context.Context, apiName string, params map[string]string) (*tushare.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, apiName)
	f.mu.Unlock()
	return f.handler(apiName, params)
}

func codesResult(codes ...string) *tushare.Result {
	res := &tushare.Result{Fields: []string{"ts_code", "name"}}
	for _, c := range codes {
		res.Items = append(res.Items, []any{c, "n/a"})
	}
	return res
}

var _ = Describe("TushareLister", func() {
	var (
		client *fakeClient
		lister *entities.TushareLister
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger := logrus.New()
		logger.SetLevel(logrus.FatalLevel)
		client = &fakeClient{}
		lister = entities.NewTushareLister(client, logger)
	})

	It("lists stocks sorted by code", func() {
		client.handler = func(apiName string, _ map[string]string) (*tushare.Result, error) {
			Expect(apiName).To(Equal("stock_basic"))
			return codesResult("600000.SH", "000001.SZ", "300750.SZ"), nil
		}

		codes, err := lister.List(ctx, catalog.EntityStock)
		Expect(err).NotTo(HaveOccurred())
		Expect(codes).To(Equal([]string{"000001.SZ", "300750.SZ", "600000.SH"}))
	})

	It("lists only exchange-traded funds", func() {
		client.handler = func(apiName string, params map[string]string) (*tushare.Result, error) {
			Expect(apiName).To(Equal("fund_basic"))
			Expect(params).To(HaveKeyWithValue("market", "E"))
			return codesResult("510300.SH"), nil
		}

		codes, err := lister.List(ctx, catalog.EntityFund)
		Expect(err).NotTo(HaveOccurred())
		Expect(codes).To(Equal([]string{"510300.SH"}))
	})

	It("caches each universe for the lifetime of the run", func() {
		client.handler = func(string, map[string]string) (*tushare.Result, error) {
			return codesResult("000001.SZ"), nil
		}

		for i := 0; i < 3; i++ {
			_, err := lister.List(ctx, catalog.EntityStock)
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(client.calls).To(HaveLen(1))
	})

	It("surfaces the upstream error for a failed listing", func() {
		client.handler = func(string, map[string]string) (*tushare.Result, error) {
			return nil, errors.New("connection reset")
		}

		_, err := lister.List(ctx, catalog.EntityStock)
		Expect(err).To(MatchError(ContainSubstring("stock_basic")))
	})

	Describe("index universe", func() {
		It("merges publishers and deduplicates codes", func() {
			client.handler = func(apiName string, params map[string]string) (*tushare.Result, error) {
				Expect(apiName).To(Equal("index_basic"))
				switch params["market"] {
				case "SSE":
					return codesResult("000300.SH", "000905.SH"), nil
				case "CSI":
					return codesResult("000300.SH", "930955.CSI"), nil
				default:
					return codesResult(), nil
				}
			}

			codes, err := lister.List(ctx, catalog.EntityIndex)
			Expect(err).NotTo(HaveOccurred())
			Expect(codes).To(Equal([]string{"000300.SH", "000905.SH", "930955.CSI"}))
		})

		It("tolerates a failing publisher when others answer", func() {
			client.handler = func(_ string, params map[string]string) (*tushare.Result, error) {
				if params["market"] == "MSCI" {
					return nil, errors.New("permission denied")
				}
				if params["market"] == "SSE" {
					return codesResult("000001.SH"), nil
				}
				return codesResult(), nil
			}

			codes, err := lister.List(ctx, catalog.EntityIndex)
			Expect(err).NotTo(HaveOccurred())
			Expect(codes).To(Equal([]string{"000001.SH"}))
		})

		It("fails when no publisher answers", func() {
			client.handler = func(string, map[string]string) (*tushare.Result, error) {
				return nil, errors.New("connection reset")
			}

			_, err := lister.List(ctx, catalog.EntityIndex)
			Expect(err).To(HaveOccurred())
		})
	})
})
