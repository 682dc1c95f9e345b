package tushare_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/quantlake/quantlake/pkg/tushare"
)

var _ = Describe("Client", func() {
	var (
		server  *httptest.Server
		handler http.HandlerFunc
	)

	BeforeEach(func() {
		handler = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))
		DeferCleanup(server.Close)
	})

	newClient := func() *tushare.Client {
		logger := logrus.New()
		logger.SetLevel(logrus.FatalLevel)
		client, err := tushare.NewClient(&tushare.Config{
			Token:   "test-token",
			APIURL:  server.URL,
			Timeout: 5 * time.Second,
			Logger:  logger,
		})
		Expect(err).NotTo(HaveOccurred())
		return client
	}

	It("requires a token", func() {
		_, err := tushare.NewClient(&tushare.Config{APIURL: "http://localhost"})
		Expect(err).To(MatchError(ContainSubstring("TUSHARE_TOKEN")))
	})

	It("posts the request envelope and decodes the rows", func() {
		var envelope map[string]any
		handler = func(w http.ResponseWriter, r *http.Request) {
			Expect(json.NewDecoder(r.Body).Decode(&envelope)).To(Succeed())
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"code":0,"msg":"","data":{"fields":["ts_code","close"],"items":[["000001.SZ",10.5],["600000.SH",7]]}}`))
		}

		res, err := newClient().Call(context.Background(), "daily", map[string]string{"trade_date": "20240102"})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Rows()).To(Equal(2))
		Expect(res.Column("ts_code")).To(Equal([]string{"000001.SZ", "600000.SH"}))

		Expect(envelope["api_name"]).To(Equal("daily"))
		Expect(envelope["token"]).To(Equal("test-token"))
		Expect(envelope["params"]).To(HaveKeyWithValue("trade_date", "20240102"))
	})

	It("returns an empty result when the reply has no data", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code":0,"msg":"","data":null}`))
		}

		res, err := newClient().Call(context.Background(), "daily", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Rows()).To(BeZero())
	})

	It("classifies a permission rejection as permanent", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code":2002,"msg":"抱歉，您没有访问该接口的权限","data":null}`))
		}

		_, err := newClient().Call(context.Background(), "cyq_chips", nil)
		Expect(err).To(HaveOccurred())
		Expect(tushare.IsPermanent(err)).To(BeTrue())

		var apiErr *tushare.APIError
		Expect(err).To(BeAssignableToTypeOf(apiErr))
	})

	It("treats a per-minute quota rejection as transient", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code":-1,"msg":"抱歉，您每分钟最多访问该接口500次","data":null}`))
		}

		_, err := newClient().Call(context.Background(), "daily", nil)
		Expect(err).To(HaveOccurred())
		Expect(tushare.IsPermanent(err)).To(BeFalse())
	})

	It("treats an HTTP server error as transient", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}

		_, err := newClient().Call(context.Background(), "daily", nil)
		Expect(err).To(MatchError(ContainSubstring("status=502")))
		Expect(tushare.IsPermanent(err)).To(BeFalse())
	})

	It("honors context cancellation", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(time.Second)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := newClient().Call(ctx, "daily", nil)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("IsPermanent", func() {
	It("reports plain errors as transient", func() {
		Expect(tushare.IsPermanent(context.DeadlineExceeded)).To(BeFalse())
	})

	It("reports wrapped permission errors as permanent", func() {
		wrapped := fmt.Errorf("sub-fetch failed: %w",
			&tushare.APIError{Code: 2002, Msg: "permission", Kind: tushare.KindPermission})
		Expect(tushare.IsPermanent(wrapped)).To(BeTrue())
	})
})
