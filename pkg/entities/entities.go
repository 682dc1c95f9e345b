// Package entities resolves the instrument universe that entity-chunked
// datasets iterate over.
package entities

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/quantlake/quantlake/pkg/catalog"
	"github.com/quantlake/quantlake/pkg/tushare"
)

// indexMarkets is the set of index publishers queried when building the
// index universe; no single call returns them all.
var indexMarkets = []string{"SSE", "SZSE", "MSCI", "CSI", "CICC", "SW", "OTH"}

// Client is the narrow remote-call contract the lister needs.
type Client interface {
	Call(ctx context.Context, apiName string, params map[string]string) (*tushare.Result, error)
}

// Lister returns the instrument codes for one entity kind.
type Lister interface {
	List(ctx context.Context, kind catalog.EntityKind) ([]string, error)
}

// TushareLister resolves entity codes from the basic-info endpoints,
// caching each universe for the lifetime of the run.
type TushareLister struct {
	client Client
	logger *logrus.Logger

	mu    sync.Mutex
	cache map[catalog.EntityKind][]string
}

// NewTushareLister creates a Lister backed by the remote API.
func NewTushareLister(client Client, logger *logrus.Logger) *TushareLister {
	return &TushareLister{
		client: client,
		logger: logger,
		cache:  make(map[catalog.EntityKind][]string),
	}
}

// List returns the sorted instrument codes for kind.
func (l *TushareLister) List(ctx context.Context, kind catalog.EntityKind) ([]string, error) {
	l.mu.Lock()
	if cached, ok := l.cache[kind]; ok {
		l.mu.Unlock()
		return cached, nil
	}
	l.mu.Unlock()

	var (
		codes []string
		err   error
	)
	switch kind {
	case catalog.EntityStock:
		codes, err = l.listSimple(ctx, "stock_basic", nil)
	case catalog.EntityFund:
		codes, err = l.listSimple(ctx, "fund_basic", map[string]string{"market": "E"})
	case catalog.EntityIndex:
		codes, err = l.listIndexes(ctx)
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
	if err != nil {
		return nil, err
	}

	sort.Strings(codes)

	l.logger.WithFields(logrus.Fields{
		"kind":  kind,
		"count": len(codes),
	}).Info("Resolved entity universe")

	l.mu.Lock()
	l.cache[kind] = codes
	l.mu.Unlock()

	return codes, nil
}

func (l *TushareLister) listSimple(ctx context.Context, apiName string, params map[string]string) ([]string, error) {
	res, err := l.client.Call(ctx, apiName, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities via %s: %w", apiName, err)
	}
	return res.Column("ts_code"), nil
}

// listIndexes fans out over every index publisher. A publisher that
// errors is logged and skipped; a partial universe beats aborting the
// datasets that depend on it.
func (l *TushareLister) listIndexes(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var codes []string

	for _, market := range indexMarkets {
		res, err := l.client.Call(ctx, "index_basic", map[string]string{"market": market})
		if err != nil {
			l.logger.WithFields(logrus.Fields{
				"market": market,
				"error":  err,
			}).Warn("Failed to fetch index universe for market")
			continue
		}
		for _, code := range res.Column("ts_code") {
			if code != "" && !seen[code] {
				seen[code] = true
				codes = append(codes, code)
			}
		}
	}

	if len(codes) == 0 {
		return nil, fmt.Errorf("no index codes resolved from any market")
	}
	return codes, nil
}
