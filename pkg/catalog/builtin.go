package catalog

// builtinDescriptors is the full set of supported remote datasets. One
// entry per API endpoint; the planner derives everything else from the
// policy and parameter fields here, uniformly. Endpoints that require
// subscription tiers we do not hold stay disabled.
var builtinDescriptors = []Descriptor{
	// basics
	{
		Name:        "stock_basic",
		Description: "listed stock universe",
		Policy:      ChunkNone,
		Category:    "stock_basic",
		Priority:    1,
		Enabled:     true,
	},
	{
		Name:        "trade_cal",
		Description: "exchange trading calendar",
		Policy:      ChunkNone,
		FixedParams: map[string]string{"exchange": "SSE"},
		Category:    "stock_basic",
		Priority:    1,
		Enabled:     true,
	},
	{
		Name:        "namechange",
		Description: "historical security renames",
		Policy:      ChunkNone,
		Category:    "stock_basic",
		Enabled:     true,
	},
	{
		Name:        "hs_const",
		Description: "stock connect constituents",
		Policy:      ChunkNone,
		FixedParams: map[string]string{"hs_type": "SH"},
		Category:    "stock_basic",
		Enabled:     true,
	},
	{
		Name:        "stock_company",
		Description: "listed company profiles",
		Policy:      ChunkNone,
		Category:    "stock_basic",
		Enabled:     true,
	},
	{
		Name:        "stk_rewards",
		Description: "management compensation and holdings",
		Policy:      ChunkByEntity,
		EntityKind:  EntityStock,
		Category:    "stock_basic",
		Enabled:     true,
	},
	{
		Name:        "stk_premarket",
		Description: "pre-market share counts",
		Policy:      ChunkByDate,
		Category:    "stock_basic",
		Enabled:     true,
	},
	{
		Name:        "new_share",
		Description: "IPO listings",
		Policy:      ChunkNone,
		Category:    "stock_basic",
		Enabled:     true,
	},

	// daily quotes
	{
		Name:        "daily",
		Description: "daily OHLCV quotes",
		Policy:      ChunkByDate,
		Category:    "stock_quote",
		Priority:    1,
		Enabled:     true,
	},
	{
		Name:        "daily_basic",
		Description: "daily valuation metrics",
		Policy:      ChunkByDate,
		Category:    "stock_quote",
		Priority:    1,
		Enabled:     true,
	},
	{
		Name:        "adj_factor",
		Description: "price adjustment factors",
		Policy:      ChunkByDate,
		Category:    "stock_quote",
		Priority:    1,
		Enabled:     true,
	},
	{
		Name:        "weekly",
		Description: "weekly OHLCV quotes",
		Policy:      ChunkByDate,
		Category:    "stock_quote",
		Enabled:     true,
	},
	{
		Name:        "monthly",
		Description: "monthly OHLCV quotes",
		Policy:      ChunkByDate,
		Category:    "stock_quote",
		Enabled:     true,
	},
	{
		Name:        "suspend_d",
		Description: "daily suspension list",
		Policy:      ChunkByDate,
		Category:    "stock_quote",
		Enabled:     true,
	},
	{
		Name:        "stk_limit",
		Description: "daily price limits",
		Policy:      ChunkByDate,
		Category:    "stock_quote",
		Enabled:     false, // requires a higher subscription tier
	},

	// financials
	{
		Name:        "income",
		Description: "income statements",
		Policy:      ChunkByEntity,
		EntityKind:  EntityStock,
		Category:    "stock_finance",
		Priority:    1,
		Enabled:     true,
	},
	{
		Name:        "balancesheet",
		Description: "balance sheets",
		Policy:      ChunkByEntity,
		EntityKind:  EntityStock,
		Category:    "stock_finance",
		Priority:    1,
		Enabled:     true,
	},
	{
		Name:        "cashflow",
		Description: "cash flow statements",
		Policy:      ChunkByEntity,
		EntityKind:  EntityStock,
		Category:    "stock_finance",
		Priority:    1,
		Enabled:     true,
	},
	{
		Name:        "fina_indicator",
		Description: "derived financial indicators",
		Policy:      ChunkByEntity,
		EntityKind:  EntityStock,
		Category:    "stock_finance",
		Priority:    1,
		Enabled:     true,
	},
	{
		Name:        "forecast",
		Description: "earnings forecasts",
		Policy:      ChunkByEntity,
		EntityKind:  EntityStock,
		Category:    "stock_finance",
		Enabled:     true,
	},
	{
		Name:        "dividend",
		Description: "dividend events",
		Policy:      ChunkByEntity,
		EntityKind:  EntityStock,
		Category:    "stock_finance",
		Enabled:     true,
	},
	{
		Name:        "express",
		Description: "earnings express reports",
		Policy:      ChunkByQuarter,
		Category:    "stock_finance",
		Enabled:     true,
	},
	{
		Name:        "disclosure_date",
		Description: "report disclosure schedule",
		Policy:      ChunkByQuarter,
		Category:    "stock_finance",
		Enabled:     true,
	},

	// shareholder reference
	{
		Name:        "top10_holders",
		Description: "top 10 shareholders",
		Policy:      ChunkByQuarter,
		Category:    "stock_reference",
		Enabled:     true,
	},
	{
		Name:        "top10_floatholders",
		Description: "top 10 float shareholders",
		Policy:      ChunkByQuarter,
		Category:    "stock_reference",
		Enabled:     true,
	},
	{
		Name:        "pledge_stat",
		Description: "share pledge statistics",
		Policy:      ChunkNone,
		Category:    "stock_reference",
		Enabled:     true,
	},
	{
		Name:        "repurchase",
		Description: "share repurchases",
		Policy:      ChunkNone,
		Category:    "stock_reference",
		Enabled:     true,
	},
	{
		Name:        "share_float",
		Description: "restricted share unlock schedule",
		Policy:      ChunkByYear,
		Category:    "stock_reference",
		Enabled:     true,
	},
	{
		Name:        "block_trade",
		Description: "block trades",
		Policy:      ChunkByYear,
		Category:    "stock_reference",
		Enabled:     true,
	},
	{
		Name:        "stk_holdernumber",
		Description: "shareholder counts",
		Policy:      ChunkByQuarter,
		Category:    "stock_reference",
		Enabled:     true,
	},
	{
		Name:        "stk_holdertrade",
		Description: "insider trades",
		Policy:      ChunkByYear,
		Category:    "stock_reference",
		Enabled:     true,
	},

	// margin and money flow
	{
		Name:        "margin",
		Description: "margin trading summary",
		Policy:      ChunkByYear,
		Category:    "stock_margin",
		Enabled:     true,
	},
	{
		Name:        "margin_detail",
		Description: "per-stock margin balances",
		Policy:      ChunkByEntity,
		EntityKind:  EntityStock,
		Category:    "stock_margin",
		Enabled:     true,
	},
	{
		Name:        "moneyflow",
		Description: "per-stock money flow",
		Policy:      ChunkByEntity,
		EntityKind:  EntityStock,
		Category:    "stock_moneyflow",
		Enabled:     true,
	},
	{
		Name:        "moneyflow_hsgt",
		Description: "stock connect money flow",
		Policy:      ChunkByYear,
		Category:    "stock_moneyflow",
		Enabled:     true,
	},

	// billboard
	{
		Name:        "top_list",
		Description: "daily dragon-tiger billboard",
		Policy:      ChunkByDate,
		Category:    "stock_billboard",
		Enabled:     true,
	},
	{
		Name:        "top_inst",
		Description: "billboard institutional seats",
		Policy:      ChunkByDate,
		Category:    "stock_billboard",
		Enabled:     true,
	},

	// chip distribution: the remote contract requires an instrument code
	// and a date range at the same time, so these use the composite policy
	{
		Name:        "cyq_perf",
		Description: "chip distribution performance",
		Policy:      ChunkByEntityAndDate,
		EntityKind:  EntityStock,
		Category:    "stock_special",
		Priority:    3,
		Enabled:     true,
	},
	{
		Name:        "cyq_chips",
		Description: "chip distribution detail",
		Policy:      ChunkByEntityAndDate,
		EntityKind:  EntityStock,
		Category:    "stock_special",
		Priority:    3,
		Enabled:     true,
	},
	{
		Name:        "ccass_hold_detail",
		Description: "CCASS holding detail",
		Policy:      ChunkByDate,
		Category:    "stock_special",
		Priority:    3,
		Enabled:     true,
	},
	{
		Name:        "hk_hold",
		Description: "stock connect shareholding",
		Policy:      ChunkByYear,
		Category:    "stock_special",
		Enabled:     true,
	},
	{
		Name:        "stk_factor_pro",
		Description: "pro-tier technical factors",
		Policy:      ChunkByDate,
		Category:    "stock_special",
		Enabled:     false, // pro tier only
	},

	// funds
	{
		Name:        "fund_basic",
		Description: "fund universe",
		Policy:      ChunkNone,
		FixedParams: map[string]string{"market": "E"},
		Category:    "fund",
		Priority:    1,
		Enabled:     true,
	},
	{
		Name:        "fund_nav",
		Description: "fund net asset values",
		Policy:      ChunkByEntity,
		EntityKind:  EntityFund,
		Category:    "fund",
		Enabled:     true,
	},
	{
		Name:        "fund_div",
		Description: "fund dividends",
		Policy:      ChunkByEntity,
		EntityKind:  EntityFund,
		Category:    "fund",
		Enabled:     true,
	},

	// indexes
	{
		Name:        "index_basic",
		Description: "index universe",
		Policy:      ChunkNone,
		FixedParams: map[string]string{"market": "SSE"},
		Category:    "index",
		Priority:    1,
		Enabled:     true,
	},
	{
		Name:        "index_daily",
		Description: "daily index quotes",
		Policy:      ChunkByEntityAndDate,
		EntityKind:  EntityIndex,
		Category:    "index",
		Enabled:     true,
	},
	{
		Name:        "index_weight",
		Description: "index constituent weights",
		Policy:      ChunkByEntity,
		EntityKind:  EntityIndex,
		Category:    "index",
		Enabled:     true,
	},
}
