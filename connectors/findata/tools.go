// Copyright 2025 FinSight
// SPDX-License-Identifier: Apache-2.0

package findata

import (
	"context"

	"finsight/platform/connectors/base"
)

// Parameter types used by tool declarations. These are wire-agnostic; the
// LLM layer maps them onto its own schema vocabulary.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
)

// ParamSpec describes a single tool parameter.
//
// Required parameters must be supplied by the caller; the registry does not
// enforce this locally, the upstream API validates and its error body flows
// back as tool output. Optional parameters with a non-nil Default are filled
// in when absent; optional parameters without a default are omitted from the
// request entirely, letting the API apply its own server-side behavior.
type ParamSpec struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Default     interface{}
}

// ToolDef binds a tool name to a Financial Datasets endpoint and its
// parameter contract.
type ToolDef struct {
	Name        string
	Description string
	Endpoint    string
	Params      []ParamSpec
}

// toolCatalog is the fixed set of financial data tools exposed to the
// analyst team. The set is deliberately explicit rather than discovered:
// each entry names the exact endpoint and defaults the team relies on.
var toolCatalog = []ToolDef{
	{
		Name:        "get_market_screen",
		Description: "Screen the market for top gaining or losing stocks in a country over a period. Use this to discover candidate tickers before deeper analysis.",
		Endpoint:    "market/screener",
		Params: []ParamSpec{
			{Name: "country", Type: TypeString, Description: "Country to screen, e.g. 'india' or 'usa'.", Required: true},
			{Name: "period", Type: TypeString, Description: "Screening period, e.g. '1d', '1w', '1m', '1y'.", Required: true},
			{Name: "min_change_percent", Type: TypeNumber, Description: "Minimum percentage price change to include.", Required: true},
			{Name: "limit", Type: TypeInteger, Description: "Maximum number of results.", Default: 10},
		},
	},
	{
		Name:        "get_income_statements",
		Description: "Get income statements for a ticker. For Indian stocks use the NSE '.NS' or BSE '.BO' suffix, e.g. 'RELIANCE.NS'.",
		Endpoint:    "financials/income-statements",
		Params: []ParamSpec{
			{Name: "ticker", Type: TypeString, Description: "Stock ticker symbol.", Required: true},
			{Name: "period", Type: TypeString, Description: "Reporting period: 'annual', 'quarterly' or 'ttm'.", Default: "annual"},
			{Name: "limit", Type: TypeInteger, Description: "Maximum number of statements.", Default: 10},
		},
	},
	{
		Name:        "get_balance_sheets",
		Description: "Get balance sheets for a ticker. For Indian stocks use the NSE '.NS' or BSE '.BO' suffix, e.g. 'RELIANCE.NS'.",
		Endpoint:    "financials/balance-sheets",
		Params: []ParamSpec{
			{Name: "ticker", Type: TypeString, Description: "Stock ticker symbol.", Required: true},
			{Name: "period", Type: TypeString, Description: "Reporting period: 'annual', 'quarterly' or 'ttm'.", Default: "annual"},
			{Name: "limit", Type: TypeInteger, Description: "Maximum number of statements.", Default: 10},
		},
	},
	{
		Name:        "get_cash_flow_statements",
		Description: "Get cash flow statements for a ticker. For Indian stocks use the NSE '.NS' or BSE '.BO' suffix, e.g. 'RELIANCE.NS'.",
		Endpoint:    "financials/cash-flow-statements",
		Params: []ParamSpec{
			{Name: "ticker", Type: TypeString, Description: "Stock ticker symbol.", Required: true},
			{Name: "period", Type: TypeString, Description: "Reporting period: 'annual', 'quarterly' or 'ttm'.", Default: "annual"},
			{Name: "limit", Type: TypeInteger, Description: "Maximum number of statements.", Default: 10},
		},
	},
	{
		Name:        "get_company_info",
		Description: "Get company facts for a ticker: name, sector, industry, market cap, employee count and listing details.",
		Endpoint:    "company",
		Params: []ParamSpec{
			{Name: "ticker", Type: TypeString, Description: "Stock ticker symbol.", Required: true},
		},
	},
	{
		Name:        "get_news",
		Description: "Get recent market news, optionally filtered to a single ticker.",
		Endpoint:    "news",
		Params: []ParamSpec{
			{Name: "ticker", Type: TypeString, Description: "Optional stock ticker symbol to filter news."},
			{Name: "limit", Type: TypeInteger, Description: "Maximum number of articles.", Default: 50},
		},
	},
	{
		Name:        "get_stock_prices",
		Description: "Get historical price bars for a ticker.",
		Endpoint:    "prices",
		Params: []ParamSpec{
			{Name: "ticker", Type: TypeString, Description: "Stock ticker symbol.", Required: true},
			{Name: "interval", Type: TypeString, Description: "Bar interval, e.g. '1d', '1w'.", Default: "1d"},
			{Name: "limit", Type: TypeInteger, Description: "Maximum number of bars.", Default: 100},
		},
	},
	{
		Name:        "search_tickers",
		Description: "Search for ticker symbols by company name or free-text query.",
		Endpoint:    "search",
		Params: []ParamSpec{
			{Name: "query", Type: TypeString, Description: "Company name or search text.", Required: true},
			{Name: "limit", Type: TypeInteger, Description: "Maximum number of matches.", Default: 10},
		},
	},
	{
		Name:        "get_sec_filings",
		Description: "Get regulatory filings for a ticker, optionally filtered by form type such as '10-K' or '10-Q'.",
		Endpoint:    "sec-filings",
		Params: []ParamSpec{
			{Name: "ticker", Type: TypeString, Description: "Stock ticker symbol.", Required: true},
			{Name: "form_type", Type: TypeString, Description: "Optional filing form type filter."},
			{Name: "limit", Type: TypeInteger, Description: "Maximum number of filings.", Default: 50},
		},
	},
}

// Registry dispatches tool calls by name onto the Financial Datasets client.
type Registry struct {
	client *Client
	defs   []ToolDef
	byName map[string]ToolDef
}

// NewRegistry creates a registry over the full tool catalogue.
func NewRegistry(client *Client) *Registry {
	byName := make(map[string]ToolDef, len(toolCatalog))
	for _, def := range toolCatalog {
		byName[def.Name] = def
	}
	return &Registry{
		client: client,
		defs:   toolCatalog,
		byName: byName,
	}
}

// Tools returns the catalogue in declaration order.
func (r *Registry) Tools() []ToolDef {
	return r.defs
}

// Lookup returns the definition for a tool name.
func (r *Registry) Lookup(name string) (ToolDef, bool) {
	def, ok := r.byName[name]
	return def, ok
}

// Call executes the named tool with the given arguments and returns its
// terminal output. Like Client.Get it never fails: an unknown tool name
// yields an error payload the model can read. Supplied arguments win over
// declared defaults; arguments not declared by the tool are dropped rather
// than forwarded.
func (r *Registry) Call(ctx context.Context, name string, args map[string]interface{}) string {
	def, ok := r.byName[name]
	if !ok {
		return base.ErrorPayload{
			Kind:    base.KindRequestFailed,
			Message: "unknown tool: " + name,
		}.JSON()
	}

	params := make(map[string]interface{}, len(def.Params))
	for _, p := range def.Params {
		if val, supplied := args[p.Name]; supplied {
			params[p.Name] = val
			continue
		}
		if p.Default != nil {
			params[p.Name] = p.Default
		}
	}

	return r.client.Get(ctx, def.Endpoint, params)
}
