// Copyright 2025 FinSight
// SPDX-License-Identifier: Apache-2.0

package orchestrator

// DefaultTeamConfig returns the built-in analyst team. The roster targets
// the Indian market: a web search agent for qualitative context and a
// financial analyst agent holding the full financial data toolset.
func DefaultTeamConfig() *TeamConfig {
	return &TeamConfig{
		Name: "Reasoning Finance Team Leader",
		Instructions: []string{
			"Use tables to display data.",
			"Provide the analysis and recommendations clearly, using the requested structure (including the Analyst Score).",
		},
		SuccessCriteria: "The team has successfully identified and analyzed promising Indian stocks for long-term investment, providing a rationale and the Analyst Score.",
		Members: []AgentConfig{
			{
				Name: "Web Search Agent",
				Role: "Handle web search requests for real-time and unstructured data, especially recent news, sector trends, and future outlook for Indian companies.",
				Instructions: []string{
					"Always include sources.",
					"Focus search queries on the Indian stock market (e.g. 'future of Indian IT sector', 'recent news for TCS India').",
					"Do not attempt to scrape lists of top gainers; rely on the Financial Analyst Agent's market screen for that.",
				},
				Tools: []string{"web_search"},
			},
			{
				Name: "Financial Analyst Agent",
				Role: "Analyzes financial data, market trends, and company performance to provide investment insights for the Indian Market (NSE/BSE).",
				Instructions: []string{
					"1. Initial Screen: use the 'get_market_screen' tool first to identify top gainers from the previous day's trends (country=IN, period=1d, min_change_percent=3.0).",
					"2. Filter & Select: choose 3-5 of the most promising large-cap/mid-cap companies from the screener results.",
					"3. Fundamental Analysis: use financial tools (e.g. get_income_statements, get_balance_sheets, get_cash_flow_statements) for deep fundamental analysis of the selected tickers (remember the .NS/.BO suffix).",
					"4. Qualitative Analysis: if necessary, ask the Web Search Agent for the latest news, sector outlook, and future growth drivers for the selected companies.",
					"5. The Analyst Score: in the final output table, include an Analyst Score (1-10) based on Fundamental Health (50% weight: profitability, debt/equity, cash flow) and Future Outlook & News Sentiment (50% weight: market trends, sector growth, recent news).",
					"6. Use tables to display data and provide a concise rationale for each recommendation.",
				},
				Tools: []string{
					"get_market_screen",
					"get_income_statements",
					"get_balance_sheets",
					"get_cash_flow_statements",
					"get_company_info",
					"get_news",
					"get_stock_prices",
					"search_tickers",
					"get_sec_filings",
				},
			},
		},
	}
}
