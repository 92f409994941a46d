// Copyright 2025 FinSight
// SPDX-License-Identifier: Apache-2.0

// Package main is the entry point for the FinSight Analyst service.
//
// The Analyst service runs an agentic equity research team over the Indian
// market (NSE/BSE). A team leader model coordinates specialist agents that
// screen the market, pull fundamentals from Financial Datasets and search
// the web, then deliver a scored long-term investment analysis.
//
// Usage:
//
//	./analyst
//
// Environment Variables:
//
//	PORT - HTTP server port (default: 8080)
//	FINANCIAL_DATASETS_API_KEY - Financial Datasets API key
//	FINANCIAL_DATASETS_BASE_URL - Financial Datasets base URL override (optional)
//	GEMINI_API_KEY - Google Gemini API key
//	DEFAULT_MODEL - Gemini model override (default: gemini-2.0-flash)
//	SEARCH_BASE_URL - web search base URL override (optional)
//	TEAM_CONFIG - path to a team configuration YAML (optional)
//	FINSIGHT_SECRETS_ARN - AWS Secrets Manager ARN for credentials (optional)
//	AWS_REGION - AWS region for Secrets Manager (optional)
//	JWT_SECRET - HS256 secret protecting /analyze (optional)
package main

import (
	"github.com/joho/godotenv"

	"finsight/platform/orchestrator"
)

func main() {
	// Local development reads credentials from a .env file; deployed
	// environments inject real environment variables and no file exists.
	_ = godotenv.Load()

	orchestrator.Run()
}
