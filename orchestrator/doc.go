// Copyright 2025 FinSight
// SPDX-License-Identifier: Apache-2.0

/*
Package orchestrator provides the FinSight Analyst Service - an agentic
equity research engine for the Indian market (NSE/BSE).

# Overview

The service fronts a Gemini-driven analyst team. A single HTTP call hands
the team a research task; the hosted model reasons over it, pulls market
data through the financial tools, gathers qualitative context through web
search, and returns a written analysis with per-stock Analyst Scores.

# Architecture

Each analysis request runs a tool-calling loop:

	Task → Gemini (reasoning) → function calls → connectors → Gemini → ... → Analysis

The in-process side is mechanical transport: it declares the team's tools
to the model, executes the function calls the model returns, and feeds the
results back until the model answers in plain text. All reasoning and tool
selection happens in the hosted model.

# Team Configuration

The team roster is declarative. The built-in default pairs a Web Search
Agent with a Financial Analyst Agent holding nine financial data tools.
A YAML file named by TEAM_CONFIG replaces the roster without a rebuild:

	name: Reasoning Finance Team Leader
	instructions:
	  - Use tables to display data.
	members:
	  - name: Financial Analyst Agent
	    role: Analyzes financial data for the Indian Market (NSE/BSE).
	    tools: [get_market_screen, get_income_statements]

Environment references (${VAR} or ${VAR:-default}) in the file are
expanded at load time.

# Tool Connectors

Financial data comes from the Financial Datasets API via the findata
connector; qualitative context comes from DuckDuckGo via the websearch
connector. Tool outputs never raise: failures are folded into JSON error
payloads the model can read and reason over.

# Endpoints

	POST /analyze    - Run the analyst team on a task
	GET  /health     - Liveness (always 200) with component detail
	GET  /metrics    - JSON request statistics
	GET  /prometheus - Prometheus native format

# Usage

	// Start the service
	orchestrator.Run()

	// The service reads configuration from environment variables:
	// PORT                       - HTTP server port (default: 8080)
	// FINANCIAL_DATASETS_API_KEY - Financial Datasets API credential
	// GEMINI_API_KEY             - Google Gemini API credential
	// DEFAULT_MODEL              - Gemini model id (default: gemini-2.0-flash)
	// TEAM_CONFIG                - Path to a YAML team config override (optional)
	// FINSIGHT_SECRETS_ARN       - AWS Secrets Manager ARN for credentials (optional)
	// JWT_SECRET                 - Enables bearer auth on /analyze when set (optional)

Configuration is read once at startup and never mutated, so concurrent
requests cannot observe a half-configured service. Requests arriving
without both upstream credentials fail fast with HTTP 500 and never touch
the network.

# Metrics

The service exposes Prometheus metrics at /prometheus:

  - finsight_analyst_requests_total - Analysis requests by status
  - finsight_analyst_request_duration_milliseconds - Request latency
  - finsight_analyst_llm_calls_total - LLM calls by model/status
  - finsight_analyst_tool_calls_total - Tool calls by tool/status
*/
package orchestrator
