// Copyright 2025 FinSight
// SPDX-License-Identifier: Apache-2.0

/*
Package logger provides structured JSON logging for FinSight service
components.

# Overview

The logger outputs single-line JSON to stdout, making logs easily
consumable by CloudWatch, ELK stack, or other log aggregation systems.

Each log entry includes:
  - Timestamp (RFC3339Nano format)
  - Log level (DEBUG, INFO, WARN, ERROR)
  - Component name (analyst, findata, websearch)
  - Instance ID and container name (for distributed tracing)
  - Request ID (for request correlation)
  - Custom fields

# Usage

Create a logger for your component:

	log := logger.New("analyst")

Log messages with request context:

	log.Info("req-456", "Processing analysis request", map[string]interface{}{
	    "method": "POST",
	    "path":   "/analyze",
	})

Log errors with status codes:

	log.ErrorWithCode("req-456", "Upstream request failed", 502, err, map[string]interface{}{
	    "endpoint": "financials/income-statements",
	})

# Environment Variables

The logger reads these environment variables:

  - INSTANCE_ID: Deployment instance identifier
  - HOSTNAME: Container hostname (auto-detected)

# Thread Safety

Logger instances are safe for concurrent use from multiple goroutines.
*/
package logger
