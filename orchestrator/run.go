// Copyright 2025 FinSight
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"finsight/platform/connectors/findata"
	"finsight/platform/connectors/websearch"
	"finsight/platform/orchestrator/llm/gemini"
	"finsight/platform/shared/logger"
)

// FinSight Analyst Service - Agentic Equity Research over the Indian Market
// This service fronts a Gemini-driven analyst team with financial data and
// web search tools.

// Configuration
var (
	serviceConfig  *Config
	svcLogger      *logger.Logger
	findataClient  *findata.Client
	searchClient   *websearch.Client
	geminiProvider *gemini.Provider
	teamConfig     *TeamConfig
	team           Orchestrator
)

// AnalystMetrics tracks in-process request statistics for the JSON metrics
// endpoint. Prometheus counters cover the long-lived series; this keeps the
// cheap human-readable view the dashboards poll.
type AnalystMetrics struct {
	mu              sync.RWMutex
	startTime       time.Time
	totalRequests   int64
	successRequests int64
	failedRequests  int64
	latencies       []int64
}

var analystMetrics *AnalystMetrics

// Prometheus metrics
var (
	analystRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_analyst_requests_total",
			Help: "Total number of analysis requests processed",
		},
		[]string{"status"},
	)
	analystRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finsight_analyst_request_duration_milliseconds",
			Help:    "Request duration in milliseconds",
			Buckets: []float64{100, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000},
		},
		[]string{"type"},
	)
	llmCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_analyst_llm_calls_total",
			Help: "Total number of LLM API calls",
		},
		[]string{"model", "status"},
	)
	toolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_analyst_tool_calls_total",
			Help: "Total number of tool calls executed for the team",
		},
		[]string{"tool", "status"},
	)
)

func init() {
	// Register Prometheus metrics
	prometheus.MustRegister(analystRequestsTotal)
	prometheus.MustRegister(analystRequestDuration)
	prometheus.MustRegister(llmCallsTotal)
	prometheus.MustRegister(toolCallsTotal)
}

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest struct {
	Task string `json:"task"`
}

// AnalyzeResponse is the body of every /analyze reply, success or failure.
type AnalyzeResponse struct {
	Analysis string `json:"analysis,omitempty"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// Config holds the service configuration, read once at startup. Credentials
// are immutable afterwards; a missing key stays missing until restart, which
// keeps concurrent requests from racing a half-configured client.
type Config struct {
	Port             string
	FinancialAPIKey  string
	FinancialBaseURL string
	GeminiAPIKey     string
	DefaultModel     string
	SearchBaseURL    string
	TeamConfigPath   string
	SecretsARN       string
	AWSRegion        string
	JWTSecret        string
}

// LoadConfig reads the service configuration from the environment.
func LoadConfig() *Config {
	return &Config{
		Port:             getEnv("PORT", "8080"),
		FinancialAPIKey:  os.Getenv("FINANCIAL_DATASETS_API_KEY"),
		FinancialBaseURL: os.Getenv("FINANCIAL_DATASETS_BASE_URL"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		DefaultModel:     getEnv("DEFAULT_MODEL", gemini.DefaultModel),
		SearchBaseURL:    os.Getenv("SEARCH_BASE_URL"),
		TeamConfigPath:   os.Getenv("TEAM_CONFIG"),
		SecretsARN:       os.Getenv("FINSIGHT_SECRETS_ARN"),
		AWSRegion:        os.Getenv("AWS_REGION"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
	}
}

// CredentialsConfigured reports whether both upstream credentials are
// present. The service starts without them; analysis requests fail fast
// until both exist.
func (c *Config) CredentialsConfigured() bool {
	return c.FinancialAPIKey != "" && c.GeminiAPIKey != ""
}

// Run starts the FinSight Analyst Service. It blocks until the HTTP server
// exits.
func Run() {
	log.Println("Starting FinSight Analyst Service...")

	initializeComponents()

	// Setup router
	r := mux.NewRouter()

	// CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Configure for production
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	// Health check
	r.HandleFunc("/health", healthHandler).Methods("GET")

	// Metrics endpoints
	r.HandleFunc("/metrics", simpleMetricsHandler).Methods("GET") // JSON metrics
	r.Handle("/prometheus", promhttp.Handler()).Methods("GET")    // Prometheus native format

	// Main analysis endpoint
	r.Handle("/analyze",
		jwtAuthMiddleware([]byte(serviceConfig.JWTSecret), http.HandlerFunc(analyzeHandler)),
	).Methods("POST")

	// Start server
	port := serviceConfig.Port
	handler := c.Handler(r)
	log.Printf("FinSight Analyst Service listening on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}

func initializeComponents() {
	svcLogger = logger.New("analyst")
	analystMetrics = &AnalystMetrics{startTime: time.Now()}

	serviceConfig = LoadConfig()

	resolveStartupSecrets(serviceConfig)

	if !gemini.IsValidModel(serviceConfig.DefaultModel) {
		svcLogger.Warn("", "Unrecognized model, falling back to default", map[string]interface{}{
			"model":    serviceConfig.DefaultModel,
			"fallback": gemini.DefaultModel,
		})
		serviceConfig.DefaultModel = gemini.DefaultModel
	}

	teamConfig = DefaultTeamConfig()
	if serviceConfig.TeamConfigPath != "" {
		loaded, err := LoadTeamConfig(serviceConfig.TeamConfigPath)
		if err != nil {
			log.Fatalf("Failed to load team config from %s: %v", serviceConfig.TeamConfigPath, err)
		}
		teamConfig = loaded
		svcLogger.Info("", "Loaded team config override", map[string]interface{}{
			"path":    serviceConfig.TeamConfigPath,
			"team":    teamConfig.Name,
			"members": len(teamConfig.Members),
		})
	}

	findataClient = findata.NewClient(findata.Config{
		BaseURL:    serviceConfig.FinancialBaseURL,
		Credential: serviceConfig.FinancialAPIKey,
		Logger:     logger.New("findata"),
	})
	searchClient = websearch.NewClient(websearch.Config{
		BaseURL: serviceConfig.SearchBaseURL,
		Logger:  logger.New("websearch"),
	})

	if serviceConfig.GeminiAPIKey != "" {
		provider, err := gemini.NewProvider(gemini.Config{
			APIKey: serviceConfig.GeminiAPIKey,
			Model:  serviceConfig.DefaultModel,
		})
		if err != nil {
			log.Fatalf("Failed to initialize Gemini provider: %v", err)
		}
		geminiProvider = provider

		runner, err := NewTeamRunner(TeamRunnerConfig{
			LLM:       geminiProvider,
			Team:      teamConfig,
			Financial: findata.NewRegistry(findataClient),
			Search:    searchClient,
			Logger:    logger.New("team"),
		})
		if err != nil {
			log.Fatalf("Failed to initialize team runner: %v", err)
		}
		team = runner
	}

	if !serviceConfig.CredentialsConfigured() {
		svcLogger.Warn("", "Service starting without full credentials; analysis requests will fail until configured", map[string]interface{}{
			"financial_configured": serviceConfig.FinancialAPIKey != "",
			"llm_configured":       serviceConfig.GeminiAPIKey != "",
		})
	}

	svcLogger.Info("", "Components initialized", map[string]interface{}{
		"model": serviceConfig.DefaultModel,
		"team":  teamConfig.Name,
		"tools": len(teamConfig.ToolNames()),
	})
}

// resolveStartupSecrets backfills credentials from AWS Secrets Manager when
// FINSIGHT_SECRETS_ARN is set. Failures are logged and the service continues
// with whatever the environment supplied.
func resolveStartupSecrets(cfg *Config) {
	if cfg.SecretsARN == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sm, err := NewAWSSecretsManager(ctx, cfg.AWSRegion, logger.New("secrets"))
	if err != nil {
		svcLogger.Error("", "Failed to initialize secrets manager", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	credentials, err := sm.GetSecret(ctx, cfg.SecretsARN)
	if err != nil {
		svcLogger.Error("", "Failed to fetch startup secrets", map[string]interface{}{
			"secret": maskARN(cfg.SecretsARN),
			"error":  err.Error(),
		})
		return
	}

	filled := cfg.applySecrets(credentials)
	if len(filled) > 0 {
		svcLogger.Info("", "Credentials resolved from secrets manager", map[string]interface{}{
			"filled": strings.Join(filled, ","),
		})
	}
}

// healthHandler reports liveness. It always answers 200: missing upstream
// credentials degrade the analysis endpoint, not the process, and the
// components map carries the detail.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	components := map[string]bool{
		"financial_data": findataClient != nil && findataClient.Configured(),
		"llm_provider":   geminiProvider != nil && geminiProvider.IsHealthy(),
		"web_search":     searchClient != nil,
	}

	health := map[string]interface{}{
		"status":     "ok",
		"service":    "finsight-analyst",
		"version":    "1.0.0",
		"timestamp":  time.Now().UTC(),
		"components": components,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(health); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func analyzeHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := uuid.New().String()

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		analystRequestsTotal.WithLabelValues("bad_request").Inc()
		sendErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Task) == "" {
		analystRequestsTotal.WithLabelValues("bad_request").Inc()
		sendErrorResponse(w, "Task is required", http.StatusBadRequest)
		return
	}

	svcLogger.Info(requestID, "Analysis request received", map[string]interface{}{
		"task_length": len(req.Task),
	})

	if team == nil || !serviceConfig.CredentialsConfigured() {
		analystRequestsTotal.WithLabelValues("config_error").Inc()
		svcLogger.ErrorWithCode(requestID, "Analysis rejected: credentials not configured", http.StatusInternalServerError, nil, nil)
		sendErrorResponse(w,
			"Required API keys (FINANCIAL_DATASETS_API_KEY, GEMINI_API_KEY) are not configured in the environment.",
			http.StatusInternalServerError)
		return
	}

	analysis, err := team.Invoke(r.Context(), req.Task)
	durationMs := time.Since(startTime).Milliseconds()
	analystRequestDuration.WithLabelValues("analyze").Observe(float64(durationMs))

	if err != nil {
		analystRequestsTotal.WithLabelValues("error").Inc()
		analystMetrics.recordRequest(durationMs, false)
		svcLogger.ErrorWithCode(requestID, "Agent execution failed", http.StatusInternalServerError, err, nil)
		sendErrorResponse(w,
			fmt.Sprintf("Agent execution failed. Internal error details: %v", err),
			http.StatusInternalServerError)
		return
	}

	analystRequestsTotal.WithLabelValues("success").Inc()
	analystMetrics.recordRequest(durationMs, true)
	svcLogger.InfoWithDuration(requestID, "Analysis complete", float64(durationMs), map[string]interface{}{
		"analysis_length": len(analysis),
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(AnalyzeResponse{
		Analysis: analysis,
		Status:   "Success",
	}); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// simpleMetricsHandler serves the JSON metrics view.
func simpleMetricsHandler(w http.ResponseWriter, r *http.Request) {
	analystMetrics.mu.RLock()
	uptime := time.Since(analystMetrics.startTime).Seconds()
	metrics := map[string]interface{}{
		"service":          "finsight-analyst",
		"uptime_seconds":   uptime,
		"total_requests":   analystMetrics.totalRequests,
		"success_requests": analystMetrics.successRequests,
		"failed_requests":  analystMetrics.failedRequests,
		"latency_ms": map[string]float64{
			"p50": calculatePercentile(analystMetrics.latencies, 0.50),
			"p95": calculatePercentile(analystMetrics.latencies, 0.95),
			"p99": calculatePercentile(analystMetrics.latencies, 0.99),
			"avg": calculateAverage(analystMetrics.latencies),
		},
		"timestamp": time.Now().UTC(),
	}
	analystMetrics.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(metrics); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// recordRequest records one request outcome, keeping the last 1000 latencies.
func (m *AnalystMetrics) recordRequest(latencyMs int64, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRequests++
	if success {
		m.successRequests++
	} else {
		m.failedRequests++
	}

	if len(m.latencies) >= 1000 {
		m.latencies = m.latencies[1:]
	}
	m.latencies = append(m.latencies, latencyMs)
}

func calculatePercentile(timings []int64, percentile float64) float64 {
	if len(timings) == 0 {
		return 0
	}

	sorted := make([]int64, len(timings))
	copy(sorted, timings)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	index := int(float64(len(sorted)) * percentile)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return float64(sorted[index])
}

func calculateAverage(timings []int64) float64 {
	if len(timings) == 0 {
		return 0
	}

	sum := int64(0)
	for _, t := range timings {
		sum += t
	}

	return float64(sum) / float64(len(timings))
}

func sendErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	response := AnalyzeResponse{
		Status: "Error",
		Error:  message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
