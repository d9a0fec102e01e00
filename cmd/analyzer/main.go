// cmd/analyzer/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/AI-Template-SDK/senso-analysis/internal/config"
	"github.com/AI-Template-SDK/senso-analysis/internal/models"
	"github.com/AI-Template-SDK/senso-analysis/services"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// createDatabaseClient creates a database connection using our config structure
func createDatabaseClient(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
	)

	db, err := sqlx.ConnectContext(ctx, "postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

type server struct {
	analysis services.AnalysisService
	drift    services.DriftService
	repos    *services.RepositoryManager
}

type analyzeRequest struct {
	ProjectID         uuid.UUID            `json:"project_id"`
	TopicID           uuid.UUID            `json:"topic_id"`
	Provider          string               `json:"provider"`
	ResponseText      string               `json:"response_text"`
	Roster            *models.EntityRoster `json:"roster"`
	OwnDomains        []string             `json:"own_domains"`
	ExplicitCitations []string             `json:"explicit_citations"`
	ValidateCitations bool                 `json:"validate_citations"`
	Save              bool                 `json:"save"`
}

type analyzeResponse struct {
	Result       *services.AnalysisResult `json:"result"`
	DriftRecords []*models.DriftRecord    `json:"drift_records,omitempty"`
}

func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	result, err := s.analysis.AnalyzeResponse(r.Context(), &services.AnalysisRequest{
		ProjectID:         req.ProjectID,
		TopicID:           req.TopicID,
		Provider:          req.Provider,
		ResponseText:      req.ResponseText,
		Roster:            req.Roster,
		OwnDomains:        req.OwnDomains,
		ExplicitCitations: req.ExplicitCitations,
		ValidateCitations: req.ValidateCitations,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	response := analyzeResponse{Result: result}

	// Drift is detected against the latest stored snapshot before the new one
	// is persisted, so the comparison baseline is always the prior observation.
	if req.Save {
		records, err := s.drift.DetectDrift(r.Context(), result.Snapshot, nil)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if err := s.analysis.SaveSnapshot(r.Context(), result.Snapshot); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if len(records) > 0 {
			if err := s.repos.DriftRecordRepo.CreateBatch(r.Context(), records); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		response.DriftRecords = records
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *server) handleListDrift(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	projectID, err := uuid.Parse(r.URL.Query().Get("project_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "project_id must be a valid uuid")
		return
	}
	minSeverity := models.Severity(r.URL.Query().Get("min_severity"))
	if minSeverity == "" {
		minSeverity = models.SeverityMinor
	}

	records, err := s.repos.DriftRecordRepo.ListUnacknowledged(r.Context(), projectID, minSeverity)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *server) handleAcknowledgeDrift(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	recordID, err := uuid.Parse(r.URL.Query().Get("drift_record_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "drift_record_id must be a valid uuid")
		return
	}
	if err := s.repos.DriftRecordRepo.Acknowledge(r.Context(), recordID); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func main() {
	cfg := config.Load()

	log.Printf("Environment: %s", cfg.Environment)
	log.Printf("Port: %s", cfg.Port)
	log.Printf("Database Host: %s", cfg.Database.Host)
	log.Printf("Database Name: %s", cfg.Database.Name)

	ctx := context.Background()
	db, err := createDatabaseClient(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Printf("Successfully connected to database")

	repoManager := services.NewRepositoryManager(db)
	log.Printf("Repository manager initialized")

	entityMatcher := services.NewEntityMatcherService(&cfg.Analysis)
	citationService := services.NewCitationService(&cfg.Analysis, &cfg.Validation)
	sentimentService := services.NewSentimentService(&cfg.Analysis)
	scoringService := services.NewScoringService()
	providerWeightService := services.NewProviderWeightService(nil)
	analysisService := services.NewAnalysisService(
		&cfg.Analysis,
		entityMatcher,
		citationService,
		sentimentService,
		scoringService,
		providerWeightService,
		repoManager.SnapshotRepo,
	)
	driftService := services.NewDriftService(repoManager.SnapshotRepo)
	log.Printf("Analysis pipeline initialized")

	srv := &server{
		analysis: analysisService,
		drift:    driftService,
		repos:    repoManager,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", srv.handleAnalyze)
	mux.HandleFunc("/api/drift", srv.handleListDrift)
	mux.HandleFunc("/api/drift/acknowledge", srv.handleAcknowledgeDrift)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"service":"senso-analysis","status":"running"}`))
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	log.Printf("Starting Senso Analysis service on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, mux); err != nil {
		log.Fatal(err)
	}
}
