package verify

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/trusthire/backend/internal/detector/ai"
	"github.com/trusthire/backend/internal/metrics"
	"github.com/trusthire/backend/internal/report"
	"github.com/trusthire/backend/internal/scoring"
	"github.com/trusthire/backend/internal/storage/models"
	"github.com/trusthire/backend/internal/storage/sqlite"
)

// Request is one end-to-end verification: the structured claim plus the
// optional pre-scored collaborator inputs.
type Request struct {
	Claim      *models.CandidateClaim  `json:"claim"`
	ResumeText string                  `json:"resume_text,omitempty"`
	Document   *models.DocumentSignals `json:"document,omitempty"`
}

// ServiceConfig wires the full pipeline. Detector and Store may be nil:
// detection then falls back to a neutral verdict and persistence is
// skipped.
type ServiceConfig struct {
	Orchestrator *Orchestrator
	Engine       *scoring.Engine
	Detector     *ai.Client
	Store        *sqlite.Client
	Logger       *zap.Logger
}

// Service runs the whole pipeline: fan-out, AI detection, scoring, report
// assembly and best-effort persistence.
type Service struct {
	cfg ServiceConfig
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Service{cfg: cfg}
}

// Verify produces the aggregated report for one request. The only error
// paths are a structurally invalid claim and a misconfigured weight
// table; source failures degrade into evidence, never into errors.
func (s *Service) Verify(ctx context.Context, req Request, onProgress ProgressFunc) (*models.AggregatedReport, error) {
	start := time.Now()

	evidence, err := s.cfg.Orchestrator.Run(ctx, req.Claim, onProgress)
	if err != nil {
		metrics.VerificationRuns.WithLabelValues("invalid").Inc()
		return nil, err
	}

	var verdict *models.AiDetection
	if s.cfg.Detector != nil && strings.TrimSpace(req.ResumeText) != "" {
		verdict = s.cfg.Detector.Detect(ctx, req.ResumeText)
	}

	components, rationale, err := s.cfg.Engine.Score(scoring.Input{
		Claim:    req.Claim,
		Evidence: evidence,
		AI:       verdict,
		Document: req.Document,
	})
	if err != nil {
		metrics.VerificationRuns.WithLabelValues("error").Inc()
		return nil, err
	}

	rep, err := report.Build(components, evidence, rationale, report.Options{})
	if err != nil {
		metrics.VerificationRuns.WithLabelValues("error").Inc()
		return nil, err
	}

	if s.cfg.Store != nil {
		// Persistence is best effort; a storage fault never costs the
		// caller their report.
		if err := s.cfg.Store.InsertReport(req.Claim.FullName, rep); err != nil {
			s.cfg.Logger.Error("failed to persist report",
				zap.String("report_id", rep.ID), zap.Error(err))
		}
	}

	metrics.VerificationRuns.WithLabelValues("ok").Inc()
	metrics.RunDuration.Observe(time.Since(start).Seconds())
	metrics.OverallRisk.Observe(rep.OverallScore)

	s.cfg.Logger.Info("verification run completed",
		zap.String("report_id", rep.ID),
		zap.String("candidate", req.Claim.FullName),
		zap.Float64("overall_risk", rep.OverallScore),
		zap.Duration("elapsed", time.Since(start)),
	)
	return rep, nil
}
