package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stylelens/backend/internal/domain"
)

// ExtractionServiceConfig holds configuration for the extraction service
type ExtractionServiceConfig struct {
	CallTimeout         time.Duration
	CacheTTL            time.Duration
	ConfidenceThreshold int
}

// ExtractRequest carries the inputs for one extraction
type ExtractRequest struct {
	Image           domain.EncodedImage
	CategoryLabel   string
	DepartmentLabel string
}

// ExtractionService runs the two-pass extraction pipeline: OCR pre-pass
// (best effort), main visual-analysis pass, then parse, validate, reconcile,
// garment rules and confidence filtering. Each request builds its own
// context and result map; the service itself holds no per-request state, so
// callers may invoke it concurrently.
type ExtractionService struct {
	vision              domain.VisionInvoker
	taxonomy            domain.TaxonomyRepository
	cache               domain.CacheRepository
	store               domain.ExtractionRepository
	callTimeout         time.Duration
	cacheTTL            time.Duration
	confidenceThreshold int
	logger              zerolog.Logger
}

// NewExtractionService creates the extraction service with its dependencies
func NewExtractionService(
	vision domain.VisionInvoker,
	taxonomy domain.TaxonomyRepository,
	cache domain.CacheRepository,
	store domain.ExtractionRepository,
	config ExtractionServiceConfig,
	logger zerolog.Logger,
) *ExtractionService {
	callTimeout := config.CallTimeout
	if callTimeout == 0 {
		callTimeout = 90 * time.Second
	}
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}
	threshold := config.ConfidenceThreshold
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}

	return &ExtractionService{
		vision:              vision,
		taxonomy:            taxonomy,
		cache:               cache,
		store:               store,
		callTimeout:         callTimeout,
		cacheTTL:            cacheTTL,
		confidenceThreshold: threshold,
		logger:              logger.With().Str("component", "extraction").Logger(),
	}
}

// Extract runs the full pipeline for one image and returns the persisted
// record. The OCR pre-pass failing is non-fatal and degrades to a hint-free
// main pass; the main pass failing aborts the extraction. There are no
// internal retries - resubmission policy belongs to the caller.
func (s *ExtractionService) Extract(ctx context.Context, req *ExtractRequest) (*domain.ExtractionRecord, error) {
	if req == nil || len(req.Image.Data) == 0 || req.CategoryLabel == "" {
		return nil, domain.ErrInvalidRequest
	}

	cacheKey := s.cacheKey(req)
	if cached := s.getCached(ctx, cacheKey); cached != nil {
		cached.Source = "Cache"
		return cached, nil
	}

	schema, err := s.taxonomy.AttributesForCategory(ctx, req.CategoryLabel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTaxonomyUnavailable, err)
	}
	if len(schema) == 0 {
		return nil, fmt.Errorf("%w: no attributes defined for category %q", domain.ErrTaxonomyUnavailable, req.CategoryLabel)
	}

	extCtx := &domain.ExtractionContext{
		Image:           req.Image,
		Schema:          schema,
		CategoryLabel:   req.CategoryLabel,
		DepartmentLabel: req.DepartmentLabel,
	}

	var usage domain.TokenUsage

	hint := s.runOCRPass(ctx, extCtx, &usage)

	parsed, err := s.runMainPass(ctx, extCtx, hint, &usage)
	if err != nil {
		return nil, err
	}

	result := s.assemble(extCtx, parsed, hint)

	record := &domain.ExtractionRecord{
		ID:              uuid.New().String(),
		CategoryLabel:   req.CategoryLabel,
		DepartmentLabel: req.DepartmentLabel,
		Result:          result,
		Usage:           usage,
		Source:          "Vision",
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.cache.Set(ctx, cacheKey, record, s.cacheTTL); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache extraction result")
	}
	if err := s.store.Save(ctx, record); err != nil {
		s.logger.Error().Err(err).Str("extraction_id", record.ID).Msg("failed to persist extraction record")
	}

	return record, nil
}

// runOCRPass performs the best-effort tag transcription call. Any failure
// (transport, timeout, decode) is logged and degrades to no hint - it is
// never surfaced to the caller.
func (s *ExtractionService) runOCRPass(ctx context.Context, extCtx *domain.ExtractionContext, usage *domain.TokenUsage) domain.OCRHint {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	res, err := s.vision.Invoke(callCtx, extCtx.Image, BuildOCRPrompt(extCtx))
	if err != nil {
		s.logger.Warn().Err(err).Msg("OCR pre-pass failed; proceeding without tag hints")
		return domain.NoHint()
	}
	usage.Add(res.Usage)

	parsed, err := ParseResponse(res.Text)
	if err != nil {
		s.logger.Warn().Err(err).Msg("OCR pre-pass response unparseable; proceeding without tag hints")
		return domain.NoHint()
	}

	fields := make(map[string]string)
	for _, key := range domain.HintKeys {
		if v, ok := parsed.Metadata[key]; ok && v != "" && !isNonAnswer(v) {
			fields[key] = v
		}
	}
	if len(fields) == 0 {
		return domain.NoHint()
	}

	s.logger.Debug().Int("fields", len(fields)).Msg("OCR pre-pass produced tag hints")
	return domain.OCRHint{Available: true, Fields: fields}
}

// runMainPass performs the required visual-analysis call. Failures here are
// fatal for the extraction.
func (s *ExtractionService) runMainPass(ctx context.Context, extCtx *domain.ExtractionContext, hint domain.OCRHint, usage *domain.TokenUsage) (*ParsedResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	res, err := s.vision.Invoke(callCtx, extCtx.Image, BuildMainPrompt(extCtx, hint))
	if err != nil {
		return nil, err
	}
	usage.Add(res.Usage)

	return ParseResponse(res.Text)
}

// assemble runs the deterministic post-processing stages over the parsed
// main-pass payload
func (s *ExtractionService) assemble(extCtx *domain.ExtractionContext, parsed *ParsedResponse, hint domain.OCRHint) *domain.ExtractionResult {
	class := ClassifyGarment(extCtx.CategoryLabel)

	values := ValidateAttributes(extCtx.Schema, parsed.Attributes)
	ReconcileMetadata(extCtx.Schema, values, parsed.Metadata, hint)
	ApplyGarmentRules(class, extCtx.CategoryLabel, extCtx.Schema, values)
	FilterByConfidence(extCtx.Schema, values, s.confidenceThreshold)

	result := &domain.ExtractionResult{Attributes: values}
	result.ComputeOverallConfidence()

	s.logger.Info().
		Str("category", extCtx.CategoryLabel).
		Str("garment_class", string(class)).
		Float64("overall_confidence", result.OverallConfidence).
		Msg("extraction assembled")

	return result
}

// cacheKey derives a stable key from the image bytes and category so an
// identical re-upload within the TTL skips both model calls
func (s *ExtractionService) cacheKey(req *ExtractRequest) string {
	digest := sha256.Sum256(req.Image.Data)
	return fmt.Sprintf("extraction:%s:%s", hex.EncodeToString(digest[:]), normalizeLabel(req.CategoryLabel))
}

func normalizeLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}

// getCached retrieves a prior extraction record. Cache values survive a JSON
// round trip, so re-marshal whatever the cache returns.
func (s *ExtractionService) getCached(ctx context.Context, key string) *domain.ExtractionRecord {
	value, err := s.cache.Get(ctx, key)
	if err != nil || value == nil {
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	var record domain.ExtractionRecord
	if err := json.Unmarshal(raw, &record); err != nil || record.Result == nil {
		return nil
	}
	return &record
}
