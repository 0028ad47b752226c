package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/stylelens/backend/internal/domain"
)

// fakeVision routes each invocation through fn so tests can script the OCR
// and main passes independently
type fakeVision struct {
	fn    func(prompt string) (*domain.VisionResult, error)
	calls int
}

func (f *fakeVision) Invoke(ctx context.Context, image domain.EncodedImage, prompt string) (*domain.VisionResult, error) {
	f.calls++
	return f.fn(prompt)
}

func isOCRPrompt(prompt string) bool {
	return strings.Contains(prompt, "Transcribe ONLY")
}

type fakeTaxonomy struct {
	schema []domain.AttributeDefinition
	err    error
}

func (f *fakeTaxonomy) AttributesForCategory(ctx context.Context, categoryLabel string) ([]domain.AttributeDefinition, error) {
	return f.schema, f.err
}

type fakeCache struct {
	data map[string]interface{}
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]interface{})}
}

func (f *fakeCache) Get(ctx context.Context, key string) (interface{}, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return nil, domain.ErrCacheMiss
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.data[key] = value
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	delete(f.data, key)
	return nil
}

func (f *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := f.data[key]
	return ok, nil
}

type fakeStore struct {
	saved []*domain.ExtractionRecord
	err   error
}

func (f *fakeStore) Save(ctx context.Context, record *domain.ExtractionRecord) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, record)
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*domain.ExtractionRecord, error) {
	for _, r := range f.saved {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeStore) UsageSummary(ctx context.Context, since time.Time) (*domain.UsageSummary, error) {
	return &domain.UsageSummary{}, nil
}

const ocrResponseText = `{
	"metadata": {
		"colour": "NVY",
		"design_no": "D 4578 KT",
		"vendor": null
	},
	"attributes": {}
}`

const mainResponseText = `{
	"metadata": {"vendor": "Acme Textiles", "gsm": "180"},
	"attributes": {
		"colour": {"raw_value": "NAVY BLUE", "confidence": 85, "reasoning": "indigo body"},
		"weave": {"raw_value": "TWL", "confidence": 80},
		"wash": {"raw_value": "STN", "confidence": 70},
		"fit": {"raw_value": "SLM", "confidence": 75},
		"neckline": {"raw_value": "RND", "confidence": 90}
	}
}`

func scriptedVision(ocrText string, ocrErr error, mainText string, mainErr error) *fakeVision {
	return &fakeVision{fn: func(prompt string) (*domain.VisionResult, error) {
		if isOCRPrompt(prompt) {
			if ocrErr != nil {
				return nil, ocrErr
			}
			return &domain.VisionResult{Text: ocrText, Usage: domain.TokenUsage{PromptUnits: 10, CompletionUnits: 5}}, nil
		}
		if mainErr != nil {
			return nil, mainErr
		}
		return &domain.VisionResult{Text: mainText, Usage: domain.TokenUsage{PromptUnits: 20, CompletionUnits: 7}}, nil
	}}
}

func newTestService(vision domain.VisionInvoker, cache domain.CacheRepository, store domain.ExtractionRepository) *ExtractionService {
	return NewExtractionService(
		vision,
		&fakeTaxonomy{schema: catalogSchema()},
		cache,
		store,
		ExtractionServiceConfig{CallTimeout: time.Second, CacheTTL: time.Minute, ConfidenceThreshold: DefaultConfidenceThreshold},
		zerolog.Nop(),
	)
}

func jeansRequest() *ExtractRequest {
	return &ExtractRequest{
		Image:         domain.EncodedImage{Data: []byte("fake-jpeg-bytes"), MimeType: "image/jpeg"},
		CategoryLabel: "Denim Jeans",
	}
}

func TestExtract_InvalidRequest(t *testing.T) {
	svc := newTestService(scriptedVision(ocrResponseText, nil, mainResponseText, nil), newFakeCache(), &fakeStore{})
	ctx := context.Background()

	t.Run("nil request", func(t *testing.T) {
		_, err := svc.Extract(ctx, nil)
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("empty image", func(t *testing.T) {
		_, err := svc.Extract(ctx, &ExtractRequest{CategoryLabel: "Denim Jeans"})
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("empty category", func(t *testing.T) {
		_, err := svc.Extract(ctx, &ExtractRequest{Image: domain.EncodedImage{Data: []byte("x")}})
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})
}

func TestExtract_FullPipeline(t *testing.T) {
	vision := scriptedVision(ocrResponseText, nil, mainResponseText, nil)
	cache := newFakeCache()
	store := &fakeStore{}
	svc := newTestService(vision, cache, store)

	record, err := svc.Extract(context.Background(), jeansRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if record.Source != "Vision" {
		t.Errorf("Source = %q, want Vision", record.Source)
	}
	if record.ID == "" {
		t.Error("record ID is empty")
	}
	if vision.calls != 2 {
		t.Errorf("vision calls = %d, want 2 (OCR pass + main pass)", vision.calls)
	}

	schema := catalogSchema()
	if len(record.Result.Attributes) != len(schema) {
		t.Errorf("len(attributes) = %d, want %d", len(record.Result.Attributes), len(schema))
	}
	for i := range schema {
		if _, ok := record.Result.Attributes[schema[i].Key]; !ok {
			t.Errorf("result missing schema key %q", schema[i].Key)
		}
	}

	// Tag colour NVY agrees with the observed NAVY BLUE, so the tag value wins
	colour := record.Result.Attributes["colour"]
	if colour == nil || colour.NormalizedValue != "NVY" || colour.Confidence != tagFieldConfidence {
		t.Errorf("colour = %+v, want NVY at %d", colour, tagFieldConfidence)
	}

	// Design number comes from the tag, minus its admin suffix
	designNo := record.Result.Attributes["design_no"]
	if designNo == nil || designNo.NormalizedValue != "D 4578" {
		t.Errorf("design_no = %+v, want D 4578", designNo)
	}

	// Bottomwear masks the neckline even at confidence 90
	if record.Result.Attributes["neckline"] != nil {
		t.Errorf("neckline = %+v, want nil on bottomwear", record.Result.Attributes["neckline"])
	}

	// Belt defaults are injected for bottomwear
	if belt := record.Result.Attributes["belt_type"]; belt == nil || belt.NormalizedValue != "ELS" {
		t.Errorf("belt_type = %+v, want injected ELS", belt)
	}

	if record.Usage.PromptUnits != 30 || record.Usage.CompletionUnits != 12 {
		t.Errorf("usage = %+v, want both passes summed (30/12)", record.Usage)
	}
	if record.Result.OverallConfidence <= 0 {
		t.Errorf("overall confidence = %v, want > 0", record.Result.OverallConfidence)
	}

	if len(store.saved) != 1 {
		t.Errorf("saved records = %d, want 1", len(store.saved))
	}
	if len(cache.data) != 1 {
		t.Errorf("cached entries = %d, want 1", len(cache.data))
	}
}

func TestExtract_OCRFailureDegrades(t *testing.T) {
	t.Run("transport failure on the pre-pass", func(t *testing.T) {
		vision := scriptedVision("", fmt.Errorf("%w: connection refused", domain.ErrVisionUnavailable), mainResponseText, nil)
		svc := newTestService(vision, newFakeCache(), &fakeStore{})

		record, err := svc.Extract(context.Background(), jeansRequest())
		if err != nil {
			t.Fatalf("unexpected error: %v (pre-pass failure must not be fatal)", err)
		}

		if len(record.Result.Attributes) != len(catalogSchema()) {
			t.Errorf("len(attributes) = %d, want the full schema", len(record.Result.Attributes))
		}
		// Without a tag hint the observed colour stands as-is
		colour := record.Result.Attributes["colour"]
		if colour == nil || colour.NormalizedValue != "NVY" || colour.Confidence != 85 {
			t.Errorf("colour = %+v, want observed NVY at 85", colour)
		}
		// Only the main pass contributed usage
		if record.Usage.PromptUnits != 20 || record.Usage.CompletionUnits != 7 {
			t.Errorf("usage = %+v, want main pass only (20/7)", record.Usage)
		}
	})

	t.Run("garbage response on the pre-pass", func(t *testing.T) {
		vision := scriptedVision("sorry, I cannot read this tag", nil, mainResponseText, nil)
		svc := newTestService(vision, newFakeCache(), &fakeStore{})

		record, err := svc.Extract(context.Background(), jeansRequest())
		if err != nil {
			t.Fatalf("unexpected error: %v (unparseable pre-pass must not be fatal)", err)
		}
		if record.Source != "Vision" {
			t.Errorf("Source = %q, want Vision", record.Source)
		}
	})
}

func TestExtract_MainPassFailureIsFatal(t *testing.T) {
	t.Run("transport failure", func(t *testing.T) {
		vision := scriptedVision(ocrResponseText, nil, "", fmt.Errorf("%w: status 503", domain.ErrVisionUnavailable))
		store := &fakeStore{}
		svc := newTestService(vision, newFakeCache(), store)

		_, err := svc.Extract(context.Background(), jeansRequest())
		if !errors.Is(err, domain.ErrVisionUnavailable) {
			t.Errorf("error = %v, want ErrVisionUnavailable", err)
		}
		if len(store.saved) != 0 {
			t.Errorf("saved records = %d, want 0 after a failed extraction", len(store.saved))
		}
	})

	t.Run("unparseable response", func(t *testing.T) {
		vision := scriptedVision(ocrResponseText, nil, "not json at all", nil)
		svc := newTestService(vision, newFakeCache(), &fakeStore{})

		_, err := svc.Extract(context.Background(), jeansRequest())
		if !errors.Is(err, domain.ErrMalformedResponse) {
			t.Errorf("error = %v, want ErrMalformedResponse", err)
		}
	})
}

func TestExtract_CacheHit(t *testing.T) {
	vision := scriptedVision(ocrResponseText, nil, mainResponseText, nil)
	cache := newFakeCache()
	svc := newTestService(vision, cache, &fakeStore{})
	ctx := context.Background()

	first, err := svc.Extract(ctx, jeansRequest())
	if err != nil {
		t.Fatalf("first extract error: %v", err)
	}
	callsAfterFirst := vision.calls

	second, err := svc.Extract(ctx, jeansRequest())
	if err != nil {
		t.Fatalf("second extract error: %v", err)
	}

	if vision.calls != callsAfterFirst {
		t.Errorf("vision calls = %d, want %d (cache hit must skip the model)", vision.calls, callsAfterFirst)
	}
	if second.Source != "Cache" {
		t.Errorf("Source = %q, want Cache", second.Source)
	}
	if second.ID != first.ID {
		t.Errorf("cached ID = %q, want %q", second.ID, first.ID)
	}

	t.Run("different category misses", func(t *testing.T) {
		req := jeansRequest()
		req.CategoryLabel = "Polo T-Shirt"
		_, err := svc.Extract(ctx, req)
		if err != nil {
			t.Fatalf("extract error: %v", err)
		}
		if vision.calls != callsAfterFirst+2 {
			t.Errorf("vision calls = %d, want %d for a different category", vision.calls, callsAfterFirst+2)
		}
	})
}

func TestExtract_TaxonomyFailures(t *testing.T) {
	vision := scriptedVision(ocrResponseText, nil, mainResponseText, nil)

	t.Run("repository error", func(t *testing.T) {
		svc := NewExtractionService(
			vision,
			&fakeTaxonomy{err: errors.New("seed not loaded")},
			newFakeCache(),
			&fakeStore{},
			ExtractionServiceConfig{},
			zerolog.Nop(),
		)

		_, err := svc.Extract(context.Background(), jeansRequest())
		if !errors.Is(err, domain.ErrTaxonomyUnavailable) {
			t.Errorf("error = %v, want ErrTaxonomyUnavailable", err)
		}
	})

	t.Run("empty schema", func(t *testing.T) {
		svc := NewExtractionService(
			vision,
			&fakeTaxonomy{},
			newFakeCache(),
			&fakeStore{},
			ExtractionServiceConfig{},
			zerolog.Nop(),
		)

		_, err := svc.Extract(context.Background(), jeansRequest())
		if !errors.Is(err, domain.ErrTaxonomyUnavailable) {
			t.Errorf("error = %v, want ErrTaxonomyUnavailable", err)
		}
	})
}

func TestNewExtractionService_Defaults(t *testing.T) {
	svc := NewExtractionService(
		&fakeVision{fn: func(string) (*domain.VisionResult, error) { return nil, nil }},
		&fakeTaxonomy{},
		newFakeCache(),
		&fakeStore{},
		ExtractionServiceConfig{},
		zerolog.Nop(),
	)

	if svc.callTimeout != 90*time.Second {
		t.Errorf("callTimeout = %v, want 90s default", svc.callTimeout)
	}
	if svc.cacheTTL != 24*time.Hour {
		t.Errorf("cacheTTL = %v, want 24h default", svc.cacheTTL)
	}
	if svc.confidenceThreshold != DefaultConfidenceThreshold {
		t.Errorf("confidenceThreshold = %d, want %d default", svc.confidenceThreshold, DefaultConfidenceThreshold)
	}
}
