package pipeline

import (
	"context"
	"sync/atomic"

	"github.com/shouni/gemini-tryon-kit/pkg/domain"
	"github.com/shouni/gemini-tryon-kit/pkg/ingest"
)

// --- Mocks ---

type mockIngester struct {
	calls      atomic.Int32
	ingestFunc func(ctx context.Context, src ingest.Source) (domain.ImageAsset, error)
}

func (m *mockIngester) Ingest(ctx context.Context, src ingest.Source) (domain.ImageAsset, error) {
	m.calls.Add(1)
	if m.ingestFunc != nil {
		return m.ingestFunc(ctx, src)
	}
	if f, ok := src.(ingest.FileSource); ok {
		return domain.ImageAsset{Data: f.Data, MimeType: f.ContentType}, nil
	}
	return domain.ImageAsset{Data: []byte("remote"), MimeType: "image/jpeg"}, nil
}

func (m *mockIngester) First(ctx context.Context, candidates ...ingest.Source) (domain.ImageAsset, error) {
	var lastErr error
	for _, src := range candidates {
		asset, err := m.Ingest(ctx, src)
		if err == nil {
			return asset, nil
		}
		lastErr = err
	}
	return domain.ImageAsset{}, lastErr
}

type mockGenerator struct {
	calls atomic.Int32
	uri   string
	ok    bool
}

func (m *mockGenerator) Generate(ctx context.Context, user, product domain.ImageAsset, desc domain.ProductDescriptor) (string, bool) {
	m.calls.Add(1)
	return m.uri, m.ok
}

type mockCompositor struct {
	calls atomic.Int32
	uri   string
	ok    bool
}

func (m *mockCompositor) Composite(ctx context.Context, user, product domain.ImageAsset) (string, bool) {
	m.calls.Add(1)
	return m.uri, m.ok
}

type mockAnalyzer struct {
	calls       atomic.Int32
	result      domain.Analysis
	analyzeFunc func(ctx context.Context) domain.Analysis
}

func (m *mockAnalyzer) Analyze(ctx context.Context, user, product domain.ImageAsset, desc domain.ProductDescriptor) domain.Analysis {
	m.calls.Add(1)
	if m.analyzeFunc != nil {
		return m.analyzeFunc(ctx)
	}
	return m.result
}
