package services_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AI-Template-SDK/senso-analysis/internal/config"
	"github.com/AI-Template-SDK/senso-analysis/internal/models"
	"github.com/AI-Template-SDK/senso-analysis/internal/testutil"
	"github.com/AI-Template-SDK/senso-analysis/services"
)

func newCitationService() services.CitationService {
	return services.NewCitationService(testutil.DefaultAnalysisConfig(), &config.ValidationConfig{
		Concurrency:    5,
		RequestTimeout: 2 * time.Second,
		RatePerSecond:  100,
	})
}

func TestExtractCitationsMarkdownAndBare(t *testing.T) {
	svc := newCitationService()

	text := "See [the Acme docs](https://docs.acme.com/start) and https://blog.globex.com/post for details."
	citations := svc.ExtractCitations(text, []string{"acme.com"})

	if len(citations) != 2 {
		t.Fatalf("ExtractCitations() returned %d citations, want 2", len(citations))
	}

	first := citations[0]
	if first.AnchorText == nil || *first.AnchorText != "the Acme docs" {
		t.Errorf("first citation anchor = %v, want %q", first.AnchorText, "the Acme docs")
	}
	if first.Position != 1 {
		t.Errorf("first citation position = %d, want 1", first.Position)
	}
	if first.Type != models.CitationTypePrimary {
		t.Errorf("docs.acme.com should classify as primary against own domain acme.com, got %s", first.Type)
	}

	second := citations[1]
	if second.AnchorText != nil {
		t.Errorf("bare URL should have no anchor text, got %q", *second.AnchorText)
	}
	if second.Type != models.CitationTypeSecondary {
		t.Errorf("blog.globex.com should classify as secondary, got %s", second.Type)
	}
	if second.Position != 2 {
		t.Errorf("second citation position = %d, want 2", second.Position)
	}
}

func TestExtractCitationsDeduplication(t *testing.T) {
	svc := newCitationService()

	text := "Start at https://acme.com/pricing, then revisit https://acme.com/pricing later."
	citations := svc.ExtractCitations(text, nil)

	if len(citations) != 1 {
		t.Fatalf("ExtractCitations() returned %d citations, want 1 after dedup", len(citations))
	}
	if citations[0].Position != 1 {
		t.Errorf("deduped citation position = %d, want 1", citations[0].Position)
	}
}

func TestExtractCitationsNormalization(t *testing.T) {
	svc := newCitationService()

	tests := []struct {
		name       string
		text       string
		wantURL    string
		wantDomain string
	}{
		{
			name:       "www prefix gains scheme and is stripped from host",
			text:       "Visit www.acme.com/docs today.",
			wantURL:    "https://acme.com/docs",
			wantDomain: "acme.com",
		},
		{
			name:       "tracking parameters dropped",
			text:       "Read https://acme.com/post?utm_source=chat&utm_medium=ai&id=7 now.",
			wantURL:    "https://acme.com/post?id=7",
			wantDomain: "acme.com",
		},
		{
			name:       "trailing punctuation trimmed",
			text:       "More at https://acme.com/faq.",
			wantURL:    "https://acme.com/faq",
			wantDomain: "acme.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			citations := svc.ExtractCitations(tt.text, nil)
			if len(citations) != 1 {
				t.Fatalf("ExtractCitations(%q) returned %d citations, want 1", tt.text, len(citations))
			}
			if citations[0].URL != tt.wantURL {
				t.Errorf("URL = %s, want %s", citations[0].URL, tt.wantURL)
			}
			if citations[0].NormalizedDomain != tt.wantDomain {
				t.Errorf("domain = %s, want %s", citations[0].NormalizedDomain, tt.wantDomain)
			}
		})
	}
}

func TestExtractCitationsPlaceholderDomain(t *testing.T) {
	svc := newCitationService()

	citations := svc.ExtractCitations("According to https://example.com/research, usage tripled.", nil)

	if len(citations) != 1 {
		t.Fatalf("ExtractCitations() returned %d citations, want 1", len(citations))
	}
	if !citations[0].IsSuspectedHallucination {
		t.Error("example.com citation should be flagged as suspected hallucination")
	}
	if citations[0].IsAccessible != nil {
		t.Error("placeholder flag must not claim accessibility knowledge")
	}
}

func TestExtractFromExplicitList(t *testing.T) {
	svc := newCitationService()

	text := "Acme tops the rankings per https://rankings.example.dev/acme this year."
	citations := svc.ExtractFromExplicitList(text, []string{
		"https://rankings.example.dev/acme",
		"https://acme.com/press",
		"notaurl",
		"",
	}, []string{"acme.com"})

	if len(citations) != 3 {
		t.Fatalf("ExtractFromExplicitList() returned %d citations, want 3", len(citations))
	}

	if citations[0].ContextSnippet == "" {
		t.Error("URL present in text should carry a context snippet")
	}
	if citations[1].ContextSnippet != "" {
		t.Error("URL absent from text should have no context snippet")
	}
	if citations[1].Type != models.CitationTypePrimary {
		t.Errorf("acme.com press URL should be primary, got %s", citations[1].Type)
	}
	if citations[2].IsSyntacticallyValid {
		t.Error("malformed URL should be kept but marked syntactically invalid")
	}
	if citations[2].Position != 3 {
		t.Errorf("malformed URL position = %d, want 3", citations[2].Position)
	}
}

func TestValidateCitations(t *testing.T) {
	okServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer okServer.Close()

	goneServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer goneServer.Close()

	svc := newCitationService()
	citations := []*models.Citation{
		{URL: okServer.URL, IsSyntacticallyValid: true},
		{URL: goneServer.URL, IsSyntacticallyValid: true},
		{URL: "notaurl", IsSyntacticallyValid: false},
	}

	if err := svc.ValidateCitations(context.Background(), citations); err != nil {
		t.Fatalf("ValidateCitations() error = %v", err)
	}

	if citations[0].IsAccessible == nil || !*citations[0].IsAccessible {
		t.Error("200 response should mark the citation accessible")
	}
	if citations[0].HTTPStatus == nil || *citations[0].HTTPStatus != http.StatusOK {
		t.Errorf("HTTPStatus = %v, want 200", citations[0].HTTPStatus)
	}

	if citations[1].IsAccessible == nil || *citations[1].IsAccessible {
		t.Error("404 response should mark the citation inaccessible")
	}
	if !citations[1].IsSuspectedHallucination {
		t.Error("404 response should flag a suspected hallucination")
	}

	if citations[2].IsAccessible != nil {
		t.Error("syntactically invalid citation must be skipped by validation")
	}
}

func TestValidateCitationsUnreachableHostStaysUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	unreachable := server.URL
	server.Close()

	svc := newCitationService()
	citations := []*models.Citation{
		{URL: unreachable, IsSyntacticallyValid: true},
	}

	if err := svc.ValidateCitations(context.Background(), citations); err != nil {
		t.Fatalf("ValidateCitations() error = %v", err)
	}
	if citations[0].IsAccessible != nil {
		t.Error("connection failure should leave accessibility unknown, not false")
	}
}

func TestValidateCitationsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newCitationService()
	citations := []*models.Citation{
		{URL: "https://acme.com", IsSyntacticallyValid: true},
	}

	if err := svc.ValidateCitations(ctx, citations); err == nil {
		t.Error("ValidateCitations() with cancelled context should return the context error")
	}
	if citations[0].IsAccessible != nil {
		t.Error("cancelled batch must not annotate accessibility")
	}
}
