// services/citation_service.go
package services

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/AI-Template-SDK/senso-analysis/internal/config"
	"github.com/AI-Template-SDK/senso-analysis/internal/logging"
	"github.com/AI-Template-SDK/senso-analysis/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
	"mvdan.cc/xurls/v2"
)

// markdownLinkPattern captures [anchor](url) style links so anchor text is
// preserved before the bare-URL pass runs.
var markdownLinkPattern = regexp.MustCompile(`\[([^\]]*)\]\(\s*(https?://[^\s)]+|www\.[^\s)]+)\s*\)`)

// placeholderDomains are base domains that model answers routinely invent.
// A citation into any of them is flagged as a suspected hallucination without
// waiting for a validation pass.
var placeholderDomains = map[string]bool{
	"example.com":     true,
	"example.org":     true,
	"example.net":     true,
	"test.com":        true,
	"domain.com":      true,
	"website.com":     true,
	"yoursite.com":    true,
	"yourdomain.com":  true,
	"placeholder.com": true,
	"sample.com":      true,
	"foo.com":         true,
	"bar.com":         true,
}

type citationService struct {
	analysisCfg   *config.AnalysisConfig
	validationCfg *config.ValidationConfig
	httpClient    *http.Client
	limiter       *rate.Limiter
	logger        *logrus.Entry
}

// NewCitationService creates the citation extractor. The HTTP client is only
// used by the optional reachability pass.
func NewCitationService(analysisCfg *config.AnalysisConfig, validationCfg *config.ValidationConfig) CitationService {
	return &citationService{
		analysisCfg:   analysisCfg,
		validationCfg: validationCfg,
		httpClient: &http.Client{
			Timeout: validationCfg.RequestTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(validationCfg.RatePerSecond), 1),
		logger:  logging.NewComponentLogger("citation_extractor"),
	}
}

type rawCitation struct {
	rawURL string
	anchor *string
	start  int
	end    int
}

func (s *citationService) ExtractCitations(text string, ownDomains []string) []*models.Citation {
	var found []rawCitation
	var capturedSpans [][2]int

	// Markdown links first so their URLs take position precedence and their
	// spans are excluded from the bare-URL pass.
	for _, match := range markdownLinkPattern.FindAllStringSubmatchIndex(text, -1) {
		anchor := text[match[2]:match[3]]
		rawURL := text[match[4]:match[5]]
		anchorCopy := anchor
		found = append(found, rawCitation{
			rawURL: rawURL,
			anchor: &anchorCopy,
			start:  match[0],
			end:    match[1],
		})
		capturedSpans = append(capturedSpans, [2]int{match[0], match[1]})
	}

	// Bare pass: http(s) and www.-prefixed tokens not already captured.
	for _, loc := range xurls.Relaxed().FindAllStringIndex(text, -1) {
		if spanOverlaps(loc[0], loc[1], capturedSpans) {
			continue
		}
		rawURL := text[loc[0]:loc[1]]
		if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") && !strings.HasPrefix(rawURL, "www.") {
			continue
		}
		found = append(found, rawCitation{
			rawURL: rawURL,
			start:  loc[0],
			end:    loc[1],
		})
	}

	return s.buildCitations(text, found, ownDomains)
}

func (s *citationService) ExtractFromExplicitList(text string, urls []string, ownDomains []string) []*models.Citation {
	found := make([]rawCitation, 0, len(urls))
	for _, rawURL := range urls {
		rawURL = strings.TrimSpace(rawURL)
		if rawURL == "" {
			continue
		}
		start := strings.Index(text, rawURL)
		end := -1
		if start >= 0 {
			end = start + len(rawURL)
		}
		found = append(found, rawCitation{rawURL: rawURL, start: start, end: end})
	}
	return s.buildCitations(text, found, ownDomains)
}

func (s *citationService) buildCitations(text string, found []rawCitation, ownDomains []string) []*models.Citation {
	citations := make([]*models.Citation, 0, len(found))
	seenURLs := make(map[string]bool)
	position := 0

	for _, raw := range found {
		cleaned := strings.TrimRight(strings.TrimSpace(raw.rawURL), ".,;:!?'\"")
		if strings.HasPrefix(cleaned, "www.") {
			cleaned = "https://" + cleaned
		}

		finalURL, domain, valid := normalizeURL(cleaned)
		if finalURL == "" {
			finalURL = cleaned
		}
		if seenURLs[finalURL] {
			continue
		}
		seenURLs[finalURL] = true
		position++

		snippet := ""
		if raw.start >= 0 && raw.end > raw.start && raw.end <= len(text) {
			snippet = contextSnippet(text, raw.start, raw.end, s.analysisCfg.ContextWindow)
		}

		citationType := models.CitationTypeSecondary
		if valid && isOwnDomain(domain, ownDomains) {
			citationType = models.CitationTypePrimary
		}

		citations = append(citations, &models.Citation{
			URL:                      finalURL,
			NormalizedDomain:         domain,
			AnchorText:               raw.anchor,
			ContextSnippet:           snippet,
			Position:                 position,
			Type:                     citationType,
			IsSyntacticallyValid:     valid,
			IsSuspectedHallucination: valid && isPlaceholderDomain(domain),
		})
	}

	s.logger.WithFields(logging.Fields{
		"citations": len(citations),
	}).Debug("citation extraction complete")

	return citations
}

// normalizeURL parses the URL, strips the www. host prefix, drops tracking
// parameters and trims the trailing slash. The returned domain is lower-cased
// with the port removed. Malformed URLs come back with valid=false but are
// never dropped.
func normalizeURL(rawURL string) (finalURL, domain string, valid bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL, "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return rawURL, "", false
	}
	hostname := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	if hostname == "" {
		return rawURL, "", false
	}

	u.Host = hostname
	q := u.Query()
	for param := range q {
		if strings.HasPrefix(strings.ToLower(param), "utm_") {
			q.Del(param)
		}
	}
	u.RawQuery = q.Encode()

	finalURL = strings.TrimRight(u.String(), "/")
	return finalURL, hostname, true
}

// baseDomain extracts the eTLD+1 from a normalized domain, falling back to the
// domain itself when the public suffix list cannot resolve it.
func baseDomain(domain string) string {
	base, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		return domain
	}
	return base
}

func isPlaceholderDomain(domain string) bool {
	return placeholderDomains[baseDomain(domain)]
}

// isOwnDomain reports whether the citation domain belongs to one of the
// organization's websites, matching on the base domain so subdomains count.
func isOwnDomain(domain string, ownDomains []string) bool {
	if domain == "" {
		return false
	}
	citationBase := baseDomain(domain)
	for _, own := range ownDomains {
		own = strings.ToLower(strings.TrimSpace(own))
		own = strings.TrimPrefix(own, "https://")
		own = strings.TrimPrefix(own, "http://")
		own = strings.TrimPrefix(own, "www.")
		if idx := strings.IndexAny(own, "/:"); idx >= 0 {
			own = own[:idx]
		}
		if own == "" {
			continue
		}
		if baseDomain(own) == citationBase {
			return true
		}
	}
	return false
}

func spanOverlaps(start, end int, spans [][2]int) bool {
	for _, span := range spans {
		if start < span[1] && end > span[0] {
			return true
		}
	}
	return false
}

// ValidateCitations runs HEAD requests against every syntactically valid
// citation under a bounded concurrency gate. Each citation's validation is
// independent and idempotent, so a cancelled batch still leaves the validated
// subset usable.
func (s *citationService) ValidateCitations(ctx context.Context, citations []*models.Citation) error {
	sem := semaphore.NewWeighted(int64(s.validationCfg.Concurrency))
	var wg sync.WaitGroup

	for _, citation := range citations {
		if !citation.IsSyntacticallyValid {
			continue
		}
		if err := s.limiter.Wait(ctx); err != nil {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}

		wg.Add(1)
		go func(c *models.Citation) {
			defer wg.Done()
			defer sem.Release(1)
			s.validateOne(ctx, c)
		}(citation)
	}

	wg.Wait()
	return ctx.Err()
}

func (s *citationService) validateOne(ctx context.Context, citation *models.Citation) {
	reqCtx, cancel := context.WithTimeout(ctx, s.validationCfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, citation.URL, nil)
	if err != nil {
		s.logger.WithError(&CitationValidationError{URL: citation.URL, Kind: ValidationFailureBadRequest, Err: err}).
			Warn("skipping unverifiable citation")
		return
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		kind := ValidationFailureConnection
		if errors.Is(err, context.DeadlineExceeded) {
			kind = ValidationFailureTimeout
		}
		// Accessibility stays unknown rather than false: the host may simply
		// have been slow or unreachable from here.
		s.logger.WithError(&CitationValidationError{URL: citation.URL, Kind: kind, Err: err}).
			Warn("citation validation inconclusive")
		return
	}
	defer resp.Body.Close()

	status := resp.StatusCode
	accessible := status < 400
	citation.HTTPStatus = &status
	citation.IsAccessible = &accessible

	if status == http.StatusNotFound || status == http.StatusGone {
		citation.IsSuspectedHallucination = true
	}
}
