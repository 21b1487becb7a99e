package service

import (
	"regexp"
	"strings"
)

// BotDetector decides whether a request comes from an automated client.
// It sits behind an interface because the heuristics get tuned often and the
// policy engine should not care how the verdict is reached.
type BotDetector interface {
	Classify(userAgent string, headers map[string]string) bool
}

// crawlerPatterns match clients that identify themselves as automated:
// social unfurlers, search engines, HTTP tooling, preview generators and
// scanners. Checked case-insensitively against the whole user agent.
var crawlerPatterns = []*regexp.Regexp{
	// Social media crawlers
	regexp.MustCompile(`(?i)twitterbot`),
	regexp.MustCompile(`(?i)facebookexternalhit`),
	regexp.MustCompile(`(?i)whatsapp`),
	regexp.MustCompile(`(?i)telegrambot`),
	regexp.MustCompile(`(?i)slackbot`),
	regexp.MustCompile(`(?i)linkedinbot`),
	regexp.MustCompile(`(?i)discordbot`),
	regexp.MustCompile(`(?i)skypeuri`),

	// Search engine bots
	regexp.MustCompile(`(?i)googlebot`),
	regexp.MustCompile(`(?i)bingbot`),
	regexp.MustCompile(`(?i)yandexbot`),
	regexp.MustCompile(`(?i)baiduspider`),
	regexp.MustCompile(`(?i)duckduckbot`),

	// Generic crawlers and HTTP tooling
	regexp.MustCompile(`(?i)crawler`),
	regexp.MustCompile(`(?i)spider`),
	regexp.MustCompile(`(?i)bot\b`),
	regexp.MustCompile(`(?i)curl`),
	regexp.MustCompile(`(?i)wget`),
	regexp.MustCompile(`(?i)python-requests`),
	regexp.MustCompile(`(?i)postman`),
	regexp.MustCompile(`(?i)insomnia`),
	regexp.MustCompile(`(?i)httpie`),
	regexp.MustCompile(`(?i)axios`),
	regexp.MustCompile(`(?i)node-fetch`),

	// Preview generators
	regexp.MustCompile(`(?i)preview`),
	regexp.MustCompile(`(?i)thumbnail`),
	regexp.MustCompile(`(?i)unfurl`),
	regexp.MustCompile(`(?i)linkpreview`),

	// Uptime monitors and scanners
	regexp.MustCompile(`(?i)uptimerobot`),
	regexp.MustCompile(`(?i)pingdom`),
	regexp.MustCompile(`(?i)nmap`),
	regexp.MustCompile(`(?i)nikto`),
	regexp.MustCompile(`(?i)sqlmap`),
	regexp.MustCompile(`(?i)burpsuite`),
}

// browserSignature matches a versioned browser-engine token, e.g. "Chrome/120".
// Real browsers always carry one; most bots either fake a bare product name or
// append their own marker on top.
var browserSignature = regexp.MustCompile(`(?i)(chrome|chromium|firefox|safari|edg|opr|opera)/\d`)

// automationMarkers appear in otherwise browser-like user agents driven by
// automation frameworks.
var automationMarkers = []string{
	"headless",
	"webdriver",
	"selenium",
	"phantom",
	"puppeteer",
	"playwright",
}

// contentNegotiationHeaders are sent by every mainstream browser. A request
// missing two or more of them is very unlikely to be a person.
var contentNegotiationHeaders = []string{"accept", "accept-language", "accept-encoding"}

// automationHeaders are set explicitly by automation tooling.
var automationHeaders = []string{"x-requested-with", "x-automation", "webdriver"}

// HeuristicDetector is the default BotDetector.
type HeuristicDetector struct{}

// NewHeuristicDetector returns the default user-agent and header based detector.
func NewHeuristicDetector() *HeuristicDetector {
	return &HeuristicDetector{}
}

// Classify returns true for automated clients. An absent user agent counts as
// human: stripped-header privacy clients should not be locked out of links,
// and bots rarely bother sending nothing at all.
func (d *HeuristicDetector) Classify(userAgent string, headers map[string]string) bool {
	norm := normalizeHeaders(headers)

	if userAgent == "" {
		return false
	}

	// Browser signatures take precedence over the generic patterns so that
	// e.g. a real Chrome UA is never tripped up by a substring match.
	if browserSignature.MatchString(userAgent) && !hasAutomationMarker(userAgent) {
		return false
	}

	// A headless/webdriver marker is conclusive on its own, even inside an
	// otherwise browser-like user agent.
	if hasAutomationMarker(userAgent) {
		return true
	}

	for _, pattern := range crawlerPatterns {
		if pattern.MatchString(userAgent) {
			return true
		}
	}

	if missing := missingNegotiationHeaders(norm); missing >= 2 {
		return true
	}
	for _, h := range automationHeaders {
		if _, ok := norm[h]; ok {
			return true
		}
	}

	return false
}

func hasAutomationMarker(userAgent string) bool {
	lower := strings.ToLower(userAgent)
	for _, marker := range automationMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func missingNegotiationHeaders(norm map[string]string) int {
	missing := 0
	for _, h := range contentNegotiationHeaders {
		if _, ok := norm[h]; !ok {
			missing++
		}
	}
	return missing
}

func normalizeHeaders(headers map[string]string) map[string]string {
	norm := make(map[string]string, len(headers))
	for k, v := range headers {
		norm[strings.ToLower(k)] = v
	}
	return norm
}
