package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/fswinf/deskdraft/internal/ingest"
	"github.com/fswinf/deskdraft/internal/textproc"
)

// allowedDomains is the whitelist for the URL tool. Any URL whose host
// (after stripping a leading www.) is not listed is rejected before any
// network activity happens.
var allowedDomains = map[string]struct{}{
	"tuwien.at":                {},
	"winf.at":                  {},
	"htu.at":                   {},
	"fsinf.at":                 {},
	"vowi.fsinf.at":            {},
	"informatics.tuwien.ac.at": {},
	"tiss.tuwien.ac.at":        {},
}

const (
	maxHTMLLength = 5000
	maxPDFLength  = 6000

	// tissWindowID is the window id TISS expects in its dsrwid cookie.
	tissWindowID = "2705"
)

// URLSummarizeTool fetches a whitelisted URL and has the chat LLM summarize
// its content, focused on the stated reason for fetching.
type URLSummarizeTool struct {
	chat   Chatter
	http   *http.Client
	logger *slog.Logger
}

// NewURLSummarizeTool creates the URL summarization tool.
func NewURLSummarizeTool(chat Chatter, logger *slog.Logger) *URLSummarizeTool {
	if logger == nil {
		logger = slog.Default()
	}
	return &URLSummarizeTool{
		chat:   chat,
		http:   &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

func (t *URLSummarizeTool) Name() string { return "fetch_and_summarize_url" }

func (t *URLSummarizeTool) Description() string {
	return "Fetch content from a URL and provide a summary of the information. " +
		"Only works with whitelisted domains."
}

func (t *URLSummarizeTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "The URL to fetch content from (must be from a whitelisted domain)",
			},
			"reason": map[string]any{
				"type":        "string",
				"description": "The reason for fetching this URL (helps focus the summary)",
			},
		},
		"required": []string{"url"},
	}
}

type urlArgs struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

func (t *URLSummarizeTool) Invoke(ctx context.Context, args json.RawMessage) string {
	var in urlArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return fmt.Sprintf("Error: invalid arguments: %v", err)
	}
	if in.Reason == "" {
		in.Reason = "General information"
	}

	if !DomainAllowed(in.URL) {
		return fmt.Sprintf("Error: URL domain not allowed. Only the following domains are permitted: %s",
			strings.Join(sortedDomains(), ", "))
	}

	t.logger.Info("fetching url", "url", in.URL, "reason", in.Reason)

	body, contentType, err := t.fetch(ctx, in.URL)
	if err != nil {
		return fmt.Sprintf("Fehler beim Abrufen der URL %s: %v", in.URL, err)
	}

	var text, label string
	if strings.Contains(contentType, "application/pdf") || strings.HasSuffix(strings.ToLower(in.URL), ".pdf") {
		text, err = ingest.ExtractPDFText(body)
		if err != nil {
			return fmt.Sprintf("Fehler beim Verarbeiten des Inhalts von %s: %v", in.URL, err)
		}
		text = truncate(text, maxPDFLength)
		label = "PDF"
	} else {
		text, err = cleanHTML(body)
		if err != nil {
			return fmt.Sprintf("Fehler beim Verarbeiten des Inhalts von %s: %v", in.URL, err)
		}
		text = truncate(text, maxHTMLLength)
		label = "Webseite"
	}

	if strings.TrimSpace(text) == "" {
		return fmt.Sprintf("Error: Could not extract readable content from %s", in.URL)
	}

	summary, err := t.chat.Chat(ctx, summaryPrompt(text, in.Reason))
	if err != nil {
		return fmt.Sprintf("Fehler beim Zusammenfassen des Inhalts von %s: %v", in.URL, err)
	}

	return fmt.Sprintf("URL: %s\nGrund: %s\nInhaltstyp: %s\n\nZusammenfassung:\n%s",
		in.URL, in.Reason, label, summary)
}

// fetch retrieves the URL with browser-like headers. TISS fronts its pages
// with a JavaScript redirect check keyed on a dsrid request token, so for
// TISS hosts a fresh token is injected into both the query string and a
// dsrwid session cookie on every request.
func (t *URLSummarizeTool) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/pdf,*/*;q=0.8")
	req.Header.Set("Accept-Language", "de,en;q=0.9")

	if isTISSHost(req.URL.Host) {
		token := newRequestToken()
		q := req.URL.Query()
		q.Set("dsrid", token)
		req.URL.RawQuery = q.Encode()
		req.AddCookie(&http.Cookie{Name: "dsrwid-" + token, Value: tissWindowID})
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, "", err
	}
	return body, strings.ToLower(resp.Header.Get("Content-Type")), nil
}

// DomainAllowed reports whether the URL's host, with any leading www.
// stripped, is whitelisted.
func DomainAllowed(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	_, ok := allowedDomains[host]
	return ok
}

func isTISSHost(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	return host == "tiss.tuwien.ac.at"
}

// newRequestToken mirrors TISS's client-side token generator:
// '' + Math.floor(999 * Math.random()).
func newRequestToken() string {
	return strconv.Itoa(rand.Intn(999))
}

// cleanHTML strips boilerplate elements and converts the rest to markdown,
// dropping blank lines.
func cleanHTML(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, nav, header, footer, aside").Remove()

	html, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("serialize html: %w", err)
	}

	md, err := textproc.HTMLToMarkdown(html)
	if err != nil {
		return "", err
	}

	var lines []string
	for _, line := range strings.Split(md, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func sortedDomains() []string {
	domains := make([]string, 0, len(allowedDomains))
	for d := range allowedDomains {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}

func summaryPrompt(text, reason string) string {
	return fmt.Sprintf(`Bitte erstelle eine präzise Zusammenfassung des folgenden Inhalts von einer Webseite.

Grund für den Abruf dieser Seite: %s

Konzentriere dich auf Informationen, die für den angegebenen Grund relevant sind.

Inhalt der Webseite:
%s

Erstelle eine strukturierte Zusammenfassung auf Deutsch, die folgendes enthält:
1. Hauptthema/Zweck der Seite
2. Wichtige Informationen bezogen auf: %s
3. Wichtige Details oder Anforderungen, die erwähnt werden
4. Kontaktinformationen oder nächste Schritte, falls vorhanden

Zusammenfassung:`, reason, text, reason)
}
