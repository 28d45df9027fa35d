package builtin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	htmldom "golang.org/x/net/html"

	"overseer/internal/message"
)

const (
	researcherName = "web_researcher"
	maxPages       = 3
	maxBodyBytes   = 2 << 20
	maxPageText    = 4000
	maxPageLinks   = 25
)

// WebResearcher fetches the URLs named in its instruction and reports
// what each page contains.
type WebResearcher struct {
	client *http.Client
}

func NewWebResearcher() *WebResearcher {
	return &WebResearcher{client: &http.Client{Timeout: 30 * time.Second}}
}

var urlRe = regexp.MustCompile(`https?://[^\s"'<>)\]]+`)

func extractURLs(text string) []string {
	raw := urlRe.FindAllString(text, -1)
	seen := make(map[string]bool, len(raw))
	var out []string
	for _, u := range raw {
		u = strings.TrimRight(u, ".,;")
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

func (w *WebResearcher) Invoke(ctx context.Context, msgs []message.Message) ([]message.Message, error) {
	instruction := instructionFor(researcherName, msgs)
	urls := extractURLs(instruction)
	if len(urls) == 0 {
		return nil, fmt.Errorf("instruction names no URL to research: %q", truncate(instruction, 200))
	}
	if len(urls) > maxPages {
		urls = urls[:maxPages]
	}

	var sb strings.Builder
	var fetched int
	for _, u := range urls {
		report, err := w.research(ctx, u)
		if err != nil {
			sb.WriteString(fmt.Sprintf("## %s\nfetch did not succeed: %v\n\n", u, err))
			continue
		}
		fetched++
		sb.WriteString(report)
		sb.WriteString("\n")
	}
	if fetched == 0 {
		return nil, fmt.Errorf("none of %d page(s) could be fetched", len(urls))
	}
	return []message.Message{message.Assistant(strings.TrimSpace(sb.String()))}, nil
}

func (w *WebResearcher) research(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "overseer-researcher/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	return renderPage(doc, pageURL), nil
}

type pageLink struct {
	Text string
	URL  string
}

// renderPage summarizes one parsed page: title, readable text, links.
func renderPage(doc *goquery.Document, pageURL string) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	text := truncate(visibleText(doc.Selection), maxPageText)

	var links []pageLink
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		links = append(links, pageLink{
			Text: strings.TrimSpace(s.Text()),
			URL:  absolute(pageURL, href),
		})
		return len(links) < maxPageLinks
	})

	var sb strings.Builder
	sb.WriteString("## " + pageURL + "\n")
	if title != "" {
		sb.WriteString("Title: " + title + "\n")
	}
	if text != "" {
		sb.WriteString("Content:\n" + text + "\n")
	}
	if len(links) > 0 {
		sb.WriteString("Links:\n")
		for _, l := range links {
			sb.WriteString(fmt.Sprintf("- %s (%s)\n", l.Text, l.URL))
		}
	}
	return sb.String()
}

// visibleText walks the DOM and collects text nodes, skipping the
// elements a reader never sees.
func visibleText(sel *goquery.Selection) string {
	var parts []string
	var walk func(n *htmldom.Node)
	walk = func(n *htmldom.Node) {
		if n.Type == htmldom.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}
		if n.Type == htmldom.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}

func absolute(base, href string) string {
	u, err := url.Parse(href)
	if err != nil || href == "" {
		return href
	}
	if u.IsAbs() {
		return u.String()
	}
	if base == "" {
		return href
	}
	bu, err := url.Parse(base)
	if err != nil {
		return href
	}
	return bu.ResolveReference(u).String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
