// Package site enriches stored leads by visiting their business websites:
// loading the page in the shared browser, scrolling it fully so lazy content
// renders, then mining the rendered document for a logo, offered services,
// and pricing signals.
//
// Extraction is best-effort and pure where possible: the document and page
// text are captured once from the browser and all mining happens on parsed
// HTML, which keeps the heuristics unit-testable without a browser.
package site

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Logo strategies in priority order. Case-insensitive attribute matches
// catch Logo/LOGO class and alt spellings.
var logoSelectors = []string{
	"header img",
	"img[class*='logo' i]",
	"img[alt*='logo' i]",
	"img[id*='logo' i]",
	"a.navbar-brand img",
	".logo img",
	"header img:first-of-type",
	"nav img:first-of-type",
	"img[fetchpriority='high']",
}

var priceRe = regexp.MustCompile(`\$\d+(?:,\d{3})*(?:\.\d{2})?`)

const (
	maxPriceMatches  = 10
	priceContextRune = 200
)

// ExtractLogoURL returns the first plausible logo image source, resolved
// against base when relative. Returns "" when no strategy matches.
func ExtractLogoURL(doc *goquery.Document, base *url.URL) string {
	for _, sel := range logoSelectors {
		src, ok := doc.Find(sel).First().Attr("src")
		if !ok || strings.TrimSpace(src) == "" {
			continue
		}
		return resolveURL(base, strings.TrimSpace(src))
	}
	return ""
}

// ExtractServices scans visible page text for known service keywords and
// returns their canonical labels in table order, deduplicated.
func ExtractServices(pageText string) []string {
	text := strings.ToLower(pageText)
	seen := make(map[string]bool)
	var services []string
	for _, sk := range serviceKeywords {
		if seen[sk.label] || !strings.Contains(text, sk.keyword) {
			continue
		}
		seen[sk.label] = true
		services = append(services, sk.label)
	}
	return services
}

// ExtractPricing mines dollar amounts from the page. Each amount is reported
// with up to 200 characters of surrounding context from its nearest enclosing
// element, so "$49" becomes "Express Detail $49". When no amounts exist the
// result degrades to a qualitative signal about how the business prices.
func ExtractPricing(doc *goquery.Document, pageText string) []string {
	prices := uniquePrices(priceRe.FindAllString(pageText, -1))
	if len(prices) > 0 {
		var out []string
		for _, price := range prices {
			out = append(out, priceContext(doc, price))
		}
		return out
	}

	lower := strings.ToLower(pageText)
	for _, k := range []string{"pricing", "packages", "rates", "cost"} {
		if strings.Contains(lower, k) {
			return []string{"Pricing page available - visit website"}
		}
	}
	if strings.Contains(lower, "contact") && strings.Contains(lower, "quote") {
		return []string{"Contact for quote"}
	}
	return []string{"Contact business for estimate"}
}

func uniquePrices(matches []string) []string {
	if len(matches) > maxPriceMatches {
		matches = matches[:maxPriceMatches]
	}
	seen := make(map[string]bool)
	var out []string
	for _, m := range matches {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// priceContext finds the innermost element whose text contains the price and
// returns its parent's text, collapsed and truncated. Falls back to the bare
// price when the document gives no useful context.
func priceContext(doc *goquery.Document, price string) string {
	var best *goquery.Selection
	doc.Find("*").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.Contains(sel.Text(), price) {
			if sel.Children().Length() == 0 {
				best = sel
				return false
			}
			best = sel
		}
		return true
	})
	if best == nil {
		return price
	}
	ctx := best.Parent().Text()
	if strings.TrimSpace(ctx) == "" {
		ctx = best.Text()
	}
	ctx = strings.Join(strings.Fields(ctx), " ")
	if runes := []rune(ctx); len(runes) > priceContextRune {
		ctx = string(runes[:priceContextRune])
	}
	if strings.TrimSpace(ctx) == "" {
		return price
	}
	return strings.TrimSpace(ctx)
}

func resolveURL(base *url.URL, src string) string {
	ref, err := url.Parse(src)
	if err != nil {
		return src
	}
	if base == nil || ref.IsAbs() {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
