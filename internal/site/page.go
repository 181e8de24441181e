package site

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/lead-makers/mapleads/internal/browser"
)

const (
	loadRetries      = 3
	fullScrollRounds = 12
	minPageSourceLen = 1000
)

// LoadPage navigates to url with up to three attempts, accepting the page
// once the rendered source is non-trivially sized. Websites of small
// businesses time out and half-load constantly; retrying the plain
// navigation is usually enough.
func LoadPage(s *browser.Session, url string) error {
	var lastErr error
	for attempt := 1; attempt <= loadRetries; attempt++ {
		if err := s.Navigate(url); err != nil {
			lastErr = err
			log.Warn().Err(err).Str("url", url).Int("attempt", attempt).Msg("Page load failed")
			time.Sleep(2 * time.Second)
			continue
		}
		time.Sleep(2 * time.Second)

		var size int
		if err := s.Eval(`document.documentElement.outerHTML.length`, &size); err == nil && size > minPageSourceLen {
			return nil
		}
		lastErr = fmt.Errorf("page source too small")
		time.Sleep(2 * time.Second)
	}
	return fmt.Errorf("load %s: %w", url, lastErr)
}

// ScrollFully walks the page to the bottom in viewport-sized steps so
// lazy-loaded sections render, stopping early once the document height
// stops growing.
func ScrollFully(s *browser.Session, scrollDelay time.Duration) {
	var lastHeight int
	if err := s.Eval(`document.body.scrollHeight`, &lastHeight); err != nil {
		log.Warn().Err(err).Msg("Could not read page height")
		return
	}
	_ = s.Eval(`window.scrollTo(0, 0)`, nil)
	time.Sleep(500 * time.Millisecond)

	for i := 0; i < fullScrollRounds; i++ {
		_ = s.Eval(`window.scrollBy(0, window.innerHeight * 0.8)`, nil)
		time.Sleep(scrollDelay)

		var height int
		if err := s.Eval(`document.body.scrollHeight`, &height); err != nil {
			break
		}
		if height == lastHeight {
			break
		}
		lastHeight = height
	}

	_ = s.Eval(`window.scrollTo(0, document.body.scrollHeight)`, nil)
	time.Sleep(time.Second)
}

// Snapshot captures the rendered document and its visible text in one pass.
// The parsed document feeds the structural extractors; the text feeds the
// keyword scans.
func Snapshot(s *browser.Session) (*goquery.Document, string, error) {
	var rendered string
	if err := s.Eval(`document.documentElement.outerHTML`, &rendered); err != nil {
		return nil, "", fmt.Errorf("capture page source: %w", err)
	}
	var text string
	if err := s.Eval(`document.body.innerText || ""`, &text); err != nil {
		return nil, "", fmt.Errorf("capture page text: %w", err)
	}

	root, err := html.Parse(strings.NewReader(rendered))
	if err != nil {
		return nil, "", fmt.Errorf("parse page source: %w", err)
	}
	return goquery.NewDocumentFromNode(root), text, nil
}
