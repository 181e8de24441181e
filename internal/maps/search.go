package maps

import (
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/lead-makers/mapleads/internal/browser"
	"github.com/lead-makers/mapleads/internal/config"
)

var searchBoxSelectors = []string{
	"#ucc-1",
	"input.UGojuc.fontBodyMedium.EmSKud.lpggsf",
	"input#searchboxinput",
	"input[aria-label*='Search']",
}

// SearchCity navigates to the map base view and issues "<query> in <city>".
// The query is typed via script value assignment plus an input event, then
// submitted by form submit with an Enter keystroke as backup. Result arrival
// is waited for softly: a timeout logs a warning and proceeds, since cards
// sometimes render late and the caller re-counts anyway.
func SearchCity(s *browser.Session, cfg *config.Config, city string) error {
	if err := s.Navigate(cfg.BaseURL); err != nil {
		return fmt.Errorf("navigate to map view: %w", err)
	}
	time.Sleep(cfg.SearchDelay)

	sel := waitForSearchBox(s, cfg.SearchWait)
	if sel == "" {
		return fmt.Errorf("search box not found for %s", city)
	}

	query := fmt.Sprintf("%s in %s", cfg.SearchQuery, city)
	setJS := fmt.Sprintf(`(function(){
		var el = document.querySelector(%q);
		if (!el) return false;
		el.focus();
		el.value = "";
		el.value = %q;
		el.dispatchEvent(new Event('input', {bubbles: true}));
		return true;
	})()`, sel, query)
	var set bool
	if err := s.Eval(setJS, &set); err != nil || !set {
		return fmt.Errorf("could not fill search box for %s", city)
	}
	time.Sleep(1500 * time.Millisecond)

	// Submit the form and also send Enter: either alone is unreliable
	// against this UI.
	submitJS := fmt.Sprintf(`(function(){
		var el = document.querySelector(%q);
		if (el && el.form) { el.form.submit(); return true; }
		return false;
	})()`, sel)
	var submitted bool
	err := s.Eval(submitJS, &submitted)
	time.Sleep(time.Second)
	if kerr := s.Run(5*time.Second, chromedp.KeyEvent("\r")); kerr != nil && (err != nil || !submitted) {
		return fmt.Errorf("could not submit search for %s: %w", city, kerr)
	}
	time.Sleep(cfg.SearchDelay)

	if !waitForResults(s, cfg.SearchWait) {
		log.Warn().Str("city", city).Msg("Results did not appear within wait window, continuing anyway")
	}
	return nil
}

func waitForSearchBox(s *browser.Session, wait time.Duration) string {
	end := time.Now().Add(wait)
	for {
		for _, sel := range searchBoxSelectors {
			js := fmt.Sprintf(`(function(){ return !!document.querySelector(%q); })()`, sel)
			var present bool
			if err := s.Eval(js, &present); err == nil && present {
				return sel
			}
		}
		if time.Now().After(end) {
			return ""
		}
		time.Sleep(time.Second)
	}
}

func waitForResults(s *browser.Session, wait time.Duration) bool {
	end := time.Now().Add(wait)
	for time.Now().Before(end) {
		if CountCards(s) > 0 {
			return true
		}
		time.Sleep(time.Second)
	}
	return false
}

// IsSigninPage reports whether the browser was bounced to a sign-in
// interstitial. Checked by URL first, then by the presence of an email field
// on a Google-titled page.
func IsSigninPage(s *browser.Session) bool {
	const js = `(function(){
		var url = (location.href || "").toLowerCase();
		if (url.indexOf("accounts.google.com") >= 0 || url.indexOf("signin") >= 0) return true;
		var email = document.querySelector("input[type='email'][aria-label*='mail']");
		return !!(email && (document.title || "").toLowerCase().indexOf("google") >= 0);
	})()`
	var signin bool
	if err := s.Eval(js, &signin); err != nil {
		return false
	}
	return signin
}
