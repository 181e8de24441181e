// Package maps drives the map UI for the listing phase: searching a city,
// scrolling the lazy-loaded result feed to convergence, selecting result
// cards, and extracting business fields from the detail panel.
//
// The DOM of the target UI is an untrusted, version-fragile contract. Every
// field read walks an ordered selector fallback chain and degrades to the
// sentinel instead of failing; all text reads go through script evaluation so
// they keep working while the browser window sits off-screen.
package maps

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lead-makers/mapleads/internal/browser"
	"github.com/lead-makers/mapleads/internal/store"
)

// Ordered selector fallback chains per field. First match wins; the lists are
// data so a UI drift fix is a selector append, not a control-flow change.
var (
	nameSelectors = []string{
		"h1.DUwDvf.lfPIob",
		"div.fontHeadlineLarge",
		"div.lP3y9d",
		"h1[class*='DUwDvf']",
	}
	addressSelectors = []string{
		"div.Io6YTe.fontBodyMedium.kR99db.fdkmkc",
		"button[data-item-id*='address'] div.Io6YTe",
	}
	websiteSelectors = []string{
		"a[data-item-id='authority']",
		"a[aria-label*='Website']",
	}
	hoursToggleSelectors = []string{
		"div.OqCZI.fontBodyMedium.VrynGf.WVXvdc",
		"button[aria-label*='Hours']",
		"button[aria-label*='hours']",
	}
)

var (
	nonDigitRe     = regexp.MustCompile(`\D`)
	strictRatingRe = regexp.MustCompile(`^\d+\.\d+$`)
	ratingInTextRe = regexp.MustCompile(`(\d+\.\d+)`)
)

// Details holds all listing fields for one business.
type Details struct {
	Name    string
	Rating  string
	Address string
	Phone   string
	Website string
	Timings string
}

// ExtractDetails reads every listing field from the current detail panel.
// Individual misses degrade to the sentinel, never an error.
func ExtractDetails(s *browser.Session) Details {
	return Details{
		Name:    ExtractName(s),
		Rating:  ExtractRating(s),
		Address: ExtractAddress(s),
		Phone:   ExtractPhone(s),
		Website: ExtractWebsite(s),
		Timings: ExtractTimings(s),
	}
}

// ExtractName returns the business name from the detail panel.
func ExtractName(s *browser.Session) string {
	return textFromSelectors(s, nameSelectors)
}

// ExtractAddress returns the street address from the detail panel.
func ExtractAddress(s *browser.Session) string {
	return textFromSelectors(s, addressSelectors)
}

// ExtractPhone returns the digits-only phone number, or the sentinel when no
// candidate holds at least 7 digits.
func ExtractPhone(s *browser.Session) string {
	const js = `(function(){
		var out = [];
		var btns = document.querySelectorAll("button[aria-label*='Phone:'], button[data-item-id*='phone']");
		for (var i = 0; i < btns.length; i++) {
			var divs = btns[i].querySelectorAll("div.Io6YTe");
			for (var j = 0; j < divs.length; j++) out.push(divs[j].textContent.trim());
		}
		return out;
	})()`

	var candidates []string
	if err := s.Eval(js, &candidates); err != nil {
		return store.Sentinel
	}
	for _, c := range candidates {
		if p := ParsePhone(c); p != "" {
			return p
		}
	}
	return store.Sentinel
}

// ExtractWebsite returns the normalized business website, or the sentinel for
// missing or map-internal links.
func ExtractWebsite(s *browser.Session) string {
	js := fmt.Sprintf(`(function(){
		var sels = %s;
		for (var i = 0; i < sels.length; i++) {
			var el = document.querySelector(sels[i]);
			if (el && el.href) return el.href;
		}
		return "";
	})()`, jsStringArray(websiteSelectors))

	var href string
	if err := s.Eval(js, &href); err != nil || href == "" {
		return store.Sentinel
	}
	return CleanURL(href)
}

// ExtractRating returns the star rating as decimal text. The first line of a
// candidate block must match a strict decimal pattern so unrelated numeric
// text is never picked up.
func ExtractRating(s *browser.Session) string {
	const js = `(function(){
		var out = [];
		var els = document.querySelectorAll("div.F7nice");
		for (var i = 0; i < els.length; i++) out.push(els[i].textContent.trim());
		return out;
	})()`

	var blocks []string
	if err := s.Eval(js, &blocks); err == nil {
		for _, b := range blocks {
			if r := ParseRating(b); r != "" {
				return r
			}
		}
	}

	// Fallback: aria-label of the stars widget.
	const labelJS = `(function(){
		var el = document.querySelector("span[role='img'][aria-label*='stars']");
		return el ? (el.getAttribute("aria-label") || "") : "";
	})()`
	var label string
	if err := s.Eval(labelJS, &label); err == nil {
		if m := ratingInTextRe.FindString(label); m != "" {
			return m
		}
	}
	return store.Sentinel
}

// ExtractTimings returns opening hours as pipe-delimited "Day: Hours"
// entries. The hours table is opened first when it is collapsed.
func ExtractTimings(s *browser.Session) string {
	openJS := fmt.Sprintf(`(function(){
		if (document.querySelector("table.eK4R0e")) return false;
		var sels = %s;
		for (var i = 0; i < sels.length; i++) {
			var el = document.querySelector(sels[i]);
			if (el) { el.click(); return true; }
		}
		return false;
	})()`, jsStringArray(hoursToggleSelectors))

	var clicked bool
	if err := s.Eval(openJS, &clicked); err != nil {
		return store.Sentinel
	}
	if clicked {
		time.Sleep(2 * time.Second)
	}
	time.Sleep(1500 * time.Millisecond)

	const rowsJS = `(function(){
		var table = document.querySelector("table.eK4R0e") ||
			document.querySelector("div[role='region'] table");
		if (!table) return [];
		var rows = table.querySelectorAll("tr.y0skZc");
		if (!rows.length) rows = table.querySelectorAll("tr");
		var out = [];
		for (var i = 0; i < rows.length; i++) {
			var dayEl = rows[i].querySelector("td.ylH6lf div");
			if (!dayEl) continue;
			var day = dayEl.textContent.trim();
			var hrs = "";
			var li = rows[i].querySelector("td.mxowUb li.G8aQO");
			if (li) {
				hrs = li.textContent.trim();
			} else {
				var cell = rows[i].querySelector("td.mxowUb");
				if (cell) hrs = (cell.getAttribute("aria-label") || "").trim();
			}
			if (day && hrs) out.push(day + ": " + hrs);
		}
		return out;
	})()`

	var rows []string
	if err := s.Eval(rowsJS, &rows); err != nil {
		return store.Sentinel
	}
	return JoinTimings(rows)
}

// ParsePhone strips all non-digit characters and requires at least 7 digits.
// Returns "" when the text is not a phone number.
func ParsePhone(text string) string {
	digits := nonDigitRe.ReplaceAllString(text, "")
	if len(digits) >= 7 {
		return digits
	}
	return ""
}

// ParseRating accepts a text block whose first line is a strict decimal
// rating like "4.7". Returns "" otherwise.
func ParseRating(block string) string {
	first := strings.TrimSpace(strings.SplitN(block, "\n", 2)[0])
	if strictRatingRe.MatchString(first) {
		return first
	}
	return ""
}

// CleanURL normalizes an extracted link: scheme upgraded to https, trailing
// slash and comma-joined siblings stripped, map-internal links rejected.
func CleanURL(raw string) string {
	if raw == "" || raw == store.Sentinel {
		return store.Sentinel
	}
	raw = strings.TrimSpace(strings.Split(raw, ",")[0])
	if strings.Contains(raw, "google.com/url") || strings.Contains(raw, "google.com/maps") {
		return store.Sentinel
	}
	if strings.HasPrefix(raw, "http://") {
		raw = "https://" + strings.TrimPrefix(raw, "http://")
	}
	if !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	return strings.TrimRight(raw, "/")
}

// JoinTimings dedups "Day: Hours" rows by day and joins them pipe-delimited.
func JoinTimings(rows []string) string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		day, _, ok := strings.Cut(r, ":")
		if !ok || seen[day] {
			continue
		}
		seen[day] = true
		out = append(out, r)
	}
	if len(out) == 0 {
		return store.Sentinel
	}
	return strings.Join(out, " | ")
}

func textFromSelectors(s *browser.Session, selectors []string) string {
	for _, sel := range selectors {
		js := fmt.Sprintf(`(function(){
			var el = document.querySelector(%q);
			return el ? el.textContent.trim() : "";
		})()`, sel)
		var text string
		if err := s.Eval(js, &text); err != nil {
			continue
		}
		if text != "" && text != store.Sentinel {
			return text
		}
	}
	return store.Sentinel
}

// jsStringArray renders a Go string slice as a JS array literal.
func jsStringArray(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
