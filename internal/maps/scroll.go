package maps

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lead-makers/mapleads/internal/browser"
)

const (
	maxScrollAttempts = 300
	maxNoChangeStreak = 6
	nudgeOffsetPx     = 800
)

// feedContainerJS resolves the scrollable result-feed container with the
// usual fallback chain; evaluated fragments prepend this.
const feedContainerJS = `var c = document.querySelector("div[role='feed']") ||
	document.querySelector("div.m6QErb.DxyBCb.kA9KIf.dS8AEf") ||
	document.querySelector("div.m6QErb");`

// ScrollResults scrolls the result feed until targetCount cards are loaded,
// the feed reports end-of-results, the count stalls, or the attempt cap is
// hit. Loading is cooperative: each push sets scrollTop to the bottom and
// then dispatches a synthetic scroll event so lazy-load observers fire even
// with the window off-screen. A stall triggers one upward nudge before the
// streak gives up.
func ScrollResults(s *browser.Session, targetCount int, delay time.Duration) int {
	var present bool
	if err := s.Eval(fmt.Sprintf(`(function(){ %s return !!c; })()`, feedContainerJS), &present); err != nil || !present {
		log.Warn().Msg("Result feed container not found, skipping scroll")
		return CountCards(s)
	}

	count := CountCards(s)
	noChange := 0

	for attempt := 0; attempt < maxScrollAttempts; attempt++ {
		if count >= targetCount {
			log.Debug().Int("cards", count).Msg("Target card count reached")
			break
		}

		scrollFeed(s, fmt.Sprintf(`(function(){ %s if (c) c.scrollTop = c.scrollHeight; })()`, feedContainerJS))
		time.Sleep(delay)
		scrollFeed(s, fmt.Sprintf(`(function(){ %s if (c) c.dispatchEvent(new Event('scroll', {bubbles: true})); })()`, feedContainerJS))
		time.Sleep(300 * time.Millisecond)

		newCount := CountCards(s)
		if attempt%10 == 0 {
			log.Debug().Int("attempt", attempt).Int("cards", newCount).Msg("Scrolling result feed")
		}

		if endOfResults(s) {
			log.Debug().Int("cards", newCount).Msg("Feed reports end of results")
			count = newCount
			break
		}

		if newCount > count {
			noChange = 0
			count = newCount
			continue
		}

		noChange++
		if noChange < maxNoChangeStreak {
			continue
		}

		// Stalled. One upward nudge can unstick a wedged virtual list; if
		// that also yields nothing the count has converged.
		scrollFeed(s, fmt.Sprintf(`(function(){ %s if (c) c.scrollTop = Math.max(0, c.scrollTop - %d); })()`, feedContainerJS, nudgeOffsetPx))
		time.Sleep(time.Second)
		scrollFeed(s, fmt.Sprintf(`(function(){ %s if (c) c.scrollTop = c.scrollHeight; })()`, feedContainerJS))
		time.Sleep(2 * delay)

		nudgedCount := CountCards(s)
		if nudgedCount <= count {
			log.Debug().Int("cards", nudgedCount).Msg("No new cards after nudge, stopping")
			count = nudgedCount
			break
		}
		noChange = 0
		count = nudgedCount
	}

	return count
}

func scrollFeed(s *browser.Session, js string) {
	if err := s.Eval(js, nil); err != nil {
		log.Debug().Err(err).Msg("Scroll script failed")
	}
}

func endOfResults(s *browser.Session) bool {
	const js = `(function(){
		var t = (document.body.innerText || "").toLowerCase();
		return t.indexOf("you've reached the end of the list") >= 0 ||
			t.indexOf("reached the end") >= 0 ||
			t.indexOf("no more results") >= 0;
	})()`
	var done bool
	if err := s.Eval(js, &done); err != nil {
		return false
	}
	return done
}
