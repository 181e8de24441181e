package maps

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/lead-makers/mapleads/internal/browser"
	"github.com/lead-makers/mapleads/internal/store"
)

// cardQueryJS defines __cards(): the result-card selector fallback chain
// with an aria-label length filter that drops decorative anchors sharing the
// same classes. Evaluated fragments prepend this.
const cardQueryJS = `function __cards(){
	var sels = ["a.hfpxzc", "div.Nv2PK", "a[href*='/maps/place/']", "div[role='article']"];
	for (var i = 0; i < sels.length; i++) {
		var els = Array.prototype.slice.call(document.querySelectorAll(sels[i]));
		var valid = els.filter(function(e){
			var l = e.getAttribute("aria-label");
			return l && l.length > 3;
		});
		if (valid.length) return valid;
	}
	return [];
}`

// CountCards returns the number of valid result cards currently in the feed.
func CountCards(s *browser.Session) int {
	js := fmt.Sprintf(`(function(){ %s; return __cards().length; })()`, cardQueryJS)
	var n int
	if err := s.Eval(js, &n); err != nil {
		log.Debug().Err(err).Msg("Card count failed")
		return 0
	}
	return n
}

type cardRect struct {
	OK bool    `json:"ok"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	W  float64 `json:"w"`
	H  float64 `json:"h"`
}

// ClickCard selects the idx-th result card. The preferred path is a trusted
// CDP mouse press/release at the card's center, which survives overlay
// handlers that swallow synthetic clicks; a plain JS click is the fallback.
// Reports whether any click path fired.
func ClickCard(s *browser.Session, idx int) bool {
	adjustJS := fmt.Sprintf(`(function(){
		%s
		var cards = __cards();
		var idx = %d;
		if (idx >= cards.length) return false;
		var card = cards[idx];
		%s
		if (c) {
			var cr = card.getBoundingClientRect(), fr = c.getBoundingClientRect();
			if (cr.top < fr.top || cr.bottom > fr.bottom) {
				c.scrollTop += cr.top - fr.top - fr.height / 2 + cr.height / 2;
			}
		}
		return true;
	})()`, cardQueryJS, idx, feedContainerJS)
	var ok bool
	if err := s.Eval(adjustJS, &ok); err != nil || !ok {
		return false
	}
	time.Sleep(400 * time.Millisecond)

	rectJS := fmt.Sprintf(`(function(){
		%s
		var cards = __cards();
		if (%d >= cards.length) return {ok: false, x: 0, y: 0, w: 0, h: 0};
		var r = cards[%d].getBoundingClientRect();
		return {ok: true, x: r.left + r.width / 2, y: r.top + r.height / 2, w: r.width, h: r.height};
	})()`, cardQueryJS, idx, idx)
	var rect cardRect
	if err := s.Eval(rectJS, &rect); err == nil && rect.OK && rect.W > 0 && rect.H > 0 {
		err = s.Run(0, chromedp.ActionFunc(func(ctx context.Context) error {
			if err := input.DispatchMouseEvent(input.MousePressed, rect.X, rect.Y).
				WithButton(input.Left).
				WithClickCount(1).
				Do(ctx); err != nil {
				return err
			}
			time.Sleep(50 * time.Millisecond)
			return input.DispatchMouseEvent(input.MouseReleased, rect.X, rect.Y).
				WithButton(input.Left).
				WithClickCount(1).
				Do(ctx)
		}))
		if err == nil {
			return true
		}
		log.Debug().Err(err).Int("card", idx+1).Msg("CDP click failed, trying JS click")
	}

	clickJS := fmt.Sprintf(`(function(){
		%s
		var cards = __cards();
		if (%d >= cards.length) return false;
		cards[%d].click();
		return true;
	})()`, cardQueryJS, idx, idx)
	var clicked bool
	if err := s.Eval(clickJS, &clicked); err != nil {
		return false
	}
	return clicked
}

// ConfirmSelection polls the detail panel until it shows a business name
// different from prevName, proving the click actually switched panels.
// Polls every 500ms up to the deadline.
func ConfirmSelection(s *browser.Session, prevName string, deadline time.Duration) bool {
	end := time.Now().Add(deadline)
	for time.Now().Before(end) {
		name := ExtractName(s)
		if name != store.Sentinel && name != prevName {
			return true
		}
		time.Sleep(500 * time.Millisecond)
	}
	return false
}
