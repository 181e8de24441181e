package maps

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lead-makers/mapleads/internal/browser"
)

func newScrollSession(t *testing.T) *browser.Session {
	t.Helper()
	if browser.FindChrome() == "" {
		t.Skip("chrome not available")
	}
	s, err := browser.New(browser.Options{Headless: true})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

// feedPage renders a scrollable result feed that lazily appends batchSize
// cards per scroll event, up to maxCards.
func feedPage(maxCards, batchSize int) string {
	return fmt.Sprintf(`<html><body>
<div role="feed" style="height:200px;overflow-y:scroll">
	<div class="Nv2PK" aria-label="Business 0">seed</div>
</div>
<script>
var feed = document.querySelector("div[role='feed']");
feed.addEventListener('scroll', function() {
	for (var i = 0; i < %d; i++) {
		if (feed.children.length >= %d) return;
		var card = document.createElement('div');
		card.className = 'Nv2PK';
		card.style.height = '80px';
		card.setAttribute('aria-label', 'Business ' + feed.children.length);
		card.textContent = 'card ' + feed.children.length;
		feed.appendChild(card);
	}
});
</script>
</body></html>`, batchSize, maxCards)
}

func TestScrollResultsLoadsLazyCards(t *testing.T) {
	s := newScrollSession(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, feedPage(40, 5))
	}))
	defer ts.Close()
	require.NoError(t, s.Navigate(ts.URL))

	got := ScrollResults(s, 30, 50*time.Millisecond)
	assert.GreaterOrEqual(t, got, 30)
	assert.LessOrEqual(t, got, 40)
}

func TestScrollResultsStopsWhenFeedStalls(t *testing.T) {
	s := newScrollSession(t)

	// Feed never grows past 6 cards; the scroller must converge on its own
	// well before the attempt cap.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, feedPage(6, 1))
	}))
	defer ts.Close()
	require.NoError(t, s.Navigate(ts.URL))

	start := time.Now()
	got := ScrollResults(s, 200, 20*time.Millisecond)
	assert.Equal(t, 6, got)
	assert.Less(t, time.Since(start), 30*time.Second)
}

func TestScrollResultsWithoutFeedContainer(t *testing.T) {
	s := newScrollSession(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><p>no feed here</p></body></html>`)
	}))
	defer ts.Close()
	require.NoError(t, s.Navigate(ts.URL))

	assert.Equal(t, 0, ScrollResults(s, 10, 20*time.Millisecond))
}
