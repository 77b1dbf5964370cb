package fetch

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// MinContentLength is the visible text below which a downloaded page is
// probably a JavaScript shell that needs a browser to render.
const MinContentLength = 500

// NeedsBrowser reports whether html carries too little visible text to be a
// rendered posting.
func NeedsBrowser(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return true
	}
	doc.Find("script, style, noscript").Remove()
	return len(strings.TrimSpace(doc.Find("body").Text())) < MinContentLength
}

// Render loads a page in headless Chrome and returns the rendered HTML.
// Chrome or Chromium must be installed.
func Render(ctx context.Context, rawURL string, timeout time.Duration) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, &Error{URL: rawURL, Message: "invalid URL", Cause: err}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err = chromedp.Run(browserCtx,
		chromedp.Navigate(u.String()),
		chromedp.WaitReady("body"),
		// job boards hydrate the posting after load
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "browser rendering failed", Cause: err}
	}
	return &Page{URL: rawURL, HTML: html, ContentType: "text/html", StatusCode: 200}, nil
}
