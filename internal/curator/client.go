package curator

import (
	"net/http"
	"net/http/cookiejar"
	"time"
)

// userAgent is required on every DAT-o-MATIC request; the site serves a
// degraded (or absent) response to anything it doesn't recognize as a
// browser.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:140.0) Gecko/20100101 Firefox/140.0"

// NewClient builds the shared HTTP client curator fetchers use: a
// generous timeout for the larger archive downloads, and a cookie jar
// so the No-Intro selection-then-download flow carries its session
// across requests.
func NewClient() (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Timeout: 2 * time.Minute,
		Jar:     jar,
	}, nil
}

func newRequest(method, url string) (*http.Request, error) {
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}
