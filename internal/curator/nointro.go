package curator

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const noIntroSelectionURL = "https://datomatic.no-intro.org/index.php?page=download&s=64&op=select"

var timestampPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`)

// NoIntroFetcher drives the DAT-o-MATIC selection-then-download flow:
// load the selection page, find the console's row, submit the two
// forms it takes to actually produce a ZIP.
type NoIntroFetcher struct {
	client *http.Client
}

func NewNoIntroFetcher(client *http.Client) *NoIntroFetcher {
	return &NoIntroFetcher{client: client}
}

type noIntroListing struct {
	name        string
	link        string
	lastUpdated int64 // unix milliseconds
}

// FetchDatafile looks datafileName up on the selection page and, if
// present, downloads and returns its current .dat along with the
// timestamp DAT-o-MATIC published for it. found is false when no row
// on the selection page matches datafileName.
func (f *NoIntroFetcher) FetchDatafile(ctx context.Context, datafileName string) ([]byte, int64, bool, error) {
	listings, err := f.loadListings(ctx)
	if err != nil {
		return nil, 0, false, err
	}

	var listing *noIntroListing
	for i := range listings {
		if listings[i].name == datafileName {
			listing = &listings[i]
			break
		}
	}
	if listing == nil {
		return nil, 0, false, nil
	}

	zipData, err := f.downloadZip(ctx, listing.link)
	if err != nil {
		return nil, 0, false, err
	}

	datData, err := extractMember(zipData, ".dat")
	if err != nil {
		return nil, 0, false, err
	}
	return datData, listing.lastUpdated, true, nil
}

func (f *NoIntroFetcher) loadListings(ctx context.Context) ([]noIntroListing, error) {
	body, err := f.get(ctx, noIntroSelectionURL)
	if err != nil {
		return nil, err
	}
	doc, err := parseHTML(body)
	if err != nil {
		return nil, archiveErr("failed to parse DAT-o-MATIC selection page", err)
	}

	var listings []noIntroListing
	for _, row := range findAll(doc, isTag("tr")) {
		cells := findAll(row, isTag("td"))
		if len(cells) == 0 {
			continue
		}
		anchor := findNode(cells[0], isTag("a"))
		if anchor == nil {
			continue
		}
		href, ok := nodeAttr(anchor, "href")
		if !ok {
			continue
		}
		name := strings.TrimSpace(textContent(anchor))

		last := cells[len(cells)-1]
		bold := findNode(last, isTag("b"))
		if bold == nil {
			continue
		}
		match := timestampPattern.FindString(strings.TrimSpace(textContent(bold)))
		if match == "" {
			continue
		}
		ts, err := time.Parse("2006-01-02 15:04:05", match)
		if err != nil {
			continue
		}
		listings = append(listings, noIntroListing{name: name, link: href, lastUpdated: ts.UnixMilli()})
	}
	return listings, nil
}

// downloadZip runs the two-step submission: the selection link's page
// carries a form that must be submitted with the "Prepare" button,
// whose response in turn carries a ".standard form" submitted with the
// "Download!!" button to finally produce the ZIP.
func (f *NoIntroFetcher) downloadZip(ctx context.Context, link string) ([]byte, error) {
	prepareBody, contentType, err := f.postPage(ctx, link, "main_form", "Prepare")
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(contentType, "text/html") {
		return nil, networkErr(fmt.Sprintf("unexpected content-type %q preparing No-Intro download", contentType), nil)
	}

	doc, err := parseHTML(prepareBody)
	if err != nil {
		return nil, archiveErr("failed to parse No-Intro preparation page", err)
	}

	return f.postStandardForm(ctx, doc, link)
}

func (f *NoIntroFetcher) postStandardForm(ctx context.Context, doc *html.Node, referer string) ([]byte, error) {
	container := findNode(doc, func(n *html.Node) bool { return hasClass(n, "standard") })
	var form *html.Node
	if container != nil {
		form = findNode(container, isTag("form"))
	}
	if form == nil {
		return nil, archiveErr("no .standard form found on No-Intro preparation page", nil)
	}
	action, _ := nodeAttr(form, "action")
	values := formFields(form)
	if name, value, ok := findSubmitButton(form, "Download!!"); ok {
		values.Set(name, value)
	}

	zipBody, contentType, err := f.post(ctx, resolveAction(referer, action), values)
	if err != nil {
		return nil, err
	}
	if contentType != "application/zip" && !strings.HasPrefix(contentType, "application/octet-stream") {
		return nil, networkErr(fmt.Sprintf("unexpected content-type %q downloading No-Intro datafile", contentType), nil)
	}
	return zipBody, nil
}

func (f *NoIntroFetcher) postPage(ctx context.Context, link, formName, buttonLabel string) ([]byte, string, error) {
	body, err := f.get(ctx, link)
	if err != nil {
		return nil, "", err
	}
	doc, err := parseHTML(body)
	if err != nil {
		return nil, "", archiveErr("failed to parse No-Intro selection row page", err)
	}
	form := findNode(doc, func(n *html.Node) bool {
		name, _ := nodeAttr(n, "name")
		return n.Data == "form" && name == formName
	})
	if form == nil {
		return nil, "", archiveErr(fmt.Sprintf("no form named %q found", formName), nil)
	}
	action, _ := nodeAttr(form, "action")
	values := formFields(form)
	if name, value, ok := findSubmitButton(form, buttonLabel); ok {
		values.Set(name, value)
	}
	return f.post(ctx, resolveAction(link, action), values)
}

func resolveAction(pageURL, action string) string {
	if action == "" {
		return pageURL
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return action
	}
	ref, err := url.Parse(action)
	if err != nil {
		return action
	}
	return base.ResolveReference(ref).String()
}

func (f *NoIntroFetcher) get(ctx context.Context, target string) ([]byte, error) {
	req, err := newRequest(http.MethodGet, target)
	if err != nil {
		return nil, networkErr("failed to build request to DAT-o-MATIC", err)
	}
	resp, err := f.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, networkErr("failed to reach DAT-o-MATIC", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, networkErr(fmt.Sprintf("DAT-o-MATIC returned status %d", resp.StatusCode), nil)
	}
	if contentType := resp.Header.Get("Content-Type"); !strings.HasPrefix(contentType, "text/html") {
		return nil, networkErr(fmt.Sprintf("unexpected content-type %q from DAT-o-MATIC page", contentType), nil)
	}
	return io.ReadAll(resp.Body)
}

func (f *NoIntroFetcher) post(ctx context.Context, target string, values url.Values) ([]byte, string, error) {
	req, err := http.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, "", networkErr("failed to build request to DAT-o-MATIC", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, "", networkErr("failed to reach DAT-o-MATIC", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", networkErr(fmt.Sprintf("DAT-o-MATIC returned status %d", resp.StatusCode), nil)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", networkErr("failed to read response from DAT-o-MATIC", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func extractMember(zipData []byte, suffix string) ([]byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return nil, archiveErr("failed to read No-Intro archive", err)
	}
	for _, entry := range reader.File {
		if !strings.HasSuffix(strings.ToLower(entry.Name), suffix) {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return nil, archiveErr("failed to read No-Intro archive member", err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, archiveErr("failed to read No-Intro archive member", err)
		}
		return data, nil
	}
	return nil, archiveErr(fmt.Sprintf("no %s member found in No-Intro archive", suffix), nil)
}
