package curator

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// RedumpFetcher downloads datfiles and cuesheet archives from
// redump.org. Both endpoints serve a ZIP: the datfile's first .dat
// member is returned, and every .cue member of the cuesheet archive.
type RedumpFetcher struct {
	client *http.Client
}

func NewRedumpFetcher(client *http.Client) *RedumpFetcher {
	return &RedumpFetcher{client: client}
}

// FetchDatafile downloads and unzips the current .dat for slug.
func (f *RedumpFetcher) FetchDatafile(ctx context.Context, slug string) ([]byte, error) {
	url := fmt.Sprintf("http://redump.org/datfile/%s/", slug)
	return f.fetchZipMember(ctx, url, ".dat")
}

// FetchCuesheetsArchive downloads the cuesheet ZIP for slug and returns
// every .cue member keyed by its archive name (the original rom's
// filename, extension swapped for .cue).
func (f *RedumpFetcher) FetchCuesheetsArchive(ctx context.Context, slug string) (map[string][]byte, error) {
	url := fmt.Sprintf("http://redump.org/cues/%s/", slug)
	body, err := f.fetchZip(ctx, url)
	if err != nil {
		return nil, err
	}
	reader, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, archiveErr("failed to read cuesheet archive", err)
	}
	cues := make(map[string][]byte)
	for _, f := range reader.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".cue") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, archiveErr("failed to read cuesheet archive member", err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, archiveErr("failed to read cuesheet archive member", err)
		}
		cues[f.Name] = data
	}
	return cues, nil
}

func (f *RedumpFetcher) fetchZip(ctx context.Context, url string) ([]byte, error) {
	req, err := newRequest(http.MethodGet, url)
	if err != nil {
		return nil, networkErr("failed to build request to redump.org", err)
	}
	resp, err := f.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, networkErr("failed to reach redump.org", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, networkErr(fmt.Sprintf("redump.org returned status %d", resp.StatusCode), nil)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkErr("failed to read response from redump.org", err)
	}
	return body, nil
}

func (f *RedumpFetcher) fetchZipMember(ctx context.Context, url, suffix string) ([]byte, error) {
	body, err := f.fetchZip(ctx, url)
	if err != nil {
		return nil, err
	}
	reader, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, archiveErr("failed to read redump archive", err)
	}
	for _, entry := range reader.File {
		if !strings.HasSuffix(strings.ToLower(entry.Name), suffix) {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return nil, archiveErr("failed to read redump archive member", err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, archiveErr("failed to read redump archive member", err)
		}
		return data, nil
	}
	return nil, archiveErr(fmt.Sprintf("no %s member found in redump archive", suffix), nil)
}
