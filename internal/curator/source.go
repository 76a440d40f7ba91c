package curator

import (
	"context"
	"net/http"

	"github.com/retronian/ndcat/internal/catalog"
	"github.com/retronian/ndcat/internal/logiqx"
)

// Source adapts RedumpFetcher and NoIntroFetcher into catalog.DatafileSource.
type Source struct {
	redump  *RedumpFetcher
	nointro *NoIntroFetcher
}

// NewSource builds a Source sharing one HTTP client (and its cookie
// jar) across both curators.
func NewSource(client *http.Client) *Source {
	return &Source{
		redump:  NewRedumpFetcher(client),
		nointro: NewNoIntroFetcher(client),
	}
}

func (s *Source) FetchRedump(ctx context.Context, slug string) (*logiqx.Datafile, error) {
	data, err := s.redump.FetchDatafile(ctx, slug)
	if err != nil {
		return nil, err
	}
	return logiqx.Parse(data)
}

// FetchRedumpCuesheets downloads the PSX cuesheet archive for slug.
func (s *Source) FetchRedumpCuesheets(ctx context.Context, slug string) (map[string][]byte, error) {
	return s.redump.FetchCuesheetsArchive(ctx, slug)
}

func (s *Source) FetchNoIntro(ctx context.Context, datafileName string) (*logiqx.Datafile, int64, bool, error) {
	data, remoteUpdated, found, err := s.nointro.FetchDatafile(ctx, datafileName)
	if err != nil || !found {
		return nil, 0, found, err
	}
	parsed, err := logiqx.Parse(data)
	if err != nil {
		return nil, 0, false, err
	}
	return parsed, remoteUpdated, true, nil
}

var _ catalog.DatafileSource = (*Source)(nil)
