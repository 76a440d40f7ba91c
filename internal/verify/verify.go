// Package verify implements the Rom Verifier: given a dump file on
// disk, decide whether its content matches something the catalog
// already knows about.
package verify

import (
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/retronian/ndcat/internal/chdman"
	"github.com/retronian/ndcat/internal/cuesheet"
)

// Status is the outcome of verifying one file.
type Status int

const (
	StatusVerified Status = iota
	StatusUnverified
	StatusBroken
)

func (s Status) String() string {
	switch s {
	case StatusVerified:
		return "verified"
	case StatusBroken:
		return "broken"
	default:
		return "unverified"
	}
}

// ROMIndex is the catalog surface the verifier needs: a sha1 lookup
// over every known ROM.
type ROMIndex interface {
	LookupROMBySHA1(ctx context.Context, sha1 [20]byte) (found bool, err error)
}

// Verifier dispatches verification by file extension: .cue dumps
// resolve through the Cuesheet subsystem, .chd dumps are extracted with
// chdman first, .bin and .iso dumps are hashed directly, and any other
// extension is reported unverified without being read.
type Verifier struct {
	roms      ROMIndex
	cuesheets *cuesheet.Store
	chdmanBin string
}

func New(roms ROMIndex, cuesheets *cuesheet.Store, chdmanBin string) *Verifier {
	return &Verifier{roms: roms, cuesheets: cuesheets, chdmanBin: chdmanBin}
}

// Verify inspects path and reports its verification status.
func (v *Verifier) Verify(ctx context.Context, path string) (Status, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return v.verifyCue(ctx, path)
	case ".chd":
		return v.verifyCHD(ctx, path)
	case ".bin", ".iso":
		return v.verifyHashedFile(ctx, path)
	default:
		return StatusUnverified, nil
	}
}

func (v *Verifier) verifyCue(ctx context.Context, path string) (Status, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return StatusBroken, fmt.Errorf("reading cuesheet: %w", err)
	}
	content := string(raw)

	dir := filepath.Dir(path)
	for _, name := range cuesheet.TrackFilenames(content) {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return StatusBroken, nil
		}
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	neutralized := cuesheet.Neutralize(content, stem)

	sha1sum, found, err := v.cuesheets.FindSHA1ByContent(ctx, neutralized)
	if err != nil {
		return StatusUnverified, err
	}
	if !found {
		return StatusUnverified, nil
	}
	return v.lookupSHA1(ctx, sha1sum)
}

func (v *Verifier) verifyCHD(ctx context.Context, path string) (Status, error) {
	tmpDir, err := os.MkdirTemp("", "ndcat-chd-*")
	if err != nil {
		return StatusUnverified, err
	}
	defer os.RemoveAll(tmpDir)

	output := filepath.Join(tmpDir, "track.bin")
	if err := chdman.ExtractCD(ctx, v.chdmanBin, path, output, true); err != nil {
		return StatusBroken, nil
	}
	return v.verifyHashedFile(ctx, output)
}

func (v *Verifier) verifyHashedFile(ctx context.Context, path string) (Status, error) {
	f, err := os.Open(path)
	if err != nil {
		return StatusBroken, fmt.Errorf("opening dump: %w", err)
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return StatusBroken, fmt.Errorf("hashing dump: %w", err)
	}
	var sum [20]byte
	copy(sum[:], h.Sum(nil))
	return v.lookupSHA1(ctx, sum)
}

func (v *Verifier) lookupSHA1(ctx context.Context, sha1sum [20]byte) (Status, error) {
	found, err := v.roms.LookupROMBySHA1(ctx, sha1sum)
	if err != nil {
		return StatusUnverified, err
	}
	if found {
		return StatusVerified, nil
	}
	return StatusUnverified, nil
}
