package cuesheet

import "testing"

const sampleCue = `REM GENRE "Platform"
REM COMMENT "made with love"
TITLE "Some Game (USA)"
FILE "Some Game (USA).bin" BINARY
  TRACK 01 MODE2/2352
    INDEX 01 00:00:00
  TRACK 02 AUDIO
    PREGAP 00:02:00
    INDEX 01 00:00:00
`

func TestNeutralizeDropsCommentsAndRenamesStem(t *testing.T) {
	got := Neutralize(sampleCue, "Some Game (USA)")
	want := "FILE \"$.bin\" BINARY\n" +
		"  TRACK 01 MODE2/2352\n" +
		"    INDEX 01 00:00:00\n" +
		"  TRACK 02 AUDIO\n" +
		"    PREGAP 00:02:00\n" +
		"    INDEX 01 00:00:00"
	if got != want {
		t.Fatalf("Neutralize() =\n%q\nwant\n%q", got, want)
	}
}

func TestNeutralizeIsStableAcrossRenames(t *testing.T) {
	renamed := `FILE "Totally Different Name.bin" BINARY
  TRACK 01 MODE2/2352
    INDEX 01 00:00:00
  TRACK 02 AUDIO
    PREGAP 00:02:00
    INDEX 01 00:00:00
`
	a := Neutralize(sampleCue, "Some Game (USA)")
	b := Neutralize(renamed, "Totally Different Name")
	if a != b {
		t.Fatalf("neutralized forms differ across a rename:\na=%q\nb=%q", a, b)
	}
}

func TestTrackFilenames(t *testing.T) {
	names := TrackFilenames(sampleCue)
	if len(names) != 1 || names[0] != "Some Game (USA).bin" {
		t.Fatalf("TrackFilenames() = %v", names)
	}
}
