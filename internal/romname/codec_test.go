package romname

import "testing"

func TestCompress(t *testing.T) {
	tests := []struct {
		rom, game, want string
	}{
		{"Alpha.cue", "Alpha", "$c"},
		{"Alpha.iso", "Alpha", "$i"},
		{"Alpha.bin", "Alpha", "$b"},
		{"Alpha (Track 1).bin", "Alpha", "$T1"},
		{"Alpha (Track 12).bin", "Alpha", "$T12"},
		{"Alpha (Disc 2).cue", "Alpha", "# (Disc 2).cue"},
		{"Unrelated.bin", "Alpha", "Unrelated.bin"},
	}
	for _, tt := range tests {
		got := Compress(tt.rom, tt.game)
		if got != tt.want {
			t.Errorf("Compress(%q, %q) = %q, want %q", tt.rom, tt.game, got, tt.want)
		}
	}
}

func TestDecompress(t *testing.T) {
	tests := []struct {
		name, game, want string
	}{
		{"$c", "Alpha", "Alpha.cue"},
		{"$i", "Alpha", "Alpha.iso"},
		{"$b", "Alpha", "Alpha.bin"},
		{"$T1", "Alpha", "Alpha (Track 1).bin"},
		{"# (Disc 2).cue", "Alpha", "Alpha (Disc 2).cue"},
		{"Unrelated.bin", "Alpha", "Unrelated.bin"},
	}
	for _, tt := range tests {
		got := Decompress(tt.name, tt.game)
		if got != tt.want {
			t.Errorf("Decompress(%q, %q) = %q, want %q", tt.name, tt.game, got, tt.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	gameNames := []string{"Alpha", "Final Fantasy VII", "Some-Game_2"}
	romSuffixes := []string{
		".cue", ".iso", ".bin",
		" (Track 1).bin", " (Track 12).bin",
		" (Disc 2).cue", ".chd",
	}
	for _, game := range gameNames {
		for _, suffix := range romSuffixes {
			rom := game + suffix
			compressed := Compress(rom, game)
			if got := Decompress(compressed, game); got != rom {
				t.Errorf("round-trip failed for rom=%q game=%q: compressed=%q decompressed=%q", rom, game, compressed, got)
			}
		}
	}
}
