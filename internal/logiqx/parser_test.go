package logiqx

import (
	"strings"
	"testing"
)

const sampleDatafile = `<?xml version="1.0"?>
<datafile>
  <header><name>X</name><description>desc</description><version>1.0</version><homepage>h</homepage></header>
  <game name="Alpha">
    <category>Games</category>
    <rom name="Alpha.cue" size="88" crc="00000001" md5="00000000000000000000000000000000" sha1="0000000000000000000000000000000000000000"/>
  </game>
</datafile>`

func TestParseHeaderAndGame(t *testing.T) {
	df, err := Parse([]byte(sampleDatafile))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if df.Header.Name != "X" || df.Header.Version != "1.0" {
		t.Errorf("unexpected header: %+v", df.Header)
	}
	if len(df.Games) != 1 {
		t.Fatalf("expected 1 game, got %d", len(df.Games))
	}
	game := df.Games[0]
	if game.Name != "Alpha" {
		t.Errorf("expected game name Alpha, got %q", game.Name)
	}
	if len(game.Categories) != 1 || game.Categories[0] != "Games" {
		t.Errorf("unexpected categories: %v", game.Categories)
	}
	if len(game.ROMs) != 1 {
		t.Fatalf("expected 1 rom, got %d", len(game.ROMs))
	}
	rom := game.ROMs[0]
	if rom.Name != "Alpha.cue" || rom.Size != 88 || rom.CRC32 != 1 {
		t.Errorf("unexpected rom: %+v", rom)
	}
	if rom.HasStatus || rom.HasSHA256 {
		t.Errorf("expected no status/sha256 present")
	}
}

func TestParseMissingGameName(t *testing.T) {
	input := `<datafile><header><name/><description/><version/><homepage/></header><game><rom name="a" size="1" crc="00000000" md5="00000000000000000000000000000000" sha1="0000000000000000000000000000000000000000"/></game></datafile>`
	_, err := Parse([]byte(input))
	if err == nil {
		t.Fatal("expected error for missing game name")
	}
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Tag != "game" || pe.Attr != "name" {
		t.Errorf("unexpected parse error: %+v", pe)
	}
}

func TestParseMissingROMAttribute(t *testing.T) {
	input := `<datafile><header><name/><description/><version/><homepage/></header><game name="Alpha"><rom name="a" crc="00000000" md5="00000000000000000000000000000000" sha1="0000000000000000000000000000000000000000"/></game></datafile>`
	_, err := Parse([]byte(input))
	if err == nil {
		t.Fatal("expected error for missing rom size attribute")
	}
	pe, ok := err.(*ParseError)
	if !ok || pe.Tag != "rom" || pe.Attr != "size" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseInvalidHexLength(t *testing.T) {
	input := `<datafile><header><name/><description/><version/><homepage/></header><game name="Alpha"><rom name="a" size="1" crc="0001" md5="00000000000000000000000000000000" sha1="0000000000000000000000000000000000000000"/></game></datafile>`
	_, err := Parse([]byte(input))
	if err == nil {
		t.Fatal("expected error for invalid crc length")
	}
	pe, ok := err.(*ParseError)
	if !ok || pe.Tag != "rom" || pe.Attr != "crc" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseOptionalStatusAndSHA256(t *testing.T) {
	sha256Hex := strings.Repeat("00", 32)
	input := `<datafile><header><name/><description/><version/><homepage/></header>
	<game name="Alpha"><rom name="a" size="1" crc="00000000" md5="00000000000000000000000000000000" sha1="0000000000000000000000000000000000000000" sha256="` + sha256Hex + `" status="verified"/></game></datafile>`
	df, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rom := df.Games[0].ROMs[0]
	if !rom.HasStatus || rom.Status != "verified" {
		t.Errorf("expected status verified, got %+v", rom)
	}
	if !rom.HasSHA256 {
		t.Errorf("expected sha256 present")
	}
}
