// Package logiqx parses the Logiqx-style XML datafile format used by
// both curators: a <header> followed by a sequence of <game> elements,
// each carrying zero or more <category> children and one or more <rom>
// children.
package logiqx

import (
	"bytes"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"strconv"
)

// ParseError reports a malformed datafile: a missing required
// attribute, or one whose value could not be decoded as the expected
// numeric/hex shape. Tag names the owning element ("game" or "rom", or
// "datafile" when the document itself could not be decoded);
// Attr names the offending attribute when the error is attribute-scoped.
type ParseError struct {
	Tag    string
	Attr   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Attr == "" {
		return fmt.Sprintf("logiqx: <%s>: %s", e.Tag, e.Reason)
	}
	return fmt.Sprintf("logiqx: <%s> attribute %q: %s", e.Tag, e.Attr, e.Reason)
}

func missingAttr(tag, attr string) error {
	return &ParseError{Tag: tag, Attr: attr, Reason: "missing required attribute"}
}

func invalidAttr(tag, attr, value, expected string) error {
	return &ParseError{Tag: tag, Attr: attr, Reason: fmt.Sprintf("invalid value %q, expected %s", value, expected)}
}

// Header carries the four free-text fields a datafile's <header>
// element may contain. All may be empty.
type Header struct {
	Name        string
	Description string
	Version     string
	Homepage    string
}

// ROM is one <rom> child of a <game> element, with its hash attributes
// decoded to fixed-length byte arrays.
type ROM struct {
	Name      string
	Status    string
	HasStatus bool
	Size      uint64
	CRC32     uint32
	MD5       [16]byte
	SHA1      [20]byte
	SHA256    [32]byte
	HasSHA256 bool
}

// Game is a parsed <game> element: its name, its <category> children in
// document order, and its <rom> children in document order.
type Game struct {
	Name       string
	Categories []string
	ROMs       []ROM
}

// Datafile is the fully parsed document.
type Datafile struct {
	Header Header
	Games  []Game
}

type xmlDoc struct {
	XMLName xml.Name  `xml:"datafile"`
	Header  xmlHeader `xml:"header"`
	Games   []xmlGame `xml:"game"`
}

type xmlHeader struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	Version     string `xml:"version"`
	Homepage    string `xml:"homepage"`
}

type xmlGame struct {
	Attrs      []xml.Attr `xml:",any,attr"`
	Categories []string   `xml:"category"`
	ROMs       []xmlROM   `xml:"rom"`
}

type xmlROM struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

func attrValue(attrs []xml.Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Parse decodes content as a Logiqx datafile. A <!DOCTYPE> prologue is
// tolerated (encoding/xml never fetches the external subset it might
// name); an entirely malformed document surfaces as *ParseError with
// Tag "datafile".
func Parse(content []byte) (*Datafile, error) {
	var doc xmlDoc
	decoder := xml.NewDecoder(bytes.NewReader(content))
	decoder.Strict = false
	if err := decoder.Decode(&doc); err != nil {
		return &Datafile{}, &ParseError{Tag: "datafile", Reason: err.Error()}
	}

	df := &Datafile{
		Header: Header{
			Name:        doc.Header.Name,
			Description: doc.Header.Description,
			Version:     doc.Header.Version,
			Homepage:    doc.Header.Homepage,
		},
		Games: make([]Game, 0, len(doc.Games)),
	}

	for _, g := range doc.Games {
		name, ok := attrValue(g.Attrs, "name")
		if !ok {
			return nil, missingAttr("game", "name")
		}
		game := Game{Name: name, Categories: append([]string(nil), g.Categories...), ROMs: make([]ROM, 0, len(g.ROMs))}
		for _, r := range g.ROMs {
			rom, err := parseROM(r)
			if err != nil {
				return nil, err
			}
			game.ROMs = append(game.ROMs, rom)
		}
		df.Games = append(df.Games, game)
	}
	return df, nil
}

func parseROM(r xmlROM) (ROM, error) {
	var rom ROM

	name, ok := attrValue(r.Attrs, "name")
	if !ok {
		return rom, missingAttr("rom", "name")
	}
	rom.Name = name

	sizeStr, ok := attrValue(r.Attrs, "size")
	if !ok {
		return rom, missingAttr("rom", "size")
	}
	size, err := strconv.ParseUint(sizeStr, 10, 64)
	if err != nil {
		return rom, invalidAttr("rom", "size", sizeStr, "a decimal integer")
	}
	rom.Size = size

	crcStr, ok := attrValue(r.Attrs, "crc")
	if !ok {
		return rom, missingAttr("rom", "crc")
	}
	var crcBytes [4]byte
	if err := decodeHex(crcBytes[:], crcStr); err != nil {
		return rom, invalidAttr("rom", "crc", crcStr, "32-bit hex")
	}
	rom.CRC32 = uint32(crcBytes[0])<<24 | uint32(crcBytes[1])<<16 | uint32(crcBytes[2])<<8 | uint32(crcBytes[3])

	md5Str, ok := attrValue(r.Attrs, "md5")
	if !ok {
		return rom, missingAttr("rom", "md5")
	}
	if err := decodeHex(rom.MD5[:], md5Str); err != nil {
		return rom, invalidAttr("rom", "md5", md5Str, "128-bit hex")
	}

	sha1Str, ok := attrValue(r.Attrs, "sha1")
	if !ok {
		return rom, missingAttr("rom", "sha1")
	}
	if err := decodeHex(rom.SHA1[:], sha1Str); err != nil {
		return rom, invalidAttr("rom", "sha1", sha1Str, "160-bit hex")
	}

	if sha256Str, ok := attrValue(r.Attrs, "sha256"); ok {
		if err := decodeHex(rom.SHA256[:], sha256Str); err != nil {
			return rom, invalidAttr("rom", "sha256", sha256Str, "256-bit hex")
		}
		rom.HasSHA256 = true
	}

	if statusStr, ok := attrValue(r.Attrs, "status"); ok {
		rom.Status = statusStr
		rom.HasStatus = true
	}

	return rom, nil
}

func decodeHex(dst []byte, src string) error {
	if len(src) != len(dst)*2 {
		return fmt.Errorf("expected %d hex characters, got %d", len(dst)*2, len(src))
	}
	_, err := hex.Decode(dst, []byte(src))
	return err
}
