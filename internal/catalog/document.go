package catalog

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"relocator/internal/relocate"
)

const (
	trackElement     = "TRACK"
	idAttribute      = "TrackID"
	locationAttrName = "Location"
)

// track is one TRACK start tag carrying a Location attribute.
type track struct {
	id       string
	location string
	// valueStart and valueEnd bound the raw Location value in Document.data.
	valueStart int
	valueEnd   int
	quote      byte
	patched    bool
}

// Document is a parsed catalog held in memory.
type Document struct {
	Path string
	Mode os.FileMode

	data   []byte
	tracks []track
	index  map[string]int
}

// Read parses the catalog at path.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, &MalformedError{Path: path, Err: err}
	}
	doc.Path = path
	doc.Mode = mode
	return doc, nil
}

// Parse indexes the TRACK elements of an in-memory catalog.
func Parse(data []byte) (*Document, error) {
	doc := &Document{data: data, index: map[string]int{}}
	dec := xml.NewDecoder(bytes.NewReader(data))
	sawRoot := false
	for {
		start := dec.InputOffset()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		el, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true
		if el.Name.Local != trackElement {
			continue
		}
		end := dec.InputOffset()
		if err := doc.addTrack(el, start, end); err != nil {
			return nil, err
		}
	}
	if !sawRoot {
		return nil, errors.New("no root element")
	}
	return doc, nil
}

func (d *Document) addTrack(el xml.StartElement, start, end int64) error {
	var id, loc string
	hasLocation := false
	for _, attr := range el.Attr {
		switch attr.Name.Local {
		case idAttribute:
			id = attr.Value
		case locationAttrName:
			loc = attr.Value
			hasLocation = true
		}
	}
	// Playlist entries reference tracks by Key and carry no Location.
	if !hasLocation {
		return nil
	}
	valueStart, valueEnd, quote, ok := findAttrValue(d.data[start:end], locationAttrName)
	if !ok {
		return fmt.Errorf("offset %d: %s attribute not found in raw tag", start, locationAttrName)
	}
	if id == "" {
		id = "#" + strconv.Itoa(len(d.tracks))
	}
	if _, dup := d.index[id]; dup {
		id = id + "#" + strconv.Itoa(len(d.tracks))
	}
	d.index[id] = len(d.tracks)
	d.tracks = append(d.tracks, track{
		id:         id,
		location:   loc,
		valueStart: int(start) + valueStart,
		valueEnd:   int(start) + valueEnd,
		quote:      quote,
	})
	return nil
}

// Records returns one record per TRACK with a Location, in document order.
// IDs are TrackID values, made unique when the document repeats or omits one.
func (d *Document) Records() []relocate.Record {
	out := make([]relocate.Record, len(d.tracks))
	for i, t := range d.tracks {
		out[i] = relocate.Record{ID: t.id, Location: t.location}
	}
	return out
}

// Apply sets new locations in memory and returns how many records changed.
// An update naming an unknown record is an error and nothing is applied.
func (d *Document) Apply(updates []relocate.Update) (int, error) {
	for _, u := range updates {
		if _, ok := d.index[u.ID]; !ok {
			return 0, fmt.Errorf("apply update: unknown record %q", u.ID)
		}
	}
	changed := 0
	for _, u := range updates {
		t := &d.tracks[d.index[u.ID]]
		if t.location == u.Location {
			continue
		}
		t.location = u.Location
		t.patched = true
		changed++
	}
	return changed, nil
}

// Bytes renders the document with every applied update.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(len(d.data))
	last := 0
	for _, t := range d.tracks {
		if !t.patched {
			continue
		}
		buf.Write(d.data[last:t.valueStart])
		buf.WriteString(escapeAttr(t.location, t.quote))
		last = t.valueEnd
	}
	buf.Write(d.data[last:])
	return buf.Bytes()
}

// Dirty reports whether any update changed the document.
func (d *Document) Dirty() bool {
	for _, t := range d.tracks {
		if t.patched {
			return true
		}
	}
	return false
}

// findAttrValue scans a raw start tag for attribute name and returns the
// bounds of its value (excluding quotes) and the quote character.
func findAttrValue(tag []byte, name string) (int, int, byte, bool) {
	i := 1 // skip '<'
	for i < len(tag) && !isSpace(tag[i]) && tag[i] != '>' && tag[i] != '/' {
		i++
	}
	for i < len(tag) {
		for i < len(tag) && isSpace(tag[i]) {
			i++
		}
		if i >= len(tag) || tag[i] == '>' || tag[i] == '/' {
			return 0, 0, 0, false
		}
		nameStart := i
		for i < len(tag) && tag[i] != '=' && !isSpace(tag[i]) {
			i++
		}
		attr := string(tag[nameStart:i])
		for i < len(tag) && isSpace(tag[i]) {
			i++
		}
		if i >= len(tag) || tag[i] != '=' {
			return 0, 0, 0, false
		}
		i++
		for i < len(tag) && isSpace(tag[i]) {
			i++
		}
		if i >= len(tag) || (tag[i] != '"' && tag[i] != '\'') {
			return 0, 0, 0, false
		}
		quote := tag[i]
		i++
		valueStart := i
		for i < len(tag) && tag[i] != quote {
			i++
		}
		if i >= len(tag) {
			return 0, 0, 0, false
		}
		if localName(attr) == name {
			return valueStart, i, quote, true
		}
		i++
	}
	return 0, 0, 0, false
}

func localName(attr string) string {
	for i := len(attr) - 1; i >= 0; i-- {
		if attr[i] == ':' {
			return attr[i+1:]
		}
	}
	return attr
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func escapeAttr(value string, quote byte) string {
	var b bytes.Buffer
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c == '&':
			b.WriteString("&amp;")
		case c == '<':
			b.WriteString("&lt;")
		case c == '>':
			b.WriteString("&gt;")
		case c == '"' && quote == '"':
			b.WriteString("&quot;")
		case c == '\'' && quote == '\'':
			b.WriteString("&apos;")
		case c == '\n':
			b.WriteString("&#xA;")
		case c == '\r':
			b.WriteString("&#xD;")
		case c == '\t':
			b.WriteString("&#x9;")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
