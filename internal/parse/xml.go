package parse

import (
	"encoding/xml"
	"io"
	"strings"
)

// XMLRecords walks an XML event stream, accumulating character data for
// each open element's local name into a record, and calling emit with a
// copy of the accumulated fields every time an element named
// recordEndTag closes. This mirrors the original event-stream walk of
// tracking the current tag name and pushing a record clone on the
// closing tag, reimplemented over the standard decoder instead of a
// streaming XML crate.
func XMLRecords(r io.Reader, recordEndTag string, emit func(fields map[string]string)) error {
	dec := xml.NewDecoder(r)
	fields := map[string]string{}
	var current string

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			current = t.Name.Local
		case xml.CharData:
			if current == "" {
				continue
			}
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			if existing, ok := fields[current]; ok {
				fields[current] = existing + text
			} else {
				fields[current] = text
			}
		case xml.EndElement:
			if t.Name.Local == recordEndTag {
				clone := make(map[string]string, len(fields))
				for k, v := range fields {
					clone[k] = v
				}
				emit(clone)
				fields = map[string]string{}
			}
			current = ""
		}
	}
}
