package parse

import "strings"

// StripTags removes everything between '<' and '>' (inclusive), the
// same naive tag stripper the upstream scraper used on table cell text.
func StripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// FindLandmark returns the byte offset immediately after the first
// occurrence of landmark in html, and whether it was found at all.
// Tables on the upstream pages are located by a literal Korean text
// landmark rather than any structural marker, so callers seek from here.
func FindLandmark(html, landmark string) (int, bool) {
	idx := strings.Index(html, landmark)
	if idx < 0 {
		return 0, false
	}
	return idx + len(landmark), true
}

// Rows walks html starting at offset, splitting it into <tr>...</tr>
// blocks and, within each, the text of every <td>...</td> cell with
// tags stripped. This mirrors the index-arithmetic table walk used by
// the fire-forecast and AWS station table scrapes.
func Rows(html string, offset int) [][]string {
	remaining := html[offset:]
	var rows [][]string

	for {
		trStart := strings.Index(remaining, "<tr")
		if trStart < 0 {
			break
		}
		trOpenEnd := strings.Index(remaining[trStart:], ">")
		if trOpenEnd < 0 {
			break
		}
		trBodyStart := trStart + trOpenEnd + 1

		trEnd := strings.Index(remaining[trBodyStart:], "</tr>")
		if trEnd < 0 {
			break
		}
		trBody := remaining[trBodyStart : trBodyStart+trEnd]

		rows = append(rows, cells(trBody))
		remaining = remaining[trBodyStart+trEnd+len("</tr>"):]
	}
	return rows
}

func cells(trBody string) []string {
	var row []string
	rest := trBody
	for {
		tdStart := strings.Index(rest, "<td")
		if tdStart < 0 {
			break
		}
		tdOpenEnd := strings.Index(rest[tdStart:], ">")
		if tdOpenEnd < 0 {
			break
		}
		tdBodyStart := tdStart + tdOpenEnd + 1

		tdEnd := strings.Index(rest[tdBodyStart:], "</td>")
		if tdEnd < 0 {
			break
		}
		row = append(row, StripTags(rest[tdBodyStart:tdBodyStart+tdEnd]))
		rest = rest[tdBodyStart+tdEnd+len("</td>"):]
	}
	return row
}

// FindBetween returns the substring between the first occurrence of
// prefix and the following occurrence of suffix, used to pull an image
// URI out of a block of inline script/markup around a landmark.
func FindBetween(html, prefix, suffix string) (string, bool) {
	start, ok := FindLandmark(html, prefix)
	if !ok {
		return "", false
	}
	rest := html[start:]
	end := strings.Index(rest, suffix)
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}
