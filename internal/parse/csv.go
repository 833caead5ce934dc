package parse

import "strings"

// CSVLines splits raw bare-comma-delimited text (no RFC 4180 quoting,
// matching the upstream FIRMS/AWS feeds) into fields per line, skipping
// the header row.
func CSVLines(body string) [][]string {
	lines := strings.Split(body, "\n")
	if len(lines) == 0 {
		return nil
	}
	lines = lines[1:] // skip header

	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		rows = append(rows, strings.Split(line, ","))
	}
	return rows
}
