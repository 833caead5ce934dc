package parse

import (
	"strings"
	"testing"
)

func TestCSVLinesSkipsHeader(t *testing.T) {
	body := "a,b,c\n1,2,3\n4,5,6\n"
	rows := CSVLines(body)
	if len(rows) != 2 {
		t.Fatalf("expected 2 data rows, got %d", len(rows))
	}
	if rows[0][0] != "1" || rows[1][2] != "6" {
		t.Errorf("unexpected row contents: %v", rows)
	}
}

func TestCSVLinesSkipsBlank(t *testing.T) {
	body := "h\n1,2\n\n3,4\n"
	rows := CSVLines(body)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows skipping blank line, got %d", len(rows))
	}
}

func TestStripTags(t *testing.T) {
	got := StripTags("<b>hello</b> <i>world</i>")
	if got != "hello world" {
		t.Errorf("expected %q, got %q", "hello world", got)
	}
}

func TestFindLandmark(t *testing.T) {
	html := "prefix MARKER suffix"
	idx, ok := FindLandmark(html, "MARKER")
	if !ok {
		t.Fatal("expected landmark found")
	}
	if html[idx:] != " suffix" {
		t.Errorf("unexpected remainder: %q", html[idx:])
	}

	if _, ok := FindLandmark(html, "NOPE"); ok {
		t.Error("expected landmark not found")
	}
}

func TestRows(t *testing.T) {
	html := `<table><tr><td>A</td><td>1</td></tr><tr><td>B</td><td>2</td></tr></table>`
	rows := Rows(html, 0)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(rows), rows)
	}
	if rows[0][0] != "A" || rows[0][1] != "1" {
		t.Errorf("unexpected first row: %v", rows[0])
	}
	if rows[1][0] != "B" || rows[1][1] != "2" {
		t.Errorf("unexpected second row: %v", rows[1])
	}
}

func TestFindBetween(t *testing.T) {
	html := `before START/images/pic.png"END after`
	got, ok := FindBetween(html, "START", `"END`)
	if !ok {
		t.Fatal("expected match")
	}
	if got != "/images/pic.png" {
		t.Errorf("unexpected extraction: %q", got)
	}
}

func TestXMLRecords(t *testing.T) {
	doc := `<data><url>http://a</url><lat>37.1</lat></data><data><url>http://b</url><lat>38.2</lat></data>`
	var urls []string
	err := XMLRecords(strings.NewReader(doc), "data", func(fields map[string]string) {
		urls = append(urls, fields["url"])
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(urls) != 2 || urls[0] != "http://a" || urls[1] != "http://b" {
		t.Errorf("unexpected records: %v", urls)
	}
}
