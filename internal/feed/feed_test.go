package feed

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/NeuroWhAI/firemapserver/internal/models"
)

func TestParseFireCSVFiltersByConfidenceAndBounds(t *testing.T) {
	body := strings.Join([]string{
		"latitude,longitude,brightness,c3,c4,acq_date,acq_time,c7,confidence,c9,c10,frp",
		"35.0,128.0,310.2,,,2020-01-02,0135,,80,,,12.5",
		"10.0,120.0,300.0,,,2020-01-02,0135,,90,,,9.0",
		"35.5,128.5,305.0,,,2020-01-02,0135,,50,,,9.0",
	}, "\n")

	records := parseFireCSV(body)
	if len(records) != 1 {
		t.Fatalf("expected 1 record after filtering, got %d: %+v", len(records), records)
	}
	if records[0].Latitude != 35.0 || records[0].Longitude != 128.0 {
		t.Fatalf("unexpected surviving record: %+v", records[0])
	}
}

func TestHighConfidence(t *testing.T) {
	cases := map[string]bool{
		"high": true,
		"HIGH": true,
		"70":   true,
		"100":  true,
		"69":   false,
		"low":  false,
		"":     false,
	}
	for field, want := range cases {
		if got := highConfidence(field); got != want {
			t.Errorf("highConfidence(%q) = %v, want %v", field, got, want)
		}
	}
}

func TestRewriteToHTTPS(t *testing.T) {
	got := rewriteToHTTPS("http://example.com/cam.jpg?http://nested")
	want := "https://example.com/cam.jpg?http://nested"
	if got != want {
		t.Fatalf("rewriteToHTTPS: got %q, want %q", got, want)
	}
}

func TestParseCctvXMLSkipsInvalidEntries(t *testing.T) {
	xmlBody := `<response><data>
		<cctvurl>http://cam1.example.com</cctvurl>
		<coordy>37.5</coordy>
		<coordx>127.0</coordx>
		<cctvname>Gangwon Ridge</cctvname>
	</data><data>
		<cctvurl></cctvurl>
		<coordy>37.5</coordy>
		<coordx>127.0</coordx>
		<cctvname>Missing URL</cctvname>
	</data></response>`

	cctvs, err := parseCctvXML([]byte(xmlBody))
	if err != nil {
		t.Fatalf("parseCctvXML: %v", err)
	}
	if len(cctvs) != 1 {
		t.Fatalf("expected 1 valid cctv, got %d: %+v", len(cctvs), cctvs)
	}
	if !strings.HasPrefix(cctvs[0].URL, "https://") {
		t.Fatalf("expected rewritten https url, got %q", cctvs[0].URL)
	}
}

func TestCctvByNameLooksUpPublishedIndex(t *testing.T) {
	c := NewCctv(nil, "key")
	c.byName["Gangwon Ridge"] = models.CctvData{URL: "https://cam1.example.com", Name: "Gangwon Ridge"}
	if _, ok := c.ByName("Gangwon Ridge"); !ok {
		t.Fatal("expected a hit for a published name")
	}
	if _, ok := c.ByName("nope"); ok {
		t.Fatal("expected a miss for an unpublished name")
	}
}

func TestParseDangerPlacesSkipsHeaderAndBlank(t *testing.T) {
	body := "addr,lat,lon,type,name\n강원도 강릉시,37.8,128.9,1,사천 야영장\n\n"
	places := parseDangerPlaces(body)
	if len(places) != 1 {
		t.Fatalf("expected 1 place, got %d: %+v", len(places), places)
	}
	if places[0].Type != 1 || places[0].Name != "사천 야영장" {
		t.Fatalf("unexpected place: %+v", places[0])
	}
}

func TestLoadDistrictCodes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "district_code.txt")
	if err := os.WriteFile(path, []byte("11,서울특별시\n26,부산광역시\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	codes, err := loadDistrictCodes(path)
	if err != nil {
		t.Fatalf("loadDistrictCodes: %v", err)
	}
	if len(codes) != 2 || codes[0].Code != "11" || codes[1].Name != "부산광역시" {
		t.Fatalf("unexpected codes: %+v", codes)
	}
}

func TestParseForecastRowFindsLevel(t *testing.T) {
	html := `<html><body>전국 현황<table><tr><td>11</td><td>서울</td><td>2.5</td></tr></table></body></html>`
	html = strings.Replace(html, "전국 현황", ">전국<", 1)

	fc, err := parseForecastRow(html, "11")
	if err != nil {
		t.Fatalf("parseForecastRow: %v", err)
	}
	if fc.Code != "11" || fc.Level != 2.5 {
		t.Fatalf("unexpected forecast: %+v", fc)
	}
}

func TestParseFireEventJSONTakesFirstPage(t *testing.T) {
	body := []byte(`[[
		{"statusCd":"01","frfrLat":"37.5","frfrLot":"127.0","frfrSttmnAddr":"a"},
		{"statusCd":"05","frfrLat":"notanumber","frfrLot":"127.0","frfrSttmnAddr":"b"}
	]]`)

	events, err := parseFireEventJSON(body)
	if err != nil {
		t.Fatalf("parseFireEventJSON: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event after filtering, got %d: %+v", len(events), events)
	}
	if events[0].Address != "a" {
		t.Fatalf("unexpected surviving event: %+v", events[0])
	}
}

func TestParseFireEventJSONRejectsEmptyOuterArray(t *testing.T) {
	if _, err := parseFireEventJSON([]byte(`[]`)); err == nil {
		t.Fatal("expected an error for an empty outer array")
	}
}

func TestFireEventSkipsUnparseableCoordinates(t *testing.T) {
	upstream := []upstreamFireEvent{
		{StatusCode: "01", Latitude: "37.5", Longitude: "127.0", Address: "a"},
		{StatusCode: "05", Latitude: "notanumber", Longitude: "127.0", Address: "b"},
		{StatusCode: "05", Latitude: "37", Longitude: "127.0", Address: "c"}, // no decimal point
	}

	body, err := json.Marshal([][]upstreamFireEvent{upstream})
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}

	events, err := parseFireEventJSON(body)
	if err != nil {
		t.Fatalf("parseFireEventJSON: %v", err)
	}
	if kept := len(events); kept != 1 {
		t.Fatalf("expected exactly 1 event to survive coordinate validation, got %d", kept)
	}
}
