package extractor

import (
	"os"
	"testing"
	"time"

	"camwatch/config"
)

var testSelectors = config.TableSelectors{
	Table:      "#device-status",
	Row:        "tbody tr",
	ReportedAt: "#last-report",
	TimeFormat: "2006-01-02 15:04",
}

func TestParseStatusTable(t *testing.T) {
	data, err := os.ReadFile("testdata/status_page.html")
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}

	extraction, err := parseStatusTable(data, testSelectors)
	if err != nil {
		t.Fatalf("parseStatusTable failed: %v", err)
	}

	// Rows with an empty serial or too few cells are skipped
	if len(extraction.Readings) != 2 {
		t.Fatalf("got %d readings, want 2", len(extraction.Readings))
	}

	first := extraction.Readings[0]
	if first.Serial != "CAM-00123" {
		t.Errorf("serial = %q, want CAM-00123", first.Serial)
	}
	if first.Battery != "Good" {
		t.Errorf("battery = %q, want trimmed %q", first.Battery, "Good")
	}
	if first.Signal != "4/5 bars" {
		t.Errorf("signal = %q", first.Signal)
	}
	if first.SDImages != "12,345" {
		t.Errorf("sd images = %q, want verbatim cell text", first.SDImages)
	}
	if first.SDFreeMB != "3500 MB" {
		t.Errorf("sd free = %q", first.SDFreeMB)
	}
	if first.ExtractedAt.IsZero() {
		t.Error("extracted at not set")
	}

	second := extraction.Readings[1]
	if second.Serial != "CAM-00456" || second.Signal != "N/A" || second.Links != "-" {
		t.Errorf("second reading = %+v", second)
	}

	want := time.Date(2026, 8, 30, 6, 15, 0, 0, time.UTC)
	if extraction.ReportedAt == nil || !extraction.ReportedAt.Equal(want) {
		t.Errorf("reported at = %v, want %v", extraction.ReportedAt, want)
	}
}

func TestParseStatusTableMissing(t *testing.T) {
	html := []byte(`<html><body><p>maintenance</p></body></html>`)
	if _, err := parseStatusTable(html, testSelectors); err == nil {
		t.Error("missing table did not error")
	}
}

func TestParseStatusTableNoTimestamp(t *testing.T) {
	html := []byte(`<html><body><table id="device-status"><tbody>
		<tr><td>CAM-1</td><td>Good</td><td>5</td><td>1</td><td>0</td>
		<td>10</td><td>100</td><td>2.1</td><td>8.04</td><td>1.9</td></tr>
	</tbody></table></body></html>`)

	extraction, err := parseStatusTable(html, testSelectors)
	if err != nil {
		t.Fatalf("parseStatusTable failed: %v", err)
	}
	if len(extraction.Readings) != 1 {
		t.Fatalf("got %d readings, want 1", len(extraction.Readings))
	}
	if extraction.ReportedAt != nil {
		t.Errorf("reported at = %v, want nil", extraction.ReportedAt)
	}
}
