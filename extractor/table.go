package extractor

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"camwatch/config"
	"camwatch/models"
)

// Column order of the portal's device-status table. The portal renders
// one row per device; header and layout have been stable for years.
const (
	colSerial = iota
	colBattery
	colSignal
	colLinks
	colQueue
	colSDImages
	colSDFree
	colHWVersion
	colFWVersion
	colCLVersion
	columnCount
)

// parseStatusTable turns the rendered device-status page into raw
// readings. Cell text is kept verbatim; all numeric parsing happens
// later during reconciliation.
func parseStatusTable(data []byte, sel config.TableSelectors) (*models.Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	table := doc.Find(sel.Table).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("device table not found (selector %q)", sel.Table)
	}

	now := time.Now()
	extraction := &models.Extraction{}

	table.Find(sel.Row).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < columnCount {
			return
		}

		cell := func(i int) string {
			return strings.TrimSpace(cells.Eq(i).Text())
		}
		if cell(colSerial) == "" {
			return
		}

		extraction.Readings = append(extraction.Readings, models.RawReading{
			Serial:      cell(colSerial),
			Battery:     cell(colBattery),
			Signal:      cell(colSignal),
			Links:       cell(colLinks),
			Queue:       cell(colQueue),
			SDImages:    cell(colSDImages),
			SDFreeMB:    cell(colSDFree),
			HWVersion:   cell(colHWVersion),
			FWVersion:   cell(colFWVersion),
			CLVersion:   cell(colCLVersion),
			ExtractedAt: now,
		})
	})

	if stamp := strings.TrimSpace(doc.Find(sel.ReportedAt).First().Text()); stamp != "" {
		if t, err := time.Parse(sel.TimeFormat, stamp); err == nil {
			extraction.ReportedAt = &t
		}
	}

	return extraction, nil
}
