// Package export writes the POI set to spreadsheet formats for offline
// trip planning.
package export

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/trailbeacon/sheltermap/internal/poi"
)

var header = []string{
	"id", "type", "name", "latitude", "longitude", "altitude",
	"exposure", "signal", "water", "roof", "electricity", "fireplace",
	"description",
}

func toRow(p poi.POI) []string {
	return []string{
		p.ID,
		string(p.Type),
		p.Name,
		strconv.FormatFloat(p.Latitude, 'f', 6, 64),
		strconv.FormatFloat(p.Longitude, 'f', 6, 64),
		strconv.Itoa(p.Altitude),
		string(p.Exposure),
		string(p.Signal),
		strconv.FormatBool(p.Water),
		strconv.FormatBool(p.Roof),
		strconv.FormatBool(p.Electricity),
		strconv.FormatBool(p.Fireplace),
		p.Description,
	}
}

// WriteXLSX writes the POIs to a single-sheet workbook at path.
func WriteXLSX(path string, pois []poi.POI) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("POIs")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	row := sheet.AddRow()
	for _, h := range header {
		row.AddCell().SetString(h)
	}
	for _, p := range pois {
		row := sheet.AddRow()
		for _, v := range toRow(p) {
			row.AddCell().SetString(v)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

// WriteCSV writes the POIs as CSV at path.
func WriteCSV(path string, pois []poi.POI) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, p := range pois {
		if err := w.Write(toRow(p)); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "export: flush")
	}
	return nil
}
