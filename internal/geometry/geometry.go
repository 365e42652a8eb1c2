// Package geometry catalogs well-known FAT12 floppy/media form factors so
// operation drivers can annotate their diagnostic log output with a
// recognized form-factor name. It never affects the on-disk format or the
// user-visible stdout contract of any operation.
package geometry

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"
)

// KnownGeometry is one row of the embedded form-factor catalog.
type KnownGeometry struct {
	Slug              string `csv:"slug"`
	Name              string `csv:"name"`
	BytesPerSector    uint   `csv:"bytes_per_sector"`
	SectorsPerCluster uint   `csv:"sectors_per_cluster"`
	ReservedSectors   uint   `csv:"reserved_sectors"`
	NumFATs           uint   `csv:"num_fats"`
	RootEntryCount    uint   `csv:"root_entry_count"`
	TotalSectors      uint   `csv:"total_sectors"`
	SectorsPerFAT     uint   `csv:"sectors_per_fat"`
}

//go:embed known_geometries.csv
var knownGeometriesCSV string

var byKey map[string]KnownGeometry

func init() {
	byKey = make(map[string]KnownGeometry)

	rows := []KnownGeometry{}
	if err := gocsv.UnmarshalString(knownGeometriesCSV, &rows); err != nil {
		panic(fmt.Sprintf("geometry: malformed embedded catalog: %s", err))
	}
	for _, row := range rows {
		byKey[geometryKey(row.BytesPerSector, row.SectorsPerCluster, row.ReservedSectors,
			row.NumFATs, row.RootEntryCount, row.TotalSectors, row.SectorsPerFAT)] = row
	}
}

func geometryKey(bps, spc, rsvd, nfats, rde, totalSectors, fatsz uint) string {
	return fmt.Sprintf("%d/%d/%d/%d/%d/%d/%d", bps, spc, rsvd, nfats, rde, totalSectors, fatsz)
}

// Identify returns the human-readable name of a known form factor matching
// the given decoded geometry fields, and true if a match was found.
func Identify(bps, spc, rsvd, nfats, rde, totalSectors, fatsz uint) (string, bool) {
	g, ok := byKey[geometryKey(bps, spc, rsvd, nfats, rde, totalSectors, fatsz)]
	if !ok {
		return "", false
	}
	return strings.TrimSpace(g.Name), true
}
