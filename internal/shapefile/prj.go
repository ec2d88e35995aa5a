package shapefile

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	epsgAuthority = regexp.MustCompile(`AUTHORITY\[\s*"EPSG"\s*,\s*"?(\d+)"?\s*\]`)
	crsName       = regexp.MustCompile(`^\s*(?:GEOGCS|PROJCS|GEOGCRS|PROJCRS)\[\s*"([^"]+)"`)
)

// readCRS sniffs the .prj sibling of a .shp. The last EPSG authority in the
// WKT names the CRS itself (earlier ones belong to the datum and axes).
func readCRS(shpPath string) string {
	base := strings.TrimSuffix(shpPath, filepath.Ext(shpPath))
	for _, candidate := range []string{base + ".prj", base + ".PRJ"} {
		data, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		return ParseCRS(string(data))
	}
	return "unknown"
}

// ParseCRS extracts a displayable CRS identifier from projection WKT.
func ParseCRS(wkt string) string {
	wkt = strings.TrimSpace(wkt)
	if wkt == "" {
		return "unknown"
	}
	if matches := epsgAuthority.FindAllStringSubmatch(wkt, -1); len(matches) > 0 {
		return "EPSG:" + matches[len(matches)-1][1]
	}
	if m := crsName.FindStringSubmatch(wkt); m != nil {
		return m[1]
	}
	return "unknown"
}
