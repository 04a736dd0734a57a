package services

import (
	"encoding/binary"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"

	"food_routes/internal/models"
)

// BuildRouteGeometry connects the geocoded stops of a route, in sequence
// order, into a LINESTRING and returns its WKB encoding. Stops without
// coordinates are skipped; fewer than two geocoded stops yields nil.
func BuildRouteGeometry(addresses []models.Address) ([]byte, error) {
	coords := make([]geom.Coord, 0, len(addresses))
	for _, addr := range addresses {
		if addr.Latitude == nil || addr.Longitude == nil {
			continue
		}
		// WKB convention: X = longitude, Y = latitude
		coords = append(coords, geom.Coord{*addr.Longitude, *addr.Latitude})
	}
	if len(coords) < 2 {
		return nil, nil
	}

	line := geom.NewLineString(geom.XY).MustSetCoords(coords)
	line.SetSRID(4326)
	return wkb.Marshal(line, binary.LittleEndian)
}

// GeometryToGeoJSON converts stored WKB bytes into a GeoJSON string for API
// responses. Empty input yields an empty string.
func GeometryToGeoJSON(wkbBytes []byte) (string, error) {
	if len(wkbBytes) == 0 {
		return "", nil
	}
	g, err := wkb.Unmarshal(wkbBytes)
	if err != nil {
		return "", err
	}
	b, err := gjson.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
