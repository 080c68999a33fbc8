// Package geo implements reverse geocoding against a small embedded list
// of world cities: given a GPS coordinate, find the nearest known city by
// planar (not great-circle) distance. The original implementation this is
// grounded on made the same simplification — acceptable error at the
// poles and the antimeridian is a known, documented limitation rather than
// a bug, and is recorded as a deliberate tradeoff in DESIGN.md.
package geo

import (
	"compress/gzip"
	"embed"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"
)

//go:embed worldcities.csv.gz
var worldCities embed.FS

// City is one entry in the embedded gazetteer.
type City struct {
	Name      string
	Country   string
	Latitude  float64
	Longitude float64
}

// Geocoder resolves coordinates to the nearest embedded City.
type Geocoder struct {
	once   sync.Once
	cities []City
	err    error
}

// New returns a Geocoder. Parsing of the embedded data is deferred to the
// first call to Nearest.
func New() *Geocoder {
	return &Geocoder{}
}

func (g *Geocoder) load() {
	g.once.Do(func() {
		f, err := worldCities.Open("worldcities.csv.gz")
		if err != nil {
			g.err = fmt.Errorf("geo: open embedded data: %w", err)
			return
		}
		defer f.Close()

		gz, err := gzip.NewReader(f)
		if err != nil {
			g.err = fmt.Errorf("geo: gunzip embedded data: %w", err)
			return
		}
		defer gz.Close()

		r := csv.NewReader(gz)
		header, err := r.Read()
		if err != nil {
			g.err = fmt.Errorf("geo: read header: %w", err)
			return
		}
		_ = header

		for {
			record, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				g.err = fmt.Errorf("geo: read record: %w", err)
				return
			}
			lat, errLat := strconv.ParseFloat(record[2], 64)
			lng, errLng := strconv.ParseFloat(record[3], 64)
			if errLat != nil || errLng != nil {
				continue
			}
			g.cities = append(g.cities, City{
				Name:      record[0],
				Country:   record[1],
				Latitude:  lat,
				Longitude: lng,
			})
		}
	})
}

// Nearest returns the embedded city closest to (lat, lng) by squared
// planar distance. Once the embedded data fails to load, every subsequent
// call returns the same error — there is no retry, matching the
// fail-once-fails-forever behavior of a process-lifetime cache.
func (g *Geocoder) Nearest(lat, lng float64) (City, error) {
	g.load()
	if g.err != nil {
		return City{}, g.err
	}
	if len(g.cities) == 0 {
		return City{}, fmt.Errorf("geo: no cities loaded")
	}

	best := g.cities[0]
	bestDist := squaredDistance(lat, lng, best.Latitude, best.Longitude)
	for _, c := range g.cities[1:] {
		d := squaredDistance(lat, lng, c.Latitude, c.Longitude)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, nil
}

func squaredDistance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := lat1 - lat2
	dLng := lng1 - lng2
	return dLat*dLat + dLng*dLng
}
