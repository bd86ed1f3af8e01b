package model

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// SRIDWGS84 is the spatial reference of stored land coordinates.
const SRIDWGS84 = 4326

// GeoResolution is the outcome of resolving a submission's land parcel to
// coordinates.
type GeoResolution struct {
	SubmissionID int64                `json:"submission_id"`
	SurveyNo     string               `json:"survey_no"`
	Latitude     float64              `json:"latitude"`
	Longitude    float64              `json:"longitude"`
	Land         *CanonicalLandRecord `json:"land,omitempty"`
}

// Point returns the resolution as a WGS84 point (x = longitude, y = latitude).
func (g *GeoResolution) Point() *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{g.Longitude, g.Latitude}).SetSRID(SRIDWGS84)
}

// Feature renders the resolution as a GeoJSON feature carrying the survey
// number and hierarchy as properties.
func (g *GeoResolution) Feature() (*geojson.Feature, error) {
	if g == nil {
		return nil, eris.New("model: nil geo resolution")
	}
	props := map[string]interface{}{
		"submission_id": g.SubmissionID,
		"survey_no":     g.SurveyNo,
	}
	if g.Land != nil {
		props["village"] = Deref(g.Land.Village)
		props["hobli"] = Deref(g.Land.Hobli)
		props["taluk"] = Deref(g.Land.Taluk)
		props["district"] = Deref(g.Land.District)
	}
	return &geojson.Feature{
		Geometry:   g.Point(),
		Properties: props,
	}, nil
}
