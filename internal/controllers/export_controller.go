package controllers

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/verisite/visit-service/internal/services"
	"github.com/verisite/visit-service/internal/utils"
)

// ExportController renders the attestation event log for auditors, one
// record per event.
type ExportController struct {
	visits services.VisitService
}

func NewExportController(visits services.VisitService) *ExportController {
	return &ExportController{visits: visits}
}

var csvHeader = []string{
	"event_id", "visit_id", "event_type", "vendor_name",
	"latitude", "longitude", "accuracy_meters", "captured_at",
	"photo_ref", "photo_digest", "challenge_id",
}

// -----------------------------------------------------------------------------
// GET /api/v1/visits/export.csv
// -----------------------------------------------------------------------------
func (c *ExportController) ExportCSV(w http.ResponseWriter, r *http.Request) {
	events, err := c.visits.ListAllEvents(r.Context())
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to export events", nil, err,
		)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="visit_events.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write(csvHeader)
	for _, e := range events {
		_ = cw.Write([]string{
			e.ID.String(), e.VisitID.String(), string(e.EventType), e.VendorName,
			e.Latitude, e.Longitude, e.AccuracyMeters, e.CapturedAt,
			e.PhotoRef.String(), e.PhotoDigest, e.ChallengeID.String(),
		})
	}
	cw.Flush()
	// The status line is already out, so a mid-stream write failure can
	// only be logged; the export the auditor received is truncated.
	if err := cw.Error(); err != nil {
		utils.Logger.WithError(err).Error("CSV export truncated mid-stream")
	}
}

// -----------------------------------------------------------------------------
// GET /api/v1/visits/export.geojson
// -----------------------------------------------------------------------------
func (c *ExportController) ExportGeoJSON(w http.ResponseWriter, r *http.Request) {
	events, err := c.visits.ListAllEvents(r.Context())
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to export events", nil, err,
		)
		return
	}

	fc := geojson.NewFeatureCollection()
	for _, e := range events {
		lat, latErr := strconv.ParseFloat(e.Latitude, 64)
		lng, lngErr := strconv.ParseFloat(e.Longitude, 64)
		if latErr != nil || lngErr != nil {
			continue
		}
		f := geojson.NewFeature(orb.Point{lng, lat})
		f.Properties = geojson.Properties{
			"event_id":        e.ID.String(),
			"visit_id":        e.VisitID.String(),
			"event_type":      string(e.EventType),
			"vendor_name":     e.VendorName,
			"accuracy_meters": e.AccuracyMeters,
			"captured_at":     e.CapturedAt,
			"photo_digest":    e.PhotoDigest,
		}
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to encode GeoJSON", nil, err,
		)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
