package routes

const (
	// Health
	Health = "/health"

	// Attestation endpoints
	AttestationChallenge = "/api/v1/attestation/challenge"
	AttestationEvents    = "/api/v1/attestation/events"

	// Visit endpoints
	Visits              = "/api/v1/visits"
	VisitByID           = "/api/v1/visits/{id}"
	VisitsExportCSV     = "/api/v1/visits/export.csv"
	VisitsExportGeoJSON = "/api/v1/visits/export.geojson"

	// Photo endpoints
	Photos    = "/api/v1/photos"
	PhotoByID = "/api/v1/photos/{id}"
)
