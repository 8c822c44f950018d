package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/verisite/visit-service/internal/app"
	"github.com/verisite/visit-service/internal/config"
	"github.com/verisite/visit-service/internal/controllers"
	"github.com/verisite/visit-service/internal/repositories"
	"github.com/verisite/visit-service/internal/routes"
	"github.com/verisite/visit-service/internal/services"
	"github.com/verisite/visit-service/internal/utils"
)

func main() {
	utils.InitLogger(config.AppName)

	// 1) Config
	cfg := config.LoadConfig()

	// 2) Core application (DB pool, migrations)
	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to initialize app")
	}
	defer application.Close()

	// 3) Repositories and services
	challengeRepo := repositories.NewAttestationChallengeRepository(application.DB)
	visitRepo := repositories.NewVisitRepository(application.DB)
	photoRepo := repositories.NewPhotoRepository(application.DB)

	attestationSvc := services.NewAttestationService(challengeRepo, cfg.ChallengeTTL)
	photoSvc := services.NewPhotoService(photoRepo)
	visitSvc := services.NewVisitService(visitRepo, photoRepo, attestationSvc, cfg.MaxAccuracyMeters)

	// 4) Controllers
	healthCtrl := controllers.NewHealthController(application)
	attestationCtrl := controllers.NewAttestationController(attestationSvc, visitSvc)
	visitsCtrl := controllers.NewVisitsController(visitSvc)
	photosCtrl := controllers.NewPhotosController(photoSvc, cfg.MaxPhotoBytes)
	exportCtrl := controllers.NewExportController(visitSvc)

	// 5) Router
	router := mux.NewRouter()
	router.HandleFunc(routes.Health, healthCtrl.HealthCheckHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.AttestationChallenge, attestationCtrl.IssueChallenge).Methods(http.MethodPost)
	router.HandleFunc(routes.AttestationEvents, attestationCtrl.SubmitEvent).Methods(http.MethodPost)
	router.HandleFunc(routes.VisitsExportCSV, exportCtrl.ExportCSV).Methods(http.MethodGet)
	router.HandleFunc(routes.VisitsExportGeoJSON, exportCtrl.ExportGeoJSON).Methods(http.MethodGet)
	router.HandleFunc(routes.Visits, visitsCtrl.ListVisits).Methods(http.MethodGet)
	router.HandleFunc(routes.VisitByID, visitsCtrl.GetVisit).Methods(http.MethodGet)
	router.HandleFunc(routes.Photos, photosCtrl.UploadPhoto).Methods(http.MethodPost)
	router.HandleFunc(routes.PhotoByID, photosCtrl.GetPhoto).Methods(http.MethodGet)

	// 6) CORS
	c := cors.New(cors.Options{
		AllowedOrigins: []string{cfg.AppUrl},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	utils.Logger.Infof("Starting %s on :%s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, c.Handler(router)); err != nil {
		utils.Logger.Fatal("Server error:", err)
	}
}
