package main

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"catalog-gateway/internal/catalogmock"
)

// mockcatalog stands in for the ytmusicapi proxy when developing offline.
// Point CATALOG_URL at it.
func main() {
	v := viper.New()
	v.SetDefault("port", "3009")
	v.AutomaticEnv()
	port := v.GetString("port")

	log := logrus.New()

	r := catalogmock.SetupRouter()
	h := middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log, NoColor: true})(r)

	log.WithField("port", port).Info("mock-catalog listening")
	if err := http.ListenAndServe(":"+port, h); err != nil {
		log.WithError(err).Fatal("mock-catalog")
	}
}
