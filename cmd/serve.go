package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"droscher.com/SipGargoyle/configs"
	"droscher.com/SipGargoyle/pkg/geocode"
	"droscher.com/SipGargoyle/pkg/integrations/openfoodfacts"
	"droscher.com/SipGargoyle/pkg/repository"
	"droscher.com/SipGargoyle/pkg/server"
	"droscher.com/SipGargoyle/pkg/stats"
)

const timeout = 5 * time.Second

type ServeCmd struct {
	ConfigFile string `default:".SipGargoyle.toml" help:"Path to config file" short:"c"`
}

func (s *ServeCmd) Run(_ *Context) error {
	logConfig := zap.NewProductionConfig()

	logger, _ := logConfig.Build()
	defer logger.Sync() //nolint:errcheck // we don't care about logger sync errors

	conf, err := configs.GetConfig(s.ConfigFile, logger)
	if err != nil {
		logger.Error("error loading config", zap.Error(err))

		return err
	}

	repo, err := repository.Open(conf, logger)
	if err != nil {
		logger.Error("error connecting to database", zap.Error(err))

		return err
	}
	defer repo.Close()

	cache := stats.NewCache(time.Duration(conf.Stats.CacheTTLMinutes) * time.Minute)

	var geocoder server.Geocoder
	if conf.Geocode.Enabled {
		geocoder = geocode.NewClient(conf.Geocode.BaseURL, logger)
	}

	drinks := server.NewDrinkServer(repo, repo, repo, geocoder, &openfoodfacts.Client{}, cache, conf, logger)
	statistics := server.NewStatsServer(repo, repo, cache, conf, logger)

	address := fmt.Sprintf(":%d", conf.Server.Port)

	corsHandler := configureCORS(server.NewRouter(drinks, statistics))
	serverHandler := h2c.NewHandler(corsHandler, &http2.Server{})

	svr := &http.Server{
		Addr:              address,
		ReadHeaderTimeout: timeout,
		Handler:           serverHandler,
	}

	err = svr.ListenAndServe()
	if err != nil {
		logger.Error("failed to start server", zap.Error(err))

		return err
	}

	return nil
}

func configureCORS(handler http.Handler) http.Handler {
	corsOpts := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD", "PATCH"},
		AllowedHeaders: []string{
			"accept",
			"accept-encoding",
			"accept-language",
			"authorization",
			"cache-control",
			"content-encoding",
			"content-length",
			"content-type",
			"date",
			"keep-alive",
			"origin",
			"referer",
			"user-agent",
		},
		MaxAge:             86400, // 24 hours
		OptionsPassthrough: false, // Handle OPTIONS requests in CORS middleware
	})

	return corsOpts.Handler(handler)
}
