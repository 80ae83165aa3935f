package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"superset-embed-gateway/config"
	apiv1 "superset-embed-gateway/controllers/v1"
	"superset-embed-gateway/docs"
	"superset-embed-gateway/fiberlog"
	"superset-embed-gateway/initializers"
	platformsettings "superset-embed-gateway/lib/platform-settings"
	"superset-embed-gateway/middleware"
	apimodels "superset-embed-gateway/models/api"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberRecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const maxBodySize = 64 * 1024

func main() {
	initializers.InitAllServices()

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})
	app.Use(fiberRecover.New())
	app.Use(middleware.RequestID())

	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", config.Conf.App.Port)
	app.Use(swagger.New(swagger.Config{
		Path:     "/swagger",
		FilePath: "./docs/swagger.json",
	}))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	//api
	api := app.Group("/")
	api.Use(fiberlog.New(*initializers.LoggerConfig))
	api.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(allowedOrigins(), ","),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: true,
	}))
	api.Use(middleware.WithBodyLimit(maxBodySize))
	apiv1.InitHealthApiRouters(api, initializers.MetadataProbe)
	apiv1.InitAuthApiRouters(api, config.Conf.Auth)
	apiv1.InitGuestTokenApiRouters(api, config.Conf.Auth)

	// gracefully shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-c
		log.Info("Gracefully shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("Error when try gracefully shutting down")
		}
		log.Info("Gracefully shutting down finished")
	}()

	// run HTTP server
	if err := app.Listen(fmt.Sprintf("%s:%d", config.Conf.App.ListenAddr, config.Conf.App.Port)); err != nil {
		log.Fatal(err)
	}

	wg.Wait()
	log.Info("HTTP server successfully stopped")
}

// allowedOrigins is the frontend origin plus the embedded domains Superset allows.
func allowedOrigins() []string {
	origins := []string{config.Conf.App.FrontendURL}
	for _, domain := range platformsettings.Instance.Settings().AllowedEmbeddedDomains {
		if domain != config.Conf.App.FrontendURL {
			origins = append(origins, domain)
		}
	}
	return origins
}

func errorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	detail := "Internal server error"
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		detail = fiberErr.Message
	} else {
		log.WithError(err).Error("unhandled error")
	}
	return ctx.Status(code).JSON(apimodels.NewError(detail))
}
