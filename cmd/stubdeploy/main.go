// Command stubdeploy serves the stand-in deployment locally so the
// verification suites can be exercised without touching production. Profile
// flags deliberately break individual behaviors to demonstrate detection.
package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/motart/ordernimbus-fresh/internal/stubapp"
)

const (
	defaultListenAddress = ":3000"
	readHeaderTimeout    = 5 * time.Second
)

func main() {
	listenAddress := flag.String("addr", defaultListenAddress, "address to listen on")
	localhostAPI := flag.Bool("localhost-api", false, "serve a localhost apiUrl")
	developmentEnvironment := flag.Bool("development-env", false, "serve a development environment tier")
	placeholderClientID := flag.Bool("placeholder-client-id", false, "serve the undefined placeholder as clientId")
	omitUserPool := flag.Bool("omit-user-pool", false, "omit the user pool id")
	authBeforeConfig := flag.Bool("auth-before-config", false, "attempt authentication before configuration loads")
	userPoolError := flag.Bool("user-pool-error", false, "emit a user pool error to the console")
	flag.Parse()

	logger, loggerErr := zap.NewProduction()
	if loggerErr != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", loggerErr)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	profile := stubapp.Profile{
		LocalhostAPIURL:        *localhostAPI,
		DevelopmentEnvironment: *developmentEnvironment,
		PlaceholderClientID:    *placeholderClientID,
		OmitUserPoolID:         *omitUserPool,
		AuthBeforeConfig:       *authBeforeConfig,
		UserPoolError:          *userPoolError,
	}

	httpServer := &http.Server{
		Addr:              *listenAddress,
		Handler:           stubapp.NewRouter(logger, profile),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	logger.Info("listening", zap.String("addr", *listenAddress))
	if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		logger.Fatal("server", zap.Error(serveErr))
	}
}
