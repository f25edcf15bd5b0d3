package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // by design
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mpapenbr/lapracer/log"
	"github.com/mpapenbr/lapracer/pkg/config"
	"github.com/mpapenbr/lapracer/pkg/endpoints/play"
	"github.com/mpapenbr/lapracer/pkg/notify"
	"github.com/mpapenbr/lapracer/pkg/service"
	"github.com/mpapenbr/lapracer/pkg/track"
	"github.com/mpapenbr/lapracer/pkg/utils"
	"github.com/mpapenbr/lapracer/pkg/utils/certs"
)

//nolint:funlen // by design
func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "starts the race server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&config.Addr,
		"addr",
		"a",
		"localhost:8080",
		"http/websocket listen address")
	cmd.Flags().StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	cmd.Flags().StringVar(&config.LogFormat,
		"log-format",
		"json",
		"controls the log output format")
	cmd.Flags().StringVar(&config.LogFilter,
		"log-filter",
		"",
		"zapfilter rules, e.g. '*:* -debug:race.bcst'")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data (use 'stdout' for console output)")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	cmd.Flags().StringVar(&config.DefaultTrack,
		"default-track",
		track.Circle,
		"track used when the client does not request one")
	cmd.Flags().StringVar(&config.TrackFile,
		"track-file",
		"",
		"YAML file with additional tracks, reloaded on change")
	cmd.Flags().IntVar(&config.FrameRate,
		"frame-rate",
		service.DefaultFrameRate,
		"simulation frames per second")
	cmd.Flags().StringVar(&config.BlockID,
		"block-id",
		"",
		"block id reported in completion records")
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		"",
		"NATS server receiving completion records (empty: log only)")
	cmd.Flags().StringVar(&config.NatsSubject,
		"nats-subject",
		notify.DefaultSubject,
		"subject prefix for completion records")
	cmd.Flags().StringVar(&config.TLSCertFile,
		"tls-cert",
		"",
		"certificate file, enables https/wss")
	cmd.Flags().StringVar(&config.TLSKeyFile,
		"tls-key",
		"",
		"key file for --tls-cert")
	return cmd
}

//nolint:funlen,cyclop // by design
func startServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, err := config.SetupLogger()
	if err != nil {
		return err
	}
	log.Debug("Config:",
		log.String("addr", config.Addr),
		log.String("defaultTrack", config.DefaultTrack),
		log.String("trackFile", config.TrackFile),
		log.Int("frameRate", config.FrameRate),
		log.String("natsUrl", config.NatsURL),
	)

	if config.ProfilingPort > 0 {
		log.Info("Starting profiling server on port", log.Int("port", config.ProfilingPort))
		go func() {
			//nolint:gosec // by design
			err := http.ListenAndServe(
				fmt.Sprintf("localhost:%d", config.ProfilingPort),
				nil)
			if err != nil {
				log.Error("Profiling server stopped", log.ErrorField(err))
			}
		}()
	}

	var telemetry *config.Telemetry
	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		if telemetry, err = config.SetupTelemetry(ctx); err != nil {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			log.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	waitForRequiredServices(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	catalog := track.NewCatalog(track.WithLogger(logger.Named("track")))
	if config.TrackFile != "" {
		if err := catalog.LoadFile(config.TrackFile); err != nil {
			log.Error("could not load track file", log.ErrorField(err))
			return err
		}
		if err := catalog.Watch(ctx, config.TrackFile); err != nil {
			log.Warn("track file is not watched", log.ErrorField(err))
		}
	}
	if _, err := catalog.Get(config.DefaultTrack); err != nil {
		return err
	}

	notifier, closeNotifier, err := setupNotifier(logger)
	if err != nil {
		log.Error("could not setup notifier", log.ErrorField(err))
		return err
	}
	defer closeNotifier()

	races := service.NewRaceService(
		service.WithCatalog(catalog),
		service.WithNotifier(notifier),
		service.WithFrameRate(config.FrameRate),
		service.WithBlockID(config.BlockID),
		service.WithLogger(logger.Named("race")),
	)
	mux := http.NewServeMux()
	play.NewHandler(races,
		play.WithDefaultTrack(config.DefaultTrack),
		play.WithLogger(logger.Named("play")),
	).Register(mux)

	//nolint:gosec // by design
	server := &http.Server{
		Addr:    config.Addr,
		Handler: h2c.NewHandler(newCORS().Handler(mux), &http2.Server{}),
	}
	listen := server.ListenAndServe
	if config.TLSCertFile != "" {
		reloader, err := certs.NewReloader(config.TLSCertFile, config.TLSKeyFile,
			certs.WithLogger(logger.Named("certs")))
		if err != nil {
			log.Error("could not load TLS key pair", log.ErrorField(err))
			return err
		}
		if err := reloader.Watch(ctx); err != nil {
			log.Warn("cert files are not watched", log.ErrorField(err))
		}
		server.TLSConfig = reloader.TLSConfig()
		listen = func() error { return server.ListenAndServeTLS("", "") }
	}
	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting server",
			log.String("addr", config.Addr),
			log.Bool("tls", server.TLSConfig != nil))
		if err := listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()
	setupGoRoutinesDump()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case v := <-sigChan:
		log.Debug("Got signal ", log.Any("signal", v))
	case err := <-serverErr:
		if err != nil {
			log.Error("server could not be started", log.ErrorField(err))
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", log.ErrorField(err))
	}
	races.StopAll()
	if telemetry != nil {
		telemetry.Shutdown()
	}
	log.Info("Server terminated")
	return nil
}

// setupNotifier always logs completion records. With a NATS url they are
// published as well.
//
//nolint:whitespace // can't make both editor and linter happy
func setupNotifier(logger *log.Logger) (
	notifier notify.Notifier, closer func(), err error,
) {
	logNotifier := notify.NewLogNotifier(logger.Named("completion"))
	if config.NatsURL == "" {
		return logNotifier, func() {}, nil
	}
	nc, err := nats.Connect(config.NatsURL, nats.Name("lapracer"))
	if err != nil {
		return nil, nil, err
	}
	natsNotifier := notify.NewNatsNotifier(nc,
		notify.WithSubject(config.NatsSubject),
		notify.WithLogger(logger.Named("notify.nats")),
	)
	log.Info("Publishing completion records", log.String("subject", config.NatsSubject))
	return notify.Multi{logNotifier, natsNotifier},
		func() {
			if err := nc.Drain(); err != nil {
				log.Warn("nats drain", log.ErrorField(err))
			}
		}, nil
}

func setupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}

func waitForRequiredServices(ctx context.Context) {
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}

	wg := sync.WaitGroup{}
	checkTCP := func(addr string) {
		defer wg.Done()
		if err := utils.WaitForTCP(ctx, addr, timeout); err != nil {
			log.Fatal("required services not ready", log.ErrorField(err))
		}
	}

	if natsAddr := utils.ExtractFromNatsURL(config.NatsURL); natsAddr != "" {
		wg.Add(1)
		go checkTCP(natsAddr)
	}
	log.Debug("Waiting for connection checks to return")
	wg.Wait()
	log.Debug("Required services are available")
}

func newCORS() *cors.Cors {
	// the game page is embedded by arbitrary hosts
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
		MaxAge:         int(2 * time.Hour / time.Second),
	})
}
