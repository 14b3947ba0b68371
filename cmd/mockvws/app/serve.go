package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/konstin/vws-python-mock/pkg/api"
	"github.com/konstin/vws-python-mock/pkg/api/admin"
	"github.com/konstin/vws-python-mock/pkg/api/vwq"
	"github.com/konstin/vws-python-mock/pkg/api/vws"
	"github.com/konstin/vws-python-mock/pkg/config"
	"github.com/konstin/vws-python-mock/pkg/logger"
	"github.com/konstin/vws-python-mock/pkg/matchers"
	"github.com/konstin/vws-python-mock/pkg/raters"
	"github.com/konstin/vws-python-mock/pkg/store"
	"github.com/konstin/vws-python-mock/pkg/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mock VWS, VWQ and admin services",
	Long: `Run the three mock services. By default all three share one process and
one in-memory store. Set --target-manager-base-url to run the query
service against a target manager in another process; the query service
then reads state over the admin API of that process.`,
	RunE: serveCmdFunc,
}

func init() {
	if err := config.RegisterFlags(serveCmd.Flags()); err != nil {
		logger.Fatalf("Error registering flags: %v", err)
	}
}

const shutdownTimeout = 5 * time.Second

func serveCmdFunc(cmd *cobra.Command, _ []string) error {
	settings := config.Load()

	matcher, err := matchers.FromChoice(settings.QueryImageMatcher)
	if err != nil {
		return err
	}
	rater, err := raters.FromChoice(settings.TargetRater)
	if err != nil {
		return err
	}

	memory := store.NewMemory()
	var querySource store.Source = memory
	if settings.TargetManagerBaseURL != "" {
		querySource = store.NewClient(settings.TargetManagerBaseURL)
	}

	type service struct {
		name    string
		address string
		handler http.Handler
	}
	services := []service{
		{
			name:    "vws",
			address: settings.VWSAddress,
			handler: vws.Router(memory, matcher, rater, settings.ProcessingTime,
				api.Recoverer, telemetry.Middleware("vws")),
		},
		{
			name:    "vwq",
			address: settings.VWQAddress,
			handler: vwq.Router(querySource, matcher, settings.DeletionRecognition, settings.DeletionProcessing,
				api.Recoverer, telemetry.Middleware("vwq")),
		},
		{
			name:    "admin",
			address: settings.AdminAddress,
			handler: admin.Router(memory, api.Recoverer, telemetry.Middleware("admin")),
		},
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	var servers []*http.Server
	for _, svc := range services {
		if svc.address == "" {
			continue
		}

		// Bind eagerly so an unusable address fails the command instead of
		// surfacing later inside the group.
		listener, err := net.Listen("tcp", svc.address)
		if err != nil {
			return fmt.Errorf("listening on %s for %s: %w", svc.address, svc.name, err)
		}

		server := &http.Server{
			Handler:           svc.handler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		servers = append(servers, server)

		name := svc.name
		logger.Infof("%s service listening on %s", name, listener.Addr())
		group.Go(func() error {
			if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s service: %w", name, err)
			}
			return nil
		})
	}

	group.Go(func() error {
		<-ctx.Done()
		logger.Infof("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var firstErr error
		for _, server := range servers {
			if err := server.Shutdown(shutdownCtx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	})

	return group.Wait()
}
