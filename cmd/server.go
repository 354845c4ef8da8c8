package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jake-scott/hass-ajax/internal/pkg/ajaxapi"
	"github.com/jake-scott/hass-ajax/internal/pkg/coordinator"
	"github.com/jake-scott/hass-ajax/internal/pkg/entities"
	"github.com/jake-scott/hass-ajax/internal/pkg/handlers"
	"github.com/jake-scott/hass-ajax/internal/pkg/logging"
	"github.com/jake-scott/hass-ajax/internal/pkg/notify"
	"github.com/jake-scott/hass-ajax/internal/pkg/sqslistener"
	"github.com/jake-scott/hass-ajax/pkg/middlewares"
)

var _serverCmdOpts struct {
	listenAddr       string
	apiKey           string
	integrationID    string
	awsAccessKey     string
	awsSecretKey     string
	awsRegion        string
	awsQueueName     string
	pollInterval     time.Duration
	apiTimeout       time.Duration
	failureThreshold int
	corsOrigins      []string
	gracefulTimeout  time.Duration
	readTimeout      time.Duration
	writeTimeout     time.Duration
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the bridge API server",

	RunE: func(cmd *cobra.Command, args []string) error {
		if err := doServer(); err != nil {
			return err
		}

		return nil
	},

	PreRunE: func(cmd *cobra.Command, args []string) error {
		return checkRequiredFlags("ajax.api-key", "ajax.integration-id")
	},
}

func init() {
	serverCmd.Flags().StringVar(&_serverCmdOpts.listenAddr, "listen", ":8990", "HTTP listen address")
	serverCmd.Flags().StringVar(&_serverCmdOpts.apiKey, "ajax-api-key", "", "Ajax enterprise API key")
	serverCmd.Flags().StringVar(&_serverCmdOpts.integrationID, "ajax-integration-id", "", "Ajax enterprise integration ID")
	serverCmd.Flags().StringVar(&_serverCmdOpts.awsAccessKey, "aws-access-key", "", "AWS access key ID for the Ajax push queue")
	serverCmd.Flags().StringVar(&_serverCmdOpts.awsSecretKey, "aws-secret-key", "", "AWS secret access key for the Ajax push queue")
	serverCmd.Flags().StringVar(&_serverCmdOpts.awsRegion, "aws-region", "eu-west-1", "AWS region of the Ajax push queue")
	serverCmd.Flags().StringVar(&_serverCmdOpts.awsQueueName, "aws-queue", "", "SQS queue name assigned by Ajax support")
	serverCmd.Flags().DurationVar(&_serverCmdOpts.pollInterval, "poll-interval", time.Second*30, "background full-refresh interval, eg. 1m or 10s")
	serverCmd.Flags().DurationVar(&_serverCmdOpts.apiTimeout, "ajaxapi-timeout", time.Second*15, "maximum duration of an Ajax API call, eg. 1m or 10s")
	serverCmd.Flags().IntVar(&_serverCmdOpts.failureThreshold, "failure-threshold", 3, "consecutive refresh failures before the bridge reports not-ready")
	serverCmd.Flags().StringSliceVar(&_serverCmdOpts.corsOrigins, "cors-origins", []string{"*"}, "allowed CORS origins")
	serverCmd.Flags().DurationVar(&_serverCmdOpts.gracefulTimeout, "graceful-timeout", time.Second*15, "duration to wait for server to finish, eg. 1m or 10s")
	serverCmd.Flags().DurationVar(&_serverCmdOpts.readTimeout, "read-timeout", time.Second*15, "duration to wait for request read, eg. 1m or 10s")
	serverCmd.Flags().DurationVar(&_serverCmdOpts.writeTimeout, "write-timeout", time.Second*60, "duration to wait for request write, eg. 1m or 10s")

	errPanic(viper.GetViper().BindPFlag("http.listen", serverCmd.Flags().Lookup("listen")))
	errPanic(viper.GetViper().BindPFlag("ajax.api-key", serverCmd.Flags().Lookup("ajax-api-key")))
	errPanic(viper.GetViper().BindPFlag("ajax.integration-id", serverCmd.Flags().Lookup("ajax-integration-id")))
	errPanic(viper.GetViper().BindPFlag("aws.access-key", serverCmd.Flags().Lookup("aws-access-key")))
	errPanic(viper.GetViper().BindPFlag("aws.secret-key", serverCmd.Flags().Lookup("aws-secret-key")))
	errPanic(viper.GetViper().BindPFlag("aws.region", serverCmd.Flags().Lookup("aws-region")))
	errPanic(viper.GetViper().BindPFlag("aws.queue", serverCmd.Flags().Lookup("aws-queue")))
	errPanic(viper.GetViper().BindPFlag("ajax.poll-interval", serverCmd.Flags().Lookup("poll-interval")))
	errPanic(viper.GetViper().BindPFlag("ajax.api-timeout", serverCmd.Flags().Lookup("ajaxapi-timeout")))
	errPanic(viper.GetViper().BindPFlag("ajax.failure-threshold", serverCmd.Flags().Lookup("failure-threshold")))
	errPanic(viper.GetViper().BindPFlag("http.cors-origins", serverCmd.Flags().Lookup("cors-origins")))
	errPanic(viper.GetViper().BindPFlag("http.graceful-timeout", serverCmd.Flags().Lookup("graceful-timeout")))
	errPanic(viper.GetViper().BindPFlag("http.read-timeout", serverCmd.Flags().Lookup("read-timeout")))
	errPanic(viper.GetViper().BindPFlag("http.write-timeout", serverCmd.Flags().Lookup("write-timeout")))

	rootCmd.AddCommand(serverCmd)
}

func checkRequiredFlags(needFlags ...string) error {
	missingFlags := []string{}

	for _, f := range needFlags {
		if !viper.IsSet(f) || viper.GetString(f) == "" {
			missingFlags = append(missingFlags, f)
		}
	}

	if len(missingFlags) > 0 {
		itemPlural := "item"
		if len(missingFlags) > 1 {
			itemPlural = "items"
		}
		return fmt.Errorf("required config %s `%s` not set", itemPlural, strings.Join(missingFlags, "`, `"))
	}

	return nil
}

func doServer() error {
	wait := viper.GetDuration("http.graceful-timeout")
	listen := viper.GetString("http.listen")
	apiKey := viper.GetString("ajax.api-key")
	integrationID := viper.GetString("ajax.integration-id")
	apiTimeout := viper.GetDuration("ajax.api-timeout")
	pollInterval := viper.GetDuration("ajax.poll-interval")

	api := ajaxapi.NewLiveClient(integrationID, apiKey).WithTimeout(apiTimeout)
	defer api.Close()

	coord := coordinator.New(api).WithFailureThreshold(viper.GetInt("ajax.failure-threshold"))
	platform := entities.New(coord)

	notifier := notify.New(platform)
	notifier.Start(coord)
	defer notifier.Stop()

	// Populate the snapshot before serving requests. A credential
	// problem is not going to fix itself, so fail hard on those.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := coord.Refresh(ctx); err != nil {
		if ajaxapi.IsAuthError(err) {
			return err
		}
		logging.Logger(nil).WithError(err).Warn("initial refresh failed, continuing degraded")
	}

	listener := startListener(ctx, coord)

	go coord.Poll(ctx, pollInterval)

	bh := handlers.NewBridgeHandler(coord, platform, notifier)

	r := mux.NewRouter()
	r.Use(middlewares.NewCorsMw(cors.Options{
		AllowedOrigins: viper.GetStringSlice("http.cors-origins"),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "X-Correlation-ID"},
	}))
	r.Use(middlewares.NewLoggingMw())
	r.Use(middlewares.NewRecoveryMw())
	r.Use(middlewares.NewCorrelationMw("X-Correlation-ID"))
	bh.Routes(r)

	s := &http.Server{
		Addr:         listen,
		ReadTimeout:  viper.GetDuration("http.read-timeout"),
		WriteTimeout: viper.GetDuration("http.write-timeout"),
		IdleTimeout:  time.Second * 60,
		Handler:      r,
	}

	logging.Logger(nil).Infof("Serving on %s", listen)
	go func() {
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger(nil).WithError(err).Error("running server")
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	// Block until we receive a signal
	<-c
	logging.Logger(nil).Info("shutting down")

	// Stop the event sources first so no state changes land while the
	// HTTP server drains.
	cancel()
	if listener != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), wait)
		if err := listener.Stop(stopCtx); err != nil {
			logging.Logger(nil).WithError(err).Error("stopping queue listener")
		}
		stopCancel()
	}

	shutCtx, shutCancel := context.WithTimeout(context.Background(), wait)
	defer shutCancel()
	if err := s.Shutdown(shutCtx); err != nil {
		logging.Logger(nil).WithError(err).Errorf("shutting down")
	}

	logging.Logger(nil).Info("exiting")
	return nil
}

// startListener wires the push queue into the coordinator. The queue is
// optional; without it the bridge falls back to interval polling only.
func startListener(ctx context.Context, coord *coordinator.Coordinator) *sqslistener.Live {
	queueName := viper.GetString("aws.queue")
	if queueName == "" {
		logging.Logger(nil).Info("no push queue configured, relying on polling")
		return nil
	}

	listener := sqslistener.NewLiveListener(
		viper.GetString("aws.access-key"),
		viper.GetString("aws.secret-key"),
		queueName,
		viper.GetString("aws.region"),
	)
	listener.SetEventCallback(coord.HandleEvent)

	if err := listener.Start(ctx); err != nil {
		logging.Logger(nil).WithError(err).Error("starting queue listener, relying on polling")
		return nil
	}

	return listener
}
