package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	pusher "github.com/JokBal/pusher-go-client"
	"github.com/JokBal/pusher-go-client/internal/channel"
	"github.com/JokBal/pusher-go-client/internal/connection"
)

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	channelName := flag.String("channel", "my-channel", "channel to subscribe to")
	flag.Parse()

	apiKey, options, err := pusher.LoadOptions(*configPath)
	if err != nil {
		log := zerolog.New(os.Stderr).With().Timestamp().Logger()
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger := setupLogger("info")
	options.Logger = &logger
	logger.Info().
		Str("config", *configPath).
		Str("cluster", options.Cluster).
		Str("channel", *channelName).
		Msg("starting pusherdemo")

	client, err := pusher.New(apiKey, options)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create client")
	}

	connListener := &demoConnectionListener{logger: logger}
	if err := client.Connect(connListener); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect")
	}

	evListener := &demoEventListener{logger: logger}
	if _, err := client.Subscribe(*channelName, evListener); err != nil {
		logger.Fatal().Err(err).Msg("failed to subscribe")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	client.Disconnect()
}

type demoConnectionListener struct {
	logger zerolog.Logger
}

func (d *demoConnectionListener) OnConnectionStateChange(change connection.StateChange) {
	d.logger.Info().
		Str("previous", change.Previous.String()).
		Str("current", change.Current.String()).
		Msg("connection state changed")
}

func (d *demoConnectionListener) OnError(message string, code *string, cause error) {
	d.logger.Warn().Str("message", message).Err(cause).Msg("connection error")
}

type demoEventListener struct {
	logger zerolog.Logger
}

func (d *demoEventListener) OnEvent(channelName, eventName, data string) {
	d.logger.Info().Str("channel", channelName).Str("event", eventName).Str("data", data).Msg("event received")
}

func (d *demoEventListener) OnSubscriptionSucceeded(channelName string) {
	d.logger.Info().Str("channel", channelName).Msg("subscription succeeded")
}

var _ channel.SubscriptionListener = (*demoEventListener)(nil)

func setupLogger(level string) zerolog.Logger {
	var logLevel zerolog.Level
	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Logger()
}
