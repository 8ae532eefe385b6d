package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cwbudde/pixelsculpt/internal/imageio"
	"github.com/cwbudde/pixelsculpt/internal/sculpt"
	"github.com/cwbudde/pixelsculpt/internal/transport"
)

var (
	listenBroker string
	listenPort   int
	listenTarget string
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Transform images received over MQTT",
	Long: `Connects to the MQTT broker, transforms every image published on the
source topic toward the target image and publishes the result on the result
topic. The target image is loaded in the background at startup.`,
	RunE: runListen,
}

func init() {
	listenCmd.Flags().StringVar(&listenBroker, "broker", "", "Broker host (default from config)")
	listenCmd.Flags().IntVar(&listenPort, "port", 0, "Broker port (default from config)")
	listenCmd.Flags().StringVar(&listenTarget, "target", "", "Target image path (default from config)")
	rootCmd.AddCommand(listenCmd)
}

func runListen(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if listenBroker != "" {
		cfg.MQTT.Broker = listenBroker
	}
	if listenPort > 0 {
		cfg.MQTT.Port = listenPort
	}
	if listenTarget != "" {
		cfg.MQTT.TargetPath = listenTarget
	}

	engine, err := sculpt.NewEngine(cfg.Engine)
	if err != nil {
		return fmt.Errorf("invalid engine parameters: %w", err)
	}

	target := imageio.LoadAsync(cfg.MQTT.TargetPath, cfg.Image.Width, cfg.Image.Height)
	processor := transport.NewProcessor(engine, target, cfg.Image.Width, cfg.Image.Height)

	listener := transport.NewListener(transport.ListenerConfig{
		Broker:      cfg.MQTT.Broker,
		Port:        cfg.MQTT.Port,
		ClientID:    cfg.MQTT.ClientID,
		SourceTopic: cfg.MQTT.SourceTopic,
		ResultTopic: cfg.MQTT.ResultTopic,
		QoS:         cfg.MQTT.QoS,
	}, processor)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return listener.Run(ctx)
}
