package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/scitags/nftnl/exporter"
	"github.com/scitags/nftnl/nlsock"
)

func init() {
	exporterCmd.Flags().BoolVar(&watchFlag, "watch", false, "reload the table selection when the configuration changes")
}

var (
	watchFlag bool

	exporterCmd = &cobra.Command{
		Use:   "exporter",
		Short: "Export rule counters to Prometheus and serve the ruleset over HTTP.",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConf()
			if err != nil {
				return err
			}
			slog.Debug("loaded the configuration", "conf", conf)

			dial := func() (exporter.Socket, error) {
				conn, err := nlsock.Dial(conf.Socket)
				if err != nil {
					return nil, err
				}
				return conn, nil
			}

			e, err := exporter.New(conf.Exporter, dial)
			if err != nil {
				return fmt.Errorf("error setting up the exporter: %w", err)
			}
			defer func() {
				if err := e.Cleanup(); err != nil {
					slog.Error("error cleaning up the exporter", "err", err)
				}
			}()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			if watchFlag {
				if confPath == "" {
					return fmt.Errorf("--watch needs a configuration file")
				}
				go func() {
					err := exporter.Watch(ctx, confPath, func() error {
						c, err := ReadConf(confPath)
						if err != nil {
							return err
						}
						if c.Exporter == nil {
							c.Exporter = &exporter.DefaultConfig
						}
						return e.Select(c.Exporter.Families, c.Exporter.Tables)
					})
					if err != nil {
						slog.Error("error watching the configuration", "err", err)
					}
				}()
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt)

			done := make(chan struct{})
			go func() {
				<-sigChan
				slog.Info("caught an interrupt, exiting")
				close(done)
			}()

			e.Run(done)
			return nil
		},
	}
)
