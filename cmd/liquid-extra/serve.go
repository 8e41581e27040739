package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jg-rp/liquid-extra/pkg/logger"
	"github.com/jg-rp/liquid-extra/pkg/server"
)

var serveCmd = cobra.Command{
	Use:   "serve",
	Short: "Serve the render and parse endpoints over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("addr")
		var scfg server.Config
		if cfg.Server != nil {
			if !cmd.Flags().Changed("addr") && cfg.Server.Addr != "" {
				addr = cfg.Server.Addr
			}
			scfg.BodyLimit = cfg.Server.BodyLimit
		}
		app := server.New(env, scfg)

		errc := make(chan error, 1)
		go func() {
			logger.L().Info("listening", zap.String("addr", addr))
			errc <- app.Listen(addr)
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case err := <-errc:
			return err
		case <-quit:
		}
		logger.L().Info("shutting down")
		return app.Shutdown()
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	rootCmd.AddCommand(&serveCmd)
}
