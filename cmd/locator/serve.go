package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/spf13/cobra"

	locator "github.com/refugee-resources/resource-locator"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run read-data, chat, markers and reload-resources on a local port",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := locator.Configure(cfg); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			err = locator.Ping(ctx)
			cancel()
			if err != nil {
				return fmt.Errorf("startup check: %w", err)
			}

			host, _ := cmd.Flags().GetString("host")
			port, _ := cmd.Flags().GetString("port")
			log.Printf("Serving functions on %s:%s", host, port)
			return funcframework.StartHostPort(host, port)
		},
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	cmd.Flags().String("host", "", "Interface to listen on")
	cmd.Flags().String("port", port, "Port to listen on")
	return cmd
}
