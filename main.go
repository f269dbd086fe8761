package main

import (
	"fmt"
	"os"

	_ "service-jobs-api/docs"

	"github.com/spf13/cobra"
)

//go:generate swag init --parseDependency --parseInternal

// @title           Service Jobs API
// @version         1.0
// @description     Marketplace API for service jobs moving through a funded escrow lifecycle.

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "service-jobs-api",
		Short:         "Service jobs marketplace API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), adminCmd())
	return root
}
