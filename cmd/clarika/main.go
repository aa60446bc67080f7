package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lapislazuli21/Clarika/internal/ai"
	"github.com/lapislazuli21/Clarika/internal/cli"
	internal_http "github.com/lapislazuli21/Clarika/internal/http"
	"github.com/lapislazuli21/Clarika/internal/log"
	internal_storage "github.com/lapislazuli21/Clarika/internal/storage"
)

var rootCmd = &cobra.Command{Use: "clarika"}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Clarika API server",
	Run: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			log.GetLogger().Infof("No .env file found: %v. Using environment variables.", err)
		}

		connStr, _ := cmd.Flags().GetString("db")
		if connStr == "" {
			connStr = os.Getenv("DATABASE_URL")
		}
		if connStr == "" {
			log.GetLogger().Error("Error: --db flag or DATABASE_URL required")
			os.Exit(1)
		}

		port, _ := cmd.Flags().GetString("port")
		if port == "" {
			port = os.Getenv("PORT")
		}
		if port == "" {
			port = "8080"
		}

		allowedOrigin := os.Getenv("ALLOWED_ORIGIN")
		if allowedOrigin == "" {
			allowedOrigin = "http://localhost:5173"
		}

		store, err := internal_storage.InitStore(connStr)
		if err != nil {
			log.GetLogger().Errorf("Failed to connect to database: %v", err)
			os.Exit(1)
		}
		defer store.Close()

		scoper := ai.NewScoper(os.Getenv("GOOGLE_AI_API_KEY"))
		if err := internal_http.StartServer(port, allowedOrigin, store, scoper); err != nil {
			log.GetLogger().Errorf("Server failed: %v", err)
			os.Exit(1)
		}
	},
}

func main() {
	serveCmd.Flags().String("db", "", "Database connection string (defaults to DATABASE_URL)")
	serveCmd.Flags().String("port", "", "Port to listen on (defaults to PORT or 8080)")
	rootCmd.AddCommand(serveCmd)
	cli.SetupCLI(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
