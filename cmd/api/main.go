package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/renzogv/tienda-golang/internal/database"
	"github.com/renzogv/tienda-golang/internal/handlers"
	"github.com/renzogv/tienda-golang/internal/routes"
)

func main() {
	// --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	// --- Database Connection ---
	db, err := database.OpenDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// --- Application Setup ---
	app := &handlers.Handlers{
		DB: db,
	}

	// --- Router Setup ---
	router := routes.SetupRouter(app)

	// --- Start Server ---
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Starting tienda API server on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
