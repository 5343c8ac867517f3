package main

import (
	"context"
	"flag"
	"os"
	"time"

	"natours/internal/app/seed"
	"natours/internal/config"
	"natours/internal/platform/db"
	"natours/internal/platform/logging"
)

func main() {
	var (
		importData = flag.Bool("import", false, "import the dev data into the database")
		deleteData = flag.Bool("delete", false, "delete all tours, users, reviews and bookings")
		dir        = flag.String("dir", "dev-data/data", "directory holding tours.json, users.json and reviews.json")
	)
	flag.Parse()

	logger := logging.SetupDefault(os.Stdout, false)
	if *importData == *deleteData {
		logger.Error("pass exactly one of -import or -delete")
		flag.Usage()
		os.Exit(2)
	}

	if err := config.LoadDotEnv("config.env"); err != nil {
		logger.Error("failed to read config.env", "error", err)
		os.Exit(1)
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = db.BuildDSN(db.LoadConfigFromEnv())
	}
	gdb, err := db.OpenDB(dsn, true)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("DB connection successful")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	s := seed.NewSeeder(gdb)
	if *deleteData {
		if err := s.Delete(ctx); err != nil {
			logger.Error("delete failed", "error", err)
			os.Exit(1)
		}
		logger.Info("Data successfully deleted!")
		return
	}
	counts, err := s.Import(ctx, os.DirFS(*dir))
	if err != nil {
		logger.Error("import failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Data successfully loaded!", "users", counts.Users, "tours", counts.Tours, "reviews", counts.Reviews)
}
