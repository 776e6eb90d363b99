// cmd/migrate/main.go
// Applies the schema and reports what the database holds

package main

import (
    "context"
    "flag"
    "fmt"
    "log"
    "os"
    "time"

    "github.com/joho/godotenv"

    "github.com/imadgeboyega/matchup-backend/internal/common/database"
)

func main() {
    checkOnly := flag.Bool("check", false, "only test the connection and list tables")
    flag.Parse()

    if err := godotenv.Load(); err != nil {
        fmt.Println("⚠️  No .env file found, using environment variables")
    } else {
        fmt.Println("✅ .env loaded successfully!")
    }

    dbURL := os.Getenv("DATABASE_URL")
    if dbURL == "" {
        log.Fatal("DATABASE_URL not found")
    }

    fmt.Println("Connecting to database...")
    db, err := database.NewPostgresDBFromURL(dbURL)
    if err != nil {
        log.Fatal("Can't reach database: ", err)
    }
    defer db.Close()
    fmt.Println("✅ Connected to database")

    ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
    defer cancel()

    if !*checkOnly {
        if err := database.Migrate(ctx, db); err != nil {
            log.Fatal("❌ ", err)
        }
    }

    var tables []string
    if err := db.SelectContext(ctx, &tables, `
        SELECT table_name FROM information_schema.tables
        WHERE table_schema = 'public' ORDER BY table_name`); err != nil {
        log.Fatal("Failed to list tables: ", err)
    }
    fmt.Printf("✅ Found %d tables\n", len(tables))
    for _, t := range tables {
        fmt.Printf("   - %s\n", t)
    }
}
