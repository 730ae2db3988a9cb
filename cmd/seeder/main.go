//cmd/seeder/main.go
package main

import (
    "context"
    "fmt"
    "log"
    "os"

    "github.com/unclebandit/emailcraft-backend/internal/config"
    "github.com/unclebandit/emailcraft-backend/internal/db"
)

func main() {
    cfg, err := config.Load()
    if err != nil {
        log.Fatal(err)
    }

    conn, err := db.Open(cfg.Database)
    if err != nil {
        log.Fatal(err)
    }
    defer conn.Close()

    ctx := context.Background()
    if err := db.Migrate(ctx, conn); err != nil {
        log.Fatal(err)
    }

    seedFiles := []string{
        "seed/contacts.sql",
        "seed/campaigns.sql",
    }

    for _, file := range seedFiles {
        content, err := os.ReadFile(file)
        if err != nil {
            log.Fatalf("failed to read %s: %v", file, err)
        }

        _, err = conn.ExecContext(ctx, string(content))
        if err != nil {
            log.Fatalf("failed to execute %s: %v", file, err)
        }
        fmt.Printf("Seeded: %s\n", file)
    }

    fmt.Println("Database seeding completed successfully!")
}
