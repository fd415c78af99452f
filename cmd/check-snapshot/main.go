// Command check-snapshot verifies a SQLite port snapshot is usable:
// it prints store statistics and resolves a few well-known ports.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sowhan/seavoyage/internal/database"
)

func main() {
	path := "data/ports.db"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		log.Fatalf("Failed to open snapshot %s: %v", path, err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping snapshot: %v", err)
	}

	ctx := context.Background()
	store := database.NewSnapshotStore(db)

	stats, err := store.Statistics(ctx)
	if err != nil {
		log.Fatalf("Failed to read statistics: %v", err)
	}
	fmt.Printf("Snapshot %s: %d ports (%d active), %d countries, %d types\n",
		path, stats.TotalPorts, stats.ActivePorts, stats.Countries, stats.PortTypes)

	for _, code := range []string{"SGSIN", "NLRTM", "CNSHA"} {
		port, err := store.GetPort(ctx, code)
		if err != nil {
			log.Fatalf("Lookup %s failed: %v", code, err)
		}
		if port == nil {
			fmt.Printf("  %s: missing\n", code)
			continue
		}
		fmt.Printf("  %s: %s, %s (%.4f, %.4f) status=%s\n",
			port.UNLocode, port.Name, port.Country,
			port.Coordinates.Latitude, port.Coordinates.Longitude,
			port.OperationalStatus)
	}
}
