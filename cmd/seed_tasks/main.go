// Seeds a handful of demo tasks for one user against a dev database, so /list
// and the reminder scheduler have something to show without typing commands.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"taskbot/internal/db"
	"taskbot/internal/domain"
	"taskbot/internal/repository"
)

func main() {
	// expects DATABASE_URL env var
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	userID := flag.Int64("user", 1234567890, "telegram user id that owns the seeded tasks")
	flag.Parse()

	pool := db.Connect(dsn)
	defer pool.Close()

	repo := repository.NewTaskRepository(pool)
	ctx := context.Background()

	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema failed: %v", err)
	}

	dueSoon := domain.CanonicalDeadline(time.Now().Add(3 * time.Hour))
	nextWeek := domain.CanonicalDeadline(time.Now().Add(7 * 24 * time.Hour))

	seed := []*domain.Task{
		{UserID: *userID, Description: "Prepare presentation", Category: "work", Deadline: &dueSoon},
		{UserID: *userID, Description: "Buy groceries", Category: "errands", Deadline: &nextWeek},
		{UserID: *userID, Description: "Call the dentist", Category: "general"},
	}

	for _, task := range seed {
		if err := repo.Create(ctx, task); err != nil {
			log.Fatalf("create task failed: %v", err)
		}
		log.Printf("task created id=%d description=%q\n", task.ID, task.Description)
	}

	// verify read
	tasks, err := repo.ListOpen(ctx, *userID)
	if err != nil {
		log.Fatalf("list open failed: %v", err)
	}
	log.Printf("user %d now has %d open tasks (one due within 24h for reminder testing)\n", *userID, len(tasks))
}
