// Demo data generator. Seeds users, approved events and bookings through
// the same transactional path the API uses, so generated data always
// satisfies the ledger invariants.
package main

import (
	"context"
	"crypto/sha256"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"asyncaccess/internal/config"
	"asyncaccess/internal/database"
	"asyncaccess/internal/logger"
	"asyncaccess/internal/models"
	"asyncaccess/internal/repository"
	"asyncaccess/internal/service"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

var (
	userCount  = flag.Int("users", 50, "Number of users to create")
	eventCount = flag.Int("events", 10, "Number of approved events to create")
	bookRatio  = flag.Float64("book-ratio", 0.5, "Fraction of users that book a random event")
	clearFirst = flag.Bool("clear", false, "Delete existing bookings, events and users first")
	dryRun     = flag.Bool("dry-run", false, "Show what would be generated without writing")
)

var eventTitles = []string{
	"Jazz Night", "Open Air Festival", "Tech Meetup", "Symphony Gala",
	"Stand-up Evening", "Food Market", "Film Premiere", "Art Exhibition",
}

func main() {
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	if *dryRun {
		slog.Info("Dry run",
			"users", *userCount, "events", *eventCount, "book_ratio", *bookRatio)
		return
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	g := &generator{db: db, repos: repository.NewRepositories(db)}

	if *clearFirst {
		if err := g.clear(); err != nil {
			slog.Error("Failed to clear existing data", "error", err)
			os.Exit(1)
		}
	}

	if err := g.run(); err != nil {
		slog.Error("Generation failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Generation completed")
}

type generator struct {
	db    *database.DB
	repos *repository.Repositories
}

func (g *generator) clear() error {
	for _, table := range []string{"bookings", "events", "users"} {
		if _, err := g.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	slog.Info("Cleared existing data")
	return nil
}

func (g *generator) run() error {
	ctx := context.Background()

	organizer, err := g.createUser(ctx, models.RoleOrganizer)
	if err != nil {
		return err
	}
	if _, err := g.createUser(ctx, models.RoleAdmin); err != nil {
		return err
	}

	var users []*models.User
	for i := 0; i < *userCount; i++ {
		user, err := g.createUser(ctx, models.RoleUser)
		if err != nil {
			return err
		}
		users = append(users, user)
	}
	slog.Info("Created users", "count", len(users)+2)

	var events []*models.Event
	for i := 0; i < *eventCount; i++ {
		event, err := g.createEvent(ctx, organizer.ID)
		if err != nil {
			return err
		}
		events = append(events, event)
	}
	slog.Info("Created approved events", "count", len(events))

	if len(events) == 0 {
		return nil
	}

	inventory := service.NewInventoryService(
		g.repos.Inventory, g.repos.Bookings, g.repos.Events, nil, service.Options{})

	booked := 0
	for _, user := range users {
		if rand.Float64() >= *bookRatio {
			continue
		}
		event := events[rand.Intn(len(events))]
		tickets := 1 + rand.Intn(4)
		if _, err := inventory.Reserve(ctx, user.ID, event.ID, tickets); err != nil {
			slog.Warn("Skipping booking", "user_id", user.ID, "event_id", event.ID, "error", err)
			continue
		}
		booked++
	}
	slog.Info("Created bookings", "count", booked)

	return nil
}

func (g *generator) createUser(ctx context.Context, role string) (*models.User, error) {
	hash := sha256.Sum256([]byte("password"))
	user := &models.User{
		Email:        fmt.Sprintf("%s-%s@example.com", role, uuid.New().String()[:8]),
		PasswordHash: fmt.Sprintf("%x", hash),
		Role:         role,
	}
	if err := g.repos.Users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (g *generator) createEvent(ctx context.Context, organizerID int64) (*models.Event, error) {
	event := &models.Event{
		OrganizerID:  organizerID,
		Title:        eventTitles[rand.Intn(len(eventTitles))],
		EventDate:    randomFutureDate(),
		TicketPrice:  int64(1000 + rand.Intn(9)*500),
		TotalTickets: 50 + rand.Intn(200),
		Status:       models.EventStatusApproved,
	}
	if err := g.repos.Events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

func randomFutureDate() time.Time {
	return time.Now().AddDate(0, 0, 7+rand.Intn(90)).Truncate(time.Hour)
}
