// Command seed loads events and box office accounts from a YAML file.
// Re-running it updates events in place and leaves existing users alone
// apart from their role.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/database"
	"github.com/iliyamo/event-ticketing/internal/logger"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// seedFile is the layout of the seed YAML.
type seedFile struct {
	Events []model.Event `yaml:"events"`
	Admins []seedAdmin   `yaml:"admins"`
}

type seedAdmin struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	file := flags.StringP("file", "f", "cmd/seed/events.yaml", "seed file")
	envFile := flags.String("env-file", ".env", "dotenv file to load before reading the environment")
	migrate := flags.Bool("migrate", true, "apply the schema first")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("no %s file loaded, using the environment", *envFile)
	}
	cfg := config.Load()
	lg := logger.New(os.Stderr, cfg.LogLevel)

	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()
	seed, err := parseSeed(f)
	if err != nil {
		return fmt.Errorf("%s: %w", *file, err)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if *migrate {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	events := repository.NewEventRepo(db)
	for i := range seed.Events {
		ev := &seed.Events[i]
		if err := events.Upsert(ctx, ev); err != nil {
			return fmt.Errorf("event %q: %w", ev.Title, err)
		}
		lg.Info("event seeded", "id", ev.ID, "title", ev.Title, "seats", ev.TotalSeats)
	}

	users := repository.NewUserRepo(db)
	for _, a := range seed.Admins {
		_, err := users.Create(ctx, a.Email, a.Name, a.Password, model.RoleAdmin, cfg.BcryptCost)
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			if err := users.SetRole(ctx, a.Email, model.RoleAdmin); err != nil {
				return fmt.Errorf("admin %s: %w", a.Email, err)
			}
		case err != nil:
			return fmt.Errorf("admin %s: %w", a.Email, err)
		}
		lg.Info("admin seeded", "email", a.Email)
	}
	return nil
}

// parseSeed decodes and checks a seed file.  Unknown keys are rejected so
// typos do not silently drop data.  An event without available_seats goes
// on sale with every seat; an explicit 0 seeds it sold out.
func parseSeed(r io.Reader) (seedFile, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return seedFile{}, err
	}
	var s seedFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return seedFile{}, err
	}
	var given struct {
		Events []struct {
			AvailableSeats *int `yaml:"available_seats"`
		} `yaml:"events"`
	}
	if err := yaml.Unmarshal(raw, &given); err != nil {
		return seedFile{}, err
	}
	for i := range s.Events {
		ev := &s.Events[i]
		if strings.TrimSpace(ev.Title) == "" {
			return seedFile{}, fmt.Errorf("event %d: title is required", i+1)
		}
		if ev.TotalSeats <= 0 {
			return seedFile{}, fmt.Errorf("event %q: total_seats must be positive", ev.Title)
		}
		if ev.Price < 0 {
			return seedFile{}, fmt.Errorf("event %q: negative price", ev.Title)
		}
		if given.Events[i].AvailableSeats == nil {
			ev.AvailableSeats = ev.TotalSeats
		}
		if ev.AvailableSeats < 0 || ev.AvailableSeats > ev.TotalSeats {
			return seedFile{}, fmt.Errorf("event %q: available_seats must be between 0 and total_seats", ev.Title)
		}
	}
	for _, a := range s.Admins {
		if a.Email == "" || a.Password == "" {
			return seedFile{}, errors.New("admin entries need email and password")
		}
	}
	return s, nil
}
