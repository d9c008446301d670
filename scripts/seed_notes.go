package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"

	"stickycheck/internal/config"
	"stickycheck/internal/store/sqlstore"
)

var sampleNotes = map[string][]string{
	"Groceries":       {"Milk", "Eggs", "Bread", "Coffee beans", "Apples", "Spinach"},
	"Weekend chores":  {"Vacuum living room", "Water plants", "Take out recycling", "Change bed sheets"},
	"Trip packing":    {"Passport", "Phone charger", "Toothbrush", "Sunglasses", "Rain jacket"},
	"Release 1.2":     {"Update changelog", "Tag release", "Announce on mailing list"},
	"Birthday party":  {"Order cake", "Send invitations", "Buy balloons", "Plan playlist"},
	"Reading list":    {"The Pragmatic Programmer", "Designing Data-Intensive Applications", "Thinking, Fast and Slow"},
	"Garden":          {"Buy tomato seedlings", "Fix the fence", "Compost leaves"},
	"Car maintenance": {"Oil change", "Rotate tires", "Renew registration"},
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		log.Fatal(err)
	}

	store, err := sqlstore.New(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	notes, items, toggled := 0, 0, 0

	for title, texts := range sampleNotes {
		note, err := store.CreateNote(ctx, title)
		if err != nil {
			log.Printf("Error creating note %q: %v", title, err)
			continue
		}
		notes++

		for _, text := range texts {
			item, err := store.AddItem(ctx, note.ID, text)
			if err != nil {
				log.Printf("Error adding item %q: %v", text, err)
				continue
			}
			items++

			// Roughly a third of the items start out done
			if rand.Intn(3) == 0 {
				if _, err := store.ToggleItem(ctx, item.ID); err != nil {
					log.Printf("Error completing item %d: %v", item.ID, err)
					continue
				}
				toggled++
			}
		}
	}

	fmt.Printf("Inserted %d notes with %d items (%d completed) into %s\n", notes, items, toggled, cfg.DB.DSN)
}
