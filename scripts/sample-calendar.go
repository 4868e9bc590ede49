//go:build ignore

// Writes a sample iCalendar feed for checking calendar client imports.
//
//	go run scripts/sample-calendar.go
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pfrederiksen/around-the-grounds/internal/calendar"
	"github.com/pfrederiksen/around-the-grounds/internal/event"
	"github.com/pfrederiksen/around-the-grounds/internal/tz"
)

func main() {
	src := event.NewSource("salehs-corner", "Saleh's Corner", "https://www.seattlefoodtruck.com", "seattle_food_truck_api", nil)
	today := tz.Today()

	timed := event.NewEvent(src, "Impeckable Chicken", today.AddDate(0, 0, 1))
	start := today.AddDate(0, 0, 1).Add(11 * time.Hour)
	end := start.Add(3 * time.Hour)
	timed.SetTimes(&start, &end)
	timed.Description = "Cuisine: Fried Chicken, Comfort Food"

	allDay := event.NewEvent(src, "Tacos & Beer", today.AddDate(0, 0, 2))

	ics := calendar.GenerateICS([]*event.Event{timed, allDay}, calendar.Options{Name: "Sample Food Trucks"})

	filename := "sample-food-trucks.ics"
	if err := os.WriteFile(filename, []byte(ics), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %s\n", filename)
	fmt.Println("Import it into a calendar app to check both events appear on the right days.")
}
