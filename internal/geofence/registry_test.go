package geofence

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func testZones() []Zone {
	return []Zone{
		{ID: "gym", Name: "Gym", Lat: 0, Lng: 0, RadiusM: 100, Category: CategoryGym},
		{ID: "park", Name: "Park", Lat: 0.0005, Lng: 0, RadiusM: 200, Category: CategoryOutdoor},
		{ID: "no-go", Name: "No Go", Lat: 1, Lng: 1, RadiusM: 500, Category: CategoryRestricted},
	}
}

func TestContains(t *testing.T) {
	z := Zone{Lat: 0, Lng: 0, RadiusM: 100}
	if !Contains(z, 0.0005, 0) { // ~55 m
		t.Fatalf("expected point inside zone")
	}
	if Contains(z, 0.01, 0) { // ~1.1 km
		t.Fatalf("expected point outside zone")
	}
}

func TestClassifyOverlapping(t *testing.T) {
	reg := NewRegistry(testZones())
	matches := reg.Classify(0.0003, 0) // inside gym and park
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
}

func TestClassifyNoMatch(t *testing.T) {
	reg := NewRegistry(testZones())
	if matches := reg.Classify(45, 45); len(matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(matches))
	}
}

func TestInRestricted(t *testing.T) {
	reg := NewRegistry(testZones())
	if !reg.InRestricted(1, 1) {
		t.Fatalf("expected restricted hit")
	}
	if reg.InRestricted(0, 0) {
		t.Fatalf("gym center should not be restricted")
	}
}

func TestListHandler(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/geofences"), NewRegistry(DefaultZones()))

	req := httptest.NewRequest(http.MethodGet, "/geofences/", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %v", err)
	}
}
