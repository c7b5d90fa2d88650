package location

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend-wearquest/internal/feed"

	"github.com/gofiber/fiber/v2"
)

func passthrough(c *fiber.Ctx) error { return c.Next() }

func TestIngestFix(t *testing.T) {
	hub := feed.NewHub(nil)
	p := NewFeedProvider(hub)

	app := fiber.New()
	RegisterRoutes(app.Group("/location"), p, passthrough)

	sub := hub.Register("user-1")
	defer hub.Unregister(sub)

	body, _ := json.Marshal(fiber.Map{"user_id": "user-1", "lat": -6.2, "lng": 106.8, "accuracy_m": 8})
	req := httptest.NewRequest(http.MethodPost, "/location/fixes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusAccepted {
		t.Fatalf("ingest status: %v", err)
	}

	select {
	case payload := <-sub.Recv:
		var s Sample
		if err := json.Unmarshal(payload, &s); err != nil || s.Lat != -6.2 {
			t.Fatalf("unexpected payload: %s", payload)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("fix not published")
	}
}

func TestIngestFixUsesBearerIdentity(t *testing.T) {
	hub := feed.NewHub(nil)
	p := NewFeedProvider(hub)

	app := fiber.New()
	bearer := func(c *fiber.Ctx) error {
		c.Locals("user_id", "claims-user")
		return c.Next()
	}
	RegisterRoutes(app.Group("/location"), p, bearer)

	sub := hub.Register("claims-user")
	defer hub.Unregister(sub)

	body, _ := json.Marshal(fiber.Map{"user_id": "spoofed", "lat": -6.2, "lng": 106.8})
	req := httptest.NewRequest(http.MethodPost, "/location/fixes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusAccepted {
		t.Fatalf("ingest status: %v", err)
	}

	select {
	case <-sub.Recv:
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("fix not routed to bearer identity")
	}
}

func TestIngestFixMissingUser(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/location"), NewFeedProvider(feed.NewHub(nil)), passthrough)

	req := httptest.NewRequest(http.MethodPost, "/location/fixes", bytes.NewReader([]byte(`{"lat":1}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}
}

func TestIngestFixParseError(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/location"), NewFeedProvider(feed.NewHub(nil)), passthrough)

	req := httptest.NewRequest(http.MethodPost, "/location/fixes", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}
}

func TestReportPermission(t *testing.T) {
	p := NewFeedProvider(feed.NewHub(nil))
	app := fiber.New()
	RegisterRoutes(app.Group("/location"), p, passthrough)

	body, _ := json.Marshal(fiber.Map{"user_id": "user-1", "state": "granted"})
	req := httptest.NewRequest(http.MethodPost, "/location/permission", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("permission status: %v", err)
	}

	ok, err := p.RequestPermission(context.Background(), "user-1")
	if err != nil || !ok {
		t.Fatalf("expected granted state recorded")
	}
}

func TestReportPermissionUnknownState(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/location"), NewFeedProvider(feed.NewHub(nil)), passthrough)

	body, _ := json.Marshal(fiber.Map{"user_id": "user-1", "state": "maybe"})
	req := httptest.NewRequest(http.MethodPost, "/location/permission", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for unknown state")
	}
}
