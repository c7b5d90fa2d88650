package location

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, p *FeedProvider, authMiddleware fiber.Handler) {
	r.Post("/fixes", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			UserID     string    `json:"user_id"`
			Lat        float64   `json:"lat"`
			Lng        float64   `json:"lng"`
			AccuracyM  float64   `json:"accuracy_m"`
			AltitudeM  float64   `json:"altitude_m"`
			Heading    float64   `json:"heading"`
			SpeedMps   float64   `json:"speed_mps"`
			RecordedAt time.Time `json:"recorded_at"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		userID := claimedUserID(c, body.UserID)
		if userID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id required")
		}
		p.PushFix(userID, Sample{
			Lat:        body.Lat,
			Lng:        body.Lng,
			AccuracyM:  body.AccuracyM,
			AltitudeM:  body.AltitudeM,
			Heading:    body.Heading,
			SpeedMps:   body.SpeedMps,
			RecordedAt: body.RecordedAt,
		})
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Post("/permission", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			UserID string `json:"user_id"`
			State  string `json:"state"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		userID := claimedUserID(c, body.UserID)
		if userID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id required")
		}
		state := PermissionState(body.State)
		switch state {
		case PermissionGranted, PermissionDenied, PermissionUndetermined, PermissionUnavailable:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "unknown permission state")
		}
		p.SetPermission(userID, state)
		return c.JSON(fiber.Map{"user_id": userID, "state": state})
	})
}

// claimedUserID prefers the bearer identity in locals over the body
// field.
func claimedUserID(c *fiber.Ctx, bodyID string) string {
	if id, ok := c.Locals("user_id").(string); ok && id != "" {
		return id
	}
	return bodyID
}
