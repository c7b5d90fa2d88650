package session

import (
	"errors"
	"time"

	"backend-wearquest/internal/location"
	"backend-wearquest/internal/reward"
	"backend-wearquest/internal/vault"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, mgr *Manager, store vault.Store, authMiddleware fiber.Handler) {
	r.Post("/start", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			UserID      string `json:"user_id"`
			ProductID   string `json:"product_id"`
			NFCVerified bool   `json:"nfc_verified"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		userID := requestUserID(c, body.UserID)
		if userID == "" || body.ProductID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id and product_id required")
		}
		id, err := mgr.Engine(userID).Start(c.Context(), body.ProductID, body.NFCVerified)
		if err != nil {
			return fiber.NewError(startStatus(err), err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session_id": id})
	})

	r.Post("/stop", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			UserID string `json:"user_id"`
		}
		_ = c.BodyParser(&body)
		userID := requestUserID(c, body.UserID)
		if userID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id required")
		}
		sess, err := mgr.Engine(userID).Stop(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return c.JSON(fiber.Map{
			"session": sess,
			"points":  reward.Points(scored(sess)),
		})
	})

	r.Get("/current", func(c *fiber.Ctx) error {
		userID := c.Query("user_id")
		if userID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id required")
		}
		sess, ok := mgr.Engine(userID).Current()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no active session")
		}
		return c.JSON(sess)
	})

	r.Get("/history", func(c *fiber.Ctx) error {
		userID := c.Query("user_id")
		if userID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id required")
		}
		records, err := store.List(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(records)
	})

	r.Get("/:id/points", func(c *fiber.Ctx) error {
		rec, err := store.Get(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "session not found")
		}
		points := reward.Points(reward.Activity{
			Type:        rec.ActivityType,
			Duration:    time.Duration(rec.DurationSec) * time.Second,
			DistanceM:   rec.DistanceM,
			Valid:       rec.Valid,
			NFCVerified: rec.NFCVerified,
		})
		return c.JSON(fiber.Map{"session_id": rec.ID, "points": points})
	})
}

// requestUserID prefers the identity the bearer middleware left in
// locals over the body field, so a token can't act for another user.
func requestUserID(c *fiber.Ctx, bodyID string) string {
	if id, ok := c.Locals("user_id").(string); ok && id != "" {
		return id
	}
	return bodyID
}

func scored(sess Session) reward.Activity {
	return reward.Activity{
		Type:        string(sess.Activity),
		Duration:    sess.Duration(),
		DistanceM:   sess.DistanceM,
		Valid:       sess.Valid,
		NFCVerified: sess.NFCVerified,
	}
}

func startStatus(err error) int {
	switch {
	case errors.Is(err, ErrAlreadyActive):
		return fiber.StatusConflict
	case errors.Is(err, location.ErrPermissionDenied), errors.Is(err, location.ErrPermissionUnavailable):
		return fiber.StatusForbidden
	case errors.Is(err, ErrInvalidStartLocation),
		errors.Is(err, location.ErrFixTimeout),
		errors.Is(err, location.ErrFixUnavailable):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}
