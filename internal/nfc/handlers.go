package nfc

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(r fiber.Router, v Verifier, authMiddleware fiber.Handler) {
	r.Post("/verify", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			ProductID string `json:"product_id"`
		}
		if err := c.BodyParser(&body); err != nil || body.ProductID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "product_id required")
		}
		verified := v.Verify(c.Context(), body.ProductID)
		return c.JSON(fiber.Map{"product_id": body.ProductID, "verified": verified})
	})
}
