package geofence

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(r fiber.Router, reg *Registry) {
	r.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(reg.Zones())
	})
}
