package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/fitfox/FitFox/app/repository"
	"github.com/fitfox/FitFox/internal/pkg/statistics"
)

func HandleHome(c *fiber.Ctx) error {
	plans, err := repository.GetGlobalRepositories().Plan.GetActive()
	if err != nil {
		log.Errorf("[Home] loading plans failed: %v", err)
	}

	stats := statistics.GetStatisticsData()

	return c.Render("index", viewBind(c, fiber.Map{
		"Title":               "Coach smarter",
		"Plans":               plans,
		"TotalUsers":          stats.TotalUsers,
		"ActiveSubscriptions": stats.ActiveSubscriptions,
		"CoachedClients":      stats.CoachedClients,
	}), "layouts/main")
}
