package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/fitfox/FitFox/app/repository"
	"github.com/fitfox/FitFox/internal/pkg/jobqueue"
	"github.com/fitfox/FitFox/internal/pkg/statistics"
)

// HandleAdminSubscriptions shows active subscription counts per plan
func HandleAdminSubscriptions(c *fiber.Ctx) error {
	repos := repository.GetGlobalRepositories()

	activeCount, err := repos.Subscription.CountActive()
	if err != nil {
		fm := fiber.Map{"type": "error", "message": "Subscription stats could not be loaded"}
		return flash.WithError(c, fm).Redirect("/")
	}

	plans, err := repos.Plan.GetAll()
	if err != nil {
		fm := fiber.Map{"type": "error", "message": "Plans could not be loaded"}
		return flash.WithError(c, fm).Redirect("/")
	}

	stats := statistics.GetStatisticsData()

	return c.Render("admin/subscriptions", viewBind(c, fiber.Map{
		"Title":          "Subscriptions",
		"ActiveCount":    activeCount,
		"Plans":          plans,
		"TotalUsers":     stats.TotalUsers,
		"CoachedClients": stats.CoachedClients,
	}), "layouts/main")
}

// HandleAdminSubscriptionSweep manually enqueues one expiration sweep
func HandleAdminSubscriptionSweep(c *fiber.Ctx) error {
	if err := jobqueue.GetManager().RunSubscriptionSweepOnce(); err != nil {
		fm := fiber.Map{"type": "error", "message": "The sweep could not be enqueued"}
		return flash.WithError(c, fm).Redirect("/admin/subscriptions")
	}

	fm := fiber.Map{"type": "success", "message": "Expiration sweep enqueued"}
	return flash.WithSuccess(c, fm).Redirect("/admin/subscriptions")
}

// HandleAdminQueueStats returns job queue statistics as JSON
func HandleAdminQueueStats(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	queue := jobqueue.GetManager().GetQueue()

	stats, err := queue.GetJobStats(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "stats_unavailable"})
	}
	pending, _ := queue.GetQueueSize(ctx)
	processing, _ := queue.GetProcessingSize(ctx)

	return c.JSON(fiber.Map{
		"stats":      stats,
		"pending":    pending,
		"processing": processing,
	})
}
