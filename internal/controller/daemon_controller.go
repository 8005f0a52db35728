package controller

import (
	"strconv"

	"lifeflow-be/internal/pkg/activitylog"
	"lifeflow-be/internal/pkg/serverutils"
	"lifeflow-be/pkg/pipeline/daemon"

	"github.com/gofiber/fiber/v2"
)

type IDaemonController interface {
	RegisterRoutes(r fiber.Router)
	Status(ctx *fiber.Ctx) error
	Activity(ctx *fiber.Ctx) error
}

type daemonController struct {
	daemon   *daemon.Daemon
	activity *activitylog.Log
}

func NewDaemonController(d *daemon.Daemon, activity *activitylog.Log) IDaemonController {
	return &daemonController{
		daemon:   d,
		activity: activity,
	}
}

func (c *daemonController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/daemon/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("status", c.Status)
	h.Get("activity", c.Activity)
}

func (c *daemonController) Status(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success show daemon status", c.daemon.Status()))
}

func (c *daemonController) Activity(ctx *fiber.Ctx) error {
	limit, _ := strconv.Atoi(ctx.Query("limit", "50"))
	entries, err := c.activity.Recent(ctx.Context(), limit)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list daemon activity", entries))
}
