package controller

import (
	"lifeflow-be/internal/dto"
	"lifeflow-be/internal/entity"
	"lifeflow-be/internal/pkg/serverutils"
	"lifeflow-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IQueueController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Approve(ctx *fiber.Ctx) error
	Reject(ctx *fiber.Ctx) error
	Execute(ctx *fiber.Ctx) error
	Revert(ctx *fiber.Ctx) error
}

type queueController struct {
	queueService service.IQueueService
}

func NewQueueController(queueService service.IQueueService) IQueueController {
	return &queueController{
		queueService: queueService,
	}
}

func (c *queueController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/queue/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Delete(":id", c.Delete)
	h.Post(":id/actions/:actionId/approve", c.Approve)
	h.Post(":id/actions/:actionId/reject", c.Reject)
	h.Post(":id/execute", c.Execute)
	h.Post(":id/revert", c.Revert)
}

func (c *queueController) List(ctx *fiber.Ctx) error {
	items, err := c.queueService.ListQueue(ctx.Context())
	if err != nil {
		return err
	}
	responses := make([]*dto.QueueItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, toQueueItemResponse(item))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list queue", responses))
}

func (c *queueController) Show(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid queue item id")
	}

	item, err := c.queueService.GetQueueItem(ctx.Context(), id)
	if err != nil {
		return err
	}
	if item == nil {
		return fiber.NewError(fiber.StatusNotFound, "Queue item not found")
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show queue item", toQueueItemResponse(item)))
}

// Delete removes a queue item in any state. Deleting a failed or completed
// item makes its thought eligible for processing again.
func (c *queueController) Delete(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid queue item id")
	}

	if err := c.queueService.DeleteQueueItem(ctx.Context(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete queue item", nil))
}

func (c *queueController) Approve(ctx *fiber.Ctx) error {
	queueId, actionId, err := queueActionIds(ctx)
	if err != nil {
		return err
	}

	if err := c.queueService.ApproveAction(ctx.Context(), queueId, actionId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success approve action", nil))
}

func (c *queueController) Reject(ctx *fiber.Ctx) error {
	queueId, actionId, err := queueActionIds(ctx)
	if err != nil {
		return err
	}

	if err := c.queueService.RejectAction(ctx.Context(), queueId, actionId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success reject action", nil))
}

func (c *queueController) Execute(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid queue item id")
	}

	res, err := c.queueService.ExecuteApproved(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success execute approved actions", res))
}

func (c *queueController) Revert(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid queue item id")
	}

	if err := c.queueService.Revert(ctx.Context(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success revert queue item", nil))
}

func queueActionIds(ctx *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	queueId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid queue item id")
	}
	actionId, err := uuid.Parse(ctx.Params("actionId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid action id")
	}
	return queueId, actionId, nil
}

func toQueueItemResponse(item *entity.QueueItem) *dto.QueueItemResponse {
	actions := make([]dto.ProposedActionResponse, 0, len(item.Actions))
	for _, action := range item.Actions {
		actions = append(actions, dto.ProposedActionResponse{
			Id:        action.Id,
			Type:      action.Type,
			Tool:      action.Tool,
			Payload:   action.Payload,
			Status:    action.Status,
			Reasoning: action.Reasoning,
		})
	}
	return &dto.QueueItemResponse{
		Id:              item.Id,
		ThoughtId:       item.ThoughtId,
		Mode:            item.Mode,
		Status:          item.Status,
		Actions:         actions,
		ApprovedActions: item.ApprovedActionIds(),
		ExecutedActions: item.ExecutedActionIds(),
		Revertible:      item.Revertible,
		Error:           item.Error,
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
	}
}
