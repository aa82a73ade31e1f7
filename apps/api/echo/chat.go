package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/chat"
	"github.com/etarip26/EduConnect/core/user"
	"github.com/etarip26/EduConnect/services/metrics"
)

type chatApi struct {
	svc     *chat.Service
	metrics *metrics.Metrics
	logger  core.Logger
	origins []string
}

func registerChatAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	auth *authenticator,
	svc *chat.Service,
	m *metrics.Metrics,
	logger core.Logger,
) {
	api := chatApi{svc: svc, metrics: m, logger: logger, origins: auth.conf.Server.AllowOrigins}

	cg := g.Group("/chat", jwt, requireAction(core.ActChat))
	cg.POST("/rooms", withUser(api.getOrCreateRoom))
	cg.GET("/rooms/my", withUser(api.listMyRooms))
	cg.GET("/rooms/:id/messages", withUser(api.listMessages))
	cg.POST("/rooms/:id/messages", withUser(api.sendMessage))
	cg.PATCH("/rooms/:id/read", withUser(api.markRead))
	cg.GET("/ws", withUser(api.serveWS))
}

type (
	RoomRequest struct {
		MatchID string `json:"match_id" validate:"required"`
	}

	MessageRequest struct {
		Content string `json:"content"`
	}
)

func (api *chatApi) getOrCreateRoom(ctx echo.Context, usr user.User) error {
	var data RoomRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	if err := ctx.Validate(data); err != nil {
		return err
	}
	room, err := api.svc.GetOrCreateRoom(ctx.Request().Context(), usr, data.MatchID)
	if err != nil {
		return errors.Wrap(err, "getting chat room")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"room": room})
}

func (api *chatApi) listMyRooms(ctx echo.Context, usr user.User) error {
	rooms, err := api.svc.ListMyRooms(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "listing chat rooms")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"rooms": nonNil(rooms)})
}

func (api *chatApi) listMessages(ctx echo.Context, usr user.User) error {
	msgs, err := api.svc.ListMessages(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing chat messages")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"messages": nonNil(msgs)})
}

func (api *chatApi) sendMessage(ctx echo.Context, usr user.User) error {
	var data MessageRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	msg, err := api.svc.SendMessage(ctx.Request().Context(), usr, ctx.Param("id"), data.Content)
	if err != nil {
		return errors.Wrap(err, "sending chat message")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"chat_message": msg})
}

func (api *chatApi) markRead(ctx echo.Context, usr user.User) error {
	n, err := api.svc.MarkRead(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "marking chat messages read")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Messages marked as read", "updated": n})
}
