package controller

import (
	"PetAdoptAPI/internal/helper"
	"PetAdoptAPI/internal/model"
	"PetAdoptAPI/internal/service"
	"encoding/json"
	"net/http"
	"strconv"
)

type MessageController struct {
	messageService *service.MessageService
}

func NewMessageController(messageService *service.MessageService) *MessageController {
	return &MessageController{
		messageService: messageService,
	}
}

// SendMessage godoc
// @Summary      Send Message
// @Description  Post a message to a conversation. The other party's unread counter is incremented.
// @Tags         message
// @Accept       json
// @Produce      json
// @Param        chatID  path string true "Chat ID"
// @Param        request body model.SendMessageRequest true "Send Message Request"
// @Success      201  {object}  helper.ResponseSuccess{data=model.MessageResponse}
// @Failure      400  {object}  helper.ResponseError
// @Failure      401  {object}  helper.ResponseError
// @Failure      403  {object}  helper.ResponseError
// @Failure      404  {object}  helper.ResponseError
// @Failure      429  {object}  helper.ResponseError
// @Failure      503  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/chats/{chatID}/messages [post]
func (c *MessageController) SendMessage(w http.ResponseWriter, r *http.Request) {
	userContext, ok := currentUser(r)
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	chatID, err := uuidParam(r, "chatID")
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helper.WriteError(w, helper.NewBadRequestError("Invalid request body"))
		return
	}

	resp, err := c.messageService.SendMessage(r.Context(), userContext.ID, chatID, req)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteCreated(w, resp)
}

// GetMessages godoc
// @Summary      Get Messages
// @Description  Conversation history, oldest first.
// @Tags         message
// @Produce      json
// @Param        chatID path  string true  "Chat ID"
// @Param        limit  query int    false "Page size (default 50, values above 100 are capped)"
// @Param        offset query int    false "Messages to skip"
// @Success      200  {object}  helper.ResponseWithPagination{data=[]model.MessageResponse}
// @Failure      400  {object}  helper.ResponseError
// @Failure      401  {object}  helper.ResponseError
// @Failure      403  {object}  helper.ResponseError
// @Failure      404  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/chats/{chatID}/messages [get]
func (c *MessageController) GetMessages(w http.ResponseWriter, r *http.Request) {
	userContext, ok := currentUser(r)
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	chatID, err := uuidParam(r, "chatID")
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	var req model.GetMessagesRequest
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if req.Limit, err = strconv.Atoi(limitStr); err != nil {
			helper.WriteError(w, helper.NewBadRequestError("Invalid limit"))
			return
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if req.Offset, err = strconv.Atoi(offsetStr); err != nil {
			helper.WriteError(w, helper.NewBadRequestError("Invalid offset"))
			return
		}
	}

	resp, hasNext, err := c.messageService.GetMessages(r.Context(), userContext.ID, chatID, req)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccessWithPagination(w, resp, c.messageService.PageSize(req.Limit), req.Offset, hasNext)
}
