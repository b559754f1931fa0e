package controller

import (
	"PetAdoptAPI/internal/helper"
	"PetAdoptAPI/internal/middleware"
	"PetAdoptAPI/internal/model"
	"PetAdoptAPI/internal/service"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ChatController struct {
	chatService  *service.ChatService
	inboxService *service.InboxService
	readService  *service.ReadService
}

func NewChatController(chatService *service.ChatService, inboxService *service.InboxService, readService *service.ReadService) *ChatController {
	return &ChatController{
		chatService:  chatService,
		inboxService: inboxService,
		readService:  readService,
	}
}

func currentUser(r *http.Request) (*model.UserDTO, bool) {
	userContext, ok := r.Context().Value(middleware.UserContextKey).(*model.UserDTO)
	return userContext, ok && userContext != nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, helper.NewBadRequestError("Invalid " + name)
	}
	return id, nil
}

// StartConversation godoc
// @Summary      Contact Pet Owner
// @Description  Open the conversation between the current user and the owner of a pet. Returns the existing conversation when there is one.
// @Tags         chat
// @Produce      json
// @Param        petID path string true "Pet ID"
// @Success      200  {object}  helper.ResponseSuccess{data=model.ChatResponse}
// @Failure      400  {object}  helper.ResponseError
// @Failure      401  {object}  helper.ResponseError
// @Failure      404  {object}  helper.ResponseError
// @Failure      429  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/pets/{petID}/chat [post]
func (c *ChatController) StartConversation(w http.ResponseWriter, r *http.Request) {
	userContext, ok := currentUser(r)
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	petID, err := uuidParam(r, "petID")
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	resp, err := c.chatService.StartConversation(r.Context(), userContext.ID, petID)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccess(w, resp)
}

// CreateConversation godoc
// @Summary      Create Conversation
// @Description  Get or create the conversation about a pet between its owner and the current user.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        request body model.CreateChatRequest true "Create Chat Request"
// @Success      200  {object}  helper.ResponseSuccess{data=model.ChatResponse}
// @Failure      400  {object}  helper.ResponseError
// @Failure      401  {object}  helper.ResponseError
// @Failure      404  {object}  helper.ResponseError
// @Failure      429  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/chats [post]
func (c *ChatController) CreateConversation(w http.ResponseWriter, r *http.Request) {
	userContext, ok := currentUser(r)
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	var req model.CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helper.WriteError(w, helper.NewBadRequestError("Invalid request body"))
		return
	}

	resp, err := c.chatService.CreateConversation(r.Context(), userContext.ID, req)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccess(w, resp)
}

// GetChats godoc
// @Summary      List Conversations
// @Description  Inbox of the current user, most recent activity first.
// @Tags         chat
// @Produce      json
// @Param        q       query string false "Search pet or other party name"
// @Param        filter  query string false "all or unread"
// @Success      200  {object}  helper.ResponseSuccess{data=model.InboxResponse}
// @Failure      400  {object}  helper.ResponseError
// @Failure      401  {object}  helper.ResponseError
// @Failure      503  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/chats [get]
func (c *ChatController) GetChats(w http.ResponseWriter, r *http.Request) {
	userContext, ok := currentUser(r)
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	req := model.GetChatsRequest{
		Query:  r.URL.Query().Get("q"),
		Filter: r.URL.Query().Get("filter"),
	}

	resp, err := c.inboxService.ListConversations(r.Context(), userContext.ID, req)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccess(w, resp)
}

// GetChatByID godoc
// @Summary      Get Conversation
// @Description  Conversation detail from the current user's point of view.
// @Tags         chat
// @Produce      json
// @Param        chatID path string true "Chat ID"
// @Success      200  {object}  helper.ResponseSuccess{data=model.ChatDetailResponse}
// @Failure      400  {object}  helper.ResponseError
// @Failure      401  {object}  helper.ResponseError
// @Failure      403  {object}  helper.ResponseError
// @Failure      404  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/chats/{chatID} [get]
func (c *ChatController) GetChatByID(w http.ResponseWriter, r *http.Request) {
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

	resp, err := c.chatService.GetConversation(r.Context(), userContext.ID, chatID)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccess(w, resp)
}

// MarkAsRead godoc
// @Summary      Mark Conversation Read
// @Description  Reset the current user's unread counter and mark the other party's messages read. Store failures are not reported.
// @Tags         chat
// @Produce      json
// @Param        chatID path string true "Chat ID"
// @Success      200  {object}  helper.ResponseSuccess
// @Failure      400  {object}  helper.ResponseError
// @Failure      401  {object}  helper.ResponseError
// @Failure      403  {object}  helper.ResponseError
// @Failure      404  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/chats/{chatID}/read [post]
func (c *ChatController) MarkAsRead(w http.ResponseWriter, r *http.Request) {
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

	if err := c.readService.MarkRead(r.Context(), userContext.ID, chatID); err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccess(w, nil)
}
