package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"todo-list/backend/internal/models"
	"todo-list/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

// ContextUserID is the gin context key the auth middleware stores the
// caller's id under.
const ContextUserID = "user_id"

type TodoHandler struct {
	todoService services.TodoService
}

func NewTodoHandler(todoService services.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

// ownerFrom resolves the authenticated caller. When it returns false the
// 401 response has already been written.
func ownerFrom(c *gin.Context) (uuid.UUID, bool) {
	var id uuid.UUID
	value, _ := c.Get(ContextUserID)
	switch v := value.(type) {
	case string:
		id = uuid.FromStringOrNil(v)
	case uuid.UUID:
		id = v
	}
	if id == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": services.ErrUnauthorized.Error()})
		return uuid.Nil, false
	}
	return id, true
}

// storeContext keeps request values but drops cancellation: once issued, a
// datastore call runs to completion even if the client goes away.
func storeContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func (h *TodoHandler) ListTodos(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}

	todos, err := h.todoService.ListTodos(storeContext(c), owner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, todos)
}

func (h *TodoHandler) CreateTodo(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}

	var input models.TodoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	todo, err := h.todoService.CreateTodo(storeContext(c), owner, input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": todo})
}

func (h *TodoHandler) UpdateTodo(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}

	patch, err := bindPatch(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	todo, err := h.todoService.UpdateTodo(storeContext(c), owner, id, patch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": todo})
}

// bindPatch reads an update body. An empty body is an empty patch, which
// still refreshes date_modified.
func bindPatch(c *gin.Context) (models.TodoPatch, error) {
	var patch models.TodoPatch
	data, err := c.GetRawData()
	if err != nil {
		return patch, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return patch, nil
	}
	err = json.Unmarshal(data, &patch)
	return patch, err
}

func (h *TodoHandler) DeleteTodo(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.todoService.DeleteTodo(storeContext(c), owner, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
