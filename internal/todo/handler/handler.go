package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tododocker/todo-backend/internal/todo"
	"github.com/tododocker/todo-backend/internal/todo/service"
	"github.com/tododocker/todo-backend/pkg/logger"
)

// Metadata is echoed in the listing response.
type Metadata struct {
	Version  string
	Database string
}

// CreateRequest is accepted as form fields or as a JSON body.
type CreateRequest struct {
	ItemName        string `json:"item_name" form:"item_name"`
	ItemDescription string `json:"item_description" form:"item_description"`
}

// Handler maps the todo service onto HTTP. Database and binding errors are
// logged here and never echoed to the client.
type Handler struct {
	svc  service.Service
	meta Metadata
	now  func() time.Time
}

func NewHandler(svc service.Service, meta Metadata) *Handler {
	return &Handler{svc: svc, meta: meta, now: time.Now}
}

// RegisterTodoRoutes wires the public endpoints on r.
func RegisterTodoRoutes(r gin.IRouter, svc service.Service, meta Metadata) *Handler {
	h := NewHandler(svc, meta)
	h.Register(r)
	return h
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/", h.Index)
	r.GET("/api", h.List)
	r.POST("/submittodoitem", h.Create)
	r.GET("/health", h.Health)
}

// List returns every todo, newest first, with a metadata block.
func (h *Handler) List(c *gin.Context) {
	ctx := c.Request.Context()
	if !h.svc.HealthCheck(ctx).Healthy {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database connection not available", "todos": []todo.Item{}})
		return
	}
	todos := h.svc.ListTodos(ctx)
	c.JSON(http.StatusOK, gin.H{
		"todos": todos,
		"metadata": gin.H{
			"version":      h.meta.Version,
			"last_updated": h.now().Format("2006-01-02"),
			"total_todos":  len(todos),
			"database":     h.meta.Database,
		},
	})
}

// Create validates item_name/item_description and stores a new todo.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBind(&req); err != nil {
		logger.Warnf("submittodoitem: cannot bind request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Both item name and description are required!"})
		return
	}
	name := strings.TrimSpace(req.ItemName)
	description := strings.TrimSpace(req.ItemDescription)
	if name == "" || description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Both item name and description are required!"})
		return
	}

	ctx := c.Request.Context()
	if !h.svc.HealthCheck(ctx).Healthy {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database connection error. Please try again later."})
		return
	}
	if !h.svc.AddTodo(ctx, name, description, c.ClientIP()) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error saving todo item. Please try again."})
		return
	}
	msg := fmt.Sprintf("Todo item %q added successfully!", name)
	logger.Infof("%s", msg)
	c.JSON(http.StatusCreated, gin.H{"message": msg, "success": true})
}

// Health reports 200 when the database answers a probe, 503 otherwise.
func (h *Handler) Health(c *gin.Context) {
	ok := h.svc.HealthCheck(c.Request.Context()).Healthy
	status, code := "healthy", http.StatusOK
	if !ok {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":             status,
		"database_connected": ok,
		"timestamp":          h.now().UTC().Format(time.RFC3339Nano),
	})
}

// Index describes the API; it is always 200.
func (h *Handler) Index(c *gin.Context) {
	ok := h.svc.HealthCheck(c.Request.Context()).Healthy
	status := "MongoDB Connection Failed"
	if ok {
		status = "Connected to MongoDB"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":            "Todo Backend API",
		"status":             status,
		"database_connected": ok,
		"endpoints": gin.H{
			"/api":            "GET - Fetch all todos",
			"/submittodoitem": "POST - Add new todo",
			"/health":         "GET - Health check",
		},
	})
}
