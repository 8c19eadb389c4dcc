package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers the API documentation endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>todo-backend - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "todo-backend", "version": "2.0" },
  "components": {
    "schemas": {
      "TodoItem": {
        "type": "object",
        "properties": {
          "id": { "type": "string" },
          "name": { "type": "string" },
          "description": { "type": "string" },
          "completed": { "type": "boolean" },
          "created_at": { "type": "string", "format": "date-time" },
          "ip_address": { "type": "string" }
        }
      },
      "NewTodo": {
        "type": "object",
        "required": ["item_name", "item_description"],
        "properties": { "item_name": { "type": "string" }, "item_description": { "type": "string" } }
      }
    }
  },
  "paths": {
    "/": { "get": { "summary": "API information", "responses": { "200": { "description": "service summary and endpoint list" } } } },
    "/api": {
      "get": {
        "summary": "Fetch all todos, newest first",
        "responses": {
          "200": { "description": "todos and metadata", "content": { "application/json": { "schema": { "type": "object", "properties": { "todos": { "type": "array", "items": { "$ref": "#/components/schemas/TodoItem" } }, "metadata": { "type": "object" } } } } } },
          "500": { "description": "database unavailable" }
        }
      }
    },
    "/submittodoitem": {
      "post": {
        "summary": "Add a new todo",
        "requestBody": { "content": {
          "application/json": { "schema": { "$ref": "#/components/schemas/NewTodo" } },
          "application/x-www-form-urlencoded": { "schema": { "$ref": "#/components/schemas/NewTodo" } }
        } },
        "responses": { "201": { "description": "created" }, "400": { "description": "missing name or description" }, "500": { "description": "database unavailable or save failed" } }
      }
    },
    "/health": { "get": { "summary": "Database connectivity check", "responses": { "200": { "description": "healthy" }, "503": { "description": "unhealthy" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "text exposition format" } } } }
  }
}`
