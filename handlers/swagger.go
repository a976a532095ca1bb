package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the duck service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
// basePath is where the duck routes are mounted.
func RegisterSwagger(r gin.IRouter, basePath string) {
	doc := []byte(strings.ReplaceAll(swaggerJSON, "{base}", strings.TrimRight(basePath, "/")))

	r.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	r.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", doc)
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>duck-service Swagger</title>
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
  "info": { "title": "duck-service", "version": "v1.0.0" },
  "components": {
    "schemas": {
      "Duck": { "type": "object", "properties": { "_id": { "type": "string", "format": "uuid" }, "name": { "type": "string", "maxLength": 128 } }, "additionalProperties": true },
      "DuckInput": { "type": "object", "properties": { "name": { "type": "string", "minLength": 1, "maxLength": 128 } }, "additionalProperties": true },
      "UpdateResult": { "type": "object", "properties": { "acknowledged": { "type": "boolean" }, "matchedCount": { "type": "integer" }, "modifiedCount": { "type": "integer" } } },
      "Message": { "type": "string" }
    }
  },
  "paths": {
    "{base}": {
      "get": { "summary": "List ducks ordered by identifier", "responses": { "200": { "description": "all ducks", "content": { "application/json": { "schema": { "type": "array", "items": { "$ref": "#/components/schemas/Duck" } } } } }, "500": { "description": "store failure" } } },
      "post": {
        "summary": "Create a duck",
        "requestBody": { "required": true, "content": { "application/json": { "schema": { "$ref": "#/components/schemas/DuckInput" } } } },
        "responses": { "201": { "description": "created duck" }, "400": { "description": "invalid body" }, "500": { "description": "store failure" } }
      }
    },
    "{base}/{uid}": {
      "parameters": [ { "name": "uid", "in": "path", "required": true, "schema": { "type": "string" } } ],
      "get": { "summary": "Get a duck; null when missing", "responses": { "200": { "description": "duck or null" }, "500": { "description": "store failure" } } },
      "put": {
        "summary": "Set fields on a duck",
        "requestBody": { "required": true, "content": { "application/json": { "schema": { "$ref": "#/components/schemas/DuckInput" } } } },
        "responses": { "200": { "description": "update outcome", "content": { "application/json": { "schema": { "$ref": "#/components/schemas/UpdateResult" } } } }, "400": { "description": "invalid body" }, "500": { "description": "store failure" } }
      },
      "delete": { "summary": "Delete a duck", "responses": { "204": { "description": "deleted; X-Deleted-Count holds the count" }, "500": { "description": "store failure" } } }
    },
    "/admin/snapshots": {
      "post": { "summary": "Export all ducks to object storage", "responses": { "201": { "description": "snapshot key, count and presigned url" }, "500": { "description": "export failure" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics in text format" } } } }
  }
}`
