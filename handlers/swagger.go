package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the article API.
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
    <title>articlehub - Swagger</title>
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
  "info": { "title": "articlehub", "version": "v1.0.0" },
  "components": {
    "securitySchemes": {
      "authtoken": { "type": "apiKey", "in": "header", "name": "authtoken" },
      "bearer": { "type": "http", "scheme": "bearer" }
    },
    "schemas": {
      "Comment": { "type": "object", "properties": { "postedBy": {"type":"string"}, "text": {"type":"string"} } },
      "Article": { "type": "object", "properties": {
        "name": {"type":"string"},
        "upvotes": {"type":"integer","minimum":0},
        "upvoterIds": {"type":"array","items":{"type":"string"}},
        "comments": {"type":"array","items":{"$ref":"#/components/schemas/Comment"}}
      } },
      "Error": { "type": "object", "properties": { "error": {"type":"string"} } }
    }
  },
  "paths": {
    "/api/articles": {
      "get": { "summary": "List articles", "responses": { "200": { "description": "articles sorted by name" }, "503": { "description": "store unavailable" } } }
    },
    "/api/articles/{name}": {
      "get": {
        "summary": "Get article metadata",
        "parameters": [ { "name": "name", "in": "path", "required": true, "schema": {"type":"string"} } ],
        "responses": { "200": { "description": "article, or null when unknown" }, "503": { "description": "store unavailable" } }
      }
    },
    "/api/articles/{name}/upvote": {
      "post": {
        "summary": "Upvote an article once per user",
        "security": [ {"authtoken": []}, {"bearer": []} ],
        "parameters": [ { "name": "name", "in": "path", "required": true, "schema": {"type":"string"} } ],
        "responses": {
          "200": { "description": "updated article" },
          "401": { "description": "missing or invalid credential" },
          "403": { "description": "already upvoted or no usable uid" },
          "404": { "description": "unknown article" },
          "503": { "description": "verifier or store unavailable" }
        }
      }
    },
    "/api/articles/{name}/comments": {
      "post": {
        "summary": "Add a comment",
        "security": [ {"authtoken": []}, {"bearer": []} ],
        "parameters": [ { "name": "name", "in": "path", "required": true, "schema": {"type":"string"} } ],
        "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Comment"} } } },
        "responses": {
          "200": { "description": "updated article" },
          "400": { "description": "malformed JSON" },
          "401": { "description": "missing or invalid credential" },
          "404": { "description": "unknown article" },
          "503": { "description": "verifier or store unavailable" }
        }
      }
    },
    "/api/me": {
      "get": { "summary": "Verified identity and reader profile", "security": [ {"authtoken": []}, {"bearer": []} ], "responses": { "200": { "description": "identity" }, "401": { "description": "missing or invalid credential" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "exposition format" } } } }
  }
}`
