package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"warrantyai/internal/service"
	"warrantyai/internal/storage"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Keep handlers minimal and free of business logic.
func RegisterRoutes(
	app *fiber.App,
	db *sql.DB,
	docSvc service.DocumentService,
	answers Answerer,
	verifier ServiceAreaVerifier,
	events chan<- storage.Event,
) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	tenants := app.Group("/tenants/:tenant")
	tenants.Get("/documents", ListDocuments(docSvc))
	tenants.Post("/documents", UploadDocument(docSvc))
	tenants.Get("/documents/:id", GetDocument(docSvc))
	tenants.Delete("/documents/:id", DeleteDocument(docSvc))
	tenants.Post("/ask", Ask(answers))

	app.Post("/agent/actions", AgentActions(verifier))
	app.Post("/events", Events(events))
}
