package api

import (
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/api/middleware"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
)

func RegisterRoutes(container *restful.Container, handler *Handler) {
	ws := new(restful.WebService)

	ws.
		Path("/api/v1").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	// Health endpoint
	ws.
		Route(ws.GET("health").
			To(handler.Health).
			Doc("Health check").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(HealthResponse{}).
			Returns(200, "OK", HealthResponse{}))

	ws.
		Route(ws.POST("/check").
			To(handler.Check).
			Doc("Check band names against the content safety policy").
			Metadata(restfulspec.KeyOpenAPITags, []string{"check"}).
			Reads(models.CheckRequest{}).
			Writes(models.CheckResponse{}).
			Returns(200, "OK", models.CheckResponse{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/check/{name}").
			To(handler.CheckName).
			Doc("Check a single band name").
			Metadata(restfulspec.KeyOpenAPITags, []string{"check"}).
			Param(ws.PathParameter("name", "Band name to check").DataType("string")).
			Param(ws.QueryParameter("threshold", "Blocking threshold (0, 2, 4 or 6)").DataType("integer").Required(false)).
			Param(ws.QueryParameter("categories", "Comma separated categories (Hate, SelfHarm, Sexual, Violence)").DataType("string").Required(false)).
			Param(ws.QueryParameter("variants", "Also check casing and spacing variants").DataType("boolean").Required(false)).
			Writes(models.CheckResponse{}).
			Returns(200, "OK", models.CheckResponse{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	container.Add(ws)
}

// RegisterOpenAPI serves the generated API document at /apidocs.json.
func RegisterOpenAPI(container *restful.Container) {
	config := restfulspec.Config{
		WebServices: container.RegisteredWebServices(),
		APIPath:     "/apidocs.json",
	}
	container.Add(restfulspec.NewOpenAPIService(config))
}
