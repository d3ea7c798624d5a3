package handler

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"warrantyai/internal/model"
)

// ServiceAreaVerifier resolves a ZIP code into a policy decision.
// Implemented by eligibility.Service.
type ServiceAreaVerifier interface {
	VerifyServiceArea(ctx context.Context, zip string) (model.EligibilityDecision, error)
}

// agentActionRequest is the invocation envelope an agent runtime sends for a
// single action-group call.
type agentActionRequest struct {
	MessageVersion string           `json:"messageVersion"`
	ActionGroup    string           `json:"actionGroup"`
	APIPath        string           `json:"apiPath"`
	HTTPMethod     string           `json:"httpMethod"`
	Parameters     []agentParameter `json:"parameters"`
}

type agentParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// agentActionResponse echoes the invocation identifiers around the result
// payload, which travels JSON-encoded under responseBody.
type agentActionResponse struct {
	MessageVersion string             `json:"messageVersion"`
	Response       agentActionPayload `json:"response"`
}

type agentActionPayload struct {
	ActionGroup    string                  `json:"actionGroup"`
	APIPath        string                  `json:"apiPath"`
	HTTPStatusCode int                     `json:"httpStatusCode"`
	ResponseBody   map[string]agentContent `json:"responseBody"`
}

type agentContent struct {
	Body string `json:"body"`
}

// AgentActions dispatches agent action-group invocations. The only action
// today is /verify-service-area.
func AgentActions(verifier ServiceAreaVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req agentActionRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		switch req.APIPath {
		case "/verify-service-area":
			params := make(map[string]string, len(req.Parameters))
			for _, p := range req.Parameters {
				params[p.Name] = p.Value
			}
			zip, ok := params["zip_code"]
			if !ok {
				zip = "unknown"
			}

			decision, err := verifier.VerifyServiceArea(c.UserContext(), zip)
			if err != nil {
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
			return c.JSON(agentResponse(req, fiber.StatusOK, decision))
		default:
			return writeError(c, fiber.StatusBadRequest, "UNKNOWN_ACTION", "unknown api path")
		}
	}
}

func agentResponse(req agentActionRequest, status int, result any) agentActionResponse {
	body, err := json.Marshal(result)
	if err != nil {
		body = []byte("{}")
	}
	return agentActionResponse{
		MessageVersion: "1.0",
		Response: agentActionPayload{
			ActionGroup:    req.ActionGroup,
			APIPath:        req.APIPath,
			HTTPStatusCode: status,
			ResponseBody: map[string]agentContent{
				"application/json": {Body: string(body)},
			},
		},
	}
}
