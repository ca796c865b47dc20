package handler

import (
	"encoding/json"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// jsonResponse marshals v into an API Gateway response with a JSON content
// type.
func jsonResponse(status int, v any) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(v)
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

func errorResponse(status int, msg string) events.APIGatewayProxyResponse {
	return jsonResponse(status, map[string]string{"error": msg})
}

// getHeader performs a case-insensitive header lookup; API Gateway does not
// normalize header casing.
func getHeader(req events.APIGatewayProxyRequest, name string) string {
	for k, v := range req.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
