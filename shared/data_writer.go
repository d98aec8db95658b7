package shared

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
)

// Response is the uniform envelope for success and failure bodies.
type Response struct {
	Success   bool        `json:"success"`
	Code      int         `json:"code"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp string      `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

var jsonAPI = sonic.Config{
	UseNumber:            true,
	EscapeHTML:           false,
	SortMapKeys:          false,
	CompactMarshaler:     true,
	NoQuoteTextMarshaler: true,
	NoNullSliceOrMap:     true,
}.Froze()

// JSONAPI exposes the frozen sonic config for callers that marshal
// outside the response path (audit snapshots, body rewriting).
func JSONAPI() sonic.API {
	return jsonAPI
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(RequestID).(string); ok {
		return id
	}
	return ""
}

func writeJSON(c *fiber.Ctx, httpCode int, resp Response) error {
	body, err := jsonAPI.Marshal(resp)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Status(httpCode).Send(body)
}

func ResponseJSON(c *fiber.Ctx, httpCode int, message string, data interface{}) error {
	return writeJSON(c, httpCode, Response{
		Success:   httpCode < 400,
		Code:      httpCode,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID(c),
	})
}

func ResponseOK(c *fiber.Ctx, data interface{}) error {
	return ResponseJSON(c, fiber.StatusOK, "Success", data)
}

func ResponseCreated(c *fiber.Ctx, data interface{}) error {
	return ResponseJSON(c, fiber.StatusCreated, "Created", data)
}

func ResponseError(c *fiber.Ctx, httpCode int, message string, details interface{}) error {
	return writeJSON(c, httpCode, Response{
		Success:   false,
		Code:      httpCode,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID(c),
	})
}
