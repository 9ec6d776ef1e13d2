// Package httpresp renders handler outcomes as fiber HTTP responses.
//
// Each failure kind has one status code: not found 404, validation 400, conflict 409,
// unauthorized 401, forbidden 403 and unexpected 500. Unexpected failures never expose
// their message to clients.
package httpresp

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/blocks/meta"
	"github.com/rise-and-shine/blocks/pagination"
	"github.com/rise-and-shine/blocks/result"
)

const internalMessage = "internal server error"

// errorSchema defines the structure of error responses returned to clients.
type errorSchema struct {
	Kind    result.Kind       `json:"kind"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Trace   string            `json:"trace,omitempty"`
	Details map[string]any    `json:"details,omitempty"`
}

type errorBody struct {
	TraceID string      `json:"trace_id,omitempty"`
	Error   errorSchema `json:"error"`
}

// StatusOf returns the HTTP status for a failure kind.
func StatusOf(k result.Kind) int {
	switch k {
	case result.NotFound:
		return fiber.StatusNotFound
	case result.ValidationFailed:
		return fiber.StatusBadRequest
	case result.Conflict:
		return fiber.StatusConflict
	case result.Unauthorized:
		return fiber.StatusUnauthorized
	case result.Forbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// Write renders the value of a success with status, or the failure with the status of its kind.
func Write[T any](c *fiber.Ctx, r result.Result[T], status int) error {
	if r.IsFail() {
		return writeInfo(c, r.Error())
	}
	return c.Status(status).JSON(r.Value())
}

// OK renders r with 200 on success.
func OK[T any](c *fiber.Ctx, r result.Result[T]) error {
	return Write(c, r, fiber.StatusOK)
}

// Created renders r with 201 on success.
func Created[T any](c *fiber.Ctx, r result.Result[T]) error {
	return Write(c, r, fiber.StatusCreated)
}

// NoContent renders an empty 204 on success.
func NoContent[T any](c *fiber.Ctx, r result.Result[T]) error {
	if r.IsFail() {
		return writeInfo(c, r.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ParseFilter reads search_by, sort_field, sort_direction, page_number and page_size
// from the query string.
func ParseFilter(c *fiber.Ctx, opts ...pagination.Option) (*pagination.Filter, error) {
	var req pagination.Request
	if err := c.QueryParser(&req); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return req.ToFilter(opts...), nil
}

func writeInfo(c *fiber.Ctx, info result.ErrorInfo) error {
	schema := errorSchema{
		Kind:    info.Kind,
		Code:    info.Code,
		Message: info.Message,
		Fields:  info.Fields,
	}
	if !info.Kind.Expected() {
		schema.Kind = result.Unexpected
		schema.Message = internalMessage
	}

	return c.Status(StatusOf(info.Kind)).JSON(errorBody{
		TraceID: meta.Find(c.UserContext(), meta.TraceID),
		Error:   schema,
	})
}
