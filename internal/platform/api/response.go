// Package api defines the JSON envelope and the error taxonomy shared by
// every endpoint: {"success":true,"data":...} on success and
// {"success":false,"error":{"code","message"}} on failure.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// OK writes a success envelope with status 200.
func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

// Created writes a success envelope with status 201.
func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

// Fail classifies err and writes the matching failure envelope.
func Fail(c echo.Context, err error) error {
	apiErr := AsError(err)
	return c.JSON(apiErr.Status(), envelope{Success: false, Error: apiErr})
}
