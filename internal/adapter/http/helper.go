package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"bnpl-ledger/internal/domain/errs"

	"github.com/labstack/echo/v4"
)

// statusFor maps a ledger error kind to an HTTP status.
func statusFor(k errs.Kind) int {
	switch k {
	case errs.InvalidInput, errs.ZeroAmount, errs.ZeroAddress:
		return http.StatusBadRequest
	case errs.Unauthorized:
		return http.StatusForbidden
	case errs.LoanNotFound, errs.MerchantNotFound:
		return http.StatusNotFound
	case errs.ActiveLoanExists, errs.MerchantAlreadyExists:
		return http.StatusConflict
	case errs.ProtocolPaused:
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}

// fail writes err as an ErrorResponse. Errors without a kind are logged and
// reported as 500 without detail.
func fail(c echo.Context, err error) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return c.JSON(statusFor(e.Kind), ErrorResponse{Error: e.Error(), Kind: string(e.Kind)})
	}
	log.Printf("http: %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// bindAndValidate decodes the JSON body into req and runs the validator.
// On failure the response is already written and ok is false.
func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errs.New(errs.InvalidInput, "%s must be a non-negative integer", name)
	}
	return n, nil
}

func queryUint(c echo.Context, name string) (uint64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errs.New(errs.InvalidInput, "%s must be a non-negative integer", name)
	}
	return n, nil
}

func pathLoanID(c echo.Context) (uint64, error) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || n == 0 {
		return 0, errs.New(errs.InvalidInput, "loan id must be a positive integer")
	}
	return n, nil
}
