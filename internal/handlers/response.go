package handlers

import (
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"

	"quickpoll/internal/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler renders any error returned by a handler or middleware as an
// ErrorResponse. Causes of internal errors are logged, never sent.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := apperror.As(err); ok {
		if appErr.Kind == apperror.KindInternal {
			log.Printf("Internal error on %s %s: %v", c.Method(), c.Path(), err)
		}
		return c.Status(appErr.Status()).JSON(ErrorResponse{
			Message: appErr.Message,
			Details: appErr.Details,
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(ErrorResponse{Message: fiberErr.Message})
	}

	log.Printf("Unexpected error on %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Message: "Internal Server Error",
		Details: "An unexpected error occurred. Please try again later.",
	})
}

// newValidator returns a validator that reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(nullableStringValue, NullableString{})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// normalizer is implemented by request bodies that clean their fields before validation.
type normalizer interface {
	normalize()
}

// bindJSON parses the request body into dst, normalizes it and validates it.
func bindJSON(c *fiber.Ctx, validate *validator.Validate, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		log.Printf("Error parsing request body: %v", err)
		return apperror.Validation("Invalid request body").WithDetails(err.Error())
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return apperror.Validation("Validation failed").WithDetails(err.Error())
		}
		messages := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			field := e.Namespace()
			if i := strings.Index(field, "."); i >= 0 {
				field = field[i+1:]
			}
			messages = append(messages, fmt.Sprintf("Field '%s' failed on the '%s' tag", field, e.Tag()))
		}
		return apperror.Validation("Validation failed").WithDetails(strings.Join(messages, "; "))
	}
	return nil
}

// paramID reads a positive integer path parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, apperror.Validation(fmt.Sprintf("Invalid %s", name)).WithDetails(fmt.Sprintf("'%s' must be a positive integer", c.Params(name)))
	}
	return uint(id), nil
}
