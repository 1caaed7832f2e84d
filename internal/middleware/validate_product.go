package middleware

import (
	"catalog/internal/models"
	"catalog/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const productInputKey = "productInput"

// ValidateProduct checks the request body and stores the decoded input for
// the next handler. Invalid bodies never reach the handler.
func ValidateProduct(v *validation.ProductValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := v.Validate(c.Body())
		if err != nil {
			return err
		}
		c.Locals(productInputKey, input)
		return c.Next()
	}
}

// ProductInput returns the input stored by ValidateProduct.
func ProductInput(c *fiber.Ctx) (models.ProductInput, bool) {
	input, ok := c.Locals(productInputKey).(models.ProductInput)
	return input, ok
}
