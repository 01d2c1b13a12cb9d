package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/geoclaim/internal/pkg/errors"
	"github.com/geoclaim/internal/pkg/utils"
	"github.com/geoclaim/internal/pkg/validator"
)

// parseBody разбирает JSON-тело и валидирует его; ответ с ошибкой уже отправлен, если ok=false
func parseBody(c *fiber.Ctx, dst interface{}) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, utils.SendError(c, errors.ErrInvalidRequest.WithMessage("Invalid request body"))
	}
	return validate(c, dst)
}

// parseQuery разбирает query-параметры и валидирует их
func parseQuery(c *fiber.Ctx, dst interface{}) (bool, error) {
	if err := c.QueryParser(dst); err != nil {
		return false, utils.SendError(c, errors.ErrInvalidRequest.WithMessage("Invalid query parameters"))
	}
	return validate(c, dst)
}

func validate(c *fiber.Ctx, dst interface{}) (bool, error) {
	if err := validator.Validate(dst); err != nil {
		return false, utils.SendError(c, errors.ErrInvalidRequest.WithDetails(validator.Fields(err)))
	}
	return true, nil
}
