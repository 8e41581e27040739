// Package server exposes an Environment over HTTP.
package server

import (
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/jg-rp/liquid-extra/pkg/expression"
	"github.com/jg-rp/liquid-extra/pkg/liquid"
	"github.com/jg-rp/liquid-extra/pkg/logger"
)

// Response is the envelope of every reply.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

const (
	CodeSuccess     = 0
	CodeBadRequest  = 400
	CodeRenderError = 422
	CodeInternal    = 500
)

type RenderRequest struct {
	Template string         `json:"template"`
	Data     map[string]any `json:"data"`
}

type RenderResult struct {
	Output string `json:"output"`
}

type ParseRequest struct {
	Expression string `json:"expression"`
}

type ParseResult struct {
	Canonical string `json:"canonical"`
}

type TemplateErrorData struct {
	Template string `json:"template,omitempty"`
	Line     int    `json:"line"`
}

// Config tunes the HTTP layer.
type Config struct {
	// Zero means the fiber default.
	BodyLimit int
}

// New returns an app that renders templates with env.
func New(env *liquid.Environment, cfg Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "liquid-extra",
		BodyLimit:             cfg.BodyLimit,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	h := &handler{env: env}
	app.Use(recover.New(recover.Config{
		EnableStackTrace:  true,
		StackTraceHandler: logPanic,
	}))
	app.Use(requestLog)
	app.Get("/health", h.health)
	app.Post("/render", h.render)
	app.Post("/parse", h.parse)
	return app
}

func requestLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	logger.L().Debug("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("elapsed", time.Since(start)))
	return err
}

func logPanic(c *fiber.Ctx, e any) {
	logger.L().Error("panic while serving request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Any("panic", e),
		zap.Stack("stack"))
}

// errorHandler wraps errors that escape a handler, recovered panics
// included, in the response envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	status, code, message := fiber.StatusInternalServerError, CodeInternal, "internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status, code, message = fe.Code, fe.Code, fe.Message
	} else {
		logger.L().Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return failure(c, status, code, message, nil)
}

type handler struct {
	env *liquid.Environment
}

func (h *handler) health(c *fiber.Ctx) error {
	return success(c, fiber.Map{"filters": len(h.env.FilterNames())})
}

func (h *handler) render(c *fiber.Ctx) error {
	var req RenderRequest
	if err := c.BodyParser(&req); err != nil {
		return failure(c, fiber.StatusBadRequest, CodeBadRequest, "invalid request body", nil)
	}
	tpl, err := h.env.FromString(req.Template)
	if err != nil {
		return templateFailure(c, err)
	}
	out, err := tpl.RenderAsync(c.UserContext(), req.Data)
	if err != nil {
		return templateFailure(c, err)
	}
	return success(c, RenderResult{Output: out})
}

func (h *handler) parse(c *fiber.Ctx) error {
	var req ParseRequest
	if err := c.BodyParser(&req); err != nil {
		return failure(c, fiber.StatusBadRequest, CodeBadRequest, "invalid request body", nil)
	}
	expr, err := expression.ParseFilteredIf(req.Expression)
	if err != nil {
		return failure(c, fiber.StatusUnprocessableEntity, CodeRenderError, err.Error(), nil)
	}
	return success(c, ParseResult{Canonical: expr.String()})
}

func templateFailure(c *fiber.Ctx, err error) error {
	var data any
	var te *liquid.TemplateError
	if errors.As(err, &te) {
		data = TemplateErrorData{Template: te.Name, Line: te.Line}
	}
	logger.L().Warn("template failed", zap.Error(err))
	return failure(c, fiber.StatusUnprocessableEntity, CodeRenderError, err.Error(), data)
}

func success(c *fiber.Ctx, data any) error {
	return c.JSON(Response{Code: CodeSuccess, Message: "success", Data: data})
}

func failure(c *fiber.Ctx, status, code int, message string, data any) error {
	return c.Status(status).JSON(Response{Code: code, Message: message, Data: data})
}
