package service

import (
	"github.com/gofiber/fiber/v3"
	"github.com/theapemachine/recall/pkg/chat"
	"github.com/theapemachine/recall/pkg/errors"
	"github.com/theapemachine/recall/pkg/search"
)

type searchRequest struct {
	Query string `json:"query"`
	Limit *int   `json:"limit"`
}

type chatRequest struct {
	Question    string `json:"question"`
	MaxMemories *int   `json:"maxMemories"`
}

type suggestionsRequest struct {
	Topic string `json:"topic"`
}

func (srv *Server) handleSearch(ctx fiber.Ctx) error {
	var req searchRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return fail(ctx, errors.ErrInvalidArgument.WithMessagef("invalid search payload"))
	}

	limit := search.DefaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	results, err := srv.searcher.Search(ctx, owner(ctx), req.Query, limit)

	if err != nil {
		return fail(ctx, err)
	}

	return ok(ctx, fiber.StatusOK, fiber.Map{
		"results": results,
		"count":   len(results),
	})
}

func (srv *Server) handleChat(ctx fiber.Ctx) error {
	var req chatRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return fail(ctx, errors.ErrInvalidArgument.WithMessagef("invalid chat payload"))
	}

	maxMemories := chat.DefaultMaxMemories
	if req.MaxMemories != nil {
		maxMemories = *req.MaxMemories
	}

	answer, err := srv.engine.Chat(ctx, owner(ctx), req.Question, maxMemories)

	if err != nil {
		return fail(ctx, err)
	}

	return ok(ctx, fiber.StatusOK, answer)
}

func (srv *Server) handleSuggestions(ctx fiber.Ctx) error {
	var req suggestionsRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return fail(ctx, errors.ErrInvalidArgument.WithMessagef("invalid suggestions payload"))
	}

	questions, err := srv.engine.SuggestQuestions(ctx, owner(ctx), req.Topic)

	if err != nil {
		return fail(ctx, err)
	}

	return ok(ctx, fiber.StatusOK, fiber.Map{"suggestions": questions})
}
