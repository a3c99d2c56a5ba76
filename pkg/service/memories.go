package service

import (
	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
	"github.com/theapemachine/recall/pkg/analyzer"
	"github.com/theapemachine/recall/pkg/errors"
	"github.com/theapemachine/recall/pkg/memory"
	"github.com/theapemachine/recall/pkg/stores/sqlite"
)

/*
handleCapture runs the full capture pipeline: validate, analyze, embed,
persist.  Analysis and embedding are both best-effort; only validation and
persistence failures reach the client.
*/
func (srv *Server) handleCapture(ctx fiber.Ctx) error {
	var capture memory.CaptureData

	if err := ctx.Bind().Body(&capture); err != nil {
		return fail(ctx, errors.ErrInvalidArgument.WithMessagef("invalid capture payload"))
	}

	metadata, err := srv.analyzer.Analyze(ctx, capture)

	if err != nil {
		return fail(ctx, err)
	}

	m := memory.Memory{
		OwnerID:      owner(ctx),
		URL:          capture.URL,
		Title:        capture.Title,
		Domain:       capture.Domain,
		Favicon:      capture.Favicon,
		PageType:     capture.PageType,
		SelectedText: capture.SelectedText,
		Summary:      metadata.Summary,
		Intent:       metadata.Intent,
		Tags:         metadata.Tags,
		Importance:   metadata.Importance,
	}

	embedding, err := srv.embedder.Embed(
		ctx, analyzer.EmbeddingText(capture, metadata),
	)

	if err != nil {
		log.Warn("embedding failed, capture saved without vector", "url", capture.URL, "error", err)
	} else {
		m.Embedding = embedding
	}

	if err := srv.store.Create(ctx, &m); err != nil {
		return fail(ctx, err)
	}

	if srv.mirror != nil {
		if err := srv.mirror.Upsert(ctx, m); err != nil {
			log.Warn("qdrant mirror upsert failed", "id", m.ID, "error", err)
		}
	}

	return ok(ctx, fiber.StatusCreated, m)
}

func (srv *Server) handleList(ctx fiber.Ctx) error {
	query := sqlite.ListQuery{
		Tag:    ctx.Query("tag"),
		Intent: ctx.Query("intent"),
		Page:   fiber.Query(ctx, "page", 1),
		Limit:  fiber.Query(ctx, "limit", 20),
	}

	memories, total, err := srv.store.List(ctx, owner(ctx), query)

	if err != nil {
		return fail(ctx, err)
	}

	return ok(ctx, fiber.StatusOK, fiber.Map{
		"memories": memories,
		"total":    total,
		"page":     query.Page,
		"limit":    query.Limit,
	})
}

// handleGet returns one memory and records the revisit.
func (srv *Server) handleGet(ctx fiber.Ctx) error {
	id, ownerID := ctx.Params("id"), owner(ctx)

	if err := srv.store.Touch(ctx, id, ownerID); err != nil {
		return fail(ctx, err)
	}

	m, err := srv.store.Get(ctx, id, ownerID)

	if err != nil {
		return fail(ctx, err)
	}

	return ok(ctx, fiber.StatusOK, m)
}

func (srv *Server) handleUpdate(ctx fiber.Ctx) error {
	var params sqlite.UpdateParams

	if err := ctx.Bind().Body(&params); err != nil {
		return fail(ctx, errors.ErrInvalidArgument.WithMessagef("invalid update payload"))
	}

	id, ownerID := ctx.Params("id"), owner(ctx)

	if err := srv.store.Update(ctx, id, ownerID, params); err != nil {
		return fail(ctx, err)
	}

	m, err := srv.store.Get(ctx, id, ownerID)

	if err != nil {
		return fail(ctx, err)
	}

	return ok(ctx, fiber.StatusOK, m)
}

func (srv *Server) handleDelete(ctx fiber.Ctx) error {
	id := ctx.Params("id")

	if err := srv.store.Delete(ctx, id, owner(ctx)); err != nil {
		return fail(ctx, err)
	}

	if srv.mirror != nil {
		if err := srv.mirror.Delete(ctx, id); err != nil {
			log.Warn("qdrant mirror delete failed", "id", id, "error", err)
		}
	}

	return ok(ctx, fiber.StatusOK, fiber.Map{"deleted": id})
}

func (srv *Server) handleStats(ctx fiber.Ctx) error {
	stats, err := srv.store.Stats(ctx, owner(ctx))

	if err != nil {
		return fail(ctx, err)
	}

	return ok(ctx, fiber.StatusOK, stats)
}
