package service

import (
	"github.com/gofiber/fiber/v3"
	"github.com/theapemachine/recall/pkg/errors"
)

const ownerKey = "ownerID"

/*
requireOwner resolves the request's credential to an owner ID and stashes
it in the request locals.  The extension sends its key as X-API-Key; the
web client sends a bearer token.  Both resolve through the same auth
service.
*/
func (srv *Server) requireOwner(ctx fiber.Ctx) error {
	credential := ctx.Get("X-API-Key")

	if credential == "" {
		credential = ctx.Get("Authorization")
	}

	ownerID, err := srv.auth.Authenticate(credential)

	if err != nil {
		return fail(ctx, errors.ErrUnauthorized)
	}

	ctx.Locals(ownerKey, ownerID)
	return ctx.Next()
}

func owner(ctx fiber.Ctx) string {
	ownerID, _ := ctx.Locals(ownerKey).(string)
	return ownerID
}
