package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/existflow/taskboard/internal/logger"
	"github.com/existflow/taskboard/internal/mail"
	"github.com/existflow/taskboard/internal/model"
	"github.com/existflow/taskboard/internal/realtime"
	"github.com/existflow/taskboard/internal/store"
)

type invitationRequest struct {
	Emails []string `json:"emails" validate:"required,min=1,max=50,dive,required,email"`
}

func (s *Server) handleListInvitations(c echo.Context) error {
	invites, err := s.store.ListInvitations(c.Request().Context(), workspace(c).ID)
	if err != nil {
		return s.fail(c, err)
	}
	if invites == nil {
		invites = []model.Invitation{}
	}
	return c.JSON(http.StatusOK, invites)
}

// handleCreateInvitations invites each address once and emails the new
// invitees. Addresses already invited are skipped.
func (s *Server) handleCreateInvitations(c echo.Context) error {
	var req invitationRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	ws := workspace(c)

	inviter, err := s.store.GetUser(ctx, userID(c))
	if err != nil {
		return s.fail(c, err)
	}

	created, err := s.store.CreateInvitations(ctx, ws.ID, inviter.Email, req.Emails)
	if err != nil {
		return s.fail(c, err)
	}

	for _, inv := range created {
		if err := s.mailer.Send(ctx, mail.InvitationMessage(inv.Email, inviter.Email, ws.Name)); err != nil {
			// The invitation stands; the invitee still sees it after signing in
			logger.Warn("failed to send invitation email",
				logger.F("invitation", inv.ID), logger.F("error", err.Error()))
		}
		s.publish(c, realtime.InvitationCreated, inv.ID, inv)
	}
	if created == nil {
		created = []model.Invitation{}
	}
	return c.JSON(http.StatusCreated, created)
}

// handleDeleteInvitation revokes an invitation. An invitee who already
// joined loses access, so their open feeds are closed.
func (s *Server) handleDeleteInvitation(c echo.Context) error {
	ctx := c.Request().Context()
	ws := workspace(c)

	inv, err := s.store.GetInvitation(ctx, c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	if inv.WorkspaceID != ws.ID {
		return s.fail(c, store.ErrNotFound)
	}
	if err := s.store.DeleteInvitation(ctx, ws.ID, inv.ID); err != nil {
		return s.fail(c, err)
	}
	s.publish(c, realtime.InvitationDeleted, inv.ID, inv)

	invitee, err := s.store.GetUserByEmail(ctx, inv.Email)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		logger.Warn("failed to look up invitee", logger.F("invitation", inv.ID), logger.F("error", err.Error()))
	case invitee.ID != ws.OwnerID:
		s.hub.Disconnect(ws.ID, invitee.ID)
	}

	logger.Info("Invitation revoked", logger.F("workspace", ws.ID), logger.F("email", inv.Email))
	return c.NoContent(http.StatusNoContent)
}

// handlePendingInvitations lists invitations addressed to the caller
func (s *Server) handlePendingInvitations(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := s.store.GetUser(ctx, userID(c))
	if err != nil {
		return s.fail(c, err)
	}

	invites, err := s.store.ListPendingInvitations(ctx, user.Email)
	if err != nil {
		return s.fail(c, err)
	}
	if invites == nil {
		invites = []model.Invitation{}
	}
	return c.JSON(http.StatusOK, invites)
}

// handleAcceptInvitation joins the caller to the invitation's workspace
func (s *Server) handleAcceptInvitation(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := s.store.GetUser(ctx, userID(c))
	if err != nil {
		return s.fail(c, err)
	}

	inv, err := s.store.AcceptInvitation(ctx, c.Param("id"), user.Email)
	if err != nil {
		return s.fail(c, err)
	}

	logger.Info("Invitation accepted", logger.F("workspace", inv.WorkspaceID), logger.F("email", user.Email))
	s.hub.Publish(realtime.Event{
		Type:        realtime.InvitationUpdated,
		WorkspaceID: inv.WorkspaceID,
		EntityID:    inv.ID,
		Actor:       user.ID,
		Data:        inv,
	})
	return c.JSON(http.StatusOK, inv)
}
