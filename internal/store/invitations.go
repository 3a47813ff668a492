package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/existflow/taskboard/internal/model"
)

const invitationColumns = `id, email, workspace_id, inviter_email, status, created_at`

func scanInvitation(row interface{ Scan(...any) error }) (model.Invitation, error) {
	var inv model.Invitation
	var status, created string
	if err := row.Scan(&inv.ID, &inv.Email, &inv.WorkspaceID, &inv.InviterEmail, &status, &created); err != nil {
		return model.Invitation{}, notFound(err)
	}
	inv.Status = model.InvitationStatus(status)
	inv.CreatedAt = parseTime(created)
	return inv, nil
}

func collectInvitations(ctx context.Context, c conn, query string, args ...any) ([]model.Invitation, error) {
	rows, err := c.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Invitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// CreateInvitations invites each email to a workspace. Emails that already
// hold an invitation for it are skipped; only new invitations are returned.
func (s *Store) CreateInvitations(ctx context.Context, workspaceID, inviterEmail string, emails []string) ([]model.Invitation, error) {
	normalized := make([]string, 0, len(emails))
	for _, e := range emails {
		e = model.NormalizeEmail(e)
		if e == "" {
			continue
		}
		if !model.ValidEmail(e) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidEmail, e)
		}
		normalized = append(normalized, e)
	}

	created := []model.Invitation{}
	err := s.withTx(ctx, func(c conn) error {
		seen := map[string]bool{}
		for _, email := range normalized {
			if seen[email] {
				continue
			}
			seen[email] = true

			var n int
			err := c.queryRow(ctx,
				`SELECT COUNT(*) FROM invitations WHERE workspace_id = ? AND email = ?`, workspaceID, email).Scan(&n)
			if err != nil {
				return err
			}
			if n > 0 {
				continue
			}

			inv := model.Invitation{
				ID:           uuid.NewString(),
				Email:        email,
				WorkspaceID:  workspaceID,
				InviterEmail: model.NormalizeEmail(inviterEmail),
				Status:       model.InvitationPending,
				CreatedAt:    c.now,
			}
			_, err = c.exec(ctx, `
				INSERT INTO invitations (`+invitationColumns+`)
				VALUES (`+placeholders(6)+`)`,
				inv.ID, inv.Email, inv.WorkspaceID, inv.InviterEmail, string(inv.Status), formatTime(inv.CreatedAt),
			)
			if err != nil {
				return fmt.Errorf("insert invitation: %w", err)
			}
			created = append(created, inv)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetInvitation returns an invitation by id
func (s *Store) GetInvitation(ctx context.Context, id string) (model.Invitation, error) {
	c := s.conn()
	return scanInvitation(c.queryRow(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE id = ?`, id))
}

// ListInvitations returns every invitation of a workspace, newest first
func (s *Store) ListInvitations(ctx context.Context, workspaceID string) ([]model.Invitation, error) {
	return collectInvitations(ctx, s.conn(),
		`SELECT `+invitationColumns+` FROM invitations WHERE workspace_id = ? ORDER BY created_at DESC, id`, workspaceID)
}

// ListPendingInvitations returns the open invitations sent to email
func (s *Store) ListPendingInvitations(ctx context.Context, email string) ([]model.Invitation, error) {
	return collectInvitations(ctx, s.conn(),
		`SELECT `+invitationColumns+` FROM invitations WHERE email = ? AND status = ? ORDER BY created_at DESC, id`,
		model.NormalizeEmail(email), string(model.InvitationPending))
}

// AcceptInvitation marks an invitation accepted. Only the invitee may accept
// and only while it is pending.
func (s *Store) AcceptInvitation(ctx context.Context, id, userEmail string) (model.Invitation, error) {
	var inv model.Invitation
	err := s.withTx(ctx, func(c conn) error {
		var err error
		inv, err = scanInvitation(c.queryRow(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE id = ?`, id))
		if err != nil {
			return err
		}
		if inv.Email != model.NormalizeEmail(userEmail) {
			return ErrForbidden
		}
		if inv.Status != model.InvitationPending {
			return ErrAlreadyAccepted
		}
		inv.Status = model.InvitationAccepted
		_, err = c.exec(ctx, `UPDATE invitations SET status = ? WHERE id = ?`, string(inv.Status), id)
		return err
	})
	if err != nil {
		return model.Invitation{}, err
	}
	return inv, nil
}

// DeleteInvitation revokes an invitation of workspaceID
func (s *Store) DeleteInvitation(ctx context.Context, workspaceID, id string) error {
	c := s.conn()
	return mustAffect(c.exec(ctx, `DELETE FROM invitations WHERE id = ? AND workspace_id = ?`, id, workspaceID))
}
