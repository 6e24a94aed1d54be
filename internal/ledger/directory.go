package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateGroup creates a group with the creator as its first joined member.
func (s *Service) CreateGroup(ctx context.Context, creatorID, name, description, icon string) (*models.Group, error) {
	const op = "CreateGroup"
	name = cleanText(name)
	if creatorID == "" {
		return nil, s.fail(op, invalid("creator is required"), nil)
	}
	if name == "" {
		return nil, s.fail(op, invalid("group name is required"), nil)
	}

	creator, err := s.store.GetUserByID(ctx, creatorID)
	if err != nil {
		return nil, s.fail(op, err, nil, "creator_id", creatorID)
	}
	if creator == nil {
		return nil, s.fail(op, invalid("unknown user %s", creatorID), nil, "creator_id", creatorID)
	}

	now := s.now().Unix()
	group := &models.Group{
		ID:          s.newID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Icon:        strings.TrimSpace(icon),
		CreatedBy:   creatorID,
		Active:      true,
		CreatedAt:   now,
	}
	member := models.GroupMember{
		ID:        s.newID(),
		GroupID:   group.ID,
		UserID:    creatorID,
		Name:      creator.DisplayName,
		Email:     normalizeEmail(creator.Email),
		Status:    models.MemberJoined,
		Balance:   decimal.Zero,
		CreatedAt: now,
	}

	err = s.store.InTx(ctx, func(ctx context.Context, q storage.Queries) error {
		if err := q.InsertGroup(ctx, group); err != nil {
			return err
		}
		return q.InsertMember(ctx, &member)
	})
	if err != nil {
		return nil, s.fail(op, err, nil, "creator_id", creatorID)
	}

	group.Members = []models.GroupMember{member}
	s.logger.Info("Group created", "group_id", group.ID, "creator_id", creatorID)
	return group, nil
}

// AddMember adds a contact to a group on behalf of requestedBy, who must be a
// joined member. A contact whose e-mail belongs to an account is linked to it
// and invited (pending); any other contact joins immediately.
func (s *Service) AddMember(ctx context.Context, groupID, requestedBy, name, email, phone string) (*models.GroupMember, error) {
	const op = "AddMember"
	name = cleanText(name)
	email = normalizeEmail(email)
	phone = strings.TrimSpace(phone)
	if email == "" && phone == "" {
		return nil, s.fail(op, invalid("email or phone is required"), nil, "group_id", groupID)
	}
	if name == "" {
		return nil, s.fail(op, invalid("member name is required"), nil, "group_id", groupID)
	}

	var linked *models.User
	if email != "" {
		u, err := s.store.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, s.fail(op, err, nil, "group_id", groupID)
		}
		linked = u
	}

	var group *models.Group
	var requester *models.GroupMember
	var member *models.GroupMember
	err := s.store.InTx(ctx, func(ctx context.Context, q storage.Queries) error {
		g, err := q.LockGroup(ctx, groupID)
		if err != nil {
			return classify(err, ErrGroupNotFound)
		}
		r, err := q.FindMembership(ctx, groupID, requestedBy)
		if err != nil {
			return classify(err, ErrGroupNotFound)
		}
		if r.Status != models.MemberJoined {
			return ErrGroupNotFound
		}
		if !g.Active {
			return ErrGroupInactive
		}

		match := storage.MemberMatch{Email: email, Phone: phone}
		if linked != nil {
			match.UserID = linked.ID
		}
		existing, err := q.FindActiveMember(ctx, groupID, match)
		switch {
		case err == nil:
			return fmt.Errorf("%w: matches member %s", ErrMemberExists, existing.ID)
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}

		m := &models.GroupMember{
			ID:        s.newID(),
			GroupID:   groupID,
			Name:      name,
			Email:     email,
			Phone:     phone,
			Status:    models.MemberJoined,
			Balance:   decimal.Zero,
			CreatedAt: s.now().Unix(),
		}
		if linked != nil {
			m.UserID = linked.ID
			m.Status = models.MemberPending
		}
		if err := q.InsertMember(ctx, m); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				return fmt.Errorf("%w: %w", ErrMemberExists, err)
			}
			return err
		}
		group, requester, member = g, r, m
		return nil
	})
	if err != nil {
		return nil, s.fail(op, err, nil, "group_id", groupID, "requested_by", requestedBy)
	}

	s.logger.Info("Member added",
		"group_id", groupID,
		"member_id", member.ID,
		"status", member.Status,
		"linked", member.Linked(),
	)
	if member.Status == models.MemberPending {
		metrics.Invites.WithLabelValues("sent").Inc()
		s.notify(ctx, member.UserID,
			"Group invite",
			fmt.Sprintf("%s invited you to join %s", requester.Name, group.Name),
			map[string]string{"type": notify.TypeGroupInvite, "group_id": groupID, "member_id": member.ID},
		)
	}
	return member, nil
}

// RespondToInvite resolves the user's pending invite to the group. The
// transition happens once; any later call fails with ErrInviteNotFound.
func (s *Service) RespondToInvite(ctx context.Context, userID, groupID string, accept bool) (models.MemberStatus, error) {
	const op = "RespondToInvite"
	status := models.MemberDeclined
	if accept {
		status = models.MemberJoined
	}

	err := s.store.InTx(ctx, func(ctx context.Context, q storage.Queries) error {
		g, err := q.LockGroup(ctx, groupID)
		if err != nil {
			return classify(err, ErrInviteNotFound)
		}
		if !g.Active {
			return ErrInviteNotFound
		}
		ok, err := q.ResolveInvite(ctx, groupID, userID, status)
		if err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				return fmt.Errorf("%w: %w", ErrMemberExists, err)
			}
			return err
		}
		if !ok {
			return ErrInviteNotFound
		}
		return nil
	})
	if err != nil {
		return "", s.fail(op, err, nil, "group_id", groupID, "user_id", userID)
	}

	metrics.Invites.WithLabelValues(string(status)).Inc()
	s.logger.Info("Invite resolved", "group_id", groupID, "user_id", userID, "status", status)
	return status, nil
}

// GetGroup returns the group with its members and expenses. It returns nil,
// nil when the group does not exist, is deleted, or the requester has no
// membership row in it.
func (s *Service) GetGroup(ctx context.Context, groupID, requesterID string) (*models.Group, error) {
	const op = "GetGroup"
	group, err := s.store.GetGroup(ctx, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.fail(op, err, nil, "group_id", groupID)
	}
	if !group.Active {
		return nil, nil
	}

	if _, err := s.store.FindMembership(ctx, groupID, requesterID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, s.fail(op, err, nil, "group_id", groupID)
	}

	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, s.fail(op, err, nil, "group_id", groupID)
	}
	expenses, err := s.store.ListExpenses(ctx, groupID)
	if err != nil {
		return nil, s.fail(op, err, nil, "group_id", groupID)
	}
	group.Members = members
	group.Expenses = expenses
	return group, nil
}

// DeleteGroup soft-deletes a group. Only the creator may delete; anyone else
// gets ErrGroupNotFound.
func (s *Service) DeleteGroup(ctx context.Context, groupID, requesterID string) error {
	const op = "DeleteGroup"
	err := s.store.InTx(ctx, func(ctx context.Context, q storage.Queries) error {
		g, err := q.LockGroup(ctx, groupID)
		if err != nil {
			return classify(err, ErrGroupNotFound)
		}
		if !g.Active || g.CreatedBy != requesterID {
			return ErrGroupNotFound
		}
		return q.SetGroupActive(ctx, groupID, false)
	})
	if err != nil {
		return s.fail(op, err, nil, "group_id", groupID, "requester_id", requesterID)
	}
	s.logger.Info("Group deleted", "group_id", groupID)
	return nil
}

// ListGroups returns the active groups where the user is joined or invited.
func (s *Service) ListGroups(ctx context.Context, userID string) ([]models.Group, error) {
	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, s.fail("ListGroups", err, nil, "user_id", userID)
	}
	return groups, nil
}

// ListInvites returns the user's pending invites.
func (s *Service) ListInvites(ctx context.Context, userID string) ([]models.GroupMember, error) {
	invites, err := s.store.ListPendingInvites(ctx, userID)
	if err != nil {
		return nil, s.fail("ListInvites", err, nil, "user_id", userID)
	}
	return invites, nil
}

// Membership returns the user's membership in an active group, or
// ErrGroupNotFound.
func (s *Service) Membership(ctx context.Context, groupID, userID string) (*models.GroupMember, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, classify(err, ErrGroupNotFound)
	}
	if !group.Active {
		return nil, ErrGroupNotFound
	}
	m, err := s.store.FindMembership(ctx, groupID, userID)
	if err != nil {
		return nil, classify(err, ErrGroupNotFound)
	}
	return m, nil
}

// Member returns a member row by ID, or ErrMemberNotFound.
func (s *Service) Member(ctx context.Context, memberID string) (*models.GroupMember, error) {
	m, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		return nil, classify(err, ErrMemberNotFound)
	}
	return m, nil
}

func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func normalizeEmail(email string) string {
	return strings.ToLower(cleanText(email))
}
