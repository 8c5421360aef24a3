package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/classifieds-api/internal/logging"
	"github.com/yukikurage/classifieds-api/internal/models"
	"github.com/yukikurage/classifieds-api/internal/ratelimit"
	"github.com/yukikurage/classifieds-api/internal/repository"
	"github.com/yukikurage/classifieds-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrOrganizationNotFound       = errors.New("organization not found")
	ErrInvalidOrganizationName    = errors.New("organization name cannot be empty")
	ErrInviteCodeGenerationFailed = errors.New("failed to generate invite code")
	ErrInvalidInviteCode          = errors.New("invalid invite code")
	ErrAlreadyOrganizationMember  = errors.New("user is already a member of this organization")
	ErrCannotRemoveYourself       = errors.New("cannot remove yourself from the organization")
	ErrCannotChangeOwnRole        = errors.New("cannot change your own role")
	ErrInvalidOrganizationRole    = errors.New("role must be one of owner, admin, member")
	ErrOrganizationMemberNotFound = errors.New("organization member not found")
	ErrOrganizationHasSponsorship = errors.New("organization has a live sponsorship and cannot be deleted")
)

// OrganizationService manages organizations, the members that post listings for them
// and the admins that buy their sponsorships.
type OrganizationService struct {
	orgRepo         repository.OrganizationRepository
	sponsorshipRepo repository.SponsorshipRepository
	creditRepo      repository.CreditRepository
	limiter         ratelimit.Limiter
	now             func() time.Time
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(
	orgRepo repository.OrganizationRepository,
	sponsorshipRepo repository.SponsorshipRepository,
	creditRepo repository.CreditRepository,
	limiter ratelimit.Limiter,
) *OrganizationService {
	return &OrganizationService{
		orgRepo:         orgRepo,
		sponsorshipRepo: sponsorshipRepo,
		creditRepo:      creditRepo,
		limiter:         limiter,
		now:             time.Now,
	}
}

// CreateOrganizationInput represents parameters to create a new organization.
type CreateOrganizationInput struct {
	Name    string
	OwnerID uint64
}

// CreateOrganization creates an organization owned by the caller.
func (s *OrganizationService) CreateOrganization(ctx context.Context, input CreateOrganizationInput) (*models.Organization, error) {
	if err := ratelimit.Check(ctx, s.limiter, input.OwnerID, ratelimit.ActionOrganizationCreation); err != nil {
		if errors.Is(err, ratelimit.ErrLimitReached) {
			return nil, ErrRateLimited
		}
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}

	name, err := organizationName(input.Name)
	if err != nil {
		return nil, err
	}

	inviteCode, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}

	org := &models.Organization{Name: name, InviteCode: inviteCode}
	owner := &models.OrganizationMember{
		UserID:   input.OwnerID,
		Role:     models.RoleOwner,
		JoinedAt: s.now(),
	}
	if err := s.orgRepo.CreateWithOwner(org, owner); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	if err := s.limiter.TrackLimitByAction(ctx, input.OwnerID, ratelimit.ActionOrganizationCreation); err != nil {
		logging.Error("failed to track organization creation", err, map[string]interface{}{
			"user_id":         input.OwnerID,
			"organization_id": org.ID,
		})
	}

	return org, nil
}

// OrganizationMembership is one of the caller's organizations with the credits it can spend.
type OrganizationMembership struct {
	Member         models.OrganizationMember
	UnspentCredits int64
}

// OrganizationDetail is an organization with its members and unexpired sponsorships.
type OrganizationDetail struct {
	Organization *models.Organization
	Members      []models.OrganizationMember
	Sponsorships []models.Sponsorship
}

// ListOrganizationsForUser returns the caller's memberships and each organization's unspent credits.
func (s *OrganizationService) ListOrganizationsForUser(userID uint64) ([]OrganizationMembership, error) {
	members, err := s.orgRepo.ListMembersByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	memberships := make([]OrganizationMembership, len(members))
	for i, m := range members {
		unspent, err := s.creditRepo.CountUnspent(models.OrganizationPurchaser(m.OrganizationID))
		if err != nil {
			return nil, fmt.Errorf("failed to count organization credits: %w", err)
		}
		memberships[i] = OrganizationMembership{Member: m, UnspentCredits: unspent}
	}
	return memberships, nil
}

// GetOrganizationDetail returns an organization, its members and the sponsorships that have not expired.
func (s *OrganizationService) GetOrganizationDetail(orgID uint64) (*OrganizationDetail, error) {
	org, err := s.findOrganization(orgID)
	if err != nil {
		return nil, err
	}

	members, err := s.orgRepo.ListMembers(orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organization members: %w", err)
	}

	live, err := s.liveSponsorships(orgID)
	if err != nil {
		return nil, err
	}

	return &OrganizationDetail{Organization: org, Members: members, Sponsorships: live}, nil
}

// UpdateOrganizationName renames an organization.
func (s *OrganizationService) UpdateOrganizationName(orgID uint64, name string) (*models.Organization, error) {
	name, err := organizationName(name)
	if err != nil {
		return nil, err
	}

	org, err := s.findOrganization(orgID)
	if err != nil {
		return nil, err
	}

	org.Name = name
	if err := s.orgRepo.Update(org); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}
	return org, nil
}

// DeleteOrganization removes an organization with its listings, credits and memberships.
// Organizations with a live sponsorship are kept until it expires.
func (s *OrganizationService) DeleteOrganization(orgID uint64) error {
	if _, err := s.findOrganization(orgID); err != nil {
		return err
	}

	live, err := s.liveSponsorships(orgID)
	if err != nil {
		return err
	}
	if len(live) > 0 {
		return ErrOrganizationHasSponsorship
	}

	if err := s.orgRepo.Delete(orgID); err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}
	return nil
}

// JoinOrganizationByInvite adds the caller as a plain member of the organization the code belongs to.
func (s *OrganizationService) JoinOrganizationByInvite(userID uint64, inviteCode string) (*models.Organization, error) {
	org, err := s.orgRepo.FindByInviteCode(utils.NormalizeInviteCode(inviteCode))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidInviteCode
		}
		return nil, fmt.Errorf("failed to find organization by invite code: %w", err)
	}

	if _, err := s.findMember(org.ID, userID); err == nil {
		return nil, ErrAlreadyOrganizationMember
	} else if !errors.Is(err, ErrOrganizationMemberNotFound) {
		return nil, err
	}

	member := &models.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         userID,
		Role:           models.RoleMember,
		JoinedAt:       s.now(),
	}
	if err := s.orgRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member to organization: %w", err)
	}
	return org, nil
}

// RegenerateInviteCode replaces the organization's invite code, invalidating the old one.
func (s *OrganizationService) RegenerateInviteCode(orgID uint64) (*models.Organization, error) {
	org, err := s.findOrganization(orgID)
	if err != nil {
		return nil, err
	}

	code, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}

	org.InviteCode = code
	if err := s.orgRepo.Update(org); err != nil {
		return nil, fmt.Errorf("failed to update invite code: %w", err)
	}
	return org, nil
}

// UpdateMemberRole changes the role of another member. Admins may post and
// manage the organization's listings and buy its sponsorships.
func (s *OrganizationService) UpdateMemberRole(orgID, actorID, targetID uint64, role models.OrganizationRole) (*models.OrganizationMember, error) {
	if !role.Valid() {
		return nil, ErrInvalidOrganizationRole
	}
	if targetID == actorID {
		return nil, ErrCannotChangeOwnRole
	}

	member, err := s.findMember(orgID, targetID)
	if err != nil {
		return nil, err
	}

	if err := s.orgRepo.UpdateMemberRole(orgID, targetID, role); err != nil {
		return nil, fmt.Errorf("failed to update member role: %w", err)
	}
	member.Role = role
	return member, nil
}

// RemoveMember removes another member from the organization. Listings they
// posted for the organization stay with it.
func (s *OrganizationService) RemoveMember(orgID, actorID, targetID uint64) error {
	if targetID == actorID {
		return ErrCannotRemoveYourself
	}

	if _, err := s.findMember(orgID, targetID); err != nil {
		return err
	}

	if err := s.orgRepo.RemoveMember(orgID, targetID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

func (s *OrganizationService) liveSponsorships(orgID uint64) ([]models.Sponsorship, error) {
	sponsorships, err := s.sponsorshipRepo.ListByOrganization(orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sponsorships: %w", err)
	}

	now := s.now()
	live := make([]models.Sponsorship, 0, len(sponsorships))
	for _, sp := range sponsorships {
		if sp.Active(now) {
			live = append(live, sp)
		}
	}
	return live, nil
}

func (s *OrganizationService) findOrganization(orgID uint64) (*models.Organization, error) {
	org, err := s.orgRepo.FindByID(orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return org, nil
}

func (s *OrganizationService) findMember(orgID, userID uint64) (*models.OrganizationMember, error) {
	member, err := s.orgRepo.FindMember(orgID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationMemberNotFound
		}
		return nil, fmt.Errorf("failed to find organization member: %w", err)
	}
	return member, nil
}

func organizationName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", ErrInvalidOrganizationName
	}
	return name, nil
}
