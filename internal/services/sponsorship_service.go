package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/classifieds-api/internal/authz"
	"github.com/yukikurage/classifieds-api/internal/constants"
	"github.com/yukikurage/classifieds-api/internal/logging"
	"github.com/yukikurage/classifieds-api/internal/models"
	"github.com/yukikurage/classifieds-api/internal/ratelimit"
	"github.com/yukikurage/classifieds-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrInvalidSponsorshipLevel  = errors.New("sponsorship level cannot be purchased")
	ErrMetalSponsorshipConflict = errors.New("organization already holds a different sponsorship level, please contact support to change it")
	ErrTagRequired              = errors.New("tag name is required for tag sponsorships")
	ErrTagNotFound              = errors.New("tag not found")
	ErrTagAlreadySponsored      = errors.New("tag is already sponsored")
)

// PurchaseState is what the purchase view offers an organization.
type PurchaseState string

const (
	PurchaseStateNoOrganization      PurchaseState = "no_organization"
	PurchaseStateInsufficientCredits PurchaseState = "insufficient_credits"
	PurchaseStateSubscribe           PurchaseState = "subscribe"
)

// SponsorshipView is the purchase view of one sponsorship level.
type SponsorshipView struct {
	Level         models.SponsorshipLevel        `json:"level"`
	Cost          int                            `json:"cost"`
	State         PurchaseState                  `json:"state"`
	Organizations []OrganizationSponsorshipView `json:"organizations"`
}

// OrganizationSponsorshipView is the purchase state of one organization.
type OrganizationSponsorshipView struct {
	OrganizationID   uint64              `json:"organization_id"`
	OrganizationName string              `json:"organization_name"`
	Credits          int64               `json:"credits"`
	State            PurchaseState       `json:"state"`
	Current          *models.Sponsorship `json:"current,omitempty"`
	ContactSupport   bool                `json:"contact_support"`
	AvailableTags    []models.Tag        `json:"available_tags,omitempty"`
	SponsoredTags    []models.Tag        `json:"sponsored_tags,omitempty"`
}

// PurchaseSponsorshipInput represents a sponsorship subscription request
type PurchaseSponsorshipInput struct {
	UserID         uint64
	OrganizationID uint64
	Level          models.SponsorshipLevel
	Instructions   string
	TagName        string
}

// SponsorshipService handles sponsorship purchases
type SponsorshipService struct {
	sponsorshipRepo repository.SponsorshipRepository
	creditRepo      repository.CreditRepository
	orgRepo         repository.OrganizationRepository
	tagRepo         repository.TagRepository
	authorizer      authz.Authorizer
	limiter         ratelimit.Limiter
	now             func() time.Time
}

// NewSponsorshipService creates a new SponsorshipService
func NewSponsorshipService(
	sponsorshipRepo repository.SponsorshipRepository,
	creditRepo repository.CreditRepository,
	orgRepo repository.OrganizationRepository,
	tagRepo repository.TagRepository,
	authorizer authz.Authorizer,
	limiter ratelimit.Limiter,
) *SponsorshipService {
	return &SponsorshipService{
		sponsorshipRepo: sponsorshipRepo,
		creditRepo:      creditRepo,
		orgRepo:         orgRepo,
		tagRepo:         tagRepo,
		authorizer:      authorizer,
		limiter:         limiter,
		now:             time.Now,
	}
}

// PurchaseView computes what each organization the user manages can buy at level
func (s *SponsorshipService) PurchaseView(userID uint64, level models.SponsorshipLevel) (*SponsorshipView, error) {
	cost, ok := level.Cost()
	if !ok {
		return nil, ErrInvalidSponsorshipLevel
	}

	memberships, err := s.orgRepo.ListMembersByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	view := &SponsorshipView{
		Level:         level,
		Cost:          cost,
		State:         PurchaseStateNoOrganization,
		Organizations: []OrganizationSponsorshipView{},
	}

	for _, m := range memberships {
		if !m.Role.CanManage() {
			continue
		}

		orgView, err := s.organizationView(m.Organization, level, cost)
		if err != nil {
			return nil, err
		}
		view.Organizations = append(view.Organizations, *orgView)
	}

	if len(view.Organizations) > 0 {
		// the page-level state follows the first organization, the form lists all of them
		view.State = view.Organizations[0].State
	}

	return view, nil
}

func (s *SponsorshipService) organizationView(org models.Organization, level models.SponsorshipLevel, cost int) (*OrganizationSponsorshipView, error) {
	credits, err := s.creditRepo.CountUnspent(models.OrganizationPurchaser(org.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to count unspent credits: %w", err)
	}

	view := &OrganizationSponsorshipView{
		OrganizationID:   org.ID,
		OrganizationName: org.Name,
		Credits:          credits,
		State:            PurchaseStateSubscribe,
	}
	if credits < int64(cost) {
		view.State = PurchaseStateInsufficientCredits
		return view, nil
	}

	switch {
	case level.IsMetal():
		current, err := s.activeMetal(org.ID)
		if err != nil {
			return nil, err
		}
		view.Current = current
		view.ContactSupport = current != nil && current.Level != level

	case level == models.SponsorshipTag:
		if err := s.fillTagOptions(view); err != nil {
			return nil, err
		}

	default:
		current, err := s.sponsorshipAt(org.ID, level)
		if err != nil {
			return nil, err
		}
		view.Current = current
	}

	return view, nil
}

func (s *SponsorshipService) fillTagOptions(view *OrganizationSponsorshipView) error {
	active, err := s.sponsorshipRepo.ListActiveTagSponsorships(s.now())
	if err != nil {
		return fmt.Errorf("failed to list tag sponsorships: %w", err)
	}

	taken := map[uint64]bool{}
	ownIDs := []uint64{}
	for _, sp := range active {
		if sp.SponsorableID == nil {
			continue
		}
		taken[*sp.SponsorableID] = true
		if sp.OrganizationID == view.OrganizationID {
			ownIDs = append(ownIDs, *sp.SponsorableID)
		}
	}

	supported, err := s.tagRepo.ListSupported()
	if err != nil {
		return fmt.Errorf("failed to list tags: %w", err)
	}
	view.AvailableTags = []models.Tag{}
	for _, tag := range supported {
		if !taken[tag.ID] {
			view.AvailableTags = append(view.AvailableTags, tag)
		}
	}

	view.SponsoredTags, err = s.tagRepo.ListByIDs(ownIDs)
	if err != nil {
		return fmt.Errorf("failed to list sponsored tags: %w", err)
	}
	return nil
}

// Purchase subscribes the organization to a sponsorship and spends its credits
func (s *SponsorshipService) Purchase(ctx context.Context, input PurchaseSponsorshipInput) (*models.Sponsorship, error) {
	if err := ratelimit.Check(ctx, s.limiter, input.UserID, ratelimit.ActionSponsorshipCreation); err != nil {
		if errors.Is(err, ratelimit.ErrLimitReached) {
			return nil, ErrRateLimited
		}
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}

	cost, ok := input.Level.Cost()
	if !ok {
		return nil, ErrInvalidSponsorshipLevel
	}

	if err := s.authorizer.AuthorizeSponsorshipPurchase(input.UserID, input.OrganizationID); err != nil {
		return nil, err
	}

	if err := ensureAvailable(s.creditRepo, models.OrganizationPurchaser(input.OrganizationID), cost); err != nil {
		return nil, err
	}

	var (
		sponsorship *models.Sponsorship
		err         error
	)
	if input.Level == models.SponsorshipTag {
		sponsorship, err = s.tagSponsorship(input)
	} else {
		sponsorship, err = s.tieredSponsorship(input)
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	sponsorship.UserID = input.UserID
	sponsorship.Status = models.SponsorshipStatusPending
	sponsorship.Instructions = strings.TrimSpace(input.Instructions)
	sponsorship.InstructionsUpdatedAt = &now

	if err := s.sponsorshipRepo.SaveWithPurchase(sponsorship, cost); err != nil {
		return nil, purchaseError("purchase sponsorship", err)
	}

	if err := s.limiter.TrackLimitByAction(ctx, input.UserID, ratelimit.ActionSponsorshipCreation); err != nil {
		logging.Error("failed to track sponsorship creation", err, map[string]interface{}{
			"user_id":        input.UserID,
			"sponsorship_id": sponsorship.ID,
		})
	}

	return sponsorship, nil
}

// tieredSponsorship extends the organization's sponsorship at the level or starts a new one.
// Metal levels are exclusive: a live sponsorship at another metal level blocks the purchase.
func (s *SponsorshipService) tieredSponsorship(input PurchaseSponsorshipInput) (*models.Sponsorship, error) {
	now := s.now()

	if input.Level.IsMetal() {
		current, err := s.activeMetal(input.OrganizationID)
		if err != nil {
			return nil, err
		}
		if current != nil && current.Level != input.Level {
			return nil, ErrMetalSponsorshipConflict
		}
	}

	existing, err := s.sponsorshipAt(input.OrganizationID, input.Level)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		expiresAt := now.AddDate(0, constants.SponsorshipTermMonth, 0)
		return &models.Sponsorship{
			OrganizationID: input.OrganizationID,
			Level:          input.Level,
			ExpiresAt:      &expiresAt,
		}, nil
	}

	from := now
	if existing.Active(now) {
		from = *existing.ExpiresAt
	}
	expiresAt := from.AddDate(0, constants.SponsorshipTermMonth, 0)
	existing.ExpiresAt = &expiresAt
	return existing, nil
}

func (s *SponsorshipService) tagSponsorship(input PurchaseSponsorshipInput) (*models.Sponsorship, error) {
	name := NormalizeTag(input.TagName)
	if name == "" {
		return nil, ErrTagRequired
	}

	tag, err := s.tagRepo.FindByName(name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, fmt.Errorf("failed to find tag: %w", err)
	}
	// only supported tags are offered for sponsorship
	if !tag.Supported {
		return nil, ErrTagNotFound
	}

	now := s.now()
	if _, err := s.sponsorshipRepo.FindActiveForTag(tag.ID, now); err == nil {
		return nil, ErrTagAlreadySponsored
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check tag sponsorship: %w", err)
	}

	expiresAt := now.AddDate(0, constants.SponsorshipTermMonth, 0)
	return &models.Sponsorship{
		OrganizationID:  input.OrganizationID,
		Level:           models.SponsorshipTag,
		ExpiresAt:       &expiresAt,
		SponsorableType: models.SponsorableTypeTag,
		SponsorableID:   &tag.ID,
	}, nil
}

// activeMetal returns the organization's unexpired metal sponsorship, if any.
func (s *SponsorshipService) activeMetal(orgID uint64) (*models.Sponsorship, error) {
	sponsorships, err := s.sponsorshipRepo.ListByOrganization(orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sponsorships: %w", err)
	}

	now := s.now()
	for i := range sponsorships {
		if sponsorships[i].Level.IsMetal() && sponsorships[i].Active(now) {
			return &sponsorships[i], nil
		}
	}
	return nil, nil
}

func (s *SponsorshipService) sponsorshipAt(orgID uint64, level models.SponsorshipLevel) (*models.Sponsorship, error) {
	sponsorship, err := s.sponsorshipRepo.FindByOrganizationAndLevel(orgID, level)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find sponsorship: %w", err)
	}
	return sponsorship, nil
}
