// Package authz decides which organization and listing actions a user may take.
package authz

import (
	"errors"
	"fmt"

	"github.com/yukikurage/classifieds-api/internal/models"
	"github.com/yukikurage/classifieds-api/internal/repository"
	"gorm.io/gorm"
)

// ErrNotAuthorized is wrapped by every policy rejection.
var ErrNotAuthorized = errors.New("not authorized")

// NotAuthorizedError names the rule that rejected the request.
type NotAuthorizedError struct {
	Query  string
	Reason string
}

func (e *NotAuthorizedError) Error() string {
	return fmt.Sprintf("not authorized to %s: %s", e.Query, e.Reason)
}

func (e *NotAuthorizedError) Unwrap() error {
	return ErrNotAuthorized
}

// Authorizer is the capability services consult before mutating owned resources.
type Authorizer interface {
	// AuthorizeOrganizationListing allows the user to post on behalf of the organization.
	AuthorizeOrganizationListing(userID, orgID uint64) error
	// AuthorizeOrganizationFeed allows the user to see the organization's unpublished listings.
	AuthorizeOrganizationFeed(userID, orgID uint64) error

	// AuthorizeListingUpdate allows the user to edit, bump, unpublish or delete the listing.
	AuthorizeListingUpdate(userID uint64, listing *models.ClassifiedListing) error

	// AuthorizeSponsorshipPurchase allows the user to spend organization credits on sponsorships.
	AuthorizeSponsorshipPurchase(userID, orgID uint64) error
}

// MembershipAuthorizer grants access based on organization membership roles.
type MembershipAuthorizer struct {
	orgRepo repository.OrganizationRepository
}

// NewMembershipAuthorizer creates a MembershipAuthorizer
func NewMembershipAuthorizer(orgRepo repository.OrganizationRepository) *MembershipAuthorizer {
	return &MembershipAuthorizer{orgRepo: orgRepo}
}

func (a *MembershipAuthorizer) membership(orgID, userID uint64) (*models.OrganizationMember, error) {
	member, err := a.orgRepo.FindMember(orgID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to verify organization membership: %w", err)
	}
	return member, nil
}

// AuthorizeOrganizationListing requires any membership in the organization
func (a *MembershipAuthorizer) AuthorizeOrganizationListing(userID, orgID uint64) error {
	member, err := a.membership(orgID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return &NotAuthorizedError{Query: "create listing", Reason: "user is not a member of the organization"}
	}
	return nil
}

// AuthorizeOrganizationFeed requires any membership in the organization
func (a *MembershipAuthorizer) AuthorizeOrganizationFeed(userID, orgID uint64) error {
	member, err := a.membership(orgID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return &NotAuthorizedError{Query: "list organization listings", Reason: "user is not a member of the organization"}
	}
	return nil
}

// AuthorizeListingUpdate allows the author, or an owner/admin of the listing's organization
func (a *MembershipAuthorizer) AuthorizeListingUpdate(userID uint64, listing *models.ClassifiedListing) error {
	if listing.UserID == userID {
		return nil
	}
	if listing.OrganizationID != nil {
		member, err := a.membership(*listing.OrganizationID, userID)
		if err != nil {
			return err
		}
		if member != nil && member.Role.CanManage() {
			return nil
		}
	}
	return &NotAuthorizedError{Query: "update listing", Reason: "user does not own the listing"}
}

// AuthorizeSponsorshipPurchase requires an owner or admin membership
func (a *MembershipAuthorizer) AuthorizeSponsorshipPurchase(userID, orgID uint64) error {
	member, err := a.membership(orgID, userID)
	if err != nil {
		return err
	}
	if member == nil || !member.Role.CanManage() {
		return &NotAuthorizedError{Query: "purchase sponsorship", Reason: "user is not an organization admin"}
	}
	return nil
}
