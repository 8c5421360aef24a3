package dto

import (
	"time"

	"github.com/yukikurage/classifieds-api/internal/models"
)

// OrganizationWithRoleDTO is one of the caller's organizations. UnspentCredits is
// set where the organization's balance was loaded.
type OrganizationWithRoleDTO struct {
	OrganizationDTO
	Role           models.OrganizationRole `json:"role"`
	UnspentCredits *int64                  `json:"unspent_credits,omitempty"`
}

// OrganizationMemberDTO represents a member in an organization
type OrganizationMemberDTO struct {
	User      UserDTO                 `json:"user"`
	Role      models.OrganizationRole `json:"role"`
	CanManage bool                    `json:"can_manage"`
	JoinedAt  time.Time               `json:"joined_at"`
}

// OrganizationDetailDTO is an organization with its members and unexpired sponsorships
type OrganizationDetailDTO struct {
	OrganizationDTO
	Members      []OrganizationMemberDTO `json:"members"`
	Sponsorships []SponsorshipDTO        `json:"sponsorships"`
	YourRole     models.OrganizationRole `json:"your_role"`
}

// ToOrganizationWithRoleDTO converts a membership and, when known, its organization's unspent credits
func ToOrganizationWithRoleDTO(member models.OrganizationMember, unspentCredits *int64) OrganizationWithRoleDTO {
	return OrganizationWithRoleDTO{
		OrganizationDTO: ToOrganizationDTO(member.Organization, false),
		Role:            member.Role,
		UnspentCredits:  unspentCredits,
	}
}

// ToOrganizationMemberDTO converts a member to DTO
func ToOrganizationMemberDTO(member models.OrganizationMember) OrganizationMemberDTO {
	return OrganizationMemberDTO{
		User:      ToUserDTO(member.User),
		Role:      member.Role,
		CanManage: member.Role.CanManage(),
		JoinedAt:  member.JoinedAt,
	}
}

// ToOrganizationDetailDTO builds the detail view. Only members see the invite code, so it is always included.
func ToOrganizationDetailDTO(org models.Organization, members []models.OrganizationMember, sponsorships []models.Sponsorship, yourRole models.OrganizationRole) OrganizationDetailDTO {
	detail := OrganizationDetailDTO{
		OrganizationDTO: ToOrganizationDTO(org, true),
		Members:         make([]OrganizationMemberDTO, len(members)),
		Sponsorships:    make([]SponsorshipDTO, len(sponsorships)),
		YourRole:        yourRole,
	}
	for i, m := range members {
		detail.Members[i] = ToOrganizationMemberDTO(m)
	}
	for i, s := range sponsorships {
		detail.Sponsorships[i] = ToSponsorshipDTO(s)
	}
	return detail
}
