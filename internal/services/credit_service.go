package services

import (
	"errors"
	"fmt"

	"github.com/yukikurage/classifieds-api/internal/models"
	"github.com/yukikurage/classifieds-api/internal/repository"
)

var (
	ErrInsufficientCredits = errors.New("not enough unspent credits")
	ErrInvalidCreditAmount = errors.New("credit amount must be positive")
)

// CreditService reads and grants credit balances.
type CreditService struct {
	creditRepo repository.CreditRepository
	orgRepo    repository.OrganizationRepository
}

// NewCreditService creates a new CreditService.
func NewCreditService(creditRepo repository.CreditRepository, orgRepo repository.OrganizationRepository) *CreditService {
	return &CreditService{
		creditRepo: creditRepo,
		orgRepo:    orgRepo,
	}
}

// CreditBalance is the unspent and spent credit count of one purchaser.
type CreditBalance struct {
	OrganizationID   *uint64
	OrganizationName string
	Unspent          int64
	Spent            int64
}

// CreditBalances holds the user's own balance and one per organization membership.
type CreditBalances struct {
	User          CreditBalance
	Organizations []CreditBalance
}

// Grant adds amount unspent credits to the purchaser.
func (s *CreditService) Grant(purchaser models.Purchaser, amount int) error {
	if amount <= 0 {
		return ErrInvalidCreditAmount
	}
	if err := s.creditRepo.Grant(purchaser, amount); err != nil {
		return fmt.Errorf("failed to grant credits: %w", err)
	}
	return nil
}

// Balances returns the user's balance and the balance of every organization they belong to.
func (s *CreditService) Balances(userID uint64) (*CreditBalances, error) {
	user, err := s.balance(models.UserPurchaser(userID))
	if err != nil {
		return nil, err
	}

	memberships, err := s.orgRepo.ListMembersByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	balances := &CreditBalances{User: user, Organizations: make([]CreditBalance, 0, len(memberships))}
	for _, m := range memberships {
		b, err := s.balance(models.OrganizationPurchaser(m.OrganizationID))
		if err != nil {
			return nil, err
		}
		b.OrganizationName = m.Organization.Name
		balances.Organizations = append(balances.Organizations, b)
	}

	return balances, nil
}

func (s *CreditService) balance(p models.Purchaser) (CreditBalance, error) {
	unspent, err := s.creditRepo.CountUnspent(p)
	if err != nil {
		return CreditBalance{}, fmt.Errorf("failed to count unspent credits: %w", err)
	}
	spent, err := s.creditRepo.CountSpent(p)
	if err != nil {
		return CreditBalance{}, fmt.Errorf("failed to count spent credits: %w", err)
	}
	return CreditBalance{OrganizationID: p.OrganizationID, Unspent: unspent, Spent: spent}, nil
}

// ensureAvailable returns ErrInsufficientCredits when the purchaser holds fewer than cost unspent credits.
func ensureAvailable(creditRepo repository.CreditRepository, p models.Purchaser, cost int) error {
	available, err := creditRepo.CountUnspent(p)
	if err != nil {
		return fmt.Errorf("failed to count unspent credits: %w", err)
	}
	if available < int64(cost) {
		holder := "user"
		if p.IsOrganization() {
			holder = "organization"
		}
		return fmt.Errorf("%w: %s has %d, %d required", ErrInsufficientCredits, holder, available, cost)
	}
	return nil
}

// purchaseError maps the repository's credit shortage onto ErrInsufficientCredits.
func purchaseError(action string, err error) error {
	if errors.Is(err, repository.ErrInsufficientCredits) {
		return ErrInsufficientCredits
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
