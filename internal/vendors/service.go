package vendors

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/retailpad/retailpad/internal/shared"
)

// RepositoryPort abstracts vendor persistence.
type RepositoryPort interface {
	Create(ctx context.Context, v Vendor) error
	Get(ctx context.Context, owner, id uuid.UUID) (Vendor, error)
	List(ctx context.Context, owner uuid.UUID, filter ListFilter) ([]Vendor, int, error)
	Update(ctx context.Context, v Vendor) error
	// Delete removes the vendor and detaches it from the owner's items.
	Delete(ctx context.Context, owner, id uuid.UUID) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates vendor operations.
type Service struct {
	repo     RepositoryPort
	audit    AuditPort
	validate *validator.Validate
	now      func() time.Time
}

// NewService builds Service. audit may be nil.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{
		repo:     repo,
		audit:    audit,
		validate: shared.NewValidator(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func normalise(in VendorInput) VendorInput {
	in.Name = strings.TrimSpace(in.Name)
	in.ContactName = strings.TrimSpace(in.ContactName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	return in
}

// Create stores a new vendor.
func (s *Service) Create(ctx context.Context, owner uuid.UUID, input VendorInput) (Vendor, error) {
	input = normalise(input)
	if err := s.validate.StructCtx(ctx, input); err != nil {
		return Vendor{}, err
	}
	now := s.now()
	v := Vendor{
		ID:          uuid.New(),
		OwnerID:     owner,
		Name:        input.Name,
		ContactName: input.ContactName,
		Email:       input.Email,
		Phone:       input.Phone,
		Address:     input.Address,
		Notes:       input.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return Vendor{}, err
	}
	s.record(ctx, owner, "vendors.created", v.ID)
	return v, nil
}

// Get returns one vendor.
func (s *Service) Get(ctx context.Context, owner, id uuid.UUID) (Vendor, error) {
	return s.repo.Get(ctx, owner, id)
}

// Exists reports whether the vendor belongs to owner.
func (s *Service) Exists(ctx context.Context, owner, id uuid.UUID) (bool, error) {
	_, err := s.repo.Get(ctx, owner, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, shared.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// List returns a page of vendors ordered by name.
func (s *Service) List(ctx context.Context, owner uuid.UUID, filter ListFilter) ([]Vendor, int, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.List(ctx, owner, filter)
}

// Update replaces the vendor's editable fields.
func (s *Service) Update(ctx context.Context, owner, id uuid.UUID, input VendorInput) (Vendor, error) {
	input = normalise(input)
	if err := s.validate.StructCtx(ctx, input); err != nil {
		return Vendor{}, err
	}
	v, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return Vendor{}, err
	}
	v.Name = input.Name
	v.ContactName = input.ContactName
	v.Email = input.Email
	v.Phone = input.Phone
	v.Address = input.Address
	v.Notes = input.Notes
	v.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, v); err != nil {
		return Vendor{}, err
	}
	s.record(ctx, owner, "vendors.updated", id)
	return v, nil
}

// Delete removes the vendor. Items that referenced it keep existing without a vendor.
func (s *Service) Delete(ctx context.Context, owner, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		return err
	}
	s.record(ctx, owner, "vendors.deleted", id)
	return nil
}

func (s *Service) record(ctx context.Context, owner uuid.UUID, action string, id uuid.UUID) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  owner.String(),
		Action:   action,
		Entity:   "vendor",
		EntityID: id.String(),
		At:       s.now(),
	})
}
