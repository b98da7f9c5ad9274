package contact

import (
	"context"

	"github.com/crm/backend/internal/domain/contact"
	"github.com/crm/backend/internal/domain/shared"
	csvimport "github.com/crm/backend/internal/infrastructure/import"
	"github.com/google/uuid"
)

// ContactService handles contact-related business operations
type ContactService struct {
	contactRepo    contact.ContactRepository
	eventPublisher shared.EventPublisher
	importSessions csvimport.SessionStore
}

// NewContactService creates a new ContactService
func NewContactService(contactRepo contact.ContactRepository) *ContactService {
	return &ContactService{
		contactRepo: contactRepo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ContactService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishDomainEvents publishes all pending domain events from the contact
func (s *ContactService) publishDomainEvents(ctx context.Context, c *contact.Contact) {
	if s.eventPublisher == nil {
		return
	}
	events := c.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Publish errors are logged by the event bus, not propagated
	_ = s.eventPublisher.Publish(ctx, events...)
	c.ClearDomainEvents()
}

// Create creates a new contact
func (s *ContactService) Create(ctx context.Context, tenantID uuid.UUID, req CreateContactRequest) (*ContactResponse, error) {
	// Check if email already exists (if provided)
	if req.Email != "" {
		exists, err := s.contactRepo.ExistsByEmail(ctx, tenantID, req.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Contact with this email already exists")
		}
	}

	c, err := contact.NewContact(tenantID, req.OwnerID, req.FirstName, req.LastName, contact.ContactSource(req.Source))
	if err != nil {
		return nil, err
	}

	if req.Company != "" || req.JobTitle != "" {
		if err := c.Update(req.FirstName, req.LastName, req.Company, req.JobTitle); err != nil {
			return nil, err
		}
	}

	if req.Email != "" || req.Phone != "" {
		if err := c.SetContactInfo(req.Email, req.Phone); err != nil {
			return nil, err
		}
	}

	if req.Address != "" || req.City != "" || req.Country != "" || req.PostalCode != "" {
		if err := c.SetAddress(req.Address, req.City, req.Country, req.PostalCode); err != nil {
			return nil, err
		}
	}

	if len(req.Tags) > 0 {
		if err := c.SetTags(req.Tags); err != nil {
			return nil, err
		}
	}

	if req.Notes != "" {
		if err := c.SetNotes(req.Notes); err != nil {
			return nil, err
		}
	}

	if err := s.contactRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, c)

	response := ToContactResponse(c)
	return &response, nil
}

// GetByID retrieves a contact by ID
func (s *ContactService) GetByID(ctx context.Context, tenantID, contactID uuid.UUID) (*ContactResponse, error) {
	c, err := s.contactRepo.FindByIDForTenant(ctx, tenantID, contactID)
	if err != nil {
		return nil, err
	}

	response := ToContactResponse(c)
	return &response, nil
}

// List retrieves a list of contacts with filtering and pagination
func (s *ContactService) List(ctx context.Context, tenantID uuid.UUID, filter ContactListFilter) ([]ContactListResponse, int64, error) {
	domainFilter := buildContactFilter(filter)

	contacts, err := s.contactRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.contactRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ContactListResponse, len(contacts))
	for i := range contacts {
		responses[i] = ToContactListResponse(&contacts[i])
	}

	return responses, total, nil
}

// ListDeleted retrieves soft-deleted contacts for a tenant
func (s *ContactService) ListDeleted(ctx context.Context, tenantID uuid.UUID, filter ContactListFilter) ([]ContactResponse, error) {
	domainFilter := buildContactFilter(filter)

	contacts, err := s.contactRepo.FindDeleted(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]ContactResponse, len(contacts))
	for i := range contacts {
		responses[i] = ToContactResponse(&contacts[i])
	}

	return responses, nil
}

// Update updates a contact's information
func (s *ContactService) Update(ctx context.Context, tenantID, contactID uuid.UUID, req UpdateContactRequest) (*ContactResponse, error) {
	c, err := s.contactRepo.FindByIDForTenant(ctx, tenantID, contactID)
	if err != nil {
		return nil, err
	}

	// Basic info updates merge with current values
	if req.FirstName != nil || req.LastName != nil || req.Company != nil || req.JobTitle != nil {
		firstName := c.FirstName
		lastName := c.LastName
		company := c.Company
		jobTitle := c.JobTitle
		if req.FirstName != nil {
			firstName = *req.FirstName
		}
		if req.LastName != nil {
			lastName = *req.LastName
		}
		if req.Company != nil {
			company = *req.Company
		}
		if req.JobTitle != nil {
			jobTitle = *req.JobTitle
		}
		if err := c.Update(firstName, lastName, company, jobTitle); err != nil {
			return nil, err
		}
	}

	if req.Email != nil || req.Phone != nil {
		email := c.Email
		phone := c.Phone
		if req.Email != nil {
			email = *req.Email
		}
		if req.Phone != nil {
			phone = *req.Phone
		}
		// A changed email must stay unique within the tenant
		if email != "" && email != c.Email {
			exists, err := s.contactRepo.ExistsByEmail(ctx, tenantID, email)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, shared.NewDomainError("ALREADY_EXISTS", "Contact with this email already exists")
			}
		}
		if err := c.SetContactInfo(email, phone); err != nil {
			return nil, err
		}
	}

	if req.Address != nil || req.City != nil || req.Country != nil || req.PostalCode != nil {
		address := c.Address
		city := c.City
		country := c.Country
		postalCode := c.PostalCode
		if req.Address != nil {
			address = *req.Address
		}
		if req.City != nil {
			city = *req.City
		}
		if req.Country != nil {
			country = *req.Country
		}
		if req.PostalCode != nil {
			postalCode = *req.PostalCode
		}
		if err := c.SetAddress(address, city, country, postalCode); err != nil {
			return nil, err
		}
	}

	if req.Tags != nil {
		if err := c.SetTags(*req.Tags); err != nil {
			return nil, err
		}
	}

	if req.Notes != nil {
		if err := c.SetNotes(*req.Notes); err != nil {
			return nil, err
		}
	}

	if err := s.contactRepo.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, c)

	response := ToContactResponse(c)
	return &response, nil
}

// ChangeStatus moves a contact to a new lifecycle status
func (s *ContactService) ChangeStatus(ctx context.Context, tenantID, contactID uuid.UUID, req ChangeContactStatusRequest) (*ContactResponse, error) {
	c, err := s.contactRepo.FindByIDForTenant(ctx, tenantID, contactID)
	if err != nil {
		return nil, err
	}

	if err := c.ChangeStatus(contact.ContactStatus(req.Status)); err != nil {
		return nil, err
	}

	if err := s.contactRepo.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, c)

	response := ToContactResponse(c)
	return &response, nil
}

// Reassign transfers contact ownership to another user
func (s *ContactService) Reassign(ctx context.Context, tenantID, contactID, newOwnerID uuid.UUID) (*ContactResponse, error) {
	c, err := s.contactRepo.FindByIDForTenant(ctx, tenantID, contactID)
	if err != nil {
		return nil, err
	}
	if c.IsDeleted() {
		return nil, shared.NewDomainError("CONTACT_DELETED", "Cannot reassign a deleted contact")
	}

	c.SetOwner(newOwnerID)
	c.IncrementVersion()

	if err := s.contactRepo.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}

	response := ToContactResponse(c)
	return &response, nil
}

// Delete soft deletes a contact
func (s *ContactService) Delete(ctx context.Context, tenantID, contactID, deletedBy uuid.UUID) error {
	c, err := s.contactRepo.FindByIDForTenant(ctx, tenantID, contactID)
	if err != nil {
		return err
	}

	if err := c.Delete(deletedBy); err != nil {
		return err
	}

	if err := s.contactRepo.Save(ctx, c); err != nil {
		return err
	}

	s.publishDomainEvents(ctx, c)
	return nil
}

// Restore reverses a soft delete
func (s *ContactService) Restore(ctx context.Context, tenantID, contactID uuid.UUID) (*ContactResponse, error) {
	c, err := s.contactRepo.FindByID(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if c.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}

	if err := c.Undelete(); err != nil {
		return nil, err
	}

	if err := s.contactRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, c)

	response := ToContactResponse(c)
	return &response, nil
}

// CountByStatus returns contact counts grouped by lifecycle status
func (s *ContactService) CountByStatus(ctx context.Context, tenantID uuid.UUID) ([]StatusCountResponse, error) {
	counts, err := s.contactRepo.CountByStatus(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	// Stable order for API consumers
	order := []contact.ContactStatus{
		contact.ContactStatusLead,
		contact.ContactStatusProspect,
		contact.ContactStatusCustomer,
		contact.ContactStatusChurned,
	}
	responses := make([]StatusCountResponse, 0, len(order))
	for _, status := range order {
		responses = append(responses, StatusCountResponse{
			Status: string(status),
			Count:  counts[status],
		})
	}

	return responses, nil
}

func buildContactFilter(filter ContactListFilter) shared.Filter {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}

	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Source != "" {
		domainFilter.Filters["source"] = filter.Source
	}
	if filter.Company != "" {
		domainFilter.Filters["company"] = filter.Company
	}
	if filter.City != "" {
		domainFilter.Filters["city"] = filter.City
	}
	if filter.OwnerID != "" {
		if ownerID, err := uuid.Parse(filter.OwnerID); err == nil {
			domainFilter.Filters["owner_id"] = ownerID
		}
	}

	return domainFilter
}
