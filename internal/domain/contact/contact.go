package contact

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ContactStatus represents the lifecycle stage of a contact
type ContactStatus string

const (
	ContactStatusLead     ContactStatus = "lead"
	ContactStatusProspect ContactStatus = "prospect"
	ContactStatusCustomer ContactStatus = "customer"
	ContactStatusChurned  ContactStatus = "churned"
)

// ContactSource describes where the contact came from
type ContactSource string

const (
	ContactSourceWeb      ContactSource = "web"
	ContactSourceReferral ContactSource = "referral"
	ContactSourceImport   ContactSource = "import"
	ContactSourceManual   ContactSource = "manual"
	ContactSourceOther    ContactSource = "other"
)

// Contact represents a person or organization the tenant does business with.
// It is the aggregate root for contact operations.
type Contact struct {
	shared.TenantAggregateRoot
	shared.SoftDeletable
	FirstName  string        `gorm:"type:varchar(100)"`
	LastName   string        `gorm:"type:varchar(100);not null;index"`
	Company    string        `gorm:"type:varchar(200);index"`
	JobTitle   string        `gorm:"type:varchar(100)"`
	Email      string        `gorm:"type:varchar(200);index"`
	Phone      string        `gorm:"type:varchar(50);index"`
	Address    string        `gorm:"type:text"`
	City       string        `gorm:"type:varchar(100)"`
	Country    string        `gorm:"type:varchar(100)"`
	PostalCode string        `gorm:"type:varchar(20)"`
	Status     ContactStatus `gorm:"type:varchar(20);not null;default:'lead';index"`
	Source     ContactSource `gorm:"type:varchar(20);not null;default:'manual'"`
	Tags       string        `gorm:"type:jsonb;not null;default:'[]'"`
	Notes      string        `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Contact) TableName() string {
	return "contacts"
}

// NewContact creates a new contact with required fields
func NewContact(tenantID, ownerID uuid.UUID, firstName, lastName string, source ContactSource) (*Contact, error) {
	if err := validateLastName(lastName); err != nil {
		return nil, err
	}
	if firstName != "" && len(firstName) > 100 {
		return nil, shared.NewDomainError("INVALID_FIRST_NAME", "First name cannot exceed 100 characters")
	}
	if source == "" {
		source = ContactSourceManual
	}
	if err := validateSource(source); err != nil {
		return nil, err
	}

	contact := &Contact{
		TenantAggregateRoot: shared.NewOwnedTenantAggregateRoot(tenantID, ownerID),
		FirstName:           firstName,
		LastName:            lastName,
		Status:              ContactStatusLead,
		Source:              source,
		Tags:                "[]",
	}

	contact.AddDomainEvent(NewContactCreatedEvent(contact))

	return contact, nil
}

// FullName returns the display name of the contact
func (c *Contact) FullName() string {
	if c.FirstName == "" {
		return c.LastName
	}
	return c.FirstName + " " + c.LastName
}

// Update updates the contact's basic information
func (c *Contact) Update(firstName, lastName, company, jobTitle string) error {
	if err := c.ensureMutable(); err != nil {
		return err
	}
	if err := validateLastName(lastName); err != nil {
		return err
	}
	if firstName != "" && len(firstName) > 100 {
		return shared.NewDomainError("INVALID_FIRST_NAME", "First name cannot exceed 100 characters")
	}
	if company != "" && len(company) > 200 {
		return shared.NewDomainError("INVALID_COMPANY", "Company cannot exceed 200 characters")
	}
	if jobTitle != "" && len(jobTitle) > 100 {
		return shared.NewDomainError("INVALID_JOB_TITLE", "Job title cannot exceed 100 characters")
	}

	c.FirstName = firstName
	c.LastName = lastName
	c.Company = company
	c.JobTitle = jobTitle
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewContactUpdatedEvent(c))

	return nil
}

// SetContactInfo sets email and phone
func (c *Contact) SetContactInfo(email, phone string) error {
	if err := c.ensureMutable(); err != nil {
		return err
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return err
		}
	}

	c.Email = strings.ToLower(email)
	c.Phone = phone
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// SetAddress sets the contact's address information
func (c *Contact) SetAddress(address, city, country, postalCode string) error {
	if err := c.ensureMutable(); err != nil {
		return err
	}
	if address != "" && len(address) > 500 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 500 characters")
	}
	if city != "" && len(city) > 100 {
		return shared.NewDomainError("INVALID_CITY", "City cannot exceed 100 characters")
	}
	if country != "" && len(country) > 100 {
		return shared.NewDomainError("INVALID_COUNTRY", "Country cannot exceed 100 characters")
	}
	if postalCode != "" && len(postalCode) > 20 {
		return shared.NewDomainError("INVALID_POSTAL_CODE", "Postal code cannot exceed 20 characters")
	}

	c.Address = address
	c.City = city
	c.Country = country
	c.PostalCode = postalCode
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// ChangeStatus moves the contact to a new lifecycle status
func (c *Contact) ChangeStatus(status ContactStatus) error {
	if err := c.ensureMutable(); err != nil {
		return err
	}
	if err := validateStatus(status); err != nil {
		return err
	}
	if c.Status == status {
		return shared.NewDomainError("SAME_STATUS", "Contact is already in this status")
	}

	oldStatus := c.Status
	c.Status = status
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewContactStatusChangedEvent(c, oldStatus, status))

	return nil
}

// SetTags replaces the contact's tags
func (c *Contact) SetTags(tags []string) error {
	if err := c.ensureMutable(); err != nil {
		return err
	}
	if len(tags) > 50 {
		return shared.NewDomainError("INVALID_TAGS", "Cannot have more than 50 tags")
	}
	for _, t := range tags {
		if t == "" || len(t) > 50 {
			return shared.NewDomainError("INVALID_TAGS", "Tags must be 1-50 characters")
		}
	}
	if tags == nil {
		tags = []string{}
	}

	raw, err := json.Marshal(tags)
	if err != nil {
		return shared.NewDomainError("INVALID_TAGS", "Tags must be serializable")
	}

	c.Tags = string(raw)
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// GetTags parses the stored tag list
func (c *Contact) GetTags() []string {
	var tags []string
	if err := json.Unmarshal([]byte(c.Tags), &tags); err != nil {
		return []string{}
	}
	return tags
}

// SetNotes sets free-form notes
func (c *Contact) SetNotes(notes string) error {
	if err := c.ensureMutable(); err != nil {
		return err
	}
	c.Notes = notes
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// Delete soft deletes the contact
func (c *Contact) Delete(by uuid.UUID) error {
	if c.IsDeleted() {
		return shared.NewDomainError("ALREADY_DELETED", "Contact is already deleted")
	}

	c.MarkDeleted(by)
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	event := NewContactDeletedEvent(c)
	event.SetActor(by)
	c.AddDomainEvent(event)

	return nil
}

// Undelete restores a soft-deleted contact
func (c *Contact) Undelete() error {
	if !c.IsDeleted() {
		return shared.NewDomainError("NOT_DELETED", "Contact is not deleted")
	}

	c.Restore()
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewContactRestoredEvent(c))

	return nil
}

// IsCustomer returns true if the contact has converted to a customer
func (c *Contact) IsCustomer() bool {
	return c.Status == ContactStatusCustomer
}

func (c *Contact) ensureMutable() error {
	if c.IsDeleted() {
		return shared.NewDomainError("CONTACT_DELETED", "Cannot modify a deleted contact")
	}
	return nil
}

// Validation functions

func validateLastName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_LAST_NAME", "Last name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_LAST_NAME", "Last name cannot exceed 100 characters")
	}
	return nil
}

func validateStatus(status ContactStatus) error {
	switch status {
	case ContactStatusLead, ContactStatusProspect, ContactStatusCustomer, ContactStatusChurned:
		return nil
	default:
		return shared.NewDomainError("INVALID_STATUS", "Invalid contact status")
	}
}

func validateSource(source ContactSource) error {
	switch source {
	case ContactSourceWeb, ContactSourceReferral, ContactSourceImport, ContactSourceManual, ContactSourceOther:
		return nil
	default:
		return shared.NewDomainError("INVALID_SOURCE", "Invalid contact source")
	}
}

func validatePhone(phone string) error {
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone number cannot exceed 50 characters")
	}
	validPhone := regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
	if !validPhone.MatchString(phone) {
		return shared.NewDomainError("INVALID_PHONE", "Invalid phone number format")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
