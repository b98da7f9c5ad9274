package contact

import (
	"time"

	"github.com/crm/backend/internal/domain/contact"
	"github.com/google/uuid"
)

// CreateContactRequest represents a request to create a new contact
type CreateContactRequest struct {
	FirstName  string   `json:"first_name" binding:"max=100"`
	LastName   string   `json:"last_name" binding:"required,min=1,max=100"`
	Company    string   `json:"company" binding:"max=200"`
	JobTitle   string   `json:"job_title" binding:"max=100"`
	Email      string   `json:"email" binding:"omitempty,email,max=200"`
	Phone      string   `json:"phone" binding:"max=50"`
	Address    string   `json:"address" binding:"max=500"`
	City       string   `json:"city" binding:"max=100"`
	Country    string   `json:"country" binding:"max=100"`
	PostalCode string   `json:"postal_code" binding:"max=20"`
	Source     string   `json:"source" binding:"omitempty,oneof=web referral import manual other"`
	Tags       []string `json:"tags" binding:"max=50"`
	Notes      string   `json:"notes"`
	OwnerID    uuid.UUID `json:"-"` // Set from JWT context, not from request body
}

// UpdateContactRequest represents a request to update a contact
type UpdateContactRequest struct {
	FirstName  *string   `json:"first_name" binding:"omitempty,max=100"`
	LastName   *string   `json:"last_name" binding:"omitempty,min=1,max=100"`
	Company    *string   `json:"company" binding:"omitempty,max=200"`
	JobTitle   *string   `json:"job_title" binding:"omitempty,max=100"`
	Email      *string   `json:"email" binding:"omitempty,email,max=200"`
	Phone      *string   `json:"phone" binding:"omitempty,max=50"`
	Address    *string   `json:"address" binding:"omitempty,max=500"`
	City       *string   `json:"city" binding:"omitempty,max=100"`
	Country    *string   `json:"country" binding:"omitempty,max=100"`
	PostalCode *string   `json:"postal_code" binding:"omitempty,max=20"`
	Tags       *[]string `json:"tags" binding:"omitempty,max=50"`
	Notes      *string   `json:"notes"`
}

// ChangeContactStatusRequest represents a request to change a contact's lifecycle status
type ChangeContactStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=lead prospect customer churned"`
}

// ContactResponse represents a contact in API responses
type ContactResponse struct {
	ID         uuid.UUID  `json:"id"`
	TenantID   uuid.UUID  `json:"tenant_id"`
	OwnerID    *uuid.UUID `json:"owner_id"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	FullName   string     `json:"full_name"`
	Company    string     `json:"company"`
	JobTitle   string     `json:"job_title"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	Address    string     `json:"address"`
	City       string     `json:"city"`
	Country    string     `json:"country"`
	PostalCode string     `json:"postal_code"`
	Status     string     `json:"status"`
	Source     string     `json:"source"`
	Tags       []string   `json:"tags"`
	Notes      string     `json:"notes"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Version    int        `json:"version"`
}

// ContactListResponse represents a list item for contacts
type ContactListResponse struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   *uuid.UUID `json:"owner_id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	FullName  string     `json:"full_name"`
	Company   string     `json:"company"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	City      string     `json:"city"`
	Status    string     `json:"status"`
	Source    string     `json:"source"`
	Tags      []string   `json:"tags"`
	CreatedAt time.Time  `json:"created_at"`
}

// ContactListFilter represents filter options for contact list
type ContactListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=lead prospect customer churned"`
	Source   string `form:"source" binding:"omitempty,oneof=web referral import manual other"`
	Company  string `form:"company"`
	City     string `form:"city"`
	OwnerID  string `form:"owner_id" binding:"omitempty,uuid"`
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// StatusCountResponse represents contact counts per lifecycle status
type StatusCountResponse struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// ToContactResponse converts a domain Contact to ContactResponse
func ToContactResponse(c *contact.Contact) ContactResponse {
	return ContactResponse{
		ID:         c.ID,
		TenantID:   c.TenantID,
		OwnerID:    c.OwnerID,
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		FullName:   c.FullName(),
		Company:    c.Company,
		JobTitle:   c.JobTitle,
		Email:      c.Email,
		Phone:      c.Phone,
		Address:    c.Address,
		City:       c.City,
		Country:    c.Country,
		PostalCode: c.PostalCode,
		Status:     string(c.Status),
		Source:     string(c.Source),
		Tags:       c.GetTags(),
		Notes:      c.Notes,
		DeletedAt:  c.DeletedAt,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
		Version:    c.Version,
	}
}

// ToContactListResponse converts a domain Contact to ContactListResponse
func ToContactListResponse(c *contact.Contact) ContactListResponse {
	return ContactListResponse{
		ID:        c.ID,
		OwnerID:   c.OwnerID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		FullName:  c.FullName(),
		Company:   c.Company,
		Email:     c.Email,
		Phone:     c.Phone,
		City:      c.City,
		Status:    string(c.Status),
		Source:    string(c.Source),
		Tags:      c.GetTags(),
		CreatedAt: c.CreatedAt,
	}
}
