package domain

import (
	"time"

	"gorm.io/gorm"
)

// InvoiceStatus is the payment state of a contractor invoice.
type InvoiceStatus string

// Invoice states. Auto-approved invoices are recorded as paid directly;
// everything else waits for manual review.
const (
	InvoicePaid            InvoiceStatus = "paid"
	InvoicePendingApproval InvoiceStatus = "pending_approval"
)

// Contract links a tenant to a property. The workflow only reads contracts:
// request intake requires an active contract, and invoice records are linked
// to it. Contract CRUD is owned by another part of the system.
type Contract struct {
	ID         string `json:"id"          gorm:"type:char(36);primaryKey"`
	TenantID   string `json:"tenant_id"   gorm:"type:varchar(64);not null;index:idx_tenant_contracts"`
	PropertyID string `json:"property_id" gorm:"type:varchar(64);not null;index"`

	// Active carries no column default: GORM drops zero-valued fields with
	// defaults on insert, which would store an inactive contract as active.
	Active    bool       `json:"active" gorm:"not null"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for Contract.
func (Contract) TableName() string { return "contracts" }

// Invoice is the billing record created when a contractor submits costs for
// a completed service request.
type Invoice struct {
	ID               string  `json:"id"                 gorm:"type:char(36);primaryKey"`
	ServiceRequestID string  `json:"service_request_id" gorm:"type:char(36);not null;index"`
	ContractID       string  `json:"contract_id,omitempty" gorm:"type:char(36);index"`
	ContractorEmail  string  `json:"contractor_email"   gorm:"type:varchar(255)"`
	Amount           float64 `json:"amount"             gorm:"not null"`
	Description      string  `json:"description"        gorm:"type:text"`
	FileURL          string  `json:"file_url,omitempty" gorm:"type:varchar(512)"`

	Status       InvoiceStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending_approval'"`
	AutoApproved bool          `json:"auto_approved" gorm:"not null;default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for Invoice.
func (Invoice) TableName() string { return "invoices" }

// WorkOrderTask is the lightweight internal task record created as a
// best-effort side effect of intake and scheduling. Failures to create one
// never block the primary transition.
type WorkOrderTask struct {
	ID               string     `json:"id"                 gorm:"type:char(36);primaryKey"`
	ServiceRequestID string     `json:"service_request_id" gorm:"type:char(36);not null;index"`
	Kind             string     `json:"kind"               gorm:"type:varchar(32);not null"`
	Subject          string     `json:"subject"            gorm:"type:varchar(255);not null"`
	DueAt            *time.Time `json:"due_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for WorkOrderTask.
func (WorkOrderTask) TableName() string { return "tasks" }
