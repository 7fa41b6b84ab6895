package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ============================================================
// Shared columns
// ============================================================

// Base carries the store-owned columns of every CRM table
type Base struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns a UUID when the row has none
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// GetID returns the primary key
func (b *Base) GetID() string {
	return b.ID
}

// ============================================================
// Auth & Users
// ============================================================

// User represents users table
type User struct {
	Base
	FirstName              string          `gorm:"size:100;not null" json:"first_name" validate:"required,max=100"`
	LastName               string          `gorm:"size:100;not null" json:"last_name" validate:"required,max=100"`
	Username               string          `gorm:"uniqueIndex;size:50;not null" json:"username" validate:"required,min=3,max=50"`
	Email                  string          `gorm:"uniqueIndex;size:100;not null" json:"email" validate:"required,email,max=100"`
	Phone                  string          `gorm:"size:30" json:"phone" validate:"omitempty,phone"`
	Role                   string          `gorm:"size:20;not null;default:'consultant'" json:"role" validate:"required,oneof=admin consultant"`
	Department             string          `gorm:"size:100" json:"department"`
	Password               string          `gorm:"size:255;not null" json:"-"`
	LastLoginAt            *time.Time      `json:"last_login_at"`
	Status                 string          `gorm:"size:20;not null;default:'active'" json:"status" validate:"required,oneof=active inactive"`
	PhotoURL               string          `gorm:"size:500" json:"photo_url"`
	Notes                  string          `gorm:"type:text" json:"notes"`
	Revenue                decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"revenue"`
	RevenueOfficeShare     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"revenue_office_share"`
	RevenueConsultantShare decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"revenue_consultant_share"`
	RevenueSharePercent    decimal.Decimal `gorm:"type:decimal(5,2);not null;default:3" json:"revenue_share_percent"`
	TransactionCount       int64           `gorm:"not null;default:0" json:"transaction_count"`
}

func (User) TableName() string {
	return "users"
}

// IsActive reports whether the user may sign in
func (u *User) IsActive() bool {
	return u.Status == "active"
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    string     `gorm:"type:char(36);index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// CRM Tables
// ============================================================

// Client represents clients table
type Client struct {
	Base
	FirstName    string  `gorm:"size:100;not null" json:"first_name" validate:"required,max=100"`
	LastName     string  `gorm:"size:100;not null" json:"last_name" validate:"required,max=100"`
	NationalID   string  `gorm:"size:20" json:"national_id" validate:"omitempty,max=20"`
	Phone        string  `gorm:"size:30" json:"phone" validate:"omitempty,phone"`
	Email        string  `gorm:"size:100" json:"email" validate:"omitempty,email"`
	Address      string  `gorm:"type:text" json:"address"`
	Gender       string  `gorm:"size:20" json:"gender"`
	Occupation   string  `gorm:"size:100" json:"occupation"`
	CompanyName  string  `gorm:"size:200" json:"company_name"`
	TaxNumber    string  `gorm:"size:20" json:"tax_number"`
	IBAN         string  `gorm:"size:34" json:"iban" validate:"omitempty,max=34"`
	Notes        string  `gorm:"type:text" json:"notes"`
	Status       string  `gorm:"size:20;not null;default:'active'" json:"status" validate:"required,oneof=active inactive pending"`
	ConsultantID string  `gorm:"type:char(36);index;not null" json:"consultant_id" validate:"required"`
	ReferredBy   *string `gorm:"type:char(36)" json:"referred_by"`
	CreatedBy    string  `gorm:"type:char(36);not null" json:"created_by" validate:"required"`
}

func (Client) TableName() string {
	return "clients"
}

// Property represents properties table
type Property struct {
	Base
	ListingCode           *string          `gorm:"uniqueIndex;size:50" json:"listing_code"`
	Province              string           `gorm:"size:100;not null" json:"province" validate:"required"`
	District              string           `gorm:"size:100;not null" json:"district" validate:"required"`
	Neighborhood          string           `gorm:"size:100" json:"neighborhood"`
	BlockNo               string           `gorm:"size:20" json:"block_no"`
	ParcelNo              string           `gorm:"size:20" json:"parcel_no"`
	AreaM2                *decimal.Decimal `gorm:"type:decimal(10,2)" json:"area_m2"`
	Kind                  string           `gorm:"size:20;not null;default:'land'" json:"kind" validate:"required,oneof=land field building"`
	ZoningPlanType        string           `gorm:"size:100" json:"zoning_plan_type"`
	SiteCoverageRatio     *decimal.Decimal `gorm:"type:decimal(5,2)" json:"site_coverage_ratio"`
	FloorAreaRatio        *decimal.Decimal `gorm:"type:decimal(5,2)" json:"floor_area_ratio"`
	MaxHeight             *decimal.Decimal `gorm:"type:decimal(5,2)" json:"max_height"`
	OwnerClientID         *string          `gorm:"type:char(36);index" json:"owner_client_id"`
	PreviousOwnerClientID *string          `gorm:"type:char(36)" json:"previous_owner_client_id"`
	ConsultantID          string           `gorm:"type:char(36);index;not null" json:"consultant_id" validate:"required"`
	AcquiredAt            *time.Time       `json:"acquired_at"`
	PurchasePrice         *decimal.Decimal `gorm:"type:decimal(15,2)" json:"purchase_price"`
	TitleDeedValue        *decimal.Decimal `gorm:"type:decimal(15,2)" json:"title_deed_value"`
	TitleDeedSaleValue    *decimal.Decimal `gorm:"type:decimal(15,2)" json:"title_deed_sale_value"`
	AppraisalPrice        *decimal.Decimal `gorm:"type:decimal(15,2)" json:"appraisal_price"`
	ListingPrice          *decimal.Decimal `gorm:"type:decimal(15,2)" json:"listing_price"`
	Coordinates           datatypes.JSON   `gorm:"type:json" json:"coordinates" swaggertype:"object"`
	PhotoURL              string           `gorm:"size:500" json:"photo_url"`
	Photo360URL           string           `gorm:"size:500" json:"photo_360_url"`
	ListedAt              *time.Time       `json:"listed_at"`
	Notes                 string           `gorm:"type:text" json:"notes"`
	Status                string           `gorm:"size:20;not null;default:'active'" json:"status" validate:"required,oneof=active sold pending cancelled"`
	UsageStatus           string           `gorm:"size:50" json:"usage_status"`
	DeedStatus            string           `gorm:"size:50" json:"deed_status"`
	MortgageStatus        string           `gorm:"size:50" json:"mortgage_status"`
}

func (Property) TableName() string {
	return "properties"
}

// Transaction represents transactions table
type Transaction struct {
	Base
	TransactionCode  *string          `gorm:"uniqueIndex;size:50" json:"transaction_code"`
	PropertyID       *string          `gorm:"type:char(36);index" json:"property_id"`
	BuyerClientID    *string          `gorm:"type:char(36);index" json:"buyer_client_id"`
	SellerClientID   *string          `gorm:"type:char(36);index" json:"seller_client_id"`
	ConsultantID     string           `gorm:"type:char(36);index;not null" json:"consultant_id" validate:"required"`
	TransactionDate  *time.Time       `gorm:"index" json:"transaction_date"`
	Amount           *decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount" validate:"required"`
	Currency         string           `gorm:"size:3;not null;default:'TRY'" json:"currency" validate:"required,len=3"`
	Status           string           `gorm:"size:20;not null;default:'pending'" json:"status" validate:"required,oneof=pending completed cancelled"`
	PaymentMethod    string           `gorm:"size:50" json:"payment_method"`
	PaymentStatus    string           `gorm:"size:20;not null;default:'pending'" json:"payment_status" validate:"required,oneof=pending partially_paid fully_paid"`
	CommissionRate   *decimal.Decimal `gorm:"type:decimal(5,2);not null;default:3" json:"commission_rate"`
	CommissionAmount decimal.Decimal  `gorm:"type:decimal(15,2);not null;default:0" json:"commission_amount"`
	TaxAmount        decimal.Decimal  `gorm:"type:decimal(15,2);not null;default:0" json:"tax_amount"`
	NetAmount        decimal.Decimal  `gorm:"type:decimal(15,2);not null;default:0" json:"net_amount"`
	ContractID       string           `gorm:"size:50" json:"contract_id"`
	Notes            string           `gorm:"type:text" json:"notes"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// Document represents documents table
type Document struct {
	Base
	DocumentCode          *string    `gorm:"uniqueIndex;size:50" json:"document_code"`
	PropertyID            *string    `gorm:"type:char(36);index" json:"property_id"`
	TransactionID         *string    `gorm:"type:char(36);index" json:"transaction_id"`
	DocumentType          string     `gorm:"size:50;not null" json:"document_type" validate:"required,max=50"`
	Notary                string     `gorm:"size:200" json:"notary"`
	Attorney              string     `gorm:"size:200" json:"attorney"`
	PowerOfAttorneyDate   *time.Time `json:"power_of_attorney_date"`
	PowerOfAttorneyExpiry *time.Time `json:"power_of_attorney_expiry"`
	IssuingAuthority      string     `gorm:"size:200" json:"issuing_authority"`
	AuthorizedOffice      string     `gorm:"size:200" json:"authorized_office"`
	OwnerName             string     `gorm:"size:200" json:"owner_name"`
	DeedDate              *time.Time `json:"deed_date"`
	PreviousOwnerClientID *string    `gorm:"type:char(36)" json:"previous_owner_client_id"`
	FileURL               string     `gorm:"size:500" json:"file_url"`
	FileType              string     `gorm:"size:50" json:"file_type"`
	FileSize              int64      `json:"file_size" validate:"gte=0"`
	UploadedAt            time.Time  `gorm:"autoCreateTime" json:"uploaded_at"`
	IssuedAt              *time.Time `json:"issued_at"`
	Signer                string     `gorm:"size:200" json:"signer"`
	SignedAt              *time.Time `json:"signed_at"`
	Approver              string     `gorm:"size:200" json:"approver"`
	ApprovedAt            *time.Time `json:"approved_at"`
	VerificationCode      string     `gorm:"size:100" json:"verification_code"`
	ContractID            string     `gorm:"size:50" json:"contract_id"`
	CreatedBy             string     `gorm:"type:char(36);index;not null" json:"created_by" validate:"required"`
	Visibility            string     `gorm:"size:20;not null;default:'public'" json:"visibility" validate:"required,oneof=public private"`
	Notes                 string     `gorm:"type:text" json:"notes"`
	Status                string     `gorm:"size:20;not null;default:'active'" json:"status" validate:"required,oneof=active inactive archived"`
}

func (Document) TableName() string {
	return "documents"
}

// Report represents reports table
type Report struct {
	Base
	ReportType   string         `gorm:"size:30;not null;index" json:"report_type" validate:"required,oneof=revenue transaction client_count property_count investor"`
	Title        string         `gorm:"size:200;not null" json:"title" validate:"required,max=200"`
	Payload      datatypes.JSON `gorm:"type:json" json:"payload" swaggertype:"object"`
	ConsultantID string         `gorm:"type:char(36);index;not null" json:"consultant_id" validate:"required"`
	PeriodStart  *time.Time     `json:"period_start"`
	PeriodEnd    *time.Time     `json:"period_end"`
	CreatedBy    string         `gorm:"type:char(36);not null" json:"created_by" validate:"required"`
	Status       string         `gorm:"size:20;not null;default:'active'" json:"status" validate:"required,oneof=active archived"`
}

func (Report) TableName() string {
	return "reports"
}

// AccountingRecord represents accounting_records table (one row per month)
type AccountingRecord struct {
	Base
	Month            int             `gorm:"not null;uniqueIndex:idx_accounting_period,priority:2" json:"month" validate:"required,min=1,max=12"`
	Year             int             `gorm:"not null;uniqueIndex:idx_accounting_period,priority:1" json:"year" validate:"required,min=2000,max=2100"`
	TotalRevenue     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_revenue"`
	OfficeShare      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"office_share"`
	MonthlyIncome    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"monthly_income"`
	FixedExpenses    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"fixed_expenses"`
	VariableExpenses decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"variable_expenses"`
	ExpenseName      string          `gorm:"size:200" json:"expense_name"`
	Taxes            decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"taxes"`
	TaxType          string          `gorm:"size:50" json:"tax_type"`
	Payments         decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"payments"`
	PaymentType      string          `gorm:"size:50" json:"payment_type"`
	GrossProfit      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"gross_profit"`
	NetProfit        decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"net_profit"`
}

func (AccountingRecord) TableName() string {
	return "accounting_records"
}

// AutoMigrate runs auto migration for all CRM tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Client{},
		&Property{},
		&Transaction{},
		&Document{},
		&Report{},
		&AccountingRecord{},
	)
}
