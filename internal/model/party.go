package model

import (
	"time"

	"github.com/google/uuid"
)

// Party types.
const (
	PartyCustomer = "customer"
	PartySupplier = "supplier"
)

// Party is a customer or supplier directory entry.
type Party struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Type      string    `gorm:"type:varchar(10);not null;index:idx_party_email_type,unique"`
	Email     string    `gorm:"not null;index:idx_party_email_type,unique"`
	FullName  string    `gorm:"not null"`
	Company   string
	Phone     string
	GSTNumber string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Party) TableName() string { return "parties" }
