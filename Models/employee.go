package Models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Permission levels checked by middleware.Verify.
const (
	PermissionEmployee = 1
	PermissionManager  = 3
	PermissionAdmin    = 4
)

// Employee is never deleted; deactivation clears IsActive.
type Employee struct {
	ID                    string     `gorm:"primaryKey;size:36" json:"id"`
	Email                 string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash          string     `gorm:"not null" json:"-"`
	FirstName             string     `gorm:"size:100;not null" json:"firstName"`
	LastName              string     `gorm:"size:100;not null" json:"lastName"`
	IsActive              bool       `gorm:"not null" json:"isActive"`
	IsVerified            bool       `gorm:"not null" json:"isVerified"`
	VerificationToken     *string    `gorm:"size:64;uniqueIndex" json:"-"`
	VerificationExpiresAt *time.Time `json:"-"`
	Permission            int        `gorm:"not null" json:"permission"`
	LastIPAddress         string     `gorm:"size:64" json:"-"`
	MacAddress            string     `gorm:"size:64" json:"-"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.Email = strings.ToLower(strings.TrimSpace(e.Email))
	return nil
}

func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

func (e Employee) IsManager() bool {
	return e.Permission >= PermissionManager
}

// EmployeeSummary is the public subset of an employee embedded in other payloads.
type EmployeeSummary struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (e Employee) Summary() EmployeeSummary {
	return EmployeeSummary{
		ID:        e.ID,
		Email:     e.Email,
		FirstName: e.FirstName,
		LastName:  e.LastName,
	}
}

func Summaries(employees []Employee) []EmployeeSummary {
	out := make([]EmployeeSummary, 0, len(employees))
	for _, e := range employees {
		out = append(out, e.Summary())
	}
	return out
}
