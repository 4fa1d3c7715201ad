// Package Identity owns employee records, credentials and access tokens.
package Identity

import (
	"context"
	"strings"
	"time"

	"Chronos/AppErrors"
	"Chronos/Assignments"
	"Chronos/Models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const DefaultVerificationTTL = 24 * time.Hour

// Mailer delivers verification links.
type Mailer interface {
	SendVerification(ctx context.Context, employee Models.Employee, token string) error
}

// Caller is the authenticated employee behind a request.
type Caller struct {
	EmployeeID string
	IsActive   bool
	IsVerified bool
	Permission int
	Employee   Models.Employee
}

func (c Caller) IsManager() bool {
	return c.Permission >= Models.PermissionManager
}

// CanAccess reports whether the caller may read data owned by employeeID.
func (c Caller) CanAccess(employeeID string) bool {
	return c.EmployeeID == employeeID || c.IsManager()
}

type Directory struct {
	DB              *gorm.DB
	Tokens          *TokenIssuer
	Mailer          Mailer
	BcryptCost      int
	VerificationTTL time.Duration
}

func NewDirectory(db *gorm.DB, tokens *TokenIssuer, mailer Mailer, bcryptCost int) *Directory {
	return &Directory{
		DB:              db,
		Tokens:          tokens,
		Mailer:          mailer,
		BcryptCost:      bcryptCost,
		VerificationTTL: DefaultVerificationTTL,
	}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type CreateEmployeeInput struct {
	Email      string
	FirstName  string
	LastName   string
	Permission int
	ProjectIDs []string
}

// EmployeeUpdate changes only the non-nil fields. A non-nil ProjectIDs
// replaces the employee's projects.
type EmployeeUpdate struct {
	FirstName  *string
	LastName   *string
	IsActive   *bool
	Permission *int
	ProjectIDs *[]string
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Employee  Models.Employee
}

// VerifyCaller resolves a bearer token to an active, verified employee.
func (d *Directory) VerifyCaller(ctx context.Context, token string) (*Caller, error) {
	if token == "" {
		return nil, AppErrors.Unauthenticated("Authorization token required")
	}
	claims, err := d.Tokens.Parse(token)
	if err != nil {
		return nil, AppErrors.Unauthenticated("Authentication failed")
	}
	var employee Models.Employee
	if err := d.DB.WithContext(ctx).First(&employee, "id = ?", claims.EmployeeID).Error; err != nil {
		if Models.IsNotFound(err) {
			return nil, AppErrors.Unauthenticated("Authentication failed")
		}
		return nil, AppErrors.Internal(err, "Failed to load employee")
	}
	if !employee.IsActive {
		return nil, AppErrors.Unauthenticated("Account is deactivated")
	}
	if !employee.IsVerified {
		return nil, AppErrors.Unauthenticated("Email not verified")
	}
	return &Caller{
		EmployeeID: employee.ID,
		IsActive:   employee.IsActive,
		IsVerified: employee.IsVerified,
		Permission: employee.Permission,
		Employee:   employee,
	}, nil
}

// Register creates an unverified employee and mails the verification link.
// Nothing is stored if the mail cannot be sent.
func (d *Directory) Register(ctx context.Context, input RegisterInput) (*Models.Employee, error) {
	hash, err := d.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	employee := Models.Employee{
		Email:        normalizeEmail(input.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		IsActive:     true,
		Permission:   Models.PermissionEmployee,
	}
	err = d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		token, err := createUnverified(tx, &employee, d.verificationTTL())
		if err != nil {
			return err
		}
		return d.sendVerification(ctx, employee, token)
	})
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

// CreateEmployee is the administrative create. It returns the generated
// temporary password alongside the employee.
func (d *Directory) CreateEmployee(ctx context.Context, input CreateEmployeeInput) (*Models.Employee, string, error) {
	permission := input.Permission
	if permission == 0 {
		permission = Models.PermissionEmployee
	}
	if !validPermission(permission) {
		return nil, "", AppErrors.Validation("Invalid permission level %d", permission)
	}
	tempPassword := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	hash, err := d.hashPassword(tempPassword)
	if err != nil {
		return nil, "", err
	}
	employee := Models.Employee{
		Email:        normalizeEmail(input.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		IsActive:     true,
		Permission:   permission,
	}
	err = d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		token, err := createUnverified(tx, &employee, d.verificationTTL())
		if err != nil {
			return err
		}
		if err := Assignments.SetEmployeeProjectsTx(tx, employee.ID, input.ProjectIDs); err != nil {
			return err
		}
		return d.sendVerification(ctx, employee, token)
	})
	if err != nil {
		return nil, "", err
	}
	return &employee, tempPassword, nil
}

// createUnverified stores the employee with a fresh verification token.
func createUnverified(tx *gorm.DB, employee *Models.Employee, ttl time.Duration) (string, error) {
	if employee.Email == "" {
		return "", AppErrors.Validation("Email is required")
	}
	var existing int64
	if err := tx.Model(&Models.Employee{}).Where("email = ?", employee.Email).Count(&existing).Error; err != nil {
		return "", AppErrors.Internal(err, "Failed to check email")
	}
	if existing > 0 {
		return "", AppErrors.Conflict("Email already in use")
	}

	token := uuid.NewString()
	expiresAt := time.Now().UTC().Add(ttl)
	employee.VerificationToken = &token
	employee.VerificationExpiresAt = &expiresAt
	if err := tx.Create(employee).Error; err != nil {
		if Models.IsDuplicateKey(err) {
			return "", AppErrors.Conflict("Email already in use")
		}
		return "", AppErrors.Internal(err, "Failed to create employee")
	}
	return token, nil
}

func (d *Directory) sendVerification(ctx context.Context, employee Models.Employee, token string) error {
	if d.Mailer == nil {
		return nil
	}
	if err := d.Mailer.SendVerification(ctx, employee, token); err != nil {
		return AppErrors.Internal(err, "Failed to send verification email")
	}
	return nil
}

// VerifyEmail marks the token's employee verified and consumes the token.
func (d *Directory) VerifyEmail(ctx context.Context, token string) (*Models.Employee, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, AppErrors.Validation("Invalid or expired verification token")
	}
	db := d.DB.WithContext(ctx)
	var employee Models.Employee
	if err := db.Where("verification_token = ?", token).First(&employee).Error; err != nil {
		if Models.IsNotFound(err) {
			return nil, AppErrors.Validation("Invalid or expired verification token")
		}
		return nil, AppErrors.Internal(err, "Failed to verify email")
	}
	if employee.VerificationExpiresAt != nil && time.Now().UTC().After(*employee.VerificationExpiresAt) {
		return nil, AppErrors.Validation("Invalid or expired verification token")
	}
	err := db.Model(&employee).Updates(map[string]interface{}{
		"is_verified":             true,
		"verification_token":      nil,
		"verification_expires_at": nil,
	}).Error
	if err != nil {
		return nil, AppErrors.Internal(err, "Failed to verify email")
	}
	employee.IsVerified = true
	employee.VerificationToken = nil
	employee.VerificationExpiresAt = nil
	return &employee, nil
}

func (d *Directory) Login(ctx context.Context, email, password, ipAddress string) (*LoginResult, error) {
	db := d.DB.WithContext(ctx)
	var employee Models.Employee
	if err := db.Where("email = ?", normalizeEmail(email)).First(&employee).Error; err != nil {
		if Models.IsNotFound(err) {
			return nil, AppErrors.Unauthenticated("Invalid credentials")
		}
		return nil, AppErrors.Internal(err, "Failed to login")
	}
	if !employee.IsActive {
		return nil, AppErrors.Unauthenticated("Account is deactivated")
	}
	if !employee.IsVerified {
		return nil, AppErrors.Unauthenticated("Email not verified")
	}
	if bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(password)) != nil {
		return nil, AppErrors.Unauthenticated("Invalid credentials")
	}

	token, expiresAt, err := d.Tokens.Issue(employee)
	if err != nil {
		return nil, AppErrors.Internal(err, "Failed to issue token")
	}
	if ipAddress != "" && ipAddress != employee.LastIPAddress {
		if err := db.Model(&employee).Update("last_ip_address", ipAddress).Error; err != nil {
			return nil, AppErrors.Internal(err, "Failed to record login")
		}
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Employee: employee}, nil
}

func (d *Directory) UpdatePassword(ctx context.Context, employeeID, currentPassword, newPassword string) error {
	employee, err := d.Get(ctx, employeeID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(currentPassword)) != nil {
		return AppErrors.Validation("Current password is incorrect")
	}
	hash, err := d.hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := d.DB.WithContext(ctx).Model(employee).Update("password_hash", hash).Error; err != nil {
		return AppErrors.Internal(err, "Failed to update password")
	}
	return nil
}

func (d *Directory) Get(ctx context.Context, employeeID string) (*Models.Employee, error) {
	var employee Models.Employee
	if err := d.DB.WithContext(ctx).First(&employee, "id = ?", employeeID).Error; err != nil {
		if Models.IsNotFound(err) {
			return nil, AppErrors.NotFound("Employee not found")
		}
		return nil, AppErrors.Internal(err, "Failed to retrieve employee")
	}
	return &employee, nil
}

func (d *Directory) List(ctx context.Context) ([]Models.Employee, error) {
	employees := []Models.Employee{}
	if err := d.DB.WithContext(ctx).Order("first_name, last_name").Find(&employees).Error; err != nil {
		return nil, AppErrors.Internal(err, "Failed to retrieve employees")
	}
	return employees, nil
}

// Admins returns active, verified administrators.
func (d *Directory) Admins(ctx context.Context) ([]Models.Employee, error) {
	admins := []Models.Employee{}
	err := d.DB.WithContext(ctx).
		Where("permission >= ? AND is_active = ? AND is_verified = ?", Models.PermissionAdmin, true, true).
		Find(&admins).Error
	if err != nil {
		return nil, AppErrors.Internal(err, "Failed to retrieve admins")
	}
	return admins, nil
}

func (d *Directory) UpdateEmployee(ctx context.Context, employeeID string, update EmployeeUpdate) (*Models.Employee, error) {
	var employee Models.Employee
	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&employee, "id = ?", employeeID).Error; err != nil {
			if Models.IsNotFound(err) {
				return AppErrors.NotFound("Employee not found")
			}
			return AppErrors.Internal(err, "Failed to retrieve employee")
		}

		changes := map[string]interface{}{}
		if update.FirstName != nil && strings.TrimSpace(*update.FirstName) != "" {
			changes["first_name"] = strings.TrimSpace(*update.FirstName)
		}
		if update.LastName != nil && strings.TrimSpace(*update.LastName) != "" {
			changes["last_name"] = strings.TrimSpace(*update.LastName)
		}
		if update.IsActive != nil {
			changes["is_active"] = *update.IsActive
		}
		if update.Permission != nil {
			if !validPermission(*update.Permission) {
				return AppErrors.Validation("Invalid permission level %d", *update.Permission)
			}
			changes["permission"] = *update.Permission
		}
		if len(changes) > 0 {
			if err := tx.Model(&employee).Updates(changes).Error; err != nil {
				return AppErrors.Internal(err, "Failed to update employee")
			}
		}
		if update.ProjectIDs != nil {
			return Assignments.SetEmployeeProjectsTx(tx, employeeID, *update.ProjectIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d.Get(ctx, employeeID)
}

// UpdateProfile lets employees change their own name.
func (d *Directory) UpdateProfile(ctx context.Context, employeeID string, firstName, lastName *string) (*Models.Employee, error) {
	return d.UpdateEmployee(ctx, employeeID, EmployeeUpdate{FirstName: firstName, LastName: lastName})
}

// Deactivate is the employee soft delete.
func (d *Directory) Deactivate(ctx context.Context, employeeID string) error {
	inactive := false
	_, err := d.UpdateEmployee(ctx, employeeID, EmployeeUpdate{IsActive: &inactive})
	return err
}

// ProvisionInput describes an account created already verified, without a
// verification mail.
type ProvisionInput struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Permission int
}

// CreateAdmin provisions an administrator.
func (d *Directory) CreateAdmin(ctx context.Context, input ProvisionInput) (*Models.Employee, error) {
	input.Permission = Models.PermissionAdmin
	return d.Provision(ctx, input)
}

// Provision creates an active, verified employee. It backs the CLI's
// create-admin and seed commands.
func (d *Directory) Provision(ctx context.Context, input ProvisionInput) (*Models.Employee, error) {
	if strings.TrimSpace(input.Password) == "" {
		return nil, AppErrors.Validation("Password is required")
	}
	permission := input.Permission
	if permission == 0 {
		permission = Models.PermissionEmployee
	}
	if !validPermission(permission) {
		return nil, AppErrors.Validation("Invalid permission level %d", permission)
	}
	hash, err := d.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	employee := Models.Employee{
		Email:        normalizeEmail(input.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		IsActive:     true,
		IsVerified:   true,
		Permission:   permission,
	}
	if employee.Email == "" {
		return nil, AppErrors.Validation("Email is required")
	}
	if err := d.DB.WithContext(ctx).Create(&employee).Error; err != nil {
		if Models.IsDuplicateKey(err) {
			return nil, AppErrors.Conflict("Email already in use")
		}
		return nil, AppErrors.Internal(err, "Failed to create employee")
	}
	return &employee, nil
}

func (d *Directory) hashPassword(password string) (string, error) {
	cost := d.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", AppErrors.Internal(err, "Failed to hash password")
	}
	return string(hash), nil
}

func (d *Directory) verificationTTL() time.Duration {
	if d.VerificationTTL <= 0 {
		return DefaultVerificationTTL
	}
	return d.VerificationTTL
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validPermission(level int) bool {
	switch level {
	case Models.PermissionEmployee, Models.PermissionManager, Models.PermissionAdmin:
		return true
	}
	return false
}
