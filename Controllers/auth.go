package Controllers

import (
	"time"

	"Chronos/AppErrors"
	"Chronos/Identity"
	"Chronos/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuthController struct {
	Directory   *Identity.Directory
	DownloadURL string
	// SecureCookie marks the jwt cookie Secure.
	SecureCookie bool
}

func NewAuthController(directory *Identity.Directory, downloadURL string) *AuthController {
	return &AuthController{Directory: directory, DownloadURL: downloadURL}
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

type verifyRequest struct {
	Token string `json:"token" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

func (a *AuthController) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	_, err := a.Directory.Register(c.UserContext(), Identity.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(message("Employee registered successfully. Please verify your email to activate your account."))
}

func (a *AuthController) VerifyEmail(c *fiber.Ctx) error {
	var req verifyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if _, err := a.Directory.VerifyEmail(c.UserContext(), req.Token); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":     "Email verified successfully",
		"downloadUrl": a.DownloadURL,
	})
}

// VerifyEmailPage is the HTML landing page behind the link in the
// verification mail.
func (a *AuthController) VerifyEmailPage(c *fiber.Ctx) error {
	employee, err := a.Directory.VerifyEmail(c.UserContext(), c.Query("token"))
	if err != nil {
		var status = AppErrors.HTTPStatus(AppErrors.KindOf(err))
		msg := "Invalid or expired verification token"
		if status == fiber.StatusInternalServerError {
			msg = "Server error"
		}
		return c.Status(status).Render("verify_result", fiber.Map{
			"Verified": false,
			"Message":  msg,
		})
	}
	return c.Render("verify_result", fiber.Map{
		"Verified":    true,
		"FirstName":   employee.FirstName,
		"DownloadURL": a.DownloadURL,
	})
}

func (a *AuthController) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := a.Directory.Login(c.UserContext(), req.Email, req.Password, c.IP())
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    result.Token,
		Expires:  result.ExpiresAt,
		HTTPOnly: true,
		Secure:   a.SecureCookie,
		SameSite: "Lax",
	})

	return c.JSON(fiber.Map{
		"message":  "Login successful",
		"token":    result.Token,
		"employee": result.Employee.Summary(),
	})
}

func (a *AuthController) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   a.SecureCookie,
		SameSite: "Lax",
	})
	return c.JSON(message("Logged out"))
}

func (a *AuthController) UpdatePassword(c *fiber.Ctx) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}
	var req updatePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := a.Directory.UpdatePassword(c.UserContext(), caller.EmployeeID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(message("Password updated successfully"))
}
