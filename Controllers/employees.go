package Controllers

import (
	"context"

	"Chronos/Assignments"
	"Chronos/Identity"
	"Chronos/Models"
	"Chronos/middleware"

	"github.com/gofiber/fiber/v2"
)

type EmployeeController struct {
	Directory *Identity.Directory
	Graph     *Assignments.Graph
}

func NewEmployeeController(directory *Identity.Directory, graph *Assignments.Graph) *EmployeeController {
	return &EmployeeController{Directory: directory, Graph: graph}
}

// employeeDetail is an employee with the active projects and tasks they
// are assigned to.
type employeeDetail struct {
	Models.Employee
	Projects []Models.Project `json:"projects"`
	Tasks    []Models.Task    `json:"tasks"`
}

type createEmployeeRequest struct {
	Email      string   `json:"email" validate:"required,email"`
	FirstName  string   `json:"firstName" validate:"required"`
	LastName   string   `json:"lastName" validate:"required"`
	Permission int      `json:"permission" validate:"omitempty,oneof=1 3 4"`
	Projects   []string `json:"projects" validate:"omitempty,dive,required"`
}

type updateEmployeeRequest struct {
	FirstName  *string   `json:"firstName"`
	LastName   *string   `json:"lastName"`
	IsActive   *bool     `json:"isActive"`
	Permission *int      `json:"permission" validate:"omitempty,oneof=1 3 4"`
	Projects   *[]string `json:"projects"`
}

type updateProfileRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

func (e *EmployeeController) detail(ctx context.Context, employee *Models.Employee) (*employeeDetail, error) {
	projects, err := e.Graph.ProjectsOf(ctx, employee.ID)
	if err != nil {
		return nil, err
	}
	tasks, err := e.Graph.TasksOf(ctx, employee.ID)
	if err != nil {
		return nil, err
	}
	return &employeeDetail{Employee: *employee, Projects: projects, Tasks: tasks}, nil
}

func (e *EmployeeController) GetEmployees(c *fiber.Ctx) error {
	employees, err := e.Directory.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(employees)
}

func (e *EmployeeController) GetEmployee(c *fiber.Ctx) error {
	employee, err := e.Directory.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	detail, err := e.detail(c.UserContext(), employee)
	if err != nil {
		return err
	}
	return c.JSON(detail)
}

func (e *EmployeeController) CreateEmployee(c *fiber.Ctx) error {
	var req createEmployeeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	employee, tempPassword, err := e.Directory.CreateEmployee(c.UserContext(), Identity.CreateEmployeeInput{
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Permission: req.Permission,
		ProjectIDs: req.Projects,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Employee created successfully and verification email sent",
		"employee": fiber.Map{
			"id":        employee.ID,
			"email":     employee.Email,
			"firstName": employee.FirstName,
			"lastName":  employee.LastName,
			"isActive":  employee.IsActive,
		},
		"temporaryPassword": tempPassword,
	})
}

func (e *EmployeeController) UpdateEmployee(c *fiber.Ctx) error {
	var req updateEmployeeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	employee, err := e.Directory.UpdateEmployee(c.UserContext(), c.Params("id"), Identity.EmployeeUpdate{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		IsActive:   req.IsActive,
		Permission: req.Permission,
		ProjectIDs: req.Projects,
	})
	if err != nil {
		return err
	}
	detail, err := e.detail(c.UserContext(), employee)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":  "Employee updated successfully",
		"employee": detail,
	})
}

func (e *EmployeeController) DeactivateEmployee(c *fiber.Ctx) error {
	if err := e.Directory.Deactivate(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(message("Employee deactivated successfully"))
}

func (e *EmployeeController) GetProfile(c *fiber.Ctx) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}
	detail, err := e.detail(c.UserContext(), &caller.Employee)
	if err != nil {
		return err
	}
	return c.JSON(detail)
}

func (e *EmployeeController) UpdateProfile(c *fiber.Ctx) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}
	var req updateProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	employee, err := e.Directory.UpdateProfile(c.UserContext(), caller.EmployeeID, req.FirstName, req.LastName)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":  "Profile updated successfully",
		"employee": employee,
	})
}
