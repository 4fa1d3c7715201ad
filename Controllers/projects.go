package Controllers

import (
	"Chronos/Assignments"
	"Chronos/middleware"

	"github.com/gofiber/fiber/v2"
)

type ProjectController struct {
	Graph *Assignments.Graph
}

func NewProjectController(graph *Assignments.Graph) *ProjectController {
	return &ProjectController{Graph: graph}
}

type createProjectRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	EmployeeIDs []string `json:"employeeIds" validate:"omitempty,dive,required"`
}

type updateProjectRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	IsActive    *bool     `json:"isActive"`
	EmployeeIDs *[]string `json:"employeeIds"`
}

func (p *ProjectController) GetProjects(c *fiber.Ctx) error {
	projects, err := p.Graph.ListProjects(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(projects)
}

func (p *ProjectController) GetProject(c *fiber.Ctx) error {
	project, err := p.Graph.GetProject(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(project)
}

func (p *ProjectController) CreateProject(c *fiber.Ctx) error {
	var req createProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	project, err := p.Graph.CreateProjectWithMembers(c.UserContext(), Assignments.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
		EmployeeIDs: req.EmployeeIDs,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

func (p *ProjectController) UpdateProject(c *fiber.Ctx) error {
	var req updateProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	project, err := p.Graph.UpdateProject(c.UserContext(), c.Params("id"), Assignments.ProjectUpdate{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
		EmployeeIDs: req.EmployeeIDs,
	})
	if err != nil {
		return err
	}
	return c.JSON(project)
}

func (p *ProjectController) DeactivateProject(c *fiber.Ctx) error {
	if err := p.Graph.DeactivateProject(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(message("Project deactivated successfully"))
}

// GetMyProjects lists the caller's active projects.
func (p *ProjectController) GetMyProjects(c *fiber.Ctx) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}
	projects, err := p.Graph.ProjectsOf(c.UserContext(), caller.EmployeeID)
	if err != nil {
		return err
	}
	return c.JSON(projects)
}
