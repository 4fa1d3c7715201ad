package Controllers

import (
	"Chronos/AppErrors"
	"Chronos/Assignments"
	"Chronos/middleware"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/exp/slices"
)

type TaskController struct {
	Graph *Assignments.Graph
}

func NewTaskController(graph *Assignments.Graph) *TaskController {
	return &TaskController{Graph: graph}
}

type createTaskRequest struct {
	ProjectID   string   `json:"projectId" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	IsDefault   bool     `json:"isDefault"`
	EmployeeIDs []string `json:"employeeIds" validate:"omitempty,dive,required"`
}

type updateTaskRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	IsActive    *bool     `json:"isActive"`
	EmployeeIDs *[]string `json:"employeeIds"`
}

type assignEmployeesRequest struct {
	EmployeeIDs []string `json:"employeeIds" validate:"required,min=1,dive,required"`
}

func (t *TaskController) GetTasks(c *fiber.Ctx) error {
	tasks, err := t.Graph.ListTasks(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(tasks)
}

// GetTask is open to every employee; non-managers only see tasks they
// are assigned to.
func (t *TaskController) GetTask(c *fiber.Ctx) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}
	taskID := c.Params("id")
	if !caller.IsManager() {
		member, err := t.Graph.IsTaskMember(c.UserContext(), caller.EmployeeID, taskID)
		if err != nil {
			return err
		}
		if !member {
			return AppErrors.NotFound("Task not found")
		}
	}
	task, err := t.Graph.GetTask(c.UserContext(), taskID)
	if err != nil {
		return err
	}
	return c.JSON(task)
}

// GetTasksByProject lists a project's active tasks; non-managers must be
// members of the project.
func (t *TaskController) GetTasksByProject(c *fiber.Ctx) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}
	projectID := c.Params("projectId")
	if !caller.IsManager() {
		members, err := t.Graph.ProjectMembers(c.UserContext(), projectID)
		if err != nil {
			return err
		}
		if !slices.Contains(members, caller.EmployeeID) {
			return AppErrors.NotFound("Project not found")
		}
	}
	tasks, err := t.Graph.TasksByProject(c.UserContext(), projectID)
	if err != nil {
		return err
	}
	return c.JSON(tasks)
}

func (t *TaskController) CreateTask(c *fiber.Ctx) error {
	var req createTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	task, err := t.Graph.CreateTask(c.UserContext(), Assignments.TaskInput{
		ProjectID:   req.ProjectID,
		Name:        req.Name,
		Description: req.Description,
		IsDefault:   req.IsDefault,
		EmployeeIDs: req.EmployeeIDs,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

func (t *TaskController) UpdateTask(c *fiber.Ctx) error {
	var req updateTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	task, err := t.Graph.UpdateTask(c.UserContext(), c.Params("id"), Assignments.TaskUpdate{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
		EmployeeIDs: req.EmployeeIDs,
	})
	if err != nil {
		return err
	}
	return c.JSON(task)
}

func (t *TaskController) DeactivateTask(c *fiber.Ctx) error {
	if err := t.Graph.DeactivateTask(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(message("Task deactivated successfully"))
}

func (t *TaskController) AssignEmployees(c *fiber.Ctx) error {
	var req assignEmployeesRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	taskID := c.Params("id")
	if err := t.Graph.AssignEmployeesToTask(c.UserContext(), taskID, req.EmployeeIDs); err != nil {
		return err
	}
	task, err := t.Graph.GetTask(c.UserContext(), taskID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Employees assigned successfully",
		"task":    task,
	})
}

// GetMyTasks lists the caller's active tasks in active projects.
func (t *TaskController) GetMyTasks(c *fiber.Ctx) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}
	tasks, err := t.Graph.TasksOf(c.UserContext(), caller.EmployeeID)
	if err != nil {
		return err
	}
	return c.JSON(tasks)
}
