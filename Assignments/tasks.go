package Assignments

import (
	"context"
	"strings"

	"Chronos/AppErrors"
	"Chronos/Models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskDetail is a task with its project and direct members.
type TaskDetail struct {
	Models.Task
	Employees []Models.EmployeeSummary `json:"employees"`
}

type TaskInput struct {
	ProjectID   string
	Name        string
	Description string
	IsDefault   bool
	EmployeeIDs []string
}

type TaskUpdate struct {
	Name        *string
	Description *string
	IsActive    *bool
	EmployeeIDs *[]string
}

const msgDefaultTaskMembers = "Default task members follow project membership"

func (g *Graph) CreateTask(ctx context.Context, input TaskInput) (*TaskDetail, error) {
	if input.IsDefault {
		return nil, AppErrors.Validation("Default tasks are created with their project")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, AppErrors.Validation("Task name is required")
	}

	var taskID string
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findProject(tx, input.ProjectID); err != nil {
			return err
		}
		ids := normalizeIDs(input.EmployeeIDs)
		if err := requireEmployees(tx, ids); err != nil {
			return err
		}
		task := Models.Task{
			ProjectID:   input.ProjectID,
			Name:        name,
			Description: input.Description,
			IsActive:    true,
		}
		if err := tx.Create(&task).Error; err != nil {
			return AppErrors.Internal(err, "Failed to create task")
		}
		taskID = task.ID
		return insertTaskLinks(tx, task.ID, ids)
	})
	if err != nil {
		return nil, err
	}
	return g.GetTask(ctx, taskID)
}

func (g *Graph) UpdateTask(ctx context.Context, taskID string, update TaskUpdate) (*TaskDetail, error) {
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := findTask(tx, taskID)
		if err != nil {
			return err
		}
		if task.IsDefault {
			if update.IsActive != nil && !*update.IsActive {
				return AppErrors.Validation("Default tasks cannot be deactivated")
			}
			if update.EmployeeIDs != nil {
				return AppErrors.Validation(msgDefaultTaskMembers)
			}
		}

		changes := map[string]interface{}{}
		if update.Name != nil {
			name := strings.TrimSpace(*update.Name)
			if name == "" {
				return AppErrors.Validation("Task name cannot be empty")
			}
			changes["name"] = name
		}
		if update.Description != nil {
			changes["description"] = *update.Description
		}
		if update.IsActive != nil {
			changes["is_active"] = *update.IsActive
		}
		if len(changes) > 0 {
			if err := tx.Model(task).Updates(changes).Error; err != nil {
				return AppErrors.Internal(err, "Failed to update task")
			}
		}
		if update.EmployeeIDs != nil {
			return setTaskMembersTx(tx, task, *update.EmployeeIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g.GetTask(ctx, taskID)
}

// DeactivateTask soft deletes a non-default task.
func (g *Graph) DeactivateTask(ctx context.Context, taskID string) error {
	db := g.DB.WithContext(ctx)
	task, err := findTask(db, taskID)
	if err != nil {
		return err
	}
	if task.IsDefault {
		return AppErrors.Validation("Default tasks cannot be deleted")
	}
	if err := db.Model(task).Update("is_active", false).Error; err != nil {
		return AppErrors.Internal(err, "Failed to deactivate task")
	}
	return nil
}

// SetTaskMembers replaces the direct members of a non-default task.
func (g *Graph) SetTaskMembers(ctx context.Context, taskID string, employeeIDs []string) error {
	return g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := findTask(tx, taskID)
		if err != nil {
			return err
		}
		return setTaskMembersTx(tx, task, employeeIDs)
	})
}

func setTaskMembersTx(tx *gorm.DB, task *Models.Task, employeeIDs []string) error {
	if task.IsDefault {
		return AppErrors.Validation(msgDefaultTaskMembers)
	}
	ids := normalizeIDs(employeeIDs)
	if err := requireEmployees(tx, ids); err != nil {
		return err
	}
	if err := tx.Where("task_id = ?", task.ID).Delete(&Models.EmployeeTask{}).Error; err != nil {
		return AppErrors.Internal(err, "Failed to clear task members")
	}
	return insertTaskLinks(tx, task.ID, ids)
}

func (g *Graph) AssignEmployeeToTask(ctx context.Context, employeeID, taskID string) error {
	return g.AssignEmployeesToTask(ctx, taskID, []string{employeeID})
}

// AssignEmployeesToTask adds direct task members. Existing links are kept.
func (g *Graph) AssignEmployeesToTask(ctx context.Context, taskID string, employeeIDs []string) error {
	return g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := findTask(tx, taskID)
		if err != nil {
			return err
		}
		if task.IsDefault {
			return AppErrors.Validation(msgDefaultTaskMembers)
		}
		ids := normalizeIDs(employeeIDs)
		if len(ids) == 0 {
			return AppErrors.Validation("employeeIds must not be empty")
		}
		if err := requireEmployees(tx, ids); err != nil {
			return err
		}
		return insertTaskLinks(tx, task.ID, ids)
	})
}

func insertTaskLinks(tx *gorm.DB, taskID string, employeeIDs []string) error {
	if len(employeeIDs) == 0 {
		return nil
	}
	links := make([]Models.EmployeeTask, 0, len(employeeIDs))
	for _, id := range employeeIDs {
		links = append(links, Models.EmployeeTask{EmployeeID: id, TaskID: taskID})
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
		return AppErrors.Internal(err, "Failed to assign task members")
	}
	return nil
}

// DefaultTaskOf returns the project's default task.
func (g *Graph) DefaultTaskOf(ctx context.Context, projectID string) (*Models.Task, error) {
	db := g.DB.WithContext(ctx)
	if _, err := findProject(db, projectID); err != nil {
		return nil, err
	}
	return defaultTaskOf(db, projectID)
}

// DefaultTaskMembers returns the ids holding the project's default task.
func (g *Graph) DefaultTaskMembers(ctx context.Context, projectID string) ([]string, error) {
	task, err := g.DefaultTaskOf(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return g.TaskMembers(ctx, task.ID)
}

func (g *Graph) TaskMembers(ctx context.Context, taskID string) ([]string, error) {
	var ids []string
	err := g.DB.WithContext(ctx).Model(&Models.EmployeeTask{}).
		Where("task_id = ?", taskID).
		Order("employee_id").
		Pluck("employee_id", &ids).Error
	if err != nil {
		return nil, AppErrors.Internal(err, "Failed to retrieve task members")
	}
	return ids, nil
}

func (g *Graph) IsTaskMember(ctx context.Context, employeeID, taskID string) (bool, error) {
	return IsTaskMemberTx(g.DB.WithContext(ctx), employeeID, taskID)
}

// IsTaskMemberTx checks direct task membership on the given handle.
func IsTaskMemberTx(db *gorm.DB, employeeID, taskID string) (bool, error) {
	var count int64
	err := db.Model(&Models.EmployeeTask{}).
		Where("employee_id = ? AND task_id = ?", employeeID, taskID).
		Count(&count).Error
	if err != nil {
		return false, AppErrors.Internal(err, "Failed to check task membership")
	}
	return count > 0, nil
}

func (g *Graph) GetTask(ctx context.Context, taskID string) (*TaskDetail, error) {
	db := g.DB.WithContext(ctx)
	var task Models.Task
	if err := db.Preload("Project").First(&task, "id = ?", taskID).Error; err != nil {
		if Models.IsNotFound(err) {
			return nil, AppErrors.NotFound("Task not found")
		}
		return nil, AppErrors.Internal(err, "Failed to retrieve task")
	}
	details, err := taskDetails(db, []Models.Task{task})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func (g *Graph) ListTasks(ctx context.Context) ([]TaskDetail, error) {
	db := g.DB.WithContext(ctx)
	var tasks []Models.Task
	if err := db.Preload("Project").Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, AppErrors.Internal(err, "Failed to retrieve tasks")
	}
	return taskDetails(db, tasks)
}

// TasksByProject returns the active tasks of a project.
func (g *Graph) TasksByProject(ctx context.Context, projectID string) ([]TaskDetail, error) {
	db := g.DB.WithContext(ctx)
	if _, err := findProject(db, projectID); err != nil {
		return nil, err
	}
	var tasks []Models.Task
	err := db.Where("project_id = ? AND is_active = ?", projectID, true).
		Order("is_default DESC, created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, AppErrors.Internal(err, "Failed to retrieve project tasks")
	}
	return taskDetails(db, tasks)
}

// TasksOf returns the active tasks in active projects the employee may
// track time on.
func (g *Graph) TasksOf(ctx context.Context, employeeID string) ([]Models.Task, error) {
	tasks := []Models.Task{}
	err := g.DB.WithContext(ctx).
		Preload("Project").
		Joins("JOIN employee_tasks ON employee_tasks.task_id = tasks.id").
		Joins("JOIN projects ON projects.id = tasks.project_id").
		Where("employee_tasks.employee_id = ? AND tasks.is_active = ? AND projects.is_active = ?", employeeID, true, true).
		Order("projects.name, tasks.is_default DESC, tasks.name").
		Find(&tasks).Error
	if err != nil {
		return nil, AppErrors.Internal(err, "Failed to retrieve employee tasks")
	}
	return tasks, nil
}

func taskDetails(db *gorm.DB, tasks []Models.Task) ([]TaskDetail, error) {
	out := make([]TaskDetail, 0, len(tasks))
	if len(tasks) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	var links []Models.EmployeeTask
	if err := db.Where("task_id IN ?", ids).Find(&links).Error; err != nil {
		return nil, AppErrors.Internal(err, "Failed to retrieve task members")
	}
	memberIDs := map[string][]string{}
	for _, link := range links {
		memberIDs[link.TaskID] = append(memberIDs[link.TaskID], link.EmployeeID)
	}
	members, err := summariesByOwner(db, memberIDs)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		detail := TaskDetail{Task: t, Employees: members[t.ID]}
		if detail.Employees == nil {
			detail.Employees = []Models.EmployeeSummary{}
		}
		out = append(out, detail)
	}
	return out, nil
}
