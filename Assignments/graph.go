// Package Assignments keeps employee, project and task membership consistent.
// Every project owns one default task, and every project member holds it.
package Assignments

import (
	"context"
	"strings"

	"Chronos/AppErrors"
	"Chronos/Models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Graph struct {
	DB *gorm.DB
}

func NewGraph(db *gorm.DB) *Graph {
	return &Graph{DB: db}
}

// ProjectDetail is a project with its members and tasks.
type ProjectDetail struct {
	Models.Project
	Employees []Models.EmployeeSummary `json:"employees"`
	Tasks     []Models.Task            `json:"tasks"`
}

type ProjectInput struct {
	Name        string
	Description string
	EmployeeIDs []string
}

// ProjectUpdate changes only the non-nil fields. A non-nil EmployeeIDs
// replaces the member list.
type ProjectUpdate struct {
	Name        *string
	Description *string
	IsActive    *bool
	EmployeeIDs *[]string
}

// CreateProjectWithMembers creates the project, its default task and the
// memberships in one transaction.
func (g *Graph) CreateProjectWithMembers(ctx context.Context, input ProjectInput) (*ProjectDetail, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, AppErrors.Validation("Project name is required")
	}

	var projectID string
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project := Models.Project{
			Name:        name,
			Description: input.Description,
			IsActive:    true,
		}
		if err := tx.Create(&project).Error; err != nil {
			return AppErrors.Internal(err, "Failed to create project")
		}
		defaultTask := Models.NewDefaultTask(project.ID)
		if err := tx.Create(&defaultTask).Error; err != nil {
			return AppErrors.Internal(err, "Failed to create default task")
		}
		projectID = project.ID
		return SetProjectMembersTx(tx, project.ID, input.EmployeeIDs)
	})
	if err != nil {
		return nil, err
	}
	return g.GetProject(ctx, projectID)
}

func (g *Graph) UpdateProject(ctx context.Context, projectID string, update ProjectUpdate) (*ProjectDetail, error) {
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := findProject(tx, projectID)
		if err != nil {
			return err
		}

		changes := map[string]interface{}{}
		if update.Name != nil {
			name := strings.TrimSpace(*update.Name)
			if name == "" {
				return AppErrors.Validation("Project name cannot be empty")
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
			if err := tx.Model(project).Updates(changes).Error; err != nil {
				return AppErrors.Internal(err, "Failed to update project")
			}
		}

		if update.EmployeeIDs != nil {
			return SetProjectMembersTx(tx, projectID, *update.EmployeeIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g.GetProject(ctx, projectID)
}

// DeactivateProject hides the project from new work. Sessions and
// memberships are left as they are.
func (g *Graph) DeactivateProject(ctx context.Context, projectID string) error {
	db := g.DB.WithContext(ctx)
	project, err := findProject(db, projectID)
	if err != nil {
		return err
	}
	if err := db.Model(project).Update("is_active", false).Error; err != nil {
		return AppErrors.Internal(err, "Failed to deactivate project")
	}
	return nil
}

// SetProjectMembers replaces the project's member list. Afterwards the
// members of its default task are exactly employeeIDs; links to the
// project's other tasks are untouched.
func (g *Graph) SetProjectMembers(ctx context.Context, projectID string, employeeIDs []string) error {
	return g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return SetProjectMembersTx(tx, projectID, employeeIDs)
	})
}

// SetProjectMembersTx is SetProjectMembers inside the caller's transaction.
func SetProjectMembersTx(tx *gorm.DB, projectID string, employeeIDs []string) error {
	if _, err := findProject(tx, projectID); err != nil {
		return err
	}
	defaultTask, err := defaultTaskOf(tx, projectID)
	if err != nil {
		return err
	}
	ids := normalizeIDs(employeeIDs)
	if err := requireEmployees(tx, ids); err != nil {
		return err
	}

	if err := tx.Where("project_id = ?", projectID).Delete(&Models.EmployeeProject{}).Error; err != nil {
		return AppErrors.Internal(err, "Failed to clear project members")
	}
	if err := tx.Where("task_id = ?", defaultTask.ID).Delete(&Models.EmployeeTask{}).Error; err != nil {
		return AppErrors.Internal(err, "Failed to clear default task members")
	}
	if len(ids) == 0 {
		return nil
	}

	projectLinks := make([]Models.EmployeeProject, 0, len(ids))
	taskLinks := make([]Models.EmployeeTask, 0, len(ids))
	for _, id := range ids {
		projectLinks = append(projectLinks, Models.EmployeeProject{EmployeeID: id, ProjectID: projectID})
		taskLinks = append(taskLinks, Models.EmployeeTask{EmployeeID: id, TaskID: defaultTask.ID})
	}
	if err := tx.Create(&projectLinks).Error; err != nil {
		return AppErrors.Internal(err, "Failed to assign project members")
	}
	if err := tx.Create(&taskLinks).Error; err != nil {
		return AppErrors.Internal(err, "Failed to assign default task members")
	}
	return nil
}

// SetEmployeeProjects replaces the employee's project list together with
// the matching default task links. Links to non-default tasks are untouched.
func (g *Graph) SetEmployeeProjects(ctx context.Context, employeeID string, projectIDs []string) error {
	return g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return SetEmployeeProjectsTx(tx, employeeID, projectIDs)
	})
}

// SetEmployeeProjectsTx is SetEmployeeProjects inside the caller's transaction.
func SetEmployeeProjectsTx(tx *gorm.DB, employeeID string, projectIDs []string) error {
	if err := requireEmployees(tx, []string{employeeID}); err != nil {
		return err
	}
	ids := normalizeIDs(projectIDs)
	if err := requireProjects(tx, ids); err != nil {
		return err
	}

	var defaultTasks []Models.Task
	if len(ids) > 0 {
		if err := tx.Where("project_id IN ? AND is_default = ?", ids, true).Find(&defaultTasks).Error; err != nil {
			return AppErrors.Internal(err, "Failed to load default tasks")
		}
		if len(defaultTasks) != len(ids) {
			return AppErrors.NotFound("Default task not found for one of the projects")
		}
	}

	if err := tx.Where("employee_id = ?", employeeID).Delete(&Models.EmployeeProject{}).Error; err != nil {
		return AppErrors.Internal(err, "Failed to clear employee projects")
	}
	defaultTaskIDs := tx.Model(&Models.Task{}).Select("id").Where("is_default = ?", true)
	if err := tx.Where("employee_id = ? AND task_id IN (?)", employeeID, defaultTaskIDs).Delete(&Models.EmployeeTask{}).Error; err != nil {
		return AppErrors.Internal(err, "Failed to clear employee default tasks")
	}
	if len(ids) == 0 {
		return nil
	}

	projectLinks := make([]Models.EmployeeProject, 0, len(ids))
	for _, id := range ids {
		projectLinks = append(projectLinks, Models.EmployeeProject{EmployeeID: employeeID, ProjectID: id})
	}
	taskLinks := make([]Models.EmployeeTask, 0, len(defaultTasks))
	for _, task := range defaultTasks {
		taskLinks = append(taskLinks, Models.EmployeeTask{EmployeeID: employeeID, TaskID: task.ID})
	}
	if err := tx.Create(&projectLinks).Error; err != nil {
		return AppErrors.Internal(err, "Failed to assign employee projects")
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&taskLinks).Error; err != nil {
		return AppErrors.Internal(err, "Failed to assign employee default tasks")
	}
	return nil
}

func (g *Graph) GetProject(ctx context.Context, projectID string) (*ProjectDetail, error) {
	db := g.DB.WithContext(ctx)
	project, err := findProject(db, projectID)
	if err != nil {
		return nil, err
	}
	details, err := projectDetails(db, []Models.Project{*project})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func (g *Graph) ListProjects(ctx context.Context) ([]ProjectDetail, error) {
	db := g.DB.WithContext(ctx)
	var projects []Models.Project
	if err := db.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, AppErrors.Internal(err, "Failed to retrieve projects")
	}
	return projectDetails(db, projects)
}

// ProjectsOf returns the active projects the employee is a member of.
func (g *Graph) ProjectsOf(ctx context.Context, employeeID string) ([]Models.Project, error) {
	projects := []Models.Project{}
	err := g.DB.WithContext(ctx).
		Joins("JOIN employee_projects ON employee_projects.project_id = projects.id").
		Where("employee_projects.employee_id = ? AND projects.is_active = ?", employeeID, true).
		Order("projects.name").
		Find(&projects).Error
	if err != nil {
		return nil, AppErrors.Internal(err, "Failed to retrieve employee projects")
	}
	return projects, nil
}

// ProjectMembers returns the ids of the project's members.
func (g *Graph) ProjectMembers(ctx context.Context, projectID string) ([]string, error) {
	var ids []string
	err := g.DB.WithContext(ctx).Model(&Models.EmployeeProject{}).
		Where("project_id = ?", projectID).
		Order("employee_id").
		Pluck("employee_id", &ids).Error
	if err != nil {
		return nil, AppErrors.Internal(err, "Failed to retrieve project members")
	}
	return ids, nil
}

func projectDetails(db *gorm.DB, projects []Models.Project) ([]ProjectDetail, error) {
	out := make([]ProjectDetail, 0, len(projects))
	if len(projects) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}

	var links []Models.EmployeeProject
	if err := db.Where("project_id IN ?", ids).Find(&links).Error; err != nil {
		return nil, AppErrors.Internal(err, "Failed to retrieve project members")
	}
	var tasks []Models.Task
	if err := db.Where("project_id IN ?", ids).Order("is_default DESC, created_at ASC").Find(&tasks).Error; err != nil {
		return nil, AppErrors.Internal(err, "Failed to retrieve project tasks")
	}

	memberIDs := map[string][]string{}
	for _, link := range links {
		memberIDs[link.ProjectID] = append(memberIDs[link.ProjectID], link.EmployeeID)
	}
	members, err := summariesByOwner(db, memberIDs)
	if err != nil {
		return nil, err
	}
	tasksByProject := map[string][]Models.Task{}
	for _, task := range tasks {
		tasksByProject[task.ProjectID] = append(tasksByProject[task.ProjectID], task)
	}

	for _, p := range projects {
		detail := ProjectDetail{
			Project:   p,
			Employees: members[p.ID],
			Tasks:     tasksByProject[p.ID],
		}
		if detail.Employees == nil {
			detail.Employees = []Models.EmployeeSummary{}
		}
		if detail.Tasks == nil {
			detail.Tasks = []Models.Task{}
		}
		out = append(out, detail)
	}
	return out, nil
}
