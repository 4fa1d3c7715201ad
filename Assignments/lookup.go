package Assignments

import (
	"strings"

	"Chronos/AppErrors"
	"Chronos/Models"

	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// normalizeIDs trims, drops blanks and removes duplicates.
func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func findProject(db *gorm.DB, projectID string) (*Models.Project, error) {
	var project Models.Project
	if err := db.First(&project, "id = ?", projectID).Error; err != nil {
		if Models.IsNotFound(err) {
			return nil, AppErrors.NotFound("Project not found")
		}
		return nil, AppErrors.Internal(err, "Failed to retrieve project")
	}
	return &project, nil
}

func findTask(db *gorm.DB, taskID string) (*Models.Task, error) {
	var task Models.Task
	if err := db.First(&task, "id = ?", taskID).Error; err != nil {
		if Models.IsNotFound(err) {
			return nil, AppErrors.NotFound("Task not found")
		}
		return nil, AppErrors.Internal(err, "Failed to retrieve task")
	}
	return &task, nil
}

func defaultTaskOf(db *gorm.DB, projectID string) (*Models.Task, error) {
	var task Models.Task
	err := db.Where("project_id = ? AND is_default = ?", projectID, true).First(&task).Error
	if err != nil {
		if Models.IsNotFound(err) {
			return nil, AppErrors.NotFound("Default task not found for project")
		}
		return nil, AppErrors.Internal(err, "Failed to retrieve default task")
	}
	return &task, nil
}

// requireEmployees fails with NotFound naming the first unknown id.
func requireEmployees(db *gorm.DB, ids []string) error {
	missing, err := missingIDs(db, &Models.Employee{}, ids)
	if err != nil {
		return AppErrors.Internal(err, "Failed to check employees")
	}
	if missing != "" {
		return AppErrors.NotFound("Employee %s not found", missing)
	}
	return nil
}

func requireProjects(db *gorm.DB, ids []string) error {
	missing, err := missingIDs(db, &Models.Project{}, ids)
	if err != nil {
		return AppErrors.Internal(err, "Failed to check projects")
	}
	if missing != "" {
		return AppErrors.NotFound("Project %s not found", missing)
	}
	return nil
}

func missingIDs(db *gorm.DB, model interface{}, ids []string) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}
	var found []string
	if err := db.Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return "", err
	}
	for _, id := range ids {
		if !slices.Contains(found, id) {
			return id, nil
		}
	}
	return "", nil
}

// summariesByOwner resolves owner -> employee ids into owner -> summaries.
func summariesByOwner(db *gorm.DB, owners map[string][]string) (map[string][]Models.EmployeeSummary, error) {
	var ids []string
	for _, employeeIDs := range owners {
		ids = append(ids, employeeIDs...)
	}
	ids = normalizeIDs(ids)

	out := make(map[string][]Models.EmployeeSummary, len(owners))
	if len(ids) == 0 {
		return out, nil
	}
	var employees []Models.Employee
	if err := db.Where("id IN ?", ids).Order("first_name, last_name").Find(&employees).Error; err != nil {
		return nil, AppErrors.Internal(err, "Failed to retrieve employees")
	}
	for owner, employeeIDs := range owners {
		for _, e := range employees {
			if slices.Contains(employeeIDs, e.ID) {
				out[owner] = append(out[owner], e.Summary())
			}
		}
	}
	return out, nil
}
