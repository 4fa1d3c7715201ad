package Commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"Chronos/AppErrors"
	"Chronos/Assignments"
	"Chronos/FiberConfig"
	"Chronos/Identity"
	"Chronos/Models"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Seed is the document read by the seed command.
//
//	employees:
//	  - email: ada@example.com
//	    password: changeme
//	    firstName: Ada
//	    permission: 3
//	projects:
//	  - name: Alpha
//	    members: [ada@example.com]
//	    tasks:
//	      - name: Design
//	        members: [ada@example.com]
type Seed struct {
	Employees []SeedEmployee `yaml:"employees"`
	Projects  []SeedProject  `yaml:"projects"`
}

type SeedEmployee struct {
	Email      string `yaml:"email"`
	Password   string `yaml:"password"`
	FirstName  string `yaml:"firstName"`
	LastName   string `yaml:"lastName"`
	Permission int    `yaml:"permission"`
}

type SeedProject struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Members     []string   `yaml:"members"`
	Tasks       []SeedTask `yaml:"tasks"`
}

type SeedTask struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Members     []string `yaml:"members"`
}

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load employees, projects and tasks from a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		seed, err := readSeed(seedFile)
		if err != nil {
			return err
		}
		db, err := Models.Connect(cfg.Database)
		if err != nil {
			return err
		}
		deps := FiberConfig.NewDependencies(cfg, db, nil, nil)
		return applySeed(cmd.Context(), deps.Directory, deps.Graph, seed)
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "seed.yaml", "seed file")
}

func readSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("error parsing seed file %s: %w", path, err)
	}
	return &seed, nil
}

// applySeed provisions verified employees, skipping emails that already
// exist, then creates each project with its members and tasks.
func applySeed(ctx context.Context, directory *Identity.Directory, graph *Assignments.Graph, seed *Seed) error {
	existing, err := directory.List(ctx)
	if err != nil {
		return err
	}
	ids := make(map[string]string, len(existing)+len(seed.Employees))
	for _, employee := range existing {
		ids[employee.Email] = employee.ID
	}

	for _, e := range seed.Employees {
		email := strings.ToLower(strings.TrimSpace(e.Email))
		if _, ok := ids[email]; ok {
			log.Printf("Seed: %s already exists", email)
			continue
		}
		employee, err := directory.Provision(ctx, Identity.ProvisionInput{
			Email:      email,
			Password:   e.Password,
			FirstName:  e.FirstName,
			LastName:   e.LastName,
			Permission: e.Permission,
		})
		if err != nil {
			return fmt.Errorf("seed employee %s: %w", email, err)
		}
		ids[employee.Email] = employee.ID
	}

	resolve := func(emails []string) ([]string, error) {
		out := make([]string, 0, len(emails))
		for _, email := range emails {
			id, ok := ids[strings.ToLower(strings.TrimSpace(email))]
			if !ok {
				return nil, AppErrors.NotFound("Unknown employee %s", email)
			}
			out = append(out, id)
		}
		return out, nil
	}

	for _, p := range seed.Projects {
		members, err := resolve(p.Members)
		if err != nil {
			return fmt.Errorf("seed project %s: %w", p.Name, err)
		}
		project, err := graph.CreateProjectWithMembers(ctx, Assignments.ProjectInput{
			Name:        p.Name,
			Description: p.Description,
			EmployeeIDs: members,
		})
		if err != nil {
			return fmt.Errorf("seed project %s: %w", p.Name, err)
		}
		for _, t := range p.Tasks {
			taskMembers, err := resolve(t.Members)
			if err != nil {
				return fmt.Errorf("seed task %s: %w", t.Name, err)
			}
			if _, err := graph.CreateTask(ctx, Assignments.TaskInput{
				ProjectID:   project.ID,
				Name:        t.Name,
				Description: t.Description,
				EmployeeIDs: taskMembers,
			}); err != nil {
				return fmt.Errorf("seed task %s: %w", t.Name, err)
			}
		}
		log.Printf("Seed: created project %s with %d tasks", p.Name, len(p.Tasks))
	}
	return nil
}
