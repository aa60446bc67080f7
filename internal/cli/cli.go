package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lapislazuli21/Clarika/internal/log"
	internal_storage "github.com/lapislazuli21/Clarika/internal/storage"
	"github.com/lapislazuli21/Clarika/pkg/models"
	"github.com/lapislazuli21/Clarika/pkg/service"
)

// actorID resolves the acting user for CLI mutations: CLARIKA_ACTOR_ID if
// set, otherwise the fixed placeholder identity.
func actorID() uuid.UUID {
	if raw := os.Getenv("CLARIKA_ACTOR_ID"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			log.GetLogger().Errorf("Invalid CLARIKA_ACTOR_ID %q: %v", raw, err)
			os.Exit(1)
		}
		return id
	}
	return uuid.MustParse("dfbdcf5a-42b0-4814-825e-86e9b1476575")
}

func initStore(cmd *cobra.Command) *internal_storage.PostgresStore {
	dbConnStr, err := cmd.Flags().GetString("db")
	if err != nil {
		log.GetLogger().Errorf("Error retrieving db flag: %v", err)
		os.Exit(1)
	}
	if dbConnStr == "" {
		dbConnStr = os.Getenv("DATABASE_URL")
	}
	store, err := internal_storage.InitStore(dbConnStr)
	if err != nil {
		log.GetLogger().Errorf("Failed to connect to database: %v", err)
		os.Exit(1)
	}
	return store
}

func mustParseID(raw string) uuid.UUID {
	id, err := uuid.Parse(raw)
	if err != nil {
		log.GetLogger().Errorf("Malformed identifier %q: %v", raw, err)
		os.Exit(1)
	}
	return id
}

// SetupCLI attaches the admin commands to the root command.
func SetupCLI(rootCmd *cobra.Command) {
	createProjectCmd := &cobra.Command{
		Use:   "create-project [name]",
		Short: "Create a new project",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(cmd)
			defer store.Close()
			svc := service.NewProjectService(store, log.GetLogger())
			var description *string
			if desc, _ := cmd.Flags().GetString("description"); desc != "" {
				description = &desc
			}
			project, err := svc.CreateProject(actorID(), args[0], description)
			if err != nil {
				log.GetLogger().Errorf("Failed to create project: %v", err)
				os.Exit(1)
			}
			fmt.Printf("Created project '%s' with ID %s\n", project.Name, project.ID)
		},
	}
	createProjectCmd.Flags().String("description", "", "Optional project description")

	listProjectsCmd := &cobra.Command{
		Use:   "list-projects",
		Short: "List projects owned by the acting user",
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(cmd)
			defer store.Close()
			svc := service.NewProjectService(store, log.GetLogger())
			projects, err := svc.ListProjects(actorID())
			if err != nil {
				log.GetLogger().Errorf("Failed to list projects: %v", err)
				os.Exit(1)
			}
			if len(projects) == 0 {
				fmt.Println("No projects found.")
				return
			}
			for _, p := range projects {
				fmt.Printf("- ID: %s, Name: %s\n", p.ID, p.Name)
			}
		},
	}

	createTemplateCmd := &cobra.Command{
		Use:   "create-template [name]",
		Short: "Create a new workflow template",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(cmd)
			defer store.Close()
			svc := service.NewWorkflowService(store, log.GetLogger())
			var description *string
			if desc, _ := cmd.Flags().GetString("description"); desc != "" {
				description = &desc
			}
			template, err := svc.CreateTemplate(actorID(), args[0], description)
			if err != nil {
				log.GetLogger().Errorf("Failed to create template: %v", err)
				os.Exit(1)
			}
			fmt.Printf("Created workflow template '%s' with ID %s\n", template.Name, template.ID)
		},
	}
	createTemplateCmd.Flags().String("description", "", "Optional template description")

	addStepCmd := &cobra.Command{
		Use:   "add-step [template-id] [step-name] [step-order]",
		Short: "Add a step to a workflow template",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(cmd)
			defer store.Close()
			svc := service.NewWorkflowService(store, log.GetLogger())
			templateID := mustParseID(args[0])
			stepOrder, err := strconv.Atoi(args[2])
			if err != nil {
				log.GetLogger().Errorf("Error parsing step order as number: %v", err)
				os.Exit(1)
			}
			var role *string
			if r, _ := cmd.Flags().GetString("role"); r != "" {
				role = &r
			}
			var dependsOn *uuid.UUID
			if dep, _ := cmd.Flags().GetString("depends-on"); dep != "" {
				id := mustParseID(dep)
				dependsOn = &id
			}
			step, err := svc.AddStep(templateID, args[1], stepOrder, role, dependsOn)
			if err != nil {
				log.GetLogger().Errorf("Failed to add step: %v", err)
				os.Exit(1)
			}
			fmt.Printf("Added step '%s' (order %d) with ID %s\n", step.StepName, step.StepOrder, step.ID)
		},
	}
	addStepCmd.Flags().String("role", "", "Suggested role for the step")
	addStepCmd.Flags().String("depends-on", "", "ID of the step this step depends on")

	listTemplatesCmd := &cobra.Command{
		Use:   "list-templates",
		Short: "List all workflow templates",
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(cmd)
			defer store.Close()
			svc := service.NewWorkflowService(store, log.GetLogger())
			templates, err := svc.ListTemplates()
			if err != nil {
				log.GetLogger().Errorf("Failed to list templates: %v", err)
				os.Exit(1)
			}
			if len(templates) == 0 {
				fmt.Println("No workflow templates found.")
				return
			}
			for _, t := range templates {
				fmt.Printf("- ID: %s, Name: %s\n", t.ID, t.Name)
			}
		},
	}

	applyTemplateCmd := &cobra.Command{
		Use:   "apply-template [template-id] [project-id]",
		Short: "Instantiate a workflow template into a project",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(cmd)
			defer store.Close()
			svc := service.NewWorkflowService(store, log.GetLogger())
			tasks, err := svc.ApplyTemplate(mustParseID(args[0]), mustParseID(args[1]))
			if err != nil {
				// Tasks created before the failure stay persisted.
				log.GetLogger().Errorf("Failed to apply template after creating %d tasks: %v", len(tasks), err)
				os.Exit(1)
			}
			fmt.Printf("Created %d tasks:\n", len(tasks))
			for _, t := range tasks {
				fmt.Printf("- ID: %s, Title: %s, Status: %s\n", t.ID, t.Title, t.Status)
			}
		},
	}

	setStatusCmd := &cobra.Command{
		Use:   "set-status [task-id] [status]",
		Short: "Update a task's status",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(cmd)
			defer store.Close()
			svc := service.NewTaskService(store, log.GetLogger())
			status, err := models.ParseTaskStatus(args[1])
			if err != nil {
				log.GetLogger().Errorf("Invalid status: %v", err)
				os.Exit(1)
			}
			task, err := svc.SetStatus(mustParseID(args[0]), status)
			if err != nil {
				log.GetLogger().Errorf("Failed to update status: %v", err)
				os.Exit(1)
			}
			fmt.Printf("Updated task %s to status '%s'\n", task.ID, task.Status)
		},
	}

	assignRoleCmd := &cobra.Command{
		Use:   "assign-role [user-id] [task-id] [role]",
		Short: "Assign a RACI role to a user on a task",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(cmd)
			defer store.Close()
			svc := service.NewRaciService(store, log.GetLogger())
			role, err := models.ParseRaciRole(args[2])
			if err != nil {
				log.GetLogger().Errorf("Invalid role: %v", err)
				os.Exit(1)
			}
			assignment, err := svc.AssignRole(mustParseID(args[0]), mustParseID(args[1]), role)
			if err != nil {
				log.GetLogger().Errorf("Failed to assign role: %v", err)
				os.Exit(1)
			}
			fmt.Printf("Assigned role '%s' to user %s on task %s\n", assignment.Role, assignment.UserID, assignment.TaskID)
		},
	}

	for _, cmd := range []*cobra.Command{
		createProjectCmd, listProjectsCmd, createTemplateCmd, addStepCmd,
		listTemplatesCmd, applyTemplateCmd, setStatusCmd, assignRoleCmd,
	} {
		cmd.Flags().String("db", "", "Database connection string (defaults to DATABASE_URL)")
		rootCmd.AddCommand(cmd)
	}
}
