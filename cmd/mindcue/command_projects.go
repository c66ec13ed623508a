package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mindcue/internal/present"
	"mindcue/internal/store"
	"mindcue/internal/types"
)

const (
	exportFormatYAML     = "yaml"
	exportFormatMarkdown = "markdown"
)

func newProjectsCommand(wiring commandWiring) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Inspect saved projects",
	}
	cmd.AddCommand(
		newProjectsListCommand(wiring),
		newProjectsShowCommand(wiring),
		newProjectsExportCommand(wiring),
		newProjectsStatusCommand(wiring),
	)
	return cmd
}

func newProjectsListCommand(wiring commandWiring) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(wiring, func(st store.ProjectStore) error {
				projects, err := st.ListProjects(cmd.Context())
				if err != nil {
					return err
				}
				printProjects(wiring.stdout, projects)
				return nil
			})
		},
	}
}

func newProjectsShowCommand(wiring commandWiring) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a project as markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(wiring, func(st store.ProjectStore) error {
				project, err := getProject(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(wiring.stdout, present.Project(project))
				return nil
			})
		},
	}
}

func newProjectsExportCommand(wiring commandWiring) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a project with its scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != exportFormatYAML && format != exportFormatMarkdown {
				return fmt.Errorf("unsupported format %q (want %s or %s)", format, exportFormatYAML, exportFormatMarkdown)
			}
			return withStore(wiring, func(st store.ProjectStore) error {
				project, err := getProject(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}
				return exportProject(wiring.stdout, project, format)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", exportFormatYAML, "yaml or markdown")
	return cmd
}

func newProjectsStatusCommand(wiring commandWiring) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <active|completed|archived>",
		Short: "Change a project's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, ok := types.ParseProjectStatus(args[1])
			if !ok {
				return fmt.Errorf("unknown status %q", args[1])
			}
			return withStore(wiring, func(st store.ProjectStore) error {
				project, err := st.SetProjectStatus(cmd.Context(), strings.TrimSpace(args[0]), status)
				if err != nil {
					return err
				}
				fmt.Fprintf(wiring.stdout, "%s\t%s\n", project.ID, project.Status)
				return nil
			})
		},
	}
}

func withStore(wiring commandWiring, fn func(store.ProjectStore) error) error {
	env, err := loadEnv(wiring)
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(env.store)
}

func getProject(ctx context.Context, st store.ProjectStore, id string) (*types.Project, error) {
	id = strings.TrimSpace(id)
	project, ok, err := st.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrProjectNotFound, id)
	}
	return project, nil
}

func printProjects(out io.Writer, projects []*types.Project) {
	if len(projects) == 0 {
		fmt.Fprintln(out, "no projects")
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "STATUS", "SCRIPTS", "CREATED")
	for _, p := range projects {
		t.Row(p.ID, p.Name, string(p.Status), strconv.Itoa(len(p.Scripts)), p.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(out, t.Render())
}

func exportProject(out io.Writer, project *types.Project, format string) error {
	if format == exportFormatMarkdown {
		_, err := fmt.Fprintln(out, present.Project(project))
		return err
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(project); err != nil {
		return err
	}
	return enc.Close()
}
