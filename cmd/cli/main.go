package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"cocreview/adapters/excel"
	"cocreview/app"
	"cocreview/domain/coc"
	"cocreview/internal"
	"cocreview/internal/config"
	"cocreview/internal/container"
	"cocreview/internal/migration"
	"cocreview/models"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "coc-cli",
		Short:         "COC review CLI for classifying entity dumps and managing the database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		newMigrateCmd(),
		newClassifyCmd(),
		newExportCmd(),
		newCreateUserCmd(),
	)
	return rootCmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "schema %s is up to date (%s)\n", migration.NewRunner().Version(), c.Config.Database.Driver)
			return nil
		},
	}
}

func newClassifyCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "classify [entities-file]",
		Short: "Classify an extracted entity list into sections and sample rows",
		Long: `Classify reads a flat entity list (JSON array, or CSV/XLSX with type,
value and confidence columns) and prints the categorized sections, the
reconstructed sample rows and any conflicting duplicates.

Example: coc-cli classify entities.json --format yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), format, newReport(doc))
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json|yaml")
	return cmd
}

func newExportCmd() *cobra.Command {
	var out, format string

	cmd := &cobra.Command{
		Use:   "export [entities-file]",
		Short: "Export a classified entity list as xlsx or csv",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return fmt.Errorf("--out is required")
			}
			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(out), ".")
			}
			f, err := excel.ParseFormat(format)
			if err != nil {
				return err
			}
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			file, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := excel.Export(file, f, doc); err != nil {
				file.Close()
				return fmt.Errorf("failed to export: %w", err)
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d sample rows)\n", out, len(doc.Data.SampleData))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output file")
	cmd.Flags().StringVar(&format, "format", "", "Output format: xlsx|csv (default from --out extension)")
	return cmd
}

func newCreateUserCmd() *cobra.Command {
	var labCode, email, username, password, role string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user in an existing lab",
		Long: `Create a user in the lab with the given code. The password is read from
--password or, when omitted, from COC_USER_PASSWORD.

Example: coc-cli create-user --lab default-lab --email jo@lab.test --role reviewer`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("COC_USER_PASSWORD")
			}
			ctx := cmd.Context()
			c, err := openContainer(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			lab, err := c.LabRepo.GetByCode(ctx, labCode)
			if err != nil {
				return fmt.Errorf("lab %q: %w", labCode, err)
			}
			if username == "" {
				username, _, _ = strings.Cut(email, "@")
			}
			user, err := c.Auth.Register(ctx, app.NewUserRequest{
				LabID:    lab.ID,
				Email:    email,
				Username: username,
				Password: password,
				Role:     models.Role(role),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (%s) in %s\n", user.Role, user.Username, user.ID, lab.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&labCode, "lab", "", "Lab code")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&username, "username", "", "Username (default: email local part)")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.Flags().StringVar(&role, "role", "reviewer", "Role: admin|reviewer")
	_ = cmd.MarkFlagRequired("lab")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func openContainer(ctx context.Context) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	c, err := container.New(cfg, internal.DefaultLogger)
	if err != nil {
		return nil, err
	}
	if err := c.Open(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func loadDocument(path string) (*coc.Document, error) {
	entities, err := excel.NewEntityReader(path).Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(entities) == 0 {
		return nil, fmt.Errorf("%s holds no entities", path)
	}
	return coc.NewDocument(entities), nil
}

type fieldLine struct {
	Index      int     `json:"index" yaml:"index"`
	Type       string  `json:"type" yaml:"type"`
	Field      string  `json:"field" yaml:"field"`
	Value      string  `json:"value" yaml:"value"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

type sectionReport struct {
	Name   string      `json:"name" yaml:"name"`
	Fields []fieldLine `json:"fields" yaml:"fields"`
}

type sampleLine struct {
	ID               string `json:"id" yaml:"id"`
	SampleNumber     string `json:"sampleNumber" yaml:"sampleNumber"`
	CustomerSampleID string `json:"customerSampleId" yaml:"customerSampleId"`
	Matrix           string `json:"matrix" yaml:"matrix"`
	Grab             string `json:"grab" yaml:"grab"`
	StartDate        string `json:"compositeStartDate" yaml:"compositeStartDate"`
	StartTime        string `json:"compositeStartTime" yaml:"compositeStartTime"`
	Method           string `json:"method" yaml:"method"`
	Containers       string `json:"containers,omitempty" yaml:"containers,omitempty"`
}

type report struct {
	Sections  []sectionReport `json:"sections" yaml:"sections"`
	Samples   []sampleLine    `json:"samples" yaml:"samples"`
	Conflicts []fieldLine     `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
}

func toLines(rows []coc.FieldRow) []fieldLine {
	out := make([]fieldLine, 0, len(rows))
	for _, r := range rows {
		out = append(out, fieldLine{
			Index:      r.OriginalIndex,
			Type:       r.Type,
			Field:      r.FieldName,
			Value:      r.Value,
			Confidence: r.Confidence,
		})
	}
	return out
}

func newReport(doc *coc.Document) report {
	var r report
	sections := doc.Data.CategorizedSections
	for _, name := range coc.SectionOrder {
		r.Sections = append(r.Sections, sectionReport{
			Name:   name,
			Fields: toLines(coc.FieldRows(name, *sections.Get(name))),
		})
	}
	view := doc.SampleView()
	for _, s := range view.Rows {
		r.Samples = append(r.Samples, sampleLine{
			ID:               s.ID,
			SampleNumber:     s.SampleNumber,
			CustomerSampleID: s.CustomerSampleID,
			Matrix:           s.Matrix,
			Grab:             s.Grab,
			StartDate:        s.CompositeStartDate,
			StartTime:        s.CompositeStartTime,
			Method:           s.Method,
			Containers:       s.Containers,
		})
	}
	r.Conflicts = toLines(view.Conflicts)
	return r
}

func writeReport(w io.Writer, format string, r report) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported format %q (use json or yaml)", format)
}
