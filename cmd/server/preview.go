package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teknatem/mpbackoffice/internal/application/services"
	"github.com/teknatem/mpbackoffice/internal/bootstrap"
	"github.com/teknatem/mpbackoffice/internal/logger"
	"github.com/teknatem/mpbackoffice/pkg/pivot"
)

var (
	previewFile string
	previewJSON bool
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the SQL and parameters generated for a dashboard config",
	Long: `Reads a dashboard configuration (YAML or JSON) and prints the statement
the server would execute for it, without touching the database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadDashboardConfig(previewFile)
		if err != nil {
			return err
		}

		registry, err := bootstrap.NewRegistry()
		if err != nil {
			return err
		}
		svc := services.NewDashboardService(registry, nil, nil, services.WithLogger(logger.Discard()))

		preview, err := svc.GenerateSQLPreview(cfg)
		if err != nil {
			return err
		}
		return writePreview(cmd.OutOrStdout(), preview, previewJSON)
	},
}

func init() {
	previewCmd.Flags().StringVarP(&previewFile, "file", "f", "", "dashboard config file (YAML or JSON)")
	previewCmd.Flags().BoolVar(&previewJSON, "json", false, "print the preview as JSON")
	_ = previewCmd.MarkFlagRequired("file")
}

// loadDashboardConfig decodes YAML (a superset of JSON) and re-encodes it as JSON
// so filter definitions go through the same tagged decoding as API requests.
func loadDashboardConfig(path string) (*pivot.DashboardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", path, err)
	}

	var cfg pivot.DashboardConfig
	if err := json.Unmarshal(asJSON, &cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &cfg, nil
}

func writePreview(w io.Writer, preview *services.GenerateSQLResponse, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(preview)
	}

	fmt.Fprintln(w, preview.SQL)
	if len(preview.Params) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	for i, p := range preview.Params {
		fmt.Fprintf(w, "  $%d = %s\n", i+1, p)
	}
	return nil
}
