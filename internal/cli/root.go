// Package cli implements stratixctl, which evaluates a portfolio snapshot file
// offline with the same engine the service uses.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Stratix/internal/config"
	"github.com/MikeSquared-Agency/Stratix/internal/engine"
	"github.com/MikeSquared-Agency/Stratix/internal/snapshot"
)

// App carries the state shared by every subcommand once flags are parsed.
type App struct {
	snapshotPath string
	configPath   string

	snap   *snapshot.Snapshot
	engine *engine.Engine
}

// NewRootCmd creates the top-level "stratixctl" command.
func NewRootCmd() *cobra.Command {
	app := &App{}
	root := &cobra.Command{
		Use:           "stratixctl",
		Short:         "Evaluate KPI and weight rules against a portfolio snapshot",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.load()
		},
	}
	root.PersistentFlags().StringVarP(&app.snapshotPath, "file", "f", "", "snapshot file (YAML or JSON)")
	root.PersistentFlags().StringVar(&app.configPath, "config", "", "config file supplying engine parameters")
	_ = root.MarkPersistentFlagRequired("file")

	root.AddCommand(
		newSummarizeCmd(app),
		newAreasCmd(app),
		newStrategicCmd(app),
		newProgressCmd(app),
		newValidateCmd(app),
		newRedistributeCmd(app),
	)
	return root
}

func (a *App) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	params, err := cfg.EngineParams()
	if err != nil {
		return err
	}
	a.engine = engine.New(params)

	a.snap, err = snapshot.Load(a.snapshotPath)
	return err
}

// printJSON writes v as JSON, indented when w is a terminal.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func parseNow(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --now %q, expected YYYY-MM-DD or RFC3339", raw)
}
