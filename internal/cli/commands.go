package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Stratix/internal/engine"
	"github.com/MikeSquared-Agency/Stratix/internal/store"
)

func newSummarizeCmd(app *App) *cobra.Command {
	var area, status, category string
	var strategicOnly bool

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Print the KPI summary of the snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			var f engine.Filter
			if area != "" {
				a := app.snap.FindArea(area)
				if a == nil {
					return fmt.Errorf("area %q not found", area)
				}
				f.AreaID = &a.ID
			}
			if status != "" {
				s := store.ItemStatus(status)
				switch s {
				case store.StatusPlanning, store.StatusInProgress, store.StatusCompleted, store.StatusOnHold:
				default:
					return fmt.Errorf("invalid --status %q", status)
				}
				f.Status = &s
			}
			if strategicOnly {
				f.Strategic = &strategicOnly
			}
			f.Category = category
			return printJSON(cmd.OutOrStdout(), app.engine.Summarize(f.Apply(app.snap.Items)))
		},
	}
	cmd.Flags().StringVar(&area, "area", "", "restrict to an area id or name")
	cmd.Flags().StringVar(&status, "status", "", "restrict to a status (planning, in_progress, completed, on_hold)")
	cmd.Flags().StringVar(&category, "category", "", "restrict to a category")
	cmd.Flags().BoolVar(&strategicOnly, "strategic", false, "only strategic items")
	return cmd
}

func newAreasCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "areas",
		Short: "Print KPI metrics per area",
		RunE: func(cmd *cobra.Command, args []string) error {
			metrics := app.engine.SummarizeByArea(app.snap.Items)
			for i := range metrics {
				metrics[i].AreaName = app.snap.AreaName(metrics[i].AreaID)
			}
			sort.SliceStable(metrics, func(i, j int) bool {
				a, b := metrics[i], metrics[j]
				if (a.AreaID == nil) != (b.AreaID == nil) {
					return b.AreaID == nil
				}
				return a.AreaName < b.AreaName
			})
			return printJSON(cmd.OutOrStdout(), metrics)
		},
	}
}

func newStrategicCmd(app *App) *cobra.Command {
	var now string

	cmd := &cobra.Command{
		Use:   "strategic",
		Short: "Evaluate strategic portfolio health and risk",
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseNow(now)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), app.engine.EvaluateStrategic(app.snap.Items, at))
		},
	}
	cmd.Flags().StringVar(&now, "now", "", "evaluation time (defaults to the current time)")
	return cmd
}

func newProgressCmd(app *App) *cobra.Command {
	var ref string

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Explain how an item's progress is derived",
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := app.item(ref)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), app.engine.ExplainProgress(item))
		},
	}
	cmd.Flags().StringVar(&ref, "item", "", "item id or title")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func newValidateCmd(app *App) *cobra.Command {
	var ref string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the sub-unit weights of an item",
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := app.item(ref)
			if err != nil {
				return err
			}
			result := app.engine.ValidateForMethod(item.ProgressMethod, item.SubUnits)
			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if !result.IsValid {
				return fmt.Errorf("item %q has invalid weights", item.Title)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ref, "item", "", "item id or title")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func newRedistributeCmd(app *App) *cobra.Command {
	var ref, policy string

	cmd := &cobra.Command{
		Use:   "redistribute",
		Short: "Propose new sub-unit weights for an item",
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := app.item(ref)
			if err != nil {
				return err
			}
			p, err := engine.ParsePolicy(policy)
			if err != nil {
				return err
			}
			units, err := app.engine.Redistribute(item.SubUnits, p)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), struct {
				SubUnits   []store.SubUnit         `json:"sub_units"`
				Validation engine.ValidationResult `json:"validation"`
			}{units, app.engine.Validate(units)})
		},
	}
	cmd.Flags().StringVar(&ref, "item", "", "item id or title")
	cmd.Flags().StringVar(&policy, "policy", string(engine.PolicyEven), "even, by_priority, by_effort or normalize")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func (a *App) item(ref string) (*store.Item, error) {
	item := a.snap.FindItem(ref)
	if item == nil {
		return nil, fmt.Errorf("item %q not found", ref)
	}
	return item, nil
}
