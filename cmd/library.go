package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/marquee/backend"
	"github.com/s0up4200/marquee/controller"
	"github.com/s0up4200/marquee/fetch"
)

var trendingLimit int

// savedCmd represents the saved command
var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "List your saved titles",
	Args:  cobra.NoArgs,
	RunE:  runSaved,
}

// saveCmd represents the save command
var saveCmd = &cobra.Command{
	Use:   "save <id>",
	Short: "Add a title to your collection",
	Long:  `Add a movie (or a show with --kind tv) to your collection.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetSaved(cmd, args[0], true)
	},
}

// unsaveCmd represents the unsave command
var unsaveCmd = &cobra.Command{
	Use:   "unsave <id>",
	Short: "Remove a title from your collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetSaved(cmd, args[0], false)
	},
}

// trendingCmd represents the trending command
var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "List the most searched terms for a media kind",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := mediaKind()
		if err != nil {
			return err
		}
		limit := trendingLimit
		if limit <= 0 {
			limit = backend.DefaultTrendingLimit
		}
		return printTrending(service.TrendingSearches(cmd.Context(), kind, limit))
	},
}

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show your recent searches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		terms := searches.Load(cmd.Context())
		return emit(terms, func() {
			if len(terms) == 0 {
				fmt.Println("No recent searches.")
				return
			}
			for i, term := range terms {
				fmt.Printf("%2d. %s\n", i+1, term)
			}
		})
	},
}

// historyClearCmd represents the history clear command
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget your recent searches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		searches.Clear(cmd.Context())
		fmt.Println("✓ Search history cleared")
		return nil
	},
}

func init() {
	savedCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter name from config or expression")
	trendingCmd.Flags().IntVarP(&trendingLimit, "limit", "n", backend.DefaultTrendingLimit, "number of terms to show")

	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(savedCmd, saveCmd, unsaveCmd, trendingCmd, historyCmd)
}

func runSaved(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if !sessionState.Refetch(ctx).LoggedIn {
		return controller.ErrLoginRequired
	}

	saved := controller.NewSaved(ctx, service, sessionState, logger)
	state, err := saved.Items.Wait(ctx)
	if err != nil {
		return err
	}
	if state.Status == fetch.StatusFailed {
		return state.Err
	}

	items := state.Data
	if filterExpr != "" {
		f, err := filters.Resolve(filterExpr)
		if err != nil {
			return fmt.Errorf("invalid filter expression: %w", err)
		}
		matched := make([]backend.SavedItem, 0, len(items))
		for _, s := range items {
			if f.Evaluate(s.Item()) {
				matched = append(matched, s)
			}
		}
		items = matched
	}
	return printSaved(items)
}

// runSetSaved brings the saved state of a title to want through the detail
// toggle, so saving twice from the CLI does not create a duplicate.
func runSetSaved(cmd *cobra.Command, arg string, want bool) error {
	ctx := cmd.Context()
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	kind, err := mediaKind()
	if err != nil {
		return err
	}

	if !sessionState.Refetch(ctx).LoggedIn {
		return controller.ErrLoginRequired
	}

	detail := controller.NewDetail(ctx, catalog, service, sessionState, kind, id, logger)
	state, err := detail.Wait(ctx)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("%s %d", kind, id)
	if state.Status == fetch.StatusLoaded {
		title = state.Data.Item.Title
	}

	if detail.RefreshSaved(ctx) == want {
		if want {
			fmt.Printf("%s is already in your collection\n", title)
		} else {
			fmt.Printf("%s is not in your collection\n", title)
		}
		return nil
	}

	saved, err := detail.ToggleSaved(ctx)
	if err != nil {
		return err
	}
	if saved {
		fmt.Printf("✓ Added %s to your collection\n", title)
	} else {
		fmt.Printf("✓ Removed %s from your collection\n", title)
	}
	return nil
}
