package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/marquee/backend"
	"github.com/s0up4200/marquee/controller"
	"github.com/s0up4200/marquee/fetch"
	"github.com/s0up4200/marquee/filter"
	"github.com/s0up4200/marquee/tmdb"
)

var allSeasons bool

// discoverCmd represents the discover command
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List popular titles",
	Long: `List the most popular movies or shows, optionally narrowed with a filter
expression, followed by the most searched terms for the same kind.`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the catalog",
	Long: `Search movies or shows by title. The query is added to your search history
and the top result counts towards the trending list.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

// movieCmd represents the movie command
var movieCmd = &cobra.Command{
	Use:   "movie <id>",
	Short: "Show movie details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDetail(cmd, args[0], tmdb.KindMovie)
	},
}

// tvCmd represents the tv command
var tvCmd = &cobra.Command{
	Use:     "tv <id>",
	Aliases: []string{"show"},
	Short:   "Show TV show details",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDetail(cmd, args[0], tmdb.KindTV)
	},
}

// seasonCmd represents the season command
var seasonCmd = &cobra.Command{
	Use:   "season <show-id> [season-number]",
	Short: "List the episodes of a season",
	Long:  `List the episodes of one season, or of every season with --all.`,
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSeason,
}

func init() {
	for _, c := range []*cobra.Command{discoverCmd, searchCmd} {
		c.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter name from config or expression")
	}
	seasonCmd.Flags().BoolVar(&allSeasons, "all", false, "list every season")

	rootCmd.AddCommand(discoverCmd, searchCmd, movieCmd, tvCmd, seasonCmd)
}

// applyFilter narrows items with --filter when set
func applyFilter(items []tmdb.CatalogItem) ([]tmdb.CatalogItem, error) {
	if filterExpr == "" {
		return items, nil
	}
	f, err := filters.Resolve(filterExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	filtered := filter.Apply(f, items)
	logger.Debug().Str("filter", filterExpr).Int("total", len(items)).Int("matched", len(filtered)).Msg("Applied filter")
	return filtered, nil
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	kind, err := mediaKind()
	if err != nil {
		return err
	}

	home := controller.NewHome(ctx, catalog, service, kind, logger)
	if err := home.Wait(ctx); err != nil {
		return err
	}

	state := home.Popular.State()
	if state.Status == fetch.StatusFailed {
		return fmt.Errorf("failed to load popular titles: %w", state.Err)
	}

	items, err := applyFilter(state.Data)
	if err != nil {
		return err
	}
	trending := home.Trending.State().Data

	if outputFormat == "json" {
		return emit(struct {
			Popular  []tmdb.CatalogItem      `json:"popular"`
			Trending []backend.SearchCounter `json:"trending"`
		}{items, trending}, nil)
	}

	if err := printItems(items); err != nil {
		return err
	}
	if len(trending) > 0 {
		fmt.Println("\nTrending searches")
		return printTrending(trending)
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	kind, err := mediaKind()
	if err != nil {
		return err
	}

	search := controller.NewSearch(ctx, catalog, service, searches, kind, cfg.Search.Debounce, logger)
	query := strings.Join(args, " ")

	logger.Info().Str("query", query).Str("kind", string(kind)).Msg("Searching catalog")

	state, err := search.Submit(ctx, query)
	if err != nil {
		return err
	}
	if state.Status == fetch.StatusFailed {
		return fmt.Errorf("search failed: %w", state.Err)
	}

	items, err := applyFilter(state.Data)
	if err != nil {
		return err
	}
	return printItems(items)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id: %s", s)
	}
	return id, nil
}

func runDetail(cmd *cobra.Command, arg string, kind tmdb.MediaKind) error {
	ctx := cmd.Context()
	id, err := parseID(arg)
	if err != nil {
		return err
	}

	sessionState.Refetch(ctx)
	detail := controller.NewDetail(ctx, catalog, service, sessionState, kind, id, logger)
	state, err := detail.Wait(ctx)
	if err != nil {
		return err
	}
	if state.Status == fetch.StatusFailed {
		return fmt.Errorf("failed to load %s %d: %w", kind, id, state.Err)
	}
	saved := detail.RefreshSaved(ctx)

	return emit(struct {
		controller.Details
		Saved bool `json:"saved"`
	}{state.Data, saved}, func() {
		printDetails(state.Data, saved)
	})
}

func printDetails(d controller.Details, saved bool) {
	item := d.Item
	fmt.Printf("%s (%s)\n", item.Title, yearString(item.Year()))
	fmt.Println(strings.Repeat("━", 60))

	fmt.Printf("Rating:   %.1f\n", item.VoteAverage)
	if item.ReleaseDate != "" {
		fmt.Printf("Released: %s\n", item.ReleaseDate)
	}

	switch {
	case d.Movie != nil:
		if d.Movie.Runtime > 0 {
			fmt.Printf("Runtime:  %d min\n", d.Movie.Runtime)
		}
		printGenres(d.Movie.Genres)
		if d.Movie.Tagline != "" {
			fmt.Printf("\n%s\n", d.Movie.Tagline)
		}
	case d.TV != nil:
		fmt.Printf("Seasons:  %d (%d episodes)\n", d.TV.NumberOfSeasons, d.TV.NumberOfEpisodes)
		if rt := d.TV.Runtime(); rt > 0 {
			fmt.Printf("Runtime:  %d min\n", rt)
		}
		fmt.Printf("Status:   %s\n", d.TV.Status)
		printGenres(d.TV.Genres)
	}

	if poster := tmdb.PosterURL(item.Poster(), ""); poster != "" {
		fmt.Printf("Poster:   %s\n", poster)
	}
	if item.Overview != "" {
		fmt.Printf("\n%s\n", item.Overview)
	}

	if sessionState.LoggedIn() {
		status := "not saved"
		if saved {
			status = "✓ saved"
		}
		fmt.Printf("\nCollection: %s\n", status)
	}
}

func printGenres(genres []tmdb.Genre) {
	if len(genres) == 0 {
		return
	}
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		names = append(names, g.Name)
	}
	fmt.Printf("Genres:   %s\n", strings.Join(names, ", "))
}

func runSeason(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	showID, err := parseID(args[0])
	if err != nil {
		return err
	}

	var seasons []tmdb.SeasonDetails
	switch {
	case allSeasons:
		seasons, err = catalog.AllSeasons(ctx, showID)
		if err != nil {
			return fmt.Errorf("failed to load seasons: %w", err)
		}
	default:
		number := 1
		if len(args) == 2 {
			number, err = strconv.Atoi(args[1])
			if err != nil || number < 0 {
				return fmt.Errorf("invalid season number: %s", args[1])
			}
		}
		season, err := catalog.SeasonDetails(ctx, showID, number)
		if err != nil {
			return fmt.Errorf("failed to load season %d: %w", number, err)
		}
		seasons = []tmdb.SeasonDetails{*season}
	}

	return emit(seasons, func() {
		for _, season := range seasons {
			rows := make([][]string, 0, len(season.Episodes))
			for _, ep := range season.Episodes {
				rows = append(rows, []string{
					strconv.Itoa(ep.EpisodeNumber),
					truncate(ep.Name, 48),
					ep.AirDate,
					strconv.Itoa(ep.Runtime),
					fmt.Sprintf("%.1f", ep.VoteAverage),
				})
			}
			fmt.Printf("%s\n", season.Name)
			fmt.Println(renderTable(
				[]string{"#", "Episode", "Aired", "Min", "Rating"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
			))
		}
	})
}
