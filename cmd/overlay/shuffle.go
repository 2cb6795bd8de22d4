package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-overlay/internal/shuffler"
)

var (
	shufflerURL string

	gameWeight      int
	gameDisplayName string
	gameDescription string
	gamePlayed      bool
	gameMultiplayer bool

	rollMark bool
)

var shuffleCmd = &cobra.Command{
	Use:   "shuffle",
	Short: "Manage game lists on the shuffler server",
}

func init() {
	shuffleCmd.PersistentFlags().StringVar(&shufflerURL, "url", "", "shuffler base url (defaults to config shuffler.url)")

	listsCmd := &cobra.Command{
		Use:   "lists",
		Short: "Show all lists",
		Args:  cobra.NoArgs,
		RunE: withShuffler(func(ctx context.Context, c *shuffler.Client, out io.Writer, _ []string) error {
			lists, err := c.Lists(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME")
			for _, l := range lists {
				fmt.Fprintf(tw, "%d\t%s\n", l.ID, l.Name)
			}
			return tw.Flush()
		}),
	}

	addListCmd := &cobra.Command{
		Use:   "add-list NAME",
		Short: "Create a list",
		Args:  cobra.ExactArgs(1),
		RunE: withShuffler(func(ctx context.Context, c *shuffler.Client, out io.Writer, args []string) error {
			l, err := c.CreateList(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "list created: %d %s\n", l.ID, l.Name)
			return nil
		}),
	}

	rmListCmd := &cobra.Command{
		Use:   "rm-list ID",
		Short: "Delete a list",
		Args:  cobra.ExactArgs(1),
		RunE: withShuffler(func(ctx context.Context, c *shuffler.Client, out io.Writer, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.DeleteList(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(out, "list deleted: %d\n", id)
			return nil
		}),
	}

	gamesCmd := &cobra.Command{
		Use:   "games LIST_ID",
		Short: "Show the games of a list",
		Args:  cobra.ExactArgs(1),
		RunE: withShuffler(func(ctx context.Context, c *shuffler.Client, out io.Writer, args []string) error {
			listID, err := parseID(args[0])
			if err != nil {
				return err
			}
			games, err := c.Games(ctx, listID)
			if err != nil {
				return err
			}
			printGames(out, games)
			return nil
		}),
	}

	addGameCmd := &cobra.Command{
		Use:   "add-game LIST_ID NAME",
		Short: "Add a game to a list",
		Args:  cobra.ExactArgs(2),
		RunE: withShuffler(func(ctx context.Context, c *shuffler.Client, out io.Writer, args []string) error {
			listID, err := parseID(args[0])
			if err != nil {
				return err
			}
			g := shuffler.Game{
				ListID:      listID,
				Name:        args[1],
				DisplayName: gameDisplayName,
				Description: gameDescription,
				Weight:      gameWeight,
			}
			if gamePlayed {
				g.Status |= shuffler.StatusPlayed
			}
			if gameMultiplayer {
				g.Status |= shuffler.StatusMultiplayer
			}
			created, err := c.CreateGame(ctx, g)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "game added: %d %s\n", created.ID, created.Title())
			return nil
		}),
	}
	addGameCmd.Flags().IntVar(&gameWeight, "weight", 1, fmt.Sprintf("pick weight (%d-%d)", shuffler.MinWeight, shuffler.MaxWeight))
	addGameCmd.Flags().StringVar(&gameDisplayName, "display-name", "", "name shown on the overlay")
	addGameCmd.Flags().StringVar(&gameDescription, "description", "", "free text description")
	addGameCmd.Flags().BoolVar(&gamePlayed, "played", false, "mark as already played")
	addGameCmd.Flags().BoolVar(&gameMultiplayer, "multiplayer", false, "mark as multiplayer")

	markPlayedCmd := &cobra.Command{
		Use:   "mark-played GAME_ID",
		Short: "Set the played flag on a game",
		Args:  cobra.ExactArgs(1),
		RunE: withShuffler(func(ctx context.Context, c *shuffler.Client, out io.Writer, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			g, err := c.Game(ctx, id)
			if err != nil {
				return err
			}
			updated, err := c.MarkPlayed(ctx, g)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "marked played: %s [%s]\n", updated.Title(), updated.Status)
			return nil
		}),
	}

	rmGameCmd := &cobra.Command{
		Use:   "rm-game GAME_ID",
		Short: "Delete a game",
		Args:  cobra.ExactArgs(1),
		RunE: withShuffler(func(ctx context.Context, c *shuffler.Client, out io.Writer, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.DeleteGame(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(out, "game deleted: %d\n", id)
			return nil
		}),
	}

	rollCmd := &cobra.Command{
		Use:   "roll LIST_ID",
		Short: "Pick a random game from a list",
		Args:  cobra.ExactArgs(1),
		RunE: withShuffler(func(ctx context.Context, c *shuffler.Client, out io.Writer, args []string) error {
			listID, err := parseID(args[0])
			if err != nil {
				return err
			}
			res, err := c.Shuffle(ctx, listID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "rolled: %s\n", res.Game.Title())
			if res.Game.Description != "" {
				fmt.Fprintf(out, "  %s\n", res.Game.Description)
			}
			if rollMark {
				if _, err := c.MarkPlayed(ctx, res.Game); err != nil {
					return err
				}
				fmt.Fprintln(out, "marked played")
			}
			return nil
		}),
	}
	rollCmd.Flags().BoolVar(&rollMark, "mark", false, "mark the picked game as played")

	shuffleCmd.AddCommand(listsCmd, addListCmd, rmListCmd, gamesCmd, addGameCmd, markPlayedCmd, rmGameCmd, rollCmd)
	rootCmd.AddCommand(shuffleCmd)
}

type shufflerFunc func(ctx context.Context, c *shuffler.Client, out io.Writer, args []string) error

// withShuffler resolves the shuffler url from flags or config and runs fn.
func withShuffler(fn shufflerFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		base := cfg.Shuffler.URL
		if shufflerURL != "" {
			base = shufflerURL
		}
		client := shuffler.New(base, cfg.Shuffler.Timeout)
		return fn(cmd.Context(), client, cmd.OutOrStdout(), args)
	}
}

func printGames(out io.Writer, games []shuffler.Game) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tWEIGHT\tSTATUS")
	for _, g := range games {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", g.ID, g.Title(), g.Weight, g.Status)
	}
	_ = tw.Flush()
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id must be a positive integer, got %q", shuffler.ErrInvalidInput, s)
	}
	return id, nil
}
