package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/murmur/internal"
	"github.com/starford/murmur/internal/audioflow"
	"github.com/starford/murmur/internal/editor"
	"github.com/starford/murmur/internal/models"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg, err := internal.LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// stderrNotifier shows note store toasts on the terminal.
type stderrNotifier struct{}

func (stderrNotifier) Success(msg string) { fmt.Fprintln(os.Stderr, msg) }

func (stderrNotifier) Failure(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
}

// openClient builds a client that logs at the configured level as text.
func openClient(cmd *cli.Command) (*internal.Client, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	return internal.Open(
		internal.WithConfig(cfg),
		internal.WithLogger(logger),
		internal.WithNotifier(stderrNotifier{}),
	)
}

// withNotes opens a client, loads the collection and runs fn.
func withNotes(ctx context.Context, cmd *cli.Command, fn func(*internal.Client) error) error {
	c, err := openClient(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Notes.GetNotes(ctx); err != nil {
		return err
	}
	return fn(c)
}

func noteID(cmd *cli.Command) (int64, error) {
	raw := cmd.Args().First()
	if raw == "" {
		return 0, fmt.Errorf("note id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid note id %q", raw)
	}
	return id, nil
}

func findNote(c *internal.Client, id int64) (models.Note, error) {
	for _, n := range c.Notes.Notes() {
		if n.ID == id {
			return n, nil
		}
	}
	return models.Note{}, fmt.Errorf("note %d not found", id)
}

func printNote(n models.Note) {
	fmt.Printf("# %s\n(id %d, %s)\n\n%s\n", n.Title, n.ID, n.Timestamp.Local().Format(time.DateTime), n.Content)
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg))
}

func listNotes(ctx context.Context, cmd *cli.Command) error {
	return withNotes(ctx, cmd, func(c *internal.Client) error {
		for _, n := range c.Notes.Notes() {
			fmt.Printf("%d\t%s\t%s\n", n.ID, n.Timestamp.Local().Format(time.DateTime), n.Title)
		}
		return nil
	})
}

func showNote(ctx context.Context, cmd *cli.Command) error {
	id, err := noteID(cmd)
	if err != nil {
		return err
	}
	return withNotes(ctx, cmd, func(c *internal.Client) error {
		n, err := findNote(c, id)
		if err != nil {
			return err
		}
		printNote(n)
		return nil
	})
}

func newNote(ctx context.Context, cmd *cli.Command) error {
	return withNotes(ctx, cmd, func(c *internal.Client) error {
		n, err := c.Notes.CreateNote(ctx, cmd.String("title"), cmd.String("content"))
		if err != nil {
			return err
		}
		fmt.Println(n.ID)
		return nil
	})
}

func editNote(ctx context.Context, cmd *cli.Command) error {
	id, err := noteID(cmd)
	if err != nil {
		return err
	}
	return withNotes(ctx, cmd, func(c *internal.Client) error {
		n, err := findNote(c, id)
		if err != nil {
			return err
		}
		s := editor.NewSession(c.Notes, n)
		if cmd.IsSet("title") {
			s.SetTitle(cmd.String("title"))
		}
		if cmd.IsSet("content") {
			s.SetContent(cmd.String("content"))
		}
		_, err = s.Save(ctx)
		return err
	})
}

func deleteNote(ctx context.Context, cmd *cli.Command) error {
	id, err := noteID(cmd)
	if err != nil {
		return err
	}
	return withNotes(ctx, cmd, func(c *internal.Client) error {
		return c.Notes.DeleteNote(ctx, id)
	})
}

func searchNotes(ctx context.Context, cmd *cli.Command) error {
	query := cmd.Args().First()
	if query == "" {
		return fmt.Errorf("search query is required")
	}
	c, err := openClient(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	if c.Search == nil {
		return fmt.Errorf("search is not available with this bridge")
	}
	results, err := c.Search.SearchNotes(ctx, query, int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Printf("%d\t%s\t%s\n", r.ID, r.Title, r.Snippet)
	}
	return nil
}

// dictate records into a note until Enter is pressed, then saves the merged
// transcript.
func dictate(ctx context.Context, cmd *cli.Command) error {
	id, err := noteID(cmd)
	if err != nil {
		return err
	}
	return withNotes(ctx, cmd, func(c *internal.Client) error {
		n, err := findNote(c, id)
		if err != nil {
			return err
		}
		s := editor.NewSession(c.Notes, n)
		ctrl := c.Dictation(ctx, s, audioflow.WithStateListener(func(st audioflow.State) {
			fmt.Fprintf(os.Stderr, "[%s]\n", st)
		}))
		defer ctrl.Close()

		fmt.Fprintln(os.Stderr, "Preparing speech model...")
		select {
		case <-ctrl.Ready():
		case <-ctx.Done():
			return ctx.Err()
		}
		if err := ctrl.PrepareErr(); err != nil {
			return err
		}

		if err := ctrl.Start(ctx); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Recording. Press Enter to stop.")
		_, _ = bufio.NewReader(os.Stdin).ReadString('\n')

		elapsed := ctrl.Elapsed()
		transcript, err := ctrl.Stop(ctx)
		if err != nil {
			return err
		}
		if transcript == "" {
			fmt.Fprintf(os.Stderr, "Nothing transcribed after %s.\n", elapsed)
			return nil
		}
		saved, err := s.Save(ctx)
		if err != nil {
			return err
		}
		printNote(saved)
		return nil
	})
}

func setTheme(ctx context.Context, cmd *cli.Command) error {
	c, err := openClient(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	if raw := cmd.Args().First(); raw != "" {
		t, ok := models.ParseTheme(raw)
		if !ok {
			return fmt.Errorf("unknown theme %q", raw)
		}
		if err := c.Theme.Set(t); err != nil {
			return err
		}
	}
	fmt.Println(c.Theme.Current())
	return nil
}

func main() {
	noteFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Note title"},
			&cli.StringFlag{Name: "content", Aliases: []string{"m"}, Usage: "Note content"},
		}
	}

	cmd := &cli.Command{
		Name:  "murmur",
		Usage: "Note taking with voice dictation and local speech-to-text",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("MURMUR_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{Name: "serve", Usage: "Run the host and expose it over HTTP", Action: serve},
			{Name: "mcp", Usage: "Serve note tools to an MCP client over stdio", Action: runMCP},
			{
				Name:  "notes",
				Usage: "Manage notes",
				Commands: []*cli.Command{
					{Name: "list", Usage: "List notes, newest first", Action: listNotes},
					{Name: "show", Usage: "Print a note", ArgsUsage: "<id>", Action: showNote},
					{Name: "new", Usage: "Create a note", Flags: noteFlags(), Action: newNote},
					{Name: "edit", Usage: "Change a note's title or content", ArgsUsage: "<id>", Flags: noteFlags(), Action: editNote},
					{Name: "rm", Usage: "Delete a note", ArgsUsage: "<id>", Action: deleteNote},
					{
						Name:      "search",
						Usage:     "Full-text search",
						ArgsUsage: "<query>",
						Flags:     []cli.Flag{&cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum results"}},
						Action:    searchNotes,
					},
				},
			},
			{Name: "dictate", Usage: "Dictate into a note", ArgsUsage: "<id>", Action: dictate},
			{Name: "theme", Usage: "Show or set the theme", ArgsUsage: "[light|dark]", Action: setTheme},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
