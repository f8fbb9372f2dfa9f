package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	gormlogger "gorm.io/gorm/logger"

	"chatlist/internal/models"
	"chatlist/internal/services"
)

func main() {
	// .env is optional; provider API keys may live there instead of the
	// keyring.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "chatlist",
		Usage: "send one prompt to many model providers and compare the answers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Value:   "chatlist.db",
				Usage:   "path to the SQLite database",
				EnvVars: []string{"CHATLIST_DB"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level: debug, info, warn, error",
				EnvVars: []string{"CHATLIST_LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			level, err := zerolog.ParseLevel(c.String("log-level"))
			if err != nil {
				return fmt.Errorf("parse log level: %w", err)
			}
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).
				With().Timestamp().Logger()
			return nil
		},
		Commands: []*cli.Command{
			promptCommand(),
			modelCommand(),
			sendCommand(),
			resultsCommand(),
			settingsCommand(),
			improveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func openApp(c *cli.Context, opts ...services.DispatchOption) (*App, error) {
	return NewApp(c.String("db"), gormlogger.Warn, opts...)
}

func promptCommand() *cli.Command {
	return &cli.Command{
		Name:  "prompt",
		Usage: "manage stored prompts",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "store a new prompt",
				ArgsUsage: "<text>",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "tag", Usage: "tag for the prompt, repeatable"},
				},
				Action: func(c *cli.Context) error {
					app, err := openApp(c)
					if err != nil {
						return err
					}
					defer app.Close()

					prompt, err := app.Services.Prompts.Create(c.Context, c.Args().First(), c.StringSlice("tag"))
					if err != nil {
						return err
					}
					fmt.Printf("stored prompt %d\n", prompt.ID)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "list stored prompts, newest first",
				Action: func(c *cli.Context) error {
					app, err := openApp(c)
					if err != nil {
						return err
					}
					defer app.Close()

					prompts, err := app.Services.Prompts.List(c.Context)
					if err != nil {
						return err
					}
					for _, prompt := range prompts {
						fmt.Printf("%d\t%s\t%s\t%s\n",
							prompt.ID,
							prompt.Date.Format("2006-01-02 15:04"),
							preview(prompt.Text, 60),
							prompt.Tags,
						)
					}
					return nil
				},
			},
			{
				Name:      "search",
				Usage:     "search prompts by text or tag",
				ArgsUsage: "<query>",
				Action: func(c *cli.Context) error {
					app, err := openApp(c)
					if err != nil {
						return err
					}
					defer app.Close()

					prompts, err := app.Services.Prompts.Search(c.Context, c.Args().First())
					if err != nil {
						return err
					}
					for _, prompt := range prompts {
						fmt.Printf("%d\t%s\t%s\n", prompt.ID, preview(prompt.Text, 60), prompt.Tags)
					}
					return nil
				},
			},
			{
				Name:      "rm",
				Usage:     "delete a prompt and all of its results",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id, err := parseID(c.Args().First())
					if err != nil {
						return err
					}
					app, err := openApp(c)
					if err != nil {
						return err
					}
					defer app.Close()
					return app.Services.Prompts.Delete(c.Context, id)
				},
			},
		},
	}
}

func modelCommand() *cli.Command {
	return &cli.Command{
		Name:  "model",
		Usage: "manage configured providers",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "register a provider endpoint",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true, Usage: "unique display name"},
					&cli.StringFlag{Name: "url", Required: true, Usage: "chat completions endpoint URL"},
					&cli.StringFlag{Name: "key-name", Required: true, Usage: "name of the secret holding the API key"},
					&cli.StringFlag{Name: "model", Usage: "model identifier sent to the API (defaults to name)"},
					&cli.BoolFlag{Name: "inactive", Usage: "register without making it a dispatch target"},
				},
				Action: func(c *cli.Context) error {
					app, err := openApp(c)
					if err != nil {
						return err
					}
					defer app.Close()

					provider, err := app.Services.Providers.Create(c.Context, &models.Provider{
						Name:          c.String("name"),
						APIURL:        c.String("url"),
						CredentialKey: c.String("key-name"),
						ModelName:     c.String("model"),
						IsActive:      !c.Bool("inactive"),
					})
					if err != nil {
						return err
					}
					fmt.Printf("registered provider %d (%s)\n", provider.ID, provider.Name)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "list configured providers",
				Action: func(c *cli.Context) error {
					app, err := openApp(c)
					if err != nil {
						return err
					}
					defer app.Close()

					providers, err := app.Services.Providers.List(c.Context)
					if err != nil {
						return err
					}
					for _, provider := range providers {
						state := "inactive"
						if provider.IsActive {
							state = "active"
						}
						fmt.Printf("%d\t%s\t%s\t%s\t%s\n",
							provider.ID, provider.Name, provider.APIURL, provider.CredentialKey, state)
					}
					return nil
				},
			},
			{
				Name:      "enable",
				ArgsUsage: "<id>",
				Action:    setActiveAction(true),
			},
			{
				Name:      "disable",
				ArgsUsage: "<id>",
				Action:    setActiveAction(false),
			},
			{
				Name:      "rm",
				Usage:     "delete a provider with no stored results",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id, err := parseID(c.Args().First())
					if err != nil {
						return err
					}
					app, err := openApp(c)
					if err != nil {
						return err
					}
					defer app.Close()
					return app.Services.Providers.Delete(c.Context, id)
				},
			},
			{
				Name:      "set-key",
				Usage:     "store an API key in the OS keyring",
				ArgsUsage: "<key-name> <secret>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return fmt.Errorf("expected <key-name> <secret>")
					}
					app, err := openApp(c)
					if err != nil {
						return err
					}
					defer app.Close()
					return app.Keyring.Store(c.Args().Get(0), c.Args().Get(1))
				},
			},
		},
	}
}

func setActiveAction(active bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		id, err := parseID(c.Args().First())
		if err != nil {
			return err
		}
		app, err := openApp(c)
		if err != nil {
			return err
		}
		defer app.Close()
		return app.Services.Providers.SetActive(c.Context, id, active)
	}
}

func sendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "dispatch a stored prompt to all active providers",
		ArgsUsage: "<prompt-id>",
		Action: func(c *cli.Context) error {
			id, err := parseID(c.Args().First())
			if err != nil {
				return err
			}

			// Print outcomes as they land instead of waiting for the batch.
			app, err := openApp(c, services.WithObserver(printOutcome))
			if err != nil {
				return err
			}
			defer app.Close()

			outcomes, err := app.Services.Dispatch.Dispatch(c.Context, id)
			if err != nil {
				return err
			}
			if len(outcomes) == 0 {
				fmt.Println("no active providers")
			}
			return nil
		},
	}
}

func printOutcome(outcome models.DispatchOutcome) {
	if outcome.Status == models.OutcomeSuccess {
		fmt.Printf("[%s] ok in %s (result %d)\n%s\n\n",
			outcome.ProviderName, outcome.Elapsed.Round(0), outcome.ResultID, outcome.Response)
		return
	}
	fmt.Printf("[%s] %s: %s\n\n", outcome.ProviderName, outcome.FailureKind, outcome.Detail)
}

func resultsCommand() *cli.Command {
	return &cli.Command{
		Name:  "results",
		Usage: "inspect, select, and export stored results",
		Subcommands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "list results for a prompt in arrival order",
				ArgsUsage: "<prompt-id>",
				Action: func(c *cli.Context) error {
					id, err := parseID(c.Args().First())
					if err != nil {
						return err
					}
					app, err := openApp(c)
					if err != nil {
						return err
					}
					defer app.Close()

					results, err := app.Services.Results.ListByPrompt(c.Context, id)
					if err != nil {
						return err
					}
					for _, result := range results {
						name := ""
						if result.Provider != nil {
							name = result.Provider.Name
						}
						marker := " "
						if result.Selected {
							marker = "*"
						}
						fmt.Printf("%s %d\t%s\t%s\t%s\n",
							marker, result.ID, name, result.Status, preview(result.Response, 80))
					}
					return nil
				},
			},
			{
				Name:      "select",
				Usage:     "toggle the selected flag on a result",
				ArgsUsage: "<result-id>",
				Action: func(c *cli.Context) error {
					id, err := parseID(c.Args().First())
					if err != nil {
						return err
					}
					app, err := openApp(c)
					if err != nil {
						return err
					}
					defer app.Close()

					selected, err := app.Services.Results.ToggleSelected(c.Context, id)
					if err != nil {
						return err
					}
					fmt.Printf("result %d selected=%t\n", id, selected)
					return nil
				},
			},
			{
				Name:  "export",
				Usage: "export all selected results",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Usage: "markdown or json (defaults to the export_format setting)"},
					&cli.StringFlag{Name: "out", Usage: "output file (defaults to stdout)"},
				},
				Action: func(c *cli.Context) error {
					app, err := openApp(c)
					if err != nil {
						return err
					}
					defer app.Close()

					out := os.Stdout
					if path := c.String("out"); path != "" {
						file, err := os.Create(path)
						if err != nil {
							return err
						}
						defer file.Close()
						out = file
					}
					return app.Services.Export.ExportSelected(c.Context, c.String("format"), out)
				},
			},
		},
	}
}

func settingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "read and write settings",
		Subcommands: []*cli.Command{
			{
				Name:      "get",
				ArgsUsage: "<key>",
				Action: func(c *cli.Context) error {
					app, err := openApp(c)
					if err != nil {
						return err
					}
					defer app.Close()

					value, err := app.Services.Settings.Get(c.Context, c.Args().First())
					if err != nil {
						return err
					}
					fmt.Println(value)
					return nil
				},
			},
			{
				Name:      "set",
				ArgsUsage: "<key> <value>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return fmt.Errorf("expected <key> <value>")
					}
					app, err := openApp(c)
					if err != nil {
						return err
					}
					defer app.Close()
					return app.Services.Settings.Set(c.Context, c.Args().Get(0), c.Args().Get(1))
				},
			},
			{
				Name: "list",
				Action: func(c *cli.Context) error {
					app, err := openApp(c)
					if err != nil {
						return err
					}
					defer app.Close()

					all, err := app.Services.Settings.All(c.Context)
					if err != nil {
						return err
					}
					for key, value := range all {
						fmt.Printf("%s=%s\n", key, value)
					}
					return nil
				},
			},
		},
	}
}

func improveCommand() *cli.Command {
	return &cli.Command{
		Name:      "improve",
		Usage:     "ask the configured improver model to sharpen a prompt",
		ArgsUsage: "<text>",
		Action: func(c *cli.Context) error {
			app, err := openApp(c)
			if err != nil {
				return err
			}
			defer app.Close()

			improvement, err := app.Services.Improver.Improve(c.Context, c.Args().First())
			if err != nil {
				return err
			}
			fmt.Printf("Improved:\n%s\n", improvement.Improved)
			for i, alt := range improvement.Alternatives {
				fmt.Printf("\nAlternative %d:\n%s\n", i+1, alt)
			}
			for kind, text := range improvement.Adaptations {
				fmt.Printf("\nAdaptation (%s):\n%s\n", kind, text)
			}
			return nil
		},
	}
}

func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(arg), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("a positive numeric id is required")
	}
	return uint(id), nil
}

func preview(text string, max int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
