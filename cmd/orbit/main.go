package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/orbit/internal/config"
	"github.com/1broseidon/orbit/internal/ipc"
	"github.com/1broseidon/orbit/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "window":
		os.Exit(runWindow(os.Args[2:]))
	case "menu":
		os.Exit(runMenu(os.Args[2:]))
	case "notify":
		os.Exit(runNotify(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: orbit <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the overlay (foreground)")
	fmt.Fprintln(w, "  status              Show daemon and view status")
	fmt.Fprintln(w, "  reload              Reload configuration in the daemon")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  window list         List overlay windows")
	fmt.Fprintln(w, "  window open         Open the window of a menu entry")
	fmt.Fprintln(w, "  window minimize     Minimize a window")
	fmt.Fprintln(w, "  window maximize     Toggle a window between full screen and its size")
	fmt.Fprintln(w, "  window close        Close a window")
	fmt.Fprintln(w, "  window resize       Resize a window")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  menu list           List menu entries")
	fmt.Fprintln(w, "  menu pick           Choose an entry with rofi, fuzzel, wofi or dmenu")
	fmt.Fprintln(w, "  menu show|hide      Expand or collapse the floating menu")
	fmt.Fprintln(w, "  notify              Show a notification window")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tui                 Open the interactive console")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'orbit <command> --help' for command-specific options.")
}

// newFlagSet returns a flag set that reports errors on stderr.
func newFlagSet(name, usage, description string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: "+usage)
		if description != "" {
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, description)
		}
		if fs.HasFlags() {
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Flags:")
			fs.PrintDefaults()
		}
	}
	return fs
}

// parseFlags parses args and maps the outcome to an exit code; ok is false
// when the caller should return code.
func parseFlags(fs *pflag.FlagSet, args []string) (code int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runStatus(args []string) int {
	fs := newFlagSet("status", "orbit status [--json]", "Show daemon status via IPC.")
	jsonOut := fs.Bool("json", false, "Output the full status as JSON")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *jsonOut {
		return printJSON(status)
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("pid:            %d\n", status.PID)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	fmt.Printf("mode:           %s\n", status.View.Mode)
	fmt.Printf("ball_position:  %.0f,%.0f\n", status.View.LastBallPosition.X, status.View.LastBallPosition.Y)
	fmt.Printf("viewport:       %.0fx%.0f\n", status.Viewport.Width, status.Viewport.Height)
	fmt.Printf("passthrough:    %v\n", status.Passthrough)
	fmt.Printf("windows:        %d\n", len(status.Windows))
	if status.StateFile != "" {
		fmt.Printf("state_file:     %s\n", status.StateFile)
	}
	return 0
}

func runReload(args []string) int {
	fs := newFlagSet("reload", "orbit reload", "Ask the daemon to re-read its configuration.")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  orbit config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  orbit config print [--path PATH] [--effective|--defaults]")
		fmt.Fprintln(os.Stderr, "  orbit config explain [--path PATH] <yaml.path>")
		return 2
	}

	pathHelp := "Config file path (default: ~/.config/orbit/config.yaml or $ORBIT_CONFIG)"

	switch args[0] {
	case "validate":
		fs := newFlagSet("validate", "orbit config validate [--path PATH]", "")
		path := fs.String("path", "", pathHelp)
		if code, ok := parseFlags(fs, args[1:]); !ok {
			return code
		}
		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("config: ok (%d menu items, %d notification types)\n", len(res.Config.Menu), len(res.Config.Notifications))
		return 0

	case "print":
		fs := newFlagSet("print", "orbit config print [--path PATH] [--effective|--defaults]", "")
		path := fs.String("path", "", pathHelp)
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		printEffective := fs.Bool("effective", false, "Print effective config (default)")
		if code, ok := parseFlags(fs, args[1:]); !ok {
			return code
		}

		cfg := config.DefaultConfig()
		_ = printEffective // default
		if !*printDefaults {
			res, err := loadConfig(*path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			for _, f := range res.Files {
				fmt.Printf("# loaded: %s\n", f)
			}
			cfg = res.Config
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	case "explain":
		fs := newFlagSet("explain", "orbit config explain [--path PATH] <yaml.path>", "")
		path := fs.String("path", "", pathHelp)
		if code, ok := parseFlags(fs, args[1:]); !ok {
			return code
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "explain requires <yaml.path>")
			return 2
		}
		queryPath := fs.Arg(0)

		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		value, src, err := config.Explain(res, queryPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		out, err := yaml.Marshal(value)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("path: %s\n", queryPath)
		fmt.Printf("source: %s\n", formatSource(src))
		fmt.Printf("value:\n%s", string(out))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func runTUI(args []string) int {
	fs := newFlagSet("tui", "orbit tui [--path PATH]", "Interactive console for the running overlay.\n\n"+
		"Keybindings:\n"+
		"  j/k, ↑/↓  Navigate\n"+
		"  Tab       Switch between menu and windows\n"+
		"  Enter, o  Open the selected menu entry\n"+
		"  m/x/c     Minimize, maximize or close the selected window\n"+
		"  s/h       Show or hide the floating menu\n"+
		"  e         Edit config in $EDITOR, then reload\n"+
		"  r         Reload config in the daemon\n"+
		"  q, Esc    Quit")
	path := fs.String("path", "", "Config file opened by the edit key")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	t := tui.New(*path, ipc.NewClient())
	if err := t.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceBuiltin:
		if src.Name != "" {
			return "builtin:" + src.Name
		}
		return "builtin"
	case config.SourceDefault:
		if src.Name != "" {
			return "default:" + src.Name
		}
		return "default"
	default:
		return string(src.Kind)
	}
}
