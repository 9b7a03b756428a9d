package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/1broseidon/orbit/internal/ipc"
	"github.com/1broseidon/orbit/internal/palette"
)

func printWindowUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  orbit window list [--json]")
	fmt.Fprintln(w, "  orbit window open [--data key=value]... [--json-data JSON] <item|type|name>")
	fmt.Fprintln(w, "  orbit window minimize <id>")
	fmt.Fprintln(w, "  orbit window maximize <id>")
	fmt.Fprintln(w, "  orbit window close <id>")
	fmt.Fprintln(w, "  orbit window resize <id> <width> <height>")
}

func runWindow(args []string) int {
	if len(args) == 0 {
		printWindowUsage(os.Stderr)
		return 2
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printWindowUsage(os.Stdout)
		return 0
	}

	client := ipc.NewClient()

	switch args[0] {
	case "list":
		fs := newFlagSet("list", "orbit window list [--json]", "List overlay windows.")
		jsonOut := fs.Bool("json", false, "Output records as JSON")
		if code, ok := parseFlags(fs, args[1:]); !ok {
			return code
		}
		windows, err := client.ListWindows()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if *jsonOut {
			return printJSON(windows)
		}
		for _, w := range windows {
			state := "hidden"
			if w.Visible {
				state = "shown"
			}
			fmt.Printf("%s\t%s\t%s\t%.0fx%.0f\t%s\n", w.ID, w.Config.Name, w.Config.Type, w.Size.Width, w.Size.Height, state)
		}
		return 0

	case "open":
		fs := newFlagSet("open", "orbit window open [--data key=value]... [--json-data JSON] <item|type|name>",
			"Open or restore the window behind a menu item id, item type or window name.")
		pairs := fs.StringToString("data", nil, "Component props as key=value pairs")
		raw := fs.String("json-data", "", "Component props as a JSON object")
		if code, ok := parseFlags(fs, args[1:]); !ok {
			return code
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "window open requires <item|type|name>")
			fs.Usage()
			return 2
		}
		data, err := buildData(*pairs, *raw)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		id, err := client.OpenWindow(fs.Arg(0), data)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(id)
		return 0

	case "minimize", "maximize", "close":
		fs := newFlagSet(args[0], "orbit window "+args[0]+" <id>", "")
		if code, ok := parseFlags(fs, args[1:]); !ok {
			return code
		}
		if fs.NArg() != 1 {
			fmt.Fprintf(os.Stderr, "window %s requires <id>\n", args[0])
			return 2
		}
		var err error
		switch args[0] {
		case "minimize":
			err = client.MinimizeWindow(fs.Arg(0))
		case "maximize":
			err = client.MaximizeWindow(fs.Arg(0))
		default:
			err = client.CloseWindow(fs.Arg(0))
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	case "resize":
		fs := newFlagSet("resize", "orbit window resize <id> <width> <height>", "")
		if code, ok := parseFlags(fs, args[1:]); !ok {
			return code
		}
		if fs.NArg() != 3 {
			fmt.Fprintln(os.Stderr, "window resize requires <id> <width> <height>")
			return 2
		}
		width, err1 := strconv.ParseFloat(fs.Arg(1), 64)
		height, err2 := strconv.ParseFloat(fs.Arg(2), 64)
		if err1 != nil || err2 != nil || width <= 0 || height <= 0 {
			fmt.Fprintln(os.Stderr, "width and height must be positive numbers")
			return 2
		}
		if err := client.ResizeWindow(fs.Arg(0), width, height); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown window command: %s\n\n", args[0])
		printWindowUsage(os.Stderr)
		return 2
	}
}

func runMenu(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage: orbit menu list [--json] | orbit menu pick [--backend NAME] | orbit menu show | orbit menu hide")
		return 2
	}
	client := ipc.NewClient()

	switch args[0] {
	case "list":
		fs := newFlagSet("list", "orbit menu list [--json]", "")
		jsonOut := fs.Bool("json", false, "Output items as JSON")
		if code, ok := parseFlags(fs, args[1:]); !ok {
			return code
		}
		items, err := client.ListMenu()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if *jsonOut {
			return printJSON(items)
		}
		for _, it := range items {
			fmt.Printf("%s\t%s\t%s\n", it.ID, it.Label, it.Window.Name)
		}
		return 0
	case "pick":
		return runMenuPick(client, args[1:])
	case "show":
		if err := client.ShowMenu(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	case "hide":
		if err := client.HideMenu(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown menu command: %s\n", args[0])
		return 2
	}
}

func runNotify(args []string) int {
	fs := newFlagSet("notify", "orbit notify [--override] [--data key=value]... [--json-data JSON] <type>",
		"Show a notification window. A new window opens each time unless --override is set.")
	override := fs.Bool("override", false, "Reuse an open window of the same type")
	pairs := fs.StringToString("data", nil, "Component props as key=value pairs")
	raw := fs.String("json-data", "", "Component props as a JSON object")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "notify requires <type>")
		fs.Usage()
		return 2
	}
	data, err := buildData(*pairs, *raw)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	id, err := ipc.NewClient().Notify(fs.Arg(0), *override, data)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(id)
	return 0
}

// buildData merges --json-data with --data pairs; pairs win.
func buildData(pairs map[string]string, raw string) (map[string]any, error) {
	var data map[string]any
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return nil, fmt.Errorf("invalid --json-data: %w", err)
		}
	}
	if len(pairs) > 0 && data == nil {
		data = make(map[string]any, len(pairs))
	}
	for k, v := range pairs {
		data[k] = v
	}
	return data, nil
}

// runMenuPick lets the user choose a menu item in an external launcher and
// opens it.
func runMenuPick(client *ipc.Client, args []string) int {
	fs := newFlagSet("pick", "orbit menu pick [--backend NAME]",
		"Choose a menu item or minimized window with rofi, fuzzel, wofi or dmenu.")
	backendName := fs.String("backend", "auto", "Palette backend: auto, rofi, fuzzel, wofi, dmenu")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	items, err := client.ListMenu()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	windows, err := client.ListWindows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	entries := palette.Entries(items, windows)
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "No menu items to show")
		return 1
	}

	backend, err := palette.NewBackend(*backendName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	choice, err := backend.Show("orbit", entries)
	if errors.Is(err, palette.ErrCancelled) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	id, err := client.OpenWindow(choice.Value, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(id)
	return 0
}
