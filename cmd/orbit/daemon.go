package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/1broseidon/orbit/internal/config"
	"github.com/1broseidon/orbit/internal/ipc"
	"github.com/1broseidon/orbit/internal/logging"
	"github.com/1broseidon/orbit/internal/persist"
	"github.com/1broseidon/orbit/internal/platform"
	"github.com/1broseidon/orbit/internal/runtimepath"
	"github.com/1broseidon/orbit/internal/shell"
)

func runDaemon(args []string) int {
	fs := newFlagSet("daemon", "orbit daemon [--config PATH] [--display DISPLAY] [--headless]",
		"Run the overlay in the foreground. SIGHUP reloads the configuration.")
	path := fs.String("config", "", "Config file path (default: ~/.config/orbit/config.yaml or $ORBIT_CONFIG)")
	display := fs.String("display", "", "X display to connect to (overrides config)")
	headless := fs.Bool("headless", false, "Run without a display; the overlay is driven over IPC only")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	load := func() (*config.Config, error) {
		res, err := loadConfig(*path)
		if err != nil {
			return nil, err
		}
		return res.Config, nil
	}
	cfg, err := load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}

	logCloser, err := logging.Setup(cfg.GetLoggingConfig())
	if err != nil {
		log.Printf("Failed to set up logging: %v", err)
		return 1
	}
	defer logCloser.Close()
	log.Printf("Configuration loaded (ball: %dpx, %d menu items)", cfg.BallSize, len(cfg.Menu))

	store, err := persist.Open(cfg.GetStatePath())
	if err != nil {
		log.Printf("Failed to open state database: %v", err)
		return 1
	}
	defer store.Close()

	host, err := openHost(cfg, *display, *headless)
	if err != nil {
		log.Printf("Failed to connect to display: %v", err)
		return 1
	}
	defer host.Close()

	sh, err := shell.New(shell.Options{Config: cfg, Host: host, Store: store})
	if err != nil {
		log.Printf("Failed to build overlay: %v", err)
		return 1
	}

	ipcServer, err := ipc.NewServer(cfg, ipc.ServerOptions{
		Controller: sh,
		Displays:   host,
		Load:       load,
	})
	if err != nil {
		log.Printf("Failed to create IPC server: %v", err)
		return 1
	}
	if err := ipcServer.Start(); err != nil {
		log.Printf("Failed to start IPC server: %v", err)
		return 1
	}
	defer ipcServer.Stop()

	removePID := writePIDFile()
	defer removePID()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					log.Println("Received SIGHUP, reloading config...")
					newCfg, err := load()
					if err != nil {
						log.Printf("Config reload failed: %v", err)
						continue
					}
					if err := sh.Reload(newCfg); err != nil {
						log.Printf("Config reload failed: %v", err)
						continue
					}
					log.Println("Config reloaded successfully")
				case os.Interrupt, syscall.SIGTERM:
					log.Println("Shutting down orbit daemon...")
					cancel()
					return
				}
			}
		}
	}()

	log.Println("orbit daemon started successfully")
	if err := sh.Run(ctx); err != nil {
		log.Printf("Overlay stopped: %v", err)
		return 1
	}
	return 0
}

// openHost connects to the display, or returns a headless host when asked
// to or when the platform has no overlay backend.
func openHost(cfg *config.Config, display string, headless bool) (platform.Host, error) {
	if headless {
		log.Println("Running headless")
		return platform.NewNop(shell.DefaultViewport), nil
	}
	if display == "" {
		display = cfg.Display
	}
	if cfg.XAuthority != "" {
		os.Setenv("XAUTHORITY", cfg.XAuthority)
	}
	host, err := platform.NewHost(platform.HostOptions{Display: display, Name: "orbit"})
	if errors.Is(err, platform.ErrUnsupported) {
		log.Printf("No overlay backend on this platform, running headless")
		return platform.NewNop(shell.DefaultViewport), nil
	}
	return host, err
}

func writePIDFile() func() {
	path, err := runtimepath.PIDPath()
	if err != nil {
		log.Printf("Warning: no pid file: %v", err)
		return func() {}
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o600); err != nil {
		log.Printf("Warning: failed to write pid file: %v", err)
		return func() {}
	}
	return func() { os.Remove(path) }
}
