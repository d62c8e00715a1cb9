package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/SashankSharma/iotivity/pkg/callback"
	"github.com/SashankSharma/iotivity/pkg/core"
	"github.com/SashankSharma/iotivity/pkg/dispatch"
	"github.com/chzyer/readline"
)

// shell drives the interactive command loop over a running Framework.
type shell struct {
	fw *core.Framework
	rl *readline.Instance
}

func newShell(fw *core.Framework) (*shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ipca> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("readline: %w", err)
	}

	s := &shell{fw: fw, rl: rl}
	fw.Bus.Register(s.onEvent)
	return s, nil
}

func (s *shell) Close() error { return s.rl.Close() }

func (s *shell) onEvent(ev callback.Event) {
	switch ev.Kind {
	case callback.DeviceDiscovered:
		fmt.Fprintf(s.rl.Stdout(), "[event] device %s discovered=%v updated=%v\n", ev.DeviceID, ev.Responsive, ev.Updated)
	case callback.GetComplete, callback.SetComplete, callback.CreateComplete, callback.DeleteComplete:
		fmt.Fprintf(s.rl.Stdout(), "[event] %s on %s -> %s %v\n", ev.Kind, ev.DeviceID, ev.Status, ev.Representation)
	case callback.RequestAccessComplete:
		fmt.Fprintf(s.rl.Stdout(), "[event] access request on %s -> %s\n", ev.DeviceID, ev.Status)
	case callback.PasswordDisplay:
		fmt.Fprintf(s.rl.Stdout(), "[event] device PIN: %s\n", ev.PasswordBuffer)
	}
}

func (s *shell) printHelp() {
	fmt.Fprintln(s.rl.Stdout(), `commands:
  help                       show this text
  discover                   trigger a fresh discovery sweep
  devices                    list known devices
  get <deviceId>             read a resource's properties
  access <deviceId>          request subowner access
  quit                       exit`)
}

func (s *shell) run(ctx context.Context) {
	s.printHelp()
	_ = s.fw.Fetch.DiscoverByTypes(ctx, nil)

	for {
		line, err := s.rl.Readline()
		if err != nil {
			return
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		parts := strings.Fields(input)
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		switch cmd {
		case "help", "?":
			s.printHelp()
		case "discover":
			if err := s.fw.Fetch.DiscoverByTypes(ctx, nil); err != nil {
				fmt.Fprintln(s.rl.Stdout(), "discover failed:", err)
			}
		case "devices":
			s.cmdDevices()
		case "get":
			s.cmdGet(ctx, args)
		case "access":
			s.cmdAccess(ctx, args)
		case "quit", "exit", "q":
			return
		default:
			fmt.Fprintf(s.rl.Stdout(), "unknown command: %s\n", cmd)
		}
	}
}

func (s *shell) cmdDevices() {
	for _, e := range s.fw.Registry.SnapshotDevices() {
		fmt.Fprintf(s.rl.Stdout(), "%s  uris=%v types=%v\n", e.DeviceID, e.DeviceUris, e.DiscoveredResourceTypes)
	}
}

func (s *shell) cmdGet(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.rl.Stdout(), "usage: get <deviceId>")
		return
	}
	paths, serr := s.fw.Dispatch.CopyResourcePaths(args[0])
	if serr != nil {
		fmt.Fprintln(s.rl.Stdout(), "error:", serr)
		return
	}
	if len(paths) == 0 {
		fmt.Fprintln(s.rl.Stdout(), "no resources known for device")
		return
	}
	serr = s.fw.Dispatch.GetProperties(ctx, args[0], &dispatch.CallbackInfo{ResourcePath: paths[0]})
	if serr != nil {
		fmt.Fprintln(s.rl.Stdout(), "error:", serr)
	}
}

func (s *shell) cmdAccess(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.rl.Stdout(), "usage: access <deviceId>")
		return
	}
	if serr := s.fw.Security.RequestAccess(ctx, args[0], nil); serr != nil {
		fmt.Fprintln(s.rl.Stdout(), "error:", serr)
	}
}
