// pivot-rec is a CLI utility for working with recorded session journals.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Faultbox/pivot/internal/protocol"
	"github.com/Faultbox/pivot/internal/record"
	gomath "github.com/Faultbox/pivot/pkg/math"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "list", "ls":
		cmdList(args)
	case "info":
		cmdInfo(args)
	case "dump":
		cmdDump(args)
	case "export":
		cmdExport(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`pivot-rec - session journal utility

Usage:
  pivot-rec <command> [options]

Commands:
  list [dir]                     List indexed sessions (default dir: recordings)
  info <session.pvj>             Show journal header and packet counts
  dump <session.pvj>             Print the journal tick by tick
  export <session.pvj> [out.csv] Export turn offsets as CSV

Examples:
  pivot-rec list
  pivot-rec info recordings/20260825-153012.pvj
  pivot-rec dump -n 10 recordings/20260825-153012.pvj
  pivot-rec export recordings/20260825-153012.pvj offsets.csv`)
}

func cmdList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	index := fs.String("index", "", "Session index path (default <dir>/sessions.db)")
	fs.Parse(args)

	dir := "recordings"
	if fs.NArg() > 0 {
		dir = fs.Arg(0)
	}
	path := *index
	if path == "" {
		path = filepath.Join(dir, "sessions.db")
	}

	idx, err := record.OpenIndex(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer idx.Close()

	sessions, err := idx.Sessions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "No sessions recorded")
		return
	}

	fmt.Printf("%-17s  %-19s  %7s  %8s  %5s  %9s\n",
		"SESSION", "STARTED", "TICKS", "LENGTH", "CHARS", "SIZE")
	for _, s := range sessions {
		fmt.Printf("%-17s  %-19s  %7d  %8s  %5d  %9s\n",
			s.ID,
			time.Unix(s.StartedAt, 0).UTC().Format("2006-01-02 15:04:05"),
			s.Ticks,
			sessionLength(s),
			s.Characters,
			formatSize(s.Bytes))
	}
}

func sessionLength(s record.Session) string {
	if s.TickRate <= 0 {
		return "?"
	}
	return fmt.Sprintf("%.1fs", float64(s.Ticks)/float64(s.TickRate))
}

func formatSize(n int64) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.2f MB", float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	}
	return fmt.Sprintf("%d B", n)
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pivot-rec info <session.pvj>")
		os.Exit(1)
	}

	r, err := record.OpenReader(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer r.Close()

	hdr := r.Header()
	fmt.Printf("Journal:   %s\n", args[0])
	fmt.Printf("Session:   %s\n", hdr.Session)
	fmt.Printf("Started:   %s\n", hdr.StartedAt)
	fmt.Printf("Tick rate: %d\n", hdr.TickRate)

	var hellos, states, offsets, ticks int
	for {
		p, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		switch p.(type) {
		case *protocol.Hello:
			hellos++
		case *protocol.CharacterState:
			states++
		case *protocol.TurnOffset:
			offsets++
		case *protocol.TickMark:
			ticks++
		}
	}

	fmt.Println()
	fmt.Printf("Ticks:     %d", ticks)
	if hdr.TickRate > 0 {
		fmt.Printf(" (%.1fs)", float64(ticks)/float64(hdr.TickRate))
	}
	fmt.Println()
	fmt.Println("Packets by type:")
	fmt.Printf("  %-12s %d\n", "hello", hellos)
	fmt.Printf("  %-12s %d\n", "state", states)
	fmt.Printf("  %-12s %d\n", "offset", offsets)
	fmt.Printf("  %-12s %d\n", "tick", ticks)
}

func cmdDump(args []string) {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	limit := fs.Int("n", 0, "Limit output to N ticks (0 = all)")
	from := fs.Uint("from", 0, "Skip ticks before this tick number")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pivot-rec dump <session.pvj>")
		os.Exit(1)
	}

	r, err := record.OpenReader(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer r.Close()

	count := 0
	for {
		frame, err := r.NextTick()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if frame.Tick < uint32(*from) {
			continue
		}

		fmt.Printf("tick %d\n", frame.Tick)
		for _, p := range frame.Packets {
			fmt.Printf("  %s\n", describePacket(p))
		}
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}

	fmt.Fprintf(os.Stderr, "\n(%d ticks shown)\n", count)
}

func describePacket(p protocol.Packet) string {
	switch v := p.(type) {
	case *protocol.Hello:
		return fmt.Sprintf("hello version=%d tick_rate=%d characters=%d",
			v.Version, v.TickRate, v.Characters)
	case *protocol.CharacterState:
		return fmt.Sprintf("state id=%d pos=(%.1f, %.1f, %.1f) yaw=%.2f flags=%s anim=%d step=%d",
			v.ID, v.X, v.Y, v.Z, gomath.DecompressYaw(v.Yaw), flagString(v.Flags), v.Anim, v.Step)
	case *protocol.TurnOffset:
		return fmt.Sprintf("offset id=%d value=%.2f", v.ID, gomath.DecompressYaw(v.Offset))
	case *protocol.TickMark:
		return fmt.Sprintf("tick mark %d", v.Tick)
	}
	return fmt.Sprintf("%T", p)
}

func flagString(f uint8) string {
	buf := []byte("----")
	if f&protocol.FlagMoving != 0 {
		buf[0] = 'M'
	}
	if f&protocol.FlagTurning != 0 {
		buf[1] = 'T'
	}
	if f&protocol.FlagTurnRight != 0 {
		buf[2] = 'R'
	}
	if f&protocol.FlagStrafe != 0 {
		buf[3] = 'S'
	}
	return string(buf)
}

func cmdExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pivot-rec export <session.pvj> [out.csv]")
		os.Exit(1)
	}

	r, err := record.OpenReader(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer r.Close()

	out := os.Stdout
	if fs.NArg() > 1 {
		f, err := os.Create(fs.Arg(1))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	fmt.Fprintln(out, "tick,id,offset")
	rows := 0
	for {
		frame, err := r.NextTick()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, p := range frame.Packets {
			off, ok := p.(*protocol.TurnOffset)
			if !ok {
				continue
			}
			fmt.Fprintf(out, "%d,%d,%.4f\n", frame.Tick, off.ID, gomath.DecompressYaw(off.Offset))
			rows++
		}
	}

	if fs.NArg() > 1 {
		fmt.Fprintf(os.Stderr, "Exported %d offset rows\n", rows)
	}
}
