// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docmerge/internal/merge"
	"github.com/pdiddy/docmerge/internal/session"
	"github.com/pdiddy/docmerge/pkg/types"
)

const shellHelp = `commands:
  drop <payload>   add files from a drop payload ({a b.pdf} "c d.png" e.docx)
  add <path>       add one file
  rm <n>...        remove entries by position (1-based)
  clear            remove every entry
  ls               list entries in merge order
  save <file>      write the list to a YAML manifest
  load <file>      append the files of a YAML manifest
  merge <output>   merge the list into output
  status           show the current job
  help             show this text
  quit             leave the shell`

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Edit a file list interactively and merge it",
	Long: `Shell reads commands from standard input, one per line, and keeps an
ordered file list. merge runs in the background; the shell keeps accepting
commands and prints the outcome when the job finishes. A second merge while
one is running is ignored.

` + shellHelp,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appConfig())
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		s := session.New(a.pipeline, session.WithLogger(log))
		go s.Run(ctx)

		return runShell(ctx, s, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

// lockedWriter serializes writes from the command loop and the notification
// printer.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, format, args...)
}

// runShell executes commands from in until quit or end of input. At end of
// input it waits for a running job so its outcome is printed.
func runShell(ctx context.Context, s *session.Session, in io.Reader, out io.Writer) error {
	w := &lockedWriter{w: out}

	stop := make(chan struct{})
	printed := make(chan struct{})
	go printNotifications(s.Notifications(), w, stop, printed)
	defer func() {
		close(stop)
		<-printed
	}()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)
		if name == "quit" || name == "exit" {
			return nil
		}
		if err := shellCommand(s, w, name, rest); err != nil {
			if errors.Is(err, session.ErrClosed) {
				return err
			}
			w.Printf("error: %v\n", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return waitIdle(ctx, s)
}

func shellCommand(s *session.Session, w *lockedWriter, name, arg string) error {
	switch name {
	case "drop":
		added, err := s.Drop(arg)
		if err != nil {
			return err
		}
		w.Printf("added %d file(s)\n", len(added))

	case "add":
		ok, err := s.Add(arg)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s is not a file or is already listed", arg)
		}
		w.Printf("added %s\n", arg)

	case "rm":
		indices, err := parsePositions(arg)
		if err != nil {
			return err
		}
		n, err := s.Remove(indices...)
		if err != nil {
			return err
		}
		w.Printf("removed %d file(s)\n", n)

	case "clear":
		if err := s.Clear(); err != nil {
			return err
		}
		w.Printf("list cleared\n")

	case "ls":
		files, err := s.Files()
		if err != nil {
			return err
		}
		if len(files) == 0 {
			w.Printf("no files\n")
		}
		for i, f := range files {
			w.Printf("%3d. %-40s %s\n", i+1, f.Name(), f.Kind)
		}

	case "save":
		if err := s.SaveManifest(arg); err != nil {
			return err
		}
		w.Printf("saved %s\n", arg)

	case "load":
		added, err := s.LoadManifest(arg)
		if err != nil {
			return err
		}
		w.Printf("added %d file(s)\n", len(added))

	case "merge":
		started, err := s.Merge(arg)
		if err != nil {
			// Input errors are reported by the warning notification.
			if merge.IsInputError(err) {
				return nil
			}
			return err
		}
		if started {
			w.Printf("merging into %s\n", arg)
		}

	case "status":
		st, err := s.Status()
		if err != nil {
			return err
		}
		w.Printf("%s\n", formatStatus(st))

	case "help":
		w.Printf("%s\n", shellHelp)

	default:
		return fmt.Errorf("unknown command %q (try help)", name)
	}
	return nil
}

// parsePositions converts 1-based positions to 0-based indices.
func parsePositions(arg string) ([]int, error) {
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		return nil, fmt.Errorf("rm needs at least one position")
	}
	indices := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid position %q", f)
		}
		indices = append(indices, n-1)
	}
	return indices, nil
}

func formatStatus(st session.Status) string {
	switch {
	case st.State == types.JobRunning && st.Finalizing:
		return fmt.Sprintf("running: writing output (%d files listed)", st.Files)
	case st.State == types.JobRunning && st.Index > 0:
		return fmt.Sprintf("running: %d/%d %s", st.Index, st.Total, st.Name)
	case st.State == types.JobRunning:
		return "running: starting"
	case st.State == types.JobAborted:
		return fmt.Sprintf("%s: %s (%d files listed)", st.State, st.LastError, st.Files)
	case st.State == types.JobCompleted && st.Last != nil:
		return fmt.Sprintf("%s: %s, %d pages (%d files listed)", st.State, st.Last.Output, st.Last.Pages, st.Files)
	}
	return fmt.Sprintf("%s (%d files listed)", st.State, st.Files)
}

func printNotifications(notes <-chan session.Notification, w *lockedWriter, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case n := <-notes:
			w.Printf("%s\n", formatNotification(n))
		case <-stop:
			for {
				select {
				case n := <-notes:
					w.Printf("%s\n", formatNotification(n))
				default:
					return
				}
			}
		}
	}
}

func formatNotification(n session.Notification) string {
	switch n.Level {
	case session.LevelSuccess:
		if n.Result != nil {
			return fmt.Sprintf("[success] %s (%d pages)", n.Message, n.Result.Pages)
		}
	case session.LevelFatal:
		return fmt.Sprintf("[fatal] %s", n.Message)
	}
	return fmt.Sprintf("[%s] %s", n.Level, n.Message)
}

// waitIdle blocks until no job is running.
func waitIdle(ctx context.Context, s *session.Session) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		st, err := s.Status()
		if err != nil {
			return err
		}
		if st.State != types.JobRunning {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
