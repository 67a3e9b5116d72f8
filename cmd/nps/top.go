package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ja7ad/nps/internal/rc"
	"github.com/ja7ad/nps/internal/render"
	"github.com/ja7ad/nps/pkg/format"
	"github.com/ja7ad/nps/pkg/kernel"
	"github.com/ja7ad/nps/pkg/sysinfo"
	"github.com/ja7ad/nps/pkg/system/util"
	"github.com/ja7ad/nps/pkg/task"
)

const defaultTopFormat = "pid,user,pcpu,mem,time,cmd"

func newTopCommand() *cobra.Command {
	var (
		delay       int
		formatStr   string
		orderStr    string
		batch       bool
		helpFormat  bool
		showVersion bool
	)

	cmd := &cobra.Command{
		Use:   "top",
		Short: "sample and display tasks on a fixed interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), version)
				return nil
			}
			if helpFormat {
				printHelpFormat(cmd.OutOrStdout())
				return nil
			}

			path, _ := rc.Path()
			saved, _ := rc.Read(path)

			showSysinfo := true
			if v, ok := saved["top_sysinfo"]; ok {
				showSysinfo = v != "0" && v != "false"
			}

			if formatStr == "" {
				formatStr = saved["top_format"]
			}
			if formatStr == "" {
				formatStr = defaultTopFormat
			}
			if orderStr == "" {
				orderStr = saved["top_order"]
			}
			if delay == 0 {
				fmt.Sscanf(saved["top_delay"], "%d", &delay)
			}
			if delay <= 0 {
				delay = 3
			}

			cols, err := format.ParseFormat(formatStr, format.Argument)
			if err != nil {
				return fmt.Errorf("format: %w", err)
			}
			var keys []format.SortKey
			if orderStr != "" {
				keys, err = format.ParseOrder(orderStr, format.Argument)
				if err != nil {
					return fmt.Errorf("order: %w", err)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var restore func()
			if !batch {
				restore, err = render.RawMode()
				if err != nil {
					return fmt.Errorf("raw mode: %w", err)
				}
				defer restore()
			}

			ticker := time.NewTicker(time.Duration(delay) * time.Second)
			defer ticker.Stop()

			var prevTask *task.Snapshot
			var prevCPU kernel.CPUTimes
			cpuSmoother := util.NewEMA(0.5)

			refresh := func() error {
				snap, err := task.Build(rootDir, false, gate)
				if err != nil {
					return err
				}
				if prevTask != nil {
					snap.WithPrevious(prevTask)
				}
				prevTask = snap

				var rows []format.Fields
				for _, t := range snap.Tasks {
					row := snap.Fields(t)
					if !row.Vanished {
						rows = append(rows, row)
					}
				}
				if keys != nil {
					format.Sort(rows, keys)
				}

				if showSysinfo {
					sys, total, err := sysinfo.Build(rootDir, prevCPU)
					if err == nil {
						prevCPU = total
						sys.CPU = cpuSmoother.Next(sys.CPU)
						fmt.Fprint(cmd.OutOrStdout(), "\x1b[H\x1b[2J")
						fmt.Fprint(cmd.OutOrStdout(), sysinfo.Render(sys, time.Now()))
						fmt.Fprintln(cmd.OutOrStdout())
					}
				}

				if h := format.RenderHeading(cols); h != "" {
					fmt.Fprintln(cmd.OutOrStdout(), h)
				}
				rows = capRows(rows, cols)
				for _, row := range rows {
					fmt.Fprintln(cmd.OutOrStdout(), format.RenderRow(cols, 0, row))
				}
				return nil
			}

			if err := refresh(); err != nil {
				return err
			}
			if batch {
				return runBatchLoop(ctx, ticker, refresh)
			}
			return runInteractiveLoop(ctx, ticker, refresh)
		},
	}

	cmd.Flags().IntVarP(&delay, "delay", "d", 0, "refresh interval in seconds (default from ~/.npsrc or 3)")
	cmd.Flags().StringVarP(&formatStr, "format", "o", "", "comma-separated column list")
	cmd.Flags().StringVar(&orderStr, "sort", "", "sort key list, same grammar as --format")
	cmd.Flags().BoolVarP(&batch, "batch", "b", false, "non-interactive: print each refresh and never read stdin")
	cmd.Flags().BoolVar(&helpFormat, "help-format", false, "list every valid -o/--format column name and exit")
	cmd.Flags().BoolVar(&showVersion, "version", false, "print the version and exit")

	return cmd
}

func runBatchLoop(ctx context.Context, ticker *time.Ticker, refresh func() error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := refresh(); err != nil {
				return err
			}
		}
	}
}

func runInteractiveLoop(ctx context.Context, ticker *time.Ticker, refresh func() error) error {
	keys := make(chan byte, 1)
	go func() {
		for {
			b, err := render.ReadKey(os.Stdin)
			if err != nil {
				close(keys)
				return
			}
			keys <- b
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := refresh(); err != nil {
				return err
			}
		case k, ok := <-keys:
			if !ok {
				return nil
			}
			switch k {
			case 'q', 'Q':
				return nil
			case ' ':
				if err := refresh(); err != nil {
					return err
				}
			}
		}
	}
}

// capRows keeps the display to the terminal's available rows, since an
// uncapped task table would scroll the summary block off the top of a
// real terminal every refresh.
func capRows(rows []format.Fields, cols []*format.Column) []format.Fields {
	termRows, _ := render.Size()
	avail := termRows - 7 // summary block + heading + a blank separator
	if avail < 1 {
		avail = 1
	}
	if len(rows) > avail {
		return rows[:avail]
	}
	return rows
}
