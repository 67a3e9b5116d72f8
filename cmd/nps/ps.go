package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ja7ad/nps/internal/rc"
	"github.com/ja7ad/nps/pkg/format"
	"github.com/ja7ad/nps/pkg/selector"
	"github.com/ja7ad/nps/pkg/task"
)

const defaultPsFormat = "pid,tty,time,cmd"

// defaultPsFullFormat and defaultPsLongFormat back -f/-l when the rc
// file carries no ps_f_format/ps_l_format override, approximating the
// traditional "-f" and "-l" presets with the properties this table
// actually has.
const (
	defaultPsFullFormat = "uid,pid,ppid,pcpu,stime,tty,time,args"
	defaultPsLongFormat = "flags,state,uid,pid,ppid,pri,nice,addr,rss,wchan,tty,time,cmd"
)

func newPsCommand() *cobra.Command {
	var (
		formatStr   string
		orderStr    string
		pidList     string
		euidList    string
		ruidList    string
		sidList     string
		gidList     string
		ttyList     string
		withTTY     bool
		allA        bool
		allE        bool
		nonLeader   bool
		fullFormat  bool
		longFormat  bool
		ignoredN    bool
		noHeader    bool
		raw         bool
		hierarchy   bool
		helpFormat  bool
		showVersion bool
	)

	cmd := &cobra.Command{
		Use:   "ps",
		Short: "list tasks currently visible under the kernel-exported root",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), version)
				return nil
			}
			if helpFormat {
				printHelpFormat(cmd.OutOrStdout())
				return nil
			}
			_ = ignoredN // "-n": accepted and ignored, per spec.md §6

			path, _ := rc.Path()
			saved, _ := rc.Read(path)

			switch {
			case fullFormat && formatStr == "":
				formatStr = saved["ps_f_format"]
				if formatStr == "" {
					formatStr = defaultPsFullFormat
				}
			case longFormat && formatStr == "":
				formatStr = saved["ps_l_format"]
				if formatStr == "" {
					formatStr = defaultPsLongFormat
				}
			}
			if formatStr == "" {
				formatStr = saved["ps_format"]
			}
			if formatStr == "" {
				formatStr = defaultPsFormat
			}
			sel := selector.New()
			explicit := false
			if pidList != "" {
				explicit = true
				if err := sel.ByPID(pidList); err != nil {
					return err
				}
			}
			if euidList != "" {
				explicit = true
				if err := sel.ByUID(euidList); err != nil {
					return err
				}
			}
			if ruidList != "" {
				explicit = true
				if err := sel.ByRUID(ruidList); err != nil {
					return err
				}
			}
			if sidList != "" {
				explicit = true
				if err := sel.BySession(sidList); err != nil {
					return err
				}
			}
			if gidList != "" {
				explicit = true
				if err := sel.ByRGID(gidList); err != nil {
					return err
				}
			}
			if ttyList != "" {
				explicit = true
				if err := sel.ByTTYName(ttyList); err != nil {
					return err
				}
			}
			if withTTY {
				explicit = true
				sel.HasControllingTerminal()
			}
			if nonLeader {
				explicit = true
				sel.NotSessionLeader()
			}
			if allA || allE {
				explicit = true
				sel.All()
			}
			if !explicit {
				euid, ttyNr, err := invokerIdentity(rootDir)
				if err != nil {
					return fmt.Errorf("determining invoker identity: %w", err)
				}
				sel.DefaultInvoker(euid, ttyNr)
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

			format.SetHierarchyMode(hierarchy)

			snap, err := task.Build(rootDir, false, gate)
			if err != nil {
				return fmt.Errorf("enumerating tasks: %w", err)
			}

			var rows []format.Fields
			for _, t := range snap.Tasks {
				row := snap.Fields(t)
				if row.Vanished {
					continue
				}
				if sel.Match(row) {
					rows = append(rows, row)
				}
			}
			if keys != nil {
				format.Sort(rows, keys)
			}

			var flags format.Flags
			if raw {
				flags |= format.FormatRaw
			}

			w := cmd.OutOrStdout()
			if !noHeader {
				if h := format.RenderHeading(cols); h != "" {
					fmt.Fprintln(w, h)
				}
			}
			for _, row := range rows {
				fmt.Fprintln(w, format.RenderRow(cols, flags, row))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatStr, "format", "o", "", "comma-separated column list (default from ~/.npsrc or "+defaultPsFormat+")")
	cmd.Flags().StringVar(&orderStr, "sort", "", "sort key list, same grammar as --format")
	cmd.Flags().StringVarP(&pidList, "pid", "p", "", "select only these comma-separated pids")
	cmd.Flags().StringVarP(&euidList, "user", "u", "", "select only these comma-separated effective uids")
	cmd.Flags().StringVarP(&ruidList, "ruser", "U", "", "select only these comma-separated real uids")
	cmd.Flags().StringVarP(&sidList, "sid", "g", "", "select only these comma-separated session ids")
	cmd.Flags().StringVarP(&gidList, "group", "G", "", "select only these comma-separated real gids")
	cmd.Flags().StringVarP(&ttyList, "tty", "t", "", "select only these comma-separated terminals")
	cmd.Flags().BoolVarP(&withTTY, "with-terminal", "a", false, "select only tasks with a controlling terminal")
	cmd.Flags().BoolVarP(&allA, "all-a", "A", false, "select every task")
	cmd.Flags().BoolVarP(&allE, "all-e", "e", false, "select every task (same as -A)")
	cmd.Flags().BoolVarP(&nonLeader, "non-leader", "d", false, "select only tasks that are not their session's leader")
	cmd.Flags().BoolVarP(&fullFormat, "full", "f", false, "use the full format preset (ps_f_format)")
	cmd.Flags().BoolVarP(&longFormat, "long", "l", false, "use the long format preset (ps_l_format)")
	cmd.Flags().BoolVarP(&ignoredN, "numeric", "n", false, "accepted and ignored, for command-line compatibility")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "omit the column heading row")
	cmd.Flags().BoolVar(&raw, "raw", false, "render every value in its unscaled, machine-readable form")
	cmd.Flags().BoolVarP(&hierarchy, "hierarchy", "H", false, "indent commands by ancestry depth")
	cmd.Flags().BoolVar(&helpFormat, "help-format", false, "list every valid -o/--format column name and exit")
	cmd.Flags().BoolVar(&showVersion, "version", false, "print the version and exit")

	return cmd
}
