package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"crosplan/config"
	"crosplan/history"
	"crosplan/log"
	"crosplan/pkgdb"
	"crosplan/planner"
	"crosplan/ui"
	"crosplan/util"
)

// Free space below this on the binpkg filesystem draws a warning.
const lowDiskBytes = 100 * 1024 * 1024

var (
	flagInstalled string
	flagBinpkgs   string
	flagUpdate    bool
	flagDeep      bool
	flagDeepRev   bool
	flagUnmerge   bool
	flagDryRun    bool
)

var planCmd = &cobra.Command{
	Use:   "plan [flags] PKG...",
	Short: "Compute an ordered package install (or removal) plan",
	Long: `Compute which binary packages must be installed on the target and
in what order. Packages are given as CPV patterns (shell wildcards
allowed), paths to .tbz2 files, or the "@installed" sentinel to update
everything that is already installed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func init() {
	f := planCmd.Flags()
	f.StringVar(&flagInstalled, "installed", "", "JSON dump of the target's installed packages")
	f.StringVar(&flagBinpkgs, "binpkgs", "", "JSON dump of the available binary packages")
	f.BoolVar(&flagUpdate, "update", false, "Diff against the installed database")
	f.BoolVar(&flagDeep, "deep", false, "Follow forward runtime deps (implies --update)")
	f.BoolVar(&flagDeepRev, "deep-rev", false, "Also follow reverse deps (implies --deep)")
	f.BoolVar(&flagUnmerge, "unmerge", false, "Plan a removal instead (reverses install order)")
	f.BoolVar(&flagDryRun, "dry-run", false, "Print the plan only, skip history recording")
	planCmd.MarkFlagRequired("binpkgs")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()

	// --deep-rev needs the forward walk, and any dep walk needs the
	// installed database to diff against.
	if flagDeepRev {
		flagDeep = true
	}
	if flagDeep {
		flagUpdate = true
	}
	if flagUpdate && flagInstalled == "" {
		return fmt.Errorf("--update requires --installed")
	}

	logger, err := log.NewLogger(cfg.LogsPath, cfg.Debug)
	if err != nil {
		return fmt.Errorf("error initializing logger: %w", err)
	}
	defer logger.Close()

	binpkgRecs, err := pkgdb.LoadRecordsFile(flagBinpkgs)
	if err != nil {
		return err
	}
	var installedRecs []pkgdb.Record
	if flagInstalled != "" {
		if installedRecs, err = pkgdb.LoadRecordsFile(flagInstalled); err != nil {
			return err
		}
	}

	if free, err := util.FreeDiskSpace(filepath.Dir(flagBinpkgs)); err == nil && free < lowDiskBytes {
		logger.Warn("Low disk space on binary package filesystem: %s free", util.FormatBytes(free))
	}

	scanner := planner.NewScanner(logger, pickChooser(cfg))
	plan, err := scanner.Run(installedRecs, binpkgRecs, args,
		flagUpdate, flagDeep, flagDeepRev)
	if err != nil {
		return err
	}

	action := "emerge"
	verb := "install"
	order := plan.Sorted
	if flagUnmerge {
		action = "unmerge"
		verb = "remove"
		order = make([]string, len(plan.Sorted))
		for i, cpv := range plan.Sorted {
			order[len(order)-1-i] = cpv
		}
	}

	if len(order) == 0 {
		fmt.Println("No packages to " + verb + ".")
		return nil
	}

	listed := map[string]struct{}{}
	for _, cpv := range plan.Listed {
		listed[cpv] = struct{}{}
	}

	fmt.Printf("Planning to %s %d package(s), %d of them updating existing packages:\n",
		verb, len(order), plan.NumUpdates)
	for _, cpv := range order {
		marker := " "
		if _, ok := listed[cpv]; ok {
			marker = "*"
		}
		fmt.Printf(" %s %s\n", marker, cpv)
	}
	fmt.Println("(* marks explicitly requested packages)")

	if flagDryRun {
		return nil
	}

	rec := &history.PlanRecord{
		Action:     action,
		Requested:  args,
		Installs:   order,
		Listed:     plan.Listed,
		NumUpdates: plan.NumUpdates,
		Status:     history.StatusConfirmed,
		StartTime:  time.Now(),
	}
	if !confirmPlan(cfg, plan) {
		fmt.Println("Plan aborted.")
		rec.Status = history.StatusAborted
	}
	rec.EndTime = time.Now()

	if err := recordPlan(cfg, rec); err != nil {
		logger.Warn("Failed to record plan in history: %v", err)
	}
	return nil
}

// pickChooser selects the disambiguation strategy: first match when
// prompts are suppressed, a plain prompt when the full-screen UI is
// disabled or stdout is not a terminal, otherwise the tview list.
func pickChooser(cfg *config.Config) planner.Chooser {
	if cfg.YesAll || cfg.Force {
		return planner.FirstMatch{}
	}
	if cfg.DisableUI || !isTerminal(os.Stdout) {
		return ui.NewStdioChooser()
	}
	return ui.NewTviewChooser()
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// confirmPlan applies the confirmation gates: a prompt when the plan
// updates more packages than Max_updates allows, and another when the
// scan logged warnings. Force and yes-all skip both.
func confirmPlan(cfg *config.Config, plan *planner.Plan) bool {
	if cfg.Force || cfg.YesAll {
		return true
	}
	if plan.NumUpdates > cfg.MaxUpdates {
		if !util.AskYN(fmt.Sprintf("About to update %d packages, continue?", plan.NumUpdates), false) {
			return false
		}
	}
	if plan.WarningsShown {
		if !util.AskYN("Continue despite prior warnings?", false) {
			return false
		}
	}
	return true
}

func recordPlan(cfg *config.Config, rec *history.PlanRecord) error {
	if err := os.MkdirAll(filepath.Dir(cfg.HistoryDBPath), 0755); err != nil {
		return err
	}
	db, err := history.Open(cfg.HistoryDBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.SavePlan(rec)
}
