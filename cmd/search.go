package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/teacherlink-search/internal/browse"
	"github.com/spigell/teacherlink-search/internal/candidate"
	"github.com/spigell/teacherlink-search/internal/export"
	"github.com/spigell/teacherlink-search/internal/logger"
	"github.com/spigell/teacherlink-search/internal/paging"
	"github.com/spigell/teacherlink-search/internal/store"
	"github.com/spigell/teacherlink-search/internal/teacherlink"
)

const (
	PromptNext        = "Next page"
	PromptPrev        = "Previous page"
	PromptJump        = "Go to page"
	PromptSearch      = "Search"
	PromptExport      = "Export to Excel"
	PromptDump        = "Dump candidates to file"
	PromptSaveFilters = "Save current filters"
	PromptRefresh     = "Reload candidate pool"
	PromptExit        = "Exit"

	defaultExportFile = "teacherlink-candidates.xlsx"
)

var errExit = errors.New("exit requested")

var actionPrompt = promptui.Select{
	Label: "Next action?",
	Items: []string{
		PromptNext, PromptPrev, PromptJump, PromptSearch, PromptExport, PromptDump,
		PromptSaveFilters, PromptRefresh, PromptExit,
	},
	Size: 9,
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Filter, rank and browse the candidate pool",
	Run: func(cmd *cobra.Command, _ []string) {
		runSearch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringP("query", "q", "", "free text search over candidate fields")
	searchCmd.Flags().IntP("page", "p", 1, "page to show first")
	searchCmd.Flags().Int("per-page", 0, "candidates per page (default from config or 10)")
	searchCmd.Flags().StringArrayP("filter", "f", nil, "filter as key=value, repeatable (e.g. city=Pune, languages=English)")
	searchCmd.Flags().Bool("use-saved", true, "use saved filters when no --filter is given")
	searchCmd.Flags().Bool("save-filters", false, "save the resolved filters to the filter store")
	searchCmd.Flags().StringP("export", "o", "", "export the ranked candidates to this xlsx file")
	searchCmd.Flags().BoolP("auto", "y", false, "print the requested page and exit without prompting")
}

type searchRun struct {
	ctx     context.Context
	logger  *zap.Logger
	client  *teacherlink.Client
	store   store.FilterStore
	session *browse.Session
	view    *browse.View
}

func runSearch(cmd *cobra.Command) {
	ctx := context.Background()
	flags := cmd.Flags()

	logger := newLogger()
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Debug("starting the teacherlink-search", zap.String("version", buildVersion()))

	client, err := newClient(config, logger)
	if err != nil {
		logger.Fatal("creating teacherlink client", zap.Error(err),
			zap.String("hint", "set teacherlink.base-url in the config or TEACHERLINK_TEACHERLINK_BASE_URL"),
		)
	}

	filterStore, err := newStore(config, logger)
	if err != nil {
		logger.Fatal("creating filter store", zap.Error(err))
	}
	defer store.Close(filterStore)

	filterFlags, _ := flags.GetStringArray("filter")
	useSaved, _ := flags.GetBool("use-saved")

	criteria, err := resolveCriteria(ctx, filterFlags, useSaved, filterStore, config, logger)
	if err != nil {
		logger.Fatal("resolving filters", zap.Error(err))
	}

	if save, _ := flags.GetBool("save-filters"); save {
		if err := filterStore.Save(ctx, criteria); err != nil {
			logger.Fatal("saving filters", zap.Error(err))
		}
		logger.Info("filters saved", zap.Strings("filters", criteria.ActiveKeys()))
	}

	engine, err := newEngine(config, logger)
	if err != nil {
		logger.Fatal("creating filter engine", zap.Error(err))
	}

	perPage, _ := flags.GetInt("per-page")
	if perPage == 0 {
		perPage = config.PerPage
	}

	pool := loadPool(ctx, client, logger)

	query, _ := flags.GetString("query")
	page, _ := flags.GetInt("page")

	session := browse.New(engine, pool, perPage)
	session.SetQuery(query)
	session.SetCriteria(criteria)
	session.SetPage(page)

	run := &searchRun{
		ctx:     ctx,
		logger:  logger,
		client:  client,
		store:   filterStore,
		session: session,
	}
	run.show()

	if output, _ := flags.GetString("export"); output != "" {
		if err := run.export(output); err != nil {
			logger.Fatal("exporting candidates", zap.Error(err))
		}
	}

	if auto, _ := flags.GetBool("auto"); auto {
		return
	}

	for {
		_, action, err := actionPrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := run.handleAction(action); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func (r *searchRun) handleAction(action string) error {
	switch action {
	case PromptNext:
		if !r.session.Next() {
			r.logger.Info("already on the last page")
			return nil
		}
		r.show()
	case PromptPrev:
		if !r.session.Prev() {
			r.logger.Info("already on the first page")
			return nil
		}
		r.show()
	case PromptJump:
		page, err := promptPage(r.view.Page.TotalPages)
		if err != nil {
			return err
		}
		r.session.SetPage(page)
		r.show()
	case PromptSearch:
		query, err := (&promptui.Prompt{Label: "Search", Default: r.session.Query(), AllowEdit: true}).Run()
		if err != nil {
			return err
		}
		r.session.SetQuery(query)
		r.show()
	case PromptExport:
		output, err := (&promptui.Prompt{Label: "Excel file", Default: defaultExportFile, AllowEdit: true}).Run()
		if err != nil {
			return err
		}
		return r.export(output)
	case PromptDump:
		all := &candidate.Candidates{Items: r.view.Result.Candidates()}
		filename, err := all.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		r.logger.Info("dumping result to file", zap.String("filename", filename), zap.Int("count", all.Len()))
	case PromptSaveFilters:
		criteria := r.session.Criteria()
		if err := r.store.Save(r.ctx, criteria); err != nil {
			return fmt.Errorf("saving filters: %w", err)
		}
		r.logger.Info("filters saved", zap.Strings("filters", criteria.ActiveKeys()))
	case PromptRefresh:
		r.session.SetBase(loadPool(r.ctx, r.client, r.logger))
		r.show()
	case PromptExit:
		r.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
	return nil
}

// show renders the current page of the session.
func (r *searchRun) show() {
	r.view = r.session.View()
	printView(r.logger, r.view)
}

func (r *searchRun) export(output string) error {
	path, err := export.ExportToExcel(r.view.Result, r.session.Criteria(), output)
	if err != nil {
		return err
	}
	r.logger.Info("candidates exported", zap.String("file", path), zap.Int("count", len(r.view.Result.Matches)))
	return nil
}

func printView(l *zap.Logger, view *browse.View) {
	if view.Page.Total == 0 {
		l.Info("no candidates found",
			logger.SessionFields("", view.Query, view.ActiveFilters)...,
		)
		return
	}

	for i, m := range view.Matches {
		c := m.Candidate
		l.Info(fmt.Sprintf("%d. %s", view.Page.Start+i+1, c.Name()),
			zap.String(logger.FieldCandidate, c.UID),
			zap.String("location", c.Location()),
			zap.String("designation", c.Designation),
			zap.Int("score", m.RelevanceScore),
			zap.Strings("matched", m.MatchedFilters),
		)
	}

	fields := logger.SessionFields("", view.Query, view.ActiveFilters)
	fields = append(fields,
		zap.Int("page", view.Page.Number),
		zap.Int("total pages", view.Page.TotalPages),
		zap.Int("total", view.Page.Total),
		zap.String("pages", formatLinks(view.Links)),
	)
	l.Info("current page of candidates", fields...)
}

// formatLinks renders a page selector like "1 ... 4 [5] 6 ... 10".
func formatLinks(links []paging.Link) string {
	parts := make([]string, 0, len(links))
	for _, l := range links {
		if l.Current {
			parts = append(parts, "["+l.String()+"]")
			continue
		}
		parts = append(parts, l.String())
	}
	return strings.Join(parts, " ")
}

func promptPage(totalPages int) (int, error) {
	p := promptui.Prompt{
		Label: fmt.Sprintf("Page (1-%d)", max(totalPages, 1)),
		Validate: func(input string) error {
			n, err := strconv.Atoi(strings.TrimSpace(input))
			if err != nil {
				return errors.New("not a number")
			}
			if n < 1 || (totalPages > 0 && n > totalPages) {
				return errors.New("no such page")
			}
			return nil
		},
	}

	input, err := p.Run()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(input))
}
