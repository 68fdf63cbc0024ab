package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"study-planner/internal/bot"
	"study-planner/internal/metrics"
	"study-planner/internal/repository"
	"study-planner/internal/service"
	"study-planner/internal/stats"
)

// NewBotCommand runs the Telegram bot with scheduled reports.
func NewBotCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBot(ctx)
		},
	}
}

const dailyReminderJob = "daily-reminder"

func runBot(ctx context.Context) error {
	botSink := &bot.Sink{}
	a, err := newApp(ctx, botSink)
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.Telegram.Token == "" {
		return errors.New("telegram token is not configured (STUDYPLANNER_TELEGRAM_TOKEN)")
	}
	scheduler := service.NewSchedulerService(time.Local, a.log)
	var telegramBot *bot.Bot
	sendReports := func(ctx context.Context) error {
		jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		return telegramBot.SendDailyReports(jobCtx)
	}
	scheduleReminder := func(timeStr string) error {
		if timeStr == "" {
			scheduler.Remove(dailyReminderJob)
			return nil
		}
		_, err := scheduler.ScheduleDaily(dailyReminderJob, timeStr, sendReports)
		return err
	}

	telegramBot, err = bot.New(a.cfg.Telegram.Token, a.cfg.Telegram.ChatID, bot.Deps{
		Planner:             a.planner,
		Habits:              a.habits,
		Reminders:           a.reminders,
		Notes:               a.notes,
		Settings:            a.settings,
		ReminderTimeChanged: scheduleReminder,
	}, a.log)
	if err != nil {
		return err
	}
	botSink.Attach(telegramBot)

	if a.cfg.Reports.Interval > 0 {
		if _, err := scheduler.ScheduleInterval("reports", a.cfg.Reports.Interval, sendReports); err != nil {
			return err
		}
	}
	if err := scheduleReminder(a.settings.Get().DailyReminderTime); err != nil {
		return fmt.Errorf("schedule daily reminder: %w", err)
	}
	if a.cfg.Autosave.FlushInterval > 0 {
		if _, err := scheduler.ScheduleInterval("autosave", a.cfg.Autosave.FlushInterval, a.flush); err != nil {
			return err
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	if addr := a.cfg.Metrics.Addr; addr != "" {
		srv := &http.Server{Addr: addr, Handler: metricsMux(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Errorw("metrics server stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		a.log.Infow("metrics listening", "addr", addr)
	}

	a.log.Info("study planner bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot stopped: %w", err)
	}
	a.log.Info("shutdown complete")
	return nil
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

// NewExportCommand writes a backup document.
func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export courses, tasks, habits and settings to a JSON backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if output == "" || output == "-" {
				return a.backup.Export(ctx, cmd.OutOrStdout())
			}
			if err := a.backup.ExportFile(ctx, output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "backup written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	return cmd
}

// NewImportCommand restores a backup document.
func NewImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace current data with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.backup.Import(ctx, f); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "backup imported; habit logs are not part of backups and were cleared")
			return nil
		},
	}
}

// NewTodayCommand prints the daily summary.
func NewTodayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Print today's habits, due tasks and upcoming exams",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			fmt.Fprintln(cmd.OutOrStdout(), a.reminders.DailySummary(time.Now()))
			return nil
		},
	}
}

// NewProgressCommand prints per-course progress.
func NewProgressCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Print course progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			st := a.planner.State()
			out := cmd.OutOrStdout()
			completed := st.CompletionState.CompletedTaskIDs
			for _, c := range st.Courses {
				p := stats.CalculateCourseProgress(c, completed)
				fmt.Fprintf(out, "%-30s %3d%%  %d/%d\n", c.Title, p.Percentage, p.Completed, p.Total)
			}
			overall := stats.CalculateOverallProgress(st.Courses, completed)
			fmt.Fprintf(out, "%-30s %3d%%  %d/%d\n", "overall", overall.Percentage, overall.Completed, overall.Total)
			return nil
		},
	}
}

// NewResetCommand wipes every stored aggregate, log and note.
func NewResetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all stored data",
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				return errors.New("refusing to delete data without --yes")
			}
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.closeConnections()
			if err := repository.ClearAllData(ctx, a.db, a.kv); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "all data deleted")
			return nil
		},
	}
	cmd.Flags().Bool("yes", false, "Confirm deletion")
	return cmd
}
