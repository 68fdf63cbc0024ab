package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"study-planner/cmd/studyplanner/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "studyplanner",
		Short: "Course, task and habit planner",
		Long:  "studyplanner keeps courses, tasks, exams and habits locally and talks to you through a Telegram bot.",
	}

	rootCmd.AddCommand(commands.NewBotCommand())
	rootCmd.AddCommand(commands.NewExportCommand())
	rootCmd.AddCommand(commands.NewImportCommand())
	rootCmd.AddCommand(commands.NewTodayCommand())
	rootCmd.AddCommand(commands.NewProgressCommand())
	rootCmd.AddCommand(commands.NewResetCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("command failed: %v", err)
		os.Exit(1)
	}
}
