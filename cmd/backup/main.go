package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"carenest/internal/config"
	"carenest/internal/database"
	"carenest/internal/logging"
	"carenest/internal/service"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	importInput := importCmd.String("input", "", "Input file path (required)")
	importClear := importCmd.Bool("clear", false, "Clear existing data before import (WARNING: destructive)")
	importYes := importCmd.Bool("yes", false, "Skip the confirmation prompt of -clear")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, "console", "carenest-backup")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if _, err := db.RunMigrations(ctx, cfg.MigrationsPath); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	backupService := service.NewBackupService(db, logger)

	switch os.Args[1] {
	case "export":
		_ = exportCmd.Parse(os.Args[2:])
		err = handleExport(ctx, backupService, *exportOutput, logger)

	case "import":
		_ = importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		err = handleImport(ctx, backupService, *importInput, *importClear, *importYes, logger)

	default:
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Fatal("backup command failed", zap.String("command", os.Args[1]), zap.Error(err))
	}
}

func handleExport(ctx context.Context, backupService *service.BackupService, outputPath string, logger *zap.Logger) error {
	if outputPath == "" {
		outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}

	if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	defer f.Close()

	logger.Info("exporting database", zap.String("output", outputPath))
	w := bufio.NewWriter(f)
	if err := backupService.ExportToWriter(ctx, w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write backup file: %w", err)
	}

	info, err := f.Stat()
	if err == nil {
		logger.Info("export complete", zap.Float64("size_mb", float64(info.Size())/1024/1024))
	}
	return nil
}

func handleImport(ctx context.Context, backupService *service.BackupService, inputPath string, clearData, skipPrompt bool, logger *zap.Logger) error {
	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open backup file: %w", err)
	}
	defer f.Close()

	if clearData {
		if !skipPrompt && !confirm("WARNING: This will delete all existing data. Type 'yes' to confirm: ") {
			logger.Info("import cancelled")
			return nil
		}
		logger.Info("clearing existing data")
		if err := backupService.Clear(ctx); err != nil {
			return err
		}
	}

	logger.Info("importing database", zap.String("input", inputPath))
	if err := backupService.ImportFromReader(ctx, bufio.NewReader(f)); err != nil {
		return err
	}
	logger.Info("import complete")
	return nil
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(answer) == "yes"
}

func printUsage() {
	fmt.Println("CareNest Database Backup Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Export database to JSON file")
	fmt.Println("  backup import [options]    Import database from JSON file")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println("  -clear            Clear existing data before import (WARNING: destructive)")
	fmt.Println("  -yes              Do not ask before clearing")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_TYPE    Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./carenest.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
	fmt.Println("  JWT_SECRET       Required by the shared configuration loader")
}
