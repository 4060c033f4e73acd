package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"typeracer/internal/config"
	"typeracer/internal/database"
	"typeracer/internal/logging"
	"typeracer/internal/repository"
	"typeracer/internal/service"
	"typeracer/internal/textimport"
)

func main() {
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)

	importFile := importCmd.String("file", "", "Spreadsheet to import, .xlsx or .csv (required)")
	importSheet := importCmd.String("sheet", "", "Sheet name (default: first sheet)")

	exportFile := exportCmd.String("file", "", "Output file path (default: texts_YYYYMMDD_HHMMSS.xlsx)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()
	logger := logging.New(logging.Options{Level: cfg.LogLevel})
	defer logger.Sync()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.RunMigrations(ctx); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	texts := service.NewTextService(db, repository.NewTextRepository(db), logger)

	switch os.Args[1] {
	case "import":
		importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			fmt.Println("Error: -file flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		if err := handleImport(ctx, texts, *importFile, *importSheet, logger); err != nil {
			logger.Fatal("import failed", zap.Error(err))
		}

	case "export":
		exportCmd.Parse(os.Args[2:])
		if err := handleExport(ctx, texts, *exportFile, logger); err != nil {
			logger.Fatal("export failed", zap.Error(err))
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleImport(ctx context.Context, texts *service.TextService, path, sheet string, logger *zap.Logger) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", path)
	}

	rows, err := textimport.ReadFile(path, sheet)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		logger.Warn("no texts found", zap.String("file", path))
		return nil
	}

	count, err := texts.ImportTexts(ctx, rows)
	if err != nil {
		return err
	}
	logger.Info("import complete", zap.String("file", path), zap.Int("texts", count))
	return nil
}

func handleExport(ctx context.Context, texts *service.TextService, path string, logger *zap.Logger) error {
	if path == "" {
		path = fmt.Sprintf("texts_%s.xlsx", time.Now().Format("20060102_150405"))
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	active, err := texts.ListActiveTexts(ctx)
	if err != nil {
		return err
	}
	if err := textimport.WriteWorkbook(path, active); err != nil {
		return err
	}
	logger.Info("export complete", zap.String("file", path), zap.Int("texts", len(active)))
	return nil
}

func printUsage() {
	fmt.Println("Typing test text tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  texts import [options]    Import texts from a spreadsheet")
	fmt.Println("  texts export [options]    Export active texts to a workbook")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -file <file>     .xlsx or .csv with columns content, language, difficulty[, word_count]")
	fmt.Println("  -sheet <name>    Sheet name (default: first sheet)")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -file <file>     Output file path (default: texts_YYYYMMDD_HHMMSS.xlsx)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  texts import -file texts.xlsx")
	fmt.Println("  texts import -file texts.xlsx -sheet English")
	fmt.Println("  texts export -file out/texts.xlsx")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DB_TYPE, DB_PATH, DATABASE_URL select the database as for the server")
}
