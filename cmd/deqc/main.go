package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"deqc/adapters/excel"
	"deqc/adapters/model"
	"deqc/adapters/postgres"
	"deqc/adapters/stats/engine"
	"deqc/app"
	"deqc/domain/de"
	"deqc/internal/api"
	"deqc/internal/config"
	"deqc/internal/report"
	"deqc/ports"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// Optional PostgreSQL ledger; runs stay in memory without it.
	var ledger ports.LedgerPort
	if appConfig.Database.URL != "" {
		db, err := initDatabase(ctx, appConfig)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()

		repo := postgres.NewLedgerRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to ensure ledger schema: %v", err)
		}
		ledger = repo
	}

	contrast := de.Contrast{
		Factor:    appConfig.Data.Factor,
		Level:     appConfig.Data.Level,
		Reference: appConfig.Data.Reference,
	}

	models, err := loadModels(appConfig, contrast)
	if err != nil {
		log.Fatalf("Failed to load result tables: %v", err)
	}

	classifier, err := de.NewClassifier(appConfig.Compare.Alpha)
	if err != nil {
		log.Fatalf("Invalid significance threshold: %v", err)
	}
	shrinkage := app.NewShrinkageService(classifier)
	compare := app.NewCompareService(shrinkage, engine.NewCompareEngine(), ledger)

	result, err := compare.Run(ctx, app.CompareRequest{
		Models:           models,
		Contrast:         contrast,
		Alpha:            appConfig.Compare.Alpha,
		NaNWarnThreshold: appConfig.Compare.NaNWarnThreshold,
	})
	if err != nil {
		log.Fatalf("Comparison run failed: %v", err)
	}

	if appConfig.Report.XLSXPath != "" {
		writer := excel.NewReportWriter(nil)
		if err := writer.WriteWorkbook(ctx, appConfig.Report.XLSXPath, result.Manifest, result.Long, result.Partition); err != nil {
			log.Fatalf("Failed to write report workbook: %v", err)
		}
		log.Printf("[Main] Report workbook written to %s", appConfig.Report.XLSXPath)
	}

	// Markdown summary to stdout for pipeline composition.
	fmt.Print(report.BuildMarkdown(result.Manifest, result.Long, result.Partition))

	if appConfig.Server.Enabled {
		if ledger == nil {
			log.Fatal("DEQC_SERVE requires DATABASE_URL for the run ledger")
		}
		server := api.NewServer(ledger, appConfig.Server.Port)
		if err := server.Start(); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}
}

// initDatabase connects to the PostgreSQL ledger database
func initDatabase(ctx context.Context, appConfig *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", appConfig.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// loadModels reads the per-method result tables for both quantification
// inputs. Each input directory holds none/normal/apeglm/ashr tables as .csv
// or .xlsx; a missing method file fails its branches later, not the load.
func loadModels(appConfig *config.Config, contrast de.Contrast) (map[de.InputType]ports.FittedModel, error) {
	dirs := map[de.InputType]string{
		de.InputTPM:    appConfig.Data.TPMDir,
		de.InputCounts: appConfig.Data.CountsDir,
	}

	models := make(map[de.InputType]ports.FittedModel, len(dirs))
	for input, dir := range dirs {
		m := model.NewMemoryModel(input, contrast, []string{"intercept", model.CoefficientName(contrast)})
		loaded := 0
		for _, method := range de.ShrinkageMethods() {
			path, ok := findTableFile(dir, method)
			if !ok {
				log.Printf("[Main] %s: no %s table in %s, branch will fail", input, method, dir)
				continue
			}
			rows, err := excel.NewResultReader(path).ReadRows()
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", input, method, err)
			}
			m.SetRows(method, rows)
			loaded++
		}
		if loaded == 0 {
			return nil, fmt.Errorf("no result tables found for %s in %s", input, dir)
		}
		models[input] = m
	}
	return models, nil
}

// findTableFile locates the table file for one shrinkage method, trying
// csv then xlsx.
func findTableFile(dir string, method de.ShrinkageMethod) (string, bool) {
	base := strings.ToLower(string(method))
	for _, ext := range []string{".csv", ".xlsx"} {
		path := filepath.Join(dir, base+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}
