package main

import (
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/xid"
	log "github.com/sirupsen/logrus"

	C "ridefunnel/config"
	"ridefunnel/model"
	"ridefunnel/report"
	"ridefunnel/store"
	"ridefunnel/util"
)

// go run run_funnel_report.go --env=development --db_host=localhost --db_port=5432 --db_user=metrocar --db_name=metrocar --db_pass=metrocar --report_dir=/tmp/funnel-reports --from=2021-01-01 --to=2021-12-31 --excel=true
func main() {
	env := flag.String("env", "development", "")

	dbHost := flag.String("db_host", "localhost", "")
	dbPort := flag.Int("db_port", 5432, "")
	dbUser := flag.String("db_user", "metrocar", "")
	dbName := flag.String("db_name", "metrocar", "")
	dbPass := flag.String("db_pass", "", "")

	reportDir := flag.String("report_dir", "/tmp/funnel-reports", "")
	fromDate := flag.String("from", "", "Start date (YYYY-MM-DD), inclusive.")
	toDate := flag.String("to", "", "End date (YYYY-MM-DD), inclusive.")
	writeExcel := flag.Bool("excel", false, "Also write a single XLSX workbook.")
	cacheSize := flag.Int("cache_size", 32, "")

	flag.Parse()

	if *env != C.DEVELOPMENT && *env != C.STAGING && *env != C.PRODUCTION {
		err := fmt.Errorf("env [ %s ] not recognised", *env)
		panic(err)
	}

	config := &C.Configuration{
		Env: *env,
		DBInfo: C.DBConf{
			Host:     *dbHost,
			Port:     *dbPort,
			User:     *dbUser,
			Name:     *dbName,
			Password: *dbPass,
		},
		ReportDir: *reportDir,
		CacheSize: *cacheSize,
	}

	C.InitConf(config)
	if err := C.OverlayEnv(config); err != nil {
		log.WithError(err).Fatal("Failed to read environment overrides.")
	}

	from, to, err := parseRange(*fromDate, *toDate)
	if err != nil {
		log.WithError(err).Fatal("Invalid date range.")
	}

	if err := C.InitDB(config.DBInfo); err != nil {
		log.Fatal("Failed to build funnel report. Init failed.")
	}

	db := C.GetServices().Db
	defer db.Close()

	runID := xid.New().String()
	startTime := time.Now()
	logCtx := log.WithFields(log.Fields{"run_id": runID, "from": *fromDate, "to": *toDate})
	logCtx.Info("Funnel report run started.")

	snapshot, err := store.New(db).PullSnapshot()
	if err != nil {
		logCtx.WithError(err).Fatal("Failed to pull snapshot.")
	}

	cache, err := report.NewResultCache(config.CacheSize)
	if err != nil {
		logCtx.WithError(err).Fatal("Failed to init result cache.")
	}

	builder := report.NewBuilder(snapshot, from, to, cache)

	views, err := buildAllViews(builder)
	if err != nil {
		logCtx.WithError(err).Fatal("Failed to build report views.")
	}

	paths, err := report.SaveCSVFiles(config.ReportDir, views)
	if err != nil {
		logCtx.WithError(err).Fatal("Failed to export CSV views.")
	}

	if *writeExcel {
		workbookPath := filepath.Join(config.ReportDir,
			fmt.Sprintf("funnel_report_%s.xlsx", runID))
		if err := report.SaveExcel(workbookPath, views); err != nil {
			logCtx.WithError(err).Fatal("Failed to export XLSX workbook.")
		}
		paths = append(paths, workbookPath)
	}

	logCtx.WithFields(log.Fields{
		"snapshot_id":      snapshot.ID,
		"exports":          paths,
		"approved_revenue": builder.ApprovedRevenue(),
		"took":             time.Since(startTime),
	}).Info("Funnel report run finished.")
}

func buildAllViews(builder *report.Builder) ([]report.NamedResult, error) {
	type viewBuild struct {
		name  string
		build func() (*model.QueryResult, error)
	}

	builds := []viewBuild{
		{report.ViewGlobalUserFunnel, builder.GlobalUserFunnel},
		{report.ViewSegmentedUserFunnel, builder.SegmentedUserFunnel},
		{report.ViewSegmentedRideFunnel, builder.SegmentedRideFunnel},
		{report.ViewHourlyDistribution, builder.HourlyDistribution},
		{report.ViewRidePayments, builder.RidePayments},
	}

	views := make([]report.NamedResult, 0, len(builds))
	for _, b := range builds {
		result, err := b.build()
		if err != nil {
			return nil, err
		}
		views = append(views, report.NamedResult{Name: b.name, Result: result})
	}
	return views, nil
}

func parseRange(fromStr, toStr string) (from, to time.Time, err error) {
	if fromStr != "" {
		parsed, parseErr := util.ParseDate(fromStr)
		if parseErr != nil {
			return from, to, parseErr
		}
		from = util.BeginningOfDay(parsed)
	}
	if toStr != "" {
		parsed, parseErr := util.ParseDate(toStr)
		if parseErr != nil {
			return from, to, parseErr
		}
		to = util.EndOfDay(parsed)
	}
	return from, to, nil
}
