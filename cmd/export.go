package cmd

import (
	"context"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"droscher.com/SipGargoyle/configs"
	"droscher.com/SipGargoyle/pkg/model"
	"droscher.com/SipGargoyle/pkg/repository"
	"droscher.com/SipGargoyle/pkg/stats"
)

type ExportCmd struct {
	ConfigFile string `default:".SipGargoyle.toml" help:"Path to config file"   short:"c"`
	Output     string `default:"sipgargoyle.xlsx"  help:"Path to output file"   short:"o"`
	Period     string `default:"year"              help:"Period to export (today, week, month, year)"`
}

func (e *ExportCmd) Run(_ *Context) error {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.DisableStacktrace = true

	logger, _ := logConfig.Build()
	defer logger.Sync() //nolint:errcheck // we don't care about logger sync errors

	conf, err := configs.GetConfig(e.ConfigFile, logger)
	if err != nil {
		logger.Error("error loading config", zap.Error(err))

		return err
	}

	repo, err := repository.Open(conf, logger)
	if err != nil {
		logger.Error("error connecting to database", zap.Error(err))

		return err
	}
	defer repo.Close()

	window := stats.RangeFor(stats.Period(e.Period), time.Now())

	entries, err := repo.GetDrinksInRange(context.Background(), window.Start, window.End)
	if err != nil {
		return err
	}

	gap := time.Duration(conf.Stats.SessionGapHours) * time.Hour
	general := stats.Aggregate(entries, window, gap)
	sessions := stats.Sessions(entries, gap)
	locations := stats.AnalyzeLocations(entries, conf.Stats.ClusterPrecision)

	file := excelize.NewFile()

	err = multierr.Combine(
		writeGeneralSheet(file, general),
		writeSessionsSheet(file, sessions),
		writeLocationsSheet(file, locations),
		file.DeleteSheet("Sheet1"),
	)
	if err != nil {
		return err
	}

	if err = file.SaveAs(e.Output); err != nil {
		return err
	}

	logger.Info("exported statistics",
		zap.String("file", e.Output),
		zap.String("start", window.Start.Format(model.DateLayout)),
		zap.String("end", window.End.Format(model.DateLayout)),
		zap.Int("drinks", general.TotalDrinks))

	return nil
}

func writeGeneralSheet(file *excelize.File, general stats.GeneralStats) error {
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Start", general.Range.Start.Format(model.DateLayout)},
		{"End", general.Range.End.Format(model.DateLayout)},
		{"Total drinks", general.TotalDrinks},
		{"Total volume (cl)", general.TotalVolumeCl},
		{"Total alcohol (g)", general.TotalAlcoholGrams},
		{"Sessions", general.TotalSessions},
		{"Unique drinks", general.UniqueDrinks},
		{"Average per day", general.AveragePerDay},
		{"Average per week", general.AveragePerWeek},
		{"Sober days", general.SoberDays},
		{"Median session (min)", general.MedianSessionMinutes},
		{"Longest session (min)", general.LongestSessionMinutes},
	}

	for name, count := range general.CategoryCounts {
		rows = append(rows, []interface{}{"Category: " + name, count})
	}

	return writeSheet(file, "General", rows)
}

func writeSessionsSheet(file *excelize.File, sessions []stats.Session) error {
	rows := [][]interface{}{{"Start", "End", "Duration (min)", "Drinks"}}

	for _, session := range sessions {
		rows = append(rows, []interface{}{
			session.Start.Format(time.RFC3339),
			session.End.Format(time.RFC3339),
			session.Duration().Minutes(),
			len(session.Drinks),
		})
	}

	return writeSheet(file, "Sessions", rows)
}

func writeLocationsSheet(file *excelize.File, locations stats.LocationInsights) error {
	rows := [][]interface{}{{"Latitude", "Longitude", "Address", "Drinks", "Total volume (cl)", "Total alcohol (g)"}}

	for _, cluster := range locations.Clusters {
		rows = append(rows, []interface{}{
			cluster.Latitude,
			cluster.Longitude,
			cluster.Address,
			cluster.Count,
			cluster.TotalVolumeCl,
			cluster.TotalAlcoholGrams,
		})
	}

	return writeSheet(file, "Locations", rows)
}

func writeSheet(file *excelize.File, name string, rows [][]interface{}) error {
	index, err := file.NewSheet(name)
	if err != nil {
		return err
	}

	file.SetActiveSheet(index)

	for rowNumber, row := range rows {
		for columnNumber, value := range row {
			cell, err := excelize.CoordinatesToCellName(columnNumber+1, rowNumber+1)
			if err != nil {
				return err
			}

			if err = file.SetCellValue(name, cell, value); err != nil {
				return err
			}
		}
	}

	return nil
}
