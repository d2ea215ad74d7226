package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"droscher.com/SipGargoyle/configs"
	"droscher.com/SipGargoyle/pkg/model"
	"droscher.com/SipGargoyle/pkg/repository"
	"droscher.com/SipGargoyle/pkg/stats"
)

// StatsServer exposes the pure statistics core over JSON. It owns no
// computation itself: it resolves ranges, fetches the entry snapshot,
// and hands plain data structures back.
type StatsServer struct {
	drinks     repository.DrinkRepository
	settings   repository.SettingsRepository
	cache      *stats.Cache
	comparator *stats.Comparator
	estimator  *stats.Estimator
	gap        time.Duration
	precision  int
	logger     *zap.Logger
}

func NewStatsServer(drinks repository.DrinkRepository, settings repository.SettingsRepository, cache *stats.Cache, config *configs.Config, logger *zap.Logger) *StatsServer {
	return &StatsServer{
		drinks:     drinks,
		settings:   settings,
		cache:      cache,
		comparator: stats.NewComparator(logger),
		estimator:  stats.NewEstimator(time.Duration(config.Stats.LookbackHours)*time.Hour, config.Stats.LegalLimitMgL),
		gap:        time.Duration(config.Stats.SessionGapHours) * time.Hour,
		precision:  config.Stats.ClusterPrecision,
		logger:     logger,
	}
}

func (s *StatsServer) parseRange(r *http.Request) (stats.Period, stats.Range, error) {
	query := r.URL.Query()

	period := stats.Period(query.Get("period"))
	if period == "" {
		period = stats.PeriodToday
	}

	switch period {
	case stats.PeriodToday, stats.PeriodWeek, stats.PeriodMonth, stats.PeriodYear:
		return period, stats.RangeFor(period, time.Now()), nil
	case stats.PeriodCustom:
	default:
		return period, stats.Range{}, fmt.Errorf("%w: unknown period %q", ErrInvalidInput, period)
	}

	start, err := time.ParseInLocation(model.DateLayout, query.Get("start"), time.Local)
	if err != nil {
		return period, stats.Range{}, fmt.Errorf("%w: custom range needs start=2006-01-02", ErrInvalidInput)
	}

	end, err := time.ParseInLocation(model.DateLayout, query.Get("end"), time.Local)
	if err != nil {
		return period, stats.Range{}, fmt.Errorf("%w: custom range needs end=2006-01-02", ErrInvalidInput)
	}

	return period, stats.NewRange(start, end), nil
}

// fetch loads the entries of a range and reports malformed timestamps
// once, so the skip in the time-sensitive aggregates is visible.
func (s *StatsServer) fetch(r *http.Request, window stats.Range) ([]model.DrinkEntry, error) {
	entries, err := s.drinks.GetDrinksInRange(r.Context(), window.Start, window.End)
	if err != nil {
		return nil, err
	}

	if _, skipped := stats.Chronological(entries); skipped > 0 {
		s.logger.Warn("drinks with malformed timestamps excluded from time-sensitive statistics", zap.Int("skipped", skipped))
	}

	return entries, nil
}

func (s *StatsServer) aggregate(r *http.Request, period stats.Period, window stats.Range) (stats.GeneralStats, error) {
	entries, err := s.fetch(r, window)
	if err != nil {
		return stats.GeneralStats{}, err
	}

	key := stats.KeyFor(period, window, len(entries))
	if cached, found := s.cache.Get(key); found {
		return cached, nil
	}

	result := stats.Aggregate(entries, window, s.gap)
	s.cache.Put(key, result)

	return result, nil
}

func (s *StatsServer) GeneralStats(w http.ResponseWriter, r *http.Request) {
	period, window, err := s.parseRange(r)
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, err.Error())

		return
	}

	result, err := s.aggregate(r, period, window)
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, "error computing statistics")

		return
	}

	writeJSON(w, s.logger, http.StatusOK, generalStatsResponse(result))
}

type statsResponse struct {
	Start                 string         `json:"start"`
	End                   string         `json:"end"`
	Days                  int            `json:"days"`
	TotalDrinks           int            `json:"totalDrinks"`
	TotalVolumeCl         float64        `json:"totalVolumeCl"`
	TotalAlcoholGrams     float64        `json:"totalAlcoholGrams"`
	TotalSessions         int            `json:"totalSessions"`
	UniqueDrinks          int            `json:"uniqueDrinks"`
	AveragePerDay         float64        `json:"averagePerDay"`
	AveragePerWeek        float64        `json:"averagePerWeek"`
	CategoryCounts        map[string]int `json:"categoryCounts"`
	SoberDays             int            `json:"soberDays"`
	MedianSessionMinutes  float64        `json:"medianSessionMinutes"`
	LongestSessionMinutes float64        `json:"longestSessionMinutes"`
}

func generalStatsResponse(result stats.GeneralStats) statsResponse {
	return statsResponse{
		Start:                 result.Range.Start.Format(model.DateLayout),
		End:                   result.Range.End.Format(model.DateLayout),
		Days:                  result.Range.Days(),
		TotalDrinks:           result.TotalDrinks,
		TotalVolumeCl:         result.TotalVolumeCl,
		TotalAlcoholGrams:     result.TotalAlcoholGrams,
		TotalSessions:         result.TotalSessions,
		UniqueDrinks:          result.UniqueDrinks,
		AveragePerDay:         result.AveragePerDay,
		AveragePerWeek:        result.AveragePerWeek,
		CategoryCounts:        result.CategoryCounts,
		SoberDays:             result.SoberDays,
		MedianSessionMinutes:  result.MedianSessionMinutes,
		LongestSessionMinutes: result.LongestSessionMinutes,
	}
}

func (s *StatsServer) Comparison(w http.ResponseWriter, r *http.Request) {
	period, window, err := s.parseRange(r)
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, err.Error())

		return
	}

	current, err := s.aggregate(r, period, window)
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, "error computing statistics")

		return
	}

	previousWindow := stats.PreviousRange(window, period)

	previous, err := s.aggregate(r, period, previousWindow)
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, "error computing statistics")

		return
	}

	response := struct {
		Current  statsResponse         `json:"current"`
		Previous statsResponse         `json:"previous"`
		Changes  stats.StatsComparison `json:"changes"`
	}{
		Current:  generalStatsResponse(current),
		Previous: generalStatsResponse(previous),
		Changes:  s.comparator.Compare(current, previous),
	}

	writeJSON(w, s.logger, http.StatusOK, response)
}

type sessionResponse struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes float64   `json:"durationMinutes"`
	DrinkCount      int       `json:"drinkCount"`
}

func (s *StatsServer) Sessions(w http.ResponseWriter, r *http.Request) {
	_, window, err := s.parseRange(r)
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, err.Error())

		return
	}

	entries, err := s.fetch(r, window)
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, "error computing sessions")

		return
	}

	sessions := stats.Sessions(entries, s.gap)

	responses := make([]sessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, sessionResponse{
			Start:           session.Start,
			End:             session.End,
			DurationMinutes: session.Duration().Minutes(),
			DrinkCount:      len(session.Drinks),
		})
	}

	writeJSON(w, s.logger, http.StatusOK, responses)
}

type bacResponse struct {
	Available        bool    `json:"available"`
	CurrentMgL       float64 `json:"currentMgL,omitempty"`
	TimeToSoberHours float64 `json:"timeToSoberHours,omitempty"`
	TimeToLegalHours float64 `json:"timeToLegalHours,omitempty"`
	RelevantDrinks   int     `json:"relevantDrinks,omitempty"`
}

func (s *StatsServer) BAC(w http.ResponseWriter, r *http.Request) {
	profile, err := s.loadProfile(r)
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, "error loading settings")

		return
	}

	now := time.Now()

	entries, err := s.drinks.GetDrinksInRange(r.Context(), now.Add(-s.estimator.Lookback()), now)
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, "error computing BAC")

		return
	}

	snapshot := s.estimator.Snapshot(entries, profile, now)

	writeJSON(w, s.logger, http.StatusOK, bacResponse{
		Available:        snapshot.Available,
		CurrentMgL:       snapshot.CurrentMgL,
		TimeToSoberHours: snapshot.TimeToSoberHours,
		TimeToLegalHours: snapshot.TimeToLegalHours,
		RelevantDrinks:   len(snapshot.RelevantDrinks),
	})
}

const (
	defaultTrajectoryHours = 24
	defaultTrajectoryStep  = 30 * time.Minute
)

func (s *StatsServer) BACTrajectory(w http.ResponseWriter, r *http.Request) {
	profile, err := s.loadProfile(r)
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, "error loading settings")

		return
	}

	hours := defaultTrajectoryHours
	if param := r.URL.Query().Get("hours"); param != "" {
		if parsed, err := strconv.Atoi(param); err == nil && parsed > 0 {
			hours = parsed
		}
	}

	now := time.Now()
	from := now.Add(-time.Duration(hours) * time.Hour)

	entries, err := s.drinks.GetDrinksInRange(r.Context(), from.Add(-s.estimator.Lookback()), now)
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, "error computing BAC trajectory")

		return
	}

	writeJSON(w, s.logger, http.StatusOK, s.estimator.Trajectory(entries, profile, from, now, defaultTrajectoryStep))
}

// loadProfile assembles the estimator inputs from the settings store. A
// missing or malformed weight or sex yields a nil profile, which the
// estimator answers with an unavailable snapshot rather than a guess.
func (s *StatsServer) loadProfile(r *http.Request) (*stats.Profile, error) {
	weight, err := s.settings.GetSetting(r.Context(), model.SettingUserWeight)
	if err != nil {
		return nil, err
	}

	sex, err := s.settings.GetSetting(r.Context(), model.SettingUserGender)
	if err != nil {
		return nil, err
	}

	if weight == nil || sex == nil {
		return nil, nil
	}

	weightKg, err := strconv.ParseFloat(*weight, 64)
	if err != nil || weightKg <= 0 {
		s.logger.Warn("ignoring malformed user weight setting", zap.String("value", *weight))

		return nil, nil
	}

	return &stats.Profile{WeightKg: weightKg, Sex: stats.Sex(*sex)}, nil
}

func (s *StatsServer) Locations(w http.ResponseWriter, r *http.Request) {
	entries, err := s.drinks.GetAllDrinks(r.Context())
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, "error computing location statistics")

		return
	}

	writeJSON(w, s.logger, http.StatusOK, locationResponse(stats.AnalyzeLocations(entries, s.precision)))
}

type clusterPayload struct {
	Latitude            float64        `json:"latitude"`
	Longitude           float64        `json:"longitude"`
	Address             string         `json:"address,omitempty"`
	Count               int            `json:"count"`
	CategoryCounts      map[string]int `json:"categoryCounts"`
	PreferredHour       int            `json:"preferredHour"`
	PreferredDay        string         `json:"preferredDay,omitempty"`
	TotalVolumeCl       float64        `json:"totalVolumeCl"`
	TotalAlcoholGrams   float64        `json:"totalAlcoholGrams"`
	AverageVolumeCl     float64        `json:"averageVolumeCl"`
	AverageAlcoholGrams float64        `json:"averageAlcoholGrams"`
}

type locationsPayload struct {
	Clusters          []clusterPayload `json:"clusters"`
	AverageDistanceKm float64          `json:"averageDistanceKm"`
	MinDistanceKm     float64          `json:"minDistanceKm"`
	MaxDistanceKm     float64          `json:"maxDistanceKm"`
	CentroidLatitude  float64          `json:"centroidLatitude"`
	CentroidLongitude float64          `json:"centroidLongitude"`
	Mobility          stats.Mobility   `json:"mobility,omitempty"`
}

func locationResponse(insights stats.LocationInsights) locationsPayload {
	payload := locationsPayload{
		Clusters:          make([]clusterPayload, 0, len(insights.Clusters)),
		AverageDistanceKm: insights.AverageDistanceKm,
		MinDistanceKm:     insights.MinDistanceKm,
		MaxDistanceKm:     insights.MaxDistanceKm,
		CentroidLatitude:  insights.CentroidLatitude,
		CentroidLongitude: insights.CentroidLongitude,
		Mobility:          insights.Mobility,
	}

	for _, cluster := range insights.Clusters {
		payload.Clusters = append(payload.Clusters, clusterPayload{
			Latitude:            cluster.Latitude,
			Longitude:           cluster.Longitude,
			Address:             cluster.Address,
			Count:               cluster.Count,
			CategoryCounts:      cluster.CategoryCounts,
			PreferredHour:       cluster.PreferredHour,
			PreferredDay:        cluster.PreferredDay,
			TotalVolumeCl:       cluster.TotalVolumeCl,
			TotalAlcoholGrams:   cluster.TotalAlcoholGrams,
			AverageVolumeCl:     cluster.AverageVolumeCl,
			AverageAlcoholGrams: cluster.AverageAlcoholGrams,
		})
	}

	return payload
}
