package processing

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"tripledger/internal/models"
)

// System-wide integrity states reported by IntegrityEvents
const (
	SystemSecure      = "SECURE"
	SystemCompromised = "COMPROMISED"
)

// IntegrityReport is the regulator's read-only view of the violation log
type IntegrityReport struct {
	IntegrityStatus string                   `json:"integrity_status"`
	EventCount      int                      `json:"event_count"`
	Events          []models.ViolationRecord `json:"events"`
}

// IntegrityEvents reports COMPROMISED as soon as the log holds any entry
func (b *Builder) IntegrityEvents() IntegrityReport {
	events := b.store.Violations()
	status := SystemSecure
	if len(events) > 0 {
		status = SystemCompromised
	}
	return IntegrityReport{IntegrityStatus: status, EventCount: len(events), Events: events}
}

// LeaderboardEntry is one supplier row, totals rounded to 2 decimals
type LeaderboardEntry struct {
	SupplierID           string  `json:"supplier_id"`
	Name                 string  `json:"name"`
	TotalEmissionsKgCO2e float64 `json:"total_emissions_kg_co2e"`
	TotalDistanceKm      float64 `json:"total_distance_km"`
}

// Leaderboard ranks suppliers from lowest to highest emissions
type Leaderboard struct {
	Recommendation string             `json:"recommendation"`
	Leaderboard    []LeaderboardEntry `json:"leaderboard"`
}

// SupplierLeaderboard returns ErrNotFound until a run has completed
func (b *Builder) SupplierLeaderboard() (*Leaderboard, error) {
	b.mu.RLock()
	summary := b.summary
	b.mu.RUnlock()
	if summary == nil || len(summary.supplierTotals) == 0 {
		return nil, fmt.Errorf("%w: no processed data, run POST /automation/process-all-data first", ErrNotFound)
	}

	entries := make([]LeaderboardEntry, 0, len(summary.supplierTotals))
	for _, st := range summary.supplierTotals {
		entries = append(entries, LeaderboardEntry{
			SupplierID:           st.SupplierID,
			Name:                 st.Name,
			TotalEmissionsKgCO2e: round(st.TotalEmissionsKgCO2e, 2),
			TotalDistanceKm:      round(st.TotalDistanceKm, 2),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalEmissionsKgCO2e != entries[j].TotalEmissionsKgCO2e {
			return entries[i].TotalEmissionsKgCO2e < entries[j].TotalEmissionsKgCO2e
		}
		return entries[i].SupplierID < entries[j].SupplierID
	})

	return &Leaderboard{
		Recommendation: fmt.Sprintf("Based on our analysis, '%s' is the most carbon-efficient supplier.", entries[0].Name),
		Leaderboard:    entries,
	}, nil
}

// DashboardStats are the headline figures of the current record set
type DashboardStats struct {
	TotalCO2Kg         float64    `json:"total_co2_kg"`
	TotalDistanceKm    float64    `json:"total_distance_km"`
	AvgConfidenceScore float64    `json:"avg_confidence_score"`
	TotalTrips         int        `json:"total_trips"`
	TopOffender        string     `json:"top_offender"`
	LastUpdated        *time.Time `json:"last_updated"`
}

// Dashboard returns zeroed stats with TopOffender "N/A" before the first run
func (b *Builder) Dashboard() DashboardStats {
	// Hold mu so the records read below belong to the same run as summary
	b.mu.RLock()
	defer b.mu.RUnlock()
	summary := b.summary

	stats := DashboardStats{TopOffender: "N/A"}
	if summary == nil || len(summary.supplierTotals) == 0 {
		return stats
	}

	var top *SupplierTotal
	for _, st := range summary.supplierTotals {
		st := st
		stats.TotalCO2Kg += st.TotalEmissionsKgCO2e
		stats.TotalDistanceKm += st.TotalDistanceKm
		if top == nil || st.TotalEmissionsKgCO2e > top.TotalEmissionsKgCO2e ||
			(st.TotalEmissionsKgCO2e == top.TotalEmissionsKgCO2e && st.SupplierID < top.SupplierID) {
			top = &st
		}
	}
	stats.TopOffender = top.Name

	records := b.store.Records()
	stats.TotalTrips = len(records)
	if len(records) > 0 {
		sum := 0.0
		for _, r := range records {
			sum += r.ConfidenceScore
		}
		stats.AvgConfidenceScore = round(sum/float64(len(records)), 2)
	}
	stats.TotalCO2Kg = round(stats.TotalCO2Kg, 2)
	stats.TotalDistanceKm = round(stats.TotalDistanceKm, 2)
	updated := summary.completedAt
	stats.LastUpdated = &updated
	return stats
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
