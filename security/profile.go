package security

import (
	"strings"
	"time"

	"github.com/trinitylabs/authcore/internal/ledger"
)

// maxAnomalyLog bounds the per-profile anomaly history.
const maxAnomalyLog = 50

// Profile is the rolling behavioral baseline for one user. Created lazily on
// first observed login; owned exclusively by the monitor.
type Profile struct {
	UserID    string
	FirstSeen time.Time
	LastSeen  time.Time

	LoginHours map[int]int
	Countries  map[string]int
	Devices    map[string]int

	TotalSessions     int
	AvgSessionMinutes float64
	AvgActivityScore  float64

	// RiskScore is 0–100 and only moves up with event severity; it resets
	// solely on explicit session renewal.
	RiskScore int
	Anomalies []string
}

func newProfile(userID string, now time.Time) *Profile {
	return &Profile{
		UserID:     userID,
		FirstSeen:  now,
		LastSeen:   now,
		LoginHours: make(map[int]int),
		Countries:  make(map[string]int),
		Devices:    make(map[string]int),
	}
}

// observe folds one login into the baseline. Called after factor evaluation
// so the current login never vouches for itself.
func (p *Profile) observe(now time.Time, c Context) {
	p.LastSeen = now
	p.LoginHours[now.Hour()]++
	if c.Location != "" {
		p.Countries[strings.ToUpper(c.Location)]++
	}
	if c.DeviceFingerprint != "" {
		p.Devices[c.DeviceFingerprint]++
	}
}

// noteSession folds a finished session into the duration/activity averages.
func (p *Profile) noteSession(duration time.Duration, activityScore int) {
	p.TotalSessions++
	n := float64(p.TotalSessions)
	p.AvgSessionMinutes += (duration.Minutes() - p.AvgSessionMinutes) / n
	p.AvgActivityScore += (float64(activityScore) - p.AvgActivityScore) / n
}

// raiseRisk bumps the risk score by severity weight, capped at 100.
func (p *Profile) raiseRisk(sev Severity) {
	switch sev {
	case SeverityLow:
		p.RiskScore += 2
	case SeverityMedium:
		p.RiskScore += 5
	case SeverityHigh:
		p.RiskScore += 10
	case SeverityCritical:
		p.RiskScore += 20
	}
	if p.RiskScore > 100 {
		p.RiskScore = 100
	}
}

// snapshot deep-copies the profile for safe hand-off to callers.
func (p *Profile) snapshot() Profile {
	cp := *p
	cp.LoginHours = make(map[int]int, len(p.LoginHours))
	for k, v := range p.LoginHours {
		cp.LoginHours[k] = v
	}
	cp.Countries = make(map[string]int, len(p.Countries))
	for k, v := range p.Countries {
		cp.Countries[k] = v
	}
	cp.Devices = make(map[string]int, len(p.Devices))
	for k, v := range p.Devices {
		cp.Devices[k] = v
	}
	cp.Anomalies = append([]string(nil), p.Anomalies...)
	return cp
}

func (p *Profile) logAnomaly(entry string) {
	p.Anomalies = append(p.Anomalies, entry)
	if len(p.Anomalies) > maxAnomalyLog {
		p.Anomalies = p.Anomalies[len(p.Anomalies)-maxAnomalyLog:]
	}
}

// suspiciousFactors evaluates the current login against the baseline and
// returns the names of every factor that fired.
func (p *Profile) suspiciousFactors(c Context, now time.Time, threats *ledger.Ledger, botPatterns []string) []string {
	var factors []string

	if c.Location != "" {
		if _, ok := p.Countries[strings.ToUpper(c.Location)]; !ok {
			factors = append(factors, "unfamiliar_location")
		}
	}
	if c.DeviceFingerprint != "" {
		if _, ok := p.Devices[c.DeviceFingerprint]; !ok {
			factors = append(factors, "unfamiliar_device")
		}
	}
	if len(p.LoginHours) > 0 && hourDistance(p.LoginHours, now.Hour()) > 2 {
		factors = append(factors, "unusual_hour")
	}
	if threats.IsThreat(c.IPAddress) {
		factors = append(factors, "threat_ip")
	}
	if matchesBotPattern(c.UserAgent, botPatterns) {
		factors = append(factors, "bot_user_agent")
	}
	return factors
}

// hourDistance returns the minimal circular distance (hours) from h to any
// historically observed login hour.
func hourDistance(hours map[int]int, h int) int {
	best := 24
	for seen := range hours {
		d := h - seen
		if d < 0 {
			d = -d
		}
		if 24-d < d {
			d = 24 - d
		}
		if d < best {
			best = d
		}
	}
	return best
}

func matchesBotPattern(userAgent string, patterns []string) bool {
	if userAgent == "" {
		return false
	}
	ua := strings.ToLower(userAgent)
	for _, p := range patterns {
		if p != "" && strings.Contains(ua, p) {
			return true
		}
	}
	return false
}
