package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type PreferenceSettings struct {
	CompletionIncrement float64
	StartIncrement      float64
	ExplicitIncrement   float64
	ExplicitFloor       float64
	DecayFactor         float64
	DecayInterval       time.Duration
	PruneBelow          float64
	DecayWorkers        int
}

type FeedSettings struct {
	HalfLife             time.Duration
	Window               time.Duration
	CandidateLimit       int
	SecondDegreeAffinity float64
	SecondDegreeFanout   int
}

type AuthSettings struct {
	JWTSecret     string
	JWTIssuer     string
	JWTAudience   string
	JWTRoleClaims []string
	JWTLeeway     time.Duration
}

// Settings are the tunables of the service, read once at startup.
type Settings struct {
	Port        string
	StoreDriver string
	NodeID      int64

	StoreTimeout     time.Duration
	CacheTTL         time.Duration
	CacheFallbackTTL time.Duration
	CacheMaxEntries  int
	SeenTTL          time.Duration
	ScoreResolution  time.Duration
	PageSizeDefault  int
	PageSizeMax      int

	PopularityWeight float64
	Preference       PreferenceSettings
	Feed             FeedSettings
	Auth             AuthSettings

	EventsStream string
}

func LoadSettings() Settings {
	s := Settings{
		Port:        getEnv("PORT", "8080"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		NodeID:      int64(getEnvInt("NODE_ID", 1)),

		StoreTimeout:     getEnvDuration("STORE_TIMEOUT", 2*time.Second),
		CacheTTL:         getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheFallbackTTL: getEnvDuration("CACHE_FALLBACK_TTL", time.Hour),
		CacheMaxEntries:  getEnvInt("CACHE_MAX_ENTRIES", 10000),
		SeenTTL:          getEnvDuration("SEEN_TTL", 30*time.Minute),
		ScoreResolution:  getEnvDuration("FEED_SCORE_RESOLUTION", time.Minute),
		PageSizeDefault:  getEnvInt("PAGE_SIZE_DEFAULT", 20),
		PageSizeMax:      getEnvInt("PAGE_SIZE_MAX", 100),

		PopularityWeight: getEnvFloat("REC_POPULARITY_WEIGHT", 0.1),
		Preference: PreferenceSettings{
			CompletionIncrement: getEnvFloat("PREF_COMPLETION_INCREMENT", 1.0),
			StartIncrement:      getEnvFloat("PREF_START_INCREMENT", 0.3),
			ExplicitIncrement:   getEnvFloat("PREF_EXPLICIT_INCREMENT", 1.0),
			ExplicitFloor:       getEnvFloat("PREF_EXPLICIT_FLOOR", 0.5),
			DecayFactor:         getEnvFloat("PREF_DECAY_FACTOR", 0.9),
			DecayInterval:       getEnvDuration("PREF_DECAY_INTERVAL", 24*time.Hour),
			PruneBelow:          getEnvFloat("PREF_PRUNE_BELOW", 0.01),
			DecayWorkers:        getEnvInt("PREF_DECAY_WORKERS", 4),
		},
		Feed: FeedSettings{
			HalfLife:             getEnvDuration("FEED_HALF_LIFE", 24*time.Hour),
			Window:               getEnvDuration("FEED_WINDOW", 7*24*time.Hour),
			CandidateLimit:       getEnvInt("FEED_CANDIDATE_LIMIT", 500),
			SecondDegreeAffinity: getEnvFloat("FEED_SECOND_DEGREE_AFFINITY", 0.25),
			SecondDegreeFanout:   getEnvInt("FEED_SECOND_DEGREE_FANOUT", 50),
		},
		Auth: AuthSettings{
			JWTSecret:   os.Getenv("AUTH_JWT_SECRET"),
			JWTIssuer:   os.Getenv("AUTH_JWT_ISSUER"),
			JWTAudience: os.Getenv("AUTH_JWT_AUDIENCE"),
			JWTLeeway:   getEnvDuration("AUTH_JWT_LEEWAY", 30*time.Second),
		},
		EventsStream: getEnv("EVENTS_STREAM", "social:events"),
	}

	for _, p := range strings.Split(os.Getenv("AUTH_JWT_ROLE_CLAIMS"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			s.Auth.JWTRoleClaims = append(s.Auth.JWTRoleClaims, p)
		}
	}

	// decay must shrink weights
	if s.Preference.DecayFactor <= 0 || s.Preference.DecayFactor >= 1 {
		s.Preference.DecayFactor = 0.9
	}
	if s.PageSizeMax < s.PageSizeDefault {
		s.PageSizeMax = s.PageSizeDefault
	}
	return s
}

func getEnv(key, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return defaultValue
}
