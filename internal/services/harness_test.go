package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoosocial/internal/cache"
	"github.com/yoockh/yoosocial/internal/events"
	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/ranking"
	"github.com/yoockh/yoosocial/internal/repositories/memory"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

func (r *recorder) count(kind events.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind() == kind {
			n++
		}
	}
	return n
}

func (r *recorder) last() events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

// world wires every service over the in-memory stores the same way the
// server does.
type world struct {
	users    *memory.Users
	convos   *memory.Conversations
	messages *memory.Messages
	progress *memory.Progress
	modules  *memory.Modules
	prefs    *memory.Preferences
	posts    *memory.Posts
	graph    *memory.Graph
	versions *cache.MemoryVersions
	rec      *recorder

	Conversations   ConversationService
	Progress        ProgressService
	Preferences     PreferenceService
	Recommendations RecommendationService
	Feed            FeedService
	Posts           PostService
	Graph           GraphService
	Modules         ModuleService
}

var testPrefConfig = PreferenceConfig{
	CompletionIncrement: 1.0,
	StartIncrement:      0.3,
	ExplicitIncrement:   1.0,
	ExplicitFloor:       0.5,
	DecayFactor:         0.9,
	PruneBelow:          0.01,
	Timeout:             time.Second,
}

func newWorld(modules ...models.LearningModule) *world {
	l := quietLogger()
	w := &world{
		users:    memory.NewOpenUsers(),
		convos:   memory.NewConversations(),
		messages: memory.NewMessages(),
		progress: memory.NewProgress(),
		modules:  memory.NewModules(modules...),
		prefs:    memory.NewPreferences(),
		posts:    memory.NewPosts(),
		graph:    memory.NewGraph(),
		versions: cache.NewMemoryVersions(),
		rec:      &recorder{},
	}
	bus := events.NewBus(l)
	users := NewUserService(w.users, time.Second)
	agg := cache.NewAggregator(cache.NewMemoryCache(1000, time.Hour), w.versions, cache.AggregatorConfig{
		TTL:         time.Hour,
		FallbackTTL: time.Hour,
		Timeout:     time.Second,
	}, l)
	seen := cache.NewMemorySeen(1000, time.Hour)
	rank := ranking.Config{DefaultLimit: 20, MaxLimit: 50, Timeout: time.Second}

	w.Preferences = NewPreferenceService(w.prefs, w.progress, w.modules, bus, testPrefConfig)
	w.Conversations = NewConversationService(w.convos, w.messages, users, bus, time.Second)
	w.Progress = NewProgressService(w.progress, w.modules, users, bus, time.Second)
	w.Modules = NewModuleService(w.modules, time.Second)
	w.Posts = NewPostService(w.posts, w.graph, users, bus, time.Second, l)
	w.Graph = NewGraphService(w.graph, users, bus, time.Second)
	w.Recommendations = NewRecommendationService(w.modules, w.progress, w.Preferences, agg, seen, RecommendationConfig{
		PopularityWeight: 0.1,
		Timeout:          time.Second,
		Ranking:          rank,
	}, l)
	w.Feed = NewFeedService(w.graph, w.posts, agg, seen, FeedConfig{
		HalfLife:             24 * time.Hour,
		Window:               7 * 24 * time.Hour,
		CandidateLimit:       500,
		SecondDegreeAffinity: 0.25,
		SecondDegreeFanout:   50,
		Timeout:              time.Second,
		Ranking:              rank,
	}, l)

	bus.Subscribe("preferences", w.Preferences.HandleEvent, events.KindProgressChanged)
	bus.Subscribe("aggregates", agg.HandleEvent, events.Invalidating...)
	bus.Subscribe("recorder", w.rec.handle)
	return w
}

func module(id string, topics ...string) models.LearningModule {
	return models.LearningModule{ID: id, Title: id, ContentType: "article", Topics: topics}
}

func itemIDs(res *models.RankedResult) []string {
	out := make([]string, len(res.Items))
	for i, it := range res.Items {
		out[i] = it.ItemID
	}
	return out
}
