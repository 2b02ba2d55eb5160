// Package orchestrator implements C12 Pipeline Orchestrator: threads a
// request through the Gate, Intent, shared filters, route mapping,
// provider, grouping, and result-state stages, coordinating parallel
// fan-out, idempotency, heartbeats, and cancellation.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-search-core/internal/pkg/config"
	"github.com/FACorreiaa/loci-search-core/internal/pkg/logger"
	"github.com/FACorreiaa/loci-search-core/internal/search/cacheguard"
	"github.com/FACorreiaa/loci-search-core/internal/search/chatback"
	"github.com/FACorreiaa/loci-search-core/internal/search/filters"
	"github.com/FACorreiaa/loci-search-core/internal/search/gate"
	"github.com/FACorreiaa/loci-search-core/internal/search/geo"
	"github.com/FACorreiaa/loci-search-core/internal/search/grouping"
	"github.com/FACorreiaa/loci-search-core/internal/search/intent"
	"github.com/FACorreiaa/loci-search-core/internal/search/jobstore"
	"github.com/FACorreiaa/loci-search-core/internal/search/llmclient"
	"github.com/FACorreiaa/loci-search-core/internal/search/metrics"
	"github.com/FACorreiaa/loci-search-core/internal/search/models"
	"github.com/FACorreiaa/loci-search-core/internal/search/provider"
	"github.com/FACorreiaa/loci-search-core/internal/search/registry"
	"github.com/FACorreiaa/loci-search-core/internal/search/resolvers"
	"github.com/FACorreiaa/loci-search-core/internal/search/routeplan"
	"github.com/FACorreiaa/loci-search-core/internal/search/rse"
	"github.com/FACorreiaa/loci-search-core/internal/search/session"
)

// submissionMode is the only submission mode POST /search currently
// supports, folded into the idempotency fingerprint so a future synchronous
// mode does not collide with an async one sharing the same text/location.
const submissionMode = "async"

// nearbyCityHubs are the handful of major cities probed as candidate
// "different known city" matches when a TEXTSEARCH query anchored on one
// city comes back empty. Kept small and hand-picked rather than sweeping
// every city in the alias table: each candidate costs a geocode call plus a
// text-search call, only worth paying on an already-empty result set.
var nearbyCityHubs = []string{"tel-aviv", "jerusalem", "haifa", "beer-sheva"}

// nearbyCityProbeRadiusMeters bounds the bias radius used to probe a
// candidate hub city for results.
const nearbyCityProbeRadiusMeters = 5000

// Deps is everything the Orchestrator wires into its stage instances.
type Deps struct {
	Config    *config.SearchConfig
	Jobs      jobstore.Store
	Sessions  *session.Store
	LLM       llmclient.Client
	Places    provider.Places
	Landmarks *registry.LandmarkRegistry
	Cities    *registry.CityAliasTable
}

// Orchestrator runs the twelve-component pipeline end to end for every
// submitted request and tracks in-flight jobs for cancellation/shutdown.
type Orchestrator struct {
	deps Deps

	intentStage *intent.Stage
	deepGate    *gate.DeepGate
	mapper      *routeplan.Mapper
	executor    *provider.Executor
	cache       *cacheguard.Guard
	chatGen     *chatback.Generator

	mu         sync.Mutex
	activeJobs map[string]context.CancelFunc
	wg         sync.WaitGroup
	stopOnce   sync.Once
	stopCh     chan struct{}
}

// New constructs an Orchestrator, failing fast if any LLM-backed stage's
// schema self-check fails.
func New(deps Deps) (*Orchestrator, error) {
	intentStage, err := intent.New(deps.LLM)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	deepGate, err := gate.NewDeepGate(deps.LLM)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	chatGen, err := chatback.New(deps.LLM)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	cacheTTL := cacheguard.DefaultTTL
	cacheTimeout := cacheguard.DefaultLookupTimeout
	if deps.Config != nil {
		cacheTimeout = deps.Config.CacheGuardTimeout
	}

	return &Orchestrator{
		deps:        deps,
		intentStage: intentStage,
		deepGate:    deepGate,
		mapper:      routeplan.New(deps.LLM, deps.Landmarks),
		executor:    provider.New(deps.Places),
		cache:       cacheguard.NewWithTimeout(cacheTTL, cacheTimeout),
		chatGen:     chatGen,
		activeJobs:  make(map[string]context.CancelFunc),
		stopCh:      make(chan struct{}),
	}, nil
}

// Submit computes or accepts the idempotency
// key, let the job store's Create fold in the dedup check, and — on an
// actual fresh create — launch the pipeline in a detached, cancellable
// goroutine.
func (o *Orchestrator) Submit(ctx context.Context, req models.Request) (*models.Job, error) {
	if req.RequestID == "" {
		req.RequestID = "req_" + uuid.NewString()
	}

	idemKey := req.IdempotencyKey
	if idemKey == "" {
		idemKey = computeIdempotencyKey(req, submissionMode)
	}

	var ownerSession *string
	if req.SessionID != "" {
		s := req.SessionID
		ownerSession = &s
	}

	now := time.Now()
	job := &models.Job{
		RequestID:      req.RequestID,
		SessionID:      req.SessionID,
		Query:          req.OriginalText,
		Status:         models.JobPending,
		Progress:       models.ProgressJobCreated,
		CreatedAt:      now,
		UpdatedAt:      now,
		OwnerSessionID: ownerSession,
		IdempotencyKey: &idemKey,
	}

	created, err := o.deps.Jobs.Create(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: job create: %w", err)
	}
	metrics.JobStatusTotal.WithLabelValues(string(models.JobPending)).Inc()

	if created.RequestID != req.RequestID {
		// An existing job (still in flight, or DONE_SUCCESS within the
		// idempotency freshness window) matched the idempotency key; no new
		// pipeline execution starts, per the idempotency
		// window property.
		return created, nil
	}

	if req.ClearContext && req.SessionID != "" {
		o.deps.Sessions.Clear(req.SessionID)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	o.registerJob(created.RequestID, cancel)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer cancel()
		defer o.unregisterJob(created.RequestID)
		o.run(runCtx, req, created)
	}()

	return created, nil
}

func (o *Orchestrator) registerJob(requestID string, cancel context.CancelFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.activeJobs[requestID] = cancel
}

func (o *Orchestrator) unregisterJob(requestID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.activeJobs, requestID)
}

// Cancel cancels the named job's in-flight context,
// if it is still running. Reports whether a running job was found.
func (o *Orchestrator) Cancel(requestID string) bool {
	o.mu.Lock()
	cancel, ok := o.activeJobs[requestID]
	o.mu.Unlock()
	if !ok {
		return false
	}
	cancel()
	return true
}

// Stop cancels every in-flight job, waits up to
// graceWindow for its goroutine to observe cancellation and write its own
// terminal state, then force-marks anything still non-terminal as
// DONE_STOPPED, the same WorkerPool.Stop() drain idiom used elsewhere.
func (o *Orchestrator) Stop(graceWindow time.Duration) {
	o.stopOnce.Do(func() { close(o.stopCh) })

	o.mu.Lock()
	ids := make([]string, 0, len(o.activeJobs))
	for id, cancel := range o.activeJobs {
		ids = append(ids, id)
		cancel()
	}
	o.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(graceWindow):
		logger.Log.Warn("orchestrator shutdown grace window elapsed with jobs still in flight")
	}

	bg := context.Background()
	for _, id := range ids {
		job, err := o.deps.Jobs.Get(bg, id)
		if err != nil || job.Status.IsTerminal() {
			continue
		}
		if err := o.deps.Jobs.SetResult(bg, id, models.JobDoneStopped, nil); err == nil {
			metrics.JobStatusTotal.WithLabelValues(string(models.JobDoneStopped)).Inc()
		}
	}
}

// startHeartbeat writes a heartbeat at least every HeartbeatInterval while
// the pipeline is running, so the staleness sweep never reaps a genuinely
// slow-but-alive job via a periodic heartbeat. The
// returned func stops the ticker and must be called before run returns.
func (o *Orchestrator) startHeartbeat(ctx context.Context, requestID string) func() {
	interval := 15 * time.Second
	if o.deps.Config != nil && o.deps.Config.HeartbeatInterval > 0 {
		interval = o.deps.Config.HeartbeatInterval
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = o.deps.Jobs.Heartbeat(ctx, requestID)
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}

// run is the full pipeline for one request, executed on its own
// cancellable context off of Submit's caller.
func (o *Orchestrator) run(ctx context.Context, req models.Request, job *models.Job) {
	requestID := job.RequestID
	stopHeartbeat := o.startHeartbeat(ctx, requestID)
	defer stopHeartbeat()

	// Step 3: C4 Gate, escalating to the deep gate only when ambiguous.
	fast := gate.Evaluate(req.OriginalText)
	lang := fast.Language

	if !fast.Passed {
		switch {
		case fast.Reason == gate.ReasonEmptyText:
			// An empty query never reaches the LLM-assisted deep gate; it
			// is unambiguously a missing_query clarify.
			o.terminalClarify(ctx, requestID, lang, nil, "")
			return
		case gate.IsAmbiguous(fast, req.OriginalText):
			deep := o.deepGate.Evaluate(ctx, req.OriginalText)
			switch gate.Route(deep) {
			case gate.DecisionContinue:
				// Deep gate overrules the fast reject; fall through to Intent.
			case gate.DecisionStop:
				reason := "gate_fail"
				if deep.Stop != nil {
					reason = deep.Stop.Reason
				}
				o.fail(ctx, requestID, stageGate, fmt.Errorf("gate stop: %s", reason))
				return
			default:
				o.terminalClarify(ctx, requestID, lang, ambiguousFoodClarifyActions(lang), "")
				return
			}
		default:
			o.terminalClarify(ctx, requestID, lang, nil, "")
			return
		}
	}

	if err := o.deps.Jobs.UpdateProgress(ctx, requestID, models.ProgressGate); err != nil {
		o.fail(ctx, requestID, stageGate, err)
		return
	}

	// Step 3 continued: C5 Intent.
	hasLocation := req.UserLocation != nil
	in := o.intentStage.Resolve(ctx, req.OriginalText, hasLocation)
	if in.AssistantLanguage != "" {
		lang = in.AssistantLanguage
	}

	// An additional CLARIFY gate atop the LLM's own route decision: the
	// deterministic search-mode resolver (C3) independently confirms a food
	// anchor is present, catching cases the Intent LLM marked non-CLARIFY
	// despite extracting nothing to search for. Its location-related
	// verdicts are not applied here — TEXTSEARCH has its own cityText-aware
	// guard below, and NEARBY's location requirement is already enforced by
	// the Intent stage's own postValidate coercion.
	modeResult := resolvers.ResolveSearchMode(in, hasLocation)
	if modeResult.Reason == "missing_food_anchor" && in.Route != models.RouteClarify {
		logger.Log.Info("search-mode resolver overrides route to CLARIFY",
			zap.String("requestId", requestID), zap.String("reason", modeResult.Reason))
		in.Route = models.RouteClarify
	}

	if err := o.deps.Jobs.UpdateProgress(ctx, requestID, models.ProgressIntent); err != nil {
		o.fail(ctx, requestID, stageIntent, err)
		return
	}

	if in.Route == models.RouteClarify {
		o.terminalClarify(ctx, requestID, lang, nil, in.Reason)
		return
	}

	// Early TEXTSEARCH location guard: no provider call is
	// made at all if neither a user location nor a city anchor exists.
	if in.Route == models.RouteTextSearch && req.UserLocation == nil && (in.CityText == nil || *in.CityText == "") {
		o.terminalClarifyLocationRequired(ctx, requestID, lang)
		return
	}

	queryEmpty := req.OriginalText == ""

	// Step 4: C8 (shared filters) is a pure, near-instant derivation with
	// no network or LLM call, so it runs synchronously ahead of C6 (route
	// mapping), which depends on its output (providerLanguage/regionCode).
	// The genuine concurrency here is between the route mapper's LLM call and
	// the Cache Guard pre-check; since the guard's key is itself derived
	// from C6's plan, the guard lookup follows mapping rather than racing
	// it — there is nothing left to fan out once that dependency is honored.
	shared := filters.Resolve(in, "")

	plan, err := o.mapRoute(ctx, in, shared, req)
	if err != nil {
		o.fail(ctx, requestID, stageRoute, err)
		return
	}

	cached, cacheHit := o.cache.Lookup(ctx, plan)

	var flatResults []models.Place
	var groups []models.ResultGroup
	var servedFromCache bool

	if cacheHit {
		flatResults = cached.Results
		groups = cached.Groups
		servedFromCache = true
	} else {
		isStreet := grouping.IsStreetQuery(in, req.OriginalText)

		if isStreet && req.UserLocation != nil {
			flat, grp, err := o.runStreetGrouping(ctx, in, shared, req)
			if err != nil {
				o.fail(ctx, requestID, stageGrouping, err)
				return
			}
			flatResults, groups = flat, grp
		} else {
			results, err := o.executor.Execute(ctx, plan, shared.ProviderLanguage, shared.RegionCode)
			if err != nil {
				o.fail(ctx, requestID, stageProvider, err)
				return
			}
			flatResults = applyRadiusFilter(in, req.UserLocation, results)
		}

		o.cache.Store(plan, models.SearchResult{
			Results: flatResults,
			Groups:  groups,
			Meta:    models.ResultMeta{Route: in.Route, StreetGroupingOn: len(groups) > 0},
		})
	}

	if err := o.deps.Jobs.UpdateProgress(ctx, requestID, models.ProgressProviderFetch); err != nil {
		o.fail(ctx, requestID, stageProvider, err)
		return
	}

	filtered, filterStats := filters.Apply(flatResults, shared)

	if err := o.deps.Jobs.SetCandidatePool(ctx, requestID, &models.CandidatePool{
		Candidates:    flatResults,
		SearchContext: req.OriginalText,
		FetchedAt:     time.Now(),
		Route:         in.Route,
	}); err != nil {
		logger.Log.Warn("orchestrator: failed to cache candidate pool", zap.Error(err), zap.String("requestId", requestID))
	}

	if err := o.deps.Jobs.UpdateProgress(ctx, requestID, models.ProgressPostConstraints); err != nil {
		o.fail(ctx, requestID, stageProvider, err)
		return
	}

	// Step 6: C10 classification, with session-scoped repeat-unsuccessful
	// tracking.
	streak := 0
	if req.SessionID != "" {
		streak = o.deps.Sessions.UnsuccessfulStreak(req.SessionID, unsuccessfulRSEScenarios)
	}

	var nearbyCity *rse.NearbyCityResult
	if len(filtered) == 0 {
		nearbyCity = o.findNearbyCityResults(ctx, in, shared)
	}

	plan2Input := rse.Input{
		Intent:                  in,
		Route:                   in.Route,
		QueryEmpty:              queryEmpty,
		Results:                 filtered,
		Groups:                  groups,
		FilterStats:             filterStats,
		NearbyCityResults:       nearbyCity,
		PriorUnsuccessfulStreak: streak,
	}
	responsePlan := rse.Classify(plan2Input)

	if err := o.deps.Jobs.UpdateProgress(ctx, requestID, models.ProgressRanking); err != nil {
		o.fail(ctx, requestID, stageRoute, err)
		return
	}

	// Step 7: C11 ChatBack.
	sessionCtx := o.deps.Sessions.GetOrCreate(req.SessionID)
	chatResult := o.chatGen.Generate(ctx, responsePlan, lang, &sessionCtx.ChatBackMemory, len(filtered))
	responsePlan.ChatBackMessage = chatResult.Message
	responsePlan.Guardrails.UsedTemplateFallback = chatResult.UsedTemplate

	result := &models.SearchResult{
		Results: filtered,
		Groups:  groups,
		Meta: models.ResultMeta{
			Route:            in.Route,
			StreetGroupingOn: len(groups) > 0,
			ServedFromCache:  servedFromCache,
		},
		Assist: assistFromPlan(responsePlan),
	}

	status := terminalStatusFor(responsePlan.Scenario)
	if err := o.deps.Jobs.SetResult(ctx, requestID, status, result); err != nil {
		o.fail(ctx, requestID, stageRoute, err)
		return
	}
	metrics.JobStatusTotal.WithLabelValues(string(status)).Inc()

	if req.SessionID != "" {
		o.deps.Sessions.PushTurn(req.SessionID, models.IntentTurn{
			RequestID:  requestID,
			Query:      req.OriginalText,
			Intent:     in,
			Scenario:   responsePlan.Scenario,
			OccurredAt: time.Now(),
		})
	}
}

// mapRoute dispatches to the route mapper matching in.Route, per C6's one
// mapper per route design.
func (o *Orchestrator) mapRoute(ctx context.Context, in models.Intent, shared filters.Resolved, req models.Request) (models.ProviderPlan, error) {
	switch in.Route {
	case models.RouteNearby:
		return o.mapper.MapNearby(ctx, in, shared, req.UserLocation, req.OriginalText)
	case models.RouteLandmark:
		return o.mapper.MapLandmark(ctx, in, shared), nil
	default:
		return o.mapper.MapTextSearch(ctx, in, shared, req.UserLocation, req.OriginalText), nil
	}
}

// runStreetGrouping resolves the grouping center via the deterministic C3
// resolver (wiring it in rather than leaving it dead code) and issues the
// dual-radius fetch of C9.
func (o *Orchestrator) runStreetGrouping(ctx context.Context, in models.Intent, shared filters.Resolved, req models.Request) ([]models.Place, []models.ResultGroup, error) {
	geocoder := func(text string) (models.LatLng, bool) {
		ll, ok, err := o.deps.Places.Geocode(ctx, text)
		if err != nil {
			return models.LatLng{}, false
		}
		return ll, ok
	}

	centerResult := resolvers.ResolveCenter(in, req.UserLocation, geocoder)
	if centerResult.Center == nil {
		return nil, nil, models.ErrLocationRequired
	}
	center := *centerResult.Center

	radiusResult := resolvers.ResolveRadiusMeters(in)
	logger.Log.Debug("resolved street-grouping radius",
		zap.Int("radiusMeters", radiusResult.Meters), zap.String("source", string(radiusResult.Source)),
		zap.String("centerSource", string(centerResult.Source)))

	fetch := func(fctx context.Context, c models.LatLng, radiusMeters int) ([]models.Place, error) {
		return o.executor.ExecuteNearby(fctx, models.NearbyPlan{
			Center:           c,
			RadiusMeters:     radiusMeters,
			Keyword:          in.FoodAnchor.Type,
			ProviderLanguage: shared.ProviderLanguage,
			RegionCode:       shared.RegionCode,
		})
	}

	exactRadius, nearbyRadius := grouping.ExactRadiusMeters, grouping.NearbyRadiusMeters
	if o.deps.Config != nil && o.deps.Config.StreetSearch.ExactRadiusMeters > 0 && o.deps.Config.StreetSearch.NearbyRadiusMeters > 0 {
		exactRadius = o.deps.Config.StreetSearch.ExactRadiusMeters
		nearbyRadius = o.deps.Config.StreetSearch.NearbyRadiusMeters
	}

	exact, nearby, err := grouping.DualRadiusFetchWithRadii(ctx, center, fetch, exactRadius, nearbyRadius)
	if err != nil {
		return nil, nil, err
	}

	assembled := grouping.AssembleWithRadii(center, exact, nearby, in.LocationAnchor.Text, "nearby", exactRadius, nearbyRadius)
	return assembled.Flat, assembled.Groups, nil
}

// findNearbyCityResults probes nearbyCityHubs for a genuinely different known
// city with results, distinguishing zero_different_city from
// zero_nearby_exists. Only meaningful when the query itself was anchored on
// a recognized city; NEARBY/LANDMARK routes and unrecognized city text never
// probe, since "a different known city" has no anchor to differ from.
func (o *Orchestrator) findNearbyCityResults(ctx context.Context, in models.Intent, shared filters.Resolved) *rse.NearbyCityResult {
	if o.deps.Cities == nil || in.CityText == nil || *in.CityText == "" {
		return nil
	}
	queryCity := *in.CityText
	if _, ok := o.deps.Cities.Canonicalize(queryCity); !ok {
		return nil
	}

	originCenter, originOK, err := o.deps.Places.Geocode(ctx, queryCity)
	if err != nil {
		originOK = false
	}

	keyword := in.FoodAnchor.Type
	if keyword == "" {
		keyword = "restaurant"
	}

	for _, hub := range nearbyCityHubs {
		if filters.CityBenefit(o.deps.Cities, hub, queryCity) {
			// Canonicalizes to the same city, or the table can't tell the two
			// apart — either way, not provably a different city.
			continue
		}

		center, ok, err := o.deps.Places.Geocode(ctx, hub)
		if err != nil || !ok {
			continue
		}

		results, err := o.executor.ExecuteTextSearch(ctx, models.TextSearchPlan{
			TextQuery:        keyword + " " + hub,
			ProviderLanguage: shared.ProviderLanguage,
			RegionCode:       shared.RegionCode,
			Bias:             &models.Bias{Center: center, RadiusMeters: nearbyCityProbeRadiusMeters},
			Strictness:       models.StrictnessRelaxIfEmpty,
		})
		if err != nil || len(results) == 0 {
			continue
		}

		distanceKm := 0.0
		if originOK {
			distanceKm = geo.DistanceMeters(originCenter, center) / 1000
		}
		return &rse.NearbyCityResult{CityName: hub, DistanceKm: distanceKm, ResultCount: len(results)}
	}
	return nil
}

// applyRadiusFilter hard-filters NEARBY-route results to the resolved
// radius, which is a hard filter; other routes are left to the
// provider's own bias/strictness handling.
func applyRadiusFilter(in models.Intent, userLocation *models.LatLng, results []models.Place) []models.Place {
	if in.Route != models.RouteNearby || userLocation == nil {
		return results
	}
	radius := resolvers.ResolveRadiusMeters(in)
	out := make([]models.Place, 0, len(results))
	for _, p := range results {
		if geo.WithinRadius(*userLocation, p.Location, radius.Meters) {
			out = append(out, p)
		}
	}
	return out
}

// unsuccessfulRSEScenarios mirrors rse's own unexported escalation set, so
// the session store's streak lookup and the classifier agree on what
// counts as unsuccessful.
var unsuccessfulRSEScenarios = map[models.Scenario]bool{
	models.ScenarioZeroNearbyExists:  true,
	models.ScenarioZeroDifferentCity: true,
	models.ScenarioManyAllClosed:     true,
	models.ScenarioClarifyNeeded:     true,
}

func terminalStatusFor(scenario models.Scenario) models.JobStatus {
	if scenario == models.ScenarioClarifyNeeded {
		return models.JobDoneClarify
	}
	return models.JobDoneSuccess
}

func assistFromPlan(plan models.ResponsePlan) *models.AssistPayload {
	if plan.Scenario != models.ScenarioClarifyNeeded && !plan.Fallback.Offered {
		return nil
	}
	return &models.AssistPayload{
		Message:          plan.ChatBackMessage,
		SuggestedActions: plan.SuggestedActions,
	}
}

// ambiguousFoodClarifyActions builds the two-choice clarification of
// scenario 3 ("חניה" — ambiguous between "with parking" and "restaurant
// named Hanaya"): Hebrew gets the bespoke emoji-labeled pair, every other
// language falls back to a generic yes/no pair in the same shape.
func ambiguousFoodClarifyActions(lang models.Language) []models.Action {
	if lang == models.LangHebrew {
		return []models.Action{
			{Priority: 1, Label: "כן, עם חניה", Value: "with_parking", Emoji: "🅿️"},
			{Priority: 2, Label: "לא, זה שם המסעדה", Value: "restaurant_name", Emoji: "🔍"},
		}
	}
	return []models.Action{
		{Priority: 1, Label: "Yes, I mean parking", Value: "with_parking"},
		{Priority: 2, Label: "No, that's the restaurant name", Value: "restaurant_name"},
	}
}

// terminalClarify writes a DONE_CLARIFY terminal result built from the
// i18n clarify_needed template, optionally with bespoke suggested actions.
func (o *Orchestrator) terminalClarify(ctx context.Context, requestID string, lang models.Language, actions []models.Action, reason string) {
	msg := chatback.Render(lang, models.ScenarioClarifyNeeded)
	result := &models.SearchResult{
		Meta: models.ResultMeta{Route: models.RouteClarify},
		Assist: &models.AssistPayload{
			Message:          msg,
			FailureReason:    reason,
			SuggestedActions: actions,
		},
	}
	if err := o.deps.Jobs.SetResult(ctx, requestID, models.JobDoneClarify, result); err != nil {
		logger.Log.Error("orchestrator: failed to write clarify result", zap.Error(err), zap.String("requestId", requestID))
		return
	}
	metrics.JobStatusTotal.WithLabelValues(string(models.JobDoneClarify)).Inc()
}

// terminalClarifyLocationRequired implements the early TEXTSEARCH location
// guard's terminal response.
func (o *Orchestrator) terminalClarifyLocationRequired(ctx context.Context, requestID string, lang models.Language) {
	o.terminalClarify(ctx, requestID, lang, []models.Action{
		{Priority: 1, Label: "share_location", Value: "share_location"},
	}, "LOCATION_REQUIRED")
}

// fail classifies the failure, writes it via
// setError, and bump the DONE_FAILED counter.
func (o *Orchestrator) fail(ctx context.Context, requestID, stage string, err error) {
	errType, jobErr := classifyFailure(stage, err)
	logger.Log.Error("orchestrator: stage failed",
		zap.String("requestId", requestID), zap.String("stage", stage),
		zap.String("errorType", string(errType)), zap.Error(err))
	if setErr := o.deps.Jobs.SetError(ctx, requestID, jobErr); setErr != nil {
		logger.Log.Error("orchestrator: failed to write error result", zap.Error(setErr), zap.String("requestId", requestID))
		return
	}
	metrics.JobStatusTotal.WithLabelValues(string(models.JobDoneFailed)).Inc()
}
